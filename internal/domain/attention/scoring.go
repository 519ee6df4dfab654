package attention

import "math"

const (
	// AdmissionThreshold is the score an element must strictly exceed to be
	// admitted, even when every pool has room.
	AdmissionThreshold = 10

	// DefaultWeight is used when an element declares no usable weight
	DefaultWeight = 50.0

	// NoisyThreshold is the noise level above which voice channels are
	// considered degraded.
	NoisyThreshold = 70.0

	busyPenalty  = 0.3
	focusPenalty = 0.5
	noisePenalty = 0.7
)

// ComputeScore applies the standard scoring rules: weight times the urgency
// multiplier, attenuated by each contextual penalty that applies, rounded to
// the nearest integer. Scores too large for an int saturate at math.MaxInt.
func ComputeScore(weight float64, urgency Urgency, canDefer bool, c Context) int {
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		weight = DefaultWeight
	}

	urgency = urgency.Normalize()
	score := weight * urgency.Multiplier()

	if c.User.IsBusy && canDefer {
		score *= busyPenalty
	}
	if c.User.InFocusMode && urgency != UrgencyCritical {
		score *= focusPenalty
	}
	if c.Environment.NoiseLevel > NoisyThreshold && c.Modality.IncludesVoice() {
		score *= noisePenalty
	}

	// float64(math.MaxInt) rounds up to 2^63, which int cannot hold
	if score >= float64(math.MaxInt) {
		return math.MaxInt
	}
	return int(math.Round(score))
}
