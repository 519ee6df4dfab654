package attention

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeScore(t *testing.T) {
	base := DefaultContext(DefaultCapacity())

	busy := base
	busy.User.IsBusy = true

	focus := base
	focus.User.InFocusMode = true

	noisyVoice := base
	noisyVoice.Environment.NoiseLevel = 80
	noisyVoice.Modality = ModalityVoiceScreen

	noisyScreen := base
	noisyScreen.Environment.NoiseLevel = 80

	borderlineVoice := noisyVoice
	borderlineVoice.Environment.NoiseLevel = 70

	everything := noisyVoice
	everything.User.IsBusy = true
	everything.User.InFocusMode = true

	tests := []struct {
		name     string
		weight   float64
		urgency  Urgency
		canDefer bool
		ctx      Context
		want     int
	}{
		{"medium default", 50, UrgencyMedium, true, base, 50},
		{"critical", 90, UrgencyCritical, true, base, 180},
		{"high", 80, UrgencyHigh, true, base, 120},
		{"low", 50, UrgencyLow, true, base, 25},
		{"unknown urgency counts as medium", 50, "urgent!", true, base, 50},
		{"noise with voice", 50, UrgencyMedium, true, noisyVoice, 35},
		{"noise without voice", 50, UrgencyMedium, true, noisyScreen, 50},
		{"noise at threshold", 50, UrgencyMedium, true, borderlineVoice, 50},
		{"busy and deferrable", 60, UrgencyLow, true, busy, 9},
		{"busy but not deferrable", 60, UrgencyLow, false, busy, 30},
		{"focus non-critical", 50, UrgencyMedium, true, focus, 25},
		{"focus critical", 50, UrgencyCritical, true, focus, 100},
		{"penalties compound", 50, UrgencyMedium, true, everything, 5},
		{"rounds half up", 5, UrgencyLow, true, base, 3},
		{"negative weight uses default", -4, UrgencyMedium, true, base, 50},
		{"NaN weight uses default", math.NaN(), UrgencyMedium, true, base, 50},
		{"zero weight", 0, UrgencyCritical, true, base, 0},
		{"huge weight saturates", 1e19, UrgencyCritical, true, base, math.MaxInt},
		{"enormous weight saturates", 1e300, UrgencyMedium, true, base, math.MaxInt},
		{"huge weight after penalties", 1e300, UrgencyMedium, true, everything, math.MaxInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeScore(tt.weight, tt.urgency, tt.canDefer, tt.ctx))
		})
	}
}

func TestDeferrableRanksBelowNonDeferrableWhenBusy(t *testing.T) {
	c := DefaultContext(DefaultCapacity())
	c.User.IsBusy = true

	deferrable := NewWidgetWithID("deferrable", KindFeedback, Attributes{Urgency: UrgencyLow})
	pinned := NewWidgetWithID("pinned", KindFeedback, Attributes{Urgency: UrgencyLow, CanDefer: boolPtr(false)})

	deferrableScore, err := deferrable.Score(c)
	require.NoError(t, err)
	pinnedScore, err := pinned.Score(c)
	require.NoError(t, err)

	assert.Equal(t, 25, pinnedScore)
	assert.Equal(t, 8, deferrableScore) // 25 * 0.3 = 7.5
	assert.LessOrEqual(t, deferrableScore, pinnedScore)
}

func TestWidgetDefaults(t *testing.T) {
	w := NewWidget(KindAction, Attributes{})

	assert.NotEmpty(t, w.ID())
	assert.Equal(t, KindAction, w.Kind())
	assert.Equal(t, UrgencyMedium, w.Urgency())
	assert.Equal(t, OutcomePending, w.Outcome())
	assert.False(t, w.Allocated())
	assert.Empty(t, w.ConfigurationErrors())

	needs, err := w.Needs()
	require.NoError(t, err)
	assert.Equal(t, DefaultNeeds, needs)

	score, err := w.Score(DefaultContext(DefaultCapacity()))
	require.NoError(t, err)
	assert.Equal(t, 50, score)
}

func TestWidgetWeightPrecedence(t *testing.T) {
	c := DefaultContext(DefaultCapacity())

	t.Run("attention-weight wins", func(t *testing.T) {
		w := NewWidget(KindCard, Attributes{Weight: floatPtr(70), Priority: floatPtr(20)})
		score, _ := w.Score(c)
		assert.Equal(t, 70, score)
	})

	t.Run("priority is the fallback", func(t *testing.T) {
		w := NewWidget(KindCard, Attributes{Priority: floatPtr(20)})
		score, _ := w.Score(c)
		assert.Equal(t, 20, score)
	})

	t.Run("invalid weight falls through to priority", func(t *testing.T) {
		w := NewWidget(KindCard, Attributes{Weight: floatPtr(-1), Priority: floatPtr(20)})
		score, _ := w.Score(c)
		assert.Equal(t, 20, score)

		issues := w.ConfigurationErrors()
		require.Len(t, issues, 1)
		var cfgErr *ConfigurationError
		require.True(t, errors.As(issues[0], &cfgErr))
		assert.Equal(t, "attention-weight", cfgErr.Field)
	})

	t.Run("invalid everything uses default", func(t *testing.T) {
		w := NewWidget(KindCard, Attributes{Priority: floatPtr(math.Inf(1))})
		score, _ := w.Score(c)
		assert.Equal(t, 50, score)
		assert.Len(t, w.ConfigurationErrors(), 1)
	})
}

func TestWidgetNeedsSanitized(t *testing.T) {
	w := NewWidget(KindModal, Attributes{Needs: &PartialNeeds{
		Screen: floatPtr(-5),
		Audio:  floatPtr(math.NaN()),
	}})

	needs, err := w.Needs()
	require.NoError(t, err)
	assert.Equal(t, Needs{Screen: 0, Audio: DefaultNeeds.Audio, Cognitive: DefaultNeeds.Cognitive}, needs)
	assert.Len(t, w.ConfigurationErrors(), 2)
}

func TestWidgetUrgencyNormalization(t *testing.T) {
	assert.Equal(t, UrgencyHigh, NewWidget(KindMenu, Attributes{Urgency: " High "}).Urgency())
	assert.Empty(t, NewWidget(KindMenu, Attributes{Urgency: "CRITICAL"}).ConfigurationErrors())

	unknown := NewWidget(KindMenu, Attributes{Urgency: "asap"})
	assert.Equal(t, UrgencyMedium, unknown.Urgency())
	assert.Len(t, unknown.ConfigurationErrors(), 1)
}

func TestWidgetSetAttributes(t *testing.T) {
	w := NewWidget(KindInput, Attributes{Urgency: UrgencyLow})
	c := DefaultContext(DefaultCapacity())

	before, _ := w.Score(c)
	w.SetAttributes(Attributes{Urgency: UrgencyCritical})
	after, _ := w.Score(c)

	assert.Equal(t, 25, before)
	assert.Equal(t, 100, after)
	assert.Equal(t, UrgencyCritical, w.Attributes().Urgency)
}

func TestModalityIncludesVoice(t *testing.T) {
	assert.False(t, ModalityScreen.IncludesVoice())
	assert.True(t, ModalityVoiceScreen.IncludesVoice())
	assert.True(t, ModalityVoiceOnly.IncludesVoice())
	assert.True(t, Modality("car-voice").IncludesVoice())
}

func floatPtr(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }
