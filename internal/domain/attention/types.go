package attention

import (
	"math"
	"strings"
)

// Modality is the active interaction channel
type Modality string

const (
	ModalityScreen      Modality = "screen"
	ModalityVoiceScreen Modality = "voice-screen"
	ModalityVoiceOnly   Modality = "voice-only"
)

// IncludesVoice reports whether the modality involves a voice channel
func (m Modality) IncludesVoice() bool {
	return strings.Contains(string(m), "voice")
}

// Lighting describes ambient light around the display
type Lighting string

const (
	LightingNormal Lighting = "normal"
	LightingBright Lighting = "bright"
	LightingDim    Lighting = "dim"
	LightingDark   Lighting = "dark"
)

// Environment holds sensed surroundings
type Environment struct {
	NoiseLevel  float64  `json:"noiseLevel" yaml:"noiseLevel" toml:"noiseLevel"` // 0-100
	ViewerCount int      `json:"viewerCount" yaml:"viewerCount" toml:"viewerCount"`
	IsPublic    bool     `json:"isPublic" yaml:"isPublic" toml:"isPublic"`
	Lighting    Lighting `json:"lighting" yaml:"lighting" toml:"lighting"`
}

// User holds the user's current state and preferences
type User struct {
	IsBusy               bool `json:"isBusy" yaml:"isBusy" toml:"isBusy"`
	InFocusMode          bool `json:"inFocusMode" yaml:"inFocusMode" toml:"inFocusMode"`
	PrefersReducedMotion bool `json:"prefersReducedMotion" yaml:"prefersReducedMotion" toml:"prefersReducedMotion"`
}

// Budget holds pool capacities and the usage computed by the last pass
type Budget struct {
	MaxScreenSpace   float64 `json:"maxScreenSpace" yaml:"maxScreenSpace" toml:"maxScreenSpace"`
	MaxAudioTime     float64 `json:"maxAudioTime" yaml:"maxAudioTime" toml:"maxAudioTime"`
	MaxCognitiveLoad float64 `json:"maxCognitiveLoad" yaml:"maxCognitiveLoad" toml:"maxCognitiveLoad"`

	UsedScreenSpace   float64 `json:"usedScreenSpace" yaml:"usedScreenSpace" toml:"usedScreenSpace"`
	UsedAudioTime     float64 `json:"usedAudioTime" yaml:"usedAudioTime" toml:"usedAudioTime"`
	UsedCognitiveLoad float64 `json:"usedCognitiveLoad" yaml:"usedCognitiveLoad" toml:"usedCognitiveLoad"`
}

// Capacity returns the max fields as Needs
func (b Budget) Capacity() Needs {
	return Needs{Screen: b.MaxScreenSpace, Audio: b.MaxAudioTime, Cognitive: b.MaxCognitiveLoad}
}

// Used returns the used fields as Needs
func (b Budget) Used() Needs {
	return Needs{Screen: b.UsedScreenSpace, Audio: b.UsedAudioTime, Cognitive: b.UsedCognitiveLoad}
}

// Check returns an *InvariantViolation for the first pool whose usage
// exceeds its capacity.
func (b Budget) Check() error {
	switch {
	case b.UsedScreenSpace > b.MaxScreenSpace:
		return &InvariantViolation{Dimension: DimensionScreen, Used: b.UsedScreenSpace, Max: b.MaxScreenSpace}
	case b.UsedAudioTime > b.MaxAudioTime:
		return &InvariantViolation{Dimension: DimensionAudio, Used: b.UsedAudioTime, Max: b.MaxAudioTime}
	case b.UsedCognitiveLoad > b.MaxCognitiveLoad:
		return &InvariantViolation{Dimension: DimensionCognitive, Used: b.UsedCognitiveLoad, Max: b.MaxCognitiveLoad}
	}
	return nil
}

// Context is the full state the allocator scores against. It is a value:
// the store replaces it wholesale on every update.
type Context struct {
	Modality    Modality    `json:"modality" yaml:"modality" toml:"modality"`
	Environment Environment `json:"environment" yaml:"environment" toml:"environment"`
	User        User        `json:"user" yaml:"user" toml:"user"`
	Attention   Budget      `json:"attention" yaml:"attention" toml:"attention"`
}

// Dimension names one of the three pools
type Dimension string

const (
	DimensionScreen    Dimension = "screen"
	DimensionAudio     Dimension = "audio"
	DimensionCognitive Dimension = "cognitive"
)

// Needs is a resource cost (or total) across the three pools
type Needs struct {
	Screen    float64 `json:"screen" yaml:"screen" toml:"screen"`
	Audio     float64 `json:"audio" yaml:"audio" toml:"audio"`
	Cognitive float64 `json:"cognitive" yaml:"cognitive" toml:"cognitive"`
}

// DefaultNeeds is charged for any need an element does not declare
var DefaultNeeds = Needs{Screen: 10, Audio: 2, Cognitive: 0.5}

// Add returns the component-wise sum
func (n Needs) Add(o Needs) Needs {
	return Needs{Screen: n.Screen + o.Screen, Audio: n.Audio + o.Audio, Cognitive: n.Cognitive + o.Cognitive}
}

// Within reports whether every component is at most the matching capacity
func (n Needs) Within(capacity Needs) bool {
	return n.Screen <= capacity.Screen && n.Audio <= capacity.Audio && n.Cognitive <= capacity.Cognitive
}

// Valid reports whether every component is finite and non-negative
func (n Needs) Valid() bool {
	return validAmount(n.Screen) && validAmount(n.Audio) && validAmount(n.Cognitive)
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// Outcome is the allocator's verdict for one element
type Outcome string

const (
	// OutcomePending is reported by elements that have not been through a pass
	OutcomePending   Outcome = "pending"
	OutcomeAllocated Outcome = "allocated"
	OutcomeDeferred  Outcome = "deferred"
)

// Urgency is an element's declared urgency tag
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
)

// Multiplier returns the score multiplier for the urgency. Unknown tags
// count as medium.
func (u Urgency) Multiplier() float64 {
	switch u.Normalize() {
	case UrgencyCritical:
		return 2.0
	case UrgencyHigh:
		return 1.5
	case UrgencyLow:
		return 0.5
	default:
		return 1.0
	}
}

// Normalize lowercases the tag and maps unknown or empty tags to medium
func (u Urgency) Normalize() Urgency {
	if !u.known() {
		return UrgencyMedium
	}
	return u.lower()
}

func (u Urgency) lower() Urgency {
	return Urgency(strings.ToLower(strings.TrimSpace(string(u))))
}

func (u Urgency) known() bool {
	switch u.lower() {
	case UrgencyCritical, UrgencyHigh, UrgencyMedium, UrgencyLow:
		return true
	}
	return false
}
