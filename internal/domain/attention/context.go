package attention

import (
	"math"
	"strings"
)

// DefaultCapacity returns the pool capacities used when none are configured
func DefaultCapacity() Budget {
	return Budget{
		MaxScreenSpace:   100,
		MaxAudioTime:     10,
		MaxCognitiveLoad: 3,
	}
}

// DefaultContext returns the startup context: screen modality, a quiet
// private single-viewer environment, an idle user and zero usage.
func DefaultContext(capacity Budget) Context {
	capacity, _ = sanitizeCapacity(capacity, DefaultCapacity())
	return Context{
		Modality: ModalityScreen,
		Environment: Environment{
			NoiseLevel:  0,
			ViewerCount: 1,
			IsPublic:    false,
			Lighting:    LightingNormal,
		},
		User: User{},
		Attention: Budget{
			MaxScreenSpace:   capacity.MaxScreenSpace,
			MaxAudioTime:     capacity.MaxAudioTime,
			MaxCognitiveLoad: capacity.MaxCognitiveLoad,
		},
	}
}

// ContextUpdate is a partial update. A non-nil group replaces the whole
// group; nil groups are left alone. Only the Max fields of Attention are
// read.
type ContextUpdate struct {
	Modality    *Modality    `json:"modality,omitempty" yaml:"modality,omitempty" toml:"modality,omitempty"`
	Environment *Environment `json:"environment,omitempty" yaml:"environment,omitempty" toml:"environment,omitempty"`
	User        *User        `json:"user,omitempty" yaml:"user,omitempty" toml:"user,omitempty"`
	Attention   *Budget      `json:"attention,omitempty" yaml:"attention,omitempty" toml:"attention,omitempty"`
}

// IsEmpty reports whether the update touches no group
func (u ContextUpdate) IsEmpty() bool {
	return u.Modality == nil && u.Environment == nil && u.User == nil && u.Attention == nil
}

// apply merges u into c. Invalid values are replaced and reported.
func (c Context) apply(u ContextUpdate, defaults Budget) (Context, []error) {
	var issues []error

	if u.Modality != nil {
		m, err := sanitizeModality(*u.Modality)
		if err != nil {
			issues = append(issues, err)
		}
		c.Modality = m
	}
	if u.Environment != nil {
		env, errs := sanitizeEnvironment(*u.Environment)
		issues = append(issues, errs...)
		c.Environment = env
	}
	if u.User != nil {
		c.User = *u.User
	}
	if u.Attention != nil {
		capacity, errs := sanitizeCapacity(*u.Attention, defaults)
		issues = append(issues, errs...)
		c.Attention.MaxScreenSpace = capacity.MaxScreenSpace
		c.Attention.MaxAudioTime = capacity.MaxAudioTime
		c.Attention.MaxCognitiveLoad = capacity.MaxCognitiveLoad
	}

	return c, issues
}

func sanitizeModality(m Modality) (Modality, error) {
	trimmed := Modality(strings.TrimSpace(string(m)))
	if trimmed == "" {
		return ModalityScreen, &ConfigurationError{Field: "modality", Value: m, Reason: "empty, using screen"}
	}
	return trimmed, nil
}

func sanitizeEnvironment(env Environment) (Environment, []error) {
	var issues []error

	switch {
	case math.IsNaN(env.NoiseLevel):
		issues = append(issues, &ConfigurationError{Field: "environment.noiseLevel", Value: env.NoiseLevel, Reason: "not a number, using 0"})
		env.NoiseLevel = 0
	case env.NoiseLevel < 0:
		issues = append(issues, &ConfigurationError{Field: "environment.noiseLevel", Value: env.NoiseLevel, Reason: "clamped to 0"})
		env.NoiseLevel = 0
	case env.NoiseLevel > 100:
		issues = append(issues, &ConfigurationError{Field: "environment.noiseLevel", Value: env.NoiseLevel, Reason: "clamped to 100"})
		env.NoiseLevel = 100
	}

	if env.ViewerCount < 1 {
		// zero usually means the field was omitted, so it is not reported
		if env.ViewerCount < 0 {
			issues = append(issues, &ConfigurationError{Field: "environment.viewerCount", Value: env.ViewerCount, Reason: "using 1"})
		}
		env.ViewerCount = 1
	}

	if env.Lighting == "" {
		env.Lighting = LightingNormal
	}

	return env, issues
}

// sanitizeCapacity replaces non-positive or non-finite capacities with the
// matching default. Used fields are zeroed.
func sanitizeCapacity(b, defaults Budget) (Budget, []error) {
	var issues []error

	fix := func(field string, v, def float64) float64 {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			issues = append(issues, &ConfigurationError{Field: field, Value: v, Reason: "must be positive, using default"})
			return def
		}
		return v
	}

	return Budget{
		MaxScreenSpace:   fix("attention.maxScreenSpace", b.MaxScreenSpace, defaults.MaxScreenSpace),
		MaxAudioTime:     fix("attention.maxAudioTime", b.MaxAudioTime, defaults.MaxAudioTime),
		MaxCognitiveLoad: fix("attention.maxCognitiveLoad", b.MaxCognitiveLoad, defaults.MaxCognitiveLoad),
	}, issues
}
