package attention

import (
	"math"
	"sync"

	"github.com/GriffinCanCode/AgentOS/attention/internal/shared/id"
)

// Kind labels what sort of widget an element is. It does not affect scoring.
type Kind string

const (
	KindAction    Kind = "action"
	KindCard      Kind = "card"
	KindInput     Kind = "input"
	KindModal     Kind = "modal"
	KindNavigator Kind = "navigator"
	KindList      Kind = "list"
	KindMenu      Kind = "menu"
	KindFeedback  Kind = "feedback"
	KindAdjuster  Kind = "adjuster"
)

// PartialNeeds declares some or all of an element's needs. Missing fields
// fall back to DefaultNeeds.
type PartialNeeds struct {
	Screen    *float64 `json:"screen,omitempty" yaml:"screen,omitempty" toml:"screen,omitempty"`
	Audio     *float64 `json:"audio,omitempty" yaml:"audio,omitempty" toml:"audio,omitempty"`
	Cognitive *float64 `json:"cognitive,omitempty" yaml:"cognitive,omitempty" toml:"cognitive,omitempty"`
}

// Attributes are the declarative inputs a Widget is scored from
type Attributes struct {
	Urgency  Urgency       `json:"urgency,omitempty" yaml:"urgency,omitempty" toml:"urgency,omitempty"`
	Weight   *float64      `json:"attention-weight,omitempty" yaml:"attention-weight,omitempty" toml:"attention-weight,omitempty"`
	Priority *float64      `json:"priority,omitempty" yaml:"priority,omitempty" toml:"priority,omitempty"`
	CanDefer *bool         `json:"can-defer,omitempty" yaml:"can-defer,omitempty" toml:"can-defer,omitempty"`
	Needs    *PartialNeeds `json:"needs,omitempty" yaml:"needs,omitempty" toml:"needs,omitempty"`
}

// resolved is the sanitized form of Attributes
type resolved struct {
	urgency  Urgency
	weight   float64
	canDefer bool
	needs    Needs
}

func (a Attributes) resolve() (resolved, []error) {
	var issues []error

	r := resolved{
		urgency:  a.Urgency.Normalize(),
		weight:   DefaultWeight,
		canDefer: a.CanDefer == nil || *a.CanDefer,
		needs:    DefaultNeeds,
	}

	if a.Urgency != "" && !a.Urgency.known() {
		issues = append(issues, &ConfigurationError{Field: "urgency", Value: a.Urgency, Reason: "unknown, using medium"})
	}

	// attention-weight wins over priority
	for _, candidate := range []struct {
		field string
		value *float64
	}{{"attention-weight", a.Weight}, {"priority", a.Priority}} {
		if candidate.value == nil {
			continue
		}
		v := *candidate.value
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			issues = append(issues, &ConfigurationError{Field: candidate.field, Value: v, Reason: "must be a non-negative number"})
			continue
		}
		r.weight = v
		break
	}

	if a.Needs != nil {
		r.needs.Screen = resolveNeed("needs.screen", a.Needs.Screen, DefaultNeeds.Screen, &issues)
		r.needs.Audio = resolveNeed("needs.audio", a.Needs.Audio, DefaultNeeds.Audio, &issues)
		r.needs.Cognitive = resolveNeed("needs.cognitive", a.Needs.Cognitive, DefaultNeeds.Cognitive, &issues)
	}

	return r, issues
}

func resolveNeed(field string, v *float64, def float64, issues *[]error) float64 {
	if v == nil {
		return def
	}
	switch {
	case math.IsNaN(*v) || math.IsInf(*v, 0):
		*issues = append(*issues, &ConfigurationError{Field: field, Value: *v, Reason: "not finite, using default"})
		return def
	case *v < 0:
		*issues = append(*issues, &ConfigurationError{Field: field, Value: *v, Reason: "clamped to 0"})
		return 0
	}
	return *v
}

// Widget is the stock Scoreable. It is safe for concurrent use.
type Widget struct {
	id   string
	kind Kind

	mu      sync.RWMutex
	attrs   Attributes
	res     resolved
	issues  []error
	outcome Outcome
}

// NewWidget creates a widget with a generated ID
func NewWidget(kind Kind, attrs Attributes) *Widget {
	return NewWidgetWithID(id.NewElementID().String(), kind, attrs)
}

// NewWidgetWithID creates a widget with a caller-chosen ID
func NewWidgetWithID(elementID string, kind Kind, attrs Attributes) *Widget {
	w := &Widget{
		id:      elementID,
		kind:    kind,
		outcome: OutcomePending,
	}
	w.SetAttributes(attrs)
	return w
}

// ID returns the widget's registry key
func (w *Widget) ID() string { return w.id }

// Kind returns the widget's label
func (w *Widget) Kind() Kind { return w.kind }

// Attributes returns the attributes as last set
func (w *Widget) Attributes() Attributes {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.attrs
}

// SetAttributes replaces the widget's attributes. The new values take
// effect on the next allocation pass. For a registered widget use
// Store.Configure, which also runs that pass.
func (w *Widget) SetAttributes(attrs Attributes) {
	res, issues := attrs.resolve()

	w.mu.Lock()
	w.attrs = attrs
	w.res = res
	w.issues = issues
	w.mu.Unlock()
}

// ConfigurationErrors returns the problems found in the current attributes
func (w *Widget) ConfigurationErrors() []error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]error(nil), w.issues...)
}

// Urgency returns the normalized urgency
func (w *Widget) Urgency() Urgency {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.res.urgency
}

// Score implements Scoreable
func (w *Widget) Score(c Context) (int, error) {
	w.mu.RLock()
	res := w.res
	w.mu.RUnlock()

	return ComputeScore(res.weight, res.urgency, res.canDefer, c), nil
}

// Needs implements Scoreable
func (w *Widget) Needs() (Needs, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.res.needs, nil
}

// SetAllocation implements AllocationReceiver
func (w *Widget) SetAllocation(o Outcome) {
	w.mu.Lock()
	w.outcome = o
	w.mu.Unlock()
}

// Outcome returns the outcome written by the last pass
func (w *Widget) Outcome() Outcome {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.outcome
}

// Allocated reports whether the last pass admitted the widget
func (w *Widget) Allocated() bool {
	return w.Outcome() == OutcomeAllocated
}
