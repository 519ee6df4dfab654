package attention

import (
	"fmt"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/attention/internal/infrastructure/monitoring"
)

// Trigger names the operation that caused an allocation pass
type Trigger string

const (
	TriggerRegister      Trigger = "register"
	TriggerUnregister    Trigger = "unregister"
	TriggerUpdateContext Trigger = "update_context"
	TriggerSetModality   Trigger = "set_modality"
	TriggerRefresh       Trigger = "refresh"
	TriggerConfigure     Trigger = "configure"
)

// Listener receives the full context after every allocation pass
type Listener func(Context)

type listenerEntry struct {
	id uint64
	fn Listener
}

// configurable is implemented by elements that report invalid attributes
type configurable interface {
	ConfigurationErrors() []error
}

// attributed is implemented by elements whose attributes can be replaced
type attributed interface {
	configurable
	SetAttributes(Attributes)
}

// Store owns the context and the element registry. Every mutating call runs
// exactly one allocation pass and one notification round before returning.
//
// Mutations are serialized by opMu. State is guarded by mu, which is not held
// while listeners run, so listeners may read the store. Listeners must not
// call mutating methods: that would deadlock on opMu. Scoreable methods run
// with mu held and must not call back into the store at all.
type Store struct {
	opMu sync.Mutex

	// mu protects everything below except defaults, logger and metrics
	mu        sync.RWMutex
	ctx       Context
	elements  *orderedmap.OrderedMap[string, Scoreable]
	decisions []Decision
	byID      map[string]int
	listeners []listenerEntry
	nextID    uint64

	defaults Budget
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// NewStore creates a store whose context starts at DefaultContext(capacity).
// Invalid capacities fall back to DefaultCapacity.
func NewStore(logger *zap.Logger, capacity Budget) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	capacity, issues := sanitizeCapacity(capacity, DefaultCapacity())
	for _, issue := range issues {
		logger.Warn("Invalid default capacity", zap.Error(issue))
	}

	return &Store{
		ctx:      DefaultContext(capacity),
		elements: orderedmap.New[string, Scoreable](),
		byID:     make(map[string]int),
		defaults: capacity,
		logger:   logger,
	}
}

// WithMetrics adds metrics tracking to the store
func (s *Store) WithMetrics(metrics *monitoring.Metrics) *Store {
	s.metrics = metrics
	return s
}

// Register adds el to the registry. Registering an ID that is already
// present keeps the existing member and its position; the pass still runs.
func (s *Store) Register(el Scoreable) {
	if el == nil {
		s.logger.Warn("Ignoring nil element registration")
		return
	}
	elementID := safeID(el)
	if elementID == "" {
		s.logger.Warn("Ignoring element with empty ID")
		return
	}

	s.mutate(TriggerRegister, func() []error {
		if _, ok := s.elements.Get(elementID); ok {
			s.logger.Debug("Element already registered", zap.String("element", elementID))
			return nil
		}
		s.elements.Set(elementID, el)
		if c, ok := el.(configurable); ok {
			return c.ConfigurationErrors()
		}
		return nil
	})
}

// Unregister removes el if it is registered
func (s *Store) Unregister(el Scoreable) {
	if el == nil {
		return
	}
	s.UnregisterID(safeID(el))
}

// UnregisterID removes the element with the given ID if present
func (s *Store) UnregisterID(elementID string) {
	s.mutate(TriggerUnregister, func() []error {
		s.elements.Delete(elementID)
		return nil
	})
}

// UpdateContext merges u into the context. Each supplied group replaces the
// whole group. Invalid values are replaced by defaults and logged.
func (s *Store) UpdateContext(u ContextUpdate) {
	s.mutate(TriggerUpdateContext, func() []error {
		next, issues := s.ctx.apply(u, s.defaults)
		s.ctx = next
		return issues
	})
}

// SetModality changes only the modality
func (s *Store) SetModality(m Modality) {
	s.mutate(TriggerSetModality, func() []error {
		next, issues := s.ctx.apply(ContextUpdate{Modality: &m}, s.defaults)
		s.ctx = next
		return issues
	})
}

// Refresh runs a pass without changing anything. Call it after changing an
// element's attributes.
func (s *Store) Refresh() {
	s.mutate(TriggerRefresh, func() []error { return nil })
}

// Configure replaces the attributes of the registered widget elementID and
// runs a pass. The change is made under the operation lock, so no pass ever
// sees a mix of old and new attributes. It returns ErrUnknownWidget, without
// running a pass, when elementID is not registered or cannot be configured.
func (s *Store) Configure(elementID string, attrs Attributes) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.RLock()
	el, ok := s.elements.Get(elementID)
	s.mu.RUnlock()

	target, isAttributed := el.(attributed)
	if !ok || !isAttributed {
		return fmt.Errorf("%w: %s", ErrUnknownWidget, elementID)
	}

	s.pass(TriggerConfigure, func() []error {
		target.SetAttributes(attrs)
		return target.ConfigurationErrors()
	})
	return nil
}

// OnChange registers l to run after every pass. Listeners run synchronously
// in registration order; a panicking listener is recovered and logged and
// the rest still run. The returned function removes l and may be called
// more than once.
func (s *Store) OnChange(l Listener) (unsubscribe func()) {
	if l == nil {
		return func() {}
	}

	s.mu.Lock()
	s.nextID++
	listenerID := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: listenerID, fn: l})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, entry := range s.listeners {
			if entry.id == listenerID {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// mutate serializes change against every other mutation and runs it
func (s *Store) mutate(trigger Trigger, change func() []error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.pass(trigger, change)
}

// pass applies change, runs the allocation pass, writes outcomes and
// notifies. opMu must be held.
func (s *Store) pass(trigger Trigger, change func() []error) {
	timer := monitoring.NewTimer(s.metrics, string(trigger))

	s.mu.Lock()
	issues := change()

	elements := make([]Scoreable, 0, s.elements.Len())
	for pair := s.elements.Oldest(); pair != nil; pair = pair.Next() {
		elements = append(elements, pair.Value)
	}

	result := Allocate(s.ctx, elements)
	s.ctx.Attention = result.Budget(s.ctx.Attention)
	s.decisions = result.Decisions
	s.byID = make(map[string]int, len(result.Decisions))
	for i, d := range result.Decisions {
		s.byID[d.ElementID] = i
	}

	c := s.ctx
	listeners := append([]listenerEntry(nil), s.listeners...)
	s.mu.Unlock()

	s.report(trigger, issues, result)
	s.writeOutcomes(elements, result)
	s.notify(listeners, c)

	timer.Stop(len(elements), result.Allocated())
}

func (s *Store) report(trigger Trigger, issues []error, result Result) {
	for _, issue := range issues {
		s.logger.Warn("Invalid input replaced", zap.String("trigger", string(trigger)), zap.Error(issue))
	}

	for _, d := range result.Decisions {
		if d.Err == nil {
			continue
		}
		s.logger.Warn("Element capability failed, deferring",
			zap.String("element", d.ElementID),
			zap.Error(d.Err),
		)
		if s.metrics != nil {
			op := "unknown"
			if ce, ok := d.Err.(*CapabilityError); ok {
				op = ce.Op
			}
			s.metrics.RecordCapabilityFailure(op)
		}
	}

	s.logger.Debug("Allocation pass complete",
		zap.String("trigger", string(trigger)),
		zap.Int("registered", len(result.Decisions)),
		zap.Int("allocated", result.Allocated()),
		zap.Float64("used_screen", result.Used.Screen),
		zap.Float64("used_audio", result.Used.Audio),
		zap.Float64("used_cognitive", result.Used.Cognitive),
	)

	if s.metrics != nil {
		s.metrics.RecordConfigurationErrors(len(issues))
	}
}

func (s *Store) writeOutcomes(elements []Scoreable, result Result) {
	outcomes := make(map[string]Outcome, len(result.Decisions))
	for _, d := range result.Decisions {
		outcomes[d.ElementID] = d.Outcome
	}

	for _, el := range elements {
		receiver, ok := el.(AllocationReceiver)
		if !ok {
			continue
		}
		elementID := safeID(el)
		if elementID == "" {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("Element panicked receiving allocation",
						zap.String("element", elementID),
						zap.Any("panic", r),
					)
				}
			}()
			receiver.SetAllocation(outcomes[elementID])
		}()
	}

	if s.metrics != nil {
		c := s.Context()
		s.metrics.SetBudget(string(DimensionScreen), c.Attention.UsedScreenSpace, c.Attention.MaxScreenSpace)
		s.metrics.SetBudget(string(DimensionAudio), c.Attention.UsedAudioTime, c.Attention.MaxAudioTime)
		s.metrics.SetBudget(string(DimensionCognitive), c.Attention.UsedCognitiveLoad, c.Attention.MaxCognitiveLoad)
	}
}

func (s *Store) notify(listeners []listenerEntry, c Context) {
	for _, l := range listeners {
		s.invoke(l, c)
	}
}

func (s *Store) invoke(l listenerEntry, c Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Listener panicked", zap.Uint64("listener", l.id), zap.Any("panic", r))
			if s.metrics != nil {
				s.metrics.RecordListenerFailure()
			}
		}
	}()
	l.fn(c)
}

// Context returns the current context
func (s *Store) Context() Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

// Capacity returns the default capacities UpdateContext falls back to
func (s *Store) Capacity() Budget {
	return s.defaults
}

// Len returns the number of registered elements
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.elements.Len()
}

// Elements returns registered elements in registration order
func (s *Store) Elements() []Scoreable {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Scoreable, 0, s.elements.Len())
	for pair := s.elements.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Element looks up a registered element
func (s *Store) Element(elementID string) (Scoreable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.elements.Get(elementID)
}

// Decisions returns the last pass's decisions in rank order
func (s *Store) Decisions() []Decision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Decision(nil), s.decisions...)
}

// View returns the context and decisions produced by the same pass
func (s *Store) View() (Context, []Decision) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx, append([]Decision(nil), s.decisions...)
}

// Decision returns the last pass's decision for one element
func (s *Store) Decision(elementID string) (Decision, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[elementID]
	if !ok {
		return Decision{}, false
	}
	return s.decisions[i], true
}

// Stats summarizes the last pass
type Stats struct {
	Registered int `json:"registered"`
	Allocated  int `json:"allocated"`
	Deferred   int `json:"deferred"`
	Failed     int `json:"failed"`
	Listeners  int `json:"listeners"`
}

// Stats returns counts from the last pass
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Registered: s.elements.Len(),
		Listeners:  len(s.listeners),
	}
	for _, d := range s.decisions {
		switch d.Outcome {
		case OutcomeAllocated:
			stats.Allocated++
		case OutcomeDeferred:
			stats.Deferred++
		}
		if d.Err != nil {
			stats.Failed++
		}
	}
	return stats
}
