package attention

import (
	"fmt"
	"sort"
)

// Scoreable is the capability every registered element provides. Both
// methods are called once per allocation pass.
type Scoreable interface {
	ID() string
	Score(c Context) (int, error)
	Needs() (Needs, error)
}

// AllocationReceiver is implemented by elements that want their outcome
// written back after each pass.
type AllocationReceiver interface {
	SetAllocation(Outcome)
}

// Decision is the allocator's verdict for one element in one pass
type Decision struct {
	ElementID string  `json:"id"`
	Rank      int     `json:"rank"`
	Score     int     `json:"score"`
	Needs     Needs   `json:"needs"`
	Outcome   Outcome `json:"outcome"`
	Err       error   `json:"-"`
}

// Failed reports whether the element's capability failed this pass
func (d Decision) Failed() bool { return d.Err != nil }

// Result is the output of one allocation pass
type Result struct {
	// Decisions are in rank order
	Decisions []Decision
	Used      Needs
}

// Allocated counts admitted elements
func (r Result) Allocated() int {
	n := 0
	for _, d := range r.Decisions {
		if d.Outcome == OutcomeAllocated {
			n++
		}
	}
	return n
}

// Budget returns b with its used fields replaced by the pass totals
func (r Result) Budget(b Budget) Budget {
	b.UsedScreenSpace = r.Used.Screen
	b.UsedAudioTime = r.Used.Audio
	b.UsedCognitiveLoad = r.Used.Cognitive
	return b
}

// Allocate runs one allocation pass. Every element is scored once against c,
// the list is stably sorted by score (ties keep the order of elements), and a
// single greedy walk admits each element whose needs fit in what is left of
// every pool and whose score exceeds AdmissionThreshold. There is no
// backtracking.
func Allocate(c Context, elements []Scoreable) Result {
	decisions := make([]Decision, len(elements))
	for i, el := range elements {
		decisions[i] = evaluate(el, c)
	}

	sort.SliceStable(decisions, func(i, j int) bool {
		return decisions[i].Score > decisions[j].Score
	})

	capacity := c.Attention.Capacity()
	var used Needs

	for i := range decisions {
		d := &decisions[i]
		d.Rank = i + 1

		next := used.Add(d.Needs)
		if d.Score > AdmissionThreshold && next.Within(capacity) {
			used = next
			d.Outcome = OutcomeAllocated
		} else {
			d.Outcome = OutcomeDeferred
		}
	}

	return Result{Decisions: decisions, Used: used}
}

// evaluate reads an element's score and needs. Any failure yields score 0
// and zero needs so the element is deferred without affecting the others.
func evaluate(el Scoreable, c Context) (d Decision) {
	d.ElementID = safeID(el)

	score, err := safeScore(el, c)
	if err != nil {
		d.Err = &CapabilityError{ElementID: d.ElementID, Op: "score", Err: err}
		return d
	}

	needs, err := safeNeeds(el)
	if err == nil && !needs.Valid() {
		err = fmt.Errorf("%w: %+v", ErrInvalidNeeds, needs)
	}
	if err != nil {
		d.Err = &CapabilityError{ElementID: d.ElementID, Op: "needs", Err: err}
		return d
	}

	if score < 0 {
		score = 0
	}
	d.Score = score
	d.Needs = needs
	return d
}

func safeID(el Scoreable) (elementID string) {
	defer func() {
		if r := recover(); r != nil {
			elementID = ""
		}
	}()
	return el.ID()
}

func safeScore(el Scoreable, c Context) (score int, err error) {
	defer func() {
		if r := recover(); r != nil {
			score, err = 0, fmt.Errorf("%w: %v", ErrCapabilityPanic, r)
		}
	}()
	return el.Score(c)
}

func safeNeeds(el Scoreable) (needs Needs, err error) {
	defer func() {
		if r := recover(); r != nil {
			needs, err = Needs{}, fmt.Errorf("%w: %v", ErrCapabilityPanic, r)
		}
	}()
	return el.Needs()
}
