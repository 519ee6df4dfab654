// Package inspect builds read-only snapshots of an attention store for the
// API, the devtools stream and the simulate command.
package inspect

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/GriffinCanCode/AgentOS/attention/internal/domain/attention"
)

// ElementView is one element as seen by the last pass
type ElementView struct {
	ID      string            `json:"id"`
	Kind    attention.Kind    `json:"kind,omitempty"`
	Rank    int               `json:"rank"`
	Score   int               `json:"score"`
	Needs   attention.Needs   `json:"needs"`
	Outcome attention.Outcome `json:"outcome"`
	Error   string            `json:"error,omitempty"`
}

// Utilization is used/max per pool, in [0, 1]
type Utilization struct {
	Screen    float64 `json:"screen"`
	Audio     float64 `json:"audio"`
	Cognitive float64 `json:"cognitive"`
}

// Summary aggregates a snapshot
type Summary struct {
	Registered  int         `json:"registered"`
	Allocated   int         `json:"allocated"`
	Deferred    int         `json:"deferred"`
	Failed      int         `json:"failed"`
	MeanScore   float64     `json:"meanScore"`
	StdDevScore float64     `json:"stdDevScore"`
	MedianScore float64     `json:"medianScore"`
	Utilization Utilization `json:"utilization"`
}

// Snapshot is the store's state after its last pass
type Snapshot struct {
	Context  attention.Context `json:"context"`
	Elements []ElementView     `json:"elements"`
	Summary  Summary           `json:"summary"`
	TakenAt  time.Time         `json:"takenAt"`
}

type kinded interface {
	Kind() attention.Kind
}

// Take snapshots store. Elements are listed in rank order.
func Take(store *attention.Store) Snapshot {
	c, decisions := store.View()

	views := make([]ElementView, len(decisions))
	for i, d := range decisions {
		views[i] = ElementView{
			ID:      d.ElementID,
			Rank:    d.Rank,
			Score:   d.Score,
			Needs:   d.Needs,
			Outcome: d.Outcome,
		}
		if d.Err != nil {
			views[i].Error = d.Err.Error()
		}
		if el, ok := store.Element(d.ElementID); ok {
			if k, ok := el.(kinded); ok {
				views[i].Kind = k.Kind()
			}
		}
	}

	return Snapshot{
		Context:  c,
		Elements: views,
		Summary:  Summarize(c, decisions),
		TakenAt:  time.Now().UTC(),
	}
}

// Summarize computes counts, score statistics and utilization
func Summarize(c attention.Context, decisions []attention.Decision) Summary {
	s := Summary{Registered: len(decisions)}

	scores := make([]float64, 0, len(decisions))
	for _, d := range decisions {
		switch d.Outcome {
		case attention.OutcomeAllocated:
			s.Allocated++
		case attention.OutcomeDeferred:
			s.Deferred++
		}
		if d.Failed() {
			s.Failed++
		}
		scores = append(scores, float64(d.Score))
	}

	if len(scores) > 0 {
		s.MeanScore = stat.Mean(scores, nil)

		sort.Float64s(scores)
		s.MedianScore = stat.Quantile(0.5, stat.Empirical, scores, nil)
	}
	if len(scores) > 1 {
		s.StdDevScore = stat.StdDev(scores, nil)
	}

	b := c.Attention
	s.Utilization = Utilization{
		Screen:    ratio(b.UsedScreenSpace, b.MaxScreenSpace),
		Audio:     ratio(b.UsedAudioTime, b.MaxAudioTime),
		Cognitive: ratio(b.UsedCognitiveLoad, b.MaxCognitiveLoad),
	}
	return s
}

func ratio(used, max float64) float64 {
	if max <= 0 || math.IsInf(max, 0) || math.IsNaN(max) {
		return 0
	}
	return used / max
}
