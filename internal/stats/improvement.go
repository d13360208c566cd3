package stats

import (
	"math"
	"sort"

	"github.com/fitlink/fitstats/internal/models"
)

// Improvement is the full per-exercise progress trajectory: every recorded
// weight in creation order, with the relative change from first to last.
type Improvement struct {
	ExerciseID  string          `json:"exerciseId"`
	Name        string          `json:"name"`
	FirstWeight float64         `json:"firstWeight"`
	LastWeight  float64         `json:"lastWeight"`
	Improvement float64         `json:"improvement"`
	Progress    []ProgressEntry `json:"progress"`
}

// ImprovementSummary is the reduced shape used for the top-N ranking.
type ImprovementSummary struct {
	ExerciseID  string  `json:"exerciseId"`
	Name        string  `json:"name"`
	Improvement float64 `json:"improvement"`
}

// ProgressEntry is one performance's resolved weight on a given date.
type ProgressEntry struct {
	Date   string  `json:"date"`
	Weight float64 `json:"weight"`
}

// AnalyzeImprovement groups flattened performances by exercise and computes
// each group's progress trajectory. entries must arrive in ascending
// performance-id order; group order follows first discovery.
//
// The per-entry weight is the user's *current* stored body weight for
// bodyweight exercises (0 when none is recorded), not the weight at the
// time of that session. Recorded set weights are meaningless for
// bodyweight work, so they are ignored there. Non-bodyweight entries use
// the heaviest single set, 0 when no sets were recorded.
//
// Improvement is ((last-first)/first)*100 rounded to two decimals, defined
// as exactly 0 when the first weight is 0 so a zero baseline never yields
// NaN or Inf.
func AnalyzeImprovement(entries []models.PerformanceEntry, currentBodyWeight *float64) []Improvement {
	type group struct {
		name    string
		entries []ProgressEntry
	}
	grouped := make(map[string]*group)
	var order []string

	for _, e := range entries {
		weight := maxSetWeight(e.Weights)
		if e.IsBodyweight {
			weight = 0
			if currentBodyWeight != nil {
				weight = *currentBodyWeight
			}
		}

		g, ok := grouped[e.ExerciseID]
		if !ok {
			g = &group{name: e.Name}
			grouped[e.ExerciseID] = g
			order = append(order, e.ExerciseID)
		}

		// Entries without a session start time contribute no progress
		// point. The group, and its name, is still created above.
		if e.StartedAt.IsZero() {
			continue
		}

		g.entries = append(g.entries, ProgressEntry{
			Date:   e.StartedAt.UTC().Format("2006-01-02"),
			Weight: weight,
		})
	}

	results := make([]Improvement, 0, len(order))
	for _, id := range order {
		g := grouped[id]
		var first, last float64
		if len(g.entries) > 0 {
			first = g.entries[0].Weight
			last = g.entries[len(g.entries)-1].Weight
		}
		improvement := 0.0
		if first > 0 {
			improvement = round2((last - first) / first * 100)
		}
		progress := g.entries
		if progress == nil {
			progress = []ProgressEntry{}
		}
		results = append(results, Improvement{
			ExerciseID:  id,
			Name:        g.name,
			FirstWeight: first,
			LastWeight:  last,
			Improvement: improvement,
			Progress:    progress,
		})
	}
	return results
}

// TopImprovements ranks results by descending improvement, stable so
// ties keep discovery order, and reduces the best limit entries to the
// summary shape.
func TopImprovements(results []Improvement, limit int) []ImprovementSummary {
	ranked := make([]Improvement, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Improvement > ranked[j].Improvement
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	summaries := make([]ImprovementSummary, 0, len(ranked))
	for _, r := range ranked {
		summaries = append(summaries, ImprovementSummary{
			ExerciseID:  r.ExerciseID,
			Name:        r.Name,
			Improvement: r.Improvement,
		})
	}
	return summaries
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
