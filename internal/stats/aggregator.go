package stats

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/fitlink/fitstats/internal/catalog"
	"github.com/fitlink/fitstats/internal/models"
)

// noTitlePlaceholder stands in for sessions whose routine reference carries
// no resolvable title. The literal matches what existing clients display.
const noTitlePlaceholder = "Sin título"

// Statistics is the merged response for the statistics query. Maps and
// slices are always non-nil so empty aggregates marshal as {} / [].
type Statistics struct {
	SessionsPerWeek       map[string]int      `json:"sessionsPerWeek"`
	TotalWeightPerWeek    map[string]float64  `json:"totalWeightPerWeek"`
	BestLiftPerExercise   map[string]float64  `json:"bestLiftPerExercise"`
	ExerciseProgress      []ProgressPoint     `json:"exerciseProgress"`
	MuscleGroups          map[string]int      `json:"muscleGroups"`
	DaysTrained           []string            `json:"daysTrained"`
	TotalTimeWeek         int                 `json:"totalTimeWeek"`
	TotalTimeMonth        int                 `json:"totalTimeMonth"`
	TotalCaloriesWeek     float64             `json:"totalCaloriesWeek"`
	TotalCaloriesMonth    float64             `json:"totalCaloriesMonth"`
	WeightHistory         []WeightPoint       `json:"weightHistory"`
	MostUsedRoutines      []RoutineUsage      `json:"mostUsedRoutines"`
	MostFrequentExercises []ExerciseFrequency `json:"mostFrequentExercises"`
}

// ProgressPoint is one session's best single-set weight for the filtered
// exercise.
type ProgressPoint struct {
	Date      string  `json:"date"`
	MaxWeight float64 `json:"maxWeight"`
}

// WeightPoint is one body-weight log entry reshaped for the response.
type WeightPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// RoutineUsage counts sessions per linked routine.
type RoutineUsage struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

// ExerciseFrequency counts performances per exercise across all sessions.
type ExerciseFrequency struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newStatistics() *Statistics {
	return &Statistics{
		SessionsPerWeek:       map[string]int{},
		TotalWeightPerWeek:    map[string]float64{},
		BestLiftPerExercise:   map[string]float64{},
		ExerciseProgress:      []ProgressPoint{},
		MuscleGroups:          map[string]int{},
		DaysTrained:           []string{},
		WeightHistory:         []WeightPoint{},
		MostUsedRoutines:      []RoutineUsage{},
		MostFrequentExercises: []ExerciseFrequency{},
	}
}

// Extract reduces a user's complete session history into the statistics
// response. now anchors the current-week and current-month windows.
// exerciseFilter, when non-empty, populates ExerciseProgress for that
// exercise only. exercises is the catalog snapshot used to resolve muscle
// groups; a nil slice (catalog unavailable) degrades MuscleGroups to empty
// rather than failing.
//
// The reduction is pure: the same inputs always produce the same output.
func Extract(logs []models.TrainingSession, now time.Time, exerciseFilter string, exercises []catalog.Exercise) *Statistics {
	st := newStatistics()

	type flatPerf struct {
		models.ExercisePerformance
		date time.Time
	}
	var performances []flatPerf
	for _, log := range logs {
		for _, p := range log.Performances {
			performances = append(performances, flatPerf{p, log.StartedAt})
		}
	}

	thisWeek := WeekNumber(now)
	thisMonth := now.Month()
	thisYear := now.Year()

	for _, log := range logs {
		st.DaysTrained = append(st.DaysTrained, log.StartedAt.UTC().Format("2006-01-02"))

		week := WeekKey(log.StartedAt)
		st.SessionsPerWeek[week]++
		st.TotalWeightPerWeek[week] += log.TotalWeight

		if log.StartedAt.Year() == thisYear && WeekNumber(log.StartedAt) == thisWeek {
			st.TotalTimeWeek += log.DurationSec
			if log.CaloriesBurned != nil {
				st.TotalCaloriesWeek += *log.CaloriesBurned
			}
		}
		if log.StartedAt.Year() == thisYear && log.StartedAt.Month() == thisMonth {
			st.TotalTimeMonth += log.DurationSec
			if log.CaloriesBurned != nil {
				st.TotalCaloriesMonth += *log.CaloriesBurned
			}
		}
	}

	for _, p := range performances {
		st.BestLiftPerExercise[p.ExerciseID] = math.Max(st.BestLiftPerExercise[p.ExerciseID], maxSetWeight(p.Weights))
	}

	if exerciseFilter != "" {
		for _, p := range performances {
			if p.ExerciseID != exerciseFilter {
				continue
			}
			st.ExerciseProgress = append(st.ExerciseProgress, ProgressPoint{
				Date:      p.date.UTC().Format("2006-01-02"),
				MaxWeight: maxSetWeight(p.Weights),
			})
		}
		// Date strings sort chronologically; stable keeps encounter order on ties.
		sort.SliceStable(st.ExerciseProgress, func(i, j int) bool {
			return st.ExerciseProgress[i].Date < st.ExerciseProgress[j].Date
		})
	}

	// Batch lookup: one catalog snapshot resolves every performance, rather
	// than one remote call per performance.
	targetByID := make(map[string]string, len(exercises))
	for _, e := range exercises {
		targetByID[e.ID] = e.Target
	}
	for _, p := range performances {
		if target, ok := targetByID[p.ExerciseID]; ok && target != "" {
			st.MuscleGroups[strings.ToLower(target)]++
		}
	}

	type routineCount struct {
		title string
		count int
	}
	routineUsage := make(map[int64]*routineCount)
	var routineOrder []int64
	for _, log := range logs {
		if log.RoutineID == nil {
			continue
		}
		title := noTitlePlaceholder
		if log.RoutineTitle != nil && *log.RoutineTitle != "" {
			title = *log.RoutineTitle
		}
		rc, ok := routineUsage[*log.RoutineID]
		if !ok {
			rc = &routineCount{title: title}
			routineUsage[*log.RoutineID] = rc
			routineOrder = append(routineOrder, *log.RoutineID)
		}
		rc.count++
	}
	for _, id := range routineOrder {
		rc := routineUsage[id]
		st.MostUsedRoutines = append(st.MostUsedRoutines, RoutineUsage{Title: rc.title, Count: rc.count})
	}
	sort.SliceStable(st.MostUsedRoutines, func(i, j int) bool {
		return st.MostUsedRoutines[i].Count > st.MostUsedRoutines[j].Count
	})

	freq := make(map[string]*ExerciseFrequency)
	var freqOrder []string
	for _, p := range performances {
		f, ok := freq[p.ExerciseID]
		if !ok {
			// Name captured from the first occurrence seen.
			f = &ExerciseFrequency{Name: p.Name}
			freq[p.ExerciseID] = f
			freqOrder = append(freqOrder, p.ExerciseID)
		}
		f.Count++
	}
	for _, id := range freqOrder {
		st.MostFrequentExercises = append(st.MostFrequentExercises, *freq[id])
	}
	sort.SliceStable(st.MostFrequentExercises, func(i, j int) bool {
		return st.MostFrequentExercises[i].Count > st.MostFrequentExercises[j].Count
	})

	return st
}

// maxSetWeight returns the heaviest single set, or 0 for an empty set list.
// The guard matters: reducing max over an empty sequence must not produce
// -Inf.
func maxSetWeight(weights []float64) float64 {
	max := 0.0
	for _, w := range weights {
		if w > max {
			max = w
		}
	}
	return max
}

// FormatWeightHistory reshapes body-weight log entries into a plain time
// series, one point per stored row in the given order. No filtering and no
// deduplication, including same-day duplicates.
func FormatWeightHistory(logs []models.WeightLog) []WeightPoint {
	points := make([]WeightPoint, 0, len(logs))
	for _, l := range logs {
		points = append(points, WeightPoint{
			Date:  l.Date.UTC().Format("2006-01-02"),
			Value: l.Value,
		})
	}
	return points
}
