package models

import "time"

// TrainingSession is one completed workout owned by a user.
//
// DurationSec, TotalWeight and CaloriesBurned are derived once at ingestion
// and stored; they are never recomputed from the performances afterwards.
// Sessions have no update path; they are created and deleted whole.
type TrainingSession struct {
	ID             int64                 `json:"id"`
	UserID         int                   `json:"userId"`
	RoutineID      *int64                `json:"routineId"`
	RoutineTitle   *string               `json:"routineTitle"`
	StartedAt      time.Time             `json:"startedAt"`
	EndedAt        time.Time             `json:"endedAt"`
	DurationSec    int                   `json:"duration"`
	TotalWeight    float64               `json:"totalWeight"`
	CaloriesBurned *float64              `json:"caloriesBurned"`
	CreatedAt      time.Time             `json:"createdAt"`
	Performances   []ExercisePerformance `json:"performances"`
}

// ExercisePerformance is one exercise's sets within a session.
//
// ExerciseID keys into the external exercise catalog, not a local table.
// Name is a snapshot of the catalog name captured at ingestion; it does not
// follow later catalog renames. Reps and Weights are parallel, one entry
// per set.
type ExercisePerformance struct {
	ID           int64     `json:"id"`
	SessionID    int64     `json:"-"`
	ExerciseID   string    `json:"exerciseId"`
	Name         string    `json:"name"`
	Reps         []int     `json:"reps"`
	Weights      []float64 `json:"weights"`
	IsBodyweight bool      `json:"isBodyweight"`
}

// PerformanceEntry is a performance flattened out of its session, carrying
// the parent session's start time. The improvement analyzer consumes these
// in ascending performance-id order (creation order, which tracks but is
// not identical to StartedAt order when sessions are back-dated).
type PerformanceEntry struct {
	ID           int64
	ExerciseID   string
	Name         string
	Weights      []float64
	IsBodyweight bool
	StartedAt    time.Time
}

// WeightLog is one body-weight sample. A row is appended only when the
// submitted weight differs from the user's current stored weight, so this
// is a change log rather than a periodic log.
type WeightLog struct {
	ID     int64     `json:"id"`
	UserID int       `json:"userId"`
	Value  float64   `json:"value"`
	Date   time.Time `json:"date"`
}
