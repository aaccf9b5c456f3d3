package domain

import (
	"context"
	"time"
)

// UserStats is the per-trainee aggregate maintained across sessions.
// LastWorkoutDate is a calendar date; streak math compares days, not instants.
type UserStats struct {
	UserID          string    `json:"user_id" bson:"_id,omitempty"`
	CurrentStreak   int       `json:"current_streak" bson:"current_streak"`
	LongestStreak   int       `json:"longest_streak" bson:"longest_streak"`
	TotalWorkouts   int       `json:"total_workouts" bson:"total_workouts"`
	LastWorkoutDate time.Time `json:"last_workout_date" bson:"last_workout_date"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

// sameDay compares calendar dates in UTC.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// ApplyCompletedWorkout folds one finished session into the stats.
// A second completion on the same calendar day is a no-op, so a trainee
// doing two sessions in one day is counted once. Returns false on the no-op.
func (s *UserStats) ApplyCompletedWorkout(now time.Time) bool {
	if !s.LastWorkoutDate.IsZero() && sameDay(s.LastWorkoutDate, now) {
		return false
	}

	yesterday := now.UTC().AddDate(0, 0, -1)
	if !s.LastWorkoutDate.IsZero() && sameDay(s.LastWorkoutDate, yesterday) {
		s.CurrentStreak++
	} else {
		// Gap of two or more days, or first workout ever.
		s.CurrentStreak = 1
	}

	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.TotalWorkouts++
	s.LastWorkoutDate = now
	return true
}

type UserStatsRepository interface {
	// Get returns nil when the trainee has no stats yet (first session).
	Get(ctx context.Context, userID string) (*UserStats, error)
	// Put overwrites the full stats document.
	Put(ctx context.Context, stats *UserStats) error
}
