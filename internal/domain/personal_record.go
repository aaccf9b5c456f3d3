package domain

import (
	"context"
	"strings"
	"time"
)

// PersonalRecord tracks a trainee's best lift for an exercise, keyed by the
// normalized exercise name so "Bench Press" and "bench  press" share a record.
type PersonalRecord struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	UserID       string    `json:"user_id" bson:"user_id"`
	ExerciseKey  string    `json:"exercise_key" bson:"exercise_key"`
	ExerciseName string    `json:"exercise_name" bson:"exercise_name"`
	BestWeight   float64   `json:"best_weight" bson:"best_weight"`
	BestReps     int       `json:"best_reps" bson:"best_reps"`
	Date         time.Time `json:"date" bson:"date"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// ExerciseKey normalizes an exercise name: lowercase, with every run of
// non-alphanumeric characters collapsed into a single "-".
func ExerciseKey(name string) string {
	var b strings.Builder
	lastSep := true // suppress a leading separator
	for _, c := range strings.ToLower(name) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
			lastSep = false
		default:
			if !lastSep {
				b.WriteRune('-')
				lastSep = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// BeatenBy reports whether a newly logged set beats this record:
// strictly heavier, or same weight with strictly more reps.
// A nil record is always beaten: the first attempt counts as a PR.
func (r *PersonalRecord) BeatenBy(weight float64, reps int) bool {
	if r == nil {
		return true
	}
	if weight > r.BestWeight {
		return true
	}
	return weight == r.BestWeight && reps > r.BestReps
}

type PersonalRecordRepository interface {
	// Get returns the record for (user, exercise key), or nil when the
	// trainee has never logged that exercise.
	Get(ctx context.Context, userID, exerciseKey string) (*PersonalRecord, error)
	Upsert(ctx context.Context, record *PersonalRecord) error
	GetByUser(ctx context.Context, userID string) ([]*PersonalRecord, error)
}
