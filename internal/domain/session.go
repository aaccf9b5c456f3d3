package domain

import (
	"context"
	"errors"
	"math"
	"time"
)

var (
	ErrSessionNotFound = errors.New("workout session not found")
)

// SetState is one logged (or pending) set inside a session exercise.
type SetState struct {
	ULID      string     `json:"ulid" bson:"ulid"`
	SetNumber int        `json:"set_number" bson:"set_number"` // 1-based
	Weight    float64    `json:"weight" bson:"weight"`
	Reps      int        `json:"reps" bson:"reps"`
	Duration  int        `json:"duration,omitempty" bson:"duration,omitempty"` // seconds, duration-mode exercises
	Completed bool       `json:"completed" bson:"completed"`
	Notes     string     `json:"notes" bson:"notes"`
	Timestamp *time.Time `json:"timestamp,omitempty" bson:"timestamp,omitempty"`
}

// SessionExerciseState is an ExerciseSpec snapshot taken at session start,
// plus the eagerly created sets seeded with the spec's defaults.
type SessionExerciseState struct {
	ExerciseSpec `bson:",inline"`
	Sets         []*SetState `json:"sets" bson:"sets"`
}

// SessionRecord is one workout attempt. It is created at session start,
// rewritten on every set completion, and finalized exactly once.
type SessionRecord struct {
	ID                   string                  `json:"id" bson:"_id,omitempty"`
	UserID               string                  `json:"user_id" bson:"user_id"`
	WorkoutID            string                  `json:"workout_id" bson:"workout_id"`
	WorkoutName          string                  `json:"workout_name" bson:"workout_name"`
	StartTime            time.Time               `json:"start_time" bson:"start_time"`
	Completed            bool                    `json:"completed" bson:"completed"`
	CompletionPercentage int                     `json:"completion_percentage" bson:"completion_percentage"`
	EndTime              *time.Time              `json:"end_time,omitempty" bson:"end_time,omitempty"`
	DurationMinutes      int                     `json:"duration_minutes,omitempty" bson:"duration_minutes,omitempty"`
	DifficultyRating     int                     `json:"difficulty_rating,omitempty" bson:"difficulty_rating,omitempty"` // 1..5, 0 = unrated
	Exercises            []*SessionExerciseState `json:"exercises" bson:"exercises"`
	CreatedAt            time.Time               `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time               `json:"updated_at" bson:"updated_at"`
}

// NewSessionExercises derives the mutable session state from a plan.
// Sets are created up front so an interrupted session persists its full shape.
func NewSessionExercises(plan *WorkoutPlan) []*SessionExerciseState {
	exercises := make([]*SessionExerciseState, 0, len(plan.Exercises))
	for _, spec := range plan.Exercises {
		count := spec.Sets
		if count <= 0 {
			count = 1
		}
		sets := make([]*SetState, count)
		for i := range sets {
			sets[i] = &SetState{
				SetNumber: i + 1,
				Weight:    spec.RecommendedWeight,
				Reps:      spec.Reps,
			}
		}
		ex := &SessionExerciseState{ExerciseSpec: spec, Sets: sets}
		exercises = append(exercises, ex)
	}
	return exercises
}

// TotalSets counts every set across all exercises.
func (r *SessionRecord) TotalSets() int {
	total := 0
	for _, ex := range r.Exercises {
		total += len(ex.Sets)
	}
	return total
}

// CompletedSets counts sets already marked completed.
func (r *SessionRecord) CompletedSets() int {
	done := 0
	for _, ex := range r.Exercises {
		for _, set := range ex.Sets {
			if set.Completed {
				done++
			}
		}
	}
	return done
}

// Progress returns round(100 * completed / total). An empty session is 0%.
func (r *SessionRecord) Progress() int {
	total := r.TotalSets()
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(r.CompletedSets()) / float64(total)))
}

// IsComplete reports whether every set of every exercise is completed,
// independent of the order the sets were logged in.
func (r *SessionRecord) IsComplete() bool {
	if r.TotalSets() == 0 {
		return false
	}
	for _, ex := range r.Exercises {
		for _, set := range ex.Sets {
			if !set.Completed {
				return false
			}
		}
	}
	return true
}

// Finalize stamps the terminal fields. Idempotent on the completed flag.
func (r *SessionRecord) Finalize(now time.Time) {
	r.Completed = true
	r.CompletionPercentage = 100
	end := now
	r.EndTime = &end
	r.DurationMinutes = int(math.Round(end.Sub(r.StartTime).Minutes()))
}

// Clone deep-copies the record so a snapshot can be persisted while the
// live session keeps mutating.
func (r *SessionRecord) Clone() *SessionRecord {
	out := *r
	if r.EndTime != nil {
		end := *r.EndTime
		out.EndTime = &end
	}
	out.Exercises = make([]*SessionExerciseState, len(r.Exercises))
	for i, ex := range r.Exercises {
		exCopy := *ex
		exCopy.Sets = make([]*SetState, len(ex.Sets))
		for j, set := range ex.Sets {
			setCopy := *set
			if set.Timestamp != nil {
				ts := *set.Timestamp
				setCopy.Timestamp = &ts
			}
			exCopy.Sets[j] = &setCopy
		}
		out.Exercises[i] = &exCopy
	}
	return &out
}

type SessionRepository interface {
	Create(ctx context.Context, record *SessionRecord) error
	GetByID(ctx context.Context, id string) (*SessionRecord, error)
	// Update overwrites the record's mutable fields (exercises, progress,
	// completion, rating) in one write.
	Update(ctx context.Context, record *SessionRecord) error
	// GetByUser returns a user's session history, newest first.
	GetByUser(ctx context.Context, userID string, limit int64) ([]*SessionRecord, error)
	// GetLatestCompleted returns the most recent completed attempt of a
	// workout (latest start time wins), or ErrSessionNotFound.
	GetLatestCompleted(ctx context.Context, userID, workoutID string) (*SessionRecord, error)
}
