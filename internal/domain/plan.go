package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPlanNotFound = errors.New("workout plan not found")
)

// Exercise sections. Section is display metadata only; the session engine
// consumes the exercises as one ordered list regardless of section.
const (
	SectionWarmup   = "warmup"
	SectionWork     = "work"
	SectionCooldown = "cooldown"
)

// ExerciseSpec is one prescribed exercise inside a WorkoutPlan.
type ExerciseSpec struct {
	Name              string  `json:"name" bson:"name"`
	Section           string  `json:"section" bson:"section"`
	Sets              int     `json:"sets" bson:"sets"`
	Reps              int     `json:"reps" bson:"reps"`
	RestSeconds       int     `json:"rest_seconds" bson:"rest_seconds"`
	RecommendedWeight float64 `json:"recommended_weight" bson:"recommended_weight"`
	Notes             string  `json:"notes" bson:"notes"`
	UseDuration       bool    `json:"use_duration" bson:"use_duration"`
	DurationMinutes   int     `json:"duration_minutes" bson:"duration_minutes"`
	DurationSeconds   int     `json:"duration_seconds" bson:"duration_seconds"`
	VideoURL          string  `json:"video_url,omitempty" bson:"video_url,omitempty"`
}

// Rest returns the prescribed rest interval for this exercise,
// falling back to 60 seconds when the plan doesn't specify one.
func (e *ExerciseSpec) Rest() int {
	if e.RestSeconds <= 0 {
		return 60
	}
	return e.RestSeconds
}

// WorkoutPlan is an authored workout. It is immutable for the duration of a
// session: the engine copies what it needs at session start.
type WorkoutPlan struct {
	ID          string         `json:"id" bson:"_id,omitempty"`
	TrainerID   string         `json:"trainer_id" bson:"trainer_id"`
	Name        string         `json:"name" bson:"name"`
	Description string         `json:"description" bson:"description"`
	Exercises   []ExerciseSpec `json:"exercises" bson:"exercises"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" bson:"updated_at"`
}

type WorkoutPlanRepository interface {
	Create(ctx context.Context, plan *WorkoutPlan) error
	GetByID(ctx context.Context, id string) (*WorkoutPlan, error)
	List(ctx context.Context, filter map[string]interface{}) ([]*WorkoutPlan, error)
	Update(ctx context.Context, plan *WorkoutPlan) error
	Delete(ctx context.Context, id string) error
}
