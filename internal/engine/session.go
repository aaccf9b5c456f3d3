package engine

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/liftline/liftline/internal/domain"
	"github.com/oklog/ulid/v2"
)

type Phase string

const (
	PhaseActive   Phase = "active"
	PhaseResting  Phase = "resting"
	PhaseComplete Phase = "complete"
)

var (
	ErrSessionComplete = errors.New("session already complete")
	ErrNotResting      = errors.New("session is not resting")
	ErrEmptyPlan       = errors.New("workout plan has no exercises")
)

// SetReference is the trainee's prior attempt at the currently active set,
// surfaced as a "beat this" hint. Informational only.
type SetReference struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}

// Snapshot is a point-in-time view of a live session for the transport layer.
type Snapshot struct {
	SessionID     string                `json:"session_id"`
	Phase         Phase                 `json:"phase"`
	ExerciseIndex int                   `json:"exercise_index"`
	SetIndex      int                   `json:"set_index"`
	Progress      int                   `json:"progress"`
	RestSeconds   int                   `json:"rest_seconds,omitempty"`
	RestRemaining int                   `json:"rest_remaining,omitempty"`
	RestPaused    bool                  `json:"rest_paused,omitempty"`
	Reference     *SetReference         `json:"reference,omitempty"`
	Record        *domain.SessionRecord `json:"record"`
}

// Session walks a trainee through a workout: it owns the exercise/set
// cursor, the rest timer, write-through persistence of the record, PR
// detection, and the streak update at completion. All mutation happens
// under one lock; side effects go out through the notifier.
type Session struct {
	mu     sync.Mutex
	record *domain.SessionRecord
	phase  Phase

	exerciseIndex int
	setIndex      int

	restSeconds int
	timer       *RestTimer

	// Writes are ordered: each persisted snapshot carries a sequence number
	// and a stale async write never overwrites a newer one.
	writeMu   sync.Mutex
	writeSeq  int
	lastWrite int

	// Latest completed attempt of the same workout, read once at start.
	previous *domain.SessionRecord

	sessions domain.SessionRepository
	records  domain.PersonalRecordRepository
	stats    domain.UserStatsRepository
	notifier Notifier
	now      func() time.Time
}

// Repos bundles the stores the engine writes through to.
type Repos struct {
	Sessions domain.SessionRepository
	Records  domain.PersonalRecordRepository
	Stats    domain.UserStatsRepository
}

func newULID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// Start creates the persisted SessionRecord for a plan and returns the live
// session. A missing previous attempt is a valid first-time state, not an
// error.
func Start(ctx context.Context, userID string, plan *domain.WorkoutPlan, repos Repos, notifier Notifier, now func() time.Time) (*Session, error) {
	if now == nil {
		now = time.Now
	}
	if len(plan.Exercises) == 0 {
		// A session over an empty plan could never complete.
		return nil, ErrEmptyPlan
	}

	exercises := domain.NewSessionExercises(plan)
	for _, ex := range exercises {
		for _, set := range ex.Sets {
			set.ULID = newULID()
		}
	}

	record := &domain.SessionRecord{
		UserID:      userID,
		WorkoutID:   plan.ID,
		WorkoutName: plan.Name,
		StartTime:   now(),
		Exercises:   exercises,
	}
	if err := repos.Sessions.Create(ctx, record); err != nil {
		return nil, err
	}

	s := &Session{
		record:   record,
		phase:    PhaseActive,
		sessions: repos.Sessions,
		records:  repos.Records,
		stats:    repos.Stats,
		notifier: notifier,
		now:      now,
	}

	previous, err := repos.Sessions.GetLatestCompleted(ctx, userID, plan.ID)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		// Reference data only; the session proceeds without it.
		log.Printf("session %s: previous attempt lookup failed: %v", record.ID, err)
	}
	s.previous = previous

	return s, nil
}

func (s *Session) notify(e Event) {
	if s.notifier != nil {
		s.notifier.Notify(e)
	}
}

// CompleteSet records the active set and advances the state machine:
// persist write-through, PR check, then either RESTING toward the next
// set/exercise or COMPLETE when this was the last set.
func (s *Session) CompleteSet(ctx context.Context, weight float64, reps int, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseComplete {
		return ErrSessionComplete
	}
	if s.phase == PhaseResting {
		// Completing a set while the overlay is up implies the trainee
		// moved on; treat it as a skip.
		s.stopTimerLocked()
		s.phase = PhaseActive
	}

	ex := s.record.Exercises[s.exerciseIndex]
	set := ex.Sets[s.setIndex]

	ts := s.now()
	set.Weight = weight
	set.Reps = reps
	set.Notes = notes
	set.Completed = true
	set.Timestamp = &ts
	s.record.CompletionPercentage = s.record.Progress()

	s.checkPersonalRecord(ctx, ex.Name, set.SetNumber, weight, reps)

	// Decide the next position before persisting so a crash recovers to a
	// consistent cursor.
	lastSet := s.setIndex >= len(ex.Sets)-1
	lastExercise := s.exerciseIndex >= len(s.record.Exercises)-1

	switch {
	case !lastSet:
		s.setIndex++
		s.enterRestLocked(ex.Rest())
	case !lastExercise:
		s.exerciseIndex++
		s.setIndex = 0
		s.enterRestLocked(s.record.Exercises[s.exerciseIndex].Rest())
	default:
		s.completeLocked(ctx)
		return nil
	}

	s.persistAsync()
	return nil
}

// enterRestLocked starts the rest overlay. The cursor already points at the
// next set; finishing or skipping the rest only clears the overlay.
func (s *Session) enterRestLocked(seconds int) {
	s.phase = PhaseResting
	s.restSeconds = seconds
	s.timer = NewRestTimer(seconds, s.notifier, s.restFinished, s.restFinished)
	s.timer.Start()
	s.notify(Event{
		Type:         EventRestStarted,
		ExerciseName: s.record.Exercises[s.exerciseIndex].Name,
		SetNumber:    s.setIndex + 1,
		RestSeconds:  seconds,
	})
}

// restFinished is both the natural-completion and the skip path; the two
// converge on the same next position.
func (s *Session) restFinished() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseResting {
		return
	}
	s.phase = PhaseActive
	s.timer = nil
	s.restSeconds = 0
}

func (s *Session) completeLocked(ctx context.Context) {
	s.phase = PhaseComplete
	s.record.Finalize(s.now())

	// Terminal write is synchronous: the completion summary reads what we
	// persist here. Failures stay non-fatal.
	s.writeSeq++
	seq := s.writeSeq
	s.writeMu.Lock()
	s.lastWrite = seq
	err := s.sessions.Update(ctx, s.record)
	s.writeMu.Unlock()
	if err != nil {
		s.persistWarning(err)
	}

	s.updateStats(ctx)

	s.notify(Event{Type: EventSessionCompleted, Message: s.record.WorkoutName})
}

// updateStats folds the completed session into the per-user aggregates.
// Absent stats are a valid first-time state.
func (s *Session) updateStats(ctx context.Context) {
	stats, err := s.stats.Get(ctx, s.record.UserID)
	if err != nil {
		s.persistWarning(err)
		return
	}
	if stats == nil {
		stats = &domain.UserStats{UserID: s.record.UserID}
	}
	if !stats.ApplyCompletedWorkout(s.now()) {
		return
	}
	if err := s.stats.Put(ctx, stats); err != nil {
		s.persistWarning(err)
	}
}

// checkPersonalRecord runs the PR rule for the just-logged set and persists
// a beaten record. Duration-mode sets log zero weight and reps and carry no
// record.
func (s *Session) checkPersonalRecord(ctx context.Context, exerciseName string, setNumber int, weight float64, reps int) {
	if weight <= 0 && reps <= 0 {
		return
	}

	key := domain.ExerciseKey(exerciseName)
	existing, err := s.records.Get(ctx, s.record.UserID, key)
	if err != nil {
		s.persistWarning(err)
		return
	}
	if !existing.BeatenBy(weight, reps) {
		return
	}

	now := s.now()
	record := existing
	if record == nil {
		record = &domain.PersonalRecord{
			UserID:      s.record.UserID,
			ExerciseKey: key,
		}
	}
	record.ExerciseName = exerciseName
	record.BestWeight = weight
	record.BestReps = reps
	record.Date = now

	if err := s.records.Upsert(ctx, record); err != nil {
		s.persistWarning(err)
		return
	}

	s.notify(Event{
		Type:         EventPersonalRecord,
		ExerciseName: exerciseName,
		SetNumber:    setNumber,
		Weight:       weight,
		Reps:         reps,
	})
}

// persistAsync writes a snapshot of the record without blocking the
// interaction path. A failed write is logged and surfaced as a non-fatal
// warning; in-memory state stays the source of truth.
func (s *Session) persistAsync() {
	snapshot := s.record.Clone()
	s.writeSeq++
	seq := s.writeSeq
	go func() {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
		if seq <= s.lastWrite {
			return
		}
		s.lastWrite = seq

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.sessions.Update(ctx, snapshot); err != nil {
			s.persistWarning(err)
		}
	}()
}

func (s *Session) persistWarning(err error) {
	log.Printf("session %s: persistence failure: %v", s.record.ID, err)
	s.notify(Event{Type: EventPersistWarning, Message: "progress could not be saved, continuing locally"})
}

// SkipRest shortens the wait; the target set/exercise is unchanged.
func (s *Session) SkipRest() error {
	s.mu.Lock()
	timer := s.timer
	if s.phase != PhaseResting || timer == nil {
		s.mu.Unlock()
		return ErrNotResting
	}
	s.mu.Unlock()

	timer.Skip()
	return nil
}

func (s *Session) PauseRest() error  { return s.withTimer((*RestTimer).Pause) }
func (s *Session) ResumeRest() error { return s.withTimer((*RestTimer).Resume) }

// AdjustRest adds or subtracts rest time (the UI exposes ±15s steps).
func (s *Session) AdjustRest(delta int) error {
	return s.withTimer(func(t *RestTimer) { t.AddTime(delta) })
}

func (s *Session) withTimer(fn func(*RestTimer)) error {
	s.mu.Lock()
	timer := s.timer
	s.mu.Unlock()
	if timer == nil {
		return ErrNotResting
	}
	fn(timer)
	return nil
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.restSeconds = 0
}

// Exit abandons the session mid-way: the timer is discarded and the
// partially completed record stays persisted as an incomplete attempt.
func (s *Session) Exit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseComplete {
		return
	}
	s.stopTimerLocked()
}

// Snapshot returns the current view, including the previous-attempt
// reference for the active set.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID:     s.record.ID,
		Phase:         s.phase,
		ExerciseIndex: s.exerciseIndex,
		SetIndex:      s.setIndex,
		Progress:      s.record.Progress(),
		Record:        s.record.Clone(),
	}
	if s.phase == PhaseResting && s.timer != nil {
		snap.RestSeconds = s.restSeconds
		snap.RestRemaining = s.timer.TimeLeft()
		snap.RestPaused = s.timer.Paused()
	}
	if s.phase != PhaseComplete {
		snap.Reference = s.referenceLocked()
	}
	return snap
}

// referenceLocked looks up the prior attempt's numbers for the active set,
// matching exercises by normalized name.
func (s *Session) referenceLocked() *SetReference {
	if s.previous == nil {
		return nil
	}
	current := s.record.Exercises[s.exerciseIndex]
	key := domain.ExerciseKey(current.Name)
	for _, prev := range s.previous.Exercises {
		if domain.ExerciseKey(prev.Name) != key {
			continue
		}
		if s.setIndex < len(prev.Sets) {
			set := prev.Sets[s.setIndex]
			return &SetReference{Weight: set.Weight, Reps: set.Reps}
		}
		return nil
	}
	return nil
}

// RecordID returns the live record's ID.
func (s *Session) RecordID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.ID
}

// CurrentPhase returns the current phase.
func (s *Session) CurrentPhase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}
