package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/liftline/liftline/internal/domain"
)

type fakeSessionRepo struct {
	mu      sync.Mutex
	seq     int
	records map[string]*domain.SessionRecord
	// seeded previous attempt returned by GetLatestCompleted
	previous *domain.SessionRecord
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{records: make(map[string]*domain.SessionRecord)}
}

func (f *fakeSessionRepo) Create(_ context.Context, record *domain.SessionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	record.ID = fmt.Sprintf("sess-%d", f.seq)
	f.records[record.ID] = record.Clone()
	return nil
}

func (f *fakeSessionRepo) GetByID(_ context.Context, id string) (*domain.SessionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return record.Clone(), nil
}

func (f *fakeSessionRepo) Update(_ context.Context, record *domain.SessionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[record.ID] = record.Clone()
	return nil
}

func (f *fakeSessionRepo) GetByUser(_ context.Context, userID string, _ int64) ([]*domain.SessionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.SessionRecord
	for _, r := range f.records {
		if r.UserID == userID {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) GetLatestCompleted(_ context.Context, _, _ string) (*domain.SessionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.previous == nil {
		return nil, domain.ErrSessionNotFound
	}
	return f.previous.Clone(), nil
}

type fakeRecordRepo struct {
	mu      sync.Mutex
	records map[string]*domain.PersonalRecord
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{records: make(map[string]*domain.PersonalRecord)}
}

func (f *fakeRecordRepo) Get(_ context.Context, userID, exerciseKey string) (*domain.PersonalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[userID+"/"+exerciseKey]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (f *fakeRecordRepo) Upsert(_ context.Context, record *domain.PersonalRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *record
	f.records[record.UserID+"/"+record.ExerciseKey] = &copied
	return nil
}

func (f *fakeRecordRepo) GetByUser(_ context.Context, userID string) ([]*domain.PersonalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.PersonalRecord
	for _, r := range f.records {
		if r.UserID == userID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeStatsRepo struct {
	mu    sync.Mutex
	stats map[string]*domain.UserStats
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{stats: make(map[string]*domain.UserStats)}
}

func (f *fakeStatsRepo) Get(_ context.Context, userID string) (*domain.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stats[userID]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (f *fakeStatsRepo) Put(_ context.Context, stats *domain.UserStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *stats
	f.stats[stats.UserID] = &copied
	return nil
}

func fakeRepos() (Repos, *fakeSessionRepo, *fakeRecordRepo, *fakeStatsRepo) {
	sessions := newFakeSessionRepo()
	records := newFakeRecordRepo()
	stats := newFakeStatsRepo()
	return Repos{Sessions: sessions, Records: records, Stats: stats}, sessions, records, stats
}

func twoSetPlan() *domain.WorkoutPlan {
	return &domain.WorkoutPlan{
		ID:   "plan-1",
		Name: "Quick Push",
		Exercises: []domain.ExerciseSpec{
			{Name: "Bench Press", Sets: 2, Reps: 8, RestSeconds: 90, RecommendedWeight: 60},
		},
	}
}

func eventsOfType(events []Event, typ EventType) []Event {
	var out []Event
	for _, e := range events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func TestStartRejectsEmptyPlan(t *testing.T) {
	repos, sessions, _, _ := fakeRepos()

	_, err := Start(context.Background(), "u1", &domain.WorkoutPlan{ID: "plan-empty"}, repos, nil, time.Now)
	if err != ErrEmptyPlan {
		t.Fatalf("start with no exercises = %v, want ErrEmptyPlan", err)
	}
	if len(sessions.records) != 0 {
		t.Errorf("no record should be persisted for a rejected plan, got %d", len(sessions.records))
	}
}

func TestStartCreatesRecordWithULIDs(t *testing.T) {
	repos, sessions, _, _ := fakeRepos()
	buf := NewEventBuffer(16)

	session, err := Start(context.Background(), "u1", twoSetPlan(), repos, buf, time.Now)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if session.CurrentPhase() != PhaseActive {
		t.Errorf("phase = %v, want active", session.CurrentPhase())
	}

	stored, err := sessions.GetByID(context.Background(), session.RecordID())
	if err != nil {
		t.Fatalf("record not persisted: %v", err)
	}
	for _, ex := range stored.Exercises {
		for _, set := range ex.Sets {
			if set.ULID == "" {
				t.Errorf("set %d of %s has no ulid", set.SetNumber, ex.Name)
			}
		}
	}
}

func TestSessionFullFlow(t *testing.T) {
	repos, _, records, stats := fakeRepos()
	buf := NewEventBuffer(32)
	now := time.Date(2025, time.March, 10, 18, 0, 0, 0, time.UTC)

	session, err := Start(context.Background(), "u1", twoSetPlan(), repos, buf, func() time.Time { return now })
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// Set 1: enters rest toward set 2.
	if err := session.CompleteSet(context.Background(), 100, 8, "felt strong"); err != nil {
		t.Fatalf("complete set 1: %v", err)
	}
	snap := session.Snapshot()
	if snap.Phase != PhaseResting {
		t.Fatalf("phase = %v, want resting", snap.Phase)
	}
	if snap.RestSeconds != 90 {
		t.Errorf("rest seconds = %d, want 90", snap.RestSeconds)
	}
	if snap.SetIndex != 1 {
		t.Errorf("set index = %d, want 1 (cursor pre-advanced)", snap.SetIndex)
	}
	if snap.Progress != 50 {
		t.Errorf("progress = %d, want 50", snap.Progress)
	}

	if err := session.SkipRest(); err != nil {
		t.Fatalf("skip rest: %v", err)
	}
	if session.CurrentPhase() != PhaseActive {
		t.Fatalf("phase after skip = %v, want active", session.CurrentPhase())
	}

	// Set 2 is the last set: session completes, no rest.
	if err := session.CompleteSet(context.Background(), 105, 6, ""); err != nil {
		t.Fatalf("complete set 2: %v", err)
	}
	snap = session.Snapshot()
	if snap.Phase != PhaseComplete {
		t.Fatalf("phase = %v, want complete", snap.Phase)
	}
	if !snap.Record.Completed || snap.Record.CompletionPercentage != 100 {
		t.Errorf("record not finalized: completed=%v pct=%d", snap.Record.Completed, snap.Record.CompletionPercentage)
	}

	// Streak and totals updated synchronously at completion.
	userStats, _ := stats.Get(context.Background(), "u1")
	if userStats == nil || userStats.TotalWorkouts != 1 || userStats.CurrentStreak != 1 {
		t.Errorf("stats = %+v, want 1 workout / 1 streak", userStats)
	}

	// Both sets set a PR: first attempt, then heavier.
	pr, _ := records.Get(context.Background(), "u1", "bench-press")
	if pr == nil || pr.BestWeight != 105 || pr.BestReps != 6 {
		t.Errorf("personal record = %+v, want 105x6", pr)
	}

	events := buf.Drain()
	if got := len(eventsOfType(events, EventPersonalRecord)); got != 2 {
		t.Errorf("personal record events = %d, want 2", got)
	}
	if got := len(eventsOfType(events, EventRestStarted)); got != 1 {
		t.Errorf("rest started events = %d, want 1", got)
	}
	if got := len(eventsOfType(events, EventSessionCompleted)); got != 1 {
		t.Errorf("session completed events = %d, want 1", got)
	}

	if err := session.CompleteSet(context.Background(), 50, 5, ""); err != ErrSessionComplete {
		t.Errorf("completing past the end = %v, want ErrSessionComplete", err)
	}
}

func TestCompleteSetWhileRestingActsAsSkip(t *testing.T) {
	repos, _, _, _ := fakeRepos()
	session, err := Start(context.Background(), "u1", twoSetPlan(), repos, nil, time.Now)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := session.CompleteSet(context.Background(), 60, 8, ""); err != nil {
		t.Fatalf("set 1: %v", err)
	}
	if session.CurrentPhase() != PhaseResting {
		t.Fatal("expected resting after set 1")
	}

	// Logging the next set with the overlay still up implies the trainee
	// moved on.
	if err := session.CompleteSet(context.Background(), 60, 8, ""); err != nil {
		t.Fatalf("set 2 during rest: %v", err)
	}
	if session.CurrentPhase() != PhaseComplete {
		t.Errorf("phase = %v, want complete", session.CurrentPhase())
	}
}

func TestDurationSetsCarryNoRecord(t *testing.T) {
	repos, _, records, _ := fakeRepos()
	plan := &domain.WorkoutPlan{
		ID:   "plan-2",
		Name: "Core",
		Exercises: []domain.ExerciseSpec{
			{Name: "Plank", Sets: 1, UseDuration: true, DurationSeconds: 45},
		},
	}

	session, err := Start(context.Background(), "u1", plan, repos, nil, time.Now)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := session.CompleteSet(context.Background(), 0, 0, ""); err != nil {
		t.Fatalf("complete: %v", err)
	}

	pr, _ := records.Get(context.Background(), "u1", "plank")
	if pr != nil {
		t.Errorf("duration set produced a record: %+v", pr)
	}
}

func TestSnapshotReferencesPreviousAttempt(t *testing.T) {
	repos, sessions, _, _ := fakeRepos()

	previous := &domain.SessionRecord{
		ID:        "old",
		UserID:    "u1",
		WorkoutID: "plan-1",
		Completed: true,
		Exercises: []*domain.SessionExerciseState{
			{
				ExerciseSpec: domain.ExerciseSpec{Name: "Bench Press"},
				Sets: []*domain.SetState{
					{SetNumber: 1, Weight: 95, Reps: 7, Completed: true},
					{SetNumber: 2, Weight: 95, Reps: 6, Completed: true},
				},
			},
		},
	}
	sessions.previous = previous

	session, err := Start(context.Background(), "u1", twoSetPlan(), repos, nil, time.Now)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	snap := session.Snapshot()
	if snap.Reference == nil {
		t.Fatal("expected a previous-attempt reference")
	}
	if snap.Reference.Weight != 95 || snap.Reference.Reps != 7 {
		t.Errorf("reference = %+v, want 95x7", snap.Reference)
	}
}

func TestSnapshotNoReferenceFirstTime(t *testing.T) {
	repos, _, _, _ := fakeRepos()
	session, err := Start(context.Background(), "u1", twoSetPlan(), repos, nil, time.Now)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap := session.Snapshot(); snap.Reference != nil {
		t.Errorf("first-time session should have no reference, got %+v", snap.Reference)
	}
}

func TestRestControlsRequireResting(t *testing.T) {
	repos, _, _, _ := fakeRepos()
	session, err := Start(context.Background(), "u1", twoSetPlan(), repos, nil, time.Now)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := session.SkipRest(); err != ErrNotResting {
		t.Errorf("skip while active = %v, want ErrNotResting", err)
	}
	if err := session.PauseRest(); err != ErrNotResting {
		t.Errorf("pause while active = %v, want ErrNotResting", err)
	}
	if err := session.AdjustRest(15); err != ErrNotResting {
		t.Errorf("adjust while active = %v, want ErrNotResting", err)
	}
}

func TestSameDayRepeatDoesNotDoubleCount(t *testing.T) {
	repos, _, _, stats := fakeRepos()
	now := time.Date(2025, time.March, 10, 7, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	for i := 0; i < 2; i++ {
		session, err := Start(context.Background(), "u1", twoSetPlan(), repos, nil, clock)
		if err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
		if err := session.CompleteSet(context.Background(), 60, 8, ""); err != nil {
			t.Fatalf("set 1: %v", err)
		}
		if err := session.SkipRest(); err != nil {
			t.Fatalf("skip: %v", err)
		}
		if err := session.CompleteSet(context.Background(), 60, 8, ""); err != nil {
			t.Fatalf("set 2: %v", err)
		}
	}

	userStats, _ := stats.Get(context.Background(), "u1")
	if userStats.TotalWorkouts != 1 {
		t.Errorf("total workouts = %d, want 1 for two same-day sessions", userStats.TotalWorkouts)
	}
}
