package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/liftline/liftline/internal/domain"
	"github.com/liftline/liftline/internal/engine"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoActiveSession    = errors.New("no active workout session")
	ErrSessionNotComplete = errors.New("workout session is not complete yet")
	ErrInvalidRating      = errors.New("difficulty rating must be between 1 and 5")
)

// SessionService owns the live sessions. One active session per user: a
// second start while one is running returns the running session instead of
// creating a concurrent one. Persistence stays last-write-wins underneath.
type SessionService struct {
	mu     sync.Mutex
	active map[string]*liveSession

	plans domain.WorkoutPlanRepository
	repos engine.Repos
	now   func() time.Time
}

type liveSession struct {
	session *engine.Session
	events  *engine.EventBuffer
}

func NewSessionService(plans domain.WorkoutPlanRepository, repos engine.Repos) *SessionService {
	return &SessionService{
		active: make(map[string]*liveSession),
		plans:  plans,
		repos:  repos,
		now:    time.Now,
	}
}

// StartSession begins a workout from a plan. If the user already has a live
// session it is returned as-is.
func (s *SessionService) StartSession(ctx context.Context, userID, workoutID string) (engine.Snapshot, error) {
	s.mu.Lock()
	if live, ok := s.active[userID]; ok && live.session.CurrentPhase() != engine.PhaseComplete {
		snap := live.session.Snapshot()
		s.mu.Unlock()
		return snap, nil
	}
	s.mu.Unlock()

	plan, err := s.plans.GetByID(ctx, workoutID)
	if err != nil {
		return engine.Snapshot{}, err
	}

	events := engine.NewEventBuffer(64)
	session, err := engine.Start(ctx, userID, plan, s.repos, events, s.now)
	if err != nil {
		return engine.Snapshot{}, err
	}

	s.mu.Lock()
	s.active[userID] = &liveSession{session: session, events: events}
	s.mu.Unlock()

	return session.Snapshot(), nil
}

func (s *SessionService) live(userID string) (*liveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	live, ok := s.active[userID]
	if !ok {
		return nil, ErrNoActiveSession
	}
	return live, nil
}

// CompleteSet logs the active set and returns the next state.
func (s *SessionService) CompleteSet(ctx context.Context, userID string, weight float64, reps int, notes string) (engine.Snapshot, error) {
	live, err := s.live(userID)
	if err != nil {
		return engine.Snapshot{}, err
	}
	if err := live.session.CompleteSet(ctx, weight, reps, notes); err != nil {
		return engine.Snapshot{}, err
	}
	return live.session.Snapshot(), nil
}

func (s *SessionService) SkipRest(userID string) error {
	live, err := s.live(userID)
	if err != nil {
		return err
	}
	return live.session.SkipRest()
}

func (s *SessionService) PauseRest(userID string) error {
	live, err := s.live(userID)
	if err != nil {
		return err
	}
	return live.session.PauseRest()
}

func (s *SessionService) ResumeRest(userID string) error {
	live, err := s.live(userID)
	if err != nil {
		return err
	}
	return live.session.ResumeRest()
}

func (s *SessionService) AdjustRest(userID string, delta int) error {
	live, err := s.live(userID)
	if err != nil {
		return err
	}
	return live.session.AdjustRest(delta)
}

// Snapshot returns the current session state.
func (s *SessionService) Snapshot(userID string) (engine.Snapshot, error) {
	live, err := s.live(userID)
	if err != nil {
		return engine.Snapshot{}, err
	}
	return live.session.Snapshot(), nil
}

// DrainEvents hands the pending notifications (tones, PR banners, persist
// warnings) to the transport and clears them.
func (s *SessionService) DrainEvents(userID string) ([]engine.Event, error) {
	live, err := s.live(userID)
	if err != nil {
		return nil, err
	}
	return live.events.Drain(), nil
}

// ExitSession abandons or closes the session. A mid-way exit leaves the
// partial record persisted as an incomplete attempt.
func (s *SessionService) ExitSession(userID string) error {
	s.mu.Lock()
	live, ok := s.active[userID]
	if ok {
		delete(s.active, userID)
	}
	s.mu.Unlock()
	if !ok {
		return ErrNoActiveSession
	}
	live.session.Exit()
	return nil
}

// SessionSummary is the post-workout view: final record, refreshed stats,
// and the badges this session earned.
type SessionSummary struct {
	Record       *domain.SessionRecord    `json:"record"`
	Stats        *domain.UserStats        `json:"stats"`
	Achievements []domain.Achievement     `json:"achievements"`
	Records      []*domain.PersonalRecord `json:"personal_records"`
}

// Summary builds the completion summary for the user's finished session.
func (s *SessionService) Summary(ctx context.Context, userID string) (*SessionSummary, error) {
	live, err := s.live(userID)
	if err != nil {
		return nil, err
	}
	if live.session.CurrentPhase() != engine.PhaseComplete {
		return nil, ErrSessionNotComplete
	}

	summary := &SessionSummary{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		record, err := s.repos.Sessions.GetByID(gctx, live.session.RecordID())
		if err != nil {
			return err
		}
		summary.Record = record
		return nil
	})
	g.Go(func() error {
		stats, err := s.repos.Stats.Get(gctx, userID)
		if err != nil {
			return err
		}
		if stats == nil {
			stats = &domain.UserStats{UserID: userID}
		}
		summary.Stats = stats
		return nil
	})
	g.Go(func() error {
		records, err := s.repos.Records.GetByUser(gctx, userID)
		if err != nil {
			return err
		}
		summary.Records = records
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary.Achievements = domain.AchievementsFor(summary.Stats)
	return summary, nil
}

// RateSession captures the optional 1-5 difficulty rating onto the record.
func (s *SessionService) RateSession(ctx context.Context, userID, sessionID string, rating int) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}

	record, err := s.repos.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if record.UserID != userID {
		return domain.ErrForbidden
	}

	record.DifficultyRating = rating
	return s.repos.Sessions.Update(ctx, record)
}

// History lists the user's session records, incomplete attempts included.
func (s *SessionService) History(ctx context.Context, userID string, limit int64) ([]*domain.SessionRecord, error) {
	return s.repos.Sessions.GetByUser(ctx, userID, limit)
}
