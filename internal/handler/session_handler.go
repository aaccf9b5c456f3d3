package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/liftline/liftline/internal/domain"
	"github.com/liftline/liftline/internal/engine"
	"github.com/liftline/liftline/internal/middleware"
	"github.com/liftline/liftline/internal/service"
)

type SessionHandler struct {
	sessions *service.SessionService
}

func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// coerceFloat degrades non-numeric input to 0 instead of rejecting it; the
// trainee is never blocked from completing a set.
func coerceFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func coerceInt(v interface{}) int {
	return int(coerceFloat(v))
}

// StartSession POST /v1/me/session
func (h *SessionHandler) StartSession(c *fiber.Ctx) error {
	var req struct {
		WorkoutID string `json:"workout_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	snap, err := h.sessions.StartSession(c.Context(), middleware.UserID(c), req.WorkoutID)
	if err != nil {
		switch err {
		case domain.ErrPlanNotFound, domain.ErrInvalidID:
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "workout plan not found"})
		case engine.ErrEmptyPlan:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(snap)
}

// GetSession GET /v1/me/session
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	snap, err := h.sessions.Snapshot(middleware.UserID(c))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(snap)
}

// CompleteSet POST /v1/me/session/sets
func (h *SessionHandler) CompleteSet(c *fiber.Ctx) error {
	// weight and reps are coerced, not validated: bad input becomes 0
	var req struct {
		Weight interface{} `json:"weight"`
		Reps   interface{} `json:"reps"`
		Notes  string      `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	snap, err := h.sessions.CompleteSet(c.Context(), middleware.UserID(c), coerceFloat(req.Weight), coerceInt(req.Reps), req.Notes)
	if err != nil {
		if err == service.ErrNoActiveSession {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(snap)
}

// SkipRest POST /v1/me/session/rest/skip
func (h *SessionHandler) SkipRest(c *fiber.Ctx) error {
	return h.restAction(c, h.sessions.SkipRest)
}

// PauseRest POST /v1/me/session/rest/pause
func (h *SessionHandler) PauseRest(c *fiber.Ctx) error {
	return h.restAction(c, h.sessions.PauseRest)
}

// ResumeRest POST /v1/me/session/rest/resume
func (h *SessionHandler) ResumeRest(c *fiber.Ctx) error {
	return h.restAction(c, h.sessions.ResumeRest)
}

func (h *SessionHandler) restAction(c *fiber.Ctx, action func(string) error) error {
	if err := action(middleware.UserID(c)); err != nil {
		if err == service.ErrNoActiveSession {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	return h.GetSession(c)
}

// AdjustRest POST /v1/me/session/rest/adjust
func (h *SessionHandler) AdjustRest(c *fiber.Ctx) error {
	var req struct {
		Delta int `json:"delta"` // ±15 from the UI controls
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	return h.restAction(c, func(userID string) error {
		return h.sessions.AdjustRest(userID, req.Delta)
	})
}

// GetEvents GET /v1/me/session/events drains pending tones, PR banners
// and persistence warnings.
func (h *SessionHandler) GetEvents(c *fiber.Ctx) error {
	events, err := h.sessions.DrainEvents(middleware.UserID(c))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"events": events})
}

// ExitSession DELETE /v1/me/session closes the session; the summary's
// explicit close goes through here too.
func (h *SessionHandler) ExitSession(c *fiber.Ctx) error {
	if err := h.sessions.ExitSession(middleware.UserID(c)); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "session closed"})
}

// GetSummary GET /v1/me/session/summary
func (h *SessionHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.sessions.Summary(c.Context(), middleware.UserID(c))
	if err != nil {
		switch err {
		case service.ErrNoActiveSession:
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case service.ErrSessionNotComplete:
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(summary)
}

// RateSession POST /v1/me/sessions/:id/rating
func (h *SessionHandler) RateSession(c *fiber.Ctx) error {
	var req struct {
		Rating int `json:"rating"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	err := h.sessions.RateSession(c.Context(), middleware.UserID(c), c.Params("id"), req.Rating)
	if err != nil {
		switch err {
		case service.ErrInvalidRating:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case domain.ErrSessionNotFound, domain.ErrInvalidID:
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
		case domain.ErrForbidden:
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "rated"})
}

// GetHistory GET /v1/me/sessions
func (h *SessionHandler) GetHistory(c *fiber.Ctx) error {
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)
	records, err := h.sessions.History(c.Context(), middleware.UserID(c), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(records)
}
