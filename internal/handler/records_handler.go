package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/liftline/liftline/internal/domain"
	"github.com/liftline/liftline/internal/middleware"
)

// RecordsHandler serves the trainee's aggregates: personal records and
// streak/workout statistics. Simple reads go straight to the repositories.
type RecordsHandler struct {
	recordRepo domain.PersonalRecordRepository
	statsRepo  domain.UserStatsRepository
}

func NewRecordsHandler(recordRepo domain.PersonalRecordRepository, statsRepo domain.UserStatsRepository) *RecordsHandler {
	return &RecordsHandler{
		recordRepo: recordRepo,
		statsRepo:  statsRepo,
	}
}

// GetMyRecords GET /v1/me/records
func (h *RecordsHandler) GetMyRecords(c *fiber.Ctx) error {
	records, err := h.recordRepo.GetByUser(c.Context(), middleware.UserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if records == nil {
		records = []*domain.PersonalRecord{}
	}
	return c.JSON(records)
}

// GetMyStats GET /v1/me/stats
func (h *RecordsHandler) GetMyStats(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	stats, err := h.statsRepo.Get(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if stats == nil {
		// never trained yet: zero-value stats, not an error
		stats = &domain.UserStats{UserID: userID}
	}
	return c.JSON(stats)
}
