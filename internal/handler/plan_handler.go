package handler

import (
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/liftline/liftline/internal/domain"
	"github.com/liftline/liftline/internal/middleware"
)

type PlanHandler struct {
	planRepo  domain.WorkoutPlanRepository
	mediaRepo domain.MediaRepository // nil when S3 is disabled
}

func NewPlanHandler(planRepo domain.WorkoutPlanRepository, mediaRepo domain.MediaRepository) *PlanHandler {
	return &PlanHandler{
		planRepo:  planRepo,
		mediaRepo: mediaRepo,
	}
}

// ListPlans GET /v1/plans
func (h *PlanHandler) ListPlans(c *fiber.Ctx) error {
	filter := make(map[string]interface{})
	if trainerID := c.Query("trainer_id"); trainerID != "" {
		filter["trainer_id"] = trainerID
	}
	plans, err := h.planRepo.List(c.Context(), filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(plans)
}

// GetPlan GET /v1/plans/:id
func (h *PlanHandler) GetPlan(c *fiber.Ctx) error {
	plan, err := h.planRepo.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if err == domain.ErrPlanNotFound || err == domain.ErrInvalidID {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "plan not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(plan)
}

// CreatePlan POST /v1/plans
func (h *PlanHandler) CreatePlan(c *fiber.Ctx) error {
	var req domain.WorkoutPlan
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	if len(req.Exercises) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "plan needs at least one exercise"})
	}
	req.TrainerID = middleware.UserID(c)
	if err := h.planRepo.Create(c.Context(), &req); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(req)
}

// UpdatePlan PUT /v1/plans/:id
func (h *PlanHandler) UpdatePlan(c *fiber.Ctx) error {
	id := c.Params("id")
	var req domain.WorkoutPlan
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	req.ID = id
	if err := h.planRepo.Update(c.Context(), &req); err != nil {
		if err == domain.ErrPlanNotFound || err == domain.ErrInvalidID {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "plan not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(req)
}

// DeletePlan DELETE /v1/plans/:id
func (h *PlanHandler) DeletePlan(c *fiber.Ctx) error {
	if err := h.planRepo.Delete(c.Context(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "deleted"})
}

// UploadDemoVideo POST /v1/media stores an exercise demo video and
// returns the URL to put into the plan's video_url field.
func (h *PlanHandler) UploadDemoVideo(c *fiber.Ctx) error {
	if h.mediaRepo == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "media storage is not configured"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing file"})
	}

	f, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unreadable file"})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	filename := fmt.Sprintf("demo/%d-%s", time.Now().UnixNano(), fileHeader.Filename)
	url, err := h.mediaRepo.Upload(c.Context(), data, filename, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
}
