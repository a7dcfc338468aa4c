package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/actasweb/api/internal/model"
	"github.com/actasweb/api/internal/service"
	"github.com/actasweb/api/internal/store"
	"github.com/actasweb/api/pkg/response"
)

type MinutesHandler struct {
	minutes   *service.MinutesService
	meetings  *service.MeetingService
	validator *validator.Validate
}

func NewMinutesHandler(minutes *service.MinutesService, meetings *service.MeetingService, v *validator.Validate) *MinutesHandler {
	return &MinutesHandler{
		minutes:   minutes,
		meetings:  meetings,
		validator: v,
	}
}

// Generate handles POST /api/meetings/:jobId/minutes. Segments can come in
// the request (restored sessions) or from the completed job's result.
func (h *MinutesHandler) Generate(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	var req model.GenerateMinutesRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", err.Error())
	}

	var jobResult *model.ProcessingResult
	var jobAttendees []string
	if len(req.Segments) == 0 {
		job, err := h.meetings.GetJob(c.Context(), jobID)
		if err != nil {
			if errors.Is(err, store.ErrJobNotFound) {
				return response.NotFound(c, "Job not found")
			}
			return response.ServiceError(c, err.Error())
		}
		if job.Status != model.JobStatusCompleted || job.Result == nil {
			return response.ValidationError(c, "Job not completed and no segments supplied", nil)
		}
		jobResult = job.Result
		jobAttendees = job.Attendees
	}

	result, err := h.minutes.Generate(c.Context(), jobID, &req, jobResult, jobAttendees)
	if err != nil {
		return response.EngineError(c, err.Error())
	}

	return response.OK(c, result)
}
