package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/actasweb/api/internal/model"
	"github.com/actasweb/api/internal/service"
	"github.com/actasweb/api/pkg/response"
)

type MediaHandler struct {
	service   *service.MediaService
	validator *validator.Validate
}

func NewMediaHandler(svc *service.MediaService, v *validator.Validate) *MediaHandler {
	return &MediaHandler{
		service:   svc,
		validator: v,
	}
}

// Trim handles POST /api/media/trim
func (h *MediaHandler) Trim(c *fiber.Ctx) error {
	var req model.TrimRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", err.Error())
	}

	result, err := h.service.Trim(c.Context(), &req)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, result)
}
