package handler

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/actasweb/api/internal/model"
	"github.com/actasweb/api/internal/service"
	"github.com/actasweb/api/pkg/response"
)

type SessionHandler struct {
	service   *service.SessionService
	validator *validator.Validate
}

func NewSessionHandler(svc *service.SessionService, v *validator.Validate) *SessionHandler {
	return &SessionHandler{
		service:   svc,
		validator: v,
	}
}

// Save handles POST /api/sessions
func (h *SessionHandler) Save(c *fiber.Ctx) error {
	var req model.SaveSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", err.Error())
	}

	result, err := h.service.Save(&req)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, result)
}

// List handles GET /api/sessions
func (h *SessionHandler) List(c *fiber.Ctx) error {
	sessions, err := h.service.List()
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, sessions)
}

// Load handles GET /api/sessions/:name
func (h *SessionHandler) Load(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return response.ValidationError(c, "Session name is required", nil)
	}

	data, err := h.service.Load(name)
	if err != nil {
		if os.IsNotExist(err) {
			return response.NotFound(c, "Session not found")
		}
		return response.ServiceError(c, err.Error())
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(data)
}
