package handler

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/actasweb/api/internal/service"
	"github.com/actasweb/api/internal/store"
	"github.com/actasweb/api/pkg/response"
)

// maxUploadSize bounds uploaded meeting videos; plenary sessions run for
// hours.
const maxUploadSize = 4 * 1024 * 1024 * 1024

type MeetingHandler struct {
	service   *service.MeetingService
	uploadDir string
}

func NewMeetingHandler(svc *service.MeetingService, uploadDir string) *MeetingHandler {
	return &MeetingHandler{
		service:   svc,
		uploadDir: uploadDir,
	}
}

// Upload handles POST /api/meetings/upload. Accepts the meeting video plus an
// optional attendee roster (xlsx), stores both and queues the processing job.
func (h *MeetingHandler) Upload(c *fiber.Ctx) error {
	video, err := c.FormFile("video")
	if err != nil {
		return response.ValidationError(c, "Video file is required", nil)
	}
	if video.Size > maxUploadSize {
		return response.ValidationError(c, "Video exceeds the size limit", map[string]interface{}{
			"maxSize":  maxUploadSize,
			"fileSize": video.Size,
		})
	}

	videoFilename := safeFilename(video.Filename)
	videoPath := filepath.Join(h.uploadDir, videoFilename)
	if err := c.SaveFile(video, videoPath); err != nil {
		return response.ServiceError(c, "Failed to store video")
	}

	rosterPath := ""
	if roster, err := c.FormFile("attendees"); err == nil {
		rosterPath = filepath.Join(h.uploadDir, safeFilename(roster.Filename))
		if err := c.SaveFile(roster, rosterPath); err != nil {
			return response.ServiceError(c, "Failed to store attendee roster")
		}
	}

	result, err := h.service.Submit(c.Context(), videoFilename, videoPath, rosterPath)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}

// Status handles GET /api/meetings/status/:jobId
func (h *MeetingHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.service.GetStatus(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// safeFilename flattens a client-supplied filename to its base name with
// spaces replaced, matching the URLs served from the upload dir.
func safeFilename(name string) string {
	return strings.ReplaceAll(filepath.Base(name), " ", "_")
}
