package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/actasweb/api/internal/media"
	"github.com/actasweb/api/internal/model"
)

var videoExtensions = []string{".mp4", ".webm", ".mov", ".avi"}

// MediaService re-cuts uploaded videos.
type MediaService struct {
	uploadDir string
}

func NewMediaService(uploadDir string) *MediaService {
	return &MediaService{uploadDir: uploadDir}
}

// Trim cuts the requested range out of an uploaded video into a new file next
// to the original. The response carries the original start offset so the
// frontend can shift segment timestamps.
func (s *MediaService) Trim(ctx context.Context, req *model.TrimRequest) (*model.TrimResponse, error) {
	// Only the basename is honored, the source must live in the upload dir
	inputPath := filepath.Join(s.uploadDir, filepath.Base(req.VideoURL))
	if _, err := os.Stat(inputPath); err != nil {
		return nil, fmt.Errorf("video not found: %s", filepath.Base(req.VideoURL))
	}

	newName := filepath.Base(strings.TrimSpace(req.NewName))
	if newName == "" || newName == "." || newName == ".." {
		newName = "recorte"
	}
	if !hasVideoExtension(newName) {
		ext := filepath.Ext(inputPath)
		if ext == "" {
			ext = ".mp4"
		}
		newName += ext
	}

	outputFilename := "trimmed_" + newName
	outputPath := filepath.Join(s.uploadDir, outputFilename)

	if err := media.Trim(ctx, inputPath, outputPath, req.Start, req.End); err != nil {
		return nil, err
	}

	return &model.TrimResponse{
		Message:       "Video recortado con éxito",
		NewVideoURL:   "/files/" + outputFilename,
		OriginalStart: req.Start,
	}, nil
}

func hasVideoExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range videoExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
