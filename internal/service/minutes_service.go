package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/actasweb/api/internal/client"
	"github.com/actasweb/api/internal/model"
)

const unknownSpeaker = "Desconocido"

// transcriptLimit caps the prompt size sent to the model.
const transcriptLimit = 200000

const minutesSystemPrompt = `Eres un secretario experto de un instituto de investigación (Instituto de Biotecnología).
Tu tarea es redactar un ACTA DE REUNIÓN formal y profesional en formato Markdown.

INSTRUCCIONES:
1. Usa un tono formal, objetivo y conciso (tercera persona).
2. Estructura el acta en:
   - Encabezado (Fecha, Asistentes, Ausentes).
   - Orden del Día (deduce los puntos principales).
   - Desarrollo de la sesión (resumen por puntos).
   - Acuerdos y Votaciones (destaca claramente los resultados).
3. NO inventes información. Básate solo en la transcripción.`

// MinutesService drafts formal meeting minutes from a transcript and persists
// them as markdown plus a best-effort PDF.
type MinutesService struct {
	gemini   *client.GeminiClient
	storage  client.ObjectStore
	actasDir string
}

func NewMinutesService(gemini *client.GeminiClient, storage client.ObjectStore, actasDir string) *MinutesService {
	return &MinutesService{
		gemini:   gemini,
		storage:  storage,
		actasDir: actasDir,
	}
}

// Generate drafts the minutes and saves the acta files. The markdown is
// always returned even when PDF conversion or archival fails.
func (s *MinutesService) Generate(ctx context.Context, jobID string, req *model.GenerateMinutesRequest, jobResult *model.ProcessingResult, jobAttendees []string) (*model.GenerateMinutesResponse, error) {
	segments := req.Segments
	attendees := req.Attendees
	if len(segments) == 0 {
		if jobResult == nil {
			return nil, fmt.Errorf("no segments supplied and job has no result")
		}
		segments = jobResult.Segments
		attendees = jobAttendees
	}

	transcript := ComposeTranscript(segments, req.SpeakerMapping)

	minutes, err := s.draft(ctx, transcript, attendees, req.Model)
	if err != nil {
		return nil, err
	}

	sessionName := req.SessionName
	if sessionName == "" {
		sessionName = jobID
	}
	files := s.saveActaFiles(ctx, sessionName, minutes)

	return &model.GenerateMinutesResponse{
		Minutes: minutes,
		Files:   files,
	}, nil
}

// ComposeTranscript renders segments as "Speaker: text" lines. The mapping
// overrides per-speaker names; empty speakers and mapped-to-empty names fall
// back to a placeholder, and empty-text segments are dropped.
func ComposeTranscript(segments []model.TranscriptSegment, mapping map[string]string) string {
	var lines []string
	for _, seg := range segments {
		speaker := seg.Speaker
		if speaker == "" {
			speaker = unknownSpeaker
		}
		if mapped, ok := mapping[speaker]; ok {
			speaker = mapped
		}
		if speaker == "" {
			speaker = unknownSpeaker
		}
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, text))
	}
	return strings.Join(lines, "\n")
}

func (s *MinutesService) draft(ctx context.Context, transcript string, attendees []string, modelOverride string) (string, error) {
	// Mock response when the client is not configured
	if s.gemini == nil || !s.gemini.IsConfigured() {
		return s.draftMock(attendees), nil
	}

	if len(transcript) > transcriptLimit {
		transcript = transcript[:transcriptLimit]
	}

	modelOverride = strings.TrimPrefix(modelOverride, "models/")

	userPrompt := fmt.Sprintf(`Asistentes oficiales: %s

Transcripción de la reunión:
---
%s
---

Por favor, genera el acta ahora siguiendo el formato Markdown.`,
		strings.Join(attendees, ", "), transcript)

	minutes, err := s.gemini.GenerateContent(ctx, modelOverride, minutesSystemPrompt, userPrompt)
	if err != nil {
		return "", fmt.Errorf("minutes generation failed: %w", err)
	}
	return minutes, nil
}

// saveActaFiles writes the markdown acta, converts it to PDF when pandoc is
// available, and archives both when object storage is configured. Failures
// here degrade the response instead of failing it.
func (s *MinutesService) saveActaFiles(ctx context.Context, sessionName, minutes string) model.MinutesFiles {
	var files model.MinutesFiles

	safeName := SanitizeName(sessionName)
	if safeName == "" {
		safeName = "acta_sin_nombre"
	}

	if err := os.MkdirAll(s.actasDir, 0o755); err != nil {
		log.Printf("Failed to create actas dir: %v", err)
		return files
	}

	mdFilename := fmt.Sprintf("acta_%s.md", safeName)
	mdPath := filepath.Join(s.actasDir, mdFilename)
	if err := os.WriteFile(mdPath, []byte(minutes), 0o644); err != nil {
		log.Printf("Failed to write acta markdown: %v", err)
		return files
	}
	mdURL := "/actas/" + mdFilename
	files.Markdown = &mdURL

	pdfFilename := fmt.Sprintf("acta_%s.pdf", safeName)
	pdfPath := filepath.Join(s.actasDir, pdfFilename)
	if err := convertToPDF(ctx, mdPath, pdfPath); err != nil {
		log.Printf("PDF conversion skipped: %v", err)
	} else {
		pdfURL := "/actas/" + pdfFilename
		files.PDF = &pdfURL
	}

	s.archive(ctx, mdFilename, mdPath)
	if files.PDF != nil {
		s.archive(ctx, pdfFilename, pdfPath)
	}

	return files
}

func (s *MinutesService) archive(ctx context.Context, filename, localPath string) {
	if s.storage == nil {
		return
	}
	if _, err := s.storage.UploadFile(ctx, "actas/"+filename, localPath); err != nil {
		log.Printf("Failed to archive %s: %v", filename, err)
	}
}

func convertToPDF(ctx context.Context, mdPath, pdfPath string) error {
	if _, err := exec.LookPath("pandoc"); err != nil {
		return fmt.Errorf("pandoc not found")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	cmd := exec.CommandContext(ctx, "pandoc", mdPath,
		"-o", pdfPath,
		"--pdf-engine=xelatex",
		"-V", "geometry:margin=2.5cm",
		"-V", "mainfont:DejaVu Sans",
		"-V", "fontsize=11pt",
		"--toc",
		"--toc-depth=2",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("pandoc: %w: %s", err, strings.TrimSpace(string(out)))
	}
	if _, err := os.Stat(pdfPath); err != nil {
		return fmt.Errorf("pandoc produced no output: %w", err)
	}
	return nil
}

func (s *MinutesService) draftMock(attendees []string) string {
	return fmt.Sprintf(`# Acta de Reunión

## Asistentes
%s

## Orden del Día
1. Revisión de asuntos pendientes.

## Desarrollo de la sesión
Se revisaron los asuntos pendientes de la sesión anterior.

## Acuerdos
Sin acuerdos registrados.`, strings.Join(attendees, ", "))
}
