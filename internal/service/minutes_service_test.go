package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/actasweb/api/internal/model"
)

func TestComposeTranscript(t *testing.T) {
	segments := []model.TranscriptSegment{
		{Speaker: "SPEAKER_00", Text: "Se abre la sesión."},
		{Speaker: "Maria Lopez", Text: "  Primer punto del orden del día. "},
		{Speaker: "", Text: "Intervención sin identificar."},
		{Speaker: "SPEAKER_00", Text: "   "},
	}
	mapping := map[string]string{"SPEAKER_00": "Juan Garcia"}

	got := ComposeTranscript(segments, mapping)
	want := strings.Join([]string{
		"Juan Garcia: Se abre la sesión.",
		"Maria Lopez: Primer punto del orden del día.",
		"Desconocido: Intervención sin identificar.",
	}, "\n")
	if got != want {
		t.Errorf("ComposeTranscript =\n%s\nwant\n%s", got, want)
	}
}

func TestComposeTranscriptMappedToEmpty(t *testing.T) {
	segments := []model.TranscriptSegment{{Speaker: "SPEAKER_01", Text: "Voto a favor."}}
	got := ComposeTranscript(segments, map[string]string{"SPEAKER_01": ""})
	if got != "Desconocido: Voto a favor." {
		t.Errorf("got %q", got)
	}
}

func TestGenerateUsesJobResultWhenNoSegments(t *testing.T) {
	svc := NewMinutesService(nil, nil, t.TempDir())

	jobResult := &model.ProcessingResult{
		Segments: []model.TranscriptSegment{{Speaker: "Ana Ruiz", Text: "Se aprueba el acta anterior."}},
		Language: "es",
	}

	resp, err := svc.Generate(context.Background(), "job-1", &model.GenerateMinutesRequest{SessionName: "pleno enero"}, jobResult, []string{"Ana Ruiz"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Minutes == "" {
		t.Error("empty minutes")
	}
	if resp.Files.Markdown == nil {
		t.Fatal("markdown acta not saved")
	}
	if *resp.Files.Markdown != "/actas/acta_pleno enero.md" {
		t.Errorf("md link = %q", *resp.Files.Markdown)
	}
}

func TestGenerateNoSegmentsNoResult(t *testing.T) {
	svc := NewMinutesService(nil, nil, t.TempDir())

	if _, err := svc.Generate(context.Background(), "job-1", &model.GenerateMinutesRequest{}, nil, nil); err == nil {
		t.Error("expected error when no transcript is available")
	}
}

func TestSaveActaFilesWritesMarkdown(t *testing.T) {
	dir := t.TempDir()
	svc := NewMinutesService(nil, nil, dir)

	files := svc.saveActaFiles(context.Background(), "sesión: ordinaria/2026", "# Acta\n")
	if files.Markdown == nil {
		t.Fatal("markdown link missing")
	}

	// The name loses the characters that are unsafe in a filename
	path := filepath.Join(dir, "acta_sesión ordinaria2026.md")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read acta: %v", err)
	}
	if string(data) != "# Acta\n" {
		t.Errorf("acta content = %q", data)
	}
}
