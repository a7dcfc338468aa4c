package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/actasweb/api/internal/model"
)

// SessionService persists named transcript sessions as JSON files and links
// them to their generated actas.
type SessionService struct {
	sessionsDir string
	actasDir    string
}

func NewSessionService(sessionsDir, actasDir string) *SessionService {
	return &SessionService{
		sessionsDir: sessionsDir,
		actasDir:    actasDir,
	}
}

// SanitizeName keeps letters, digits, spaces, dashes and underscores from a
// user-supplied name so it is safe as a filename fragment.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// Save writes the session snapshot, overwriting any previous session with the
// same sanitized name.
func (s *SessionService) Save(req *model.SaveSessionRequest) (*model.SaveSessionResponse, error) {
	safeName := SanitizeName(req.Name)
	if safeName == "" {
		safeName = "session_unnamed"
	}

	if err := os.MkdirAll(s.sessionsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sessions dir: %w", err)
	}

	path := filepath.Join(s.sessionsDir, safeName+".json")
	if err := os.WriteFile(path, req.Data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return &model.SaveSessionResponse{
		Message:  "Sesión guardada",
		Filename: safeName,
	}, nil
}

// List returns the saved sessions, newest first, with links to their acta
// files when those exist.
func (s *SessionService) List() ([]model.SessionInfo, error) {
	entries, err := filepath.Glob(filepath.Join(s.sessionsDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]model.SessionInfo, 0, len(entries))
	for _, path := range entries {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		name := strings.TrimSuffix(filepath.Base(path), ".json")

		session := model.SessionInfo{
			Name:      name,
			Timestamp: float64(info.ModTime().UnixNano()) / 1e9,
		}
		if mdURL := s.actaLink(name, "md"); mdURL != "" {
			session.ActaMD = &mdURL
		}
		if pdfURL := s.actaLink(name, "pdf"); pdfURL != "" {
			session.ActaPDF = &pdfURL
		}
		sessions = append(sessions, session)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Timestamp > sessions[j].Timestamp
	})
	return sessions, nil
}

// Load returns the raw snapshot of one session. The name is sanitized again
// so a crafted name cannot escape the sessions directory.
func (s *SessionService) Load(name string) (json.RawMessage, error) {
	safeName := SanitizeName(name)
	if safeName == "" {
		return nil, os.ErrNotExist
	}

	data, err := os.ReadFile(filepath.Join(s.sessionsDir, safeName+".json"))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func (s *SessionService) actaLink(name, ext string) string {
	filename := fmt.Sprintf("acta_%s.%s", name, ext)
	if _, err := os.Stat(filepath.Join(s.actasDir, filename)); err != nil {
		return ""
	}
	return "/actas/" + filename
}
