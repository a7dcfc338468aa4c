package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrMissingCredential is returned when the token file is absent or holds no
// usable content.
var ErrMissingCredential = errors.New("missing credential")

// LoadToken reads a single-line secret (e.g. the Hugging Face diarization
// token) from a file, taking the first non-empty line.
func LoadToken(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrMissingCredential, path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	return "", fmt.Errorf("%w: %s is empty", ErrMissingCredential, path)
}
