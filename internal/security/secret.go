package security

import (
	"fmt"
	"os"
	"strings"
)

// LoadSecret returns the signing secret. value is used when non-empty; otherwise
// the contents of file are read and surrounding whitespace trimmed.
// Returns ErrMissingSecret when both are empty or the file is blank.
func LoadSecret(value, file string) ([]byte, error) {
	if v := strings.TrimSpace(value); v != "" {
		return []byte(v), nil
	}
	file = strings.TrimSpace(file)
	if file == "" {
		return nil, ErrMissingSecret
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read secret file: %w", err)
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return nil, ErrMissingSecret
	}
	return []byte(s), nil
}
