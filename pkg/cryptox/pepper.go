package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const pepperLength = 32

// LoadOrCreatePepper loads the server pepper from file, generating and
// persisting a new one when the file does not exist yet.
func LoadOrCreatePepper(file string) ([]byte, error) {
	if file == "" {
		return nil, errors.New("cryptox: pepper path is empty")
	}

	file = filepath.Clean(file)
	if err := os.MkdirAll(filepath.Dir(file), 0750); err != nil {
		return nil, fmt.Errorf("create pepper dir: %w", err)
	}

	raw, err := os.ReadFile(file) // #nosec G304 - path comes from operator config
	switch {
	case err == nil:
		pepper, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil {
			return nil, fmt.Errorf("decode pepper: %w", err)
		}
		if len(pepper) < 16 {
			return nil, fmt.Errorf("pepper in %s is too short", file)
		}
		return pepper, nil

	case errors.Is(err, fs.ErrNotExist):
		// Generate a new pepper and save it to the file
		pepper := make([]byte, pepperLength)
		if _, err := rand.Read(pepper); err != nil {
			return nil, err
		}
		encoded := base64.RawURLEncoding.EncodeToString(pepper)
		if err := os.WriteFile(file, []byte(encoded), 0600); err != nil {
			return nil, fmt.Errorf("write pepper: %w", err)
		}
		return pepper, nil

	default:
		return nil, fmt.Errorf("read pepper: %w", err)
	}
}
