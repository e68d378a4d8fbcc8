package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"citywatch-worker/internal/config"
)

// Store writes frame snapshots to the local artifact directory. Files are
// served back through the API's /artifacts static route, so the returned
// URL is public as long as the worker is up.
type Store struct {
	dir  string
	base string
}

func NewStore(cfg *config.Config) (*Store, error) {
	if err := os.MkdirAll(cfg.ArtifactDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact dir: %w", err)
	}

	log.Info().Str("dir", cfg.ArtifactDir).Msg("Artifact store initialized")

	return &Store{
		dir:  cfg.ArtifactDir,
		base: strings.TrimRight(cfg.PublicBase, "/"),
	}, nil
}

// Upload writes the JPEG bytes under key and returns the public URL.
func (s *Store) Upload(frame []byte, key string) (string, error) {
	key = filepath.Base(key) // no path traversal via label names
	path := filepath.Join(s.dir, key)

	if err := os.WriteFile(path, frame, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", key, err)
	}

	return fmt.Sprintf("%s/artifacts/%s", s.base, key), nil
}

// Dir returns the directory artifacts are written to.
func (s *Store) Dir() string {
	return s.dir
}
