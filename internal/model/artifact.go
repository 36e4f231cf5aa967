package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
)

// Artifact is a persisted, fitted model. Features fixes the column order the
// model expects; it is the training schema minus the label.
type Artifact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Features  []string  `json:"features"`
	TrainedAt time.Time `json:"trained_at"`
	Scores    Scores    `json:"scores"`
	Linear
}

// Version identifies the artifact in caches and published messages.
func (a *Artifact) Version() string { return a.Name + "-" + a.ID }

func (a *Artifact) validate() error {
	if len(a.Features) == 0 {
		return errors.New("artifact has no features")
	}
	if len(a.Features) != len(a.Coefficients) {
		return fmt.Errorf("artifact has %d features but %d coefficients", len(a.Features), len(a.Coefficients))
	}
	if !a.finite() {
		return errors.New("artifact has non-finite coefficients")
	}
	return nil
}

// Save writes the artifact as indented JSON, replacing path atomically.
func (a *Artifact) Save(path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

// Load reads an artifact written by Save.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: model artifact %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrSchema, path, err)
	}
	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSchema, path, err)
	}
	return &a, nil
}
