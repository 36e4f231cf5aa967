package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/observability"
	"github.com/couchcryptid/fire-risk-service/internal/table"
)

// ErrNotLoaded is returned when scoring before any artifact has been loaded.
var ErrNotLoaded = errors.New("model not loaded")

// Service holds the current artifact. The artifact is immutable; Reload
// swaps it atomically so in-flight scoring keeps the version it started with.
type Service struct {
	path    string
	current atomic.Pointer[Artifact]
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewService returns a Service reading its artifact from path. Nothing is
// loaded until Reload is called.
func NewService(path string, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{path: path, logger: logger, metrics: metrics}
}

// Reload reads the artifact from disk and makes it current. On failure the
// previously loaded artifact, if any, stays in service.
func (s *Service) Reload() (*Artifact, error) {
	a, err := Load(s.path)
	if err != nil {
		return nil, fmt.Errorf("reload model: %w", err)
	}
	s.current.Store(a)
	s.metrics.ModelLoaded.Set(1)
	s.logger.Info("model loaded", "model", a.Name, "version", a.Version(), "features", len(a.Features))
	return a, nil
}

// Set installs an artifact directly.
func (s *Service) Set(a *Artifact) {
	s.current.Store(a)
	s.metrics.ModelLoaded.Set(1)
}

// Current returns the loaded artifact.
func (s *Service) Current() (*Artifact, error) {
	a := s.current.Load()
	if a == nil {
		return nil, ErrNotLoaded
	}
	return a, nil
}

// CheckReadiness implements the readiness probe.
func (s *Service) CheckReadiness(_ context.Context) error {
	_, err := s.Current()
	return err
}

// Score predicts one value per row of a reconciled feature table. The
// table's columns must equal the artifact's features, in order.
func (s *Service) Score(features *table.Table) ([]float64, *Artifact, error) {
	a, err := s.Current()
	if err != nil {
		return nil, nil, err
	}
	if !slices.Equal(features.Names(), a.Features) {
		return nil, a, fmt.Errorf("%w: feature columns do not match model %s", domain.ErrSchema, a.Version())
	}
	if features.Len() == 0 {
		return []float64{}, a, nil
	}
	x, err := Matrix(features, a.Features)
	if err != nil {
		return nil, a, err
	}
	preds, err := a.Predict(x)
	if err != nil {
		return nil, a, fmt.Errorf("%w: %w", domain.ErrSchema, err)
	}
	return preds, a, nil
}
