package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/observability"
	"github.com/couchcryptid/fire-risk-service/internal/pipeline"
)

type mockForecaster struct {
	dates []time.Time
	err   error
}

func (m *mockForecaster) Predict(_ context.Context, date time.Time) (*pipeline.Prediction, error) {
	m.dates = append(m.dates, date)
	if m.err != nil {
		return nil, m.err
	}
	return &pipeline.Prediction{Date: date, Records: []domain.HotspotRecord{{ID: "f1"}}}, nil
}

type mockPublisher struct {
	got []*pipeline.Prediction
	err error
}

func (m *mockPublisher) Publish(_ context.Context, p *pipeline.Prediction) error {
	m.got = append(m.got, p)
	return m.err
}

func runs(t *testing.T, m *observability.Metrics, outcome string) float64 {
	t.Helper()
	var out dto.Metric
	var c prometheus.Counter = m.SchedulerRuns.WithLabelValues(outcome)
	require.NoError(t, c.Write(&out))
	return out.GetCounter().GetValue()
}

func freeze(t *testing.T, now time.Time) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func TestRunOnce_PredictsYesterdayAndPublishes(t *testing.T) {
	freeze(t, time.Date(2025, 5, 21, 6, 0, 0, 0, time.UTC))
	f := &mockForecaster{}
	p := &mockPublisher{}
	m := observability.NewMetricsForTesting()

	s := New("06:00", f, p, slog.Default(), m)
	require.NoError(t, s.RunOnce(context.Background()))

	require.Len(t, f.dates, 1)
	assert.Equal(t, time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC), f.dates[0])
	require.Len(t, p.got, 1)
	assert.Equal(t, 1.0, runs(t, m, "success"))
}

func TestRunOnce_WithoutPublisher(t *testing.T) {
	freeze(t, time.Date(2025, 1, 1, 0, 30, 0, 0, time.UTC))
	f := &mockForecaster{}

	s := New("06:00", f, nil, slog.Default(), observability.NewMetricsForTesting())
	require.NoError(t, s.RunOnce(context.Background()))

	require.Len(t, f.dates, 1)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), f.dates[0])
}

func TestRunOnce_Failures(t *testing.T) {
	freeze(t, time.Date(2025, 5, 21, 6, 0, 0, 0, time.UTC))

	t.Run("prediction", func(t *testing.T) {
		m := observability.NewMetricsForTesting()
		p := &mockPublisher{}
		s := New("06:00", &mockForecaster{err: domain.ErrNotFound}, p, slog.Default(), m)

		err := s.RunOnce(context.Background())
		require.ErrorIs(t, err, domain.ErrNotFound)
		assert.Empty(t, p.got)
		assert.Equal(t, 1.0, runs(t, m, "error"))
	})

	t.Run("publish", func(t *testing.T) {
		m := observability.NewMetricsForTesting()
		boom := errors.New("broker down")
		s := New("06:00", &mockForecaster{}, &mockPublisher{err: boom}, slog.Default(), m)

		require.ErrorIs(t, s.RunOnce(context.Background()), boom)
		assert.Equal(t, 1.0, runs(t, m, "error"))
		assert.Equal(t, 0.0, runs(t, m, "success"))
	})
}

func TestStart(t *testing.T) {
	s := New("06:00", &mockForecaster{}, nil, slog.Default(), observability.NewMetricsForTesting())
	require.NoError(t, s.Start())
	s.Stop()

	bad := New("not-a-time", &mockForecaster{}, nil, slog.Default(), observability.NewMetricsForTesting())
	require.Error(t, bad.Start())
}
