//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/fire-risk-service/internal/adapter/csvfile"
	"github.com/couchcryptid/fire-risk-service/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("fire-risk-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// consumed is one message read back from the predictions topic.
type consumed struct {
	Key     string
	Value   []byte
	Headers map[string]string
}

func readMessages(ctx context.Context, t *testing.T, broker, topic string, n int) []consumed {
	t.Helper()
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       topic,
		GroupID:     "test-" + strconv.FormatInt(time.Now().UnixNano(), 10),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = reader.Close() })

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out := make([]consumed, 0, n)
	for len(out) < n {
		msg, err := reader.ReadMessage(readCtx)
		require.NoError(t, err, "read from predictions topic")
		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		out = append(out, consumed{Key: string(msg.Key), Value: msg.Value, Headers: headers})
	}
	return out
}

// hotspotDay builds one day of hotspots for a handful of cities with a
// risk that rises with dry days.
func hotspotDay(day time.Time, withRisk bool) []domain.HotspotRecord {
	type city struct{ state, municipality, biome string }
	cities := []city{
		{"MATO GROSSO", "SORRISO", "Cerrado"},
		{"PARÁ", "ALTAMIRA", "Amazônia"},
		{"TOCANTINS", "PALMAS", "Cerrado"},
	}
	var recs []domain.HotspotRecord
	for i, c := range cities {
		dry := float64((day.Day() + i*3) % 12)
		rec := domain.HotspotRecord{
			ID:              day.Format(domain.ArchiveDateLayout) + "-" + strconv.Itoa(i),
			Lat:             -10 - float64(i),
			Lon:             -50 - float64(i),
			ObservedAt:      day.Add(time.Duration(13+i) * time.Hour),
			Satellite:       "AQUA_M-T",
			Municipality:    c.municipality,
			State:           c.state,
			Country:         "Brasil",
			MunicipalityID:  domain.Float(float64(1000 + i)),
			StateID:         domain.Float(float64(10 + i)),
			CountryID:       domain.Float(33),
			DaysWithoutRain: domain.Float(dry),
			Precipitation:   domain.Float(float64(i)),
			Biome:           c.biome,
			FRP:             domain.Float(12.5),
		}
		if withRisk {
			rec.FireRisk = domain.Float(0.1 + 0.05*dry)
		}
		recs = append(recs, rec)
	}
	return recs
}

func writeDailyCSV(t *testing.T, dir string, day time.Time, recs []domain.HotspotRecord) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, domain.DailyFileName(day)))
	require.NoError(t, err)
	require.NoError(t, csvfile.Write(f, recs))
	require.NoError(t, f.Close())
}
