package inpe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/observability"
)

// maxDownloads caps how many matching files are fetched for one day.
const maxDownloads = 2

// Fetcher is the remote side of the archive.
type Fetcher interface {
	DailyLinks(ctx context.Context, day time.Time) ([]string, error)
	Download(ctx context.Context, link string) ([]byte, error)
}

// Archive keeps a local directory of daily files in sync with the remote
// archive on demand. With a nil Fetcher it only serves local files.
// Downloads are serialised per day; lookups of files already on disk never
// wait on a download.
type Archive struct {
	dir     string
	fetcher Fetcher
	logger  *slog.Logger
	metrics *observability.Metrics

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewArchive(dir string, fetcher Fetcher, logger *slog.Logger, metrics *observability.Metrics) *Archive {
	return &Archive{dir: dir, fetcher: fetcher, logger: logger, metrics: metrics, locks: make(map[string]*sync.Mutex)}
}

func (a *Archive) dayLock(day time.Time) *sync.Mutex {
	key := day.Format(time.DateOnly)
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[key]
	if !ok {
		l = &sync.Mutex{}
		a.locks[key] = l
	}
	return l
}

// DailyFile returns the local path of the daily file for day, downloading
// it first when no local file for that date exists.
func (a *Archive) DailyFile(ctx context.Context, day time.Time) (string, error) {
	if p, ok := a.local(day); ok {
		a.metrics.ArchiveRequests.WithLabelValues("cached").Inc()
		return p, nil
	}
	if a.fetcher == nil {
		return "", fmt.Errorf("%w: no daily file for %s in %s", domain.ErrNotFound, day.Format(time.DateOnly), a.dir)
	}

	l := a.dayLock(day)
	l.Lock()
	defer l.Unlock()

	// Another caller may have finished the download while we waited.
	if p, ok := a.local(day); ok {
		a.metrics.ArchiveRequests.WithLabelValues("cached").Inc()
		return p, nil
	}
	paths, err := a.fetch(ctx, day)
	if err != nil {
		return "", err
	}
	if p, ok := a.local(day); ok {
		return p, nil
	}
	return paths[0], nil
}

// Fetch downloads the day's files regardless of what is on disk and returns
// the saved paths.
func (a *Archive) Fetch(ctx context.Context, day time.Time) ([]string, error) {
	if a.fetcher == nil {
		return nil, fmt.Errorf("%w: archive fetching is disabled", domain.ErrNotFound)
	}
	l := a.dayLock(day)
	l.Lock()
	defer l.Unlock()
	return a.fetch(ctx, day)
}

func (a *Archive) fetch(ctx context.Context, day time.Time) ([]string, error) {
	links, err := a.fetcher.DailyLinks(ctx, day)
	if err != nil {
		a.metrics.ArchiveRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	if len(links) == 0 {
		a.metrics.ArchiveRequests.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%w: no archive file for %s", domain.ErrNotFound, day.Format(time.DateOnly))
	}
	if len(links) > maxDownloads {
		links = links[:maxDownloads]
	}

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", a.dir, err)
	}
	paths := make([]string, 0, len(links))
	for _, link := range links {
		body, err := a.fetcher.Download(ctx, link)
		if err != nil {
			a.metrics.ArchiveRequests.WithLabelValues("error").Inc()
			return nil, err
		}
		dst := filepath.Join(a.dir, path.Base(link))
		if err := writeAtomic(dst, body); err != nil {
			return nil, err
		}
		a.metrics.ArchiveRequests.WithLabelValues("success").Inc()
		a.logger.Info("daily file downloaded", "url", link, "path", dst, "bytes", len(body))
		paths = append(paths, dst)
	}
	return paths, nil
}

// local finds an existing file for day, preferring the canonical name.
func (a *Archive) local(day time.Time) (string, bool) {
	canonical := filepath.Join(a.dir, domain.DailyFileName(day))
	if _, err := os.Stat(canonical); err == nil {
		return canonical, true
	}
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return "", false
	}
	stamp := day.Format(domain.ArchiveDateLayout)
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.Contains(name, stamp) && strings.EqualFold(filepath.Ext(name), ".csv") {
			return filepath.Join(a.dir, name), true
		}
	}
	return "", false
}

func writeAtomic(dst string, body []byte) error {
	tmp := dst + ".part"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename to %s: %w", dst, err)
	}
	return nil
}
