// Package inpe fetches daily hotspot files from the INPE open-data archive.
package inpe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sony/gobreaker"
	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/observability"
)

// ClientConfig configures the archive client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Backoff BackoffConfig
}

// Client lists and downloads files from the archive directory.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	backoff BackoffConfig
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewClient creates an archive client. The base URL must be a directory
// listing; a trailing slash is added if missing.
func NewClient(cfg ClientConfig, logger *slog.Logger, metrics *observability.Metrics) (*Client, error) {
	raw := cfg.BaseURL
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse archive url: %w", err)
	}
	backoff := cfg.Backoff
	if backoff == (BackoffConfig{}) {
		backoff = DefaultBackoff
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: newBreaker("inpe-archive"),
		backoff: backoff,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// DailyLinks returns the CSV links in the directory listing whose file name
// contains the day as YYYYMMDD, in page order.
func (c *Client) DailyLinks(ctx context.Context, day time.Time) ([]string, error) {
	body, err := c.fetch(ctx, c.baseURL.String())
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}
	links, err := csvLinks(bytes.NewReader(body), c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse archive listing: %w", domain.ErrUpstream, err)
	}

	stamp := day.Format(domain.ArchiveDateLayout)
	var out []string
	for _, l := range links {
		if strings.Contains(path.Base(l), stamp) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Download fetches a file and returns it as UTF-8. Archive files are
// published in ISO-8859-1; content that is already valid UTF-8 is kept.
func (c *Client) Download(ctx context.Context, link string) ([]byte, error) {
	body, err := c.fetch(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", link, err)
	}
	return toUTF8(body)
}

func (c *Client) fetch(ctx context.Context, link string) ([]byte, error) {
	start := time.Now()
	body, err := get(ctx, c.http, c.breaker, c.backoff, link)
	c.metrics.ArchiveDuration.Observe(time.Since(start).Seconds())
	switch {
	case err == nil:
		return body, nil
	case errors.Is(err, errNotFound):
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, link)
	case ctx.Err() != nil:
		return nil, err
	default:
		c.logger.Warn("archive request failed", "url", link, "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
}

func toUTF8(b []byte) ([]byte, error) {
	if utf8.Valid(b) {
		return b, nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return nil, fmt.Errorf("decode latin-1: %w", err)
	}
	return out, nil
}

// csvLinks extracts absolute URLs of every anchor pointing at a .csv file.
func csvLinks(r io.Reader, base *url.URL) ([]string, error) {
	z := html.NewTokenizer(r)
	seen := make(map[string]struct{})
	var out []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return out, nil
			}
			return nil, z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "a" {
				continue
			}
			for _, attr := range tok.Attr {
				if attr.Key != "href" || !strings.HasSuffix(strings.ToLower(attr.Val), ".csv") {
					continue
				}
				ref, err := url.Parse(attr.Val)
				if err != nil {
					continue
				}
				abs := base.ResolveReference(ref).String()
				if _, dup := seen[abs]; dup {
					continue
				}
				seen[abs] = struct{}{}
				out = append(out, abs)
			}
		}
	}
}
