package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"talkpress/internal/logging"
	"talkpress/internal/record"
	"talkpress/internal/services"
)

const (
	defaultTimeout = 30 * time.Second
	maxPageBytes   = 16 << 20
	stageName      = "crawl"
)

// HTTPFetcher downloads session pages and extracts records from them.
type HTTPFetcher struct {
	baseURL string
	listURL string
	profile Profile
	client  *http.Client
	logger  *slog.Logger
}

// HTTPOption customizes the fetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// NewHTTPFetcher builds a fetcher for <baseURL>/wwdc<year>/<id>/ pages and
// <listURL>/wwdc<year>/ session lists.
func NewHTTPFetcher(baseURL, listURL string, profile Profile, timeout time.Duration, logger *slog.Logger, opts ...HTTPOption) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	f := &HTTPFetcher{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		listURL: strings.TrimRight(strings.TrimSpace(listURL), "/"),
		profile: profile,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		logger: logging.NewComponentLogger(logger, "crawler"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// PageURL returns the session page URL for a video.
func (f *HTTPFetcher) PageURL(year int, videoID string) string {
	return f.baseURL + "/wwdc" + strconv.Itoa(year) + "/" + videoID + "/"
}

// ListURL returns the session list URL for a year.
func (f *HTTPFetcher) ListURL(year int) string {
	return f.listURL + "/wwdc" + strconv.Itoa(year) + "/"
}

// Fetch downloads and parses one session page.
func (f *HTTPFetcher) Fetch(ctx context.Context, year int, videoID string) (*record.Record, error) {
	pageURL := f.PageURL(year, videoID)
	body, err := f.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	rec, err := ParseVideoPage(bytes.NewReader(body), pageURL)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stageName, "parse page", pageURL, err)
	}
	if rec.IsEmpty() {
		return nil, services.Wrap(services.ErrExternalTool, stageName, "parse page", "no session content found at "+pageURL, nil)
	}
	logging.WithContext(ctx, f.logger).Debug("session page parsed",
		logging.String("url", pageURL),
		logging.Int("sentences", len(rec.Transcript)),
		logging.Int("samples", len(rec.SampleCodes)),
		logging.Int("chapters", len(rec.Chapters())))
	return rec, nil
}

// ListSessions downloads and parses a year's session list.
func (f *HTTPFetcher) ListSessions(ctx context.Context, year int) ([]Session, error) {
	listURL := f.ListURL(year)
	body, err := f.get(ctx, listURL)
	if err != nil {
		return nil, err
	}
	sessions, err := ParseSessionList(bytes.NewReader(body), listURL)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "list", "parse page", listURL, err)
	}
	return sessions, nil
}

func (f *HTTPFetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	f.profile.apply(req)

	started := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, services.Wrap(services.ErrTimeout, stageName, "fetch page", target, err)
		}
		return nil, services.Wrap(services.ErrExternalTool, stageName, "fetch page", target, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, services.Wrap(services.ErrNotFound, stageName, "fetch page", target, nil)
	case resp.StatusCode != http.StatusOK:
		return nil, services.Wrap(services.ErrExternalTool, stageName, "fetch page", fmt.Sprintf("%s: unexpected status %d", target, resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stageName, "read page", target, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, stageName, "read page", "empty response from "+target, nil)
	}
	logging.WithContext(ctx, f.logger).Debug("page fetched",
		logging.String("url", target),
		logging.Int("bytes", len(body)),
		logging.Duration("elapsed", time.Since(started)))
	return body, nil
}

func isTimeout(err error) bool {
	var timeout interface{ Timeout() bool }
	return errors.As(err, &timeout) && timeout.Timeout()
}
