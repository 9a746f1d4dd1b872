// Package integration handles external service interactions
package integration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/abelzeko/water-feed/internal/entities"
	"github.com/abelzeko/water-feed/internal/log"
	"github.com/abelzeko/water-feed/internal/metrics"
	"github.com/abelzeko/water-feed/internal/records"
	"github.com/abelzeko/water-feed/internal/retry"
)

const (
	// DefaultTimeout bounds a single HTTP request
	DefaultTimeout = 12 * time.Second

	maxBodyBytes = 8 << 20
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

var (
	// ErrAccessDenied is returned when the site answers 403
	ErrAccessDenied = errors.New("access denied")
	// ErrUnexpectedStatus is returned for any other non-2xx answer
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrBlockedPage is returned when the body has no dated rows at all, which
	// is what block pages and CAPTCHAs look like
	ErrBlockedPage = errors.New("page has no month markers")
)

// FeedScraper retrieves report pages from the monitoring authority
type FeedScraper struct {
	client  *http.Client
	policy  retry.Policy
	logger  *zap.SugaredLogger
	metrics *metrics.Collector
}

// NewFeedScraper creates a new report scraper. A nil client gets DefaultTimeout;
// a nil collector disables metrics.
func NewFeedScraper(client *http.Client, policy retry.Policy, logger *zap.SugaredLogger, collector *metrics.Collector) *FeedScraper {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &FeedScraper{
		client:  client,
		policy:  policy,
		logger:  log.OrNop(logger),
		metrics: collector,
	}
}

// FetchDocument retrieves the report page for a source, retrying transient failures.
// The returned error wraps retry.ErrExhausted when every attempt failed.
func (fs *FeedScraper) FetchDocument(ctx context.Context, spec entities.SourceSpec) (string, error) {
	var body string
	err := retry.Do(ctx, fs.policy, func(attempt int) error {
		if fs.metrics != nil {
			fs.metrics.RecordFetchAttempt(spec.ID)
		}
		fs.logger.Debugf("Sending HTTP request for %s (attempt %d): %s", spec.ID, attempt, spec.Endpoint)

		var err error
		body, err = fs.fetchOnce(ctx, spec.Endpoint)
		return err
	}, func(attempt int, delay time.Duration, err error) {
		fs.logger.Warnf("Fetch attempt %d for %s failed: %v; retrying in %s", attempt, spec.ID, err, delay)
	})
	if err != nil {
		if fs.metrics != nil {
			fs.metrics.RecordFetchFailure(spec.ID)
		}
		return "", fmt.Errorf("failed to fetch %s: %w", spec.ID, err)
	}

	fs.logger.Infof("Successfully fetched %s (%d bytes)", spec.ID, len(body))
	return body, nil
}

// fetchOnce performs a single GET and checks the response
func (fs *FeedScraper) fetchOnce(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	setBrowserHeaders(req)

	res, err := fs.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch the webpage: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("%w: %s", ErrAccessDenied, res.Status)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %s", ErrUnexpectedStatus, res.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read the webpage: %w", err)
	}
	body := string(raw)

	if !records.ContainsMonth(body) {
		return "", ErrBlockedPage
	}
	return body, nil
}

// setBrowserHeaders makes the request look like it came from a desktop browser
func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Referer", referer(req.URL))
}

func referer(u *url.URL) string {
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}).String()
}
