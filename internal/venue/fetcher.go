package venue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mselser95/crossvenue-arb/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// pageFetcher performs paginated GETs against one venue. A 429 sleeps for the
// advertised Retry-After (or the default delay) and retries the same page.
type pageFetcher struct {
	venue          types.Platform
	client         *http.Client
	pageDelay      time.Duration
	rateLimitDelay time.Duration
	maxRetries     int
	logger         *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func newPageFetcher(venue types.Platform, cfg *Config) *pageFetcher {
	return &pageFetcher{
		venue:          venue,
		client:         cfg.HTTPClient,
		pageDelay:      cfg.PageDelay,
		rateLimitDelay: cfg.RateLimitDelay,
		maxRetries:     cfg.MaxRetries,
		logger:         cfg.Logger,
		sleep:          sleepContext,
	}
}

// pacer spaces successful pages of a single listing run.
func (f *pageFetcher) pacer() *rate.Limiter {
	if f.pageDelay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(f.pageDelay), 1)
}

// page waits for the pacer and then fetches one page, retrying rate limits.
func (f *pageFetcher) page(ctx context.Context, pacer *rate.Limiter, requestURL string) ([]byte, error) {
	err := pacer.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("wait for page slot: %w", err)
	}

	for attempt := 0; ; attempt++ {
		body, err := f.get(ctx, requestURL)
		if err == nil {
			PagesFetchedTotal.WithLabelValues(string(f.venue)).Inc()
			return body, nil
		}

		var rl *types.RateLimitError
		if !errors.As(err, &rl) {
			return nil, err
		}

		RateLimitedTotal.WithLabelValues(string(f.venue)).Inc()

		if attempt >= f.maxRetries {
			return nil, &types.VenueError{
				Venue:      f.venue,
				StatusCode: http.StatusTooManyRequests,
				Err:        fmt.Errorf("gave up after %d retries: %w", attempt, rl),
			}
		}

		f.logger.Warn("rate-limited",
			zap.String("venue", string(f.venue)),
			zap.Duration("retry-after", rl.RetryAfter),
			zap.Int("attempt", attempt+1))

		err = f.sleep(ctx, rl.RetryAfter)
		if err != nil {
			return nil, fmt.Errorf("rate limit backoff: %w", err)
		}
	}
}

func (f *pageFetcher) get(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	f.logger.Debug("fetching-page",
		zap.String("venue", string(f.venue)),
		zap.String("url", requestURL))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &types.NetworkError{Venue: f.venue, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &types.RateLimitError{
			Venue:      f.venue,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), f.rateLimitDelay),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.NetworkError{Venue: f.venue, Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &types.VenueError{
			Venue:      f.venue,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	return body, nil
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(header string, fallback time.Duration) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return fallback
	}

	seconds, err := strconv.Atoi(header)
	if err == nil {
		if seconds < 0 {
			return fallback
		}
		return time.Duration(seconds) * time.Second
	}

	at, err := http.ParseTime(header)
	if err == nil {
		d := time.Until(at)
		if d < 0 {
			return 0
		}
		return d
	}

	return fallback
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
