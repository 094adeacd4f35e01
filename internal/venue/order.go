package venue

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mselser95/crossvenue-arb/pkg/types"
)

var (
	errMissingCredentials = errors.New("missing API credentials")
	errMissingOrderID     = errors.New("response carried no order id")
)

func validateOrder(venue types.Platform, creds types.Credentials, marketID string, side types.Side, price float64, amount int64) error {
	var reason string
	switch {
	case creds.Empty():
		return &types.OrderError{Venue: venue, MarketID: marketID, Side: side, Err: errMissingCredentials}
	case marketID == "":
		reason = "market id is required"
	case !side.Valid():
		reason = fmt.Sprintf("invalid side %q", side)
	case !(price > 0 && price < 1):
		reason = fmt.Sprintf("price %v outside (0,1)", price)
	case amount <= 0:
		reason = fmt.Sprintf("amount %d must be positive", amount)
	default:
		return nil
	}
	return &types.OrderError{Venue: venue, MarketID: marketID, Side: side, Err: errors.New(reason)}
}

// postOrder sends a JSON order and returns the response body. Transport
// failures and non-2xx responses become *types.OrderError carrying the raw
// venue body.
func postOrder(ctx context.Context, client *http.Client, venue types.Platform, marketID string, side types.Side,
	endpoint string, headers map[string]string, body []byte) ([]byte, error) {
	start := time.Now()
	defer func() {
		OrderLatencySeconds.WithLabelValues(string(venue)).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		OrdersTotal.WithLabelValues(string(venue), "error").Inc()
		return nil, &types.OrderError{
			Venue: venue, MarketID: marketID, Side: side,
			Err: &types.NetworkError{Venue: venue, Err: err},
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		OrdersTotal.WithLabelValues(string(venue), "error").Inc()
		return nil, &types.OrderError{
			Venue: venue, MarketID: marketID, Side: side,
			StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		OrdersTotal.WithLabelValues(string(venue), "rejected").Inc()
		return nil, &types.OrderError{
			Venue: venue, MarketID: marketID, Side: side,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	OrdersTotal.WithLabelValues(string(venue), "accepted").Inc()
	return respBody, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
