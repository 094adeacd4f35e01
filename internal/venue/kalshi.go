package venue

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/mselser95/crossvenue-arb/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// DefaultKalshiPageSize is the /markets page size.
	DefaultKalshiPageSize = 200

	kalshiOrderPath = "/portfolio/orders"
)

// KalshiClient lists markets with cursor pagination and places orders on the
// portfolio API.
type KalshiClient struct {
	cfg     Config
	fetcher *pageFetcher
	logger  *zap.Logger
	newID   func() string
}

// NewKalshiClient creates a Kalshi client.
func NewKalshiClient(cfg *Config) *KalshiClient {
	c := cfg.withDefaults(DefaultKalshiPageSize)
	return &KalshiClient{
		cfg:     c,
		fetcher: newPageFetcher(types.PlatformKalshi, &c),
		logger:  c.Logger,
		newID:   uuid.NewString,
	}
}

// Platform returns types.PlatformKalshi.
func (c *KalshiClient) Platform() types.Platform {
	return types.PlatformKalshi
}

type kalshiPage struct {
	Markets []json.RawMessage `json:"markets"`
	Cursor  string            `json:"cursor"`
}

// kalshiMarket is the subset of a Kalshi market record we read. Prices come
// as *_dollars strings on newer responses and integer cents on older ones.
type kalshiMarket struct {
	Ticker           string    `json:"ticker"`
	Title            string    `json:"title"`
	Subtitle         string    `json:"subtitle"`
	Category         string    `json:"category"`
	SeriesTicker     string    `json:"series_ticker"`
	Status           string    `json:"status"`
	CloseTime        string    `json:"close_time"`
	ExpirationTime   string    `json:"expiration_time"`
	YesAskDollars    string    `json:"yes_ask_dollars"`
	YesAsk           flexFloat `json:"yes_ask"`
	NoAskDollars     string    `json:"no_ask_dollars"`
	NoAsk            flexFloat `json:"no_ask"`
	LastPriceDollars string    `json:"last_price_dollars"`
	LastPrice        flexFloat `json:"last_price"`
	Volume           flexFloat `json:"volume"`
	OpenInterest     flexFloat `json:"open_interest"`
}

var (
	kalshiYesChain = []priceExtractor[kalshiMarket]{
		func(m *kalshiMarket) (float64, bool) { return decimalPrice(m.YesAskDollars) },
		func(m *kalshiMarket) (float64, bool) { return centsPrice(&m.YesAsk) },
		func(m *kalshiMarket) (float64, bool) { return decimalPrice(m.LastPriceDollars) },
		func(m *kalshiMarket) (float64, bool) { return centsPrice(&m.LastPrice) },
	}
	kalshiNoChain = []priceExtractor[kalshiMarket]{
		func(m *kalshiMarket) (float64, bool) { return decimalPrice(m.NoAskDollars) },
		func(m *kalshiMarket) (float64, bool) { return centsPrice(&m.NoAsk) },
	}
)

// FetchMarkets follows the cursor through open markets until an empty page,
// an empty cursor or a cursor that repeats.
func (c *KalshiClient) FetchMarkets(ctx context.Context) ([]types.Market, error) {
	start := time.Now()
	defer func() {
		FetchDurationSeconds.WithLabelValues(string(types.PlatformKalshi)).Observe(time.Since(start).Seconds())
	}()

	pacer := c.fetcher.pacer()
	markets := make([]types.Market, 0)
	seenCursors := make(map[string]struct{})
	cursor := ""

	for page := 0; page < c.cfg.MaxPages; page++ {
		body, err := c.fetcher.page(ctx, pacer, c.pageURL(cursor))
		if err != nil {
			return nil, fmt.Errorf("fetch kalshi page %d: %w", page, err)
		}

		var resp kalshiPage
		err = json.Unmarshal(body, &resp)
		if err != nil {
			return nil, &types.VenueError{
				Venue:      types.PlatformKalshi,
				StatusCode: 200,
				Body:       truncate(string(body), 256),
				Err:        fmt.Errorf("decode markets page: %w", err),
			}
		}

		if len(resp.Markets) == 0 {
			return markets, nil
		}

		for _, raw := range resp.Markets {
			m, ok := c.normalize(raw)
			if ok {
				markets = append(markets, m)
			}
		}

		c.logger.Debug("fetched-page",
			zap.String("venue", string(types.PlatformKalshi)),
			zap.Int("page", page),
			zap.Int("records", len(resp.Markets)),
			zap.Int("total", len(markets)))

		if resp.Cursor == "" {
			return markets, nil
		}
		if _, repeated := seenCursors[resp.Cursor]; repeated {
			c.logger.Warn("cursor-repeated",
				zap.String("venue", string(types.PlatformKalshi)),
				zap.String("cursor", resp.Cursor))
			return markets, nil
		}
		seenCursors[resp.Cursor] = struct{}{}
		cursor = resp.Cursor
	}

	c.logger.Warn("max-pages-reached",
		zap.String("venue", string(types.PlatformKalshi)),
		zap.Int("max-pages", c.cfg.MaxPages))

	return markets, nil
}

func (c *KalshiClient) pageURL(cursor string) string {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.cfg.PageSize))
	params.Set("status", "open")
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	return fmt.Sprintf("%s/markets?%s", c.cfg.MarketsURL, params.Encode())
}

func (c *KalshiClient) normalize(raw json.RawMessage) (types.Market, bool) {
	var rec kalshiMarket
	err := json.Unmarshal(raw, &rec)
	if err != nil {
		c.dropMalformed(&types.MalformedRecordError{Venue: types.PlatformKalshi, Reason: err.Error()})
		return types.Market{}, false
	}

	if rec.Status != "open" && rec.Status != "active" {
		RecordsSkippedTotal.WithLabelValues(string(types.PlatformKalshi)).Inc()
		return types.Market{}, false
	}

	if rec.Ticker == "" {
		c.dropMalformed(&types.MalformedRecordError{Venue: types.PlatformKalshi, Reason: "missing ticker"})
		return types.Market{}, false
	}

	yes, no := resolvePrices(&rec, kalshiYesChain, kalshiNoChain)

	MarketsNormalizedTotal.WithLabelValues(string(types.PlatformKalshi)).Inc()

	return types.Market{
		ID:        rec.Ticker,
		Platform:  types.PlatformKalshi,
		Title:     firstNonEmpty(rec.Title, rec.Subtitle, rec.Ticker),
		Slug:      rec.Ticker,
		Category:  firstNonEmpty(rec.Category, rec.SeriesTicker, "uncategorized"),
		EndDate:   firstNonEmpty(rec.CloseTime, rec.ExpirationTime),
		YesPrice:  yes,
		NoPrice:   no,
		Volume:    rec.Volume.Float(),
		Liquidity: rec.OpenInterest.Float(),
		Active:    true,
		URL:       "https://kalshi.com/markets/" + rec.Ticker,
	}, true
}

func (c *KalshiClient) dropMalformed(err *types.MalformedRecordError) {
	RecordsMalformedTotal.WithLabelValues(string(err.Venue)).Inc()
	c.logger.Debug("malformed-record-dropped", zap.Error(err))
}

// kalshiOrderRequest is the portfolio order body. Limit prices are in cents.
type kalshiOrderRequest struct {
	Ticker        string `json:"ticker"`
	ClientOrderID string `json:"client_order_id"`
	Action        string `json:"action"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	Count         int64  `json:"count"`
	YesPrice      *int64 `json:"yes_price,omitempty"`
	NoPrice       *int64 `json:"no_price,omitempty"`
}

type kalshiOrderResponse struct {
	Order *struct {
		OrderID string `json:"order_id"`
	} `json:"order"`
	OrderID string `json:"order_id"`
}

// PlaceOrder submits a limit buy with Bearer authentication.
func (c *KalshiClient) PlaceOrder(ctx context.Context, creds types.Credentials, marketID string, side types.Side, price float64, amount int64) (string, error) {
	err := validateOrder(types.PlatformKalshi, creds, marketID, side, price, amount)
	if err != nil {
		return "", err
	}

	cents := decimal.NewFromFloat(price).Shift(2).Round(0).IntPart()

	req := kalshiOrderRequest{
		Ticker:        marketID,
		ClientOrderID: c.newID(),
		Action:        "buy",
		Side:          string(side),
		Type:          "limit",
		Count:         amount,
	}
	if side == types.SideYes {
		req.YesPrice = &cents
	} else {
		req.NoPrice = &cents
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal order: %w", err)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + creds.APIKey,
	}

	respBody, err := postOrder(ctx, c.cfg.HTTPClient, types.PlatformKalshi, marketID, side,
		c.cfg.OrdersURL+kalshiOrderPath, headers, body)
	if err != nil {
		return "", err
	}

	var resp kalshiOrderResponse
	err = json.Unmarshal(respBody, &resp)
	if err != nil {
		return "", &types.OrderError{
			Venue: types.PlatformKalshi, MarketID: marketID, Side: side,
			Body: string(respBody), Err: fmt.Errorf("parse order response: %w", err),
		}
	}

	orderID := resp.OrderID
	if resp.Order != nil && resp.Order.OrderID != "" {
		orderID = resp.Order.OrderID
	}
	if orderID == "" {
		return "", &types.OrderError{
			Venue: types.PlatformKalshi, MarketID: marketID, Side: side,
			Body: string(respBody), Err: errMissingOrderID,
		}
	}

	c.logger.Info("order-placed",
		zap.String("venue", string(types.PlatformKalshi)),
		zap.String("market-id", marketID),
		zap.String("side", string(side)),
		zap.Int64("price-cents", cents),
		zap.Int64("amount", amount),
		zap.String("order-id", orderID))

	return orderID, nil
}
