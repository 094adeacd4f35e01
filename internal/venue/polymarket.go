package venue

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/mselser95/crossvenue-arb/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// DefaultPolymarketPageSize is the Gamma /markets page size.
	DefaultPolymarketPageSize = 100

	polymarketOrderPath = "/order"
)

// PolymarketClient lists Gamma markets with offset pagination and places
// orders on the CLOB.
type PolymarketClient struct {
	cfg     Config
	fetcher *pageFetcher
	logger  *zap.Logger
	now     func() time.Time
}

// NewPolymarketClient creates a Polymarket client.
func NewPolymarketClient(cfg *Config) *PolymarketClient {
	c := cfg.withDefaults(DefaultPolymarketPageSize)
	return &PolymarketClient{
		cfg:     c,
		fetcher: newPageFetcher(types.PlatformPolymarket, &c),
		logger:  c.Logger,
		now:     time.Now,
	}
}

// Platform returns types.PlatformPolymarket.
func (c *PolymarketClient) Platform() types.Platform {
	return types.PlatformPolymarket
}

// gammaMarket is the subset of a Gamma /markets record we read.
type gammaMarket struct {
	ID              string          `json:"id"`
	ConditionID     string          `json:"conditionId"`
	Question        string          `json:"question"`
	Title           string          `json:"title"`
	Slug            string          `json:"slug"`
	Category        string          `json:"category"`
	EndDateIso      string          `json:"endDateIso"`
	EndDate         string          `json:"endDate"`
	OutcomePrices   json.RawMessage `json:"outcomePrices"`
	LastTradePrice  flexFloat       `json:"lastTradePrice"`
	Volume          flexFloat       `json:"volume"`
	Liquidity       flexFloat       `json:"liquidity"`
	Active          bool            `json:"active"`
	Closed          bool            `json:"closed"`
	EnableOrderBook bool            `json:"enableOrderBook"`

	prices []flexFloat
}

func (m *gammaMarket) outcome(i int) (float64, bool) {
	if i >= len(m.prices) {
		return 0, false
	}
	return numberPrice(&m.prices[i])
}

var (
	polymarketYesChain = []priceExtractor[gammaMarket]{
		func(m *gammaMarket) (float64, bool) { return m.outcome(0) },
		func(m *gammaMarket) (float64, bool) { return numberPrice(&m.LastTradePrice) },
	}
	polymarketNoChain = []priceExtractor[gammaMarket]{
		func(m *gammaMarket) (float64, bool) { return m.outcome(1) },
	}
)

// FetchMarkets pages through open Gamma markets ordered by volume until a
// short or empty page.
func (c *PolymarketClient) FetchMarkets(ctx context.Context) ([]types.Market, error) {
	start := time.Now()
	defer func() {
		FetchDurationSeconds.WithLabelValues(string(types.PlatformPolymarket)).Observe(time.Since(start).Seconds())
	}()

	pacer := c.fetcher.pacer()
	markets := make([]types.Market, 0)

	for page := 0; page < c.cfg.MaxPages; page++ {
		offset := page * c.cfg.PageSize

		body, err := c.fetcher.page(ctx, pacer, c.pageURL(offset))
		if err != nil {
			return nil, fmt.Errorf("fetch polymarket page at offset %d: %w", offset, err)
		}

		var records []json.RawMessage
		err = json.Unmarshal(body, &records)
		if err != nil {
			return nil, &types.VenueError{
				Venue:      types.PlatformPolymarket,
				StatusCode: 200,
				Body:       truncate(string(body), 256),
				Err:        fmt.Errorf("decode markets page: %w", err),
			}
		}

		for _, raw := range records {
			m, ok := c.normalize(raw)
			if ok {
				markets = append(markets, m)
			}
		}

		c.logger.Debug("fetched-page",
			zap.String("venue", string(types.PlatformPolymarket)),
			zap.Int("offset", offset),
			zap.Int("records", len(records)),
			zap.Int("total", len(markets)))

		if len(records) < c.cfg.PageSize {
			return markets, nil
		}
	}

	c.logger.Warn("max-pages-reached",
		zap.String("venue", string(types.PlatformPolymarket)),
		zap.Int("max-pages", c.cfg.MaxPages))

	return markets, nil
}

func (c *PolymarketClient) pageURL(offset int) string {
	params := url.Values{}
	params.Set("closed", "false")
	params.Set("active", "true")
	params.Set("limit", strconv.Itoa(c.cfg.PageSize))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("order", "volume")
	params.Set("ascending", "false")

	return fmt.Sprintf("%s/markets?%s", c.cfg.MarketsURL, params.Encode())
}

// normalize converts one Gamma record. Inactive, closed and book-less
// markets are skipped; undecodable ones are dropped as malformed.
func (c *PolymarketClient) normalize(raw json.RawMessage) (types.Market, bool) {
	var rec gammaMarket
	err := json.Unmarshal(raw, &rec)
	if err != nil {
		c.dropMalformed(&types.MalformedRecordError{Venue: types.PlatformPolymarket, Reason: err.Error()})
		return types.Market{}, false
	}

	if !rec.Active || rec.Closed || !rec.EnableOrderBook {
		RecordsSkippedTotal.WithLabelValues(string(types.PlatformPolymarket)).Inc()
		return types.Market{}, false
	}

	id := firstNonEmpty(rec.ConditionID, rec.ID)
	title := firstNonEmpty(rec.Question, rec.Title)
	if id == "" || title == "" {
		c.dropMalformed(&types.MalformedRecordError{
			Venue:    types.PlatformPolymarket,
			RecordID: id,
			Reason:   "missing id or title",
		})
		return types.Market{}, false
	}

	rec.prices = parseOutcomePrices(rec.OutcomePrices)
	yes, no := resolvePrices(&rec, polymarketYesChain, polymarketNoChain)

	MarketsNormalizedTotal.WithLabelValues(string(types.PlatformPolymarket)).Inc()

	return types.Market{
		ID:        id,
		Platform:  types.PlatformPolymarket,
		Title:     title,
		Slug:      rec.Slug,
		Category:  firstNonEmpty(rec.Category, "uncategorized"),
		EndDate:   firstNonEmpty(rec.EndDateIso, rec.EndDate),
		YesPrice:  yes,
		NoPrice:   no,
		Volume:    rec.Volume.Float(),
		Liquidity: rec.Liquidity.Float(),
		Active:    true,
		URL:       "https://polymarket.com/event/" + rec.Slug,
	}, true
}

func (c *PolymarketClient) dropMalformed(err *types.MalformedRecordError) {
	RecordsMalformedTotal.WithLabelValues(string(err.Venue)).Inc()
	c.logger.Debug("malformed-record-dropped", zap.Error(err))
}

// polymarketOrderRequest is the CLOB limit order body.
type polymarketOrderRequest struct {
	TokenID string `json:"tokenID"`
	Outcome string `json:"outcome"`
	Side    string `json:"side"`
	Price   string `json:"price"`
	Size    string `json:"size"`
	Type    string `json:"type"`
}

type polymarketOrderResponse struct {
	OrderID string `json:"orderID"`
	ID      string `json:"id"`
}

// PlaceOrder submits a GTC limit buy of the given outcome. Requests are
// signed with HMAC-SHA256 over timestamp, method, path and body.
func (c *PolymarketClient) PlaceOrder(ctx context.Context, creds types.Credentials, marketID string, side types.Side, price float64, amount int64) (string, error) {
	err := validateOrder(types.PlatformPolymarket, creds, marketID, side, price, amount)
	if err != nil {
		return "", err
	}

	outcome := "YES"
	if side == types.SideNo {
		outcome = "NO"
	}

	body, err := json.Marshal(polymarketOrderRequest{
		TokenID: marketID,
		Outcome: outcome,
		Side:    "BUY",
		Price:   decimal.NewFromFloat(price).Round(4).String(),
		Size:    strconv.FormatInt(amount, 10),
		Type:    "GTC",
	})
	if err != nil {
		return "", fmt.Errorf("marshal order: %w", err)
	}

	timestamp := strconv.FormatInt(c.now().Unix(), 10)
	signature := signPolymarket(creds.APISecret, timestamp, "POST", polymarketOrderPath, body)

	headers := map[string]string{
		"POLY_API_KEY":   creds.APIKey,
		"POLY_SIGNATURE": signature,
		"POLY_TIMESTAMP": timestamp,
	}

	respBody, err := postOrder(ctx, c.cfg.HTTPClient, types.PlatformPolymarket, marketID, side,
		c.cfg.OrdersURL+polymarketOrderPath, headers, body)
	if err != nil {
		return "", err
	}

	var resp polymarketOrderResponse
	err = json.Unmarshal(respBody, &resp)
	if err != nil {
		return "", &types.OrderError{
			Venue: types.PlatformPolymarket, MarketID: marketID, Side: side,
			Body: string(respBody), Err: fmt.Errorf("parse order response: %w", err),
		}
	}

	orderID := firstNonEmpty(resp.OrderID, resp.ID)
	if orderID == "" {
		return "", &types.OrderError{
			Venue: types.PlatformPolymarket, MarketID: marketID, Side: side,
			Body: string(respBody), Err: errMissingOrderID,
		}
	}

	c.logger.Info("order-placed",
		zap.String("venue", string(types.PlatformPolymarket)),
		zap.String("market-id", marketID),
		zap.String("side", string(side)),
		zap.Float64("price", price),
		zap.Int64("amount", amount),
		zap.String("order-id", orderID))

	return orderID, nil
}

// signPolymarket returns the URL-safe base64 HMAC of the request. The secret
// is URL-safe base64; a secret that does not decode is used as raw bytes.
func signPolymarket(secret, timestamp, method, path string, body []byte) string {
	key, err := base64.URLEncoding.DecodeString(secret)
	if err != nil {
		key = []byte(secret)
	}

	h := hmac.New(sha256.New, key)
	h.Write([]byte(timestamp + method + path))
	h.Write(body)

	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}
