package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Client fetches latest quotes (price, volume, shares outstanding) from the
// Yahoo Finance quote endpoint.
type Client struct {
	host       string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host string) *Client {
	if host == "" {
		host = "https://query1.finance.yahoo.com"
	}
	host = strings.TrimRight(host, "/")
	return &Client{
		host:       host,
		httpClient: httpClient,
	}
}

type Quote struct {
	Symbol            string
	Price             decimal.Decimal
	Volume            int64
	SharesOutstanding int64
	MarketTime        time.Time
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []quoteResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

type quoteResult struct {
	Symbol            string           `json:"symbol"`
	RegularMarketTime  int64            `json:"regularMarketTime"`
	Price             *decimal.Decimal `json:"regularMarketPrice"`
	Volume            *int64           `json:"regularMarketVolume"`
	SharesOutstanding *int64           `json:"sharesOutstanding"`
}

// GetQuote fetches the latest quote for one symbol. A symbol unknown to the
// API or missing shares outstanding yields an error; callers skip the ticker.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	query := url.Values{}
	query.Set("symbols", symbol)
	query.Set("fields", "regularMarketPrice,regularMarketVolume,sharesOutstanding,regularMarketTime")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/v7/finance/quote?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; shorttrack)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	return parseQuote(body, symbol)
}

func parseQuote(body []byte, symbol string) (*Quote, error) {
	var decoded quoteResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode quote response: %w", err)
	}
	if decoded.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("quote error for %s: %s", symbol, decoded.QuoteResponse.Error.Description)
	}
	if len(decoded.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("no quote data for symbol %s", symbol)
	}

	result := decoded.QuoteResponse.Result[0]
	if result.Price == nil {
		return nil, fmt.Errorf("no price for symbol %s", symbol)
	}
	if result.SharesOutstanding == nil {
		return nil, fmt.Errorf("no shares outstanding for symbol %s", symbol)
	}

	quote := &Quote{
		Symbol:            result.Symbol,
		Price:             *result.Price,
		SharesOutstanding: *result.SharesOutstanding,
	}
	if result.Volume != nil {
		quote.Volume = *result.Volume
	}
	if result.RegularMarketTime > 0 {
		quote.MarketTime = time.Unix(result.RegularMarketTime, 0).UTC()
	}
	return quote, nil
}
