package openfigi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client maps security identifiers to tickers via the OpenFIGI mapping API.
// One MapISINs call is one mapping job; batching and pacing against the API
// rate limit are the caller's concern.
type Client struct {
	host       string
	apiKey     string
	exchCode   string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Body)
}

// ErrRateLimited is returned on HTTP 429 so callers can pace themselves.
var ErrRateLimited = fmt.Errorf("openfigi: rate limited")

func NewClient(httpClient *http.Client, host, apiKey, exchCode string) *Client {
	if host == "" {
		host = "https://api.openfigi.com"
	}
	host = strings.TrimRight(host, "/")
	return &Client{
		host:       host,
		apiKey:     apiKey,
		exchCode:   exchCode,
		httpClient: httpClient,
	}
}

type mappingJob struct {
	IDType   string `json:"idType"`
	IDValue  string `json:"idValue"`
	ExchCode string `json:"exchCode,omitempty"`
}

type mappingResponse struct {
	Data  []mappingEntry `json:"data,omitempty"`
	Error string         `json:"error,omitempty"`
}

type mappingEntry struct {
	FIGI   string `json:"figi"`
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// MappingResult pairs a queried ISIN with the tickers the API returned, or
// the per-identifier error string when it could not be mapped.
type MappingResult struct {
	ISIN    string
	Tickers []string
	Err     string
}

// MapISINs submits a single mapping job for the given ISINs. Results come
// back in query order, one per identifier.
func (c *Client) MapISINs(ctx context.Context, isins []string) ([]MappingResult, error) {
	if len(isins) == 0 {
		return nil, nil
	}

	jobs := make([]mappingJob, 0, len(isins))
	for _, isin := range isins {
		jobs = append(jobs, mappingJob{IDType: "ID_ISIN", IDValue: isin, ExchCode: c.exchCode})
	}
	payload, err := json.Marshal(jobs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mapping job: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/v3/mapping", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-OPENFIGI-APIKEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var entries []mappingResponse
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode mapping response: %w", err)
	}
	if len(entries) != len(isins) {
		return nil, fmt.Errorf("mapping response has %d entries for %d identifiers", len(entries), len(isins))
	}

	results := make([]MappingResult, 0, len(isins))
	for i, entry := range entries {
		result := MappingResult{ISIN: isins[i], Err: entry.Error}
		seen := make(map[string]bool, len(entry.Data))
		for _, d := range entry.Data {
			if d.Ticker == "" || seen[d.Ticker] {
				continue
			}
			seen[d.Ticker] = true
			result.Tickers = append(result.Tickers, d.Ticker)
		}
		if len(result.Tickers) == 0 && result.Err == "" {
			result.Err = "no ticker in mapping data"
		}
		results = append(results, result)
	}
	return results, nil
}
