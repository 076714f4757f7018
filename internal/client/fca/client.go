package fca

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client downloads the daily short-positions workbook published by the FCA.
type Client struct {
	url        string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Body)
}

// NotUpdatedError reports that the published file is older than the caller
// expected, i.e. today's update has not landed yet.
type NotUpdatedError struct {
	LastModified time.Time
	Expected     time.Time
}

func (e *NotUpdatedError) Error() string {
	return fmt.Sprintf("disclosure file last modified %s, expected on or after %s",
		e.LastModified.Format(time.RFC3339), e.Expected.Format(time.RFC3339))
}

func NewClient(httpClient *http.Client, url string) *Client {
	return &Client{
		url:        url,
		httpClient: httpClient,
	}
}

// CurrentReport is the parsed "current" sheet of the daily workbook.
type CurrentReport struct {
	Rows       []Row
	ReportDate time.Time
	Skipped    int
}

// FetchCurrent downloads and parses the workbook. If updatedAfter is non-nil
// and the response's Last-Modified header predates it, a NotUpdatedError is
// returned so the caller can leave the store untouched.
func (c *Client) FetchCurrent(ctx context.Context, updatedAfter *time.Time) (CurrentReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return CurrentReport{}, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CurrentReport{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return CurrentReport{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return CurrentReport{}, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	if updatedAfter != nil {
		lastMod, err := http.ParseTime(resp.Header.Get("Last-Modified"))
		if err == nil && lastMod.Before(*updatedAfter) {
			return CurrentReport{}, &NotUpdatedError{LastModified: lastMod, Expected: *updatedAfter}
		}
	}

	return ParseWorkbook(bytes.NewReader(body))
}
