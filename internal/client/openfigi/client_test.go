package openfigi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMapISINs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/mapping" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var jobs []map[string]string
		if err := json.NewDecoder(r.Body).Decode(&jobs); err != nil {
			t.Fatalf("decode jobs: %v", err)
		}
		if len(jobs) != 2 {
			t.Fatalf("jobs = %d, want 2", len(jobs))
		}
		if jobs[0]["idType"] != "ID_ISIN" || jobs[0]["exchCode"] != "LN" {
			t.Fatalf("unexpected job: %v", jobs[0])
		}
		w.Write([]byte(`[
			{"data":[{"figi":"BBG000000001","ticker":"VOD","name":"VODAFONE"}]},
			{"error":"No identifier found."}
		]`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, "", "LN")
	results, err := client.MapISINs(context.Background(), []string{"GB00B0000001", "GB00B0000002"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].ISIN != "GB00B0000001" || len(results[0].Tickers) != 1 || results[0].Tickers[0] != "VOD" {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
	if results[1].Err == "" {
		t.Fatalf("expected per-identifier error, got %+v", results[1])
	}
}

func TestMapISINsRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many mapping jobs", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, "", "LN")
	_, err := client.MapISINs(context.Background(), []string{"GB00B0000001"})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}

func TestMapISINsAPIKeyHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-OPENFIGI-APIKEY"); got != "secret" {
			t.Fatalf("api key header = %q", got)
		}
		w.Write([]byte(`[{"data":[{"ticker":"VOD"}]}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, "secret", "LN")
	if _, err := client.MapISINs(context.Background(), []string{"GB00B0000001"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
