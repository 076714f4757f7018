package ingest

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"shorttrack/internal/client/yahoo"
	"shorttrack/internal/models"
	"shorttrack/internal/repository"
)

// QuoteClient fetches the latest quote for one exchange symbol.
type QuoteClient interface {
	GetQuote(ctx context.Context, symbol string) (*yahoo.Quote, error)
}

// MarketDataService refreshes one MarketSnapshot per resolvable ticker. A
// ticker that fails to fetch (delisted, rate-limited) is logged and skipped;
// it is simply absent from that day's metrics.
type MarketDataService struct {
	Repo   repository.Repository
	Quotes QuoteClient
	Logger *zap.Logger

	// TickerSuffix converts an exchange ticker to the quote API's symbol,
	// e.g. "VOD" -> "VOD.L". All tracked securities trade in London.
	TickerSuffix string
}

type MarketDataResult struct {
	Fetched int
	Skipped int
}

func (s *MarketDataService) Run(ctx context.Context, tickers []string, snapshotDate time.Time) (MarketDataResult, error) {
	result := MarketDataResult{}
	now := time.Now().UTC()

	for _, ticker := range dedupeTickers(tickers) {
		quote, err := s.Quotes.GetQuote(ctx, s.querySymbol(ticker))
		if err != nil {
			s.Logger.Warn("quote fetch failed, skipping ticker",
				zap.String("ticker", ticker),
				zap.Error(err))
			result.Skipped++
			continue
		}

		snapshot := &models.MarketSnapshot{
			Ticker:            ticker,
			Price:             quote.Price,
			Volume:            quote.Volume,
			SharesOutstanding: quote.SharesOutstanding,
			SnapshotDate:      snapshotDate,
			UpdatedAt:         now,
		}
		if err := s.Repo.UpsertMarketSnapshot(ctx, snapshot); err != nil {
			return result, err
		}
		result.Fetched++
	}

	s.Logger.Info("market snapshots refreshed",
		zap.Int("fetched", result.Fetched),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

func (s *MarketDataService) querySymbol(ticker string) string {
	return strings.TrimRight(strings.TrimSpace(ticker), "/") + s.TickerSuffix
}

func dedupeTickers(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
