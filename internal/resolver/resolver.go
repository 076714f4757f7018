package resolver

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"shorttrack/internal/client/openfigi"
	"shorttrack/internal/models"
)

// MappingStore is the slice of the repository the resolver needs.
type MappingStore interface {
	ListInstrumentMappingsByISINs(ctx context.Context, isins []string) ([]models.InstrumentMapping, error)
	UpsertInstrumentMappings(ctx context.Context, items []models.InstrumentMapping) error
}

// Lookup maps one batch of ISINs via the external identifier service.
type Lookup interface {
	MapISINs(ctx context.Context, isins []string) ([]openfigi.MappingResult, error)
}

// Resolver resolves ISINs to tickers, reading previously resolved mappings
// from the store and querying the lookup service only for misses. New
// mappings are persisted so subsequent runs skip re-resolution.
type Resolver struct {
	Store  MappingStore
	Lookup Lookup
	Logger *zap.Logger

	// MaxJobSize is the number of identifiers per lookup batch; Pause is the
	// wait between batches, sized to the service's unkeyed rate limit.
	MaxJobSize int
	Pause      time.Duration
}

// Result is the outcome of one resolution pass.
type Result struct {
	Resolved   map[string]string
	Unresolved []string
	NewlyAdded int
}

// Resolve maps the given ISINs to tickers. A lookup failure for one batch is
// logged and its identifiers reported unresolved; only store errors abort.
func (r *Resolver) Resolve(ctx context.Context, isins []string) (Result, error) {
	result := Result{Resolved: make(map[string]string, len(isins))}

	unique := dedupe(isins)
	if len(unique) == 0 {
		return result, nil
	}

	cached, err := r.Store.ListInstrumentMappingsByISINs(ctx, unique)
	if err != nil {
		return result, err
	}
	for _, m := range cached {
		result.Resolved[m.ISIN] = m.Ticker
	}

	var missing []string
	for _, isin := range unique {
		if _, ok := result.Resolved[isin]; !ok {
			missing = append(missing, isin)
		}
	}
	if len(missing) == 0 {
		return result, nil
	}

	jobSize := r.MaxJobSize
	if jobSize <= 0 {
		jobSize = 10
	}

	now := time.Now().UTC()
	var newMappings []models.InstrumentMapping
	for i := 0; i < len(missing); i += jobSize {
		if i > 0 && r.Pause > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(r.Pause):
			}
		}

		batch := missing[i:min(i+jobSize, len(missing))]
		mapped, err := r.Lookup.MapISINs(ctx, batch)
		if err != nil {
			r.Logger.Warn("identifier lookup batch failed",
				zap.Int("size", len(batch)),
				zap.Error(err))
			result.Unresolved = append(result.Unresolved, batch...)
			continue
		}

		for _, m := range mapped {
			if m.Err != "" || len(m.Tickers) == 0 {
				r.Logger.Warn("identifier unresolved",
					zap.String("isin", m.ISIN),
					zap.String("error", m.Err))
				result.Unresolved = append(result.Unresolved, m.ISIN)
				continue
			}
			if len(m.Tickers) > 1 {
				r.Logger.Warn("ambiguous tickers for identifier, picking the first",
					zap.String("isin", m.ISIN),
					zap.Strings("tickers", m.Tickers))
			}
			result.Resolved[m.ISIN] = m.Tickers[0]
			newMappings = append(newMappings, models.InstrumentMapping{
				ISIN:       m.ISIN,
				Ticker:     m.Tickers[0],
				ResolvedAt: now,
			})
		}
	}

	if err := r.Store.UpsertInstrumentMappings(ctx, newMappings); err != nil {
		return result, err
	}
	result.NewlyAdded = len(newMappings)
	sort.Strings(result.Unresolved)
	return result, nil
}

func dedupe(isins []string) []string {
	seen := make(map[string]bool, len(isins))
	out := make([]string, 0, len(isins))
	for _, isin := range isins {
		isin = strings.TrimSpace(isin)
		if isin == "" || seen[isin] {
			continue
		}
		seen[isin] = true
		out = append(out, isin)
	}
	sort.Strings(out)
	return out
}
