package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shorttrack/internal/client/fca"
	"shorttrack/internal/client/yahoo"
	"shorttrack/internal/models"
)

type fakeRepo struct {
	disclosures []models.Disclosure
	snapshots   map[string]models.MarketSnapshot
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{snapshots: make(map[string]models.MarketSnapshot)}
}

func (f *fakeRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (f *fakeRepo) UpsertDisclosuresTx(ctx context.Context, tx *gorm.DB, items []models.Disclosure) error {
	f.disclosures = append(f.disclosures, items...)
	return nil
}

func (f *fakeRepo) ListDisclosures(ctx context.Context) ([]models.Disclosure, error) {
	return f.disclosures, nil
}

func (f *fakeRepo) UpsertInstrumentMappings(ctx context.Context, items []models.InstrumentMapping) error {
	return nil
}

func (f *fakeRepo) ListInstrumentMappings(ctx context.Context) ([]models.InstrumentMapping, error) {
	return nil, nil
}

func (f *fakeRepo) ListInstrumentMappingsByISINs(ctx context.Context, isins []string) ([]models.InstrumentMapping, error) {
	return nil, nil
}

func (f *fakeRepo) UpsertMarketSnapshot(ctx context.Context, item *models.MarketSnapshot) error {
	f.snapshots[item.Ticker] = *item
	return nil
}

func (f *fakeRepo) ListMarketSnapshots(ctx context.Context) ([]models.MarketSnapshot, error) {
	return nil, nil
}

func (f *fakeRepo) ListAggregateStates(ctx context.Context) ([]models.AggregateState, error) {
	return nil, nil
}

func (f *fakeRepo) UpsertAggregateStates(ctx context.Context, items []models.AggregateState) error {
	return nil
}

type fakeSource struct {
	report fca.CurrentReport
	err    error
}

func (f *fakeSource) FetchCurrent(ctx context.Context, updatedAfter *time.Time) (fca.CurrentReport, error) {
	return f.report, f.err
}

func TestDisclosureServiceStampsReportDate(t *testing.T) {
	reportDate := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	filedDate := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	svc := &DisclosureService{
		Repo:   repo,
		Logger: zap.NewNop(),
		Source: &fakeSource{report: fca.CurrentReport{
			ReportDate: reportDate,
			Rows: []fca.Row{
				{
					Holder:       "Fund One LLP",
					Issuer:       "Alpha Plc",
					ISIN:         "GB00B0000001",
					Position:     decimal.RequireFromString("1.21"),
					PositionDate: filedDate,
				},
			},
		}},
	}

	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Rows != 1 {
		t.Fatalf("rows = %d, want 1", result.Rows)
	}
	if len(repo.disclosures) != 1 {
		t.Fatalf("stored = %d, want 1", len(repo.disclosures))
	}
	// The store tracks as-of state; the filing date is kept only in raw.
	if !repo.disclosures[0].PositionDate.Equal(reportDate) {
		t.Fatalf("position date = %s, want report date %s",
			repo.disclosures[0].PositionDate, reportDate)
	}
}

type quoteFunc func(ctx context.Context, symbol string) (*yahoo.Quote, error)

func (f quoteFunc) GetQuote(ctx context.Context, symbol string) (*yahoo.Quote, error) {
	return f(ctx, symbol)
}

func TestMarketDataServiceSkipsFailedTickers(t *testing.T) {
	repo := newFakeRepo()
	svc := &MarketDataService{
		Repo:         repo,
		Logger:       zap.NewNop(),
		TickerSuffix: ".L",
		Quotes: quoteFunc(func(ctx context.Context, symbol string) (*yahoo.Quote, error) {
			if symbol == "BAD.L" {
				return nil, context.DeadlineExceeded
			}
			return &yahoo.Quote{
				Symbol:            symbol,
				Price:             decimal.RequireFromString("2.50"),
				Volume:            1000,
				SharesOutstanding: 50000,
			}, nil
		}),
	}

	result, err := svc.Run(context.Background(),
		[]string{"GOOD", "BAD", "GOOD"},
		time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Fetched != 1 || result.Skipped != 1 {
		t.Fatalf("fetched = %d skipped = %d, want 1/1", result.Fetched, result.Skipped)
	}
	if _, ok := repo.snapshots["GOOD"]; !ok {
		t.Fatalf("snapshot for GOOD missing")
	}
	if _, ok := repo.snapshots["BAD"]; ok {
		t.Fatalf("snapshot for BAD should not exist")
	}
}
