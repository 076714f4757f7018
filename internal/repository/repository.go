package repository

import (
	"context"

	"gorm.io/gorm"

	"shorttrack/internal/models"
)

// Repository is the persistence surface for the pipeline. Both tables are
// last-known-value caches keyed by their natural key, so every write is an
// idempotent upsert.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	UpsertDisclosuresTx(ctx context.Context, tx *gorm.DB, items []models.Disclosure) error
	ListDisclosures(ctx context.Context) ([]models.Disclosure, error)

	UpsertInstrumentMappings(ctx context.Context, items []models.InstrumentMapping) error
	ListInstrumentMappings(ctx context.Context) ([]models.InstrumentMapping, error)
	ListInstrumentMappingsByISINs(ctx context.Context, isins []string) ([]models.InstrumentMapping, error)

	UpsertMarketSnapshot(ctx context.Context, item *models.MarketSnapshot) error
	ListMarketSnapshots(ctx context.Context) ([]models.MarketSnapshot, error)

	ListAggregateStates(ctx context.Context) ([]models.AggregateState, error)
	UpsertAggregateStates(ctx context.Context, items []models.AggregateState) error
}
