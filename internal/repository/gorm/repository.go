package gormrepository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shorttrack/internal/models"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- disclosures -------------------------------------------------------------

func (s *Store) UpsertDisclosuresTx(ctx context.Context, tx *gorm.DB, items []models.Disclosure) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	if tx == nil {
		tx = s.db
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "isin"}, {Name: "holder"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"issuer",
			"position",
			"position_date",
			"raw",
			"updated_at",
		}),
	}).Create(items).Error
}

func (s *Store) ListDisclosures(ctx context.Context) ([]models.Disclosure, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Disclosure
	if err := s.db.WithContext(ctx).
		Model(&models.Disclosure{}).
		Order("isin asc, holder asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- instrument mappings -----------------------------------------------------

func (s *Store) UpsertInstrumentMappings(ctx context.Context, items []models.InstrumentMapping) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "isin"}},
		DoNothing: true,
	}).Create(items).Error
}

func (s *Store) ListInstrumentMappings(ctx context.Context) ([]models.InstrumentMapping, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.InstrumentMapping
	if err := s.db.WithContext(ctx).
		Model(&models.InstrumentMapping{}).
		Order("isin asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListInstrumentMappingsByISINs(ctx context.Context, isins []string) ([]models.InstrumentMapping, error) {
	if s == nil || s.db == nil || len(isins) == 0 {
		return nil, nil
	}
	cleaned := make([]string, 0, len(isins))
	for _, id := range isins {
		if v := strings.TrimSpace(id); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	if len(cleaned) == 0 {
		return nil, nil
	}
	var items []models.InstrumentMapping
	if err := s.db.WithContext(ctx).
		Model(&models.InstrumentMapping{}).
		Where("isin IN ?", cleaned).
		Order("isin asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- market snapshots ----------------------------------------------------------

func (s *Store) UpsertMarketSnapshot(ctx context.Context, item *models.MarketSnapshot) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Ticker) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ticker"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"price",
			"volume",
			"shares_outstanding",
			"snapshot_date",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) ListMarketSnapshots(ctx context.Context) ([]models.MarketSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.MarketSnapshot
	if err := s.db.WithContext(ctx).
		Model(&models.MarketSnapshot{}).
		Order("ticker asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- aggregate states ----------------------------------------------------------

func (s *Store) ListAggregateStates(ctx context.Context) ([]models.AggregateState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.AggregateState
	if err := s.db.WithContext(ctx).
		Model(&models.AggregateState{}).
		Order("ticker asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpsertAggregateStates(ctx context.Context, items []models.AggregateState) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ticker"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"aggregate",
			"as_of",
			"updated_at",
		}),
	}).Create(items).Error
}
