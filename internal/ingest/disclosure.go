package ingest

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"shorttrack/internal/client/fca"
	"shorttrack/internal/models"
	"shorttrack/internal/repository"
)

// DisclosureSource pulls the current published disclosures.
type DisclosureSource interface {
	FetchCurrent(ctx context.Context, updatedAfter *time.Time) (fca.CurrentReport, error)
}

// DisclosureService ingests the daily short-position disclosures: fetch,
// normalize, upsert keyed by (isin, holder). Each run replaces the current
// value per key with the freshest observed one; keys absent from the latest
// pull keep their last known value.
type DisclosureService struct {
	Repo   repository.Repository
	Source DisclosureSource
	Logger *zap.Logger

	// UpdatedAfter, when non-nil, makes a pull of a file older than this
	// time fail with fca.NotUpdatedError instead of re-ingesting stale data.
	UpdatedAfter *time.Time
}

type DisclosureResult struct {
	ReportDate time.Time
	Rows       int
	Duplicates int
	Skipped    int
}

func (s *DisclosureService) Run(ctx context.Context) (DisclosureResult, error) {
	report, err := s.Source.FetchCurrent(ctx, s.UpdatedAfter)
	if err != nil {
		return DisclosureResult{}, err
	}
	if report.Skipped > 0 {
		s.Logger.Warn("skipped malformed disclosure rows", zap.Int("count", report.Skipped))
	}

	rows, duplicates := dedupeRows(report.Rows)
	if duplicates > 0 {
		s.Logger.Warn("duplicate disclosures per (isin, holder), keeping the max position",
			zap.Int("count", duplicates))
	}

	items := make([]models.Disclosure, 0, len(rows))
	now := time.Now().UTC()
	for _, row := range rows {
		raw, err := json.Marshal(map[string]any{
			"position_holder":        row.Holder,
			"name_of_share_issuer":   row.Issuer,
			"isin":                   row.ISIN,
			"net_short_position_pct": row.Position,
			"position_date":          row.PositionDate.Format("2006-01-02"),
		})
		if err != nil {
			return DisclosureResult{}, err
		}
		items = append(items, models.Disclosure{
			ISIN:     row.ISIN,
			Holder:   row.Holder,
			Issuer:   row.Issuer,
			Position: row.Position,
			// Stamped with the workbook's reporting date, not the filing
			// date: the store tracks as-of state. The filing date survives
			// in the raw payload.
			PositionDate: report.ReportDate,
			Raw:          datatypes.JSON(raw),
			UpdatedAt:    now,
		})
	}

	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		return s.Repo.UpsertDisclosuresTx(ctx, tx, items)
	})
	if err != nil {
		return DisclosureResult{}, err
	}

	s.Logger.Info("disclosures ingested",
		zap.Time("report_date", report.ReportDate),
		zap.Int("rows", len(items)))
	return DisclosureResult{
		ReportDate: report.ReportDate,
		Rows:       len(items),
		Duplicates: duplicates,
		Skipped:    report.Skipped,
	}, nil
}
