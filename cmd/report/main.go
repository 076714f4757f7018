package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"shorttrack/internal/config"
	"shorttrack/internal/db"
	"shorttrack/internal/logger"
	"shorttrack/internal/metrics"
	"shorttrack/internal/models"
	"shorttrack/internal/report"
	gormrepository "shorttrack/internal/repository/gorm"
)

func main() {
	cfgPath := os.Getenv("ST_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("ST_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.AutoMigrate(dbConn); err != nil {
		log.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	disclosures, err := store.ListDisclosures(ctx)
	if err != nil {
		log.Fatal("listing disclosures failed", zap.Error(err))
	}
	mappings, err := store.ListInstrumentMappings(ctx)
	if err != nil {
		log.Fatal("listing instrument mappings failed", zap.Error(err))
	}
	snapshots, err := store.ListMarketSnapshots(ctx)
	if err != nil {
		log.Fatal("listing market snapshots failed", zap.Error(err))
	}
	previous, err := store.ListAggregateStates(ctx)
	if err != nil {
		log.Fatal("listing aggregate states failed", zap.Error(err))
	}

	summary := metrics.Compute(
		metrics.Input{
			Disclosures: disclosures,
			Mappings:    mappings,
			Snapshots:   snapshots,
			Previous:    previous,
		},
		metrics.Options{
			TopN:           cfg.Tracker.TopN,
			MaxSnapshotAge: cfg.Tracker.MaxSnapshotAgeDays,
			AsOf:           reportDate(disclosures),
		},
	)
	log.Info("metrics computed",
		zap.Time("as_of", summary.AsOf),
		zap.Int("ranked", len(summary.Securities)),
		zap.Int("missing", len(summary.Missing)))

	doc, err := report.Render(summary, db.NowUTC())
	if err != nil {
		log.Fatal("report rendering failed", zap.Error(err))
	}
	if err := report.WriteFile(doc, cfg.Report.OutFile); err != nil {
		log.Fatal("report write failed", zap.Error(err))
	}

	// Persist this run's aggregates only after the report is safely out, so
	// a failed render does not consume the day-change baseline.
	if err := store.UpsertAggregateStates(ctx, summary.States); err != nil {
		log.Fatal("saving aggregate states failed", zap.Error(err))
	}

	log.Info("report written", zap.String("path", cfg.Report.OutFile))
}

// reportDate is the latest position date across the stored disclosures. An
// empty store falls back to today.
func reportDate(disclosures []models.Disclosure) time.Time {
	var latest time.Time
	for _, d := range disclosures {
		if d.PositionDate.After(latest) {
			latest = d.PositionDate
		}
	}
	if latest.IsZero() {
		return db.NowUTC().Truncate(24 * time.Hour)
	}
	return latest
}
