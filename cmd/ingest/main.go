package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"shorttrack/internal/client/fca"
	"shorttrack/internal/client/openfigi"
	"shorttrack/internal/client/yahoo"
	"shorttrack/internal/config"
	"shorttrack/internal/db"
	"shorttrack/internal/ingest"
	"shorttrack/internal/logger"
	"shorttrack/internal/metrics"
	gormrepository "shorttrack/internal/repository/gorm"
	"shorttrack/internal/resolver"
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
	fcaClient := fca.NewClient(&http.Client{Timeout: cfg.FCA.Timeout}, cfg.FCA.URL)
	figiClient := openfigi.NewClient(
		&http.Client{Timeout: cfg.OpenFIGI.Timeout},
		cfg.OpenFIGI.BaseURL,
		os.Getenv(cfg.OpenFIGI.APIKeyEnv),
		cfg.OpenFIGI.ExchCode,
	)
	quoteClient := yahoo.NewClient(&http.Client{Timeout: cfg.Quotes.Timeout}, cfg.Quotes.BaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	disclosureSvc := &ingest.DisclosureService{
		Repo:   store,
		Source: fcaClient,
		Logger: log,
	}
	disclosed, err := disclosureSvc.Run(ctx)
	if err != nil {
		log.Fatal("disclosure ingest failed", zap.Error(err))
	}

	disclosures, err := store.ListDisclosures(ctx)
	if err != nil {
		log.Fatal("listing disclosures failed", zap.Error(err))
	}
	isins := metrics.ShortlistISINs(disclosures, cfg.Tracker.TopN)
	log.Info("resolving identifiers", zap.Int("isins", len(isins)))

	pause := time.Duration(0)
	if cfg.OpenFIGI.MaxReqsPerMin > 0 {
		pause = time.Minute / time.Duration(cfg.OpenFIGI.MaxReqsPerMin)
	}
	res := &resolver.Resolver{
		Store:      store,
		Lookup:     figiClient,
		Logger:     log,
		MaxJobSize: cfg.OpenFIGI.MaxJobSize,
		Pause:      pause,
	}
	resolved, err := res.Resolve(ctx, isins)
	if err != nil {
		log.Fatal("identifier resolution failed", zap.Error(err))
	}
	if len(resolved.Unresolved) > 0 {
		log.Warn("identifiers left unresolved",
			zap.Int("count", len(resolved.Unresolved)),
			zap.Strings("isins", resolved.Unresolved))
	}

	tickers := make([]string, 0, len(resolved.Resolved)+1)
	tickers = append(tickers, cfg.Tracker.BenchmarkTicker)
	for _, ticker := range resolved.Resolved {
		tickers = append(tickers, ticker)
	}

	marketSvc := &ingest.MarketDataService{
		Repo:         store,
		Quotes:       quoteClient,
		Logger:       log,
		TickerSuffix: cfg.Quotes.TickerSuffix,
	}
	if _, err := marketSvc.Run(ctx, tickers, disclosed.ReportDate); err != nil {
		log.Fatal("market data refresh failed", zap.Error(err))
	}

	log.Info("ingest finished",
		zap.Time("report_date", disclosed.ReportDate),
		zap.Int("disclosures", disclosed.Rows),
		zap.Int("new_mappings", resolved.NewlyAdded))
}
