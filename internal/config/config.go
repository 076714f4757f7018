package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	FCA      FCAConfig      `mapstructure:"fca"`
	OpenFIGI OpenFIGIConfig `mapstructure:"openfigi"`
	Quotes   QuotesConfig   `mapstructure:"quotes"`
	Tracker  TrackerConfig  `mapstructure:"tracker"`
	Report   ReportConfig   `mapstructure:"report"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type FCAConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type OpenFIGIConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	APIKeyEnv     string        `mapstructure:"api_key_env"`
	ExchCode      string        `mapstructure:"exch_code"`
	MaxJobSize    int           `mapstructure:"max_job_size"`
	MaxReqsPerMin int           `mapstructure:"max_reqs_per_min"`
}

type QuotesConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	TickerSuffix string        `mapstructure:"ticker_suffix"`
}

type TrackerConfig struct {
	TopN               int    `mapstructure:"top_n"`
	BenchmarkTicker    string `mapstructure:"benchmark_ticker"`
	MaxSnapshotAgeDays int    `mapstructure:"max_snapshot_age_days"`
}

type ReportConfig struct {
	OutFile string `mapstructure:"out_file"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "data/shorttrack.sqlite")
	v.SetDefault("db.max_open_conns", 1)
	v.SetDefault("db.max_idle_conns", 1)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("fca.url", "https://www.fca.org.uk/publication/data/short-positions-daily-update.xlsx")
	v.SetDefault("fca.timeout", "60s")
	v.SetDefault("openfigi.base_url", "https://api.openfigi.com")
	v.SetDefault("openfigi.timeout", "15s")
	v.SetDefault("openfigi.api_key_env", "OPENFIGI_API_KEY")
	v.SetDefault("openfigi.exch_code", "LN")
	v.SetDefault("openfigi.max_job_size", 10)
	v.SetDefault("openfigi.max_reqs_per_min", 25)
	v.SetDefault("quotes.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("quotes.timeout", "15s")
	v.SetDefault("quotes.ticker_suffix", ".L")
	v.SetDefault("tracker.top_n", 20)
	v.SetDefault("tracker.benchmark_ticker", "VUKE")
	v.SetDefault("tracker.max_snapshot_age_days", 5)
	v.SetDefault("report.out_file", "data/report.json")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
