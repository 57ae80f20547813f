package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDirENV      = "CONFIG_DIR"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
	binanceKeyENV     = "BINANCE_API_KEY"
	binanceSecretENV  = "BINANCE_API_SECRET"
	redisAddrENV      = "REDIS_ADDR"
)

// InstrumentConfig is one traded symbol. Spend falls back to Trading.AmountToSpend.
type InstrumentConfig struct {
	Symbol string  `yaml:"symbol" validate:"required"`
	Spend  float64 `yaml:"spend" validate:"gte=0"`
}

type StrategyConfig struct {
	// long, medium, short
	TrendTimeframes   []string `yaml:"trend_timeframes" default:"[\"1h\",\"30m\",\"5m\"]" validate:"len=3"`
	TrendQuorum       int      `yaml:"trend_quorum" default:"2" validate:"min=1,max=3"`
	SignalTimeframes  []string `yaml:"signal_timeframes" default:"[\"5m\",\"15m\"]" validate:"min=1"`
	DecisionTimeframe string   `yaml:"decision_timeframe" default:"15m" validate:"required"`

	CandleLimit int `yaml:"candle_limit" default:"250" validate:"min=1,max=1000,gtefield=MinLookback"`
	MinLookback int `yaml:"min_lookback" default:"250" validate:"min=1"`

	RSIPeriod    int     `yaml:"rsi_period" default:"14"`
	EMAFast      int     `yaml:"ema_fast" default:"50"`
	EMASlow      int     `yaml:"ema_slow" default:"200"`
	ATRPeriod    int     `yaml:"atr_period" default:"14"`
	ADXPeriod    int     `yaml:"adx_period" default:"14"`
	BBPeriod     int     `yaml:"bb_period" default:"20"`
	BBK          float64 `yaml:"bb_k" default:"2"`
	VolumePeriod int     `yaml:"volume_period" default:"20"`
	FibWindow    int     `yaml:"fib_window" default:"30"`
	MACDFast     int     `yaml:"macd_fast" default:"12"`
	MACDSlow     int     `yaml:"macd_slow" default:"26"`
	MACDSignal   int     `yaml:"macd_signal" default:"9"`

	RSIOverbought          float64 `yaml:"rsi_overbought" default:"70"`
	RSIOversold            float64 `yaml:"rsi_oversold" default:"30"`
	VolatilityFactor       float64 `yaml:"volatility_factor" default:"10"`
	OversoldMargin         float64 `yaml:"oversold_margin" default:"10"`
	VolumeMultiplier       float64 `yaml:"volume_multiplier" default:"1.2"`
	BuyADXFloor            float64 `yaml:"buy_adx_floor" default:"20"`
	SellADXFloor           float64 `yaml:"sell_adx_floor" default:"25"`
	FibSupportTolerance    float64 `yaml:"fib_support_tolerance" default:"0.02"`
	FibResistanceTolerance float64 `yaml:"fib_resistance_tolerance" default:"0.01"`
	BBTolerance            float64 `yaml:"bb_tolerance" default:"0.01"`
}

// Config ...
type Config struct {
	Service struct {
		Name       string `yaml:"name" default:"mtf_bot"`
		HealthAddr string `yaml:"health_addr" default:":8080"`
	} `yaml:"service"`

	Log struct {
		Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb" default:"50"`
		MaxBackups int    `yaml:"max_backups" default:"5"`
		MaxAgeDays int    `yaml:"max_age_days" default:"14"`
	} `yaml:"log"`

	Tracing struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port" default:"6831"`
	} `yaml:"tracing"`

	Binance struct {
		BaseURL       string        `yaml:"base_url" default:"https://api.binance.com" validate:"url"`
		StreamURL     string        `yaml:"stream_url" default:"wss://stream.binance.com:9443/stream" validate:"url"`
		APIKey        string        `yaml:"api_key"`
		APISecret     string        `yaml:"api_secret"`
		RecvWindow    time.Duration `yaml:"recv_window" default:"5s"`
		Timeout       time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
		FiltersTTL    time.Duration `yaml:"filters_ttl" default:"1h"`
		StreamEnabled bool          `yaml:"stream_enabled" default:"true"`
		PriceMaxAge   time.Duration `yaml:"price_max_age" default:"5s"`
	} `yaml:"binance"`

	Telegram struct {
		Token          string        `yaml:"token"`
		ChatIDs        []int64       `yaml:"chat_ids"`
		AllowedChatIDs []int64       `yaml:"allowed_chat_ids"`
		ErrorCooldown  time.Duration `yaml:"error_cooldown" default:"15m"`
	} `yaml:"telegram"`

	DB string `yaml:"db_dsn"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"mtf"`
	} `yaml:"redis"`

	Cache struct {
		Backend string `yaml:"backend" default:"memory" validate:"oneof=memory redis"`
	} `yaml:"cache"`

	Trading struct {
		Symbols         []InstrumentConfig `yaml:"symbols" validate:"dive"`
		Interval        time.Duration      `yaml:"interval" default:"30s" validate:"gt=0"`
		AmountToSpend   float64            `yaml:"amount_to_spend" default:"10" validate:"gt=0"`
		MinProfitPct    float64            `yaml:"min_profit_pct" default:"1"`
		StopLossPct     float64            `yaml:"stop_loss_pct" default:"2" validate:"gt=0,lt=100"`
		StopLimitPct    float64            `yaml:"stop_limit_pct" default:"1" validate:"gte=0,lt=100"`
		AdjustSpend     bool               `yaml:"adjust_spend"`
		MaxSpend        float64            `yaml:"max_spend" validate:"gte=0"`
		DecisionWindow  time.Duration      `yaml:"decision_window" default:"6h"`
		DecisionHistory int                `yaml:"decision_history" default:"20" validate:"min=1"`
		WarmupParallel  int                `yaml:"warmup_parallel" default:"8" validate:"min=1"`
	} `yaml:"trading"`

	Strategy StrategyConfig `yaml:"strategy"`
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	configFileName := getenvDefault(configFilePathENV, "values_local.yaml")
	dir := getenvDefault(configDirENV, "configs")

	raw, err := os.ReadFile(dir + "/" + configFileName)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "read config file")
	}

	return Parse(raw)
}

// Parse applies defaults, the yaml document, env overrides and validation in that order.
func Parse(raw []byte) (*Config, error) {
	var config Config
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "apply defaults")
	}
	if len(raw) > 0 {
		if err := yaml.Unmarshal(raw, &config); err != nil {
			return nil, errors.Wrap(err, "decode config file")
		}
	}

	applyEnv(&config)

	if err := validator.New().Struct(&config); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return &config, nil
}

func applyEnv(config *Config) {
	if v := os.Getenv(tokenTelegramENV); v != "" {
		config.Telegram.Token = v
	}
	if v := os.Getenv(databaseDSN); v != "" {
		config.DB = v
	}
	if v := os.Getenv(binanceKeyENV); v != "" {
		config.Binance.APIKey = v
	}
	if v := os.Getenv(binanceSecretENV); v != "" {
		config.Binance.APISecret = v
	}
	if v := os.Getenv(redisAddrENV); v != "" {
		config.Redis.Addr = v
		config.Cache.Backend = "redis"
	}
	if v := os.Getenv("CHANNEL"); v != "" {
		config.Telegram.ChatIDs = append(config.Telegram.ChatIDs, int64sFromList(v)...)
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		config.Trading.Symbols = config.Trading.Symbols[:0]
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				config.Trading.Symbols = append(config.Trading.Symbols, InstrumentConfig{Symbol: s})
			}
		}
	}

	config.Trading.AmountToSpend = floatFromEnv("AMOUNT_TO_SPEND", config.Trading.AmountToSpend)
	config.Trading.MinProfitPct = floatFromEnv("MIN_PROFIT_PCT", config.Trading.MinProfitPct)
	config.Trading.Interval = durationFromEnv("POLL_INTERVAL", config.Trading.Interval)
	config.Trading.AdjustSpend = boolFromEnv("ADJUST_SPEND", config.Trading.AdjustSpend)
	config.Strategy.TrendQuorum = intFromEnv("TREND_QUORUM", config.Strategy.TrendQuorum)
	config.Binance.StreamEnabled = boolFromEnv("BINANCE_STREAM", config.Binance.StreamEnabled)
	config.Log.Level = getenvDefault("LOG_LEVEL", config.Log.Level)
}

// SpendFor returns the configured spend of a symbol, or the default amount.
func (c *Config) SpendFor(symbol string) float64 {
	for _, s := range c.Trading.Symbols {
		if strings.EqualFold(s.Symbol, symbol) && s.Spend > 0 {
			return s.Spend
		}
	}
	return c.Trading.AmountToSpend
}

func int64sFromList(v string) []int64 {
	var out []int64
	for _, part := range strings.Split(v, ",") {
		if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func boolFromEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if v == "1" || v == "true" || v == "TRUE" {
			return true
		}
		if v == "0" || v == "false" || v == "FALSE" {
			return false
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
