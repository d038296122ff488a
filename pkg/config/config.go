package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// App holds application configuration.
type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	DataDir string `mapstructure:"data_dir"`
}

// Logger holds logger configuration.
type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// Dart holds DART open-API configuration.
type Dart struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// Slack holds Slack incoming-webhook configuration.
type Slack struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

// Telegram holds the optional Telegram notification channel.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Gemini holds Gemini API configuration and free-tier quota settings.
type Gemini struct {
	APIKey              string  `mapstructure:"api_key"`
	Model               string  `mapstructure:"model"`
	DailyRequestLimit   int     `mapstructure:"daily_request_limit"`
	WarningThreshold    float64 `mapstructure:"warning_threshold"`
	MaxRequestPerMinute int     `mapstructure:"max_request_per_minute"`
}

// Alert holds signal thresholds.
type Alert struct {
	// Minimum net-buy amount in hundred-million KRW before a flow signal fires.
	MinNetBuyAmount int64 `mapstructure:"min_net_buy_amount"`
	// Minimum consecutive buying days for the streak report.
	ConsecutiveDays int `mapstructure:"consecutive_days"`
	// Minimum stake change (%) for major-shareholder filings.
	MinStakeChange float64 `mapstructure:"min_stake_change"`
	// Stale dedup entries older than this many days are purged.
	DedupWindowDays int `mapstructure:"dedup_window_days"`
}

// Config is the root configuration.
type Config struct {
	App       App      `mapstructure:"app"`
	Logger    Logger   `mapstructure:"logger"`
	Dart      Dart     `mapstructure:"dart"`
	Slack     Slack    `mapstructure:"slack"`
	Telegram  Telegram `mapstructure:"telegram"`
	Gemini    Gemini   `mapstructure:"gemini"`
	Alert     Alert    `mapstructure:"alert"`
	Watchlist []string `mapstructure:"watchlist"`
}

// Load loads configuration from a file, falling back to environment variables.
func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("Failed to read config file, trying environment variables only")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("app.name", "stock-tracker")
	viper.SetDefault("app.data_dir", "data")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.encoding", "console")
	viper.SetDefault("dart.base_url", "https://opendart.fss.or.kr/api")
	viper.SetDefault("gemini.model", "gemini-2.0-flash")
	viper.SetDefault("gemini.daily_request_limit", 1500)
	viper.SetDefault("gemini.warning_threshold", 0.8)
	viper.SetDefault("gemini.max_request_per_minute", 10)
	viper.SetDefault("alert.min_net_buy_amount", 100)
	viper.SetDefault("alert.consecutive_days", 3)
	viper.SetDefault("alert.min_stake_change", 1.0)
	viper.SetDefault("alert.dedup_window_days", 7)
}
