package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

var defaultTonAPI = map[string]string{
	NetworkMainnet: "https://tonapi.io/v2",
	NetworkTestnet: "https://testnet.tonapi.io/v2",
}

type Config struct {
	// Network
	Network string

	// TonAPI
	TonAPIKey     string
	TonAPIBaseURL string
	TonAPIRPS     float64

	// Operator wallet
	WalletMnemonic string
	WalletVersion  string

	// Contract
	StakingAddress string

	// Confirmation
	ConfirmTimeout time.Duration
	PollInterval   time.Duration

	// Database
	DBPath string

	// Telegram
	BotToken     string
	ReportChatID int64

	LogLevel slog.Level
}

// Load reads the configuration from the environment, applying defaults.
func Load() *Config {
	cfg := &Config{
		Network: strings.ToLower(getEnv("TON_NETWORK", NetworkMainnet)),

		// TonAPI
		TonAPIKey: getEnv("TONAPI_API_KEY", ""),
		TonAPIRPS: getEnvFloat("TONAPI_RPS", 4),

		// Operator wallet
		WalletMnemonic: getEnv("WALLET_MNEMONIC", ""),
		WalletVersion:  strings.ToLower(getEnv("WALLET_VERSION", "v4r2")),

		StakingAddress: getEnv("STAKING_ADDRESS", ""),

		// Confirmation
		ConfirmTimeout: getEnvDuration("CONFIRM_TIMEOUT", 30*time.Second),
		PollInterval:   getEnvDuration("POLL_INTERVAL", time.Second),

		DBPath: os.Getenv("DB_PATH"),

		// Telegram
		BotToken:     getEnv("BOT_TOKEN", ""),
		ReportChatID: getEnvInt64("REPORT_CHAT_ID", 0),
	}
	if _, ok := os.LookupEnv("DB_PATH"); !ok {
		cfg.DBPath = "./console.db"
	}
	cfg.TonAPIBaseURL = strings.TrimSuffix(getEnv("TONAPI_BASE_URL", defaultTonAPI[cfg.Network]), "/")

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		cfg.LogLevel = slog.LevelInfo
	}

	return cfg
}

// UseTestnet switches the network and, unless overridden, the TonAPI URL.
func (c *Config) UseTestnet() {
	if c.TonAPIBaseURL == "" || c.TonAPIBaseURL == defaultTonAPI[c.Network] {
		c.TonAPIBaseURL = defaultTonAPI[NetworkTestnet]
	}
	c.Network = NetworkTestnet
}

// Testnet reports whether the testnet is selected.
func (c *Config) Testnet() bool {
	return c.Network == NetworkTestnet
}

// TelegramEnabled reports whether outcome delivery is configured.
func (c *Config) TelegramEnabled() bool {
	return c.BotToken != "" && c.ReportChatID != 0
}

// Validate checks the loaded values before anything is started.
func (c *Config) Validate() error {
	if _, ok := defaultTonAPI[c.Network]; !ok {
		return fmt.Errorf("unknown network %q", c.Network)
	}
	if c.TonAPIBaseURL == "" {
		return fmt.Errorf("empty TonAPI base URL")
	}
	if c.WalletVersion != "v3r2" && c.WalletVersion != "v4r2" {
		return fmt.Errorf("unsupported wallet version %q", c.WalletVersion)
	}
	if c.ConfirmTimeout <= 0 {
		return fmt.Errorf("confirm timeout must be positive, got %s", c.ConfirmTimeout)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.PollInterval > c.ConfirmTimeout {
		return fmt.Errorf("poll interval %s exceeds confirm timeout %s", c.PollInterval, c.ConfirmTimeout)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
