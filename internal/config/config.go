package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "TRUTHPOST_CONFIG"
	httpAddrEnv       = "HTTP_ADDR"
	databaseDSNEnv    = "DATABASE_DSN"
	textServiceEnv    = "TEXT_SERVICE_URL"
	imageServiceEnv   = "IMAGE_SERVICE_URL"
	videoServiceEnv   = "VIDEO_SERVICE_URL"
	redisAddrEnv      = "REDIS_ADDR"
	kafkaBrokersEnv   = "KAFKA_BROKERS"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	logLevelEnv       = "LOG_LEVEL"

	defaultServiceTimeout = 30 * time.Second
)

// Config holds high-level settings required across the application.
type Config struct {
	Server        ServerConfig       `yaml:"server"`
	Database      DatabaseConfig     `yaml:"database"`
	Analysis      AnalysisConfig     `yaml:"analysis"`
	Verdict       VerdictConfig      `yaml:"verdict"`
	Cache         CacheConfig        `yaml:"cache"`
	Events        EventsConfig       `yaml:"events"`
	Notifications NotificationConfig `yaml:"notifications"`
	Digest        DigestConfig       `yaml:"digest"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// ServerConfig describes the HTTP listener and upload storage.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	UploadDir      string `yaml:"uploadDir"`
	MaxUploadBytes int64  `yaml:"maxUploadBytes"`
}

// DatabaseConfig selects the article store. Driver is "postgres" or "memory".
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// AnalysisConfig enumerates the external scoring services per modality.
type AnalysisConfig struct {
	Text  ServiceConfig `yaml:"text"`
	Image ServiceConfig `yaml:"image"`
	Video ServiceConfig `yaml:"video"`
}

// ServiceConfig locates one analysis backend. Timeout bounds each attempt;
// Retries is the number of extra attempts and stays 0 unless set explicitly.
// Backoff is the pause between attempts.
type ServiceConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
	Retries  int           `yaml:"retries"`
	Backoff  time.Duration `yaml:"backoff"`
}

// VerdictConfig tunes the verdict rules.
type VerdictConfig struct {
	ApproveTextOnly *bool `yaml:"approveTextOnly"`
}

// TextOnlyApproval resolves the flag, defaulting to true.
func (v VerdictConfig) TextOnlyApproval() bool {
	if v.ApproveTextOnly == nil {
		return true
	}
	return *v.ApproveTextOnly
}

// CacheConfig configures the Redis text-result cache.
type CacheConfig struct {
	RedisAddr string        `yaml:"redisAddr"`
	TTL       time.Duration `yaml:"ttl"`
}

// EventsConfig configures verdict event publishing to Kafka.
type EventsConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// DigestConfig defines how often the pending-review digest goes out.
type DigestConfig struct {
	Interval time.Duration `yaml:"interval"`
	MaxItems int           `yaml:"maxItems"`
}

// LoggingConfig selects slog level and output format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads .env and YAML configuration (if present) and applies environment overrides.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: cannot read .env: %v", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if fileCfg, err := Parse(raw); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(httpAddrEnv); v != "" {
		c.Server.Addr = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
		c.Database.Driver = "postgres"
	}

	if v := os.Getenv(textServiceEnv); v != "" {
		c.Analysis.Text.Endpoint = v
	}
	if v := os.Getenv(imageServiceEnv); v != "" {
		c.Analysis.Image.Endpoint = v
	}
	if v := os.Getenv(videoServiceEnv); v != "" {
		c.Analysis.Video.Endpoint = v
	}

	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Cache.RedisAddr = v
	}

	if v := os.Getenv(kafkaBrokersEnv); v != "" {
		c.Events.Brokers = splitList(v)
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.UploadDir != "" {
		base.Server.UploadDir = override.Server.UploadDir
	}
	if override.Server.MaxUploadBytes > 0 {
		base.Server.MaxUploadBytes = override.Server.MaxUploadBytes
	}

	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	base.Analysis.Text = mergeService(base.Analysis.Text, override.Analysis.Text)
	base.Analysis.Image = mergeService(base.Analysis.Image, override.Analysis.Image)
	base.Analysis.Video = mergeService(base.Analysis.Video, override.Analysis.Video)

	if override.Verdict.ApproveTextOnly != nil {
		base.Verdict.ApproveTextOnly = override.Verdict.ApproveTextOnly
	}

	if override.Cache.RedisAddr != "" {
		base.Cache.RedisAddr = override.Cache.RedisAddr
	}
	if override.Cache.TTL > 0 {
		base.Cache.TTL = override.Cache.TTL
	}

	if len(override.Events.Brokers) > 0 {
		base.Events.Brokers = override.Events.Brokers
	}
	if override.Events.Topic != "" {
		base.Events.Topic = override.Events.Topic
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Digest.Interval > 0 {
		base.Digest.Interval = override.Digest.Interval
	}
	if override.Digest.MaxItems > 0 {
		base.Digest.MaxItems = override.Digest.MaxItems
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

func mergeService(base, override ServiceConfig) ServiceConfig {
	if override.Endpoint != "" {
		base.Endpoint = override.Endpoint
	}
	if override.Timeout > 0 {
		base.Timeout = override.Timeout
	}
	if override.Retries > 0 {
		base.Retries = override.Retries
	}
	if override.Backoff > 0 {
		base.Backoff = override.Backoff
	}
	return base
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":5000",
			UploadDir:      "uploads",
			MaxUploadBytes: 200 << 20,
		},
		Database: DatabaseConfig{Driver: "memory"},
		Analysis: AnalysisConfig{
			Text:  ServiceConfig{Endpoint: "http://0.0.0.0:8001/verify-news", Timeout: defaultServiceTimeout},
			Image: ServiceConfig{Endpoint: "http://0.0.0.0:8000/predict-image", Timeout: defaultServiceTimeout},
			Video: ServiceConfig{Endpoint: "http://0.0.0.0:8003/detect", Timeout: 2 * defaultServiceTimeout},
		},
		Cache:  CacheConfig{TTL: 24 * time.Hour},
		Events: EventsConfig{Topic: "truthpost.verdicts"},
		Digest: DigestConfig{Interval: 24 * time.Hour, MaxItems: 20},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Describe renders a short human summary of the enabled integrations.
func (c Config) Describe() string {
	var parts []string
	parts = append(parts, "db="+c.Database.Driver)
	if c.Cache.RedisAddr != "" {
		parts = append(parts, "cache=redis")
	}
	if len(c.Events.Brokers) > 0 {
		parts = append(parts, "events=kafka("+strconv.Itoa(len(c.Events.Brokers))+")")
	}
	if c.Notifications.Telegram.BotToken != "" {
		parts = append(parts, "digest=telegram")
	}
	return strings.Join(parts, " ")
}
