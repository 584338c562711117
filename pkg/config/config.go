package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Log         struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
		// Error logs are aggregated and published to this Kafka topic when set.
		Topic         string        `yaml:"topic"`
		FlushInterval time.Duration `yaml:"flush_interval" default:"30s"`
		CollectWarn   bool          `yaml:"collect_warn"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
		ClientRPS       float64       `yaml:"client_rps" default:"10"`
		ClientBurst     int           `yaml:"client_burst" default:"20"`
	} `yaml:"server"`
	Dashboard struct {
		// Upper bound on assembling one snapshot; slower fields get fallbacks.
		Timeout        time.Duration `yaml:"timeout" default:"12s"`
		StreamInterval time.Duration `yaml:"stream_interval" default:"30s" validate:"gt=0"`
		CoinLimit      int           `yaml:"coin_limit" default:"10" validate:"min=1,max=250"`
		GainerLimit    int           `yaml:"gainer_limit" default:"3" validate:"min=1"`
		NewsLimit      int           `yaml:"news_limit" default:"5" validate:"min=1"`
	} `yaml:"dashboard"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"coindash"`

		PoolSize     int           `yaml:"pool_size" default:"10" validate:"min=1"`
		MinIdleConns int           `yaml:"min_idle_conns" default:"2" validate:"min=0"`
		PoolTimeout  time.Duration `yaml:"pool_timeout" default:"5s"`
		// MemoryTTL caps how long an insight read from Redis stays in memory.
		MemoryTTL time.Duration `yaml:"memory_ttl" default:"10m"`
	} `yaml:"redis"`
	Kafka struct {
		Brokers       []string `yaml:"brokers"`
		FeedbackTopic string   `yaml:"feedback_topic" default:"coindash.feedback"`
		RequiredAcks  int      `yaml:"required_acks" default:"-1"`
		Compression   string   `yaml:"compression" default:"snappy" validate:"oneof=gzip snappy lz4 zstd"`
		AutoCreate    bool     `yaml:"auto_create_topics"`
		Producer      struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"200ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Pipeline struct {
			MaxRPS     int `yaml:"max_rps" default:"5"`
			BufferSize int `yaml:"buffer_size" default:"1000"`
		} `yaml:"pipeline"`
	} `yaml:"kafka"`
	CoinGecko   CoinGecko   `yaml:"coingecko"`
	CryptoPanic CryptoPanic `yaml:"cryptopanic"`
	OpenRouter  OpenRouter  `yaml:"openrouter"`
	Reddit      Reddit      `yaml:"reddit"`
}

// RateLimit is a sliding window budget: at most MaxCalls in any Window.
type RateLimit struct {
	MaxCalls int           `yaml:"max_calls" validate:"min=1"`
	Window   time.Duration `yaml:"window" validate:"gt=0"`
}

func (r *RateLimit) orDefault(calls int, window time.Duration) {
	if r.MaxCalls == 0 {
		r.MaxCalls = calls
	}
	if r.Window == 0 {
		r.Window = window
	}
}

type CoinGecko struct {
	BaseURL   string        `yaml:"base_url" default:"https://api.coingecko.com/api/v3" validate:"url"`
	APIKey    string        `yaml:"api_key"`
	Timeout   time.Duration `yaml:"timeout" default:"10s"`
	RateLimit RateLimit     `yaml:"rate_limit"`
	TTL       struct {
		Markets  time.Duration `yaml:"markets" default:"30s"`
		Trending time.Duration `yaml:"trending" default:"60s"`
		Global   time.Duration `yaml:"global" default:"60s"`
		Coin     time.Duration `yaml:"coin" default:"60s"`
		History  time.Duration `yaml:"history" default:"5m"`
	} `yaml:"ttl"`
}

func (c *CoinGecko) SetDefaults() { c.RateLimit.orDefault(30, time.Minute) }

type CryptoPanic struct {
	BaseURL   string        `yaml:"base_url" default:"https://cryptopanic.com/api/developer/v2" validate:"url"`
	APIKey    string        `yaml:"api_key"`
	Timeout   time.Duration `yaml:"timeout" default:"10s"`
	RateLimit RateLimit     `yaml:"rate_limit"`
	TTL       time.Duration `yaml:"ttl" default:"5m"`
}

func (c *CryptoPanic) SetDefaults() { c.RateLimit.orDefault(5, time.Minute) }

type OpenRouter struct {
	BaseURL     string        `yaml:"base_url" default:"https://openrouter.ai/api/v1" validate:"url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model" default:"google/gemini-2.5-flash-image-preview:free"`
	Referer     string        `yaml:"referer" default:"http://localhost:3000"`
	Title       string        `yaml:"title" default:"Crypto Dashboard"`
	MaxTokens   int           `yaml:"max_tokens" default:"150"`
	Temperature float64       `yaml:"temperature" default:"0.7"`
	Timeout     time.Duration `yaml:"timeout" default:"30s"`
	RateLimit   RateLimit     `yaml:"rate_limit"`
}

func (c *OpenRouter) SetDefaults() { c.RateLimit.orDefault(20, time.Minute) }

type Reddit struct {
	AuthURL      string        `yaml:"auth_url" default:"https://www.reddit.com/api/v1/access_token" validate:"url"`
	APIURL       string        `yaml:"api_url" default:"https://oauth.reddit.com" validate:"url"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	UserAgent    string        `yaml:"user_agent" default:"CryptoDashboard/1.0"`
	Subreddits   []string      `yaml:"subreddits"`
	PostLimit    int           `yaml:"post_limit" default:"25"`
	Timeout      time.Duration `yaml:"timeout" default:"10s"`
	RateLimit    RateLimit     `yaml:"rate_limit"`
	TTL          time.Duration `yaml:"ttl" default:"5m"`
}

func (c *Reddit) SetDefaults() {
	c.RateLimit.orDefault(60, time.Minute)
	if len(c.Subreddits) == 0 {
		c.Subreddits = []string{"cryptocurrencymemes", "bitcoinmemes", "cryptomemes"}
	}
}

var validate = validator.New()

// Default returns a configuration built from struct defaults only.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads and parses a YAML configuration file on top of the defaults.
// A missing file is not an error: every provider works without credentials.
func Load(path string) (*Config, error) {
	c := Default()

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		// Sections the file declared but left partially empty still need defaults.
		if err := defaults.Set(c); err != nil {
			return nil, fmt.Errorf("config defaults: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads .env (if present), the YAML file, then applies
// environment overrides and validates the result.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&c.Environment, "APP_ENV")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.CoinGecko.APIKey, "COINGECKO_API_KEY")
	setString(&c.CryptoPanic.APIKey, "CRYPTOPANIC_API_KEY")
	setString(&c.OpenRouter.APIKey, "OPENROUTER_API_KEY")
	setString(&c.OpenRouter.Model, "OPENROUTER_MODEL")
	setString(&c.Reddit.ClientID, "REDDIT_CLIENT_ID")
	setString(&c.Reddit.ClientSecret, "REDDIT_CLIENT_SECRET")
	setString(&c.Reddit.UserAgent, "REDDIT_USER_AGENT")

	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if (c.Reddit.ClientID == "") != (c.Reddit.ClientSecret == "") {
		return fmt.Errorf("reddit.client_id and reddit.client_secret must be set together")
	}
	return nil
}
