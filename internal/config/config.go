// Package config loads service configuration from defaults, an optional
// config file, and DECKWRIGHT_* environment variables, in that precedence
// order (later wins).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration tree.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Store    StoreConfig    `mapstructure:"store"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
}

type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
	JSON  bool   `mapstructure:"json"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type RedisConfig struct {
	// Addr empty selects the in-memory store (dev mode, no durability).
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// StoreConfig tunes the persistence middleware around the session store.
type StoreConfig struct {
	// EncryptionKey, when set, enables encryption at rest. Base64-encoded,
	// must decode to 32 bytes (AES-256).
	EncryptionKey string `mapstructure:"encryption_key"`
	// FallbackKeys are previous encryption keys tried on decrypt, enabling
	// key rotation without downtime. Same encoding as EncryptionKey.
	FallbackKeys []string `mapstructure:"fallback_keys"`
	// PIIPatterns are regular expressions masked out of conversation text
	// before it is persisted.
	PIIPatterns []string `mapstructure:"pii_patterns"`
}

type LLMConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	// Model drives artifact generation; RouterModel handles the cheaper
	// classification calls.
	Model       string        `mapstructure:"model"`
	RouterModel string        `mapstructure:"router_model"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type WorkflowConfig struct {
	AcceptConfidence float64       `mapstructure:"accept_confidence"`
	ClassifyTimeout  time.Duration `mapstructure:"classify_timeout"`
	GenerateTimeout  time.Duration `mapstructure:"generate_timeout"`
	MaxSaveRetries   int           `mapstructure:"max_save_retries"`
}

const envPrefix = "DECKWRIGHT"

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)

	// Viper only maps environment variables onto keys it already knows, so
	// secrets get explicit empty defaults.
	v.SetDefault("store.encryption_key", "")
	v.SetDefault("store.fallback_keys", []string{})
	v.SetDefault("store.pii_patterns", []string{})

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.router_model", "gpt-4o-mini")
	v.SetDefault("llm.timeout", 90*time.Second)

	v.SetDefault("workflow.accept_confidence", 0.6)
	v.SetDefault("workflow.classify_timeout", 15*time.Second)
	v.SetDefault("workflow.generate_timeout", 60*time.Second)
	v.SetDefault("workflow.max_save_retries", 3)
}

// Load reads configuration. file may be empty; environment variables use the
// DECKWRIGHT_ prefix with underscores for nesting (DECKWRIGHT_REDIS_ADDR).
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
