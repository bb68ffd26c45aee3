package main

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/deckwright/deckwright"
	"github.com/deckwright/deckwright/internal/adapters/llm"
	"github.com/deckwright/deckwright/internal/adapters/memory"
	redisstore "github.com/deckwright/deckwright/internal/adapters/redis"
	"github.com/deckwright/deckwright/internal/config"
	"github.com/deckwright/deckwright/internal/logging"
	"github.com/deckwright/deckwright/pkg/persistence/middleware"
	"github.com/deckwright/deckwright/pkg/ports"
	"github.com/deckwright/deckwright/pkg/workflow"
)

var rootCmd = &cobra.Command{
	Use:   "deckwright",
	Short: "Deckwright builds presentation outlines through conversation",
	Long: `Deckwright guides a user from a raw topic to a refinable slide-by-slide
presentation outline: clarify, plan, generate, refine.`,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (optional)")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	return config.Load(file)
}

// buildApp wires the core from configuration. Redis backs sessions when an
// address is configured; otherwise the in-memory store is used and a warning
// is logged, since nothing survives a restart.
func buildApp(cfg *config.Config, logger *slog.Logger, hooks *workflow.Hooks) (*deckwright.App, error) {
	var store ports.SessionStore
	if cfg.Redis.Addr != "" {
		store = redisstore.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redisstore.WithTTL(cfg.Redis.TTL))
		logger.Info("using redis session store", "addr", cfg.Redis.Addr)
	} else {
		store = memory.NewStore()
		logger.Warn("no redis configured, sessions are in-memory only")
	}

	store, err := wrapStore(store, cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	model, err := llm.New(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		RouterModel: cfg.LLM.RouterModel,
	}, llm.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm adapter: %w", err)
	}

	opts := []deckwright.Option{
		deckwright.WithLogger(logger),
		deckwright.WithWorkflowConfig(workflow.Config{
			AcceptConfidence: cfg.Workflow.AcceptConfidence,
			ClassifyTimeout:  cfg.Workflow.ClassifyTimeout,
			GenerateTimeout:  cfg.Workflow.GenerateTimeout,
			MaxSaveRetries:   cfg.Workflow.MaxSaveRetries,
		}),
	}
	if hooks != nil {
		opts = append(opts, deckwright.WithHooks(*hooks))
	}

	return deckwright.New(deckwright.Deps{
		Store:      store,
		Classifier: model,
		Generator:  model,
	}, opts...), nil
}

// wrapStore applies the persistence middleware configured for the store:
// PII masking first, then encryption at rest, so ciphertext never carries
// unmasked content.
func wrapStore(store ports.SessionStore, cfg config.StoreConfig, logger *slog.Logger) (ports.SessionStore, error) {
	var mws []middleware.Middleware

	if len(cfg.PIIPatterns) > 0 {
		for _, p := range cfg.PIIPatterns {
			if _, err := regexp.Compile(p); err != nil {
				return nil, fmt.Errorf("invalid pii pattern %q: %w", p, err)
			}
		}
		mws = append(mws, middleware.NewPIIMasker(cfg.PIIPatterns))
		logger.Info("pii masking enabled", "patterns", len(cfg.PIIPatterns))
	}

	if cfg.EncryptionKey != "" {
		active, err := decodeKey(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid store encryption key: %w", err)
		}
		fallbacks := make([][]byte, 0, len(cfg.FallbackKeys))
		for _, k := range cfg.FallbackKeys {
			decoded, err := decodeKey(k)
			if err != nil {
				return nil, fmt.Errorf("invalid store fallback key: %w", err)
			}
			fallbacks = append(fallbacks, decoded)
		}
		mws = append(mws, middleware.NewEncryption(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallbacks,
		}))
		logger.Info("session encryption at rest enabled", "fallback_keys", len(fallbacks))
	}

	return middleware.Chain(store, mws...), nil
}

func decodeKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(logging.ParseLevel(cfg.Log.Level), cfg.Log.JSON)
}
