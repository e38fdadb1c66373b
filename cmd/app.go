package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/cvbuilder/internal/ai/gemini"
	"github.com/spigell/cvbuilder/internal/document"
	"github.com/spigell/cvbuilder/internal/extraction"
	"github.com/spigell/cvbuilder/internal/flow"
	"github.com/spigell/cvbuilder/internal/render"
	"github.com/spigell/cvbuilder/internal/secrets"
	"github.com/spigell/cvbuilder/internal/session"
)

// sessionStore is a flow.Store that can drop stale sessions.
type sessionStore interface {
	flow.Store
	Purge(ctx context.Context, before time.Time) (int, error)
}

func loadConfig() (*Config, error) {
	config, err := getConfig()
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.Telegram == nil {
		config.Telegram = &TelegramConfig{}
	}
	if config.Gemini == nil {
		config.Gemini = &GeminiConfig{}
	}
	if config.Session == nil {
		config.Session = &SessionConfig{}
	}
	if config.Render == nil {
		config.Render = &RenderConfig{}
	}
	if config.Limits == nil {
		config.Limits = &LimitsConfig{}
	}
	return config, nil
}

// newExtractor builds the upload path. It returns nil without an API key so
// that the bot can still run the interview.
func newExtractor(ctx context.Context, config *GeminiConfig, logger *zap.Logger) (*extraction.Adapter, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: config.APIKey,
		File:  config.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		logger.Warn("cv upload is disabled", zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY or the 'gemini.api-key-file' key in the configuration file"),
		)
		return nil, nil
	}

	temperature := config.Temperature
	if temperature < 0 {
		temperature = gemini.DefaultTemperature
	}
	generator, err := gemini.NewGenerator(ctx, apiKey, config.Model, temperature, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("cv upload is enabled", zap.String("model", generator.Model()))

	return extraction.NewAdapter(generator, logger, config.Timeout, config.MaxLogLength), nil
}

// newStore opens the SQLite store, falling back to memory when no database is
// configured or it cannot be opened.
func newStore(config *SessionConfig, logger *zap.Logger) (sessionStore, func()) {
	if config.Database == "" {
		logger.Info("sessions are kept in memory")
		return session.NewMemoryStore(), func() {}
	}

	store, err := session.NewSQLiteStore(config.Database)
	if err != nil {
		logger.Warn("session database unavailable, sessions are kept in memory",
			zap.String("path", config.Database),
			zap.Error(err),
		)
		return session.NewMemoryStore(), func() {}
	}
	logger.Info("sessions are stored in sqlite", zap.String("path", store.Path()))

	return store, func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing session database", zap.Error(err))
		}
	}
}

func newController(ctx context.Context, config *Config, store flow.Store, logger *zap.Logger) (*flow.Controller, error) {
	deps := flow.Deps{
		Store:    store,
		Renderer: render.NewRenderer(config.Render.ChromePath, config.Render.Timeout, logger),
		Logger:   logger,
	}

	if err := document.CheckAvailable(); err != nil {
		logger.Warn("pdf uploads will fail", zap.Error(err))
	}

	extractor, err := newExtractor(ctx, config.Gemini, logger)
	if err != nil {
		return nil, fmt.Errorf("creating the extraction adapter: %w", err)
	}
	if extractor != nil {
		deps.Extractor = extractor
		deps.Documents = document.New()
	}

	return flow.NewController(deps, flow.Options{
		MaxUploadBytes:  config.Limits.MaxUploadMB << 20,
		ExternalCalls:   config.Limits.ExternalCalls,
		ExternalTimeout: config.Limits.ExternalTimeout,
	})
}

// purgeSessions drops sessions idle for longer than ttl until ctx is done.
func purgeSessions(ctx context.Context, store sessionStore, ttl, interval time.Duration, logger *zap.Logger) {
	if ttl <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.Purge(ctx, time.Now().Add(-ttl))
			if err != nil {
				logger.Warn("purging sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("purged stale sessions", zap.Int("count", n), zap.Duration("ttl", ttl))
			}
		}
	}
}
