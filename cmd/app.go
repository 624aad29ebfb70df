package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/ai/gemini"
	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/questions"
	"github.com/spigell/interview-coach/internal/secrets"
	"github.com/spigell/interview-coach/internal/session"
)

const pingTimeout = 5 * time.Second

type closer func(context.Context) error

// newEngine builds the turn engine from config. Without a usable AI
// configuration the engine runs on fallback phrases only.
func newEngine(ctx context.Context, config *Config, logger *zap.Logger) (*interview.Engine, error) {
	ic := config.Interview
	if ic == nil {
		ic = &InterviewConfig{}
	}

	bank, err := loadBank(ic)
	if err != nil {
		return nil, err
	}

	cfg := interview.Config{
		Limits: interview.Limits{
			SessionLimit: ic.SessionLimit,
			RetryLimit:   ic.RetryLimit,
			MaxDepth:     ic.MaxDepth,
		},
		OracleTimeout: ic.OracleTimeout,
		Bank:          bank,
		Picker:        questions.NewPicker(ic.Seed),
		Logger:        logger.Named("engine"),
	}

	generator, err := newGenerator(ctx, config.AI, logger)
	switch {
	case errors.Is(err, secrets.ErrNotConfigured):
		logger.Warn("gemini api key is not configured, running with fallback phrases only",
			zap.String("hint", "set GEMINI_API_KEY_FILE, GEMINI_API_KEY or ai.gemini.api-key-file"),
		)
	case err != nil:
		return nil, err
	case generator != nil:
		maxLog := 0
		if config.AI.Gemini != nil {
			maxLog = config.AI.Gemini.MaxLogLength
		}
		cfg.Classifier = interview.NewOracleClassifier(generator, maxLog, logger.Named("classifier"))
		cfg.Responder = interview.NewOracleResponder(generator, maxLog, logger.Named("responder"))
	}

	return interview.New(cfg)
}

func loadBank(ic *InterviewConfig) (*questions.Bank, error) {
	defaultRole := strings.TrimSpace(ic.DefaultRole)
	if defaultRole == "" {
		defaultRole = questions.DefaultRole
	}

	if ic.QuestionsFile == "" {
		bank, err := questions.Load(questions.Catalog(), defaultRole)
		if err != nil {
			return nil, fmt.Errorf("load built-in questions: %w", err)
		}
		return bank, nil
	}

	data, err := os.ReadFile(ic.QuestionsFile)
	if err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}

	bank, err := questions.Load(data, defaultRole)
	if err != nil {
		return nil, fmt.Errorf("load questions file %q: %w", ic.QuestionsFile, err)
	}
	return bank, nil
}

// newGenerator returns nil when AI is disabled.
func newGenerator(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Generator, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	gc := cfg.Gemini
	if gc == nil {
		gc = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  gc.APIKeyFile,
		Value: gc.APIKey,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, err
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, gemini.Options{
		Model:        gc.Model,
		MaxRetries:   gc.MaxRetries,
		MaxLogLength: gc.MaxLogLength,
		Temperature:  gc.Temperature,
	}, logger.With(zap.Int("ai_retry_attempts", gc.MaxRetries)))
	if err != nil {
		return nil, err
	}

	return generator, nil
}

// openStore connects the configured session store. The returned closer
// releases its connections.
func openStore(ctx context.Context, cfg *StoreConfig, logger *zap.Logger) (session.Store, closer, error) {
	noop := func(context.Context) error { return nil }

	backend := "memory"
	if cfg != nil && cfg.Backend != "" {
		backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	}

	switch backend {
	case "memory":
		logger.Info("using in-memory session store")
		return session.NewMemoryStore(), noop, nil

	case "redis":
		rc := cfg.Redis
		if rc == nil {
			return nil, noop, errors.New("store.redis section is required for the redis backend")
		}

		rdb := redis.NewClient(&redis.Options{
			Addr:     strings.TrimPrefix(rc.Addr, "redis://"),
			Password: rc.Password,
			DB:       rc.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, noop, fmt.Errorf("ping redis: %w", err)
		}

		logger.Info("connected to redis", zap.String("addr", rc.Addr), zap.Duration("ttl", rc.TTL))
		return session.NewRedisStore(rdb, rc.Prefix, rc.TTL), func(context.Context) error { return rdb.Close() }, nil

	case "sqlite":
		path := ""
		if cfg.SQLite != nil {
			path = cfg.SQLite.Path
		}

		store, err := session.OpenSQLite(path)
		if err != nil {
			return nil, noop, err
		}

		logger.Info("using sqlite session store", zap.String("path", path))
		return store, func(context.Context) error { return store.Close() }, nil

	case "mongo", "mongodb":
		mc := cfg.Mongo
		if mc == nil || mc.URI == "" {
			return nil, noop, errors.New("store.mongo.uri is required for the mongo backend")
		}

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(mc.URI))
		if err != nil {
			return nil, noop, fmt.Errorf("connect to mongodb: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx, nil); err != nil {
			_ = client.Disconnect(ctx)
			return nil, noop, fmt.Errorf("ping mongodb: %w", err)
		}

		logger.Info("connected to mongodb", zap.String("database", mc.Database))
		return session.NewMongoStore(client.Database(mc.Database), mc.Collection), client.Disconnect, nil

	default:
		return nil, noop, fmt.Errorf("unsupported store backend: %s", backend)
	}
}
