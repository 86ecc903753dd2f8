package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spigell/star-interviewer/internal/ai/gemini"
	"github.com/spigell/star-interviewer/internal/coach"
	"github.com/spigell/star-interviewer/internal/interview"
	"github.com/spigell/star-interviewer/internal/jobfit"
	"github.com/spigell/star-interviewer/internal/logger"
	"github.com/spigell/star-interviewer/internal/secrets"
	"github.com/spigell/star-interviewer/internal/storage"
	"github.com/spigell/star-interviewer/internal/storage/memory"
	"github.com/spigell/star-interviewer/internal/storage/sqlite"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// prepare builds the logger, the config and the service every command runs on.
// Startup failures are fatal.
func prepare(ctx context.Context) (*zap.Logger, *coach.Service) {
	logger, err := logger.New(logger.Options{
		JSON:   viper.GetBool("json"),
		Debug:  viper.GetBool("debug"),
		Output: viper.GetString("log-output"),
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Debug("starting", zap.String("app", app), zap.String("version", version))

	svc, err := newService(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing the interviewer", zap.Error(err))
	}

	return logger, svc
}

func newService(ctx context.Context, config *Config, logger *zap.Logger) (*coach.Service, error) {
	scoring, err := config.scoring()
	if err != nil {
		return nil, err
	}

	bank := interview.DefaultQuestionBank()
	if path := strings.TrimSpace(config.QuestionsFile); path != "" {
		if bank, err = interview.LoadQuestionBank(path); err != nil {
			return nil, err
		}
	}

	store, err := newStore(ctx, config.Storage, logger)
	if err != nil {
		return nil, err
	}

	var (
		judge  interview.Judge
		scorer jobfit.Scorer
	)

	if config.AI.Enabled {
		interviewer, matcher, err := newAIJudges(ctx, config.AI, scoring, bank, logger)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("building ai judge: %w", err)
		}
		judge, scorer = interviewer, matcher
	}

	orchestrator := interview.NewOrchestrator(judge, bank, scoring, logger)

	return coach.New(orchestrator, store, scorer, logger), nil
}

func newStore(ctx context.Context, cfg *StorageConfig, logger *zap.Logger) (storage.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "memory":
		logger.Warn("using in-memory storage", zap.String("hint", "sessions are lost when the command exits"))
		return memory.New(), nil
	case "", "sqlite":
		path := strings.TrimSpace(cfg.Path)
		if path == "" {
			path = app + ".db"
		}
		logger.Debug("opening sqlite storage", zap.String("path", path))
		store, err := sqlite.New(ctx, path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

func newAIJudges(ctx context.Context, cfg *AIConfig, scoring interview.Scoring, bank *interview.QuestionBank, log *zap.Logger) (*gemini.Interviewer, *gemini.JobMatcher, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := log.With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, nil, err
	}

	return gemini.NewInterviewer(generator, scoring, bank, cfg.Gemini.MaxLogLength, log),
		gemini.NewJobMatcher(generator, cfg.Gemini.MaxLogLength, log),
		nil
}
