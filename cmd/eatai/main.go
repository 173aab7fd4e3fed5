package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vbonduro/eatai/internal/assistant"
	"github.com/vbonduro/eatai/internal/assistant/claude"
	"github.com/vbonduro/eatai/internal/assistant/mirror"
	"github.com/vbonduro/eatai/internal/assistant/ollama"
	"github.com/vbonduro/eatai/internal/assistant/openai"
	"github.com/vbonduro/eatai/internal/config"
	"github.com/vbonduro/eatai/internal/db"
	"github.com/vbonduro/eatai/internal/imagestore"
	"github.com/vbonduro/eatai/internal/imagestore/local"
	"github.com/vbonduro/eatai/internal/logging"
	"github.com/vbonduro/eatai/internal/metrics"
	"github.com/vbonduro/eatai/internal/service"
	"github.com/vbonduro/eatai/internal/store"
	"github.com/vbonduro/eatai/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		cleanup()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	foodStore := store.NewFoodStore(database)
	shoppingStore := store.NewShoppingStore(database)
	mealPlanStore := store.NewMealPlanStore(database)

	illustrations, err := newIllustrationStore(cfg, logger)
	if err != nil {
		return err
	}

	client, assistantID, err := newAssistantClient(cfg, illustrations, logger)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	shopping := service.NewShoppingService(shoppingStore)
	services := web.Services{
		Inventory: service.NewInventoryService(foodStore),
		Shopping:  shopping,
		Planner:   service.NewPlannerService(mealPlanStore, shopping),
		Recipes: service.NewRecipeService(foodStore, client, service.RecipeConfig{
			AssistantID:      assistantID,
			PollInterval:     cfg.PollInterval,
			PollTimeout:      cfg.PollTimeout,
			ImageConcurrency: cfg.ImageConcurrency,
		}, m, logger),
	}

	server := web.NewServer(services, web.Options{
		DefaultOwnerID:      cfg.DefaultOwnerID,
		RecipeRatePerMinute: cfg.RecipeRatePerMinute,
		Illustrations:       illustrations,
		Metrics:             m,
		Gatherer:            reg,
	}, logger)

	return server.ListenAndServe(ctx, cfg.ListenAddr)
}

// newAssistantClient returns the recipe backend and the assistant or model id
// runs are started against. Illustrations always come from OpenAI.
func newAssistantClient(cfg *config.Config, images imagestore.ImageStore, logger *slog.Logger) (assistant.Client, string, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, "", errors.New("OPENAI_API_KEY is required")
	}
	oai := openai.New(openai.Config{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		ImageModel: cfg.ImageModel,
		ImageSize:  cfg.ImageSize,
	})

	var illustrator assistant.Illustrator = oai
	if images != nil {
		illustrator = mirror.New(oai, images)
	}

	switch cfg.AIBackend {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			return nil, "", errors.New("CLAUDE_API_KEY is required when AI_BACKEND=claude")
		}
		logger.Info("using Claude recipe backend", "model", cfg.ClaudeModel)
		return assistant.Combine(claude.New(cfg.ClaudeAPIKey, ""), illustrator), cfg.ClaudeModel, nil
	case "ollama":
		logger.Info("using Ollama recipe backend", "host", cfg.OllamaHost, "model", cfg.OllamaModel)
		return assistant.Combine(ollama.New(cfg.OllamaHost), illustrator), cfg.OllamaModel, nil
	case "openai", "":
		if cfg.AssistantID == "" {
			return nil, "", errors.New("OPENAI_ASSISTANT_ID is required when AI_BACKEND=openai")
		}
		logger.Info("using OpenAI Assistants recipe backend", "assistant_id", cfg.AssistantID)
		return assistant.Combine(oai, illustrator), cfg.AssistantID, nil
	default:
		return nil, "", fmt.Errorf("unknown AI_BACKEND %q", cfg.AIBackend)
	}
}

func newIllustrationStore(cfg *config.Config, logger *slog.Logger) (imagestore.ImageStore, error) {
	switch cfg.IllustrationStore {
	case "local":
		s, err := local.NewLocalImageStore(cfg.IllustrationPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize illustration store: %w", err)
		}
		logger.Info("mirroring recipe illustrations", "path", cfg.IllustrationPath)
		return s, nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown ILLUSTRATION_STORE %q", cfg.IllustrationStore)
	}
}
