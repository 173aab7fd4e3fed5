package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vbonduro/eatai/internal/assistant"
	"github.com/vbonduro/eatai/internal/domain"
	"github.com/vbonduro/eatai/internal/logging"
	"github.com/vbonduro/eatai/internal/metrics"
)

const (
	defaultPollInterval     = time.Second
	defaultPollTimeout      = 60 * time.Second
	defaultImageConcurrency = 3

	// cleanupTimeout bounds best-effort run cancellation and session release,
	// which run after the caller's context may already be done.
	cleanupTimeout = 5 * time.Second
)

// ingredientSource is the subset of store.FoodStore that RecipeService requires.
type ingredientSource interface {
	ListNames(ctx context.Context, ownerID int64) ([]string, error)
}

type RecipeConfig struct {
	// AssistantID is the assistant or model the run is started against.
	AssistantID      string
	PollInterval     time.Duration
	PollTimeout      time.Duration
	ImageConcurrency int
}

// RecipeService turns an owner's inventory into illustrated recipes by
// driving one assistant session per call.
type RecipeService struct {
	foods   ingredientSource
	client  assistant.Client
	cfg     RecipeConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewRecipeService(
	foods ingredientSource,
	client assistant.Client,
	cfg RecipeConfig,
	m *metrics.Metrics,
	logger *slog.Logger,
) *RecipeService {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = defaultPollTimeout
	}
	if cfg.ImageConcurrency <= 0 {
		cfg.ImageConcurrency = defaultImageConcurrency
	}
	return &RecipeService{
		foods:   foods,
		client:  client,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
	}
}

// generationRun is the state of one Generate call.
type generationRun struct {
	session string
	run     string
	status  assistant.RunStatus
	polls   int
	reply   string
	started time.Time
}

func (g *generationRun) attrs() []any {
	return []any{"session_id", g.session, "run_id", g.run, "elapsed", time.Since(g.started).Round(time.Millisecond)}
}

// Generate returns 2-3 recipes built from the owner's current inventory, in
// the order the assistant produced them. Errors match domain.ErrValidation,
// domain.ErrUpstream, domain.ErrParse, domain.ErrTimeout or
// domain.ErrCancelled. A recipe whose illustration fails is returned without
// an image.
func (s *RecipeService) Generate(ctx context.Context, ownerID int64, req domain.RecipeRequest) ([]domain.Recipe, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	gen := &generationRun{started: time.Now()}
	recipes, err := s.generate(ctx, ownerID, req, gen)
	s.metrics.ObserveGeneration(err, time.Since(gen.started))
	return recipes, err
}

func (s *RecipeService) generate(ctx context.Context, ownerID int64, req domain.RecipeRequest, gen *generationRun) ([]domain.Recipe, error) {
	logger := logging.FromContext(ctx, s.logger).With("owner_id", ownerID)

	names, err := s.foods.ListNames(ctx, ownerID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx, "read inventory")
		}
		return nil, fmt.Errorf("failed to read inventory: %w", err)
	}
	if len(names) == 0 {
		logger.Info("inventory is empty, generating without ingredients")
	}
	prompt := assistant.BuildRecipePrompt(names, req)

	gen.session, err = s.client.CreateSession(ctx)
	if err != nil {
		return nil, s.adapterError(ctx, logger, gen, "create session", err)
	}
	defer s.closeSession(ctx, logger, gen)

	if err := s.client.PostPrompt(ctx, gen.session, prompt); err != nil {
		return nil, s.adapterError(ctx, logger, gen, "post prompt", err)
	}

	gen.run, err = s.client.StartRun(ctx, gen.session, s.cfg.AssistantID)
	if err != nil {
		return nil, s.adapterError(ctx, logger, gen, "start run", err)
	}

	if err := s.awaitRun(ctx, logger, gen); err != nil {
		return nil, err
	}

	gen.reply, err = s.client.GetLatestReply(ctx, gen.session)
	if err != nil {
		return nil, s.adapterError(ctx, logger, gen, "fetch reply", err)
	}

	recipes, err := assistant.ParseRecipes(gen.reply)
	if err != nil {
		logger.Error("recipe reply rejected", append(gen.attrs(), "error", err, "reply_bytes", len(gen.reply))...)
		return nil, err
	}

	s.illustrate(ctx, logger, recipes, req.Style)
	if ctx.Err() != nil {
		return nil, cancelled(ctx, "illustrate recipes")
	}

	logger.Info("recipes generated", append(gen.attrs(), "recipes", len(recipes), "polls", gen.polls)...)
	return recipes, nil
}

// awaitRun polls the run every PollInterval until it reaches a terminal
// status or PollTimeout passes. Only completed returns nil.
func (s *RecipeService) awaitRun(ctx context.Context, logger *slog.Logger, gen *generationRun) error {
	pollCtx, cancel := context.WithTimeout(ctx, s.cfg.PollTimeout)
	defer cancel()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		state, err := s.client.GetRunStatus(pollCtx, gen.session, gen.run)
		gen.polls++
		if err != nil {
			if pollCtx.Err() != nil {
				return s.stopRun(ctx, logger, gen)
			}
			s.cancelRun(ctx, logger, gen)
			return s.adapterError(ctx, logger, gen, "poll run", err)
		}
		gen.status = state.Status

		switch state.Status {
		case assistant.RunCompleted:
			s.metrics.ObserveRunPolls(gen.polls)
			return nil
		case assistant.RunFailed, assistant.RunCancelled, assistant.RunExpired:
			s.metrics.ObserveRunPolls(gen.polls)
			reason := state.FailureReason
			if reason == "" {
				reason = "no reason given"
			}
			err := fmt.Errorf("%w: run %s: %s", domain.ErrUpstream, state.Status, reason)
			logger.Error("recipe run did not complete", append(gen.attrs(), "status", state.Status, "error", err)...)
			return err
		case assistant.RunQueued, assistant.RunInProgress:
		default:
			s.cancelRun(ctx, logger, gen)
			err := fmt.Errorf("%w: run reported unknown status %q", domain.ErrUpstream, state.Status)
			logger.Error("recipe run did not complete", append(gen.attrs(), "error", err)...)
			return err
		}

		select {
		case <-pollCtx.Done():
			return s.stopRun(ctx, logger, gen)
		case <-ticker.C:
		}
	}
}

// stopRun abandons a run whose poll budget or caller context ran out.
func (s *RecipeService) stopRun(ctx context.Context, logger *slog.Logger, gen *generationRun) error {
	s.cancelRun(ctx, logger, gen)
	if ctx.Err() != nil {
		logger.Info("recipe generation cancelled by caller", gen.attrs()...)
		return cancelled(ctx, "poll run")
	}
	err := fmt.Errorf("%w: run not finished after %s (last status %q)", domain.ErrTimeout, s.cfg.PollTimeout, gen.status)
	logger.Error("recipe run timed out", append(gen.attrs(), "polls", gen.polls, "error", err)...)
	return err
}

func (s *RecipeService) illustrate(ctx context.Context, logger *slog.Logger, recipes []domain.Recipe, style string) {
	var g errgroup.Group
	g.SetLimit(s.cfg.ImageConcurrency)

	for i := range recipes {
		g.Go(func() error {
			ref, err := s.client.GenerateImage(ctx, assistant.ImagePrompt(recipes[i].Name, style))
			s.metrics.ObserveIllustration(err == nil)
			if err != nil {
				if ctx.Err() == nil {
					logger.Warn("recipe illustration failed", "recipe", recipes[i].Name, "error", err)
				}
				return nil
			}
			recipes[i].Image = ref
			return nil
		})
	}

	_ = g.Wait()
}

// adapterError classifies a failed adapter call. The caller's context wins
// over whatever the adapter reported.
func (s *RecipeService) adapterError(ctx context.Context, logger *slog.Logger, gen *generationRun, op string, err error) error {
	if ctx.Err() != nil {
		logger.Info("recipe generation cancelled by caller", append(gen.attrs(), "step", op)...)
		return cancelled(ctx, op)
	}

	if errors.Is(err, domain.ErrUpstream) {
		err = fmt.Errorf("%s: %w", op, err)
	} else {
		err = fmt.Errorf("%w: %s: %w", domain.ErrUpstream, op, err)
	}
	logger.Error("assistant call failed", append(gen.attrs(), "step", op, "error", err)...)
	return err
}

func (s *RecipeService) cancelRun(ctx context.Context, logger *slog.Logger, gen *generationRun) {
	canceller, ok := s.client.(assistant.RunCanceller)
	if !ok {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := canceller.CancelRun(cctx, gen.session, gen.run); err != nil {
		logger.Warn("failed to cancel recipe run", append(gen.attrs(), "error", err)...)
	}
}

func (s *RecipeService) closeSession(ctx context.Context, logger *slog.Logger, gen *generationRun) {
	closer, ok := s.client.(assistant.SessionCloser)
	if !ok {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := closer.CloseSession(cctx, gen.session); err != nil {
		logger.Warn("failed to close recipe session", append(gen.attrs(), "error", err)...)
	}
}

func cancelled(ctx context.Context, op string) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrCancelled, op, context.Cause(ctx))
}
