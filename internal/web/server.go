package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vbonduro/eatai/internal/assistant/mirror"
	"github.com/vbonduro/eatai/internal/imagestore"
	"github.com/vbonduro/eatai/internal/metrics"
	"github.com/vbonduro/eatai/internal/service"
)

const shutdownTimeout = 15 * time.Second

// Services are the application services the API exposes.
type Services struct {
	Inventory *service.InventoryService
	Shopping  *service.ShoppingService
	Planner   *service.PlannerService
	Recipes   *service.RecipeService
}

type Options struct {
	// DefaultOwnerID is used when a request has no X-Owner-ID header.
	DefaultOwnerID int64
	// RecipeRatePerMinute caps generate calls per owner. Zero disables it.
	RecipeRatePerMinute int
	// Illustrations serves mirrored recipe images. Nil disables the route.
	Illustrations imagestore.ImageStore
	Metrics       *metrics.Metrics
	// Gatherer backs GET /metrics. Nil disables the route.
	Gatherer prometheus.Gatherer
}

type Server struct {
	svc     Services
	opts    Options
	limiter *ownerLimiter
	mux     *http.ServeMux
	logger  *slog.Logger
	now     func() time.Time
}

func NewServer(svc Services, opts Options, logger *slog.Logger) *Server {
	if opts.DefaultOwnerID <= 0 {
		opts.DefaultOwnerID = 1
	}
	s := &Server{
		svc:     svc,
		opts:    opts,
		limiter: newOwnerLimiter(opts.RecipeRatePerMinute),
		mux:     http.NewServeMux(),
		logger:  logger,
		now:     time.Now,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.HandleFunc("GET /api/food", s.handleListFood)
	s.mux.HandleFunc("POST /api/food", s.handleCreateFood)
	s.mux.HandleFunc("GET /api/food/expiring", s.handleExpiringFood)
	s.mux.HandleFunc("PUT /api/food/{id}", s.handleUpdateFood)
	s.mux.HandleFunc("DELETE /api/food/{id}", s.handleDeleteFood)

	s.mux.HandleFunc("POST /api/generate-recipes", s.handleGenerateRecipes)

	s.mux.HandleFunc("GET /api/shopping", s.handleListShopping)
	s.mux.HandleFunc("POST /api/shopping", s.handleAddShopping)
	s.mux.HandleFunc("POST /api/shopping/quick-add", s.handleQuickAddShopping)
	s.mux.HandleFunc("POST /api/shopping/{id}/toggle", s.handleToggleShopping)
	s.mux.HandleFunc("DELETE /api/shopping/purchased", s.handleClearPurchased)
	s.mux.HandleFunc("DELETE /api/shopping/{id}", s.handleDeleteShopping)

	s.mux.HandleFunc("GET /api/meal-plans", s.handleListMealPlans)
	s.mux.HandleFunc("PUT /api/meal-plans", s.handleSetMealPlan)
	s.mux.HandleFunc("GET /api/meal-plans/summary", s.handleMealPlanSummary)
	s.mux.HandleFunc("POST /api/meal-plans/ingredients/shopping", s.handleIngredientToShopping)
	s.mux.HandleFunc("DELETE /api/meal-plans/{id}", s.handleDeleteMealPlan)

	if s.opts.Illustrations != nil {
		s.mux.HandleFunc("GET "+mirror.PathPrefix+"{key}", s.handleGetIllustration)
	}
	if s.opts.Gatherer != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID(s.logger, requestLogger(s.logger, s.opts.Metrics, securityHeaders(s.mux))).ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then drains in-flight
// requests for up to shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Recipe generation polls for up to a minute and then fetches images.
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
