// Package app wires configuration into the running services.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vntrieu/moodscreen/internal/cache"
	"github.com/vntrieu/moodscreen/internal/chat"
	"github.com/vntrieu/moodscreen/internal/config"
	"github.com/vntrieu/moodscreen/internal/database"
	"github.com/vntrieu/moodscreen/internal/httpapi"
	"github.com/vntrieu/moodscreen/internal/llm"
	"github.com/vntrieu/moodscreen/internal/questionnaire"
	"github.com/vntrieu/moodscreen/internal/ratelimit"
	"github.com/vntrieu/moodscreen/internal/store"
	"github.com/vntrieu/moodscreen/internal/survey"
	"github.com/vntrieu/moodscreen/internal/tools"
)

const (
	shutdownTimeout    = 10 * time.Second
	pruneInterval      = time.Minute
	cachePurgeInterval = 10 * time.Minute
	toolHTTPTimeout    = 30 * time.Second
)

// App holds the wired services.
type App struct {
	Config        config.Config
	Logger        *zap.Logger
	Pool          *pgxpool.Pool
	Store         store.Store
	Cache         cache.Cache
	Questionnaire *questionnaire.Questionnaire
	Model         llm.Completer
	Tools         *tools.Registry
	FDA           *tools.FDAClient
	Chat          *chat.Service
	Survey        *survey.Service
	Limiter       ratelimit.Limiter
	Handler       http.Handler
}

// Build connects storage and creates every service. Without DATABASE_URL the
// stores and the tool cache live in memory.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	q, err := questionnaire.Load(cfg.QuestionnaireFile)
	if err != nil {
		return nil, err
	}
	a.Questionnaire = q

	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL, cfg.DatabasePool)
		if err != nil {
			return nil, fmt.Errorf("database connect: %w", err)
		}
		if err := database.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("database migrate: %w", err)
		}
		logger.Info("connected to database")
		a.Pool = pool
		a.Store = store.NewPostgresStore(pool)
		a.Cache = cache.NewPostgres(pool)
	} else {
		logger.Info("DATABASE_URL not set, keeping data in memory")
		a.Store = store.NewMemoryStore()
		a.Cache = cache.NewMemory()
	}

	model, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("llm: %w", err)
	}
	if model == nil {
		logger.Warn("no chat model configured, replies will report the service as unavailable")
	} else {
		logger.Info("chat model configured", zap.String("provider", cfg.LLM.Provider), zap.String("model", model.Model()))
	}
	a.Model = model

	a.Tools = tools.NewRegistry(logger.Named("tools"))
	httpClient := &http.Client{Timeout: toolHTTPTimeout}
	if cfg.Tools.FDAEnabled {
		a.FDA = tools.NewFDAClient(cfg.Tools.FDABaseURL, cfg.Tools.FDAAPIKey, httpClient, a.Cache, logger.Named("fda"))
		if err := a.Tools.Register(tools.NewFDATool(a.FDA)); err != nil {
			a.Close()
			return nil, err
		}
	}
	if cfg.Tools.OpenAPIURL != "" {
		a.Tools.AddSource(tools.NewOpenAPISource(cfg.Tools.OpenAPIURL, cfg.Tools.BaseURL, httpClient))
	}

	a.Chat = chat.NewService(a.Store, model, a.Tools, chat.Config{
		Temperature:   cfg.LLM.Temperature,
		MaxToolRounds: cfg.LLM.MaxToolRounds,
	}, logger.Named("chat"))
	a.Survey = survey.NewService(q, a.Store, a.Chat, logger.Named("survey"))
	a.Limiter = ratelimit.PerMinute(cfg.RateLimitPerMinute)

	a.Handler = httpapi.NewRouter(httpapi.Deps{
		Survey:         a.Survey,
		Chat:           a.Chat,
		FDA:            a.FDA,
		Tools:          a.Tools,
		Limiter:        a.Limiter,
		AllowedOrigins: cfg.AllowedOrigins,
		TrustProxy:     cfg.TrustProxy,
		Logger:         logger.Named("http"),
	})
	return a, nil
}

// Run serves HTTP on Config.HTTPAddr until ctx is done.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Config.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.Config.HTTPAddr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves HTTP on ln and runs the background maintenance loops. It
// returns after a graceful shutdown once ctx is done.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      a.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: a.Config.LLM.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("moodscreen backend listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	if w, ok := a.Limiter.(*ratelimit.Window); ok {
		g.Go(func() error { return w.Run(gctx, pruneInterval) })
	}
	g.Go(func() error { return a.purgeCache(gctx, cachePurgeInterval) })
	return g.Wait()
}

func (a *App) purgeCache(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			switch c := a.Cache.(type) {
			case *cache.Memory:
				c.Purge()
			case *cache.Postgres:
				n, err := c.Purge(ctx)
				if err != nil && ctx.Err() == nil {
					a.Logger.Warn("purge tool cache", zap.Error(err))
					continue
				}
				if n > 0 {
					a.Logger.Debug("purged tool cache", zap.Int64("rows", n))
				}
			}
		}
	}
}

// Close releases the database pool.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}
