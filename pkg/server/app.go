package server

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"MarketSim/internal/domain/market"
	"MarketSim/internal/handler/api"
	"MarketSim/internal/handler/chat"
	mid "MarketSim/internal/middleware"
	"MarketSim/internal/service/ratelimit"
	"MarketSim/internal/usecase"
	"MarketSim/pkg/config"
	xhttp "MarketSim/pkg/http"
	applogger "MarketSim/pkg/logger"
)

const (
	limiterPruneEvery = 5 * time.Minute
	limiterMaxIdle    = 30 * time.Minute
)

// Components groups everything App starts and stops.
type Components struct {
	Book      *market.PriceBook
	Walker    *usecase.RandomWalker
	Scheduler *usecase.ReportScheduler
	Pipeline  *mid.TickPipeline
	Recorder  *usecase.TickRecorder
	Stream    *api.PriceStream
	Bot       *chat.Bot
	HTTP      *xhttp.Server
	Limiter   *ratelimit.Limiter

	// Closers are released last, in order.
	Closers []io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg    *config.Config
	logger *applogger.Logger
	c      Components
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, logger *applogger.Logger, c Components) *App {
	return &App{cfg: cfg, logger: logger, c: c}
}

// Run starts every loop and blocks until SIGINT/SIGTERM or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := a.logger
	// The flusher outlives the signal so Stop can drain what is queued.
	a.c.Pipeline.Start(context.WithoutCancel(ctx))
	n := a.c.Book.AnnounceSeed()
	l.Info("market seeded",
		applogger.Int("instruments", n),
		applogger.String("sink", a.c.Recorder.Backend()),
	)

	if a.cfg.Discord.Token == "" {
		l.Warn("discord token missing, running without chat gateway")
	} else if err := a.c.Bot.Start(); err != nil {
		a.shutdown()
		return err
	}

	if err := a.c.HTTP.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		a.shutdown()
		return err
	}

	var wg sync.WaitGroup
	loops := map[string]func(context.Context) error{
		"random_walk":      a.c.Walker.Run,
		"report_scheduler": a.c.Scheduler.Run,
		"limiter_prune":    a.pruneLimiter,
	}
	for name, run := range loops {
		wg.Add(1)
		go func(name string, run func(context.Context) error) {
			defer wg.Done()
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				l.Error("loop exited", applogger.String("loop", name), applogger.Error(err))
			}
		}(name, run)
	}

	<-ctx.Done()
	l.Info("shutdown signal received")
	wg.Wait()
	a.shutdown()
	return nil
}

func (a *App) pruneLimiter(ctx context.Context) error {
	if a.c.Limiter == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	t := time.NewTicker(limiterPruneEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if n := a.c.Limiter.Prune(limiterMaxIdle); n > 0 {
				a.logger.Debug("pruned idle rate limiters", applogger.Int("count", n))
			}
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown() {
	l := a.logger
	l.Info("shutting down...")

	if err := a.c.HTTP.Stop(context.Background()); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}
	a.c.Stream.Close()
	if err := a.c.Bot.Close(); err != nil {
		l.Warn("discord close error", applogger.Error(err))
	}

	a.c.Pipeline.Stop()
	l.RemoveCollector()
	a.c.Recorder.Close()

	for _, c := range a.c.Closers {
		if err := c.Close(); err != nil {
			l.Warn("close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
}
