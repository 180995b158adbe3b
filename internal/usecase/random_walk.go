package usecase

import (
	"context"
	"math/rand/v2"
	"time"

	"MarketSim/internal/domain/market"
	"MarketSim/internal/domain/models"
	drepo "MarketSim/internal/domain/repository"
	applogger "MarketSim/pkg/logger"
)

// RandomWalker nudges every instrument by a uniform random amount on a fixed period.
type RandomWalker struct {
	book     *market.PriceBook
	metrics  drepo.Metrics
	logger   *applogger.Logger
	interval time.Duration
	maxStep  float64
	rnd      func() float64
}

// NewRandomWalker creates a walker drawing perturbations from [-maxStep, +maxStep].
func NewRandomWalker(book *market.PriceBook, metrics drepo.Metrics, logger *applogger.Logger, interval time.Duration, maxStep float64) *RandomWalker {
	if interval <= 0 {
		interval = 20 * time.Second
	}
	if maxStep <= 0 {
		maxStep = 5
	}
	return &RandomWalker{
		book:     book,
		metrics:  metrics,
		logger:   logger,
		interval: interval,
		maxStep:  maxStep,
		rnd:      rand.Float64,
	}
}

// Step applies one perturbation to every instrument.
func (w *RandomWalker) Step() {
	start := time.Now()
	for _, sym := range w.book.Symbols() {
		delta := (w.rnd()*2 - 1) * w.maxStep
		if _, err := w.book.Apply(sym, models.TickSourceWalk, func(p float64) float64 { return p + delta }); err != nil {
			w.metrics.RecordError("walk")
			w.logger.Warn("random walk update failed", applogger.String("symbol", sym), applogger.Error(err))
		}
	}
	w.metrics.RecordLatency("walk_step", time.Since(start).Seconds())
}

// Run steps on every tick until ctx is cancelled.
func (w *RandomWalker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("random walk started", applogger.Duration("interval_ms", w.interval), applogger.Float64("max_step", w.maxStep))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("random walk stopped")
			return ctx.Err()
		case <-ticker.C:
			w.Step()
		}
	}
}
