package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"MarketSim/internal/domain/market"
	"MarketSim/internal/domain/models"
	drepo "MarketSim/internal/domain/repository"
	applogger "MarketSim/pkg/logger"
	"MarketSim/pkg/util"
)

type SchedulerState int32

const (
	StateIdle SchedulerState = iota
	StateComputing
	StateBroadcasting
	StateWaiting
)

func (s SchedulerState) String() string {
	switch s {
	case StateComputing:
		return "computing"
	case StateBroadcasting:
		return "broadcasting"
	case StateWaiting:
		return "waiting"
	default:
		return "idle"
	}
}

const broadcastTimeout = 30 * time.Second

// SchedulerOption configures ReportScheduler.
type SchedulerOption func(*ReportScheduler)

// WithSchedulerClock injects the time source; tests use a fake clock.
func WithSchedulerClock(c Clock) SchedulerOption {
	return func(s *ReportScheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithDefaultInterval sets the interval used on days no rule covers.
func WithDefaultInterval(minutes int) SchedulerOption {
	return func(s *ReportScheduler) {
		if minutes > 0 {
			s.defaultMinutes = minutes
		}
	}
}

// ReportScheduler broadcasts a market report, then waits a weekday-dependent interval.
type ReportScheduler struct {
	book           *market.PriceBook
	indexes        []models.IndexDefinition
	rules          []models.ScheduleRule
	defaultMinutes int
	broadcaster    drepo.Broadcaster
	channelID      string
	clock          Clock
	metrics        drepo.Metrics
	logger         *applogger.Logger

	state  atomic.Int32
	cycles atomic.Int64
}

func NewReportScheduler(
	book *market.PriceBook,
	indexes []models.IndexDefinition,
	rules []models.ScheduleRule,
	broadcaster drepo.Broadcaster,
	channelID string,
	metrics drepo.Metrics,
	logger *applogger.Logger,
	opts ...SchedulerOption,
) *ReportScheduler {
	s := &ReportScheduler{
		book:           book,
		indexes:        indexes,
		rules:          rules,
		defaultMinutes: models.DefaultReportMinutes,
		broadcaster:    broadcaster,
		channelID:      channelID,
		clock:          SystemClock(),
		metrics:        metrics,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IntervalFor returns the wait that follows a report sent on day. The first rule
// listing day wins.
func (s *ReportScheduler) IntervalFor(day time.Weekday) time.Duration {
	for _, r := range s.rules {
		if r.Applies(day) {
			return time.Duration(r.IntervalMinutes) * time.Minute
		}
	}
	return time.Duration(s.defaultMinutes) * time.Minute
}

// Schedule describes the configured cadence and the interval in force today.
func (s *ReportScheduler) Schedule() models.ScheduleView {
	day := util.UTCWeekday(s.clock.Now())
	rules := make([]models.ScheduleRuleView, len(s.rules))
	for i, r := range s.rules {
		rules[i] = models.ScheduleRuleView{Days: util.WeekdayNames(r.Days), IntervalMinutes: r.IntervalMinutes}
	}
	return models.ScheduleView{
		Today:           day.String(),
		IntervalMinutes: int(s.IntervalFor(day) / time.Minute),
		DefaultMinutes:  s.defaultMinutes,
		Rules:           rules,
		State:           s.State().String(),
		Cycles:          s.Cycles(),
	}
}

// State reports where the loop currently is.
func (s *ReportScheduler) State() SchedulerState {
	return SchedulerState(s.state.Load())
}

// Cycles counts broadcast attempts so far.
func (s *ReportScheduler) Cycles() int64 {
	return s.cycles.Load()
}

// Cycle computes and broadcasts one report and returns how long to wait before the
// next one. Delivery failures are logged, never returned.
func (s *ReportScheduler) Cycle(ctx context.Context) time.Duration {
	s.state.Store(int32(StateComputing))
	day := util.UTCWeekday(s.clock.Now())
	wait := s.IntervalFor(day)

	quotes := s.book.Snapshot()
	values := market.ComputeIndexes(s.indexes, s.book)
	for _, v := range values {
		s.metrics.RecordIndex(v.Name, v.Value)
	}
	report := FormatReport(day.String(), quotes, values)

	s.state.Store(int32(StateBroadcasting))
	sendCtx, cancel := context.WithTimeout(ctx, broadcastTimeout)
	err := s.broadcaster.Send(sendCtx, s.channelID, report)
	cancel()
	s.cycles.Add(1)

	if err != nil {
		s.metrics.RecordBroadcast(false)
		s.logger.Error("market report broadcast failed",
			applogger.String("day", day.String()),
			applogger.String("channel", s.channelID),
			applogger.Error(err),
		)
	} else {
		s.metrics.RecordBroadcast(true)
		s.logger.Info("market report sent",
			applogger.String("day", day.String()),
			applogger.Duration("next_in_ms", wait),
		)
	}
	return wait
}

// Run repeats report cycles until ctx is cancelled. The wait holds no locks.
func (s *ReportScheduler) Run(ctx context.Context) error {
	defer s.state.Store(int32(StateIdle))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		wait := s.Cycle(ctx)

		s.state.Store(int32(StateWaiting))
		select {
		case <-ctx.Done():
			s.logger.Info("report scheduler stopped")
			return ctx.Err()
		case <-s.clock.After(wait):
		}
		s.state.Store(int32(StateIdle))
	}
}
