package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"MarketSim/internal/domain/market"
	"MarketSim/internal/domain/models"
	drepo "MarketSim/internal/domain/repository"
	"MarketSim/internal/service/ratelimit"
	applogger "MarketSim/pkg/logger"
)

// EventRecorder is notified after a manual event moved a price.
type EventRecorder interface {
	RecordEvent(ctx context.Context, ev *models.TriggeredEvent) error
}

var quoted = regexp.MustCompile(`"([^"]+)"`)

const addEventUsage = "Usage: `!addevent SYMBOL +/-0.10 \"Event message here\"`"

// CommandRouter maps chat commands onto market operations.
type CommandRouter struct {
	book       *market.PriceBook
	ledger     *market.EventLedger
	indexes    []models.IndexDefinition
	portfolios *PortfolioService
	events     EventRecorder
	limiter    *ratelimit.Limiter
	operatorID string
	prefix     string
	metrics    drepo.Metrics
	logger     *applogger.Logger
}

// RouterOption configures CommandRouter.
type RouterOption func(*CommandRouter)

// WithPortfolios enables the trading commands.
func WithPortfolios(s *PortfolioService) RouterOption {
	return func(r *CommandRouter) { r.portfolios = s }
}

// WithEventRecorder forwards triggered events, e.g. to the message bus.
func WithEventRecorder(e EventRecorder) RouterOption {
	return func(r *CommandRouter) { r.events = e }
}

// WithRateLimiter drops commands from callers exceeding their budget.
func WithRateLimiter(l *ratelimit.Limiter) RouterOption {
	return func(r *CommandRouter) { r.limiter = l }
}

// WithPrefix changes the command prefix (default "!").
func WithPrefix(p string) RouterOption {
	return func(r *CommandRouter) {
		if p != "" {
			r.prefix = p
		}
	}
}

func NewCommandRouter(
	book *market.PriceBook,
	ledger *market.EventLedger,
	indexes []models.IndexDefinition,
	operatorID string,
	metrics drepo.Metrics,
	logger *applogger.Logger,
	opts ...RouterOption,
) *CommandRouter {
	r := &CommandRouter{
		book:       book,
		ledger:     ledger,
		indexes:    indexes,
		operatorID: operatorID,
		prefix:     "!",
		metrics:    metrics,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle parses and executes one chat message. ok is false when the bot stays silent:
// the text is not a command, the caller is rate limited, or a privileged command came
// from someone other than the operator. The operator bypasses the rate limiter.
func (r *CommandRouter) Handle(ctx context.Context, cmd models.Command) (models.Reply, bool) {
	args := strings.Fields(cmd.Text)
	if len(args) == 0 || !strings.HasPrefix(args[0], r.prefix) {
		return models.Reply{}, false
	}
	name := strings.TrimPrefix(args[0], r.prefix)

	// The operator is never throttled so privileged commands are not lost.
	if r.limiter != nil && !r.isOperator(cmd.CallerID) && !r.limiter.Allow(cmd.CallerID) {
		r.metrics.RecordError("rate_limited")
		r.logger.Debug("command rate limited", applogger.String("caller", cmd.CallerID), applogger.String("command", name))
		return models.Reply{}, false
	}

	reply, ok := r.dispatch(ctx, cmd, name, args[1:])
	if ok {
		r.metrics.RecordCommand(name)
	}
	return reply, ok
}

func (r *CommandRouter) dispatch(ctx context.Context, cmd models.Command, name string, args []string) (models.Reply, bool) {
	switch name {
	case "stocks":
		return say(r.Stocks())
	case "index":
		return say(r.Index())
	case "price":
		if len(args) == 0 {
			return say("Usage: `!price SYMBOL`")
		}
		return say(r.Price(args[0]))
	case "addevent":
		if len(args) < 3 {
			if !r.isOperator(cmd.CallerID) {
				return models.Reply{}, false
			}
			return quote(addEventUsage)
		}
		change, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			change = math.NaN()
		}
		var narrative string
		if m := quoted.FindStringSubmatch(cmd.Text); m != nil {
			narrative = m[1]
		}
		text, ok := r.AddEvent(cmd.CallerID, args[0], change, narrative)
		if !ok {
			return models.Reply{}, false
		}
		return quote(text)
	case "clearevents":
		text, ok := r.ClearEvents(cmd.CallerID)
		if !ok {
			return models.Reply{}, false
		}
		return say(text)
	case "doevent":
		if !r.isOperator(cmd.CallerID) {
			return models.Reply{}, false
		}
		if len(args) == 0 {
			return quote("Usage: `!doevent INDEX`")
		}
		pos, err := strconv.Atoi(args[0])
		if err != nil {
			return quote(noEventAt(args[0]))
		}
		text, err := r.DoEvent(ctx, cmd.CallerID, pos)
		if err != nil {
			return quote(noEventAt(strconv.Itoa(pos)))
		}
		return say(text)
	case "events":
		if !r.isOperator(cmd.CallerID) {
			return models.Reply{}, false
		}
		return quote(r.Events())
	case "buy", "sell":
		if r.portfolios == nil {
			return models.Reply{}, false
		}
		if len(args) < 2 {
			return quote(fmt.Sprintf("Usage: `%s%s SYMBOL QUANTITY`", r.prefix, name))
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			qty = 0
		}
		return quote(r.Trade(ctx, cmd.CallerID, args[0], qty, name == "buy"))
	case "portfolio":
		if r.portfolios == nil {
			return models.Reply{}, false
		}
		return quote(r.Portfolio(ctx, cmd.CallerID))
	case "help":
		return say(r.Help())
	default:
		return models.Reply{}, false
	}
}

func noEventAt(position string) string {
	return fmt.Sprintf("⚠️ No event found at index %s", position)
}

func say(text string) (models.Reply, bool)   { return models.Reply{Text: text}, true }
func quote(text string) (models.Reply, bool) { return models.Reply{Text: text, Quote: true}, true }

func (r *CommandRouter) isOperator(caller string) bool {
	return caller != "" && caller == r.operatorID
}

// Stocks lists every instrument with price and trend.
func (r *CommandRouter) Stocks() string {
	return FormatStocks(r.book.Snapshot())
}

// Index lists every composite index value.
func (r *CommandRouter) Index() string {
	return FormatIndexes(market.ComputeIndexes(r.indexes, r.book))
}

// Price describes one instrument.
func (r *CommandRouter) Price(symbol string) string {
	symbol = strings.ToUpper(symbol)
	q, err := r.book.Quote(symbol)
	if err != nil {
		return notFound(symbol)
	}
	return fmt.Sprintf("%s is currently at $%.2f %s", symbol, q.Price, q.Trend.Direction.Emoji())
}

// AddEvent stores a new event. Non-operators get ok == false and nothing changes.
func (r *CommandRouter) AddEvent(caller, symbol string, change float64, narrative string) (string, bool) {
	if !r.isOperator(caller) {
		r.logger.Debug("privileged command ignored", applogger.String("caller", caller), applogger.Error(market.ErrUnauthorized))
		return "", false
	}
	symbol = strings.ToUpper(symbol)
	if _, err := r.ledger.Add(symbol, change, narrative); err != nil {
		switch {
		case errors.Is(err, market.ErrUnknownSymbol):
			return notFound(symbol), true
		case errors.Is(err, market.ErrInvalidEvent):
			return "Invalid format. Wrap the event message in quotes.", true
		default:
			r.logger.Error("add event failed", applogger.Error(err))
			return "Could not add the event.", true
		}
	}
	return fmt.Sprintf("✅ Event added! (%d total)", r.ledger.Len()), true
}

// ClearEvents empties the ledger. Non-operators get ok == false and nothing changes.
func (r *CommandRouter) ClearEvents(caller string) (string, bool) {
	if !r.isOperator(caller) {
		r.logger.Debug("privileged command ignored", applogger.String("caller", caller), applogger.Error(market.ErrUnauthorized))
		return "", false
	}
	r.ledger.Clear()
	return "🗑️ All custom events have been cleared.", true
}

// DoEvent triggers the event at position and returns the announcement. It fails
// with market.ErrUnauthorized for non-operators and market.ErrEventNotFound for
// a bad position; nothing changes in either case.
func (r *CommandRouter) DoEvent(ctx context.Context, caller string, position int) (string, error) {
	if !r.isOperator(caller) {
		r.logger.Debug("privileged command ignored", applogger.String("caller", caller), applogger.Error(market.ErrUnauthorized))
		return "", market.ErrUnauthorized
	}
	res, err := r.ledger.Trigger(position)
	if err != nil {
		if !errors.Is(err, market.ErrEventNotFound) {
			r.logger.Error("trigger event failed", applogger.Int("position", position), applogger.Error(err))
		}
		return "", fmt.Errorf("trigger event %d: %w", position, err)
	}

	r.logger.Info("manual event triggered",
		applogger.String("symbol", res.Event.Symbol),
		applogger.Float64("change", res.Event.Change),
		applogger.Float64("previous", res.Previous),
		applogger.Float64("price", res.Price),
	)
	if r.events != nil {
		if err := r.events.RecordEvent(ctx, &res); err != nil {
			r.metrics.RecordError("event_publish")
			r.logger.Warn("event publish failed", applogger.Error(err))
		}
	}
	return FormatEventTriggered(res.Event.Narrative, r.book.Snapshot()), nil
}

// Events lists the ledger for the operator.
func (r *CommandRouter) Events() string {
	events := r.ledger.List()
	if len(events) == 0 {
		return "No custom events queued."
	}
	lines := make([]string, len(events))
	for i, ev := range events {
		lines[i] = fmt.Sprintf("%d: %s %+.2f%% \"%s\"", i, ev.Symbol, ev.Change*100, ev.Narrative)
	}
	return "🗂️ **Custom Events**:\n" + strings.Join(lines, "\n")
}

// Trade executes a buy or sell for caller and describes the outcome.
func (r *CommandRouter) Trade(ctx context.Context, caller, symbol string, qty int, buy bool) string {
	symbol = strings.ToUpper(symbol)
	var (
		res TradeResult
		err error
	)
	if buy {
		res, err = r.portfolios.Buy(ctx, caller, symbol, qty)
	} else {
		res, err = r.portfolios.Sell(ctx, caller, symbol, qty)
	}
	switch {
	case err == nil:
	case errors.Is(err, market.ErrUnknownSymbol):
		return notFound(symbol)
	case errors.Is(err, ErrInvalidQuantity):
		return "Quantity must be a positive whole number."
	case errors.Is(err, ErrInsufficientFunds):
		return "💸 Not enough cash for that order."
	case errors.Is(err, ErrInsufficientHoldings):
		return fmt.Sprintf("You don't hold enough %s to sell.", symbol)
	default:
		r.metrics.RecordError("trade")
		r.logger.Error("trade failed", applogger.String("caller", caller), applogger.Error(err))
		return "Trade failed, try again later."
	}

	verb := "Bought"
	if !buy {
		verb = "Sold"
	}
	return fmt.Sprintf("✅ %s %d %s at $%.2f (total $%.2f). Cash: $%.2f",
		verb, res.Quantity, res.Symbol, res.Price, res.Total, res.Portfolio.Cash)
}

// Portfolio summarizes caller's cash and holdings.
func (r *CommandRouter) Portfolio(ctx context.Context, caller string) string {
	p, err := r.portfolios.Get(ctx, caller)
	if err != nil {
		r.logger.Error("portfolio load failed", applogger.String("caller", caller), applogger.Error(err))
		return "Portfolio unavailable, try again later."
	}
	value, _ := r.portfolios.Value(ctx, caller)

	var b strings.Builder
	fmt.Fprintf(&b, "💼 **Portfolio**\nCash: $%.2f\n", p.Cash)
	for _, sym := range r.book.Symbols() {
		if qty := p.Holdings[sym]; qty > 0 {
			price, _ := r.book.Get(sym)
			fmt.Fprintf(&b, "%s: %d × $%.2f\n", sym, qty, price)
		}
	}
	fmt.Fprintf(&b, "Holdings value: $%.2f", value)
	return b.String()
}

func (r *CommandRouter) Help() string {
	p := r.prefix
	lines := []string{
		"**Commands**",
		p + "stocks - current prices",
		p + "index - index values",
		p + "price SYMBOL - one instrument",
	}
	if r.portfolios != nil {
		lines = append(lines,
			p+"buy SYMBOL QTY / "+p+"sell SYMBOL QTY - trade",
			p+"portfolio - your holdings",
		)
	}
	return strings.Join(lines, "\n")
}

func notFound(symbol string) string {
	return fmt.Sprintf("Stock symbol `%s` not found.", symbol)
}
