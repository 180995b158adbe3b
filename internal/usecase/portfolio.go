package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"MarketSim/internal/domain/market"
	"MarketSim/internal/domain/models"
	drepo "MarketSim/internal/domain/repository"
	applogger "MarketSim/pkg/logger"
)

var (
	ErrInvalidQuantity      = errors.New("portfolio: quantity must be a positive integer")
	ErrInsufficientFunds    = errors.New("portfolio: insufficient funds")
	ErrInsufficientHoldings = errors.New("portfolio: insufficient holdings")
)

// TradeResult describes a completed buy or sell.
type TradeResult struct {
	Symbol    string
	Quantity  int
	Price     float64
	Total     float64
	Portfolio models.Portfolio
}

// PortfolioService executes simulated trades at current book prices and flushes
// the affected portfolio after every trade.
type PortfolioService struct {
	mu           sync.Mutex
	store        drepo.PortfolioStore
	book         *market.PriceBook
	startingCash float64
	logger       *applogger.Logger
}

func NewPortfolioService(store drepo.PortfolioStore, book *market.PriceBook, startingCash float64, logger *applogger.Logger) *PortfolioService {
	return &PortfolioService{store: store, book: book, startingCash: startingCash, logger: logger}
}

// Get returns the user's portfolio, or a fresh one if none was stored yet.
func (s *PortfolioService) Get(ctx context.Context, userID string) (models.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, userID)
}

func (s *PortfolioService) Buy(ctx context.Context, userID, symbol string, qty int) (TradeResult, error) {
	return s.trade(ctx, userID, symbol, qty, true)
}

func (s *PortfolioService) Sell(ctx context.Context, userID, symbol string, qty int) (TradeResult, error) {
	return s.trade(ctx, userID, symbol, qty, false)
}

// Value returns the market value of the user's holdings at current prices.
func (s *PortfolioService) Value(ctx context.Context, userID string) (float64, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	prices := s.book.Prices()
	total := decimal.Zero
	for sym, qty := range p.Holdings {
		total = total.Add(decimal.NewFromFloat(prices[sym]).Mul(decimal.NewFromInt(int64(qty))))
	}
	return total.Round(2).InexactFloat64(), nil
}

func (s *PortfolioService) trade(ctx context.Context, userID, symbol string, qty int, buy bool) (TradeResult, error) {
	if qty <= 0 {
		return TradeResult{}, ErrInvalidQuantity
	}
	price, err := s.book.Get(symbol)
	if err != nil {
		return TradeResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.load(ctx, userID)
	if err != nil {
		return TradeResult{}, err
	}

	cash := decimal.NewFromFloat(p.Cash)
	total := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(qty))).Round(2)
	if buy {
		if cash.LessThan(total) {
			return TradeResult{}, fmt.Errorf("%w: need $%s, have $%s", ErrInsufficientFunds, total.StringFixed(2), cash.StringFixed(2))
		}
		cash = cash.Sub(total)
		p.Holdings[symbol] += qty
	} else {
		if p.Holdings[symbol] < qty {
			return TradeResult{}, fmt.Errorf("%w: hold %d %s", ErrInsufficientHoldings, p.Holdings[symbol], symbol)
		}
		cash = cash.Add(total)
		p.Holdings[symbol] -= qty
		if p.Holdings[symbol] == 0 {
			delete(p.Holdings, symbol)
		}
	}
	p.Cash = cash.Round(2).InexactFloat64()

	if err := s.store.Save(ctx, userID, p); err != nil {
		return TradeResult{}, fmt.Errorf("save portfolio: %w", err)
	}

	s.logger.Info("trade executed",
		applogger.String("user", userID),
		applogger.String("symbol", symbol),
		applogger.Int("qty", qty),
		applogger.Bool("buy", buy),
		applogger.Float64("price", price),
	)
	return TradeResult{
		Symbol:    symbol,
		Quantity:  qty,
		Price:     price,
		Total:     total.InexactFloat64(),
		Portfolio: p.Clone(),
	}, nil
}

func (s *PortfolioService) load(ctx context.Context, userID string) (models.Portfolio, error) {
	p, ok, err := s.store.Load(ctx, userID)
	if err != nil {
		return models.Portfolio{}, fmt.Errorf("load portfolio: %w", err)
	}
	if !ok {
		return models.Portfolio{Cash: s.startingCash, Holdings: map[string]int{}}, nil
	}
	if p.Holdings == nil {
		p.Holdings = map[string]int{}
	}
	return p, nil
}
