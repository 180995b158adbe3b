package usecase

import (
	"MarketSim/internal/domain/market"
	"MarketSim/internal/domain/models"
	drepo "MarketSim/internal/domain/repository"
)

// ObservePriceMetrics keeps the price gauge and the tick counter current for every
// commit on book, whichever sink backend is configured.
func ObservePriceMetrics(book *market.PriceBook, m drepo.Metrics) {
	book.Subscribe(func(t models.PriceTick) {
		m.RecordPrice(t.Symbol, t.Price)
		m.RecordTick(string(t.Source))
	})
}
