package market

import (
	"github.com/shopspring/decimal"

	"MarketSim/internal/domain/models"
)

// PriceSource exposes a point-in-time copy of all prices.
type PriceSource interface {
	Prices() map[string]float64
}

// ComputeIndexes averages member prices per definition, rounded to 2 decimals, in
// definition order. A member without a price adds 0 to the sum but still counts
// toward the divisor.
func ComputeIndexes(defs []models.IndexDefinition, src PriceSource) []models.IndexValue {
	prices := src.Prices()
	out := make([]models.IndexValue, 0, len(defs))
	for _, d := range defs {
		out = append(out, models.IndexValue{Name: d.Name, Value: average(d.Members, prices)})
	}
	return out
}

func average(members []string, prices map[string]float64) float64 {
	if len(members) == 0 {
		return 0
	}
	var total float64
	for _, m := range members {
		total += prices[m]
	}
	// Rounds the exact binary value, half away from zero, as JavaScript's toFixed does.
	return decimal.NewFromFloatWithExponent(total/float64(len(members)), -2).InexactFloat64()
}
