package service

import (
	"github.com/kunalverma25/flash-sale-backend/internal/models"
	"github.com/shopspring/decimal"
)

// taxRate is the flat sales tax applied to every order.
var taxRate = decimal.NewFromFloat(0.10)

// computeTotals derives subtotal, tax and total for an order snapshot.
// Tax is rounded to 2 decimals before summing, so total = subtotal +
// round2(subtotal * 0.10) exactly.
func computeTotals(items []models.OrderItem) (subtotal, tax, total float64) {

	sub := decimal.Zero

	for _, item := range items {
		line := decimal.NewFromFloat(item.UnitPrice).Mul(decimal.NewFromInt(item.Quantity))
		sub = sub.Add(line)
	}

	sub = sub.Round(2)
	taxAmount := sub.Mul(taxRate).Round(2)

	subtotal, _ = sub.Float64()
	tax, _ = taxAmount.Float64()
	total, _ = sub.Add(taxAmount).Float64()

	return subtotal, tax, total
}
