package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/HAESOL87/beSpoked-bikes/internal/domain"
)

var oneHundred = decimal.NewFromInt(100)

// Quote is the result of pricing a single sale: the gross price, the applied
// discount (if any), the discounted price, and the commission computed on the
// discounted price. No rounding is applied; display layers round for currency.
type Quote struct {
	OriginalPrice  float64
	DiscountStatus string
	DiscountRate   float64
	DiscountAmount float64
	FinalPrice     float64
	Commission     float64
}

// FindDiscount returns the first discount whose product matches and whose
// window covers the sale date, or nil. Callers pass discounts in ascending id
// order, which makes the historical first-match rule deterministic when
// windows for the same product overlap.
func FindDiscount(productID int, saleDate string, discounts []domain.Discount) *domain.Discount {
	for i := range discounts {
		if discounts[i].ProductID == productID && discounts[i].Covers(saleDate) {
			return &discounts[i]
		}
	}
	return nil
}

// Price computes the quote for one sale of the given product. A quantity of
// zero or less is treated as one.
func Price(product domain.Product, quantity int, saleDate string, discounts []domain.Discount) Quote {
	if quantity <= 0 {
		quantity = 1
	}

	original := decimal.NewFromFloat(product.SalePrice).Mul(decimal.NewFromInt(int64(quantity)))

	quote := Quote{
		OriginalPrice:  original.InexactFloat64(),
		DiscountStatus: domain.DiscountStatusNone,
		FinalPrice:     original.InexactFloat64(),
	}

	final := original
	if discount := FindDiscount(product.ID, saleDate, discounts); discount != nil {
		rate := decimal.NewFromFloat(discount.Percentage)
		amount := original.Mul(rate).Div(oneHundred)
		final = original.Sub(amount)

		quote.DiscountStatus = domain.DiscountStatusApplied
		quote.DiscountRate = discount.Percentage
		quote.DiscountAmount = amount.InexactFloat64()
		quote.FinalPrice = final.InexactFloat64()
	}

	commission := final.Mul(decimal.NewFromFloat(product.CommissionPercentage)).Div(oneHundred)
	quote.Commission = commission.InexactFloat64()

	return quote
}

// QuarterWindow returns the inclusive date-only bounds of the given calendar
// quarter. The end day is the literal "31" for every month; with lexical
// date-string comparison this can never admit a date past the true month end,
// since no valid date string exceeds it.
func QuarterWindow(quarter int, year int) (string, string) {
	startMonth := (quarter-1)*3 + 1
	endMonth := quarter * 3
	start := fmt.Sprintf("%04d-%02d-01", year, startMonth)
	end := fmt.Sprintf("%04d-%02d-31", year, endMonth)
	return start, end
}
