package pricing

import (
	"math"
	"testing"

	"github.com/HAESOL87/beSpoked-bikes/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPriceWithDiscount(t *testing.T) {
	product := domain.Product{ID: 1, Name: "The Big Boys", SalePrice: 1000, CommissionPercentage: 11.06}
	discounts := []domain.Discount{
		{ID: 13, ProductID: 1, BeginDate: "2025-05-12T00:00:00", EndDate: "2025-06-30T00:00:00", Percentage: 40},
	}

	quote := Price(product, 1, "2025-06-19T00:00:00", discounts)

	if !almostEqual(quote.OriginalPrice, 1000) {
		t.Fatalf("expected original 1000, got %v", quote.OriginalPrice)
	}
	if quote.DiscountStatus != domain.DiscountStatusApplied {
		t.Fatalf("expected status %q, got %q", domain.DiscountStatusApplied, quote.DiscountStatus)
	}
	if !almostEqual(quote.DiscountRate, 40) {
		t.Fatalf("expected rate 40, got %v", quote.DiscountRate)
	}
	if !almostEqual(quote.DiscountAmount, 400) {
		t.Fatalf("expected discount amount 400, got %v", quote.DiscountAmount)
	}
	if !almostEqual(quote.FinalPrice, 600) {
		t.Fatalf("expected final 600, got %v", quote.FinalPrice)
	}
	// Commission is computed on the discounted price: 600 * 11.06% = 66.36.
	if !almostEqual(quote.Commission, 66.36) {
		t.Fatalf("expected commission 66.36, got %v", quote.Commission)
	}
}

func TestPriceWithoutDiscount(t *testing.T) {
	product := domain.Product{ID: 2, Name: "Jumpers", SalePrice: 2201, CommissionPercentage: 2}

	quote := Price(product, 1, "2025-05-19T00:00:00", nil)

	if quote.DiscountStatus != domain.DiscountStatusNone {
		t.Fatalf("expected status %q, got %q", domain.DiscountStatusNone, quote.DiscountStatus)
	}
	if !almostEqual(quote.OriginalPrice, 2201) || !almostEqual(quote.FinalPrice, 2201) {
		t.Fatalf("expected 2201 original and final, got %v / %v", quote.OriginalPrice, quote.FinalPrice)
	}
	if !almostEqual(quote.DiscountAmount, 0) || !almostEqual(quote.DiscountRate, 0) {
		t.Fatalf("expected zero discount fields, got amount %v rate %v", quote.DiscountAmount, quote.DiscountRate)
	}
	if !almostEqual(quote.Commission, 44.02) {
		t.Fatalf("expected commission 44.02, got %v", quote.Commission)
	}
}

func TestPriceQuantity(t *testing.T) {
	product := domain.Product{ID: 3, SalePrice: 125, CommissionPercentage: 10}

	if quote := Price(product, 0, "2025-01-01T00:00:00", nil); !almostEqual(quote.OriginalPrice, 125) {
		t.Fatalf("expected zero quantity to price as one unit, got %v", quote.OriginalPrice)
	}
	if quote := Price(product, 3, "2025-01-01T00:00:00", nil); !almostEqual(quote.OriginalPrice, 375) {
		t.Fatalf("expected 375 for quantity 3, got %v", quote.OriginalPrice)
	}
}

func TestFindDiscountFirstMatchWins(t *testing.T) {
	discounts := []domain.Discount{
		{ID: 9, ProductID: 2, BeginDate: "2025-06-01T00:00:00", EndDate: "2025-06-27T00:00:00", Percentage: 20},
		{ID: 12, ProductID: 2, BeginDate: "2025-06-01T00:00:00", EndDate: "2025-06-30T00:00:00", Percentage: 40},
	}

	found := FindDiscount(2, "2025-06-24T00:00:00", discounts)
	if found == nil {
		t.Fatal("expected a discount")
	}
	if found.ID != 9 {
		t.Fatalf("expected first window (id 9) to win, got id %d", found.ID)
	}
}

func TestFindDiscountWindowBoundaries(t *testing.T) {
	discounts := []domain.Discount{
		{ID: 1, ProductID: 1, BeginDate: "2025-06-01T00:00:00", EndDate: "2025-06-30T00:00:00", Percentage: 10},
	}

	if FindDiscount(1, "2025-06-01T00:00:00", discounts) == nil {
		t.Fatal("expected begin date to be inclusive")
	}
	if FindDiscount(1, "2025-06-30T23:59:59", discounts) == nil {
		t.Fatal("expected end date to be inclusive at day granularity")
	}
	if FindDiscount(1, "2025-07-01T00:00:00", discounts) != nil {
		t.Fatal("expected no match after the window")
	}
	if FindDiscount(2, "2025-06-15T00:00:00", discounts) != nil {
		t.Fatal("expected no match for another product")
	}
}

func TestQuarterWindow(t *testing.T) {
	cases := []struct {
		quarter int
		year    int
		start   string
		end     string
	}{
		{1, 2025, "2025-01-01", "2025-03-31"},
		{2, 2025, "2025-04-01", "2025-06-31"},
		{4, 2024, "2024-10-01", "2024-12-31"},
	}
	for _, tc := range cases {
		start, end := QuarterWindow(tc.quarter, tc.year)
		if start != tc.start || end != tc.end {
			t.Fatalf("Q%d %d: expected [%s, %s], got [%s, %s]", tc.quarter, tc.year, tc.start, tc.end, start, end)
		}
	}
}
