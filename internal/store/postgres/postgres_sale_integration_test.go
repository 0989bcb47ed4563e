package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/HAESOL87/beSpoked-bikes/internal/domain"
)

func TestCreateSaleAdjustsInventory(t *testing.T) {
	databaseURL := os.Getenv("BESPOKED_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set BESPOKED_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	name := fmt.Sprintf("Integration Bike %d", stamp)

	product, err := s.CreateProduct(ctx, domain.Product{
		Name:                 name,
		Manufacturer:         "Integration Works",
		Style:                domain.StyleMountain,
		SalePrice:            999,
		QtyOnHand:            2,
		CommissionPercentage: 5,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	salesperson, err := s.CreateSalesperson(ctx, domain.Salesperson{
		FirstName: "Integration",
		LastName:  fmt.Sprintf("Seller-%d", stamp),
		Phone:     fmt.Sprintf("%d", stamp),
	})
	if err != nil {
		t.Fatalf("create salesperson: %v", err)
	}
	customer, err := s.CreateCustomer(ctx, domain.Customer{
		FirstName: "Integration",
		LastName:  fmt.Sprintf("Buyer-%d", stamp),
		Phone:     fmt.Sprintf("c%d", stamp),
	})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sales WHERE product_id = $1`, product.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, product.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM salespersons WHERE id = $1`, salesperson.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, customer.ID)
	})

	first, err := s.CreateSale(ctx, domain.Sale{
		ProductID:     product.ID,
		SalesPersonID: salesperson.ID,
		CustomerID:    customer.ID,
		Date:          "2025-06-26T00:00:00",
	})
	if err != nil {
		t.Fatalf("first sale: %v", err)
	}

	if _, err := s.CreateSale(ctx, domain.Sale{
		ProductID:     product.ID,
		SalesPersonID: salesperson.ID,
		CustomerID:    customer.ID,
		Date:          "2025-06-27T00:00:00",
	}); err != nil {
		t.Fatalf("second sale: %v", err)
	}

	got, err := s.GetProductByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got.QtyOnHand != 0 {
		t.Fatalf("expected qty 0 after two sales, got %d", got.QtyOnHand)
	}

	sales, err := s.ListSalesWithDetails(ctx)
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	for _, sale := range sales {
		if sale.ID == first.ID && sale.Product.QtyOnHand != 0 {
			t.Fatalf("expected first sale snapshot re-propagated to 0, got %d", sale.Product.QtyOnHand)
		}
	}

	if _, err := s.CreateSale(ctx, domain.Sale{
		ProductID:     product.ID,
		SalesPersonID: salesperson.ID,
		CustomerID:    customer.ID,
		Date:          "2025-06-28T00:00:00",
	}); err == nil {
		t.Fatal("expected out of stock error on third sale")
	}
}
