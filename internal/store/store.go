package store

import (
	"context"
	"errors"

	"github.com/HAESOL87/beSpoked-bikes/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrOutOfStock   = errors.New("out of stock")
	ErrDuplicate    = errors.New("duplicate record")
	ErrInvalidInput = errors.New("invalid input")
)

// Repository is the entity store. Implementations enforce the identity and
// duplicate invariants (sale ids max+1, other ids count+1; product unique by
// name+manufacturer, salesperson/customer unique by first+last+phone) and
// perform the inventory adjustment atomically on sale creation.
type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id int) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int, updates domain.ProductUpdateRequest) (*domain.Product, error)

	ListSalespersons(ctx context.Context) ([]domain.Salesperson, error)
	GetSalespersonByID(ctx context.Context, id int) (*domain.Salesperson, error)
	CreateSalesperson(ctx context.Context, salesperson domain.Salesperson) (*domain.Salesperson, error)
	UpdateSalesperson(ctx context.Context, id int, updates domain.SalespersonUpdateRequest) (*domain.Salesperson, error)

	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	GetCustomerByID(ctx context.Context, id int) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, id int, updates domain.CustomerUpdateRequest) (*domain.Customer, error)

	ListSales(ctx context.Context) ([]domain.Sale, error)
	ListSalesWithDetails(ctx context.Context) ([]domain.SaleWithDetails, error)
	ListSalesByDateRange(ctx context.Context, startDate string, endDate string) ([]domain.SaleWithDetails, error)
	GetSaleByID(ctx context.Context, id int) (*domain.Sale, error)
	// CreateSale creates the sale record, appends its detail record, and
	// decrements the product's on-hand quantity by one, propagating the new
	// quantity into every existing detail-record snapshot of the product.
	// Fails with ErrNotFound when the product does not exist and ErrOutOfStock
	// when its quantity is zero; no state is mutated on failure.
	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)

	ListDiscounts(ctx context.Context) ([]domain.Discount, error)
}
