package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/HAESOL87/beSpoked-bikes/internal/domain"
	"github.com/HAESOL87/beSpoked-bikes/internal/pricing"
	"github.com/HAESOL87/beSpoked-bikes/internal/store"
)

// naiveTimestamp is the timezone-naive layout every date in the system uses.
const naiveTimestamp = "2006-01-02T15:04:05"

type Service struct {
	repo store.Repository
	now  func() time.Time
}

func New(repo store.Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// NewWithClock is for tests that pin "today".
func NewWithClock(repo store.Repository, now func() time.Time) *Service {
	return &Service{repo: repo, now: now}
}

func (s *Service) today() string {
	return s.now().Format(time.DateOnly)
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id int) (*domain.Product, error) {
	return s.repo.GetProductByID(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (*domain.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Manufacturer = strings.TrimSpace(req.Manufacturer)

	if req.Name == "" || req.Manufacturer == "" {
		return nil, fmt.Errorf("name and manufacturer are required: %w", store.ErrInvalidInput)
	}
	if req.QtyOnHand < 0 {
		return nil, fmt.Errorf("qtyOnHand must not be negative: %w", store.ErrInvalidInput)
	}
	if req.CommissionPercentage < 0 || req.CommissionPercentage > 100 {
		return nil, fmt.Errorf("commissionPercentage must be between 0 and 100: %w", store.ErrInvalidInput)
	}

	return s.repo.CreateProduct(ctx, domain.Product{
		Name:                 req.Name,
		Manufacturer:         req.Manufacturer,
		Style:                req.Style,
		PurchasePrice:        req.PurchasePrice,
		SalePrice:            req.SalePrice,
		QtyOnHand:            req.QtyOnHand,
		CommissionPercentage: req.CommissionPercentage,
	})
}

func (s *Service) UpdateProduct(ctx context.Context, id int, req domain.ProductUpdateRequest) (*domain.Product, error) {
	return s.repo.UpdateProduct(ctx, id, req)
}

func (s *Service) ListSalespersons(ctx context.Context, activeOnly bool) ([]domain.Salesperson, error) {
	salespersons, err := s.repo.ListSalespersons(ctx)
	if err != nil {
		return nil, err
	}
	if !activeOnly {
		return salespersons, nil
	}

	today := s.today()
	active := make([]domain.Salesperson, 0, len(salespersons))
	for _, sp := range salespersons {
		if sp.ActiveOn(today) {
			active = append(active, sp)
		}
	}
	return active, nil
}

func (s *Service) GetSalesperson(ctx context.Context, id int) (*domain.Salesperson, error) {
	return s.repo.GetSalespersonByID(ctx, id)
}

func (s *Service) CreateSalesperson(ctx context.Context, req domain.SalespersonCreateRequest) (*domain.Salesperson, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Phone = strings.TrimSpace(req.Phone)

	if req.FirstName == "" || req.LastName == "" || req.Phone == "" {
		return nil, fmt.Errorf("firstName, lastName and phone are required: %w", store.ErrInvalidInput)
	}

	return s.repo.CreateSalesperson(ctx, domain.Salesperson{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Address:         req.Address,
		Phone:           req.Phone,
		StartDate:       req.StartDate,
		TerminationDate: req.TerminationDate,
		Manager:         req.Manager,
	})
}

func (s *Service) UpdateSalesperson(ctx context.Context, id int, req domain.SalespersonUpdateRequest) (*domain.Salesperson, error) {
	return s.repo.UpdateSalesperson(ctx, id, req)
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) GetCustomer(ctx context.Context, id int) (*domain.Customer, error) {
	return s.repo.GetCustomerByID(ctx, id)
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (*domain.Customer, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Phone = strings.TrimSpace(req.Phone)

	if req.FirstName == "" || req.LastName == "" || req.Phone == "" {
		return nil, fmt.Errorf("firstName, lastName and phone are required: %w", store.ErrInvalidInput)
	}

	return s.repo.CreateCustomer(ctx, domain.Customer{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
		Phone:     req.Phone,
		StartDate: req.StartDate,
	})
}

func (s *Service) UpdateCustomer(ctx context.Context, id int, req domain.CustomerUpdateRequest) (*domain.Customer, error) {
	return s.repo.UpdateCustomer(ctx, id, req)
}

func (s *Service) ListSales(ctx context.Context) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx)
}

// ListPricedSales returns every detail record with its pricing fields
// computed against the current discount windows.
func (s *Service) ListPricedSales(ctx context.Context) ([]domain.PricedSale, error) {
	sales, err := s.repo.ListSalesWithDetails(ctx)
	if err != nil {
		return nil, err
	}
	discounts, err := s.repo.ListDiscounts(ctx)
	if err != nil {
		return nil, err
	}

	priced := make([]domain.PricedSale, 0, len(sales))
	for _, sale := range sales {
		quote := pricing.Price(sale.Product, sale.Quantity, sale.Date, discounts)
		priced = append(priced, domain.PricedSale{
			SaleWithDetails: sale,
			OriginalPrice:   quote.OriginalPrice,
			DiscountStatus:  quote.DiscountStatus,
			DiscountRate:    quote.DiscountRate,
			DiscountAmount:  quote.DiscountAmount,
			FinalPrice:      quote.FinalPrice,
			Commission:      quote.Commission,
		})
	}
	return priced, nil
}

func (s *Service) ListSalesByDateRange(ctx context.Context, startDate string, endDate string) ([]domain.SaleWithDetails, error) {
	if startDate == "" || endDate == "" {
		return nil, fmt.Errorf("startDate and endDate are required: %w", store.ErrInvalidInput)
	}
	return s.repo.ListSalesByDateRange(ctx, startDate, endDate)
}

// ListFormattedSales returns detail records in the flat legacy shape: no
// pricing fields and no quantity.
func (s *Service) ListFormattedSales(ctx context.Context) ([]domain.SaleWithDetails, error) {
	sales, err := s.repo.ListSalesWithDetails(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sales {
		sales[i].Quantity = 0
	}
	return sales, nil
}

func (s *Service) GetSale(ctx context.Context, id int) (*domain.Sale, error) {
	return s.repo.GetSaleByID(ctx, id)
}

func (s *Service) CreateSale(ctx context.Context, req domain.SaleCreateRequest) (*domain.Sale, error) {
	if req.ProductID <= 0 || req.SalesPersonID <= 0 || req.CustomerID <= 0 {
		return nil, fmt.Errorf("productId, salesPersonId and customerId are required: %w", store.ErrInvalidInput)
	}
	if req.Date == "" {
		req.Date = s.now().Format(naiveTimestamp)
	}

	return s.repo.CreateSale(ctx, domain.Sale{
		ProductID:     req.ProductID,
		SalesPersonID: req.SalesPersonID,
		CustomerID:    req.CustomerID,
		Date:          req.Date,
	})
}

func (s *Service) ListDiscounts(ctx context.Context, activeOnly bool) ([]domain.Discount, error) {
	discounts, err := s.repo.ListDiscounts(ctx)
	if err != nil {
		return nil, err
	}
	if !activeOnly {
		return discounts, nil
	}

	today := s.today()
	active := make([]domain.Discount, 0, len(discounts))
	for _, d := range discounts {
		if d.Covers(today) {
			active = append(active, d)
		}
	}
	return active, nil
}

// CommissionReport prices every sale in the given quarter and projects it
// into a report row. Pricing uses the product's current record, not the
// snapshot frozen on the detail record, which matches how the report has
// always behaved. salesPersonID of zero means no salesperson filter.
func (s *Service) CommissionReport(ctx context.Context, quarter int, year int, salesPersonID int) ([]domain.CommissionReportRow, error) {
	if quarter < 1 || quarter > 4 || year <= 0 {
		return nil, fmt.Errorf("quarter must be 1-4 and year positive: %w", store.ErrInvalidInput)
	}

	startDate, endDate := pricing.QuarterWindow(quarter, year)
	sales, err := s.repo.ListSalesByDateRange(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}
	discounts, err := s.repo.ListDiscounts(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	salespersons, err := s.repo.ListSalespersons(ctx)
	if err != nil {
		return nil, err
	}

	productsByID := make(map[int]domain.Product, len(products))
	for _, p := range products {
		productsByID[p.ID] = p
	}
	salespersonsByID := make(map[int]domain.Salesperson, len(salespersons))
	for _, sp := range salespersons {
		salespersonsByID[sp.ID] = sp
	}

	rows := make([]domain.CommissionReportRow, 0, len(sales))
	for _, sale := range sales {
		if salesPersonID != 0 && sale.SalesPersonID != salesPersonID {
			continue
		}

		product, ok := productsByID[sale.ProductID]
		if !ok {
			product = sale.Product
		}
		salesperson, ok := salespersonsByID[sale.SalesPersonID]
		if !ok {
			salesperson = sale.SalesPerson
		}

		quantity := sale.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		quote := pricing.Price(product, quantity, sale.Date, discounts)

		rows = append(rows, domain.CommissionReportRow{
			SaleID:          sale.ID,
			SalespersonName: fmt.Sprintf("%s %s", salesperson.FirstName, salesperson.LastName),
			Date:            sale.Date,
			ProductName:     product.Name,
			Quantity:        quantity,
			DiscountStatus:  quote.DiscountStatus,
			DiscountRate:    quote.DiscountRate,
			OriginalPrice:   quote.OriginalPrice,
			FinalPrice:      quote.FinalPrice,
			Commission:      quote.Commission,
			Quarter:         fmt.Sprintf("Q%d", quarter),
			Year:            year,
		})
	}
	return rows, nil
}
