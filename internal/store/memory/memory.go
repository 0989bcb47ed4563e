package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/HAESOL87/beSpoked-bikes/internal/domain"
	"github.com/HAESOL87/beSpoked-bikes/internal/store"
)

// Store keeps every entity in ordered slices guarded by one RWMutex. Slice
// order is load-bearing: discount lookup is first-match in ascending id order,
// and new product/salesperson/customer ids are count+1.
type Store struct {
	mu           sync.RWMutex
	products     []domain.Product
	salespersons []domain.Salesperson
	customers    []domain.Customer
	sales        []domain.SaleWithDetails
	discounts    []domain.Discount
}

func New() *Store {
	return &Store{}
}

// NewSeeded returns a store loaded with the sample dataset: four products,
// five salespersons, four customers, fourteen detail records, and six
// discount windows.
func NewSeeded() *Store {
	s := &Store{
		products: []domain.Product{
			{ID: 1, Name: "The Big Boys", Manufacturer: "Big Boy Bikes", Style: domain.StyleMountain, PurchasePrice: 500, SalePrice: 1000, QtyOnHand: 8, CommissionPercentage: 11.06},
			{ID: 2, Name: "Jumpers", Manufacturer: "Trickster Bikes", Style: domain.StyleTrick, PurchasePrice: 800, SalePrice: 2201, QtyOnHand: 8, CommissionPercentage: 2},
			{ID: 3, Name: "Balance Bike", Manufacturer: "Hasbro", Style: domain.StyleToddler, PurchasePrice: 25, SalePrice: 125, QtyOnHand: 50, CommissionPercentage: 10},
			{ID: 4, Name: "Tricycles", Manufacturer: "Toycycles", Style: domain.StyleToddler, PurchasePrice: 35, SalePrice: 135, QtyOnHand: 5, CommissionPercentage: 10},
		},
		salespersons: []domain.Salesperson{
			{ID: 1, FirstName: "Stanley", LastName: "Lee", Address: "8854 Pine View Drive", Phone: "404-897-5544", StartDate: "2025-06-04T00:00:00", TerminationDate: "2025-06-06T00:00:00", Manager: "Jonathan Reed"},
			{ID: 2, FirstName: "Clark", LastName: "Waite", Address: "2607 Hawthorne PL NE", Phone: "229-300-9699", StartDate: "2025-06-17T00:00:00", TerminationDate: "2025-06-27T00:00:00", Manager: "Sawyer Waite"},
			{ID: 6, FirstName: "Henry", LastName: "Ford", Address: "68 Mustang Drive", Phone: "123-345-5678", StartDate: "2025-05-19T00:00:00", TerminationDate: "2025-05-20T00:00:00", Manager: "Clara Bryant Ford"},
			{ID: 12, FirstName: "Johny", LastName: "Doess", Address: "2607 Hawthorne PL NE", Phone: "333-4444-6666", StartDate: "2025-06-29T00:00:00", TerminationDate: "2025-06-26T00:00:00", Manager: "Sawyer Waite"},
			{ID: 14, FirstName: "Clark", LastName: "Doe", Address: "2607 Hawthorne PL NE", Phone: "555-555-5555", StartDate: "2025-06-05T00:00:00", TerminationDate: "2025-07-07T00:00:00", Manager: "Sawyer Wait"},
		},
		customers: []domain.Customer{
			{ID: 1, FirstName: "Johnyy", LastName: "Doe", Address: "789 Pine Sts5", Phone: "555-3333", StartDate: "2023-03-10T00:00:00"},
			{ID: 3, FirstName: "Clark", LastName: "Kent", Address: "2607 Hawthorne Pl NE", Phone: "229-300-9697", StartDate: "2025-05-19T00:00:00"},
			{ID: 6, FirstName: "Lois", LastName: "Lane", Address: "223 Metropolis Ave, Atlanta, GA 30333", Phone: "221-229-3045", StartDate: "2025-05-05T00:00:00"},
			{ID: 11, FirstName: "Mark", LastName: "Cantrell", Address: "4060 Shelby Lane", Phone: "6789234761", StartDate: "2025-06-30T00:00:00"},
		},
		discounts: []domain.Discount{
			{ID: 2, ProductID: 3, BeginDate: "0001-01-01T00:00:00", EndDate: "2025-06-19T00:00:00", Percentage: 12},
			{ID: 9, ProductID: 2, BeginDate: "2025-06-01T00:00:00", EndDate: "2025-06-27T00:00:00", Percentage: 20},
			{ID: 10, ProductID: 3, BeginDate: "2025-06-01T00:00:00", EndDate: "2025-06-30T00:00:00", Percentage: 20},
			{ID: 11, ProductID: 4, BeginDate: "2025-06-01T00:00:00", EndDate: "2025-06-30T00:00:00", Percentage: 30},
			{ID: 12, ProductID: 2, BeginDate: "2025-06-01T00:00:00", EndDate: "2025-06-30T00:00:00", Percentage: 40},
			{ID: 13, ProductID: 1, BeginDate: "2025-05-12T00:00:00", EndDate: "2025-06-30T00:00:00", Percentage: 40},
		},
	}

	seedSales := []domain.Sale{
		{ID: 6, ProductID: 1, SalesPersonID: 2, CustomerID: 1, Date: "2025-05-19T00:00:00"},
		{ID: 7, ProductID: 2, SalesPersonID: 1, CustomerID: 3, Date: "2025-05-19T00:00:00"},
		{ID: 13, ProductID: 2, SalesPersonID: 6, CustomerID: 1, Date: "2025-05-22T00:00:00"},
		{ID: 29, ProductID: 2, SalesPersonID: 2, CustomerID: 3, Date: "2025-06-24T00:00:00"},
		{ID: 30, ProductID: 1, SalesPersonID: 6, CustomerID: 6, Date: "2025-06-04T00:00:00"},
		{ID: 32, ProductID: 3, SalesPersonID: 1, CustomerID: 3, Date: "2025-06-02T00:00:00"},
		{ID: 33, ProductID: 4, SalesPersonID: 6, CustomerID: 1, Date: "2025-06-24T00:00:00"},
		{ID: 37, ProductID: 1, SalesPersonID: 1, CustomerID: 1, Date: "2025-06-19T00:00:00"},
		{ID: 38, ProductID: 1, SalesPersonID: 1, CustomerID: 1, Date: "2025-06-19T00:00:00"},
		{ID: 39, ProductID: 1, SalesPersonID: 1, CustomerID: 1, Date: "2025-06-19T00:00:00"},
		{ID: 40, ProductID: 1, SalesPersonID: 1, CustomerID: 1, Date: "2025-06-19T00:00:00"},
		{ID: 41, ProductID: 1, SalesPersonID: 1, CustomerID: 1, Date: "2025-06-19T00:00:00"},
		{ID: 42, ProductID: 2, SalesPersonID: 6, CustomerID: 6, Date: "2025-06-24T00:00:00"},
		{ID: 43, ProductID: 2, SalesPersonID: 12, CustomerID: 6, Date: "2025-06-25T00:00:00"},
	}
	for _, sale := range seedSales {
		product, _ := s.findProduct(sale.ProductID)
		salesperson, _ := s.findSalesperson(sale.SalesPersonID)
		customer, _ := s.findCustomer(sale.CustomerID)
		s.sales = append(s.sales, domain.SaleWithDetails{
			Sale:        sale,
			Product:     *product,
			SalesPerson: *salesperson,
			Customer:    *customer,
		})
	}

	return s
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, len(s.products))
	copy(products, s.products)
	return products, nil
}

func (s *Store) GetProductByID(_ context.Context, id int) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, err := s.findProduct(id)
	if err != nil {
		return nil, err
	}
	found := *product
	return &found, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.Name == "" || product.Manufacturer == "" {
		return nil, store.ErrInvalidInput
	}
	if product.QtyOnHand < 0 || product.CommissionPercentage < 0 || product.CommissionPercentage > 100 {
		return nil, store.ErrInvalidInput
	}
	for _, existing := range s.products {
		if existing.Name == product.Name && existing.Manufacturer == product.Manufacturer {
			return nil, fmt.Errorf("product with this name and manufacturer already exists: %w", store.ErrDuplicate)
		}
	}

	product.ID = len(s.products) + 1
	s.products = append(s.products, product)
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, id int, updates domain.ProductUpdateRequest) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, err := s.findProduct(id)
	if err != nil {
		return nil, err
	}

	merged := *target
	if updates.Name != nil {
		merged.Name = *updates.Name
	}
	if updates.Manufacturer != nil {
		merged.Manufacturer = *updates.Manufacturer
	}
	if updates.Style != nil {
		merged.Style = *updates.Style
	}
	if updates.PurchasePrice != nil {
		merged.PurchasePrice = *updates.PurchasePrice
	}
	if updates.SalePrice != nil {
		merged.SalePrice = *updates.SalePrice
	}
	if updates.QtyOnHand != nil {
		if *updates.QtyOnHand < 0 {
			return nil, store.ErrInvalidInput
		}
		merged.QtyOnHand = *updates.QtyOnHand
	}
	if updates.CommissionPercentage != nil {
		if *updates.CommissionPercentage < 0 || *updates.CommissionPercentage > 100 {
			return nil, store.ErrInvalidInput
		}
		merged.CommissionPercentage = *updates.CommissionPercentage
	}
	if merged.Name == "" || merged.Manufacturer == "" {
		return nil, store.ErrInvalidInput
	}

	// Re-check the identity rule only when one of its fields changes.
	if updates.Name != nil || updates.Manufacturer != nil {
		for _, existing := range s.products {
			if existing.ID != id && existing.Name == merged.Name && existing.Manufacturer == merged.Manufacturer {
				return nil, fmt.Errorf("product with this name and manufacturer already exists: %w", store.ErrDuplicate)
			}
		}
	}

	*target = merged
	updated := merged
	return &updated, nil
}

func (s *Store) ListSalespersons(_ context.Context) ([]domain.Salesperson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	salespersons := make([]domain.Salesperson, len(s.salespersons))
	copy(salespersons, s.salespersons)
	return salespersons, nil
}

func (s *Store) GetSalespersonByID(_ context.Context, id int) (*domain.Salesperson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	salesperson, err := s.findSalesperson(id)
	if err != nil {
		return nil, err
	}
	found := *salesperson
	return &found, nil
}

func (s *Store) CreateSalesperson(_ context.Context, salesperson domain.Salesperson) (*domain.Salesperson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if salesperson.FirstName == "" || salesperson.LastName == "" || salesperson.Phone == "" {
		return nil, store.ErrInvalidInput
	}
	for _, existing := range s.salespersons {
		if samePerson(existing.FirstName, existing.LastName, existing.Phone, salesperson.FirstName, salesperson.LastName, salesperson.Phone) {
			return nil, fmt.Errorf("salesperson with this name and phone already exists: %w", store.ErrDuplicate)
		}
	}

	salesperson.ID = len(s.salespersons) + 1
	s.salespersons = append(s.salespersons, salesperson)
	created := salesperson
	return &created, nil
}

func (s *Store) UpdateSalesperson(_ context.Context, id int, updates domain.SalespersonUpdateRequest) (*domain.Salesperson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, err := s.findSalesperson(id)
	if err != nil {
		return nil, err
	}

	merged := *target
	if updates.FirstName != nil {
		merged.FirstName = *updates.FirstName
	}
	if updates.LastName != nil {
		merged.LastName = *updates.LastName
	}
	if updates.Address != nil {
		merged.Address = *updates.Address
	}
	if updates.Phone != nil {
		merged.Phone = *updates.Phone
	}
	if updates.StartDate != nil {
		merged.StartDate = *updates.StartDate
	}
	if updates.TerminationDate != nil {
		merged.TerminationDate = *updates.TerminationDate
	}
	if updates.Manager != nil {
		merged.Manager = *updates.Manager
	}
	if merged.FirstName == "" || merged.LastName == "" || merged.Phone == "" {
		return nil, store.ErrInvalidInput
	}

	if updates.FirstName != nil || updates.LastName != nil || updates.Phone != nil {
		for _, existing := range s.salespersons {
			if existing.ID != id && samePerson(existing.FirstName, existing.LastName, existing.Phone, merged.FirstName, merged.LastName, merged.Phone) {
				return nil, fmt.Errorf("salesperson with this name and phone already exists: %w", store.ErrDuplicate)
			}
		}
	}

	*target = merged
	updated := merged
	return &updated, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, len(s.customers))
	copy(customers, s.customers)
	return customers, nil
}

func (s *Store) GetCustomerByID(_ context.Context, id int) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, err := s.findCustomer(id)
	if err != nil {
		return nil, err
	}
	found := *customer
	return &found, nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if customer.FirstName == "" || customer.LastName == "" || customer.Phone == "" {
		return nil, store.ErrInvalidInput
	}
	for _, existing := range s.customers {
		if samePerson(existing.FirstName, existing.LastName, existing.Phone, customer.FirstName, customer.LastName, customer.Phone) {
			return nil, fmt.Errorf("customer with this name and phone already exists: %w", store.ErrDuplicate)
		}
	}

	customer.ID = len(s.customers) + 1
	s.customers = append(s.customers, customer)
	created := customer
	return &created, nil
}

func (s *Store) UpdateCustomer(_ context.Context, id int, updates domain.CustomerUpdateRequest) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, err := s.findCustomer(id)
	if err != nil {
		return nil, err
	}

	merged := *target
	if updates.FirstName != nil {
		merged.FirstName = *updates.FirstName
	}
	if updates.LastName != nil {
		merged.LastName = *updates.LastName
	}
	if updates.Address != nil {
		merged.Address = *updates.Address
	}
	if updates.Phone != nil {
		merged.Phone = *updates.Phone
	}
	if updates.StartDate != nil {
		merged.StartDate = *updates.StartDate
	}
	if merged.FirstName == "" || merged.LastName == "" || merged.Phone == "" {
		return nil, store.ErrInvalidInput
	}

	if updates.FirstName != nil || updates.LastName != nil || updates.Phone != nil {
		for _, existing := range s.customers {
			if existing.ID != id && samePerson(existing.FirstName, existing.LastName, existing.Phone, merged.FirstName, merged.LastName, merged.Phone) {
				return nil, fmt.Errorf("customer with this name and phone already exists: %w", store.ErrDuplicate)
			}
		}
	}

	*target = merged
	updated := merged
	return &updated, nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		sales = append(sales, sale.Sale)
	}
	return sales, nil
}

func (s *Store) ListSalesWithDetails(_ context.Context) ([]domain.SaleWithDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.SaleWithDetails, len(s.sales))
	copy(sales, s.sales)
	return sales, nil
}

func (s *Store) ListSalesByDateRange(_ context.Context, startDate string, endDate string) ([]domain.SaleWithDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := domain.DateOnly(startDate)
	end := domain.DateOnly(endDate)
	sales := make([]domain.SaleWithDetails, 0, len(s.sales))
	for _, sale := range s.sales {
		day := domain.DateOnly(sale.Date)
		if day >= start && day <= end {
			sales = append(sales, sale)
		}
	}
	return sales, nil
}

func (s *Store) GetSaleByID(_ context.Context, id int) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sale := range s.sales {
		if sale.ID == id {
			found := sale.Sale
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := s.findProduct(sale.ProductID)
	if err != nil {
		return nil, fmt.Errorf("product %w", store.ErrNotFound)
	}
	if product.QtyOnHand <= 0 {
		return nil, fmt.Errorf("product %q is %w", product.Name, store.ErrOutOfStock)
	}
	salesperson, err := s.findSalesperson(sale.SalesPersonID)
	if err != nil {
		return nil, fmt.Errorf("salesperson %w", store.ErrNotFound)
	}
	customer, err := s.findCustomer(sale.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("customer %w", store.ErrNotFound)
	}

	maxID := 0
	for _, existing := range s.sales {
		if existing.ID > maxID {
			maxID = existing.ID
		}
	}
	sale.ID = maxID + 1

	// Decrement first, then snapshot, so the new detail record already
	// carries the reduced quantity. Each sale moves exactly one unit.
	product.QtyOnHand = max(0, product.QtyOnHand-1)
	for i := range s.sales {
		if s.sales[i].Product.ID == product.ID {
			s.sales[i].Product.QtyOnHand = product.QtyOnHand
		}
	}

	s.sales = append(s.sales, domain.SaleWithDetails{
		Sale:        sale,
		Product:     *product,
		SalesPerson: *salesperson,
		Customer:    *customer,
	})

	created := sale
	return &created, nil
}

func (s *Store) ListDiscounts(_ context.Context) ([]domain.Discount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	discounts := make([]domain.Discount, len(s.discounts))
	copy(discounts, s.discounts)
	return discounts, nil
}

func (s *Store) findProduct(id int) (*domain.Product, error) {
	for i := range s.products {
		if s.products[i].ID == id {
			return &s.products[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) findSalesperson(id int) (*domain.Salesperson, error) {
	for i := range s.salespersons {
		if s.salespersons[i].ID == id {
			return &s.salespersons[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) findCustomer(id int) (*domain.Customer, error) {
	for i := range s.customers {
		if s.customers[i].ID == id {
			return &s.customers[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func samePerson(firstA, lastA, phoneA, firstB, lastB, phoneB string) bool {
	return firstA == firstB && lastA == lastB && phoneA == phoneB
}
