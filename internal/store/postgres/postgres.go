package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/HAESOL87/beSpoked-bikes/internal/domain"
	"github.com/HAESOL87/beSpoked-bikes/internal/store"
)

// Store implements store.Repository on PostgreSQL. Dates are stored as the
// same timezone-naive text the rest of the system uses, so the lexical
// date-window semantics survive the round trip. Detail-record snapshots are
// kept as jsonb columns on the sales table.
type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			id INT PRIMARY KEY,
			name TEXT NOT NULL,
			manufacturer TEXT NOT NULL,
			style TEXT NOT NULL DEFAULT '',
			purchase_price DOUBLE PRECISION NOT NULL DEFAULT 0,
			sale_price DOUBLE PRECISION NOT NULL DEFAULT 0,
			qty_on_hand INT NOT NULL DEFAULT 0,
			commission_percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
			UNIQUE (name, manufacturer)
		);
		CREATE TABLE IF NOT EXISTS salespersons (
			id INT PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL,
			start_date TEXT NOT NULL DEFAULT '',
			termination_date TEXT NOT NULL DEFAULT '',
			manager TEXT NOT NULL DEFAULT '',
			UNIQUE (first_name, last_name, phone)
		);
		CREATE TABLE IF NOT EXISTS customers (
			id INT PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL,
			start_date TEXT NOT NULL DEFAULT '',
			UNIQUE (first_name, last_name, phone)
		);
		CREATE TABLE IF NOT EXISTS sales (
			id INT PRIMARY KEY,
			product_id INT NOT NULL,
			sales_person_id INT NOT NULL,
			customer_id INT NOT NULL,
			sale_date TEXT NOT NULL,
			quantity INT NOT NULL DEFAULT 0,
			product_snapshot JSONB NOT NULL,
			sales_person_snapshot JSONB NOT NULL,
			customer_snapshot JSONB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS discounts (
			id INT PRIMARY KEY,
			product_id INT NOT NULL,
			begin_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			percentage DOUBLE PRECISION NOT NULL
		);
	`)
	return err
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, manufacturer, style, purchase_price, sale_price, qty_on_hand, commission_percentage
		FROM products
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 32)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Manufacturer, &p.Style, &p.PurchasePrice, &p.SalePrice, &p.QtyOnHand, &p.CommissionPercentage); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) GetProductByID(ctx context.Context, id int) (*domain.Product, error) {
	return scanProduct(s.db.QueryRowContext(ctx, `
		SELECT id, name, manufacturer, style, purchase_price, sale_price, qty_on_hand, commission_percentage
		FROM products
		WHERE id = $1
	`, id))
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.Manufacturer == "" {
		return nil, store.ErrInvalidInput
	}
	if product.QtyOnHand < 0 || product.CommissionPercentage < 0 || product.CommissionPercentage > 100 {
		return nil, store.ErrInvalidInput
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO products (id, name, manufacturer, style, purchase_price, sale_price, qty_on_hand, commission_percentage)
		VALUES ((SELECT COUNT(*) + 1 FROM products), $1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, product.Name, product.Manufacturer, product.Style, product.PurchasePrice, product.SalePrice, product.QtyOnHand, product.CommissionPercentage).Scan(&product.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("product with this name and manufacturer already exists: %w", store.ErrDuplicate)
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id int, updates domain.ProductUpdateRequest) (*domain.Product, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	merged, err := scanProduct(tx.QueryRowContext(ctx, `
		SELECT id, name, manufacturer, style, purchase_price, sale_price, qty_on_hand, commission_percentage
		FROM products
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		return nil, err
	}

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

	_, err = tx.ExecContext(ctx, `
		UPDATE products
		SET name = $2, manufacturer = $3, style = $4, purchase_price = $5, sale_price = $6, qty_on_hand = $7, commission_percentage = $8
		WHERE id = $1
	`, merged.ID, merged.Name, merged.Manufacturer, merged.Style, merged.PurchasePrice, merged.SalePrice, merged.QtyOnHand, merged.CommissionPercentage)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("product with this name and manufacturer already exists: %w", store.ErrDuplicate)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return merged, nil
}

func (s *Store) ListSalespersons(ctx context.Context) ([]domain.Salesperson, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, address, phone, start_date, termination_date, manager
		FROM salespersons
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	salespersons := make([]domain.Salesperson, 0, 32)
	for rows.Next() {
		var sp domain.Salesperson
		if err := rows.Scan(&sp.ID, &sp.FirstName, &sp.LastName, &sp.Address, &sp.Phone, &sp.StartDate, &sp.TerminationDate, &sp.Manager); err != nil {
			return nil, err
		}
		salespersons = append(salespersons, sp)
	}
	return salespersons, rows.Err()
}

func (s *Store) GetSalespersonByID(ctx context.Context, id int) (*domain.Salesperson, error) {
	return scanSalesperson(s.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, address, phone, start_date, termination_date, manager
		FROM salespersons
		WHERE id = $1
	`, id))
}

func (s *Store) CreateSalesperson(ctx context.Context, salesperson domain.Salesperson) (*domain.Salesperson, error) {
	if salesperson.FirstName == "" || salesperson.LastName == "" || salesperson.Phone == "" {
		return nil, store.ErrInvalidInput
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO salespersons (id, first_name, last_name, address, phone, start_date, termination_date, manager)
		VALUES ((SELECT COUNT(*) + 1 FROM salespersons), $1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, salesperson.FirstName, salesperson.LastName, salesperson.Address, salesperson.Phone, salesperson.StartDate, salesperson.TerminationDate, salesperson.Manager).Scan(&salesperson.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("salesperson with this name and phone already exists: %w", store.ErrDuplicate)
		}
		return nil, err
	}

	created := salesperson
	return &created, nil
}

func (s *Store) UpdateSalesperson(ctx context.Context, id int, updates domain.SalespersonUpdateRequest) (*domain.Salesperson, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	merged, err := scanSalesperson(tx.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, address, phone, start_date, termination_date, manager
		FROM salespersons
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		return nil, err
	}

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

	_, err = tx.ExecContext(ctx, `
		UPDATE salespersons
		SET first_name = $2, last_name = $3, address = $4, phone = $5, start_date = $6, termination_date = $7, manager = $8
		WHERE id = $1
	`, merged.ID, merged.FirstName, merged.LastName, merged.Address, merged.Phone, merged.StartDate, merged.TerminationDate, merged.Manager)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("salesperson with this name and phone already exists: %w", store.ErrDuplicate)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return merged, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, address, phone, start_date
		FROM customers
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 32)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Address, &c.Phone, &c.StartDate); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *Store) GetCustomerByID(ctx context.Context, id int) (*domain.Customer, error) {
	return scanCustomer(s.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, address, phone, start_date
		FROM customers
		WHERE id = $1
	`, id))
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.FirstName == "" || customer.LastName == "" || customer.Phone == "" {
		return nil, store.ErrInvalidInput
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO customers (id, first_name, last_name, address, phone, start_date)
		VALUES ((SELECT COUNT(*) + 1 FROM customers), $1, $2, $3, $4, $5)
		RETURNING id
	`, customer.FirstName, customer.LastName, customer.Address, customer.Phone, customer.StartDate).Scan(&customer.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("customer with this name and phone already exists: %w", store.ErrDuplicate)
		}
		return nil, err
	}

	created := customer
	return &created, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, id int, updates domain.CustomerUpdateRequest) (*domain.Customer, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	merged, err := scanCustomer(tx.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, address, phone, start_date
		FROM customers
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		return nil, err
	}

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

	_, err = tx.ExecContext(ctx, `
		UPDATE customers
		SET first_name = $2, last_name = $3, address = $4, phone = $5, start_date = $6
		WHERE id = $1
	`, merged.ID, merged.FirstName, merged.LastName, merged.Address, merged.Phone, merged.StartDate)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("customer with this name and phone already exists: %w", store.ErrDuplicate)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return merged, nil
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, sales_person_id, customer_id, sale_date, quantity
		FROM sales
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 64)
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(&sale.ID, &sale.ProductID, &sale.SalesPersonID, &sale.CustomerID, &sale.Date, &sale.Quantity); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

func (s *Store) ListSalesWithDetails(ctx context.Context) ([]domain.SaleWithDetails, error) {
	return s.querySalesWithDetails(ctx, `
		SELECT id, product_id, sales_person_id, customer_id, sale_date, quantity,
		       product_snapshot, sales_person_snapshot, customer_snapshot
		FROM sales
		ORDER BY id
	`)
}

func (s *Store) ListSalesByDateRange(ctx context.Context, startDate string, endDate string) ([]domain.SaleWithDetails, error) {
	return s.querySalesWithDetails(ctx, `
		SELECT id, product_id, sales_person_id, customer_id, sale_date, quantity,
		       product_snapshot, sales_person_snapshot, customer_snapshot
		FROM sales
		WHERE substr(sale_date, 1, 10) >= $1 AND substr(sale_date, 1, 10) <= $2
		ORDER BY id
	`, domain.DateOnly(startDate), domain.DateOnly(endDate))
}

func (s *Store) querySalesWithDetails(ctx context.Context, query string, args ...any) ([]domain.SaleWithDetails, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.SaleWithDetails, 0, 64)
	for rows.Next() {
		var (
			sale            domain.SaleWithDetails
			productJSON     []byte
			salesPersonJSON []byte
			customerJSON    []byte
		)
		if err := rows.Scan(&sale.ID, &sale.ProductID, &sale.SalesPersonID, &sale.CustomerID, &sale.Date, &sale.Quantity,
			&productJSON, &salesPersonJSON, &customerJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(productJSON, &sale.Product); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(salesPersonJSON, &sale.SalesPerson); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(customerJSON, &sale.Customer); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

func (s *Store) GetSaleByID(ctx context.Context, id int) (*domain.Sale, error) {
	var sale domain.Sale
	err := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, sales_person_id, customer_id, sale_date, quantity
		FROM sales
		WHERE id = $1
	`, id).Scan(&sale.ID, &sale.ProductID, &sale.SalesPersonID, &sale.CustomerID, &sale.Date, &sale.Quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	product, err := scanProduct(tx.QueryRowContext(ctx, `
		SELECT id, name, manufacturer, style, purchase_price, sale_price, qty_on_hand, commission_percentage
		FROM products
		WHERE id = $1
		FOR UPDATE
	`, sale.ProductID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("product %w", store.ErrNotFound)
		}
		return nil, err
	}
	if product.QtyOnHand <= 0 {
		return nil, fmt.Errorf("product %q is %w", product.Name, store.ErrOutOfStock)
	}

	salesperson, err := scanSalesperson(tx.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, address, phone, start_date, termination_date, manager
		FROM salespersons
		WHERE id = $1
	`, sale.SalesPersonID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("salesperson %w", store.ErrNotFound)
		}
		return nil, err
	}

	customer, err := scanCustomer(tx.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, address, phone, start_date
		FROM customers
		WHERE id = $1
	`, sale.CustomerID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("customer %w", store.ErrNotFound)
		}
		return nil, err
	}

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM sales`).Scan(&sale.ID); err != nil {
		return nil, err
	}

	product.QtyOnHand--
	if product.QtyOnHand < 0 {
		product.QtyOnHand = 0
	}
	if _, err := tx.ExecContext(ctx, `UPDATE products SET qty_on_hand = $2 WHERE id = $1`, product.ID, product.QtyOnHand); err != nil {
		return nil, err
	}

	// Re-propagate the reduced quantity into every snapshot of this product.
	if _, err := tx.ExecContext(ctx, `
		UPDATE sales
		SET product_snapshot = jsonb_set(product_snapshot, '{qtyOnHand}', to_jsonb($2::int))
		WHERE product_id = $1
	`, product.ID, product.QtyOnHand); err != nil {
		return nil, err
	}

	productJSON, err := json.Marshal(product)
	if err != nil {
		return nil, err
	}
	salesPersonJSON, err := json.Marshal(salesperson)
	if err != nil {
		return nil, err
	}
	customerJSON, err := json.Marshal(customer)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, product_id, sales_person_id, customer_id, sale_date, quantity,
		                   product_snapshot, sales_person_snapshot, customer_snapshot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, sale.ID, sale.ProductID, sale.SalesPersonID, sale.CustomerID, sale.Date, sale.Quantity,
		productJSON, salesPersonJSON, customerJSON)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	created := sale
	return &created, nil
}

func (s *Store) ListDiscounts(ctx context.Context) ([]domain.Discount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, begin_date, end_date, percentage
		FROM discounts
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	discounts := make([]domain.Discount, 0, 16)
	for rows.Next() {
		var d domain.Discount
		if err := rows.Scan(&d.ID, &d.ProductID, &d.BeginDate, &d.EndDate, &d.Percentage); err != nil {
			return nil, err
		}
		discounts = append(discounts, d)
	}
	return discounts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Manufacturer, &p.Style, &p.PurchasePrice, &p.SalePrice, &p.QtyOnHand, &p.CommissionPercentage)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanSalesperson(row rowScanner) (*domain.Salesperson, error) {
	var sp domain.Salesperson
	err := row.Scan(&sp.ID, &sp.FirstName, &sp.LastName, &sp.Address, &sp.Phone, &sp.StartDate, &sp.TerminationDate, &sp.Manager)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &sp, nil
}

func scanCustomer(row rowScanner) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Address, &c.Phone, &c.StartDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
