package domain

type Product struct {
	ID                   int     `json:"id"`
	Name                 string  `json:"name"`
	Manufacturer         string  `json:"manufacturer"`
	Style                string  `json:"style"`
	PurchasePrice        float64 `json:"purchasePrice"`
	SalePrice            float64 `json:"salePrice"`
	QtyOnHand            int     `json:"qtyOnHand"`
	CommissionPercentage float64 `json:"commissionPercentage"`
}

type ProductCreateRequest struct {
	Name                 string  `json:"name"`
	Manufacturer         string  `json:"manufacturer"`
	Style                string  `json:"style"`
	PurchasePrice        float64 `json:"purchasePrice"`
	SalePrice            float64 `json:"salePrice"`
	QtyOnHand            int     `json:"qtyOnHand"`
	CommissionPercentage float64 `json:"commissionPercentage"`
}

type ProductUpdateRequest struct {
	Name                 *string  `json:"name,omitempty"`
	Manufacturer         *string  `json:"manufacturer,omitempty"`
	Style                *string  `json:"style,omitempty"`
	PurchasePrice        *float64 `json:"purchasePrice,omitempty"`
	SalePrice            *float64 `json:"salePrice,omitempty"`
	QtyOnHand            *int     `json:"qtyOnHand,omitempty"`
	CommissionPercentage *float64 `json:"commissionPercentage,omitempty"`
}

type Salesperson struct {
	ID              int    `json:"id"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Address         string `json:"address"`
	Phone           string `json:"phone"`
	StartDate       string `json:"startDate"`
	TerminationDate string `json:"terminationDate"`
	Manager         string `json:"manager"`
}

// ActiveOn reports whether the salesperson is active on the given day:
// no termination date, or one strictly after it (date-only comparison).
func (s Salesperson) ActiveOn(day string) bool {
	if s.TerminationDate == "" {
		return true
	}
	return DateOnly(s.TerminationDate) > DateOnly(day)
}

type SalespersonCreateRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Address         string `json:"address"`
	Phone           string `json:"phone"`
	StartDate       string `json:"startDate"`
	TerminationDate string `json:"terminationDate"`
	Manager         string `json:"manager"`
}

type SalespersonUpdateRequest struct {
	FirstName       *string `json:"firstName,omitempty"`
	LastName        *string `json:"lastName,omitempty"`
	Address         *string `json:"address,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	StartDate       *string `json:"startDate,omitempty"`
	TerminationDate *string `json:"terminationDate,omitempty"`
	Manager         *string `json:"manager,omitempty"`
}

type Customer struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	StartDate string `json:"startDate"`
}

type CustomerCreateRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	StartDate string `json:"startDate"`
}

type CustomerUpdateRequest struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Address   *string `json:"address,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	StartDate *string `json:"startDate,omitempty"`
}

type Sale struct {
	ID            int    `json:"id"`
	ProductID     int    `json:"productId"`
	SalesPersonID int    `json:"salesPersonId"`
	CustomerID    int    `json:"customerId"`
	Date          string `json:"date"`
	Quantity      int    `json:"quantity,omitempty"`
}

type SaleCreateRequest struct {
	ProductID     int    `json:"productId"`
	SalesPersonID int    `json:"salesPersonId"`
	CustomerID    int    `json:"customerId"`
	Date          string `json:"date"`
}

// SaleWithDetails is a sale denormalized with snapshots of its related
// entities, taken at creation time. Snapshots are not re-synced on later
// entity edits, except the product's QtyOnHand which is re-propagated on
// every inventory decrement.
type SaleWithDetails struct {
	Sale
	Product     Product     `json:"product"`
	SalesPerson Salesperson `json:"salesPerson"`
	Customer    Customer    `json:"customer"`
}

// PricedSale is a detail record extended with the pricing fields computed
// at query time by the pricing calculator.
type PricedSale struct {
	SaleWithDetails
	OriginalPrice  float64 `json:"originalPrice"`
	DiscountStatus string  `json:"discountStatus"`
	DiscountRate   float64 `json:"discountRate"`
	DiscountAmount float64 `json:"discountAmount"`
	FinalPrice     float64 `json:"finalPrice"`
	Commission     float64 `json:"commission"`
}

type Discount struct {
	ID         int     `json:"id"`
	ProductID  int     `json:"productId"`
	BeginDate  string  `json:"beginDate"`
	EndDate    string  `json:"endDate"`
	Percentage float64 `json:"percentage"`
}

// Covers reports whether the discount window contains the given day
// (date-only, inclusive on both ends).
func (d Discount) Covers(day string) bool {
	day = DateOnly(day)
	return day >= DateOnly(d.BeginDate) && day <= DateOnly(d.EndDate)
}

type CommissionReportRow struct {
	SaleID          int     `json:"saleId"`
	SalespersonName string  `json:"salespersonName"`
	Date            string  `json:"date"`
	ProductName     string  `json:"productName"`
	Quantity        int     `json:"quantity"`
	DiscountStatus  string  `json:"discountStatus"`
	DiscountRate    float64 `json:"discountRate"`
	OriginalPrice   float64 `json:"originalPrice"`
	FinalPrice      float64 `json:"finalPrice"`
	Commission      float64 `json:"commission"`
	Quarter         string  `json:"quarter"`
	Year            int     `json:"year"`
}

// DateOnly truncates a timezone-naive timestamp string ("2025-06-19T00:00:00")
// to its date prefix. All date comparison in this system is lexicographic on
// this prefix.
func DateOnly(ts string) string {
	if len(ts) > 10 {
		return ts[:10]
	}
	return ts
}

const (
	StyleMountain = "Mountain"
	StyleTrick    = "Trick"
	StyleToddler  = "Toddler"
)

const (
	DiscountStatusApplied = "Discounted"
	DiscountStatusNone    = "No Discount"
)
