package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HAESOL87/beSpoked-bikes/internal/domain"
	"github.com/HAESOL87/beSpoked-bikes/internal/partner"
	"github.com/HAESOL87/beSpoked-bikes/internal/service"
	"github.com/HAESOL87/beSpoked-bikes/internal/store"
)

type API struct {
	service       *service.Service
	partner       *partner.Client
	allowedOrigin string
}

func New(svc *service.Service, partnerClient *partner.Client, allowedOrigin string) *API {
	return &API{
		service:       svc,
		partner:       partnerClient,
		allowedOrigin: allowedOrigin,
	}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", a.handleHealth)

	mux.HandleFunc("/api/products", a.handleProducts)
	mux.HandleFunc("/api/products/", a.handleProductActions)
	mux.HandleFunc("/api/salespersons", a.handleSalespersons)
	mux.HandleFunc("/api/salespersons/", a.handleSalespersonActions)
	mux.HandleFunc("/api/customers", a.handleCustomers)
	mux.HandleFunc("/api/customers/", a.handleCustomerActions)
	mux.HandleFunc("/api/sales", a.handleSales)
	mux.HandleFunc("/api/sales/", a.handleSaleActions)
	mux.HandleFunc("/api/sales-formatted", a.handleFormattedSales)
	mux.HandleFunc("/api/discounts", a.handleDiscounts)
	mux.HandleFunc("/api/reports/commission-detailed", a.handleCommissionReport)

	mux.HandleFunc("/api/external/products", a.externalCollection(partner.ResourceProducts, true))
	mux.HandleFunc("/api/external/products/", a.externalItem("/api/external/products/", partner.ResourceProducts, true))
	mux.HandleFunc("/api/external/salespersons", a.externalCollection(partner.ResourceSalesPersons, true))
	mux.HandleFunc("/api/external/salespersons/", a.externalItem("/api/external/salespersons/", partner.ResourceSalesPersons, true))
	mux.HandleFunc("/api/external/customers", a.externalCollection(partner.ResourceCustomers, true))
	mux.HandleFunc("/api/external/customers/", a.externalItem("/api/external/customers/", partner.ResourceCustomers, true))
	mux.HandleFunc("/api/external/sales", a.externalCollection(partner.ResourceSales, true))
	mux.HandleFunc("/api/external/sales/", a.externalItem("/api/external/sales/", partner.ResourceSales, false))
	mux.HandleFunc("/api/external/discounts", a.externalCollection(partner.ResourceDiscounts, false))

	return a.withMiddleware(mux)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "OK",
		"message": "BeSpoked Bikes API is running",
	})
}

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		products, err := a.service.ListProducts(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, products)
	case http.MethodPost:
		var req domain.ProductCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		product, err := a.service.CreateProduct(r.Context(), req)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, product)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleProductActions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path, "/api/products/")
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid product id"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		product, err := a.service.GetProduct(r.Context(), id)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, product)
	case http.MethodPut:
		var req domain.ProductUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		product, err := a.service.UpdateProduct(r.Context(), id, req)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, product)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleSalespersons(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		activeOnly := r.URL.Query().Get("active") == "true"
		salespersons, err := a.service.ListSalespersons(r.Context(), activeOnly)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, salespersons)
	case http.MethodPost:
		var req domain.SalespersonCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		salesperson, err := a.service.CreateSalesperson(r.Context(), req)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, salesperson)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleSalespersonActions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path, "/api/salespersons/")
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid salesperson id"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		salesperson, err := a.service.GetSalesperson(r.Context(), id)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, salesperson)
	case http.MethodPut:
		var req domain.SalespersonUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		salesperson, err := a.service.UpdateSalesperson(r.Context(), id, req)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, salesperson)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCustomers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		customers, err := a.service.ListCustomers(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, customers)
	case http.MethodPost:
		var req domain.CustomerCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		customer, err := a.service.CreateCustomer(r.Context(), req)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, customer)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCustomerActions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path, "/api/customers/")
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid customer id"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		customer, err := a.service.GetCustomer(r.Context(), id)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, customer)
	case http.MethodPut:
		var req domain.CustomerUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		customer, err := a.service.UpdateCustomer(r.Context(), id, req)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, customer)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleSales(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		query := r.URL.Query()
		startDate := query.Get("startDate")
		endDate := query.Get("endDate")

		switch {
		case startDate != "" && endDate != "":
			sales, err := a.service.ListSalesByDateRange(r.Context(), startDate, endDate)
			if err != nil {
				writeError(w, statusForError(err), err)
				return
			}
			writeJSON(w, http.StatusOK, sales)
		case query.Get("details") == "true":
			sales, err := a.service.ListPricedSales(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, sales)
		default:
			sales, err := a.service.ListSales(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, sales)
		}
	case http.MethodPost:
		var req domain.SaleCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		sale, err := a.service.CreateSale(r.Context(), req)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, sale)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleSaleActions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path, "/api/sales/")
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid sale id"))
		return
	}

	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	sale, err := a.service.GetSale(r.Context(), id)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

func (a *API) handleFormattedSales(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	sales, err := a.service.ListFormattedSales(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

func (a *API) handleDiscounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	activeOnly := r.URL.Query().Get("active") == "true"
	discounts, err := a.service.ListDiscounts(r.Context(), activeOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, discounts)
}

func (a *API) handleCommissionReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	query := r.URL.Query()
	quarter, qErr := strconv.Atoi(query.Get("quarter"))
	year, yErr := strconv.Atoi(query.Get("year"))
	if qErr != nil || yErr != nil || quarter < 1 || quarter > 4 {
		writeError(w, http.StatusBadRequest, errors.New("invalid quarter or year parameters"))
		return
	}

	salesPersonID := 0
	if raw := query.Get("salesPersonId"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid salesperson id parameter"))
			return
		}
		salesPersonID = parsed
	}

	report, err := a.service.CommissionReport(r.Context(), quarter, year, salesPersonID)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// externalCollection proxies the list (and, when the upstream supports it,
// create) operations of one partner resource. Read failures surface as 500,
// write failures as 400, mirroring the upstream contract.
func (a *API) externalCollection(resource string, allowCreate bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			payload, err := a.partner.List(r.Context(), resource)
			if err != nil {
				writeUpstreamError(w, http.StatusInternalServerError, err)
				return
			}
			writeRawJSON(w, http.StatusOK, payload)
		case http.MethodPost:
			if !allowCreate {
				writeMethodNotAllowed(w)
				return
			}

			body, err := readRawJSON(r)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}

			payload, err := a.partner.Create(r.Context(), resource, body)
			if err != nil {
				writeUpstreamError(w, http.StatusBadRequest, err)
				return
			}
			writeRawJSON(w, http.StatusCreated, payload)
		default:
			writeMethodNotAllowed(w)
		}
	}
}

func (a *API) externalItem(prefix string, resource string, allowUpdate bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r.URL.Path, prefix)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid id"))
			return
		}

		switch r.Method {
		case http.MethodGet:
			payload, err := a.partner.GetByID(r.Context(), resource, id)
			if err != nil {
				writeUpstreamError(w, http.StatusInternalServerError, err)
				return
			}
			writeRawJSON(w, http.StatusOK, payload)
		case http.MethodPut:
			if !allowUpdate {
				writeMethodNotAllowed(w)
				return
			}

			body, err := readRawJSON(r)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}

			payload, err := a.partner.Update(r.Context(), resource, id, body)
			if err != nil {
				writeUpstreamError(w, http.StatusBadRequest, err)
				return
			}
			writeRawJSON(w, http.StatusOK, payload)
		default:
			writeMethodNotAllowed(w)
		}
	}
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if (r.Method == http.MethodPost || r.Method == http.MethodPut) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s %s", requestID, r.Method, r.URL.Path, time.Since(startedAt))
	})
}

func pathID(path string, prefix string) (int, error) {
	raw := strings.TrimPrefix(path, prefix)
	if raw == "" || strings.Contains(raw, "/") {
		return 0, fmt.Errorf("malformed id path %q", path)
	}
	return strconv.Atoi(raw)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicate),
		errors.Is(err, store.ErrOutOfStock),
		errors.Is(err, store.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dest any) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid json body: %w", err)
	}
	return nil
}

func readRawJSON(r *http.Request) (json.RawMessage, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, errors.New("invalid json body")
	}
	return body, nil
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

// writeUpstreamError maps partner proxy failures: upstream 404s stay 404,
// upstream errors keep their message at the caller-selected status, anything
// else is an internal error.
func writeUpstreamError(w http.ResponseWriter, status int, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case partner.IsUpstream(err):
		if status >= 500 {
			log.Printf("partner proxy error: %v", err)
		}
		writeJSON(w, status, map[string]any{"error": err.Error()})
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx messages are genericized so internals never leak to clients;
	// the real cause goes to the log.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeRawJSON(w http.ResponseWriter, status int, payload json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
