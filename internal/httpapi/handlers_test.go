package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HAESOL87/beSpoked-bikes/internal/partner"
	"github.com/HAESOL87/beSpoked-bikes/internal/service"
	"github.com/HAESOL87/beSpoked-bikes/internal/store/memory"
)

// newTestAPI builds the full API over a seeded in-memory store so handler
// tests exercise the complete request path. The partner client points at a
// dead address; external proxy tests construct their own upstream.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	svc := service.NewWithClock(memory.NewSeeded(), func() time.Time {
		return time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
	})
	partnerClient := partner.NewClient("http://127.0.0.1:1", 200*time.Millisecond, nil, 0)
	return New(svc, partnerClient, "*")
}

func doRequest(t *testing.T, handler http.Handler, method string, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v (body: %s)", err, rec.Body.String())
	}
	return out
}

func TestHandleHealth(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doRequest(t, handler, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	body := decodeBody[map[string]any](t, rec)
	if body["status"] != "OK" {
		t.Fatalf("expected status OK, got %v", body["status"])
	}
	if body["message"] != "BeSpoked Bikes API is running" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestListProducts(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doRequest(t, handler, http.MethodGet, "/api/products", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	products := decodeBody[[]map[string]any](t, rec)
	if len(products) != 4 {
		t.Fatalf("expected 4 products, got %d", len(products))
	}
	if products[0]["name"] != "The Big Boys" {
		t.Fatalf("unexpected first product: %v", products[0])
	}
}

func TestCreateProduct(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doRequest(t, handler, http.MethodPost, "/api/products", map[string]any{
		"name":                 "Gravel Grinder",
		"manufacturer":         "Big Boy Bikes",
		"style":                "Mountain",
		"salePrice":            1500,
		"qtyOnHand":            3,
		"commissionPercentage": 5,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	product := decodeBody[map[string]any](t, rec)
	if product["id"] != float64(5) {
		t.Fatalf("expected id 5, got %v", product["id"])
	}
}

func TestCreateProductDuplicate(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doRequest(t, handler, http.MethodPost, "/api/products", map[string]any{
		"name":         "The Big Boys",
		"manufacturer": "Big Boy Bikes",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	body := decodeBody[map[string]any](t, rec)
	if !strings.Contains(body["error"].(string), "already exists") {
		t.Fatalf("unexpected error body: %v", body)
	}
}

func TestGetProductByID(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doRequest(t, handler, http.MethodGet, "/api/products/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	product := decodeBody[map[string]any](t, rec)
	if product["name"] != "The Big Boys" {
		t.Fatalf("unexpected product: %v", product)
	}

	if rec := doRequest(t, handler, http.MethodGet, "/api/products/999", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing product, got %d", rec.Code)
	}
	if rec := doRequest(t, handler, http.MethodGet, "/api/products/abc", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
}

func TestUpdateProduct(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doRequest(t, handler, http.MethodPut, "/api/products/1", map[string]any{
		"salePrice": 1100,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	product := decodeBody[map[string]any](t, rec)
	if product["salePrice"] != float64(1100) {
		t.Fatalf("expected updated price, got %v", product["salePrice"])
	}
	if product["name"] != "The Big Boys" {
		t.Fatalf("expected merged update to keep name, got %v", product["name"])
	}
}

func TestSalespersonsActiveFilter(t *testing.T) {
	handler := newTestAPI(t).Handler()

	all := decodeBody[[]map[string]any](t, doRequest(t, handler, http.MethodGet, "/api/salespersons", nil))
	if len(all) != 5 {
		t.Fatalf("expected 5 salespersons, got %d", len(all))
	}

	active := decodeBody[[]map[string]any](t, doRequest(t, handler, http.MethodGet, "/api/salespersons?active=true", nil))
	if len(active) != 3 {
		t.Fatalf("expected 3 active salespersons, got %d", len(active))
	}
}

func TestSalesListVariants(t *testing.T) {
	handler := newTestAPI(t).Handler()

	bare := decodeBody[[]map[string]any](t, doRequest(t, handler, http.MethodGet, "/api/sales", nil))
	if len(bare) != 14 {
		t.Fatalf("expected 14 sales, got %d", len(bare))
	}
	if _, ok := bare[0]["product"]; ok {
		t.Fatal("bare sales list must not embed snapshots")
	}

	detailed := decodeBody[[]map[string]any](t, doRequest(t, handler, http.MethodGet, "/api/sales?details=true", nil))
	if len(detailed) != 14 {
		t.Fatalf("expected 14 detailed sales, got %d", len(detailed))
	}
	if _, ok := detailed[0]["product"]; !ok {
		t.Fatal("detailed sales must embed the product snapshot")
	}
	if _, ok := detailed[0]["finalPrice"]; !ok {
		t.Fatal("detailed sales must carry pricing fields")
	}

	ranged := decodeBody[[]map[string]any](t, doRequest(t, handler, http.MethodGet, "/api/sales?startDate=2025-05-01&endDate=2025-05-31", nil))
	if len(ranged) != 3 {
		t.Fatalf("expected 3 May sales, got %d", len(ranged))
	}
	if _, ok := ranged[0]["finalPrice"]; ok {
		t.Fatal("ranged sales are plain detail records without pricing")
	}
}

func TestFormattedSales(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doRequest(t, handler, http.MethodGet, "/api/sales-formatted", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	sales := decodeBody[[]map[string]any](t, rec)
	if len(sales) != 14 {
		t.Fatalf("expected 14 sales, got %d", len(sales))
	}
	if _, ok := sales[0]["quantity"]; ok {
		t.Fatal("formatted sales must omit quantity")
	}
	if _, ok := sales[0]["salesPerson"]; !ok {
		t.Fatal("formatted sales must embed the salesperson snapshot")
	}
}

func TestCreateSaleDepletesInventory(t *testing.T) {
	handler := newTestAPI(t).Handler()

	// Tricycles start with five on hand; the sixth sale must fail.
	body := map[string]any{
		"productId":     4,
		"salesPersonId": 1,
		"customerId":    1,
		"date":          "2025-06-26T00:00:00",
	}
	for i := 0; i < 5; i++ {
		if rec := doRequest(t, handler, http.MethodPost, "/api/sales", body); rec.Code != http.StatusCreated {
			t.Fatalf("sale %d: expected 201, got %d (body: %s)", i+1, rec.Code, rec.Body.String())
		}
	}

	rec := doRequest(t, handler, http.MethodPost, "/api/sales", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 once stock is depleted, got %d", rec.Code)
	}
	errBody := decodeBody[map[string]any](t, rec)
	if !strings.Contains(errBody["error"].(string), "out of stock") {
		t.Fatalf("unexpected error: %v", errBody)
	}
}

func TestDiscountsActiveFilter(t *testing.T) {
	handler := newTestAPI(t).Handler()

	all := decodeBody[[]map[string]any](t, doRequest(t, handler, http.MethodGet, "/api/discounts", nil))
	if len(all) != 6 {
		t.Fatalf("expected 6 discounts, got %d", len(all))
	}

	active := decodeBody[[]map[string]any](t, doRequest(t, handler, http.MethodGet, "/api/discounts?active=true", nil))
	if len(active) != 5 {
		t.Fatalf("expected 5 active discounts on 2025-06-20, got %d", len(active))
	}
}

func TestCommissionReportEndpoint(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doRequest(t, handler, http.MethodGet, "/api/reports/commission-detailed?quarter=2&year=2025&salesPersonId=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rows := decodeBody[[]map[string]any](t, rec)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["quarter"] != "Q2" {
		t.Fatalf("expected quarter Q2, got %v", rows[0]["quarter"])
	}

	if rec := doRequest(t, handler, http.MethodGet, "/api/reports/commission-detailed?quarter=9&year=2025", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad quarter, got %d", rec.Code)
	}
	if rec := doRequest(t, handler, http.MethodGet, "/api/reports/commission-detailed?quarter=1&year=2025&salesPersonId=abc", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad salesperson id, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestAPI(t).Handler()

	if rec := doRequest(t, handler, http.MethodDelete, "/api/products", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if rec := doRequest(t, handler, http.MethodPut, "/api/sales/6", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doRequest(t, handler, http.MethodOptions, "/api/products", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected CORS origin header, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a request id header")
	}
}

func TestExternalProxy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/Products":
			_, _ = w.Write([]byte(`[{"id":1,"name":"Upstream Bike"}]`))
		case r.Method == http.MethodGet && r.URL.Path == "/Products/9":
			http.NotFound(w, r)
		case r.Method == http.MethodPost && r.URL.Path == "/Products":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"name required"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"boom"}`))
		}
	}))
	defer upstream.Close()

	svc := service.New(memory.NewSeeded())
	api := New(svc, partner.NewClient(upstream.URL, time.Second, nil, 0), "*")
	handler := api.Handler()

	rec := doRequest(t, handler, http.MethodGet, "/api/external/products", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	products := decodeBody[[]map[string]any](t, rec)
	if len(products) != 1 || products[0]["name"] != "Upstream Bike" {
		t.Fatalf("unexpected proxied payload: %v", products)
	}

	if rec := doRequest(t, handler, http.MethodGet, "/api/external/products/9", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 passthrough, got %d", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodPost, "/api/external/products", map[string]any{"manufacturer": "X"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for upstream write failure, got %d", rec.Code)
	}
	errBody := decodeBody[map[string]any](t, rec)
	if errBody["error"] != "external api error: name required" {
		t.Fatalf("unexpected proxied error: %v", errBody)
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/external/sales", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for upstream read failure, got %d", rec.Code)
	}
	errBody = decodeBody[map[string]any](t, rec)
	if errBody["error"] != "external api error: boom" {
		t.Fatalf("unexpected proxied error: %v", errBody)
	}

	if rec := doRequest(t, handler, http.MethodPost, "/api/external/discounts", map[string]any{}); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for discount writes, got %d", rec.Code)
	}
}
