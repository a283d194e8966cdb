package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	ts    *httptest.Server
	store *MemStore
	token string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := NewMemStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(logger, store, NewTokenManager("test-secret", time.Hour))
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	a := &testAPI{ts: ts, store: store}
	status, body := a.do(t, http.MethodPost, "/api/register", map[string]string{
		"name": "Admin", "email": "admin@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, status, "register: %v", body)

	status, body = a.do(t, http.MethodPost, "/api/login", map[string]string{
		"email": "admin@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, status, "login: %v", body)
	data := body["data"].(map[string]any)
	a.token = data["token"].(string)
	return a
}

func (a *testAPI) do(t *testing.T, method, path string, payload any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body), "body: %s", raw)
	}
	return resp.StatusCode, body
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	a := newTestAPI(t)
	a.token = ""

	status, body := a.do(t, http.MethodPost, "/api/login", map[string]string{
		"email": "admin@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status, "login failures must not be 401")
	assert.Equal(t, "These credentials do not match our records.", body["message"])
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	a := newTestAPI(t)
	status, body := a.do(t, http.MethodPost, "/api/register", map[string]string{
		"name": "Other", "email": "admin@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	msg := body["message"].(map[string]any)
	assert.Equal(t, []any{"The email has already been taken."}, msg["email"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	a := newTestAPI(t)
	a.token = ""
	status, body := a.do(t, http.MethodGet, "/api/products", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Unauthenticated.", body["message"])

	a.token = "not-a-jwt"
	status, _ = a.do(t, http.MethodGet, "/api/products", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUserResponsesOmitPasswordHash(t *testing.T) {
	a := newTestAPI(t)
	status, body := a.do(t, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, status)

	rows := body["data"].([]any)
	require.Len(t, rows, 1)
	attrs := rows[0].(map[string]any)["attributes"].(map[string]any)
	assert.Equal(t, "Admin", attrs["name"])
	_, leaked := attrs["password_hash"]
	assert.False(t, leaked, "password hashes must never leave the server")
}

func TestListPaginationEnvelope(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	for i := 1; i <= 25; i++ {
		_, err := a.store.Create(ctx, ColCategories, map[string]any{"name": fmt.Sprintf("Cat %02d", i)})
		require.NoError(t, err)
	}

	status, body := a.do(t, http.MethodGet, "/api/categories?page=2", nil)
	require.Equal(t, http.StatusOK, status)

	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(11), meta["from"])
	assert.Equal(t, float64(20), meta["to"])
	assert.Equal(t, float64(25), meta["total"])
	assert.Equal(t, float64(2), meta["current_page"])
	assert.Equal(t, float64(3), meta["last_page"])
	assert.Equal(t, float64(10), meta["per_page"])

	links := meta["links"].([]any)
	require.Len(t, links, 5, "previous + three pages + next")

	prev := links[0].(map[string]any)
	assert.Equal(t, "&laquo; Previous", prev["label"])
	assert.NotNil(t, prev["url"], "previous is navigable from page 2")

	active := links[2].(map[string]any)
	assert.Equal(t, "2", active["label"])
	assert.Equal(t, true, active["active"])

	rows := body["data"].([]any)
	require.Len(t, rows, 10)
	first := rows[0].(map[string]any)["attributes"].(map[string]any)
	assert.Equal(t, "Cat 11", first["name"], "insertion order keeps page boundaries stable")
}

func TestListBoundaryLinksAreNull(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	for i := 1; i <= 15; i++ {
		_, err := a.store.Create(ctx, ColSuppliers, map[string]any{"name": fmt.Sprintf("S%d", i)})
		require.NoError(t, err)
	}

	_, body := a.do(t, http.MethodGet, "/api/suppliers", nil)
	links := body["meta"].(map[string]any)["links"].([]any)
	assert.Nil(t, links[0].(map[string]any)["url"], "previous is inert on page 1")
	assert.NotNil(t, links[len(links)-1].(map[string]any)["url"])

	_, body = a.do(t, http.MethodGet, "/api/suppliers?page=2", nil)
	links = body["meta"].(map[string]any)["links"].([]any)
	assert.NotNil(t, links[0].(map[string]any)["url"])
	assert.Nil(t, links[len(links)-1].(map[string]any)["url"], "next is inert on the last page")

	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(11), meta["from"])
	assert.Equal(t, float64(15), meta["to"])
}

func TestProductValidationMessages(t *testing.T) {
	a := newTestAPI(t)
	status, body := a.do(t, http.MethodPost, "/api/products", map[string]any{})
	require.Equal(t, http.StatusUnprocessableEntity, status)

	msg := body["message"].(map[string]any)
	assert.Equal(t, []any{"The name field is required."}, msg["name"])
	assert.Contains(t, msg, "SKU")
	assert.Contains(t, msg, "price")
	assert.Contains(t, msg, "initial_stock_quantity")
	assert.Contains(t, msg, "category_id")
}

func TestProductRejectsUnknownCategory(t *testing.T) {
	a := newTestAPI(t)
	status, body := a.do(t, http.MethodPost, "/api/products", map[string]any{
		"name": "Juice", "SKU": "BEV-JUI-1", "price": "3.50",
		"initial_stock_quantity": "10", "category_id": "nope",
	})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	msg := body["message"].(map[string]any)
	assert.Equal(t, []any{"The selected category_id is invalid."}, msg["category_id"])
}

func TestPurchaseLifecycle(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	supplier, err := a.store.Create(ctx, ColSuppliers, map[string]any{"name": "Acme", "contact_info": "x", "address": "y"})
	require.NoError(t, err)
	category, err := a.store.Create(ctx, ColCategories, map[string]any{"name": "Beverages"})
	require.NoError(t, err)
	product, err := a.store.Create(ctx, ColProducts, map[string]any{
		"name": "Juice", "SKU": "BEV-JUI-1", "price": "3.50",
		"initial_stock_quantity": "10", "category_id": category.ID,
	})
	require.NoError(t, err)

	status, body := a.do(t, http.MethodPost, "/api/purchases", map[string]any{
		"supplier_id":   supplier.ID,
		"purchase_date": "2026-08-20",
		"items": []map[string]any{
			{"product_id": product.ID, "quantity": "4", "unit_price": "3.00"},
			{"product_id": product.ID, "quantity": "1", "unit_price": "8.00"},
		},
		"total_amount": "20.00",
	})
	require.Equal(t, http.StatusCreated, status, "create purchase: %v", body)
	created := body["data"].(map[string]any)
	purchaseID := created["id"].(string)

	// Listing joins the supplier name onto each row.
	status, body = a.do(t, http.MethodGet, "/api/purchases", nil)
	require.Equal(t, http.StatusOK, status)
	row := body["data"].([]any)[0].(map[string]any)["attributes"].(map[string]any)
	assert.Equal(t, "Acme", row["supplier_name"])
	assert.Equal(t, "20.00", row["total_amount"])

	// A single fetch nests the items as identified sub-resources, in order.
	status, body = a.do(t, http.MethodGet, "/api/purchases/"+purchaseID, nil)
	require.Equal(t, http.StatusOK, status)
	attrs := body["data"].(map[string]any)["attributes"].(map[string]any)
	items := attrs["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.NotEmpty(t, first["id"])
	firstAttrs := first["attributes"].(map[string]any)
	assert.Equal(t, "4", firstAttrs["quantity"])
	second := items[1].(map[string]any)["attributes"].(map[string]any)
	assert.Equal(t, "8.00", second["unit_price"])
}

func TestPurchaseRequiresItems(t *testing.T) {
	a := newTestAPI(t)
	supplier, err := a.store.Create(context.Background(), ColSuppliers, map[string]any{"name": "Acme", "contact_info": "x", "address": "y"})
	require.NoError(t, err)

	status, body := a.do(t, http.MethodPost, "/api/purchases", map[string]any{
		"supplier_id":   supplier.ID,
		"purchase_date": "2026-08-20",
		"items":         []map[string]any{},
		"total_amount":  "0.00",
	})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	msg := body["message"].(map[string]any)
	assert.Equal(t, []any{"The items field is required."}, msg["items"])
}

func TestCategoryUpdateAndDelete(t *testing.T) {
	a := newTestAPI(t)
	status, body := a.do(t, http.MethodPost, "/api/categories", map[string]any{"name": "Snacks"})
	require.Equal(t, http.StatusCreated, status)
	id := body["data"].(map[string]any)["id"].(string)

	status, body = a.do(t, http.MethodPut, "/api/categories/"+id, map[string]any{"name": "Household"})
	require.Equal(t, http.StatusOK, status)
	attrs := body["data"].(map[string]any)["attributes"].(map[string]any)
	assert.Equal(t, "Household", attrs["name"])

	status, body = a.do(t, http.MethodDelete, "/api/categories/"+id, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Deleted.", body["message"])

	status, _ = a.do(t, http.MethodGet, "/api/categories/"+id, nil)
	assert.Equal(t, http.StatusNotFound, status)
}
