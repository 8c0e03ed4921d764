package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/waflora/waflora/internal/app/accounts"
	"github.com/waflora/waflora/internal/app/catalog"
	"github.com/waflora/waflora/internal/app/ledger"
	"github.com/waflora/waflora/internal/infra/sqlite"
)

// ─── Test Harness ───────────────────────────────────────────────────────────

const (
	adminUser = "admin"
	adminPass = "s3cret"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	hash, err := accounts.HashPassword(adminPass, bcrypt.MinCost)
	require.NoError(t, err)
	acct, err := accounts.New(db, accounts.Config{
		AdminUsername:     adminUser,
		AdminPasswordHash: hash,
		SessionSecret:     []byte("test-secret"),
		SessionTTL:        time.Hour,
		BcryptCost:        bcrypt.MinCost,
	})
	require.NoError(t, err)

	srv := NewServer(ledger.New(db, ledger.WithLogger(zerolog.Nop())), catalog.New(db), acct)
	srv.logger = zerolog.Nop()
	srv.EnableMetrics()
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func login(t *testing.T, h http.Handler, user, pass string) string {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/login", "", map[string]string{"username": user, "password": pass})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)["token"].(string)
}

func createCustomer(t *testing.T, h http.Handler, token, name string) int64 {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/customers", token, map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return int64(decode(t, w)["id"].(float64))
}

func errorType(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode(t, w)["error"].(map[string]interface{})["type"].(string)
}

// ─── Public Routes ──────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	h := newTestServer(t)
	w := do(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestRequestIDPropagated(t *testing.T) {
	h := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-Id"))
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t)
	do(t, h, http.MethodGet, "/health", "", nil)
	w := do(t, h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "waflora_http_requests_total")
}

func TestLogin(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, http.MethodPost, "/api/login", "", map[string]string{"username": adminUser, "password": adminPass})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, "admin", body["user"].(map[string]interface{})["role"])

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	w = do(t, h, http.MethodPost, "/api/login", "", map[string]string{"username": adminUser, "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodPost, "/api/login", "", map[string]string{"username": adminUser})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSessionCookieAuthenticates(t *testing.T) {
	h := newTestServer(t)
	token := login(t, h, adminUser, adminPass)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, adminUser, decode(t, w)["username"])
}

// ─── Authorization ──────────────────────────────────────────────────────────

func TestProtectedRoutesRequireSession(t *testing.T) {
	h := newTestServer(t)
	for _, path := range []string{"/api/customers", "/api/history", "/api/products", "/api/me"} {
		w := do(t, h, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
	w := do(t, h, http.MethodGet, "/api/customers", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWorkerCannotManage(t *testing.T) {
	h := newTestServer(t)
	admin := login(t, h, adminUser, adminPass)
	w := do(t, h, http.MethodPost, "/api/workers", admin, map[string]string{"username": "jane", "password": "pass123"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "pass123")
	worker := login(t, h, "jane", "pass123")

	id := createCustomer(t, h, admin, "Alice")

	w = do(t, h, http.MethodPost, "/api/customers", worker, map[string]string{"name": "Bob"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(t, h, http.MethodDelete, fmt.Sprintf("/api/customers/%d", id), worker, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(t, h, http.MethodPost, "/api/products", worker, map[string]string{"name": "Sugar"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(t, h, http.MethodGet, "/api/workers", worker, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Workers may record sales and payments.
	w = do(t, h, http.MethodPost, "/api/sales", worker, map[string]interface{}{
		"customer_id": id, "amount": "100", "payment_method": "Credit",
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(t, h, http.MethodPost, "/api/payments", worker, map[string]interface{}{
		"customer_id": id, "amount": 40,
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

// ─── Ledger Flow ────────────────────────────────────────────────────────────

func TestLedgerFlow(t *testing.T) {
	h := newTestServer(t)
	token := login(t, h, adminUser, adminPass)
	id := createCustomer(t, h, token, "Alice")

	w := do(t, h, http.MethodPost, "/api/sales", token, map[string]interface{}{
		"customer_id": id, "amount": 500, "payment_method": "credit",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sale := decode(t, w)
	assert.Equal(t, "Credit", sale["payment_method"])
	assert.Equal(t, "Credit", sale["status"])

	w = do(t, h, http.MethodPost, "/api/sales", token, map[string]interface{}{
		"customer_id": id, "amount": "200", "payment_method": "Mpesa", "counterparty_reference": "QK12AB",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "QK12AB", decode(t, w)["counterparty_reference"])

	w = do(t, h, http.MethodPost, "/api/payments", token, map[string]interface{}{
		"customer_id": id, "amount": "600",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	receipt := decode(t, w)
	assert.Equal(t, "0", receipt["balance_after"])
	assert.Equal(t, "100", receipt["unapplied"])
	assert.Equal(t, "-600", receipt["sale"].(map[string]interface{})["amount"])

	w = do(t, h, http.MethodGet, "/api/customers", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	customers := decode(t, w)["customers"].([]interface{})
	require.Len(t, customers, 1)
	assert.Equal(t, false, customers[0].(map[string]interface{})["in_credit"])

	w = do(t, h, http.MethodGet, fmt.Sprintf("/api/customers/%d/history", id), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode(t, w)["history"].([]interface{})
	require.Len(t, history, 3)
	assert.Equal(t, "Payment", history[0].(map[string]interface{})["payment_method"])
	assert.Equal(t, "Alice", history[0].(map[string]interface{})["customer_name"])

	// Deleted customers show as Unknown in history.
	w = do(t, h, http.MethodDelete, fmt.Sprintf("/api/customers/%d", id), token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, http.MethodGet, "/api/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history = decode(t, w)["history"].([]interface{})
	require.Len(t, history, 3)
	assert.Equal(t, "Unknown", history[2].(map[string]interface{})["customer_name"])
}

func TestLedgerErrors(t *testing.T) {
	h := newTestServer(t)
	token := login(t, h, adminUser, adminPass)
	id := createCustomer(t, h, token, "Alice")

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		kind   string
	}{
		{"negative amount", http.MethodPost, "/api/sales",
			map[string]interface{}{"customer_id": id, "amount": "-5", "payment_method": "Cash"},
			http.StatusUnprocessableEntity, "validation_error"},
		{"payment method not allowed", http.MethodPost, "/api/sales",
			map[string]interface{}{"customer_id": id, "amount": "5", "payment_method": "Payment"},
			http.StatusUnprocessableEntity, "validation_error"},
		{"unknown method", http.MethodPost, "/api/sales",
			map[string]interface{}{"customer_id": id, "amount": "5", "payment_method": "Cheque"},
			http.StatusUnprocessableEntity, "validation_error"},
		{"amount out of range", http.MethodPost, "/api/sales",
			map[string]interface{}{"customer_id": id, "amount": "1e309", "payment_method": "Credit"},
			http.StatusUnprocessableEntity, "validation_error"},
		{"payment out of range", http.MethodPost, "/api/payments",
			map[string]interface{}{"customer_id": id, "amount": "1e2000000000"},
			http.StatusUnprocessableEntity, "validation_error"},
		{"unknown customer sale", http.MethodPost, "/api/sales",
			map[string]interface{}{"customer_id": 999, "amount": "5", "payment_method": "Cash"},
			http.StatusNotFound, "not_found"},
		{"unknown customer payment", http.MethodPost, "/api/payments",
			map[string]interface{}{"customer_id": 999, "amount": "5"},
			http.StatusNotFound, "not_found"},
		{"blank name", http.MethodPost, "/api/customers",
			map[string]interface{}{"name": "   "},
			http.StatusUnprocessableEntity, "validation_error"},
		{"delete missing", http.MethodDelete, "/api/customers/999", nil,
			http.StatusNotFound, "not_found"},
		{"bad id", http.MethodGet, "/api/customers/abc", nil,
			http.StatusUnprocessableEntity, "validation_error"},
		{"bad history filter", http.MethodGet, "/api/history?customer_id=x", nil,
			http.StatusUnprocessableEntity, "validation_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, token, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.kind, errorType(t, w))
		})
	}

	w := do(t, h, http.MethodGet, "/api/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["history"], "rejected requests must not append records")
}

func TestRecordSale_MethodCaseInsensitive(t *testing.T) {
	h := newTestServer(t)
	token := login(t, h, adminUser, adminPass)
	id := createCustomer(t, h, token, "Alice")

	for _, method := range []string{"MPESA", "Cash", "cREDIT"} {
		w := do(t, h, http.MethodPost, "/api/sales", token, map[string]interface{}{
			"customer_id": id, "amount": "10", "payment_method": method,
		})
		assert.Equal(t, http.StatusCreated, w.Code, "%s: %s", method, w.Body.String())
	}

	w := do(t, h, http.MethodGet, fmt.Sprintf("/api/customers/%d", id), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "10", decode(t, w)["balance"])
}

func TestInvalidJSON(t *testing.T) {
	h := newTestServer(t)
	token := login(t, h, adminUser, adminPass)

	req := httptest.NewRequest(http.MethodPost, "/api/sales", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ─── Products ───────────────────────────────────────────────────────────────

func TestProducts(t *testing.T) {
	h := newTestServer(t)
	token := login(t, h, adminUser, adminPass)

	w := do(t, h, http.MethodPost, "/api/products", token, map[string]interface{}{
		"name": "Maize Flour 2kg", "retail_price": "180", "wholesale_price": 165.5, "barcode": "6161",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := int64(decode(t, w)["id"].(float64))

	w = do(t, h, http.MethodGet, "/api/products?q=maize", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["products"], 1)

	w = do(t, h, http.MethodPut, fmt.Sprintf("/api/products/%d", id), token, map[string]interface{}{
		"name": "Maize Flour 2kg", "retail_price": "190",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "190", decode(t, w)["retail_price"])

	w = do(t, h, http.MethodPost, "/api/products", token, map[string]interface{}{
		"name": "Bad", "retail_price": "-1",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, http.MethodDelete, fmt.Sprintf("/api/products/%d", id), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, http.MethodGet, fmt.Sprintf("/api/products/%d", id), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ─── Workers ────────────────────────────────────────────────────────────────

func TestWorkers(t *testing.T) {
	h := newTestServer(t)
	token := login(t, h, adminUser, adminPass)

	w := do(t, h, http.MethodPost, "/api/workers", token, map[string]string{"username": "jane", "password": "pass123"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := int64(decode(t, w)["id"].(float64))

	w = do(t, h, http.MethodPost, "/api/workers", token, map[string]string{"username": "jane", "password": "other1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodGet, "/api/workers", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["workers"], 1)

	w = do(t, h, http.MethodDelete, fmt.Sprintf("/api/workers/%d", id), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, http.MethodPost, "/api/login", "", map[string]string{"username": "jane", "password": "pass123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
