package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/domain/auth"
	v1 "stockledger/internal/infrastructure/http/v1"
	"stockledger/internal/infrastructure/http/v1/dto"
	"stockledger/internal/infrastructure/http/v1/handlers"
	"stockledger/internal/infrastructure/storage/memory"
	"stockledger/pkg/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := dto.SetupValidator(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type apiFixture struct {
	t      *testing.T
	store  *memory.Store
	jwt    *auth.JWTService
	router http.Handler
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	store := memory.New()
	jwt := auth.NewJWTService(auth.DefaultJWTConfig("test-secret"))
	router := v1.NewRouter(v1.RouterConfig{
		Store:        store,
		TxManager:    memory.NewTxManager(store),
		Logger:       logger.NewNop(),
		JWTValidator: jwt,
		Idempotency:  memory.NewIdempotencyStore(0),
		Health:       handlers.NewHealthHandler("memory", "test", nil, nil),
	})
	return &apiFixture{t: t, store: store, jwt: jwt, router: router}
}

// tenant creates a tenant and returns an owner token for it.
func (f *apiFixture) tenant(prefix string) (id.ID, string) {
	f.t.Helper()
	tn := tenant.New(tenant.CreateInput{Name: "Toko " + prefix, InvoicePrefix: prefix})
	require.NoError(f.t, f.store.CreateTenant(context.Background(), tn))
	return tn.ID, f.token(tn.ID, "OWNER")
}

func (f *apiFixture) token(tenantID id.ID, role string) string {
	f.t.Helper()
	token, _, err := f.jwt.GenerateAccessToken(id.New().String(), tenantID.String(), "user-"+role, role)
	require.NoError(f.t, err)
	return token
}

type call struct {
	method  string
	path    string
	token   string
	body    any
	headers map[string]string
}

func (f *apiFixture) do(c call) *httptest.ResponseRecorder {
	f.t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		require.NoError(f.t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// seed creates a supplier and an item priced 1500 and returns their ids.
func (f *apiFixture) seed(token string) (supplierID, itemID string) {
	f.t.Helper()
	rec := f.do(call{method: http.MethodPost, path: "/api/v1/suppliers", token: token,
		body: map[string]any{"name": "PT Sumber Rejeki", "phone": "0812"}})
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())
	supplierID = decode(f.t, rec)["id"].(string)

	rec = f.do(call{method: http.MethodPost, path: "/api/v1/inventories", token: token,
		body: map[string]any{"name": "Kopi Bubuk", "code": "KB-01", "price": 1500}})
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())
	itemID = decode(f.t, rec)["id"].(string)
	return supplierID, itemID
}

func TestRouter_Health(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(call{method: http.MethodGet, path: "/health/live"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(call{method: http.MethodGet, path: "/health/info"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "memory", decode(t, rec)["storage"])
}

func TestRouter_StockFlow(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.tenant("TK")
	supplierID, itemID := f.seed(token)

	rec := f.do(call{method: http.MethodPost, path: "/api/v1/purchases", token: token, body: map[string]any{
		"supplierId": supplierID,
		"items":      []map[string]any{{"inventoryId": itemID, "quantity": 10, "unitCost": 500}},
		"payment":    map[string]any{"amount": 1000, "method": "TRANSFER"},
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode(t, rec)
	assert.Regexp(t, `^TK-\d{4}-000001$`, p["invoice"])
	assert.EqualValues(t, 5000, p["totalAmount"])
	assert.EqualValues(t, 1000, p["paidAmount"])
	purchaseID := p["id"].(string)

	rec = f.do(call{method: http.MethodGet, path: "/api/v1/purchases/" + purchaseID + "/payments", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	var payments []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payments))
	assert.Len(t, payments, 1)

	rec = f.do(call{method: http.MethodPost, path: "/api/v1/sales", token: token, body: map[string]any{
		"items":  []map[string]any{{"inventoryId": itemID, "quantity": 3}},
		"method": "CASH",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	s := decode(t, rec)
	assert.EqualValues(t, 4500, s["totalAmount"])

	rec = f.do(call{method: http.MethodGet, path: "/api/v1/inventories/" + itemID, token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	item := decode(t, rec)
	assert.EqualValues(t, 7, item["stock"])
	assert.EqualValues(t, 3, item["sold"])
	assert.EqualValues(t, 500, item["cost"])

	rec = f.do(call{method: http.MethodPost, path: "/api/v1/sales", token: token, body: map[string]any{
		"items":  []map[string]any{{"inventoryId": itemID, "quantity": 8}},
		"method": "QRIS",
	}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	e := decode(t, rec)
	assert.Equal(t, "INSUFFICIENT_STOCK", e["code"])
	assert.EqualValues(t, 7, e["details"].(map[string]any)["available"])

	rec = f.do(call{method: http.MethodGet, path: "/api/v1/reports/ledger-check/" + itemID, token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decode(t, rec)["intact"])

	rec = f.do(call{method: http.MethodGet, path: "/api/v1/inventories/" + itemID + "/ledger", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 2, decode(t, rec)["total"])
}

func TestRouter_PurchasesReport(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.tenant("TK")
	supplierID, itemID := f.seed(token)

	rec := f.do(call{method: http.MethodPost, path: "/api/v1/purchases", token: token, body: map[string]any{
		"supplierId": supplierID,
		"items":      []map[string]any{{"inventoryId": itemID, "quantity": 4, "unitCost": 250}},
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(call{method: http.MethodGet, path: "/api/v1/reports/purchases?q=kopi", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	r := decode(t, rec)
	assert.EqualValues(t, 1000, r["totalCost"])
	lines := r["lines"].(map[string]any)
	assert.EqualValues(t, 1, lines["total"])
	line := lines["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "PT Sumber Rejeki", line["supplierName"])
	assert.Equal(t, "KB-01", line["code"])

	rec = f.do(call{method: http.MethodGet, path: "/api/v1/reports/purchases?q=teh", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 0, decode(t, rec)["totalCost"])

	rec = f.do(call{method: http.MethodGet, path: "/api/v1/reports/purchases?from=2026-02-10&to=2026-02-01", token: token})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestRouter_ValidationReportsFields(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.tenant("VAL")

	rec := f.do(call{method: http.MethodPost, path: "/api/v1/sales", token: token, body: map[string]any{
		"items":  []map[string]any{{"inventoryId": "not-a-uuid", "quantity": 0}},
		"method": "CHEQUE",
	}})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	e := decode(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", e["code"])
	fields := e["details"].(map[string]any)["fields"].(map[string]any)
	assert.Contains(t, fields, "items[0].inventoryId")
	assert.Contains(t, fields, "items[0].quantity")
	assert.Contains(t, fields, "method")
}

func TestRouter_Authorization(t *testing.T) {
	f := newAPIFixture(t)
	tenantID, owner := f.tenant("AUT")
	_, itemID := f.seed(owner)
	staff := f.token(tenantID, "STAFF")

	rec := f.do(call{method: http.MethodGet, path: "/api/v1/inventories"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(call{method: http.MethodGet, path: "/api/v1/inventories", token: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// a well-signed token for a tenant that does not exist
	rec = f.do(call{method: http.MethodGet, path: "/api/v1/inventories", token: f.token(id.New(), "OWNER")})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// staff may sell but not maintain the catalog or cancel
	rec = f.do(call{method: http.MethodPost, path: "/api/v1/inventories", token: staff,
		body: map[string]any{"name": "Teh", "code": "T-01", "price": 800}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(call{method: http.MethodPost, path: "/api/v1/sales", token: staff, body: map[string]any{
		"items":  []map[string]any{{"inventoryId": itemID, "quantity": 0}},
		"method": "CASH",
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "staff reaches validation")

	rec = f.do(call{method: http.MethodPost, path: "/api/v1/sales/" + id.New().String() + "/cancel", token: staff})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decode(t, rec)["code"])
}

func TestRouter_TenantIsolation(t *testing.T) {
	f := newAPIFixture(t)
	_, tokenA := f.tenant("AAA")
	_, tokenB := f.tenant("BBB")
	_, itemID := f.seed(tokenA)

	rec := f.do(call{method: http.MethodGet, path: "/api/v1/inventories/" + itemID, token: tokenB})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(call{method: http.MethodGet, path: "/api/v1/inventories", token: tokenB})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["total"])

	rec = f.do(call{method: http.MethodGet, path: "/api/v1/inventories/not-a-uuid", token: tokenA})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_IdempotentReplay(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.tenant("IDM")
	headers := map[string]string{"Idempotency-Key": "create-supplier-1"}
	body := map[string]any{"name": "CV Makmur"}

	first := f.do(call{method: http.MethodPost, path: "/api/v1/suppliers", token: token, body: body, headers: headers})
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	assert.Empty(t, first.Header().Get("Idempotent-Replayed"))

	second := f.do(call{method: http.MethodPost, path: "/api/v1/suppliers", token: token, body: body, headers: headers})
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	rec := f.do(call{method: http.MethodGet, path: "/api/v1/suppliers", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["total"])

	// same key, different payload
	rec = f.do(call{method: http.MethodPost, path: "/api/v1/suppliers", token: token,
		body: map[string]any{"name": "CV Lain"}, headers: headers})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "IDEMPOTENCY_CONFLICT", decode(t, rec)["code"])
}

func TestRouter_IdempotentFailureReplays(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.tenant("IDF")
	headers := map[string]string{"X-Idempotency-Key": "bad-sale"}
	body := map[string]any{"items": []map[string]any{}, "method": "CASH"}

	first := f.do(call{method: http.MethodPost, path: "/api/v1/sales", token: token, body: body, headers: headers})
	require.Equal(t, http.StatusBadRequest, first.Code)

	second := f.do(call{method: http.MethodPost, path: "/api/v1/sales", token: token, body: body, headers: headers})
	assert.Equal(t, http.StatusBadRequest, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestRouter_CancelSaleRestoresStock(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.tenant("CNL")
	supplierID, itemID := f.seed(token)

	rec := f.do(call{method: http.MethodPost, path: "/api/v1/purchases", token: token, body: map[string]any{
		"supplierId": supplierID,
		"items":      []map[string]any{{"inventoryId": itemID, "quantity": 5, "unitCost": 700}},
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(call{method: http.MethodPost, path: "/api/v1/sales", token: token, body: map[string]any{
		"items":  []map[string]any{{"inventoryId": itemID, "quantity": 2}},
		"method": "CASH",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saleID := decode(t, rec)["id"].(string)

	rec = f.do(call{method: http.MethodPost, path: "/api/v1/sales/" + saleID + "/cancel", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(call{method: http.MethodPost, path: "/api/v1/sales/" + saleID + "/cancel", token: token})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(call{method: http.MethodGet, path: "/api/v1/inventories/" + itemID, token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 5, decode(t, rec)["stock"])

	rec = f.do(call{method: http.MethodGet, path: "/api/v1/sales/" + saleID + "/history", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var trail []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trail))
	assert.NotEmpty(t, trail)
}
