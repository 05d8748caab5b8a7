package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-stock/internal/application/catalog"
	"github.com/jhoicas/taller-stock/internal/application/inventory"
	"github.com/jhoicas/taller-stock/internal/application/ports"
	"github.com/jhoicas/taller-stock/internal/application/purchasing"
	"github.com/jhoicas/taller-stock/internal/application/salesreturn"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/taller-stock/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/taller-stock/pkg/jwt"
)

const otherCompanyID = "00000000-0000-0000-0000-000000000099"

type apiClient struct {
	t   *testing.T
	app *fiber.App
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	store := memory.New()
	for _, id := range []string{"b1", "b2"} {
		store.SeedBranch(entity.Branch{ID: id, CompanyID: testCompanyID, Name: "Sucursal " + id, IsActive: true})
	}
	repos := store.Repos()
	ledger := inventory.NewLedger(store, repos, ports.NoopMetrics{}, nil, inventory.Config{AllowNegativeAdjustment: true})

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		ItemUC:       catalog.NewItemUseCase(store, repos.Items, ports.NoopItemCache{}, nil),
		Ledger:       ledger,
		Purchasing:   purchasing.NewService(store, repos, ledger, nil),
		SalesReturns: salesreturn.NewService(store, repos, ledger, nil),
		JWTSecret:    testJWTSecret,
		JWTIssuer:    testIssuer,
	})
	return &apiClient{t: t, app: app}
}

// do envía la petición con un token del rol y empresa dados y devuelve status y cuerpo decodificado.
func (a *apiClient) do(method, path, role, companyID string, body any) (int, map[string]any) {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, companyID, role, testIssuer, testExpMin)
	require.NoError(a.t, err)
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(a.t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (a *apiClient) as(role string, method, path string, body any) (int, map[string]any) {
	a.t.Helper()
	return a.do(method, path, role, testCompanyID, body)
}

func details(body map[string]any) map[string]any {
	d, _ := body["details"].(map[string]any)
	return d
}

func TestAPI_StockLifecycle(t *testing.T) {
	api := newAPI(t)

	status, item := api.as("manager", http.MethodPost, "/api/items", map[string]any{
		"item_code": "SCR-IP13", "item_name": "Pantalla iPhone 13", "purchase_price": "80",
	})
	require.Equal(t, http.StatusCreated, status)
	itemID := item["id"].(string)

	status, body := api.as("manager", http.MethodPost, "/api/items", map[string]any{"item_code": "SCR-IP13", "item_name": "Otra"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE", body["code"])

	status, row := api.as("manager", http.MethodPost, "/api/branch-inventory", map[string]any{
		"item_id": itemID, "branch_id": "b1", "initial_quantity": "5", "reorder_level": "4",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "5", row["stock_quantity"])
	rowID := row["id"].(string)

	status, body = api.as("manager", http.MethodPost, "/api/branch-inventory", map[string]any{"item_id": itemID, "branch_id": "b1"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE", body["code"])

	t.Run("el técnico no puede vender", func(t *testing.T) {
		status, body := api.as("technician", http.MethodPost, "/api/branch-inventory/"+rowID+"/consume", map[string]any{
			"purpose": "SALE", "quantity": "1", "reference_id": "INV-1",
		})
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "FORBIDDEN", body["code"])
	})

	status, mov := api.as("technician", http.MethodPost, "/api/branch-inventory/"+rowID+"/consume", map[string]any{
		"purpose": "SERVICE", "quantity": "2", "reference_id": "JOB-77",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "SERVICE_USE", mov["movement_type"])
	assert.Equal(t, "-2", mov["quantity"])
	assert.Equal(t, "3", mov["new_qty"])

	t.Run("stock insuficiente trae el contexto", func(t *testing.T) {
		status, body := api.as("cashier", http.MethodPost, "/api/branch-inventory/"+rowID+"/consume", map[string]any{
			"purpose": "SALE", "quantity": "10", "reference_id": "INV-2",
		})
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
		d := details(body)
		assert.Equal(t, "3", d["current_quantity"])
		assert.Equal(t, "-10", d["attempted_delta"])
		assert.Equal(t, itemID, d["item_id"])
		assert.Equal(t, "b1", d["branch_id"])
	})

	t.Run("ajuste sin notas es inválido", func(t *testing.T) {
		status, body := api.as("manager", http.MethodPost, "/api/branch-inventory/"+rowID+"/adjustments", map[string]any{
			"type": "ADJUSTMENT", "quantity": "1",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "VALIDATION", body["code"])
		assert.Contains(t, details(body), "notes")
	})

	t.Run("el cajero no ajusta", func(t *testing.T) {
		status, _ := api.as("cashier", http.MethodPost, "/api/branch-inventory/"+rowID+"/adjustments", map[string]any{
			"type": "ADJUSTMENT", "quantity": "1", "notes": "conteo",
		})
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("otra empresa no ve la fila", func(t *testing.T) {
		status, body := api.do(http.MethodGet, "/api/branch-inventory/"+rowID, "admin", otherCompanyID, nil)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "NOT_FOUND", body["code"])
	})

	// Recepción de una orden de compra
	status, po := api.as("manager", http.MethodPost, "/api/purchase-orders", map[string]any{
		"branch_id": "b1", "supplier_id": "sup-1",
		"items": []map[string]any{{"item_id": itemID, "quantity": "4", "unit_price": "75"}},
	})
	require.Equal(t, http.StatusCreated, status)
	poID := po["id"].(string)
	assert.Equal(t, "DRAFT", po["status"])

	status, po = api.as("manager", http.MethodPost, "/api/purchase-orders/"+poID+"/submit", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "PENDING", po["status"])

	status, body = api.as("manager", http.MethodPost, "/api/purchase-orders/"+poID+"/receipts", map[string]any{
		"items": []map[string]any{{"item_id": itemID, "received_qty": "5"}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "OVER_RECEIPT", body["code"])
	assert.Equal(t, "4", details(body)["limit"])

	status, body = api.as("manager", http.MethodPost, "/api/purchase-orders/"+poID+"/receipts", map[string]any{
		"items": []map[string]any{{"item_id": itemID, "received_qty": "4"}},
	})
	require.Equal(t, http.StatusCreated, status)
	order := body["order"].(map[string]any)
	assert.Equal(t, "RECEIVED", order["status"])

	status, row = api.as("cashier", http.MethodGet, "/api/branch-inventory/"+rowID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "7", row["stock_quantity"])
	assert.Equal(t, "75", row["last_purchase_price"])

	status, body = api.as("technician", http.MethodGet, "/api/branch-inventory/"+rowID+"/movements", nil)
	require.Equal(t, http.StatusOK, status)
	movs := body["items"].([]any)
	require.Len(t, movs, 3)
	types := make([]string, 0, len(movs))
	for _, m := range movs {
		types = append(types, m.(map[string]any)["movement_type"].(string))
	}
	assert.Equal(t, []string{"OPENING_STOCK", "SERVICE_USE", "PURCHASE"}, types)

	status, rec := api.as("manager", http.MethodGet, "/api/branch-inventory/"+rowID+"/reconciliation", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, rec["consistent"])
	assert.Equal(t, "7", rec["movement_sum"])
}

func TestAPI_TransferValidation(t *testing.T) {
	api := newAPI(t)

	status, body := api.as("manager", http.MethodPost, "/api/branch-inventory/transfers", map[string]any{
		"item_id": "x", "from_branch_id": "b1", "to_branch_id": "b1", "quantity": "1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, details(body), "to_branch_id")

	status, _ = api.as("technician", http.MethodPost, "/api/branch-inventory/transfers", map[string]any{
		"item_id": "x", "from_branch_id": "b1", "to_branch_id": "b2", "quantity": "1",
	})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAPI_MovementsRejectsBadDate(t *testing.T) {
	api := newAPI(t)
	status, body := api.as("manager", http.MethodGet, "/api/branch-inventory/nope/movements?from=ayer", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", body["code"])
}
