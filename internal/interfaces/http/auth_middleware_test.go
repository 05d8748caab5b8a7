package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
	apphttp "github.com/jhoicas/taller-stock/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/taller-stock/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testCompanyID = "00000000-0000-0000-0000-000000000002"
	testIssuer    = "taller-stock-test"
	testExpMin    = 60
)

func bearer(t *testing.T, userID, companyID, role, issuer string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, userID, companyID, role, issuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

// guardedApp expone /workshop (admin, manager, technician) y /managers (admin, manager)
// detrás del mismo AuthMiddleware que usa el router.
func guardedApp() *fiber.App {
	app := fiber.New()
	auth := apphttp.AuthMiddleware(testJWTSecret, pkgjwt.WithIssuer(testIssuer))
	echo := func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":    apphttp.GetUserID(c),
			"company_id": apphttp.GetCompanyID(c),
			"role":       apphttp.GetRole(c),
		})
	}
	app.Get("/workshop", auth, apphttp.RequireRole(entity.RoleAdmin, entity.RoleManager, entity.RoleTechnician), echo)
	app.Get("/managers", auth, apphttp.RequireRole(entity.RoleAdmin, entity.RoleManager), echo)
	return app
}

func call(t *testing.T, app *fiber.App, path, authorization string) (int, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := map[string]string{}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

func TestRequireRole_Matrix(t *testing.T) {
	app := guardedApp()
	cases := []struct {
		path string
		role string
		want int
	}{
		{"/workshop", entity.RoleAdmin, http.StatusOK},
		{"/workshop", entity.RoleManager, http.StatusOK},
		{"/workshop", entity.RoleTechnician, http.StatusOK},
		{"/workshop", entity.RoleCashier, http.StatusForbidden},
		{"/managers", entity.RoleManager, http.StatusOK},
		{"/managers", entity.RoleTechnician, http.StatusForbidden},
		{"/managers", entity.RoleCashier, http.StatusForbidden},
		{"/managers", "owner", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.path+"/"+tc.role, func(t *testing.T) {
			status, body := call(t, app, tc.path, bearer(t, testUserID, testCompanyID, tc.role, testIssuer))
			assert.Equal(t, tc.want, status)
			if tc.want == http.StatusForbidden {
				assert.Equal(t, "FORBIDDEN", body["code"])
			}
		})
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	app := guardedApp()
	cases := []struct {
		name   string
		header string
		code   string
	}{
		{"sin header", "", "MISSING_TOKEN"},
		{"esquema distinto", "Basic dXNlcjpwYXNz", "INVALID_TOKEN"},
		{"token mal formado", "Bearer token.invalido.aqui", "INVALID_TOKEN"},
		{"otro emisor", bearer(t, testUserID, testCompanyID, entity.RoleAdmin, "otro-emisor"), "INVALID_TOKEN"},
		{"sin empresa", bearer(t, testUserID, "", entity.RoleAdmin, testIssuer), "UNAUTHORIZED"},
		{"sin rol", bearer(t, testUserID, testCompanyID, "", testIssuer), "MISSING_ROLE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := call(t, app, "/managers", tc.header)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tc.code, body["code"])
		})
	}
}

func TestAuthMiddleware_ExposesCaller(t *testing.T) {
	status, body := call(t, guardedApp(), "/workshop", bearer(t, testUserID, testCompanyID, entity.RoleTechnician, testIssuer))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, testCompanyID, body["company_id"])
	assert.Equal(t, entity.RoleTechnician, body["role"])
}
