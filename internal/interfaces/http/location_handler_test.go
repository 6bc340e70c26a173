package http_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	pkgjwt "github.com/jhoicas/stock-ledger/pkg/jwt"
)

func TestLocations_CrearListarDesactivar(t *testing.T) {
	app, _ := newLedgerApp(t)

	resp := send(t, app, http.MethodPost, "/api/locations/", pkgjwt.RoleAdmin, `{"code":" tienda-norte ","name":"Tienda Norte"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.LocationResponse](t, resp)
	assert.Equal(t, "TIENDA-NORTE", created.Code)
	assert.True(t, created.Active)

	resp = send(t, app, http.MethodPost, "/api/locations/", pkgjwt.RoleAdmin, `{"code":"TIENDA-NORTE","name":"Otra"}`, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "código repetido en la empresa")

	resp = send(t, app, http.MethodPut, "/api/locations/"+created.ID, pkgjwt.RoleAdmin, `{"active":false}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[dto.LocationResponse](t, resp).Active)

	resp = send(t, app, http.MethodGet, "/api/locations/?active_only=true", pkgjwt.RoleViewer, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.LocationListResponse](t, resp)
	for _, l := range list.Items {
		assert.NotEqual(t, created.ID, l.ID)
	}
	assert.Len(t, list.Items, 2)

	resp = send(t, app, http.MethodGet, "/api/locations/"+created.ID, pkgjwt.RoleViewer, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Tienda Norte", decode[dto.LocationResponse](t, resp).Name)
}

func TestLocations_SoloAdminEscribe(t *testing.T) {
	app, _ := newLedgerApp(t)

	resp := send(t, app, http.MethodPost, "/api/locations/", pkgjwt.RoleOperator, `{"code":"X","name":"X"}`, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLocations_OtraEmpresa_Retorna404(t *testing.T) {
	app, _ := newLedgerApp(t)

	auth := signToken(t, "otra-empresa", pkgjwt.RoleAdmin)
	resp := sendWithAuth(t, app, http.MethodGet, "/api/locations/"+testLocA, auth)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMovimiento_UbicacionInactiva_Retorna422(t *testing.T) {
	app, _ := newLedgerApp(t)

	resp := send(t, app, http.MethodPut, "/api/locations/"+testLocB, pkgjwt.RoleAdmin, `{"active":false}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = send(t, app, http.MethodPost, "/api/inventory/movements", pkgjwt.RoleOperator,
		`{"product_id":"prod-1","location_id":"loc-b","type":"ENTRY","quantity":1}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "INVALID_LOCATION", decode[dto.ErrorResponse](t, resp).Code)
}
