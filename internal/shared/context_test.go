package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/rentabilidad?cliente_email=query@example.com", nil)
	req.Header.Set(TenantHeader, " ana@example.com ")
	tenant, err := TenantFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", tenant)

	req = httptest.NewRequest(http.MethodGet, "/rentabilidad?cliente_email=query@example.com", nil)
	tenant, err = TenantFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "query@example.com", tenant)

	_, err = TenantFromRequest(httptest.NewRequest(http.MethodGet, "/rentabilidad", nil))
	assert.ErrorIs(t, err, ErrTenantMissing)

	req = httptest.NewRequest(http.MethodGet, "/rentabilidad", nil)
	req.Header.Set(TenantHeader, "Ana <ana@example.com>")
	_, err = TenantFromRequest(req)
	assert.ErrorIs(t, err, ErrTenantInvalid)
}

func TestTenantContext(t *testing.T) {
	ctx := ContextWithTenant(context.Background(), "ana@example.com")
	assert.Equal(t, "ana@example.com", TenantFromContext(ctx))
	assert.Empty(t, TenantFromContext(context.Background()))
}

func TestRequireTenant(t *testing.T) {
	var seen string
	handler := RequireTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TenantFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rentabilidad", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, seen)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rentabilidad", nil)
	req.Header.Set(TenantHeader, "ana@example.com")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "ana@example.com", seen)
}
