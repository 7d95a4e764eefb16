package shared

import (
	"context"
	"net/http"
	"net/mail"
	"strings"

	"github.com/cleanmanager/cleanmanager/internal/platform/httpx"
)

// Tenant transport keys. The dashboard scopes every table by owner email.
const (
	TenantHeader = "X-Cliente-Email"
	TenantParam  = "cliente_email"
)

type tenantContextKey struct{}

// ContextWithTenant stores the tenant in context.
func ContextWithTenant(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, tenant)
}

// TenantFromContext extracts the tenant from context.
func TenantFromContext(ctx context.Context) string {
	tenant, _ := ctx.Value(tenantContextKey{}).(string)
	return tenant
}

// TenantFromRequest reads the tenant from the header, falling back to the
// query string. Values that are not an email address are rejected.
func TenantFromRequest(r *http.Request) (string, error) {
	tenant := strings.TrimSpace(r.Header.Get(TenantHeader))
	if tenant == "" {
		tenant = strings.TrimSpace(r.URL.Query().Get(TenantParam))
	}
	if tenant == "" {
		return "", ErrTenantMissing
	}
	addr, err := mail.ParseAddress(tenant)
	if err != nil || addr.Address != tenant {
		return "", ErrTenantInvalid
	}
	return tenant, nil
}

// RequireTenant rejects requests without a valid tenant and stores it in the
// request context for downstream handlers.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, err := TenantFromRequest(r)
		if err != nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithTenant(r.Context(), tenant)))
	})
}
