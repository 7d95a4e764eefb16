package shared

import "errors"

var (
	// ErrTenantMissing indicates the request carries no tenant.
	ErrTenantMissing = errors.New("tenant missing")
	// ErrTenantInvalid indicates the tenant is not an email address.
	ErrTenantInvalid = errors.New("tenant invalid")
)
