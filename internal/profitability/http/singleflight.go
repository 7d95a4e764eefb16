package profitabilityhttp

import (
	"context"
	"strconv"
	"strings"

	"github.com/cleanmanager/cleanmanager/internal/profitability"
)

// collapse runs fn once for concurrent callers sharing key. A caller whose
// context ends stops waiting; the shared call keeps running for the others
// under its own requestTimeout.
func (h *Handler) collapse(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error, bool) {
	resultChan := h.flight.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), requestTimeout)
		defer cancel()
		return fn(callCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}

func flightKey(kind string, q profitability.Query) string {
	return strings.Join([]string{kind, q.Tenant, q.Property, q.Month, strconv.Itoa(q.Months)}, "|")
}
