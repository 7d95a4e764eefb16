package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/cleanmanager/cleanmanager/internal/platform/httpx"
	"github.com/cleanmanager/cleanmanager/internal/platform/supa"
	"github.com/cleanmanager/cleanmanager/internal/profitability"
)

// APIStore keeps configuration behind the dashboard worker.
type APIStore struct {
	client *supa.Client
}

// NewAPIStore wraps a worker client.
func NewAPIStore(client *supa.Client) *APIStore {
	return &APIStore{client: client}
}

// List implements Store.
func (s *APIStore) List(ctx context.Context, table, tenant string) ([]Record, error) {
	var rows []Record
	if err := s.client.List(ctx, table, profitability.TenantField, tenant, &rows); err != nil {
		return nil, mapAPIError(err)
	}
	return rows, nil
}

// Create implements Store.
func (s *APIStore) Create(ctx context.Context, table string, rec Record) (Record, error) {
	var raw json.RawMessage
	if err := s.client.Create(ctx, table, rec, &raw); err != nil {
		return nil, mapAPIError(err)
	}
	return firstRecord(raw, rec)
}

// Update implements Store. The tenant has already been checked by the service.
func (s *APIStore) Update(ctx context.Context, table, tenant, id string, rec Record) (Record, error) {
	var raw json.RawMessage
	if err := s.client.Update(ctx, table, id, rec, &raw); err != nil {
		return nil, mapAPIError(err)
	}
	fallback := make(Record, len(rec)+1)
	for k, v := range rec {
		fallback[k] = v
	}
	fallback["id"] = id
	return firstRecord(raw, fallback)
}

// SetActive implements Store with a tenant scoped patch.
func (s *APIStore) SetActive(ctx context.Context, table, tenant, id string, active bool) error {
	query := "?id=eq." + url.QueryEscape(id) + "&" + profitability.TenantField + "=eq." + url.QueryEscape(tenant)
	if err := s.client.Patch(ctx, table, query, map[string]any{"activo": active}, nil); err != nil {
		return mapAPIError(err)
	}
	return nil
}

// Delete implements Store.
func (s *APIStore) Delete(ctx context.Context, table, tenant, id string) error {
	if err := s.client.Delete(ctx, table, id); err != nil {
		return mapAPIError(err)
	}
	return nil
}

// firstRecord decodes the worker answer, which is either the row, a
// one-element array or empty.
func firstRecord(raw json.RawMessage, fallback Record) (Record, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return fallback, nil
	}
	if raw[0] == '[' {
		var rows []Record
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("settings: decode rows: %w", err)
		}
		if len(rows) == 0 {
			return fallback, nil
		}
		return rows[0], nil
	}
	var row Record
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("settings: decode row: %w", err)
	}
	return row, nil
}

func mapAPIError(err error) error {
	var statusErr *supa.StatusError
	switch {
	case errors.Is(err, supa.ErrNotFound):
		return fmt.Errorf("%w: %v", httpx.ErrNotFound, err)
	case errors.As(err, &statusErr), errors.Is(err, supa.ErrNotConfigured):
		return fmt.Errorf("%w: %w", httpx.ErrUpstream, err)
	}
	return err
}
