// Package settingshttp exposes the configuration screens of the profitability
// dashboard.
package settingshttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cleanmanager/cleanmanager/internal/platform/httpx"
	"github.com/cleanmanager/cleanmanager/internal/settings"
	"github.com/cleanmanager/cleanmanager/internal/shared"
)

const requestTimeout = 10 * time.Second

// SettingsService is the contract the handler depends on.
type SettingsService interface {
	List(ctx context.Context, res settings.Resource, tenant string) ([]settings.Record, error)
	Create(ctx context.Context, res settings.Resource, tenant string, p settings.Payload) (settings.Record, error)
	Update(ctx context.Context, res settings.Resource, tenant, id string, p settings.Payload) (settings.Record, error)
	SetActive(ctx context.Context, res settings.Resource, tenant, id string, active bool) error
	Delete(ctx context.Context, res settings.Resource, tenant, id string) error
}

// Handler serves CRUD endpoints for the configuration resources.
type Handler struct {
	logger  *slog.Logger
	service SettingsService
}

// NewHandler builds a settings handler.
func NewHandler(logger *slog.Logger, service SettingsService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

type activeRequest struct {
	Active *bool `json:"activo"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rows, err := h.service.List(ctx, res, shared.TenantFromContext(r.Context()))
	if err != nil {
		h.respondError(w, "list settings", err)
		return
	}
	if rows == nil {
		rows = []settings.Record{}
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}
	payload, err := decodePayload(r, res)
	if err != nil {
		h.respondError(w, "decode settings", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rec, err := h.service.Create(ctx, res, shared.TenantFromContext(r.Context()), payload)
	if err != nil {
		h.respondError(w, "create settings", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}
	payload, err := decodePayload(r, res)
	if err != nil {
		h.respondError(w, "decode settings", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rec, err := h.service.Update(ctx, res, shared.TenantFromContext(r.Context()), chi.URLParam(r, "id"), payload)
	if err != nil {
		h.respondError(w, "update settings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) handleSetActive(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}
	var req activeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.respondError(w, "decode activo", err)
		return
	}
	if req.Active == nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "activo required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.service.SetActive(ctx, res, shared.TenantFromContext(r.Context()), chi.URLParam(r, "id"), *req.Active); err != nil {
		h.respondError(w, "toggle settings", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.service.Delete(ctx, res, shared.TenantFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, "delete settings", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) resource(w http.ResponseWriter, r *http.Request) (settings.Resource, bool) {
	res, err := settings.ParseResource(chi.URLParam(r, "resource"))
	if err != nil {
		httpx.RespondError(w, err)
		return "", false
	}
	return res, true
}

func decodePayload(r *http.Request, res settings.Resource) (settings.Payload, error) {
	payload, err := settings.NewPayload(res)
	if err != nil {
		return nil, err
	}
	if err := httpx.DecodeJSON(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, settings.ErrTenantRequired):
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusGatewayTimeout, "Gateway Timeout", "")
		return
	}
	if status, _ := httpx.StatusFor(err); status >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
