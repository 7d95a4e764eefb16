package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/cleanmanager/cleanmanager/internal/platform/httpx"
	"github.com/cleanmanager/cleanmanager/internal/profitability"
)

// ErrTenantRequired is returned when an operation has no tenant.
var ErrTenantRequired = errors.New("settings: tenant required")

// Store persists configuration rows. Implementations scope reads by tenant
// and return errors wrapping httpx.ErrNotFound for unknown ids.
type Store interface {
	List(ctx context.Context, table, tenant string) ([]Record, error)
	Create(ctx context.Context, table string, rec Record) (Record, error)
	Update(ctx context.Context, table, tenant, id string, rec Record) (Record, error)
	SetActive(ctx context.Context, table, tenant, id string, active bool) error
	Delete(ctx context.Context, table, tenant, id string) error
}

// Invalidator drops cached results derived from the configuration.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Service validates and stores configuration, invalidating cached
// profitability results after every write.
type Service struct {
	store       Store
	invalidator Invalidator
	validate    *validator.Validate
	logger      *slog.Logger
	newID       func() string
}

// NewService wires a store. invalidator may be nil.
func NewService(store Store, invalidator Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Service{
		store:       store,
		invalidator: invalidator,
		validate:    v,
		logger:      logger,
		newID:       uuid.NewString,
	}
}

// List returns the tenant's rows for resource.
func (s *Service) List(ctx context.Context, res Resource, tenant string) ([]Record, error) {
	if tenant == "" {
		return nil, ErrTenantRequired
	}
	rows, err := s.store.List(ctx, res.Table(), tenant)
	if err != nil {
		return nil, fmt.Errorf("settings: list %s: %w", res, err)
	}
	return rows, nil
}

// Create validates p and stores it as a new row with a fresh id.
func (s *Service) Create(ctx context.Context, res Resource, tenant string, p Payload) (Record, error) {
	rec, err := s.prepare(ctx, tenant, p)
	if err != nil {
		return nil, err
	}
	rec["id"] = s.newID()
	created, err := s.store.Create(ctx, res.Table(), rec)
	if err != nil {
		return nil, fmt.Errorf("settings: create %s: %w", res, err)
	}
	s.invalidate(ctx, res)
	return created, nil
}

// Update replaces the row id with p.
func (s *Service) Update(ctx context.Context, res Resource, tenant, id string, p Payload) (Record, error) {
	if err := s.ensureOwned(ctx, res, tenant, id); err != nil {
		return nil, err
	}
	rec, err := s.prepare(ctx, tenant, p)
	if err != nil {
		return nil, err
	}
	updated, err := s.store.Update(ctx, res.Table(), tenant, id, rec)
	if err != nil {
		return nil, fmt.Errorf("settings: update %s %s: %w", res, id, err)
	}
	s.invalidate(ctx, res)
	return updated, nil
}

// SetActive toggles the activo flag. Extraordinary expenses have none.
func (s *Service) SetActive(ctx context.Context, res Resource, tenant, id string, active bool) error {
	if res == ResourceExtraordinary {
		return fmt.Errorf("%w: %s has no activo flag", httpx.ErrValidation, res)
	}
	if err := s.ensureOwned(ctx, res, tenant, id); err != nil {
		return err
	}
	if err := s.store.SetActive(ctx, res.Table(), tenant, id, active); err != nil {
		return fmt.Errorf("settings: toggle %s %s: %w", res, id, err)
	}
	s.invalidate(ctx, res)
	return nil
}

// Delete removes the row id.
func (s *Service) Delete(ctx context.Context, res Resource, tenant, id string) error {
	if err := s.ensureOwned(ctx, res, tenant, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, res.Table(), tenant, id); err != nil {
		return fmt.Errorf("settings: delete %s %s: %w", res, id, err)
	}
	s.invalidate(ctx, res)
	return nil
}

// prepare validates p and renders the row with tenant and property name.
func (s *Service) prepare(ctx context.Context, tenant string, p Payload) (Record, error) {
	if tenant == "" {
		return nil, ErrTenantRequired
	}
	if err := s.check(p); err != nil {
		return nil, err
	}
	rec := p.Record()
	rec[profitability.TenantField] = tenant
	propertyID := strings.TrimSpace(p.PropertyID())
	if propertyID == "" {
		rec["propiedad_id"] = nil
		return rec, nil
	}
	name, err := s.propertyName(ctx, tenant, propertyID)
	if err != nil {
		return nil, err
	}
	rec["propiedad_id"] = propertyID
	rec["propiedad_nombre"] = name
	return rec, nil
}

func (s *Service) check(p Payload) error {
	if err := s.validate.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
		}
		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
		}
		sort.Strings(fields)
		return fmt.Errorf("%w: %s", httpx.ErrValidation, strings.Join(fields, ", "))
	}
	if in, ok := p.(*RecurringInput); ok && in.EndDate != "" && in.EndDate < in.StartDate {
		return fmt.Errorf("%w: fecha_fin before fecha_inicio", httpx.ErrValidation)
	}
	return nil
}

// propertyName resolves the display name stored next to a property id. The
// property must belong to the tenant.
func (s *Service) propertyName(ctx context.Context, tenant, id string) (string, error) {
	props, err := s.store.List(ctx, profitability.TableProperties, tenant)
	if err != nil {
		return "", fmt.Errorf("settings: list properties: %w", err)
	}
	for _, p := range props {
		if p.ID() == id {
			name, _ := p["propiedad_nombre"].(string)
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: unknown propiedad_id %q", httpx.ErrValidation, id)
}

func (s *Service) ensureOwned(ctx context.Context, res Resource, tenant, id string) error {
	if tenant == "" {
		return ErrTenantRequired
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id required", httpx.ErrValidation)
	}
	rows, err := s.store.List(ctx, res.Table(), tenant)
	if err != nil {
		return fmt.Errorf("settings: list %s: %w", res, err)
	}
	for _, row := range rows {
		if row.ID() == id {
			return nil
		}
	}
	return fmt.Errorf("settings: %s %s: %w", res, id, httpx.ErrNotFound)
}

func (s *Service) invalidate(ctx context.Context, res Resource) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate profitability cache", slog.String("resource", string(res)), slog.Any("error", err))
	}
}
