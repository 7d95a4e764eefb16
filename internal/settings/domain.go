// Package settings manages the per-tenant configuration the profitability
// engine reads: commission rules, revenue split policies, recurring and
// extraordinary expenses.
package settings

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cleanmanager/cleanmanager/internal/platform/httpx"
	"github.com/cleanmanager/cleanmanager/internal/profitability"
)

// Resource names a configuration collection as it appears in URLs.
type Resource string

const (
	ResourceCommissions   Resource = "comisiones"
	ResourceSplits        Resource = "reparto"
	ResourceRecurring     Resource = "gastos-recurrentes"
	ResourceExtraordinary Resource = "gastos-extra"
)

var resourceTables = map[Resource]string{
	ResourceCommissions:   profitability.TableCommissions,
	ResourceSplits:        profitability.TableSplits,
	ResourceRecurring:     profitability.TableRecurring,
	ResourceExtraordinary: profitability.TableExtraordinary,
}

// ParseResource validates a URL resource segment.
func ParseResource(s string) (Resource, error) {
	r := Resource(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := resourceTables[r]; !ok {
		return "", fmt.Errorf("settings: unknown resource %q: %w", s, httpx.ErrNotFound)
	}
	return r, nil
}

// Table returns the backing table.
func (r Resource) Table() string {
	return resourceTables[r]
}

// Record is a stored row keyed by column name.
type Record map[string]any

// ID returns the record id as a string. Numeric ids decoded from JSON are
// formatted without exponent so bigint keys compare equal to their URL form.
func (r Record) ID() string {
	switch v := r["id"].(type) {
	case string:
		return v
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Payload is a validated input that renders to a row.
type Payload interface {
	// PropertyID is the property the record is scoped to, empty for all.
	PropertyID() string
	// Record renders the row without tenant, id or property name.
	Record() Record
}

// NewPayload returns an empty input for resource, ready to be decoded into.
func NewPayload(r Resource) (Payload, error) {
	switch r {
	case ResourceCommissions:
		return &CommissionInput{}, nil
	case ResourceSplits:
		return &SplitInput{}, nil
	case ResourceRecurring:
		return &RecurringInput{}, nil
	case ResourceExtraordinary:
		return &ExtraordinaryInput{}, nil
	}
	return nil, fmt.Errorf("settings: unknown resource %q: %w", r, httpx.ErrNotFound)
}

// CommissionInput configures what a platform charges per booking.
type CommissionInput struct {
	Platform    string  `json:"plataforma" validate:"required,oneof=booking airbnb vrbo directo pms otra"`
	DisplayName string  `json:"nombre_mostrar" validate:"max=80"`
	Kind        string  `json:"tipo_comision" validate:"required,oneof=porcentaje fijo"`
	Percentage  float64 `json:"porcentaje" validate:"gte=0,lte=100"`
	FixedAmount float64 `json:"importe_fijo" validate:"gte=0"`
	Property    string  `json:"propiedad_id" validate:"max=64"`
	Notes       string  `json:"notas" validate:"max=500"`
}

// PropertyID implements Payload.
func (in *CommissionInput) PropertyID() string { return in.Property }

// Record implements Payload. Only the amount matching the kind is kept.
func (in *CommissionInput) Record() Record {
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		name = in.Platform
	}
	pct, fixed := in.Percentage, in.FixedAmount
	if in.Kind == string(profitability.CommissionPercentage) {
		fixed = 0
	} else {
		pct = 0
	}
	return Record{
		"plataforma":     in.Platform,
		"nombre_mostrar": name,
		"tipo_comision":  in.Kind,
		"porcentaje":     pct,
		"importe_fijo":   fixed,
		"activo":         true,
		"notas":          in.Notes,
	}
}

// SplitInput configures the owner/manager revenue split.
type SplitInput struct {
	Property     string   `json:"propiedad_id" validate:"max=64"`
	Model        string   `json:"modelo" validate:"required,oneof=porcentaje fijo_noche fijo_reserva neto"`
	OwnerPercent *float64 `json:"porcentaje_propietario" validate:"omitempty,gte=0,lte=100"`
	Basis        string   `json:"calcular_sobre" validate:"omitempty,oneof=bruto neto"`
	FixedAmount  float64  `json:"importe_fijo" validate:"gte=0"`
	// The deduction flags are stored for the dashboard; the engine does not
	// read them.
	DeductCommissions *bool  `json:"descontar_comisiones"`
	DeductCleaning    *bool  `json:"descontar_limpieza"`
	DeductAmenities   *bool  `json:"descontar_amenities"`
	DeductUtilities   *bool  `json:"descontar_suministros"`
	Notes             string `json:"notas" validate:"max=500"`
}

// PropertyID implements Payload.
func (in *SplitInput) PropertyID() string { return in.Property }

// Record implements Payload, applying the dashboard defaults: 70% owner share
// on net profit, deducting everything but utilities.
func (in *SplitInput) Record() Record {
	pct := profitability.DefaultOwnerShare * 100
	if in.OwnerPercent != nil && *in.OwnerPercent > 0 {
		pct = *in.OwnerPercent
	}
	basis := in.Basis
	if basis == "" {
		basis = string(profitability.BasisNet)
	}
	return Record{
		"modelo":                 in.Model,
		"porcentaje_propietario": pct,
		"calcular_sobre":         basis,
		"importe_fijo":           in.FixedAmount,
		"descontar_comisiones":   boolOr(in.DeductCommissions, true),
		"descontar_limpieza":     boolOr(in.DeductCleaning, true),
		"descontar_amenities":    boolOr(in.DeductAmenities, true),
		"descontar_suministros":  boolOr(in.DeductUtilities, false),
		"activo":                 true,
		"notas":                  in.Notes,
	}
}

// RecurringInput configures a standing expense.
type RecurringInput struct {
	Name        string  `json:"nombre" validate:"required,max=120"`
	Category    string  `json:"categoria" validate:"omitempty,oneof=suministros comunidad seguros impuestos otros"`
	Amount      float64 `json:"importe" validate:"gt=0"`
	Periodicity string  `json:"periodicidad" validate:"omitempty,oneof=mensual bimestral trimestral anual unico"`
	StartDate   string  `json:"fecha_inicio" validate:"required,datetime=2006-01-02"`
	EndDate     string  `json:"fecha_fin" validate:"omitempty,datetime=2006-01-02"`
	Prorate     *bool   `json:"prorratear"`
	ChargeDay   int     `json:"dia_cargo" validate:"omitempty,min=1,max=31"`
	ChargeMonth int     `json:"mes_cargo" validate:"omitempty,min=1,max=12"`
	PaidBy      string  `json:"pagado_por" validate:"omitempty,oneof=propietario gestor"`
	Property    string  `json:"propiedad_id" validate:"max=64"`
	Notes       string  `json:"notas" validate:"max=500"`
}

// PropertyID implements Payload.
func (in *RecurringInput) PropertyID() string { return in.Property }

// Record implements Payload.
func (in *RecurringInput) Record() Record {
	rec := Record{
		"nombre":       strings.TrimSpace(in.Name),
		"categoria":    stringOr(in.Category, profitability.CategoryUtilities),
		"importe":      in.Amount,
		"periodicidad": stringOr(in.Periodicity, string(profitability.PeriodicityMonthly)),
		"fecha_inicio": in.StartDate,
		"fecha_fin":    nil,
		"prorratear":   boolOr(in.Prorate, true),
		"pagado_por":   stringOr(in.PaidBy, profitability.PayerOwner),
		"activo":       true,
		"notas":        in.Notes,
	}
	if in.EndDate != "" {
		rec["fecha_fin"] = in.EndDate
	}
	if in.ChargeDay > 0 {
		rec["dia_cargo"] = in.ChargeDay
	}
	if in.ChargeMonth > 0 {
		rec["mes_cargo"] = in.ChargeMonth
	}
	return rec
}

// ExtraordinaryInput records a one-off expense.
type ExtraordinaryInput struct {
	Date     string  `json:"fecha" validate:"required,datetime=2006-01-02"`
	Concept  string  `json:"concepto" validate:"required,max=200"`
	Category string  `json:"categoria" validate:"omitempty,oneof=mantenimiento otros"`
	Amount   float64 `json:"importe" validate:"gt=0"`
	PaidBy   string  `json:"pagado_por" validate:"omitempty,oneof=propietario gestor"`
	Property string  `json:"propiedad_id" validate:"max=64"`
	Notes    string  `json:"notas" validate:"max=500"`
}

// PropertyID implements Payload.
func (in *ExtraordinaryInput) PropertyID() string { return in.Property }

// Record implements Payload.
func (in *ExtraordinaryInput) Record() Record {
	return Record{
		"fecha":      in.Date,
		"concepto":   strings.TrimSpace(in.Concept),
		"categoria":  stringOr(in.Category, profitability.CategoryOther),
		"importe":    in.Amount,
		"pagado_por": stringOr(in.PaidBy, profitability.PayerOwner),
		"notas":      in.Notes,
	}
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func stringOr(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
