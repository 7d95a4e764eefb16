package profitability

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Wire rows mirror the dashboard tables. Optional fields are pointers or
// lenient scalar types so that defaulting happens here and nowhere else.

// number decodes JSON numbers, numeric strings and null. Unparseable strings
// decode to zero.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			v = 0
		}
		*n = number(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = number(v)
	return nil
}

// text decodes strings, numbers and null into a string. Bigint ids arrive as
// numbers from some tables.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
	default:
		*t = text(b)
	}
	return nil
}

type bookingRow struct {
	ID           text    `json:"id"`
	PropertyID   text    `json:"propiedad_id"`
	PropertyName string  `json:"propiedad_nombre"`
	GuestName    string  `json:"huesped_nombre"`
	CheckIn      string  `json:"check_in"`
	CheckOut     string  `json:"check_out"`
	Price        *number `json:"precio"`
	TotalPrice   *number `json:"precio_total"`
	Status       string  `json:"status"`
	Source       string  `json:"fuente"`
	Origin       string  `json:"origen"`
	PartnerName  string  `json:"partner_name"`
}

func (r bookingRow) toBooking() Booking {
	return Booking{
		ID:           string(r.ID),
		PropertyID:   string(r.PropertyID),
		PropertyName: r.PropertyName,
		GuestName:    r.GuestName,
		CheckIn:      parseTimestamp(r.CheckIn),
		CheckOut:     parseTimestamp(r.CheckOut),
		Price:        firstNonZero(r.Price, r.TotalPrice),
		Status:       r.Status,
		Source:       r.Source,
		Origin:       r.Origin,
		PartnerName:  r.PartnerName,
	}
}

type commissionRow struct {
	ID          text    `json:"id"`
	Platform    string  `json:"plataforma"`
	DisplayName string  `json:"nombre_mostrar"`
	Kind        string  `json:"tipo_comision"`
	Percentage  number  `json:"porcentaje"`
	FixedAmount number  `json:"importe_fijo"`
	PropertyID  text    `json:"propiedad_id"`
	Active      bool    `json:"activo"`
	Notes       *string `json:"notas"`
}

func (r commissionRow) toRule() CommissionRule {
	name := r.DisplayName
	if name == "" {
		name = r.Platform
	}
	return CommissionRule{
		ID:          string(r.ID),
		Platform:    Platform(r.Platform),
		DisplayName: name,
		Kind:        CommissionKind(r.Kind),
		Percentage:  float64(r.Percentage),
		FixedAmount: float64(r.FixedAmount),
		PropertyID:  string(r.PropertyID),
		Active:      r.Active,
		Notes:       deref(r.Notes),
	}
}

type recurringRow struct {
	ID          text    `json:"id"`
	Name        string  `json:"nombre"`
	Category    string  `json:"categoria"`
	Amount      number  `json:"importe"`
	Periodicity string  `json:"periodicidad"`
	StartDate   string  `json:"fecha_inicio"`
	EndDate     *string `json:"fecha_fin"`
	Prorate     bool    `json:"prorratear"`
	ChargeDay   number  `json:"dia_cargo"`
	ChargeMonth number  `json:"mes_cargo"`
	PropertyID  text    `json:"propiedad_id"`
	Active      bool    `json:"activo"`
	PaidBy      string  `json:"pagado_por"`
}

func (r recurringRow) toExpense() RecurringExpense {
	e := RecurringExpense{
		ID:          string(r.ID),
		Name:        r.Name,
		Category:    r.Category,
		Amount:      float64(r.Amount),
		Periodicity: Periodicity(r.Periodicity),
		StartDate:   parseTimestamp(r.StartDate),
		Prorate:     r.Prorate,
		ChargeDay:   int(r.ChargeDay),
		ChargeMonth: time.Month(int(r.ChargeMonth)),
		PropertyID:  string(r.PropertyID),
		Active:      r.Active,
		PaidBy:      r.PaidBy,
	}
	if e.PaidBy == "" {
		e.PaidBy = PayerOwner
	}
	if r.EndDate != nil {
		if end := parseTimestamp(*r.EndDate); !end.IsZero() {
			e.EndDate = &end
		}
	}
	return e
}

type extraordinaryRow struct {
	ID         text   `json:"id"`
	Date       string `json:"fecha"`
	Concept    string `json:"concepto"`
	Category   string `json:"categoria"`
	Amount     number `json:"importe"`
	PropertyID text   `json:"propiedad_id"`
	PaidBy     string `json:"pagado_por"`
}

func (r extraordinaryRow) toExpense() ExtraordinaryExpense {
	paidBy := r.PaidBy
	if paidBy == "" {
		paidBy = PayerOwner
	}
	return ExtraordinaryExpense{
		ID:         string(r.ID),
		Date:       parseDay(r.Date),
		Concept:    r.Concept,
		Category:   r.Category,
		Amount:     float64(r.Amount),
		PropertyID: string(r.PropertyID),
		PaidBy:     paidBy,
	}
}

type splitRow struct {
	ID           text    `json:"id"`
	PropertyID   text    `json:"propiedad_id"`
	Model        string  `json:"modelo"`
	OwnerPercent *number `json:"porcentaje_propietario"`
	Basis        string  `json:"calcular_sobre"`
	FixedAmount  number  `json:"importe_fijo"`
	Active       bool    `json:"activo"`
	Notes        *string `json:"notas"`
}

func (r splitRow) toPolicy() SplitPolicy {
	pct := DefaultOwnerShare * 100
	if r.OwnerPercent != nil {
		pct = float64(*r.OwnerPercent)
	}
	basis := SplitBasis(r.Basis)
	if basis == "" {
		basis = BasisNet
	}
	return SplitPolicy{
		ID:           string(r.ID),
		PropertyID:   string(r.PropertyID),
		Model:        SplitModel(r.Model),
		OwnerPercent: pct,
		Basis:        basis,
		FixedAmount:  float64(r.FixedAmount),
		Active:       r.Active,
		Notes:        deref(r.Notes),
	}
}

type propertyRow struct {
	ID            text   `json:"id"`
	Name          string `json:"propiedad_nombre"`
	CleaningPrice number `json:"precio_limpieza"`
}

func (r propertyRow) toProperty() Property {
	return Property{ID: string(r.ID), Name: r.Name, CleaningPrice: float64(r.CleaningPrice)}
}

type inventoryRow struct {
	Name        string `json:"item"`
	PropertyIDs []text `json:"propiedades_ids"`
}

func (r inventoryRow) toItem() InventoryItem {
	item := InventoryItem{Name: r.Name}
	for _, id := range r.PropertyIDs {
		if id != "" {
			item.PropertyIDs = append(item.PropertyIDs, string(id))
		}
	}
	return item
}

// consumptionRow is one item line of the monthly consumption table.
type consumptionRow struct {
	Month string `json:"mes"`
	Name  string `json:"nombre"`
	Total number `json:"total"`
}

// groupConsumption folds item lines into per-month totals. Lines without a
// valid month key are dropped.
func groupConsumption(rows []consumptionRow) map[string]Consumption {
	out := make(map[string]Consumption)
	for _, r := range rows {
		m, err := ParseMonth(strings.TrimSpace(r.Month))
		if err != nil {
			continue
		}
		key := m.String()
		c := out[key]
		c.Total += float64(r.Total)
		c.Breakdown = append(c.Breakdown, ConsumptionLine{Name: r.Name, Total: float64(r.Total)})
		out[key] = c
	}
	return out
}

// decodeRows decodes every raw row, skipping rows that are not objects of the
// expected shape.
func decodeRows[R any, T any](raw []json.RawMessage, convert func(R) T) ([]T, int) {
	out := make([]T, 0, len(raw))
	skipped := 0
	for _, msg := range raw {
		var row R
		if err := json.Unmarshal(msg, &row); err != nil {
			skipped++
			continue
		}
		out = append(out, convert(row))
	}
	return out, skipped
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// parseTimestamp accepts ISO dates and timestamps. Values without a zone are
// read as UTC; unparseable values yield the zero time.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// parseDay keeps the calendar day written in the value, ignoring any time or
// zone suffix.
func parseDay(s string) time.Time {
	s = strings.TrimSpace(s)
	if len(s) < len(dateLayout) {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, s[:len(dateLayout)])
	if err != nil {
		return time.Time{}
	}
	return t
}

func firstNonZero(values ...*number) float64 {
	for _, v := range values {
		if v != nil && *v != 0 {
			return float64(*v)
		}
	}
	return 0
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
