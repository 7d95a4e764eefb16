package profitability

import "time"

// BookingStatusCancelled marks bookings that never count toward a month.
const BookingStatusCancelled = "cancelled"

// Platform enumerates the canonical booking channels commission rules key on.
type Platform string

const (
	PlatformBooking Platform = "booking"
	PlatformAirbnb  Platform = "airbnb"
	PlatformVrbo    Platform = "vrbo"
	PlatformDirect  Platform = "directo"
	PlatformPMS     Platform = "pms"
	PlatformOther   Platform = "otra"
)

// CommissionKind selects how a rule charges a booking.
type CommissionKind string

const (
	CommissionPercentage CommissionKind = "porcentaje"
	CommissionFixed      CommissionKind = "fijo"
)

// Periodicity describes how often a recurring expense is billed.
type Periodicity string

const (
	PeriodicityMonthly   Periodicity = "mensual"
	PeriodicityBimonthly Periodicity = "bimestral"
	PeriodicityQuarterly Periodicity = "trimestral"
	PeriodicityAnnual    Periodicity = "anual"
	PeriodicityOneTime   Periodicity = "unico"
)

// Expense categories as stored by the dashboard.
const (
	CategoryUtilities   = "suministros"
	CategoryCommunity   = "comunidad"
	CategoryInsurance   = "seguros"
	CategoryTaxes       = "impuestos"
	CategoryOther       = "otros"
	CategoryMaintenance = "mantenimiento"
)

// Payer tags.
const (
	PayerOwner   = "propietario"
	PayerManager = "gestor"
)

// SplitModel enumerates the owner/manager revenue split models.
type SplitModel string

const (
	SplitPercentage      SplitModel = "porcentaje"
	SplitFixedPerNight   SplitModel = "fijo_noche"
	SplitFixedPerBooking SplitModel = "fijo_reserva"
	SplitNet             SplitModel = "neto"
)

// SplitBasis selects the base amount for percentage splits.
type SplitBasis string

const (
	BasisGross SplitBasis = "bruto"
	BasisNet   SplitBasis = "neto"
)

// DefaultOwnerShare applies when no split policy is configured.
const DefaultOwnerShare = 0.70

// Booking is a reservation synced from a channel or PMS.
type Booking struct {
	ID           string    `json:"id"`
	PropertyID   string    `json:"propiedad_id"`
	PropertyName string    `json:"propiedad_nombre"`
	GuestName    string    `json:"huesped_nombre"`
	CheckIn      time.Time `json:"check_in"`
	CheckOut     time.Time `json:"check_out"`
	Price        float64   `json:"precio"`
	Status       string    `json:"status"`
	Source       string    `json:"fuente,omitempty"`
	Origin       string    `json:"origen,omitempty"`
	PartnerName  string    `json:"partner_name,omitempty"`
}

// CommissionRule charges bookings coming from a platform.
type CommissionRule struct {
	ID          string         `json:"id"`
	Platform    Platform       `json:"plataforma"`
	DisplayName string         `json:"nombre_mostrar"`
	Kind        CommissionKind `json:"tipo_comision"`
	Percentage  float64        `json:"porcentaje"`
	FixedAmount float64        `json:"importe_fijo"`
	PropertyID  string         `json:"propiedad_id,omitempty"`
	Active      bool           `json:"activo"`
	Notes       string         `json:"notas,omitempty"`
}

// Scoped reports whether the rule targets a single property.
func (r CommissionRule) Scoped() bool { return r.PropertyID != "" }

// RecurringExpense is a standing cost such as utilities or community fees.
type RecurringExpense struct {
	ID          string      `json:"id"`
	Name        string      `json:"nombre"`
	Category    string      `json:"categoria"`
	Amount      float64     `json:"importe"`
	Periodicity Periodicity `json:"periodicidad"`
	StartDate   time.Time   `json:"fecha_inicio"`
	EndDate     *time.Time  `json:"fecha_fin,omitempty"`
	Prorate     bool        `json:"prorratear"`
	ChargeDay   int         `json:"dia_cargo"`
	ChargeMonth time.Month  `json:"mes_cargo"`
	PropertyID  string      `json:"propiedad_id,omitempty"`
	Active      bool        `json:"activo"`
	PaidBy      string      `json:"pagado_por"`
}

// ExtraordinaryExpense is a one-off cost dated to a single day.
type ExtraordinaryExpense struct {
	ID         string    `json:"id"`
	Date       time.Time `json:"fecha"`
	Concept    string    `json:"concepto"`
	Category   string    `json:"categoria"`
	Amount     float64   `json:"importe"`
	PropertyID string    `json:"propiedad_id,omitempty"`
	PaidBy     string    `json:"pagado_por"`
}

// SplitPolicy divides results between the property owner and the manager.
type SplitPolicy struct {
	ID           string     `json:"id"`
	PropertyID   string     `json:"propiedad_id,omitempty"`
	Model        SplitModel `json:"modelo"`
	OwnerPercent float64    `json:"porcentaje_propietario"`
	Basis        SplitBasis `json:"calcular_sobre"`
	FixedAmount  float64    `json:"importe_fijo"`
	Active       bool       `json:"activo"`
	Notes        string     `json:"notas,omitempty"`
}

// Property is a managed rental unit.
type Property struct {
	ID            string  `json:"id"`
	Name          string  `json:"propiedad_nombre"`
	CleaningPrice float64 `json:"precio_limpieza"`
}

// InventoryItem is an amenity stock entry, optionally limited to some properties.
type InventoryItem struct {
	Name        string   `json:"item"`
	PropertyIDs []string `json:"propiedades_ids"`
}

// AppliesTo reports whether the item is global or scoped to propertyID.
func (i InventoryItem) AppliesTo(propertyID string) bool {
	if len(i.PropertyIDs) == 0 {
		return true
	}
	for _, id := range i.PropertyIDs {
		if id == propertyID {
			return true
		}
	}
	return false
}

// ConsumptionLine is one item of the monthly amenity consumption breakdown.
type ConsumptionLine struct {
	Name  string  `json:"nombre"`
	Total float64 `json:"total"`
}

// Consumption is the precomputed amenity cost of a month.
type Consumption struct {
	Total     float64           `json:"total"`
	Breakdown []ConsumptionLine `json:"desglose"`
}

// RecurringLine details one recurring expense charged in a month.
type RecurringLine struct {
	Name        string      `json:"nombre"`
	Category    string      `json:"categoria"`
	Amount      float64     `json:"importe"`
	Periodicity Periodicity `json:"periodicidad"`
	PaidBy      string      `json:"pagadoPor"`
}

// RecurringResult aggregates recurring expenses for a month.
type RecurringResult struct {
	Total     float64         `json:"total"`
	Utilities float64         `json:"suministros"`
	Community float64         `json:"comunidad"`
	Insurance float64         `json:"seguros"`
	Other     float64         `json:"otros"`
	Lines     []RecurringLine `json:"detalle"`
}

// ExtraordinaryLine details one extraordinary expense of a month.
type ExtraordinaryLine struct {
	Date     string  `json:"fecha"`
	Concept  string  `json:"concepto"`
	Category string  `json:"categoria"`
	Amount   float64 `json:"importe"`
	PaidBy   string  `json:"pagadoPor"`
}

// ExtraordinaryResult aggregates extraordinary expenses for a month.
type ExtraordinaryResult struct {
	Total       float64             `json:"total"`
	Maintenance float64             `json:"mantenimiento"`
	Other       float64             `json:"otros"`
	Lines       []ExtraordinaryLine `json:"detalle"`
}

// Split is the owner/manager division of a month's result.
type Split struct {
	Owner   float64 `json:"propietario"`
	Manager float64 `json:"gestor"`
}

// MonthlySummary is the profit-and-loss view of one month.
type MonthlySummary struct {
	Month    string `json:"mes"`
	Year     int    `json:"año"`
	MonthNum int    `json:"mesNum"`

	GrossRevenue  float64 `json:"ingresosBrutos"`
	BookingCount  int     `json:"numReservas"`
	Nights        int     `json:"numNoches"`
	Occupancy     float64 `json:"ocupacion"`
	AverageTicket float64 `json:"ticketMedio"`
	RevPAR        float64 `json:"revPAR"`

	CommissionCost  float64 `json:"gastoComisiones"`
	CleaningCost    float64 `json:"gastoLimpieza"`
	AmenityCost     float64 `json:"gastoAmenities"`
	UtilitiesCost   float64 `json:"gastoSuministros"`
	CommunityCost   float64 `json:"gastoComunidad"`
	InsuranceCost   float64 `json:"gastoSeguros"`
	MaintenanceCost float64 `json:"gastoMantenimiento"`
	OtherCost       float64 `json:"gastoOtros"`

	TotalExpenses float64 `json:"gastosTotales"`
	NetProfit     float64 `json:"beneficioNeto"`
	Margin        float64 `json:"margen"`

	OwnerPayout   float64 `json:"pagoPropietario"`
	ManagerProfit float64 `json:"beneficioGestor"`

	RecurringLines     []RecurringLine     `json:"detalleGastosRecurrentes"`
	ExtraordinaryLines []ExtraordinaryLine `json:"detalleGastosExtra"`
	Bookings           []Booking           `json:"reservas"`
}

// TrendPoint is one month of the profit trend series.
type TrendPoint struct {
	Month     string  `json:"mes"`
	Label     string  `json:"label"`
	Revenue   float64 `json:"ingresos"`
	Expenses  float64 `json:"gastos"`
	NetProfit float64 `json:"beneficio"`
}
