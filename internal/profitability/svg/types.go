// Package svg renders the profit trend chart served by the dashboard.
package svg

// LineOpts customises the line chart renderer.
type LineOpts struct {
	Title         string
	Description   string
	StrokeColor   string
	FillColor     string
	NegativeColor string
	AxisColor     string
	GridColor     string
	Padding       float64
	ShowDots      bool
	TickCount     int
}

// Defaults for the trend chart.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 32.0
	DefaultTicks   = 4
)
