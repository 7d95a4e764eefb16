package svg

import (
	"errors"
	"fmt"
	"html/template"
	"math"
	"strings"
)

var (
	errSeriesRequired = errors.New("svg: series required")
	errLabels         = errors.New("svg: labels length must match series")
	errViewport       = errors.New("svg: viewport too small")
)

type point struct {
	x, y  float64
	value float64
}

// frame maps series values into the drawable area.
type frame struct {
	padding       float64
	width, height float64
	min, max      float64
}

func (f frame) y(value float64) float64 {
	return f.padding + f.height - (value-f.min)*f.height/(f.max-f.min)
}

// Line renders an SVG line chart of series. The value axis always includes
// zero; when any value is negative a dashed zero line is drawn and those
// points are marked with the negative colour.
func Line(width, height int, series []float64, labels []string, opts LineOpts) (string, error) {
	if len(series) == 0 {
		return "", errSeriesRequired
	}
	if len(series) != len(labels) {
		return "", errLabels
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	ticks := opts.TickCount
	if ticks <= 0 {
		ticks = DefaultTicks
	}
	stroke := fallback(opts.StrokeColor, "#16a34a")
	fill := fallback(opts.FillColor, "rgba(22,163,74,0.12)")
	negative := fallback(opts.NegativeColor, "#dc2626")
	axis := fallback(opts.AxisColor, "#475569")
	grid := fallback(opts.GridColor, "#e2e8f0")

	f := frame{padding: padding, width: float64(width) - 2*padding, height: float64(height) - 2*padding}
	if f.width <= 0 || f.height <= 0 {
		return "", errViewport
	}
	f.min, f.max = bounds(series)
	f.min = math.Min(f.min, 0)
	f.max = math.Max(f.max, 0)
	if almostEqual(f.max, f.min) {
		f.max = f.min + 1
	}

	points := layout(f, series)
	zeroY := f.y(0)
	hasNegative := f.min < 0

	titleID := makeID(opts.Title, "line-title")
	descID := makeID(opts.Title, "line-desc")

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img" aria-labelledby="%s %s">`, width, height, titleID, descID)
	fmt.Fprintf(&b, `<title id="%s">%s</title>`, titleID, template.HTMLEscapeString(fallback(opts.Title, "Evolución")))
	fmt.Fprintf(&b, `<desc id="%s">%s</desc>`, descID, template.HTMLEscapeString(fallback(opts.Description, "Beneficio neto por mes")))

	for i := 0; i <= ticks; i++ {
		value := f.min + (f.max-f.min)*float64(i)/float64(ticks)
		y := f.y(value)
		fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.5" aria-hidden="true"></line>`, padding, y, padding+f.width, y, grid)
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="end">%s</text>`, padding-6, y+4, axis, template.HTMLEscapeString(formatTick(value)))
	}

	fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1"></line>`, padding, padding, padding, padding+f.height, axis)
	if hasNegative {
		fmt.Fprintf(&b, `<line class="zero-line" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1" stroke-dasharray="4,4"></line>`, padding, zeroY, padding+f.width, zeroY, axis)
	} else {
		fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1"></line>`, padding, zeroY, padding+f.width, zeroY, axis)
	}

	path := linePath(points)
	if fill != "" && len(points) > 1 {
		area := fmt.Sprintf("%s L%.2f %.2f L%.2f %.2f Z", path, points[len(points)-1].x, zeroY, points[0].x, zeroY)
		fmt.Fprintf(&b, `<path d="%s" fill="%s" stroke="none" aria-hidden="true"></path>`, area, fill)
	}
	fmt.Fprintf(&b, `<path d="%s" fill="none" stroke="%s" stroke-width="2" stroke-linejoin="round" stroke-linecap="round"></path>`, path, stroke)

	for _, p := range points {
		color := stroke
		if p.value < 0 {
			color = negative
		} else if !opts.ShowDots {
			continue
		}
		fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="3" fill="%s"></circle>`, p.x, p.y, color)
	}

	for i, label := range labels {
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="middle">%s</text>`, points[i].x, padding+f.height+14, axis, template.HTMLEscapeString(label))
	}

	b.WriteString("</svg>")
	return b.String(), nil
}

func layout(f frame, series []float64) []point {
	points := make([]point, len(series))
	step := 0.0
	if len(series) > 1 {
		step = f.width / float64(len(series)-1)
	}
	for i, value := range series {
		x := f.padding + f.width/2
		if len(series) > 1 {
			x = f.padding + float64(i)*step
		}
		points[i] = point{x: x, y: f.y(value), value: value}
	}
	return points
}

func linePath(points []point) string {
	var path strings.Builder
	for i, p := range points {
		if i == 0 {
			fmt.Fprintf(&path, "M%.2f %.2f", p.x, p.y)
			continue
		}
		fmt.Fprintf(&path, " L%.2f %.2f", p.x, p.y)
	}
	return path.String()
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func bounds(series []float64) (float64, float64) {
	lo, hi := series[0], series[0]
	for _, v := range series[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return cleaned + "-" + suffix
}

func formatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	case almostEqual(v, math.Round(v)):
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
