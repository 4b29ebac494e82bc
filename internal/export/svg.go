package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/qtunnel/internal/viz"
)

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2   // 2 sub-pixels per char
	height := float64(canvas.Height) * scale * 4 // 4 sub-pixels per char

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00aaff">
`, width, height, width, height))

	// Braille dot-to-bit mapping
	pixelMap := [4][2]int{
		{0x01, 0x08},
		{0x02, 0x10},
		{0x04, 0x20},
		{0x40, 0x80},
	}

	dotRadius := scale * 0.4

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r := canvas.Grid[row][col]
			if r < 0x2800 {
				continue
			}
			pattern := int(r - 0x2800)

			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4

			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] != 0 {
						cx := baseX + float64(dx)*scale + scale/2
						cy := baseY + float64(dy)*scale + scale/2
						sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, cx, cy, dotRadius))
					}
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// DensitySVG draws the density as a filled curve and the potential as an
// outline, each scaled to its own maximum. Negative potential (the absorber
// ramp) is clipped to the baseline.
func DensitySVG(x, density, potential []float64, width, height int) string {
	if len(x) < 2 || len(density) != len(x) {
		return ""
	}

	minX, maxX := x[0], x[len(x)-1]
	rangeX := maxX - minX
	if rangeX == 0 {
		rangeX = 1
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	px := func(v float64) float64 { return (v - minX) / rangeX * float64(width) }
	base := float64(height)

	if len(potential) == len(x) {
		if vmax := maxOf(potential); vmax > 0 {
			sb.WriteString(`<path fill="none" stroke="#ffa500" stroke-width="1.5" d="M`)
			for i := range x {
				y := base - math.Max(potential[i], 0)/vmax*base*0.9
				writePoint(&sb, i, px(x[i]), y)
			}
			sb.WriteString("\"/>\n")
		}
	}

	dmax := maxOf(density)
	if dmax <= 0 {
		dmax = 1
	}
	sb.WriteString(fmt.Sprintf(`<path fill="#00aaff" fill-opacity="0.35" stroke="#00aaff" stroke-width="1.5" d="M%.1f,%.1f`, px(x[0]), base))
	for i := range x {
		y := base - density[i]/dmax*base*0.9
		sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", px(x[i]), y))
	}
	sb.WriteString(fmt.Sprintf(" L%.1f,%.1f Z\"/>\n", px(x[len(x)-1]), base))

	sb.WriteString("</svg>")
	return sb.String()
}

func writePoint(sb *strings.Builder, i int, x, y float64) {
	if i == 0 {
		sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
	} else {
		sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
	}
}

func maxOf(values []float64) float64 {
	m := math.Inf(-1)
	for _, v := range values {
		m = math.Max(m, v)
	}
	return m
}
