package analysis

import "github.com/san-kum/qtunnel/internal/sim"

// SweepToASCII draws transmitted ('•') and reflected ('∘') fractions against
// the swept value on a fixed [0, 1] vertical scale.
func SweepToASCII(points []sim.SweepPoint, width, height int) string {
	if len(points) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	canvas := blankCanvas(width, height)
	plot := func(col int, v float64, mark rune) {
		v = min(max(v, 0), 1)
		row := height - 1 - int(v*float64(height-1)+0.5)
		if canvas[row][col] == ' ' {
			canvas[row][col] = mark
		}
	}

	for i, p := range points {
		col := i * width / len(points)
		if col >= width {
			col = width - 1
		}
		plot(col, p.Transmitted, '•')
		plot(col, p.Reflected, '∘')
	}

	return canvasString(canvas)
}
