package analysis

import (
	"strings"

	"github.com/san-kum/qtunnel/internal/quantum"
)

// PhasePoint is one sample of the expectation values.
type PhasePoint struct {
	T, X, P float64
}

// PhasePortrait2D holds the (<x>, <p>) trajectory of a packet.
type PhasePortrait2D struct {
	Points []PhasePoint
}

// ExpectationPortrait evolves a fresh packet for steps steps and records
// <x> and <p> every `every` steps, starting with the initial state.
func ExpectationPortrait(p quantum.Params, steps, every int) (*PhasePortrait2D, error) {
	if every <= 0 {
		every = 1
	}

	s, err := quantum.Initialize(p)
	if err != nil {
		return nil, err
	}
	evo, err := quantum.NewEvolver(p)
	if err != nil {
		return nil, err
	}

	portrait := &PhasePortrait2D{
		Points: make([]PhasePoint, 0, steps/every+1),
	}

	record := func() error {
		mp, err := MeanMomentum(s, p)
		if err != nil {
			return err
		}
		portrait.Points = append(portrait.Points, PhasePoint{
			T: s.Time,
			X: quantum.MeanPosition(s, p),
			P: mp,
		})
		return nil
	}

	if err := record(); err != nil {
		return nil, err
	}
	for i := 1; i <= steps; i++ {
		if err := evo.Step(s); err != nil {
			return nil, err
		}
		if i%every == 0 {
			if err := record(); err != nil {
				return nil, err
			}
		}
	}

	return portrait, nil
}

// PhasePortraitToASCII converts phase portrait to ASCII art
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].P, portrait.Points[0].P

	for _, p := range portrait.Points {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.P)
		maxY = max(maxY, p.P)
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := blankCanvas(width, height)

	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.P-minY)/rangeY*float64(height-1))

		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	// Draw axes if they cross the visible area
	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if col >= 0 && col < width && canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if row >= 0 && row < height && canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	return canvasString(canvas)
}

func blankCanvas(width, height int) [][]rune {
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}
	return canvas
}

func canvasString(canvas [][]rune) string {
	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
