package quantum

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// roughnessScale sets the spatial frequency of barrier noise, in 1/length.
const roughnessScale = 4.0

// BuildPotential returns V(x_i): the barrier plateau on the open interval
// (BarrierPos-BarrierWidth/2, BarrierPos+BarrierWidth/2) plus a downward
// quadratic ramp inside the absorber margin. Values are not clamped.
func BuildPotential(p Params) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var noise opensimplex.Noise
	if p.Roughness != 0 {
		noise = opensimplex.New(p.Seed)
	}

	lo, hi := p.BarrierEdges()
	v := make([]float64, p.NX)
	for i := range v {
		x := p.Position(i)
		if x > lo && x < hi {
			h := p.BarrierHeight
			if noise != nil {
				h *= 1 + p.Roughness*noise.Eval2(x*roughnessScale, 0)
			}
			v[i] = h
		}
		v[i] -= absorberRamp(p, i)
	}
	return v, nil
}

// BuildAbsorber returns the magnitude eta*(w-d)^2 of the edge ramp at each
// grid point, zero outside the margin. The evolver turns it into amplitude
// decay, which is what actually removes probability near the edges.
func BuildAbsorber(p Params) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	a := make([]float64, p.NX)
	for i := range a {
		a[i] = absorberRamp(p, i)
	}
	return a, nil
}

// absorberRamp is eta*(w-d)^2 where d is the distance in grid points from
// the nearest domain edge.
func absorberRamp(p Params, i int) float64 {
	w := p.AbsorbWidth
	if w <= 0 || p.AbsorbStrength == 0 {
		return 0
	}

	d := i
	if r := p.NX - 1 - i; r < d {
		d = r
	}
	if d >= w {
		return 0
	}

	gap := float64(w - d)
	return p.AbsorbStrength * gap * gap
}
