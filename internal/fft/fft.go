package fft

import (
	"math"
	"math/bits"
)

// Plan holds the precomputed tables for transforms of one fixed length.
type Plan struct {
	n   int
	rev []int
	cos []float64
	sin []float64
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// NewPlan builds a plan for arrays of length n.
func NewPlan(n int) (*Plan, error) {
	if !IsPowerOfTwo(n) {
		return nil, &LengthError{Real: n, Imag: n}
	}

	p := &Plan{
		n:   n,
		rev: make([]int, n),
		cos: make([]float64, n/2),
		sin: make([]float64, n/2),
	}

	if n > 1 {
		logN := bits.TrailingZeros(uint(n))
		for i := 1; i < n; i++ {
			p.rev[i] = p.rev[i>>1]>>1 | (i&1)<<(logN-1)
		}
	}

	for k := 0; k < n/2; k++ {
		angle := 2 * math.Pi * float64(k) / float64(n)
		p.cos[k] = math.Cos(angle)
		p.sin[k] = math.Sin(angle)
	}

	return p, nil
}

// Len returns the transform length.
func (p *Plan) Len() int { return p.n }

// Forward replaces (re, im) with its discrete Fourier transform.
func (p *Plan) Forward(re, im []float64) error {
	if err := p.check(re, im); err != nil {
		return err
	}
	p.transform(re, im, -1)
	return nil
}

// Inverse replaces (re, im) with its inverse discrete Fourier transform,
// including the 1/n scaling.
func (p *Plan) Inverse(re, im []float64) error {
	if err := p.check(re, im); err != nil {
		return err
	}
	p.transform(re, im, 1)

	scale := 1.0 / float64(p.n)
	for i := range re {
		re[i] *= scale
		im[i] *= scale
	}
	return nil
}

func (p *Plan) check(re, im []float64) error {
	if len(re) != len(im) || len(re) != p.n {
		return &LengthError{Real: len(re), Imag: len(im), Want: p.n}
	}
	return nil
}

// transform runs the butterflies; sign is -1 for forward, +1 for inverse.
func (p *Plan) transform(re, im []float64, sign float64) {
	n := p.n

	for i, j := range p.rev {
		if i < j {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
	}

	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		stride := n / size
		for start := 0; start < n; start += size {
			for k := 0; k < half; k++ {
				wr := p.cos[k*stride]
				wi := sign * p.sin[k*stride]

				a, b := start+k, start+k+half
				tr := wr*re[b] - wi*im[b]
				ti := wr*im[b] + wi*re[b]

				re[b] = re[a] - tr
				im[b] = im[a] - ti
				re[a] += tr
				im[a] += ti
			}
		}
	}
}

// Forward transforms (re, im) in place with a one-off plan.
func Forward(re, im []float64) error {
	if len(re) != len(im) {
		return &LengthError{Real: len(re), Imag: len(im)}
	}
	p, err := NewPlan(len(re))
	if err != nil {
		return err
	}
	return p.Forward(re, im)
}

// Inverse inverts (re, im) in place with a one-off plan.
func Inverse(re, im []float64) error {
	if len(re) != len(im) {
		return &LengthError{Real: len(re), Imag: len(im)}
	}
	p, err := NewPlan(len(re))
	if err != nil {
		return err
	}
	return p.Inverse(re, im)
}
