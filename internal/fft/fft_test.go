package fft

import (
	"errors"
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	dsp "github.com/mjibson/go-dsp/fft"
)

const tol = 1e-9

func randomPair(rng *rand.Rand, n int) ([]float64, []float64) {
	re := make([]float64, n)
	im := make([]float64, n)
	for i := range re {
		re[i] = rng.Float64()*2 - 1
		im[i] = rng.Float64()*2 - 1
	}
	return re, im
}

func clonePair(re, im []float64) ([]float64, []float64) {
	r := make([]float64, len(re))
	i := make([]float64, len(im))
	copy(r, re)
	copy(i, im)
	return r, i
}

func naiveDFT(re, im []float64) ([]float64, []float64) {
	n := len(re)
	outRe := make([]float64, n)
	outIm := make([]float64, n)
	for k := 0; k < n; k++ {
		for j := 0; j < n; j++ {
			angle := -2 * math.Pi * float64(k*j) / float64(n)
			c, s := math.Cos(angle), math.Sin(angle)
			outRe[k] += re[j]*c - im[j]*s
			outIm[k] += re[j]*s + im[j]*c
		}
	}
	return outRe, outIm
}

func assertClose(t *testing.T, name string, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: length %d, want %d", name, len(got), len(want))
	}
	for i := range got {
		scale := math.Max(1, math.Abs(want[i]))
		if math.Abs(got[i]-want[i]) > eps*scale {
			t.Fatalf("%s[%d] = %.12f, want %.12f", name, i, got[i], want[i])
		}
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	tests := []struct {
		n    int
		want bool
	}{
		{-4, false},
		{0, false},
		{1, true},
		{2, true},
		{3, false},
		{6, false},
		{8, true},
		{1024, true},
		{1000, false},
	}

	for _, tt := range tests {
		if got := IsPowerOfTwo(tt.n); got != tt.want {
			t.Errorf("IsPowerOfTwo(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestNewPlanRejectsBadLengths(t *testing.T) {
	for _, n := range []int{0, 3, 6, 12, 100} {
		_, err := NewPlan(n)
		if !errors.Is(err, ErrInvalidLength) {
			t.Errorf("NewPlan(%d) error = %v, want ErrInvalidLength", n, err)
		}
		var lenErr *LengthError
		if !errors.As(err, &lenErr) || lenErr.Real != n {
			t.Errorf("NewPlan(%d) error = %#v, want *LengthError", n, err)
		}
	}
}

func TestPlanRejectsMismatchedArrays(t *testing.T) {
	p, err := NewPlan(8)
	if err != nil {
		t.Fatalf("NewPlan(8): %v", err)
	}

	tests := []struct {
		name   string
		re, im []float64
	}{
		{"real shorter", make([]float64, 4), make([]float64, 8)},
		{"imag shorter", make([]float64, 8), make([]float64, 4)},
		{"both wrong size", make([]float64, 16), make([]float64, 16)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := p.Forward(tt.re, tt.im); !errors.Is(err, ErrInvalidLength) {
				t.Errorf("Forward error = %v, want ErrInvalidLength", err)
			}
			if err := p.Inverse(tt.re, tt.im); !errors.Is(err, ErrInvalidLength) {
				t.Errorf("Inverse error = %v, want ErrInvalidLength", err)
			}
		})
	}

	if err := Forward(make([]float64, 6), make([]float64, 6)); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("Forward(6) error = %v, want ErrInvalidLength", err)
	}
	if err := Inverse(make([]float64, 4), make([]float64, 2)); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("Inverse(4,2) error = %v, want ErrInvalidLength", err)
	}
}

func TestLengthErrorMessages(t *testing.T) {
	tests := []struct {
		err  *LengthError
		want string
	}{
		{&LengthError{Real: 6, Imag: 6}, "fft: length 6 is not a power of two"},
		{&LengthError{Real: 4, Imag: 8}, "fft: mismatched lengths (real=4, imag=8)"},
		{&LengthError{Real: 16, Imag: 16, Want: 8}, "fft: length 16 does not match plan size 8"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestForwardImpulse(t *testing.T) {
	re := make([]float64, 8)
	im := make([]float64, 8)
	re[0] = 1

	if err := Forward(re, im); err != nil {
		t.Fatalf("Forward: %v", err)
	}

	for i := range re {
		if math.Abs(re[i]-1) > tol || math.Abs(im[i]) > tol {
			t.Errorf("bin %d = (%f, %f), want (1, 0)", i, re[i], im[i])
		}
	}
}

func TestForwardSingleTone(t *testing.T) {
	const n, bin = 16, 3
	re := make([]float64, n)
	im := make([]float64, n)
	for j := 0; j < n; j++ {
		angle := 2 * math.Pi * bin * float64(j) / n
		re[j] = math.Cos(angle)
		im[j] = math.Sin(angle)
	}

	if err := Forward(re, im); err != nil {
		t.Fatalf("Forward: %v", err)
	}

	for k := 0; k < n; k++ {
		want := 0.0
		if k == bin {
			want = n
		}
		if math.Abs(re[k]-want) > 1e-9 || math.Abs(im[k]) > 1e-9 {
			t.Errorf("bin %d = (%f, %f), want (%f, 0)", k, re[k], im[k], want)
		}
	}
}

func TestForwardMatchesNaiveDFT(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{1, 2, 4, 8, 32, 64} {
		re, im := randomPair(rng, n)
		wantRe, wantIm := naiveDFT(re, im)

		if err := Forward(re, im); err != nil {
			t.Fatalf("Forward(%d): %v", n, err)
		}
		assertClose(t, "re", re, wantRe, 1e-9)
		assertClose(t, "im", im, wantIm, 1e-9)
	}
}

func TestForwardMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, n := range []int{2, 16, 128, 1024} {
		re, im := randomPair(rng, n)

		in := make([]complex128, n)
		for i := range in {
			in[i] = complex(re[i], im[i])
		}
		ref := dsp.FFT(in)

		if err := Forward(re, im); err != nil {
			t.Fatalf("Forward(%d): %v", n, err)
		}
		for i := range ref {
			got := complex(re[i], im[i])
			if cmplx.Abs(got-ref[i]) > 1e-9*math.Max(1, cmplx.Abs(ref[i])) {
				t.Fatalf("n=%d bin %d = %v, reference %v", n, i, got, ref[i])
			}
		}
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for n := 1; n <= 4096; n <<= 1 {
		p, err := NewPlan(n)
		if err != nil {
			t.Fatalf("NewPlan(%d): %v", n, err)
		}

		re, im := randomPair(rng, n)
		origRe, origIm := clonePair(re, im)

		if err := p.Forward(re, im); err != nil {
			t.Fatalf("Forward(%d): %v", n, err)
		}
		if err := p.Inverse(re, im); err != nil {
			t.Fatalf("Inverse(%d): %v", n, err)
		}

		assertClose(t, "re", re, origRe, tol)
		assertClose(t, "im", im, origIm, tol)
	}
}

func TestLinearity(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const n = 256
	a, b := 1.75, -0.5

	p, err := NewPlan(n)
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}

	xRe, xIm := randomPair(rng, n)
	yRe, yIm := randomPair(rng, n)

	sumRe := make([]float64, n)
	sumIm := make([]float64, n)
	for i := 0; i < n; i++ {
		sumRe[i] = a*xRe[i] + b*yRe[i]
		sumIm[i] = a*xIm[i] + b*yIm[i]
	}

	for _, pair := range [][2][]float64{{xRe, xIm}, {yRe, yIm}, {sumRe, sumIm}} {
		if err := p.Forward(pair[0], pair[1]); err != nil {
			t.Fatalf("Forward: %v", err)
		}
	}

	wantRe := make([]float64, n)
	wantIm := make([]float64, n)
	for i := 0; i < n; i++ {
		wantRe[i] = a*xRe[i] + b*yRe[i]
		wantIm[i] = a*xIm[i] + b*yIm[i]
	}

	assertClose(t, "re", sumRe, wantRe, 1e-9)
	assertClose(t, "im", sumIm, wantIm, 1e-9)
}

func TestParseval(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	const n = 512
	re, im := randomPair(rng, n)

	energy := 0.0
	for i := range re {
		energy += re[i]*re[i] + im[i]*im[i]
	}

	if err := Forward(re, im); err != nil {
		t.Fatalf("Forward: %v", err)
	}

	spectral := 0.0
	for i := range re {
		spectral += re[i]*re[i] + im[i]*im[i]
	}
	spectral /= n

	if math.Abs(spectral-energy) > 1e-9*energy {
		t.Errorf("spectral energy %f, want %f", spectral, energy)
	}
}

func TestPlanIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	re, im := randomPair(rng, 128)
	re2, im2 := clonePair(re, im)

	p1, _ := NewPlan(128)
	p2, _ := NewPlan(128)
	p1.Forward(re, im)
	p2.Forward(re2, im2)

	for i := range re {
		if re[i] != re2[i] || im[i] != im2[i] {
			t.Fatalf("bin %d differs between plans", i)
		}
	}
}
