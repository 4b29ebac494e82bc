package sim

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/qtunnel/internal/quantum"
)

var ErrUnknownField = errors.New("sim: unknown sweep field")

// SweepPoint holds where the probability ended up for one parameter value.
type SweepPoint struct {
	Value       float64
	Transmitted float64
	Reflected   float64
	Absorbed    float64
}

var fieldGetters = map[string]func(quantum.Params) float64{
	"barrier_height": func(p quantum.Params) float64 { return p.BarrierHeight },
	"barrier_width":  func(p quantum.Params) float64 { return p.BarrierWidth },
	"barrier_pos":    func(p quantum.Params) float64 { return p.BarrierPos },
	"k0":             func(p quantum.Params) float64 { return p.K0 },
	"sigma":          func(p quantum.Params) float64 { return p.Sigma },
	"x0":             func(p quantum.Params) float64 { return p.X0 },
	"roughness":      func(p quantum.Params) float64 { return p.Roughness },
}

var sweepFields = map[string]func(*quantum.Params, float64){
	"barrier_height": func(p *quantum.Params, v float64) { p.BarrierHeight = v },
	"barrier_width":  func(p *quantum.Params, v float64) { p.BarrierWidth = v },
	"barrier_pos":    func(p *quantum.Params, v float64) { p.BarrierPos = v },
	"k0":             func(p *quantum.Params, v float64) { p.K0 = v },
	"sigma":          func(p *quantum.Params, v float64) { p.Sigma = v },
	"x0":             func(p *quantum.Params, v float64) { p.X0 = v },
	"roughness":      func(p *quantum.Params, v float64) { p.Roughness = v },
}

// SweepFields lists the parameter names accepted by Sweep.
func SweepFields() []string {
	names := make([]string, 0, len(sweepFields))
	for name := range sweepFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetField assigns v to the named parameter.
func SetField(p *quantum.Params, field string, v float64) error {
	set, ok := sweepFields[field]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	set(p, v)
	return nil
}

// Field reads the named parameter.
func Field(p quantum.Params, field string) (float64, error) {
	get, ok := fieldGetters[field]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return get(p), nil
}

// Sweep runs one simulation per value of field, at most GOMAXPROCS at a
// time. Points come back in the order of values.
func Sweep(ctx context.Context, base quantum.Params, field string, values []float64, cfg Config, opts ...Option) ([]SweepPoint, error) {
	if _, ok := sweepFields[field]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	points := make([]SweepPoint, len(values))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, v := range values {
		g.Go(func() error {
			p := base
			SetField(&p, field, v)

			res, err := New(p, opts...).Run(ctx, cfg)
			if err != nil {
				return fmt.Errorf("%s=%g: %w", field, v, err)
			}

			final := res.Final
			t := quantum.Transmitted(final, p)
			r := quantum.Reflected(final, p)
			points[i] = SweepPoint{
				Value:       v,
				Transmitted: t,
				Reflected:   r,
				Absorbed:    1 - quantum.TotalProbability(final, p.DX),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}
