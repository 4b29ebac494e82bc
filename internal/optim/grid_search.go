package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/qtunnel/internal/quantum"
	"github.com/san-kum/qtunnel/internal/sim"
)

// Objective scores a finished run; lower is better.
type Objective func(p quantum.Params, r *sim.Result) float64

// TargetTransmission scores runs by distance from the wanted transmitted
// probability.
func TargetTransmission(target float64) Objective {
	return func(p quantum.Params, r *sim.Result) float64 {
		return math.Abs(quantum.Transmitted(r.Final, p) - target)
	}
}

// GridSearch evaluates every combination of the given field values.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d fields but %d ranges", len(params), len(ranges))
	}
	for _, name := range params {
		if _, err := sim.Field(quantum.Params{}, name); err != nil {
			return nil, err
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of runs Search performs.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search runs base with every combination and returns the best values and
// their score. Runs that fail to start are skipped; cancellation aborts.
func (g *GridSearch) Search(
	ctx context.Context,
	base quantum.Params,
	cfg sim.Config,
	objective Objective,
) (map[string]float64, float64, error) {

	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, make(map[string]float64), base, cfg, objective, &best, &bestParams)
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, fmt.Errorf("optim: no run in the grid completed")
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base quantum.Params,
	cfg sim.Config,
	objective Objective,
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		p := base
		for k, v := range current {
			if err := sim.SetField(&p, k, v); err != nil {
				return err
			}
		}

		result, err := sim.New(p).Run(ctx, cfg)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		}

		val := objective(p, result)
		if val < *best {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, base, cfg, objective, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}
