package sweep

import (
	"context"
	"log/slog"
	"math"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/gridmodes/internal/config"
	"github.com/san-kum/gridmodes/internal/stability"
)

// Point is the outcome of one grid point. Values follow the grid's axes.
type Point struct {
	Values []float64
	Result *stability.Result
	Err    error
}

// Sweep is the result of Run in grid order.
type Sweep struct {
	ID     uuid.UUID
	Axes   []Axis
	Points []Point
}

// Run analyzes base at every point of g with at most workers concurrent
// runs (GOMAXPROCS when workers < 1). A failing point records its error and
// does not stop the sweep; cancelling ctx does.
func Run(ctx context.Context, base *config.Case, g *Grid, workers int) (*Sweep, error) {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	s := &Sweep{ID: uuid.New(), Axes: g.Axes}
	logger := slog.Default().With(
		slog.String("component", "sweep"),
		slog.String("sweep_id", s.ID.String()),
	)

	values := g.Points()
	s.Points = make([]Point, len(values))
	logger.Info("sweep started", slog.String("case", base.Name), slog.Int("points", len(values)), slog.Int("workers", workers))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, v := range values {
		i, v := i, v
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.Points[i] = evaluate(base, g.Axes, v)
			if err := s.Points[i].Err; err != nil {
				logger.Debug("grid point failed", slog.Int("point", i), slog.String("error", err.Error()))
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	logger.Info("sweep finished", slog.Int("points", len(values)))
	return s, nil
}

func evaluate(base *config.Case, axes []Axis, values []float64) Point {
	p := Point{Values: values}
	c := base.Clone()
	for k, a := range axes {
		if err := c.Set(a.Component, a.Key, values[k]); err != nil {
			p.Err = err
			return p
		}
	}
	p.Result, p.Err = stability.Analyze(*c)
	return p
}

// MostStable returns the converged point with the most negative maximum
// real part.
func (s *Sweep) MostStable() (Point, bool) {
	best := math.Inf(1)
	var bestPoint Point
	found := false
	for _, p := range s.Points {
		if p.Err != nil || p.Result == nil || !p.Result.Converged {
			continue
		}
		if p.Result.MaxRealPart < best {
			best = p.Result.MaxRealPart
			bestPoint = p
			found = true
		}
	}
	return bestPoint, found
}
