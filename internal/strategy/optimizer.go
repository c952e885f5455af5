package strategy

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"golang.org/x/sync/errgroup"

	"GridSentinel/internal/calculator"
	"GridSentinel/internal/model"
)

// Stats summarises one optimizer run.
type Stats struct {
	Evaluated int
	Viable    int
	Duration  time.Duration
}

// Optimizer searches a Grid for the best-scoring parameters.
//
// With Workers > 1 cells are scored concurrently; the winner is still the
// first maximum in enumeration order.
type Optimizer struct {
	Workers    int
	OnProgress func(done, total int)
}

// NewOptimizer returns an optimizer using up to workers goroutines.
// A non-positive value uses GOMAXPROCS.
func NewOptimizer(workers int) *Optimizer {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Optimizer{Workers: workers}
}

type cell struct {
	index  int
	params model.StrategyParams
}

type scored struct {
	cell
	score  float64
	viable bool
}

// better reports whether s beats best. Equal scores keep the earlier cell.
func (s scored) better(best *scored) bool {
	if !s.viable {
		return false
	}
	if best == nil {
		return true
	}
	return s.score > best.score || (s.score == best.score && s.index < best.index)
}

// columns caches indicator values per period so each is computed once.
type columns struct {
	closes []float64
	ma     map[int][]optional.Option[float64]
	rsi    map[int][]optional.Option[float64]
}

func newColumns(series model.PriceSeries, g Grid) *columns {
	c := &columns{
		closes: series.Closes(),
		ma:     make(map[int][]optional.Option[float64]),
		rsi:    make(map[int][]optional.Option[float64]),
	}
	for _, p := range g.MAPeriod.ints() {
		c.ma[p] = calculator.SMASeries(c.closes, p)
	}
	for _, p := range g.RSIPeriod.ints() {
		c.rsi[p] = calculator.RSISeries(c.closes, p)
	}
	return c
}

func (c *columns) score(in cell) scored {
	out := scored{cell: in}
	if in.params.Check() != nil {
		return out
	}
	ind := calculator.Align(c.ma[in.params.MAPeriod], c.rsi[in.params.RSIPeriod], in.params.Warmup())
	out.score, out.viable = cumulativeReturn(ind, c.closes, in.params)
	return out
}

// Optimize scores every grid cell against the series and returns the best.
// Cells with invalid params or too little data are skipped; if none remain
// the error wraps ErrNoViableParams.
func (o *Optimizer) Optimize(ctx context.Context, series model.PriceSeries, grid Grid) (model.EvaluationResult, Stats, error) {
	started := time.Now()
	if err := grid.Check(); err != nil {
		return model.EvaluationResult{}, Stats{}, err
	}
	total := grid.Size()
	if total == 0 {
		return model.EvaluationResult{}, Stats{}, fmt.Errorf("%w: empty grid", ErrNoViableParams)
	}

	cols := newColumns(series, grid)
	var (
		best  *scored
		stats Stats
	)
	collect := func(s scored) {
		stats.Evaluated++
		if s.viable {
			stats.Viable++
		}
		if s.better(best) {
			b := s
			best = &b
		}
		if o.OnProgress != nil {
			o.OnProgress(stats.Evaluated, total)
		}
	}

	var err error
	if o.Workers > 1 {
		err = o.parallel(ctx, grid, cols, collect)
	} else {
		err = o.sequential(ctx, grid, cols, collect)
	}
	stats.Duration = time.Since(started)
	if err != nil {
		return model.EvaluationResult{}, stats, err
	}
	if best == nil {
		return model.EvaluationResult{}, stats, fmt.Errorf("%w: %d combinations over %d bars", ErrNoViableParams, total, len(series))
	}
	return model.EvaluationResult{Params: best.params, CumulativeReturn: best.score}, stats, nil
}

func (o *Optimizer) sequential(ctx context.Context, grid Grid, cols *columns, collect func(scored)) error {
	i := 0
	for p := range grid.All() {
		if err := ctx.Err(); err != nil {
			return err
		}
		collect(cols.score(cell{index: i, params: p}))
		i++
	}
	return nil
}

func (o *Optimizer) parallel(ctx context.Context, grid Grid, cols *columns, collect func(scored)) error {
	g, gctx := errgroup.WithContext(ctx)
	cells := make(chan cell)
	results := make(chan scored)

	g.Go(func() error {
		defer close(cells)
		i := 0
		for p := range grid.All() {
			select {
			case cells <- cell{index: i, params: p}:
			case <-gctx.Done():
				return gctx.Err()
			}
			i++
		}
		return nil
	})

	var wg sync.WaitGroup
	for w := 0; w < o.Workers; w++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for c := range cells {
				select {
				case results <- cols.score(c):
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	for s := range results {
		collect(s)
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
