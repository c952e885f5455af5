package strategy

import (
	"fmt"
	"iter"
	"math"

	"GridSentinel/internal/model"
)

// Range is the half-open interval [Start, Stop) sampled every Step.
type Range struct {
	Start float64 `yaml:"start" json:"start"`
	Stop  float64 `yaml:"stop" json:"stop"`
	Step  float64 `yaml:"step" json:"step"`
}

// MaxGridSize bounds the number of combinations a Grid may describe.
const MaxGridSize = 1_000_000

// Len returns the number of values in the range, clamped to MaxGridSize+1
// so oversized ranges cannot overflow int or drive huge allocations.
func (r Range) Len() int {
	return int(min(r.count(), MaxGridSize+1))
}

func (r Range) count() float64 {
	if !(r.Step > 0) || !(r.Start < r.Stop) {
		return 0
	}
	// the epsilon keeps (0.3-0)/0.1 from producing a fourth value
	n := math.Ceil((r.Stop-r.Start)/r.Step - 1e-9)
	if math.IsNaN(n) {
		return 0
	}
	return n
}

// At returns the k-th value. Values are computed, not accumulated.
func (r Range) At(k int) float64 {
	return r.Start + float64(k)*r.Step
}

func (r Range) check(name string, integral bool) error {
	if math.IsNaN(r.Start) || math.IsNaN(r.Stop) || math.IsNaN(r.Step) {
		return fmt.Errorf("%w: %s range contains NaN", ErrInvalidParams, name)
	}
	if math.IsInf(r.Start, 0) || math.IsInf(r.Stop, 0) || math.IsInf(r.Step, 0) {
		return fmt.Errorf("%w: %s range must be finite", ErrInvalidParams, name)
	}
	if r.Step <= 0 {
		return fmt.Errorf("%w: %s step %.4g must be positive", ErrInvalidParams, name, r.Step)
	}
	if integral && (r.Start != math.Trunc(r.Start) || r.Step != math.Trunc(r.Step)) {
		return fmt.Errorf("%w: %s range must use whole numbers", ErrInvalidParams, name)
	}
	return nil
}

// Grid is the parameter space searched by the optimizer.
type Grid struct {
	RSIPeriod     Range `yaml:"rsi_period" json:"rsi_period"`
	MAPeriod      Range `yaml:"ma_period" json:"ma_period"`
	RSIOversold   Range `yaml:"rsi_oversold" json:"rsi_oversold"`
	RSIOverbought Range `yaml:"rsi_overbought" json:"rsi_overbought"`
}

// DefaultGrid returns the 10x8x4x4 reference grid.
func DefaultGrid() Grid {
	return Grid{
		RSIPeriod:     Range{Start: 10, Stop: 30, Step: 2},
		MAPeriod:      Range{Start: 10, Stop: 50, Step: 5},
		RSIOversold:   Range{Start: 20, Stop: 40, Step: 5},
		RSIOverbought: Range{Start: 60, Stop: 80, Step: 5},
	}
}

// Check validates every range step and the total number of combinations.
// Empty ranges are allowed.
func (g Grid) Check() error {
	if err := g.RSIPeriod.check("rsi_period", true); err != nil {
		return err
	}
	if err := g.MAPeriod.check("ma_period", true); err != nil {
		return err
	}
	if err := g.RSIOversold.check("rsi_oversold", false); err != nil {
		return err
	}
	if err := g.RSIOverbought.check("rsi_overbought", false); err != nil {
		return err
	}
	// float product: the int one can overflow before the comparison
	n := g.RSIPeriod.count() * g.MAPeriod.count() * g.RSIOversold.count() * g.RSIOverbought.count()
	if n > MaxGridSize {
		return fmt.Errorf("%w: grid has %.4g combinations, limit is %d", ErrInvalidParams, n, MaxGridSize)
	}
	return nil
}

// Size is the number of combinations All yields. Grids that fail Check
// report MaxGridSize+1.
func (g Grid) Size() int {
	n := g.RSIPeriod.count() * g.MAPeriod.count() * g.RSIOversold.count() * g.RSIOverbought.count()
	return int(min(n, MaxGridSize+1))
}

// All lazily yields the Cartesian product of the grid. rsiPeriod is the
// outermost loop, then maPeriod, rsiOversold and rsiOverbought, each ascending.
func (g Grid) All() iter.Seq[model.StrategyParams] {
	return func(yield func(model.StrategyParams) bool) {
		for a := 0; a < g.RSIPeriod.Len(); a++ {
			for b := 0; b < g.MAPeriod.Len(); b++ {
				for c := 0; c < g.RSIOversold.Len(); c++ {
					for d := 0; d < g.RSIOverbought.Len(); d++ {
						p := model.StrategyParams{
							RSIPeriod:     int(g.RSIPeriod.At(a)),
							MAPeriod:      int(g.MAPeriod.At(b)),
							RSIOversold:   g.RSIOversold.At(c),
							RSIOverbought: g.RSIOverbought.At(d),
						}
						if !yield(p) {
							return
						}
					}
				}
			}
		}
	}
}

func (r Range) ints() []int {
	out := make([]int, 0, r.Len())
	for k := 0; k < r.Len(); k++ {
		out = append(out, int(r.At(k)))
	}
	return out
}
