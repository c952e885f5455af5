package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"GridSentinel/internal/calculator"
	"GridSentinel/internal/collector"
	"GridSentinel/internal/executor"
	"GridSentinel/internal/metrics"
	"GridSentinel/internal/model"
	"GridSentinel/internal/notifier"
	"GridSentinel/internal/recorder"
	"GridSentinel/internal/strategy"
)

// notifyRetries is the number of extra attempts for a cycle report message.
const notifyRetries = 3

// Policy decides when the next cycle runs.
type Policy struct {
	Cycle      cron.Schedule // cadence after a completed cycle
	DataRetry  time.Duration // after market data could not be fetched
	OrderRetry time.Duration // after the exchange failed or rejected an order
}

// Scheduler runs the fetch, optimize, decide and trade loop.
type Scheduler struct {
	Collector *collector.Collector
	Optimizer *strategy.Optimizer
	Grid      strategy.Grid
	Executor  executor.Executor
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Quantity  decimal.Decimal
	Policy    Policy

	log     *zap.Logger
	now     func() time.Time
	trigger chan struct{}
	cycleMu sync.Mutex

	mu   sync.RWMutex
	last *model.CycleReport
	next time.Time
}

// Deps bundles the collaborators of a Scheduler.
type Deps struct {
	Collector *collector.Collector
	Optimizer *strategy.Optimizer
	Grid      strategy.Grid
	Executor  executor.Executor
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Quantity  decimal.Decimal
	Policy    Policy
}

// NewScheduler creates a new Scheduler.
func NewScheduler(d Deps, log *zap.Logger) *Scheduler {
	if d.Notifier == nil {
		d.Notifier = notifier.NoopNotifier{}
	}
	if d.Recorder == nil {
		d.Recorder = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Collector: d.Collector,
		Optimizer: d.Optimizer,
		Grid:      d.Grid,
		Executor:  d.Executor,
		Notifier:  d.Notifier,
		Recorder:  d.Recorder,
		Quantity:  d.Quantity,
		Policy:    d.Policy,
		log:       log.Named("scheduler"),
		now:       time.Now,
		trigger:   make(chan struct{}, 1),
	}
}

// RunCycle performs one full iteration: fetch history, search the grid, fetch the
// latest bars, derive the signal and place an order for Buy or Sell.
// The returned report is never nil; its Err matches the returned error.
func (s *Scheduler) RunCycle(ctx context.Context) (*model.CycleReport, error) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	report := model.NewCycleReport(s.Collector.Symbol, s.Collector.Timeframe, s.now())
	report.Err = s.runCycle(ctx, report)
	report.FinishedAt = s.now()
	s.finish(ctx, report)
	return report, report.Err
}

func (s *Scheduler) runCycle(ctx context.Context, report *model.CycleReport) error {
	history, err := s.Collector.History(ctx)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}
	s.recordBars(ctx, report, recorder.BarsHistory, history)

	best, stats, err := s.Optimizer.Optimize(ctx, history, s.Grid)
	report.Evaluated, report.Viable = stats.Evaluated, stats.Viable
	metrics.OptimizerDuration.Observe(stats.Duration.Seconds())
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}
	report.Best = best
	s.log.Info("parameters selected",
		zap.Stringer("params", best.Params),
		zap.Float64("cumulative_return", best.CumulativeReturn),
		zap.Int("evaluated", stats.Evaluated),
		zap.Int("viable", stats.Viable),
		zap.Duration("took", stats.Duration),
	)

	latest, err := s.Collector.Latest(ctx)
	if err != nil {
		return fmt.Errorf("fetch latest: %w", err)
	}
	s.recordBars(ctx, report, recorder.BarsLatest, latest)

	decision, err := strategy.LatestSignal(latest, best.Params)
	if err != nil {
		return fmt.Errorf("latest signal: %w", err)
	}
	report.Signal = decision.Signal
	report.LatestClose, report.LatestMA, report.LatestRSI = decision.Close, decision.MA, decision.RSI
	if wilder, err := calculator.CalculateRSI(latest, best.Params.RSIPeriod); err == nil {
		report.WilderRSI = wilder
	}
	s.log.Info("signal",
		zap.Stringer("signal", decision.Signal),
		zap.Float64("close", decision.Close),
		zap.Float64("ma", decision.MA),
		zap.Float64("rsi", decision.RSI),
	)

	side, ok := model.SideForSignal(decision.Signal)
	if !ok {
		return nil
	}
	if m, ok := s.Executor.(executor.Marker); ok {
		m.Mark(report.Symbol, decision.Close)
	}
	order, err := s.Executor.PlaceMarketOrder(ctx, report.Symbol, side, s.Quantity)
	if err != nil {
		return fmt.Errorf("place %s order: %w", side, err)
	}
	report.Order = order
	return nil
}

func (s *Scheduler) recordBars(ctx context.Context, report *model.CycleReport, kind recorder.BarKind, series model.PriceSeries) {
	if err := s.Recorder.RecordBars(ctx, report.ID, kind, series); err != nil {
		s.log.Error("record bars", zap.String("kind", string(kind)), zap.Error(err))
	}
}

func (s *Scheduler) finish(ctx context.Context, report *model.CycleReport) {
	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	result, _ := s.classify(report.Err)
	metrics.ObserveCycle(report, result)

	if report.Err != nil && errors.Is(report.Err, context.Canceled) {
		return
	}
	if err := s.Recorder.RecordCycle(ctx, report); err != nil {
		s.log.Error("record cycle", zap.Error(err))
	}
	if err := s.Notifier.SendWithRetry(ctx, notifier.FormatCycleReport(report), notifyRetries); err != nil {
		s.log.Error("send cycle report", zap.Error(err))
	}
}

// classify maps a cycle error to its metrics label and retry delay.
// A zero delay means the next run follows the cycle schedule. Errors outside
// the known classes retry after DataRetry.
func (s *Scheduler) classify(err error) (string, time.Duration) {
	switch {
	case err == nil:
		return metrics.ResultOK, 0
	case errors.Is(err, collector.ErrDataUnavailable):
		return metrics.ResultDataError, s.Policy.DataRetry
	case errors.Is(err, executor.ErrOrderRejected), errors.Is(err, executor.ErrExchange):
		return metrics.ResultExecutionError, s.Policy.OrderRetry
	case errors.Is(err, strategy.ErrNoViableParams), errors.Is(err, strategy.ErrInsufficientData):
		return metrics.ResultNoViableParams, 0
	default:
		return metrics.ResultError, s.Policy.DataRetry
	}
}

// nextRun returns when the cycle after one ending at now with err should start.
func (s *Scheduler) nextRun(err error, now time.Time) time.Time {
	if _, delay := s.classify(err); delay > 0 {
		return now.Add(delay)
	}
	return s.Policy.Cycle.Next(now)
}

// Run executes cycles until ctx is cancelled. The first cycle starts immediately.
// No cycle failure stops the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("trading loop started",
		zap.String("symbol", s.Collector.Symbol),
		zap.String("timeframe", s.Collector.Timeframe),
		zap.String("executor", s.Executor.Name()),
	)
	for {
		report, err := s.RunCycle(ctx)
		if ctx.Err() != nil {
			s.log.Info("trading loop stopped")
			return nil
		}

		now := s.now()
		next := s.nextRun(err, now)
		s.mu.Lock()
		s.next = next
		s.mu.Unlock()

		fields := []zap.Field{
			zap.String("cycle_id", report.ID.String()),
			zap.Stringer("signal", report.Signal),
			zap.Time("next", next),
		}
		if err != nil {
			s.log.Warn("cycle failed", append(fields, zap.Error(err))...)
		} else {
			s.log.Info("cycle complete", fields...)
		}

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("trading loop stopped")
			return nil
		case <-s.trigger:
			timer.Stop()
			s.log.Info("cycle triggered manually")
		case <-timer.C:
		}
	}
}

// TriggerNow wakes the loop so the next cycle starts without waiting.
// Extra triggers while one is pending are dropped.
func (s *Scheduler) TriggerNow() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// LastReport returns the most recent cycle report, or nil before the first cycle.
func (s *Scheduler) LastReport() *model.CycleReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// NextRun returns when the loop will start the next cycle.
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.next
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/status":
		return notifier.FormatStatus(s.LastReport(), s.NextRun())
	case "/params":
		return notifier.FormatParams(s.LastReport())
	case "/run":
		s.TriggerNow()
		return "🚀 Cycle triggered."
	default:
		return notifier.FormatHelp()
	}
}

// Status is the JSON view served on the status endpoint.
type Status struct {
	Symbol           string                `json:"symbol"`
	Timeframe        string                `json:"timeframe"`
	LastCycleID      string                `json:"last_cycle_id,omitempty"`
	LastCycleAt      *time.Time            `json:"last_cycle_at,omitempty"`
	Signal           string                `json:"signal,omitempty"`
	Params           *model.StrategyParams `json:"params,omitempty"`
	CumulativeReturn float64               `json:"cumulative_return"`
	Error            string                `json:"error,omitempty"`
	NextCycleAt      *time.Time            `json:"next_cycle_at,omitempty"`
}

// Status summarises the scheduler state.
func (s *Scheduler) Status() Status {
	st := Status{Symbol: s.Collector.Symbol, Timeframe: s.Collector.Timeframe}
	if next := s.NextRun(); !next.IsZero() {
		st.NextCycleAt = &next
	}
	r := s.LastReport()
	if r == nil {
		return st
	}
	st.LastCycleID = r.ID.String()
	st.LastCycleAt = &r.StartedAt
	st.Signal = r.Signal.String()
	if r.Viable > 0 {
		p := r.Best.Params
		st.Params = &p
		st.CumulativeReturn = r.Best.CumulativeReturn
	}
	if r.Err != nil {
		st.Error = r.Err.Error()
	}
	return st
}
