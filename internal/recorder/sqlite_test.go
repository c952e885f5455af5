package recorder

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"GridSentinel/internal/model"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "nested", "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func hourlySeries(n int) model.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(model.PriceSeries, n)
	for i := range s {
		s[i] = model.OHLCV{Time: start.Add(time.Duration(i) * time.Hour), Close: float64(100 + i), Volume: 1}
	}
	return s
}

func TestSQLiteRecorder_RecordBars(t *testing.T) {
	r := openTestRecorder(t)
	report := model.NewCycleReport("DOGEUSDT", "1h", time.Now())
	ctx := context.Background()

	require.NoError(t, r.RecordBars(ctx, report.ID, BarsHistory, hourlySeries(450)))
	require.NoError(t, r.RecordBars(ctx, report.ID, BarsLatest, hourlySeries(20)))
	require.NoError(t, r.RecordBars(ctx, report.ID, BarsLatest, nil))

	var n int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM bars WHERE cycle_id = ? AND kind = ?`,
		report.ID.String(), "history").Scan(&n))
	assert.Equal(t, 450, n)

	var last float64
	require.NoError(t, r.db.QueryRow(`SELECT close FROM bars WHERE kind = 'latest' ORDER BY ts DESC LIMIT 1`).Scan(&last))
	assert.Equal(t, 119.0, last)
}

func TestSQLiteRecorder_RecordCycle(t *testing.T) {
	r := openTestRecorder(t)
	ctx := context.Background()

	report := model.NewCycleReport("DOGEUSDT", "1h", time.Now())
	report.Best = model.EvaluationResult{Params: model.DefaultParams(), CumulativeReturn: 0.042}
	report.Evaluated, report.Viable = 1280, 1100
	report.Signal = model.Buy
	report.Order = &model.OrderResult{
		OrderID:  "paper-1",
		Symbol:   "DOGEUSDT",
		Side:     model.SideBuy,
		Quantity: decimal.NewFromInt(3),
		Price:    0.08,
		Status:   "FILLED",
		DryRun:   true,
		PlacedAt: time.Now(),
	}
	report.FinishedAt = time.Now()
	require.NoError(t, r.RecordCycle(ctx, report))

	failed := model.NewCycleReport("DOGEUSDT", "1h", time.Now())
	failed.Err = errors.New("market data unavailable")
	require.NoError(t, r.RecordCycle(ctx, failed))

	var (
		rsi    int
		ret    float64
		signal int
	)
	require.NoError(t, r.db.QueryRow(`SELECT rsi_period, cumulative_return, signal FROM cycles WHERE id = ?`,
		report.ID.String()).Scan(&rsi, &ret, &signal))
	assert.Equal(t, 14, rsi)
	assert.Equal(t, 0.042, ret)
	assert.Equal(t, 1, signal)

	var qty string
	var dry bool
	require.NoError(t, r.db.QueryRow(`SELECT quantity, dry_run FROM orders WHERE cycle_id = ?`,
		report.ID.String()).Scan(&qty, &dry))
	assert.Equal(t, "3", qty)
	assert.True(t, dry)

	var errText string
	require.NoError(t, r.db.QueryRow(`SELECT error FROM cycles WHERE id = ?`, failed.ID.String()).Scan(&errText))
	assert.Equal(t, "market data unavailable", errText)

	assert.Error(t, r.RecordCycle(ctx, report), "duplicate cycle id")
}

func TestSQLiteRecorder_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	r, err := NewSQLiteRecorder(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, r.Close())

	r, err = NewSQLiteRecorder(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, r.Close())
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NewNoopRecorder()
	report := model.NewCycleReport("DOGEUSDT", "1h", time.Now())
	assert.NoError(t, rec.RecordBars(context.Background(), report.ID, BarsHistory, hourlySeries(3)))
	assert.NoError(t, rec.RecordCycle(context.Background(), report))
	assert.NoError(t, rec.Close())
}
