package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"GridSentinel/internal/model"
)

func TestObserveCycle(t *testing.T) {
	before := testutil.ToFloat64(CyclesTotal.WithLabelValues(ResultOK))
	ordersBefore := testutil.ToFloat64(OrdersTotal.WithLabelValues("SELL", "paper"))

	r := model.NewCycleReport("DOGEUSDT", "1h", time.Now())
	r.FinishedAt = time.Unix(1_700_000_000, 0)
	r.Evaluated, r.Viable = 10, 8
	r.Best.CumulativeReturn = 0.12
	r.Signal = model.Sell
	r.Order = &model.OrderResult{Side: model.SideSell, Quantity: decimal.NewFromInt(3), DryRun: true}

	ObserveCycle(r, ResultOK)

	assert.Equal(t, before+1, testutil.ToFloat64(CyclesTotal.WithLabelValues(ResultOK)))
	assert.Equal(t, ordersBefore+1, testutil.ToFloat64(OrdersTotal.WithLabelValues("SELL", "paper")))
	assert.Equal(t, 0.12, testutil.ToFloat64(BestReturn))
	assert.Equal(t, 8.0, testutil.ToFloat64(CandidatesViable))
	assert.Equal(t, -1.0, testutil.ToFloat64(LastSignal))
	assert.Equal(t, 1_700_000_000.0, testutil.ToFloat64(LastCycleTimestamp))
}

func TestObserveCycle_FailureKeepsSignal(t *testing.T) {
	LastSignal.Set(1)
	r := model.NewCycleReport("DOGEUSDT", "1h", time.Now())
	r.FinishedAt = time.Now()
	ObserveCycle(r, ResultDataError)
	assert.Equal(t, 1.0, testutil.ToFloat64(LastSignal))
}

func TestServerRoutes(t *testing.T) {
	s := NewServer(":0", func() any { return map[string]int{"cycles": 3} }, zap.NewNop())

	tests := []struct {
		method string
		path   string
		code   int
		body   string
	}{
		{http.MethodGet, "/healthz", http.StatusOK, "ok"},
		{http.MethodGet, "/status", http.StatusOK, `{"cycles":3}`},
		{http.MethodGet, "/metrics", http.StatusOK, "gridsentinel_cycles_total"},
		{http.MethodPost, "/healthz", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/nope", http.StatusNotFound, ""},
	}
	CyclesTotal.WithLabelValues(ResultOK).Add(0)
	for _, tt := range tests {
		t.Run(tt.method+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			require.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}
