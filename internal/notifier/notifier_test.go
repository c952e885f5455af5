package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"GridSentinel/internal/model"
)

func newTestNotifier(url string) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "", zap.NewNop())
	n.BaseURL = url
	n.Backoff = time.Millisecond
	return n
}

func TestSend(t *testing.T) {
	var got map[string]string
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv.URL).Send(context.Background(), "<b>hi</b>"))
	assert.Equal(t, "/botTOKEN/sendMessage", path)
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "<b>hi</b>", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSendWithRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, `{"ok":false}`, http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL)
	require.NoError(t, n.SendWithRetry(context.Background(), "x", 3))
	assert.EqualValues(t, 3, calls.Load())

	calls.Store(-10)
	err := n.SendWithRetry(context.Background(), "x", 1)
	assert.ErrorContains(t, err, "all 2 retries exhausted")
}

func TestStartPolling(t *testing.T) {
	var mu sync.Mutex
	var replies []string
	var polls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			if polls.Add(1) == 1 {
				assert.Equal(t, "0", r.URL.Query().Get("offset"))
				fmt.Fprint(w, `{"ok":true,"result":[
					{"update_id":7,"message":{"text":" /status ","chat":{"id":42}}},
					{"update_id":8,"message":{"text":"/run","chat":{"id":99}}}]}`)
				return
			}
			assert.Equal(t, "9", r.URL.Query().Get("offset"))
			<-r.Context().Done()
		case "/botTOKEN/sendMessage":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			mu.Lock()
			replies = append(replies, body["text"])
			mu.Unlock()
			fmt.Fprint(w, `{"ok":true}`)
		}
	}))
	defer srv.Close()

	var handled []string
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		newTestNotifier(srv.URL).StartPolling(ctx, func(cmd string) string {
			handled = append(handled, cmd)
			return "ok " + cmd
		})
		close(done)
	}()

	require.Eventually(t, func() bool { return polls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, []string{"/status"}, handled)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"ok /status"}, replies)
}

func TestNoopNotifier(t *testing.T) {
	var n Notifier = NoopNotifier{}
	assert.NoError(t, n.Send(context.Background(), "x"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n.StartPolling(ctx, nil)
}

func sampleReport() *model.CycleReport {
	r := model.NewCycleReport("DOGEUSDT", "1h", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	r.FinishedAt = r.StartedAt.Add(1500 * time.Millisecond)
	r.Best = model.EvaluationResult{Params: model.DefaultParams(), CumulativeReturn: 0.0345}
	r.Evaluated, r.Viable = 1280, 1200
	r.Signal = model.Buy
	r.LatestClose, r.LatestMA, r.LatestRSI, r.WilderRSI = 0.0812, 0.0825, 28.4, 31.2
	r.Order = &model.OrderResult{Side: model.SideBuy, Symbol: "DOGEUSDT", Quantity: decimal.NewFromInt(3),
		Price: 0.0812, Status: "FILLED", DryRun: true}
	return r
}

func TestFormatCycleReport(t *testing.T) {
	msg := FormatCycleReport(sampleReport())
	assert.Contains(t, msg, "DOGEUSDT 1h")
	assert.Contains(t, msg, "Evaluated: 1280 (viable 1200)")
	assert.Contains(t, msg, "rsi=14 ma=20 oversold=30 overbought=70")
	assert.Contains(t, msg, "+3.45%")
	assert.Contains(t, msg, "Signal:</b> BUY")
	assert.Contains(t, msg, "BUY 3 DOGEUSDT @ 0.0812 (FILLED, paper)")

	failed := model.NewCycleReport("DOGEUSDT", "1h", time.Now())
	failed.Err = errors.New("fetch <history>: timeout")
	msg = FormatCycleReport(failed)
	assert.Contains(t, msg, "fetch &lt;history&gt;: timeout")
	assert.NotContains(t, msg, "Signal")
}

func TestFormatStatusAndParams(t *testing.T) {
	assert.Contains(t, FormatStatus(nil, time.Time{}), "No cycle")
	assert.Contains(t, FormatParams(nil), "No parameters")

	r := sampleReport()
	status := FormatStatus(r, r.StartedAt.Add(time.Hour))
	assert.Contains(t, status, "BUY at 0.0812")
	assert.Contains(t, status, "1.5s")
	assert.Contains(t, status, "Next cycle: 2024-03-01 13:00 UTC")

	params := FormatParams(r)
	assert.Contains(t, params, "RSI period: 14")
	assert.Contains(t, params, "Overbought: 70")
}
