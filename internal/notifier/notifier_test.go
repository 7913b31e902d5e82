package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btracker/internal/model"
)

const okBody = `{"ok":true,"result":{"message_id":1}}`

func TestSend_PostsPayload(t *testing.T) {
	var got sendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottoken/sendMessage", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, okBody)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("token", "42", "")
	tn.APIBase = srv.URL
	require.NoError(t, tn.Send(context.Background(), "hello"))
	assert.Equal(t, "42", got.ChatID)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, "HTML", got.ParseMode)
	assert.True(t, got.DisableWebPagePreview)
}

func TestSend_APIErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantDesc  string
		wantRetry time.Duration
		temporary bool
	}{
		{"rate limited", http.StatusTooManyRequests, `{"ok":false,"description":"Too Many Requests: retry after 2","parameters":{"retry_after":2}}`, "Too Many Requests: retry after 2", 2 * time.Second, true},
		{"unknown chat", http.StatusBadRequest, `{"ok":false,"description":"Bad Request: chat not found"}`, "Bad Request: chat not found", 0, false},
		{"ok false with 200", http.StatusOK, `{"ok":false,"description":"odd"}`, "odd", 0, false},
		{"plain text 502", http.StatusBadGateway, "bad gateway\n", "bad gateway", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			tn := NewTelegramNotifier("token", "42", "")
			tn.APIBase = srv.URL
			err := tn.Send(context.Background(), "hi")

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantDesc, apiErr.Description)
			assert.Equal(t, tt.wantRetry, apiErr.RetryAfter)
			assert.Equal(t, tt.temporary, apiErr.Temporary())
		})
	}
}

func TestSendWithRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, okBody)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("token", "42", "")
	tn.APIBase = srv.URL
	require.NoError(t, tn.SendWithRetry(context.Background(), "hi", 3, time.Millisecond))
	assert.Equal(t, int32(3), calls.Load())

	calls.Store(-100)
	err := tn.SendWithRetry(context.Background(), "hi", 1, time.Millisecond)
	assert.ErrorContains(t, err, "all 2 retries exhausted")
}

func TestSendWithRetry_PermanentErrorStopsAtOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"ok":false,"description":"Unauthorized"}`)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("bad", "42", "")
	tn.APIBase = srv.URL
	err := tn.SendWithRetry(context.Background(), "hi", 3, time.Millisecond)
	assert.ErrorContains(t, err, "Unauthorized")
	assert.Equal(t, int32(1), calls.Load())
}

func TestSendWithRetry_Canceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("token", "42", "")
	tn.APIBase = srv.URL
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tn.SendWithRetry(ctx, "hi", 3, time.Hour), context.Canceled)
}

func TestFormatRunSummary(t *testing.T) {
	high := 120.0
	res := &model.Result{
		Rows: []model.AnalyticsRow{{
			Observation: model.Observation{Date: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), Close: 110, High: 115, Low: 105},
			MA:          model.MovingAverageRow{Close: 100},
			Change:      model.PriceChangeRow{DollarChange1D: 10, PercentChange1D: 10, DollarSwingSameDay: 10, PercentSwingSameDay: 9.0909},
		}},
		Yearly:    []model.YearlySummaryRow{{Year: 2024, High: &high, TradingDays: 69}},
		NonFinite: 2,
	}
	msg := FormatRunSummary("BTC <USD>", res)
	assert.Contains(t, msg, "BTC &lt;USD&gt;")
	assert.Contains(t, msg, "2024-03-09")
	assert.Contains(t, msg, "1-day change: 10.00 (10.00%)")
	assert.Contains(t, msg, "Same-day swing: 10.00 (9.09%)")
	assert.Contains(t, msg, "Distance from MA: +10.0%")
	assert.Contains(t, msg, "high 120.00 | low n/a | 69 days")
	assert.Contains(t, msg, "2 percent changes")
}
