package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recorder) Notify(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func TestWebhookNotifier_PostsJSON(t *testing.T) {
	var got Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	err := n.Notify(context.Background(), Event{
		Type:        DepositApproved,
		AccountID:   "acc_1",
		ReferenceID: "dep_1",
		Amount:      decimal.RequireFromString("250.50"),
		CryptoType:  "BTC",
	})
	require.NoError(t, err)
	assert.Equal(t, DepositApproved, got.Type)
	assert.Equal(t, "dep_1", got.ReferenceID)
	assert.Equal(t, "250.5", got.Amount.String())
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL).Notify(context.Background(), Event{Type: DepositCancelled})
	var werr *WebhookError
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, http.StatusBadGateway, werr.StatusCode)
	assert.Contains(t, werr.Body, "nope")
}

func TestWebhookNotifier_RateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, WithWebhookRateLimit(0.001, 1))
	require.NoError(t, n.Notify(context.Background(), Event{Type: DepositApproved}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := n.Notify(ctx, Event{Type: DepositApproved})
	assert.Error(t, err)
}

func TestMulti_TriesAllAndJoinsErrors(t *testing.T) {
	failing := &recorder{err: errors.New("down")}
	ok := &recorder{}

	err := Multi{failing, ok}.Notify(context.Background(), Event{Type: WithdrawalApproved})
	assert.ErrorContains(t, err, "down")
	assert.Len(t, failing.events, 1)
	assert.Len(t, ok.events, 1)
}

func TestDispatcher_SwallowsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := common.NewLoggerWithOutput("debug", &buf)
	rec := &recorder{err: errors.New("unreachable")}

	d := NewDispatcher(rec, logger, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Dispatch(ctx, Event{Type: WithdrawalCancelled, ReferenceID: "wd_1"})

	require.Len(t, rec.events, 1)
	assert.False(t, rec.events[0].OccurredAt.IsZero())
	assert.True(t, strings.Contains(buf.String(), "Notification delivery failed"))

	var nilDispatcher *Dispatcher
	nilDispatcher.Dispatch(context.Background(), Event{Type: DepositApproved})
}

func TestNewFromConfig_WebhookOptional(t *testing.T) {
	logger := common.NewSilentLogger()

	d := NewFromConfig(common.NotifyConfig{}, logger)
	chain, ok := d.notifier.(Multi)
	require.True(t, ok)
	assert.Len(t, chain, 1)

	d = NewFromConfig(common.NotifyConfig{WebhookURL: "http://example.invalid/hook", RateLimit: 2, Burst: 3}, logger)
	chain = d.notifier.(Multi)
	require.Len(t, chain, 2)
	hook, ok := chain[1].(*WebhookNotifier)
	require.True(t, ok)
	assert.Equal(t, 3, hook.limiter.Burst())
}
