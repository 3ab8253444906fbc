// Package notify delivers ledger events (approvals, cancellations,
// completions) to operators.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
)

// EventType names what happened.
type EventType string

const (
	DepositRequested    EventType = "deposit.requested"
	DepositApproved     EventType = "deposit.approved"
	DepositCancelled    EventType = "deposit.cancelled"
	WithdrawalRequested EventType = "withdrawal.requested"
	WithdrawalApproved  EventType = "withdrawal.approved"
	WithdrawalDeferred  EventType = "withdrawal.deferred"
	WithdrawalCancelled EventType = "withdrawal.cancelled"
	SweepCompleted      EventType = "sweep.completed"
)

// Event is the payload sent to every notifier.
type Event struct {
	Type        EventType       `json:"type"`
	AccountID   string          `json:"account_id,omitempty"`
	ReferenceID string          `json:"reference_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	CryptoType  string          `json:"crypto_type,omitempty"`
	Message     string          `json:"message,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// Notifier delivers events somewhere.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// LogNotifier writes events to the structured log.
type LogNotifier struct {
	logger *common.Logger
}

// NewLogNotifier creates a notifier that logs at info level
func NewLogNotifier(logger *common.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, event Event) error {
	n.logger.Info().
		Str("event", string(event.Type)).
		Str("account_id", event.AccountID).
		Str("reference_id", event.ReferenceID).
		Str("amount", event.Amount.StringFixed(2)).
		Str("crypto_type", event.CryptoType).
		Msg("Ledger event")
	return nil
}

// Multi fans an event out to several notifiers. All of them are tried; the
// errors are joined.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispatcher sends events after a ledger change has committed. Delivery
// failures are logged and never reach the caller.
type Dispatcher struct {
	notifier Notifier
	logger   *common.Logger
	timeout  time.Duration
}

// NewDispatcher wraps notifier. A nil notifier drops every event.
func NewDispatcher(notifier Notifier, logger *common.Logger, timeout time.Duration) *Dispatcher {
	return &Dispatcher{notifier: notifier, logger: logger, timeout: timeout}
}

// Dispatch delivers event. The request context is detached so a client
// disconnect does not abort delivery of an already committed change.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) {
	if d == nil || d.notifier == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	ctx = context.WithoutCancel(ctx)
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := d.notifier.Notify(ctx, event); err != nil {
		d.logger.Warn().Err(err).Str("event", string(event.Type)).Str("reference_id", event.ReferenceID).Msg("Notification delivery failed")
	}
}

// NewFromConfig builds the notifier chain: always the log, plus a webhook
// when [notify].webhook_url is set.
func NewFromConfig(cfg common.NotifyConfig, logger *common.Logger) *Dispatcher {
	chain := Multi{NewLogNotifier(logger)}
	if cfg.WebhookURL != "" {
		opts := []WebhookOption{WithWebhookLogger(logger), WithWebhookTimeout(cfg.GetTimeout())}
		if cfg.RateLimit > 0 {
			opts = append(opts, WithWebhookRateLimit(cfg.RateLimit, cfg.Burst))
		}
		chain = append(chain, NewWebhookNotifier(cfg.WebhookURL, opts...))
	}
	return NewDispatcher(chain, logger, cfg.GetTimeout())
}
