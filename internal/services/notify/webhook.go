package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
)

const (
	DefaultWebhookTimeout = 10 * time.Second
	DefaultWebhookRate    = 5 // events per second
)

// WebhookNotifier POSTs events as JSON to a single URL.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *common.Logger
}

// WebhookOption configures the notifier
type WebhookOption func(*WebhookNotifier)

// WithWebhookLogger sets the logger
func WithWebhookLogger(logger *common.Logger) WebhookOption {
	return func(n *WebhookNotifier) {
		n.logger = logger
	}
}

// WithWebhookTimeout sets the HTTP timeout
func WithWebhookTimeout(timeout time.Duration) WebhookOption {
	return func(n *WebhookNotifier) {
		n.httpClient.Timeout = timeout
	}
}

// WithWebhookRateLimit caps deliveries per second. burst < 1 is treated as 1.
func WithWebhookRateLimit(perSecond float64, burst int) WebhookOption {
	return func(n *WebhookNotifier) {
		if burst < 1 {
			burst = 1
		}
		n.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(n *WebhookNotifier) {
		n.httpClient = client
	}
}

// NewWebhookNotifier creates a webhook notifier for url
func NewWebhookNotifier(url string, opts ...WebhookOption) *WebhookNotifier {
	n := &WebhookNotifier{
		url: url,
		httpClient: &http.Client{
			Timeout: DefaultWebhookTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultWebhookRate), DefaultWebhookRate),
		logger:  common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// WebhookError is a non-2xx response from the receiver.
type WebhookError struct {
	StatusCode int
	Body       string
}

func (e *WebhookError) Error() string {
	return fmt.Sprintf("webhook returned status %d: %s", e.StatusCode, e.Body)
}

func (n *WebhookNotifier) Notify(ctx context.Context, event Event) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "surbminer/"+common.GetVersion())

	n.logger.Debug().Str("event", string(event.Type)).Msg("Webhook delivery")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &WebhookError{StatusCode: resp.StatusCode, Body: string(msg)}
	}
	return nil
}
