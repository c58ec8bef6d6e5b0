package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	logx "chzzkwatch/pkg/logx"
)

const sendTimeout = 10 * time.Second

// DefaultSpacing is the minimum delay between two sends to the same webhook,
// a crude rate limit Discord tolerates.
const DefaultSpacing = time.Second

// Webhook delivers messages to Discord webhook URLs.
//
// Sends to the same destination are spaced at least `spacing` apart via a
// per-URL rate limiter; sends to different destinations are independent.
// Delivery is best-effort: non-2xx responses are reported, never retried.
type Webhook struct {
	http    *http.Client
	log     logx.Logger
	spacing time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewWebhook(spacing time.Duration, log logx.Logger) *Webhook {
	return NewWebhookWithClient(spacing, &http.Client{Timeout: sendTimeout}, log)
}

// NewWebhookWithClient exists for tests.
func NewWebhookWithClient(spacing time.Duration, hc *http.Client, log logx.Logger) *Webhook {
	if spacing <= 0 {
		spacing = DefaultSpacing
	}
	if hc == nil {
		hc = &http.Client{Timeout: sendTimeout}
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Webhook{
		http:     hc,
		log:      log,
		spacing:  spacing,
		limiters: map[string]*rate.Limiter{},
	}
}

// Send posts one message, waiting out the destination's spacing first.
func (w *Webhook) Send(ctx context.Context, url string, msg Message) error {
	if url == "" {
		return fmt.Errorf("webhook: empty url")
	}
	if err := w.limiter(url).Wait(ctx); err != nil {
		return err
	}

	payload := struct {
		Content string  `json:"content"`
		Embeds  []Embed `json:"embeds,omitempty"`
	}{Content: msg.Content}
	if msg.Embed != nil {
		payload.Embeds = []Embed{*msg.Embed}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook: unexpected status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}

// limiter returns the destination's limiter, creating it on first use.
// The first send goes through immediately; later ones wait out the spacing.
func (w *Webhook) limiter(url string) *rate.Limiter {
	w.mu.Lock()
	defer w.mu.Unlock()
	lim, ok := w.limiters[url]
	if !ok {
		lim = rate.NewLimiter(rate.Every(w.spacing), 1)
		w.limiters[url] = lim
	}
	return lim
}
