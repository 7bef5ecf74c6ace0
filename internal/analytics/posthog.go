// Package analytics sends product events to PostHog. Capture never blocks
// and never fails the caller.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mathiasric/snaptosize-app/internal/infra"
)

const DefaultHost = "https://eu.posthog.com"

// Capturer records one event for a distinct id.
type Capturer interface {
	Capture(distinctID, event string, props map[string]any)
}

// Noop drops every event.
type Noop struct{}

func (Noop) Capture(string, string, map[string]any) {}

type Options struct {
	APIKey     string
	Host       string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *infra.Logger
}

// PostHog posts events to {host}/capture/ in the background.
type PostHog struct {
	apiKey     string
	host       string
	httpClient *http.Client
	logger     *infra.Logger
	wg         sync.WaitGroup
}

type capturePayload struct {
	APIKey     string         `json:"api_key"`
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties"`
}

// NewPostHog builds a client. Without an API key every capture is a no-op.
func NewPostHog(opts Options) *PostHog {
	host := strings.TrimRight(strings.TrimSpace(opts.Host), "/")
	if host == "" {
		host = DefaultHost
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		l := infra.Logger(zerolog.Nop())
		logger = &l
	}
	return &PostHog{
		apiKey:     strings.TrimSpace(opts.APIKey),
		host:       host,
		httpClient: client,
		logger:     logger,
	}
}

// Enabled reports whether events leave the process.
func (p *PostHog) Enabled() bool {
	return p != nil && p.apiKey != ""
}

// Capture queues event for delivery.
func (p *PostHog) Capture(distinctID, event string, props map[string]any) {
	if !p.Enabled() {
		return
	}
	properties := make(map[string]any, len(props)+1)
	for k, v := range props {
		properties[k] = v
	}
	properties["distinct_id"] = distinctID

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.send(context.Background(), capturePayload{APIKey: p.apiKey, Event: event, Properties: properties}); err != nil {
			p.logger.Debug().Err(err).Str("event", event).Msg("analytics: capture failed")
		}
	}()
}

// Flush waits for in-flight captures, e.g. before a process exits.
func (p *PostHog) Flush() {
	if p == nil {
		return
	}
	p.wg.Wait()
}

func (p *PostHog) send(ctx context.Context, payload capturePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/capture/", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("posthog: status %d", resp.StatusCode)
	}
	return nil
}
