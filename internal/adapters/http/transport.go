// Package http implements the transport port with a single POST per
// delivery attempt.
package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tsio-labs/metricship/internal/domain"
	"github.com/tsio-labs/metricship/internal/ports"
	"github.com/tsio-labs/metricship/pkg/log"
)

// Transport delivers serialized batches to an HTTP endpoint.
//
// Expected HTTP-level failures (a non-2xx status) are reported to the
// error handler here and never surface as errors: Send returns the
// server's response body so the caller's clear-and-continue path runs
// the same way as on success. Only lower-level faults such as
// connection errors propagate, to be caught by the batching writer.
type Transport struct {
	endpoint string
	client   ports.HTTPClient
	errors   ports.ErrorHandler
	logger   log.Logger
}

// New validates the endpoint and creates an HTTP transport. Only
// http and https schemes are accepted; anything else fails here,
// before any record is buffered. A nil client falls back to the
// default *http.Client.
func New(endpoint string, client ports.HTTPClient, errors ports.ErrorHandler, logger log.Logger) (*Transport, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%w: empty endpoint", domain.ErrInvalidEndpoint)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidEndpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q, want http or https", domain.ErrInvalidEndpoint, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", domain.ErrInvalidEndpoint, endpoint)
	}

	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Transport{
		endpoint: endpoint,
		client:   client,
		errors:   errors,
		logger:   logger,
	}, nil
}

// Endpoint returns the destination URL.
func (t *Transport) Endpoint() string {
	return t.endpoint
}

// Send performs one blocking POST of the payload and returns the
// server's response body.
func (t *Transport) Send(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", t.endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", t.endpoint, err)
	}

	if resp.StatusCode/100 != 2 {
		if t.errors != nil {
			t.errors.Handle(
				fmt.Errorf("server returned %s", resp.Status),
				fmt.Sprintf("delivering %s to %s: status %d, body %q",
					recordCount(countRecords(payload)), t.endpoint, resp.StatusCode, string(body)),
			)
		}
		return body, nil
	}

	t.logger.Debug("payload accepted",
		log.Int("bytes", len(payload)),
		log.Int("status", resp.StatusCode))
	return body, nil
}

// countRecords counts newline-delimited records in a payload.
func countRecords(payload []byte) int {
	n := bytes.Count(payload, []byte{'\n'})
	if len(payload) > 0 && payload[len(payload)-1] != '\n' {
		n++
	}
	return n
}

// recordCount formats a count with the right noun form.
func recordCount(n int) string {
	if n == 1 {
		return "1 record"
	}
	return fmt.Sprintf("%d records", n)
}
