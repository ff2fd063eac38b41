// Package httptask provides the HTTP-backed OperationExecutor used to
// drive traffic at trading-platform service endpoints.
package httptask

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Executor performs one HTTP request per operation. Latency is measured
// around the full request/response exchange including reading the body,
// since that is what a real client experiences.
type Executor struct {
	client      *http.Client
	method      string
	url         string
	body        []byte
	contentType string
	bearerToken string
	wantStatus  int
}

type ExecutorOption func(*Executor)

// Method sets the request method. Defaults to GET.
func Method(m string) ExecutorOption {
	return func(e *Executor) {
		e.method = m
	}
}

// Body sets the request payload sent with every operation.
func Body(contentType string, body []byte) ExecutorOption {
	return func(e *Executor) {
		e.contentType = contentType
		e.body = body
	}
}

// BearerToken attaches an Authorization header, e.g. the session token
// produced by the identity service's login flow.
func BearerToken(token string) ExecutorOption {
	return func(e *Executor) {
		e.bearerToken = token
	}
}

// ExpectStatus makes the given status code the only successful one,
// instead of the default any-2xx rule. Useful for negative tests, e.g.
// expecting 401 from an unauthenticated endpoint.
func ExpectStatus(code int) ExecutorOption {
	return func(e *Executor) {
		e.wantStatus = code
	}
}

// Client overrides the HTTP client. The default uses NewTransport sized
// for a single worker; load runs should pass a client built around
// NewTransport(virtualUsers).
func Client(c *http.Client) ExecutorOption {
	return func(e *Executor) {
		e.client = c
	}
}

func New(url string, options ...ExecutorOption) *Executor {
	e := &Executor{
		method: http.MethodGet,
		url:    url,
	}

	for _, op := range options {
		op(e)
	}

	if e.client == nil {
		e.client = &http.Client{
			Transport: NewTransport(1),
			Timeout:   30 * time.Second,
		}
	}
	return e
}

// Execute issues the request and reports the wall-clock latency around
// it. Any non-2xx status is a failed operation.
func (e *Executor) Execute(ctx context.Context) (time.Duration, error) {
	var reqBody io.Reader
	if len(e.body) > 0 {
		reqBody = bytes.NewReader(e.body)
	}

	req, err := http.NewRequestWithContext(ctx, e.method, e.url, reqBody)
	if err != nil {
		return 0, errors.Wrap(err, "building request")
	}
	if e.contentType != "" {
		req.Header.Set("Content-Type", e.contentType)
	}
	if e.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+e.bearerToken)
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return time.Since(start), errors.Wrap(err, "request failed")
	}

	// Drain so the connection returns to the pool.
	_, copyErr := io.Copy(io.Discard, resp.Body)
	closeErr := resp.Body.Close()
	elapsed := time.Since(start)

	if copyErr != nil {
		return elapsed, errors.Wrap(copyErr, "reading response body")
	}
	if closeErr != nil {
		return elapsed, errors.Wrap(closeErr, "closing response body")
	}
	if e.wantStatus != 0 {
		if resp.StatusCode != e.wantStatus {
			return elapsed, errors.Errorf("expected status %d, got %d", e.wantStatus, resp.StatusCode)
		}
		return elapsed, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return elapsed, errors.Errorf("unexpected status %d", resp.StatusCode)
	}
	return elapsed, nil
}
