// Package remote talks to the spreadsheet web app that mirrors the gradebook.
//
// The endpoint accepts three requests:
//
//	GET  <url>?action=test   -> {"status":"ok"}
//	POST <url> {"action":"save","data":{...}}
//	GET  <url>?action=load   -> {"status":"ok","data":{...}}
//
// Nothing is retried or queued. Every call is bounded by the client timeout.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"gradebook/internal/gradebook"
	"gradebook/internal/logging"
)

// maxResponseBytes caps how much of a reply is read.
const maxResponseBytes = 32 << 20

// Client is an HTTP client for the mirror endpoint.
type Client struct {
	http    *http.Client
	timeout time.Duration
}

// NewClient returns a client whose calls time out after timeout (30s when zero).
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// WithHTTPClient replaces the transport client, mainly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

type envelope struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    *gradebook.SyncPayload `json:"data,omitempty"`
}

type saveRequest struct {
	Action string                `json:"action"`
	Data   gradebook.SyncPayload `json:"data"`
}

func parseEndpoint(endpoint string) (*url.URL, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}
	return u, nil
}

func actionURL(endpoint, action string) (string, error) {
	u, err := parseEndpoint(endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("action", action)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func syncErr(action, endpoint string, err error) *gradebook.SyncError {
	return &gradebook.SyncError{Action: action, Endpoint: endpoint, Err: err}
}

// get issues a GET for action and decodes the envelope.
func (c *Client) get(ctx context.Context, endpoint, action string) (*envelope, int, error) {
	target, err := actionURL(endpoint, action)
	if err != nil {
		return nil, 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("unexpected response (HTTP %d): %w", resp.StatusCode, err)
	}
	return &env, resp.StatusCode, nil
}

// TestConnection checks that the endpoint answers {"status":"ok"}.
func (c *Client) TestConnection(ctx context.Context, endpoint string) (Result, error) {
	timer := logging.StartTimer(logging.CategoryRemote, "TestConnection")
	defer timer.Stop()

	env, code, err := c.get(ctx, endpoint, "test")
	if err != nil {
		return Result{Outcome: OutcomeFailed, HTTPStatus: code}, syncErr("test", endpoint, err)
	}
	if env.Status != "ok" {
		err := fmt.Errorf("endpoint answered status %q", env.Status)
		return Result{Outcome: OutcomeFailed, HTTPStatus: code}, syncErr("test", endpoint, err)
	}
	logging.Remote("connection to %s ok", endpoint)
	return Result{Outcome: OutcomeOK, HTTPStatus: code}, nil
}

// Push sends the payload. Once the request is delivered the outcome is Unknown unless the
// reply is an explicit {"status":"ok"}; only a transport failure is an error.
func (c *Client) Push(ctx context.Context, endpoint string, payload gradebook.SyncPayload) (Result, error) {
	// The save action travels in the body; the endpoint is posted to as configured.
	if _, err := parseEndpoint(endpoint); err != nil {
		return Result{Outcome: OutcomeFailed}, syncErr("save", endpoint, err)
	}

	body, err := json.Marshal(saveRequest{Action: "save", Data: payload})
	if err != nil {
		return Result{Outcome: OutcomeFailed}, syncErr("save", endpoint, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{Outcome: OutcomeFailed}, syncErr("save", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{Outcome: OutcomeFailed}, syncErr("save", endpoint, err)
	}
	defer resp.Body.Close()

	res := Result{Outcome: OutcomeUnknown, HTTPStatus: resp.StatusCode}
	reply, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	var env envelope
	if readErr == nil && resp.StatusCode < 300 && json.Unmarshal(reply, &env) == nil && env.Status == "ok" {
		res.Outcome = OutcomeOK
	}
	logging.Remote("pushed %d bytes to %s: %s (HTTP %d)", len(body), endpoint, res.Outcome, resp.StatusCode)
	return res, nil
}

// Pull fetches the remote copy. A reply without data, or with a non-ok status, is
// NotFound; transport and decode failures are Failed.
func (c *Client) Pull(ctx context.Context, endpoint string) (Result, error) {
	timer := logging.StartTimer(logging.CategoryRemote, "Pull")
	defer timer.Stop()

	env, code, err := c.get(ctx, endpoint, "load")
	if err != nil {
		return Result{Outcome: OutcomeFailed, HTTPStatus: code}, syncErr("load", endpoint, err)
	}
	if env.Status != "ok" || env.Data == nil {
		logging.Remote("no data at %s (status %q)", endpoint, env.Status)
		return Result{Outcome: OutcomeNotFound, HTTPStatus: code}, nil
	}
	return Result{Outcome: OutcomeOK, HTTPStatus: code, Data: env.Data}, nil
}

// IsTimeout reports whether err came from the call deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
