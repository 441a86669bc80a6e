// Package client submits the profile form to a running server and applies
// the typed result to a form state.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-profileform/pkg/action"
	"github.com/goliatone/go-profileform/pkg/formstate"
	"github.com/goliatone/go-profileform/pkg/validation"
)

// RequestedWith is sent as X-Requested-With so the server answers with JSON.
const RequestedWith = "profileform"

// ErrBlocked reports a submission stopped by client validation. The field
// errors are already on the state.
var ErrBlocked = errors.New("client: submission blocked by client validation")

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the server the action endpoint is resolved against.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
	}
}

// WithHTTPClient overrides the http.Client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithValidator overrides the validator used for client validation.
func WithValidator(v *validation.Validator) Option {
	return func(c *Client) {
		if v != nil {
			c.validator = v
		}
	}
}

// WithTimeout bounds each request. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// Client invokes the server action over HTTP.
type Client struct {
	baseURL   string
	http      *http.Client
	token     string
	validator *validation.Validator
	timeout   time.Duration
}

// New constructs a Client. Without WithBaseURL the form endpoint must be an
// absolute URL.
func New(options ...Option) *Client {
	c := &Client{
		http:      http.DefaultClient,
		validator: validation.New(),
		timeout:   30 * time.Second,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Submit sends the values held by state and applies the outcome to it.
//
// It returns formstate.ErrPending when a submission is already in flight and
// ErrBlocked when client validation fails; no request is made in either
// case. Transport and decode failures are applied with state.Fail and
// returned. Any decoded result, failures included, is applied and returned
// with a nil error.
func (c *Client) Submit(ctx context.Context, state *formstate.State) (action.Result, error) {
	if state == nil {
		return action.Result{}, errors.New("client: form state is nil")
	}
	if state.Pending() {
		return action.Result{}, formstate.ErrPending
	}
	if !state.CheckClient(c.validator) {
		return action.Result{}, ErrBlocked
	}
	if !state.Begin() {
		return action.Result{}, formstate.ErrPending
	}

	result, err := c.post(ctx, state)
	if err != nil {
		state.Fail(err)
		return action.Result{}, err
	}
	state.Apply(result)
	return result, nil
}

func (c *Client) post(ctx context.Context, state *formstate.State) (action.Result, error) {
	form := state.Form()
	endpoint, err := c.endpoint(form.Endpoint)
	if err != nil {
		return action.Result{}, err
	}

	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	method := form.Method
	if method == "" {
		method = http.MethodPost
	}
	body := state.FormValues().Encode()
	req, err := http.NewRequestWithContext(reqCtx, method, endpoint, strings.NewReader(body))
	if err != nil {
		return action.Result{}, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", RequestedWith)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return action.Result{}, fmt.Errorf("client: send request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		return action.Result{}, fmt.Errorf("client: unexpected response %s (%s)", resp.Status, resp.Header.Get("Content-Type"))
	}

	result, err := action.DecodeResult(resp.Body)
	if err != nil {
		return action.Result{}, fmt.Errorf("client: decode result: %w", err)
	}
	return result, nil
}

func (c *Client) endpoint(path string) (string, error) {
	if c.baseURL == "" {
		u, err := url.Parse(path)
		if err != nil || !u.IsAbs() {
			return "", fmt.Errorf("client: endpoint %q is not absolute and no base URL is set", path)
		}
		return path, nil
	}
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return "", fmt.Errorf("client: parse base url: %w", err)
	}
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", fmt.Errorf("client: parse endpoint: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}
