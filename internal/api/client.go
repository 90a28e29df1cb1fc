package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/lead-desk/internal/config"
	"github.com/nimasrn/lead-desk/pkg/logger"
	"github.com/nimasrn/lead-desk/pkg/prom"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
)

const defaultTimeout = 10 * time.Second

// Routes are the paths of the remote lead service below the base URL.
type Routes struct {
	Leads           string
	GetLeads        string
	SwitchAttention string
}

var DefaultRoutes = Routes{
	Leads:           "/leads",
	GetLeads:        "/leads",
	SwitchAttention: "/switch-needs-attention",
}

type Config struct {
	BaseURL  string
	Routes   Routes
	Timeout  time.Duration
	MaxConns int
	// Dial overrides how connections are opened. Tests use it to reach an
	// in-memory listener.
	Dial fasthttp.DialFunc
}

// Response is the data, status and error triple of one request. Err is nil
// for a 2xx reply.
type Response[T any] struct {
	Data   T
	Status int
	Err    error
}

// Message returns the error text, or "" on success.
func (r Response[T]) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Normalize folds the result of any call into a Response. Errors that are
// not already normalized are treated as client errors.
func Normalize[T any](data T, err error) Response[T] {
	if err == nil {
		return Response[T]{Data: data, Status: fasthttp.StatusOK}
	}
	var e *Error
	if !errors.As(err, &e) {
		e = clientError(err)
	}
	return Response[T]{Data: data, Status: e.Status, Err: e}
}

// Client talks JSON to the remote lead service.
type Client struct {
	config *Config
	http   *fasthttp.Client
}

func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("base url is required")
	}
	c := *cfg
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Routes == (Routes{}) {
		c.Routes = DefaultRoutes
	}

	httpClient := &fasthttp.Client{
		Name:                "lead-desk",
		MaxConnsPerHost:     c.MaxConns,
		ReadTimeout:         c.Timeout,
		WriteTimeout:        c.Timeout,
		MaxIdleConnDuration: 60 * time.Second,
		Dial:                c.Dial,
	}

	logger.Info("Lead service client initialized", "base_url", c.BaseURL, "timeout", c.Timeout)
	return &Client{config: &c, http: httpClient}, nil
}

// NewClientFromConfig builds a client from the loaded application config.
func NewClientFromConfig(c *config.Config) (*Client, error) {
	return NewClient(&Config{
		BaseURL: c.BaseURL(),
		Routes: Routes{
			Leads:           c.APIRouteLeads,
			GetLeads:        c.APIFuncGetLeads,
			SwitchAttention: c.APIFuncSwitchAttention,
		},
		Timeout:  c.APITimeout,
		MaxConns: c.APIMaxConns,
	})
}

func (c *Client) Routes() Routes {
	return c.config.Routes
}

// Close drops idle keep-alive connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// Get, Post, Put and Delete issue one request and decode a 2xx body into T.

func Get[T any](ctx context.Context, c *Client, op, path string) Response[T] {
	return do[T](ctx, c, op, fasthttp.MethodGet, path, nil)
}

func Post[T any](ctx context.Context, c *Client, op, path string, body any) Response[T] {
	return do[T](ctx, c, op, fasthttp.MethodPost, path, body)
}

func Put[T any](ctx context.Context, c *Client, op, path string, body any) Response[T] {
	return do[T](ctx, c, op, fasthttp.MethodPut, path, body)
}

func Delete[T any](ctx context.Context, c *Client, op, path string) Response[T] {
	return do[T](ctx, c, op, fasthttp.MethodDelete, path, nil)
}

func do[T any](ctx context.Context, c *Client, op, method, path string, body any) Response[T] {
	start := time.Now()
	var out Response[T]

	raw, status, err := c.doRequest(ctx, method, path, body)
	out.Status = status
	if err == nil && len(raw) > 0 {
		if uerr := json.Unmarshal(raw, &out.Data); uerr != nil {
			err = clientError(fmt.Errorf("failed to decode response: %w", uerr))
		}
	}
	prom.AddAPIRequestDuration(time.Since(start).Seconds(), op)

	if err != nil {
		var e *Error
		if !errors.As(err, &e) {
			e = clientError(err)
		}
		out.Err = e
		out.Status = e.Status
		prom.IncAPIRequestError(op, string(e.Kind))
		logger.Warn("Lead service request failed", "op", op, "method", method, "path", path, "status", e.Status, "kind", string(e.Kind), "error", e.Message)
		return out
	}

	logger.Debug("Lead service request done", "op", op, "method", method, "path", path, "status", status, "latency_ms", time.Since(start).Milliseconds())
	return out
}

// doRequest performs HTTP request with timeout
func (c *Client) doRequest(ctx context.Context, method, path string, body any) ([]byte, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, clientError(err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.config.BaseURL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, 0, clientError(fmt.Errorf("failed to marshal request: %w", err))
		}
		req.SetBody(b)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, 0, transportError(fmt.Errorf("request failed: %w", err))
	}

	statusCode := resp.StatusCode()
	if statusCode < 200 || statusCode > 299 {
		return nil, statusCode, serverError(statusCode, resp.Body())
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())

	return result, statusCode, nil
}
