package xhttp

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func startEngine(t *testing.T, e *Engine) *fasthttp.Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = e.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })
	return &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) { return ln.Dial() },
	}
}

func get(t *testing.T, c *fasthttp.Client, path string) (int, string) {
	t.Helper()
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)
	req.SetRequestURI("http://engine" + path)
	require.NoError(t, c.Do(req, resp))
	return resp.StatusCode(), string(resp.Body())
}

func TestEngine_HealthAndNotFound(t *testing.T) {
	c := startEngine(t, CreateServer())

	status, body := get(t, c, "/health")
	assert.Equal(t, StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	status, _ = get(t, c, "/missing")
	assert.Equal(t, StatusNotFound, status)
}

func TestEngine_MiddlewareOrder(t *testing.T) {
	e := CreateServer()
	var order []string
	mark := func(name string) MiddlewareFunc {
		return func(next RequestHandler) RequestHandler {
			return func(ctx *RequestCtx) {
				order = append(order, name)
				next(ctx)
			}
		}
	}
	e.Use(mark("outer"))
	e.Use(mark("inner"))
	e.GET("/ping", func(ctx *RequestCtx) {
		order = append(order, "handler")
		ctx.SetBodyString("pong")
	})
	c := startEngine(t, e)

	status, body := get(t, c, "/ping")
	assert.Equal(t, StatusOK, status)
	assert.Equal(t, "pong", body)
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRecoverMiddleware(t *testing.T) {
	e := CreateServer()
	e.Use(RecoverMiddleware)
	e.Use(RequestLoggerMiddleware)
	e.GET("/boom", func(ctx *RequestCtx) {
		panic("boom")
	})
	c := startEngine(t, e)

	status, _ := get(t, c, "/boom")
	assert.Equal(t, StatusInternalServerError, status)
}
