package irisfast

import (
	"context"
	"encoding/json"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func newTestClient(t *testing.T, handler fasthttp.RequestHandler) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		_ = srv.Shutdown()
		_ = ln.Close()
	})
	c := NewClient("http://iris.local", WithTimeout(2*time.Second),
		WithHeaderProvider(func() map[string]string { return map[string]string{"X-User-Id": "bot"} }))
	c.http.Dial = func(addr string) (net.Conn, error) { return ln.Dial() }
	return c
}

func TestSendMessagePostsReply(t *testing.T) {
	var got ReplyRequest
	var header string
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		header = string(ctx.Request.Header.Peek("X-User-Id"))
		if string(ctx.Path()) != "/reply" {
			ctx.SetStatusCode(fasthttp.StatusNotFound)
			return
		}
		_ = json.Unmarshal(ctx.PostBody(), &got)
		ctx.SetStatusCode(fasthttp.StatusOK)
	})

	require.NoError(t, c.SendMessage(context.Background(), "room1", "hello"))
	assert.Equal(t, ReplyRequest{Type: "text", Room: "room1", Data: "hello"}, got)
	assert.Equal(t, "bot", header)
}

func TestReplyRetriesOnServerError(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		if atomic.AddInt32(&calls, 1) < 3 {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			return
		}
		ctx.SetStatusCode(fasthttp.StatusOK)
	})

	require.NoError(t, c.SendImage(context.Background(), "room1", "aGVsbG8="))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestReplyDoesNotRetryClientError(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		atomic.AddInt32(&calls, 1)
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		ctx.SetBodyString("bad room")
	})

	err := c.SendMessage(context.Background(), "room1", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=400")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestReplyRejectsEmptyRoom(t *testing.T) {
	c := NewClient("http://iris.local")
	assert.Error(t, c.SendMessage(context.Background(), " ", "hello"))
}

func TestGetConfigDecodes(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"bot_http_port":3000,"db_polling_rate":100,"message_send_rate":50,"web_server_endpoint":"http://x"}`)
	})
	cfg, err := c.GetConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "http://x", cfg.WebserverEndpoint)
}

func TestMessageUserIDFallback(t *testing.T) {
	name := " Alice "
	m := &Message{Sender: &name}
	assert.Equal(t, "Alice", m.UserID())
	m.JSON = &MessageJSON{UserID: "42"}
	assert.Equal(t, "42", m.UserID())
	assert.Equal(t, "Alice", m.SenderName())
	var nilMsg *Message
	assert.Empty(t, nilMsg.UserID())
}

func TestHTTPEgressDelegates(t *testing.T) {
	var got ReplyRequest
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		_ = json.Unmarshal(ctx.PostBody(), &got)
	})
	eg := NewEgress("http", false, c, nil, nil)
	require.NoError(t, eg.SendText(context.Background(), "r", "t"))
	assert.Equal(t, "text", got.Type)

	// auto mode without a connected socket goes straight to HTTP
	eg = NewEgress("auto", false, c, NewWebSocket("ws://unused", 0), nil)
	require.NoError(t, eg.SendImage(context.Background(), "r", "img"))
	assert.Equal(t, "image", got.Type)
}
