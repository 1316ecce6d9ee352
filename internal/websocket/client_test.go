package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// echoServer upgrades every request and echoes text frames. When dropFirst is
// set the first connection is closed right after the handshake.
func echoServer(t *testing.T, dropFirst bool, auth *atomic.Value) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var conns atomic.Int32
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth != nil {
			auth.Store(r.Header.Get("Authorization"))
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if n := conns.Add(1); dropFirst && n == 1 {
			return
		}
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, msg); err != nil {
				return
			}
		}
	}))
	return srv, &conns
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func stateRecorder() (func(bool), <-chan bool) {
	states := make(chan bool, 16)
	return func(connected bool) {
		select {
		case states <- connected:
		default:
		}
	}, states
}

func waitState(t *testing.T, states <-chan bool, want bool) {
	t.Helper()
	for {
		select {
		case got := <-states:
			if got == want {
				return
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for connected=%v", want)
		}
	}
}

func TestSendWithoutConnection(t *testing.T) {
	c := NewClient(Options{URL: "ws://127.0.0.1:1/ws"}, nil)

	err := c.Send(context.Background(), []byte(`{}`))
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.False(t, c.Connected())
}

func TestRoundTrip(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var auth atomic.Value
	srv, _ := echoServer(t, false, &auth)
	defer srv.Close()

	received := make(chan []byte, 4)
	c := NewClient(Options{URL: wsURL(srv), Token: "secret", ReconnectBackoff: 10 * time.Millisecond}, func(data []byte) {
		received <- data
	})
	onState, states := stateRecorder()
	c.OnStateChange(onState)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	waitState(t, states, true)
	require.NoError(t, c.Send(ctx, []byte(`{"websocket_type":"rating"}`)))

	select {
	case msg := <-received:
		assert.JSONEq(t, `{"websocket_type":"rating"}`, string(msg))
	case <-time.After(5 * time.Second):
		t.Fatal("no echo received")
	}
	assert.Equal(t, "Bearer secret", auth.Load())

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	assert.False(t, c.Connected())
}

func TestReconnectsAfterDrop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv, conns := echoServer(t, true, nil)
	defer srv.Close()

	c := NewClient(Options{URL: wsURL(srv), ReconnectBackoff: 10 * time.Millisecond}, nil)
	onState, states := stateRecorder()
	c.OnStateChange(onState)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	waitState(t, states, true)
	waitState(t, states, false)
	waitState(t, states, true)
	assert.GreaterOrEqual(t, conns.Load(), int32(2))

	cancel()
	<-errCh
}
