package server

import (
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"freewrite-assistant/internal/config"
	"freewrite-assistant/internal/devserver"
	"freewrite-assistant/internal/dispatcher"
	"freewrite-assistant/internal/handler"
	"freewrite-assistant/internal/pkg/logger"
	"freewrite-assistant/internal/pkg/serverutils"
	"freewrite-assistant/internal/websocket"
	"freewrite-assistant/pkg/document"
	"freewrite-assistant/pkg/insertion"
	"freewrite-assistant/pkg/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

type backend struct {
	srv *Server
	url string
}

func startBackend(t *testing.T, jwtSecret string) *backend {
	t.Helper()
	log := logger.NewNopLogger()

	ctx, cancel := context.WithCancel(context.Background())
	hub := devserver.NewHub(log)
	go hub.Run(ctx)

	cfg := &config.Config{DevServer: config.DevServerConfig{JWTSecret: jwtSecret}}
	srv := New(cfg, handler.NewStreamHandler(hub, devserver.NewGenerator(0), jwtSecret, log))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(ln)

	t.Cleanup(func() {
		_ = srv.GetApp().ShutdownWithTimeout(5 * time.Second)
		cancel()
	})
	return &backend{srv: srv, url: "ws://" + ln.Addr().String() + "/ws"}
}

func TestHealth(t *testing.T) {
	b := startBackend(t, "")

	resp, err := b.srv.GetApp().Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestWebSocketRequiresToken(t *testing.T) {
	b := startBackend(t, secret)

	resp, err := b.srv.GetApp().Test(httptest.NewRequest("GET", "/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestSimulateErrorValidatesCode(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"unknown code", `{"error":"bogus"}`, 400},
		{"missing code", `{"message":"no code"}`, 400},
		{"tokens used", `{"error":"tokens_used"}`, 200},
		{"max tokens with message", `{"error":"max_tokens","message":"too long"}`, 200},
	}

	b := startBackend(t, "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/debug/error", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := b.srv.GetApp().Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

// session wires a document, engine, dispatcher and transport the way the
// assistant does, all driven by one loop.
type session struct {
	loop      *dispatcher.Loop
	doc       *document.Memory
	engine    *insertion.Engine
	d         *dispatcher.Dispatcher
	connected chan bool
}

func startSession(t *testing.T, url, token, text string) *session {
	t.Helper()
	s := &session{
		loop:      dispatcher.NewLoop(64),
		doc:       document.FromText(text),
		connected: make(chan bool, 8),
	}
	s.engine = insertion.NewEngine(s.doc, insertion.DefaultConfig(), insertion.NewTimerScheduler(func(fn func()) { s.loop.Post(fn) }))

	client := websocket.NewClient(websocket.Options{URL: url, Token: token, ReconnectBackoff: 20 * time.Millisecond}, func(data []byte) {
		s.loop.Post(func() { s.d.Handle(data) })
	})
	client.OnStateChange(func(up bool) {
		select {
		case s.connected <- up:
		default:
		}
	})
	s.d = dispatcher.New(s.doc, s.engine, client, dispatcher.Options{ThreadID: "thread-1"})

	ctx, cancel := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	clientDone := make(chan struct{})
	go func() { defer close(loopDone); s.loop.Run(ctx) }()
	go func() { defer close(clientDone); client.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-clientDone
		<-loopDone
	})

	select {
	case up := <-s.connected:
		require.True(t, up)
	case <-time.After(5 * time.Second):
		t.Fatal("client did not connect")
	}
	return s
}

func (s *session) submit(t *testing.T, action dispatcher.Action) {
	t.Helper()
	require.NoError(t, s.loop.Do(context.Background(), func() error {
		return s.d.Submit(context.Background(), action)
	}))
}

func (s *session) idle() bool {
	var generating bool
	_ = s.loop.Do(context.Background(), func() error {
		generating = s.d.Generating()
		return nil
	})
	return !generating
}

func (s *session) text() string {
	var text string
	_ = s.loop.Do(context.Background(), func() error {
		text = s.doc.String()
		return nil
	})
	return text
}

func TestContinuationEndToEnd(t *testing.T) {
	b := startBackend(t, secret)
	token, err := serverutils.IssueToken("writer-1", secret, time.Hour)
	require.NoError(t, err)

	s := startSession(t, b.url, token, "Once upon a time there was a fox.")
	s.submit(t, dispatcher.Snippet{Mode: protocol.ModeSentence})

	require.Eventually(t, s.idle, 5*time.Second, 10*time.Millisecond)
	want := "Once upon a time there was a fox." + " And then, quite suddenly, everything changed." + "\n"
	assert.Equal(t, want, s.text())

	// Exporting right after the stream must not carry the transient highlight.
	var before, after string
	_ = s.loop.Do(context.Background(), func() error {
		before = document.Markdown(s.doc)
		s.engine.FlushHighlight()
		after = document.Markdown(s.doc)
		return nil
	})
	assert.Contains(t, before, "background-color")
	assert.NotContains(t, after, "background-color")
	assert.Equal(t, want, after)
}

func TestQuotaEndToEnd(t *testing.T) {
	b := startBackend(t, "")

	s := startSession(t, b.url, "", "A story that ran out #quota")
	s.submit(t, dispatcher.Snippet{Mode: protocol.ModeParagraph})

	require.Eventually(t, s.idle, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "A story that ran out #quota", s.text())

	var err error
	_ = s.loop.Do(context.Background(), func() error {
		err = s.d.LastError()
		return nil
	})
	assert.ErrorIs(t, err, dispatcher.ErrQuotaExceeded)
}

func TestRatingEndToEnd(t *testing.T) {
	b := startBackend(t, "")

	s := startSession(t, b.url, "", "An essay that deserves a fair rating.")
	s.submit(t, dispatcher.Rate{Mode: protocol.ModeVSpice})

	require.Eventually(t, s.idle, 5*time.Second, 10*time.Millisecond)

	var score int
	_ = s.loop.Do(context.Background(), func() error {
		if r := s.d.LastRating(); r != nil {
			score = r.OverallScore
		}
		return nil
	})
	assert.NotZero(t, score)
	assert.Equal(t, "An essay that deserves a fair rating.", s.text())
}
