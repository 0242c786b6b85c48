package wsconn

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/fd1az/product-scout/internal/apperror"
)

type subscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

type feedEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// newFeedServer starts a server that hands every accepted connection to
// handler and closes it when handler returns.
func newFeedServer(t *testing.T, handler func(ctx context.Context, conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Logf("accept: %v", err)
			return
		}
		defer conn.CloseNow()
		handler(r.Context(), conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readSubscribe(ctx context.Context, conn *websocket.Conn) (subscribeRequest, error) {
	var req subscribeRequest
	_, data, err := conn.Read(ctx)
	if err != nil {
		return req, err
	}
	return req, json.Unmarshal(data, &req)
}

// drain reads until the peer goes away so control frames keep flowing.
func drain(ctx context.Context, conn *websocket.Conn) {
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

func newClient(t *testing.T, url string, tweak func(*Config)) *Client {
	t.Helper()
	cfg := DefaultConfig(url, "trend-feed")
	cfg.PingInterval = 0
	cfg.InitialBackoff = 10 * time.Millisecond
	cfg.MaxBackoff = 100 * time.Millisecond
	if tweak != nil {
		tweak(&cfg)
	}
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func receive(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for feed message")
		return nil
	}
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := New(DefaultConfig("", "trend-feed"))
	if apperror.GetCode(err) != apperror.CodeWebSocketConnectionError {
		t.Fatalf("expected CodeWebSocketConnectionError, got %v", err)
	}
}

func TestConnect_Failure(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"nothing listening", "ws://127.0.0.1:1/feed"},
		{"unsupported scheme", "ftp://trends.example/feed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(t, tt.url, nil)

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			err := client.Connect(ctx)
			if apperror.GetCode(err) != apperror.CodeWebSocketConnectionError {
				t.Fatalf("expected CodeWebSocketConnectionError, got %v", err)
			}
			if client.State() != StateDisconnected {
				t.Errorf("state = %s, want %s", client.State(), StateDisconnected)
			}
		})
	}
}

func TestClient_SubscribeAndIngest(t *testing.T) {
	subs := make(chan subscribeRequest, 1)
	srv := newFeedServer(t, func(ctx context.Context, conn *websocket.Conn) {
		req, err := readSubscribe(ctx, conn)
		if err != nil {
			return
		}
		subs <- req

		frames := []string{`{"result":null,"id":1}`}
		for _, kw := range req.Params {
			frames = append(frames, `{"type":"observation","data":{"keyword":"`+kw+`","interest_score":72}}`)
		}
		frames = append(frames, `{"type":"batch","data":[{"keyword":"wireless earbuds","growth_rate":12.5}]}`)
		for _, f := range frames {
			if err := conn.Write(ctx, websocket.MessageText, []byte(f)); err != nil {
				return
			}
		}
		drain(ctx, conn)
	})

	client := newClient(t, wsURL(srv), nil)
	msgs := make(chan []byte, 8)
	client.OnMessage(func(_ context.Context, msg []byte) { msgs <- msg })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !client.IsConnected() {
		t.Fatalf("state = %s", client.State())
	}

	want := subscribeRequest{Method: "SUBSCRIBE", Params: []string{"yoga mat", "desk lamp"}, ID: 1}
	if err := client.SendJSON(ctx, want); err != nil {
		t.Fatalf("SendJSON: %v", err)
	}

	select {
	case got := <-subs:
		if got.Method != want.Method || got.ID != want.ID || !slices.Equal(got.Params, want.Params) {
			t.Errorf("server got %+v, want %+v", got, want)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for subscribe")
	}

	if ack := receive(t, msgs); string(ack) != `{"result":null,"id":1}` {
		t.Errorf("ack = %s", ack)
	}

	wantTypes := []string{"observation", "observation", "batch"}
	for i, wantType := range wantTypes {
		var ev feedEvent
		if err := json.Unmarshal(receive(t, msgs), &ev); err != nil {
			t.Fatalf("event %d: %v", i, err)
		}
		if ev.Type != wantType {
			t.Errorf("event %d type = %q, want %q", i, ev.Type, wantType)
		}
	}
}

func TestClient_ReconnectReplaysSubscription(t *testing.T) {
	var accepted atomic.Int32
	subs := make(chan subscribeRequest, 4)

	srv := newFeedServer(t, func(ctx context.Context, conn *websocket.Conn) {
		n := accepted.Add(1)
		req, err := readSubscribe(ctx, conn)
		if err != nil {
			return
		}
		subs <- req
		if n == 1 {
			// Drop the first session right after it subscribes.
			return
		}
		_ = conn.Write(ctx, websocket.MessageText,
			[]byte(`{"type":"observation","data":{"keyword":"yoga mat","interest_score":80}}`))
		drain(ctx, conn)
	})

	client := newClient(t, wsURL(srv), nil)

	msgs := make(chan []byte, 4)
	client.OnMessage(func(_ context.Context, msg []byte) { msgs <- msg })

	var nextID atomic.Int64
	subscribe := func(ctx context.Context) error {
		return client.SendJSON(ctx, subscribeRequest{Method: "SUBSCRIBE", Params: []string{"yoga mat"}, ID: nextID.Add(1)})
	}
	client.OnReconnect(subscribe)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := subscribe(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	for wantID := int64(1); wantID <= 2; wantID++ {
		select {
		case req := <-subs:
			if req.ID != wantID || !slices.Equal(req.Params, []string{"yoga mat"}) {
				t.Errorf("subscription = %+v, want id %d", req, wantID)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("timeout waiting for subscription %d", wantID)
		}
	}

	var ev feedEvent
	if err := json.Unmarshal(receive(t, msgs), &ev); err != nil || ev.Type != "observation" {
		t.Errorf("event = %+v, err = %v", ev, err)
	}
	if !client.IsConnected() {
		t.Errorf("state = %s after reconnect", client.State())
	}
}

func TestClient_ReconnectExhausted(t *testing.T) {
	release := make(chan struct{})
	srv := newFeedServer(t, func(ctx context.Context, conn *websocket.Conn) {
		<-release
	})

	var mu sync.Mutex
	var exhausted error
	done := make(chan struct{})

	client := newClient(t, wsURL(srv), func(c *Config) { c.MaxReconnects = 2 })
	client.OnStateChange(func(state State, err error) {
		if state != StateDisconnected || apperror.GetCode(err) != apperror.CodeWebSocketConnectionError {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if exhausted == nil {
			exhausted = err
			close(done)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	// Stop accepting, then end the live session.
	srv.Close()
	close(release)

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for reconnects to run out")
	}

	mu.Lock()
	defer mu.Unlock()
	if !strings.Contains(exhausted.Error(), "reconnect attempts exhausted") {
		t.Errorf("err = %v", exhausted)
	}
	if client.IsConnected() {
		t.Error("client must not report connected")
	}
}

func TestClient_OversizedBatchDisconnects(t *testing.T) {
	srv := newFeedServer(t, func(ctx context.Context, conn *websocket.Conn) {
		big := `{"type":"batch","data":[` + strings.Repeat(`{"keyword":"filler"},`, 200) + `{}]}`
		_ = conn.Write(ctx, websocket.MessageText, []byte(big))
		drain(ctx, conn)
	})

	dropped := make(chan error, 4)
	client := newClient(t, wsURL(srv), func(c *Config) {
		c.MaxMessageSize = 256
		c.MaxReconnects = 1
	})
	client.OnStateChange(func(state State, err error) {
		if state == StateDisconnected && err != nil {
			select {
			case dropped <- err:
			default:
			}
		}
	})
	client.OnMessage(func(_ context.Context, msg []byte) {
		t.Errorf("oversized frame delivered (%d bytes)", len(msg))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	select {
	case <-dropped:
	case <-time.After(3 * time.Second):
		t.Fatal("expected a disconnect on the oversized frame")
	}
}

func TestClient_ConcurrentSubscribes(t *testing.T) {
	const senders = 8

	var mu sync.Mutex
	seen := make(map[int64]string)
	all := make(chan struct{})

	srv := newFeedServer(t, func(ctx context.Context, conn *websocket.Conn) {
		for {
			req, err := readSubscribe(ctx, conn)
			if err != nil {
				return
			}
			mu.Lock()
			seen[req.ID] = req.Params[0]
			if len(seen) == senders {
				close(all)
			}
			mu.Unlock()
		}
	})

	client := newClient(t, wsURL(srv), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	keywords := []string{"yoga mat", "desk lamp", "silk scarf", "wireless earbuds",
		"phone case", "garden hose", "water bottle", "led strip"}

	var wg sync.WaitGroup
	for i, kw := range keywords {
		wg.Add(1)
		go func(id int64, kw string) {
			defer wg.Done()
			req := subscribeRequest{Method: "SUBSCRIBE", Params: []string{kw}, ID: id}
			if err := client.SendJSON(ctx, req); err != nil {
				t.Errorf("SendJSON(%s): %v", kw, err)
			}
		}(int64(i+1), kw)
	}
	wg.Wait()

	select {
	case <-all:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for subscriptions")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, kw := range keywords {
		if seen[int64(i+1)] != kw {
			t.Errorf("id %d = %q, want %q", i+1, seen[int64(i+1)], kw)
		}
	}
}

func TestClient_SendErrors(t *testing.T) {
	client := newClient(t, "ws://127.0.0.1:1/feed", nil)

	tests := []struct {
		name string
		send func() error
		want apperror.Code
	}{
		{"not connected", func() error {
			return client.SendJSON(context.Background(), subscribeRequest{Method: "SUBSCRIBE"})
		}, apperror.CodeWebSocketSendError},
		{"unencodable payload", func() error {
			return client.SendJSON(context.Background(), map[string]any{"params": make(chan int)})
		}, apperror.CodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apperror.GetCode(tt.send()); got != tt.want {
				t.Errorf("code = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClient_CloseIsFinal(t *testing.T) {
	srv := newFeedServer(t, drain)

	var mu sync.Mutex
	var states []State
	client := newClient(t, wsURL(srv), nil)
	client.OnStateChange(func(state State, _ error) {
		mu.Lock()
		states = append(states, state)
		mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if err := client.Connect(ctx); apperror.GetCode(err) != apperror.CodeWebSocketClosed {
		t.Errorf("Connect after Close = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []State{StateConnecting, StateConnected, StateClosed}
	if !slices.Equal(states, want) {
		t.Errorf("states = %v, want %v", states, want)
	}
}
