package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cjeanneret/FloatCam/internal/hw/input"
)

func newTestServer(t *testing.T) (*httptest.Server, *StatusBroadcaster, *input.Queue) {
	t.Helper()
	b := NewStatusBroadcaster()
	q := input.NewQueue()
	srv, err := NewServer(":0", Deps{Broadcaster: b, Remote: q, Screen: NewScreen(b)})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts, b, q
}

func readEvent(t *testing.T, conn *websocket.Conn) StatusEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt StatusEvent
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read: %v", err)
	}
	return evt
}

func TestServer_Routes(t *testing.T) {
	ts, _, q := newTestServer(t)

	cases := []struct {
		method, path, body string
		code               int
	}{
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodGet, "/static/index.html", "", http.StatusOK},
		{http.MethodGet, "/config", "", http.StatusOK},
		{http.MethodGet, "/album", "", http.StatusOK},
		{http.MethodGet, "/album/image", "", http.StatusNotFound},
		{http.MethodPost, "/input/take_photo", "", http.StatusAccepted},
		{http.MethodPost, "/input/jump", "", http.StatusBadRequest},
		{http.MethodPost, "/input/axis", `{"x":1,"y":0}`, http.StatusNoContent},
		{http.MethodPost, "/input/zoom", `{"value":0.5}`, http.StatusNoContent},
		{http.MethodGet, "/input/take_photo", "", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req, _ := http.NewRequest(tc.method, ts.URL+tc.path, strings.NewReader(tc.body))
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tc.code {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.code)
			}
		})
	}

	if got := q.Stick(); got != (input.Axis{X: 1}) {
		t.Errorf("Stick() = %+v, want x=1", got)
	}
	if got := q.Zoom(); got != 0.5 {
		t.Errorf("Zoom() = %v, want 0.5", got)
	}
	fired := 0
	q.Bind(input.TakePhoto, func() { fired++ })
	q.Poll()
	if fired != 1 {
		t.Errorf("take_photo fired %d times, want 1", fired)
	}
}

func TestServer_StatusWebSocket(t *testing.T) {
	ts, b, _ := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/status/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Errorf("handshake status = %d", resp.StatusCode)
	}

	if evt := readEvent(t, conn); evt.Kind != KindHello {
		t.Fatalf("first event = %+v, want hello", evt)
	}

	b.Broadcast("info", "Photo saved")
	evt := readEvent(t, conn)
	if evt.Kind != KindLog || evt.Msg != "Photo saved" {
		t.Errorf("event = %+v", evt)
	}

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for b.Clients() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if b.Clients() != 0 {
		t.Errorf("Clients() = %d after disconnect, want 0", b.Clients())
	}
}

func TestServer_ScreenEventsReachWebSocket(t *testing.T) {
	b := NewStatusBroadcaster()
	screen := NewScreen(b)
	srv, err := NewServer(":0", Deps{Broadcaster: b, Screen: screen})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/status/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readEvent(t, conn) // hello

	screen.ShowMessage("Shutdown album to turn on camera")
	evt := readEvent(t, conn)
	if evt.Kind != KindMessage || evt.Msg != "Shutdown album to turn on camera" {
		t.Errorf("event = %+v", evt)
	}

	var state AlbumState
	resp, err := http.Get(ts.URL + "/album")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !state.MessageVisible || state.Mode != "idle" {
		t.Errorf("state = %+v", state)
	}
}
