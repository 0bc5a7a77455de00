package web

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cjeanneret/FloatCam/internal/debug"
	"github.com/cjeanneret/FloatCam/internal/hw/input"
	"github.com/cjeanneret/FloatCam/internal/logic/mode"
)

const (
	maxBodyBytes = 1 << 20
	pingPeriod   = 30 * time.Second
	writeWait    = 10 * time.Second
)

// Remote is where remote input lands. input.Queue implements it.
type Remote interface {
	Press(a input.Action)
	SetStick(v input.Axis)
	SetZoom(v float64)
}

// ZoomInput is the body of POST /input/zoom.
type ZoomInput struct {
	Value float64 `json:"value"`
}

// RuntimeConfig is served on GET /config.
type RuntimeConfig struct {
	FOVDeg          float64 `json:"fov_deg"`
	HFOVDeg         float64 `json:"hfov_deg"`
	MinFOVDeg       float64 `json:"min_fov_deg"`
	MaxFOVDeg       float64 `json:"max_fov_deg"`
	ZoomSpeedDeg    float64 `json:"zoom_speed_deg"`
	PageThreshold   float64 `json:"page_threshold"`
	InputCooldownMs int     `json:"input_cooldown_ms"`
	MessageMs       int     `json:"message_ms"`
	StorageRoot     string  `json:"storage_root"`
}

// Deps are the collaborators of the HTTP handlers.
type Deps struct {
	Broadcaster *StatusBroadcaster
	Remote      Remote
	Screen      *Screen
	Mode        func() mode.Mode
	Defaults    RuntimeConfig
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Deps
	staticFS fs.FS
	upgrader websocket.Upgrader
}

// NewHandlers creates handlers. Input endpoints answer 503 when
// deps.Remote is nil.
func NewHandlers(deps Deps, staticFS fs.FS) *Handlers {
	if deps.Broadcaster == nil {
		deps.Broadcaster = NewStatusBroadcaster()
	}
	if deps.Screen == nil {
		deps.Screen = NewScreen(deps.Broadcaster)
	}
	return &Handlers{
		Deps:     deps,
		staticFS: staticFS,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
	}
}

// HandleAction handles POST /input/{action}.
func (h *Handlers) HandleAction(w http.ResponseWriter, r *http.Request) {
	a, err := input.ParseAction(r.PathValue("action"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if h.Remote == nil {
		http.Error(w, "input not configured", http.StatusServiceUnavailable)
		return
	}
	h.Remote.Press(a)
	debug.Verbose("web: queued %s", a)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "action": string(a)})
}

// HandleAxis handles POST /input/axis.
func (h *Handlers) HandleAxis(w http.ResponseWriter, r *http.Request) {
	var a input.Axis
	if !decodeBody(w, r, &a) {
		return
	}
	if err := input.ValidateAxis(a); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if h.Remote == nil {
		http.Error(w, "input not configured", http.StatusServiceUnavailable)
		return
	}
	h.Remote.SetStick(a)
	w.WriteHeader(http.StatusNoContent)
}

// HandleZoom handles POST /input/zoom.
func (h *Handlers) HandleZoom(w http.ResponseWriter, r *http.Request) {
	var z ZoomInput
	if !decodeBody(w, r, &z) {
		return
	}
	if err := input.ValidateZoom(z.Value); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if h.Remote == nil {
		http.Error(w, "input not configured", http.StatusServiceUnavailable)
		return
	}
	h.Remote.SetZoom(z.Value)
	w.WriteHeader(http.StatusNoContent)
}

// HandleAlbum returns the album view as JSON.
func (h *Handlers) HandleAlbum(w http.ResponseWriter, r *http.Request) {
	state := h.Screen.State()
	state.Mode = mode.Idle.String()
	if h.Mode != nil {
		state.Mode = h.Mode().String()
	}
	writeJSON(w, http.StatusOK, state)
}

// HandleAlbumImage serves the photo on display as PNG.
func (h *Handlers) HandleAlbumImage(w http.ResponseWriter, r *http.Request) {
	data, ok := h.Screen.Image()
	if !ok {
		http.Error(w, "no photo on display", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

// HandleConfig returns the runtime defaults as JSON.
func (h *Handlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Defaults)
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleStatusWS handles GET /status/ws: every status event is sent as
// one text message until the client disconnects.
func (h *Handlers) HandleStatusWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		debug.Verbose("web: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	// Client messages are ignored; reading surfaces the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if hello, err := encodeEvent(KindHello, "", "connected"); err == nil {
		if err := send(conn, hello); err != nil {
			return
		}
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := send(conn, msg); err != nil {
				return
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}

		case <-closed:
			return
		}
	}
}

func send(conn *websocket.Conn, msg string) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

// decodeBody reads a bounded JSON body into v and answers 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Error(w, "request body too large", http.StatusBadRequest)
			return false
		}
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
