package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/ventoctl/internal/controller"
	"github.com/muurk/ventoctl/internal/discovery"
	"github.com/muurk/ventoctl/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// Message types on the stream.
const (
	MessageState   = "state"
	MessageWritten = "written"
	MessageError   = "error"
	MessageSet     = "set"
	MessageRefresh = "refresh"
)

// ClientMessage is a request from a WebSocket client.
type ClientMessage struct {
	Type   string            `json:"type"`
	Values map[string]string `json:"values,omitempty"`
}

// ServerMessage is pushed to WebSocket clients.
type ServerMessage struct {
	Type       string    `json:"type"`
	Device     string    `json:"device"`
	Family     string    `json:"family,omitempty"`
	Time       time.Time `json:"time"`
	State      any       `json:"state,omitempty"`
	Written    []string  `json:"written,omitempty"`
	Error      string    `json:"error,omitempty"`
	NoResponse bool      `json:"no_response,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	dev, err := s.resolve(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	s.wg.Add(1)
	defer s.wg.Done()

	remoteAddr := conn.RemoteAddr().String()
	s.track(remoteAddr, conn)
	defer func() {
		_ = conn.Close()
		s.untrack(remoteAddr)
	}()

	stream := &stream{
		server: s,
		conn:   conn,
		dev:    dev,
		handle: s.handleFor(dev),
		remote: remoteAddr,
	}
	stream.run(r.Context())
}

// stream is one WebSocket client watching one device. Only run writes to
// conn; readLoop only reads.
type stream struct {
	server *Server
	conn   *websocket.Conn
	dev    *discovery.Device
	handle *deviceHandle
	remote string
}

func (st *stream) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	incoming := make(chan ClientMessage)
	go st.readLoop(ctx, cancel, incoming)

	poll := time.NewTicker(st.server.config.Interval)
	defer poll.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	if err := st.pushState(ctx); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			_ = st.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return

		case <-poll.C:
			if err := st.pushState(ctx); err != nil {
				return
			}

		case <-ping.C:
			if err := st.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}

		case msg := <-incoming:
			if err := st.handleMessage(ctx, msg); err != nil {
				return
			}
		}
	}
}

// readLoop decodes client messages until the connection fails, then cancels
// the stream.
func (st *stream) readLoop(ctx context.Context, cancel context.CancelFunc, incoming chan<- ClientMessage) {
	defer cancel()

	st.conn.SetReadLimit(maxMessageSize)
	_ = st.conn.SetReadDeadline(time.Now().Add(pongWait))
	st.conn.SetPongHandler(func(string) error {
		return st.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := st.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Info("Connection closed or error reading message",
					zap.String("remote_addr", st.remote),
					zap.Error(err),
				)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			msg = ClientMessage{Type: "invalid"}
		}
		st.server.config.Metrics.Message("in", msg.Type)

		select {
		case incoming <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (st *stream) handleMessage(ctx context.Context, msg ClientMessage) error {
	switch msg.Type {
	case MessageRefresh:
		return st.pushState(ctx)

	case MessageSet:
		written, err := st.handle.write(ctx, msg.Values)
		if err != nil {
			return st.send(st.errorMessage(err))
		}
		logging.Info("Bridge write",
			zap.String("remote_addr", st.remote),
			zap.String("device_id", st.dev.ID),
			zap.Strings("params", written),
		)
		if err := st.send(ServerMessage{Type: MessageWritten, Written: written}); err != nil {
			return err
		}
		return st.pushState(ctx)

	default:
		return st.send(st.errorMessage(controller.NewValidationError(
			`unknown message; send {"type":"refresh"} or {"type":"set","values":{...}}`)))
	}
}

// pushState polls the device and sends the result. Only a failed write to
// the client is returned; device errors become error messages.
func (st *stream) pushState(ctx context.Context) error {
	state, err := st.handle.state(ctx)
	st.server.config.Metrics.Poll(string(st.handle.family), pollResult(err))
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return st.send(st.errorMessage(err))
	}
	return st.send(ServerMessage{Type: MessageState, State: state})
}

func (st *stream) errorMessage(err error) ServerMessage {
	return ServerMessage{
		Type:       MessageError,
		Error:      controller.GetShortErrorMessage(err),
		NoResponse: controller.IsNoResponse(err),
	}
}

func (st *stream) send(msg ServerMessage) error {
	msg.Device = st.dev.ID
	msg.Family = string(st.handle.family)
	msg.Time = time.Now()

	_ = st.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := st.conn.WriteJSON(msg); err != nil {
		logging.Debug("Failed to send message",
			zap.String("remote_addr", st.remote),
			zap.Error(err),
		)
		return err
	}
	st.server.config.Metrics.Message("out", msg.Type)
	return nil
}
