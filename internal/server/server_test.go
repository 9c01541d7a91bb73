package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/ventoctl/internal/config"
	"github.com/muurk/ventoctl/internal/controller"
	"github.com/muurk/ventoctl/internal/metrics"
	"github.com/muurk/ventoctl/internal/protocol"
	"github.com/muurk/ventoctl/internal/transport"
)

const (
	testID       = "003A0024484B5010"
	testPassword = "1111"
)

type fakeFan struct {
	port     int
	requests chan *protocol.Packet[protocol.ExpertParameter]
}

// startFan runs a loopback Vento Expert answering READ with values and
// flagging everything else as unsupported.
func startFan(t *testing.T, values map[protocol.ExpertParameter][]byte) *fakeFan {
	t.Helper()
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	f := &fakeFan{
		port:     conn.LocalAddr().(*net.UDPAddr).Port,
		requests: make(chan *protocol.Packet[protocol.ExpertParameter], 32),
	}
	go func() {
		buf := make([]byte, 2048)
		for {
			n, from, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}
			req, err := protocol.Decode[protocol.ExpertParameter](buf[:n])
			if err != nil || req.DeviceID != testID || req.Password != testPassword {
				continue
			}
			select {
			case f.requests <- req:
			default:
			}
			if !req.Function.ExpectsReply() {
				continue
			}
			var entries []protocol.DataEntry[protocol.ExpertParameter]
			for _, p := range req.Parameters() {
				if v, ok := values[p]; ok {
					entries = append(entries, protocol.Write(p, v))
				} else {
					entries = append(entries, protocol.DataEntry[protocol.ExpertParameter]{Parameter: p, Unsupported: true})
				}
			}
			frame, err := protocol.Encode(protocol.NewPacket(testID, testPassword, protocol.FunctionResponse, entries...))
			if err == nil {
				_, _ = conn.WriteTo(frame, from)
			}
		}
	}()
	return f
}

// nextWrite returns the next WRITE the fan received, skipping status reads.
func (f *fakeFan) nextWrite(t *testing.T) *protocol.Packet[protocol.ExpertParameter] {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case req := <-f.requests:
			if req.Function == protocol.FunctionWrite {
				return req
			}
		case <-deadline:
			t.Fatal("fan received no WRITE")
			return nil
		}
	}
}

var fanValues = map[protocol.ExpertParameter][]byte{
	protocol.ExpertOnOff:    {1},
	protocol.ExpertSpeed:    {2},
	protocol.ExpertUnitType: {4, 0},
}

func newTestServer(t *testing.T, fan *fakeFan, password string, bm *metrics.BridgeMetrics) *httptest.Server {
	t.Helper()
	reg := config.NewRegistry()
	reg.UpdateDeviceLastSeen(testID, "127.0.0.1")
	reg.SetDeviceFamily(testID, "expert", 4)
	reg.SetDeviceNickname(testID, "bathroom")

	srv, err := New(&Config{
		Password: password,
		Interval: 100 * time.Millisecond,
		Registry: reg,
		Transport: []transport.Option{
			transport.WithPort(fan.port),
			transport.WithTimeout(300 * time.Millisecond),
			transport.WithBroadcastAddress("127.0.0.1"),
		},
		Metrics: bm,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestDevicesEndpoint(t *testing.T) {
	ts := newTestServer(t, startFan(t, fanValues), testPassword, nil)

	resp, err := http.Get(ts.URL + "/api/devices")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var devices []DeviceInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&devices))
	require.Len(t, devices, 1)
	assert.Equal(t, testID, devices[0].ID)
	assert.Equal(t, "bathroom", devices[0].Nickname)
	assert.Equal(t, "expert", devices[0].Family)
}

func TestDevicesEndpoint_NotBlockedByResolution(t *testing.T) {
	ts := newTestServer(t, startFan(t, fanValues), testPassword, nil)

	done := make(chan int, 1)
	go func() {
		resp, err := http.Get(ts.URL + "/api/devices/UNKNOWNUNKNOWN00/state")
		if err != nil {
			done <- 0
			return
		}
		resp.Body.Close()
		done <- resp.StatusCode
	}()

	// Let the unknown id start its search window.
	time.Sleep(50 * time.Millisecond)

	start := time.Now()
	resp, err := http.Get(ts.URL + "/api/devices")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Less(t, time.Since(start), 150*time.Millisecond, "listing waited for a search")

	start = time.Now()
	resp, err = http.Get(ts.URL + "/api/devices/bathroom/state")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Less(t, time.Since(start), 200*time.Millisecond, "known device waited for a search")

	select {
	case code := <-done:
		assert.NotEqual(t, http.StatusOK, code)
	case <-time.After(2 * time.Second):
		t.Fatal("unknown device request never finished")
	}
}

func TestStateEndpoint(t *testing.T) {
	bm := metrics.NewBridgeMetrics(prometheus.NewRegistry())
	ts := newTestServer(t, startFan(t, fanValues), testPassword, bm)

	resp, err := http.Get(ts.URL + "/api/devices/bathroom/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state controller.ExpertState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.True(t, state.Power)
	assert.Equal(t, controller.SpeedMedium, state.SpeedMode)
	assert.Equal(t, 1.0, testutil.ToFloat64(bm.Polls.WithLabelValues("expert", "ok")))
}

func TestStateEndpoint_WrongPassword(t *testing.T) {
	ts := newTestServer(t, startFan(t, fanValues), "9999", nil)

	resp, err := http.Get(ts.URL + "/api/devices/" + testID + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)

	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.NoResponse)
	assert.Contains(t, body.Hint, "password")
}

func TestWriteEndpoint(t *testing.T) {
	fan := startFan(t, fanValues)
	ts := newTestServer(t, fan, testPassword, nil)

	body := bytes.NewBufferString(`{"speed": "3", "on_off": "on"}`)
	resp, err := http.Post(ts.URL+"/api/devices/"+testID+"/values", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	req := fan.nextWrite(t)
	require.Len(t, req.Entries, 2)
	// Sorted by name: on_off before speed.
	assert.Equal(t, protocol.ExpertOnOff, req.Entries[0].Parameter)
	assert.Equal(t, protocol.ExpertSpeed, req.Entries[1].Parameter)
	assert.Equal(t, []byte{3}, req.Entries[1].Value)
}

func TestWriteEndpoint_BadInput(t *testing.T) {
	ts := newTestServer(t, startFan(t, fanValues), testPassword, nil)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `speed=3`},
		{"unknown parameter", `{"turbo": "1"}`},
		{"value too large", `{"speed": "300"}`},
		{"empty", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/devices/"+testID+"/values", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func dial(t *testing.T, ts *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/" + id
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads stream messages until one of type kind arrives.
func readUntil(t *testing.T, conn *websocket.Conn, kind string) ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg ServerMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == kind {
			return msg
		}
	}
}

func TestWebSocket_StreamsState(t *testing.T) {
	bm := metrics.NewBridgeMetrics(prometheus.NewRegistry())
	ts := newTestServer(t, startFan(t, fanValues), testPassword, bm)
	conn := dial(t, ts, "bathroom")

	first := readUntil(t, conn, MessageState)
	assert.Equal(t, testID, first.Device)
	assert.Equal(t, "expert", first.Family)

	state, ok := first.State.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, state["power"])

	// The ticker keeps pushing.
	readUntil(t, conn, MessageState)
	assert.Equal(t, 1.0, testutil.ToFloat64(bm.Clients))
}

func TestWebSocket_Set(t *testing.T) {
	fan := startFan(t, fanValues)
	ts := newTestServer(t, fan, testPassword, nil)
	conn := dial(t, ts, testID)
	readUntil(t, conn, MessageState)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageSet, Values: map[string]string{"manual_speed": "128"}}))

	written := readUntil(t, conn, MessageWritten)
	assert.Equal(t, []string{"MANUAL_SPEED"}, written.Written)

	req := fan.nextWrite(t)
	assert.Equal(t, []byte{128}, req.Entries[0].Value)
}

func TestWebSocket_BadMessage(t *testing.T) {
	ts := newTestServer(t, startFan(t, fanValues), testPassword, nil)
	conn := dial(t, ts, testID)
	readUntil(t, conn, MessageState)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	msg := readUntil(t, conn, MessageError)
	assert.Contains(t, msg.Error, "unknown message")
}

func TestWebSocket_NoResponse(t *testing.T) {
	ts := newTestServer(t, startFan(t, fanValues), "9999", nil)
	conn := dial(t, ts, testID)

	msg := readUntil(t, conn, MessageError)
	assert.True(t, msg.NoResponse)
}

func TestShutdownClosesStreams(t *testing.T) {
	fan := startFan(t, fanValues)
	reg := config.NewRegistry()
	reg.UpdateDeviceLastSeen(testID, "127.0.0.1")
	reg.SetDeviceFamily(testID, "expert", 4)

	srv, err := New(&Config{
		Password:  testPassword,
		Interval:  time.Second,
		Registry:  reg,
		Transport: []transport.Option{transport.WithPort(fan.port), transport.WithTimeout(300 * time.Millisecond)},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	require.Eventually(t, func() bool { return srv.Addr() != nil }, 2*time.Second, 10*time.Millisecond)
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr().String()+"/ws/"+testID, nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Eventually(t, func() bool { return srv.GetActiveConnections() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	assert.Equal(t, 0, srv.GetActiveConnections())
}

func TestNew_RequiresRegistry(t *testing.T) {
	_, err := New(&Config{})
	assert.Error(t, err)
}

func TestGetTLSInfo(t *testing.T) {
	assert.Equal(t, false, GetTLSInfo(nil)["enabled"])
}
