package transport

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/muurk/ventoctl/internal/protocol"
)

type expertPacket = protocol.Packet[protocol.ExpertParameter]

// fakeController is a loopback UDP peer that answers each request with the
// datagrams its handler returns.
type fakeController struct {
	conn     net.PacketConn
	port     int
	requests chan *expertPacket
}

func newFakeController(t *testing.T, handler func(req *expertPacket) [][]byte) *fakeController {
	t.Helper()
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)

	f := &fakeController{
		conn:     conn,
		port:     conn.LocalAddr().(*net.UDPAddr).Port,
		requests: make(chan *expertPacket, 64),
	}
	t.Cleanup(func() { _ = conn.Close() })

	go func() {
		buf := make([]byte, maxDatagramSize)
		for {
			n, from, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}
			req, err := protocol.Decode[protocol.ExpertParameter](buf[:n])
			if err != nil {
				t.Errorf("fake controller got undecodable request: %v", err)
				continue
			}
			select {
			case f.requests <- req:
			default:
			}
			if handler == nil {
				continue
			}
			for _, reply := range handler(req) {
				_, _ = conn.WriteTo(reply, from)
			}
		}
	}()
	return f
}

// respond encodes a RESPONSE frame; failures are reported on t.
func respond(t *testing.T, deviceID string, entries ...protocol.DataEntry[protocol.ExpertParameter]) []byte {
	frame, err := protocol.Encode(protocol.NewPacket(deviceID, "1111", protocol.FunctionResponse, entries...))
	if err != nil {
		t.Errorf("encode response: %v", err)
	}
	return frame
}

func searchReply(t *testing.T, deviceID string) []byte {
	return respond(t, deviceID, protocol.Write(protocol.ExpertSearch, []byte(deviceID)))
}

// corrupt returns frame with its checksum broken.
func corrupt(frame []byte) []byte {
	out := append([]byte(nil), frame...)
	out[len(out)-1] ^= 0xFF
	return out
}
