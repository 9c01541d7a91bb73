package controller

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/muurk/ventoctl/internal/protocol"
	"github.com/muurk/ventoctl/internal/transport"
)

const (
	fakeID       = "003A0024484B5010"
	fakePassword = "1111"
)

// fakeDevice is a loopback controller of family P. Requests with the right
// credentials are passed to handler; a nil reply means stay silent.
type fakeDevice[P protocol.ParameterID] struct {
	port     int
	requests chan *protocol.Packet[P]
}

func startFake[P protocol.ParameterID](t *testing.T, handler func(req *protocol.Packet[P]) []byte) *fakeDevice[P] {
	t.Helper()
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	f := &fakeDevice[P]{
		port:     conn.LocalAddr().(*net.UDPAddr).Port,
		requests: make(chan *protocol.Packet[P], 16),
	}

	go func() {
		buf := make([]byte, 2048)
		for {
			n, from, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}
			req, err := protocol.Decode[P](buf[:n])
			if err != nil {
				continue
			}
			select {
			case f.requests <- req:
			default:
			}
			if req.DeviceID != fakeID || req.Password != fakePassword || handler == nil {
				continue
			}
			if reply := handler(req); reply != nil {
				_, _ = conn.WriteTo(reply, from)
			}
		}
	}()
	return f
}

func (f *fakeDevice[P]) client() *transport.Client[P] {
	return transport.NewClient[P](
		transport.WithPort(f.port),
		transport.WithTimeout(300*time.Millisecond),
	)
}

func (f *fakeDevice[P]) next(t *testing.T) *protocol.Packet[P] {
	t.Helper()
	select {
	case req := <-f.requests:
		return req
	case <-time.After(time.Second):
		t.Fatal("fake device received nothing")
		return nil
	}
}

func loopbackTarget() Target {
	return Target{ID: fakeID, IP: "127.0.0.1", Password: fakePassword}
}

func reply[P protocol.ParameterID](t *testing.T, entries ...protocol.DataEntry[P]) []byte {
	frame, err := protocol.Encode(protocol.NewPacket(fakeID, fakePassword, protocol.FunctionResponse, entries...))
	if err != nil {
		t.Errorf("encode reply: %v", err)
	}
	return frame
}

func u8[P protocol.ParameterID](p P, v uint8) protocol.DataEntry[P] {
	return protocol.Write(p, []byte{v})
}
