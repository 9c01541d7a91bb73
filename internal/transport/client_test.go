package transport

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/muurk/ventoctl/internal/logging"
	"github.com/muurk/ventoctl/internal/metrics"
	"github.com/muurk/ventoctl/internal/protocol"
)

const (
	testDeviceID = "0123456789ABCDEF"
	testTimeout  = 300 * time.Millisecond
)

func newTestClient(f *fakeController, opts ...Option) *Client[protocol.ExpertParameter] {
	base := []Option{
		WithPort(f.port),
		WithTimeout(testTimeout),
		WithBroadcastAddress("127.0.0.1"),
	}
	return NewClient[protocol.ExpertParameter](append(base, opts...)...)
}

func readOnOff() *expertPacket {
	return protocol.NewReadPacket(testDeviceID, "1111", protocol.ExpertOnOff)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient[protocol.SmartWiFiParameter]()
	assert.Equal(t, 1500*time.Millisecond, c.Timeout())
	assert.Equal(t, "255.255.255.255", c.BroadcastAddress())
	assert.Equal(t, 4000, c.Port())

	c = NewClient[protocol.SmartWiFiParameter](WithTimeout(0), WithPort(-1), WithBroadcastAddress(""))
	assert.Equal(t, DefaultTimeout, c.Timeout())
	assert.Equal(t, DefaultPort, c.Port())
	assert.Equal(t, DefaultBroadcastAddress, c.BroadcastAddress())
}

func TestSendMatched(t *testing.T) {
	f := newFakeController(t, func(req *expertPacket) [][]byte {
		return [][]byte{respond(t, req.DeviceID, protocol.Write(protocol.ExpertOnOff, []byte{1}))}
	})
	c := newTestClient(f)

	res, err := c.Send(context.Background(), readOnOff(), "127.0.0.1")
	require.NoError(t, err)
	require.True(t, res.Matched(), "outcome = %s", res.Outcome)

	assert.Equal(t, "127.0.0.1", res.IP)
	assert.Equal(t, testDeviceID, res.Packet.DeviceID)
	e, ok := res.Packet.Entry(protocol.ExpertOnOff)
	require.True(t, ok)
	assert.Equal(t, uint64(1), e.Uint())
	assert.Zero(t, res.Discarded)

	req := <-f.requests
	assert.Equal(t, protocol.FunctionRead, req.Function)
	assert.Equal(t, "1111", req.Password)
}

func TestSendTimesOut(t *testing.T) {
	f := newFakeController(t, nil)
	c := newTestClient(f)

	start := time.Now()
	res, err := c.Send(context.Background(), readOnOff(), "127.0.0.1")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, OutcomeTimedOut, res.Outcome)
	assert.Nil(t, res.Packet)
	assert.GreaterOrEqual(t, elapsed, testTimeout)
	assert.Less(t, elapsed, testTimeout+250*time.Millisecond)
}

func TestSendIgnoresMalformedDatagrams(t *testing.T) {
	f := newFakeController(t, func(req *expertPacket) [][]byte {
		good := respond(t, req.DeviceID, protocol.Write(protocol.ExpertOnOff, []byte{0}))
		return [][]byte{
			[]byte("not a vento frame"),
			corrupt(good),
			good,
		}
	})
	c := newTestClient(f)

	core, logs := observer.New(zapcore.DebugLevel)
	logging.SetLogger(zap.New(core))
	defer logging.SetLogger(zap.NewNop())

	res, err := c.Send(context.Background(), readOnOff(), "127.0.0.1")
	require.NoError(t, err)
	require.True(t, res.Matched())
	assert.Equal(t, 2, res.Discarded)
	assert.ErrorIs(t, res.LastDiscard, protocol.ErrChecksumMismatch)

	discarded := logs.FilterMessage("Discarded datagram").All()
	require.Len(t, discarded, 2)
	assert.Equal(t, "not a vento frame", discarded[0].ContextMap()["ascii"])
	assert.Equal(t, discardDecode, discarded[0].ContextMap()["reason"])
}

func TestSendOnlyGarbageTimesOut(t *testing.T) {
	f := newFakeController(t, func(req *expertPacket) [][]byte {
		return [][]byte{{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}}
	})
	c := newTestClient(f)

	res, err := c.Send(context.Background(), readOnOff(), "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeTimedOut, res.Outcome)
	assert.Equal(t, 1, res.Discarded)
	assert.ErrorIs(t, res.LastDiscard, protocol.ErrBadHeader)
}

func TestSendIgnoresOtherDeviceID(t *testing.T) {
	f := newFakeController(t, func(req *expertPacket) [][]byte {
		return [][]byte{
			respond(t, "FFFFFFFFFFFFFFFF", protocol.Write(protocol.ExpertOnOff, []byte{0})),
			respond(t, req.DeviceID, protocol.Write(protocol.ExpertOnOff, []byte{1})),
		}
	})
	c := newTestClient(f)

	res, err := c.Send(context.Background(), readOnOff(), "127.0.0.1")
	require.NoError(t, err)
	require.True(t, res.Matched())
	assert.Equal(t, 1, res.Discarded)
	e, _ := res.Packet.Entry(protocol.ExpertOnOff)
	assert.Equal(t, uint64(1), e.Uint())
}

func TestSendIgnoresEchoedRequest(t *testing.T) {
	f := newFakeController(t, func(req *expertPacket) [][]byte {
		echo, _ := protocol.Encode(req)
		return [][]byte{echo}
	})
	c := newTestClient(f)

	res, err := c.Send(context.Background(), readOnOff(), "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeTimedOut, res.Outcome)
	assert.Equal(t, 1, res.Discarded)
}

func TestSendContextCanceled(t *testing.T) {
	f := newFakeController(t, nil)
	c := newTestClient(f, WithTimeout(5*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	res, err := c.Send(ctx, readOnOff(), "127.0.0.1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSendEncodeError(t *testing.T) {
	c := NewClient[protocol.ExpertParameter]()
	pkt := protocol.NewReadPacket("dev", "", protocol.ExpertParameter(0xFF))

	_, err := c.Send(context.Background(), pkt, "127.0.0.1")
	assert.ErrorIs(t, err, protocol.ErrUnknownParameter)
}

func TestSendOnly(t *testing.T) {
	f := newFakeController(t, nil)
	c := newTestClient(f)

	pkt := protocol.NewPacket(testDeviceID, "1111", protocol.FunctionWrite,
		protocol.Write(protocol.ExpertSpeed, []byte{2}))
	require.NoError(t, c.SendOnly(context.Background(), pkt, "127.0.0.1"))

	select {
	case req := <-f.requests:
		assert.Equal(t, protocol.FunctionWrite, req.Function)
		e, ok := req.Entry(protocol.ExpertSpeed)
		require.True(t, ok)
		assert.Equal(t, []byte{2}, e.Value)
	case <-time.After(time.Second):
		t.Fatal("fake controller did not receive the write")
	}
}

func TestConcurrentSendsAreNotCrossDelivered(t *testing.T) {
	f := newFakeController(t, func(req *expertPacket) [][]byte {
		speed := req.DeviceID[len(req.DeviceID)-1] - '0'
		return [][]byte{respond(t, req.DeviceID, protocol.Write(protocol.ExpertSpeed, []byte{speed}))}
	})
	c := newTestClient(f, WithMaxInFlight(3), WithTimeout(time.Second))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("DEVICE%010d", i)
			res, err := c.Send(context.Background(), protocol.NewReadPacket(id, "1111", protocol.ExpertSpeed), "127.0.0.1")
			if !assert.NoError(t, err) || !assert.True(t, res.Matched()) {
				return
			}
			assert.Equal(t, id, res.Packet.DeviceID)
			e, _ := res.Packet.Entry(protocol.ExpertSpeed)
			assert.Equal(t, uint64(i), e.Uint())
		}(i)
	}
	wg.Wait()
}

func TestFindDevicesDeduplicates(t *testing.T) {
	f := newFakeController(t, func(req *expertPacket) [][]byte {
		reply := searchReply(t, testDeviceID)
		return [][]byte{reply, []byte("noise"), reply}
	})
	c := newTestClient(f)

	devices, err := c.FindDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, DeviceAddress{ID: testDeviceID, IP: "127.0.0.1"}, devices[0])

	req := <-f.requests
	assert.Equal(t, protocol.DefaultDeviceID, req.DeviceID)
	assert.Empty(t, req.Password)
	assert.Equal(t, []protocol.ExpertParameter{protocol.ExpertSearch}, req.Parameters())
}

func TestFindDevicesMultiple(t *testing.T) {
	f := newFakeController(t, func(req *expertPacket) [][]byte {
		return [][]byte{searchReply(t, "AAAAAAAAAAAAAAAA"), searchReply(t, "BBBBBBBBBBBBBBBB")}
	})
	c := newTestClient(f)

	devices, err := c.FindDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "AAAAAAAAAAAAAAAA", devices[0].ID)
	assert.Equal(t, "BBBBBBBBBBBBBBBB", devices[1].ID)
}

func TestFindDevicesWildcardHeader(t *testing.T) {
	f := newFakeController(t, func(req *expertPacket) [][]byte {
		return [][]byte{respond(t, protocol.DefaultDeviceID,
			protocol.Write(protocol.ExpertSearch, []byte("ABCDEF0123456789")))}
	})
	c := newTestClient(f)

	devices, err := c.FindDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "ABCDEF0123456789", devices[0].ID)
}

func TestFindDevicesNoneIsNotAnError(t *testing.T) {
	f := newFakeController(t, nil)
	c := newTestClient(f)

	devices, err := c.FindDevices(context.Background())
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestClientRecordsMetrics(t *testing.T) {
	f := newFakeController(t, func(req *expertPacket) [][]byte {
		return [][]byte{[]byte("junk"), respond(t, req.DeviceID, protocol.Write(protocol.ExpertOnOff, []byte{1}))}
	})
	m := metrics.NewTransportMetrics(prometheus.NewRegistry())
	c := newTestClient(f, WithMetrics(m))

	res, err := c.Send(context.Background(), readOnOff(), "127.0.0.1")
	require.NoError(t, err)
	require.True(t, res.Matched())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DatagramsSent))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DatagramsReceived))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Discarded.WithLabelValues("decode")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Outcomes.WithLabelValues("send", metrics.OutcomeMatched)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight))
}

func TestRateLimitSpacesRequests(t *testing.T) {
	f := newFakeController(t, nil)
	c := newTestClient(f, WithRateLimit(10, 1))

	pkt := protocol.NewPacket(testDeviceID, "1111", protocol.FunctionWrite,
		protocol.Write(protocol.ExpertOnOff, []byte{1}))

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, c.SendOnly(context.Background(), pkt, "127.0.0.1"))
	}
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}
