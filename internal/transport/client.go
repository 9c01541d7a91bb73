package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/muurk/ventoctl/internal/logging"
	"github.com/muurk/ventoctl/internal/metrics"
	"github.com/muurk/ventoctl/internal/protocol"
)

const maxDatagramSize = 2048

// Discard reasons, also used as metric labels.
const (
	discardDecode   = "decode"
	discardPeer     = "peer"
	discardDeviceID = "device_id"
	discardFunction = "function"
)

// errNotResponse is recorded when a decodable frame is not a RESPONSE, such
// as another client's request echoed by the network.
var errNotResponse = errors.New("frame is not a response")

// Client speaks the protocol of one device family over UDP. Every call opens
// its own ephemeral socket, so concurrent calls never see each other's
// replies. A Client is safe for concurrent use.
type Client[P protocol.ParameterID] struct {
	opts options
	sem  *semaphore.Weighted
}

// NewClient creates a client for device family P.
func NewClient[P protocol.ParameterID](opts ...Option) *Client[P] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Client[P]{
		opts: o,
		sem:  semaphore.NewWeighted(o.maxInFlight),
	}
}

// Timeout returns the per-call reply window.
func (c *Client[P]) Timeout() time.Duration { return c.opts.timeout }

// BroadcastAddress returns the discovery target.
func (c *Client[P]) BroadcastAddress() string { return c.opts.broadcast }

// Port returns the controller UDP port.
func (c *Client[P]) Port() int { return c.opts.port }

// FindDevices broadcasts one search request and collects every controller
// that answers within the timeout, deduplicated by device id. No answer is
// not an error; errors are reserved for local socket failures and context
// cancellation.
func (c *Client[P]) FindDevices(ctx context.Context) ([]DeviceAddress, error) {
	frame, err := protocol.Encode(protocol.NewSearchPacket[P]())
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	conn, release, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	target, err := c.resolve(c.opts.broadcast)
	if err != nil {
		return nil, err
	}
	start, err := c.write(conn, frame, target)
	if err != nil {
		c.opts.metrics.Outcome("find", metrics.OutcomeError, 0)
		return nil, err
	}

	if err := conn.SetReadDeadline(start.Add(c.opts.timeout)); err != nil {
		return nil, fmt.Errorf("failed to set read deadline: %w", err)
	}
	stop := watchContext(ctx, conn)
	defer stop()

	seen := make(map[string]bool)
	devices := make([]DeviceAddress, 0)
	buf := make([]byte, maxDatagramSize)

	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				break
			}
			return nil, fmt.Errorf("failed to read datagram: %w", err)
		}
		c.opts.metrics.Received()
		logging.LogDatagram("received", from.String(), buf[:n])

		resp, err := protocol.Decode[P](buf[:n])
		if err == nil && resp.Function != protocol.FunctionResponse {
			err = errNotResponse
		}
		if err != nil {
			c.discard(discardDecode, from, buf[:n], err)
			continue
		}

		id := deviceIDOf(resp)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		devices = append(devices, DeviceAddress{ID: id, IP: hostOf(from)})
		logging.Debug("Controller answered search",
			zap.String("device_id", id),
			zap.String("ip", hostOf(from)),
		)
	}

	c.opts.metrics.Outcome("find", metrics.OutcomeMatched, time.Since(start))
	return devices, nil
}

// Send transmits pkt to ip and waits one timeout window for its reply. An
// empty ip sends to the broadcast address and accepts a reply from any peer.
//
// A reply is accepted when it decodes as a RESPONSE, comes from ip, and
// carries the request's device id (unless the request used the wildcard
// id). Anything else is discarded and the wait continues. No reply yields
// OutcomeTimedOut with a nil error.
func (c *Client[P]) Send(ctx context.Context, pkt *protocol.Packet[P], ip string) (*Result[P], error) {
	frame, err := protocol.Encode(pkt)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	conn, release, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	host := ip
	if host == "" {
		host = c.opts.broadcast
	}
	target, err := c.resolve(host)
	if err != nil {
		return nil, err
	}

	start, err := c.write(conn, frame, target)
	if err != nil {
		c.opts.metrics.Outcome("send", metrics.OutcomeError, 0)
		return nil, err
	}

	if err := conn.SetReadDeadline(start.Add(c.opts.timeout)); err != nil {
		return nil, fmt.Errorf("failed to set read deadline: %w", err)
	}
	stop := watchContext(ctx, conn)
	defer stop()

	result := &Result[P]{Outcome: OutcomeTimedOut}
	buf := make([]byte, maxDatagramSize)

	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				result.Elapsed = time.Since(start)
				c.opts.metrics.Outcome("send", metrics.OutcomeTimedOut, result.Elapsed)
				logging.Debug("No reply within timeout",
					zap.String("target", target.String()),
					zap.Duration("timeout", c.opts.timeout),
					zap.Int("discarded", result.Discarded),
				)
				return result, nil
			}
			return nil, fmt.Errorf("failed to read datagram: %w", err)
		}
		c.opts.metrics.Received()
		logging.LogDatagram("received", from.String(), buf[:n])

		reason, resp, err := c.accept(pkt, ip, target, from, buf[:n])
		if reason != "" {
			result.Discarded++
			result.LastDiscard = err
			c.discard(reason, from, buf[:n], err)
			continue
		}

		result.Outcome = OutcomeMatched
		result.Packet = resp
		result.IP = hostOf(from)
		result.Elapsed = time.Since(start)
		c.opts.metrics.Outcome("send", metrics.OutcomeMatched, result.Elapsed)
		return result, nil
	}
}

// accept decides whether a datagram is the reply to req. It returns an
// empty reason for a match.
func (c *Client[P]) accept(req *protocol.Packet[P], ip string, target *net.UDPAddr, from net.Addr, data []byte) (string, *protocol.Packet[P], error) {
	if ip != "" {
		if udp, ok := from.(*net.UDPAddr); !ok || !udp.IP.Equal(target.IP) {
			return discardPeer, nil, fmt.Errorf("reply from %s, want %s", from, target.IP)
		}
	}

	resp, err := protocol.Decode[P](data)
	if err != nil {
		return discardDecode, nil, err
	}
	if resp.Function != protocol.FunctionResponse {
		return discardFunction, nil, fmt.Errorf("%w: %s", errNotResponse, resp.Function)
	}
	if !req.Wildcard() && resp.DeviceID != req.DeviceID {
		return discardDeviceID, nil, fmt.Errorf("reply for device %q, want %q", resp.DeviceID, req.DeviceID)
	}
	return "", resp, nil
}

// SendOnly transmits pkt without waiting for a reply. Controllers do not
// answer WRITE requests, so setters use this.
func (c *Client[P]) SendOnly(ctx context.Context, pkt *protocol.Packet[P], ip string) error {
	frame, err := protocol.Encode(pkt)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	conn, release, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer release()

	host := ip
	if host == "" {
		host = c.opts.broadcast
	}
	target, err := c.resolve(host)
	if err != nil {
		return err
	}
	if _, err := c.write(conn, frame, target); err != nil {
		c.opts.metrics.Outcome("send_only", metrics.OutcomeError, 0)
		return err
	}
	c.opts.metrics.Outcome("send_only", metrics.OutcomeSent, 0)
	return nil
}

// open acquires an in-flight slot, waits for the rate limiter and opens an
// ephemeral UDP socket. release closes the socket and frees the slot.
func (c *Client[P]) open(ctx context.Context) (net.PacketConn, func(), error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, nil, err
	}
	if c.opts.limiter != nil {
		if err := c.opts.limiter.Wait(ctx); err != nil {
			c.sem.Release(1)
			return nil, nil, err
		}
	}

	var lc net.ListenConfig
	conn, err := lc.ListenPacket(ctx, "udp4", ":0")
	if err != nil {
		c.sem.Release(1)
		return nil, nil, fmt.Errorf("failed to open UDP socket: %w", err)
	}
	c.opts.metrics.SocketOpened()

	release := func() {
		_ = conn.Close()
		c.opts.metrics.SocketClosed()
		c.sem.Release(1)
	}
	return conn, release, nil
}

func (c *Client[P]) resolve(host string) (*net.UDPAddr, error) {
	addr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(host, strconv.Itoa(c.opts.port)))
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", host, err)
	}
	return addr, nil
}

func (c *Client[P]) write(conn net.PacketConn, frame []byte, target *net.UDPAddr) (time.Time, error) {
	logging.LogDatagram("sent", target.String(), frame)
	if _, err := conn.WriteTo(frame, target); err != nil {
		return time.Time{}, fmt.Errorf("failed to send to %s: %w", target, err)
	}
	c.opts.metrics.Sent()
	return time.Now(), nil
}

func (c *Client[P]) discard(reason string, from net.Addr, data []byte, err error) {
	c.opts.metrics.Discard(reason)
	logging.LogRawBytes("Discarded datagram", data,
		zap.String("from", from.String()),
		zap.String("reason", reason),
		zap.Error(err),
	)
}

// watchContext unblocks pending reads on conn when ctx ends.
func watchContext(ctx context.Context, conn net.PacketConn) func() bool {
	return context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
}

// deviceIDOf returns the id a controller reports. Some firmware echoes the
// wildcard id in the header, so the search value is the fallback.
func deviceIDOf[P protocol.ParameterID](pkt *protocol.Packet[P]) string {
	if !pkt.Wildcard() {
		return pkt.DeviceID
	}
	if e, ok := pkt.Entry(P(protocol.SearchID)); ok {
		return e.Text()
	}
	return ""
}

func hostOf(addr net.Addr) string {
	if udp, ok := addr.(*net.UDPAddr); ok {
		return udp.IP.String()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
