package transport

import (
	"time"

	"github.com/muurk/ventoctl/internal/metrics"
	"github.com/muurk/ventoctl/internal/protocol"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the reply window of a single call.
	DefaultTimeout = 1500 * time.Millisecond

	// DefaultBroadcastAddress is where discovery requests are sent.
	DefaultBroadcastAddress = "255.255.255.255"

	// DefaultPort is the controllers' UDP port.
	DefaultPort = protocol.DefaultPort

	// DefaultMaxInFlight caps how many sockets a client holds open at once.
	DefaultMaxInFlight = 16
)

type options struct {
	timeout     time.Duration
	broadcast   string
	port        int
	maxInFlight int64
	metrics     *metrics.TransportMetrics
	limiter     *rate.Limiter
}

func defaultOptions() options {
	return options{
		timeout:     DefaultTimeout,
		broadcast:   DefaultBroadcastAddress,
		port:        DefaultPort,
		maxInFlight: DefaultMaxInFlight,
	}
}

// Option configures a Client.
type Option func(*options)

// WithTimeout sets the per-call reply window. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithBroadcastAddress overrides the discovery target, e.g. a subnet
// broadcast such as 192.168.1.255.
func WithBroadcastAddress(addr string) Option {
	return func(o *options) {
		if addr != "" {
			o.broadcast = addr
		}
	}
}

// WithPort sets the controller UDP port.
func WithPort(port int) Option {
	return func(o *options) {
		if port > 0 && port <= 0xFFFF {
			o.port = port
		}
	}
}

// WithMaxInFlight caps concurrent sockets. Calls beyond the cap wait for a
// free slot or for their context to end.
func WithMaxInFlight(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxInFlight = int64(n)
		}
	}
}

// WithMetrics records traffic into m.
func WithMetrics(m *metrics.TransportMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithRateLimit spaces outgoing datagrams to at most perSecond, with bursts
// of up to burst. Controllers drop requests that arrive too quickly.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		if perSecond <= 0 {
			o.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}
