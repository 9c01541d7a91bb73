package transport

import (
	"fmt"
	"time"

	"github.com/muurk/ventoctl/internal/protocol"
)

// Outcome is the terminal state of a request.
type Outcome int

const (
	// OutcomeTimedOut means no acceptable reply arrived within the timeout.
	// It is not an error: wrong password, device offline and packet loss all
	// look the same from here.
	OutcomeTimedOut Outcome = iota

	// OutcomeMatched means a decodable reply from the target arrived.
	OutcomeMatched
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMatched:
		return "matched"
	case OutcomeTimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is what a Send call observed.
type Result[P protocol.ParameterID] struct {
	Outcome Outcome

	// Packet and IP are set when Outcome is OutcomeMatched.
	Packet *protocol.Packet[P]
	IP     string

	// Elapsed runs from the datagram leaving to the call ending.
	Elapsed time.Duration

	// Discarded counts datagrams received but not accepted as the reply.
	Discarded int

	// LastDiscard is why the most recent datagram was discarded. A timeout
	// whose LastDiscard is a checksum error points at a corrupted link
	// rather than silence.
	LastDiscard error
}

// Matched reports whether a reply arrived.
func (r *Result[P]) Matched() bool {
	return r != nil && r.Outcome == OutcomeMatched
}

// DeviceAddress is one controller found by discovery.
type DeviceAddress struct {
	ID string
	IP string
}

func (d DeviceAddress) String() string {
	return fmt.Sprintf("%s@%s", d.ID, d.IP)
}
