package protocol

import (
	"bytes"
	"fmt"
)

// Frame constants.
const (
	MagicByte      = 0xFD
	ProtocolMarker = 0x02

	// MaxDeviceIDLength and MaxPasswordLength are the capacities of the two
	// credential fields; longer values are truncated.
	MaxDeviceIDLength = 16
	MaxPasswordLength = 8

	// DefaultDeviceID is the wildcard id every controller answers to. It is
	// used for discovery, when the caller does not yet know any device id.
	DefaultDeviceID = "DEFAULT_DEVICEID"

	// DefaultPassword is the factory password of both families.
	DefaultPassword = "1111"

	// DefaultPort is the UDP port controllers listen on.
	DefaultPort = 4000

	checksumSize = 2
	headerSize   = 3 // magic + protocol marker

	// minFrameSize covers a frame with empty credentials and no entries.
	minFrameSize = headerSize + 1 + 1 + 1 + checksumSize
)

// Magic is the two-byte signature every frame starts with.
var Magic = [2]byte{MagicByte, MagicByte}

// Packet is one protocol message, request or response. Packets built with
// NewPacket or returned by Decode own their entry slices; treat them as
// read-only.
type Packet[P ParameterID] struct {
	DeviceID string
	Password string
	Function FunctionType
	Entries  []DataEntry[P]
}

// NewPacket builds a packet, truncating credentials to their field capacity
// and copying entries so later changes by the caller do not leak in.
func NewPacket[P ParameterID](deviceID, password string, fn FunctionType, entries ...DataEntry[P]) *Packet[P] {
	p := &Packet[P]{
		DeviceID: truncate(deviceID, MaxDeviceIDLength),
		Password: truncate(password, MaxPasswordLength),
		Function: fn,
		Entries:  make([]DataEntry[P], len(entries)),
	}
	for i, e := range entries {
		p.Entries[i] = DataEntry[P]{
			Parameter:   e.Parameter,
			Value:       bytes.Clone(e.Value),
			Unsupported: e.Unsupported,
		}
	}
	return p
}

// NewReadPacket asks the controller to report every listed parameter.
func NewReadPacket[P ParameterID](deviceID, password string, params ...P) *Packet[P] {
	entries := make([]DataEntry[P], len(params))
	for i, param := range params {
		entries[i] = Read(param)
	}
	return NewPacket(deviceID, password, FunctionRead, entries...)
}

// NewSearchPacket builds the broadcast discovery request: a READ of the
// search parameter addressed to the wildcard id with an empty password.
func NewSearchPacket[P ParameterID]() *Packet[P] {
	return NewReadPacket(DefaultDeviceID, "", P(SearchID))
}

// Entry returns the first entry for param.
func (p *Packet[P]) Entry(param P) (DataEntry[P], bool) {
	for _, e := range p.Entries {
		if e.Parameter == param {
			return e, true
		}
	}
	return DataEntry[P]{}, false
}

// Parameters lists the parameters of all entries in order.
func (p *Packet[P]) Parameters() []P {
	out := make([]P, len(p.Entries))
	for i, e := range p.Entries {
		out[i] = e.Parameter
	}
	return out
}

// Wildcard reports whether the packet is addressed to every controller.
func (p *Packet[P]) Wildcard() bool {
	return p.DeviceID == DefaultDeviceID || p.DeviceID == ""
}

// Equal compares two packets field by field. A nil value and an empty value
// are considered equal.
func (p *Packet[P]) Equal(o *Packet[P]) bool {
	if p == nil || o == nil {
		return p == o
	}
	if p.DeviceID != o.DeviceID || p.Password != o.Password || p.Function != o.Function {
		return false
	}
	if len(p.Entries) != len(o.Entries) {
		return false
	}
	for i := range p.Entries {
		a, b := p.Entries[i], o.Entries[i]
		if a.Parameter != b.Parameter || a.Unsupported != b.Unsupported || !bytes.Equal(a.Value, b.Value) {
			return false
		}
	}
	return true
}

func (p *Packet[P]) String() string {
	return fmt.Sprintf("%s id=%q entries=%d", p.Function, p.DeviceID, len(p.Entries))
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
