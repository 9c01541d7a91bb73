package protocol

import "fmt"

// FunctionType tells the controller what to do with the entries of a packet.
type FunctionType byte

const (
	FunctionRead      FunctionType = 0x01
	FunctionWrite     FunctionType = 0x02
	FunctionWriteRead FunctionType = 0x03
	FunctionIncRead   FunctionType = 0x04
	FunctionDecRead   FunctionType = 0x05
	FunctionResponse  FunctionType = 0x06
)

// Valid reports whether f is one of the defined function codes.
func (f FunctionType) Valid() bool {
	return f >= FunctionRead && f <= FunctionResponse
}

// ExpectsReply reports whether a controller answers a request of this type.
// Controllers stay silent on WRITE; RESPONSE is never sent by a client.
func (f FunctionType) ExpectsReply() bool {
	switch f {
	case FunctionRead, FunctionWriteRead, FunctionIncRead, FunctionDecRead:
		return true
	default:
		return false
	}
}

// carriesValues reports whether entries of a packet with this function code
// are followed by value bytes on the wire.
func (f FunctionType) carriesValues() bool {
	switch f {
	case FunctionWrite, FunctionWriteRead, FunctionResponse:
		return true
	default:
		return false
	}
}

func (f FunctionType) String() string {
	switch f {
	case FunctionRead:
		return "READ"
	case FunctionWrite:
		return "WRITE"
	case FunctionWriteRead:
		return "WRITEREAD"
	case FunctionIncRead:
		return "INCREAD"
	case FunctionDecRead:
		return "DECREAD"
	case FunctionResponse:
		return "RESPONSE"
	default:
		return fmt.Sprintf("FUNCTION(0x%02X)", byte(f))
	}
}
