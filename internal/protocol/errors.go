package protocol

import (
	"errors"
	"fmt"
)

// Sentinel errors for frame validation. Every codec error wraps exactly one
// of these, so callers can use errors.Is regardless of the detail attached.
var (
	ErrTruncated        = errors.New("frame truncated")
	ErrBadHeader        = errors.New("bad magic header")
	ErrProtocolMismatch = errors.New("protocol marker mismatch")
	ErrBadCredentials   = errors.New("malformed credential field")
	ErrUnknownFunction  = errors.New("unknown function type")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrUnknownParameter = errors.New("unknown parameter")
	ErrValueSize        = errors.New("value size does not match catalog")
)

// FrameError describes where in a frame encoding or decoding failed.
type FrameError struct {
	Kind   error // one of the sentinel errors above
	Offset int   // byte offset into the frame, -1 when not applicable
	Detail string
}

func (e *FrameError) Error() string {
	msg := e.Kind.Error()
	if e.Offset >= 0 {
		msg = fmt.Sprintf("%s at offset %d", msg, e.Offset)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

func (e *FrameError) Unwrap() error {
	return e.Kind
}

func frameErr(kind error, offset int, format string, args ...any) error {
	return &FrameError{Kind: kind, Offset: offset, Detail: fmt.Sprintf(format, args...)}
}
