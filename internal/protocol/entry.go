package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// DataEntry is one parameter carried by a packet. Read requests leave Value
// nil; writes and responses carry the value bytes. Unsupported is set on
// response entries the controller flagged as not implemented by its firmware.
type DataEntry[P ParameterID] struct {
	Parameter   P
	Value       []byte
	Unsupported bool
}

// Read returns a valueless entry asking the controller to report p.
func Read[P ParameterID](p P) DataEntry[P] {
	return DataEntry[P]{Parameter: p}
}

// Write returns an entry that sets p to value. The slice is copied.
func Write[P ParameterID](p P, value []byte) DataEntry[P] {
	return DataEntry[P]{Parameter: p, Value: bytes.Clone(value)}
}

// WriteUint encodes v little-endian into the catalog width of p.
func WriteUint[P ParameterID](p P, v uint64) (DataEntry[P], error) {
	size := p.Size()
	if !size.Fixed() || size > 8 {
		return DataEntry[P]{}, fmt.Errorf("%w: %s has %s size", ErrValueSize, p, size)
	}
	if size < 8 && v>>(8*uint(size)) != 0 {
		return DataEntry[P]{}, fmt.Errorf("%w: %d does not fit %s (%d bytes)", ErrValueSize, v, p, size)
	}

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return DataEntry[P]{Parameter: p, Value: bytes.Clone(buf[:size])}, nil
}

// WriteString sets a variable-size parameter such as a Wi-Fi name.
func WriteString[P ParameterID](p P, s string) (DataEntry[P], error) {
	if p.Size() != SizeVariable {
		return DataEntry[P]{}, fmt.Errorf("%w: %s is not a variable-size parameter", ErrValueSize, p)
	}
	if len(s) > MaxValueSize {
		return DataEntry[P]{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrValueSize, len(s), MaxValueSize)
	}
	return DataEntry[P]{Parameter: p, Value: []byte(s)}, nil
}

// HasValue reports whether the entry carries value bytes.
func (e DataEntry[P]) HasValue() bool {
	return len(e.Value) > 0
}

// Uint decodes the value as a little-endian unsigned integer. Values wider
// than 8 bytes keep only their low 8 bytes.
func (e DataEntry[P]) Uint() uint64 {
	var v uint64
	for i := len(e.Value) - 1; i >= 0; i-- {
		if i >= 8 {
			continue
		}
		v = v<<8 | uint64(e.Value[i])
	}
	return v
}

// Text returns the value as a string with NUL padding and spaces trimmed.
func (e DataEntry[P]) Text() string {
	return string(bytes.TrimSpace(bytes.TrimRight(e.Value, "\x00")))
}

func (e DataEntry[P]) String() string {
	switch {
	case e.Unsupported:
		return fmt.Sprintf("%s: unsupported", e.Parameter)
	case !e.HasValue():
		return e.Parameter.String()
	default:
		return fmt.Sprintf("%s: % X", e.Parameter, e.Value)
	}
}
