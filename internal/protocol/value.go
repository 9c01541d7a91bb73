package protocol

import (
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ParseValue turns a textual value into a write entry for p. Accepted forms:
//   - any text, for variable-size parameters
//   - "hex:" followed by exactly Size() bytes
//   - a dotted quad, for 4-byte parameters
//   - on/off/true/false
//   - an unsigned integer in any base strconv accepts (255, 0xFF, 0b1)
func ParseValue[P ParameterID](p P, s string) (DataEntry[P], error) {
	size := p.Size()
	switch {
	case size == SizeUnknown:
		return DataEntry[P]{}, fmt.Errorf("%w: %s", ErrUnknownParameter, p)
	case size == SizeVariable:
		return WriteString(p, s)
	}

	if rest, ok := strings.CutPrefix(s, "hex:"); ok {
		b, err := hex.DecodeString(rest)
		if err != nil {
			return DataEntry[P]{}, fmt.Errorf("invalid hex value for %s: %w", p, err)
		}
		if len(b) != int(size) {
			return DataEntry[P]{}, fmt.Errorf("%w: %s takes %d bytes, got %d", ErrValueSize, p, size, len(b))
		}
		return Write(p, b), nil
	}

	if size == 4 && strings.Count(s, ".") == 3 {
		ip := net.ParseIP(s).To4()
		if ip == nil {
			return DataEntry[P]{}, fmt.Errorf("invalid IPv4 address %q for %s", s, p)
		}
		return Write(p, ip), nil
	}

	switch strings.ToLower(s) {
	case "on", "true":
		s = "1"
	case "off", "false":
		s = "0"
	}

	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return DataEntry[P]{}, fmt.Errorf("invalid value %q for %s", s, p)
	}
	return WriteUint(p, v)
}

// ParseAssignment resolves a parameter name and its textual value.
func ParseAssignment[P ParameterID](name, value string) (DataEntry[P], error) {
	p, err := ParseParameter[P](name)
	if err != nil {
		return DataEntry[P]{}, err
	}
	return ParseValue(p, value)
}
