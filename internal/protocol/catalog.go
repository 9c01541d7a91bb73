package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is the encoded width of a parameter value in bytes.
type Size int

const (
	// SizeUnknown is returned for parameter ids outside a catalog.
	SizeUnknown Size = -1

	// SizeVariable marks string-like parameters whose width is carried on the
	// wire (Wi-Fi name, Wi-Fi password, device password).
	SizeVariable Size = 0

	// MaxValueSize is the largest value a single entry may carry.
	MaxValueSize = 0xFF
)

// Fixed reports whether s is a concrete byte width.
func (s Size) Fixed() bool { return s > 0 }

// String returns the size as shown in catalog listings.
func (s Size) String() string {
	switch {
	case s == SizeUnknown:
		return "unknown"
	case s == SizeVariable:
		return "variable"
	default:
		return fmt.Sprintf("%d", int(s))
	}
}

// SearchID is the parameter id both families answer to during discovery.
// Its value is the 16-character device id.
const SearchID = 0x7C

// UnitTypeID is the parameter id both families use to report hardware type.
const UnitTypeID = 0xB9

// ParameterID is implemented by each device family's parameter type. A packet
// is parameterized over exactly one family so entries from different catalogs
// can never share a frame.
type ParameterID interface {
	~uint8

	// Size returns the encoded width of the parameter's value.
	Size() Size

	// Known reports whether the id belongs to the catalog.
	Known() bool

	String() string
}

// SizeOf looks up the encoded width of a raw parameter id in catalog P.
func SizeOf[P ParameterID](id byte) Size {
	return P(id).Size()
}

// Catalog lists every parameter of family P, ordered by id.
func Catalog[P ParameterID]() []P {
	var out []P
	for i := 0; i <= 0xFF; i++ {
		if p := P(i); p.Known() {
			out = append(out, p)
		}
	}
	return out
}

// ParseParameter resolves a catalog name (case-insensitive, "-" and "_"
// interchangeable) or a decimal/hex id into a parameter of family P.
func ParseParameter[P ParameterID](s string) (P, error) {
	want := normalizeName(s)
	for _, p := range Catalog[P]() {
		if normalizeName(p.String()) == want {
			return p, nil
		}
	}

	if id, err := strconv.ParseUint(strings.TrimSpace(s), 0, 8); err == nil {
		if p := P(id); p.Known() {
			return p, nil
		}
	}

	var zero P
	return zero, fmt.Errorf("%w: %q", ErrUnknownParameter, s)
}

func normalizeName(s string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_")
}

type catalogEntry struct {
	name string
	size Size
}

func lookup(table map[uint8]catalogEntry, id uint8) (catalogEntry, bool) {
	e, ok := table[id]
	return e, ok
}

func entryName(table map[uint8]catalogEntry, id uint8) string {
	if e, ok := lookup(table, id); ok {
		return e.name
	}
	return fmt.Sprintf("0x%02X", id)
}

func entrySize(table map[uint8]catalogEntry, id uint8) Size {
	if e, ok := lookup(table, id); ok {
		return e.size
	}
	return SizeUnknown
}
