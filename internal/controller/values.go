package controller

import "github.com/muurk/ventoctl/internal/protocol"

// values indexes a reply by parameter. Missing and unsupported parameters
// read as zero.
type values[P protocol.ParameterID] struct {
	entries     map[P]protocol.DataEntry[P]
	unsupported []string
}

func newValues[P protocol.ParameterID](pkt *protocol.Packet[P]) *values[P] {
	v := &values[P]{entries: make(map[P]protocol.DataEntry[P], len(pkt.Entries))}
	for _, e := range pkt.Entries {
		if e.Unsupported {
			v.unsupported = append(v.unsupported, e.Parameter.String())
			continue
		}
		v.entries[e.Parameter] = e
	}
	return v
}

func (v *values[P]) has(p P) bool {
	e, ok := v.entries[p]
	return ok && e.HasValue()
}

func (v *values[P]) byte(p P, i int) uint8 {
	e, ok := v.entries[p]
	if !ok || i >= len(e.Value) {
		return 0
	}
	return e.Value[i]
}

func (v *values[P]) uint(p P) uint64 {
	return v.entries[p].Uint()
}
