package protocol

import (
	"fmt"
	"net"
	"strings"
)

// FormatPacket renders a packet as a multi-line human-readable block.
func FormatPacket[P ParameterID](p *Packet[P]) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (0x%02X) id=%q password=%s entries=%d\n",
		p.Function, byte(p.Function), p.DeviceID, maskPassword(p.Password), len(p.Entries))
	for _, e := range p.Entries {
		fmt.Fprintf(&b, "  %-34s (0x%02X) %s\n", e.Parameter, byte(e.Parameter), FormatValue(e))
	}
	return b.String()
}

// FormatValue renders an entry value using the parameter's catalog shape:
// addresses as dotted quads, strings as text, small integers in decimal and
// everything else as hex.
func FormatValue[P ParameterID](e DataEntry[P]) string {
	switch {
	case e.Unsupported:
		return "unsupported"
	case !e.HasValue():
		return "-"
	}

	size := e.Parameter.Size()
	name := e.Parameter.String()
	switch {
	case size == SizeVariable:
		return fmt.Sprintf("%q", e.Text())
	case size == 4 && isAddress(name):
		return net.IP(e.Value).String()
	case size == 16:
		return fmt.Sprintf("%q", e.Text())
	case len(e.Value) <= 2:
		return fmt.Sprintf("%d", e.Uint())
	default:
		return fmt.Sprintf("% X", e.Value)
	}
}

// HexDump formats a frame as offset, hex and ASCII columns, 16 bytes a row.
func HexDump(data []byte) string {
	var b strings.Builder
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		row := data[off:end]

		fmt.Fprintf(&b, "%04x  ", off)
		for i := 0; i < 16; i++ {
			if i < len(row) {
				fmt.Fprintf(&b, "%02x ", row[i])
			} else {
				b.WriteString("   ")
			}
			if i == 7 {
				b.WriteByte(' ')
			}
		}
		b.WriteString(" |")
		for _, c := range row {
			if c >= 32 && c <= 126 {
				b.WriteByte(c)
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteString("|\n")
	}
	return b.String()
}

func isAddress(name string) bool {
	return strings.HasSuffix(name, "IP_ADDRESS") || name == "SUBNET_MASK" || name == "GATEWAY"
}

func maskPassword(pw string) string {
	if pw == "" {
		return `""`
	}
	return strings.Repeat("*", len(pw))
}
