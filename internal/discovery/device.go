package discovery

import (
	"fmt"
	"strings"
	"time"
)

// Family is the controller product line. It selects the parameter catalog.
type Family string

const (
	FamilyUnknown   Family = ""
	FamilyExpert    Family = "expert"
	FamilySmartWiFi Family = "smartwifi"
)

// ParseFamily accepts "expert", "smartwifi", "smart-wifi" and "smart_wifi"
// in any case.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)) {
	case "expert", "ventoexpert":
		return FamilyExpert, nil
	case "smartwifi":
		return FamilySmartWiFi, nil
	case "":
		return FamilyUnknown, nil
	default:
		return FamilyUnknown, fmt.Errorf("unknown device family %q (want expert or smartwifi)", s)
	}
}

// ClassifyUnitType maps a UNIT_TYPE reading to a family. Vento Expert units
// report 3, 4 or 5; every other value is treated as Smart Wi-Fi.
func ClassifyUnitType(unitType uint16) Family {
	switch unitType {
	case 3, 4, 5:
		return FamilyExpert
	default:
		return FamilySmartWiFi
	}
}

func (f Family) String() string {
	if f == FamilyUnknown {
		return "unknown"
	}
	return string(f)
}

// Device represents a controller found on the network
type Device struct {
	// ID is the 16-character device id (e.g., "003A0024484B5010")
	ID string

	// IP is the IPv4 address the controller answered from
	IP string

	// Port is the UDP port (typically 4000)
	Port int

	// Family and UnitType are filled in by Scanner.Classify
	Family   Family
	UnitType uint16

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	if d.Family == FamilyUnknown {
		return fmt.Sprintf("Vento %s at %s:%d", d.ID, d.IP, d.Port)
	}
	return fmt.Sprintf("Vento %s %s (unit type %d) at %s:%d", d.Family, d.ID, d.UnitType, d.IP, d.Port)
}

// Classified reports whether the family is known.
func (d *Device) Classified() bool {
	return d.Family != FamilyUnknown
}
