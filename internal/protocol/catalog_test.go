package protocol

import (
	"errors"
	"testing"
)

func TestExpertSizeOf(t *testing.T) {
	tests := []struct {
		id   byte
		want Size
	}{
		{0x01, 1},  // ON_OFF
		{0x02, 1},  // SPEED
		{0x08, 3},  // TIMER_COUNT_DOWN
		{0x24, 2},  // CURRENT_RTC_BATTERY_VOLTAGE
		{0x4A, 2},  // FAN1RPM
		{0x64, 3},  // FILTER_TIMER
		{0x70, 4},  // RTC_CALENDAR
		{0x77, 6},  // SCHEDULE_SETUP
		{0x7C, 16}, // SEARCH
		{0x7D, SizeVariable},
		{0x86, 6},
		{0x95, SizeVariable},
		{0x96, SizeVariable},
		{0x9C, 4},
		{0xB9, 2},
		{0x00, SizeUnknown},
		{0x03, SizeUnknown},
		{0xFF, SizeUnknown},
	}

	for _, tt := range tests {
		if got := SizeOf[ExpertParameter](tt.id); got != tt.want {
			t.Errorf("SizeOf[Expert](0x%02X) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestSmartWiFiSizeOf(t *testing.T) {
	tests := []struct {
		id   byte
		want Size
	}{
		{0x01, 1},
		{0x04, 2},  // CURRENT_RPM
		{0x06, 3},  // BOOST_TIMER_COUNTDOWN
		{0x21, 3},  // CURRENT_TIME
		{0x7C, 16}, // DEVICE_SEARCH
		{0x95, SizeVariable},
		{0xA0, 1},
		{0xB9, 2},
		{0x09, SizeUnknown},
		{0xB7, SizeUnknown}, // VENTILATION_MODE exists only for Expert
		{0xFF, SizeUnknown},
	}

	for _, tt := range tests {
		if got := SizeOf[SmartWiFiParameter](tt.id); got != tt.want {
			t.Errorf("SizeOf[SmartWiFi](0x%02X) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestCatalogsShareSearchAndUnitType(t *testing.T) {
	if ExpertSearch.Size() != SmartWiFiDeviceSearch.Size() {
		t.Errorf("search sizes differ: %v vs %v", ExpertSearch.Size(), SmartWiFiDeviceSearch.Size())
	}
	if ExpertUnitType.Size() != SmartWiFiUnitType.Size() {
		t.Errorf("unit type sizes differ: %v vs %v", ExpertUnitType.Size(), SmartWiFiUnitType.Size())
	}
}

func TestCatalogOrdered(t *testing.T) {
	params := Catalog[ExpertParameter]()
	if len(params) != len(expertCatalog) {
		t.Fatalf("len(Catalog) = %d, want %d", len(params), len(expertCatalog))
	}
	for i := 1; i < len(params); i++ {
		if params[i-1] >= params[i] {
			t.Errorf("catalog not ordered at %d: %s >= %s", i, params[i-1], params[i])
		}
	}
}

func TestParseParameter(t *testing.T) {
	tests := []struct {
		in      string
		want    ExpertParameter
		wantErr bool
	}{
		{"ON_OFF", ExpertOnOff, false},
		{"on-off", ExpertOnOff, false},
		{" manual_speed ", ExpertManualSpeed, false},
		{"68", ExpertManualSpeed, false},
		{"0xB9", ExpertUnitType, false},
		{"FAN_ONOFF", 0, true}, // Smart Wi-Fi name
		{"3", 0, true},
		{"300", 0, true},
		{"68abc", 0, true},
		{"0xB9 trailing", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseExpertParameter(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownParameter) {
				t.Errorf("ParseExpertParameter(%q) error = %v, want ErrUnknownParameter", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseExpertParameter(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseExpertParameter(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if p, err := ParseSmartWiFiParameter("boost_mode"); err != nil || p != SmartWiFiBoostMode {
		t.Errorf("ParseSmartWiFiParameter(boost_mode) = %s, %v", p, err)
	}
}

func TestUnknownParameterString(t *testing.T) {
	if got := ExpertParameter(0xFF).String(); got != "0xFF" {
		t.Errorf("String() = %q, want %q", got, "0xFF")
	}
}
