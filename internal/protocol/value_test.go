package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		name    string
		param   ExpertParameter
		input   string
		want    []byte
		wantErr bool
	}{
		{"decimal", ExpertSpeed, "2", []byte{2}, false},
		{"hex integer", ExpertManualSpeed, "0x80", []byte{0x80}, false},
		{"on", ExpertOnOff, "on", []byte{1}, false},
		{"off", ExpertOnOff, "OFF", []byte{0}, false},
		{"true", ExpertHumiditySensorActivation, "true", []byte{1}, false},
		{"two bytes", ExpertUnitType, "260", []byte{0x04, 0x01}, false},
		{"address", ExpertIPAddress, "192.168.1.50", []byte{192, 168, 1, 50}, false},
		{"bad address", ExpertGateway, "192.168.1.300", nil, true},
		{"string", ExpertWiFiName, "home net", []byte("home net"), false},
		{"hex bytes", ExpertFilterTimer, "hex:1e0c5a", []byte{30, 12, 90}, false},
		{"hex wrong width", ExpertFilterTimer, "hex:1e0c", nil, true},
		{"hex garbage", ExpertSpeed, "hex:zz", nil, true},
		{"too large", ExpertSpeed, "256", nil, true},
		{"not a number", ExpertSpeed, "fast", nil, true},
		{"negative", ExpertSpeed, "-1", nil, true},
		{"outside catalog", ExpertParameter(0xF0), "1", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := ParseValue(tt.param, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseValue(%s, %q) = % X, want error", tt.param, tt.input, e.Value)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseValue(%s, %q) error = %v", tt.param, tt.input, err)
			}
			if e.Parameter != tt.param {
				t.Errorf("Parameter = %s, want %s", e.Parameter, tt.param)
			}
			if !bytes.Equal(e.Value, tt.want) {
				t.Errorf("Value = % X, want % X", e.Value, tt.want)
			}
		})
	}
}

func TestParseAssignment(t *testing.T) {
	e, err := ParseAssignment[SmartWiFiParameter]("max-speed-setpoint", "70")
	if err != nil {
		t.Fatalf("ParseAssignment error = %v", err)
	}
	if e.Parameter != SmartWiFiMaxSpeedSetpoint || !bytes.Equal(e.Value, []byte{70}) {
		t.Errorf("got %s = % X", e.Parameter, e.Value)
	}

	_, err = ParseAssignment[SmartWiFiParameter]("no_such_param", "1")
	if !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("error = %v, want ErrUnknownParameter", err)
	}
}
