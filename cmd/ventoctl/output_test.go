package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/ventoctl/internal/controller"
	"github.com/muurk/ventoctl/internal/protocol"
)

func TestParseAssignments(t *testing.T) {
	entries, err := parseAssignments[protocol.SmartWiFiParameter]([]string{"fan-onoff", "on", "max_speed_setpoint", "70"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, protocol.SmartWiFiFanOnOff, entries[0].Parameter)
	assert.Equal(t, []byte{1}, entries[0].Value)
	assert.Equal(t, protocol.SmartWiFiMaxSpeedSetpoint, entries[1].Parameter)
	assert.Equal(t, []byte{70}, entries[1].Value)

	_, err = parseAssignments[protocol.SmartWiFiParameter]([]string{"fan_onoff"})
	assert.Error(t, err)

	_, err = parseAssignments[protocol.SmartWiFiParameter]([]string{"no_such_param", "1"})
	assert.ErrorIs(t, err, protocol.ErrUnknownParameter)
}

func TestParseParams(t *testing.T) {
	params, err := parseParams[protocol.ExpertParameter]([]string{"speed", "0xB9"})
	require.NoError(t, err)
	assert.Equal(t, []protocol.ExpertParameter{protocol.ExpertSpeed, protocol.ExpertUnitType}, params)

	_, err = parseParams[protocol.ExpertParameter]([]string{"speed", "bogus"})
	assert.Error(t, err)
}

func TestExpertSnapshot(t *testing.T) {
	tests := []struct {
		name      string
		state     controller.ExpertState
		wantGauge float64
		wantLabel string
	}{
		{"off", controller.ExpertState{Power: false, SpeedMode: 3}, 0, "off"},
		{"preset", controller.ExpertState{Power: true, SpeedMode: controller.SpeedMedium}, 2.0 / 3, "speed 2"},
		{"manual", controller.ExpertState{Power: true, SpeedMode: controller.SpeedManual, ManualSpeedPercent: 50}, 0.5, "manual 50%"},
		{"unknown mode", controller.ExpertState{Power: true, SpeedMode: 9}, -1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := expertSnapshot(&tt.state)
			assert.InDelta(t, tt.wantGauge, snap.Gauge, 1e-9)
			assert.Equal(t, tt.wantLabel, snap.GaugeLabel)
			assert.NotEmpty(t, snap.Details)
		})
	}
}

func TestSmartWiFiSnapshot(t *testing.T) {
	snap := smartWiFiSnapshot(&controller.SmartWiFiState{Power: true, RPM: 3000})
	assert.InDelta(t, 0.5, snap.Gauge, 1e-9)
	assert.Equal(t, "3000 rpm", snap.GaugeLabel)

	snap = smartWiFiSnapshot(&controller.SmartWiFiState{RPM: 9000})
	assert.Equal(t, 1.0, snap.Gauge)
}

func TestStateDetails(t *testing.T) {
	d := expertDetails(&controller.ExpertState{
		Power:                true,
		SpeedMode:            controller.SpeedHigh,
		UnsupportedParameter: []string{"READ_ALARM"},
	})
	assert.Equal(t, "Power", d[0].Key)
	assert.Equal(t, "on", d[0].Value)
	assert.Equal(t, "Unsupported", d[len(d)-1].Key)
	assert.Equal(t, "READ_ALARM", d[len(d)-1].Value)

	d = smartWiFiDetails(&controller.SmartWiFiState{BatteryOK: false})
	var battery string
	for _, detail := range d {
		if detail.Key == "Battery" {
			battery = detail.Value
		}
	}
	assert.Equal(t, "low", battery)
}

func TestCatalogTable(t *testing.T) {
	table := catalogTable(protocol.Catalog[protocol.ExpertParameter]())
	assert.Contains(t, table, "0x01  ON_OFF")
	assert.Contains(t, table, "WIFI_NAME")
	assert.Contains(t, table, "variable")
	assert.Equal(t, len(protocol.Catalog[protocol.ExpertParameter]()), strings.Count(table, "\n"))
}
