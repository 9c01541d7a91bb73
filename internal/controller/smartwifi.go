package controller

import (
	"context"
	"fmt"

	"github.com/muurk/ventoctl/internal/protocol"
	"github.com/muurk/ventoctl/internal/transport"
)

// Speed setpoints of a Smart Wi-Fi fan are percentages in this range.
const (
	MinSetpoint = 30
	MaxSetpoint = 100
)

var smartWiFiStateParams = []protocol.SmartWiFiParameter{
	protocol.SmartWiFiFanOnOff,
	protocol.SmartWiFiBatteryStatus,
	protocol.SmartWiFiCurrentRPM,
	protocol.SmartWiFiBoostMode,
	protocol.SmartWiFiBoostTimerCountdown,
	protocol.SmartWiFiStatusBuiltinTimer,
	protocol.SmartWiFiStatusHumiditySensor,
	protocol.SmartWiFiStatusTempSensor,
	protocol.SmartWiFiStatusMotionSensor,
	protocol.SmartWiFiStatusExternalSwitch,
	protocol.SmartWiFiStatusIntervalMode,
	protocol.SmartWiFiStatusSilentMode,
	protocol.SmartWiFiMaxSpeedSetpoint,
	protocol.SmartWiFiSilentSpeedSetpoint,
	protocol.SmartWiFiIntervalSpeedSetpoint,
	protocol.SmartWiFiSilentModeActivation,
	protocol.SmartWiFiIntervalModeActivation,
	protocol.SmartWiFiHumiditySensorPermission,
	protocol.SmartWiFiTempSensorPermission,
	protocol.SmartWiFiMotionSensorPermission,
	protocol.SmartWiFiUnitType,
}

// SmartWiFiState is the status of a Smart Wi-Fi fan.
type SmartWiFiState struct {
	Power                bool      `json:"power"`
	BatteryOK            bool      `json:"battery_ok"`
	RPM                  uint16    `json:"rpm"`
	Boost                bool      `json:"boost"`
	BoostCountdown       Countdown `json:"boost_countdown"`
	BuiltinTimer         bool      `json:"builtin_timer"`
	HumidityTriggered    bool      `json:"humidity_triggered"`
	TempTriggered        bool      `json:"temperature_triggered"`
	MotionTriggered      bool      `json:"motion_triggered"`
	ExternalSwitch       bool      `json:"external_switch"`
	IntervalActive       bool      `json:"interval_active"`
	SilentActive         bool      `json:"silent_active"`
	MaxSpeed             uint8     `json:"max_speed"`
	SilentSpeed          uint8     `json:"silent_speed"`
	IntervalSpeed        uint8     `json:"interval_speed"`
	SilentModeEnabled    bool      `json:"silent_mode_enabled"`
	IntervalModeEnabled  bool      `json:"interval_mode_enabled"`
	HumiditySensor       bool      `json:"humidity_sensor"`
	TempSensor           bool      `json:"temperature_sensor"`
	MotionSensor         bool      `json:"motion_sensor"`
	UnitType             uint16    `json:"unit_type"`
	UnsupportedParameter []string  `json:"unsupported,omitempty"`
}

// SmartWiFi controls a Smart Wi-Fi fan.
type SmartWiFi struct {
	*Controller[protocol.SmartWiFiParameter]
}

// NewSmartWiFi creates a controller for a Smart Wi-Fi device.
func NewSmartWiFi(client *transport.Client[protocol.SmartWiFiParameter], target Target) *SmartWiFi {
	return &SmartWiFi{Controller: New(client, target)}
}

// State reads the status parameter set in one request.
func (s *SmartWiFi) State(ctx context.Context) (*SmartWiFiState, error) {
	resp, err := s.Read(ctx, smartWiFiStateParams...)
	if err != nil {
		return nil, err
	}
	return mapSmartWiFiState(resp, s.target)
}

func mapSmartWiFiState(pkt *protocol.Packet[protocol.SmartWiFiParameter], t Target) (*SmartWiFiState, error) {
	v := newValues(pkt)
	if !v.has(protocol.SmartWiFiFanOnOff) {
		return nil, NewMissingParameterError(t, protocol.SmartWiFiFanOnOff.String())
	}
	on := func(p protocol.SmartWiFiParameter) bool { return v.byte(p, 0) == 1 }

	return &SmartWiFiState{
		Power:     on(protocol.SmartWiFiFanOnOff),
		BatteryOK: v.byte(protocol.SmartWiFiBatteryStatus, 0) == 1,
		RPM:       uint16(v.uint(protocol.SmartWiFiCurrentRPM)),
		Boost:     on(protocol.SmartWiFiBoostMode),
		BoostCountdown: Countdown{
			Seconds: v.byte(protocol.SmartWiFiBoostTimerCountdown, 0),
			Minutes: v.byte(protocol.SmartWiFiBoostTimerCountdown, 1),
			Hours:   v.byte(protocol.SmartWiFiBoostTimerCountdown, 2),
		},
		BuiltinTimer:         on(protocol.SmartWiFiStatusBuiltinTimer),
		HumidityTriggered:    on(protocol.SmartWiFiStatusHumiditySensor),
		TempTriggered:        on(protocol.SmartWiFiStatusTempSensor),
		MotionTriggered:      on(protocol.SmartWiFiStatusMotionSensor),
		ExternalSwitch:       on(protocol.SmartWiFiStatusExternalSwitch),
		IntervalActive:       on(protocol.SmartWiFiStatusIntervalMode),
		SilentActive:         on(protocol.SmartWiFiStatusSilentMode),
		MaxSpeed:             v.byte(protocol.SmartWiFiMaxSpeedSetpoint, 0),
		SilentSpeed:          v.byte(protocol.SmartWiFiSilentSpeedSetpoint, 0),
		IntervalSpeed:        v.byte(protocol.SmartWiFiIntervalSpeedSetpoint, 0),
		SilentModeEnabled:    on(protocol.SmartWiFiSilentModeActivation),
		IntervalModeEnabled:  on(protocol.SmartWiFiIntervalModeActivation),
		HumiditySensor:       on(protocol.SmartWiFiHumiditySensorPermission),
		TempSensor:           on(protocol.SmartWiFiTempSensorPermission),
		MotionSensor:         on(protocol.SmartWiFiMotionSensorPermission),
		UnitType:             uint16(v.uint(protocol.SmartWiFiUnitType)),
		UnsupportedParameter: v.unsupported,
	}, nil
}

// UnitType reads the hardware type.
func (s *SmartWiFi) UnitType(ctx context.Context) (uint16, error) {
	e, err := s.ReadOne(ctx, protocol.SmartWiFiUnitType)
	if err != nil {
		return 0, err
	}
	return uint16(e.Uint()), nil
}

// SetPower turns the fan on or off.
func (s *SmartWiFi) SetPower(ctx context.Context, on bool) error {
	return s.writeByte(ctx, protocol.SmartWiFiFanOnOff, boolByte(on))
}

// SetBoost turns boost mode on or off.
func (s *SmartWiFi) SetBoost(ctx context.Context, on bool) error {
	return s.writeByte(ctx, protocol.SmartWiFiBoostMode, boolByte(on))
}

// SetMaxSpeed sets the maximum speed setpoint in percent.
func (s *SmartWiFi) SetMaxSpeed(ctx context.Context, percent uint8) error {
	if err := checkSetpoint("max speed", percent); err != nil {
		return err
	}
	return s.writeByte(ctx, protocol.SmartWiFiMaxSpeedSetpoint, percent)
}

// SetSilentSpeed sets the silent speed setpoint in percent.
func (s *SmartWiFi) SetSilentSpeed(ctx context.Context, percent uint8) error {
	if err := checkSetpoint("silent speed", percent); err != nil {
		return err
	}
	return s.writeByte(ctx, protocol.SmartWiFiSilentSpeedSetpoint, percent)
}

// SetSilentMode enables or disables silent mode.
func (s *SmartWiFi) SetSilentMode(ctx context.Context, on bool) error {
	return s.writeByte(ctx, protocol.SmartWiFiSilentModeActivation, boolByte(on))
}

// SetIntervalMode enables or disables interval ventilation.
func (s *SmartWiFi) SetIntervalMode(ctx context.Context, on bool) error {
	return s.writeByte(ctx, protocol.SmartWiFiIntervalModeActivation, boolByte(on))
}

func (s *SmartWiFi) writeByte(ctx context.Context, param protocol.SmartWiFiParameter, v uint8) error {
	return s.Write(ctx, protocol.Write(param, []byte{v}))
}

func checkSetpoint(name string, percent uint8) error {
	if percent < MinSetpoint || percent > MaxSetpoint {
		return NewValidationError(fmt.Sprintf("%s %d%% out of range (%d-%d)", name, percent, MinSetpoint, MaxSetpoint))
	}
	return nil
}
