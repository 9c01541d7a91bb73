package controller

import (
	"context"
	"fmt"

	"github.com/muurk/ventoctl/internal/protocol"
	"github.com/muurk/ventoctl/internal/transport"
)

// Speed modes of a Vento Expert.
const (
	SpeedLow    uint8 = 1
	SpeedMedium uint8 = 2
	SpeedHigh   uint8 = 3
	SpeedManual uint8 = 255
)

// Ventilation modes.
const (
	VentilationOnly  uint8 = 0
	VentilationHeat  uint8 = 1 // heat recovery
	VentilationInput uint8 = 2 // supply
)

// Timer modes.
const (
	TimerOff   uint8 = 0
	TimerNight uint8 = 1
	TimerParty uint8 = 2
)

// expertStateParams is the status read, in the order the device answers.
var expertStateParams = []protocol.ExpertParameter{
	protocol.ExpertOnOff,
	protocol.ExpertSpeed,
	protocol.ExpertManualSpeed,
	protocol.ExpertBoostMode,
	protocol.ExpertBoostDeactivationDelay,
	protocol.ExpertVentilationMode,
	protocol.ExpertFilterAlarm,
	protocol.ExpertFilterTimer,
	protocol.ExpertCurrentHumidity,
	protocol.ExpertHumiditySensorActivation,
	protocol.ExpertHumidityThreshold,
	protocol.ExpertUnitType,
	protocol.ExpertFan1RPM,
	protocol.ExpertTimerMode,
	protocol.ExpertReadAlarm,
	protocol.ExpertActiveTimerCountdown,
}

// Countdown is a time value the device reports as seconds, minutes, hours.
type Countdown struct {
	Hours   uint8 `json:"hours"`
	Minutes uint8 `json:"minutes"`
	Seconds uint8 `json:"seconds"`
}

func (c Countdown) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hours, c.Minutes, c.Seconds)
}

// FilterTimer is the time left until the filter needs replacing.
type FilterTimer struct {
	Days    uint8 `json:"days"`
	Hours   uint8 `json:"hours"`
	Minutes uint8 `json:"minutes"`
}

func (f FilterTimer) String() string {
	return fmt.Sprintf("%dd %02dh %02dm", f.Days, f.Hours, f.Minutes)
}

// ExpertState is the status of a Vento Expert controller.
type ExpertState struct {
	Power                bool        `json:"power"`
	SpeedMode            uint8       `json:"speed_mode"`
	ManualSpeed          uint8       `json:"manual_speed"`
	ManualSpeedPercent   int         `json:"manual_speed_percent"`
	Boost                bool        `json:"boost"`
	BoostDelayMinutes    uint8       `json:"boost_delay_minutes"`
	VentilationMode      uint8       `json:"ventilation_mode"`
	FilterAlarm          bool        `json:"filter_alarm"`
	FilterTimer          FilterTimer `json:"filter_timer"`
	Humidity             uint8       `json:"humidity"`
	HumiditySensor       uint8       `json:"humidity_sensor"`
	HumidityThreshold    uint8       `json:"humidity_threshold"`
	UnitType             uint16      `json:"unit_type"`
	UnitTypeLabel        string      `json:"unit_type_label"`
	FanRPM               uint16      `json:"fan_rpm"`
	TimerMode            uint8       `json:"timer_mode"`
	TimerCountdown       Countdown   `json:"timer_countdown"`
	Alarm                uint8       `json:"alarm"`
	UnsupportedParameter []string    `json:"unsupported,omitempty"`
}

// SpeedModeLabel names the speed mode.
func (s *ExpertState) SpeedModeLabel() string {
	switch s.SpeedMode {
	case SpeedLow, SpeedMedium, SpeedHigh:
		return fmt.Sprintf("speed %d", s.SpeedMode)
	case SpeedManual:
		return "manual"
	default:
		return fmt.Sprintf("unknown (%d)", s.SpeedMode)
	}
}

// VentilationModeLabel names the ventilation mode.
func (s *ExpertState) VentilationModeLabel() string {
	switch s.VentilationMode {
	case VentilationOnly:
		return "ventilation"
	case VentilationHeat:
		return "heat recovery"
	case VentilationInput:
		return "supply"
	default:
		return fmt.Sprintf("unknown (%d)", s.VentilationMode)
	}
}

// TimerModeLabel names the timer mode.
func (s *ExpertState) TimerModeLabel() string {
	switch s.TimerMode {
	case TimerOff:
		return "off"
	case TimerNight:
		return "night"
	case TimerParty:
		return "party"
	default:
		return fmt.Sprintf("unknown (%d)", s.TimerMode)
	}
}

// AlarmLabel names the alarm level.
func (s *ExpertState) AlarmLabel() string {
	switch s.Alarm {
	case 0:
		return "none"
	case 1:
		return "alarm"
	case 2:
		return "warning"
	default:
		return fmt.Sprintf("unknown (%d)", s.Alarm)
	}
}

// ExpertUnitLabel names the hardware model for a UNIT_TYPE value.
func ExpertUnitLabel(unitType uint16) string {
	switch unitType {
	case 1:
		return "Vento Expert A50-1 W V.2 | Vento Expert A85-1 W V.2 | Vento Expert A100-1 W V.2"
	case 4:
		return "Vento Expert Duo A30-1 W V.2"
	case 5:
		return "Vento Expert A30 W V.2"
	default:
		return "Vento Expert"
	}
}

// Expert controls a Vento Expert fan.
type Expert struct {
	*Controller[protocol.ExpertParameter]
}

// NewExpert creates a controller for a Vento Expert device.
func NewExpert(client *transport.Client[protocol.ExpertParameter], target Target) *Expert {
	return &Expert{Controller: New(client, target)}
}

// State reads the status parameter set in one request.
func (e *Expert) State(ctx context.Context) (*ExpertState, error) {
	resp, err := e.Read(ctx, expertStateParams...)
	if err != nil {
		return nil, err
	}
	return mapExpertState(resp, e.target)
}

func mapExpertState(pkt *protocol.Packet[protocol.ExpertParameter], t Target) (*ExpertState, error) {
	v := newValues(pkt)
	if !v.has(protocol.ExpertOnOff) {
		return nil, NewMissingParameterError(t, protocol.ExpertOnOff.String())
	}

	s := &ExpertState{
		Power:             v.byte(protocol.ExpertOnOff, 0) == 1,
		SpeedMode:         v.byte(protocol.ExpertSpeed, 0),
		ManualSpeed:       v.byte(protocol.ExpertManualSpeed, 0),
		Boost:             v.byte(protocol.ExpertBoostMode, 0) == 1,
		BoostDelayMinutes: v.byte(protocol.ExpertBoostDeactivationDelay, 0),
		VentilationMode:   v.byte(protocol.ExpertVentilationMode, 0),
		FilterAlarm:       v.byte(protocol.ExpertFilterAlarm, 0) == 1,
		FilterTimer: FilterTimer{
			Minutes: v.byte(protocol.ExpertFilterTimer, 0),
			Hours:   v.byte(protocol.ExpertFilterTimer, 1),
			Days:    v.byte(protocol.ExpertFilterTimer, 2),
		},
		Humidity:          v.byte(protocol.ExpertCurrentHumidity, 0),
		HumiditySensor:    v.byte(protocol.ExpertHumiditySensorActivation, 0),
		HumidityThreshold: v.byte(protocol.ExpertHumidityThreshold, 0),
		UnitType:          uint16(v.uint(protocol.ExpertUnitType)),
		FanRPM:            uint16(v.uint(protocol.ExpertFan1RPM)),
		TimerMode:         v.byte(protocol.ExpertTimerMode, 0),
		TimerCountdown: Countdown{
			Seconds: v.byte(protocol.ExpertActiveTimerCountdown, 0),
			Minutes: v.byte(protocol.ExpertActiveTimerCountdown, 1),
			Hours:   v.byte(protocol.ExpertActiveTimerCountdown, 2),
		},
		Alarm:                v.byte(protocol.ExpertReadAlarm, 0),
		UnsupportedParameter: v.unsupported,
	}
	s.ManualSpeedPercent = ManualSpeedToPercent(s.ManualSpeed)
	s.UnitTypeLabel = ExpertUnitLabel(s.UnitType)
	return s, nil
}

// SetPower turns the fan on or off.
func (e *Expert) SetPower(ctx context.Context, on bool) error {
	return e.writeByte(ctx, protocol.ExpertOnOff, boolByte(on))
}

// TogglePower flips the power state on the device.
func (e *Expert) TogglePower(ctx context.Context) error {
	return e.writeByte(ctx, protocol.ExpertOnOff, 2)
}

// SetSpeedMode selects speed 1-3 or SpeedManual.
func (e *Expert) SetSpeedMode(ctx context.Context, mode uint8) error {
	if (mode < SpeedLow || mode > SpeedHigh) && mode != SpeedManual {
		return NewValidationError(fmt.Sprintf("speed mode %d out of range (1-3 or 255)", mode))
	}
	return e.writeByte(ctx, protocol.ExpertSpeed, mode)
}

// SetManualSpeed sets the manual speed in percent. It does not switch the
// speed mode to manual.
func (e *Expert) SetManualSpeed(ctx context.Context, percent int) error {
	if percent < 0 || percent > 100 {
		return NewValidationError(fmt.Sprintf("manual speed %d%% out of range (0-100)", percent))
	}
	return e.writeByte(ctx, protocol.ExpertManualSpeed, PercentToManualSpeed(percent))
}

// SetVentilationMode selects ventilation, heat recovery or supply.
func (e *Expert) SetVentilationMode(ctx context.Context, mode uint8) error {
	if mode > VentilationInput {
		return NewValidationError(fmt.Sprintf("ventilation mode %d out of range (0-2)", mode))
	}
	return e.writeByte(ctx, protocol.ExpertVentilationMode, mode)
}

// SetTimerMode selects off, night or party.
func (e *Expert) SetTimerMode(ctx context.Context, mode uint8) error {
	if mode > TimerParty {
		return NewValidationError(fmt.Sprintf("timer mode %d out of range (0-2)", mode))
	}
	return e.writeByte(ctx, protocol.ExpertTimerMode, mode)
}

// SetHumiditySensor enables or disables the humidity sensor.
func (e *Expert) SetHumiditySensor(ctx context.Context, on bool) error {
	return e.writeByte(ctx, protocol.ExpertHumiditySensorActivation, boolByte(on))
}

// SetHumidityThreshold sets the humidity trigger in %RH (40-80).
func (e *Expert) SetHumidityThreshold(ctx context.Context, rh uint8) error {
	if rh < 40 || rh > 80 {
		return NewValidationError(fmt.Sprintf("humidity threshold %d%% out of range (40-80)", rh))
	}
	return e.writeByte(ctx, protocol.ExpertHumidityThreshold, rh)
}

// SetBoostDelay sets the boost deactivation delay in minutes (0-60).
func (e *Expert) SetBoostDelay(ctx context.Context, minutes uint8) error {
	if minutes > 60 {
		return NewValidationError(fmt.Sprintf("boost delay %d min out of range (0-60)", minutes))
	}
	return e.writeByte(ctx, protocol.ExpertBoostDeactivationDelay, minutes)
}

// ResetFilterTimer restarts the filter countdown.
func (e *Expert) ResetFilterTimer(ctx context.Context) error {
	return e.writeByte(ctx, protocol.ExpertResetFilterTimer, 1)
}

// ResetAlarms clears active alarms.
func (e *Expert) ResetAlarms(ctx context.Context) error {
	return e.writeByte(ctx, protocol.ExpertResetAlarms, 1)
}

func (e *Expert) writeByte(ctx context.Context, param protocol.ExpertParameter, v uint8) error {
	return e.Write(ctx, protocol.Write(param, []byte{v}))
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
