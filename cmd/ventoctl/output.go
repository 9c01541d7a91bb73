package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/muurk/ventoctl/internal/controller"
	"github.com/muurk/ventoctl/internal/discovery"
	"github.com/muurk/ventoctl/internal/protocol"
	"github.com/muurk/ventoctl/internal/ui"
)

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func expertDetails(s *controller.ExpertState) []ui.Detail {
	d := []ui.Detail{
		{Key: "Power", Value: onOff(s.Power)},
		{Key: "Speed", Value: s.SpeedModeLabel()},
		{Key: "Manual speed", Value: fmt.Sprintf("%d%%", s.ManualSpeedPercent)},
		{Key: "Fan", Value: fmt.Sprintf("%d rpm", s.FanRPM)},
		{Key: "Mode", Value: s.VentilationModeLabel()},
		{Key: "Boost", Value: fmt.Sprintf("%s (delay %d min)", onOff(s.Boost), s.BoostDelayMinutes)},
		{Key: "Timer", Value: fmt.Sprintf("%s %s", s.TimerModeLabel(), s.TimerCountdown)},
		{Key: "Humidity", Value: fmt.Sprintf("%d%% (threshold %d%%)", s.Humidity, s.HumidityThreshold)},
		{Key: "Humidity sensor", Value: humiditySensorLabel(s.HumiditySensor)},
		{Key: "Filter", Value: fmt.Sprintf("%s left", s.FilterTimer)},
		{Key: "Filter alarm", Value: onOff(s.FilterAlarm)},
		{Key: "Alarm", Value: s.AlarmLabel()},
		{Key: "Unit", Value: s.UnitTypeLabel},
	}
	if len(s.UnsupportedParameter) > 0 {
		d = append(d, ui.Detail{Key: "Unsupported", Value: strings.Join(s.UnsupportedParameter, ", ")})
	}
	return d
}

func humiditySensorLabel(v uint8) string {
	switch v {
	case 0:
		return "off"
	case 1:
		return "on"
	case 2:
		return "toggle"
	default:
		return fmt.Sprintf("unknown (%d)", v)
	}
}

func smartWiFiDetails(s *controller.SmartWiFiState) []ui.Detail {
	battery := "ok"
	if !s.BatteryOK {
		battery = "low"
	}
	d := []ui.Detail{
		{Key: "Power", Value: onOff(s.Power)},
		{Key: "Fan", Value: fmt.Sprintf("%d rpm", s.RPM)},
		{Key: "Boost", Value: fmt.Sprintf("%s %s", onOff(s.Boost), s.BoostCountdown)},
		{Key: "Max speed", Value: fmt.Sprintf("%d%%", s.MaxSpeed)},
		{Key: "Silent", Value: fmt.Sprintf("%s at %d%% (active: %s)", onOff(s.SilentModeEnabled), s.SilentSpeed, onOff(s.SilentActive))},
		{Key: "Interval", Value: fmt.Sprintf("%s at %d%% (active: %s)", onOff(s.IntervalModeEnabled), s.IntervalSpeed, onOff(s.IntervalActive))},
		{Key: "Humidity sensor", Value: fmt.Sprintf("%s (triggered: %s)", onOff(s.HumiditySensor), onOff(s.HumidityTriggered))},
		{Key: "Temperature sensor", Value: fmt.Sprintf("%s (triggered: %s)", onOff(s.TempSensor), onOff(s.TempTriggered))},
		{Key: "Motion sensor", Value: fmt.Sprintf("%s (triggered: %s)", onOff(s.MotionSensor), onOff(s.MotionTriggered))},
		{Key: "External switch", Value: onOff(s.ExternalSwitch)},
		{Key: "Battery", Value: battery},
		{Key: "Unit type", Value: strconv.Itoa(int(s.UnitType))},
	}
	if len(s.UnsupportedParameter) > 0 {
		d = append(d, ui.Detail{Key: "Unsupported", Value: strings.Join(s.UnsupportedParameter, ", ")})
	}
	return d
}

// expertSnapshot shows manual speed on the gauge, or the preset step.
func expertSnapshot(s *controller.ExpertState) *ui.Snapshot {
	snap := &ui.Snapshot{Details: expertDetails(s), Gauge: -1}
	if !s.Power {
		snap.Gauge, snap.GaugeLabel = 0, "off"
		return snap
	}
	switch s.SpeedMode {
	case controller.SpeedManual:
		snap.Gauge = float64(s.ManualSpeedPercent) / 100
		snap.GaugeLabel = fmt.Sprintf("manual %d%%", s.ManualSpeedPercent)
	case controller.SpeedLow, controller.SpeedMedium, controller.SpeedHigh:
		snap.Gauge = float64(s.SpeedMode) / 3
		snap.GaugeLabel = s.SpeedModeLabel()
	}
	return snap
}

// maxSmartWiFiRPM is the top of the CURRENT_RPM range.
const maxSmartWiFiRPM = 6000

func smartWiFiSnapshot(s *controller.SmartWiFiState) *ui.Snapshot {
	g := float64(s.RPM) / maxSmartWiFiRPM
	if g > 1 {
		g = 1
	}
	return &ui.Snapshot{
		Details:    smartWiFiDetails(s),
		Gauge:      g,
		GaugeLabel: fmt.Sprintf("%d rpm", s.RPM),
	}
}

func deviceDetails(d *discovery.Device) []ui.Detail {
	details := []ui.Detail{
		{Key: "ID", Value: d.ID},
		{Key: "Address", Value: fmt.Sprintf("%s:%d", d.IP, d.Port)},
	}
	if d.Classified() {
		details = append(details,
			ui.Detail{Key: "Family", Value: d.Family.String()},
			ui.Detail{Key: "Unit type", Value: strconv.Itoa(int(d.UnitType))},
		)
	}
	if known := registry.GetDevice(d.ID); known != nil && known.Nickname != "" {
		details = append(details, ui.Detail{Key: "Nickname", Value: known.Nickname})
	}
	return details
}

func entryDetails[P protocol.ParameterID](entries []protocol.DataEntry[P]) []ui.Detail {
	details := make([]ui.Detail, 0, len(entries))
	for _, e := range entries {
		details = append(details, ui.Detail{Key: e.Parameter.String(), Value: protocol.FormatValue(e)})
	}
	return details
}

// entryJSON is how a parameter value is reported with --format json.
type entryJSON struct {
	Parameter   string `json:"parameter"`
	ID          uint8  `json:"id"`
	Value       string `json:"value,omitempty"`
	Raw         string `json:"raw,omitempty"`
	Unsupported bool   `json:"unsupported,omitempty"`
}

func entriesJSON[P protocol.ParameterID](entries []protocol.DataEntry[P]) []entryJSON {
	out := make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		j := entryJSON{Parameter: e.Parameter.String(), ID: uint8(e.Parameter), Unsupported: e.Unsupported}
		if e.HasValue() {
			j.Value = protocol.FormatValue(e)
			j.Raw = hex.EncodeToString(e.Value)
		}
		out = append(out, j)
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeRaw prints a decoded packet followed by its wire bytes.
func writeRaw[P protocol.ParameterID](w io.Writer, pkt *protocol.Packet[P]) error {
	frame, err := protocol.Encode(pkt)
	if err != nil {
		return err
	}
	fmt.Fprint(w, protocol.FormatPacket(pkt))
	fmt.Fprint(w, protocol.HexDump(frame))
	return nil
}

// parseAssignments reads "PARAM VALUE" pairs.
func parseAssignments[P protocol.ParameterID](args []string) ([]protocol.DataEntry[P], error) {
	if len(args) == 0 || len(args)%2 != 0 {
		return nil, fmt.Errorf("expected PARAM VALUE pairs, got %d arguments", len(args))
	}
	entries := make([]protocol.DataEntry[P], 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		e, err := protocol.ParseAssignment[P](args[i], args[i+1])
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseParams[P protocol.ParameterID](args []string) ([]P, error) {
	params := make([]P, 0, len(args))
	for _, a := range args {
		p, err := protocol.ParseParameter[P](a)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}
