// Package ui renders ventoctl's terminal output.
//
// Commands print through a Printer: a bordered Header describing the device,
// then either a Result box (success, warning, failure with troubleshooting
// bullets) or plain aligned details. Everything is styled with Lipgloss and
// degrades to plain text when stdout is not a terminal.
//
// The watch command runs WatchModel, a Bubble Tea program that polls a fan
// on an interval:
//
//	header := ui.NewHeader("Vento Expert", "ventoctl watch", ui.Detail{Key: "Device", Value: id})
//	err := ui.RunWatch(ctx, header, 2*time.Second, func(ctx context.Context) (*ui.Snapshot, error) {
//	    state, err := fan.State(ctx)
//	    ...
//	})
//
// A silent device is shown as a warning with the count of missed polls,
// and the last good state stays on screen. Other errors are shown in red.
//
// PickerModel is the interactive front of the pick command: it scans, lists
// the controllers as cards and accepts a typed IP for fans the broadcast
// cannot reach. RunPicker returns the chosen device, or nil if the user quit.
//
// # Logging Integration
//
// zap logging is silent unless VENTO_LOG_LEVEL is set, so log lines do not
// tear the screen. Set VENTO_LOG_FILE to keep debug output while watching.
package ui
