// Package controller provides high-level control of Blauberg Vento fans.
//
// A Controller wraps a transport.Client for one device family and one
// Target (device id, IP, password). Expert and SmartWiFi embed it and add
// the typed state read and setters the vendor app offers for each family.
//
// # Reads and Writes
//
// Reads are one READ datagram with every wanted parameter; the reply is
// mapped into ExpertState or SmartWiFiState. Missing or unsupported
// parameters read as zero and are listed in the state's unsupported field.
// The power parameter is required: a reply without it is rejected.
//
// Writes use WRITE, which devices never acknowledge. Callers that need
// confirmation read the state back afterwards, or use WriteRead.
//
//	client := transport.NewClient[protocol.ExpertParameter]()
//	fan := controller.NewExpert(client, controller.Target{ID: id, IP: ip, Password: "1111"})
//	if err := fan.SetSpeedMode(ctx, controller.SpeedHigh); err != nil {
//	    return err
//	}
//	state, err := fan.State(ctx)
//
// # Error Handling
//
// Every failure other than context cancellation is a *DeviceError. The
// Is* predicates classify it and GetTroubleshootingHint gives the user a
// next step. A device that stays silent for the whole reply window
// produces a no-response error; the most common cause is a wrong
// password, since controllers drop such requests without answering.
package controller
