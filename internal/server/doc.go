// Package server bridges Vento controllers to HTTP and WebSocket clients.
//
// Home automation tools rarely speak the vendor UDP protocol. The bridge
// keeps one long-lived process on the fan's network and offers:
//   - GET  /api/devices              known devices from the config file
//   - GET  /api/devices/{id}/state   one status read, as JSON
//   - POST /api/devices/{id}/values  write parameters ({"speed": "2"})
//   - GET  /ws/{id}                  live state stream, see below
//   - GET  /metrics                  Prometheus, when a handler is configured
//
// {id} is a 16-character device id or a nickname from the config file.
//
// # WebSocket Stream
//
// After the upgrade the server sends a "state" message right away and then
// every Config.Interval. Clients may send:
//
//	{"type": "refresh"}
//	{"type": "set", "values": {"speed": "255", "manual_speed": "128"}}
//
// A set is answered with "written" (or "error") followed by a fresh state.
// A poll the device does not answer produces an "error" message with
// no_response set; the stream keeps going.
//
// # Device Resolution
//
// A device already in the registry with a last IP and family is used as is.
// Anything else is located by broadcast and classified by UNIT_TYPE, then
// saved to the registry.
//
// # Graceful Shutdown
//
// Start returns when its context is canceled: the listener closes, active
// WebSocket clients get a close frame, and in-flight handlers are awaited.
package server
