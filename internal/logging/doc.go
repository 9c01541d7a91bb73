// Package logging provides structured logging for ventoctl.
//
// This package wraps a global zap logger with convenience functions. The CLI
// is silent by default; set VENTO_LOG_LEVEL to debug, info, warn or error to
// get console logs on stderr. Setting VENTO_LOG_FILE as well sends JSON logs
// to a size-rotated file instead.
//
// # Structured Logging
//
//	logging.Debug("Discarded datagram",
//	    zap.String("from", addr.String()),
//	    zap.Error(err),
//	)
//
// # Datagram Logging
//
// LogDatagram records every frame the transport sends or receives, with a
// hex dump, but only when debug logging is on:
//
//	logging.LogDatagram("sent", "192.168.1.50:4000", frame)
//
// Call Sync before the process exits to flush buffered entries.
package logging
