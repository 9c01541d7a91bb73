// Package protocol implements the Blauberg Vento UDP wire protocol.
//
// This package handles encoding, decoding and validation of the binary frames
// exchanged with Vento Expert and Smart Wi-Fi ventilation controllers. It is
// pure: no I/O, no shared state. Sockets live in the transport package.
//
// # Frame Layout
//
// Every frame, request or response, has this structure:
//   - Magic header: 0xFD 0xFD
//   - Protocol marker: 0x02
//   - Device ID: 1 length byte + up to 16 ASCII bytes
//   - Password: 1 length byte + up to 8 ASCII bytes
//   - Function code: 1 byte (READ, WRITE, WRITEREAD, INCREAD, DECREAD, RESPONSE)
//   - Entries: parameter id followed by its value, if the function carries values
//   - Checksum: 2 bytes, little-endian additive sum
//
// The checksum covers everything from the protocol marker up to the last entry
// byte. Controllers ignore frames with a bad checksum.
//
// # Entries
//
// The width of a value is not on the wire; it comes from the parameter
// catalog of the device family. Three markers break that rule:
//   - 0xFE len id value: explicit value size, used for strings
//   - 0xFD id: the controller does not implement the parameter
//   - 0xFF page: switch parameter page (only page 0 is cataloged)
//
// # Parameter Catalogs
//
// The two families reuse the same numeric ids for unrelated attributes. Each
// catalog is its own type (ExpertParameter, SmartWiFiParameter) and packets
// are generic over it, so a Packet[ExpertParameter] can never carry a Smart
// Wi-Fi entry:
//
//	pkt := protocol.NewReadPacket(id, pw, protocol.ExpertOnOff, protocol.ExpertSpeed)
//	frame, err := protocol.Encode(pkt)
//
//	resp, err := protocol.Decode[protocol.ExpertParameter](datagram)
//	if e, ok := resp.Entry(protocol.ExpertSpeed); ok {
//	    fmt.Println("speed", e.Uint())
//	}
//
// # Error Handling
//
// Every codec failure is a *FrameError wrapping one sentinel:
//   - ErrTruncated, ErrBadHeader, ErrProtocolMismatch: not a protocol frame
//   - ErrBadCredentials, ErrUnknownFunction: malformed fields
//   - ErrChecksumMismatch: corrupted frame
//   - ErrUnknownParameter, ErrValueSize: entry width cannot be trusted
//
// Use errors.Is to classify. A frame that fails is never partially returned.
package protocol
