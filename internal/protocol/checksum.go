package protocol

import "encoding/binary"

// Checksum returns the 16-bit additive sum of data. Frames are checksummed
// from the protocol marker on; the 0xFD 0xFD header is never included.
func Checksum(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return sum
}

// AppendChecksum appends the little-endian checksum of frame. The sum covers
// everything after the magic header, which is how controller firmware
// computes it.
func AppendChecksum(frame []byte) []byte {
	return binary.LittleEndian.AppendUint16(frame, Checksum(checksummed(frame)))
}

// VerifyChecksum reports whether the trailing two bytes of frame match the
// checksum of the bytes before them.
func VerifyChecksum(frame []byte) bool {
	if len(frame) < headerSize+checksumSize {
		return false
	}
	body := frame[:len(frame)-checksumSize]
	want := binary.LittleEndian.Uint16(frame[len(frame)-checksumSize:])
	return Checksum(checksummed(body)) == want
}

func checksummed(frame []byte) []byte {
	if len(frame) < len(Magic) {
		return nil
	}
	return frame[len(Magic):]
}
