package protocol

// Markers that may precede an entry inside the entry section.
const (
	markerUnsupported = 0xFD // next byte is a parameter the device does not implement
	markerSize        = 0xFE // next bytes are value size, parameter id, value
	markerPage        = 0xFF // next byte selects the parameter page
)

// Encode serializes p into a wire frame. Encoding is deterministic. It fails
// for invalid function codes, parameters outside the catalog, and values whose
// width does not match the catalog.
func Encode[P ParameterID](p *Packet[P]) ([]byte, error) {
	if !p.Function.Valid() {
		return nil, frameErr(ErrUnknownFunction, -1, "0x%02X", byte(p.Function))
	}

	id := truncate(p.DeviceID, MaxDeviceIDLength)
	pw := truncate(p.Password, MaxPasswordLength)

	buf := make([]byte, 0, minFrameSize+len(id)+len(pw)+4*len(p.Entries))
	buf = append(buf, Magic[:]...)
	buf = append(buf, ProtocolMarker)
	buf = append(buf, byte(len(id)))
	buf = append(buf, id...)
	buf = append(buf, byte(len(pw)))
	buf = append(buf, pw...)
	buf = append(buf, byte(p.Function))

	for i, e := range p.Entries {
		var err error
		buf, err = appendEntry(buf, p.Function, e)
		if err != nil {
			return nil, frameErr(err, len(buf), "entry %d (%s)", i, e.Parameter)
		}
	}

	return AppendChecksum(buf), nil
}

func appendEntry[P ParameterID](buf []byte, fn FunctionType, e DataEntry[P]) ([]byte, error) {
	param := e.Parameter
	if !param.Known() {
		return buf, ErrUnknownParameter
	}

	if e.Unsupported {
		if fn != FunctionResponse || e.HasValue() {
			return buf, ErrValueSize
		}
		return append(buf, markerUnsupported, byte(param)), nil
	}

	if !fn.carriesValues() {
		if e.HasValue() {
			return buf, ErrValueSize
		}
		return append(buf, byte(param)), nil
	}

	size := param.Size()
	if size == SizeVariable {
		if len(e.Value) > MaxValueSize {
			return buf, ErrValueSize
		}
		buf = append(buf, markerSize, byte(len(e.Value)), byte(param))
		return append(buf, e.Value...), nil
	}
	if len(e.Value) != int(size) {
		return buf, ErrValueSize
	}
	buf = append(buf, byte(param))
	return append(buf, e.Value...), nil
}

// Decode parses a wire frame. Checks run in order: length, magic header,
// protocol marker, credentials, function code, checksum, entries. An entry
// whose width cannot be determined from catalog P fails the whole frame
// rather than desynchronizing the rest of it.
func Decode[P ParameterID](data []byte) (*Packet[P], error) {
	if len(data) < minFrameSize {
		return nil, frameErr(ErrTruncated, len(data), "%d bytes, need at least %d", len(data), minFrameSize)
	}
	if data[0] != Magic[0] || data[1] != Magic[1] {
		return nil, frameErr(ErrBadHeader, 0, "got % X", data[:2])
	}
	if data[2] != ProtocolMarker {
		return nil, frameErr(ErrProtocolMismatch, 2, "got 0x%02X", data[2])
	}

	end := len(data) - checksumSize
	off := headerSize

	id, off, err := readCredential(data[:end], off, MaxDeviceIDLength)
	if err != nil {
		return nil, err
	}
	pw, off, err := readCredential(data[:end], off, MaxPasswordLength)
	if err != nil {
		return nil, err
	}

	if off >= end {
		return nil, frameErr(ErrTruncated, off, "missing function code")
	}
	fn := FunctionType(data[off])
	if !fn.Valid() {
		return nil, frameErr(ErrUnknownFunction, off, "0x%02X", data[off])
	}
	off++

	if !VerifyChecksum(data) {
		return nil, frameErr(ErrChecksumMismatch, end, "got 0x%04X, computed 0x%04X",
			uint16(data[end])|uint16(data[end+1])<<8, Checksum(data[len(Magic):end]))
	}

	entries, err := decodeEntries[P](data[:end], off, fn)
	if err != nil {
		return nil, err
	}

	return &Packet[P]{DeviceID: id, Password: pw, Function: fn, Entries: entries}, nil
}

func readCredential(data []byte, off, capacity int) (string, int, error) {
	if off >= len(data) {
		return "", off, frameErr(ErrTruncated, off, "missing credential length")
	}
	n := int(data[off])
	if n > capacity {
		return "", off, frameErr(ErrBadCredentials, off, "length %d exceeds %d", n, capacity)
	}
	off++
	if off+n > len(data) {
		return "", off, frameErr(ErrTruncated, off, "credential needs %d bytes", n)
	}
	return string(data[off : off+n]), off + n, nil
}

func decodeEntries[P ParameterID](data []byte, off int, fn FunctionType) ([]DataEntry[P], error) {
	var entries []DataEntry[P]
	for off < len(data) {
		start := off
		b := data[off]
		off++

		switch b {
		case markerPage:
			if off >= len(data) {
				return nil, frameErr(ErrTruncated, start, "page marker without page")
			}
			if data[off] != 0 {
				return nil, frameErr(ErrUnknownParameter, off, "parameter page %d", data[off])
			}
			off++
			continue

		case markerUnsupported:
			if fn != FunctionResponse {
				return nil, frameErr(ErrUnknownParameter, start, "unsupported marker in %s", fn)
			}
			if off >= len(data) {
				return nil, frameErr(ErrTruncated, start, "unsupported marker without parameter")
			}
			param := P(data[off])
			if !param.Known() {
				return nil, frameErr(ErrUnknownParameter, off, "0x%02X", data[off])
			}
			off++
			entries = append(entries, DataEntry[P]{Parameter: param, Unsupported: true})
			continue

		case markerSize:
			if !fn.carriesValues() {
				return nil, frameErr(ErrUnknownParameter, start, "size marker in %s", fn)
			}
			if off+2 > len(data) {
				return nil, frameErr(ErrTruncated, start, "size marker without size and parameter")
			}
			n := int(data[off])
			param := P(data[off+1])
			if !param.Known() {
				return nil, frameErr(ErrUnknownParameter, off+1, "0x%02X", data[off+1])
			}
			if size := param.Size(); size.Fixed() && int(size) != n {
				return nil, frameErr(ErrValueSize, off, "%s is %d bytes, marker says %d", param, size, n)
			}
			off += 2
			if off+n > len(data) {
				return nil, frameErr(ErrTruncated, off, "%s needs %d bytes", param, n)
			}
			entries = append(entries, DataEntry[P]{Parameter: param, Value: cloneValue(data[off : off+n])})
			off += n
			continue
		}

		param := P(b)
		if !param.Known() {
			return nil, frameErr(ErrUnknownParameter, start, "0x%02X", b)
		}
		if !fn.carriesValues() {
			entries = append(entries, DataEntry[P]{Parameter: param})
			continue
		}

		size := param.Size()
		if !size.Fixed() {
			return nil, frameErr(ErrValueSize, start, "%s has no size marker", param)
		}
		if off+int(size) > len(data) {
			return nil, frameErr(ErrTruncated, off, "%s needs %d bytes", param, size)
		}
		entries = append(entries, DataEntry[P]{Parameter: param, Value: cloneValue(data[off : off+int(size)])})
		off += int(size)
	}
	return entries, nil
}

func cloneValue(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
