package process

import "bytes"

const sniffLen = 512

// looksBinary checks the first bytes of data for NUL bytes or a high ratio
// of control characters. Bytes above 0x7f are treated as text so UTF-8
// sources are not flagged.
func looksBinary(data []byte) bool {
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	if len(data) == 0 {
		return false
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return true
	}
	control := 0
	for _, b := range data {
		if (b < 32 && b != '\n' && b != '\r' && b != '\t' && b != '\f') || b == 0x7f {
			control++
		}
	}
	return float64(control)/float64(len(data)) > 0.3
}
