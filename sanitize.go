package termchain

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
)

type cleanerFunc func([]byte) ([]byte, error)

const esc = 0x1b

// stripEscapeSequences removes ANSI/VT escape sequences (CSI, OSC, charset designators and plain two byte
// sequences) from b. A sequence that is cut off at the end of b is returned as rest so it can be completed by the
// next read.
func stripEscapeSequences(b []byte) (clean []byte, rest []byte) {
	if bytes.IndexByte(b, esc) == -1 {
		return b, nil
	}

	clean = make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != esc {
			clean = append(clean, b[i])
			continue
		}

		end := escapeSequenceEnd(b, i)
		if end == -1 {
			return clean, b[i:]
		}
		i = end
	}
	return clean, nil
}

// escapeSequenceEnd returns the index of the last byte of the escape sequence starting at start,
// or -1 if b ends before the sequence does
func escapeSequenceEnd(b []byte, start int) int {
	if start+1 >= len(b) {
		return -1
	}

	switch b[start+1] {
	case '[': // CSI, terminated by a byte in 0x40-0x7E
		for i := start + 2; i < len(b); i++ {
			if b[i] >= 0x40 && b[i] <= 0x7e {
				return i
			}
		}
		return -1
	case ']': // OSC, terminated by BEL or ST (ESC \)
		for i := start + 2; i < len(b); i++ {
			if b[i] == 0x07 {
				return i
			}
			if b[i] == esc {
				if i+1 >= len(b) {
					return -1
				}
				if b[i+1] == '\\' {
					return i + 1
				}
			}
		}
		return -1
	case '(', ')', '*', '+': // G0-G3 charset designation
		if start+2 >= len(b) {
			return -1
		}
		return start + 2
	default:
		return start + 1
	}
}

// normalizeLineEnds turns \r\n, and the \r\r\n a pty makes of it, into \n
func normalizeLineEnds(b []byte) []byte {
	if bytes.IndexByte(b, '\r') == -1 {
		return b
	}

	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] == '\r' {
			j := i
			for j < len(b) && b[j] == '\r' {
				j++
			}
			if j < len(b) && b[j] == '\n' {
				i = j - 1
				continue
			}
		}
		out = append(out, b[i])
	}
	return out
}

func isClosedError(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, fs.ErrClosed)
}
