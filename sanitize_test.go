package termchain

import (
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_stripEscapeSequences(t *testing.T) {
	tests := []struct {
		name      string
		b         string
		wantClean string
		wantRest  string
	}{
		{"Plain", "Hello", "Hello", ""},
		{"Color", "\x1b[1;32mHello\x1b[0m", "Hello", ""},
		{"Cursor movement", "a\x1b[2Kb\x1b[1Ac", "abc", ""},
		{"Window title with BEL", "\x1b]0;C:\\Temp\\python3.exe\x07Hello", "Hello", ""},
		{"Window title with ST", "\x1b]0;title\x1b\\Hello", "Hello", ""},
		{"Charset designation", "\x1b(BHello", "Hello", ""},
		{"Two byte sequence", "\x1b=Hello\x1b>", "Hello", ""},
		{"Cut off CSI", "Hello\x1b[1;3", "Hello", "\x1b[1;3"},
		{"Cut off ESC", "Hello\x1b", "Hello", "\x1b"},
		{"Cut off OSC", "Hello\x1b]0;tit", "Hello", "\x1b]0;tit"},
		{"Cut off charset", "Hello\x1b(", "Hello", "\x1b("},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clean, rest := stripEscapeSequences([]byte(tt.b))
			assert.Equal(t, tt.wantClean, string(clean))
			assert.Equal(t, tt.wantRest, string(rest))
		})
	}
}

func Test_normalizeLineEnds(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"foo\nbar", "foo\nbar"},
		{"foo\r\nbar", "foo\nbar"},
		{"foo\r\r\nbar", "foo\nbar"},
		{"progress\r50%\r\n", "progress\r50%\n"},
		{"\r", "\r"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, string(normalizeLineEnds([]byte(tt.in))), "%q", tt.in)
	}
}

func Test_isClosedError(t *testing.T) {
	assert.True(t, isClosedError(io.EOF))
	assert.True(t, isClosedError(fs.ErrClosed))
	assert.False(t, isClosedError(io.ErrUnexpectedEOF))
}
