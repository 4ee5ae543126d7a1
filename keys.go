package termchain

import (
	"fmt"
	"strings"
)

// Key sequences as a terminal in normal cursor mode sends them
const (
	KeyEnter     = "\r"
	KeyTab       = "\t"
	KeyBackspace = "\x7f"
	KeyEscape    = "\x1b"
	KeySpace     = " "
	KeyUp        = "\x1b[A"
	KeyDown      = "\x1b[B"
	KeyRight     = "\x1b[C"
	KeyLeft      = "\x1b[D"
	KeyHome      = "\x1b[H"
	KeyEnd       = "\x1b[F"
	KeyDelete    = "\x1b[3~"
	KeyPageUp    = "\x1b[5~"
	KeyPageDown  = "\x1b[6~"
	KeyCtrlC     = "\x03"
	KeyCtrlD     = "\x04" // End Of Transmission, closes stdin of a reading program
)

var keyNames = map[string]string{
	"enter":     KeyEnter,
	"return":    KeyEnter,
	"tab":       KeyTab,
	"backspace": KeyBackspace,
	"esc":       KeyEscape,
	"escape":    KeyEscape,
	"space":     KeySpace,
	"up":        KeyUp,
	"down":      KeyDown,
	"right":     KeyRight,
	"left":      KeyLeft,
	"home":      KeyHome,
	"end":       KeyEnd,
	"delete":    KeyDelete,
	"pgup":      KeyPageUp,
	"pgdown":    KeyPageDown,
	"ctrl+c":    KeyCtrlC,
	"ctrl+d":    KeyCtrlD,
}

// LookupKey returns the sequence for a friendly key name such as "down" or "ctrl+c"
func LookupKey(name string) (string, error) {
	if seq, ok := keyNames[strings.ToLower(name)]; ok {
		return seq, nil
	}
	return "", fmt.Errorf("unknown key: %s", name)
}
