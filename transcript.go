package termchain

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
)

const DefaultRedactionPlaceholder = "[REDACTED]"

// minSecretLen is the number of visible characters a redacted value needs before its echoes are scrubbed too.
// Shorter values, like confirms and key presses, are only hidden in their own input entry.
const minSecretLen = 3

type EntryKind int

const (
	EntryOutput EntryKind = iota
	EntryInput
)

func (k EntryKind) String() string {
	switch k {
	case EntryOutput:
		return "output"
	case EntryInput:
		return "input"
	default:
		return fmt.Sprintf("EntryKind(%d)", int(k))
	}
}

// Entry is one record of a Transcript. Consecutive output is merged into a single entry.
type Entry struct {
	Kind     EntryKind
	Text     string
	Redacted bool
}

// Transcript is the diagnostic record of a session: everything the process printed and everything that was sent
// to it. Input sent while recording is paused is replaced by a placeholder, and the values themselves are scrubbed
// from every rendering, including the echo the terminal produces for them.
type Transcript struct {
	mutex       sync.Mutex
	entries     []Entry
	secrets     []string
	paused      bool
	placeholder string
}

func newTranscript(placeholder string) *Transcript {
	if placeholder == "" {
		placeholder = DefaultRedactionPlaceholder
	}
	return &Transcript{placeholder: placeholder}
}

func (t *Transcript) Pause() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.paused = true
}

func (t *Transcript) Resume() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.paused = false
}

func (t *Transcript) Paused() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.paused
}

func (t *Transcript) recordOutput(b []byte) {
	if len(b) == 0 {
		return
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if n := len(t.entries); n > 0 && t.entries[n-1].Kind == EntryOutput {
		t.entries[n-1].Text += string(b)
		return
	}
	t.entries = append(t.entries, Entry{Kind: EntryOutput, Text: string(b)})
}

// recordInput records value, redacting it when asked to or when recording is paused. It returns the text that
// was recorded.
func (t *Transcript) recordInput(value string, redact bool) string {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !redact && !t.paused {
		t.entries = append(t.entries, Entry{Kind: EntryInput, Text: value})
		return value
	}

	t.addSecret(value)
	t.entries = append(t.entries, Entry{Kind: EntryInput, Text: t.placeholder, Redacted: true})
	return t.placeholder
}

// addSecret must be called with the mutex held
func (t *Transcript) addSecret(value string) {
	for _, secret := range []string{value, strings.TrimRight(value, "\r\n")} {
		if visibleLen(secret) < minSecretLen || indexOf(t.secrets, secret) != -1 {
			continue
		}
		t.secrets = append(t.secrets, secret)
	}
	// Longest first so that a secret containing another one is replaced as a whole
	sort.SliceStable(t.secrets, func(i, j int) bool {
		return len(t.secrets[i]) > len(t.secrets[j])
	})
}

// Redact replaces every value sent while recording was paused with the placeholder
func (t *Transcript) Redact(s string) string {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.redact(s)
}

func visibleLen(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsPrint(r) && !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// RedactScreen redacts a rendered terminal screen. The terminal wraps long input over several rows, so the rows are
// read as one line with their padding dropped. The placeholder takes the place of where a secret starts and the
// rest of it is removed from the rows it spilled into.
func (t *Transcript) RedactScreen(screen string) string {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if len(t.secrets) == 0 {
		return screen
	}

	rows := strings.Split(screen, "\n")
	grid := make([][]rune, len(rows))
	var line []rune
	for r, row := range rows {
		grid[r] = []rune(strings.TrimRight(row, " \x00"))
		line = append(line, grid[r]...)
	}

	hidden := make([]bool, len(line))
	starts := make([]bool, len(line))
	for _, secret := range t.secrets {
		needle := []rune(secret)
		for i := 0; i+len(needle) <= len(line); i++ {
			if !runesAt(line, needle, i) || anyHidden(hidden[i:i+len(needle)]) {
				continue
			}
			starts[i] = true
			for j := i; j < i+len(needle); j++ {
				hidden[j] = true
			}
			i += len(needle) - 1
		}
	}

	var b strings.Builder
	pos := 0
	for r, row := range grid {
		if r > 0 {
			b.WriteByte('\n')
		}
		for _, ch := range row {
			switch {
			case starts[pos]:
				b.WriteString(t.placeholder)
			case !hidden[pos]:
				b.WriteRune(ch)
			}
			pos++
		}
	}
	return b.String()
}

func runesAt(line, needle []rune, i int) bool {
	for j, r := range needle {
		if line[i+j] != r {
			return false
		}
	}
	return true
}

func anyHidden(cells []bool) bool {
	for _, h := range cells {
		if h {
			return true
		}
	}
	return false
}

func (t *Transcript) redact(s string) string {
	for _, secret := range t.secrets {
		s = strings.ReplaceAll(s, secret, t.placeholder)
	}
	return s
}

// Entries returns a redacted copy of the recorded entries
func (t *Transcript) Entries() []Entry {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	entries := make([]Entry, len(t.entries))
	for i, entry := range t.entries {
		entry.Text = t.redact(entry.Text)
		entries[i] = entry
	}
	return entries
}

// String renders the transcript, output verbatim and input on lines of its own prefixed with "> "
func (t *Transcript) String() string {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	var b strings.Builder
	for _, entry := range t.entries {
		switch entry.Kind {
		case EntryOutput:
			b.WriteString(entry.Text)
		case EntryInput:
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "> %q\n", entry.Text)
		}
	}
	return t.redact(b.String())
}
