package termchain

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern recognizes an expected prompt in process output.
type Pattern interface {
	// Match returns the position right after the earliest match in buffer
	Match(buffer string) (endPos int, ok bool)
	String() string
}

type literalPattern string

// Literal matches the given text verbatim
func Literal(value string) Pattern {
	return literalPattern(value)
}

func (p literalPattern) Match(buffer string) (int, bool) {
	if p == "" {
		return 0, false
	}
	idx := strings.Index(buffer, string(p))
	if idx == -1 {
		return 0, false
	}
	return idx + len(p), true
}

func (p literalPattern) String() string {
	return fmt.Sprintf("%q", string(p))
}

type regexpPattern struct {
	rx *regexp.Regexp
}

// Regexp matches the given regular expression. Matches of zero length are ignored.
func Regexp(rx *regexp.Regexp) Pattern {
	return regexpPattern{rx}
}

// MustRegexp compiles expr and panics if it is invalid
func MustRegexp(expr string) Pattern {
	return Regexp(regexp.MustCompile(expr))
}

func (p regexpPattern) Match(buffer string) (int, bool) {
	for offset := 0; offset <= len(buffer); {
		idx := p.rx.FindStringIndex(buffer[offset:])
		if idx == nil {
			return 0, false
		}
		if idx[1] > idx[0] {
			return offset + idx[1], true
		}
		offset += idx[0] + 1
	}
	return 0, false
}

func (p regexpPattern) String() string {
	return fmt.Sprintf("/%s/", p.rx.String())
}

// patternConsumer adapts a Pattern to the consumer interface of the output producer
func patternConsumer(p Pattern) consumer {
	return func(buffer string) (int, error) {
		endPos, ok := p.Match(buffer)
		if !ok {
			return 0, nil
		}
		return endPos, nil
	}
}
