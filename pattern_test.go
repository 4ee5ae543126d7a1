package termchain

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Pattern_Match(t *testing.T) {
	tests := []struct {
		name       string
		pattern    Pattern
		buffer     string
		wantEndPos int
		wantOk     bool
	}{
		{"Literal", Literal("name:"), "Enter name: ", 11, true},
		{"Literal earliest occurrence", Literal("ab"), "xabab", 3, true},
		{"Literal no match", Literal("region"), "Enter name: ", 0, false},
		{"Empty literal never matches", Literal(""), "anything", 0, false},
		{"Regexp", MustRegexp(`v\d+\.\d+`), "bash v5.2 ready", 9, true},
		{"Regexp no match", MustRegexp(`\d{3}`), "12", 0, false},
		{"Regexp zero length matches are skipped", MustRegexp(`x*y?`), "abcy", 4, true},
		{"Regexp only zero length matches", MustRegexp(`x*`), "abc", 0, false},
		{"Regexp from compiled", Regexp(regexp.MustCompile(`^Enter`)), "Enter name:", 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endPos, ok := tt.pattern.Match(tt.buffer)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.wantEndPos, endPos)
		})
	}
}

func Test_Pattern_String(t *testing.T) {
	assert.Equal(t, `"Enter name:"`, Literal("Enter name:").String())
	assert.Equal(t, `/\d+/`, MustRegexp(`\d+`).String())
}

func Test_patternConsumer(t *testing.T) {
	consume := patternConsumer(Literal("b"))
	endPos, err := consume("abc")
	assert.NoError(t, err)
	assert.Equal(t, 2, endPos)

	endPos, err = consume("xyz")
	assert.NoError(t, err)
	assert.Equal(t, 0, endPos)
}
