package termchain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_outputConsumer(t *testing.T) {
	errConsumer := errors.New("consumer error")

	tests := []struct {
		name          string
		match         func(buffer string) (int, error)
		reports       []string
		wantSeen      []string
		wantEndPos    int
		wantReportErr error
		wantWaitErr   error
	}{
		{
			name:       "First report matches",
			match:      func(buffer string) (int, error) { return len(buffer), nil },
			reports:    []string{"Enter name:"},
			wantSeen:   []string{"Enter name:"},
			wantEndPos: len("Enter name:"),
		},
		{
			name:       "Match on a later report",
			match:      func(buffer string) (int, error) { return indexEndPos(buffer, "three"), nil },
			reports:    []string{"one", "one two", "one two three"},
			wantSeen:   []string{"one", "one two", "one two three"},
			wantEndPos: len("one two three"),
		},
		{
			name:       "Reports after the match are ignored",
			match:      func(buffer string) (int, error) { return 1, nil },
			reports:    []string{"a", "ab", "abc"},
			wantSeen:   []string{"a"},
			wantEndPos: 0,
		},
		{
			name:          "Consumer error",
			match:         func(string) (int, error) { return 0, errConsumer },
			reports:       []string{"boom"},
			wantSeen:      []string{"boom"},
			wantReportErr: errConsumer,
			wantWaitErr:   errConsumer,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := []string{}
			oc := newOutputConsumer(func(buffer string) (int, error) {
				seen = append(seen, buffer)
				return tt.match(buffer)
			}, time.Second, testLog(t))

			done := make(chan struct{})
			var lastEndPos int
			go func() {
				defer close(done)
				for _, report := range tt.reports {
					endPos, err := oc.report([]byte(report))
					assert.ErrorIs(t, err, tt.wantReportErr)
					lastEndPos = endPos
				}
			}()

			require.ErrorIs(t, oc.wait(context.Background()), tt.wantWaitErr)
			<-done

			assert.Equal(t, tt.wantSeen, seen)
			assert.Equal(t, tt.wantEndPos, lastEndPos)
			assert.False(t, oc.pending())
		})
	}
}

func Test_outputConsumer_endPosBeyondBuffer(t *testing.T) {
	oc := newOutputConsumer(func(buffer string) (int, error) {
		return len(buffer) + 1, nil
	}, time.Second, testLog(t))

	_, err := oc.report([]byte("short"))
	require.ErrorContains(t, err, "past the end")
	require.Error(t, oc.wait(context.Background()))
}

func Test_outputConsumer_timeout(t *testing.T) {
	oc := newOutputConsumer(func(string) (int, error) { return 0, nil }, 50*time.Millisecond, testLog(t))

	start := time.Now()
	require.ErrorIs(t, oc.wait(context.Background()), TimeoutError)
	assert.Less(t, time.Since(start), time.Second)

	endPos, err := oc.report([]byte("too late"))
	assert.NoError(t, err)
	assert.Zero(t, endPos, "a consumer that timed out cannot match anymore")
}

func Test_outputConsumer_canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	oc := newOutputConsumer(func(string) (int, error) { return 0, nil }, time.Minute, testLog(t))
	require.ErrorIs(t, oc.wait(ctx), context.Canceled)
	assert.False(t, oc.pending())
}

func Test_outputConsumer_closedOnce(t *testing.T) {
	oc := newOutputConsumer(func(string) (int, error) { return 0, nil }, time.Second, testLog(t))
	oc.close(errOutputClosed)
	oc.close(errors.New("second close is ignored"))

	require.ErrorIs(t, oc.wait(context.Background()), errOutputClosed)
}
