package termchain

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// consumer inspects the output that has not been matched yet. It returns the position right after its match, zero
// while it has not matched, or an error that ends the wait.
type consumer func(buffer string) (matchEndPos int, err error)

// outputConsumer is a single pending wait on the output. It resolves exactly once: with a match, a consumer error,
// the end of the output, a timeout or a canceled context.
type outputConsumer struct {
	id       string // names the consumer in tests
	match    consumer
	timeout  time.Duration
	logger   *log.Logger
	result   chan error
	resolved bool
	mutex    sync.Mutex
}

func newOutputConsumer(match consumer, timeout time.Duration, logger *log.Logger) *outputConsumer {
	return &outputConsumer{
		match:   match,
		timeout: timeout,
		logger:  logger,
		result:  make(chan error, 1),
	}
}

func (c *outputConsumer) pending() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return !c.resolved
}

// report hands buffer to the consumer. A resolved consumer ignores it and reports no match.
func (c *outputConsumer) report(buffer []byte) (int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.resolved {
		return 0, nil
	}

	endPos, err := c.match(string(buffer))
	switch {
	case err != nil:
		err = fmt.Errorf("consumer failed: %w", err)
	case endPos > len(buffer):
		err = fmt.Errorf("consumer matched up to %d, past the end of the %d byte buffer", endPos, len(buffer))
	case endPos == 0:
		return 0, nil
	}

	c.logger.Printf("consumer resolved at %d: %v", endPos, err)
	c.resolveLocked(err)
	return endPos, err
}

func (c *outputConsumer) close(err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.resolveLocked(err)
}

func (c *outputConsumer) resolveLocked(err error) {
	if c.resolved {
		return
	}
	c.resolved = true
	c.result <- err
}

// wait blocks until the consumer resolves
func (c *outputConsumer) wait(ctx context.Context) error {
	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	var cause error
	select {
	case err := <-c.result:
		return err
	case <-timer.C:
		cause = fmt.Errorf("after %s: %w", c.timeout, TimeoutError)
	case <-ctx.Done():
		cause = ctx.Err()
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.resolved {
		// resolved while the timer fired, the match wins
		return <-c.result
	}
	c.resolved = true
	c.logger.Printf("consumer gave up: %v", cause)
	return cause
}
