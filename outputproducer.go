package termchain

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// producerBufferSize is the maximum number of bytes read from the pty at once
const producerBufferSize = 1024

// errOutputClosed is handed to consumers that are still waiting when the output reached its end
var errOutputClosed = errors.New("output closed before consumer was satisfied")

// outputProducer is responsible for keeping track of the output and notifying consumers when new output is produced
type outputProducer struct {
	output     []byte
	cursor     int    // start of the output that has not been matched against yet
	held       []byte // tail of the last read that could not be sanitized yet
	consumers  []*outputConsumer
	stopped    bool
	opts       *Opts
	transcript *Transcript
	mutex      *sync.Mutex
}

func newOutputProducer(opts *Opts, transcript *Transcript) *outputProducer {
	return &outputProducer{
		output:     []byte{},
		consumers:  []*outputConsumer{},
		opts:       opts,
		transcript: transcript,
		mutex:      &sync.Mutex{},
	}
}

// Listen reads r until it is exhausted, mirroring everything it reads to w
func (o *outputProducer) Listen(r io.Reader, w io.Writer) error {
	return o.listen(r, w, o.appendBuffer, producerBufferSize)
}

func (o *outputProducer) listen(r io.Reader, w io.Writer, appendBuffer func([]byte, bool) error, size int) error {
	o.opts.Logger.Println("listen started")
	defer o.opts.Logger.Println("listen stopped")

	snapshot := make([]byte, size)
	for {
		n, err := r.Read(snapshot)
		if n > 0 {
			o.opts.Logger.Printf("outputProducer read %d bytes from pty", n)
			if _, werr := w.Write(snapshot[:n]); werr != nil {
				o.opts.Logger.Printf("could not write to terminal: %v", werr)
			}
			if aerr := appendBuffer(snapshot[:n], false); aerr != nil {
				return fmt.Errorf("could not append buffer: %w", aerr)
			}
		}

		// Error doesn't necessarily mean something went wrong, we may just have reached the natural end
		if err != nil {
			if aerr := appendBuffer([]byte{}, true); aerr != nil {
				return fmt.Errorf("could not append final buffer: %w", aerr)
			}
			if isEndOfOutput(err) {
				return nil
			}
			return fmt.Errorf("could not read pty output: %w", err)
		}
	}
}

func (o *outputProducer) appendBuffer(value []byte, isFinal bool) error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	output, err := o.sanitize(value, isFinal)
	if err != nil {
		return fmt.Errorf("could not sanitize output: %w", err)
	}
	o.output = append(o.output, output...)
	o.transcript.recordOutput(output)

	o.flush()

	if isFinal {
		o.stopped = true
		o.opts.Logger.Printf("output closed, failing %d remaining consumers", len(o.consumers))
		for _, consumer := range o.consumers {
			consumer.close(errOutputClosed)
		}
		o.consumers = nil
	}

	return nil
}

// sanitize must be called with the mutex held
func (o *outputProducer) sanitize(value []byte, isFinal bool) ([]byte, error) {
	v := make([]byte, 0, len(o.held)+len(value))
	v = append(append(v, o.held...), value...)
	o.held = nil

	v = cleanPtySnapshot(v, o.opts.Posix)

	if o.opts.StripColors {
		var rest []byte
		v, rest = stripEscapeSequences(v)
		if !isFinal {
			o.held = rest
		}
	}

	if o.opts.NormalizedLineEnds {
		// Trailing carriage returns may be completed to a line end by the next read
		if !isFinal && len(o.held) == 0 {
			trimmed := bytes.TrimRight(v, "\r")
			o.held = append([]byte{}, v[len(trimmed):]...)
			v = trimmed
		}
		v = normalizeLineEnds(v)
	}

	if o.opts.OutputSanitizer != nil {
		var err error
		if v, err = o.opts.OutputSanitizer(v); err != nil {
			return nil, err
		}
	}

	return v, nil
}

// flush reports the unmatched output to all consumers, it must be called with the mutex held
func (o *outputProducer) flush() {
	o.opts.Logger.Printf("flushing %d output consumers", len(o.consumers))
	defer o.opts.Logger.Println("flushed output consumers")

	for n := 0; n < len(o.consumers); {
		consumer := o.consumers[n]
		endPos, err := consumer.report(o.output[o.cursor:])
		o.opts.Logger.Printf("consumer reported endpos: %d, err: %v", endPos, err)
		if err == nil && endPos == 0 {
			n++
			continue
		}
		if err == nil {
			o.cursor += endPos
		}

		o.opts.Logger.Printf("dropping consumer")
		o.consumers = append(o.consumers[:n], o.consumers[n+1:]...)
	}
}

// addConsumer registers consume and immediately checks it against output that arrived before it was added. A
// timeout of zero means the default timeout.
func (o *outputProducer) addConsumer(consume consumer, timeout time.Duration) (*outputConsumer, error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if timeout <= 0 {
		timeout = o.opts.DefaultTimeout
	}
	listener := newOutputConsumer(consume, timeout, o.opts.Logger)
	o.opts.Logger.Printf("adding consumer with timeout %s", timeout)

	endPos, err := listener.report(o.output[o.cursor:])
	if err != nil {
		return listener, nil // the error is delivered through wait()
	}
	if endPos > 0 {
		o.cursor += endPos
		return listener, nil
	}
	if o.stopped {
		listener.close(errOutputClosed)
		return listener, nil
	}

	o.consumers = append(o.consumers, listener)
	return listener, nil
}

func (o *outputProducer) removeConsumer(listener *outputConsumer) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	for n, consumer := range o.consumers {
		if consumer == listener {
			o.consumers = append(o.consumers[:n], o.consumers[n+1:]...)
			return
		}
	}
}

func (o *outputProducer) Output() []byte {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return append([]byte{}, o.output...)
}

func (o *outputProducer) PendingOutput() []byte {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return append([]byte{}, o.output[o.cursor:]...)
}
