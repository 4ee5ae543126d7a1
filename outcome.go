package termchain

// Outcome is the single result of a chain started with Chain.Start
type Outcome struct {
	done chan struct{}
	err  error
}

func newOutcome() *Outcome {
	return &Outcome{done: make(chan struct{})}
}

// resolve must be called exactly once
func (o *Outcome) resolve(err error) {
	o.err = err
	close(o.done)
}

// Done is closed once the chain finished
func (o *Outcome) Done() <-chan struct{} {
	return o.done
}

// Wait blocks until the chain finished and returns its error, nil on success
func (o *Outcome) Wait() error {
	<-o.done
	return o.err
}
