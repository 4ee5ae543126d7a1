package termchain

// SelectionKeys returns the key presses that choose target in a single-select prompt listing options, with the
// cursor starting on the first option: one KeyDown per option above target, then KeyEnter.
func SelectionKeys(target string, options []string) ([]string, error) {
	index := indexOf(options, target)
	if index == -1 {
		return nil, &SelectionError{Target: target, Options: append([]string{}, options...)}
	}

	keys := make([]string, 0, index+1)
	for i := 0; i < index; i++ {
		keys = append(keys, KeyDown)
	}
	return append(keys, KeyEnter), nil
}

// SingleSelect appends the steps choosing target from options to chain. It only schedules steps, the chain still
// runs them in order when executed. A target missing from options returns a *SelectionError and leaves the chain
// untouched.
func SingleSelect(chain *Chain, target string, options []string) error {
	keys, err := SelectionKeys(target, options)
	if err != nil {
		return err
	}

	for range keys[:len(keys)-1] {
		chain.SendKeyDown()
	}
	chain.SendCarriageReturn()
	return nil
}
