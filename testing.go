package termchain

import (
	"context"
	"errors"
	"testing"
)

// ExecuteT executes chain and fails t when it does not succeed, reporting the failed step and the redacted
// transcript. It returns whether the chain succeeded.
func ExecuteT(t testing.TB, chain *Chain) bool {
	t.Helper()

	err := chain.Execute(context.Background())
	if err == nil {
		return true
	}

	var chainErr *ChainError
	if errors.As(err, &chainErr) {
		t.Errorf("chain failed: %v\nTranscript:\n%s", chainErr, chainErr.Transcript)
	} else {
		t.Errorf("chain failed: %v", err)
	}
	return false
}
