package db

import (
	"context"
	"errors"
	"testing"
)

func TestError_Unwrap(t *testing.T) {
	err := &Error{Op: OpSearch, Err: context.DeadlineExceeded}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("errors.Is should see the wrapped error")
	}
	if err.Error() != "FT.SEARCH: context deadline exceeded" {
		t.Errorf("Error() = %q", err.Error())
	}
}
