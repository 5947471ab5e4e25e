package domain

import "fmt"

// ValidateDialect rejects query dialects the engine cannot accept.
// 0 means "unset" internally and is never a valid explicit choice.
func ValidateDialect(d int) error {
	if d < 1 {
		return fmt.Errorf("%w: dialect must be >= 1, got %d", ErrInvalidArgument, d)
	}
	return nil
}
