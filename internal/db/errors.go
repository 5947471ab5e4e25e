package db

// Op constants are the FT command names; they double as error context.
const (
	OpSearch    = "FT.SEARCH"
	OpAggregate = "FT.AGGREGATE"
	OpCursor    = "FT.CURSOR"
	OpInfo      = "FT.INFO"
	OpPing      = "PING"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
