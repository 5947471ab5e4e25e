// Package wire holds the argument list shared by the FT command compilers and
// the executor. Arguments keep their Go type (string, int, int64, float64)
// until the transport renders them.
package wire

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Args is an ordered command argument list. Order is significant.
type Args []any

// Append adds raw arguments.
func (a Args) Append(v ...any) Args {
	return append(a, v...)
}

// AppendList appends keyword, the item count and the items.
func (a Args) AppendList(keyword string, items []string) Args {
	a = append(a, keyword, len(items))
	for _, it := range items {
		a = append(a, it)
	}
	return a
}

// Strings renders every argument in its wire form.
func (a Args) Strings() []string {
	out := make([]string, len(a))
	for i, v := range a {
		out[i] = Format(v)
	}
	return out
}

// String returns the arguments joined with spaces, for logs and debugging.
func (a Args) String() string {
	return strings.Join(a.Strings(), " ")
}

// Format renders a single argument.
func Format(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return FormatFloat(t)
	default:
		return fmt.Sprint(t)
	}
}

// FormatFloat renders f with the shortest decimal that parses back to f.
// Infinities use the engine's +inf / -inf spelling.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "+inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
