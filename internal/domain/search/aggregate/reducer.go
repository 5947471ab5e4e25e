package aggregate

import (
	"github.com/kailas-cloud/ftquery/internal/domain/search/query"
	"github.com/kailas-cloud/ftquery/internal/wire"
)

// Reducer is a GROUPBY reduce function.
type Reducer struct {
	Name  string
	Args  []any
	Alias string
}

// As returns a copy of r that stores its output under alias.
func (r Reducer) As(alias string) Reducer {
	r.Alias = alias
	return r
}

func (r Reducer) appendArgs(a wire.Args) wire.Args {
	a = append(a, "REDUCE", r.Name, len(r.Args))
	a = append(a, r.Args...)
	if r.Alias != "" {
		a = append(a, "AS", r.Alias)
	}
	return a
}

func unary(name, property string) Reducer {
	return Reducer{Name: name, Args: []any{property}}
}

// Count counts the records in each group.
func Count() Reducer { return Reducer{Name: "COUNT"} }

// CountDistinct counts distinct values of property.
func CountDistinct(property string) Reducer { return unary("COUNT_DISTINCT", property) }

// CountDistinctish approximates CountDistinct.
func CountDistinctish(property string) Reducer { return unary("COUNT_DISTINCTISH", property) }

// Sum adds up property.
func Sum(property string) Reducer { return unary("SUM", property) }

// Min returns the smallest value of property.
func Min(property string) Reducer { return unary("MIN", property) }

// Max returns the largest value of property.
func Max(property string) Reducer { return unary("MAX", property) }

// Avg averages property.
func Avg(property string) Reducer { return unary("AVG", property) }

// ToList collects distinct values of property into a list.
func ToList(property string) Reducer { return unary("TOLIST", property) }

// StdDev returns the standard deviation of property.
func StdDev(property string) Reducer { return unary("STDDEV", property) }

// Quantile returns the q-th quantile (0..1) of property.
func Quantile(property string, q float64) Reducer {
	return Reducer{Name: "QUANTILE", Args: []any{property, q}}
}

// FirstValue returns the first value of property, optionally ordered by another property.
func FirstValue(property, by string, dir query.SortDirection) Reducer {
	args := []any{property}
	if by != "" {
		args = append(args, "BY", by)
		if dir != query.SortDefault {
			args = append(args, string(dir))
		}
	}
	return Reducer{Name: "FIRST_VALUE", Args: args}
}

// RandomSample returns up to size random values of property.
func RandomSample(property string, size int) Reducer {
	return Reducer{Name: "RANDOM_SAMPLE", Args: []any{property, size}}
}
