// Package aggregate is the FT.AGGREGATE request builder and compiler,
// including the FT.CURSOR continuation commands.
package aggregate

import (
	"time"

	"github.com/kailas-cloud/ftquery/internal/domain"
	"github.com/kailas-cloud/ftquery/internal/domain/search/query"
	"github.com/kailas-cloud/ftquery/internal/wire"
)

// Cursor requests cursor-based reading of the results.
// Zero Count and MaxIdle leave the engine defaults.
type Cursor struct {
	Count   int
	MaxIdle time.Duration
}

// SortKey is a SORTBY property with an optional direction.
type SortKey struct {
	Property  string
	Direction query.SortDirection
}

// stage is one pipeline step; steps run in insertion order.
type stage interface {
	appendArgs(a wire.Args) wire.Args
}

type groupBy struct {
	fields   []string
	reducers []Reducer
}

func (g groupBy) appendArgs(a wire.Args) wire.Args {
	a = append(a, "GROUPBY", len(g.fields))
	for _, f := range g.fields {
		a = append(a, f)
	}
	for _, r := range g.reducers {
		a = r.appendArgs(a)
	}
	return a
}

type sortBy struct {
	keys []SortKey
	max  int
}

func (s sortBy) appendArgs(a wire.Args) wire.Args {
	a = append(a, "SORTBY", 0)
	countAt := len(a) - 1
	for _, k := range s.keys {
		a = append(a, k.Property)
		if k.Direction != query.SortDefault {
			a = append(a, string(k.Direction))
		}
	}
	a[countAt] = len(a) - countAt - 1
	if s.max > 0 {
		a = append(a, "MAX", s.max)
	}
	return a
}

type apply struct{ expr, as string }

func (s apply) appendArgs(a wire.Args) wire.Args {
	return append(a, "APPLY", s.expr, "AS", s.as)
}

type filterExpr struct{ expr string }

func (s filterExpr) appendArgs(a wire.Args) wire.Args {
	return append(a, "FILTER", s.expr)
}

type limit struct{ offset, num int }

func (s limit) appendArgs(a wire.Args) wire.Args {
	return append(a, "LIMIT", s.offset, s.num)
}

// Aggregation describes a single FT.AGGREGATE request. Like query.Query it
// is a single-goroutine builder.
type Aggregation struct {
	queryString string
	verbatim    bool
	loadAll     bool
	load        []string
	stages      []stage
	cursor      *Cursor
	params      []query.Param
	dialect     int
}

// New creates an aggregation over the documents matching queryString ("*" if empty).
func New(queryString string) *Aggregation {
	if queryString == "" {
		queryString = "*"
	}
	return &Aggregation{queryString: queryString}
}

// QueryString returns the filtering query.
func (a *Aggregation) QueryString() string { return a.queryString }

// HasCursor reports whether the reply will carry a cursor id.
func (a *Aggregation) HasCursor() bool { return a.cursor != nil }

// Verbatim disables stemming of query terms.
func (a *Aggregation) Verbatim() *Aggregation {
	a.verbatim = true
	return a
}

// Load loads document fields into the pipeline.
func (a *Aggregation) Load(fields ...string) *Aggregation {
	a.load = append(a.load, fields...)
	return a
}

// LoadAll loads every document field (LOAD *).
func (a *Aggregation) LoadAll() *Aggregation {
	a.loadAll = true
	return a
}

// GroupBy groups records by fields and reduces each group.
func (a *Aggregation) GroupBy(fields []string, reducers ...Reducer) *Aggregation {
	a.stages = append(a.stages, groupBy{fields: fields, reducers: reducers})
	return a
}

// SortBy orders records. max > 0 keeps only the top max records.
func (a *Aggregation) SortBy(maxResults int, keys ...SortKey) *Aggregation {
	a.stages = append(a.stages, sortBy{keys: keys, max: maxResults})
	return a
}

// Apply computes expr into a new property.
func (a *Aggregation) Apply(expr, as string) *Aggregation {
	a.stages = append(a.stages, apply{expr: expr, as: as})
	return a
}

// Filter drops records that do not satisfy expr.
func (a *Aggregation) Filter(expr string) *Aggregation {
	a.stages = append(a.stages, filterExpr{expr: expr})
	return a
}

// Limit keeps num records starting at offset.
func (a *Aggregation) Limit(offset, num int) *Aggregation {
	a.stages = append(a.stages, limit{offset: offset, num: num})
	return a
}

// WithCursor requests cursor mode.
func (a *Aggregation) WithCursor(c Cursor) *Aggregation {
	a.cursor = &c
	return a
}

// Param sets a named parameter. Re-setting a name keeps its position.
func (a *Aggregation) Param(name string, value any) *Aggregation {
	for i := range a.params {
		if a.params[i].Name == name {
			a.params[i].Value = value
			return a
		}
	}
	a.params = append(a.params, query.Param{Name: name, Value: value})
	return a
}

// Dialect sets the query dialect. Values below 1 fail with
// domain.ErrInvalidArgument and leave the current dialect unchanged.
func (a *Aggregation) Dialect(d int) (*Aggregation, error) {
	if err := domain.ValidateDialect(d); err != nil {
		return a, err
	}
	a.dialect = d
	return a, nil
}

// MustDialect is Dialect for fluent chains; it panics on an invalid value.
func (a *Aggregation) MustDialect(d int) *Aggregation {
	if _, err := a.Dialect(d); err != nil {
		panic(err)
	}
	return a
}

// Args compiles the aggregation into FT.AGGREGATE arguments (without the
// command name and index).
func (a *Aggregation) Args(opts query.CompileOptions) wire.Args {
	args := wire.Args{a.queryString}

	if a.verbatim {
		args = append(args, "VERBATIM")
	}
	if a.cursor != nil {
		args = append(args, "WITHCURSOR")
		if a.cursor.Count > 0 {
			args = append(args, "COUNT", a.cursor.Count)
		}
		if a.cursor.MaxIdle > 0 {
			args = append(args, "MAXIDLE", a.cursor.MaxIdle.Milliseconds())
		}
	}
	if a.loadAll {
		args = append(args, "LOAD", "*")
	} else if len(a.load) > 0 {
		args = args.AppendList("LOAD", a.load)
	}
	for _, s := range a.stages {
		args = s.appendArgs(args)
	}
	if len(a.params) > 0 {
		args = append(args, "PARAMS", 2*len(a.params))
		for _, p := range a.params {
			args = append(args, p.Name, p.Value)
		}
	}

	dialect := a.dialect
	if dialect == 0 {
		dialect = opts.DefaultDialect
	}
	if dialect >= 1 {
		args = append(args, "DIALECT", dialect)
	}
	return args
}

// CursorReadArgs compiles FT.CURSOR READ arguments. count <= 0 keeps the
// count given when the cursor was created.
func CursorReadArgs(index string, cursorID int64, count int) wire.Args {
	args := wire.Args{"READ", index, cursorID}
	if count > 0 {
		args = append(args, "COUNT", count)
	}
	return args
}

// CursorDelArgs compiles FT.CURSOR DEL arguments.
func CursorDelArgs(index string, cursorID int64) wire.Args {
	return wire.Args{"DEL", index, cursorID}
}
