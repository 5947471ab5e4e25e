package query

import "github.com/kailas-cloud/ftquery/internal/wire"

// CompileOptions carries execution-time settings owned by the caller.
type CompileOptions struct {
	// DefaultDialect applies when the query sets no dialect. 0 disables it.
	DefaultDialect int
}

// Args compiles the query into FT.SEARCH arguments (without the command
// name and index). Clauses are emitted in the engine's fixed order and
// absent options emit nothing.
func (q *Query) Args(opts CompileOptions) wire.Args {
	a := wire.Args{q.queryString}

	if q.verbatim {
		a = append(a, "VERBATIM")
	}
	if q.noContent {
		a = append(a, "NOCONTENT")
	}
	if q.noStopwords {
		a = append(a, "NOSTOPWORDS")
	}
	if q.withScores {
		a = append(a, "WITHSCORES")
	}
	if q.withPayloads {
		a = append(a, "WITHPAYLOADS")
	}
	if q.language != "" {
		a = append(a, "LANGUAGE", q.language)
	}
	if q.scorer != "" {
		a = append(a, "SCORER", q.scorer)
	}
	if len(q.inFields) > 0 {
		a = a.AppendList("INFIELDS", q.inFields)
	}
	if q.sortBy != "" {
		a = append(a, "SORTBY", q.sortBy)
		if q.sortDir != SortDefault {
			a = append(a, string(q.sortDir))
		}
	}
	if q.payload != "" {
		a = append(a, "PAYLOAD", q.payload)
	}
	if q.paging.Offset != DefaultOffset || q.paging.Count != DefaultCount {
		a = append(a, "LIMIT", q.paging.Offset, q.paging.Count)
	}
	for _, f := range q.filters {
		a = f.AppendArgs(a)
	}
	a = q.appendHighlight(a)
	a = q.appendSummarize(a)
	if len(q.inKeys) > 0 {
		a = a.AppendList("INKEYS", q.inKeys)
	}
	a = q.appendReturn(a)
	if len(q.params) > 0 {
		a = append(a, "PARAMS", 2*len(q.params))
		for _, p := range q.params {
			a = append(a, p.Name, p.Value)
		}
	}

	dialect := q.dialect
	if dialect == 0 {
		dialect = opts.DefaultDialect
	}
	if dialect >= 1 {
		a = append(a, "DIALECT", dialect)
	}
	if q.slop >= 0 {
		a = append(a, "SLOP", q.slop)
	}
	if q.timeout >= 0 {
		a = append(a, "TIMEOUT", q.timeout)
	}
	if q.inOrder {
		a = append(a, "INORDER")
	}
	if q.expander != "" {
		a = append(a, "EXPANDER", q.expander)
	}
	return a
}

func (q *Query) appendHighlight(a wire.Args) wire.Args {
	h := q.highlight
	if h == nil {
		return a
	}
	a = append(a, "HIGHLIGHT")
	if len(h.Fields) > 0 {
		a = a.AppendList("FIELDS", h.Fields)
	}
	if h.Tags != nil {
		a = append(a, "TAGS", h.Tags.Open, h.Tags.Close)
	}
	return a
}

func (q *Query) appendSummarize(a wire.Args) wire.Args {
	s := q.summarize
	if s == nil {
		return a
	}
	a = append(a, "SUMMARIZE")
	if len(s.Fields) > 0 {
		a = a.AppendList("FIELDS", s.Fields)
	}
	if s.Frags > 0 {
		a = append(a, "FRAGS", s.Frags)
	}
	if s.Len > 0 {
		a = append(a, "LEN", s.Len)
	}
	if s.Separator != "" {
		a = append(a, "SEPARATOR", s.Separator)
	}
	return a
}

// appendReturn emits RETURN. Aliased entries have variable width, so the
// count is written back once they are appended.
func (q *Query) appendReturn(a wire.Args) wire.Args {
	if len(q.returnFields) > 0 {
		return a.AppendList("RETURN", q.returnFields)
	}
	if len(q.returnAliases) == 0 {
		return a
	}
	a = append(a, "RETURN", 0)
	countAt := len(a) - 1
	for _, fa := range q.returnAliases {
		a = append(a, fa.Name)
		if fa.As != "" {
			a = append(a, "AS", fa.As)
		}
	}
	a[countAt] = len(a) - countAt - 1
	return a
}
