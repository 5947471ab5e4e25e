// Package query is the FT.SEARCH request builder and compiler.
//
// A Query is a mutable builder meant for a single goroutine: configure it,
// compile it with Args, then execute. Compilation never mutates the Query.
package query

import (
	"github.com/kailas-cloud/ftquery/internal/domain"
	"github.com/kailas-cloud/ftquery/internal/domain/search/filter"
	"github.com/kailas-cloud/ftquery/internal/domain/search/result"
)

// Default paging. A query with this paging emits no LIMIT clause.
const (
	DefaultOffset = 0
	DefaultCount  = 10
)

// SortDirection is the optional SORTBY direction.
type SortDirection string

const (
	SortDefault SortDirection = ""
	SortAsc     SortDirection = "ASC"
	SortDesc    SortDirection = "DESC"
)

// Paging is the LIMIT offset/count pair.
type Paging struct {
	Offset int
	Count  int
}

// HighlightTags wrap matched terms.
type HighlightTags struct {
	Open  string
	Close string
}

// HighlightOptions configures the HIGHLIGHT clause. Empty Fields means all fields.
type HighlightOptions struct {
	Fields []string
	Tags   *HighlightTags
}

// SummarizeOptions configures the SUMMARIZE clause. Zero values are omitted
// and the engine applies its own defaults; Frags and Len must be positive
// to be sent.
type SummarizeOptions struct {
	Fields    []string
	Frags     int
	Len       int
	Separator string
}

// FieldAlias is a RETURN entry with an optional AS name.
type FieldAlias struct {
	Name string
	As   string
}

// Param is a named query parameter referenced as $name in the query string.
type Param struct {
	Name  string
	Value any
}

// Query describes a single FT.SEARCH request.
type Query struct {
	queryString string

	verbatim     bool
	noContent    bool
	noStopwords  bool
	withScores   bool
	withPayloads bool
	inOrder      bool

	language string
	scorer   string
	expander string
	payload  string

	inFields []string
	inKeys   []string

	returnFields  []string
	returnAliases []FieldAlias

	sortBy  string
	sortDir SortDirection

	paging  Paging
	filters []filter.Filter

	highlight *HighlightOptions
	summarize *SummarizeOptions

	params  []Param
	dialect int
	slop    int
	timeout int
}

// New creates a query. An empty string matches every document ("*").
func New(queryString string) *Query {
	if queryString == "" {
		queryString = "*"
	}
	return &Query{
		queryString: queryString,
		paging:      Paging{Offset: DefaultOffset, Count: DefaultCount},
		slop:        -1,
		timeout:     -1,
	}
}

// QueryString returns the full-text query.
func (q *Query) QueryString() string { return q.queryString }

// Paging returns the configured LIMIT.
func (q *Query) Paging() Paging { return q.paging }

// Filters returns the filters in insertion order.
func (q *Query) Filters() []filter.Filter { return q.filters }

// Params returns the named parameters in insertion order.
func (q *Query) Params() []Param { return q.params }

// Shape returns the reply layout this query produces.
func (q *Query) Shape() result.Shape {
	return result.Shape{
		NoContent:    q.noContent,
		WithScores:   q.withScores,
		WithPayloads: q.withPayloads,
	}
}

// Verbatim disables stemming of query terms.
func (q *Query) Verbatim() *Query {
	q.verbatim = true
	return q
}

// NoContent returns only document ids.
func (q *Query) NoContent() *Query {
	q.noContent = true
	return q
}

// NoStopwords keeps stopwords in the query.
func (q *Query) NoStopwords() *Query {
	q.noStopwords = true
	return q
}

// WithScores returns the relevance score of each document.
func (q *Query) WithScores() *Query {
	q.withScores = true
	return q
}

// WithPayloads returns the payload of each document.
func (q *Query) WithPayloads() *Query {
	q.withPayloads = true
	return q
}

// InOrder requires query terms to appear in query order.
func (q *Query) InOrder() *Query {
	q.inOrder = true
	return q
}

// Language sets the stemming language.
func (q *Query) Language(lang string) *Query {
	q.language = lang
	return q
}

// Scorer sets the scoring function.
func (q *Query) Scorer(name string) *Query {
	q.scorer = name
	return q
}

// Expander sets the query expander.
func (q *Query) Expander(name string) *Query {
	q.expander = name
	return q
}

// Payload attaches a payload passed to the scorer.
func (q *Query) Payload(p string) *Query {
	q.payload = p
	return q
}

// InFields restricts matching to the given text fields.
func (q *Query) InFields(fields ...string) *Query {
	q.inFields = fields
	return q
}

// InKeys restricts matching to the given document keys.
func (q *Query) InKeys(keys ...string) *Query {
	q.inKeys = keys
	return q
}

// ReturnFields projects plain field names and drops any aliased projection.
func (q *Query) ReturnFields(fields ...string) *Query {
	q.returnFields = fields
	q.returnAliases = nil
	return q
}

// ReturnField appends an aliased projection entry and drops any plain projection.
// An empty as returns the field under its own name.
func (q *Query) ReturnField(name, as string) *Query {
	q.returnFields = nil
	q.returnAliases = append(q.returnAliases, FieldAlias{Name: name, As: as})
	return q
}

// ReturnAliases replaces the projection with aliased entries.
func (q *Query) ReturnAliases(aliases ...FieldAlias) *Query {
	q.returnFields = nil
	q.returnAliases = aliases
	return q
}

// SortBy orders results by a sortable field.
func (q *Query) SortBy(field string, dir SortDirection) *Query {
	q.sortBy = field
	q.sortDir = dir
	return q
}

// Limit sets the result window. {0, 10} is the engine default and is not emitted.
func (q *Query) Limit(offset, count int) *Query {
	q.paging = Paging{Offset: offset, Count: count}
	return q
}

// Filter appends filters; all filters must match.
func (q *Query) Filter(filters ...filter.Filter) *Query {
	q.filters = append(q.filters, filters...)
	return q
}

// NumericFilter appends a numeric range filter.
func (q *Query) NumericFilter(property string, minVal float64, exclusiveMin bool, maxVal float64, exclusiveMax bool) *Query {
	return q.Filter(filter.NewNumeric(property, minVal, exclusiveMin, maxVal, exclusiveMax))
}

// GeoFilter appends a radius filter.
func (q *Query) GeoFilter(property string, lon, lat, radius float64, unit filter.Unit) *Query {
	return q.Filter(filter.NewGeo(property, lon, lat, radius, unit))
}

// Highlight requests highlighting. Once set, HIGHLIGHT is always emitted.
func (q *Query) Highlight(opts HighlightOptions) *Query {
	q.highlight = &opts
	return q
}

// Summarize requests summarization. Once set, SUMMARIZE is always emitted.
func (q *Query) Summarize(opts SummarizeOptions) *Query {
	q.summarize = &opts
	return q
}

// Param sets a named parameter. Re-setting a name keeps its position.
func (q *Query) Param(name string, value any) *Query {
	for i := range q.params {
		if q.params[i].Name == name {
			q.params[i].Value = value
			return q
		}
	}
	q.params = append(q.params, Param{Name: name, Value: value})
	return q
}

// Slop allows up to n unmatched terms between phrase terms.
func (q *Query) Slop(n int) *Query {
	q.slop = n
	return q
}

// Timeout sets a per-query timeout in milliseconds.
func (q *Query) Timeout(ms int) *Query {
	q.timeout = ms
	return q
}

// Dialect sets the query dialect. Values below 1 fail with ErrInvalidArgument
// and leave the current dialect unchanged.
func (q *Query) Dialect(d int) (*Query, error) {
	if err := domain.ValidateDialect(d); err != nil {
		return q, err
	}
	q.dialect = d
	return q, nil
}

// MustDialect is Dialect for fluent chains; it panics on an invalid value.
func (q *Query) MustDialect(d int) *Query {
	if _, err := q.Dialect(d); err != nil {
		panic(err)
	}
	return q
}
