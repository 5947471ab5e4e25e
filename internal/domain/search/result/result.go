package result

// Shape lists the request options that change the FT.SEARCH reply layout.
type Shape struct {
	NoContent    bool
	WithScores   bool
	WithPayloads bool
}

// stride returns the number of reply elements per document.
func (s Shape) stride() int {
	n := 1 // id
	if s.WithScores {
		n++
	}
	if s.WithPayloads {
		n++
	}
	if !s.NoContent {
		n++
	}
	return n
}

// Document is a single FT.SEARCH hit.
// Score is nil unless the shape requested scores; Payload is set only when
// the shape requested payloads.
type Document struct {
	ID      string            `json:"id"`
	Score   *float64          `json:"score,omitempty"`
	Payload string            `json:"payload,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// SearchResult is a decoded FT.SEARCH reply.
type SearchResult struct {
	Total int64      `json:"total"`
	Docs  []Document `json:"docs"`
	Shape Shape      `json:"-"`
}

// HasContent reports whether documents carry field maps.
func (r *SearchResult) HasContent() bool { return !r.Shape.NoContent }

// Field is one name/value pair of an aggregation row.
type Field struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Row is an aggregation result row in reply order.
type Row []Field

// Get returns the value of the named field.
func (r Row) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Map returns the row as a map. Later duplicates win.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r))
	for _, f := range r {
		m[f.Name] = f.Value
	}
	return m
}

// AggregationResult is a decoded FT.AGGREGATE or FT.CURSOR READ reply.
// Cursor is nil unless the request asked for a cursor; a value of 0 means exhausted.
type AggregationResult struct {
	Total  int64  `json:"total"`
	Rows   []Row  `json:"rows"`
	Cursor *int64 `json:"cursor,omitempty"`
}

// Exhausted reports whether no further cursor reads are possible.
func (r *AggregationResult) Exhausted() bool {
	return r.Cursor == nil || *r.Cursor == 0
}

// Info is an FT.INFO snapshot. Values are passed through loosely typed.
type Info map[string]any
