package chi

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kailas-cloud/ftquery/internal/domain"
	"github.com/kailas-cloud/ftquery/internal/domain/search/aggregate"
	"github.com/kailas-cloud/ftquery/internal/domain/search/filter"
	"github.com/kailas-cloud/ftquery/internal/domain/search/query"
)

type limitDTO struct {
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

type sortDTO struct {
	Field     string `json:"field"`
	Direction string `json:"direction,omitempty"`
}

type returnDTO struct {
	Name string `json:"name"`
	As   string `json:"as,omitempty"`
}

// filterDTO is either {"type":"numeric",...} or {"type":"geo",...}.
// Missing numeric bounds are unbounded.
type filterDTO struct {
	Type         string   `json:"type"`
	Property     string   `json:"property"`
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	ExclusiveMin bool     `json:"exclusive_min,omitempty"`
	ExclusiveMax bool     `json:"exclusive_max,omitempty"`
	Lon          float64  `json:"lon,omitempty"`
	Lat          float64  `json:"lat,omitempty"`
	Radius       float64  `json:"radius,omitempty"`
	Unit         string   `json:"unit,omitempty"`
}

type highlightDTO struct {
	Fields []string `json:"fields,omitempty"`
	Tags   *struct {
		Open  string `json:"open"`
		Close string `json:"close"`
	} `json:"tags,omitempty"`
}

type summarizeDTO struct {
	Fields    []string `json:"fields,omitempty"`
	Frags     int      `json:"frags,omitempty"`
	Len       int      `json:"len,omitempty"`
	Separator string   `json:"separator,omitempty"`
}

type paramDTO struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type searchRequest struct {
	Query        string        `json:"query"`
	Verbatim     bool          `json:"verbatim,omitempty"`
	NoContent    bool          `json:"no_content,omitempty"`
	NoStopwords  bool          `json:"no_stopwords,omitempty"`
	WithScores   bool          `json:"with_scores,omitempty"`
	WithPayloads bool          `json:"with_payloads,omitempty"`
	InOrder      bool          `json:"in_order,omitempty"`
	Language     string        `json:"language,omitempty"`
	Scorer       string        `json:"scorer,omitempty"`
	Expander     string        `json:"expander,omitempty"`
	Payload      string        `json:"payload,omitempty"`
	InFields     []string      `json:"in_fields,omitempty"`
	InKeys       []string      `json:"in_keys,omitempty"`
	Return       []returnDTO   `json:"return,omitempty"`
	SortBy       *sortDTO      `json:"sort_by,omitempty"`
	Limit        *limitDTO     `json:"limit,omitempty"`
	Filters      []filterDTO   `json:"filters,omitempty"`
	Highlight    *highlightDTO `json:"highlight,omitempty"`
	Summarize    *summarizeDTO `json:"summarize,omitempty"`
	Params       []paramDTO    `json:"params,omitempty"`
	Slop         *int          `json:"slop,omitempty"`
	Timeout      *int          `json:"timeout_ms,omitempty"`
	Dialect      *int          `json:"dialect,omitempty"`
}

type reducerDTO struct {
	Func      string  `json:"func"`
	Property  string  `json:"property,omitempty"`
	By        string  `json:"by,omitempty"`
	Direction string  `json:"direction,omitempty"`
	Quantile  float64 `json:"quantile,omitempty"`
	Size      int     `json:"size,omitempty"`
	As        string  `json:"as,omitempty"`
}

type sortKeyDTO struct {
	Property  string `json:"property"`
	Direction string `json:"direction,omitempty"`
}

// stepDTO is one pipeline step, discriminated by Type.
type stepDTO struct {
	Type     string       `json:"type"`
	Fields   []string     `json:"fields,omitempty"`
	Reducers []reducerDTO `json:"reducers,omitempty"`
	Keys     []sortKeyDTO `json:"keys,omitempty"`
	Max      int          `json:"max,omitempty"`
	Expr     string       `json:"expr,omitempty"`
	As       string       `json:"as,omitempty"`
	Offset   int          `json:"offset,omitempty"`
	Num      int          `json:"num,omitempty"`
}

type cursorDTO struct {
	Count     int   `json:"count,omitempty"`
	MaxIdleMS int64 `json:"max_idle_ms,omitempty"`
}

type aggregateRequest struct {
	Query    string     `json:"query"`
	Verbatim bool       `json:"verbatim,omitempty"`
	Load     []string   `json:"load,omitempty"`
	LoadAll  bool       `json:"load_all,omitempty"`
	Steps    []stepDTO  `json:"steps,omitempty"`
	Cursor   *cursorDTO `json:"cursor,omitempty"`
	Params   []paramDTO `json:"params,omitempty"`
	Dialect  *int       `json:"dialect,omitempty"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func sortDirection(s string) (query.SortDirection, error) {
	switch strings.ToUpper(s) {
	case "":
		return query.SortDefault, nil
	case "ASC":
		return query.SortAsc, nil
	case "DESC":
		return query.SortDesc, nil
	default:
		return "", invalid("unknown sort direction %q", s)
	}
}

// paramValue accepts the scalar JSON types the engine can take as a PARAMS value.
func paramValue(p paramDTO) (any, error) {
	if p.Name == "" {
		return nil, invalid("param name is required")
	}
	switch v := p.Value.(type) {
	case string, float64:
		return v, nil
	default:
		return nil, invalid("param %q must be a string or number", p.Name)
	}
}

func (f filterDTO) toFilter() (filter.Filter, error) {
	if f.Property == "" {
		return filter.Filter{}, invalid("filter property is required")
	}
	switch f.Type {
	case "numeric":
		minVal, maxVal := math.Inf(-1), math.Inf(1)
		if f.Min != nil {
			minVal = *f.Min
		}
		if f.Max != nil {
			maxVal = *f.Max
		}
		if minVal > maxVal {
			return filter.Filter{}, invalid("filter %q: min is greater than max", f.Property)
		}
		return filter.NewNumeric(f.Property, minVal, f.ExclusiveMin, maxVal, f.ExclusiveMax), nil
	case "geo":
		unit := filter.Unit(f.Unit)
		if !unit.IsValid() {
			return filter.Filter{}, invalid("filter %q: unknown unit %q", f.Property, f.Unit)
		}
		if f.Radius < 0 {
			return filter.Filter{}, invalid("filter %q: radius must not be negative", f.Property)
		}
		return filter.NewGeo(f.Property, f.Lon, f.Lat, f.Radius, unit), nil
	default:
		return filter.Filter{}, invalid("unknown filter type %q", f.Type)
	}
}

func (req *searchRequest) toQuery() (*query.Query, error) {
	q := query.New(req.Query)

	if req.Verbatim {
		q.Verbatim()
	}
	if req.NoContent {
		q.NoContent()
	}
	if req.NoStopwords {
		q.NoStopwords()
	}
	if req.WithScores {
		q.WithScores()
	}
	if req.WithPayloads {
		q.WithPayloads()
	}
	if req.InOrder {
		q.InOrder()
	}
	q.Language(req.Language).Scorer(req.Scorer).Expander(req.Expander).Payload(req.Payload)

	if len(req.InFields) > 0 {
		q.InFields(req.InFields...)
	}
	if len(req.InKeys) > 0 {
		q.InKeys(req.InKeys...)
	}
	if err := applyReturn(q, req.Return); err != nil {
		return nil, err
	}

	if req.SortBy != nil {
		if req.SortBy.Field == "" {
			return nil, invalid("sort_by.field is required")
		}
		dir, err := sortDirection(req.SortBy.Direction)
		if err != nil {
			return nil, err
		}
		q.SortBy(req.SortBy.Field, dir)
	}
	if req.Limit != nil {
		if req.Limit.Offset < 0 || req.Limit.Count < 0 {
			return nil, invalid("limit offset and count must not be negative")
		}
		q.Limit(req.Limit.Offset, req.Limit.Count)
	}

	for _, fd := range req.Filters {
		f, err := fd.toFilter()
		if err != nil {
			return nil, err
		}
		q.Filter(f)
	}

	if h := req.Highlight; h != nil {
		opts := query.HighlightOptions{Fields: h.Fields}
		if h.Tags != nil {
			opts.Tags = &query.HighlightTags{Open: h.Tags.Open, Close: h.Tags.Close}
		}
		q.Highlight(opts)
	}
	if s := req.Summarize; s != nil {
		q.Summarize(query.SummarizeOptions{
			Fields: s.Fields, Frags: s.Frags, Len: s.Len, Separator: s.Separator,
		})
	}

	for _, p := range req.Params {
		v, err := paramValue(p)
		if err != nil {
			return nil, err
		}
		q.Param(p.Name, v)
	}
	if req.Slop != nil {
		q.Slop(*req.Slop)
	}
	if req.Timeout != nil {
		q.Timeout(*req.Timeout)
	}
	if req.Dialect != nil {
		if _, err := q.Dialect(*req.Dialect); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// applyReturn uses plain RETURN names unless any entry carries an alias.
func applyReturn(q *query.Query, entries []returnDTO) error {
	if len(entries) == 0 {
		return nil
	}
	aliased := false
	for _, e := range entries {
		if e.Name == "" {
			return invalid("return field name is required")
		}
		if e.As != "" {
			aliased = true
		}
	}
	if !aliased {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name
		}
		q.ReturnFields(names...)
		return nil
	}
	aliases := make([]query.FieldAlias, len(entries))
	for i, e := range entries {
		aliases[i] = query.FieldAlias{Name: e.Name, As: e.As}
	}
	q.ReturnAliases(aliases...)
	return nil
}

func (req *aggregateRequest) toAggregation() (*aggregate.Aggregation, error) {
	agg := aggregate.New(req.Query)
	if req.Verbatim {
		agg.Verbatim()
	}
	if req.LoadAll {
		agg.LoadAll()
	} else if len(req.Load) > 0 {
		agg.Load(req.Load...)
	}

	for i, st := range req.Steps {
		if err := applyStep(agg, st); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	if c := req.Cursor; c != nil {
		if c.Count < 0 || c.MaxIdleMS < 0 {
			return nil, invalid("cursor count and max_idle_ms must not be negative")
		}
		agg.WithCursor(aggregate.Cursor{Count: c.Count, MaxIdle: time.Duration(c.MaxIdleMS) * time.Millisecond})
	}
	for _, p := range req.Params {
		v, err := paramValue(p)
		if err != nil {
			return nil, err
		}
		agg.Param(p.Name, v)
	}
	if req.Dialect != nil {
		if _, err := agg.Dialect(*req.Dialect); err != nil {
			return nil, err
		}
	}
	return agg, nil
}

func applyStep(agg *aggregate.Aggregation, st stepDTO) error {
	switch st.Type {
	case "groupby":
		reducers := make([]aggregate.Reducer, 0, len(st.Reducers))
		for _, rd := range st.Reducers {
			r, err := rd.toReducer()
			if err != nil {
				return err
			}
			reducers = append(reducers, r)
		}
		agg.GroupBy(st.Fields, reducers...)
	case "sortby":
		if len(st.Keys) == 0 {
			return invalid("sortby needs at least one key")
		}
		keys := make([]aggregate.SortKey, len(st.Keys))
		for i, k := range st.Keys {
			dir, err := sortDirection(k.Direction)
			if err != nil {
				return err
			}
			keys[i] = aggregate.SortKey{Property: k.Property, Direction: dir}
		}
		agg.SortBy(st.Max, keys...)
	case "apply":
		if st.Expr == "" || st.As == "" {
			return invalid("apply needs expr and as")
		}
		agg.Apply(st.Expr, st.As)
	case "filter":
		if st.Expr == "" {
			return invalid("filter needs expr")
		}
		agg.Filter(st.Expr)
	case "limit":
		if st.Offset < 0 || st.Num < 0 {
			return invalid("limit offset and num must not be negative")
		}
		agg.Limit(st.Offset, st.Num)
	default:
		return invalid("unknown step type %q", st.Type)
	}
	return nil
}

func (rd reducerDTO) toReducer() (aggregate.Reducer, error) {
	var r aggregate.Reducer
	fn := strings.ToLower(rd.Func)
	if fn != "count" && rd.Property == "" {
		return r, invalid("%s reducer needs a property", fn)
	}

	switch fn {
	case "count":
		r = aggregate.Count()
	case "count_distinct":
		r = aggregate.CountDistinct(rd.Property)
	case "count_distinctish":
		r = aggregate.CountDistinctish(rd.Property)
	case "sum":
		r = aggregate.Sum(rd.Property)
	case "min":
		r = aggregate.Min(rd.Property)
	case "max":
		r = aggregate.Max(rd.Property)
	case "avg":
		r = aggregate.Avg(rd.Property)
	case "tolist":
		r = aggregate.ToList(rd.Property)
	case "stddev":
		r = aggregate.StdDev(rd.Property)
	case "quantile":
		if rd.Quantile < 0 || rd.Quantile > 1 {
			return r, invalid("quantile must be within [0, 1]")
		}
		r = aggregate.Quantile(rd.Property, rd.Quantile)
	case "first_value":
		dir, err := sortDirection(rd.Direction)
		if err != nil {
			return r, err
		}
		r = aggregate.FirstValue(rd.Property, rd.By, dir)
	case "random_sample":
		if rd.Size <= 0 {
			return r, invalid("random_sample needs a positive size")
		}
		r = aggregate.RandomSample(rd.Property, rd.Size)
	default:
		return r, invalid("unknown reducer %q", rd.Func)
	}
	if rd.As != "" {
		r = r.As(rd.As)
	}
	return r, nil
}
