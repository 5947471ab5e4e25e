package ftquery

import (
	"github.com/kailas-cloud/ftquery/internal/domain"
	"github.com/kailas-cloud/ftquery/internal/domain/search/aggregate"
	"github.com/kailas-cloud/ftquery/internal/domain/search/filter"
	"github.com/kailas-cloud/ftquery/internal/domain/search/query"
	"github.com/kailas-cloud/ftquery/internal/domain/search/result"
)

// Search request builder.
type (
	Query            = query.Query
	SortDirection    = query.SortDirection
	HighlightOptions = query.HighlightOptions
	HighlightTags    = query.HighlightTags
	SummarizeOptions = query.SummarizeOptions
	FieldAlias       = query.FieldAlias
	Param            = query.Param
)

// Sort directions.
const (
	SortDefault = query.SortDefault
	SortAsc     = query.SortAsc
	SortDesc    = query.SortDesc
)

// NewQuery starts a search for queryString. An empty string matches everything.
func NewQuery(queryString string) *Query { return query.New(queryString) }

// Filters.
type (
	Filter = filter.Filter
	Unit   = filter.Unit
)

// Geo radius units.
const (
	Kilometers = filter.Kilometers
	Meters     = filter.Meters
	Feet       = filter.Feet
	Miles      = filter.Miles
)

// NumericFilter restricts property to a range. Use math.Inf for open ends.
func NumericFilter(property string, minVal float64, exclusiveMin bool, maxVal float64, exclusiveMax bool) Filter {
	return filter.NewNumeric(property, minVal, exclusiveMin, maxVal, exclusiveMax)
}

// GeoFilter restricts property to a radius around lon/lat.
func GeoFilter(property string, lon, lat, radius float64, unit Unit) Filter {
	return filter.NewGeo(property, lon, lat, radius, unit)
}

// Aggregation builder.
type (
	Aggregation = aggregate.Aggregation
	Reducer     = aggregate.Reducer
	SortKey     = aggregate.SortKey
	Cursor      = aggregate.Cursor
)

// NewAggregation starts an aggregation over the documents matching queryString.
func NewAggregation(queryString string) *Aggregation { return aggregate.New(queryString) }

// Reducers.
var (
	Count            = aggregate.Count
	CountDistinct    = aggregate.CountDistinct
	CountDistinctish = aggregate.CountDistinctish
	Sum              = aggregate.Sum
	Min              = aggregate.Min
	Max              = aggregate.Max
	Avg              = aggregate.Avg
	ToList           = aggregate.ToList
	StdDev           = aggregate.StdDev
	Quantile         = aggregate.Quantile
	FirstValue       = aggregate.FirstValue
	RandomSample     = aggregate.RandomSample
)

// Results.
type (
	SearchResult      = result.SearchResult
	Document          = result.Document
	AggregationResult = result.AggregationResult
	Row               = result.Row
	Field             = result.Field
	Info              = result.Info
)

// Errors. Match with errors.Is.
var (
	ErrInvalidArgument = domain.ErrInvalidArgument
	ErrProtocol        = domain.ErrProtocol
	ErrIndexNotFound   = domain.ErrIndexNotFound
	ErrCursorNotFound  = domain.ErrCursorNotFound
)

// ProtocolError describes a reply that does not match the request's shape.
type ProtocolError = domain.ProtocolError
