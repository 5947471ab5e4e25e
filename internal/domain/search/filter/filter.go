package filter

import (
	"math"

	"github.com/kailas-cloud/ftquery/internal/wire"
)

// Kind tags the filter variant.
type Kind int

const (
	// KindNumeric is a numeric range filter (FILTER).
	KindNumeric Kind = iota + 1
	// KindGeo is a radius filter (GEOFILTER).
	KindGeo
)

// Unit is the GEOFILTER radius unit.
type Unit string

const (
	Kilometers Unit = "km"
	Meters     Unit = "m"
	Feet       Unit = "ft"
	Miles      Unit = "mi"
)

// IsValid reports whether u is one of the units the engine accepts.
func (u Unit) IsValid() bool {
	switch u {
	case Kilometers, Meters, Feet, Miles:
		return true
	}
	return false
}

// Numeric limits results to property values between Min and Max.
// Min <= Max is not checked. Infinite bounds are always inclusive.
type Numeric struct {
	Property     string
	Min          float64
	Max          float64
	ExclusiveMin bool
	ExclusiveMax bool
}

// Geo limits results to points within Radius of (Longitude, Latitude).
type Geo struct {
	Property  string
	Longitude float64
	Latitude  float64
	Radius    float64
	Unit      Unit
}

// Filter is one of Numeric or Geo, selected by Kind.
// Filters in a query are AND-combined.
type Filter struct {
	kind    Kind
	numeric Numeric
	geo     Geo
}

// NewNumeric creates a numeric range filter.
func NewNumeric(property string, minVal float64, exclusiveMin bool, maxVal float64, exclusiveMax bool) Filter {
	return Filter{
		kind: KindNumeric,
		numeric: Numeric{
			Property:     property,
			Min:          minVal,
			Max:          maxVal,
			ExclusiveMin: exclusiveMin,
			ExclusiveMax: exclusiveMax,
		},
	}
}

// NewGeo creates a radius filter.
func NewGeo(property string, lon, lat, radius float64, unit Unit) Filter {
	return Filter{
		kind: KindGeo,
		geo: Geo{
			Property:  property,
			Longitude: lon,
			Latitude:  lat,
			Radius:    radius,
			Unit:      unit,
		},
	}
}

// Kind returns the variant tag.
func (f Filter) Kind() Kind { return f.kind }

// Numeric returns the numeric variant.
func (f Filter) Numeric() (Numeric, bool) { return f.numeric, f.kind == KindNumeric }

// Geo returns the geo variant.
func (f Filter) Geo() (Geo, bool) { return f.geo, f.kind == KindGeo }

// Property returns the filtered field name.
func (f Filter) Property() string {
	switch f.kind {
	case KindNumeric:
		return f.numeric.Property
	case KindGeo:
		return f.geo.Property
	}
	return ""
}

// AppendArgs appends the filter clause to a. A zero Filter appends nothing.
func (f Filter) AppendArgs(a wire.Args) wire.Args {
	switch f.kind {
	case KindNumeric:
		n := f.numeric
		return append(a, "FILTER", n.Property,
			bound(n.Min, n.ExclusiveMin),
			bound(n.Max, n.ExclusiveMax),
		)
	case KindGeo:
		g := f.geo
		return append(a, "GEOFILTER", g.Property, g.Longitude, g.Latitude, g.Radius, string(g.Unit))
	}
	return a
}

// bound renders an exclusive finite bound as "(<value>"; anything else stays numeric.
func bound(v float64, exclusive bool) any {
	if !exclusive || math.IsInf(v, 0) {
		return v
	}
	return "(" + wire.FormatFloat(v)
}
