package graphquery

import (
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/coregraph/typegraph/internal/temporal"
)

// ParameterKind tags which literal a Parameter carries.
type ParameterKind int

const (
	ParamNumber ParameterKind = iota
	ParamText
	ParamBool
	ParamUUID
	ParamURL
	ParamTimestamp
	ParamInterval
	ParamJSON
)

// Parameter is a typed literal bound into a query at a positional slot.
// Exactly one field matching Kind is populated.
type Parameter struct {
	Kind ParameterKind

	Number    float64
	Text      string
	Bool      bool
	UUID      uuid.UUID
	URL       *url.URL
	Timestamp time.Time
	Interval  Interval
	JSON      any
}

// Interval is the bound pair a ParamInterval parameter carries, mirroring
// the half-open temporal intervals C1 defines but over plain times so it
// can bind to any of the three temporal axes at the SQL layer.
type Interval struct {
	Start    time.Time
	StartInf bool
	End      time.Time
	EndInf   bool
}

// NumberParam, TextParam, etc. are convenience constructors used when
// building filters by hand (tests, migrations) rather than from a
// deserialized query document.

func NumberParam(v float64) Parameter { return Parameter{Kind: ParamNumber, Number: v} }
func TextParam(v string) Parameter    { return Parameter{Kind: ParamText, Text: v} }
func BoolParam(v bool) Parameter      { return Parameter{Kind: ParamBool, Bool: v} }
func UUIDParam(v uuid.UUID) Parameter { return Parameter{Kind: ParamUUID, UUID: v} }
func URLParam(v *url.URL) Parameter   { return Parameter{Kind: ParamURL, URL: v} }

func TimestampParam[A temporal.Axis](v temporal.Timestamp[A]) Parameter {
	return Parameter{Kind: ParamTimestamp, Timestamp: v.Time()}
}

func IntervalParam(v Interval) Parameter { return Parameter{Kind: ParamInterval, Interval: v} }
func JSONParam(v any) Parameter          { return Parameter{Kind: ParamJSON, JSON: v} }
