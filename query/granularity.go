package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hermannm.dev/enumnames"
	"hermannm.dev/wrap"
)

type GranularityKind int8

const (
	GranularityAll GranularityKind = iota + 1
	GranularityNone
	GranularitySecond
	GranularityMinute
	GranularityFifteenMinute
	GranularityThirtyMinute
	GranularityHour
	GranularityDay
	GranularityWeek
	GranularityMonth
	GranularityQuarter
	GranularityYear
	GranularityDuration
	GranularityPeriod
)

var granularityKindMap = enumnames.NewMap(map[GranularityKind]string{
	GranularityAll:           "all",
	GranularityNone:          "none",
	GranularitySecond:        "second",
	GranularityMinute:        "minute",
	GranularityFifteenMinute: "fifteen_minute",
	GranularityThirtyMinute:  "thirty_minute",
	GranularityHour:          "hour",
	GranularityDay:           "day",
	GranularityWeek:          "week",
	GranularityMonth:         "month",
	GranularityQuarter:       "quarter",
	GranularityYear:          "year",
	GranularityDuration:      "duration",
	GranularityPeriod:        "period",
})

func (kind GranularityKind) IsValid() bool {
	return granularityKindMap.ContainsEnumValue(kind)
}

func (kind GranularityKind) String() string {
	return granularityKindMap.GetNameOrFallback(kind, "INVALID_GRANULARITY")
}

func (kind GranularityKind) MarshalJSON() ([]byte, error) {
	return granularityKindMap.MarshalToNameJSON(kind)
}

func (kind *GranularityKind) UnmarshalJSON(bytes []byte) error {
	return granularityKindMap.UnmarshalFromNameJSON(bytes, kind)
}

func (kind GranularityKind) isSimple() bool {
	return kind.IsValid() && kind != GranularityDuration && kind != GranularityPeriod
}

// Granularity is the time bucketing of a query. Simple granularities go on the wire as bare
// strings, duration and period granularities as objects.
type Granularity struct {
	Kind GranularityKind
	// Only for GranularityDuration. Sent as milliseconds.
	Duration time.Duration
	// Only for GranularityPeriod, as an ISO-8601 period (e.g. "P2D").
	Period string
	// Only for GranularityPeriod.
	TimeZone string
	// Optional for GranularityDuration and GranularityPeriod.
	Origin string
}

func Granular(kind GranularityKind) Granularity {
	return Granularity{Kind: kind}
}

func DurationGranularity(duration time.Duration, origin string) Granularity {
	return Granularity{Kind: GranularityDuration, Duration: duration, Origin: origin}
}

func PeriodGranularity(period string, timeZone string, origin string) Granularity {
	return Granularity{Kind: GranularityPeriod, Period: period, TimeZone: timeZone, Origin: origin}
}

type durationGranularityFields struct {
	Duration int64  `json:"duration"`
	Origin   string `json:"origin,omitempty"`
}

type periodGranularityFields struct {
	Period   string `json:"period"`
	TimeZone string `json:"timeZone,omitempty"`
	Origin   string `json:"origin,omitempty"`
}

func (granularity Granularity) MarshalJSON() ([]byte, error) {
	switch granularity.Kind {
	case GranularityDuration:
		if granularity.Duration <= 0 {
			return nil, errors.New("duration granularity must be positive")
		}
		return marshalTagged(typeField, granularity.Kind.String(), durationGranularityFields{
			Duration: granularity.Duration.Milliseconds(),
			Origin:   granularity.Origin,
		})
	case GranularityPeriod:
		if granularity.Period == "" {
			return nil, errors.New("period granularity requires a period")
		}
		return marshalTagged(typeField, granularity.Kind.String(), periodGranularityFields{
			Period:   granularity.Period,
			TimeZone: granularity.TimeZone,
			Origin:   granularity.Origin,
		})
	default:
		return granularity.Kind.MarshalJSON()
	}
}

func (granularity *Granularity) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var kind GranularityKind
		if err := kind.UnmarshalJSON(data); err != nil {
			return wrap.Error(err, "invalid granularity")
		}
		if !kind.isSimple() {
			return fmt.Errorf("granularity '%v' must be given as an object", kind)
		}
		*granularity = Granular(kind)
		return nil
	}

	var tagged struct {
		Type GranularityKind `json:"type"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return wrap.Error(err, "invalid granularity")
	}

	switch tagged.Type {
	case GranularityDuration:
		var fields durationGranularityFields
		if err := json.Unmarshal(data, &fields); err != nil {
			return wrap.Error(err, "invalid duration granularity")
		}
		*granularity = DurationGranularity(
			time.Duration(fields.Duration)*time.Millisecond,
			fields.Origin,
		)
	case GranularityPeriod:
		var fields periodGranularityFields
		if err := json.Unmarshal(data, &fields); err != nil {
			return wrap.Error(err, "invalid period granularity")
		}
		*granularity = PeriodGranularity(fields.Period, fields.TimeZone, fields.Origin)
	default:
		// Druid also accepts simple granularities in object form.
		*granularity = Granular(tagged.Type)
	}

	return nil
}
