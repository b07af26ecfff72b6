package druid

import (
	"encoding/json"
	"fmt"
	"time"

	"hermannm.dev/wrap"
)

// QueryResult is a single timestamped result, as returned by timeBoundary and dataSourceMetadata
// queries.
type QueryResult[T any] struct {
	Timestamp string `json:"timestamp"`
	Result    T      `json:"result"`
}

// QueryListResult is a timestamped list of rows, as returned by topN and search queries.
type QueryListResult[T any] struct {
	Timestamp string `json:"timestamp"`
	Result    []T    `json:"result"`
}

// GroupByResponse is a single group-by row.
type GroupByResponse[T any] struct {
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	Event     T      `json:"event"`
}

// ScanResponse is a batch of scan rows from one segment.
type ScanResponse[T any] struct {
	SegmentID string   `json:"segmentId"`
	Columns   []string `json:"columns"`
	Events    []T      `json:"events"`
}

// DimValue is a dimension value matched by a search query.
type DimValue struct {
	Dimension string `json:"dimension"`
	Value     string `json:"value"`
	Count     int64  `json:"count"`
}

// TimeBoundaryResult has the bounds requested by the query's Bound, or both if it was unset.
type TimeBoundaryResult struct {
	MinTime *time.Time `json:"minTime,omitempty"`
	MaxTime *time.Time `json:"maxTime,omitempty"`
}

// SegmentAnalysis is the result of a segment metadata query, for one segment or merged across
// segments. Fields for analysis types that were not requested are left empty.
type SegmentAnalysis struct {
	ID               string                     `json:"id"`
	Intervals        []string                   `json:"intervals"`
	Columns          map[string]ColumnAnalysis  `json:"columns"`
	Size             int64                      `json:"size"`
	NumRows          int64                      `json:"numRows"`
	Aggregators      map[string]json.RawMessage `json:"aggregators,omitempty"`
	TimestampSpec    json.RawMessage            `json:"timestampSpec,omitempty"`
	QueryGranularity json.RawMessage            `json:"queryGranularity,omitempty"`
	Rollup           *bool                      `json:"rollup,omitempty"`
}

type ColumnAnalysis struct {
	Type              string          `json:"type"`
	TypeSignature     string          `json:"typeSignature,omitempty"`
	HasMultipleValues bool            `json:"hasMultipleValues"`
	HasNulls          bool            `json:"hasNulls,omitempty"`
	Size              int64           `json:"size"`
	Cardinality       *int64          `json:"cardinality,omitempty"`
	MinValue          json.RawMessage `json:"minValue,omitempty"`
	MaxValue          json.RawMessage `json:"maxValue,omitempty"`
	ErrorMessage      *string         `json:"errorMessage,omitempty"`
}

func (result *QueryResult[T]) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Timestamp *string         `json:"timestamp"`
		Result    json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	if envelope.Timestamp == nil {
		return missingFieldError("timestamp")
	}
	if envelope.Result == nil {
		return missingFieldError("result")
	}

	row, err := decodeRow[T](envelope.Result)
	if err != nil {
		return wrap.Errorf(err, "invalid result at timestamp '%s'", *envelope.Timestamp)
	}

	*result = QueryResult[T]{Timestamp: *envelope.Timestamp, Result: row}
	return nil
}

func (result *QueryListResult[T]) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Timestamp *string         `json:"timestamp"`
		Result    json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	if envelope.Timestamp == nil {
		return missingFieldError("timestamp")
	}
	if envelope.Result == nil {
		return missingFieldError("result")
	}

	rows, err := decodeRows[T](envelope.Result)
	if err != nil {
		return wrap.Errorf(err, "invalid result at timestamp '%s'", *envelope.Timestamp)
	}

	*result = QueryListResult[T]{Timestamp: *envelope.Timestamp, Result: rows}
	return nil
}

func (response *GroupByResponse[T]) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Version   *string         `json:"version"`
		Timestamp *string         `json:"timestamp"`
		Event     json.RawMessage `json:"event"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	if envelope.Version == nil {
		return missingFieldError("version")
	}
	if envelope.Timestamp == nil {
		return missingFieldError("timestamp")
	}
	if envelope.Event == nil {
		return missingFieldError("event")
	}

	event, err := decodeRow[T](envelope.Event)
	if err != nil {
		return wrap.Errorf(err, "invalid group-by event at timestamp '%s'", *envelope.Timestamp)
	}

	*response = GroupByResponse[T]{
		Version:   *envelope.Version,
		Timestamp: *envelope.Timestamp,
		Event:     event,
	}
	return nil
}

func (response *ScanResponse[T]) UnmarshalJSON(data []byte) error {
	var envelope struct {
		SegmentID *string         `json:"segmentId"`
		Columns   []string        `json:"columns"`
		Events    json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	if envelope.SegmentID == nil {
		return missingFieldError("segmentId")
	}
	if envelope.Events == nil {
		return missingFieldError("events")
	}

	events, err := decodeRows[T](envelope.Events)
	if err != nil {
		return wrap.Errorf(err, "invalid scan events in segment '%s'", *envelope.SegmentID)
	}

	*response = ScanResponse[T]{
		SegmentID: *envelope.SegmentID,
		Columns:   envelope.Columns,
		Events:    events,
	}
	return nil
}

func missingFieldError(field string) error {
	return fmt.Errorf("missing field '%s'", field)
}
