package csv

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"hermannm.dev/druidquery/query"
	"hermannm.dev/enumnames"
)

// ColumnKind is the type deduced for a CSV column from its non-blank fields.
type ColumnKind int8

const (
	ColumnString ColumnKind = iota + 1
	ColumnLong
	ColumnDouble
	// RFC 3339 timestamps. Sent as epoch milliseconds in the __time column, and as strings in
	// other columns.
	ColumnTimestamp
	// Sent as strings.
	ColumnUUID
)

var columnKindMap = enumnames.NewMap(map[ColumnKind]string{
	ColumnString:    "STRING",
	ColumnLong:      "LONG",
	ColumnDouble:    "DOUBLE",
	ColumnTimestamp: "TIMESTAMP",
	ColumnUUID:      "UUID",
})

func (kind ColumnKind) IsValid() bool {
	return columnKindMap.ContainsEnumValue(kind)
}

func (kind ColumnKind) String() string {
	return columnKindMap.GetNameOrFallback(kind, "INVALID_COLUMN_KIND")
}

func (kind ColumnKind) MarshalJSON() ([]byte, error) {
	return columnKindMap.MarshalToNameJSON(kind)
}

func (kind *ColumnKind) UnmarshalJSON(bytes []byte) error {
	return columnKindMap.UnmarshalFromNameJSON(bytes, kind)
}

// Druid's time column, which inline data sources must give as epoch milliseconds.
const timeColumn = "__time"

func deduceFieldKind(field string) ColumnKind {
	if _, err := strconv.ParseInt(field, 10, 64); err == nil {
		return ColumnLong
	}
	if _, err := strconv.ParseFloat(field, 64); err == nil {
		return ColumnDouble
	}
	if _, err := time.Parse(time.RFC3339, field); err == nil {
		return ColumnTimestamp
	}
	if _, err := uuid.Parse(field); err == nil {
		return ColumnUUID
	}
	return ColumnString
}

// Mixed numeric columns widen to double. Any other mix falls back to string.
func combineKinds(current ColumnKind, deduced ColumnKind) ColumnKind {
	switch {
	case current == 0 || current == deduced:
		return deduced
	case (current == ColumnLong && deduced == ColumnDouble) ||
		(current == ColumnDouble && deduced == ColumnLong):
		return ColumnDouble
	default:
		return ColumnString
	}
}

// Blank fields are sent as empty strings, which Druid reads as null in numeric columns.
func (column Column) toValue(field string) (query.JSONAny, error) {
	if field == "" {
		return query.AnyString(""), nil
	}

	switch column.Kind {
	case ColumnLong:
		integer, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return query.JSONAny{}, err
		}
		return query.AnyInteger(integer), nil
	case ColumnDouble:
		float, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return query.JSONAny{}, err
		}
		return query.AnyFloat(float), nil
	case ColumnTimestamp:
		if column.Name != timeColumn {
			return query.AnyString(field), nil
		}
		timestamp, err := time.Parse(time.RFC3339, field)
		if err != nil {
			return query.JSONAny{}, err
		}
		return query.AnyInteger(timestamp.UnixMilli()), nil
	case ColumnString, ColumnUUID:
		return query.AnyString(field), nil
	default:
		return query.JSONAny{}, fmt.Errorf("column '%s' has invalid kind %v", column.Name, column.Kind)
	}
}
