package query

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"hermannm.dev/wrap"
)

// Druid's wire names mostly follow lowerCamelCase of the Go names, but these variants deviate.
// They are protocol contracts, and each is covered by wire_test.go.
//
//	Variant                     Wire tag              Field overrides
//	TopNQuery                   "topN"                -
//	GroupByQuery                "groupBy"             SubtotalsSpec -> "subtotalsSpec"
//	ScanQuery                   "scan"                Order -> "order"
//	SearchQuery                 "search"              Sort -> {"type": <sorting order>}
//	LookupMapDimension          "lookup" (encode)     decodes from "lookup" with an inline
//	                            "lookupMap" (decode)  "lookup" object, or from "lookupMap"
//	LookupDimension             "lookup"              decodes from "lookup" with "name"
//	LookupMap                   "map"                 IsOneToOne -> "isOneToOne"
//	HLLSketchBuildAggregation   "HLLSketchBuild"      TgtHllType -> "tgtHllType"
//	ArithmeticPostAggregation   "arithmetic"          Fn -> "fn"
//	NotHavingSpec               "not"                 HavingSpec -> "havingSpec"
//	And/OrHavingSpec            "and"/"or"            HavingSpecs -> "havingSpecs"
//	DimSelectorHavingSpec       "dimSelector"         -
//	LimitSpec                   "default"             -
//	InsensitiveContains...Spec  "insensitive_contains" (snake_case tags for search specs)
//	TrueFilter                  "true"                no fields
//	ToInclude                   "all"/"none"/"list"   Columns -> "columns" (list only)
//	Granularity                 bare string for simple kinds, "duration"/"period" objects
//	JoinType, OutputType        UPPERCASE names       -
//	HllType                     "HLL_4"/"HLL_6"/"HLL_8"
const (
	queryTypeField = "queryType"
	typeField      = "type"
)

// marshalTagged encodes fields as a JSON object, with the discriminator as its first member.
func marshalTagged(tagField string, tag string, fields any) ([]byte, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("variant '%s' did not encode to a JSON object", tag)
	}

	tagJSON, err := json.Marshal(tag)
	if err != nil {
		return nil, err
	}

	var buffer bytes.Buffer
	buffer.Grow(len(body) + len(tagField) + len(tagJSON) + 4)
	buffer.WriteString(`{"`)
	buffer.WriteString(tagField)
	buffer.WriteString(`":`)
	buffer.Write(tagJSON)
	if len(bytes.TrimSpace(body[1:len(body)-1])) != 0 {
		buffer.WriteByte(',')
		buffer.Write(body[1:])
	} else {
		buffer.WriteByte('}')
	}

	return buffer.Bytes(), nil
}

// union maps the discriminator values of one tagged union to decoders for its variants.
type union[T any] struct {
	name     string
	tagField string
	variants map[string]func(data []byte) (T, error)
	// Optional hook for tags that map to more than one variant, decided by the object's shape.
	resolve func(tag string, fields map[string]json.RawMessage) (string, bool)
}

func (union union[T]) decode(data []byte) (T, error) {
	var zero T

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return zero, wrap.Errorf(err, "expected %s to be a JSON object", union.name)
	}
	if fields == nil {
		return zero, fmt.Errorf("%s was null", union.name)
	}

	rawTag, ok := fields[union.tagField]
	if !ok {
		return zero, fmt.Errorf("%s is missing '%s' field", union.name, union.tagField)
	}
	var tag string
	if err := json.Unmarshal(rawTag, &tag); err != nil {
		return zero, wrap.Errorf(err, "invalid '%s' field in %s", union.tagField, union.name)
	}

	if union.resolve != nil {
		if resolved, ok := union.resolve(tag, fields); ok {
			tag = resolved
		}
	}

	decodeVariant, ok := union.variants[tag]
	if !ok {
		return zero, fmt.Errorf("unrecognized %s %s '%s'", union.name, union.tagField, tag)
	}

	value, err := decodeVariant(data)
	if err != nil {
		return zero, wrap.Errorf(err, "failed to decode %s of %s '%s'", union.name, union.tagField, tag)
	}
	return value, nil
}

// decodeOptional returns the zero value for absent or null fields.
func (union union[T]) decodeOptional(data json.RawMessage) (T, error) {
	if isAbsent(data) {
		var zero T
		return zero, nil
	}
	return union.decode(data)
}

func (union union[T]) decodeList(data json.RawMessage) ([]T, error) {
	if isAbsent(data) {
		return nil, nil
	}

	var rawList []json.RawMessage
	if err := json.Unmarshal(data, &rawList); err != nil {
		return nil, wrap.Errorf(err, "expected list of %s", union.name)
	}

	list := make([]T, 0, len(rawList))
	for i, raw := range rawList {
		value, err := union.decode(raw)
		if err != nil {
			return nil, wrap.Errorf(err, "invalid %s at index %d", union.name, i)
		}
		list = append(list, value)
	}
	return list, nil
}

// decodeRequired is decode, but with an error naming the field when it is absent.
func (union union[T]) decodeRequired(data json.RawMessage, field string) (T, error) {
	if isAbsent(data) {
		var zero T
		return zero, fmt.Errorf("missing required field '%s'", field)
	}
	return union.decode(data)
}

// decodeAs decodes a variant struct V, and returns it as its union interface U.
func decodeAs[V any, U any](data []byte) (U, error) {
	var variant V
	if err := json.Unmarshal(data, &variant); err != nil {
		var zero U
		return zero, err
	}

	value, ok := any(variant).(U)
	if !ok {
		var zero U
		return zero, errors.New("variant does not implement its union type")
	}
	return value, nil
}

func isAbsent(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
