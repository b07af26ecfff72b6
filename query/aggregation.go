package query

import (
	"encoding/json"
	"fmt"

	"hermannm.dev/enumnames"
	"hermannm.dev/wrap"
)

// Aggregation reduces the rows of each group to a named value.
type Aggregation interface {
	json.Marshaler
	aggregation()
}

type CountAggregation struct {
	Name string `json:"name"`
}

// FieldAggregation is one of the typed sum/min/max/first/last/any aggregations, which all
// take only an output name and an input field.
type FieldAggregation struct {
	Type      FieldAggregationType `json:"-"`
	Name      string               `json:"name"`
	FieldName string               `json:"fieldName"`
}

type StringFirstAggregation struct {
	Name           string `json:"name"`
	FieldName      string `json:"fieldName"`
	MaxStringBytes int    `json:"maxStringBytes"`
}

type StringLastAggregation struct {
	Name           string `json:"name"`
	FieldName      string `json:"fieldName"`
	MaxStringBytes int    `json:"maxStringBytes"`
}

type JavascriptAggregation struct {
	Name        string   `json:"name"`
	FieldNames  []string `json:"fieldNames"`
	FnAggregate string   `json:"fnAggregate"`
	FnCombine   string   `json:"fnCombine"`
	FnReset     string   `json:"fnReset"`
}

type ThetaSketchAggregation struct {
	Name               string `json:"name"`
	FieldName          string `json:"fieldName"`
	IsInputThetaSketch bool   `json:"isInputThetaSketch"`
	Size               int    `json:"size"`
}

type HLLSketchBuildAggregation struct {
	Name       string  `json:"name"`
	FieldName  string  `json:"fieldName"`
	LgK        int     `json:"lgK"`
	TgtHllType HllType `json:"tgtHllType"`
	Round      bool    `json:"round"`
}

type CardinalityAggregation struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
	ByRow  bool     `json:"byRow"`
	Round  bool     `json:"round"`
}

type HyperUniqueAggregation struct {
	Name               string `json:"name"`
	FieldName          string `json:"fieldName"`
	IsInputHyperUnique bool   `json:"isInputHyperUnique"`
	Round              bool   `json:"round"`
}

// FilteredAggregation only aggregates the rows matching its filter.
type FilteredAggregation struct {
	Filter     Filter      `json:"filter"`
	Aggregator Aggregation `json:"aggregator"`
}

type FieldAggregationType int8

const (
	LongSum FieldAggregationType = iota + 1
	DoubleSum
	FloatSum
	LongMax
	DoubleMax
	FloatMax
	LongMin
	DoubleMin
	FloatMin
	LongFirst
	DoubleFirst
	FloatFirst
	LongLast
	DoubleLast
	FloatLast
	LongAny
	DoubleAny
	FloatAny
	StringAny
)

var fieldAggregationTypeMap = enumnames.NewMap(map[FieldAggregationType]string{
	LongSum:     "longSum",
	DoubleSum:   "doubleSum",
	FloatSum:    "floatSum",
	LongMax:     "longMax",
	DoubleMax:   "doubleMax",
	FloatMax:    "floatMax",
	LongMin:     "longMin",
	DoubleMin:   "doubleMin",
	FloatMin:    "floatMin",
	LongFirst:   "longFirst",
	DoubleFirst: "doubleFirst",
	FloatFirst:  "floatFirst",
	LongLast:    "longLast",
	DoubleLast:  "doubleLast",
	FloatLast:   "floatLast",
	LongAny:     "longAny",
	DoubleAny:   "doubleAny",
	FloatAny:    "floatAny",
	StringAny:   "stringAny",
})

func (aggregationType FieldAggregationType) IsValid() bool {
	return fieldAggregationTypeMap.ContainsEnumValue(aggregationType)
}

func (aggregationType FieldAggregationType) String() string {
	return fieldAggregationTypeMap.GetNameOrFallback(aggregationType, "INVALID_AGGREGATION_TYPE")
}

func (aggregationType FieldAggregationType) MarshalJSON() ([]byte, error) {
	return fieldAggregationTypeMap.MarshalToNameJSON(aggregationType)
}

func (aggregationType *FieldAggregationType) UnmarshalJSON(bytes []byte) error {
	return fieldAggregationTypeMap.UnmarshalFromNameJSON(bytes, aggregationType)
}

func Count(name string) CountAggregation {
	return CountAggregation{Name: name}
}

func Aggregate(aggregationType FieldAggregationType, name string, fieldName string) FieldAggregation {
	return FieldAggregation{Type: aggregationType, Name: name, FieldName: fieldName}
}

func StringFirst(name string, fieldName string, maxStringBytes int) StringFirstAggregation {
	return StringFirstAggregation{Name: name, FieldName: fieldName, MaxStringBytes: maxStringBytes}
}

func StringLast(name string, fieldName string, maxStringBytes int) StringLastAggregation {
	return StringLastAggregation{Name: name, FieldName: fieldName, MaxStringBytes: maxStringBytes}
}

func Filtered(filter Filter, aggregator Aggregation) FilteredAggregation {
	return FilteredAggregation{Filter: filter, Aggregator: aggregator}
}

func (CountAggregation) aggregation()          {}
func (FieldAggregation) aggregation()          {}
func (StringFirstAggregation) aggregation()    {}
func (StringLastAggregation) aggregation()     {}
func (JavascriptAggregation) aggregation()     {}
func (ThetaSketchAggregation) aggregation()    {}
func (HLLSketchBuildAggregation) aggregation() {}
func (CardinalityAggregation) aggregation()    {}
func (HyperUniqueAggregation) aggregation()    {}
func (FilteredAggregation) aggregation()       {}

func (aggregation CountAggregation) MarshalJSON() ([]byte, error) {
	type fields CountAggregation
	return marshalTagged(typeField, "count", fields(aggregation))
}

func (aggregation FieldAggregation) MarshalJSON() ([]byte, error) {
	if !aggregation.Type.IsValid() {
		return nil, fmt.Errorf(
			"invalid type %v for aggregation '%s'", aggregation.Type, aggregation.Name,
		)
	}

	type fields FieldAggregation
	return marshalTagged(typeField, aggregation.Type.String(), fields(aggregation))
}

func (aggregation StringFirstAggregation) MarshalJSON() ([]byte, error) {
	type fields StringFirstAggregation
	return marshalTagged(typeField, "stringFirst", fields(aggregation))
}

func (aggregation StringLastAggregation) MarshalJSON() ([]byte, error) {
	type fields StringLastAggregation
	return marshalTagged(typeField, "stringLast", fields(aggregation))
}

func (aggregation JavascriptAggregation) MarshalJSON() ([]byte, error) {
	type fields JavascriptAggregation
	return marshalTagged(typeField, "javascript", fields(aggregation))
}

func (aggregation ThetaSketchAggregation) MarshalJSON() ([]byte, error) {
	type fields ThetaSketchAggregation
	return marshalTagged(typeField, "thetaSketch", fields(aggregation))
}

func (aggregation HLLSketchBuildAggregation) MarshalJSON() ([]byte, error) {
	type fields HLLSketchBuildAggregation
	return marshalTagged(typeField, "HLLSketchBuild", fields(aggregation))
}

func (aggregation CardinalityAggregation) MarshalJSON() ([]byte, error) {
	type fields CardinalityAggregation
	return marshalTagged(typeField, "cardinality", fields(aggregation))
}

func (aggregation HyperUniqueAggregation) MarshalJSON() ([]byte, error) {
	type fields HyperUniqueAggregation
	return marshalTagged(typeField, "hyperUnique", fields(aggregation))
}

func (aggregation FilteredAggregation) MarshalJSON() ([]byte, error) {
	type fields FilteredAggregation
	return marshalTagged(typeField, "filtered", fields(aggregation))
}

func (aggregation *FieldAggregation) UnmarshalJSON(data []byte) error {
	type fields FieldAggregation
	var decoded struct {
		fields
		Type FieldAggregationType `json:"type"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	*aggregation = FieldAggregation(decoded.fields)
	aggregation.Type = decoded.Type
	return nil
}

func (aggregation *FilteredAggregation) UnmarshalJSON(data []byte) error {
	var decoded struct {
		Filter     json.RawMessage `json:"filter"`
		Aggregator json.RawMessage `json:"aggregator"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	filter, err := filters.decodeRequired(decoded.Filter, "filter")
	if err != nil {
		return wrap.Error(err, "invalid filtered aggregation filter")
	}

	aggregator, err := aggregations.decodeRequired(decoded.Aggregator, "aggregator")
	if err != nil {
		return wrap.Error(err, "invalid filtered aggregation aggregator")
	}

	aggregation.Filter = filter
	aggregation.Aggregator = aggregator
	return nil
}

var aggregations = newAggregationUnion()

func newAggregationUnion() union[Aggregation] {
	variants := map[string]func([]byte) (Aggregation, error){
		"count":          decodeAs[CountAggregation, Aggregation],
		"stringFirst":    decodeAs[StringFirstAggregation, Aggregation],
		"stringLast":     decodeAs[StringLastAggregation, Aggregation],
		"javascript":     decodeAs[JavascriptAggregation, Aggregation],
		"thetaSketch":    decodeAs[ThetaSketchAggregation, Aggregation],
		"HLLSketchBuild": decodeAs[HLLSketchBuildAggregation, Aggregation],
		"cardinality":    decodeAs[CardinalityAggregation, Aggregation],
		"hyperUnique":    decodeAs[HyperUniqueAggregation, Aggregation],
		"filtered":       decodeAs[FilteredAggregation, Aggregation],
	}

	for aggregationType := LongSum; aggregationType.IsValid(); aggregationType++ {
		variants[aggregationType.String()] = decodeAs[FieldAggregation, Aggregation]
	}

	return union[Aggregation]{name: "aggregation", tagField: typeField, variants: variants}
}

func UnmarshalAggregation(data []byte) (Aggregation, error) {
	return aggregations.decode(data)
}
