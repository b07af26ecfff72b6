package query

import (
	"encoding/json"
	"fmt"

	"hermannm.dev/enumnames"
	"hermannm.dev/wrap"
)

// PostAggregation computes a named output value from aggregation results.
type PostAggregation interface {
	json.Marshaler
	postAggregation()
}

// ArithmeticPostAggregation applies Fn ("+", "-", "*", "/", "quotient" or "pow") to its fields,
// left to right.
type ArithmeticPostAggregation struct {
	Name     string           `json:"name"`
	Fn       string           `json:"fn"`
	Fields   []PostAggregator `json:"fields"`
	Ordering *string          `json:"ordering,omitempty"`
}

// GreatestLeastPostAggregation picks the greatest or least value of its fields.
type GreatestLeastPostAggregation struct {
	Type   GreatestLeastType `json:"-"`
	Name   string            `json:"name"`
	Fields []PostAggregation `json:"fields"`
}

type JavascriptPostAggregation struct {
	Name       string   `json:"name"`
	FieldNames []string `json:"fieldNames"`
	Function   string   `json:"function"`
}

type GreatestLeastType int8

const (
	DoubleGreatest GreatestLeastType = iota + 1
	LongGreatest
	DoubleLeast
	LongLeast
)

var greatestLeastTypeMap = enumnames.NewMap(map[GreatestLeastType]string{
	DoubleGreatest: "doubleGreatest",
	LongGreatest:   "longGreatest",
	DoubleLeast:    "doubleLeast",
	LongLeast:      "longLeast",
})

func (greatestLeast GreatestLeastType) IsValid() bool {
	return greatestLeastTypeMap.ContainsEnumValue(greatestLeast)
}

func (greatestLeast GreatestLeastType) String() string {
	return greatestLeastTypeMap.GetNameOrFallback(greatestLeast, "INVALID_GREATEST_LEAST_TYPE")
}

func (greatestLeast GreatestLeastType) MarshalJSON() ([]byte, error) {
	return greatestLeastTypeMap.MarshalToNameJSON(greatestLeast)
}

func (greatestLeast *GreatestLeastType) UnmarshalJSON(bytes []byte) error {
	return greatestLeastTypeMap.UnmarshalFromNameJSON(bytes, greatestLeast)
}

func Arithmetic(name string, fn string, fields ...PostAggregator) ArithmeticPostAggregation {
	return ArithmeticPostAggregation{Name: name, Fn: fn, Fields: fields}
}

func (ArithmeticPostAggregation) postAggregation()    {}
func (GreatestLeastPostAggregation) postAggregation() {}
func (JavascriptPostAggregation) postAggregation()    {}

func (postAggregation ArithmeticPostAggregation) MarshalJSON() ([]byte, error) {
	type fields ArithmeticPostAggregation
	return marshalTagged(typeField, "arithmetic", fields(postAggregation))
}

func (postAggregation GreatestLeastPostAggregation) MarshalJSON() ([]byte, error) {
	if !postAggregation.Type.IsValid() {
		return nil, fmt.Errorf(
			"invalid type %v for post-aggregation '%s'", postAggregation.Type, postAggregation.Name,
		)
	}

	type fields GreatestLeastPostAggregation
	return marshalTagged(typeField, postAggregation.Type.String(), fields(postAggregation))
}

func (postAggregation JavascriptPostAggregation) MarshalJSON() ([]byte, error) {
	type fields JavascriptPostAggregation
	return marshalTagged(typeField, "javascript", fields(postAggregation))
}

func (postAggregation *ArithmeticPostAggregation) UnmarshalJSON(data []byte) error {
	type fields ArithmeticPostAggregation
	var decoded struct {
		fields
		Fields json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	operands, err := postAggregators.decodeList(decoded.Fields)
	if err != nil {
		return wrap.Errorf(err, "invalid fields in arithmetic post-aggregation '%s'", decoded.Name)
	}

	*postAggregation = ArithmeticPostAggregation(decoded.fields)
	postAggregation.Fields = operands
	return nil
}

func (postAggregation *GreatestLeastPostAggregation) UnmarshalJSON(data []byte) error {
	var decoded struct {
		Type   GreatestLeastType `json:"type"`
		Name   string            `json:"name"`
		Fields json.RawMessage   `json:"fields"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	fields, err := postAggregations.decodeList(decoded.Fields)
	if err != nil {
		return wrap.Errorf(err, "invalid fields in post-aggregation '%s'", decoded.Name)
	}

	*postAggregation = GreatestLeastPostAggregation{
		Type:   decoded.Type,
		Name:   decoded.Name,
		Fields: fields,
	}
	return nil
}

var postAggregations = union[PostAggregation]{
	name:     "post-aggregation",
	tagField: typeField,
	variants: map[string]func([]byte) (PostAggregation, error){
		"arithmetic":     decodeAs[ArithmeticPostAggregation, PostAggregation],
		"doubleGreatest": decodeAs[GreatestLeastPostAggregation, PostAggregation],
		"longGreatest":   decodeAs[GreatestLeastPostAggregation, PostAggregation],
		"doubleLeast":    decodeAs[GreatestLeastPostAggregation, PostAggregation],
		"longLeast":      decodeAs[GreatestLeastPostAggregation, PostAggregation],
		"javascript":     decodeAs[JavascriptPostAggregation, PostAggregation],
	},
}

func UnmarshalPostAggregation(data []byte) (PostAggregation, error) {
	return postAggregations.decode(data)
}

// PostAggregator is an operand of an arithmetic post-aggregation.
type PostAggregator interface {
	json.Marshaler
	postAggregator()
}

type FieldAccessPostAggregator struct {
	Name      string `json:"name"`
	FieldName string `json:"fieldName"`
}

type FinalizingFieldAccessPostAggregator struct {
	Name      string `json:"name"`
	FieldName string `json:"fieldName"`
}

// ConstantPostAggregator always returns Value, which keeps its literal form on the wire.
type ConstantPostAggregator struct {
	Name  string  `json:"name"`
	Value JSONAny `json:"value"`
}

type HyperUniqueCardinalityPostAggregator struct {
	FieldName string `json:"fieldName"`
}

func FieldAccess(name string, fieldName string) FieldAccessPostAggregator {
	return FieldAccessPostAggregator{Name: name, FieldName: fieldName}
}

func FinalizingFieldAccess(name string, fieldName string) FinalizingFieldAccessPostAggregator {
	return FinalizingFieldAccessPostAggregator{Name: name, FieldName: fieldName}
}

func Constant(name string, value JSONAny) ConstantPostAggregator {
	return ConstantPostAggregator{Name: name, Value: value}
}

func HyperUniqueCardinality(fieldName string) HyperUniqueCardinalityPostAggregator {
	return HyperUniqueCardinalityPostAggregator{FieldName: fieldName}
}

func (FieldAccessPostAggregator) postAggregator()            {}
func (FinalizingFieldAccessPostAggregator) postAggregator()  {}
func (ConstantPostAggregator) postAggregator()               {}
func (HyperUniqueCardinalityPostAggregator) postAggregator() {}

func (postAggregator FieldAccessPostAggregator) MarshalJSON() ([]byte, error) {
	type fields FieldAccessPostAggregator
	return marshalTagged(typeField, "fieldAccess", fields(postAggregator))
}

func (postAggregator FinalizingFieldAccessPostAggregator) MarshalJSON() ([]byte, error) {
	type fields FinalizingFieldAccessPostAggregator
	return marshalTagged(typeField, "finalizingFieldAccess", fields(postAggregator))
}

func (postAggregator ConstantPostAggregator) MarshalJSON() ([]byte, error) {
	type fields ConstantPostAggregator
	return marshalTagged(typeField, "constant", fields(postAggregator))
}

func (postAggregator HyperUniqueCardinalityPostAggregator) MarshalJSON() ([]byte, error) {
	type fields HyperUniqueCardinalityPostAggregator
	return marshalTagged(typeField, "hyperUniqueCardinality", fields(postAggregator))
}

var postAggregators = union[PostAggregator]{
	name:     "post-aggregator",
	tagField: typeField,
	variants: map[string]func([]byte) (PostAggregator, error){
		"fieldAccess":            decodeAs[FieldAccessPostAggregator, PostAggregator],
		"finalizingFieldAccess":  decodeAs[FinalizingFieldAccessPostAggregator, PostAggregator],
		"constant":               decodeAs[ConstantPostAggregator, PostAggregator],
		"hyperUniqueCardinality": decodeAs[HyperUniqueCardinalityPostAggregator, PostAggregator],
	},
}

func UnmarshalPostAggregator(data []byte) (PostAggregator, error) {
	return postAggregators.decode(data)
}
