package query

import (
	"encoding/json"

	"hermannm.dev/wrap"
)

// HavingSpec filters aggregated group-by results, like a HAVING clause in SQL.
type HavingSpec interface {
	json.Marshaler
	havingSpec()
}

type FilterHavingSpec struct {
	Filter Filter `json:"filter"`
}

type GreaterThanHavingSpec struct {
	Aggregation string     `json:"aggregation"`
	Value       JSONNumber `json:"value"`
}

type EqualToHavingSpec struct {
	Aggregation string     `json:"aggregation"`
	Value       JSONNumber `json:"value"`
}

type LessThanHavingSpec struct {
	Aggregation string     `json:"aggregation"`
	Value       JSONNumber `json:"value"`
}

type DimSelectorHavingSpec struct {
	Dimension string  `json:"dimension"`
	Value     JSONAny `json:"value"`
}

type AndHavingSpec struct {
	HavingSpecs []HavingSpec `json:"havingSpecs"`
}

type OrHavingSpec struct {
	HavingSpecs []HavingSpec `json:"havingSpecs"`
}

type NotHavingSpec struct {
	HavingSpec HavingSpec `json:"havingSpec"`
}

func HavingFilter(filter Filter) FilterHavingSpec {
	return FilterHavingSpec{Filter: filter}
}

func GreaterThan(aggregation string, value JSONNumber) GreaterThanHavingSpec {
	return GreaterThanHavingSpec{Aggregation: aggregation, Value: value}
}

func EqualTo(aggregation string, value JSONNumber) EqualToHavingSpec {
	return EqualToHavingSpec{Aggregation: aggregation, Value: value}
}

func LessThan(aggregation string, value JSONNumber) LessThanHavingSpec {
	return LessThanHavingSpec{Aggregation: aggregation, Value: value}
}

func HavingAnd(specs ...HavingSpec) AndHavingSpec {
	return AndHavingSpec{HavingSpecs: specs}
}

func HavingOr(specs ...HavingSpec) OrHavingSpec {
	return OrHavingSpec{HavingSpecs: specs}
}

func HavingNot(spec HavingSpec) NotHavingSpec {
	return NotHavingSpec{HavingSpec: spec}
}

func (FilterHavingSpec) havingSpec()      {}
func (GreaterThanHavingSpec) havingSpec() {}
func (EqualToHavingSpec) havingSpec()     {}
func (LessThanHavingSpec) havingSpec()    {}
func (DimSelectorHavingSpec) havingSpec() {}
func (AndHavingSpec) havingSpec()         {}
func (OrHavingSpec) havingSpec()          {}
func (NotHavingSpec) havingSpec()         {}

func (spec FilterHavingSpec) MarshalJSON() ([]byte, error) {
	type fields FilterHavingSpec
	return marshalTagged(typeField, "filter", fields(spec))
}

func (spec GreaterThanHavingSpec) MarshalJSON() ([]byte, error) {
	type fields GreaterThanHavingSpec
	return marshalTagged(typeField, "greaterThan", fields(spec))
}

func (spec EqualToHavingSpec) MarshalJSON() ([]byte, error) {
	type fields EqualToHavingSpec
	return marshalTagged(typeField, "equalTo", fields(spec))
}

func (spec LessThanHavingSpec) MarshalJSON() ([]byte, error) {
	type fields LessThanHavingSpec
	return marshalTagged(typeField, "lessThan", fields(spec))
}

func (spec DimSelectorHavingSpec) MarshalJSON() ([]byte, error) {
	type fields DimSelectorHavingSpec
	return marshalTagged(typeField, "dimSelector", fields(spec))
}

func (spec AndHavingSpec) MarshalJSON() ([]byte, error) {
	type fields AndHavingSpec
	return marshalTagged(typeField, "and", fields(spec))
}

func (spec OrHavingSpec) MarshalJSON() ([]byte, error) {
	type fields OrHavingSpec
	return marshalTagged(typeField, "or", fields(spec))
}

func (spec NotHavingSpec) MarshalJSON() ([]byte, error) {
	type fields NotHavingSpec
	return marshalTagged(typeField, "not", fields(spec))
}

func (spec *FilterHavingSpec) UnmarshalJSON(data []byte) error {
	var decoded struct {
		Filter json.RawMessage `json:"filter"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	filter, err := filters.decodeRequired(decoded.Filter, "filter")
	if err != nil {
		return wrap.Error(err, "invalid having filter")
	}
	spec.Filter = filter
	return nil
}

func (spec *AndHavingSpec) UnmarshalJSON(data []byte) error {
	var decoded struct {
		HavingSpecs json.RawMessage `json:"havingSpecs"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	specs, err := havingSpecs.decodeList(decoded.HavingSpecs)
	if err != nil {
		return wrap.Error(err, "invalid 'and' having specs")
	}
	spec.HavingSpecs = specs
	return nil
}

func (spec *OrHavingSpec) UnmarshalJSON(data []byte) error {
	var decoded struct {
		HavingSpecs json.RawMessage `json:"havingSpecs"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	specs, err := havingSpecs.decodeList(decoded.HavingSpecs)
	if err != nil {
		return wrap.Error(err, "invalid 'or' having specs")
	}
	spec.HavingSpecs = specs
	return nil
}

func (spec *NotHavingSpec) UnmarshalJSON(data []byte) error {
	var decoded struct {
		HavingSpec json.RawMessage `json:"havingSpec"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	inner, err := havingSpecs.decodeRequired(decoded.HavingSpec, "havingSpec")
	if err != nil {
		return wrap.Error(err, "invalid 'not' having spec")
	}
	spec.HavingSpec = inner
	return nil
}

var havingSpecs = union[HavingSpec]{
	name:     "having spec",
	tagField: typeField,
	variants: map[string]func([]byte) (HavingSpec, error){
		"filter":      decodeAs[FilterHavingSpec, HavingSpec],
		"greaterThan": decodeAs[GreaterThanHavingSpec, HavingSpec],
		"equalTo":     decodeAs[EqualToHavingSpec, HavingSpec],
		"lessThan":    decodeAs[LessThanHavingSpec, HavingSpec],
		"dimSelector": decodeAs[DimSelectorHavingSpec, HavingSpec],
		"and":         decodeAs[AndHavingSpec, HavingSpec],
		"or":          decodeAs[OrHavingSpec, HavingSpec],
		"not":         decodeAs[NotHavingSpec, HavingSpec],
	},
}

func UnmarshalHavingSpec(data []byte) (HavingSpec, error) {
	return havingSpecs.decode(data)
}
