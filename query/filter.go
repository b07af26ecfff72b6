package query

import (
	"encoding/json"

	"hermannm.dev/wrap"
)

// Filter selects the rows a query reads.
type Filter interface {
	json.Marshaler
	filter()
}

type SelectorFilter struct {
	Dimension    string       `json:"dimension"`
	Value        string       `json:"value"`
	ExtractionFn ExtractionFn `json:"extractionFn,omitempty"`
}

type ColumnComparisonFilter struct {
	Dimensions []string `json:"dimensions"`
}

type RegexFilter struct {
	Dimension    string       `json:"dimension"`
	Pattern      string       `json:"pattern"`
	ExtractionFn ExtractionFn `json:"extractionFn,omitempty"`
}

type AndFilter struct {
	Fields []Filter `json:"fields"`
}

type OrFilter struct {
	Fields []Filter `json:"fields"`
}

type NotFilter struct {
	Field Filter `json:"field"`
}

type JavascriptFilter struct {
	Dimension string `json:"dimension"`
	Function  string `json:"function"`
}

type SearchFilter struct {
	Dimension string          `json:"dimension"`
	Query     SearchQuerySpec `json:"query"`
}

type InFilter struct {
	Dimension string   `json:"dimension"`
	Values    []string `json:"values"`
}

type LikeFilter struct {
	Dimension    string       `json:"dimension"`
	Pattern      string       `json:"pattern"`
	Escape       *string      `json:"escape,omitempty"`
	ExtractionFn ExtractionFn `json:"extractionFn,omitempty"`
}

// BoundFilter matches values within a range. Omitted bounds are unbounded.
type BoundFilter struct {
	Dimension    string       `json:"dimension"`
	Lower        *string      `json:"lower,omitempty"`
	Upper        *string      `json:"upper,omitempty"`
	LowerStrict  bool         `json:"lowerStrict"`
	UpperStrict  bool         `json:"upperStrict"`
	Ordering     SortingOrder `json:"ordering,omitempty"`
	ExtractionFn ExtractionFn `json:"extractionFn,omitempty"`
}

type IntervalFilter struct {
	Dimension    string       `json:"dimension"`
	Intervals    []string     `json:"intervals"`
	ExtractionFn ExtractionFn `json:"extractionFn,omitempty"`
}

type TrueFilter struct{}

func Selector(dimension string, value string) SelectorFilter {
	return SelectorFilter{Dimension: dimension, Value: value}
}

func And(fields ...Filter) AndFilter {
	return AndFilter{Fields: fields}
}

func Or(fields ...Filter) OrFilter {
	return OrFilter{Fields: fields}
}

func Not(field Filter) NotFilter {
	return NotFilter{Field: field}
}

func In(dimension string, values ...string) InFilter {
	return InFilter{Dimension: dimension, Values: values}
}

func (SelectorFilter) filter()         {}
func (ColumnComparisonFilter) filter() {}
func (RegexFilter) filter()            {}
func (AndFilter) filter()              {}
func (OrFilter) filter()               {}
func (NotFilter) filter()              {}
func (JavascriptFilter) filter()       {}
func (SearchFilter) filter()           {}
func (InFilter) filter()               {}
func (LikeFilter) filter()             {}
func (BoundFilter) filter()            {}
func (IntervalFilter) filter()         {}
func (TrueFilter) filter()             {}

func (filter SelectorFilter) MarshalJSON() ([]byte, error) {
	type fields SelectorFilter
	return marshalTagged(typeField, "selector", fields(filter))
}

func (filter ColumnComparisonFilter) MarshalJSON() ([]byte, error) {
	type fields ColumnComparisonFilter
	return marshalTagged(typeField, "columnComparison", fields(filter))
}

func (filter RegexFilter) MarshalJSON() ([]byte, error) {
	type fields RegexFilter
	return marshalTagged(typeField, "regex", fields(filter))
}

func (filter AndFilter) MarshalJSON() ([]byte, error) {
	type fields AndFilter
	return marshalTagged(typeField, "and", fields(filter))
}

func (filter OrFilter) MarshalJSON() ([]byte, error) {
	type fields OrFilter
	return marshalTagged(typeField, "or", fields(filter))
}

func (filter NotFilter) MarshalJSON() ([]byte, error) {
	type fields NotFilter
	return marshalTagged(typeField, "not", fields(filter))
}

func (filter JavascriptFilter) MarshalJSON() ([]byte, error) {
	type fields JavascriptFilter
	return marshalTagged(typeField, "javascript", fields(filter))
}

func (filter SearchFilter) MarshalJSON() ([]byte, error) {
	type fields SearchFilter
	return marshalTagged(typeField, "search", fields(filter))
}

func (filter InFilter) MarshalJSON() ([]byte, error) {
	type fields InFilter
	return marshalTagged(typeField, "in", fields(filter))
}

func (filter LikeFilter) MarshalJSON() ([]byte, error) {
	type fields LikeFilter
	return marshalTagged(typeField, "like", fields(filter))
}

func (filter BoundFilter) MarshalJSON() ([]byte, error) {
	type fields BoundFilter
	return marshalTagged(typeField, "bound", fields(filter))
}

func (filter IntervalFilter) MarshalJSON() ([]byte, error) {
	type fields IntervalFilter
	return marshalTagged(typeField, "interval", fields(filter))
}

func (filter TrueFilter) MarshalJSON() ([]byte, error) {
	return marshalTagged(typeField, "true", struct{}{})
}

func (filter *SelectorFilter) UnmarshalJSON(data []byte) error {
	type fields SelectorFilter
	var decoded struct {
		fields
		ExtractionFn json.RawMessage `json:"extractionFn"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	extractionFn, err := extractionFns.decodeOptional(decoded.ExtractionFn)
	if err != nil {
		return wrap.Error(err, "invalid selector filter extraction function")
	}

	*filter = SelectorFilter(decoded.fields)
	filter.ExtractionFn = extractionFn
	return nil
}

func (filter *RegexFilter) UnmarshalJSON(data []byte) error {
	type fields RegexFilter
	var decoded struct {
		fields
		ExtractionFn json.RawMessage `json:"extractionFn"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	extractionFn, err := extractionFns.decodeOptional(decoded.ExtractionFn)
	if err != nil {
		return wrap.Error(err, "invalid regex filter extraction function")
	}

	*filter = RegexFilter(decoded.fields)
	filter.ExtractionFn = extractionFn
	return nil
}

func (filter *AndFilter) UnmarshalJSON(data []byte) error {
	var decoded struct {
		Fields json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	fields, err := filters.decodeList(decoded.Fields)
	if err != nil {
		return wrap.Error(err, "invalid 'and' filter fields")
	}
	filter.Fields = fields
	return nil
}

func (filter *OrFilter) UnmarshalJSON(data []byte) error {
	var decoded struct {
		Fields json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	fields, err := filters.decodeList(decoded.Fields)
	if err != nil {
		return wrap.Error(err, "invalid 'or' filter fields")
	}
	filter.Fields = fields
	return nil
}

func (filter *NotFilter) UnmarshalJSON(data []byte) error {
	var decoded struct {
		Field json.RawMessage `json:"field"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	field, err := filters.decodeRequired(decoded.Field, "field")
	if err != nil {
		return wrap.Error(err, "invalid 'not' filter field")
	}
	filter.Field = field
	return nil
}

func (filter *SearchFilter) UnmarshalJSON(data []byte) error {
	var decoded struct {
		Dimension string          `json:"dimension"`
		Query     json.RawMessage `json:"query"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	query, err := searchQuerySpecs.decodeRequired(decoded.Query, "query")
	if err != nil {
		return wrap.Error(err, "invalid search filter query")
	}

	filter.Dimension = decoded.Dimension
	filter.Query = query
	return nil
}

func (filter *LikeFilter) UnmarshalJSON(data []byte) error {
	type fields LikeFilter
	var decoded struct {
		fields
		ExtractionFn json.RawMessage `json:"extractionFn"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	extractionFn, err := extractionFns.decodeOptional(decoded.ExtractionFn)
	if err != nil {
		return wrap.Error(err, "invalid like filter extraction function")
	}

	*filter = LikeFilter(decoded.fields)
	filter.ExtractionFn = extractionFn
	return nil
}

func (filter *BoundFilter) UnmarshalJSON(data []byte) error {
	type fields BoundFilter
	var decoded struct {
		fields
		ExtractionFn json.RawMessage `json:"extractionFn"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	extractionFn, err := extractionFns.decodeOptional(decoded.ExtractionFn)
	if err != nil {
		return wrap.Error(err, "invalid bound filter extraction function")
	}

	*filter = BoundFilter(decoded.fields)
	filter.ExtractionFn = extractionFn
	return nil
}

func (filter *IntervalFilter) UnmarshalJSON(data []byte) error {
	type fields IntervalFilter
	var decoded struct {
		fields
		ExtractionFn json.RawMessage `json:"extractionFn"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	extractionFn, err := extractionFns.decodeOptional(decoded.ExtractionFn)
	if err != nil {
		return wrap.Error(err, "invalid interval filter extraction function")
	}

	*filter = IntervalFilter(decoded.fields)
	filter.ExtractionFn = extractionFn
	return nil
}

var filters = union[Filter]{
	name:     "filter",
	tagField: typeField,
	variants: map[string]func([]byte) (Filter, error){
		"selector":         decodeAs[SelectorFilter, Filter],
		"columnComparison": decodeAs[ColumnComparisonFilter, Filter],
		"regex":            decodeAs[RegexFilter, Filter],
		"and":              decodeAs[AndFilter, Filter],
		"or":               decodeAs[OrFilter, Filter],
		"not":              decodeAs[NotFilter, Filter],
		"javascript":       decodeAs[JavascriptFilter, Filter],
		"search":           decodeAs[SearchFilter, Filter],
		"in":               decodeAs[InFilter, Filter],
		"like":             decodeAs[LikeFilter, Filter],
		"bound":            decodeAs[BoundFilter, Filter],
		"interval":         decodeAs[IntervalFilter, Filter],
		"true":             decodeAs[TrueFilter, Filter],
	},
}

func UnmarshalFilter(data []byte) (Filter, error) {
	return filters.decode(data)
}
