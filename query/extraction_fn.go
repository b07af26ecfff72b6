package query

import (
	"encoding/json"

	"hermannm.dev/wrap"
)

// ExtractionFn transforms a dimension's raw values before grouping, filtering or output.
type ExtractionFn interface {
	json.Marshaler
	extractionFn()
}

type RegexExtractionFn struct {
	Expr                    string  `json:"expr"`
	Index                   int     `json:"index"`
	ReplaceMissingValue     bool    `json:"replaceMissingValue"`
	ReplaceMissingValueWith *string `json:"replaceMissingValueWith,omitempty"`
}

type PartialExtractionFn struct {
	Expr string `json:"expr"`
}

type SearchQueryExtractionFn struct {
	Query SearchQuerySpec `json:"query"`
}

type SubstringExtractionFn struct {
	Index  int  `json:"index"`
	Length *int `json:"length,omitempty"`
}

type StrlenExtractionFn struct{}

type TimeFormatExtractionFn struct {
	Format      *string      `json:"format,omitempty"`
	TimeZone    *string      `json:"timeZone,omitempty"`
	Locale      *string      `json:"locale,omitempty"`
	Granularity *Granularity `json:"granularity,omitempty"`
	AsMillis    bool         `json:"asMillis"`
}

type TimeExtractionFn struct {
	TimeFormat   string `json:"timeFormat"`
	ResultFormat string `json:"resultFormat"`
	Joda         bool   `json:"joda"`
}

type JavascriptExtractionFn struct {
	Function  string `json:"function"`
	Injective bool   `json:"injective,omitempty"`
}

type RegisteredLookupExtractionFn struct {
	Lookup                  string  `json:"lookup"`
	RetainMissingValue      bool    `json:"retainMissingValue"`
	ReplaceMissingValueWith *string `json:"replaceMissingValueWith,omitempty"`
	Injective               *bool   `json:"injective,omitempty"`
}

type LookupExtractionFn struct {
	Lookup                  LookupMap `json:"lookup"`
	RetainMissingValue      bool      `json:"retainMissingValue"`
	Injective               bool      `json:"injective"`
	ReplaceMissingValueWith *string   `json:"replaceMissingValueWith,omitempty"`
}

type CascadeExtractionFn struct {
	ExtractionFns []ExtractionFn `json:"extractionFns"`
}

type StringFormatExtractionFn struct {
	Format       string        `json:"format"`
	NullHandling *NullHandling `json:"nullHandling,omitempty"`
}

type UpperExtractionFn struct {
	Locale *string `json:"locale,omitempty"`
}

type LowerExtractionFn struct {
	Locale *string `json:"locale,omitempty"`
}

type BucketExtractionFn struct {
	Size   int `json:"size"`
	Offset int `json:"offset"`
}

// LookupMap is an inline lookup table.
type LookupMap struct {
	Map        map[string]string `json:"map"`
	IsOneToOne bool              `json:"isOneToOne"`
}

func (lookup LookupMap) MarshalJSON() ([]byte, error) {
	type fields LookupMap
	return marshalTagged(typeField, "map", fields(lookup))
}

func (RegexExtractionFn) extractionFn()            {}
func (PartialExtractionFn) extractionFn()          {}
func (SearchQueryExtractionFn) extractionFn()      {}
func (SubstringExtractionFn) extractionFn()        {}
func (StrlenExtractionFn) extractionFn()           {}
func (TimeFormatExtractionFn) extractionFn()       {}
func (TimeExtractionFn) extractionFn()             {}
func (JavascriptExtractionFn) extractionFn()       {}
func (RegisteredLookupExtractionFn) extractionFn() {}
func (LookupExtractionFn) extractionFn()           {}
func (CascadeExtractionFn) extractionFn()          {}
func (StringFormatExtractionFn) extractionFn()     {}
func (UpperExtractionFn) extractionFn()            {}
func (LowerExtractionFn) extractionFn()            {}
func (BucketExtractionFn) extractionFn()           {}

func (fn RegexExtractionFn) MarshalJSON() ([]byte, error) {
	type fields RegexExtractionFn
	return marshalTagged(typeField, "regex", fields(fn))
}

func (fn PartialExtractionFn) MarshalJSON() ([]byte, error) {
	type fields PartialExtractionFn
	return marshalTagged(typeField, "partial", fields(fn))
}

func (fn SearchQueryExtractionFn) MarshalJSON() ([]byte, error) {
	type fields SearchQueryExtractionFn
	return marshalTagged(typeField, "searchQuery", fields(fn))
}

func (fn SubstringExtractionFn) MarshalJSON() ([]byte, error) {
	type fields SubstringExtractionFn
	return marshalTagged(typeField, "substring", fields(fn))
}

func (fn StrlenExtractionFn) MarshalJSON() ([]byte, error) {
	type fields StrlenExtractionFn
	return marshalTagged(typeField, "strlen", fields(fn))
}

func (fn TimeFormatExtractionFn) MarshalJSON() ([]byte, error) {
	type fields TimeFormatExtractionFn
	return marshalTagged(typeField, "timeFormat", fields(fn))
}

func (fn TimeExtractionFn) MarshalJSON() ([]byte, error) {
	type fields TimeExtractionFn
	return marshalTagged(typeField, "time", fields(fn))
}

func (fn JavascriptExtractionFn) MarshalJSON() ([]byte, error) {
	type fields JavascriptExtractionFn
	return marshalTagged(typeField, "javascript", fields(fn))
}

func (fn RegisteredLookupExtractionFn) MarshalJSON() ([]byte, error) {
	type fields RegisteredLookupExtractionFn
	return marshalTagged(typeField, "registeredLookup", fields(fn))
}

func (fn LookupExtractionFn) MarshalJSON() ([]byte, error) {
	type fields LookupExtractionFn
	return marshalTagged(typeField, "lookup", fields(fn))
}

func (fn CascadeExtractionFn) MarshalJSON() ([]byte, error) {
	type fields CascadeExtractionFn
	return marshalTagged(typeField, "cascade", fields(fn))
}

func (fn StringFormatExtractionFn) MarshalJSON() ([]byte, error) {
	type fields StringFormatExtractionFn
	return marshalTagged(typeField, "stringFormat", fields(fn))
}

func (fn UpperExtractionFn) MarshalJSON() ([]byte, error) {
	type fields UpperExtractionFn
	return marshalTagged(typeField, "upper", fields(fn))
}

func (fn LowerExtractionFn) MarshalJSON() ([]byte, error) {
	type fields LowerExtractionFn
	return marshalTagged(typeField, "lower", fields(fn))
}

func (fn BucketExtractionFn) MarshalJSON() ([]byte, error) {
	type fields BucketExtractionFn
	return marshalTagged(typeField, "bucket", fields(fn))
}

func (fn *SearchQueryExtractionFn) UnmarshalJSON(data []byte) error {
	var fields struct {
		Query json.RawMessage `json:"query"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	query, err := searchQuerySpecs.decodeRequired(fields.Query, "query")
	if err != nil {
		return err
	}
	fn.Query = query
	return nil
}

func (fn *CascadeExtractionFn) UnmarshalJSON(data []byte) error {
	var fields struct {
		ExtractionFns json.RawMessage `json:"extractionFns"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	cascade, err := extractionFns.decodeList(fields.ExtractionFns)
	if err != nil {
		return wrap.Error(err, "invalid cascade extraction functions")
	}
	fn.ExtractionFns = cascade
	return nil
}

var extractionFns = union[ExtractionFn]{
	name:     "extraction function",
	tagField: typeField,
	variants: map[string]func([]byte) (ExtractionFn, error){
		"regex":            decodeAs[RegexExtractionFn, ExtractionFn],
		"partial":          decodeAs[PartialExtractionFn, ExtractionFn],
		"searchQuery":      decodeAs[SearchQueryExtractionFn, ExtractionFn],
		"substring":        decodeAs[SubstringExtractionFn, ExtractionFn],
		"strlen":           decodeAs[StrlenExtractionFn, ExtractionFn],
		"timeFormat":       decodeAs[TimeFormatExtractionFn, ExtractionFn],
		"time":             decodeAs[TimeExtractionFn, ExtractionFn],
		"javascript":       decodeAs[JavascriptExtractionFn, ExtractionFn],
		"registeredLookup": decodeAs[RegisteredLookupExtractionFn, ExtractionFn],
		"lookup":           decodeAs[LookupExtractionFn, ExtractionFn],
		"cascade":          decodeAs[CascadeExtractionFn, ExtractionFn],
		"stringFormat":     decodeAs[StringFormatExtractionFn, ExtractionFn],
		"upper":            decodeAs[UpperExtractionFn, ExtractionFn],
		"lower":            decodeAs[LowerExtractionFn, ExtractionFn],
		"bucket":           decodeAs[BucketExtractionFn, ExtractionFn],
	},
}

func UnmarshalExtractionFn(data []byte) (ExtractionFn, error) {
	return extractionFns.decode(data)
}
