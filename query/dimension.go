package query

import (
	"encoding/json"

	"hermannm.dev/wrap"
)

// Dimension specifies how a grouping column is read, and optionally transformed or filtered.
type Dimension interface {
	json.Marshaler
	dimension()
}

type DefaultDimension struct {
	Dimension  string     `json:"dimension"`
	OutputName string     `json:"outputName"`
	OutputType OutputType `json:"outputType,omitempty"`
}

type ExtractionDimension struct {
	Dimension    string       `json:"dimension"`
	OutputName   string       `json:"outputName"`
	OutputType   OutputType   `json:"outputType,omitempty"`
	ExtractionFn ExtractionFn `json:"extractionFn"`
}

// ListFilteredDimension keeps (or, if IsWhitelist is false, drops) the listed values of its
// delegate. Delegates must not cycle back to the dimension that wraps them.
type ListFilteredDimension struct {
	Delegate    Dimension `json:"delegate"`
	Values      []string  `json:"values"`
	IsWhitelist bool      `json:"isWhitelist"`
}

type RegexFilteredDimension struct {
	Delegate Dimension `json:"delegate"`
	Pattern  string    `json:"pattern"`
}

type PrefixFilteredDimension struct {
	Delegate Dimension `json:"delegate"`
	Prefix   string    `json:"prefix"`
}

// LookupMapDimension replaces values using an inline lookup table. Encodes with the "lookup"
// tag, like LookupDimension, and is told apart from it by its "lookup" object.
type LookupMapDimension struct {
	Dimension               string    `json:"dimension"`
	OutputName              string    `json:"outputName"`
	ReplaceMissingValueWith string    `json:"replaceMissingValueWith,omitempty"`
	RetainMissingValue      bool      `json:"retainMissingValue"`
	Lookup                  LookupMap `json:"lookup"`
}

// LookupDimension replaces values using a lookup registered on the cluster.
type LookupDimension struct {
	Dimension  string `json:"dimension"`
	OutputName string `json:"outputName"`
	Name       string `json:"name"`
}

// DefaultDimensionOf reads the named column, with the column name as output name.
func DefaultDimensionOf(dimension string) DefaultDimension {
	return DefaultDimension{
		Dimension:  dimension,
		OutputName: dimension,
		OutputType: OutputTypeString,
	}
}

func (DefaultDimension) dimension()        {}
func (ExtractionDimension) dimension()     {}
func (ListFilteredDimension) dimension()   {}
func (RegexFilteredDimension) dimension()  {}
func (PrefixFilteredDimension) dimension() {}
func (LookupMapDimension) dimension()      {}
func (LookupDimension) dimension()         {}

func (dimension DefaultDimension) MarshalJSON() ([]byte, error) {
	type fields DefaultDimension
	return marshalTagged(typeField, "default", fields(dimension))
}

func (dimension ExtractionDimension) MarshalJSON() ([]byte, error) {
	type fields ExtractionDimension
	return marshalTagged(typeField, "extraction", fields(dimension))
}

func (dimension ListFilteredDimension) MarshalJSON() ([]byte, error) {
	type fields ListFilteredDimension
	return marshalTagged(typeField, "listFiltered", fields(dimension))
}

func (dimension RegexFilteredDimension) MarshalJSON() ([]byte, error) {
	type fields RegexFilteredDimension
	return marshalTagged(typeField, "regexFiltered", fields(dimension))
}

func (dimension PrefixFilteredDimension) MarshalJSON() ([]byte, error) {
	type fields PrefixFilteredDimension
	return marshalTagged(typeField, "prefixFiltered", fields(dimension))
}

func (dimension LookupMapDimension) MarshalJSON() ([]byte, error) {
	type fields LookupMapDimension
	return marshalTagged(typeField, "lookup", fields(dimension))
}

func (dimension LookupDimension) MarshalJSON() ([]byte, error) {
	type fields LookupDimension
	return marshalTagged(typeField, "lookup", fields(dimension))
}

func (dimension *ExtractionDimension) UnmarshalJSON(data []byte) error {
	type fields ExtractionDimension
	var decoded struct {
		fields
		ExtractionFn json.RawMessage `json:"extractionFn"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	extractionFn, err := extractionFns.decodeRequired(decoded.ExtractionFn, "extractionFn")
	if err != nil {
		return wrap.Error(err, "invalid extraction dimension")
	}

	*dimension = ExtractionDimension(decoded.fields)
	dimension.ExtractionFn = extractionFn
	return nil
}

func (dimension *ListFilteredDimension) UnmarshalJSON(data []byte) error {
	type fields ListFilteredDimension
	var decoded struct {
		fields
		Delegate json.RawMessage `json:"delegate"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	delegate, err := dimensions.decodeRequired(decoded.Delegate, "delegate")
	if err != nil {
		return wrap.Error(err, "invalid list-filtered dimension delegate")
	}

	*dimension = ListFilteredDimension(decoded.fields)
	dimension.Delegate = delegate
	return nil
}

func (dimension *RegexFilteredDimension) UnmarshalJSON(data []byte) error {
	type fields RegexFilteredDimension
	var decoded struct {
		fields
		Delegate json.RawMessage `json:"delegate"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	delegate, err := dimensions.decodeRequired(decoded.Delegate, "delegate")
	if err != nil {
		return wrap.Error(err, "invalid regex-filtered dimension delegate")
	}

	*dimension = RegexFilteredDimension(decoded.fields)
	dimension.Delegate = delegate
	return nil
}

func (dimension *PrefixFilteredDimension) UnmarshalJSON(data []byte) error {
	type fields PrefixFilteredDimension
	var decoded struct {
		fields
		Delegate json.RawMessage `json:"delegate"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	delegate, err := dimensions.decodeRequired(decoded.Delegate, "delegate")
	if err != nil {
		return wrap.Error(err, "invalid prefix-filtered dimension delegate")
	}

	*dimension = PrefixFilteredDimension(decoded.fields)
	dimension.Delegate = delegate
	return nil
}

const lookupMapDimensionTag = "lookupMap"

var dimensions = union[Dimension]{
	name:     "dimension",
	tagField: typeField,
	variants: map[string]func([]byte) (Dimension, error){
		"default":             decodeAs[DefaultDimension, Dimension],
		"extraction":          decodeAs[ExtractionDimension, Dimension],
		"listFiltered":        decodeAs[ListFilteredDimension, Dimension],
		"regexFiltered":       decodeAs[RegexFilteredDimension, Dimension],
		"prefixFiltered":      decodeAs[PrefixFilteredDimension, Dimension],
		"lookup":              decodeAs[LookupDimension, Dimension],
		lookupMapDimensionTag: decodeAs[LookupMapDimension, Dimension],
	},
	resolve: func(tag string, fields map[string]json.RawMessage) (string, bool) {
		if tag != "lookup" {
			return "", false
		}
		if lookup, ok := fields["lookup"]; ok && !isAbsent(lookup) {
			return lookupMapDimensionTag, true
		}
		return "", false
	},
}

func UnmarshalDimension(data []byte) (Dimension, error) {
	return dimensions.decode(data)
}
