package query

import "encoding/json"

// SearchQuerySpec matches dimension values in search queries, search filters and the
// searchQuery extraction function.
type SearchQuerySpec interface {
	json.Marshaler
	searchQuerySpec()
}

type ContainsSearchQuerySpec struct {
	Value         string `json:"value"`
	CaseSensitive bool   `json:"caseSensitive"`
}

type InsensitiveContainsSearchQuerySpec struct {
	Value string `json:"value"`
}

type FragmentSearchQuerySpec struct {
	Values        []string `json:"values"`
	CaseSensitive bool     `json:"caseSensitive"`
}

type RegexSearchQuerySpec struct {
	Pattern string `json:"pattern"`
}

func Contains(value string, caseSensitive bool) ContainsSearchQuerySpec {
	return ContainsSearchQuerySpec{Value: value, CaseSensitive: caseSensitive}
}

func InsensitiveContains(value string) InsensitiveContainsSearchQuerySpec {
	return InsensitiveContainsSearchQuerySpec{Value: value}
}

func Fragment(values []string, caseSensitive bool) FragmentSearchQuerySpec {
	return FragmentSearchQuerySpec{Values: values, CaseSensitive: caseSensitive}
}

func RegexSearch(pattern string) RegexSearchQuerySpec {
	return RegexSearchQuerySpec{Pattern: pattern}
}

func (ContainsSearchQuerySpec) searchQuerySpec()            {}
func (InsensitiveContainsSearchQuerySpec) searchQuerySpec() {}
func (FragmentSearchQuerySpec) searchQuerySpec()            {}
func (RegexSearchQuerySpec) searchQuerySpec()               {}

func (spec ContainsSearchQuerySpec) MarshalJSON() ([]byte, error) {
	type fields ContainsSearchQuerySpec
	return marshalTagged(typeField, "contains", fields(spec))
}

func (spec InsensitiveContainsSearchQuerySpec) MarshalJSON() ([]byte, error) {
	type fields InsensitiveContainsSearchQuerySpec
	return marshalTagged(typeField, "insensitive_contains", fields(spec))
}

func (spec FragmentSearchQuerySpec) MarshalJSON() ([]byte, error) {
	type fields FragmentSearchQuerySpec
	return marshalTagged(typeField, "fragment", fields(spec))
}

func (spec RegexSearchQuerySpec) MarshalJSON() ([]byte, error) {
	type fields RegexSearchQuerySpec
	return marshalTagged(typeField, "regex", fields(spec))
}

var searchQuerySpecs = union[SearchQuerySpec]{
	name:     "search query spec",
	tagField: typeField,
	variants: map[string]func([]byte) (SearchQuerySpec, error){
		"contains":             decodeAs[ContainsSearchQuerySpec, SearchQuerySpec],
		"insensitive_contains": decodeAs[InsensitiveContainsSearchQuerySpec, SearchQuerySpec],
		"fragment":             decodeAs[FragmentSearchQuerySpec, SearchQuerySpec],
		"regex":                decodeAs[RegexSearchQuerySpec, SearchQuerySpec],
	},
}

func UnmarshalSearchQuerySpec(data []byte) (SearchQuerySpec, error) {
	return searchQuerySpecs.decode(data)
}
