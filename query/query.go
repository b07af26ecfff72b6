package query

import (
	"encoding/json"
	"fmt"
	"maps"

	"hermannm.dev/wrap"
)

// Query is one of the native Druid query kinds, sent as the body of a query request.
type Query interface {
	json.Marshaler
	// QueryType is the "queryType" tag of the query on the wire.
	QueryType() string
}

type TopNQuery struct {
	DataSource       DataSource        `json:"dataSource"`
	Dimension        Dimension         `json:"dimension"`
	Threshold        int               `json:"threshold"`
	Metric           string            `json:"metric"`
	Aggregations     []Aggregation     `json:"aggregations"`
	PostAggregations []PostAggregation `json:"postAggregations,omitempty"`
	Filter           Filter            `json:"filter,omitempty"`
	Intervals        []string          `json:"intervals"`
	Granularity      Granularity       `json:"granularity"`
	Context          Context           `json:"context,omitempty"`
}

type ScanQuery struct {
	DataSource   DataSource   `json:"dataSource"`
	Intervals    []string     `json:"intervals"`
	ResultFormat ResultFormat `json:"resultFormat,omitempty"`
	Filter       Filter       `json:"filter,omitempty"`
	Columns      []string     `json:"columns"`
	BatchSize    int          `json:"batchSize"`
	Limit        *int         `json:"limit,omitempty"`
	Order        Ordering     `json:"order,omitempty"`
	Context      Context      `json:"context,omitempty"`
}

// GroupByQuery is best built with NewGroupBy, which fills in defaults for unset fields.
type GroupByQuery struct {
	DataSource       DataSource        `json:"dataSource"`
	Dimensions       []Dimension       `json:"dimensions"`
	LimitSpec        *LimitSpec        `json:"limitSpec,omitempty"`
	Having           HavingSpec        `json:"having,omitempty"`
	Granularity      Granularity       `json:"granularity"`
	Filter           Filter            `json:"filter,omitempty"`
	Aggregations     []Aggregation     `json:"aggregations"`
	PostAggregations []PostAggregation `json:"postAggregations,omitempty"`
	Intervals        []string          `json:"intervals"`
	SubtotalsSpec    [][]string        `json:"subtotalsSpec,omitempty"`
	Context          Context           `json:"context,omitempty"`
}

type SearchQuery struct {
	DataSource       DataSource      `json:"dataSource"`
	Granularity      Granularity     `json:"granularity"`
	Filter           Filter          `json:"filter,omitempty"`
	Limit            int             `json:"limit"`
	Intervals        []string        `json:"intervals"`
	SearchDimensions []string        `json:"searchDimensions"`
	Query            SearchQuerySpec `json:"query"`
	// Sent as {"type": <order>}. Omitted when zero, in which case Druid sorts lexicographically.
	Sort    SortingOrder `json:"-"`
	Context Context      `json:"context,omitempty"`
}

type TimeBoundaryQuery struct {
	DataSource DataSource `json:"dataSource"`
	// Omit to get both bounds.
	Bound   TimeBoundType `json:"bound,omitempty"`
	Filter  Filter        `json:"filter,omitempty"`
	Context Context       `json:"context,omitempty"`
}

type SegmentMetadataQuery struct {
	DataSource             DataSource     `json:"dataSource"`
	Intervals              []string       `json:"intervals"`
	ToInclude              *ToInclude     `json:"toInclude,omitempty"`
	Merge                  bool           `json:"merge"`
	AnalysisTypes          []AnalysisType `json:"analysisTypes"`
	LenientAggregatorMerge bool           `json:"lenientAggregatorMerge"`
	Context                Context        `json:"context,omitempty"`
}

type DataSourceMetadataQuery struct {
	DataSource DataSource `json:"dataSource"`
	Context    Context    `json:"context,omitempty"`
}

func (TopNQuery) QueryType() string               { return "topN" }
func (ScanQuery) QueryType() string               { return "scan" }
func (GroupByQuery) QueryType() string            { return "groupBy" }
func (SearchQuery) QueryType() string             { return "search" }
func (TimeBoundaryQuery) QueryType() string       { return "timeBoundary" }
func (SegmentMetadataQuery) QueryType() string    { return "segmentMetadata" }
func (DataSourceMetadataQuery) QueryType() string { return "dataSourceMetadata" }

func (query TopNQuery) MarshalJSON() ([]byte, error) {
	type fields TopNQuery
	return marshalTagged(queryTypeField, query.QueryType(), fields(query))
}

func (query ScanQuery) MarshalJSON() ([]byte, error) {
	type fields ScanQuery
	return marshalTagged(queryTypeField, query.QueryType(), fields(query))
}

// Optional lists and the context are omitted when nil, but sent when empty, so that the empty
// defaults from NewGroupBy survive a round trip.
func (query GroupByQuery) MarshalJSON() ([]byte, error) {
	type fields GroupByQuery
	encoded := struct {
		fields
		PostAggregations *[]PostAggregation `json:"postAggregations,omitempty"`
		SubtotalsSpec    *[][]string        `json:"subtotalsSpec,omitempty"`
		Context          *Context           `json:"context,omitempty"`
	}{fields: fields(query)}
	if query.PostAggregations != nil {
		encoded.PostAggregations = &query.PostAggregations
	}
	if query.SubtotalsSpec != nil {
		encoded.SubtotalsSpec = &query.SubtotalsSpec
	}
	if query.Context != nil {
		encoded.Context = &query.Context
	}

	return marshalTagged(queryTypeField, query.QueryType(), encoded)
}

type searchSortSpec struct {
	Type SortingOrder `json:"type"`
}

func (query SearchQuery) MarshalJSON() ([]byte, error) {
	type fields SearchQuery
	encoded := struct {
		fields
		Sort *searchSortSpec `json:"sort,omitempty"`
	}{fields: fields(query)}
	if query.Sort != 0 {
		encoded.Sort = &searchSortSpec{Type: query.Sort}
	}

	return marshalTagged(queryTypeField, query.QueryType(), encoded)
}

func (query TimeBoundaryQuery) MarshalJSON() ([]byte, error) {
	type fields TimeBoundaryQuery
	return marshalTagged(queryTypeField, query.QueryType(), fields(query))
}

func (query SegmentMetadataQuery) MarshalJSON() ([]byte, error) {
	type fields SegmentMetadataQuery
	return marshalTagged(queryTypeField, query.QueryType(), fields(query))
}

func (query DataSourceMetadataQuery) MarshalJSON() ([]byte, error) {
	type fields DataSourceMetadataQuery
	return marshalTagged(queryTypeField, query.QueryType(), fields(query))
}

func (query *TopNQuery) UnmarshalJSON(data []byte) error {
	type fields TopNQuery
	var decoded struct {
		fields
		DataSource       json.RawMessage `json:"dataSource"`
		Dimension        json.RawMessage `json:"dimension"`
		Aggregations     json.RawMessage `json:"aggregations"`
		PostAggregations json.RawMessage `json:"postAggregations"`
		Filter           json.RawMessage `json:"filter"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	*query = TopNQuery(decoded.fields)

	var err error
	if query.DataSource, err = dataSources.decodeRequired(decoded.DataSource, "dataSource"); err != nil {
		return wrap.Error(err, "invalid topN data source")
	}
	if query.Dimension, err = dimensions.decodeRequired(decoded.Dimension, "dimension"); err != nil {
		return wrap.Error(err, "invalid topN dimension")
	}
	if query.Aggregations, err = aggregations.decodeList(decoded.Aggregations); err != nil {
		return wrap.Error(err, "invalid topN aggregations")
	}
	if query.PostAggregations, err = postAggregations.decodeList(decoded.PostAggregations); err != nil {
		return wrap.Error(err, "invalid topN post-aggregations")
	}
	if query.Filter, err = filters.decodeOptional(decoded.Filter); err != nil {
		return wrap.Error(err, "invalid topN filter")
	}
	return nil
}

func (query *ScanQuery) UnmarshalJSON(data []byte) error {
	type fields ScanQuery
	var decoded struct {
		fields
		DataSource json.RawMessage `json:"dataSource"`
		Filter     json.RawMessage `json:"filter"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	*query = ScanQuery(decoded.fields)

	var err error
	if query.DataSource, err = dataSources.decodeRequired(decoded.DataSource, "dataSource"); err != nil {
		return wrap.Error(err, "invalid scan data source")
	}
	if query.Filter, err = filters.decodeOptional(decoded.Filter); err != nil {
		return wrap.Error(err, "invalid scan filter")
	}
	return nil
}

func (query *GroupByQuery) UnmarshalJSON(data []byte) error {
	type fields GroupByQuery
	var decoded struct {
		fields
		DataSource       json.RawMessage `json:"dataSource"`
		Dimensions       json.RawMessage `json:"dimensions"`
		Having           json.RawMessage `json:"having"`
		Filter           json.RawMessage `json:"filter"`
		Aggregations     json.RawMessage `json:"aggregations"`
		PostAggregations json.RawMessage `json:"postAggregations"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	*query = GroupByQuery(decoded.fields)

	var err error
	if query.DataSource, err = dataSources.decodeRequired(decoded.DataSource, "dataSource"); err != nil {
		return wrap.Error(err, "invalid groupBy data source")
	}
	if query.Dimensions, err = dimensions.decodeList(decoded.Dimensions); err != nil {
		return wrap.Error(err, "invalid groupBy dimensions")
	}
	if query.Having, err = havingSpecs.decodeOptional(decoded.Having); err != nil {
		return wrap.Error(err, "invalid groupBy having spec")
	}
	if query.Filter, err = filters.decodeOptional(decoded.Filter); err != nil {
		return wrap.Error(err, "invalid groupBy filter")
	}
	if query.Aggregations, err = aggregations.decodeList(decoded.Aggregations); err != nil {
		return wrap.Error(err, "invalid groupBy aggregations")
	}
	if query.PostAggregations, err = postAggregations.decodeList(decoded.PostAggregations); err != nil {
		return wrap.Error(err, "invalid groupBy post-aggregations")
	}
	return nil
}

func (query *SearchQuery) UnmarshalJSON(data []byte) error {
	type fields SearchQuery
	var decoded struct {
		fields
		DataSource json.RawMessage `json:"dataSource"`
		Filter     json.RawMessage `json:"filter"`
		Query      json.RawMessage `json:"query"`
		Sort       *searchSortSpec `json:"sort"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	*query = SearchQuery(decoded.fields)
	if decoded.Sort != nil {
		query.Sort = decoded.Sort.Type
	}

	var err error
	if query.DataSource, err = dataSources.decodeRequired(decoded.DataSource, "dataSource"); err != nil {
		return wrap.Error(err, "invalid search data source")
	}
	if query.Filter, err = filters.decodeOptional(decoded.Filter); err != nil {
		return wrap.Error(err, "invalid search filter")
	}
	if query.Query, err = searchQuerySpecs.decodeRequired(decoded.Query, "query"); err != nil {
		return wrap.Error(err, "invalid search query spec")
	}
	return nil
}

func (query *TimeBoundaryQuery) UnmarshalJSON(data []byte) error {
	type fields TimeBoundaryQuery
	var decoded struct {
		fields
		DataSource json.RawMessage `json:"dataSource"`
		Filter     json.RawMessage `json:"filter"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	*query = TimeBoundaryQuery(decoded.fields)

	var err error
	if query.DataSource, err = dataSources.decodeRequired(decoded.DataSource, "dataSource"); err != nil {
		return wrap.Error(err, "invalid timeBoundary data source")
	}
	if query.Filter, err = filters.decodeOptional(decoded.Filter); err != nil {
		return wrap.Error(err, "invalid timeBoundary filter")
	}
	return nil
}

func (query *SegmentMetadataQuery) UnmarshalJSON(data []byte) error {
	type fields SegmentMetadataQuery
	var decoded struct {
		fields
		DataSource json.RawMessage `json:"dataSource"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	*query = SegmentMetadataQuery(decoded.fields)

	var err error
	if query.DataSource, err = dataSources.decodeRequired(decoded.DataSource, "dataSource"); err != nil {
		return wrap.Error(err, "invalid segmentMetadata data source")
	}
	return nil
}

func (query *DataSourceMetadataQuery) UnmarshalJSON(data []byte) error {
	type fields DataSourceMetadataQuery
	var decoded struct {
		fields
		DataSource json.RawMessage `json:"dataSource"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	*query = DataSourceMetadataQuery(decoded.fields)

	var err error
	if query.DataSource, err = dataSources.decodeRequired(decoded.DataSource, "dataSource"); err != nil {
		return wrap.Error(err, "invalid dataSourceMetadata data source")
	}
	return nil
}

var queries = union[Query]{
	name:     "query",
	tagField: queryTypeField,
	variants: map[string]func([]byte) (Query, error){
		"topN":               decodeAs[TopNQuery, Query],
		"scan":               decodeAs[ScanQuery, Query],
		"groupBy":            decodeAs[GroupByQuery, Query],
		"search":             decodeAs[SearchQuery, Query],
		"timeBoundary":       decodeAs[TimeBoundaryQuery, Query],
		"segmentMetadata":    decodeAs[SegmentMetadataQuery, Query],
		"dataSourceMetadata": decodeAs[DataSourceMetadataQuery, Query],
	},
}

// UnmarshalQuery decodes a native query, picking the query kind from its "queryType" field.
func UnmarshalQuery(data []byte) (Query, error) {
	return queries.decode(data)
}

// DataSourceOf returns the top-level data source of the given query.
func DataSourceOf(query Query) DataSource {
	switch query := query.(type) {
	case TopNQuery:
		return query.DataSource
	case ScanQuery:
		return query.DataSource
	case GroupByQuery:
		return query.DataSource
	case SearchQuery:
		return query.DataSource
	case TimeBoundaryQuery:
		return query.DataSource
	case SegmentMetadataQuery:
		return query.DataSource
	case DataSourceMetadataQuery:
		return query.DataSource
	default:
		return nil
	}
}

// WithDataSource returns a copy of the query with its top-level data source replaced.
func WithDataSource(query Query, dataSource DataSource) (Query, error) {
	switch query := query.(type) {
	case TopNQuery:
		query.DataSource = dataSource
		return query, nil
	case ScanQuery:
		query.DataSource = dataSource
		return query, nil
	case GroupByQuery:
		query.DataSource = dataSource
		return query, nil
	case SearchQuery:
		query.DataSource = dataSource
		return query, nil
	case TimeBoundaryQuery:
		query.DataSource = dataSource
		return query, nil
	case SegmentMetadataQuery:
		query.DataSource = dataSource
		return query, nil
	case DataSourceMetadataQuery:
		query.DataSource = dataSource
		return query, nil
	default:
		return nil, fmt.Errorf("unsupported query type %T", query)
	}
}

// WithContextValue returns a copy of the query with the given context entry set. The original
// query's context map is not modified.
func WithContextValue(query Query, key string, value JSONAny) (Query, error) {
	switch query := query.(type) {
	case TopNQuery:
		query.Context = withEntry(query.Context, key, value)
		return query, nil
	case ScanQuery:
		query.Context = withEntry(query.Context, key, value)
		return query, nil
	case GroupByQuery:
		query.Context = withEntry(query.Context, key, value)
		return query, nil
	case SearchQuery:
		query.Context = withEntry(query.Context, key, value)
		return query, nil
	case TimeBoundaryQuery:
		query.Context = withEntry(query.Context, key, value)
		return query, nil
	case SegmentMetadataQuery:
		query.Context = withEntry(query.Context, key, value)
		return query, nil
	case DataSourceMetadataQuery:
		query.Context = withEntry(query.Context, key, value)
		return query, nil
	default:
		return nil, fmt.Errorf("unsupported query type %T", query)
	}
}

// ContextOf returns the context of the given query, which may be nil.
func ContextOf(query Query) Context {
	switch query := query.(type) {
	case TopNQuery:
		return query.Context
	case ScanQuery:
		return query.Context
	case GroupByQuery:
		return query.Context
	case SearchQuery:
		return query.Context
	case TimeBoundaryQuery:
		return query.Context
	case SegmentMetadataQuery:
		return query.Context
	case DataSourceMetadataQuery:
		return query.Context
	default:
		return nil
	}
}

func withEntry(context Context, key string, value JSONAny) Context {
	copied := make(Context, len(context)+1)
	maps.Copy(copied, context)
	copied[key] = value
	return copied
}
