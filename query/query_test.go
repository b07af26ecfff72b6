package query

import (
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const allTime = "-146136543-09-08T08:23:32.096Z/146140482-04-24T15:36:27.903Z"

func TestNestedFilter(t *testing.T) {
	filter := And(
		Or(
			Selector("user", "Taffe316"),
			Not(Selector("page", "Main_Page")),
		),
		TrueFilter{},
	)

	encoded, err := json.Marshal(filter)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "and",
		"fields": [
			{
				"type": "or",
				"fields": [
					{"type": "selector", "dimension": "user", "value": "Taffe316"},
					{"type": "not", "field": {"type": "selector", "dimension": "page", "value": "Main_Page"}}
				]
			},
			{"type": "true"}
		]
	}`, string(encoded))

	decoded, err := UnmarshalFilter(encoded)
	require.NoError(t, err)
	assert.Equal(t, filter, decoded)
}

func TestQueryRoundTrip(t *testing.T) {
	subquery := ScanQuery{
		DataSource:   Table("countries"),
		Intervals:    []string{allTime},
		ResultFormat: ResultFormatList,
		Columns:      []string{"Name", "languages"},
		BatchSize:    10,
		Order:        OrderingNone,
	}
	join, err := NewJoin(wikipedia, Subquery(subquery), "c.", `countryName == "c.Name"`, JoinInner)
	require.NoError(t, err)

	testQueries := []Query{
		TopNQuery{
			DataSource: wikipedia,
			Dimension:  DefaultDimensionOf("page"),
			Threshold:  10,
			Metric:     "count",
			Aggregations: []Aggregation{
				Count("count"),
				StringFirst("user", "user", 1024),
			},
			PostAggregations: []PostAggregation{
				Arithmetic("percent", "*", FieldAccess("count", "count"), Constant("hundred", AnyFloat(100))),
			},
			Filter:      In("namespace", "Main", "Talk"),
			Intervals:   []string{allTime},
			Granularity: Granular(GranularityAll),
			Context:     Context{"minTopNThreshold": AnyInteger(1000)},
		},
		ScanQuery{
			DataSource:   join,
			Intervals:    []string{allTime},
			ResultFormat: ResultFormatList,
			Filter: BoundFilter{
				Dimension: "added",
				Lower:     ptr("10"),
				Ordering:  SortingNumeric,
			},
			Columns:   []string{},
			BatchSize: 10,
			Limit:     ptr(10),
			Order:     OrderingNone,
		},
		GroupByQuery{
			DataSource: Union("wikipedia", "wikipedia_archive"),
			Dimensions: []Dimension{
				DefaultDimension{Dimension: "page", OutputName: "title", OutputType: OutputTypeString},
				ListFilteredDimension{
					Delegate:    DefaultDimensionOf("channel"),
					Values:      []string{"#en.wikipedia"},
					IsWhitelist: true,
				},
			},
			LimitSpec: &LimitSpec{
				Limit:   10,
				Columns: []OrderByColumnSpec{OrderBy("title", OrderingDescending, SortingAlphanumeric)},
			},
			Having:      GreaterThan("count", Integer(5)),
			Granularity: DurationGranularity(2*time.Hour, "2016-06-27T00:00:00Z"),
			Filter:      Selector("user", "Taffe316"),
			Aggregations: []Aggregation{
				Count("count"),
				Filtered(Selector("isRobot", "true"), Aggregate(LongSum, "botEdits", "count")),
			},
			PostAggregations: []PostAggregation{
				Arithmetic("ratio", "/", FieldAccess("bots", "botEdits"), FieldAccess("all", "count")),
			},
			Intervals:     []string{allTime},
			SubtotalsSpec: [][]string{{"title"}},
			Context:       Context{"timeout": AnyInteger(60000)},
		},
		SearchQuery{
			DataSource:       Lookup("countries"),
			Granularity:      Granular(GranularityAll),
			Filter:           SearchFilter{Dimension: "page", Query: Fragment([]string{"a", "b"}, false)},
			Limit:            100,
			Intervals:        []string{allTime},
			SearchDimensions: []string{"k", "v"},
			Query:            Contains("nor", true),
			Sort:             SortingLexicographic,
			Context:          Context{"useCache": AnyBoolean(false)},
		},
		TimeBoundaryQuery{
			DataSource: wikipedia,
			Bound:      TimeBoundMaxTime,
			Filter:     Selector("page", "Main_Page"),
			Context:    Context{"queryId": AnyString("abc")},
		},
		SegmentMetadataQuery{
			DataSource:             Inline([]string{"k", "v"}, [][]JSONAny{{AnyString("a"), AnyInteger(1)}}),
			Intervals:              []string{allTime},
			ToInclude:              ptr(IncludeColumns("k")),
			Merge:                  true,
			AnalysisTypes:          []AnalysisType{AnalysisCardinality, AnalysisMinMax},
			LenientAggregatorMerge: true,
		},
		DataSourceMetadataQuery{
			DataSource: Subquery(DataSourceMetadataQuery{DataSource: wikipedia}),
		},
	}

	for _, query := range testQueries {
		t.Run(query.QueryType(), func(t *testing.T) {
			encoded, err := json.Marshal(query)
			require.NoError(t, err)

			var fields map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(encoded, &fields))
			assert.Equal(t, `"`+query.QueryType()+`"`, string(fields["queryType"]))

			decoded, err := UnmarshalQuery(encoded)
			require.NoError(t, err)
			assert.Equal(t, query, decoded)

			reencoded, err := json.Marshal(decoded)
			require.NoError(t, err)
			assert.Equal(t, string(encoded), string(reencoded))
		})
	}
}

func TestQueryFieldsAreExclusive(t *testing.T) {
	cases := []struct {
		query        Query
		expectedKeys []string
	}{
		{
			query:        TimeBoundaryQuery{DataSource: wikipedia},
			expectedKeys: []string{"queryType", "dataSource"},
		},
		{
			query:        DataSourceMetadataQuery{DataSource: wikipedia},
			expectedKeys: []string{"queryType", "dataSource"},
		},
		{
			query: SegmentMetadataQuery{DataSource: wikipedia, Intervals: []string{allTime}},
			expectedKeys: []string{
				"queryType", "dataSource", "intervals", "merge", "analysisTypes",
				"lenientAggregatorMerge",
			},
		},
		{
			query:        ScanQuery{DataSource: wikipedia, Intervals: []string{allTime}},
			expectedKeys: []string{"queryType", "dataSource", "intervals", "columns", "batchSize"},
		},
		{
			query: TopNQuery{
				DataSource:  wikipedia,
				Dimension:   DefaultDimensionOf("page"),
				Granularity: Granular(GranularityAll),
			},
			expectedKeys: []string{
				"queryType", "dataSource", "dimension", "threshold", "metric", "aggregations",
				"intervals", "granularity",
			},
		},
		{
			query: NewGroupBy(wikipedia).Build(),
			expectedKeys: []string{
				"queryType", "dataSource", "dimensions", "granularity", "aggregations",
				"postAggregations", "intervals", "subtotalsSpec", "context",
			},
		},
		{
			query: SearchQuery{
				DataSource:  wikipedia,
				Granularity: Granular(GranularityAll),
				Query:       InsensitiveContains("a"),
			},
			expectedKeys: []string{
				"queryType", "dataSource", "granularity", "limit", "intervals", "searchDimensions",
				"query",
			},
		},
	}

	for _, testCase := range cases {
		t.Run(testCase.query.QueryType(), func(t *testing.T) {
			encoded, err := json.Marshal(testCase.query)
			require.NoError(t, err)
			assert.ElementsMatch(t, testCase.expectedKeys, objectKeys(t, encoded))
		})
	}
}

func TestUnionFieldsAreExclusive(t *testing.T) {
	cases := []struct {
		name         string
		value        json.Marshaler
		expectedKeys []string
	}{
		{name: "table", value: wikipedia, expectedKeys: []string{"type", "name"}},
		{name: "lookup", value: Lookup("l"), expectedKeys: []string{"type", "lookup"}},
		{name: "selector", value: Selector("a", "b"), expectedKeys: []string{"type", "dimension", "value"}},
		{name: "not", value: Not(TrueFilter{}), expectedKeys: []string{"type", "field"}},
		{name: "true", value: TrueFilter{}, expectedKeys: []string{"type"}},
		{name: "count", value: Count("c"), expectedKeys: []string{"type", "name"}},
		{
			name:         "filtered",
			value:        Filtered(TrueFilter{}, Count("c")),
			expectedKeys: []string{"type", "filter", "aggregator"},
		},
		{
			name:         "default dimension",
			value:        DefaultDimension{Dimension: "a", OutputName: "b"},
			expectedKeys: []string{"type", "dimension", "outputName"},
		},
		{
			name:         "prefix filtered dimension",
			value:        PrefixFilteredDimension{Delegate: DefaultDimensionOf("a"), Prefix: "x"},
			expectedKeys: []string{"type", "delegate", "prefix"},
		},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			encoded, err := json.Marshal(testCase.value)
			require.NoError(t, err)
			assert.ElementsMatch(t, testCase.expectedKeys, objectKeys(t, encoded))
		})
	}
}

func objectKeys(t *testing.T, encoded []byte) []string {
	t.Helper()

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(encoded, &fields))

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func TestGroupByBuilderMatchesDirectConstruction(t *testing.T) {
	dimensions := []Dimension{DefaultDimensionOf("page")}
	limit := Limit(10, OrderBy("page", OrderingDescending, SortingAlphanumeric))
	having := GreaterThan("count", Integer(1))
	filter := Selector("user", "Taffe316")
	aggregations := []Aggregation{Count("count")}
	postAggregations := []PostAggregation{
		Arithmetic("percent", "/", FieldAccess("count", "count"), Constant("hundred", AnyInteger(100))),
	}
	intervals := []string{allTime}

	built := NewGroupBy(wikipedia).
		Dimensions(dimensions...).
		Limit(limit).
		Having(having).
		Filter(filter).
		Aggregations(aggregations...).
		PostAggregations(postAggregations...).
		Intervals(intervals...).
		Build()

	direct := GroupByQuery{
		DataSource:       wikipedia,
		Dimensions:       dimensions,
		LimitSpec:        &limit,
		Having:           having,
		Granularity:      Granular(GranularityAll),
		Filter:           filter,
		Aggregations:     aggregations,
		PostAggregations: postAggregations,
		Intervals:        intervals,
		SubtotalsSpec:    [][]string{},
		Context:          Context{},
	}

	builtJSON, err := json.Marshal(built)
	require.NoError(t, err)
	directJSON, err := json.Marshal(direct)
	require.NoError(t, err)

	assert.Equal(t, directJSON, builtJSON)
	assert.Equal(t, direct, built)
}

func TestGroupByBuilderDefaults(t *testing.T) {
	query := NewGroupBy(wikipedia).Build()

	assert.Equal(t, Granular(GranularityAll), query.Granularity)
	assert.NotNil(t, query.Dimensions)
	assert.Empty(t, query.Dimensions)
	assert.NotNil(t, query.Aggregations)
	assert.NotNil(t, query.Intervals)
	assert.NotNil(t, query.Context)
	assert.Empty(t, query.Context)
	assert.Nil(t, query.LimitSpec)
	assert.Nil(t, query.Having)
	assert.Nil(t, query.Filter)

	encoded, err := json.Marshal(query)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"queryType": "groupBy",
		"dataSource": {"type": "table", "name": "wikipedia"},
		"dimensions": [],
		"granularity": "all",
		"aggregations": [],
		"postAggregations": [],
		"intervals": [],
		"subtotalsSpec": [],
		"context": {}
	}`, string(encoded))
}

func TestGroupByBuilderRoundTrip(t *testing.T) {
	for _, testCase := range []struct {
		name  string
		query GroupByQuery
	}{
		{name: "defaults", query: NewGroupBy(wikipedia).Build()},
		{
			name: "filled",
			query: NewGroupBy(wikipedia).
				Dimensions(DefaultDimensionOf("page")).
				Aggregations(Count("count")).
				Intervals(allTime).
				SubtotalsSpec([]string{"page"}, []string{}).
				Context(Context{"timeout": AnyInteger(60000)}).
				Build(),
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			encoded, err := json.Marshal(testCase.query)
			require.NoError(t, err)

			decoded, err := UnmarshalQuery(encoded)
			require.NoError(t, err)
			assert.Equal(t, testCase.query, decoded)
		})
	}
}

func TestGroupByBuilderKeepsEmptyListsForNilArguments(t *testing.T) {
	query := NewGroupBy(wikipedia).
		Dimensions().
		Aggregations().
		PostAggregations().
		Intervals().
		SubtotalsSpec().
		Context(nil).
		Build()

	assert.Equal(t, NewGroupBy(wikipedia).Build(), query)

	encoded, err := json.Marshal(query)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "null")
}

func TestWithDataSource(t *testing.T) {
	original := TopNQuery{
		DataSource:  wikipedia,
		Dimension:   DefaultDimensionOf("page"),
		Metric:      "count",
		Granularity: Granular(GranularityAll),
	}
	inline := Inline([]string{"page"}, [][]JSONAny{{AnyString("Main_Page")}})

	replaced, err := WithDataSource(original, inline)
	require.NoError(t, err)

	assert.Equal(t, inline, DataSourceOf(replaced))
	assert.Equal(t, wikipedia, original.DataSource, "original query should be unchanged")
}

func TestWithContextValue(t *testing.T) {
	context := Context{"timeout": AnyInteger(1000)}
	original := ScanQuery{DataSource: wikipedia, Context: context}

	updated, err := WithContextValue(original, "queryId", AnyString("abc"))
	require.NoError(t, err)

	assert.Equal(
		t,
		Context{"timeout": AnyInteger(1000), "queryId": AnyString("abc")},
		ContextOf(updated),
	)
	assert.Len(t, context, 1, "original context map should be unchanged")

	updated, err = WithContextValue(TimeBoundaryQuery{DataSource: wikipedia}, "priority", AnyInteger(1))
	require.NoError(t, err)
	assert.Equal(t, Context{"priority": AnyInteger(1)}, ContextOf(updated))
}

func TestNewJoinValidatesSides(t *testing.T) {
	inline := Inline([]string{"k"}, nil)

	validLeft := []DataSource{wikipedia, Lookup("l"), inline, Subquery(TimeBoundaryQuery{DataSource: wikipedia})}
	for _, left := range validLeft {
		_, err := NewJoin(left, inline, "r.", "k == r.k", JoinInner)
		assert.NoError(t, err, "left side %T", left)
	}

	nestedJoin, err := NewJoin(wikipedia, Lookup("l"), "r.", "k == r.k", JoinLeft)
	require.NoError(t, err)
	_, err = NewJoin(nestedJoin, inline, "s.", "k == s.k", JoinInner)
	assert.NoError(t, err, "join should be allowed on the left side")

	_, err = NewJoin(Union("a", "b"), inline, "r.", "k == r.k", JoinInner)
	assert.ErrorContains(t, err, "union data source cannot be the left side of a join")

	_, err = NewJoin(wikipedia, Table("other"), "r.", "k == r.k", JoinInner)
	assert.ErrorContains(t, err, "table data source cannot be the right side of a join")

	_, err = NewJoin(wikipedia, nestedJoin, "r.", "k == r.k", JoinInner)
	assert.ErrorContains(t, err, "join data source cannot be the right side of a join")

	_, err = NewJoin(wikipedia, nil, "r.", "k == r.k", JoinInner)
	assert.ErrorContains(t, err, "missing data source cannot be the right side of a join")

	_, err = NewJoin(wikipedia, inline, "r.", "k == r.k", JoinType(0))
	assert.ErrorContains(t, err, "invalid join type")
}

func TestLiteralJoinIsNotValidated(t *testing.T) {
	join := JoinDataSource{
		Left:        wikipedia,
		Right:       Table("other"),
		RightPrefix: "r.",
		Condition:   "k == r.k",
		JoinType:    JoinInner,
	}

	_, err := json.Marshal(join)
	assert.NoError(t, err)
}

func TestInlineRowsMustMatchColumns(t *testing.T) {
	_, err := json.Marshal(Inline([]string{"a", "b"}, [][]JSONAny{{AnyString("x")}}))
	assert.ErrorContains(t, err, "row 0 has 1 values, but there are 2 columns")
}

func TestGranularityEncoding(t *testing.T) {
	encoded, err := json.Marshal(DurationGranularity(90*time.Minute, ""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "duration", "duration": 5400000}`, string(encoded))

	_, err = json.Marshal(DurationGranularity(0, ""))
	assert.Error(t, err)

	_, err = json.Marshal(Granularity{Kind: GranularityPeriod})
	assert.Error(t, err)

	var granularity Granularity
	require.NoError(t, json.Unmarshal([]byte(`{"type": "hour"}`), &granularity))
	assert.Equal(t, Granular(GranularityHour), granularity)

	assert.Error(t, json.Unmarshal([]byte(`"period"`), &granularity))
	assert.Error(t, json.Unmarshal([]byte(`"fortnight"`), &granularity))
}
