package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wireCase struct {
	name     string
	value    json.Marshaler
	expected string
	decode   func(data []byte) (any, error)
}

func decodeWith[T any](unmarshal func([]byte) (T, error)) func([]byte) (any, error) {
	return func(data []byte) (any, error) {
		return unmarshal(data)
	}
}

func decodeInto[T any]() func([]byte) (any, error) {
	return func(data []byte) (any, error) {
		var value T
		err := json.Unmarshal(data, &value)
		return value, err
	}
}

func ptr[T any](value T) *T {
	return &value
}

var wikipedia = Table("wikipedia")

// One case per deviation from plain lowerCamelCase, as listed in wire.go.
var wireOverrideCases = []wireCase{
	{
		name: "group-by subtotalsSpec",
		value: GroupByQuery{
			DataSource:    wikipedia,
			Dimensions:    []Dimension{DefaultDimensionOf("page")},
			Granularity:   Granular(GranularityAll),
			Aggregations:  []Aggregation{Count("count")},
			Intervals:     []string{"2016-06-27/2016-06-28"},
			SubtotalsSpec: [][]string{{"page"}, {}},
		},
		expected: `{
			"queryType": "groupBy",
			"dataSource": {"type": "table", "name": "wikipedia"},
			"dimensions": [
				{"type": "default", "dimension": "page", "outputName": "page", "outputType": "STRING"}
			],
			"granularity": "all",
			"aggregations": [{"type": "count", "name": "count"}],
			"intervals": ["2016-06-27/2016-06-28"],
			"subtotalsSpec": [["page"], []]
		}`,
		decode: decodeWith(UnmarshalQuery),
	},
	{
		name: "scan order",
		value: ScanQuery{
			DataSource:   wikipedia,
			Intervals:    []string{"2016-06-27/2016-06-28"},
			ResultFormat: ResultFormatCompactedList,
			Columns:      []string{"__time", "page"},
			BatchSize:    20480,
			Limit:        ptr(10),
			Order:        OrderingDescending,
		},
		expected: `{
			"queryType": "scan",
			"dataSource": {"type": "table", "name": "wikipedia"},
			"intervals": ["2016-06-27/2016-06-28"],
			"resultFormat": "compactedList",
			"columns": ["__time", "page"],
			"batchSize": 20480,
			"limit": 10,
			"order": "descending"
		}`,
		decode: decodeWith(UnmarshalQuery),
	},
	{
		name: "search sort",
		value: SearchQuery{
			DataSource:       wikipedia,
			Granularity:      Granular(GranularityDay),
			Limit:            5,
			Intervals:        []string{"2016-06-27/2016-06-28"},
			SearchDimensions: []string{"page", "user"},
			Query:            InsensitiveContains("ger"),
			Sort:             SortingStrlen,
		},
		expected: `{
			"queryType": "search",
			"dataSource": {"type": "table", "name": "wikipedia"},
			"granularity": "day",
			"limit": 5,
			"intervals": ["2016-06-27/2016-06-28"],
			"searchDimensions": ["page", "user"],
			"query": {"type": "insensitive_contains", "value": "ger"},
			"sort": {"type": "strlen"}
		}`,
		decode: decodeWith(UnmarshalQuery),
	},
	{
		name: "lookup map dimension",
		value: LookupMapDimension{
			Dimension:          "countryIsoCode",
			OutputName:         "country",
			RetainMissingValue: true,
			Lookup:             LookupMap{Map: map[string]string{"NO": "Norway"}, IsOneToOne: true},
		},
		expected: `{
			"type": "lookup",
			"dimension": "countryIsoCode",
			"outputName": "country",
			"retainMissingValue": true,
			"lookup": {"type": "map", "map": {"NO": "Norway"}, "isOneToOne": true}
		}`,
		decode: decodeWith(UnmarshalDimension),
	},
	{
		name: "registered lookup dimension",
		value: LookupDimension{
			Dimension:  "countryIsoCode",
			OutputName: "country",
			Name:       "country_names",
		},
		expected: `{
			"type": "lookup",
			"dimension": "countryIsoCode",
			"outputName": "country",
			"name": "country_names"
		}`,
		decode: decodeWith(UnmarshalDimension),
	},
	{
		name: "extraction dimension",
		value: ExtractionDimension{
			Dimension:    "page",
			OutputName:   "pageLength",
			OutputType:   OutputTypeLong,
			ExtractionFn: StrlenExtractionFn{},
		},
		expected: `{
			"type": "extraction",
			"dimension": "page",
			"outputName": "pageLength",
			"outputType": "LONG",
			"extractionFn": {"type": "strlen"}
		}`,
		decode: decodeWith(UnmarshalDimension),
	},
	{
		name: "HLL sketch build",
		value: HLLSketchBuildAggregation{
			Name:       "uniqueUsers",
			FieldName:  "user",
			LgK:        12,
			TgtHllType: HLL8,
			Round:      true,
		},
		expected: `{
			"type": "HLLSketchBuild",
			"name": "uniqueUsers",
			"fieldName": "user",
			"lgK": 12,
			"tgtHllType": "HLL_8",
			"round": true
		}`,
		decode: decodeWith(UnmarshalAggregation),
	},
	{
		name:     "typed field aggregation",
		value:    Aggregate(DoubleSum, "added", "added"),
		expected: `{"type": "doubleSum", "name": "added", "fieldName": "added"}`,
		decode:   decodeWith(UnmarshalAggregation),
	},
	{
		name: "arithmetic fn",
		value: Arithmetic(
			"average", "/",
			FieldAccess("sum", "added"),
			FieldAccess("rows", "count"),
		),
		expected: `{
			"type": "arithmetic",
			"name": "average",
			"fn": "/",
			"fields": [
				{"type": "fieldAccess", "name": "sum", "fieldName": "added"},
				{"type": "fieldAccess", "name": "rows", "fieldName": "count"}
			]
		}`,
		decode: decodeWith(UnmarshalPostAggregation),
	},
	{
		name: "greatest post-aggregation",
		value: GreatestLeastPostAggregation{
			Type: LongGreatest,
			Name: "max",
			Fields: []PostAggregation{
				Arithmetic("double", "*", FieldAccess("a", "a"), Constant("two", AnyInteger(2))),
			},
		},
		expected: `{
			"type": "longGreatest",
			"name": "max",
			"fields": [{
				"type": "arithmetic",
				"name": "double",
				"fn": "*",
				"fields": [
					{"type": "fieldAccess", "name": "a", "fieldName": "a"},
					{"type": "constant", "name": "two", "value": 2}
				]
			}]
		}`,
		decode: decodeWith(UnmarshalPostAggregation),
	},
	{
		name:     "not having spec",
		value:    HavingNot(EqualTo("count", Integer(0))),
		expected: `{"type": "not", "havingSpec": {"type": "equalTo", "aggregation": "count", "value": 0}}`,
		decode:   decodeWith(UnmarshalHavingSpec),
	},
	{
		name: "or having specs",
		value: HavingOr(
			HavingFilter(Selector("page", "Main_Page")),
			DimSelectorHavingSpec{Dimension: "user", Value: AnyString("bot")},
		),
		expected: `{
			"type": "or",
			"havingSpecs": [
				{"type": "filter", "filter": {"type": "selector", "dimension": "page", "value": "Main_Page"}},
				{"type": "dimSelector", "dimension": "user", "value": "bot"}
			]
		}`,
		decode: decodeWith(UnmarshalHavingSpec),
	},
	{
		name:  "limit spec",
		value: Limit(10, OrderBy("count", OrderingDescending, SortingNumeric)),
		expected: `{
			"type": "default",
			"limit": 10,
			"columns": [{"dimension": "count", "direction": "descending", "dimensionOrder": "numeric"}]
		}`,
		decode: decodeInto[LimitSpec](),
	},
	{
		name:     "insensitive contains",
		value:    InsensitiveContains("foo"),
		expected: `{"type": "insensitive_contains", "value": "foo"}`,
		decode:   decodeWith(UnmarshalSearchQuerySpec),
	},
	{
		name:     "true filter",
		value:    TrueFilter{},
		expected: `{"type": "true"}`,
		decode:   decodeWith(UnmarshalFilter),
	},
	{
		name: "like filter escape",
		value: LikeFilter{
			Dimension: "page",
			Pattern:   `100\%%`,
			Escape:    ptr(`\`),
		},
		expected: `{"type": "like", "dimension": "page", "pattern": "100\\%%", "escape": "\\"}`,
		decode:   decodeWith(UnmarshalFilter),
	},
	{
		name:     "to include list",
		value:    IncludeColumns("page", "user"),
		expected: `{"type": "list", "columns": ["page", "user"]}`,
		decode:   decodeInto[ToInclude](),
	},
	{
		name:     "to include all",
		value:    IncludeAll(),
		expected: `{"type": "all"}`,
		decode:   decodeInto[ToInclude](),
	},
	{
		name:     "simple granularity",
		value:    Granular(GranularityFifteenMinute),
		expected: `"fifteen_minute"`,
		decode:   decodeInto[Granularity](),
	},
	{
		name:     "period granularity",
		value:    PeriodGranularity("P2D", "Europe/Oslo", ""),
		expected: `{"type": "period", "period": "P2D", "timeZone": "Europe/Oslo"}`,
		decode:   decodeInto[Granularity](),
	},
	{
		name: "join type",
		value: JoinDataSource{
			Left:        wikipedia,
			Right:       Lookup("countries"),
			RightPrefix: "c.",
			Condition:   `countryIsoCode == "c.k"`,
			JoinType:    JoinLeft,
		},
		expected: `{
			"type": "join",
			"left": {"type": "table", "name": "wikipedia"},
			"right": {"type": "lookup", "lookup": "countries"},
			"rightPrefix": "c.",
			"condition": "countryIsoCode == \"c.k\"",
			"joinType": "LEFT"
		}`,
		decode: decodeWith(UnmarshalDataSource),
	},
}

func TestWireOverrides(t *testing.T) {
	for _, testCase := range wireOverrideCases {
		t.Run(testCase.name, func(t *testing.T) {
			encoded, err := json.Marshal(testCase.value)
			require.NoError(t, err)
			assert.JSONEq(t, testCase.expected, string(encoded))

			decoded, err := testCase.decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, testCase.value, decoded)
		})
	}
}

func TestTagIsFirstMember(t *testing.T) {
	encoded, err := json.Marshal(Aggregate(LongSum, "added", "added"))
	require.NoError(t, err)
	assert.Equal(t, `{"type":"longSum","name":"added","fieldName":"added"}`, string(encoded))

	encoded, err = json.Marshal(DataSourceMetadataQuery{DataSource: wikipedia})
	require.NoError(t, err)
	assert.Equal(
		t,
		`{"queryType":"dataSourceMetadata","dataSource":{"type":"table","name":"wikipedia"}}`,
		string(encoded),
	)
}

func TestLookupMapDimensionDecodesFromBothTags(t *testing.T) {
	expected := LookupMapDimension{
		Dimension:  "code",
		OutputName: "name",
		Lookup:     LookupMap{Map: map[string]string{"a": "b"}},
	}

	for _, tag := range []string{"lookup", "lookupMap"} {
		decoded, err := UnmarshalDimension([]byte(`{
			"type": "` + tag + `",
			"dimension": "code",
			"outputName": "name",
			"retainMissingValue": false,
			"lookup": {"type": "map", "map": {"a": "b"}, "isOneToOne": false}
		}`))
		require.NoError(t, err, tag)
		assert.Equal(t, expected, decoded, tag)
	}
}

func TestUnknownTagIsRejected(t *testing.T) {
	_, err := UnmarshalFilter([]byte(`{"type": "nonsense", "dimension": "page"}`))
	assert.ErrorContains(t, err, "unrecognized filter type 'nonsense'")

	_, err = UnmarshalQuery([]byte(`{"queryType": "timeseries"}`))
	assert.ErrorContains(t, err, "unrecognized query queryType 'timeseries'")

	_, err = UnmarshalAggregation([]byte(`{"name": "count"}`))
	assert.ErrorContains(t, err, "aggregation is missing 'type' field")
}

func TestInvalidEnumFailsToEncode(t *testing.T) {
	_, err := json.Marshal(Aggregate(FieldAggregationType(0), "sum", "added"))
	assert.Error(t, err)

	_, err = json.Marshal(TopNQuery{
		DataSource: wikipedia,
		Dimension:  DefaultDimensionOf("page"),
		Metric:     "count",
		Intervals:  []string{"2016-06-27/2016-06-28"},
	})
	assert.Error(t, err, "zero granularity should not encode")
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, OrderingAscending.IsValid())
	assert.True(t, OrderingNone.IsValid())
	assert.False(t, Ordering(0).IsValid())
	assert.False(t, (OrderingNone + 1).IsValid())

	assert.True(t, SortingVersion.IsValid())
	assert.False(t, SortingOrder(0).IsValid())

	assert.True(t, OutputTypeDouble.IsValid())
	assert.False(t, (OutputTypeDouble + 1).IsValid())

	assert.True(t, GranularityAll.IsValid())
	assert.False(t, GranularityKind(0).IsValid())

	assert.True(t, TimeBoundMaxTime.IsValid())
	assert.False(t, TimeBoundType(0).IsValid())
}
