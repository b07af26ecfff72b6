package query

// GroupByBuilder builds a GroupByQuery. Unset list fields default to empty lists, granularity
// defaults to "all", and context to an empty map. Setting a list or the context to nil keeps it
// empty.
type GroupByBuilder struct {
	query GroupByQuery
}

func NewGroupBy(dataSource DataSource) *GroupByBuilder {
	return &GroupByBuilder{
		query: GroupByQuery{
			DataSource:       dataSource,
			Dimensions:       []Dimension{},
			Granularity:      Granular(GranularityAll),
			Aggregations:     []Aggregation{},
			PostAggregations: []PostAggregation{},
			Intervals:        []string{},
			SubtotalsSpec:    [][]string{},
			Context:          Context{},
		},
	}
}

func (builder *GroupByBuilder) Dimensions(dimensions ...Dimension) *GroupByBuilder {
	if dimensions == nil {
		dimensions = []Dimension{}
	}
	builder.query.Dimensions = dimensions
	return builder
}

func (builder *GroupByBuilder) Limit(limitSpec LimitSpec) *GroupByBuilder {
	builder.query.LimitSpec = &limitSpec
	return builder
}

func (builder *GroupByBuilder) Having(having HavingSpec) *GroupByBuilder {
	builder.query.Having = having
	return builder
}

func (builder *GroupByBuilder) Granularity(granularity Granularity) *GroupByBuilder {
	builder.query.Granularity = granularity
	return builder
}

func (builder *GroupByBuilder) Filter(filter Filter) *GroupByBuilder {
	builder.query.Filter = filter
	return builder
}

func (builder *GroupByBuilder) Aggregations(aggregations ...Aggregation) *GroupByBuilder {
	if aggregations == nil {
		aggregations = []Aggregation{}
	}
	builder.query.Aggregations = aggregations
	return builder
}

func (builder *GroupByBuilder) PostAggregations(postAggregations ...PostAggregation) *GroupByBuilder {
	if postAggregations == nil {
		postAggregations = []PostAggregation{}
	}
	builder.query.PostAggregations = postAggregations
	return builder
}

func (builder *GroupByBuilder) Intervals(intervals ...string) *GroupByBuilder {
	if intervals == nil {
		intervals = []string{}
	}
	builder.query.Intervals = intervals
	return builder
}

func (builder *GroupByBuilder) SubtotalsSpec(subtotals ...[]string) *GroupByBuilder {
	if subtotals == nil {
		subtotals = [][]string{}
	}
	builder.query.SubtotalsSpec = subtotals
	return builder
}

func (builder *GroupByBuilder) Context(context Context) *GroupByBuilder {
	if context == nil {
		context = Context{}
	}
	builder.query.Context = context
	return builder
}

// Build returns the query built so far. The builder can keep being used afterwards, but the
// returned query shares its slices and context map.
func (builder *GroupByBuilder) Build() GroupByQuery {
	return builder.query
}
