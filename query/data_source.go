package query

import (
	"encoding/json"
	"fmt"

	"hermannm.dev/wrap"
)

// DataSource is the input relation of a query.
type DataSource interface {
	json.Marshaler
	dataSource()
}

type TableDataSource struct {
	Name string `json:"name"`
}

type LookupDataSource struct {
	Lookup string `json:"lookup"`
}

// UnionDataSource reads from several tables with the same schema, as if they were one.
type UnionDataSource struct {
	DataSources []string `json:"dataSources"`
}

// InlineDataSource embeds a literal table in the query. Each row has one value per column name.
type InlineDataSource struct {
	ColumnNames []string    `json:"columnNames"`
	Rows        [][]JSONAny `json:"rows"`
}

// QueryDataSource reads the results of a subquery.
type QueryDataSource struct {
	Query Query `json:"query"`
}

// JoinDataSource joins two data sources. Columns from the right side are prefixed with
// RightPrefix, and Condition is a native Druid expression over both sides.
//
// Druid only accepts table, join, lookup, query and inline data sources on the left, and lookup,
// query and inline data sources on the right. NewJoin checks this, while constructing the struct
// directly leaves it to the server.
type JoinDataSource struct {
	Left        DataSource `json:"left"`
	Right       DataSource `json:"right"`
	RightPrefix string     `json:"rightPrefix"`
	Condition   string     `json:"condition"`
	JoinType    JoinType   `json:"joinType"`
}

func Table(name string) TableDataSource {
	return TableDataSource{Name: name}
}

func Lookup(lookup string) LookupDataSource {
	return LookupDataSource{Lookup: lookup}
}

func Union(tables ...string) UnionDataSource {
	return UnionDataSource{DataSources: tables}
}

func Inline(columnNames []string, rows [][]JSONAny) InlineDataSource {
	return InlineDataSource{ColumnNames: columnNames, Rows: rows}
}

func Subquery(query Query) QueryDataSource {
	return QueryDataSource{Query: query}
}

func NewJoin(
	left DataSource,
	right DataSource,
	rightPrefix string,
	condition string,
	joinType JoinType,
) (JoinDataSource, error) {
	switch left.(type) {
	case TableDataSource, JoinDataSource, LookupDataSource, QueryDataSource, InlineDataSource:
	default:
		return JoinDataSource{}, fmt.Errorf(
			"%s data source cannot be the left side of a join (expected table, join, lookup, query or inline)",
			dataSourceType(left),
		)
	}

	switch right.(type) {
	case LookupDataSource, QueryDataSource, InlineDataSource:
	default:
		return JoinDataSource{}, fmt.Errorf(
			"%s data source cannot be the right side of a join (expected lookup, query or inline)",
			dataSourceType(right),
		)
	}

	if !joinType.IsValid() {
		return JoinDataSource{}, fmt.Errorf("invalid join type %v", joinType)
	}

	return JoinDataSource{
		Left:        left,
		Right:       right,
		RightPrefix: rightPrefix,
		Condition:   condition,
		JoinType:    joinType,
	}, nil
}

func dataSourceType(dataSource DataSource) string {
	switch dataSource.(type) {
	case TableDataSource:
		return "table"
	case LookupDataSource:
		return "lookup"
	case UnionDataSource:
		return "union"
	case InlineDataSource:
		return "inline"
	case QueryDataSource:
		return "query"
	case JoinDataSource:
		return "join"
	case nil:
		return "missing"
	default:
		return fmt.Sprintf("%T", dataSource)
	}
}

func (TableDataSource) dataSource()  {}
func (LookupDataSource) dataSource() {}
func (UnionDataSource) dataSource()  {}
func (InlineDataSource) dataSource() {}
func (QueryDataSource) dataSource()  {}
func (JoinDataSource) dataSource()   {}

func (dataSource TableDataSource) MarshalJSON() ([]byte, error) {
	type fields TableDataSource
	return marshalTagged(typeField, "table", fields(dataSource))
}

func (dataSource LookupDataSource) MarshalJSON() ([]byte, error) {
	type fields LookupDataSource
	return marshalTagged(typeField, "lookup", fields(dataSource))
}

func (dataSource UnionDataSource) MarshalJSON() ([]byte, error) {
	type fields UnionDataSource
	return marshalTagged(typeField, "union", fields(dataSource))
}

func (dataSource InlineDataSource) MarshalJSON() ([]byte, error) {
	for i, row := range dataSource.Rows {
		if len(row) != len(dataSource.ColumnNames) {
			return nil, fmt.Errorf(
				"inline data source row %d has %d values, but there are %d columns",
				i, len(row), len(dataSource.ColumnNames),
			)
		}
	}

	type fields InlineDataSource
	return marshalTagged(typeField, "inline", fields(dataSource))
}

func (dataSource QueryDataSource) MarshalJSON() ([]byte, error) {
	if dataSource.Query == nil {
		return nil, fmt.Errorf("query data source is missing its query")
	}

	type fields QueryDataSource
	return marshalTagged(typeField, "query", fields(dataSource))
}

func (dataSource JoinDataSource) MarshalJSON() ([]byte, error) {
	if dataSource.Left == nil || dataSource.Right == nil {
		return nil, fmt.Errorf("join data source must have both a left and a right side")
	}

	type fields JoinDataSource
	return marshalTagged(typeField, "join", fields(dataSource))
}

func (dataSource *QueryDataSource) UnmarshalJSON(data []byte) error {
	var decoded struct {
		Query json.RawMessage `json:"query"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	query, err := queries.decodeRequired(decoded.Query, "query")
	if err != nil {
		return wrap.Error(err, "invalid subquery in query data source")
	}
	dataSource.Query = query
	return nil
}

func (dataSource *JoinDataSource) UnmarshalJSON(data []byte) error {
	type fields JoinDataSource
	var decoded struct {
		fields
		Left  json.RawMessage `json:"left"`
		Right json.RawMessage `json:"right"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	left, err := dataSources.decodeRequired(decoded.Left, "left")
	if err != nil {
		return wrap.Error(err, "invalid left side of join")
	}
	right, err := dataSources.decodeRequired(decoded.Right, "right")
	if err != nil {
		return wrap.Error(err, "invalid right side of join")
	}

	*dataSource = JoinDataSource(decoded.fields)
	dataSource.Left = left
	dataSource.Right = right
	return nil
}

var dataSources = union[DataSource]{
	name:     "data source",
	tagField: typeField,
	variants: map[string]func([]byte) (DataSource, error){
		"table":  decodeAs[TableDataSource, DataSource],
		"lookup": decodeAs[LookupDataSource, DataSource],
		"union":  decodeAs[UnionDataSource, DataSource],
		"inline": decodeAs[InlineDataSource, DataSource],
		"query":  decodeAs[QueryDataSource, DataSource],
		"join":   decodeAs[JoinDataSource, DataSource],
	},
}

func UnmarshalDataSource(data []byte) (DataSource, error) {
	return dataSources.decode(data)
}
