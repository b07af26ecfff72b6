package csv

import (
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hermannm.dev/druidquery/query"
)

const testData = `currency;value;date;invoiceNumber;responsibleName;supplierId
NOK;1200;2023-01-15T10:00:00Z;1001;Ola Nordmann;5f0c8b5e-2a8c-4bfc-9a3d-3c2b1e4b2a11
EUR;99.5;2023-02-20T12:30:00Z;1002;;8d7e6f5a-4b3c-4d2e-8f1a-0b9c8d7e6f5a
USD;300;2023-03-01T08:15:00Z;A-1003;Kari Nordmann;0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d
`

func newTestReader(t *testing.T, data string) *Reader {
	t.Helper()

	reader, err := NewReader(strings.NewReader(data))
	require.NoError(t, err)
	return reader
}

func TestDeduceDelimiter(t *testing.T) {
	testCases := []struct {
		name     string
		data     string
		expected rune
	}{
		{"comma", "a,b,c\n1,2,3\n", ','},
		{"semicolon", testData, ';'},
		{"tab", "a\tb\n1\t2\n", '\t'},
		{"pipe", "a|b|c\n1|2|3\n", '|'},
		{"consistent beats frequent", "a;b,c,d\n1;2,3\n4;5\n", ';'},
		{"single column", "page\nMain Page\n", ','},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			file := strings.NewReader(testCase.data)

			delimiter, err := DeduceDelimiter(file, maxDelimiterLines, nil)
			require.NoError(t, err)
			assert.Equal(t, string(testCase.expected), string(delimiter))

			offset, err := file.Seek(0, io.SeekCurrent)
			require.NoError(t, err)
			assert.Zero(t, offset, "file should be rewound after deduction")
		})
	}
}

func TestDeduceSchema(t *testing.T) {
	reader := newTestReader(t, testData)

	schema, err := reader.DeduceSchema(100)
	require.NoError(t, err)

	assert.Equal(t, []Column{
		{Name: "currency", Kind: ColumnString},
		{Name: "value", Kind: ColumnDouble},
		{Name: "date", Kind: ColumnTimestamp},
		{Name: "invoiceNumber", Kind: ColumnString},
		{Name: "responsibleName", Kind: ColumnString, Optional: true},
		{Name: "supplierId", Kind: ColumnUUID},
	}, schema.Columns)

	header, err := reader.ReadHeaderRow()
	require.NoError(t, err, "reader should be rewound to header row")
	assert.Equal(t, "currency", header[0])
}

func TestDeduceSchemaChecksLimitedRows(t *testing.T) {
	reader := newTestReader(t, "value\n1\n2\nnot a number\n")

	schema, err := reader.DeduceSchema(2)
	require.NoError(t, err)
	assert.Equal(t, ColumnLong, schema.Columns[0].Kind)
}

func TestReadInline(t *testing.T) {
	reader := newTestReader(t, "__time,page,added,deleted,isRobot\n"+
		"2016-06-27T00:00:11Z,Main Page,10,1.5,true\n"+
		"2016-06-27T00:00:12Z,Talk,,2,false\n")

	inline, schema, err := reader.ReadInline(10)
	require.NoError(t, err)

	assert.Equal(t, []string{"__time", "page", "added", "deleted", "isRobot"}, inline.ColumnNames)
	assert.Equal(t, [][]query.JSONAny{
		{
			query.AnyInteger(1466985611000),
			query.AnyString("Main Page"),
			query.AnyInteger(10),
			query.AnyFloat(1.5),
			query.AnyString("true"),
		},
		{
			query.AnyInteger(1466985612000),
			query.AnyString("Talk"),
			query.AnyString(""),
			query.AnyFloat(2),
			query.AnyString("false"),
		},
	}, inline.Rows)

	assert.True(t, schema.Columns[2].Optional)
	assert.Equal(t, ColumnLong, schema.Columns[2].Kind)

	encoded, err := json.Marshal(inline)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "inline",
		"columnNames": ["__time", "page", "added", "deleted", "isRobot"],
		"rows": [
			[1466985611000, "Main Page", 10, 1.5, "true"],
			[1466985612000, "Talk", "", 2.0, "false"]
		]
	}`, string(encoded))
}

func TestTimestampsOutsideTimeColumnStayStrings(t *testing.T) {
	reader := newTestReader(t, testData)

	inline, _, err := reader.ReadInline(10)
	require.NoError(t, err)
	assert.Equal(t, query.AnyString("2023-01-15T10:00:00Z"), inline.Rows[0][2])
}

func TestReadInlineRowLimit(t *testing.T) {
	reader := newTestReader(t, testData)

	_, _, err := reader.ReadInline(2)
	assert.ErrorIs(t, err, ErrTooManyRows)
}

func TestInvalidHeaderRow(t *testing.T) {
	reader := newTestReader(t, "page,,page\n1,2,3\n")

	_, _, err := reader.ReadInline(10)
	assert.ErrorContains(t, err, "column 2 has a blank name")
	assert.ErrorContains(t, err, "duplicate column name 'page'")
}

func TestRowWithWrongFieldCount(t *testing.T) {
	reader := newTestReader(t, "page,count\nMain Page,1\nTalk\n")

	_, _, err := reader.ReadInline(10)
	assert.Error(t, err)
}

func TestEmptyFile(t *testing.T) {
	reader := newTestReader(t, "")

	_, _, err := reader.ReadInline(10)
	assert.ErrorContains(t, err, "ended before header row")
}

func TestColumnKindNames(t *testing.T) {
	encoded, err := json.Marshal(Schema{Columns: []Column{{Name: "added", Kind: ColumnLong}}})
	require.NoError(t, err)
	assert.JSONEq(
		t,
		`{"columns": [{"name": "added", "kind": "LONG", "optional": false}]}`,
		string(encoded),
	)
}
