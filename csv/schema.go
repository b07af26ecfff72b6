package csv

import (
	"errors"
	"fmt"

	"hermannm.dev/druidquery/query"
	"hermannm.dev/wrap"
)

type Schema struct {
	Columns []Column `json:"columns"`
}

type Column struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
	// Whether any of the column's fields were blank.
	Optional bool `json:"optional"`
}

func newSchema(columnNames []string) (Schema, error) {
	seen := make(map[string]struct{}, len(columnNames))
	columns := make([]Column, 0, len(columnNames))
	var errs []error

	for i, name := range columnNames {
		if name == "" {
			errs = append(errs, fmt.Errorf("column %d has a blank name", i+1))
			continue
		}
		if _, duplicate := seen[name]; duplicate {
			errs = append(errs, fmt.Errorf("duplicate column name '%s'", name))
			continue
		}
		seen[name] = struct{}{}
		columns = append(columns, Column{Name: name})
	}

	if len(errs) > 0 {
		return Schema{}, wrap.Errors("invalid CSV header row", errs...)
	}
	return Schema{Columns: columns}, nil
}

func (schema Schema) ColumnNames() []string {
	names := make([]string, 0, len(schema.Columns))
	for _, column := range schema.Columns {
		names = append(names, column.Name)
	}
	return names
}

func (schema *Schema) deduceKindsFromRow(row []string) error {
	if len(row) != len(schema.Columns) {
		return fmt.Errorf("row has %d fields, but there are %d columns", len(row), len(schema.Columns))
	}

	for i, field := range row {
		column := &schema.Columns[i]
		if field == "" {
			column.Optional = true
			continue
		}
		column.Kind = combineKinds(column.Kind, deduceFieldKind(field))
	}

	return nil
}

// Columns with only blank fields are strings.
func (schema *Schema) finish() {
	for i, column := range schema.Columns {
		if column.Kind == 0 {
			schema.Columns[i].Kind = ColumnString
		}
	}
}

// DeduceSchema deduces column kinds from the header row and up to maxRowsToCheck data rows.
// The reader is rewound to the header row before returning.
func (reader *Reader) DeduceSchema(maxRowsToCheck int) (schema Schema, err error) {
	defer func() {
		if resetErr := reader.ResetReadPosition(); resetErr != nil && err == nil {
			err = wrap.Error(resetErr, "failed to reset CSV reader after deducing schema")
		}
	}()

	columnNames, err := reader.ReadHeaderRow()
	if err != nil {
		return Schema{}, wrap.Error(err, "failed to read CSV column names from header row")
	}

	schema, err = newSchema(columnNames)
	if err != nil {
		return Schema{}, err
	}

	for {
		row, rowNumber, done, err := reader.ReadRow()
		if done || rowNumber > maxRowsToCheck+1 {
			break
		}
		if err != nil {
			return Schema{}, wrap.Error(err, "failed to read CSV file")
		}

		if err := schema.deduceKindsFromRow(row); err != nil {
			return Schema{}, wrap.Errorf(err, "failed to deduce column kinds from row %d", rowNumber)
		}
	}

	schema.finish()
	return schema, nil
}

var ErrTooManyRows = errors.New("CSV file has too many rows for an inline data source")

// ReadInline reads the whole file into an inline data source, with the header row as column
// names and fields converted by the deduced column kinds. Files with more than maxRows data rows
// fail with ErrTooManyRows.
func (reader *Reader) ReadInline(maxRows int) (query.InlineDataSource, Schema, error) {
	if err := reader.ResetReadPosition(); err != nil {
		return query.InlineDataSource{}, Schema{}, err
	}

	columnNames, err := reader.ReadHeaderRow()
	if err != nil {
		return query.InlineDataSource{}, Schema{}, wrap.Error(
			err,
			"failed to read CSV column names from header row",
		)
	}

	schema, err := newSchema(columnNames)
	if err != nil {
		return query.InlineDataSource{}, Schema{}, err
	}

	var rows [][]string
	for {
		row, rowNumber, done, err := reader.ReadRow()
		if done {
			break
		}
		if err != nil {
			return query.InlineDataSource{}, Schema{}, wrap.Error(err, "failed to read CSV file")
		}
		if len(rows) == maxRows {
			return query.InlineDataSource{}, Schema{}, fmt.Errorf(
				"%w (limit is %d)",
				ErrTooManyRows,
				maxRows,
			)
		}

		if err := schema.deduceKindsFromRow(row); err != nil {
			return query.InlineDataSource{}, Schema{}, wrap.Errorf(
				err,
				"failed to deduce column kinds from row %d",
				rowNumber,
			)
		}
		rows = append(rows, row)
	}
	schema.finish()

	values := make([][]query.JSONAny, 0, len(rows))
	for i, row := range rows {
		rowValues := make([]query.JSONAny, 0, len(row))
		for j, field := range row {
			value, err := schema.Columns[j].toValue(field)
			if err != nil {
				return query.InlineDataSource{}, Schema{}, wrap.Errorf(
					err,
					"failed to convert field in column '%s' of row %d",
					schema.Columns[j].Name,
					i+2,
				)
			}
			rowValues = append(rowValues, value)
		}
		values = append(values, rowValues)
	}

	return query.Inline(schema.ColumnNames(), values), schema, nil
}
