package druid

import (
	"bytes"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"hermannm.dev/wrap"
)

// Rows are decoded strictly: in every struct of the row type, including nested structs and the
// elements of slices and maps, each exported field that is not a pointer, interface or omitempty
// must be present in the row. Otherwise, a misspelled field name in the row type would silently
// decode to the zero value.
func decodeRow[T any](data json.RawMessage) (T, error) {
	var row T
	if err := json.Unmarshal(data, &row); err != nil {
		return row, err
	}
	if err := checkRequiredFields(data, reflect.TypeOf((*T)(nil)).Elem()); err != nil {
		var zero T
		return zero, err
	}
	return row, nil
}

func decodeRows[T any](data json.RawMessage) ([]T, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, err
	}

	rows := make([]T, 0, len(elements))
	for i, element := range elements {
		row, err := decodeRow[T](element)
		if err != nil {
			return nil, wrap.Errorf(err, "invalid row at index %d", i)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func checkRequiredFields(data json.RawMessage, rowType reflect.Type) error {
	if !needsFieldCheck(rowType) {
		return nil
	}

	optional := false
	for rowType.Kind() == reflect.Pointer {
		rowType = rowType.Elem()
		optional = true
	}

	isNull := bytes.Equal(bytes.TrimSpace(data), []byte("null"))

	switch rowType.Kind() {
	case reflect.Struct:
		if isNull {
			if optional {
				return nil
			}
			return fmt.Errorf("expected %s object, got null", rowType.Name())
		}
		return checkStructFields(data, rowType)
	case reflect.Slice, reflect.Array:
		if isNull {
			return nil
		}
		var elements []json.RawMessage
		if err := json.Unmarshal(data, &elements); err != nil {
			return err
		}
		for i, element := range elements {
			if err := checkRequiredFields(element, rowType.Elem()); err != nil {
				return wrap.Errorf(err, "invalid element at index %d", i)
			}
		}
	case reflect.Map:
		if isNull {
			return nil
		}
		var values map[string]json.RawMessage
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		for key, value := range values {
			if err := checkRequiredFields(value, rowType.Elem()); err != nil {
				return wrap.Errorf(err, "invalid value for key '%s'", key)
			}
		}
	}

	return nil
}

func checkStructFields(data json.RawMessage, structType reflect.Type) error {
	var values map[string]json.RawMessage
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	valuesByFoldedKey := make(map[string]json.RawMessage, len(values))
	for key, value := range values {
		folded := strings.ToLower(key)
		if _, exists := valuesByFoldedKey[folded]; !exists {
			valuesByFoldedKey[folded] = value
		}
	}

	var missing []string
	for _, field := range rowFieldsOf(structType) {
		// Exact key matches take precedence over case-insensitive ones, as in encoding/json.
		value, ok := values[field.name]
		if !ok {
			value, ok = valuesByFoldedKey[strings.ToLower(field.name)]
		}

		if !ok {
			if field.required {
				missing = append(missing, field.name)
			}
			continue
		}

		if err := checkRequiredFields(value, field.fieldType); err != nil {
			return wrap.Errorf(err, "invalid field '%s' in %s row", field.name, structType.Name())
		}
	}

	switch len(missing) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("missing field '%s' in %s row", missing[0], structType.Name())
	default:
		return errors.New(
			"missing fields '" + strings.Join(missing, "', '") + "' in " + structType.Name() + " row",
		)
	}
}

var (
	jsonUnmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// Types that decode themselves, such as time.Time, are left to their own decoding.
func needsFieldCheck(valueType reflect.Type) bool {
	for valueType.Kind() == reflect.Pointer {
		valueType = valueType.Elem()
	}

	pointerType := reflect.PointerTo(valueType)
	if pointerType.Implements(jsonUnmarshalerType) || pointerType.Implements(textUnmarshalerType) {
		return false
	}

	switch valueType.Kind() {
	case reflect.Struct:
		return true
	case reflect.Slice, reflect.Array, reflect.Map:
		return needsFieldCheck(valueType.Elem())
	default:
		return false
	}
}

type rowField struct {
	name      string
	fieldType reflect.Type
	required  bool
}

var rowFieldsCache sync.Map // reflect.Type -> []rowField

func rowFieldsOf(structType reflect.Type) []rowField {
	if cached, ok := rowFieldsCache.Load(structType); ok {
		return cached.([]rowField)
	}

	var fields []rowField
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, options, _ := strings.Cut(tag, ",")

		// Fields of embedded structs are promoted, as in encoding/json.
		if field.Anonymous && name == "" {
			switch {
			case field.Type.Kind() == reflect.Struct:
				fields = append(fields, rowFieldsOf(field.Type)...)
				continue
			case field.Type.Kind() == reflect.Pointer && field.Type.Elem().Kind() == reflect.Struct:
				for _, promoted := range rowFieldsOf(field.Type.Elem()) {
					promoted.required = false
					fields = append(fields, promoted)
				}
				continue
			}
		}

		if !field.IsExported() {
			continue
		}

		if name == "" {
			name = field.Name
		}

		required := !hasOption(options, "omitempty")
		switch field.Type.Kind() {
		case reflect.Pointer, reflect.Interface:
			required = false
		}

		fields = append(fields, rowField{name: name, fieldType: field.Type, required: required})
	}

	rowFieldsCache.Store(structType, fields)
	return fields
}

func hasOption(options string, option string) bool {
	for options != "" {
		var current string
		current, options, _ = strings.Cut(options, ",")
		if current == option {
			return true
		}
	}
	return false
}
