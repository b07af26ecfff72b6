package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"hermannm.dev/enumnames"
	"hermannm.dev/wrap"
)

type ValueKind int8

const (
	ValueInteger ValueKind = iota + 1
	ValueFloat
	ValueString
	ValueBoolean
)

var valueKindMap = enumnames.NewMap(map[ValueKind]string{
	ValueInteger: "INTEGER",
	ValueFloat:   "FLOAT",
	ValueString:  "STRING",
	ValueBoolean: "BOOLEAN",
})

func (kind ValueKind) IsValid() bool {
	return valueKindMap.ContainsEnumValue(kind)
}

func (kind ValueKind) String() string {
	return valueKindMap.GetNameOrFallback(kind, "INVALID_VALUE_KIND")
}

// JSONNumber is a numeric literal that Druid accepts as either an integer or a float. The
// variant is picked from the literal's lexical form when decoding: no fraction or exponent
// means integer, anything else float. Integers that overflow int64 decode as floats.
type JSONNumber struct {
	kind    ValueKind
	integer int64
	float   float64
}

func Integer(value int64) JSONNumber {
	return JSONNumber{kind: ValueInteger, integer: value}
}

func Float(value float64) JSONNumber {
	return JSONNumber{kind: ValueFloat, float: value}
}

func (number JSONNumber) Kind() ValueKind {
	return number.kind
}

func (number JSONNumber) Int64() (value int64, ok bool) {
	return number.integer, number.kind == ValueInteger
}

func (number JSONNumber) Float64() (value float64, ok bool) {
	return number.float, number.kind == ValueFloat
}

func (number JSONNumber) String() string {
	switch number.kind {
	case ValueInteger:
		return strconv.FormatInt(number.integer, 10)
	case ValueFloat:
		return formatFloat(number.float)
	default:
		return "INVALID_NUMBER"
	}
}

func (number JSONNumber) MarshalJSON() ([]byte, error) {
	switch number.kind {
	case ValueInteger:
		return strconv.AppendInt(nil, number.integer, 10), nil
	case ValueFloat:
		if math.IsNaN(number.float) || math.IsInf(number.float, 0) {
			return nil, fmt.Errorf("%v cannot be encoded as JSON", number.float)
		}
		return []byte(formatFloat(number.float)), nil
	default:
		return nil, fmt.Errorf("number has invalid kind %v", number.kind)
	}
}

func (number *JSONNumber) UnmarshalJSON(data []byte) error {
	literal := string(bytes.TrimSpace(data))
	if literal == "" || !isNumberLiteral(literal) {
		return fmt.Errorf("expected number literal, got '%s'", literal)
	}

	parsed, err := parseNumber(literal)
	if err != nil {
		return err
	}
	*number = parsed
	return nil
}

// Integer before float, so that integer literals keep their full precision.
func parseNumber(literal string) (JSONNumber, error) {
	if !bytes.ContainsAny([]byte(literal), ".eE") {
		if integer, err := strconv.ParseInt(literal, 10, 64); err == nil {
			return Integer(integer), nil
		}
	}

	float, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return JSONNumber{}, wrap.Errorf(err, "invalid number literal '%s'", literal)
	}
	return Float(float), nil
}

// Always keeps a fractional part or exponent, so the literal stays a float on the wire.
func formatFloat(float float64) string {
	formatted := strconv.FormatFloat(float, 'g', -1, 64)
	if !bytes.ContainsAny([]byte(formatted), ".eE") {
		formatted += ".0"
	}
	return formatted
}

func isNumberLiteral(literal string) bool {
	first := literal[0]
	return first == '-' || (first >= '0' && first <= '9')
}

// JSONAny is a free-form scalar literal: integer, float, string or boolean. Decoding tries
// the candidates in that fixed order, by the shape of the JSON literal.
type JSONAny struct {
	kind    ValueKind
	number  JSONNumber
	text    string
	boolean bool
}

func AnyInteger(value int64) JSONAny {
	return JSONAny{kind: ValueInteger, number: Integer(value)}
}

func AnyFloat(value float64) JSONAny {
	return JSONAny{kind: ValueFloat, number: Float(value)}
}

func AnyString(value string) JSONAny {
	return JSONAny{kind: ValueString, text: value}
}

func AnyBoolean(value bool) JSONAny {
	return JSONAny{kind: ValueBoolean, boolean: value}
}

func AnyNumber(number JSONNumber) JSONAny {
	return JSONAny{kind: number.kind, number: number}
}

func (value JSONAny) Kind() ValueKind {
	return value.kind
}

func (value JSONAny) Number() (number JSONNumber, ok bool) {
	return value.number, value.kind == ValueInteger || value.kind == ValueFloat
}

func (value JSONAny) Text() (text string, ok bool) {
	return value.text, value.kind == ValueString
}

func (value JSONAny) Boolean() (boolean bool, ok bool) {
	return value.boolean, value.kind == ValueBoolean
}

func (value JSONAny) String() string {
	switch value.kind {
	case ValueInteger, ValueFloat:
		return value.number.String()
	case ValueString:
		return value.text
	case ValueBoolean:
		return strconv.FormatBool(value.boolean)
	default:
		return "INVALID_VALUE"
	}
}

func (value JSONAny) MarshalJSON() ([]byte, error) {
	switch value.kind {
	case ValueInteger, ValueFloat:
		return value.number.MarshalJSON()
	case ValueString:
		return json.Marshal(value.text)
	case ValueBoolean:
		return json.Marshal(value.boolean)
	default:
		return nil, fmt.Errorf("value has invalid kind %v", value.kind)
	}
}

func (value *JSONAny) UnmarshalJSON(data []byte) error {
	literal := string(bytes.TrimSpace(data))
	if literal == "" {
		return fmt.Errorf("expected scalar literal, got empty input")
	}

	switch {
	case isNumberLiteral(literal):
		number, err := parseNumber(literal)
		if err != nil {
			return err
		}
		*value = AnyNumber(number)
	case literal[0] == '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return wrap.Error(err, "invalid string literal")
		}
		*value = AnyString(text)
	case literal == "true" || literal == "false":
		*value = AnyBoolean(literal == "true")
	default:
		return fmt.Errorf("expected integer, float, string or boolean literal, got '%s'", literal)
	}

	return nil
}

// Context holds query context parameters, such as "timeout" or "queryId".
type Context map[string]JSONAny
