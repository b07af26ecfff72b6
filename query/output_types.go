package query

import "hermannm.dev/enumnames"

// OutputType is the type a dimension's values are cast to in query output.
type OutputType int8

const (
	OutputTypeString OutputType = iota + 1
	OutputTypeLong
	OutputTypeFloat
	OutputTypeDouble
)

var outputTypeMap = enumnames.NewMap(map[OutputType]string{
	OutputTypeString: "STRING",
	OutputTypeLong:   "LONG",
	OutputTypeFloat:  "FLOAT",
	OutputTypeDouble: "DOUBLE",
})

func (outputType OutputType) IsValid() bool {
	return outputTypeMap.ContainsEnumValue(outputType)
}

func (outputType OutputType) String() string {
	return outputTypeMap.GetNameOrFallback(outputType, "INVALID_OUTPUT_TYPE")
}

func (outputType OutputType) MarshalJSON() ([]byte, error) {
	return outputTypeMap.MarshalToNameJSON(outputType)
}

func (outputType *OutputType) UnmarshalJSON(bytes []byte) error {
	return outputTypeMap.UnmarshalFromNameJSON(bytes, outputType)
}

type ResultFormat int8

const (
	ResultFormatList ResultFormat = iota + 1
	ResultFormatCompactedList
	ResultFormatValueVector
)

var resultFormatMap = enumnames.NewMap(map[ResultFormat]string{
	ResultFormatList:          "list",
	ResultFormatCompactedList: "compactedList",
	ResultFormatValueVector:   "valueVector",
})

func (format ResultFormat) IsValid() bool {
	return resultFormatMap.ContainsEnumValue(format)
}

func (format ResultFormat) String() string {
	return resultFormatMap.GetNameOrFallback(format, "INVALID_RESULT_FORMAT")
}

func (format ResultFormat) MarshalJSON() ([]byte, error) {
	return resultFormatMap.MarshalToNameJSON(format)
}

func (format *ResultFormat) UnmarshalJSON(bytes []byte) error {
	return resultFormatMap.UnmarshalFromNameJSON(bytes, format)
}

// NullHandling decides what the stringFormat extraction function does with null values.
type NullHandling int8

const (
	NullHandlingNullString NullHandling = iota + 1
	NullHandlingEmptyString
	NullHandlingReturnNull
)

var nullHandlingMap = enumnames.NewMap(map[NullHandling]string{
	NullHandlingNullString:  "nullString",
	NullHandlingEmptyString: "emptyString",
	NullHandlingReturnNull:  "returnNull",
})

func (handling NullHandling) IsValid() bool {
	return nullHandlingMap.ContainsEnumValue(handling)
}

func (handling NullHandling) String() string {
	return nullHandlingMap.GetNameOrFallback(handling, "INVALID_NULL_HANDLING")
}

func (handling NullHandling) MarshalJSON() ([]byte, error) {
	return nullHandlingMap.MarshalToNameJSON(handling)
}

func (handling *NullHandling) UnmarshalJSON(bytes []byte) error {
	return nullHandlingMap.UnmarshalFromNameJSON(bytes, handling)
}
