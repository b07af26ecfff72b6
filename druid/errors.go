package druid

import (
	"encoding/json"
	"errors"
	"fmt"

	"hermannm.dev/enumnames"
	"hermannm.dev/wrap"
)

// ErrorKind classifies why a query failed.
type ErrorKind int8

const (
	// The HTTP exchange with Druid could not be completed.
	ErrorConnection ErrorKind = iota + 1
	// The query could not be encoded to JSON. No request was sent.
	ErrorRequestEncoding
	// Druid's response body was not valid JSON.
	ErrorResponseNotJSON
	// Druid's response was a JSON object with an "error" field.
	ErrorServer
	// Druid's response was valid JSON, but did not match the expected result type.
	ErrorResponseShape
	// None of the above.
	ErrorUnknown
)

var errorKindMap = enumnames.NewMap(map[ErrorKind]string{
	ErrorConnection:      "CONNECTION",
	ErrorRequestEncoding: "REQUEST_ENCODING",
	ErrorResponseNotJSON: "RESPONSE_NOT_JSON",
	ErrorServer:          "SERVER",
	ErrorResponseShape:   "RESPONSE_SHAPE",
	ErrorUnknown:         "UNKNOWN",
})

func (kind ErrorKind) IsValid() bool {
	return errorKindMap.ContainsEnumValue(kind)
}

func (kind ErrorKind) String() string {
	return errorKindMap.GetNameOrFallback(kind, "INVALID_ERROR_KIND")
}

func (kind ErrorKind) MarshalJSON() ([]byte, error) {
	return errorKindMap.MarshalToNameJSON(kind)
}

func (kind *ErrorKind) UnmarshalJSON(bytes []byte) error {
	return errorKindMap.UnmarshalFromNameJSON(bytes, kind)
}

// Error is returned by all query operations on failure. Use errors.As to get it from a returned
// error, and switch on Kind to handle the failure.
type Error struct {
	Kind ErrorKind
	// The raw response body, for ErrorServer, ErrorResponseNotJSON and ErrorResponseShape.
	Response string
	// The underlying error, if any. Always nil for ErrorServer.
	Cause error
}

func (err *Error) Error() string {
	message := err.message()
	if err.Cause == nil {
		return message
	}
	return wrap.Error(err.Cause, message).Error()
}

func (err *Error) Unwrap() error {
	return err.Cause
}

func (err *Error) message() string {
	switch err.Kind {
	case ErrorConnection:
		return "failed to reach Druid"
	case ErrorRequestEncoding:
		return "failed to encode Druid query"
	case ErrorResponseNotJSON:
		return "Druid response was not valid JSON"
	case ErrorServer:
		return formatServerError(err.Response)
	case ErrorResponseShape:
		return "Druid response did not match expected result type"
	default:
		return "Druid query failed"
	}
}

// ServerError is the error body Druid sends for failed queries. Druid versions differ in which
// of these fields they include.
type ServerError struct {
	Error        string `json:"error"`
	ErrorMessage string `json:"errorMessage"`
	ErrorClass   string `json:"errorClass"`
	Host         string `json:"host"`
}

// ServerError parses the response of an ErrorServer error. It returns false for other error
// kinds, and for error bodies that do not have the usual shape.
func (err *Error) ServerError() (ServerError, bool) {
	if err.Kind != ErrorServer {
		return ServerError{}, false
	}

	var serverErr ServerError
	if json.Unmarshal([]byte(err.Response), &serverErr) != nil {
		return ServerError{}, false
	}
	return serverErr, true
}

func formatServerError(response string) string {
	serverErr, ok := (&Error{Kind: ErrorServer, Response: response}).ServerError()
	if !ok || serverErr.Error == "" {
		return "Druid responded with an error"
	}

	switch {
	case serverErr.ErrorMessage != "" && serverErr.ErrorClass != "":
		return fmt.Sprintf(
			"Druid responded with error '%s': %s (%s)",
			serverErr.Error, serverErr.ErrorMessage, serverErr.ErrorClass,
		)
	case serverErr.ErrorMessage != "":
		return fmt.Sprintf("Druid responded with error '%s': %s", serverErr.Error, serverErr.ErrorMessage)
	default:
		return fmt.Sprintf("Druid responded with error '%s'", serverErr.Error)
	}
}

// KindOf returns the kind of the given error if it is (or wraps) an *Error, or ErrorUnknown
// otherwise.
func KindOf(err error) ErrorKind {
	var druidErr *Error
	if errors.As(err, &druidErr) {
		return druidErr.Kind
	}
	return ErrorUnknown
}
