package druid

import (
	"bytes"
	"encoding/json"
	"errors"
)

var errNilQuery = errors.New("query is nil")

// decodeResponse classifies the response body in a fixed order: not JSON, then Druid error, then
// shape mismatch. The target is only complete if no error is returned.
func decodeResponse(body []byte, target any) error {
	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return &Error{Kind: ErrorResponseNotJSON, Response: string(body), Cause: err}
	}

	if hasErrorField(raw) {
		return &Error{Kind: ErrorServer, Response: string(body)}
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return &Error{Kind: ErrorResponseShape, Response: string(body), Cause: err}
	}
	return nil
}

func hasErrorField(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return false
	}
	_, hasError := fields["error"]
	return hasError
}
