package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"hermannm.dev/devlog/log"
	"hermannm.dev/druidquery/druid"
	"hermannm.dev/druidquery/query"
	"hermannm.dev/wrap"
)

const (
	queryIDKey    = "queryId"
	queryIDHeader = "X-Druid-Query-Id"
	maxQueryBytes = 1 << 20
)

// Expects:
//   - body: JSON-encoded native Druid query
//
// Returns:
//   - Druid's raw JSON result, with the query's ID in the X-Druid-Query-Id header
func (api QueryAPI) RunQuery(res http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(io.LimitReader(req.Body, maxQueryBytes))
	if err != nil {
		sendClientError(res, err, "failed to read request body")
		return
	}

	q, err := query.UnmarshalQuery(body)
	if err != nil {
		sendClientError(res, err, "failed to parse query from request body")
		return
	}

	api.forward(req.Context(), res, q)
}

func (api QueryAPI) forward(ctx context.Context, res http.ResponseWriter, q query.Query) {
	q, queryID, err := EnsureQueryID(q)
	if err != nil {
		sendServerError(res, err, "")
		return
	}
	res.Header().Set(queryIDHeader, queryID)

	log.Debug(
		"forwarding query to Druid",
		slog.String("queryType", q.QueryType()),
		slog.String("queryId", queryID),
		log.JSON("query", q),
	)

	result, err := druid.Do[json.RawMessage](ctx, api.client, q)
	if err != nil {
		sendDruidError(res, err, "failed to run query")
		return
	}
	log.Debug("received Druid response", slog.String("queryId", queryID), log.JSON("response", result))

	sendRawJSON(res, http.StatusOK, result)
}

// EnsureQueryID returns the query with a random "queryId" set in its context, unless it already
// had one. Druid uses the ID for cancellation and in its request logs.
func EnsureQueryID(q query.Query) (query.Query, string, error) {
	if existing, ok := query.ContextOf(q)[queryIDKey]; ok {
		if queryID, isString := existing.Text(); isString && queryID != "" {
			return q, queryID, nil
		}
	}

	queryID := uuid.NewString()
	q, err := query.WithContextValue(q, queryIDKey, query.AnyString(queryID))
	if err != nil {
		return nil, "", wrap.Error(err, "failed to set query ID")
	}
	return q, queryID, nil
}
