package api

import (
	"errors"
	"net/http"

	"hermannm.dev/druidquery/csv"
	"hermannm.dev/druidquery/query"
)

const (
	maxRowsToCheckForCSVSchemaDeduction = 100
	maxInlineRows                       = 10_000
	maxUploadBytes                      = 32 << 20
)

// Expects:
//   - multipart form field 'csvFile': CSV file to deduce column kinds from
//
// Returns:
//   - JSON-encoded csv.Schema
func (api QueryAPI) DeduceCSVSchema(res http.ResponseWriter, req *http.Request) {
	csvFile, _, err := req.FormFile("csvFile")
	if err != nil {
		sendClientError(res, err, "failed to get CSV file from request")
		return
	}
	defer csvFile.Close()

	csvReader, err := csv.NewReader(csvFile)
	if err != nil {
		sendServerError(res, err, "failed to read uploaded CSV file")
		return
	}

	schema, err := csvReader.DeduceSchema(maxRowsToCheckForCSVSchemaDeduction)
	if err != nil {
		sendClientError(res, err, "failed to deduce schema from uploaded CSV")
		return
	}

	sendJSON(res, schema)
}

// Expects:
//   - multipart form field 'query': JSON-encoded native Druid query
//   - multipart form field 'csvFile': CSV file whose rows replace the query's data source
//
// Returns:
//   - Druid's raw JSON result, with the query's ID in the X-Druid-Query-Id header
func (api QueryAPI) RunQueryOnCSV(res http.ResponseWriter, req *http.Request) {
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		sendClientError(res, err, "failed to parse multipart form")
		return
	}

	queryInput := req.FormValue("query")
	if queryInput == "" {
		sendClientError(res, nil, "missing 'query' field in request")
		return
	}
	q, err := query.UnmarshalQuery([]byte(queryInput))
	if err != nil {
		sendClientError(res, err, "failed to parse query from request")
		return
	}

	csvFile, _, err := req.FormFile("csvFile")
	if err != nil {
		sendClientError(res, err, "failed to get CSV file from request")
		return
	}
	defer csvFile.Close()

	csvReader, err := csv.NewReader(csvFile)
	if err != nil {
		sendServerError(res, err, "failed to read uploaded CSV file")
		return
	}

	inline, _, err := csvReader.ReadInline(maxInlineRows)
	if err != nil {
		if errors.Is(err, csv.ErrTooManyRows) {
			sendError(res, http.StatusRequestEntityTooLarge, err, "")
		} else {
			sendClientError(res, err, "failed to read rows from uploaded CSV")
		}
		return
	}

	q, err = query.WithDataSource(q, inline)
	if err != nil {
		sendClientError(res, err, "failed to replace data source of query")
		return
	}

	api.forward(req.Context(), res, q)
}
