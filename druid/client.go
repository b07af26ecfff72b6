// Package druid sends native queries to Druid over HTTP, and decodes the results into
// caller-chosen row types.
package druid

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"hermannm.dev/druidquery/query"
)

const DefaultQueryPath = "/druid/v2/"

// Doer sends a single HTTP request. *http.Client implements it.
type Doer interface {
	Do(request *http.Request) (*http.Response, error)
}

// Client sends queries to a Druid router or broker. It is safe for concurrent use, and keeps no
// state between queries except the round-robin position.
type Client struct {
	httpClient Doer
	nodes      *nodes
}

type clientOptions struct {
	httpClient Doer
	queryPath  string
	selection  NodeSelection
}

type Option func(options *clientOptions)

// WithHTTPClient replaces http.DefaultClient as the client's transport.
func WithHTTPClient(httpClient Doer) Option {
	return func(options *clientOptions) {
		options.httpClient = httpClient
	}
}

// WithQueryPath replaces DefaultQueryPath.
func WithQueryPath(path string) Option {
	return func(options *clientOptions) {
		options.queryPath = path
	}
}

// WithNodeSelection replaces NodeSelectionFirst.
func WithNodeSelection(selection NodeSelection) Option {
	return func(options *clientOptions) {
		options.selection = selection
	}
}

// NewClient creates a client for the given node addresses, either as "host:port" or as full
// URLs. At least one address is required.
func NewClient(addresses []string, options ...Option) (*Client, error) {
	opts := clientOptions{
		httpClient: http.DefaultClient,
		queryPath:  DefaultQueryPath,
		selection:  NodeSelectionFirst,
	}
	for _, option := range options {
		option(&opts)
	}

	nodes, err := newNodes(addresses, opts.queryPath, opts.selection)
	if err != nil {
		return nil, err
	}

	return &Client{httpClient: opts.httpClient, nodes: nodes}, nil
}

// Do sends the query, and decodes the response into R. Other query operations are Do with the
// result type of their query kind. Use json.RawMessage as R to get the raw result.
func Do[R any](ctx context.Context, client *Client, q query.Query) (R, error) {
	var result R

	response, err := client.send(ctx, q)
	if err != nil {
		return result, err
	}

	if err := decodeResponse(response, &result); err != nil {
		var zero R
		return zero, err
	}
	return result, nil
}

// Query sends a query that returns timestamped lists of rows, such as topN.
func Query[T any](ctx context.Context, client *Client, q query.Query) ([]QueryListResult[T], error) {
	return Do[[]QueryListResult[T]](ctx, client, q)
}

func GroupBy[T any](ctx context.Context, client *Client, q query.GroupByQuery) ([]GroupByResponse[T], error) {
	return Do[[]GroupByResponse[T]](ctx, client, q)
}

func Scan[T any](ctx context.Context, client *Client, q query.ScanQuery) ([]ScanResponse[T], error) {
	return Do[[]ScanResponse[T]](ctx, client, q)
}

func Search(ctx context.Context, client *Client, q query.SearchQuery) ([]QueryListResult[DimValue], error) {
	return Do[[]QueryListResult[DimValue]](ctx, client, q)
}

// DataSourceMetadata gets the metadata of the given data source, such as its
// "maxIngestedEventTime".
func DataSourceMetadata(
	ctx context.Context,
	client *Client,
	dataSource query.DataSource,
) ([]QueryResult[map[string]string], error) {
	return Do[[]QueryResult[map[string]string]](
		ctx, client, query.DataSourceMetadataQuery{DataSource: dataSource},
	)
}

func TimeBoundary(
	ctx context.Context,
	client *Client,
	q query.TimeBoundaryQuery,
) ([]QueryResult[TimeBoundaryResult], error) {
	return Do[[]QueryResult[TimeBoundaryResult]](ctx, client, q)
}

// SegmentMetadata returns one analysis per segment, or a single merged analysis if the query
// sets Merge. SegmentAnalysis can be used as T.
func SegmentMetadata[T any](ctx context.Context, client *Client, q query.SegmentMetadataQuery) ([]T, error) {
	return Do[[]T](ctx, client, q)
}

// RawQuery sends an already-encoded query, and returns the raw response body after checking it
// for errors in the same way as Do.
func RawQuery(ctx context.Context, client *Client, body []byte) (json.RawMessage, error) {
	response, err := client.post(ctx, body)
	if err != nil {
		return nil, err
	}

	var result json.RawMessage
	if err := decodeResponse(response, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (client *Client) send(ctx context.Context, q query.Query) ([]byte, error) {
	if q == nil {
		return nil, &Error{Kind: ErrorRequestEncoding, Cause: errNilQuery}
	}

	body, err := json.Marshal(q)
	if err != nil {
		return nil, &Error{Kind: ErrorRequestEncoding, Cause: err}
	}

	return client.post(ctx, body)
}

func (client *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	request, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		client.nodes.pick(),
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, &Error{Kind: ErrorUnknown, Cause: err}
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, &Error{Kind: ErrorConnection, Cause: err}
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, &Error{Kind: ErrorConnection, Cause: err}
	}

	return responseBody, nil
}
