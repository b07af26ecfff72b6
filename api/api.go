package api

import (
	"fmt"
	"net/http"

	"hermannm.dev/druidquery/config"
	"hermannm.dev/druidquery/druid"
)

// QueryAPI is an HTTP proxy in front of Druid, which checks and decodes native queries before
// forwarding them.
type QueryAPI struct {
	client *druid.Client
	router *http.ServeMux
	config config.API
}

func NewQueryAPI(client *druid.Client, router *http.ServeMux, config config.API) QueryAPI {
	api := QueryAPI{client: client, router: router, config: config}

	api.router.HandleFunc("/query", post(api.RunQuery))
	api.router.HandleFunc("/query/csv", post(api.RunQueryOnCSV))
	api.router.HandleFunc("/csv/schema", post(api.DeduceCSVSchema))

	return api
}

func (api QueryAPI) ListenAndServe() error {
	return http.ListenAndServe(fmt.Sprintf(":%s", api.config.Port), api.router)
}

func (api QueryAPI) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	api.router.ServeHTTP(res, req)
}

func post(handler http.HandlerFunc) http.HandlerFunc {
	return func(res http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			res.Header().Set("Allow", http.MethodPost)
			message := fmt.Sprintf("method %s not allowed", req.Method)
			sendError(res, http.StatusMethodNotAllowed, nil, message)
			return
		}
		handler(res, req)
	}
}
