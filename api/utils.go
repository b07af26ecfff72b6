package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"hermannm.dev/devlog/log"
	"hermannm.dev/druidquery/druid"
	"hermannm.dev/wrap"
)

func sendClientError(res http.ResponseWriter, err error, message string) {
	sendError(res, http.StatusBadRequest, err, message)
}

func sendServerError(res http.ResponseWriter, err error, message string) {
	sendError(res, http.StatusInternalServerError, err, message)
}

func sendError(res http.ResponseWriter, statusCode int, err error, message string) {
	if statusCode >= 500 {
		switch {
		case err == nil:
			log.ErrorMessage(message)
		case message == "":
			log.Error(err)
		default:
			log.ErrorCause(err, message)
		}
	}

	if err != nil {
		if message == "" {
			message = err.Error()
		} else {
			message = wrap.Error(err, message).Error()
		}
	}

	if statusCode < 500 {
		log.Debug(message)
	}
	http.Error(res, message, statusCode)
}

// Errors that Druid responded with are forwarded with their original body. Queries that could not
// be encoded are the client's fault, while other failures are failures of the upstream.
func sendDruidError(res http.ResponseWriter, err error, message string) {
	var druidErr *druid.Error
	if !errors.As(err, &druidErr) {
		sendServerError(res, err, message)
		return
	}

	switch druidErr.Kind {
	case druid.ErrorServer:
		log.Info(wrap.Error(err, message).Error())
		sendRawJSON(res, http.StatusBadGateway, []byte(druidErr.Response))
	case druid.ErrorRequestEncoding:
		sendClientError(res, err, message)
	case druid.ErrorConnection, druid.ErrorResponseNotJSON, druid.ErrorResponseShape:
		sendError(res, http.StatusBadGateway, err, message)
	default:
		sendServerError(res, err, message)
	}
}

func sendJSON(res http.ResponseWriter, value any) {
	body, err := json.Marshal(value)
	if err != nil {
		sendServerError(res, err, "failed to serialize response")
		return
	}

	sendRawJSON(res, http.StatusOK, body)
}

func sendRawJSON(res http.ResponseWriter, statusCode int, body []byte) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(statusCode)

	if _, err := res.Write(body); err != nil {
		log.ErrorCause(err, "failed to write response body")
	}
}
