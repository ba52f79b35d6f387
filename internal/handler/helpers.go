package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gennetta/gennetta/internal/config"
	"github.com/gennetta/gennetta/internal/connector"
	"github.com/gennetta/gennetta/internal/generator"
	"github.com/gennetta/gennetta/internal/model"
	"github.com/gennetta/gennetta/internal/wizard"
)

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a structured error response using the standard error
// envelope. The optional ctx map provides additional context fields.
func writeError(w http.ResponseWriter, code int, message string, ctx ...map[string]interface{}) {
	var ctxMap map[string]interface{}
	if len(ctx) > 0 {
		ctxMap = ctx[0]
	}
	writeJSON(w, code, model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:    code,
			Message: message,
			Context: ctxMap,
		},
	})
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// classifyError maps the error taxonomy of the connector, generator and
// wizard packages to an HTTP status. Messages of these errors never contain
// a password, so err.Error() is safe to return to the caller.
func classifyError(err error) int {
	var (
		lookup    *generator.LookupError
		collision *generator.CollisionError
	)
	switch {
	case connector.IsValidation(err):
		return http.StatusBadRequest
	case connector.IsConnection(err):
		return http.StatusBadGateway
	case connector.IsQuery(err):
		return http.StatusInternalServerError
	case errors.As(err, &lookup), errors.Is(err, config.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &collision):
		return http.StatusUnprocessableEntity
	case errors.Is(err, generator.ErrNoTables), errors.Is(err, wizard.ErrNothingSelected):
		return http.StatusBadRequest
	case errors.Is(err, wizard.ErrNotConnected):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
