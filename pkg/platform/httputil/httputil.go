// Package httputil writes the JSON envelopes shared by every handler:
//
//	success: {"status": true,  "data": ..., "message": "..."}
//	failure: {"status": false, "message": "...", "errors": ..., "data": null}
package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	dErrors "pokevault/pkg/domain-errors"
)

const internalErrorMessage = "Internal server error"

// SuccessResponse is the envelope for 2xx responses.
type SuccessResponse struct {
	Status  bool   `json:"status"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

// ErrorResponse is the envelope for 4xx and 5xx responses.
type ErrorResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Errors  any    `json:"errors"`
	Data    any    `json:"data"`
}

// WriteJSON writes v with the given status. Encoding errors are dropped since
// headers are already sent.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteSuccess(w http.ResponseWriter, status int, data any, message string) {
	WriteJSON(w, status, SuccessResponse{Status: true, Data: data, Message: message})
}

// WriteFailure writes an error envelope with an explicit status and message.
func WriteFailure(w http.ResponseWriter, status int, message string, errs any) {
	if errs == nil {
		errs = map[string][]string{}
	}
	WriteJSON(w, status, ErrorResponse{Status: false, Message: message, Errors: errs})
}

// WriteError translates a domain error into an error envelope. Internal errors
// never leak their message.
func WriteError(w http.ResponseWriter, err error) {
	status := dErrors.HTTPStatus(err)
	de, ok := dErrors.As(err)
	if !ok || status >= http.StatusInternalServerError && de.Code == dErrors.CodeInternal {
		WriteFailure(w, http.StatusInternalServerError, internalErrorMessage, nil)
		return
	}
	var errs any
	if len(de.Fields) > 0 {
		errs = de.Fields
	}
	WriteFailure(w, status, de.Message, errs)
}

// DecodeJSON reads a JSON body into dst. Unknown fields are ignored and an
// empty body decodes to the zero value.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if err == io.EOF {
			return nil
		}
		return dErrors.Wrap(fmt.Errorf("decode request body: %w", err), dErrors.CodeBadRequest, "Malformed JSON body")
	}
	return nil
}
