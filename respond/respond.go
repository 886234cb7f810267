// Package respond writes JSON bodies and maps error kinds to HTTP statuses.
package respond

import (
	"encoding/json"
	"log"
	"net/http"

	"hrms/apperr"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON writes v with the given status. A nil v writes only the status.
func JSON(w http.ResponseWriter, status int, v any) {
	if v == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[http] encode response: %v", err)
	}
}

// Error writes err as {"error":{"code","message"}}. Internal errors are
// logged and reported without detail.
func Error(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	detail := errorDetail{Code: apperr.CodeOf(err), Message: "internal server error"}
	if kind == apperr.KindInternal {
		log.Printf("[http] internal error: %v", err)
	} else {
		detail.Message = err.Error()
	}
	JSON(w, Status(kind), errorBody{Error: detail})
}

// Status maps an error kind to its HTTP status.
func Status(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
