package server

import (
	"encoding/json"
	"net/http"

	"github.com/edalab/copperview/pkg/errors"
)

// errorEnvelope is the uniform JSON error body.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	writeJSON(w, statusFor(code), errorEnvelope{
		Error: errorBody{
			Code:    string(code),
			Message: errors.UserMessage(err),
		},
	})
}

func writeErrorCode(w http.ResponseWriter, code errors.Code, message string) {
	writeError(w, errors.New(code, "%s", message))
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidBoard,
		errors.ErrCodeInvalidLayer, errors.ErrCodeInvalidPrimitive,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidRules,
		errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeBoardNotFound,
		errors.ErrCodeFileNotFound, errors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeUnsupported:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
