package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleError centralizes error handling for HTTP responses
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	appErr := errors.As(err)

	if appErr.Status >= 500 {
		log.Error("server error: %v", appErr)
	} else if appErr.Status >= 400 {
		log.Warn("client error: %v", appErr)
	} else {
		log.Debug("error: %v", appErr)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	if err := json.NewEncoder(w).Encode(errorBody{Error: errorDetail{Code: appErr.Code, Message: appErr.Message}}); err != nil {
		log.Warn("failed to write error response: %v", err)
	}
}

func errNotFoundRoute(r *http.Request) *errors.AppError {
	return errors.NewNotFoundError("route", r.URL.Path)
}

func errMethodNotAllowed(r *http.Request) *errors.AppError {
	return &errors.AppError{
		Code:    errors.ErrCodeBadRequest,
		Message: fmt.Sprintf("method %s not allowed on %s", r.Method, r.URL.Path),
		Status:  http.StatusMethodNotAllowed,
	}
}
