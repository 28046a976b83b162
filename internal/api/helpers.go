package api

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Warn("failed to write response: %v", err)
	}
}

// writeRawJSON writes an already encoded body as is.
func writeRawJSON(w http.ResponseWriter, r *http.Request, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logger.FromContext(r.Context()).Warn("failed to write response: %v", err)
	}
}

// decodeJSON reads a single JSON object from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case stderrors.As(err, &maxErr):
			return errors.NewBadRequestError("request body too large")
		case stderrors.Is(err, io.EOF):
			return errors.NewBadRequestError("request body is empty")
		default:
			return errors.NewBadRequestError("invalid JSON body: " + err.Error())
		}
	}
	if dec.More() {
		return errors.NewBadRequestError("request body must contain a single JSON object")
	}
	return nil
}
