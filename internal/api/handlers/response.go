// Package handlers provides HTTP handlers for the API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	apierrors "github.com/narvanalabs/vaulty/internal/api/errors"
	"github.com/narvanalabs/vaulty/internal/vault"
	"github.com/narvanalabs/vaulty/pkg/logger"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// errBadBody is returned by decodeJSON for any body that is not a single
// JSON object matching the target struct.
var errBadBody = errors.New("invalid request body")

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	apierrors.WriteJSON(w, status, data)
}

// WriteError writes err with the request ID of r.
func WriteError(w http.ResponseWriter, r *http.Request, err *apierrors.APIError) {
	apierrors.WriteErrorWithRequestID(w, err, middleware.GetReqID(r.Context()))
}

// WriteBadRequest writes a 400 VALIDATION_ERROR response.
func WriteBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, apierrors.NewValidationError(message))
}

// WriteInternalError writes a 500 response with a generic message.
func WriteInternalError(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, apierrors.NewInternalError("internal server error"))
}

// decodeJSON decodes a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("%w: trailing data", errBadBody)
	}
	return nil
}

// writeServiceError maps a vault error to its response. Anything that is not
// a validation or ownership failure is logged and reported as a bare 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var verr *vault.ValidationError
	switch {
	case errors.As(err, &verr):
		var fields apierrors.FieldErrors
		for _, f := range verr.Fields {
			fields.Add(f, f+" is required")
		}
		WriteError(w, r, fields.ToAPIError())
	case errors.Is(err, vault.ErrNotFound):
		WriteError(w, r, apierrors.NewNotFoundError("credential not found"))
	default:
		(&logger.Logger{Logger: log}).WithContext(r.Context()).WithError(err).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
		)
		WriteInternalError(w, r)
	}
}
