package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"openlingua/internal/model"
	"openlingua/pkg/apierror"
)

const (
	msgUnexpected = "Something went wrong. Please try again."
	maxBodyBytes  = 1 << 16
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError renders any error as {"error": message}. Only *apierror.APIError
// messages reach the client; everything else is logged and answered with an
// opaque 500.
func writeError(w http.ResponseWriter, err error) {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatus >= http.StatusInternalServerError && apiErr.Err != nil {
			slog.Error("request failed", "kind", string(apiErr.Kind), "error", apiErr.Err)
		}
		writeJSON(w, apiErr.HTTPStatus, model.ErrorResponse{Error: apiErr.Message})
		return
	}

	slog.Error("unhandled error in writeError", "error", err)
	writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: msgUnexpected})
}

// decodeJSON treats an empty body as an empty object so missing-field
// validation produces the usual message.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apierror.Validation("Invalid request body")
	}
	return nil
}
