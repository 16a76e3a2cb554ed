package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/appduka/catalog/internal/errors"
)

func decodeJSON(body io.ReadCloser, dst any) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.Validation(decodeMessage(err))
	}
	return nil
}

// decodeMessage keeps decoder errors readable without leaking Go type names.
func decodeMessage(err error) string {
	var unmarshalErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return "request body is empty"
	case errors.As(err, &unmarshalErr):
		return fmt.Sprintf("field %q has the wrong type", unmarshalErr.Field)
	case strings.Contains(err.Error(), "unknown field"):
		return strings.TrimPrefix(err.Error(), "json: ")
	default:
		return "request body is not valid JSON"
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	payload := map[string]any{"message": apperrors.Message(err)}

	var appErr *apperrors.Error
	if errors.As(err, &appErr) && len(appErr.Details()) > 0 {
		payload["details"] = appErr.Details()
	}
	writeJSON(w, status, map[string]any{"error": payload})
}
