package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/player"
)

// maxBody caps request bodies; every payload here is a handful of short strings.
const maxBody = 64 << 10

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidContact),
		errors.Is(err, domain.ErrUnknownChoice):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnknownPage),
		errors.Is(err, domain.ErrNotMounted):
		return http.StatusNotFound
	case errors.Is(err, player.ErrDisposed):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
