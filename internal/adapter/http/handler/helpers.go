package handler

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/iho/bankfeed/internal/adapter/http/dto"
	"github.com/iho/bankfeed/internal/adapter/snapshot"
	"github.com/iho/bankfeed/internal/adapter/teller"
	"github.com/iho/bankfeed/internal/domain"
	"github.com/iho/bankfeed/internal/usecase"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError maps err to a status code and writes the error response.
func writeDomainError(w http.ResponseWriter, err error, message string) {
	writeError(w, mapDomainError(err), message, err.Error())
}

// mapDomainError maps domain and use-case errors to HTTP status codes.
func mapDomainError(err error) int {
	var apiErr *teller.APIError

	switch {
	case errors.Is(err, teller.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrUnmappedAccount):
		return http.StatusNotFound
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, snapshot.ErrBadSnapshot):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMalformedRecord):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnparsableDate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidCurrency):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidAccountName):
		return http.StatusUnprocessableEntity
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter, falling back on
// missing or malformed values.
func parseIntQuery(r *http.Request, key string, fallback int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil {
		return n
	}
	return fallback
}
