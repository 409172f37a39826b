package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/jason-s-yu/deckforge/internal/auth"
	"github.com/jason-s-yu/deckforge/internal/campaign"
	"github.com/jason-s-yu/deckforge/internal/packgen"
	"github.com/jason-s-yu/deckforge/internal/store"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, campaign.ErrPackNotFound),
		errors.Is(err, campaign.ErrPlayerNotFound),
		errors.Is(err, campaign.ErrShopItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, campaign.ErrDuplicateName), errors.Is(err, campaign.ErrCardInPack):
		return http.StatusConflict
	case errors.Is(err, campaign.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, campaign.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, packgen.ErrEmptyPool), errors.Is(err, packgen.ErrWeightTooLarge):
		return http.StatusUnprocessableEntity
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Debug("failed to write response body")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail writes err as a JSON error. Internal errors are logged and hidden
// from the client.
func (s *APIServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error("request failed")
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", campaign.ErrInvalidInput)
		}
		return fmt.Errorf("%w: %v", campaign.ErrInvalidInput, err)
	}
	return nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", campaign.ErrInvalidInput, name)
	}
	return n, nil
}
