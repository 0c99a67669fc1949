// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package api

import (
	"encoding/json"
	"net/http"

	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
)

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Code    uint64 `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// httpStatus maps an error status to an HTTP status.
func httpStatus(s errors.Status) int {
	switch s {
	case errors.BadRequest,
		errors.InvalidAmount,
		errors.SlippageExceeded,
		errors.Expired,
		errors.EncodingError:
		return http.StatusBadRequest
	case errors.Unauthorized:
		return http.StatusForbidden
	case errors.NotFound,
		errors.PoolNotFound:
		return http.StatusNotFound
	case errors.Conflict,
		errors.DuplicatePool,
		errors.VaultPaused,
		errors.Reentrant:
		return http.StatusConflict
	case errors.InsufficientBalance,
		errors.InsufficientShares:
		return http.StatusUnprocessableEntity
	case errors.NotReady:
		return http.StatusTooEarly
	case errors.Shortfall,
		errors.AdapterUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to encode response", "error", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.Code(err)
	if code == 0 {
		code = errors.UnknownError
	}
	status := httpStatus(code)
	if status >= 500 {
		h.logger.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err = json.NewEncoder(w).Encode(ErrorResponse{
		Code:    uint64(code),
		Status:  code.String(),
		Message: err.Error(),
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to encode response", "error", err)
	}
}

// signer is implemented by requests that act on behalf of an account.
type signer interface {
	signer() address.Address
}

// decode reads and validates a JSON request body. Requests may not act on
// behalf of the protocol's own accounts.
func (h *Handler) decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(v)
	if err != nil {
		return errors.BadRequest.WithFormat("decode request: %w", err)
	}
	err = h.validate.Struct(v)
	if err != nil {
		return errors.BadRequest.WithFormat("invalid request: %w", err)
	}

	s, ok := v.(signer)
	if !ok {
		return nil
	}
	a := s.signer()
	if err := a.Validate(); err != nil {
		return err
	}
	if a.Component() {
		return errors.Unauthorized.WithFormat("%v is a protocol account", a)
	}
	return nil
}

// query runs fn against the last committed state and responds with its
// result.
func (h *Handler) query(w http.ResponseWriter, r *http.Request, fn func(st *state.State) (any, error)) {
	var v any
	err := h.ledger.View(r.Context(), func(st *state.State) error {
		var err error
		v, err = fn(st)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, v)
}

// submit decodes the request body into req and executes fn as a new
// operation, responding with its result.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request, name string, req any, fn func(st *state.State) (any, error)) {
	if req != nil {
		if err := h.decode(r, req); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	var v any
	err := h.ledger.Execute(r.Context(), name, func(st *state.State) error {
		var err error
		v, err = fn(st)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, v)
}
