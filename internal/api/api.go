// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package api serves the protocol over HTTP. Reads query the last committed
// state. Writes execute an operation on behalf of the account named in the
// request body.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gulitsky/firedao-protocol/config"
	"github.com/gulitsky/firedao-protocol/internal/core/protocol"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/internal/logging"
	"github.com/gulitsky/firedao-protocol/internal/node"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/julienschmidt/httprouter"
)

// Ledger executes operations against the protocol.
type Ledger interface {
	Protocol() *protocol.Protocol
	Head() node.Head
	Execute(ctx context.Context, name string, fn func(st *state.State) error) error
	View(ctx context.Context, fn func(st *state.State) error) error
}

type Options struct {
	Ledger Ledger
	Logger *slog.Logger

	// DisableAdmin refuses the routes only operators use: harvest, reinvest,
	// and the timelock queue, execute, and cancel.
	DisableAdmin bool
}

type Handler struct {
	ledger   Ledger
	validate *validator.Validate
	logger   *slog.Logger
	router   *httprouter.Router
}

const requestIDHeader = "X-Request-Id"

func NewHandler(opts Options) (*Handler, error) {
	if opts.Ledger == nil {
		return nil, errors.BadRequest.With("missing ledger")
	}
	h := new(Handler)
	h.ledger = opts.Ledger
	h.validate = config.Validator()
	h.logger = opts.Logger
	if h.logger == nil {
		h.logger = slog.Default()
	}
	h.logger = h.logger.With("module", "api")

	r := httprouter.New()
	r.NotFound = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		h.fail(w, req, errors.NotFound.WithFormat("no route for %s", req.URL.Path))
	})
	r.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		h.fail(w, req, errors.BadRequest.WithFormat("%s is not allowed on %s", req.Method, req.URL.Path))
	})
	r.PanicHandler = func(w http.ResponseWriter, req *http.Request, v any) {
		h.fail(w, req, errors.InternalError.WithFormat("panicked: %v", v))
	}

	r.GET("/status", h.status)
	r.GET("/assets", h.assets)
	r.GET("/balances/*account", h.balances)
	r.GET("/pairs", h.pairs)

	r.GET("/vaults", h.vaults)
	r.GET("/vaults/:vault", h.vault)
	r.GET("/vaults/:vault/depositors/:account", h.depositor)
	r.POST("/vaults/:vault/deposit", h.deposit)
	r.POST("/vaults/:vault/withdraw", h.withdraw)
	r.POST("/vaults/:vault/claim", h.claim)
	r.POST("/vaults/:vault/earn", h.earn)
	r.POST("/vaults/:vault/harvest", h.admin(opts, h.harvest))

	r.GET("/strategies/:strategy", h.strategy)
	r.POST("/strategies/:strategy/reinvest", h.admin(opts, h.reinvest))

	r.GET("/farm", h.farm)
	r.GET("/farm/pools/:pool/stakers/:account", h.staker)
	r.POST("/farm/pools/:pool/deposit", h.farmDeposit)
	r.POST("/farm/pools/:pool/withdraw", h.farmWithdraw)
	r.POST("/farm/pools/:pool/emergency-withdraw", h.farmEmergencyWithdraw)

	r.GET("/timelock", h.timelock)
	r.GET("/timelock/actions/:action", h.action)
	r.POST("/timelock/actions", h.admin(opts, h.queue))
	r.POST("/timelock/actions/:action/execute", h.admin(opts, h.execute))
	r.POST("/timelock/actions/:action/cancel", h.admin(opts, h.cancel))

	h.router = r
	return h, nil
}

func (h *Handler) admin(opts Options, fn httprouter.Handle) httprouter.Handle {
	if !opts.DisableAdmin {
		return fn
	}
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		h.fail(w, r, errors.Unauthorized.WithFormat("%s is disabled on this listener", r.URL.Path))
	}
}

// ServeHTTP tags the request with an ID and logs it.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(requestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	w.Header().Set(requestIDHeader, id)

	ctx := logging.With(r.Context(), "request", id)
	r = r.WithContext(ctx)

	start := time.Now()
	rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	h.router.ServeHTTP(rw, r)
	h.logger.DebugContext(ctx, "Request", "method", r.Method, "path", r.URL.Path, "status", rw.status, "duration", time.Since(start))
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
