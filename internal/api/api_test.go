// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gulitsky/firedao-protocol/config"
	"github.com/gulitsky/firedao-protocol/internal/core/protocol"
	"github.com/gulitsky/firedao-protocol/internal/core/timelock"
	"github.com/gulitsky/firedao-protocol/internal/node"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue/memory"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	fdtesting "github.com/gulitsky/firedao-protocol/test/testing"
	"github.com/stretchr/testify/require"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

type env struct {
	t     *testing.T
	clock *clock
	h     *Handler
}

func setup(t *testing.T) *env {
	return setupWith(t, Options{})
}

func setupWith(t *testing.T, opts Options) *env {
	c := &clock{fdtesting.GenesisTime}
	g := config.DevnetGenesis()
	n, err := node.New(context.Background(), node.Options{
		Database: memory.New(),
		Protocol: protocol.New(nil),
		Genesis:  &g,
		Clock:    c.Now,
	})
	require.NoError(t, err)
	opts.Ledger = n
	h, err := NewHandler(opts)
	require.NoError(t, err)
	return &env{t, c, h}
}

func (e *env) do(method, path, body string) *httptest.ResponseRecorder {
	e.t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	e.h.ServeHTTP(w, r)
	return w
}

// ok performs a request, requires it to succeed, and decodes the response.
func (e *env) ok(method, path, body string, v any) {
	e.t.Helper()
	w := e.do(method, path, body)
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	if v != nil {
		require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), v))
	}
}

// fails performs a request and requires it to fail with the given status.
func (e *env) fails(method, path, body string, status errors.Status) {
	e.t.Helper()
	w := e.do(method, path, body)
	require.Equal(e.t, httpStatus(status), w.Code, w.Body.String())

	var res ErrorResponse
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Equal(e.t, uint64(status), res.Code)
	require.Equal(e.t, status.String(), res.Status)
	require.NotEmpty(e.t, res.Message)
}

func TestStatus(t *testing.T) {
	e := setup(t)
	var head node.Head
	e.ok("GET", "/status", "", &head)
	require.Equal(t, uint64(1), head.Height)
	require.Equal(t, fdtesting.GenesisTime, head.Time)

	e.fails("GET", "/nowhere", "", errors.NotFound)
	e.fails("DELETE", "/status", "", errors.BadRequest)
}

func TestRequestID(t *testing.T) {
	e := setup(t)
	w := e.do("GET", "/status", "")
	_, err := uuid.Parse(w.Header().Get(requestIDHeader))
	require.NoError(t, err)

	id := uuid.NewString()
	r := httptest.NewRequest("GET", "/status", nil)
	r.Header.Set(requestIDHeader, id)
	w = httptest.NewRecorder()
	e.h.ServeHTTP(w, r)
	require.Equal(t, id, w.Header().Get(requestIDHeader))
}

func TestVaults(t *testing.T) {
	e := setup(t)

	var vaults []map[string]any
	e.ok("GET", "/vaults", "", &vaults)
	require.Len(t, vaults, 2)

	var shares map[string]string
	e.ok("POST", "/vaults/DAI-CAKE/deposit", `{"account":"alice","amount":"1000"}`, &shares)
	require.Equal(t, "1000", shares["shares"])

	var depositor map[string]any
	e.ok("GET", "/vaults/DAI-CAKE/depositors/alice", "", &depositor)
	require.Equal(t, "1000", depositor["shares"])
	require.Equal(t, "0", depositor["pendingProfit"])

	var balances map[string]string
	e.ok("GET", "/balances/vault/DAI-CAKE", "", &balances)
	require.Equal(t, "1000", balances["DAI"])

	var moved map[string]string
	e.ok("POST", "/vaults/DAI-CAKE/earn", "", &moved)
	require.Equal(t, "900", moved["amount"])

	var info map[string]any
	e.ok("GET", "/vaults/DAI-CAKE", "", &info)
	require.Equal(t, "1000", info["totalValue"])
	require.Equal(t, "100", info["idle"])
	require.Equal(t, "0", info["yield"])

	var strategy map[string]any
	e.ok("GET", "/strategies/venus-dai", "", &strategy)
	require.Equal(t, "900", strategy["balance"])
	require.Equal(t, "0", strategy["reinvest"])

	// 0.1% withdrawal fee
	var out map[string]string
	e.ok("POST", "/vaults/DAI-CAKE/withdraw", `{"account":"alice","amount":"1000"}`, &out)
	require.Equal(t, "999", out["amount"])
}

func TestRequestErrors(t *testing.T) {
	e := setup(t)
	e.fails("GET", "/vaults/nope", "", errors.NotFound)
	e.fails("POST", "/vaults/DAI-CAKE/deposit", `{"account":"alice","amount":"0"}`, errors.InvalidAmount)
	e.fails("POST", "/vaults/DAI-CAKE/deposit", `{"account":"alice","amount":"1000","extra":1}`, errors.BadRequest)
	e.fails("POST", "/vaults/DAI-CAKE/deposit", `{"amount":"1000"}`, errors.BadRequest)
	e.fails("POST", "/vaults/DAI-CAKE/deposit", `{"account":"timelock","amount":"1000"}`, errors.Unauthorized)
	e.fails("POST", "/vaults/DAI-CAKE/deposit", `{"account":"vault/USDT-USDT","amount":"1000"}`, errors.Unauthorized)
	e.fails("POST", "/vaults/DAI-CAKE/withdraw", `{"account":"bob","amount":"1000"}`, errors.InsufficientShares)
	e.fails("POST", "/vaults/DAI-CAKE/harvest", `{"caller":"alice","deadline":"2021-03-02T00:00:00Z"}`, errors.Unauthorized)
	e.fails("POST", "/strategies/venus-dai/reinvest", `{"caller":"alice"}`, errors.Unauthorized)
	e.fails("GET", "/farm/pools/x/stakers/alice", "", errors.BadRequest)
	e.fails("GET", "/farm/pools/9/stakers/alice", "", errors.PoolNotFound)
}

func TestFarm(t *testing.T) {
	e := setup(t)
	e.ok("POST", "/vaults/DAI-CAKE/deposit", `{"account":"alice","amount":"1000"}`, nil)
	e.ok("POST", "/farm/pools/0/deposit", `{"account":"alice","amount":"400"}`, nil)

	var farm map[string]any
	e.ok("GET", "/farm", "", &farm)
	require.Len(t, farm["pools"], 2)

	var staker map[string]any
	e.ok("GET", "/farm/pools/0/stakers/alice", "", &staker)
	require.Equal(t, "400", staker["shares"])

	e.ok("POST", "/farm/pools/0/withdraw", `{"account":"alice","amount":"100"}`, nil)
	var out map[string]string
	e.ok("POST", "/farm/pools/0/emergency-withdraw", `{"account":"alice"}`, &out)
	require.Equal(t, "300", out["amount"])

	var depositor map[string]any
	e.ok("GET", "/vaults/DAI-CAKE/depositors/alice", "", &depositor)
	require.Equal(t, "1000", depositor["shares"])
}

func TestTimelock(t *testing.T) {
	e := setup(t)
	eta := e.clock.now.Add(48 * time.Hour).Format(time.RFC3339)
	body := `{"caller":"ops","target":"farm","method":"setRewardPerBlock","payload":{"rate":"5"},"eta":"` + eta + `"}`

	e.fails("POST", "/timelock/actions", strings.Replace(body, `"ops"`, `"alice"`, 1), errors.Unauthorized)

	var action struct {
		ID    string         `json:"id"`
		Phase timelock.Phase `json:"phase"`
	}
	e.ok("POST", "/timelock/actions", body, &action)
	require.Equal(t, timelock.PhaseQueued, action.Phase)
	e.fails("POST", "/timelock/actions", body, errors.Conflict)

	exec := "/timelock/actions/" + action.ID + "/execute"
	e.fails("POST", exec, `{"account":"ops"}`, errors.NotReady)

	e.clock.now = e.clock.now.Add(49 * time.Hour)
	e.ok("POST", exec, `{"account":"ops"}`, &action)
	require.Equal(t, timelock.PhaseExecuted, action.Phase)

	var farm map[string]any
	e.ok("GET", "/farm", "", &farm)
	require.Equal(t, "5", farm["rewardPerBlock"])

	var tl map[string]any
	e.ok("GET", "/timelock", "", &tl)
	require.Len(t, tl["actions"], 1)
	e.fails("GET", "/timelock/actions/nope", "", errors.NotFound)
}

func TestDisableAdmin(t *testing.T) {
	e := setupWith(t, Options{DisableAdmin: true})
	eta := e.clock.now.Add(48 * time.Hour).Format(time.RFC3339)
	body := `{"caller":"ops","target":"farm","method":"setRewardPerBlock","payload":{"rate":"5"},"eta":"` + eta + `"}`

	e.fails("POST", "/timelock/actions", body, errors.Unauthorized)
	e.fails("POST", "/timelock/actions/00/execute", `{"caller":"ops"}`, errors.Unauthorized)
	e.fails("POST", "/timelock/actions/00/cancel", `{"caller":"ops"}`, errors.Unauthorized)
	e.fails("POST", "/vaults/DAI-CAKE/harvest", `{"account":"keeper"}`, errors.Unauthorized)
	e.fails("POST", "/strategies/venus-dai/reinvest", `{"account":"keeper"}`, errors.Unauthorized)

	// Depositors are unaffected
	var shares map[string]string
	e.ok("POST", "/vaults/DAI-CAKE/deposit", `{"account":"alice","amount":"1000"}`, &shares)
	require.Equal(t, "1000", shares["shares"])

	var tl map[string]any
	e.ok("GET", "/timelock", "", &tl)
	require.Empty(t, tl["actions"])
}
