// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package swap

import (
	"log/slog"
	"strings"
	"time"

	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/bank"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/pkg/database"
	"github.com/gulitsky/firedao-protocol/pkg/database/values"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
	"github.com/gulitsky/firedao-protocol/pkg/types/amount"
)

// DefaultFee is the fee charged on every hop.
const DefaultFee amount.Bps = 25

// Pair is a constant-product pool between two assets. A is always the
// lexically smaller asset.
type Pair struct {
	A        string   `json:"a"`
	B        string   `json:"b"`
	ReserveA math.Int `json:"reserveA"`
	ReserveB math.Int `json:"reserveB"`
}

// ConstantProduct is a [Router] over constant-product pairs. The reserves of
// every pair are held by the router account in the bank.
type ConstantProduct struct {
	Account address.Address
	Fee     amount.Bps
	Logger  *slog.Logger
}

var _ Router = (*ConstantProduct)(nil)

// NewConstantProduct returns a router holding reserves in the router account.
func NewConstantProduct(logger *slog.Logger) *ConstantProduct {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConstantProduct{
		Account: address.Router,
		Fee:     DefaultFee,
		Logger:  logger.With("module", "swap"),
	}
}

func sortPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

func pairValue(st *state.State, a, b string) *values.Value[*Pair] {
	a, b = sortPair(a, b)
	return values.NewValue[*Pair](st, database.NewKey("swap", "pair", a, b))
}

func pairIndex(st *state.State) *values.Set {
	return values.NewSet(st, database.NewKey("swap", "pairs"))
}

// GetPair loads the pair of a and b. It fails with NotFound if there is no
// such pair.
func GetPair(st *state.State, a, b string) (*Pair, error) {
	p, err := pairValue(st, a, b).Get()
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			return nil, errors.NotFound.WithFormat("no pair for %s/%s", a, b)
		}
		return nil, err
	}
	return p, nil
}

// Pairs returns every pair.
func Pairs(st *state.State) ([]*Pair, error) {
	ids, err := pairIndex(st).Get()
	if err != nil {
		return nil, err
	}
	pairs := make([]*Pair, 0, len(ids))
	for _, id := range ids {
		a, b, _ := strings.Cut(id, "/")
		p, err := GetPair(st, a, b)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

func pairID(a, b string) string { return a + "/" + b }

// AddLiquidity moves amounts of a and b from the provider into the pair,
// creating the pair if necessary.
func (r *ConstantProduct) AddLiquidity(st *state.State, provider address.Address, a, b string, amountA, amountB math.Int) error {
	if a == b {
		return errors.BadRequest.WithFormat("cannot pair %s with itself", a)
	}
	if err := amount.RequirePositive(amountA, "liquidity"); err != nil {
		return err
	}
	if err := amount.RequirePositive(amountB, "liquidity"); err != nil {
		return err
	}

	if err := bank.Transfer(st, a, provider, r.Account, amountA); err != nil {
		return err
	}
	if err := bank.Transfer(st, b, provider, r.Account, amountB); err != nil {
		return err
	}

	v := pairValue(st, a, b)
	lo, hi := sortPair(a, b)
	p, err := v.GetOr(&Pair{A: lo, B: hi, ReserveA: math.ZeroInt(), ReserveB: math.ZeroInt()})
	if err != nil {
		return err
	}
	if a != lo {
		amountA, amountB = amountB, amountA
	}
	p.ReserveA = p.ReserveA.Add(amountA)
	p.ReserveB = p.ReserveB.Add(amountB)
	if err := v.Put(p); err != nil {
		return err
	}
	return pairIndex(st).Add(pairID(lo, hi))
}

func (r *ConstantProduct) Quote(st *state.State, path []string, amountIn math.Int) (math.Int, error) {
	out, _, err := r.route(st, path, amountIn)
	return out, err
}

func (r *ConstantProduct) SwapExactIn(st *state.State, caller address.Address, path []string, amountIn, minOut math.Int, deadline time.Time, recipient address.Address) (math.Int, error) {
	if !deadline.IsZero() && st.Now().After(deadline) {
		return math.Int{}, errors.Expired.WithFormat("swap deadline %v has passed", deadline.UTC())
	}

	out, pairs, err := r.route(st, path, amountIn)
	if err != nil {
		return math.Int{}, err
	}
	if !minOut.IsNil() && out.LT(minOut) {
		return math.Int{}, errors.SlippageExceeded.WithFormat("swap %v %s yields %v %s, want at least %v", amountIn, path[0], out, path[len(path)-1], minOut)
	}

	err = bank.Transfer(st, path[0], caller, r.Account, amountIn)
	if err != nil {
		return math.Int{}, err
	}
	for _, p := range pairs {
		err = pairValue(st, p.A, p.B).Put(p)
		if err != nil {
			return math.Int{}, err
		}
	}
	err = bank.Transfer(st, path[len(path)-1], r.Account, recipient, out)
	if err != nil {
		return math.Int{}, err
	}

	r.Logger.DebugContext(st.Context(), "Swap", "path", path, "in", amountIn, "out", out)
	return out, nil
}

// route computes the output of each hop and returns the updated pairs.
func (r *ConstantProduct) route(st *state.State, path []string, amountIn math.Int) (math.Int, []*Pair, error) {
	if len(path) < 2 {
		return math.Int{}, nil, errors.BadRequest.WithFormat("swap path must have at least 2 assets, got %d", len(path))
	}
	if err := amount.RequirePositive(amountIn, "swap input"); err != nil {
		return math.Int{}, nil, err
	}

	pairs := make([]*Pair, 0, len(path)-1)
	out := amountIn
	for i := 1; i < len(path); i++ {
		from, to := path[i-1], path[i]
		if from == to {
			return math.Int{}, nil, errors.BadRequest.WithFormat("swap path repeats %s", from)
		}

		// Reuse the updated pair if the path visits it twice
		var p *Pair
		for _, q := range pairs {
			if lo, hi := sortPair(from, to); q.A == lo && q.B == hi {
				p = q
			}
		}
		if p == nil {
			var err error
			p, err = GetPair(st, from, to)
			if err != nil {
				return math.Int{}, nil, err
			}
			pairs = append(pairs, p)
		}

		reserveIn, reserveOut := &p.ReserveA, &p.ReserveB
		if from != p.A {
			reserveIn, reserveOut = reserveOut, reserveIn
		}

		in := out
		withFee := in.Mul(math.NewIntFromUint64(uint64(r.Fee.Complement())))
		denom := reserveIn.MulRaw(amount.MaxBps).Add(withFee)
		out = withFee.Mul(*reserveOut).Quo(denom)
		if !out.IsPositive() {
			return math.Int{}, nil, errors.SlippageExceeded.WithFormat("swap %v %s to %s yields nothing", in, from, to)
		}

		*reserveIn = reserveIn.Add(in)
		*reserveOut = reserveOut.Sub(out)
	}
	return out, pairs, nil
}
