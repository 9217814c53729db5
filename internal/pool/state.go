package pool

import (
	"errors"
	"fmt"

	"unstakePool/internal/amount"
)

var ErrInconsistentState = errors.New("inconsistent pool state")

// Params are the static parameters a pool is created with.
type Params struct {
	Price           amount.Price      `json:"price"`
	MinFee          amount.Percentage `json:"min_fee"`
	MaxFee          amount.Percentage `json:"max_fee"`
	LiquidityTarget amount.Token      `json:"liquidity_target"`
}

// New is Init with the parameters taken from params.
func New(params Params) *Pool {
	return Init(params.Price, params.MinFee, params.MaxFee, params.LiquidityTarget)
}

// State is a full copy of a pool, suitable for persisting between calls.
type State struct {
	Params
	TokenAmount   amount.Token       `json:"token_amount"`
	StTokenAmount amount.StakedToken `json:"st_token_amount"`
	LpTokenAmount amount.LpToken     `json:"lp_token_amount"`
}

func (p *Pool) Params() Params {
	return Params{
		Price:           p.price,
		MinFee:          p.minFee,
		MaxFee:          p.maxFee,
		LiquidityTarget: p.liquidityTarget,
	}
}

func (p *Pool) State() State {
	return State{
		Params:        p.Params(),
		TokenAmount:   p.tokenAmount,
		StTokenAmount: p.stTokenAmount,
		LpTokenAmount: p.lpTokenAmount,
	}
}

// Restore rebuilds a pool from a saved state. LP tokens must be outstanding
// exactly when the pool holds reserves.
func Restore(s State) (*Pool, error) {
	hasReserves := !s.TokenAmount.IsZero() || !s.StTokenAmount.IsZero()
	if s.LpTokenAmount.IsZero() && hasReserves {
		return nil, fmt.Errorf("%w: reserves %s/%s without lp tokens", ErrInconsistentState, s.TokenAmount, s.StTokenAmount)
	}
	if !s.LpTokenAmount.IsZero() && !hasReserves {
		return nil, fmt.Errorf("%w: %s lp tokens without reserves", ErrInconsistentState, s.LpTokenAmount)
	}

	p := New(s.Params)
	p.tokenAmount = s.TokenAmount
	p.stTokenAmount = s.StTokenAmount
	p.lpTokenAmount = s.LpTokenAmount
	return p, nil
}
