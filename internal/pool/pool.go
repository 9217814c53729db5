// Package pool implements a single-sided unstake liquidity pool.
//
// Liquidity providers deposit tokens and receive LP tokens. Holders of the
// staked token swap it for tokens at a fixed price minus a fee that grows as
// the token reserve drains below the liquidity target. The pool is a plain
// value: it does no I/O and is not safe for concurrent use. Every operation
// validates and computes before it writes, so a failed call leaves the pool
// unchanged.
package pool

import (
	"errors"

	gmath "github.com/ethereum/go-ethereum/common/math"

	"unstakePool/internal/amount"
)

// Pool holds the reserves and static parameters of one unstake pool.
type Pool struct {
	price           amount.Price
	tokenAmount     amount.Token
	stTokenAmount   amount.StakedToken
	lpTokenAmount   amount.LpToken
	liquidityTarget amount.Token
	minFee          amount.Percentage
	maxFee          amount.Percentage
}

// SwapQuote is the outcome of a swap computed against the current reserves.
type SwapQuote struct {
	AmountIn        amount.StakedToken `json:"amount_in"`
	AmountBeforeFee amount.Token       `json:"amount_before_fee"`
	Fee             amount.Percentage  `json:"fee"`
	AmountOut       amount.Token       `json:"amount_out"`
}

// Init returns an empty pool. Parameters are taken as given; callers are
// expected to pass a positive price and minFee <= maxFee.
func Init(price amount.Price, minFee, maxFee amount.Percentage, liquidityTarget amount.Token) *Pool {
	return &Pool{
		price:           price,
		liquidityTarget: liquidityTarget,
		minFee:          minFee,
		maxFee:          maxFee,
	}
}

func (p *Pool) Price() amount.Price { return p.price }
func (p *Pool) TokenAmount() amount.Token { return p.tokenAmount }
func (p *Pool) StTokenAmount() amount.StakedToken { return p.stTokenAmount }
func (p *Pool) LpTokenAmount() amount.LpToken { return p.lpTokenAmount }
func (p *Pool) LiquidityTarget() amount.Token { return p.liquidityTarget }
func (p *Pool) MinFee() amount.Percentage { return p.minFee }
func (p *Pool) MaxFee() amount.Percentage { return p.maxFee }

// TotalValue returns the token reserve plus the staked reserve valued at price.
func (p *Pool) TotalValue() (amount.Token, error) {
	stakedValue, err := amount.ToToken(p.stTokenAmount, p.price)
	if err != nil {
		return amount.Token{}, err
	}
	return p.tokenAmount.Add(stakedValue)
}

// AddLiquidity deposits tokens and returns the LP tokens minted for them. The
// first deposit into an empty pool mints 1:1; later deposits mint
// lp_outstanding * tokenIn / total_value so each LP token keeps its claim.
func (p *Pool) AddLiquidity(tokenIn amount.Token) (amount.LpToken, error) {
	if tokenIn.IsZero() {
		return amount.LpToken{}, ErrNoTokensProvided
	}

	var minted amount.LpToken
	if p.lpTokenAmount.IsZero() {
		minted = amount.FromRaw[amount.LpTokenUnit](tokenIn.Raw())
	} else {
		total, err := p.TotalValue()
		if err != nil {
			return amount.LpToken{}, invariant("add liquidity", err)
		}
		minted, err = amount.LpTokenFromToken(tokenIn, total, p.lpTokenAmount)
		switch {
		case errors.Is(err, amount.ErrOverflow):
			return amount.LpToken{}, ErrTokenAmountTooBig
		case err != nil:
			return amount.LpToken{}, invariant("add liquidity", err)
		}
	}

	tokenAmount, err := p.tokenAmount.Add(tokenIn)
	if err != nil {
		return amount.LpToken{}, ErrTokenAmountTooBig
	}
	lpTokenAmount, err := p.lpTokenAmount.Add(minted)
	if err != nil {
		return amount.LpToken{}, ErrTokenAmountTooBig
	}

	p.tokenAmount = tokenAmount
	p.lpTokenAmount = lpTokenAmount
	return minted, nil
}

// RemoveLiquidity burns lpOut and pays out the same share of both reserves.
func (p *Pool) RemoveLiquidity(lpOut amount.LpToken) (amount.Token, amount.StakedToken, error) {
	if lpOut.Greater(p.lpTokenAmount) {
		return amount.Token{}, amount.StakedToken{}, &NotEnoughTokensError{
			WithdrawAmount: lpOut,
			PoolCapacity:   p.lpTokenAmount,
		}
	}
	if lpOut.IsZero() {
		return amount.Token{}, amount.StakedToken{}, nil
	}

	tokenRaw, err := p.proRata(p.tokenAmount.Raw(), lpOut)
	if err != nil {
		return amount.Token{}, amount.StakedToken{}, err
	}
	stakedRaw, err := p.proRata(p.stTokenAmount.Raw(), lpOut)
	if err != nil {
		return amount.Token{}, amount.StakedToken{}, err
	}
	tokenOut := amount.FromRaw[amount.TokenUnit](tokenRaw)
	stakedOut := amount.FromRaw[amount.StakedTokenUnit](stakedRaw)

	tokenAmount, err := p.tokenAmount.Sub(tokenOut)
	if err != nil {
		return amount.Token{}, amount.StakedToken{}, invariant("remove liquidity", err)
	}
	stTokenAmount, err := p.stTokenAmount.Sub(stakedOut)
	if err != nil {
		return amount.Token{}, amount.StakedToken{}, invariant("remove liquidity", err)
	}
	lpTokenAmount, err := p.lpTokenAmount.Sub(lpOut)
	if err != nil {
		return amount.Token{}, amount.StakedToken{}, invariant("remove liquidity", err)
	}

	p.tokenAmount = tokenAmount
	p.stTokenAmount = stTokenAmount
	p.lpTokenAmount = lpTokenAmount
	return tokenOut, stakedOut, nil
}

func (p *Pool) proRata(reserve uint64, lpOut amount.LpToken) (uint64, error) {
	product, overflow := gmath.SafeMul(reserve, lpOut.Raw())
	if overflow {
		return 0, ErrWithdrawCalculationOverflow
	}
	return product / p.lpTokenAmount.Raw(), nil
}

// QuoteSwap computes a swap without changing the pool.
//
// Reserve sufficiency is checked against the amount before fees, while the
// fee is priced from the reserve that would remain after paying that amount.
// This rejects some swaps the pool could afford once the fee is taken.
func (p *Pool) QuoteSwap(stakedIn amount.StakedToken) (SwapQuote, error) {
	if stakedIn.IsZero() {
		return SwapQuote{}, ErrZeroTokensAsArgument
	}

	beforeFee, err := amount.ToToken(stakedIn, p.price)
	if err != nil {
		return SwapQuote{}, invariant("swap", err)
	}
	// A pool without liquidity serves no swap, not even one that rounds to
	// zero tokens; otherwise it would hold staked tokens nobody has a claim on.
	if beforeFee.Greater(p.tokenAmount) || p.lpTokenAmount.IsZero() {
		return SwapQuote{}, &PoolNotEnoughTokensError{
			TokenAmount:  beforeFee,
			PoolCapacity: p.tokenAmount,
		}
	}

	remaining, err := p.tokenAmount.Sub(beforeFee)
	if err != nil {
		return SwapQuote{}, invariant("swap", err)
	}
	fee := p.Fee(remaining)

	out, err := amount.ApplyFee(beforeFee, fee)
	if err != nil {
		return SwapQuote{}, invariant("swap", err)
	}

	return SwapQuote{
		AmountIn:        stakedIn,
		AmountBeforeFee: beforeFee,
		Fee:             fee,
		AmountOut:       out,
	}, nil
}

// Swap exchanges staked tokens for tokens. Only the post-fee amount leaves
// the token reserve; the fee stays in the pool for LP holders.
func (p *Pool) Swap(stakedIn amount.StakedToken) (amount.Token, error) {
	quote, err := p.SwapWithQuote(stakedIn)
	if err != nil {
		return amount.Token{}, err
	}
	return quote.AmountOut, nil
}

// SwapWithQuote is Swap returning the quote it committed.
func (p *Pool) SwapWithQuote(stakedIn amount.StakedToken) (SwapQuote, error) {
	quote, err := p.QuoteSwap(stakedIn)
	if err != nil {
		return SwapQuote{}, err
	}

	tokenAmount, err := p.tokenAmount.Sub(quote.AmountOut)
	if err != nil {
		return SwapQuote{}, invariant("swap", err)
	}
	stTokenAmount, err := p.stTokenAmount.Add(stakedIn)
	if err != nil {
		return SwapQuote{}, invariant("swap", err)
	}

	p.tokenAmount = tokenAmount
	p.stTokenAmount = stTokenAmount
	return quote, nil
}
