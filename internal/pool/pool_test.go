package pool

import (
	"errors"
	"testing"

	"unstakePool/internal/amount"
)

func tokens(v float64) amount.Token { return amount.FromFloat[amount.TokenUnit](v) }
func staked(v float64) amount.StakedToken { return amount.FromFloat[amount.StakedTokenUnit](v) }
func lpTokens(v float64) amount.LpToken { return amount.FromFloat[amount.LpTokenUnit](v) }
func price(v float64) amount.Price { return amount.FromFloat[amount.PriceUnit](v) }
func percentage(v float64) amount.Percentage { return amount.FromFloat[amount.PercentageUnit](v) }

func storyPool() *Pool {
	return Init(price(1.5), percentage(0.001), percentage(0.09), tokens(90))
}

func emptyPool() *Pool {
	return Init(price(2), percentage(0), percentage(0.09), tokens(100))
}

func nonEmptyPool(t *testing.T) *Pool {
	t.Helper()
	p, err := Restore(State{
		Params: Params{
			Price:           price(5),
			MinFee:          percentage(0.1),
			MaxFee:          percentage(0.2),
			LiquidityTarget: tokens(100),
		},
		TokenAmount:   amount.MustUnits[amount.TokenUnit](1 << 20),
		StTokenAmount: staked(30),
		LpTokenAmount: lpTokens(250),
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	return p
}

func TestStoryScenario(t *testing.T) {
	p := storyPool()

	minted, err := p.AddLiquidity(tokens(100))
	if err != nil {
		t.Fatalf("initial add liquidity: %v", err)
	}
	if minted != lpTokens(100) {
		t.Fatalf("initial add liquidity: got %s", minted)
	}

	out, err := p.Swap(staked(6))
	if err != nil {
		t.Fatalf("first swap: %v", err)
	}
	if out != tokens(8.991) {
		t.Fatalf("first swap: got %s", out)
	}

	minted, err = p.AddLiquidity(tokens(10))
	if err != nil {
		t.Fatalf("second add liquidity: %v", err)
	}
	if minted != lpTokens(9.9991) {
		t.Fatalf("second add liquidity: got %s", minted)
	}

	out, err = p.Swap(staked(30))
	if err != nil {
		t.Fatalf("second swap: %v", err)
	}
	if out != tokens(43.44237) {
		t.Fatalf("second swap: got %s", out)
	}

	tokenOut, stakedOut, err := p.RemoveLiquidity(lpTokens(109.9991))
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if tokenOut != tokens(57.56663) || stakedOut != staked(36) {
		t.Fatalf("withdraw: got %s/%s", tokenOut, stakedOut)
	}

	if st := p.State(); !st.TokenAmount.IsZero() || !st.StTokenAmount.IsZero() || !st.LpTokenAmount.IsZero() {
		t.Fatalf("pool should be empty after full withdraw: %+v", st)
	}
}

func TestAddLiquidityFirstDepositMintsOneToOne(t *testing.T) {
	p := emptyPool()
	minted, err := p.AddLiquidity(tokens(20))
	if err != nil {
		t.Fatalf("add liquidity: %v", err)
	}
	if minted != lpTokens(20) {
		t.Fatalf("initial liquidity should match token amount, got %s", minted)
	}
	if p.TokenAmount() != tokens(20) || p.LpTokenAmount() != lpTokens(20) {
		t.Fatalf("unexpected balances: %+v", p.State())
	}
}

func TestAddLiquidityZero(t *testing.T) {
	p := storyPool()
	before := p.State()
	if _, err := p.AddLiquidity(amount.Token{}); !errors.Is(err, ErrNoTokensProvided) {
		t.Fatalf("expected ErrNoTokensProvided, got %v", err)
	}
	if p.State() != before {
		t.Fatalf("state changed on error")
	}
}

func TestAddLiquidityOverflow(t *testing.T) {
	p := nonEmptyPool(t)
	before := p.State()
	_, err := p.AddLiquidity(amount.FromRaw[amount.TokenUnit](1 << 50))
	if !errors.Is(err, ErrTokenAmountTooBig) {
		t.Fatalf("expected ErrTokenAmountTooBig, got %v", err)
	}
	if p.State() != before {
		t.Fatalf("state changed on error")
	}
}

func TestRemoveLiquidity(t *testing.T) {
	p := nonEmptyPool(t)
	tokenOut, stakedOut, err := p.RemoveLiquidity(lpTokens(10))
	if err != nil {
		t.Fatalf("remove liquidity: %v", err)
	}
	if tokenOut.IsZero() || stakedOut.IsZero() {
		t.Fatalf("removing from a two-asset pool should yield both assets, got %s/%s", tokenOut, stakedOut)
	}
	if stakedOut != amount.FromRaw[amount.StakedTokenUnit](1_200_000) {
		t.Fatalf("staked share mismatch: %s", stakedOut)
	}
	if p.LpTokenAmount() != lpTokens(240) {
		t.Fatalf("lp supply mismatch: %s", p.LpTokenAmount())
	}
}

func TestRemoveLiquidityTooMuch(t *testing.T) {
	p := emptyPool()
	before := p.State()
	_, _, err := p.RemoveLiquidity(lpTokens(1000))
	if !errors.Is(err, ErrNotEnoughTokens) {
		t.Fatalf("expected ErrNotEnoughTokens, got %v", err)
	}
	var detail *NotEnoughTokensError
	if !errors.As(err, &detail) {
		t.Fatalf("expected *NotEnoughTokensError, got %T", err)
	}
	if detail.WithdrawAmount != lpTokens(1000) || !detail.PoolCapacity.IsZero() {
		t.Fatalf("unexpected error detail: %+v", detail)
	}
	if p.State() != before {
		t.Fatalf("state changed on error")
	}
}

func TestRemoveLiquidityZero(t *testing.T) {
	p := emptyPool()
	tokenOut, stakedOut, err := p.RemoveLiquidity(amount.LpToken{})
	if err != nil {
		t.Fatalf("remove zero: %v", err)
	}
	if !tokenOut.IsZero() || !stakedOut.IsZero() {
		t.Fatalf("expected nothing back, got %s/%s", tokenOut, stakedOut)
	}
}

func TestRemoveLiquidityOverflow(t *testing.T) {
	p, err := Restore(State{
		Params:        storyPool().Params(),
		TokenAmount:   amount.FromRaw[amount.TokenUnit](1 << 62),
		LpTokenAmount: amount.FromRaw[amount.LpTokenUnit](1 << 62),
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	before := p.State()
	if _, _, err := p.RemoveLiquidity(amount.FromRaw[amount.LpTokenUnit](1 << 10)); !errors.Is(err, ErrWithdrawCalculationOverflow) {
		t.Fatalf("expected ErrWithdrawCalculationOverflow, got %v", err)
	}
	if p.State() != before {
		t.Fatalf("state changed on error")
	}
}

func TestSwap(t *testing.T) {
	p := nonEmptyPool(t)
	out, err := p.Swap(staked(3))
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if out.IsZero() {
		t.Fatalf("successful swap should pay out tokens")
	}
	// reserve stays far above target: 15 * (1 - 0.1)
	if out != tokens(13.5) {
		t.Fatalf("swap out mismatch: %s", out)
	}
	if p.StTokenAmount() != staked(33) {
		t.Fatalf("staked reserve mismatch: %s", p.StTokenAmount())
	}
}

func TestSwapNotEnoughTokens(t *testing.T) {
	p := emptyPool()
	before := p.State()
	_, err := p.Swap(staked(3))
	if !errors.Is(err, ErrPoolNotEnoughTokens) {
		t.Fatalf("expected ErrPoolNotEnoughTokens, got %v", err)
	}
	var detail *PoolNotEnoughTokensError
	if !errors.As(err, &detail) || detail.TokenAmount != tokens(6) {
		t.Fatalf("unexpected error detail: %v", err)
	}
	if p.State() != before {
		t.Fatalf("state changed on error")
	}
}

func TestSwapZero(t *testing.T) {
	p := emptyPool()
	if _, err := p.Swap(amount.StakedToken{}); !errors.Is(err, ErrZeroTokensAsArgument) {
		t.Fatalf("expected ErrZeroTokensAsArgument, got %v", err)
	}
}

func TestSwapPreFeeCheckIsConservative(t *testing.T) {
	// 10 staked at price 1 needs 10 tokens before fees; the pool holds 9.95,
	// enough to pay the post-fee amount but the swap is still rejected.
	p := Init(price(1), percentage(0.01), percentage(0.01), tokens(1))
	if _, err := p.AddLiquidity(tokens(9.95)); err != nil {
		t.Fatalf("add liquidity: %v", err)
	}
	if _, err := p.Swap(staked(10)); !errors.Is(err, ErrPoolNotEnoughTokens) {
		t.Fatalf("expected ErrPoolNotEnoughTokens, got %v", err)
	}
}

func TestQuoteSwapDoesNotMutate(t *testing.T) {
	p := storyPool()
	if _, err := p.AddLiquidity(tokens(100)); err != nil {
		t.Fatalf("add liquidity: %v", err)
	}
	before := p.State()

	quote, err := p.QuoteSwap(staked(6))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.AmountBeforeFee != tokens(9) || quote.Fee != percentage(0.001) || quote.AmountOut != tokens(8.991) {
		t.Fatalf("unexpected quote: %+v", quote)
	}
	if p.State() != before {
		t.Fatalf("quote changed the pool")
	}
}

func TestSwapFeeStaysInPool(t *testing.T) {
	p := storyPool()
	if _, err := p.AddLiquidity(tokens(100)); err != nil {
		t.Fatalf("add liquidity: %v", err)
	}
	if _, err := p.Swap(staked(6)); err != nil {
		t.Fatalf("swap: %v", err)
	}
	total, err := p.TotalValue()
	if err != nil {
		t.Fatalf("total value: %v", err)
	}
	// 91.009 tokens + 6 staked * 1.5
	if total != amount.FromRaw[amount.TokenUnit](100_009_000) {
		t.Fatalf("total value mismatch: %s", total)
	}
}

func TestRestoreRejectsInconsistentState(t *testing.T) {
	params := storyPool().Params()
	if _, err := Restore(State{Params: params, TokenAmount: tokens(1)}); !errors.Is(err, ErrInconsistentState) {
		t.Fatalf("expected ErrInconsistentState for reserves without lp, got %v", err)
	}
	if _, err := Restore(State{Params: params, LpTokenAmount: lpTokens(1)}); !errors.Is(err, ErrInconsistentState) {
		t.Fatalf("expected ErrInconsistentState for lp without reserves, got %v", err)
	}

	p := storyPool()
	if _, err := p.AddLiquidity(tokens(5)); err != nil {
		t.Fatalf("add liquidity: %v", err)
	}
	restored, err := Restore(p.State())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.State() != p.State() {
		t.Fatalf("restored state mismatch")
	}
}

func TestSwapDustIntoEmptyPool(t *testing.T) {
	p := Init(price(0.1), percentage(0), percentage(0.09), tokens(100))
	if _, err := p.Swap(amount.FromRaw[amount.StakedTokenUnit](1)); !errors.Is(err, ErrPoolNotEnoughTokens) {
		t.Fatalf("expected ErrPoolNotEnoughTokens, got %v", err)
	}
	if !p.StTokenAmount().IsZero() {
		t.Fatalf("empty pool accepted staked tokens")
	}
}

func TestAddLiquidityReserveSumOverflow(t *testing.T) {
	p, err := Restore(State{
		Params:        storyPool().Params(),
		TokenAmount:   amount.FromRaw[amount.TokenUnit](^uint64(0) - 5),
		LpTokenAmount: amount.FromRaw[amount.LpTokenUnit](1),
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	before := p.State()
	if _, err := p.AddLiquidity(amount.FromRaw[amount.TokenUnit](10)); !errors.Is(err, ErrTokenAmountTooBig) {
		t.Fatalf("expected ErrTokenAmountTooBig, got %v", err)
	}
	if p.State() != before {
		t.Fatalf("state changed on error")
	}
}

// overvaluedPool holds a staked reserve whose token value does not fit in 64 bits.
func overvaluedPool(t *testing.T) *Pool {
	t.Helper()
	p, err := Restore(State{
		Params: Params{
			Price:           amount.MustUnits[amount.PriceUnit](10),
			MaxFee:          percentage(0.09),
			LiquidityTarget: tokens(100),
		},
		TokenAmount:   amount.FromRaw[amount.TokenUnit](1),
		StTokenAmount: amount.FromRaw[amount.StakedTokenUnit](1 << 62),
		LpTokenAmount: amount.FromRaw[amount.LpTokenUnit](1),
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	return p
}

func TestAddLiquidityInvariantViolation(t *testing.T) {
	p := overvaluedPool(t)
	before := p.State()
	_, err := p.AddLiquidity(tokens(1))
	if !errors.Is(err, ErrInvariantViolation) || !errors.Is(err, amount.ErrOverflow) {
		t.Fatalf("expected invariant violation wrapping ErrOverflow, got %v", err)
	}
	if p.State() != before {
		t.Fatalf("state changed on error")
	}
}

func TestSwapInvariantViolation(t *testing.T) {
	p := nonEmptyPool(t)
	before := p.State()
	_, err := p.Swap(amount.FromRaw[amount.StakedTokenUnit](^uint64(0)))
	if !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("expected ErrInvariantViolation, got %v", err)
	}
	if p.State() != before {
		t.Fatalf("state changed on error")
	}
}

func TestSwapWithQuoteCommitsQuote(t *testing.T) {
	p := storyPool()
	if _, err := p.AddLiquidity(tokens(100)); err != nil {
		t.Fatalf("add liquidity: %v", err)
	}
	quote, err := p.SwapWithQuote(staked(6))
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if quote.AmountOut != amount.FromRaw[amount.TokenUnit](8_991_000) || quote.Fee != amount.FromRaw[amount.PercentageUnit](1_000) {
		t.Fatalf("unexpected quote: %+v", quote)
	}
	if p.TokenAmount() != amount.FromRaw[amount.TokenUnit](91_009_000) || p.StTokenAmount() != staked(6) {
		t.Fatalf("reserves not committed: %+v", p.State())
	}
}
