package pool

import "unstakePool/internal/amount"

// Fee returns the swap fee charged when the token reserve is left at
// amountAfter:
//
//	fee = max_fee - (max_fee - min_fee) * amountAfter / liquidity_target
//
// The subtracted term is capped at max_fee before subtracting and the result
// is floored at min_fee, so the fee falls linearly from max_fee at an empty
// reserve to min_fee at the liquidity target and stays there.
// A pool with a zero liquidity target always charges min_fee, even at an
// empty reserve.
func (p *Pool) Fee(amountAfter amount.Token) amount.Percentage {
	if p.liquidityTarget.IsZero() {
		return p.minFee
	}

	// Inverted bounds leave no spread; the fee then sits at the larger bound.
	spread, err := p.maxFee.Sub(p.minFee)
	if err != nil {
		spread = amount.Percentage{}
	}

	rhs := p.maxFee
	raw, err := amount.MulDiv(spread.Raw(), amountAfter.Raw(), p.liquidityTarget.Raw())
	if err == nil {
		rhs = amount.FromRaw[amount.PercentageUnit](raw).Min(p.maxFee)
	}

	// rhs <= maxFee, the subtraction cannot fail.
	fee, _ := p.maxFee.Sub(rhs)
	return fee.Max(p.minFee)
}
