package replay

import (
	"fmt"
	"time"

	"unstakePool/internal/amount"
	"unstakePool/internal/model"
	"unstakePool/internal/pool"
)

// Apply runs one operation against p and records the outcome. The returned
// error is the reason the operation was rejected; it is also copied into the
// result. Amounts with more than six decimals are truncated.
func Apply(p *pool.Pool, op model.Operation, appliedAt time.Time) (model.OperationResult, error) {
	res := model.OperationResult{
		Seq:       op.Seq,
		Op:        op.Op,
		Amount:    op.Amount.String(),
		AppliedAt: appliedAt,
	}

	err := apply(p, op, &res)
	if err != nil {
		res.Error = err.Error()
	} else {
		res.OK = true
	}
	res.State = p.State()
	return res, err
}

func apply(p *pool.Pool, op model.Operation, res *model.OperationResult) error {
	if err := op.Validate(); err != nil {
		return err
	}

	switch op.Op {
	case model.OpAddLiquidity:
		in, err := amount.FromDecimal[amount.TokenUnit](op.Amount)
		if err != nil {
			return fmt.Errorf("token amount: %w", err)
		}
		minted, err := p.AddLiquidity(in)
		if err != nil {
			return err
		}
		res.LpMinted = &minted
	case model.OpRemoveLiquidity:
		in, err := amount.FromDecimal[amount.LpTokenUnit](op.Amount)
		if err != nil {
			return fmt.Errorf("lp amount: %w", err)
		}
		tokenOut, stakedOut, err := p.RemoveLiquidity(in)
		if err != nil {
			return err
		}
		res.TokenOut = &tokenOut
		res.StakedOut = &stakedOut
	case model.OpSwap:
		in, err := amount.FromDecimal[amount.StakedTokenUnit](op.Amount)
		if err != nil {
			return fmt.Errorf("staked amount: %w", err)
		}
		quote, err := p.SwapWithQuote(in)
		if err != nil {
			return err
		}
		res.TokenOut = &quote.AmountOut
		res.Fee = &quote.Fee
	}
	return nil
}
