package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OpKind names a pool operation.
type OpKind string

const (
	OpAddLiquidity    OpKind = "add_liquidity"
	OpRemoveLiquidity OpKind = "remove_liquidity"
	OpSwap            OpKind = "swap"
)

// Operation is one line of a replay input stream. Amount is read as a decimal
// string or number and interpreted in the unit the operation takes: tokens for
// add_liquidity, LP tokens for remove_liquidity and staked tokens for swap.
type Operation struct {
	Seq    uint64          `json:"seq"`
	Op     OpKind          `json:"op"`
	Amount decimal.Decimal `json:"amount"`
}

// Validate checks the fields that do not depend on pool state.
func (o Operation) Validate() error {
	switch o.Op {
	case OpAddLiquidity, OpRemoveLiquidity, OpSwap:
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", o.Op)
	}
	if o.Amount.IsNegative() {
		return fmt.Errorf("amount must not be negative: %s", o.Amount)
	}
	return nil
}
