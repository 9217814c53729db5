package model

import (
	"time"

	"unstakePool/internal/amount"
	"unstakePool/internal/pool"
)

// OperationResult records the outcome of applying one operation. Output
// fields are set only for the operation kind that produces them; Error is set
// when the pool rejected the operation, in which case State is unchanged.
type OperationResult struct {
	Seq       uint64              `json:"seq"`
	Op        OpKind              `json:"op"`
	Amount    string              `json:"amount"`
	OK        bool                `json:"ok"`
	Error     string              `json:"error,omitempty"`
	LpMinted  *amount.LpToken     `json:"lp_minted,omitempty"`
	TokenOut  *amount.Token       `json:"token_out,omitempty"`
	StakedOut *amount.StakedToken `json:"staked_out,omitempty"`
	Fee       *amount.Percentage  `json:"fee,omitempty"`
	State     pool.State          `json:"state"`
	AppliedAt time.Time           `json:"applied_at"`
}
