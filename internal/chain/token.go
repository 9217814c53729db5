package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20DecimalsABIJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"}
]`

var (
	erc20DecimalsABI    abi.ABI
	erc20DecimalsOnce   sync.Once
	erc20DecimalsABIErr error
)

func getERC20DecimalsABI() (abi.ABI, error) {
	erc20DecimalsOnce.Do(func() {
		erc20DecimalsABI, erc20DecimalsABIErr = abi.JSON(strings.NewReader(erc20DecimalsABIJSON))
	})
	return erc20DecimalsABI, erc20DecimalsABIErr
}

// ParseAddress converts a hex string into common.Address.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %q", input)
	}
	return common.HexToAddress(input), nil
}

// TokenDecimals reads the ERC-20 decimals of token at the latest block.
func TokenDecimals(ctx context.Context, caller Caller, token common.Address) (uint8, error) {
	if caller == nil {
		return 0, fmt.Errorf("chain client is nil")
	}
	decimalsABI, err := getERC20DecimalsABI()
	if err != nil {
		return 0, err
	}

	data, err := decimalsABI.Pack("decimals")
	if err != nil {
		return 0, fmt.Errorf("pack decimals: %w", err)
	}

	resp, err := caller.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return 0, fmt.Errorf("call decimals: %w", err)
	}

	values, err := decimalsABI.Unpack("decimals", resp)
	if err != nil {
		return 0, fmt.Errorf("unpack decimals: %w", err)
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("decimals return size %d", len(values))
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals unexpected type %T", values[0])
	}
	return decimals, nil
}
