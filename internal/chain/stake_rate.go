package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"unstakePool/internal/amount"
)

const convertToAssetsABIJSON = `[
  {"inputs": [{"internalType": "uint256", "name": "shares", "type": "uint256"}], "name": "convertToAssets", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

var (
	convertToAssetsABI    abi.ABI
	convertToAssetsOnce   sync.Once
	convertToAssetsABIErr error
)

func getConvertToAssetsABI() (abi.ABI, error) {
	convertToAssetsOnce.Do(func() {
		convertToAssetsABI, convertToAssetsABIErr = abi.JSON(strings.NewReader(convertToAssetsABIJSON))
	})
	return convertToAssetsABI, convertToAssetsABIErr
}

// Caller is the subset of Client used to read contract state.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// StakeRate returns how many underlying tokens one whole staked token is
// worth, as a raw integer with the given number of decimals. The contract
// must expose the ERC-4626 convertToAssets view. A nil blockNumber reads the
// latest state.
func StakeRate(ctx context.Context, caller Caller, contract common.Address, decimals int32, blockNumber *big.Int) (*big.Int, error) {
	if caller == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	if decimals < 0 || decimals > 77 {
		return nil, fmt.Errorf("unsupported decimals %d", decimals)
	}
	rateABI, err := getConvertToAssetsABI()
	if err != nil {
		return nil, err
	}

	oneShare := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	data, err := rateABI.Pack("convertToAssets", oneShare)
	if err != nil {
		return nil, fmt.Errorf("pack convertToAssets: %w", err)
	}

	msg := ethereum.CallMsg{To: &contract, Data: data}
	resp, err := caller.CallContract(ctx, msg, blockNumber)
	if err != nil {
		return nil, fmt.Errorf("call convertToAssets: %w", err)
	}

	values, err := rateABI.Unpack("convertToAssets", resp)
	if err != nil {
		return nil, fmt.Errorf("unpack convertToAssets: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("convertToAssets return size %d", len(values))
	}
	rate, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("convertToAssets unexpected type %T", values[0])
	}
	return rate, nil
}

// PriceFromRate converts a raw rate with the given decimals into a pool
// price. Digits beyond the price precision are truncated.
func PriceFromRate(rate *big.Int, decimals int32) (amount.Price, error) {
	if rate == nil {
		return amount.Price{}, fmt.Errorf("rate is nil")
	}
	price, err := amount.FromDecimal[amount.PriceUnit](decimal.NewFromBigInt(rate, -decimals))
	if err != nil {
		return amount.Price{}, fmt.Errorf("convert rate %s: %w", rate, err)
	}
	if price.IsZero() {
		return amount.Price{}, fmt.Errorf("rate %s rounds to a zero price", rate)
	}
	return price, nil
}

// StakePrice reads the stake rate and converts it into a pool price. When
// decimals is zero they are read from the contract's ERC-20 decimals.
func StakePrice(ctx context.Context, caller Caller, contract common.Address, decimals int32) (amount.Price, error) {
	if decimals == 0 {
		read, err := TokenDecimals(ctx, caller, contract)
		if err != nil {
			return amount.Price{}, err
		}
		decimals = int32(read)
	}
	rate, err := StakeRate(ctx, caller, contract, decimals, nil)
	if err != nil {
		return amount.Price{}, err
	}
	return PriceFromRate(rate, decimals)
}
