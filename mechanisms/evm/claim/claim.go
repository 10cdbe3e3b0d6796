// Package claim builds the withdrawal claim hook for the Gnosis beacon-chain
// deposit contract.
package claim

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	claimhooks "github.com/cowhooks/claimhooks"
	"github.com/cowhooks/claimhooks/mechanisms/evm"
)

// HookName identifies the claim hook in logs and errors
const HookName = "claim"

// EncodeClaimWithdrawalCall packs claimWithdrawal(withdrawalAddress)
func EncodeClaimWithdrawalCall(withdrawalAddress string) ([]byte, error) {
	if !evm.IsValidAddress(withdrawalAddress) {
		return nil, fmt.Errorf("invalid withdrawal address: %q", withdrawalAddress)
	}
	return evm.PackCall(evm.ClaimWithdrawalABI, evm.FunctionClaimWithdrawal, common.HexToAddress(withdrawalAddress))
}

// BuildClaimHook returns the hook that claims pending withdrawals for
// withdrawalAddress. The target is always the deposit contract and the gas
// limit is always ClaimWithdrawalGasLimit; no chain access is needed.
func BuildClaimHook(withdrawalAddress string) (*claimhooks.Hook, error) {
	calldata, err := EncodeClaimWithdrawalCall(withdrawalAddress)
	if err != nil {
		return nil, err
	}

	hook := claimhooks.NewHook(
		evm.NormalizeAddress(evm.DepositContractAddress),
		evm.BytesToHex(calldata),
		evm.ClaimWithdrawalGasLimit,
	)
	return &hook, nil
}

// HookBuilder adapts BuildClaimHook to claimhooks.HookBuilder
type HookBuilder struct {
	withdrawalAddress string
}

// NewHookBuilder creates a claim hook builder
func NewHookBuilder(withdrawalAddress string) *HookBuilder {
	return &HookBuilder{withdrawalAddress: withdrawalAddress}
}

// Name implements claimhooks.HookBuilder
func (b *HookBuilder) Name() string {
	return HookName
}

// Build implements claimhooks.HookBuilder
func (b *HookBuilder) Build(_ context.Context) (claimhooks.Hook, error) {
	hook, err := BuildClaimHook(b.withdrawalAddress)
	if err != nil {
		return claimhooks.Hook{}, err
	}
	return *hook, nil
}
