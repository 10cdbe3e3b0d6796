package claim

import (
	"bytes"
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/cowhooks/claimhooks/mechanisms/evm"
)

func TestBuildClaimHook(t *testing.T) {
	addresses := []string{
		"0xABCabcABCabcABCabcABCabcABCabcABCabcABCa",
		"0x857b06519E91e3A54538791bDbb0E22373e36b66",
		"0x0000000000000000000000000000000000000001",
	}

	for _, address := range addresses {
		t.Run(address, func(t *testing.T) {
			hook, err := BuildClaimHook(address)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if hook.Target != evm.DepositContractAddress {
				t.Errorf("expected deposit contract target, got %s", hook.Target)
			}
			if hook.GasLimit != "82264" {
				t.Errorf("expected gas limit 82264, got %s", hook.GasLimit)
			}

			calldata, err := evm.HexToBytes(hook.CallData)
			if err != nil {
				t.Fatalf("invalid calldata hex: %v", err)
			}
			selector := crypto.Keccak256([]byte("claimWithdrawal(address)"))[:4]
			if !bytes.Equal(calldata[:4], selector) {
				t.Errorf("unexpected selector %x", calldata[:4])
			}

			args, err := evm.UnpackCall(evm.ClaimWithdrawalABI, evm.FunctionClaimWithdrawal, calldata)
			if err != nil {
				t.Fatalf("failed to decode calldata: %v", err)
			}
			if args[0].(common.Address) != common.HexToAddress(address) {
				t.Errorf("expected %s, got %s", address, args[0])
			}
		})
	}
}

func TestBuildClaimHookInvalidAddress(t *testing.T) {
	for _, address := range []string{"", "0x123", "ABCabcABCabcABCabcABCabcABCabcABCabcABCa", "not-an-address"} {
		if _, err := BuildClaimHook(address); err == nil {
			t.Errorf("expected error for %q", address)
		}
	}
}

func TestHookBuilder(t *testing.T) {
	builder := NewHookBuilder("0x857b06519E91e3A54538791bDbb0E22373e36b66")
	if builder.Name() != HookName {
		t.Errorf("unexpected name %s", builder.Name())
	}

	hook, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hook.Target != evm.DepositContractAddress || hook.GasLimit != "82264" {
		t.Errorf("unexpected hook: %+v", hook)
	}
	if err := hook.Validate(); err != nil {
		t.Errorf("built hook is invalid: %v", err)
	}

	if _, err := NewHookBuilder("bad").Build(context.Background()); err == nil {
		t.Error("expected error for invalid address")
	}
}
