package evm

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	hooksevm "github.com/cowhooks/claimhooks/mechanisms/evm"
)

const testKeyHex = "0xb71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

type fakeBackend struct {
	callResult []byte
	callErr    error
	gas        uint64
	gasErr     error
	chainID    *big.Int

	calls     []ethereum.CallMsg
	estimates []ethereum.CallMsg
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls = append(f.calls, msg)
	return f.callResult, f.callErr
}

func (f *fakeBackend) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	f.estimates = append(f.estimates, msg)
	return f.gas, f.gasErr
}

func (f *fakeBackend) ChainID(_ context.Context) (*big.Int, error) {
	return f.chainID, nil
}

func encodeUint256(t *testing.T, n *big.Int) []byte {
	t.Helper()
	uint256Type, err := abi.NewType("uint256", "", nil)
	if err != nil {
		t.Fatalf("failed to build type: %v", err)
	}
	out, err := abi.Arguments{{Type: uint256Type}}.Pack(n)
	if err != nil {
		t.Fatalf("failed to pack: %v", err)
	}
	return out
}

func TestNewHookSignerFromPrivateKey(t *testing.T) {
	signer, err := NewHookSignerFromPrivateKey(testKeyHex, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	withoutPrefix, err := NewHookSignerFromPrivateKey(testKeyHex[2:], nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signer.Address() != withoutPrefix.Address() {
		t.Error("0x prefix changed the derived address")
	}

	pk, _ := crypto.HexToECDSA(testKeyHex[2:])
	if signer.Address() != crypto.PubkeyToAddress(pk.PublicKey).Hex() {
		t.Errorf("unexpected address %s", signer.Address())
	}

	if _, err := NewHookSignerFromPrivateKey("0xnotakey", nil); err == nil {
		t.Error("expected error for invalid key")
	}
}

func TestSignTypedData(t *testing.T) {
	signer, err := NewHookSignerFromPrivateKey(testKeyHex, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	auth := hooksevm.PermitAuthorization{
		Owner:    signer.Address(),
		Spender:  hooksevm.VaultRelayerAddress,
		Value:    "1",
		Nonce:    "0",
		Deadline: "2000000000",
	}
	message, err := hooksevm.PermitMessage(auth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	domain := hooksevm.PermitDomain(hooksevm.GNOTokenAddress, "Gnosis Token on xDai", "1", hooksevm.ChainIDGnosis)

	sig, err := signer.SignTypedData(context.Background(), domain, hooksevm.GetEIP2612EIP712Types(), "Permit", message)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sig) != 65 {
		t.Fatalf("expected 65-byte signature, got %d", len(sig))
	}
	if sig[64] != 27 && sig[64] != 28 {
		t.Errorf("expected v in {27,28}, got %d", sig[64])
	}

	again, _ := signer.SignTypedData(context.Background(), domain, hooksevm.GetEIP2612EIP712Types(), "Permit", message)
	if !bytes.Equal(sig, again) {
		t.Error("signature is not deterministic")
	}

	digest, _ := hooksevm.HashTypedData(domain, hooksevm.GetEIP2612EIP712Types(), "Permit", message)
	recoverable := append([]byte{}, sig...)
	recoverable[64] -= 27
	pub, err := crypto.SigToPub(digest, recoverable)
	if err != nil {
		t.Fatalf("failed to recover: %v", err)
	}
	if crypto.PubkeyToAddress(*pub).Hex() != signer.Address() {
		t.Error("signature does not recover to signer")
	}
}

func TestReadContract(t *testing.T) {
	backend := &fakeBackend{callResult: encodeUint256(t, big.NewInt(42))}
	signer, err := NewHookSignerFromPrivateKey(testKeyHex, backend)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	owner := common.HexToAddress(signer.Address())
	result, err := signer.ReadContract(context.Background(), hooksevm.GNOTokenAddress, hooksevm.EIP2612NoncesABI, hooksevm.FunctionNonces, owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.(*big.Int).Int64() != 42 {
		t.Errorf("expected 42, got %v", result)
	}

	if len(backend.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(backend.calls))
	}
	call := backend.calls[0]
	if *call.To != common.HexToAddress(hooksevm.GNOTokenAddress) {
		t.Errorf("unexpected call target %s", call.To)
	}
	want, _ := hooksevm.PackCall(hooksevm.EIP2612NoncesABI, hooksevm.FunctionNonces, owner)
	if !bytes.Equal(call.Data, want) {
		t.Errorf("unexpected call data %x", call.Data)
	}

	backend.callErr = errors.New("execution reverted")
	if _, err := signer.ReadContract(context.Background(), hooksevm.GNOTokenAddress, hooksevm.EIP2612NoncesABI, hooksevm.FunctionNonces, owner); err == nil {
		t.Error("expected error when the call fails")
	}
}

func TestEstimateGas(t *testing.T) {
	backend := &fakeBackend{gas: 61000}
	signer, err := NewHookSignerFromPrivateKey(testKeyHex, backend)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data := []byte{0xd5, 0x05, 0xac, 0xcf}
	gas, err := signer.EstimateGas(context.Background(), signer.Address(), hooksevm.GNOTokenAddress, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gas != 61000 {
		t.Errorf("expected 61000, got %d", gas)
	}

	msg := backend.estimates[0]
	if msg.From != common.HexToAddress(signer.Address()) {
		t.Errorf("unexpected from %s", msg.From)
	}
	if *msg.To != common.HexToAddress(hooksevm.GNOTokenAddress) {
		t.Errorf("unexpected to %s", msg.To)
	}
	if !bytes.Equal(msg.Data, data) {
		t.Errorf("unexpected data %x", msg.Data)
	}

	backend.gasErr = errors.New("execution reverted")
	if _, err := signer.EstimateGas(context.Background(), signer.Address(), hooksevm.GNOTokenAddress, data); err == nil {
		t.Error("expected error when estimation fails")
	}
}

func TestGetChainID(t *testing.T) {
	signer, _ := NewHookSignerFromPrivateKey(testKeyHex, &fakeBackend{chainID: big.NewInt(100)})
	chainID, err := signer.GetChainID(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chainID.Int64() != 100 {
		t.Errorf("expected 100, got %s", chainID)
	}
}

func TestWithoutBackend(t *testing.T) {
	signer, _ := NewHookSignerFromPrivateKey(testKeyHex, nil)
	ctx := context.Background()

	if _, err := signer.ReadContract(ctx, hooksevm.GNOTokenAddress, hooksevm.ERC20NameABI, hooksevm.FunctionName); err == nil {
		t.Error("expected ReadContract error without backend")
	}
	if _, err := signer.EstimateGas(ctx, signer.Address(), hooksevm.GNOTokenAddress, nil); err == nil {
		t.Error("expected EstimateGas error without backend")
	}
	if _, err := signer.GetChainID(ctx); err == nil {
		t.Error("expected GetChainID error without backend")
	}
}

// revertError mimics a JSON-RPC error carrying revert data
type revertError struct {
	data interface{}
}

func (e revertError) Error() string          { return "reverted" }
func (e revertError) ErrorCode() int         { return 3 }
func (e revertError) ErrorData() interface{} { return e.data }

func TestReadContractErrorClassification(t *testing.T) {
	transportErr := errors.New("dial tcp 127.0.0.1:8545: connect: connection refused")

	tests := []struct {
		name        string
		backend     *fakeBackend
		unavailable bool
		sentinel    error
	}{
		{"revert data", &fakeBackend{callErr: revertError{data: "0x08c379a0"}}, true, hooksevm.ErrCallReverted},
		{"revert message", &fakeBackend{callErr: errors.New("execution reverted")}, true, hooksevm.ErrCallReverted},
		{"empty result", &fakeBackend{}, true, hooksevm.ErrEmptyResult},
		{"undecodable result", &fakeBackend{callResult: []byte{0x01, 0x02, 0x03}}, true, hooksevm.ErrUndecodableResult},
		{"rpc error without data", &fakeBackend{callErr: revertError{}}, false, revertError{}},
		{"transport failure", &fakeBackend{callErr: transportErr}, false, transportErr},
		{"cancelled", &fakeBackend{callErr: context.Canceled}, false, context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer, err := NewHookSignerFromPrivateKey(testKeyHex, tt.backend)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			_, err = signer.ReadContract(context.Background(), hooksevm.GNOTokenAddress, hooksevm.EIP712VersionABI, hooksevm.FunctionVersion)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := hooksevm.IsFunctionUnavailable(err); got != tt.unavailable {
				t.Errorf("IsFunctionUnavailable = %v, want %v (%v)", got, tt.unavailable, err)
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("expected %v in chain, got %v", tt.sentinel, err)
			}
		})
	}
}
