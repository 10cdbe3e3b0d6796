package evm

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"

	hooksevm "github.com/cowhooks/claimhooks/mechanisms/evm"
)

// RPCBackend is the subset of *ethclient.Client the signer uses
type RPCBackend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// HookSigner implements hooksevm.HookSigner using an ECDSA private key and
// a JSON-RPC backend for reads and gas estimation.
type HookSigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	backend    RPCBackend
}

// NewHookSignerFromPrivateKey creates a signer from a hex-encoded private key.
//
// Args:
//
//	privateKeyHex: Hex-encoded private key (with or without "0x" prefix)
//	backend: RPC backend, usually an *ethclient.Client. May be nil for
//	  signing only; reads and estimates then return an error.
//
// Example:
//
//	client, err := ethclient.DialContext(ctx, rpcURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	signer, err := evm.NewHookSignerFromPrivateKey(os.Getenv("PRIVATE_KEY"), client)
func NewHookSignerFromPrivateKey(privateKeyHex string, backend RPCBackend) (*HookSigner, error) {
	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")

	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &HookSigner{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
		backend:    backend,
	}, nil
}

// Address returns the Ethereum address of the signer.
func (s *HookSigner) Address() string {
	return s.address.Hex()
}

// SignTypedData signs EIP-712 typed data and returns a 65-byte (r, s, v)
// signature with v in {27, 28}.
func (s *HookSigner) SignTypedData(
	ctx context.Context,
	domain hooksevm.TypedDataDomain,
	types map[string][]hooksevm.TypedDataField,
	primaryType string,
	message map[string]interface{},
) ([]byte, error) {
	digest, err := hooksevm.HashTypedData(domain, types, primaryType, message)
	if err != nil {
		return nil, err
	}

	signature, err := crypto.Sign(digest, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}

	// Recovery ID 0/1 → 27/28
	signature[64] += 27

	return signature, nil
}

// ReadContract calls a view function at contractAddress on the latest block.
func (s *HookSigner) ReadContract(
	ctx context.Context,
	contractAddress string,
	abiBytes []byte,
	functionName string,
	args ...interface{},
) (interface{}, error) {
	if s.backend == nil {
		return nil, fmt.Errorf("ReadContract requires an RPC backend")
	}

	contractABI, err := abi.JSON(bytes.NewReader(abiBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	data, err := contractABI.Pack(functionName, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack method call: %w", err)
	}

	addr := common.HexToAddress(contractAddress)
	msg := ethereum.CallMsg{
		To:   &addr,
		Data: data,
	}

	result, err := s.backend.CallContract(ctx, msg, nil)
	if err != nil {
		if isRevert(err) {
			return nil, fmt.Errorf("%w: %s: %v", hooksevm.ErrCallReverted, functionName, err)
		}
		return nil, fmt.Errorf("contract call failed: %w", err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%w: %s at %s", hooksevm.ErrEmptyResult, functionName, addr.Hex())
	}

	outputs, err := contractABI.Unpack(functionName, result)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", hooksevm.ErrUndecodableResult, functionName, err)
	}

	if len(outputs) == 0 {
		return nil, nil
	}
	if len(outputs) == 1 {
		return outputs[0], nil
	}
	return outputs, nil
}

// isRevert reports whether a CallContract error is an EVM revert rather
// than a transport or node failure. Nodes report reverts either as a JSON-RPC
// error carrying revert data or with an "execution reverted" message.
func isRevert(err error) bool {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
		return true
	}
	return strings.Contains(err.Error(), "execution reverted")
}

// EstimateGas estimates the gas used by calling to with data from the given
// address.
func (s *HookSigner) EstimateGas(ctx context.Context, from string, to string, data []byte) (uint64, error) {
	if s.backend == nil {
		return 0, fmt.Errorf("EstimateGas requires an RPC backend")
	}

	toAddr := common.HexToAddress(to)
	gas, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{
		From: common.HexToAddress(from),
		To:   &toAddr,
		Data: data,
	})
	if err != nil {
		return 0, fmt.Errorf("gas estimation failed: %w", err)
	}
	return gas, nil
}

// GetChainID returns the chain ID reported by the backend.
func (s *HookSigner) GetChainID(ctx context.Context) (*big.Int, error) {
	if s.backend == nil {
		return nil, fmt.Errorf("GetChainID requires an RPC backend")
	}

	chainID, err := s.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	return chainID, nil
}
