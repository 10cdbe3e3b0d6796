package evm

import (
	"context"
	"errors"
	"math/big"
)

// Errors a ContractReader wraps when the call reached the chain but the
// function is not usable on the target contract. Transport failures are
// never wrapped with these.
var (
	// ErrCallReverted means the call executed and reverted
	ErrCallReverted = errors.New("contract call reverted")

	// ErrEmptyResult means the call returned no data, e.g. the target has no code
	ErrEmptyResult = errors.New("contract call returned no data")

	// ErrUndecodableResult means the returned data does not match the ABI outputs
	ErrUndecodableResult = errors.New("contract call result does not match ABI")
)

// IsFunctionUnavailable reports whether err says the called function does
// not exist or does not answer as declared on the target contract
func IsFunctionUnavailable(err error) bool {
	return errors.Is(err, ErrCallReverted) ||
		errors.Is(err, ErrEmptyResult) ||
		errors.Is(err, ErrUndecodableResult)
}

// TypedDataDomain represents the EIP-712 domain separator
type TypedDataDomain struct {
	Name              string   `json:"name"`
	Version           string   `json:"version"`
	ChainID           *big.Int `json:"chainId"`
	VerifyingContract string   `json:"verifyingContract"`
}

// TypedDataField represents a field in EIP-712 typed data
type TypedDataField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// PermitAuthorization is the EIP-2612 Permit message in string form.
// All integers are decimal strings.
type PermitAuthorization struct {
	Owner    string `json:"owner"`    // Token holder address (hex)
	Spender  string `json:"spender"`  // Address allowed to spend (hex)
	Value    string `json:"value"`    // Allowance in the token's smallest unit
	Nonce    string `json:"nonce"`    // Token's nonces(owner) at signing time
	Deadline string `json:"deadline"` // Unix timestamp after which the permit is void
}

// ClientEvmSigner defines the interface for client-side EVM signing operations
type ClientEvmSigner interface {
	// Address returns the signer's Ethereum address
	Address() string

	// SignTypedData signs EIP-712 typed data
	SignTypedData(ctx context.Context, domain TypedDataDomain, types map[string][]TypedDataField, primaryType string, message map[string]interface{}) ([]byte, error)
}

// ContractReader performs read-only contract calls
type ContractReader interface {
	// ReadContract calls a view function and returns the unpacked result.
	// A single output is returned as-is, multiple outputs as []interface{}.
	ReadContract(ctx context.Context, address string, abi []byte, functionName string, args ...interface{}) (interface{}, error)
}

// GasEstimator estimates the gas of a call without submitting it
type GasEstimator interface {
	EstimateGas(ctx context.Context, from string, to string, data []byte) (uint64, error)
}

// HookSigner is everything the hook builders need from a connected account:
// signing, contract reads, gas estimation, and the chain it is connected to.
type HookSigner interface {
	ClientEvmSigner
	ContractReader
	GasEstimator

	// GetChainID returns the chain ID of the connected network
	GetChainID(ctx context.Context) (*big.Int, error)
}
