// Package permit builds the EIP-2612 permit hook: an off-chain signed
// approval that the settlement executes on-chain in place of approve().
package permit

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	claimhooks "github.com/cowhooks/claimhooks"
	"github.com/cowhooks/claimhooks/mechanisms/evm"
)

// HookName identifies the permit hook in logs and errors
const HookName = "permit"

// Params describes the permit to sign. Value and Deadline are decimal strings.
type Params struct {
	TokenAddress string
	Spender      string
	Value        string
	Deadline     string

	// Optional overrides. When empty they are read from chain.
	TokenName    string
	TokenVersion string
	ChainID      *big.Int
}

// SignedPermit is a permit together with its signature
type SignedPermit struct {
	Token         string
	Domain        evm.TypedDataDomain
	Authorization evm.PermitAuthorization
	Signature     string // 0x-prefixed 65-byte signature
	V             uint8
	R             [32]byte
	S             [32]byte
}

// ReadNonce queries the token's EIP-2612 nonce for owner
func ReadNonce(ctx context.Context, reader evm.ContractReader, tokenAddress string, owner string) (*big.Int, error) {
	result, err := reader.ReadContract(ctx, tokenAddress, evm.EIP2612NoncesABI, evm.FunctionNonces, common.HexToAddress(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to read EIP-2612 nonce: %w", err)
	}

	nonce, ok := result.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected nonce type: %T", result)
	}
	return nonce, nil
}

// ReadTokenDomain reads the token's name and EIP-712 version. Tokens whose
// version() reverts, returns nothing, or returns something other than a
// string get DefaultPermitVersion. Any other read failure is returned, since
// guessing the version would sign under the wrong domain.
func ReadTokenDomain(ctx context.Context, reader evm.ContractReader, tokenAddress string) (name string, version string, err error) {
	nameResult, err := reader.ReadContract(ctx, tokenAddress, evm.ERC20NameABI, evm.FunctionName)
	if err != nil {
		return "", "", fmt.Errorf("failed to read token name: %w", err)
	}
	name, ok := nameResult.(string)
	if !ok {
		return "", "", fmt.Errorf("unexpected token name type: %T", nameResult)
	}

	versionResult, err := reader.ReadContract(ctx, tokenAddress, evm.EIP712VersionABI, evm.FunctionVersion)
	if err != nil {
		if evm.IsFunctionUnavailable(err) {
			return name, evm.DefaultPermitVersion, nil
		}
		return "", "", fmt.Errorf("failed to read token version: %w", err)
	}

	version, ok = versionResult.(string)
	if !ok || version == "" {
		version = evm.DefaultPermitVersion
	}
	return name, version, nil
}

// SignPermit signs authorization under the token's EIP-712 domain.
// For a fixed key, domain and authorization the signature is deterministic.
func SignPermit(
	ctx context.Context,
	signer evm.ClientEvmSigner,
	domain evm.TypedDataDomain,
	authorization evm.PermitAuthorization,
) (*SignedPermit, error) {
	message, err := evm.PermitMessage(authorization)
	if err != nil {
		return nil, err
	}

	signatureBytes, err := signer.SignTypedData(ctx, domain, evm.GetEIP2612EIP712Types(), "Permit", message)
	if err != nil {
		return nil, fmt.Errorf("failed to sign EIP-2612 permit: %w", err)
	}

	v, r, s, err := evm.SplitSignature(signatureBytes)
	if err != nil {
		return nil, err
	}

	return &SignedPermit{
		Token:         domain.VerifyingContract,
		Domain:        domain,
		Authorization: authorization,
		Signature:     evm.BytesToHex(signatureBytes),
		V:             v,
		R:             r,
		S:             s,
	}, nil
}

// EncodePermitCall packs permit(owner, spender, value, deadline, v, r, s)
func EncodePermitCall(signed *SignedPermit) ([]byte, error) {
	auth := signed.Authorization

	value, err := evm.ParseUint256(auth.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid permit value: %w", err)
	}
	deadline, err := evm.ParseUint256(auth.Deadline)
	if err != nil {
		return nil, fmt.Errorf("invalid permit deadline: %w", err)
	}

	return evm.PackCall(
		evm.EIP2612PermitABI,
		evm.FunctionPermit,
		common.HexToAddress(auth.Owner),
		common.HexToAddress(auth.Spender),
		value,
		deadline,
		signed.V,
		signed.R,
		signed.S,
	)
}

// BuildPermitHook reads the owner's nonce and the token's domain, signs the
// permit, encodes the permit call and estimates its gas.
//
// Args:
//
//	ctx: Bounds every RPC read and the gas estimate
//	signer: Permit owner; it signs and provides chain access
//	params: Token, spender, value and deadline, plus optional domain overrides
//
// Returns:
//
//	The hook targeting the token with the estimate as its gas limit, the
//	signed permit it encodes, or an error if any read, signature or
//	estimate fails
func BuildPermitHook(ctx context.Context, signer evm.HookSigner, params Params) (*claimhooks.Hook, *SignedPermit, error) {
	if !evm.IsValidAddress(params.TokenAddress) {
		return nil, nil, fmt.Errorf("invalid token address: %q", params.TokenAddress)
	}
	if !evm.IsValidAddress(params.Spender) {
		return nil, nil, fmt.Errorf("invalid spender address: %q", params.Spender)
	}
	if _, err := evm.ParseUint256(params.Value); err != nil {
		return nil, nil, fmt.Errorf("invalid permit value: %w", err)
	}
	if _, err := evm.ParseUint256(params.Deadline); err != nil {
		return nil, nil, fmt.Errorf("invalid permit deadline: %w", err)
	}

	token := evm.NormalizeAddress(params.TokenAddress)
	owner := signer.Address()

	chainID := params.ChainID
	if chainID == nil {
		var err error
		chainID, err = signer.GetChainID(ctx)
		if err != nil {
			return nil, nil, err
		}
	}

	nonce, err := ReadNonce(ctx, signer, token, owner)
	if err != nil {
		return nil, nil, err
	}

	name, version := params.TokenName, params.TokenVersion
	if name == "" {
		readName, readVersion, err := ReadTokenDomain(ctx, signer, token)
		if err != nil {
			return nil, nil, err
		}
		name = readName
		if version == "" {
			version = readVersion
		}
	}
	if version == "" {
		version = evm.DefaultPermitVersion
	}

	authorization := evm.PermitAuthorization{
		Owner:    owner,
		Spender:  evm.NormalizeAddress(params.Spender),
		Value:    params.Value,
		Nonce:    nonce.String(),
		Deadline: params.Deadline,
	}

	signed, err := SignPermit(ctx, signer, evm.PermitDomain(token, name, version, chainID), authorization)
	if err != nil {
		return nil, nil, err
	}

	calldata, err := EncodePermitCall(signed)
	if err != nil {
		return nil, nil, err
	}

	gas, err := signer.EstimateGas(ctx, owner, token, calldata)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to estimate permit gas: %w", err)
	}

	hook := claimhooks.NewHook(token, evm.BytesToHex(calldata), gas)
	return &hook, signed, nil
}

// HookBuilder adapts BuildPermitHook to claimhooks.HookBuilder
type HookBuilder struct {
	signer evm.HookSigner
	params Params
}

// NewHookBuilder creates a permit hook builder
func NewHookBuilder(signer evm.HookSigner, params Params) *HookBuilder {
	return &HookBuilder{signer: signer, params: params}
}

// Name implements claimhooks.HookBuilder
func (b *HookBuilder) Name() string {
	return HookName
}

// Build implements claimhooks.HookBuilder
func (b *HookBuilder) Build(ctx context.Context) (claimhooks.Hook, error) {
	hook, _, err := BuildPermitHook(ctx, b.signer, b.params)
	if err != nil {
		return claimhooks.Hook{}, err
	}
	return *hook, nil
}
