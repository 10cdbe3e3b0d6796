package evm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// ToAPITypedData converts domain, types and message into go-ethereum's
// apitypes representation. EIP712Domain is added when types lacks it.
func ToAPITypedData(
	domain TypedDataDomain,
	types map[string][]TypedDataField,
	primaryType string,
	message map[string]interface{},
) apitypes.TypedData {
	typedData := apitypes.TypedData{
		Types:       make(apitypes.Types),
		PrimaryType: primaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              domain.Name,
			Version:           domain.Version,
			ChainId:           (*math.HexOrDecimal256)(domain.ChainID),
			VerifyingContract: domain.VerifyingContract,
		},
		Message: message,
	}

	for typeName, fields := range types {
		typedFields := make([]apitypes.Type, len(fields))
		for i, field := range fields {
			typedFields[i] = apitypes.Type{
				Name: field.Name,
				Type: field.Type,
			}
		}
		typedData.Types[typeName] = typedFields
	}

	if _, exists := typedData.Types["EIP712Domain"]; !exists {
		typedData.Types["EIP712Domain"] = []apitypes.Type{
			{Name: "name", Type: "string"},
			{Name: "version", Type: "string"},
			{Name: "chainId", Type: "uint256"},
			{Name: "verifyingContract", Type: "address"},
		}
	}

	return typedData
}

// HashTypedData hashes EIP-712 typed data.
//
// The hash is computed as: keccak256("\x19\x01" + domainSeparator + structHash)
// and is what gets signed by the permit owner.
func HashTypedData(
	domain TypedDataDomain,
	types map[string][]TypedDataField,
	primaryType string,
	message map[string]interface{},
) ([]byte, error) {
	typedData := ToAPITypedData(domain, types, primaryType, message)

	dataHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to hash struct: %w", err)
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to hash domain: %w", err)
	}

	// 0x19 0x01 <domainSeparator> <dataHash>
	rawData := []byte{0x19, 0x01}
	rawData = append(rawData, domainSeparator...)
	rawData = append(rawData, dataHash...)
	return crypto.Keccak256(rawData), nil
}

// PermitDomain builds the EIP-712 domain of an EIP-2612 token
func PermitDomain(tokenAddress, tokenName, tokenVersion string, chainID *big.Int) TypedDataDomain {
	return TypedDataDomain{
		Name:              tokenName,
		Version:           tokenVersion,
		ChainID:           chainID,
		VerifyingContract: NormalizeAddress(tokenAddress),
	}
}

// PermitMessage converts a PermitAuthorization into the EIP-712 message map
func PermitMessage(authorization PermitAuthorization) (map[string]interface{}, error) {
	value, err := ParseUint256(authorization.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid permit value: %w", err)
	}
	nonce, err := ParseUint256(authorization.Nonce)
	if err != nil {
		return nil, fmt.Errorf("invalid permit nonce: %w", err)
	}
	deadline, err := ParseUint256(authorization.Deadline)
	if err != nil {
		return nil, fmt.Errorf("invalid permit deadline: %w", err)
	}

	return map[string]interface{}{
		"owner":    common.HexToAddress(authorization.Owner).Hex(),
		"spender":  common.HexToAddress(authorization.Spender).Hex(),
		"value":    value,
		"nonce":    nonce,
		"deadline": deadline,
	}, nil
}

// HashEIP2612Permit hashes a Permit message for an EIP-2612 token
func HashEIP2612Permit(
	authorization PermitAuthorization,
	chainID *big.Int,
	tokenAddress string,
	tokenName string,
	tokenVersion string,
) ([]byte, error) {
	message, err := PermitMessage(authorization)
	if err != nil {
		return nil, err
	}

	domain := PermitDomain(tokenAddress, tokenName, tokenVersion, chainID)
	return HashTypedData(domain, GetEIP2612EIP712Types(), "Permit", message)
}
