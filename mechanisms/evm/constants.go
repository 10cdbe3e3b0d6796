package evm

import (
	"math/big"
)

const (
	// Gnosis beacon-chain deposit contract. Withdrawals of validator balances
	// accumulate here until claimWithdrawal is called for the address.
	DepositContractAddress = "0x0B98057eA310F4d31F2a452B414647007d1645d9"

	// GNO token on Gnosis Chain
	GNOTokenAddress = "0x9C58BAcC331c9aa871AFD802DB6379a98e80CEdb"

	// CoW Protocol GPv2VaultRelayer. Same address on every supported chain.
	VaultRelayerAddress = "0xC92E8bdf79f0507f65a392b0ab4667716BFE0110"

	// ClaimWithdrawalGasLimit is the gas limit attached to the claim hook.
	// claimWithdrawal has a bounded execution path so no estimate is needed.
	ClaimWithdrawalGasLimit = 82264

	// DefaultPermitVersion is used as the EIP-712 domain version for tokens
	// that do not expose version().
	DefaultPermitVersion = "1"

	// Default validity period for permits (1 hour)
	DefaultValidityPeriod = 3600 // seconds

	// Function names
	FunctionPermit          = "permit"
	FunctionNonces          = "nonces"
	FunctionName            = "name"
	FunctionVersion         = "version"
	FunctionClaimWithdrawal = "claimWithdrawal"
)

var (
	// ChainIDGnosis is the chain ID of Gnosis Chain
	ChainIDGnosis = big.NewInt(100)

	// EIP2612NoncesABI for reading the permit nonce of an owner
	EIP2612NoncesABI = []byte(`[
		{
			"inputs": [
				{"name": "owner", "type": "address"}
			],
			"name": "nonces",
			"outputs": [{"name": "", "type": "uint256"}],
			"stateMutability": "view",
			"type": "function"
		}
	]`)

	// ERC20NameABI for reading the token name used in the EIP-712 domain
	ERC20NameABI = []byte(`[
		{
			"inputs": [],
			"name": "name",
			"outputs": [{"name": "", "type": "string"}],
			"stateMutability": "view",
			"type": "function"
		}
	]`)

	// EIP712VersionABI for reading the EIP-712 domain version of a token
	EIP712VersionABI = []byte(`[
		{
			"inputs": [],
			"name": "version",
			"outputs": [{"name": "", "type": "string"}],
			"stateMutability": "view",
			"type": "function"
		}
	]`)

	// EIP2612PermitABI for permit with split v,r,s signature
	EIP2612PermitABI = []byte(`[
		{
			"inputs": [
				{"name": "owner", "type": "address"},
				{"name": "spender", "type": "address"},
				{"name": "value", "type": "uint256"},
				{"name": "deadline", "type": "uint256"},
				{"name": "v", "type": "uint8"},
				{"name": "r", "type": "bytes32"},
				{"name": "s", "type": "bytes32"}
			],
			"name": "permit",
			"outputs": [],
			"stateMutability": "nonpayable",
			"type": "function"
		}
	]`)

	// ClaimWithdrawalABI for the deposit contract's claimWithdrawal
	ClaimWithdrawalABI = []byte(`[
		{
			"inputs": [
				{"name": "_address", "type": "address"}
			],
			"name": "claimWithdrawal",
			"outputs": [],
			"stateMutability": "nonpayable",
			"type": "function"
		}
	]`)

	// EIP712DomainTypes is the standard four-field domain used by EIP-2612 tokens.
	EIP712DomainTypes = []TypedDataField{
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	}

	// EIP2612PermitTypes defines the EIP-712 Permit struct.
	// Field order MUST match the token contract's PERMIT_TYPEHASH.
	EIP2612PermitTypes = []TypedDataField{
		{Name: "owner", Type: "address"},
		{Name: "spender", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "deadline", Type: "uint256"},
	}
)

// GetEIP2612EIP712Types returns the complete EIP-712 types map for permit signing.
func GetEIP2612EIP712Types() map[string][]TypedDataField {
	return map[string][]TypedDataField{
		"EIP712Domain": EIP712DomainTypes,
		"Permit":       EIP2612PermitTypes,
	}
}
