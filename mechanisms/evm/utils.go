package evm

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// MaxUint256 returns 2^256 - 1
func MaxUint256() *big.Int {
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
}

// IsValidAddress reports whether address is a 0x-prefixed 20-byte hex string
func IsValidAddress(address string) bool {
	if !strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X") {
		return false
	}
	return common.IsHexAddress(address)
}

// NormalizeAddress returns the EIP-55 checksummed form of address
func NormalizeAddress(address string) string {
	return common.HexToAddress(address).Hex()
}

// HexToBytes decodes a hex string with or without the 0x prefix
func HexToBytes(hexStr string) ([]byte, error) {
	hexStr = strings.TrimPrefix(strings.TrimPrefix(hexStr, "0x"), "0X")
	if len(hexStr)%2 != 0 {
		hexStr = "0" + hexStr
	}
	return hex.DecodeString(hexStr)
}

// BytesToHex encodes bytes as a 0x-prefixed lowercase hex string
func BytesToHex(data []byte) string {
	return "0x" + hex.EncodeToString(data)
}

// ParseUint256 parses a decimal string into a non-negative 256-bit integer
func ParseUint256(value string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer: %q", value)
	}
	if n.Sign() < 0 || n.Cmp(MaxUint256()) > 0 {
		return nil, fmt.Errorf("integer out of uint256 range: %s", value)
	}
	return n, nil
}

// SplitSignature splits a 65-byte (r, s, v) signature into its parts.
// v is normalized to 27/28 when given as a 0/1 recovery ID.
func SplitSignature(signature []byte) (v uint8, r [32]byte, s [32]byte, err error) {
	if len(signature) != 65 {
		return 0, r, s, fmt.Errorf("invalid signature length: expected 65 bytes, got %d", len(signature))
	}
	copy(r[:], signature[:32])
	copy(s[:], signature[32:64])
	v = signature[64]
	if v < 27 {
		v += 27
	}
	if v != 27 && v != 28 {
		return 0, r, s, fmt.Errorf("invalid signature recovery byte: %d", signature[64])
	}
	return v, r, s, nil
}
