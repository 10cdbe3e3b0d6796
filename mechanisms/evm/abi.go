package evm

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// PackCall ABI-encodes a call to functionName, selector included
func PackCall(abiBytes []byte, functionName string, args ...interface{}) ([]byte, error) {
	contractABI, err := abi.JSON(bytes.NewReader(abiBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	data, err := contractABI.Pack(functionName, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", functionName, err)
	}
	return data, nil
}

// UnpackCall decodes calldata produced by PackCall back into its arguments.
// The selector must match functionName.
func UnpackCall(abiBytes []byte, functionName string, data []byte) ([]interface{}, error) {
	contractABI, err := abi.JSON(bytes.NewReader(abiBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	method, ok := contractABI.Methods[functionName]
	if !ok {
		return nil, fmt.Errorf("function %s not found in ABI", functionName)
	}
	if len(data) < 4 || !bytes.Equal(data[:4], method.ID) {
		return nil, fmt.Errorf("calldata does not start with the %s selector", functionName)
	}

	return method.Inputs.Unpack(data[4:])
}
