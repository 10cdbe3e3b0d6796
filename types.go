package claimhooks

import (
	"fmt"
	"strconv"
)

// AppDataVersion is the AppData schema version emitted by this package
const AppDataVersion = "1.3.0"

// HooksVersion is the version of the hooks metadata section
const HooksVersion = "0.1.0"

// DefaultAppCode identifies documents produced by this tool
const DefaultAppCode = "withdrawal-claim-hooks"

// Hook is a single external call executed around an order settlement
type Hook struct {
	Target   string `json:"target"`   // Contract address (checksummed hex)
	CallData string `json:"callData"` // ABI-encoded call, 0x-prefixed hex
	GasLimit string `json:"gasLimit"` // Decimal string
}

// NewHook creates a hook with a numeric gas limit
func NewHook(target string, callData string, gasLimit uint64) Hook {
	return Hook{
		Target:   target,
		CallData: callData,
		GasLimit: strconv.FormatUint(gasLimit, 10),
	}
}

// Validate checks the hook's fields are well formed
func (h Hook) Validate() error {
	if h.Target == "" {
		return fmt.Errorf("hook target is empty")
	}
	if len(h.CallData) < 2 || h.CallData[:2] != "0x" {
		return fmt.Errorf("hook callData must be 0x-prefixed hex: %q", h.CallData)
	}
	if _, err := strconv.ParseUint(h.GasLimit, 10, 64); err != nil {
		return fmt.Errorf("hook gasLimit must be a decimal integer: %q", h.GasLimit)
	}
	return nil
}

// HookPosition selects which hook list a builder contributes to
type HookPosition string

const (
	// HookPre runs before the settlement pulls the sell token
	HookPre HookPosition = "pre"
	// HookPost runs after the buy token has been delivered
	HookPost HookPosition = "post"
)

// OrderHooks is the hooks section of the AppData metadata
type OrderHooks struct {
	Version string `json:"version"`
	Pre     []Hook `json:"pre"`
	Post    []Hook `json:"post"`
}

// Metadata is the metadata section of an AppData document
type Metadata struct {
	Hooks *OrderHooks `json:"hooks,omitempty"`
}

// AppDataDocument is the JSON metadata document referenced by an order
type AppDataDocument struct {
	AppCode     string   `json:"appCode,omitempty"`
	Environment string   `json:"environment,omitempty"`
	Metadata    Metadata `json:"metadata"`
	Version     string   `json:"version"`
}

// AppData is a serialized document together with its content hash
type AppData struct {
	Hash string `json:"appDataHash"` // 0x-prefixed keccak256 of Data
	Data string `json:"fullAppData"` // Serialized AppDataDocument
}
