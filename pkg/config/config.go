// Package config loads the tool's settings from a .env file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	claimhooks "github.com/cowhooks/claimhooks"
	hookshttp "github.com/cowhooks/claimhooks/http"
	"github.com/cowhooks/claimhooks/mechanisms/evm"
)

// Keys. Each maps to the upper-cased environment variable (rpc_url -> RPC_URL).
const (
	KeyRPCURL            = "rpc_url"
	KeyWithdrawalAddress = "withdrawal_address"
	KeyPrivateKey        = "private_key"
	KeyTokenAddress      = "token_address"
	KeySpenderAddress    = "spender_address"
	KeyPermitAmount      = "permit_amount"
	KeyPermitDeadline    = "permit_deadline"
	KeyChainID           = "chain_id"
	KeyRegistryURL       = "registry_url"
	KeyAppCode           = "app_code"
	KeyEnvironment       = "environment"
	KeyLogLevel          = "log_level"
	KeyTimeout           = "timeout"
	KeyDryRun            = "dry_run"
)

// DefaultRPCURL is the public Gnosis Chain RPC endpoint
const DefaultRPCURL = "https://rpc.gnosischain.com"

var (
	ErrMissingWithdrawalAddress = errors.New("WITHDRAWAL_ADDRESS is required")
	ErrInvalidWithdrawalAddress = errors.New("WITHDRAWAL_ADDRESS is not a valid address")
	ErrMissingPrivateKey        = errors.New("PRIVATE_KEY is required")
)

// Config holds every setting of a run
type Config struct {
	RPCURL            string
	WithdrawalAddress string
	PrivateKey        string

	TokenAddress   string
	SpenderAddress string
	PermitAmount   string
	PermitDeadline string
	ChainID        int64 // 0 means ask the RPC endpoint

	RegistryURL string
	AppCode     string
	Environment string

	LogLevel string
	Timeout  time.Duration
	DryRun   bool
}

// LoadDotEnv loads .env files into the process environment if they exist.
// Variables already set are not overridden.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load %s: %w", strings.Join(existing, ", "), err)
	}
	return nil
}

// NewViper returns a viper instance with defaults and environment binding
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyRPCURL, DefaultRPCURL)
	v.SetDefault(KeyTokenAddress, evm.GNOTokenAddress)
	v.SetDefault(KeySpenderAddress, evm.VaultRelayerAddress)
	v.SetDefault(KeyPermitAmount, evm.MaxUint256().String())
	v.SetDefault(KeyRegistryURL, hookshttp.DefaultRegistryURL)
	v.SetDefault(KeyAppCode, claimhooks.DefaultAppCode)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyTimeout, hookshttp.DefaultTimeout)
	v.AutomaticEnv()
	return v
}

// Load reads and validates the configuration. The withdrawal address is
// checked first so a missing one fails before anything else happens.
func Load(v *viper.Viper, now func() time.Time) (*Config, error) {
	if now == nil {
		now = time.Now
	}

	withdrawal := strings.TrimSpace(v.GetString(KeyWithdrawalAddress))
	if withdrawal == "" {
		return nil, ErrMissingWithdrawalAddress
	}
	if !evm.IsValidAddress(withdrawal) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWithdrawalAddress, withdrawal)
	}

	privateKey := strings.TrimSpace(v.GetString(KeyPrivateKey))
	if privateKey == "" {
		return nil, ErrMissingPrivateKey
	}

	cfg := &Config{
		RPCURL:            v.GetString(KeyRPCURL),
		WithdrawalAddress: evm.NormalizeAddress(withdrawal),
		PrivateKey:        privateKey,
		TokenAddress:      v.GetString(KeyTokenAddress),
		SpenderAddress:    v.GetString(KeySpenderAddress),
		PermitAmount:      v.GetString(KeyPermitAmount),
		PermitDeadline:    v.GetString(KeyPermitDeadline),
		ChainID:           v.GetInt64(KeyChainID),
		RegistryURL:       v.GetString(KeyRegistryURL),
		AppCode:           v.GetString(KeyAppCode),
		Environment:       v.GetString(KeyEnvironment),
		LogLevel:          v.GetString(KeyLogLevel),
		Timeout:           v.GetDuration(KeyTimeout),
		DryRun:            v.GetBool(KeyDryRun),
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("RPC_URL is empty")
	}
	if !evm.IsValidAddress(cfg.TokenAddress) {
		return nil, fmt.Errorf("TOKEN_ADDRESS is not a valid address: %q", cfg.TokenAddress)
	}
	if !evm.IsValidAddress(cfg.SpenderAddress) {
		return nil, fmt.Errorf("SPENDER_ADDRESS is not a valid address: %q", cfg.SpenderAddress)
	}
	if _, err := evm.ParseUint256(cfg.PermitAmount); err != nil {
		return nil, fmt.Errorf("PERMIT_AMOUNT: %w", err)
	}

	if cfg.PermitDeadline == "" {
		cfg.PermitDeadline = strconv.FormatInt(now().Unix()+evm.DefaultValidityPeriod, 10)
	} else if _, err := evm.ParseUint256(cfg.PermitDeadline); err != nil {
		return nil, fmt.Errorf("PERMIT_DEADLINE: %w", err)
	}

	if cfg.ChainID < 0 {
		return nil, fmt.Errorf("CHAIN_ID must not be negative: %d", cfg.ChainID)
	}

	return cfg, nil
}
