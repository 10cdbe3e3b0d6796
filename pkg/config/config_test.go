package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	claimhooks "github.com/cowhooks/claimhooks"
	hookshttp "github.com/cowhooks/claimhooks/http"
	"github.com/cowhooks/claimhooks/mechanisms/evm"
)

const (
	testWithdrawal = "0x857b06519e91e3a54538791bdbb0e22373e36b66"
	testKey        = "0xb71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"
)

func fixedNow() time.Time {
	return time.Unix(1700000000, 0)
}

func TestLoadDefaults(t *testing.T) {
	v := NewViper()
	v.Set(KeyWithdrawalAddress, testWithdrawal)
	v.Set(KeyPrivateKey, testKey)

	cfg, err := Load(v, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "0x857b06519E91e3A54538791bDbb0E22373e36b66", cfg.WithdrawalAddress)
	assert.Equal(t, DefaultRPCURL, cfg.RPCURL)
	assert.Equal(t, evm.GNOTokenAddress, cfg.TokenAddress)
	assert.Equal(t, evm.VaultRelayerAddress, cfg.SpenderAddress)
	assert.Equal(t, evm.MaxUint256().String(), cfg.PermitAmount)
	assert.Equal(t, "1700003600", cfg.PermitDeadline)
	assert.Equal(t, hookshttp.DefaultRegistryURL, cfg.RegistryURL)
	assert.Equal(t, claimhooks.DefaultAppCode, cfg.AppCode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, hookshttp.DefaultTimeout, cfg.Timeout)
	assert.Zero(t, cfg.ChainID)
	assert.False(t, cfg.DryRun)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("WITHDRAWAL_ADDRESS", testWithdrawal)
	t.Setenv("PRIVATE_KEY", testKey)
	t.Setenv("PERMIT_AMOUNT", "1000")
	t.Setenv("PERMIT_DEADLINE", "1800000000")
	t.Setenv("CHAIN_ID", "100")
	t.Setenv("REGISTRY_URL", "http://localhost:8080")
	t.Setenv("TIMEOUT", "5s")
	t.Setenv("DRY_RUN", "true")

	cfg, err := Load(NewViper(), fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "1000", cfg.PermitAmount)
	assert.Equal(t, "1800000000", cfg.PermitDeadline)
	assert.Equal(t, int64(100), cfg.ChainID)
	assert.Equal(t, "http://localhost:8080", cfg.RegistryURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.True(t, cfg.DryRun)
}

func TestLoadWithdrawalAddress(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		v := NewViper()
		v.Set(KeyWithdrawalAddress, "  ")
		// Checked even before the private key
		_, err := Load(v, fixedNow)
		assert.ErrorIs(t, err, ErrMissingWithdrawalAddress)
	})

	t.Run("invalid", func(t *testing.T) {
		v := NewViper()
		v.Set(KeyWithdrawalAddress, "0x1234")
		v.Set(KeyPrivateKey, testKey)
		_, err := Load(v, fixedNow)
		assert.ErrorIs(t, err, ErrInvalidWithdrawalAddress)
	})
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  interface{}
		want error
	}{
		{"missing private key", KeyPrivateKey, "", ErrMissingPrivateKey},
		{"empty rpc url", KeyRPCURL, "", nil},
		{"invalid token", KeyTokenAddress, "gno", nil},
		{"invalid spender", KeySpenderAddress, "0xdead", nil},
		{"invalid amount", KeyPermitAmount, "-1", nil},
		{"invalid deadline", KeyPermitDeadline, "tomorrow", nil},
		{"negative chain id", KeyChainID, -1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewViper()
			v.Set(KeyWithdrawalAddress, testWithdrawal)
			v.Set(KeyPrivateKey, testKey)
			v.Set(tt.key, tt.val)

			_, err := Load(v, fixedNow)
			require.Error(t, err)
			if tt.want != nil {
				assert.True(t, errors.Is(err, tt.want))
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "CLAIMHOOKS_TEST_DOTENV"
	t.Cleanup(func() { os.Unsetenv(key) })

	// Missing files are ignored
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-file\n"), 0o600))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv(key))

	// Existing variables win over the file
	os.Setenv(key, "from-env")
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-env", os.Getenv(key))
}
