package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cowhooks/claimhooks/pkg/config"
)

// cli carries the state shared by every command
type cli struct {
	v       *viper.Viper
	envFile string
	out     io.Writer
	errOut  io.Writer
	now     func() time.Time

	// dial is swapped in tests to avoid a real RPC endpoint
	dial dialFunc
}

func newCLI(out, errOut io.Writer) *cli {
	return &cli{
		v:      config.NewViper(),
		out:    out,
		errOut: errOut,
		now:    time.Now,
		dial:   dialRPC,
	}
}

// flagBinding maps a persistent flag to its configuration key
type flagBinding struct {
	flag  string
	key   string
	usage string
}

var persistentFlags = []flagBinding{
	{"rpc-url", config.KeyRPCURL, "JSON-RPC endpoint (env RPC_URL)"},
	{"withdrawal-address", config.KeyWithdrawalAddress, "address whose withdrawals are claimed (env WITHDRAWAL_ADDRESS)"},
	{"token", config.KeyTokenAddress, "token the permit is signed for (env TOKEN_ADDRESS)"},
	{"spender", config.KeySpenderAddress, "permit spender (env SPENDER_ADDRESS)"},
	{"amount", config.KeyPermitAmount, "permit value in the token's smallest unit (env PERMIT_AMOUNT)"},
	{"deadline", config.KeyPermitDeadline, "permit deadline as unix seconds (env PERMIT_DEADLINE)"},
	{"chain-id", config.KeyChainID, "chain ID for the permit domain, queried when unset (env CHAIN_ID)"},
	{"registry-url", config.KeyRegistryURL, "order book API base URL (env REGISTRY_URL)"},
	{"app-code", config.KeyAppCode, "appCode of the document (env APP_CODE)"},
	{"environment", config.KeyEnvironment, "environment of the document (env ENVIRONMENT)"},
	{"log-level", config.KeyLogLevel, "debug, info, warn or error (env LOG_LEVEL)"},
	{"timeout", config.KeyTimeout, "registry request timeout (env TIMEOUT)"},
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "claimhooks",
		Short: "Build and publish withdrawal-claim order hooks",
		Long: `claimhooks signs an EIP-2612 permit, encodes a claimWithdrawal call for the
Gnosis beacon-chain deposit contract, packages both as order pre-hooks in an
AppData document and uploads it to the order book registry under its hash.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(c.envFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPublish(cmd.Context(), false)
		},
	}
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	for _, fb := range persistentFlags {
		root.PersistentFlags().String(fb.flag, "", fb.usage)
		// Lookup cannot fail for a flag registered on the previous line
		_ = c.v.BindPFlag(fb.key, root.PersistentFlags().Lookup(fb.flag))
	}

	root.AddCommand(
		c.publishCmd(),
		c.buildCmd(),
		c.hashCmd(),
		c.fetchCmd(),
	)
	return root
}

// Execute runs the command line and exits 1 on error
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := newCLI(os.Stdout, os.Stderr)
	if err := c.rootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
