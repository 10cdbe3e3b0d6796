package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	claimhooks "github.com/cowhooks/claimhooks"
	hookshttp "github.com/cowhooks/claimhooks/http"
	"github.com/cowhooks/claimhooks/mechanisms/evm/claim"
	"github.com/cowhooks/claimhooks/mechanisms/evm/permit"
	"github.com/cowhooks/claimhooks/pkg/appdataschema"
	"github.com/cowhooks/claimhooks/pkg/config"
	"github.com/cowhooks/claimhooks/pkg/logging"
	signersevm "github.com/cowhooks/claimhooks/signers/evm"
)

// dialFunc connects to the JSON-RPC endpoint. The returned func releases it.
type dialFunc func(ctx context.Context, rpcURL string) (signersevm.RPCBackend, func(), error)

func dialRPC(ctx context.Context, rpcURL string) (signersevm.RPCBackend, func(), error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", rpcURL, err)
	}
	return client, client.Close, nil
}

func (c *cli) publishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Build the hooks and upload the AppData document (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPublish(cmd.Context(), false)
		},
	}
	cmd.Flags().Bool("dry-run", false, "build and print without uploading (env DRY_RUN)")
	_ = c.v.BindPFlag(config.KeyDryRun, cmd.Flags().Lookup("dry-run"))
	return cmd
}

func (c *cli) buildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the hooks and print the AppData document without uploading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPublish(cmd.Context(), true)
		},
	}
}

func (c *cli) hashCmd() *cobra.Command {
	var canonical bool
	cmd := &cobra.Command{
		Use:   "hash [file|-]",
		Short: "Print the content hash of a serialized AppData document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer f.Close()
				r = f
			}

			raw, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("failed to read app data: %w", err)
			}

			data := strings.TrimRight(string(raw), "\r\n")
			if canonical {
				data, err = claimhooks.CanonicalizeJSON([]byte(data))
				if err != nil {
					return err
				}
			}

			fmt.Fprintln(c.out, claimhooks.ComputeAppDataHash(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&canonical, "canonical", false, "re-serialize with sorted keys before hashing")
	return cmd
}

func (c *cli) fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <hash>",
		Short: "Download an AppData document from the registry and check its hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash := strings.ToLower(args[0])

			registry := hookshttp.NewRegistryClient(&hookshttp.RegistryConfig{
				URL:     c.v.GetString(config.KeyRegistryURL),
				Timeout: c.v.GetDuration(config.KeyTimeout),
			})

			data, err := registry.GetAppData(cmd.Context(), hash)
			if err != nil {
				return err
			}

			fmt.Fprintln(c.out, data)

			if got := claimhooks.ComputeAppDataHash(data); got != hash {
				return fmt.Errorf("registry document hashes to %s, expected %s", got, hash)
			}
			return nil
		},
	}
}

// runPublish loads configuration, wires the pipeline and runs it. With
// buildOnly the document is printed and never uploaded.
func (c *cli) runPublish(ctx context.Context, buildOnly bool) error {
	// Configuration is validated before any connection is made
	cfg, err := config.Load(c.v, c.now)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger, _ = logging.WithCorrelationID(logger)

	pipeline, release, err := c.newPipeline(ctx, cfg, logger, cfg.DryRun)
	if err != nil {
		return err
	}
	defer release()

	if buildOnly {
		_, appData, err := pipeline.Build(ctx)
		if err != nil {
			return err
		}
		return c.printAppData(appData)
	}

	result, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}
	return c.printAppData(result.AppData)
}

func (c *cli) newPipeline(ctx context.Context, cfg *config.Config, logger *zap.Logger, dryRun bool) (*claimhooks.Pipeline, func(), error) {
	backend, release, err := c.dial(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, err
	}

	signer, err := signersevm.NewHookSignerFromPrivateKey(cfg.PrivateKey, backend)
	if err != nil {
		release()
		return nil, nil, err
	}

	validator, err := appdataschema.New()
	if err != nil {
		release()
		return nil, nil, err
	}

	var chainID *big.Int
	if cfg.ChainID > 0 {
		chainID = big.NewInt(cfg.ChainID)
	}

	registry := hookshttp.NewRegistryClient(&hookshttp.RegistryConfig{
		URL:     cfg.RegistryURL,
		Timeout: cfg.Timeout,
	})

	logger.Info("building hooks",
		zap.String("signer", signer.Address()),
		zap.String("withdrawal_address", cfg.WithdrawalAddress),
		zap.String("token", cfg.TokenAddress),
		zap.String("registry", registry.URL()),
	)

	pipeline := claimhooks.NewPipeline(
		claimhooks.WithLogger(logger),
		claimhooks.WithAppCode(cfg.AppCode),
		claimhooks.WithDocumentEnvironment(cfg.Environment),
		claimhooks.WithValidator(validator),
		claimhooks.WithPublisher(registry),
		claimhooks.WithDryRun(dryRun),
		claimhooks.WithHook(claimhooks.HookPre, claim.NewHookBuilder(cfg.WithdrawalAddress)),
		claimhooks.WithHook(claimhooks.HookPre, permit.NewHookBuilder(signer, permit.Params{
			TokenAddress: cfg.TokenAddress,
			Spender:      cfg.SpenderAddress,
			Value:        cfg.PermitAmount,
			Deadline:     cfg.PermitDeadline,
			ChainID:      chainID,
		})),
	)

	return pipeline, release, nil
}

func (c *cli) printAppData(appData claimhooks.AppData) error {
	out, err := json.MarshalIndent(appData, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal app data: %w", err)
	}
	fmt.Fprintln(c.out, string(out))
	return nil
}
