package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/zeromicro/go-zero/core/logx"

	"lnmarkets-api/internal/config"
	"lnmarkets-api/pkg/exchange"
)

// rootConfig carries persistent flags and the provider resolver shared by
// every subcommand.
type rootConfig struct {
	ConfigFile string
	Provider   string
	Verbose    bool

	// resolve builds the exchange provider; replaced in tests.
	resolve func(rc *rootConfig) (exchange.Provider, error)
}

func (rc *rootConfig) provider() (exchange.Provider, error) {
	if rc.resolve != nil {
		return rc.resolve(rc)
	}
	return loadProvider(rc)
}

func loadProvider(rc *rootConfig) (exchange.Provider, error) {
	appCfg, err := config.Load(rc.ConfigFile)
	if err != nil {
		return nil, err
	}
	exCfg, err := appCfg.ExchangeConfig()
	if err != nil {
		return nil, err
	}
	if rc.Provider == "" {
		provider, _, err := exCfg.DefaultProvider()
		return provider, err
	}
	providers, err := exCfg.BuildProviders()
	if err != nil {
		return nil, err
	}
	provider, ok := providers[rc.Provider]
	if !ok {
		return nil, fmt.Errorf("exchange provider %q not configured", rc.Provider)
	}
	return provider, nil
}

func newRootCmd(rc *rootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "lnmctl",
		Short:         "Manage LN Markets futures positions from the command line",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !rc.Verbose {
				logx.SetLevel(logx.ErrorLevel)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&rc.ConfigFile, "config", "f", "etc/lnmarkets.yaml", "application config file")
	cmd.PersistentFlags().StringVarP(&rc.Provider, "provider", "p", "", "exchange provider name (default from config)")
	cmd.PersistentFlags().BoolVarP(&rc.Verbose, "verbose", "v", false, "log requests")

	cmd.AddCommand(
		newListCmd(rc),
		newOpenCmd(rc),
		newUpdateCmd(rc),
		newCloseCmd(rc),
		newCloseSideCmd(rc, "close-longs", exchange.OrderSideBuy),
		newCloseSideCmd(rc, "close-shorts", exchange.OrderSideSell),
		newCloseAllCmd(rc),
		newAmountCmd(rc, "add-margin", "Add collateral (satoshis) to a running position"),
		newAmountCmd(rc, "cash-in", "Withdraw profit (satoshis) from a running position"),
		newCancelCmd(rc),
		newPLCmd(rc),
	)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
