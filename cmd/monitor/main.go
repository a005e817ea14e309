package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"lnmarkets-api/internal/cli"
	"lnmarkets-api/internal/config"
	"lnmarkets-api/pkg/journal"
	"lnmarkets-api/pkg/market"

	// Import for side-effects: registers exchange and market providers
	_ "lnmarkets-api/pkg/exchange/lnmarkets"
	_ "lnmarkets-api/pkg/exchange/sim"
	_ "lnmarkets-api/pkg/market/exchanges/lnmarkets"
)

const apiTimeout = 10 * time.Second // Timeout for individual API calls

var (
	configFile = flag.String("f", "etc/lnmarkets.yaml", "the config file")
	once       = flag.Bool("once", false, "report once and exit")
)

func main() {
	flag.Parse()

	appCfg := config.MustLoad(*configFile)
	logx.MustSetup(appCfg.Log)
	defer logx.Close()
	cli.LogConfigSummary(appCfg)

	exchangeCfg, err := appCfg.ExchangeConfig()
	if err != nil {
		logx.Must(err)
	}
	account, name, err := exchangeCfg.DefaultProvider()
	if err != nil {
		logx.Must(err)
	}
	logx.Infof("monitor: exchange provider %s", name)

	var quotes market.Provider
	if marketCfg, err := appCfg.MarketConfig(); err != nil {
		logx.Errorf("monitor: market data disabled: %v", err)
	} else if quotes, _, err = marketCfg.DefaultProvider(); err != nil {
		logx.Errorf("monitor: market data disabled: %v", err)
	}

	m := &monitor{
		account:     account,
		quotes:      quotes,
		symbol:      appCfg.Monitor.Symbol,
		marginAlert: appCfg.Monitor.MarginAlert,
		name:        name,
	}
	if dir := appCfg.Monitor.JournalDir; dir != "" {
		w, err := journal.NewWriter(dir)
		if err != nil {
			logx.Must(err)
		}
		m.journal = w
		logx.Infof("monitor: journaling reports to %s", w.Dir())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		m.report(ctx)
		return
	}
	m.run(ctx, appCfg.Monitor.Interval)
	logx.Info("monitor: stopped")
}
