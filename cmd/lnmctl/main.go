package main

import (
	"os"

	// Import for side-effects: registers the lnmarkets and sim exchange providers
	_ "lnmarkets-api/pkg/exchange/lnmarkets"
	_ "lnmarkets-api/pkg/exchange/sim"
)

func main() {
	if err := newRootCmd(&rootConfig{}).Execute(); err != nil {
		os.Exit(1)
	}
}
