// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// mectl inspects matching engine messages and accounts offline.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	return &cli.App{
		Name:                 "mectl",
		Usage:                "Inspect fast transfer messages and matching engine accounts",
		Version:              "1.0.0",
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			digestCmd,
			orderCmd,
			custodyCmd,
			configCmd,
		},
	}
}

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n\n", err) // nolint:errcheck
		os.Exit(1)
	}
}
