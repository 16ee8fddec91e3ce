// Copyright 2026 The BSTSEAL Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bstseal/bstseal/cmd/bstseal/cli"
	"github.com/bstseal/bstseal/lib/version"
)

func versionCommand() *cli.Command {
	var full bool
	return &cli.Command{
		Name:    "version",
		Summary: "Print build version information",
		Usage:   "bstseal version [--full]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("version", pflag.ContinueOnError)
			flagSet.BoolVar(&full, "full", false, "include Go version and platform")
			return flagSet
		},
		Run: func(args []string) error {
			if full {
				fmt.Println(version.Full())
			} else {
				fmt.Println(version.Info())
			}
			return nil
		},
	}
}
