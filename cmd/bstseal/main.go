// Copyright 2026 The BSTSEAL Authors
// SPDX-License-Identifier: Apache-2.0

// Command bstseal is the command-line interface to the BSTSEAL sealing
// engine: seal and unseal single files, verify sealed files, and work
// with multi-file archives.
package main

import (
	"fmt"
	"os"

	"github.com/bstseal/bstseal/cmd/bstseal/cli"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own output (like verify) return an
		// ExitError with the desired exit code. Don't print a redundant
		// "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return root().Execute(os.Args[1:])
}

func root() *cli.Command {
	return &cli.Command{
		Name:    "bstseal",
		Summary: "Seal, unseal, and archive compressed data",
		Description: `bstseal compresses data and frames it as sealed buffers:
self-describing containers with a BLAKE3 integrity digest that detect
corruption before any byte reaches the consumer.`,
		Subcommands: []*cli.Command{
			encodeCommand(),
			decodeCommand(),
			verifyCommand(),
			packCommand(),
			unpackCommand(),
			listCommand(),
			catCommand(),
			versionCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Seal a file",
				Command:     "bstseal encode model.bin -o model.bss",
			},
			{
				Description: "Verify sealed files without unsealing them",
				Command:     "bstseal verify *.bss",
			},
			{
				Description: "Pack a directory into a sealed archive",
				Command:     "bstseal pack docs.bsa docs/",
			},
		},
	}
}
