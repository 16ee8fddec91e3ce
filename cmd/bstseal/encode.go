// Copyright 2026 The BSTSEAL Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bstseal/bstseal/cmd/bstseal/cli"
	"github.com/bstseal/bstseal/lib/seal"
)

// sealedSuffix is the conventional extension for sealed files.
const sealedSuffix = ".bss"

func encodeCommand() *cli.Command {
	var outputPath string
	return &cli.Command{
		Name:    "encode",
		Summary: "Seal a file",
		Usage:   "bstseal encode <input> [-o output]",
		Description: `Compress a file and seal it with an integrity digest.

The output defaults to the input path with a ".bss" suffix.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("encode", pflag.ContinueOnError)
			flagSet.StringVarP(&outputPath, "output", "o", "", "output path (default: <input>.bss)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("encode takes exactly one input file, got %d", len(args))
			}
			inputPath := args[0]
			if outputPath == "" {
				outputPath = inputPath + sealedSuffix
			}

			data, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("reading %s: %w", inputPath, err)
			}
			sealed, err := seal.Seal(data)
			if err != nil {
				return fmt.Errorf("sealing %s: %w", inputPath, err)
			}
			if err := os.WriteFile(outputPath, sealed, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", outputPath, err)
			}

			logger := cli.NewCommandLogger().With("command", "encode")
			logger.Info("sealed",
				"input", inputPath,
				"output", outputPath,
				"original_bytes", len(data),
				"sealed_bytes", len(sealed))
			return nil
		},
		Examples: []cli.Example{
			{Command: "bstseal encode model.bin"},
			{Command: "bstseal encode model.bin -o snapshots/model.bss"},
		},
	}
}

func decodeCommand() *cli.Command {
	var outputPath string
	return &cli.Command{
		Name:    "decode",
		Summary: "Verify and unseal a file",
		Usage:   "bstseal decode <input> [-o output]",
		Description: `Verify a sealed file's integrity digest and restore the original
bytes. Corrupt or truncated inputs fail without writing anything.

The output defaults to the input path with its ".bss" suffix removed.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("decode", pflag.ContinueOnError)
			flagSet.StringVarP(&outputPath, "output", "o", "", "output path (default: <input> without .bss)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("decode takes exactly one input file, got %d", len(args))
			}
			inputPath := args[0]
			if outputPath == "" {
				if !strings.HasSuffix(inputPath, sealedSuffix) {
					return fmt.Errorf("input %s has no %s suffix; use -o to name the output", inputPath, sealedSuffix)
				}
				outputPath = strings.TrimSuffix(inputPath, sealedSuffix)
			}

			sealed, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("reading %s: %w", inputPath, err)
			}
			data, err := seal.Unseal(sealed)
			if err != nil {
				return fmt.Errorf("unsealing %s: %w", inputPath, err)
			}
			if err := os.WriteFile(outputPath, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", outputPath, err)
			}

			logger := cli.NewCommandLogger().With("command", "decode")
			logger.Info("unsealed",
				"input", inputPath,
				"output", outputPath,
				"bytes", len(data))
			return nil
		},
		Examples: []cli.Example{
			{Command: "bstseal decode model.bss"},
			{Command: "bstseal decode model.bss -o restored.bin"},
		},
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:    "verify",
		Summary: "Check sealed files without unsealing them",
		Usage:   "bstseal verify <file>...",
		Description: `Check the structure and integrity digest of sealed files without
decompressing their payloads. Prints one line per file and exits
non-zero if any file fails.`,
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("verify takes at least one file")
			}

			failed := 0
			for _, path := range args {
				sealed, err := os.ReadFile(path)
				if err == nil {
					err = seal.Verify(sealed)
				}
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s: FAILED: %v\n", path, err)
					failed++
					continue
				}
				fmt.Printf("%s: OK\n", path)
			}
			if failed > 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
		Examples: []cli.Example{
			{Command: "bstseal verify model.bss"},
			{Command: "bstseal verify snapshots/*.bss"},
		},
	}
}
