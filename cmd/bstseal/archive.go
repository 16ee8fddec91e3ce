// Copyright 2026 The BSTSEAL Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bstseal/bstseal/cmd/bstseal/cli"
	"github.com/bstseal/bstseal/lib/archive"
)

func packCommand() *cli.Command {
	return &cli.Command{
		Name:    "pack",
		Summary: "Pack files into a sealed archive",
		Usage:   "bstseal pack <output> <input>...",
		Description: `Seal each input file and bundle them into a single archive with a
random-access index. Directories are walked recursively. Packing the
same tree twice produces byte-identical archives.`,
		Run: func(args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("pack takes an output path and at least one input")
			}
			outputPath := args[0]
			inputs := args[1:]

			if err := archive.Pack(outputPath, inputs); err != nil {
				return err
			}

			members, err := archive.List(outputPath)
			if err != nil {
				return err
			}
			logger := cli.NewCommandLogger().With("command", "pack")
			logger.Info("packed", "archive", outputPath, "members", len(members))
			return nil
		},
		Examples: []cli.Example{
			{Command: "bstseal pack docs.bsa docs/"},
			{Command: "bstseal pack bundle.bsa readme.md assets/"},
		},
	}
}

func unpackCommand() *cli.Command {
	var outDir string
	return &cli.Command{
		Name:    "unpack",
		Summary: "Extract every member of an archive",
		Usage:   "bstseal unpack <archive> [-C dir]",
		Description: `Verify and extract every member of an archive into a directory
(default: the current directory). Member paths that would escape the
directory are rejected before anything is written.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("unpack", pflag.ContinueOnError)
			flagSet.StringVarP(&outDir, "directory", "C", ".", "output directory")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("unpack takes exactly one archive, got %d args", len(args))
			}
			if err := archive.Unpack(args[0], outDir); err != nil {
				return err
			}

			logger := cli.NewCommandLogger().With("command", "unpack")
			logger.Info("unpacked", "archive", args[0], "directory", outDir)
			return nil
		},
		Examples: []cli.Example{
			{Command: "bstseal unpack docs.bsa"},
			{Command: "bstseal unpack docs.bsa -C /tmp/restore"},
		},
	}
}

func listCommand() *cli.Command {
	var asJSON bool
	return &cli.Command{
		Name:    "list",
		Summary: "List archive members",
		Usage:   "bstseal list <archive> [--json]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flagSet.BoolVar(&asJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("list takes exactly one archive, got %d args", len(args))
			}
			members, err := archive.List(args[0])
			if err != nil {
				return err
			}

			if asJSON {
				type memberJSON struct {
					Path         string `json:"path"`
					Size         uint64 `json:"size"`
					OriginalSize uint64 `json:"original_size"`
				}
				out := make([]memberJSON, len(members))
				for i, member := range members {
					out[i] = memberJSON{
						Path:         member.Path,
						Size:         member.Size,
						OriginalSize: member.OriginalSize,
					}
				}
				return cli.WriteJSON(out)
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(tw, "SEALED\tORIGINAL\tPATH\n")
			for _, member := range members {
				fmt.Fprintf(tw, "%d\t%d\t%s\n", member.Size, member.OriginalSize, member.Path)
			}
			return tw.Flush()
		},
		Examples: []cli.Example{
			{Command: "bstseal list docs.bsa"},
			{Command: "bstseal list docs.bsa --json"},
		},
	}
}

func catCommand() *cli.Command {
	var force bool
	return &cli.Command{
		Name:    "cat",
		Summary: "Write one archive member to stdout",
		Usage:   "bstseal cat <archive> <path> [--force]",
		Description: `Verify and unseal a single archive member and write its original
bytes to stdout. Refuses to write data containing NUL bytes to a
terminal unless --force is given.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("cat", pflag.ContinueOnError)
			flagSet.BoolVar(&force, "force", false, "write binary data to a terminal")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("cat takes an archive and a member path, got %d args", len(args))
			}
			data, err := archive.Extract(args[0], args[1])
			if err != nil {
				return err
			}

			if !force && term.IsTerminal(int(os.Stdout.Fd())) && looksBinary(data) {
				return fmt.Errorf("%s is binary data; redirect stdout or pass --force", args[1])
			}
			_, err = os.Stdout.Write(data)
			return err
		},
		Examples: []cli.Example{
			{Command: "bstseal cat docs.bsa docs/readme.md"},
			{Command: "bstseal cat bundle.bsa data/blob.bin > blob.bin"},
		},
	}
}

// looksBinary reports whether data contains a NUL byte in its first
// KiB, the same cheap heuristic git uses to classify files.
func looksBinary(data []byte) bool {
	probe := data
	if len(probe) > 1024 {
		probe = probe[:1024]
	}
	for _, b := range probe {
		if b == 0 {
			return true
		}
	}
	return false
}
