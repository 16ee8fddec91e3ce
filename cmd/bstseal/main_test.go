// Copyright 2026 The BSTSEAL Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"

	"github.com/bstseal/bstseal/cmd/bstseal/cli"
)

// TestCommandTreeShape validates the production command tree: every
// leaf has a Run function, every command has a summary for the help
// listing, and no two siblings share a name.
func TestCommandTreeShape(t *testing.T) {
	walkCommands(root(), nil, func(command *cli.Command, path []string) {
		name := ""
		for _, part := range path {
			name += part + " "
		}
		if command.Summary == "" {
			t.Errorf("%s: command has no summary", name)
		}
		if len(command.Subcommands) == 0 && command.Run == nil {
			t.Errorf("%s: leaf command has no Run function", name)
		}

		seen := map[string]bool{}
		for _, sub := range command.Subcommands {
			if seen[sub.Name] {
				t.Errorf("%s: duplicate subcommand %q", name, sub.Name)
			}
			seen[sub.Name] = true
		}
	})
}

// walkCommands recursively visits every command in the tree, calling
// visit for each node with the accumulated command path.
func walkCommands(command *cli.Command, path []string, visit func(*cli.Command, []string)) {
	current := make([]string, len(path)+1)
	copy(current, path)
	current[len(path)] = command.Name
	visit(command, current)
	for _, sub := range command.Subcommands {
		walkCommands(sub, current, visit)
	}
}
