// Copyright 2026 The BSTSEAL Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"encode", "encdoe", 2},
		{"pack", "pakc", 2},
		{"list", "lst", 1},
		{"verify", "verfy", 1},
		{"cat", "unpack", 5},
	}

	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{
		{Name: "encode"},
		{Name: "decode"},
		{Name: "verify"},
		{Name: "pack"},
		{Name: "unpack"},
	}

	tests := []struct {
		input string
		want  string
	}{
		{"encdoe", "encode"},
		{"pakc", "pack"},
		{"verfy", "verify"},
		{"completely-wrong", ""},
	}

	for _, tt := range tests {
		if got := suggestCommand(tt.input, commands); got != tt.want {
			t.Errorf("suggestCommand(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSuggestFlag(t *testing.T) {
	makeFlags := func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flagSet.String("output", "", "output path")
		flagSet.Bool("json", false, "JSON output")
		flagSet.BoolP("force", "f", false, "force")
		flagSet.Bool("v", false, "verbose")
		return flagSet
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"close typo", []string{"--ouput", "x"}, "--output"},
		{"typo with value", []string{"--jsno=true"}, "--json"},
		{"short flag", []string{"-w"}, "-v"},
		{"defined flag skipped", []string{"--json", "--ouput"}, "--output"},
		{"hopeless", []string{"--zzzzzzzzzz"}, ""},
		{"no flags in args", []string{"positional"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := suggestFlag(tt.args, makeFlags()); got != tt.want {
				t.Errorf("suggestFlag(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}
