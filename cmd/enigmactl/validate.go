package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/alexandr-studio/enigma-ai/internal/cipher"
	"github.com/alexandr-studio/enigma-ai/internal/rotorfile"
)

func runValidate(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "validate subcommand required")
		return 2
	}

	switch args[0] {
	case "permutation":
		return runValidatePermutation(args[1:])
	case "config":
		return runValidateConfig(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown validate subcommand: %s\n", args[0])
		return 2
	}
}

// runValidatePermutation checks a permutation file without touching the
// store, so it works before any rotor has been saved.
func runValidatePermutation(args []string) int {
	fs := pflag.NewFlagSet("validate permutation", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	format := fs.String("format", "", "file format: json, yaml or cbor (default: from extension)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "validate permutation requires exactly one file")
		return 2
	}

	path := fs.Arg(0)
	f, err := resolveFormat(*format, path, string(rotorfile.FormatJSON))
	if err != nil {
		fmt.Fprintf(os.Stderr, "validate permutation: %v\n", err)
		return 2
	}
	file, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", path, err)
		return 1
	}
	defer file.Close()

	perm, err := rotorfile.ReadPermutation(file, f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: invalid permutation: %v\n", path, err)
		return exitCode(err)
	}
	fmt.Fprintf(os.Stdout, "%s: valid permutation (fingerprint %s)\n", path, rotorfile.Fingerprint(perm))
	return 0
}

func runValidateConfig(args []string) int {
	fs := pflag.NewFlagSet("validate config", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var cf configFlags
	cf.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, code := openApp()
	if a == nil {
		return code
	}
	defer a.close()

	ctx := context.Background()
	cfg, err := cf.resolve(ctx, a.store)
	if err != nil {
		return a.fail("validate config", err)
	}
	lookup, err := a.store.Lookup(ctx)
	if err != nil {
		return a.fail("validate config", err)
	}
	if _, err := cipher.NewPipeline(cfg, lookup, a.cfg.MaxActiveRotors); err != nil {
		return a.fail("validate config", err)
	}
	fmt.Fprintf(os.Stdout, "configuration valid: %d rotor(s), positions %s\n", len(cfg.RotorIDs), joinInts(cfg.Positions))
	return 0
}
