package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/alexandr-studio/enigma-ai/internal/logging"
	"github.com/alexandr-studio/enigma-ai/internal/rotorstore"
)

func runPreset(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "preset subcommand required")
		return 2
	}

	switch args[0] {
	case "save":
		return runPresetSave(args[1:])
	case "list":
		return runPresetList(args[1:])
	case "show":
		return runPresetShow(args[1:])
	case "delete":
		return runPresetDelete(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown preset subcommand: %s\n", args[0])
		return 2
	}
}

func runPresetSave(args []string) int {
	fs := pflag.NewFlagSet("preset save", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var cf configFlags
	cf.register(fs)
	description := fs.String("description", "", "free-form description")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "preset save requires exactly one preset name")
		return 2
	}
	if cf.preset != "" {
		fmt.Fprintln(os.Stderr, "preset save takes --rotors, not --preset")
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
		return a.fail("save preset", err)
	}
	if err := cfg.Validate(a.cfg.MaxActiveRotors); err != nil {
		return a.fail("save preset", err)
	}

	p := &rotorstore.Preset{Name: fs.Arg(0), Description: *description, Configuration: cfg}
	if err := a.store.SavePreset(ctx, p); err != nil {
		return a.fail("save preset", err)
	}

	a.emit(logging.AuditEvent{
		EventType: logging.EventPresetSaved,
		Decision:  logging.DecisionAllow,
		Metadata:  map[string]any{"preset": p.Name, "rotors": len(cfg.RotorIDs)},
	})
	fmt.Fprintf(os.Stdout, "saved preset %s\n", p.Name)
	return 0
}

func runPresetList(args []string) int {
	fs := pflag.NewFlagSet("preset list", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "print presets as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, code := openApp()
	if a == nil {
		return code
	}
	defer a.close()

	presets, err := a.store.ListPresets(context.Background())
	if err != nil {
		return a.fail("list presets", err)
	}
	if *asJSON {
		return printJSON(presets)
	}
	if len(presets) == 0 {
		fmt.Fprintln(os.Stdout, "no presets")
		return 0
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tROTORS\tPOSITIONS\tUPDATED")
	for _, p := range presets {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", p.Name, len(p.Configuration.RotorIDs), joinInts(p.Configuration.Positions), p.UpdatedAt.Format(time.RFC3339))
	}
	if err := tw.Flush(); err != nil {
		return a.fail("write output", err)
	}
	return 0
}

func runPresetShow(args []string) int {
	fs := pflag.NewFlagSet("preset show", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "print the preset as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "preset show requires exactly one preset name")
		return 2
	}

	a, code := openApp()
	if a == nil {
		return code
	}
	defer a.close()

	ctx := context.Background()
	p, err := a.store.GetPreset(ctx, fs.Arg(0))
	if err != nil {
		return a.fail("show preset", err)
	}
	if *asJSON {
		return printJSON(p)
	}

	fmt.Fprintf(os.Stdout, "name: %s\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(os.Stdout, "description: %s\n", p.Description)
	}
	fmt.Fprintf(os.Stdout, "updated: %s\n", p.UpdatedAt.Format(time.RFC3339))
	tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\tROTOR\tNAME\tPOSITION")
	for i, id := range p.Configuration.RotorIDs {
		name := "(missing)"
		if def, err := a.store.GetRotor(ctx, id); err == nil {
			name = def.Name
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", i+1, id, name, p.Configuration.Positions[i])
	}
	if err := tw.Flush(); err != nil {
		return a.fail("write output", err)
	}
	return 0
}

func runPresetDelete(args []string) int {
	fs := pflag.NewFlagSet("preset delete", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "preset delete requires exactly one preset name")
		return 2
	}

	a, code := openApp()
	if a == nil {
		return code
	}
	defer a.close()

	name := fs.Arg(0)
	if err := a.store.DeletePreset(context.Background(), name); err != nil {
		return a.fail("delete preset", err)
	}
	a.emit(logging.AuditEvent{
		EventType: logging.EventPresetDeleted,
		Decision:  logging.DecisionAllow,
		Metadata:  map[string]any{"preset": name},
	})
	fmt.Fprintf(os.Stdout, "deleted preset %s\n", name)
	return 0
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
