package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/alexandr-studio/enigma-ai/internal/cipher"
	"github.com/alexandr-studio/enigma-ai/internal/logging"
	"github.com/alexandr-studio/enigma-ai/internal/rotorstore"
)

// configFlags are the flags that select rotors and start positions.
type configFlags struct {
	rotors    string
	positions string
	preset    string
}

func (c *configFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&c.rotors, "rotors", "", "comma-separated rotor ids or names, left to right")
	fs.StringVar(&c.positions, "positions", "", "comma-separated start positions 1-64 (default: 1 for every rotor)")
	fs.StringVar(&c.preset, "preset", "", "use a saved preset instead of --rotors")
}

// resolve turns the flags into a configuration whose rotor ids exist in the
// store. --positions may override a preset's start positions.
func (c *configFlags) resolve(ctx context.Context, store *rotorstore.Store) (cipher.Configuration, error) {
	var cfg cipher.Configuration
	switch {
	case c.preset != "" && c.rotors != "":
		return cfg, usageErrorf("use either --preset or --rotors, not both")
	case c.preset != "":
		p, err := store.GetPreset(ctx, c.preset)
		if err != nil {
			return cfg, err
		}
		cfg = p.Configuration
	case c.rotors != "":
		for _, ref := range splitList(c.rotors) {
			def, err := store.FindRotor(ctx, ref)
			if err != nil {
				if errors.Is(err, rotorstore.ErrNotFound) {
					return cfg, &cipher.UnknownRotorError{ID: ref}
				}
				return cfg, err
			}
			cfg.RotorIDs = append(cfg.RotorIDs, def.ID)
		}
		if len(cfg.RotorIDs) == 0 {
			return cfg, cipher.ErrNoActiveRotors
		}
		cfg.Positions = make([]int, len(cfg.RotorIDs))
		for i := range cfg.Positions {
			cfg.Positions[i] = 1
		}
	default:
		return cfg, usageErrorf("--rotors or --preset is required")
	}

	if c.positions != "" {
		positions, err := cipher.ParsePositions(splitList(c.positions))
		if err != nil {
			return cfg, err
		}
		cfg.Positions = positions
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func runCodec(dir cipher.Direction, args []string) int {
	fs := pflag.NewFlagSet(string(dir), pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var cf configFlags
	cf.register(fs)
	text := fs.StringP("text", "t", "", "message to process (default: read stdin)")
	asJSON := fs.Bool("json", false, "print the full result as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	input := *text
	if !fs.Changed("text") {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read stdin: %v\n", err)
			return 1
		}
		input = strings.TrimSuffix(strings.TrimSuffix(string(data), "\n"), "\r")
	}

	a, code := openApp()
	if a == nil {
		return code
	}
	defer a.close()

	ctx := context.Background()
	cfg, err := cf.resolve(ctx, a.store)
	if err != nil {
		return a.fail(string(dir), err)
	}
	lookup, err := a.store.Lookup(ctx)
	if err != nil {
		return a.fail(string(dir), err)
	}

	res, err := a.engine.Run(dir, input, cfg, lookup)
	if err != nil {
		return a.fail(string(dir), err)
	}

	event := logging.EventMessageEncoded
	if dir == cipher.DirectionDecode {
		event = logging.EventMessageDecoded
	}
	a.emit(logging.AuditEvent{
		EventType: event,
		Decision:  logging.DecisionAllow,
		Metadata: map[string]any{
			"rotors":     cfg.RotorIDs,
			"preset":     cf.preset,
			"characters": res.CharactersProcessed,
			"warnings":   len(res.Warnings),
		},
	})

	if *asJSON {
		return printJSON(res)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: position %d: %s\n", w.Index, w.Message)
	}
	fmt.Fprintln(os.Stdout, res.Text)
	return 0
}
