package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/alexandr-studio/enigma-ai/internal/cipher"
	"github.com/alexandr-studio/enigma-ai/internal/logging"
	"github.com/alexandr-studio/enigma-ai/internal/rotorfile"
	"github.com/alexandr-studio/enigma-ai/internal/rotorstore"
)

func runRotor(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "rotor subcommand required")
		return 2
	}

	switch args[0] {
	case "new":
		return runRotorNew(args[1:])
	case "list":
		return runRotorList(args[1:])
	case "show":
		return runRotorShow(args[1:])
	case "edit":
		return runRotorEdit(args[1:])
	case "delete":
		return runRotorDelete(args[1:])
	case "import":
		return runRotorImport(args[1:])
	case "export":
		return runRotorExport(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown rotor subcommand: %s\n", args[0])
		return 2
	}
}

// permutationFlags selects where a new permutation comes from.
type permutationFlags struct {
	kind  string
	shift int
	seed  uint64
	from  string
}

func (p *permutationFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&p.kind, "kind", "random", "permutation kind: random, identity, shift, reverse or seeded")
	fs.IntVar(&p.shift, "shift", 1, "offset for --kind shift")
	fs.Uint64Var(&p.seed, "seed", 0, "seed for --kind seeded")
	fs.StringVar(&p.from, "from", "", "read the permutation from a json, yaml or cbor file")
}

func (p *permutationFlags) build() (cipher.Permutation, error) {
	if p.from != "" {
		f, err := os.Open(p.from)
		if err != nil {
			return cipher.Permutation{}, err
		}
		defer f.Close()
		return rotorfile.ReadPermutation(f, rotorfile.FormatFromPath(p.from, rotorfile.FormatJSON))
	}
	switch strings.ToLower(p.kind) {
	case "random":
		return cipher.RandomPermutation(), nil
	case "identity":
		return cipher.IdentityPermutation(), nil
	case "shift":
		return cipher.ShiftPermutation(p.shift), nil
	case "reverse":
		return cipher.ReversePermutation(), nil
	case "seeded":
		return cipher.SeededPermutation(p.seed), nil
	default:
		return cipher.Permutation{}, usageErrorf("unknown permutation kind %q", p.kind)
	}
}

func runRotorNew(args []string) int {
	fs := pflag.NewFlagSet("rotor new", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	name := fs.String("name", "", "rotor name (required, unique)")
	description := fs.String("description", "", "free-form description")
	var perm permutationFlags
	perm.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*name) == "" {
		fmt.Fprintln(os.Stderr, "--name is required")
		return 2
	}

	a, code := openApp()
	if a == nil {
		return code
	}
	defer a.close()

	p, err := perm.build()
	if err != nil {
		return a.fail("build permutation", err)
	}
	def, err := cipher.NewRotorDefinition(*name, *description, p[:])
	if err != nil {
		return a.fail("create rotor", err)
	}
	if err := a.store.SaveRotor(context.Background(), def); err != nil {
		return a.fail("save rotor", err)
	}

	a.emit(logging.AuditEvent{
		EventType: logging.EventRotorCreated,
		RotorID:   def.ID,
		Decision:  logging.DecisionAllow,
		Metadata:  map[string]any{"name": def.Name, "kind": permKind(perm), "fingerprint": rotorfile.Fingerprint(def.Permutation)},
	})
	fmt.Fprintln(os.Stdout, def.ID)
	return 0
}

func permKind(p permutationFlags) string {
	if p.from != "" {
		return "file"
	}
	return p.kind
}

func runRotorList(args []string) int {
	fs := pflag.NewFlagSet("rotor list", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	search := fs.String("search", "", "only list rotors whose name or description contains this text")
	asJSON := fs.Bool("json", false, "print rotors as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, code := openApp()
	if a == nil {
		return code
	}
	defer a.close()

	ctx := context.Background()
	var defs []*cipher.RotorDefinition
	var err error
	if *search != "" {
		defs, err = a.store.SearchRotors(ctx, *search)
	} else {
		defs, err = a.store.ListRotors(ctx)
	}
	if err != nil {
		return a.fail("list rotors", err)
	}

	if *asJSON {
		records := make([]rotorfile.Record, 0, len(defs))
		for _, def := range defs {
			records = append(records, rotorfile.NewRecord(def))
		}
		return printJSON(records)
	}

	if len(defs) == 0 {
		fmt.Fprintln(os.Stdout, "no rotors")
		return 0
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFINGERPRINT\tUPDATED")
	for _, def := range defs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", def.ID, def.Name, rotorfile.Fingerprint(def.Permutation)[:12], def.UpdatedAt.Format(time.RFC3339))
	}
	if err := tw.Flush(); err != nil {
		return a.fail("write output", err)
	}
	return 0
}

func runRotorShow(args []string) int {
	fs := pflag.NewFlagSet("rotor show", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "print the rotor as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "rotor show requires exactly one rotor id or name")
		return 2
	}

	a, code := openApp()
	if a == nil {
		return code
	}
	defer a.close()

	def, err := a.store.FindRotor(context.Background(), fs.Arg(0))
	if err != nil {
		return a.fail("find rotor", err)
	}
	if *asJSON {
		return printJSON(rotorfile.NewRecord(def))
	}
	printRotor(os.Stdout, def)
	return 0
}

func printRotor(out io.Writer, def *cipher.RotorDefinition) {
	fmt.Fprintf(out, "id: %s\n", def.ID)
	fmt.Fprintf(out, "name: %s\n", def.Name)
	if def.Description != "" {
		fmt.Fprintf(out, "description: %s\n", def.Description)
	}
	fmt.Fprintf(out, "created: %s\n", def.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "updated: %s\n", def.UpdatedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "fingerprint: %s\n", rotorfile.Fingerprint(def.Permutation))
	values := make([]string, len(def.Permutation))
	for i, v := range def.Permutation {
		values[i] = strconv.Itoa(v)
	}
	fmt.Fprintf(out, "permutation: %s\n", strings.Join(values, " "))
	wiring := make([]rune, len(def.Permutation))
	for i, v := range def.Permutation {
		c, _ := cipher.IndexToChar(v)
		wiring[i] = c
	}
	fmt.Fprintf(out, "wiring: %s -> %s\n", cipher.Alphabet, string(wiring))
}

func runRotorEdit(args []string) int {
	fs := pflag.NewFlagSet("rotor edit", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	name := fs.String("name", "", "new rotor name")
	description := fs.String("description", "", "new description")
	var perm permutationFlags
	perm.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "rotor edit requires exactly one rotor id or name")
		return 2
	}

	a, code := openApp()
	if a == nil {
		return code
	}
	defer a.close()

	ctx := context.Background()
	def, err := a.store.FindRotor(ctx, fs.Arg(0))
	if err != nil {
		return a.fail("find rotor", err)
	}

	newName, newDescription := def.Name, def.Description
	if fs.Changed("name") {
		newName = *name
	}
	if fs.Changed("description") {
		newDescription = *description
	}
	var values []int
	if fs.Changed("kind") || fs.Changed("from") || fs.Changed("seed") || fs.Changed("shift") {
		p, err := perm.build()
		if err != nil {
			return a.fail("build permutation", err)
		}
		values = p[:]
	}

	edited, err := def.Edit(newName, newDescription, values)
	if err != nil {
		return a.fail("edit rotor", err)
	}
	if err := a.store.SaveRotor(ctx, edited); err != nil {
		return a.fail("save rotor", err)
	}

	a.emit(logging.AuditEvent{
		EventType: logging.EventRotorUpdated,
		RotorID:   edited.ID,
		Decision:  logging.DecisionAllow,
		Metadata:  map[string]any{"name": edited.Name, "permutation_changed": values != nil},
	})
	fmt.Fprintf(os.Stdout, "updated %s\n", edited.ID)
	return 0
}

func runRotorDelete(args []string) int {
	fs := pflag.NewFlagSet("rotor delete", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "rotor delete requires at least one rotor id or name")
		return 2
	}

	a, code := openApp()
	if a == nil {
		return code
	}
	defer a.close()

	ctx := context.Background()
	for _, ref := range fs.Args() {
		def, err := a.store.FindRotor(ctx, ref)
		if err != nil {
			return a.fail("find rotor", err)
		}
		if err := a.store.DeleteRotor(ctx, def.ID); err != nil {
			return a.fail("delete rotor", err)
		}
		a.emit(logging.AuditEvent{
			EventType: logging.EventRotorDeleted,
			RotorID:   def.ID,
			Decision:  logging.DecisionAllow,
			Metadata:  map[string]any{"name": def.Name},
		})
		fmt.Fprintf(os.Stdout, "deleted %s (%s)\n", def.ID, def.Name)
	}
	return 0
}

func runRotorImport(args []string) int {
	fs := pflag.NewFlagSet("rotor import", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	format := fs.String("format", "", "bundle format: json, yaml or cbor (default: from file extension)")
	replace := fs.Bool("replace", false, "overwrite rotors whose id already exists")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "rotor import requires exactly one file")
		return 2
	}
	path := fs.Arg(0)

	a, code := openApp()
	if a == nil {
		return code
	}
	defer a.close()

	f, err := resolveFormat(*format, path, a.cfg.ExportFormat)
	if err != nil {
		return a.fail("import rotors", err)
	}
	file, err := os.Open(path)
	if err != nil {
		return a.fail("import rotors", err)
	}
	defer file.Close()

	defs, err := rotorfile.Read(file, f)
	if err != nil {
		return a.fail("import rotors", err)
	}

	ctx := context.Background()
	imported, skipped := 0, 0
	for _, def := range defs {
		if _, err := a.store.GetRotor(ctx, def.ID); err == nil && !*replace {
			fmt.Fprintf(os.Stderr, "skip %s (%s): already exists\n", def.ID, def.Name)
			skipped++
			continue
		} else if err != nil && !errors.Is(err, rotorstore.ErrNotFound) {
			return a.fail("import rotors", err)
		}
		if err := a.store.SaveRotor(ctx, def); err != nil {
			return a.fail("import rotors", err)
		}
		imported++
	}

	a.emit(logging.AuditEvent{
		EventType: logging.EventRotorsImported,
		Decision:  logging.DecisionAllow,
		Metadata:  map[string]any{"file": path, "format": string(f), "imported": imported, "skipped": skipped},
	})
	fmt.Fprintf(os.Stdout, "imported %d rotor(s), skipped %d\n", imported, skipped)
	return 0
}

func runRotorExport(args []string) int {
	fs := pflag.NewFlagSet("rotor export", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	format := fs.String("format", "", "bundle format: json, yaml or cbor (default: from --out or export_format)")
	outPath := fs.StringP("out", "o", "", "write to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, code := openApp()
	if a == nil {
		return code
	}
	defer a.close()

	f, err := resolveFormat(*format, *outPath, a.cfg.ExportFormat)
	if err != nil {
		return a.fail("export rotors", err)
	}

	ctx := context.Background()
	var defs []*cipher.RotorDefinition
	if fs.NArg() == 0 {
		defs, err = a.store.ListRotors(ctx)
		if err != nil {
			return a.fail("export rotors", err)
		}
	} else {
		for _, ref := range fs.Args() {
			def, err := a.store.FindRotor(ctx, ref)
			if err != nil {
				return a.fail("export rotors", err)
			}
			defs = append(defs, def)
		}
	}

	var out io.Writer = os.Stdout
	if *outPath != "" {
		file, err := os.OpenFile(*outPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
		if err != nil {
			return a.fail("export rotors", err)
		}
		defer file.Close()
		out = file
	}
	if err := rotorfile.Write(out, f, defs); err != nil {
		return a.fail("export rotors", err)
	}

	a.emit(logging.AuditEvent{
		EventType: logging.EventRotorsExported,
		Decision:  logging.DecisionAllow,
		Metadata:  map[string]any{"file": *outPath, "format": string(f), "rotors": len(defs)},
	})
	if *outPath != "" {
		fmt.Fprintf(os.Stderr, "exported %d rotor(s) to %s\n", len(defs), *outPath)
	}
	return 0
}

// resolveFormat prefers an explicit flag, then the file extension, then
// the configured default.
func resolveFormat(flagValue, path, configured string) (rotorfile.Format, error) {
	if flagValue != "" {
		return rotorfile.ParseFormat(flagValue)
	}
	def, err := rotorfile.ParseFormat(configured)
	if err != nil {
		return "", err
	}
	if path == "" {
		return def, nil
	}
	return rotorfile.FormatFromPath(path, def), nil
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encode json: %v\n", err)
		return 1
	}
	return 0
}
