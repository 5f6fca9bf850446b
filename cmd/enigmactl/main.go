package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/alexandr-studio/enigma-ai/internal/cipher"
	"github.com/alexandr-studio/enigma-ai/internal/config"
	"github.com/alexandr-studio/enigma-ai/internal/logging"
	"github.com/alexandr-studio/enigma-ai/internal/rotorfile"
	"github.com/alexandr-studio/enigma-ai/internal/rotorstore"
)

const productName = "enigma"
const cliBanner = productName + " rotor cipher CLI (enigmactl)"

// Global overrides, applied on top of the loaded configuration.
var (
	storeOverride    string
	logLevelOverride string
	auditOverride    string
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := pflag.NewFlagSet("enigmactl", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.SetInterspersed(false)
	fs.StringVar(&storeOverride, "store", "", "path to the rotor store (overrides store_path)")
	fs.StringVar(&logLevelOverride, "log-level", "", "debug, info, warn or error (overrides log_level)")
	fs.StringVar(&auditOverride, "audit-log", "", "append audit events to this file (overrides audit_log)")
	fs.Usage = func() { usage(fs) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 {
		usage(fs)
		return 2
	}

	switch rest[0] {
	case "rotor":
		return runRotor(rest[1:])
	case "encode":
		return runCodec(cipher.DirectionEncode, rest[1:])
	case "decode":
		return runCodec(cipher.DirectionDecode, rest[1:])
	case "preset":
		return runPreset(rest[1:])
	case "validate":
		return runValidate(rest[1:])
	case "config":
		return runConfig(rest[1:])
	case "version":
		return runVersion(rest[1:])
	case "help":
		usage(fs)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", rest[0])
		usage(fs)
		return 2
	}
}

func usage(fs *pflag.FlagSet) {
	out := os.Stderr
	fmt.Fprintln(out, cliBanner)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage: enigmactl [global flags] <command> [args]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  rotor new|list|show|edit|delete|import|export")
	fmt.Fprintln(out, "  encode, decode")
	fmt.Fprintln(out, "  preset save|list|show|delete")
	fmt.Fprintln(out, "  validate permutation|config")
	fmt.Fprintln(out, "  config show")
	fmt.Fprintln(out, "  version")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Global flags:")
	fmt.Fprint(out, fs.FlagUsages())
}

// app bundles the resolved configuration and the collaborators a command
// needs. Commands that touch the store call openApp and defer close.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	audit  *logging.AuditLogger
	store  *rotorstore.Store
	engine *cipher.Engine
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if storeOverride != "" {
		cfg.StorePath = storeOverride
	}
	if logLevelOverride != "" {
		cfg.LogLevel = logLevelOverride
	}
	if auditOverride != "" {
		cfg.AuditLog = auditOverride
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func openApp() (*app, int) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return nil, 2
	}

	logger, err := logging.NewLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configure logging: %v\n", err)
		return nil, 2
	}

	audit := logging.Discard()
	if cfg.AuditLog != "" {
		audit, err = logging.NewAuditLogger("enigmactl",
			logging.WithoutStdout(),
			logging.WithFile(cfg.AuditLog),
			logging.WithMirror(logger),
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open audit log: %v\n", err)
			return nil, 1
		}
	}

	store, err := rotorstore.Open(cfg.StorePath, logger)
	if err != nil {
		_ = audit.Close()
		fmt.Fprintf(os.Stderr, "open rotor store: %v\n", err)
		return nil, 1
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		audit:  audit,
		store:  store,
		engine: cipher.NewEngine(
			cipher.WithMaxActiveRotors(cfg.MaxActiveRotors),
			cipher.WithLogger(logger),
		),
	}, 0
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close rotor store", "error", err)
	}
	if err := a.audit.Close(); err != nil {
		a.logger.Warn("close audit log", "error", err)
	}
}

// emit writes an audit event; failures are logged, never fatal.
func (a *app) emit(event logging.AuditEvent) {
	if err := a.audit.Emit(event); err != nil {
		a.logger.Warn("write audit event", "event", event.EventType, "error", err)
	}
}

// fail reports err for op and maps it to an exit code: 2 for input the
// user can fix, 1 for everything else. Validation failures are audited.
func (a *app) fail(op string, err error) int {
	fmt.Fprintf(os.Stderr, "%s: %v\n", op, err)
	code := exitCode(err)
	if code == 2 && a != nil {
		a.emit(logging.AuditEvent{
			EventType: logging.EventValidationFailed,
			Decision:  logging.DecisionDeny,
			Reason:    op,
			Metadata:  map[string]any{"error": err.Error()},
		})
	}
	return code
}

// usageError marks a bad flag value or argument.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func exitCode(err error) int {
	var ue usageError
	switch {
	case errors.As(err, &ue),
		errors.Is(err, cipher.ErrValidation),
		errors.Is(err, cipher.ErrCharacter),
		errors.Is(err, cipher.ErrStructural),
		errors.Is(err, rotorstore.ErrNotFound),
		errors.Is(err, rotorstore.ErrNameTaken),
		errors.Is(err, rotorstore.ErrAmbiguous),
		errors.Is(err, rotorstore.ErrInUse),
		errors.Is(err, rotorfile.ErrFingerprintMismatch),
		errors.Is(err, rotorfile.ErrUnsupportedFormat),
		errors.Is(err, rotorfile.ErrUnsupportedVersion):
		return 2
	default:
		return 1
	}
}
