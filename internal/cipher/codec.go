package cipher

import (
	"fmt"
	"log/slog"
	"strings"
)

// Engine encodes and decodes whole messages. It holds no per-call state and
// is safe for concurrent use.
type Engine struct {
	maxRotors int
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxActiveRotors bounds how many rotors a configuration may select.
func WithMaxActiveRotors(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxRotors = n
		}
	}
}

// WithLogger sets the logger used for per-call debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine returns an Engine with the given options applied.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{maxRotors: DefaultMaxActiveRotors}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxActiveRotors reports the configured rotor limit.
func (e *Engine) MaxActiveRotors() int {
	return e.maxRotors
}

// Encode runs text forward through the configured rotors.
func (e *Engine) Encode(text string, cfg Configuration, lookup Lookup) (*Result, error) {
	return e.Run(DirectionEncode, text, cfg, lookup)
}

// Decode reverses Encode for the same configuration and start positions.
func (e *Engine) Decode(text string, cfg Configuration, lookup Lookup) (*Result, error) {
	return e.Run(DirectionDecode, text, cfg, lookup)
}

// Run processes text in the given direction. Characters outside the
// alphabet are copied unchanged, do not step any rotor and are reported as
// warnings. Misconfiguration returns an error and no partial result.
func (e *Engine) Run(dir Direction, text string, cfg Configuration, lookup Lookup) (*Result, error) {
	var transform func(*Pipeline, rune) (rune, error)
	switch dir {
	case DirectionEncode:
		transform = (*Pipeline).EncodeRune
	case DirectionDecode:
		transform = (*Pipeline).DecodeRune
	default:
		return nil, fmt.Errorf("unknown direction %q", dir)
	}

	p, err := NewPipeline(cfg, lookup, e.maxRotors)
	if err != nil {
		return nil, err
	}

	var out strings.Builder
	out.Grow(len(text))
	res := &Result{Direction: dir}

	for _, r := range text {
		if !InAlphabet(r) {
			res.Warnings = append(res.Warnings, Warning{
				Index:   res.CharactersProcessed,
				Char:    string(r),
				Message: (&CharacterError{Char: r}).Error() + "; copied unchanged",
			})
			out.WriteRune(r)
			res.CharactersProcessed++
			continue
		}
		mapped, err := transform(p, r)
		if err != nil {
			return nil, err
		}
		out.WriteRune(mapped)
		res.CharactersProcessed++
	}

	res.Text = out.String()
	res.FinalPositions = p.Positions()

	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("message processed",
		"direction", string(dir),
		"rotors", len(cfg.RotorIDs),
		"characters", res.CharactersProcessed,
		"warnings", len(res.Warnings),
	)
	return res, nil
}

var defaultEngine = NewEngine()

// Encode runs text forward using an engine with default options.
func Encode(text string, cfg Configuration, lookup Lookup) (*Result, error) {
	return defaultEngine.Encode(text, cfg, lookup)
}

// Decode reverses Encode using an engine with default options.
func Decode(text string, cfg Configuration, lookup Lookup) (*Result, error) {
	return defaultEngine.Decode(text, cfg, lookup)
}
