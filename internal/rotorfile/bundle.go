// Package rotorfile reads and writes rotor definitions as portable bundles.
package rotorfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/alexandr-studio/enigma-ai/internal/cipher"
)

// BundleVersion is the bundle layout written by this package.
const BundleVersion = 1

var (
	// ErrFingerprintMismatch means a record's permutation does not hash to
	// the fingerprint stored next to it.
	ErrFingerprintMismatch = errors.New("fingerprint mismatch")
	// ErrUnsupportedVersion is returned for bundles written by a newer layout.
	ErrUnsupportedVersion = errors.New("unsupported bundle version")
)

// Bundle is the top-level document of an export.
type Bundle struct {
	Version int      `json:"version" yaml:"version" cbor:"version"`
	Rotors  []Record `json:"rotors" yaml:"rotors" cbor:"rotors"`
}

// Record is one rotor definition inside a bundle. Permutation entries are
// kept loosely typed so malformed values can be reported precisely.
type Record struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty" cbor:"id,omitempty"`
	Name        string `json:"name" yaml:"name" cbor:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" cbor:"description,omitempty"`
	Permutation []any  `json:"permutation" yaml:"permutation,flow" cbor:"permutation"`
	CreatedAt   string `json:"created_at,omitempty" yaml:"created_at,omitempty" cbor:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty" yaml:"updated_at,omitempty" cbor:"updated_at,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty" cbor:"fingerprint,omitempty"`
}

// NewRecord converts a definition for export.
func NewRecord(def *cipher.RotorDefinition) Record {
	perm := make([]any, len(def.Permutation))
	for i, v := range def.Permutation {
		perm[i] = v
	}
	return Record{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
		Permutation: perm,
		CreatedAt:   formatTime(def.CreatedAt),
		UpdatedAt:   formatTime(def.UpdatedAt),
		Fingerprint: Fingerprint(def.Permutation),
	}
}

// Definition validates the record and converts it back to a definition.
// A record without an id gets a fresh one.
func (r Record) Definition() (*cipher.RotorDefinition, error) {
	perm, err := cipher.ParsePermutation(r.Permutation)
	if err != nil {
		return nil, err
	}
	if r.Fingerprint != "" && !strings.EqualFold(r.Fingerprint, Fingerprint(perm)) {
		return nil, ErrFingerprintMismatch
	}
	def, err := cipher.NewRotorDefinition(r.Name, r.Description, perm[:])
	if err != nil {
		return nil, err
	}
	if id := strings.TrimSpace(r.ID); id != "" {
		def.ID = id
	} else {
		def.ID = uuid.NewString()
	}
	if r.CreatedAt != "" {
		if def.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
			return nil, fmt.Errorf("created_at: %w", err)
		}
		def.UpdatedAt = def.CreatedAt
	}
	if r.UpdatedAt != "" {
		if def.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("updated_at: %w", err)
		}
	}
	return def, nil
}

// Write encodes defs as a bundle.
func Write(w io.Writer, format Format, defs []*cipher.RotorDefinition) error {
	bundle := Bundle{Version: BundleVersion, Rotors: make([]Record, 0, len(defs))}
	for _, def := range defs {
		bundle.Rotors = append(bundle.Rotors, NewRecord(def))
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(bundle)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(bundle); err != nil {
			return err
		}
		return enc.Close()
	case FormatCBOR:
		data, err := cborEnc.Marshal(bundle)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
	}
}

// Read decodes a bundle and validates every record. Problems with
// individual records are collected and returned together; no definitions
// are returned unless every record is valid.
func Read(r io.Reader, format Format) ([]*cipher.RotorDefinition, error) {
	var bundle Bundle
	if err := decode(r, format, &bundle); err != nil {
		return nil, err
	}
	if bundle.Version == 0 {
		bundle.Version = BundleVersion
	}
	if bundle.Version != BundleVersion {
		return nil, fmt.Errorf("%w %d", ErrUnsupportedVersion, bundle.Version)
	}

	defs := make([]*cipher.RotorDefinition, 0, len(bundle.Rotors))
	seen := make(map[string]int, len(bundle.Rotors))
	var errs []error
	for i, rec := range bundle.Rotors {
		def, err := rec.Definition()
		if err != nil {
			errs = append(errs, fmt.Errorf("rotor %d (%s): %w", i+1, rec.Name, err))
			continue
		}
		if prev, dup := seen[def.ID]; dup {
			errs = append(errs, fmt.Errorf("rotor %d (%s): id %s already used by rotor %d", i+1, rec.Name, def.ID, prev))
			continue
		}
		seen[def.ID] = i + 1
		defs = append(defs, def)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return defs, nil
}

// ReadPermutation decodes a single permutation. The document may be a bare
// list or an object with a "permutation" field.
func ReadPermutation(r io.Reader, format Format) (cipher.Permutation, error) {
	var doc any
	if err := decode(r, format, &doc); err != nil {
		return cipher.Permutation{}, err
	}
	switch v := doc.(type) {
	case []any:
		return cipher.ParsePermutation(v)
	case map[string]any:
		if raw, ok := v["permutation"].([]any); ok {
			return cipher.ParsePermutation(raw)
		}
	}
	return cipher.Permutation{}, errors.New("expected a list of 64 integers or an object with a permutation field")
}

func decode(r io.Reader, format Format, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(v)
	case FormatYAML:
		err = yaml.Unmarshal(data, v)
	case FormatCBOR:
		err = cborDec.Unmarshal(data, v)
	default:
		return fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", format, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
