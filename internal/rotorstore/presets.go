package rotorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexandr-studio/enigma-ai/internal/cipher"
)

// Preset is a named, stored rotor configuration.
type Preset struct {
	Name          string               `json:"name"`
	Description   string               `json:"description,omitempty"`
	Configuration cipher.Configuration `json:"configuration"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

const presetColumns = `name, description, rotor_ids, positions, created_at, updated_at`

// SavePreset stores p under its name, replacing any preset with that name.
// The configuration must be well formed and every rotor it selects must
// exist. An overwritten preset keeps its creation time; p is updated with
// the stored timestamps.
func (s *Store) SavePreset(ctx context.Context, p *Preset) error {
	if p == nil || strings.TrimSpace(p.Name) == "" {
		return errors.New("preset name cannot be empty")
	}
	p.Name = strings.TrimSpace(p.Name)
	cfg := p.Configuration
	if len(cfg.RotorIDs) == 0 {
		return cipher.ErrNoActiveRotors
	}
	if err := cfg.Validate(cipher.AlphabetSize); err != nil {
		return err
	}
	for _, id := range cfg.RotorIDs {
		if _, err := s.GetRotor(ctx, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return &cipher.UnknownRotorError{ID: id}
			}
			return err
		}
	}

	ids, err := json.Marshal(cfg.RotorIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal rotor ids: %w", err)
	}
	positions, err := json.Marshal(cfg.Positions)
	if err != nil {
		return fmt.Errorf("failed to marshal positions: %w", err)
	}

	ts := formatTime(now())
	query := `
	INSERT INTO presets (` + presetColumns + `) VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		description = excluded.description,
		rotor_ids = excluded.rotor_ids,
		positions = excluded.positions,
		updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query,
		p.Name,
		strings.TrimSpace(p.Description),
		string(ids),
		string(positions),
		ts,
		ts,
	); err != nil {
		return fmt.Errorf("failed to save preset: %w", err)
	}

	stored, err := s.GetPreset(ctx, p.Name)
	if err != nil {
		return err
	}
	*p = *stored
	s.logger.Debug("preset saved", "preset", p.Name, "rotors", len(cfg.RotorIDs))
	return nil
}

// GetPreset returns the preset with the given name.
func (s *Store) GetPreset(ctx context.Context, name string) (*Preset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+presetColumns+` FROM presets WHERE name = ?`, name)
	p, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("preset %s: %w", name, ErrNotFound)
	}
	return p, err
}

// ListPresets returns every preset sorted by name.
func (s *Store) ListPresets(ctx context.Context) ([]*Preset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+presetColumns+` FROM presets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query presets: %w", err)
	}
	defer rows.Close()

	var presets []*Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate presets: %w", err)
	}
	return presets, nil
}

// DeletePreset removes the named preset.
func (s *Store) DeletePreset(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM presets WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete preset: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("preset %s: %w", name, ErrNotFound)
	}
	return nil
}

func scanPreset(row scanner) (*Preset, error) {
	var (
		p                Preset
		ids, positions   string
		created, updated string
	)
	if err := row.Scan(&p.Name, &p.Description, &ids, &positions, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan preset: %w", err)
	}
	if err := json.Unmarshal([]byte(ids), &p.Configuration.RotorIDs); err != nil {
		return nil, fmt.Errorf("preset %s: failed to unmarshal rotor ids: %w", p.Name, err)
	}
	if err := json.Unmarshal([]byte(positions), &p.Configuration.Positions); err != nil {
		return nil, fmt.Errorf("preset %s: failed to unmarshal positions: %w", p.Name, err)
	}
	var err error
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("preset %s: bad created_at: %w", p.Name, err)
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("preset %s: bad updated_at: %w", p.Name, err)
	}
	return &p, nil
}
