package rotorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/alexandr-studio/enigma-ai/internal/cipher"
)

const rotorColumns = `id, name, description, permutation, created_at, updated_at`

// SaveRotor inserts def or, when its id already exists, replaces the stored
// definition while keeping the original creation time.
func (s *Store) SaveRotor(ctx context.Context, def *cipher.RotorDefinition) error {
	if def == nil || strings.TrimSpace(def.ID) == "" {
		return errors.New("rotor id cannot be empty")
	}
	if strings.TrimSpace(def.Name) == "" {
		return errors.New("rotor name cannot be empty")
	}
	if err := cipher.ValidatePermutation(def.Permutation[:]); err != nil {
		return fmt.Errorf("rotor %s: %w", def.ID, err)
	}

	perm, err := json.Marshal(def.Permutation)
	if err != nil {
		return fmt.Errorf("failed to marshal permutation: %w", err)
	}
	created, updated := def.CreatedAt, def.UpdatedAt
	if created.IsZero() {
		created = now()
	}
	if updated.IsZero() {
		updated = created
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var owner string
	err = tx.QueryRowContext(ctx, `SELECT id FROM rotors WHERE name = ? AND id != ?`, def.Name, def.ID).Scan(&owner)
	switch {
	case err == nil:
		return fmt.Errorf("rotor %q: %w by %s", def.Name, ErrNameTaken, owner)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("failed to check rotor name: %w", err)
	}

	query := `
	INSERT INTO rotors (` + rotorColumns + `) VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		description = excluded.description,
		permutation = excluded.permutation,
		updated_at = excluded.updated_at
	`
	if _, err := tx.ExecContext(ctx, query,
		def.ID,
		def.Name,
		def.Description,
		string(perm),
		formatTime(created),
		formatTime(updated),
	); err != nil {
		return fmt.Errorf("failed to save rotor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rotor: %w", err)
	}
	s.logger.Debug("rotor saved", "rotor_id", def.ID, "name", def.Name)
	return nil
}

// GetRotor returns the rotor with the given id.
func (s *Store) GetRotor(ctx context.Context, id string) (*cipher.RotorDefinition, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+rotorColumns+` FROM rotors WHERE id = ?`, id)
	def, err := scanRotor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rotor %s: %w", id, ErrNotFound)
	}
	return def, err
}

// FindRotor resolves ref as an exact id, then an exact name, then a unique
// id prefix of at least four characters.
func (s *Store) FindRotor(ctx context.Context, ref string) (*cipher.RotorDefinition, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty rotor reference: %w", ErrNotFound)
	}

	def, err := s.GetRotor(ctx, ref)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return def, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+rotorColumns+` FROM rotors WHERE name = ?`, ref)
	def, err = scanRotor(row)
	if err == nil || !errors.Is(err, sql.ErrNoRows) {
		return def, err
	}

	if len(ref) >= 4 {
		defs, err := s.queryRotors(ctx, `SELECT `+rotorColumns+` FROM rotors WHERE id LIKE ? ESCAPE '\' ORDER BY id LIMIT 2`, escapeLike(ref)+"%")
		if err != nil {
			return nil, err
		}
		switch len(defs) {
		case 1:
			return defs[0], nil
		case 2:
			return nil, fmt.Errorf("%q: %w", ref, ErrAmbiguous)
		}
	}
	return nil, fmt.Errorf("rotor %s: %w", ref, ErrNotFound)
}

// ListRotors returns every rotor sorted by name.
func (s *Store) ListRotors(ctx context.Context) ([]*cipher.RotorDefinition, error) {
	return s.queryRotors(ctx, `SELECT `+rotorColumns+` FROM rotors ORDER BY name, id`)
}

// SearchRotors returns rotors whose name or description contains query,
// ignoring case.
func (s *Store) SearchRotors(ctx context.Context, query string) ([]*cipher.RotorDefinition, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"
	return s.queryRotors(ctx, `
	SELECT `+rotorColumns+` FROM rotors
	WHERE lower(name) LIKE ? ESCAPE '\' OR lower(description) LIKE ? ESCAPE '\'
	ORDER BY name, id`, pattern, pattern)
}

// DeleteRotor removes a rotor. Rotors selected by a preset are kept and
// ErrInUse is returned.
func (s *Store) DeleteRotor(ctx context.Context, id string) error {
	presets, err := s.ListPresets(ctx)
	if err != nil {
		return err
	}
	var users []string
	for _, p := range presets {
		for _, rid := range p.Configuration.RotorIDs {
			if rid == id {
				users = append(users, p.Name)
				break
			}
		}
	}
	if len(users) > 0 {
		return fmt.Errorf("rotor %s: %w (%s)", id, ErrInUse, strings.Join(users, ", "))
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM rotors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rotor: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("rotor %s: %w", id, ErrNotFound)
	}
	s.logger.Debug("rotor deleted", "rotor_id", id)
	return nil
}

// Lookup snapshots the stored rotors for use by the cipher engine.
func (s *Store) Lookup(ctx context.Context) (cipher.MapLookup, error) {
	defs, err := s.ListRotors(ctx)
	if err != nil {
		return nil, err
	}
	return cipher.NewMapLookup(defs...), nil
}

func (s *Store) queryRotors(ctx context.Context, query string, args ...any) ([]*cipher.RotorDefinition, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rotors: %w", err)
	}
	defer rows.Close()

	var defs []*cipher.RotorDefinition
	for rows.Next() {
		def, err := scanRotor(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rotors: %w", err)
	}
	return defs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRotor rebuilds a definition from a row. A stored permutation that no
// longer validates is reported with its *cipher.PermutationError.
func scanRotor(row scanner) (*cipher.RotorDefinition, error) {
	var (
		def              cipher.RotorDefinition
		perm             string
		created, updated string
	)
	if err := row.Scan(&def.ID, &def.Name, &def.Description, &perm, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan rotor: %w", err)
	}

	var values []int
	if err := json.Unmarshal([]byte(perm), &values); err != nil {
		return nil, fmt.Errorf("rotor %s: failed to unmarshal permutation: %w", def.ID, err)
	}
	p, err := cipher.NewPermutation(values)
	if err != nil {
		return nil, fmt.Errorf("rotor %s: stored %w", def.ID, err)
	}
	def.Permutation = p

	if def.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("rotor %s: bad created_at: %w", def.ID, err)
	}
	if def.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("rotor %s: bad updated_at: %w", def.ID, err)
	}
	return &def, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
