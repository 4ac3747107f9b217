package lists

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"callcenter-platform/internal/contacts"
)

// PostgresStore persists contact lists in Postgres.
//
// Assumed table:
//
//	contact_lists (
//	  id                    TEXT PRIMARY KEY,
//	  name                  TEXT NOT NULL,
//	  source_file           TEXT NOT NULL DEFAULT '',
//	  imported_by           TEXT NOT NULL,
//	  active                BOOLEAN NOT NULL DEFAULT TRUE,
//	  recycle_enabled       BOOLEAN NOT NULL DEFAULT FALSE,
//	  recycle_outcomes      TEXT NOT NULL,           -- comma-joined enum values
//	  recycle_delay_minutes INT NOT NULL,
//	  imported_at           TIMESTAMPTZ NOT NULL,
//	  updated_at            TIMESTAMPTZ NOT NULL
//	)
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const listColumns = `id, name, source_file, imported_by, active, recycle_enabled, recycle_outcomes, recycle_delay_minutes, imported_at, updated_at`

func scanList(row interface{ Scan(...any) error }) (ContactList, error) {
	var l ContactList
	var outcomes string
	err := row.Scan(
		&l.ID,
		&l.Name,
		&l.SourceFile,
		&l.ImportedBy,
		&l.Active,
		&l.Policy.Enabled,
		&outcomes,
		&l.Policy.DelayMinutes,
		&l.ImportedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return ContactList{}, err
	}
	l.Policy.EligibleOutcomes = decodeOutcomes(outcomes)
	return l, nil
}

func encodeOutcomes(ds []contacts.Disposition) string {
	ss := make([]string, 0, len(ds))
	for _, d := range ds {
		ss = append(ss, string(d))
	}
	return strings.Join(ss, ",")
}

func decodeOutcomes(s string) []contacts.Disposition {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]contacts.Disposition, 0, len(parts))
	for _, p := range parts {
		d, err := contacts.ParseDisposition(p)
		if err != nil {
			// Stored values passed Validate on write; skip anything that
			// predates the current enumeration rather than failing reads.
			continue
		}
		out = append(out, d)
	}
	return out
}

func (r *PostgresStore) Get(ctx context.Context, id string) (ContactList, error) {
	q := `SELECT ` + listColumns + ` FROM contact_lists WHERE id = $1`
	l, err := scanList(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ContactList{}, ErrNotFound
		}
		return ContactList{}, err
	}
	return l, nil
}

func (r *PostgresStore) Insert(ctx context.Context, l ContactList) error {
	const q = `
INSERT INTO contact_lists (
  id, name, source_file, imported_by, active,
  recycle_enabled, recycle_outcomes, recycle_delay_minutes,
  imported_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`
	_, err := r.db.ExecContext(ctx, q,
		l.ID, l.Name, l.SourceFile, l.ImportedBy, l.Active,
		l.Policy.Enabled, encodeOutcomes(l.Policy.EligibleOutcomes), l.Policy.DelayMinutes,
		l.ImportedAt, l.UpdatedAt,
	)
	return err
}

func (r *PostgresStore) UpdatePolicy(ctx context.Context, listID string, p RecyclePolicy, now time.Time) error {
	const q = `
UPDATE contact_lists
SET recycle_enabled = $2, recycle_outcomes = $3, recycle_delay_minutes = $4, updated_at = $5
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q, listID, p.Enabled, encodeOutcomes(p.EligibleOutcomes), p.DelayMinutes, now)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresStore) ListActive(ctx context.Context) ([]ContactList, error) {
	q := `SELECT ` + listColumns + ` FROM contact_lists WHERE active ORDER BY imported_at`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ContactList
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
