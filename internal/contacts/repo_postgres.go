package contacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"callcenter-platform/pkg/utils"
)

// PostgresLedger persists contacts in Postgres.
//
// Assumed table:
//
//	contacts (
//	  id                  TEXT PRIMARY KEY,
//	  list_id             TEXT NOT NULL,
//	  phone               TEXT NOT NULL,
//	  full_name           TEXT NOT NULL DEFAULT '',
//	  disposition         TEXT NOT NULL,
//	  last_disposition_at TIMESTAMPTZ NOT NULL,
//	  locked_by           TEXT NOT NULL DEFAULT '',
//	  lock_expires_at     TIMESTAMPTZ NOT NULL DEFAULT 'epoch',
//	  created_at          TIMESTAMPTZ NOT NULL,
//	  updated_at          TIMESTAMPTZ NOT NULL
//	)
//
// Index: (list_id, disposition) for candidate scans.
//
// Every mutation below encodes its concurrency guard in the WHERE clause so
// a single UPDATE statement is the compare-and-swap; no read-modify-write.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

const contactColumns = `id, list_id, phone, full_name, disposition, last_disposition_at, locked_by, lock_expires_at, created_at, updated_at`

func scanContact(row interface{ Scan(...any) error }) (Contact, error) {
	var c Contact
	err := row.Scan(
		&c.ID,
		&c.ListID,
		&c.Phone,
		&c.FullName,
		&c.Disposition,
		&c.LastDispositionAt,
		&c.LockedBy,
		&c.LockExpiresAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

func (r *PostgresLedger) Get(ctx context.Context, id string) (Contact, error) {
	q := fmt.Sprintf(`SELECT %s FROM contacts WHERE id = $1`, contactColumns)
	c, err := scanContact(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Contact{}, ErrNotFound
		}
		return Contact{}, err
	}
	return c, nil
}

func (r *PostgresLedger) InsertBatch(ctx context.Context, cs []Contact) error {
	if len(cs) == 0 {
		return nil
	}
	const q = `
INSERT INTO contacts (
  id, list_id, phone, full_name, disposition, last_disposition_at,
  locked_by, lock_expires_at, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, q)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, c := range cs {
			if _, err := stmt.ExecContext(ctx,
				c.ID, c.ListID, c.Phone, c.FullName, c.Disposition, c.LastDispositionAt,
				c.LockedBy, c.LockExpiresAt, c.CreatedAt, c.UpdatedAt,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresLedger) ListByList(ctx context.Context, listID string) ([]Contact, error) {
	q := fmt.Sprintf(`SELECT %s FROM contacts WHERE list_id = $1 ORDER BY created_at`, contactColumns)
	rows, err := r.db.QueryContext(ctx, q, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresLedger) ListCandidates(ctx context.Context, listID string, in []Disposition, now time.Time, limit int) ([]Contact, error) {
	if len(in) == 0 {
		return nil, nil
	}

	args := []any{listID, now}
	ph := make([]string, 0, len(in))
	for i, d := range in {
		ph = append(ph, fmt.Sprintf("$%d", i+3))
		args = append(args, d)
	}
	args = append(args, limit)

	q := fmt.Sprintf(`
SELECT %s FROM contacts
WHERE list_id = $1
  AND (locked_by = '' OR lock_expires_at <= $2)
  AND disposition IN (%s)
ORDER BY last_disposition_at
LIMIT $%d
`, contactColumns, strings.Join(ph, ","), len(in)+3)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresLedger) Recycle(ctx context.Context, id string, from Disposition, now time.Time) error {
	// CAS guard: the disposition we evaluated must still be in place and no
	// valid lock may exist. An agent picking the contact up, or a competing
	// recycle, makes this a zero-row update.
	const q = `
UPDATE contacts
SET disposition = $3, last_disposition_at = $4, updated_at = $4
WHERE id = $1
  AND disposition = $2
  AND (locked_by = '' OR lock_expires_at <= $4)
`
	res, err := r.db.ExecContext(ctx, q, id, from, DispositionNew, now)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.Get(ctx, id); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

func (r *PostgresLedger) SetOutcome(ctx context.Context, id string, outcome Disposition, agentID string, at time.Time) (Contact, error) {
	// Disposition writes win unconditionally over recycle decisions; the
	// single statement also drops the writer's own lock.
	q := fmt.Sprintf(`
UPDATE contacts
SET disposition = $2,
    last_disposition_at = $3,
    updated_at = $3,
    locked_by = CASE WHEN locked_by = $4 THEN '' ELSE locked_by END,
    lock_expires_at = CASE WHEN locked_by = $4 THEN 'epoch'::timestamptz ELSE lock_expires_at END
WHERE id = $1
RETURNING %s
`, contactColumns)

	c, err := scanContact(r.db.QueryRowContext(ctx, q, id, outcome, at, agentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Contact{}, ErrNotFound
		}
		return Contact{}, err
	}
	return c, nil
}

func (r *PostgresLedger) Acquire(ctx context.Context, id, agentID string, now time.Time, ttl time.Duration) (Contact, error) {
	q := fmt.Sprintf(`
UPDATE contacts
SET locked_by = $2, lock_expires_at = $4, updated_at = $3
WHERE id = $1
  AND (locked_by = '' OR locked_by = $2 OR lock_expires_at <= $3)
RETURNING %s
`, contactColumns)

	c, err := scanContact(r.db.QueryRowContext(ctx, q, id, agentID, now, now.Add(ttl)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, gerr := r.Get(ctx, id); errors.Is(gerr, ErrNotFound) {
				return Contact{}, ErrNotFound
			}
			return Contact{}, ErrLockHeld
		}
		return Contact{}, err
	}
	return c, nil
}

func (r *PostgresLedger) Release(ctx context.Context, id, agentID string) error {
	const q = `
UPDATE contacts
SET locked_by = '', lock_expires_at = 'epoch'::timestamptz
WHERE id = $1 AND locked_by = $2
`
	_, err := r.db.ExecContext(ctx, q, id, agentID)
	return err
}

func (r *PostgresLedger) ResetList(ctx context.Context, listID string, now time.Time) (int, error) {
	// One statement inside one transaction: the bulk reset commits fully or
	// not at all. Terminal outcomes and validly locked rows are untouched.
	var count int
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		args := []any{listID, now, DispositionNew}
		ph := make([]string, 0, len(terminalForRecycling))
		i := 4
		for d := range terminalForRecycling {
			ph = append(ph, fmt.Sprintf("$%d", i))
			args = append(args, d)
			i++
		}

		q := fmt.Sprintf(`
UPDATE contacts
SET disposition = $3, last_disposition_at = $2, updated_at = $2
WHERE list_id = $1
  AND disposition <> $3
  AND disposition NOT IN (%s)
  AND (locked_by = '' OR lock_expires_at <= $2)
`, strings.Join(ph, ","))

		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		count = int(n)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
