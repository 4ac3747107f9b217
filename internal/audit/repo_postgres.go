package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo persists audit events in Postgres.
//
// Assumed table (INSERT-only; deny UPDATE/DELETE at the grant level):
//
//	audit_events (
//	  id             TEXT PRIMARY KEY,
//	  type           TEXT NOT NULL,
//	  actor_user_id  TEXT NOT NULL DEFAULT '',
//	  actor_role     TEXT NOT NULL DEFAULT '',
//	  ip_address     TEXT NOT NULL DEFAULT '',
//	  list_id        TEXT NOT NULL,
//	  recycled_count INT NOT NULL DEFAULT 0,
//	  message        TEXT NOT NULL DEFAULT '',
//	  metadata       TEXT NOT NULL DEFAULT '',
//	  created_at     TIMESTAMPTZ NOT NULL
//	)
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (
  id, type, actor_user_id, actor_role, ip_address,
  list_id, recycled_count, message, metadata, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID, string(e.Type), e.ActorUserID, e.ActorRole, e.IPAddress,
		e.ListID, e.RecycledCount, e.Message, e.Metadata, e.CreatedAt,
	)
	return err
}
