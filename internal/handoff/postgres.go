package handoff

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool used by PostgresStore.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresStore keeps hand-offs in the checkout_handoffs table
// (see migrations/).
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a PostgresStore on db.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Put replaces every key of namespace in one transaction.
func (s *PostgresStore) Put(ctx context.Context, namespace string, values map[string]string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM checkout_handoffs WHERE namespace = $1`, namespace); err != nil {
		return fmt.Errorf("clear handoff: %w", err)
	}

	batch := &pgx.Batch{}
	for k, v := range values {
		batch.Queue(
			`INSERT INTO checkout_handoffs (namespace, key, value, updated_at) VALUES ($1, $2, $3, now())`,
			namespace, k, v,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert handoff: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, namespace string) (map[string]string, error) {
	rows, err := s.db.Query(ctx, `SELECT key, value FROM checkout_handoffs WHERE namespace = $1`, namespace)
	if err != nil {
		return nil, fmt.Errorf("query handoff: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan handoff: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read handoff: %w", err)
	}
	if len(values) == 0 {
		return nil, ErrNotFound
	}
	return values, nil
}

func (s *PostgresStore) Delete(ctx context.Context, namespace string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM checkout_handoffs WHERE namespace = $1`, namespace); err != nil {
		return fmt.Errorf("delete handoff: %w", err)
	}
	return nil
}

// Prune removes hand-offs not rewritten within maxAge and reports how many
// rows went.
func (s *PostgresStore) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM checkout_handoffs WHERE updated_at < now() - make_interval(secs => $1)`,
		maxAge.Seconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("prune handoffs: %w", err)
	}
	return tag.RowsAffected(), nil
}
