package receipts

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/verity-labs/trustcore/pkg/contracts"

	_ "github.com/lib/pq"
)

// PostgresStore persists receipts in PostgreSQL. Layout mirrors
// SQLiteStore; only placeholder syntax and column types differ.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle and applies the schema.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenPostgresStore connects using a lib/pq DSN.
func OpenPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresStore(db)
}

func (s *PostgresStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS receipts (
		id TEXT PRIMARY KEY,
		agent TEXT NOT NULL,
		action_type TEXT NOT NULL,
		context_ref TEXT NOT NULL DEFAULT '',
		outcome_status TEXT NOT NULL,
		action JSONB NOT NULL,
		signature TEXT NOT NULL,
		chain_position BIGINT NOT NULL UNIQUE,
		previous_hash TEXT NOT NULL,
		hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		action_timestamp TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_receipts_action_type ON receipts(action_type);
	CREATE INDEX IF NOT EXISTS idx_receipts_agent ON receipts(agent);
	`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

// Close closes the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Append(ctx context.Context, r contracts.Receipt) error {
	actionJSON, err := json.Marshal(r.Action)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}
	query := `
	INSERT INTO receipts (id, agent, action_type, context_ref, outcome_status, action,
		signature, chain_position, previous_hash, hash, created_at, action_timestamp)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(ctx, query,
		r.ID, string(r.Action.Agent), r.Action.ActionType, r.Action.ContextRef,
		string(r.Action.Outcome.Status), string(actionJSON),
		r.Signature, r.ChainPosition, r.PreviousHash, r.Hash,
		r.CreatedAt.UTC(), r.Action.Timestamp.UTC())
	return err
}

const pgReceiptColumns = `id, action, signature, chain_position, previous_hash, hash, created_at`

func (s *PostgresStore) Get(ctx context.Context, id string) (contracts.Receipt, error) {
	query := `SELECT ` + pgReceiptColumns + ` FROM receipts WHERE id = $1`
	r, err := scanPgReceipt(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return contracts.Receipt{}, ErrNotFound
	}
	return r, err
}

func (s *PostgresStore) List(ctx context.Context, f contracts.ReceiptFilter) ([]contracts.Receipt, error) {
	where, args := buildWhere(f, func(i int) string { return "$" + strconv.Itoa(i) })
	query := `SELECT ` + pgReceiptColumns + ` FROM receipts` + where +
		` ORDER BY chain_position ASC` + buildPagination(f, "ALL")

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	receipts := []contracts.Receipt{}
	for rows.Next() {
		r, err := scanPgReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}
	return receipts, rows.Err()
}

func (s *PostgresStore) Last(ctx context.Context) (contracts.Receipt, bool, error) {
	query := `SELECT ` + pgReceiptColumns + ` FROM receipts ORDER BY chain_position DESC LIMIT 1`
	r, err := scanPgReceipt(s.db.QueryRowContext(ctx, query))
	if err == sql.ErrNoRows {
		return contracts.Receipt{}, false, nil
	}
	if err != nil {
		return contracts.Receipt{}, false, err
	}
	return r, true, nil
}

func (s *PostgresStore) Count(ctx context.Context) (uint64, error) {
	var n uint64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM receipts`).Scan(&n)
	return n, err
}

// scanPgReceipt differs from the SQLite scanner in that lib/pq returns
// TIMESTAMPTZ columns as time.Time and JSONB as []byte.
func scanPgReceipt(row rowScanner) (contracts.Receipt, error) {
	var (
		r          contracts.Receipt
		actionJSON []byte
		createdAt  time.Time
	)
	err := row.Scan(&r.ID, &actionJSON, &r.Signature, &r.ChainPosition,
		&r.PreviousHash, &r.Hash, &createdAt)
	if err != nil {
		return contracts.Receipt{}, err
	}
	if err := json.Unmarshal(actionJSON, &r.Action); err != nil {
		return contracts.Receipt{}, fmt.Errorf("unmarshal action: %w", err)
	}
	r.CreatedAt = createdAt.UTC()
	return r, nil
}
