package receipts

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/verity-labs/trustcore/pkg/contracts"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists receipts in a SQLite database. The action record
// is stored as a JSON column; the filterable fields are denormalized
// into their own columns so List can push predicates into SQL.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open database handle and applies the schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenSQLiteStore opens (or creates) the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteStore(db)
}

func (s *SQLiteStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS receipts (
		id TEXT PRIMARY KEY,
		agent TEXT NOT NULL,
		action_type TEXT NOT NULL,
		context_ref TEXT NOT NULL DEFAULT '',
		outcome_status TEXT NOT NULL,
		action JSON NOT NULL,
		signature TEXT NOT NULL,
		chain_position INTEGER NOT NULL UNIQUE,
		previous_hash TEXT NOT NULL,
		hash TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		action_timestamp DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_receipts_action_type ON receipts(action_type);
	CREATE INDEX IF NOT EXISTS idx_receipts_agent ON receipts(agent);
	`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Append(ctx context.Context, r contracts.Receipt) error {
	actionJSON, err := json.Marshal(r.Action)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}
	query := `
	INSERT INTO receipts (id, agent, action_type, context_ref, outcome_status, action,
		signature, chain_position, previous_hash, hash, created_at, action_timestamp)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		r.ID, string(r.Action.Agent), r.Action.ActionType, r.Action.ContextRef,
		string(r.Action.Outcome.Status), string(actionJSON),
		r.Signature, r.ChainPosition, r.PreviousHash, r.Hash,
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
		r.Action.Timestamp.UTC().Format(time.RFC3339Nano))
	return err
}

const sqliteReceiptColumns = `id, action, signature, chain_position, previous_hash, hash, created_at`

func (s *SQLiteStore) Get(ctx context.Context, id string) (contracts.Receipt, error) {
	query := `SELECT ` + sqliteReceiptColumns + ` FROM receipts WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, id)
	r, err := scanReceipt(row)
	if err == sql.ErrNoRows {
		return contracts.Receipt{}, ErrNotFound
	}
	return r, err
}

func (s *SQLiteStore) List(ctx context.Context, f contracts.ReceiptFilter) ([]contracts.Receipt, error) {
	where, args := buildWhere(f, func(int) string { return "?" })
	query := `SELECT ` + sqliteReceiptColumns + ` FROM receipts` + where +
		` ORDER BY chain_position ASC` + buildPagination(f, "-1")

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	receipts := []contracts.Receipt{}
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}
	return receipts, rows.Err()
}

func (s *SQLiteStore) Last(ctx context.Context) (contracts.Receipt, bool, error) {
	query := `SELECT ` + sqliteReceiptColumns + ` FROM receipts ORDER BY chain_position DESC LIMIT 1`
	r, err := scanReceipt(s.db.QueryRowContext(ctx, query))
	if err == sql.ErrNoRows {
		return contracts.Receipt{}, false, nil
	}
	if err != nil {
		return contracts.Receipt{}, false, err
	}
	return r, true, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (uint64, error) {
	var n uint64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM receipts`).Scan(&n)
	return n, err
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (contracts.Receipt, error) {
	var (
		r          contracts.Receipt
		actionJSON string
		createdAt  string
	)
	err := row.Scan(&r.ID, &actionJSON, &r.Signature, &r.ChainPosition,
		&r.PreviousHash, &r.Hash, &createdAt)
	if err != nil {
		return contracts.Receipt{}, err
	}
	if err := json.Unmarshal([]byte(actionJSON), &r.Action); err != nil {
		return contracts.Receipt{}, fmt.Errorf("unmarshal action: %w", err)
	}
	r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return contracts.Receipt{}, fmt.Errorf("parse created_at: %w", err)
	}
	return r, nil
}

// buildWhere renders the filter as a WHERE clause. The placeholder
// function maps a 1-based argument index to the driver's placeholder
// syntax, so SQLite and Postgres share one builder.
func buildWhere(f contracts.ReceiptFilter, placeholder func(i int) string) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, clause+" "+placeholder(len(args)))
	}
	if f.Agent != "" {
		add("agent =", string(f.Agent))
	}
	if f.ActionType != "" {
		add("action_type =", f.ActionType)
	}
	if f.ContextRef != "" {
		add("context_ref =", f.ContextRef)
	}
	if f.Outcome != "" {
		add("outcome_status =", string(f.Outcome))
	}
	if f.After != nil {
		add("action_timestamp >", f.After.UTC().Format(time.RFC3339Nano))
	}
	if f.Before != nil {
		add("action_timestamp <", f.Before.UTC().Format(time.RFC3339Nano))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// buildPagination renders LIMIT/OFFSET. SQLite needs an explicit LIMIT
// before OFFSET, so noLimit supplies the driver's "unbounded" spelling
// ("-1" for SQLite, "ALL" for Postgres).
func buildPagination(f contracts.ReceiptFilter, noLimit string) string {
	var b strings.Builder
	if f.Limit > 0 {
		b.WriteString(" LIMIT " + strconv.Itoa(f.Limit))
	} else if f.Offset > 0 {
		b.WriteString(" LIMIT " + noLimit)
	}
	if f.Offset > 0 {
		b.WriteString(" OFFSET " + strconv.Itoa(f.Offset))
	}
	return b.String()
}
