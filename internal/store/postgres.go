package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// validateTableName guards the identifiers interpolated into DDL and queries.
func validateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}

// Postgres stores each record as JSONB alongside its hash, which is indexed
// for exact-match lookups.
type Postgres struct {
	db    *sql.DB
	table string
}

// OpenPostgres connects with lib/pq and ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn, table string) (*Postgres, error) {
	if err := validateTableName(table); err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	p, err := NewPostgres(ctx, db, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgres wraps an open database.
func NewPostgres(ctx context.Context, db *sql.DB, table string) (*Postgres, error) {
	if err := validateTableName(table); err != nil {
		return nil, err
	}
	p := &Postgres{db: db, table: table}
	if err := p.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id UUID PRIMARY KEY,
	hash TEXT NOT NULL,
	confidence SMALLINT NOT NULL,
	ip_hash TEXT NOT NULL DEFAULT '',
	received_at TIMESTAMPTZ NOT NULL,
	record JSONB NOT NULL
)`, p.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_hash ON %s (hash)`, p.table, p.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_received_at ON %s (received_at DESC)`, p.table, p.table),
	}
	for _, s := range stmts {
		if _, err := p.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("ensure schema for %s: %w", p.table, err)
		}
	}
	return nil
}

func (p *Postgres) Save(ctx context.Context, r Record) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	q := fmt.Sprintf(`INSERT INTO %s (id, hash, confidence, ip_hash, received_at, record) VALUES ($1, $2, $3, $4, $5, $6)`, p.table)
	if _, err := p.db.ExecContext(ctx, q,
		r.ID, r.Fingerprint.Hash, r.Fingerprint.Confidence, r.IPHash, r.ReceivedAt, doc,
	); err != nil {
		return fmt.Errorf("insert record %s: %w", r.ID, err)
	}
	return nil
}

// Get looks a record up by ID. IDs that are not UUIDs cannot exist in the
// table and are reported as not found without a query.
func (p *Postgres) Get(ctx context.Context, id string) (Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, ErrNotFound
	}
	q := fmt.Sprintf(`SELECT record FROM %s WHERE id = $1`, p.table)
	var doc []byte
	if err := p.db.QueryRowContext(ctx, q, id).Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("get record %s: %w", id, err)
	}
	var r Record
	if err := json.Unmarshal(doc, &r); err != nil {
		return Record{}, fmt.Errorf("decode record %s: %w", id, err)
	}
	return r, nil
}

func (p *Postgres) FindByHash(ctx context.Context, hash string) ([]Record, error) {
	q := fmt.Sprintf(`SELECT record FROM %s WHERE hash = $1 ORDER BY received_at DESC`, p.table)
	return p.query(ctx, q, hash)
}

func (p *Postgres) Recent(ctx context.Context, n int) ([]Record, error) {
	if n <= 0 {
		q := fmt.Sprintf(`SELECT record FROM %s ORDER BY received_at DESC`, p.table)
		return p.query(ctx, q)
	}
	q := fmt.Sprintf(`SELECT record FROM %s ORDER BY received_at DESC LIMIT $1`, p.table)
	return p.query(ctx, q, n)
}

func (p *Postgres) query(ctx context.Context, q string, args ...any) ([]Record, error) {
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", p.table, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan %s: %w", p.table, err)
		}
		var r Record
		if err := json.Unmarshal(doc, &r); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }
func (p *Postgres) Close() error                   { return p.db.Close() }
