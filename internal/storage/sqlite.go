package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"modbridge/internal/mapping"
)

// SQLiteBackend keeps mappings in a SQLite table. Every save replaces the
// table contents in one transaction.
type SQLiteBackend struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteBackend creates or opens a SQLite database.
func NewSQLiteBackend(path string, logger *zap.Logger) (*SQLiteBackend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	b := &SQLiteBackend{db: db, logger: logger}
	if err := b.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return b, nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func (b *SQLiteBackend) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS mappings (
			id TEXT PRIMARY KEY,
			java_signature TEXT NOT NULL UNIQUE,
			bedrock_equivalent TEXT,
			conversion_type TEXT,
			notes TEXT,
			example_usage TEXT,
			version,
			created_at TEXT,
			last_updated TEXT,
			deprecated INTEGER DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_mappings_type ON mappings(conversion_type);`,
	}

	for _, q := range queries {
		if _, err := b.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Load reads every row. Rows that fail the tolerance rules or validation are
// skipped with a warning.
func (b *SQLiteBackend) Load(ctx context.Context) ([]mapping.APIMapping, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT id, java_signature, bedrock_equivalent, conversion_type, notes, example_usage,
		       CAST(version AS TEXT), created_at, last_updated, deprecated
		FROM mappings ORDER BY java_signature
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []mapping.APIMapping
	for rows.Next() {
		var (
			r                                      mapping.Record
			target, ctype, notes, example, version sql.NullString
			createdAt, lastUpdated                 sql.NullString
			deprecated                             sql.NullBool
		)
		if err := rows.Scan(&r.ID, &r.JavaSignature, &target, &ctype, &notes, &example,
			&version, &createdAt, &lastUpdated, &deprecated); err != nil {
			return nil, err
		}
		r.BedrockEquivalent = target.String
		r.ConversionType = mapping.ConversionType(ctype.String)
		r.Notes = notes.String
		r.ExampleUsage = example.String
		r.Version = rawVersion(version)
		r.CreatedAt = createdAt.String
		r.LastUpdated = lastUpdated.String
		r.Deprecated = deprecated.Bool

		m, err := mapping.FromRecord(r)
		if err == nil {
			err = mapping.Validate(m)
		}
		if err != nil {
			b.logger.Warn("skipping invalid mapping row", zap.String("id", r.ID), zap.Error(err))
			continue
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func rawVersion(v sql.NullString) json.RawMessage {
	if !v.Valid {
		return nil
	}
	if _, err := strconv.Atoi(v.String); err == nil {
		return json.RawMessage(v.String)
	}
	return json.RawMessage(strconv.Quote(v.String))
}

// Save replaces the table contents with the given snapshot.
func (b *SQLiteBackend) Save(ctx context.Context, mappings []mapping.APIMapping) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM mappings`); err != nil {
		return fmt.Errorf("failed to clear mappings: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO mappings (id, java_signature, bedrock_equivalent, conversion_type, notes, example_usage,
		                      version, created_at, last_updated, deprecated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range mappings {
		if _, err := stmt.ExecContext(ctx, m.ID, m.JavaSignature, m.BedrockEquivalent, string(m.ConversionType),
			m.Notes, m.ExampleUsage, m.Version,
			m.CreatedAt.UTC().Format(time.RFC3339Nano), m.LastUpdated.UTC().Format(time.RFC3339Nano),
			m.Deprecated); err != nil {
			return fmt.Errorf("failed to insert mapping %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}
