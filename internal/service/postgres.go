package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/optimusx/nl2sql/internal/nl2sql"
	"github.com/rs/zerolog/log"
)

// PostgresConfig carries the five connection parameters read at startup
type PostgresConfig struct {
	Database string
	User     string
	Password string
	Host     string
	Port     string
}

// DSN renders a keyword/value connection string. Empty values are left out so
// libpq-style defaults apply.
func (c PostgresConfig) DSN() string {
	pairs := []struct{ key, value string }{
		{"dbname", c.Database},
		{"user", c.User},
		{"password", c.Password},
		{"host", c.Host},
		{"port", c.Port},
	}
	var parts []string
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		parts = append(parts, p.key+"="+quoteDSNValue(p.value))
	}
	return strings.Join(parts, " ")
}

func quoteDSNValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// ErrNoResults is returned for statements that produce no result set
var ErrNoResults = errors.New("no results to fetch")

// Opener returns a database handle that is used for exactly one call and then closed
type Opener func(ctx context.Context) (*sql.DB, error)

// PostgresExecutor runs each statement on its own connection. There is no
// pool shared between calls.
type PostgresExecutor struct {
	open Opener
}

func NewPostgresExecutor(cfg PostgresConfig) *PostgresExecutor {
	return &PostgresExecutor{open: pgxOpener(cfg)}
}

// NewPostgresExecutorWithOpener is used where the handle comes from elsewhere
// (tests, alternative drivers).
func NewPostgresExecutorWithOpener(open Opener) *PostgresExecutor {
	return &PostgresExecutor{open: open}
}

func pgxOpener(cfg PostgresConfig) Opener {
	return func(ctx context.Context) (*sql.DB, error) {
		connCfg, err := pgx.ParseConfig(cfg.DSN())
		if err != nil {
			return nil, err
		}
		db := stdlib.OpenDB(*connCfg)
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return db, nil
	}
}

// Execute implements nl2sql.Executor
func (e *PostgresExecutor) Execute(ctx context.Context, query string) nl2sql.ExecutionResult {
	columns, rows, err := e.run(ctx, query)
	if err != nil {
		log.Debug().Err(err).Str("sql", query).Msg("execution failed")
		return nl2sql.Failure(query, err)
	}
	return nl2sql.Success(query, columns, rows)
}

func (e *PostgresExecutor) run(ctx context.Context, query string) ([]string, []map[string]any, error) {
	db, err := e.open(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("closing database handle")
		}
	}()

	// Never committed: anything the statement writes is discarded on return.
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	if len(columns) == 0 {
		return nil, nil, ErrNoResults
	}

	out := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return columns, out, nil
}

// Ping opens a fresh connection, checks it and closes it again
func (e *PostgresExecutor) Ping(ctx context.Context) error {
	db, err := e.open(ctx)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	default:
		return val
	}
}
