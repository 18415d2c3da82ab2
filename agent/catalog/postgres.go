package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	contractx "github.com/zensbot/leadflow/agent/contract"
)

type PostgresConfig struct {
	DSN          string        `envconfig:"DSN" split_words:"true" required:"true"`
	QueryTimeout time.Duration `envconfig:"QUERY_TIMEOUT" split_words:"true" default:"5s"`
}

// knownTables whitelists what GetRows will touch; table names come from
// internal callers only, but the backend is shared with other tooling.
var knownTables = map[string]bool{
	TableCourseDetails: true,
	TableCourseLinks:   true,
	TableFAQs:          true,
	TableCompanyInfo:   true,
}

// PostgresSource reads catalog tables from the Supabase Postgres backend.
type PostgresSource struct {
	db      *bun.DB
	timeout time.Duration
}

var _ contractx.RowSource = (*PostgresSource)(nil)

func NewPostgresSource(cfg PostgresConfig) (*PostgresSource, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	return &PostgresSource{
		db:      db,
		timeout: timeout,
	}, nil
}

func (p *PostgresSource) GetRows(ctx context.Context, table string) ([]map[string]any, error) {
	if !knownTables[table] {
		return nil, fmt.Errorf("unknown catalog table %q", table)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var rows []map[string]any
	if err := p.db.NewSelect().Table(table).Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	return rows, nil
}

func (p *PostgresSource) Close() error {
	return p.db.Close()
}
