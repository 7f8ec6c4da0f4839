package linkage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	_ "github.com/lib/pq" // Driver Postgres
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

// PostgresStore grava referências numa tabela (reference TEXT PK, body TEXT).
type PostgresStore struct {
	db    *sql.DB
	table string
}

// OpenPostgres abre a conexão usando o driver lib/pq.
func OpenPostgres(dsn, table string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir conexão SQL: %w", err)
	}
	return NewPostgresStore(db, table)
}

func NewPostgresStore(db *sql.DB, table string) (*PostgresStore, error) {
	if table == "" {
		table = "mock_references"
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("nome de tabela inválido: %q", table)
	}
	return &PostgresStore{db: db, table: table}, nil
}

// EnsureSchema cria a tabela caso ainda não exista.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	reference TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, p.table)
	if _, err := p.db.ExecContext(ctx, query); err != nil {
		return backendError("postgres", "CREATE TABLE", err)
	}
	return nil
}

func (p *PostgresStore) Put(ctx context.Context, body json.RawMessage) (string, error) {
	query := fmt.Sprintf(`INSERT INTO %s (reference, body) VALUES ($1, $2) ON CONFLICT (reference) DO NOTHING`, p.table)
	payload := string(body)

	return issue(ctx, func(ctx context.Context, ref string) (bool, error) {
		res, err := p.db.ExecContext(ctx, query, ref, payload)
		if err != nil {
			return false, backendError("postgres", "INSERT", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return false, backendError("postgres", "RowsAffected", err)
		}
		return n == 1, nil
	})
}

func (p *PostgresStore) Get(ctx context.Context, reference string) (json.RawMessage, bool, error) {
	query := fmt.Sprintf(`SELECT body FROM %s WHERE reference = $1`, p.table)

	var body []byte
	err := p.db.QueryRowContext(ctx, query, reference).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, backendError("postgres", "SELECT", err)
	}
	return json.RawMessage(body), true, nil
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}
