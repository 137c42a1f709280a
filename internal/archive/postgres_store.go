package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps the project collection as a single jsonb row. It exists
// for deployments that already run postgres for the users table and do not
// want a second datastore.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const q = `
create table if not exists archive_snapshots (
  id int primary key default 1,
  data jsonb not null,
  updated_at timestamptz not null default now(),
  constraint single_row check (id = 1)
);
`
	if _, err := s.db.Exec(ctx, q); err != nil {
		return fmt.Errorf("ensure archive schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) ([]Project, error) {
	const q = `select data from archive_snapshots where id = 1;`

	var data []byte
	err := s.db.QueryRow(ctx, q).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return []Project{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var projects []Project
	if err := json.Unmarshal(data, &projects); err != nil {
		log.Printf("[warn] archive snapshot is corrupt, starting empty: %v", err)
		return []Project{}, nil
	}
	return projects, nil
}

func (s *PostgresStore) Save(ctx context.Context, projects []Project) error {
	data, err := json.Marshal(projects)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	const q = `
insert into archive_snapshots (id, data, updated_at)
values (1, $1, now())
on conflict (id) do update set data = excluded.data, updated_at = now();
`
	if _, err := s.db.Exec(ctx, q, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
