package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists records in Postgres. One table holds every collection;
// attributes live in a jsonb column and a bigserial keeps insertion order
// for stable pagination.
type PGStore struct {
	pool *pgxpool.Pool
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS records (
	collection text NOT NULL,
	id uuid PRIMARY KEY,
	attrs jsonb NOT NULL,
	position bigserial
);
CREATE INDEX IF NOT EXISTS records_collection_position_idx ON records (collection, position);
`

// NewPGStore connects and ensures the schema exists.
func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("upstream: connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("upstream: ensure schema: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

// Close releases the connection pool.
func (p *PGStore) Close() {
	p.pool.Close()
}

func (p *PGStore) List(ctx context.Context, collection string, page, perPage int) ([]Record, int, error) {
	var total int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM records WHERE collection = $1`, collection).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	if offset < 0 {
		offset = 0
	}
	rows, err := p.pool.Query(ctx,
		`SELECT id, attrs FROM records WHERE collection = $1 ORDER BY position LIMIT $2 OFFSET $3`,
		collection, perPage, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

func (p *PGStore) Get(ctx context.Context, collection, id string) (Record, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, attrs FROM records WHERE collection = $1 AND id = $2`, collection, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (p *PGStore) Create(ctx context.Context, collection string, attrs map[string]any) (Record, error) {
	payload, err := json.Marshal(attrs)
	if err != nil {
		return Record{}, err
	}
	id := uuid.NewString()
	if _, err := p.pool.Exec(ctx,
		`INSERT INTO records (collection, id, attrs) VALUES ($1, $2, $3)`,
		collection, id, payload); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Record{}, ErrConflict
		}
		return Record{}, err
	}
	return Record{ID: id, Attrs: attrs}, nil
}

func (p *PGStore) Update(ctx context.Context, collection, id string, attrs map[string]any) (Record, error) {
	payload, err := json.Marshal(attrs)
	if err != nil {
		return Record{}, err
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE records SET attrs = $3 WHERE collection = $1 AND id = $2`,
		collection, id, payload)
	if err != nil {
		return Record{}, err
	}
	if tag.RowsAffected() == 0 {
		return Record{}, ErrNotFound
	}
	return Record{ID: id, Attrs: attrs}, nil
}

func (p *PGStore) Delete(ctx context.Context, collection, id string) error {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM records WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PGStore) FindByAttr(ctx context.Context, collection, key, value string) (Record, bool, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, attrs FROM records WHERE collection = $1 AND attrs->>$2 = $3 ORDER BY position LIMIT 1`,
		collection, key, value)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	var payload []byte
	if err := row.Scan(&rec.ID, &payload); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(payload, &rec.Attrs); err != nil {
		return Record{}, err
	}
	return rec, nil
}
