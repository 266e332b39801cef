package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SQLStore keeps documents as JSON text in a single documents table. It works
// with the sqlite and pgx drivers; the schema is created by the db migrations.
type SQLStore struct {
	db     *sqlx.DB
	driver string
}

type documentRow struct {
	ID   string `db:"id"`
	Data string `db:"data"`
}

func NewSQLStore(db *sqlx.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) Get(ctx context.Context, collection, id string) (Document, bool, error) {
	var data string
	query := `SELECT data FROM documents WHERE collection = $1 AND id = $2`

	err := s.db.GetContext(ctx, &data, query, collection, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	doc, err := decode([]byte(data))
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

func (s *SQLStore) Set(ctx context.Context, collection, id string, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s/%s: %w", collection, id, err)
	}

	now := time.Now().UTC()
	query := `INSERT INTO documents (collection, id, data, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`

	_, err = s.db.ExecContext(ctx, query, collection, id, string(data), now, now)
	return err
}

func (s *SQLStore) Delete(ctx context.Context, collection, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`
	_, err := s.db.ExecContext(ctx, query, collection, id)
	return err
}

func (s *SQLStore) List(ctx context.Context, collection string) ([]Snapshot, error) {
	var rows []documentRow
	query := `SELECT id, data FROM documents WHERE collection = $1 ORDER BY created_at ASC, id ASC`

	err := s.db.SelectContext(ctx, &rows, query, collection)
	if err != nil {
		return nil, err
	}
	return snapshots(rows), nil
}

func (s *SQLStore) WhereEqual(ctx context.Context, collection, field, value string) ([]Snapshot, error) {
	if !ValidField(field) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidField, field)
	}

	var rows []documentRow
	var query string
	var path string

	switch s.driver {
	case "pgx", "postgres":
		query = `SELECT id, data FROM documents
		         WHERE collection = $1 AND (data::jsonb ->> $2) = $3
		         ORDER BY created_at ASC, id ASC`
		path = field
	default:
		query = `SELECT id, data FROM documents
		         WHERE collection = $1 AND json_extract(data, $2) = $3
		         ORDER BY created_at ASC, id ASC`
		path = "$." + field
	}

	err := s.db.SelectContext(ctx, &rows, query, collection, path, value)
	if err != nil {
		return nil, err
	}
	return snapshots(rows), nil
}

func (s *SQLStore) NewKey(ctx context.Context, collection string) string {
	return uuid.NewString()
}

// Close is a no-op; the connection pool is owned by the app.
func (s *SQLStore) Close() error {
	return nil
}

func snapshots(rows []documentRow) []Snapshot {
	out := make([]Snapshot, 0, len(rows))
	for _, row := range rows {
		doc, err := decode([]byte(row.Data))
		if err != nil {
			out = append(out, Snapshot{ID: row.ID, Err: err})
			continue
		}
		out = append(out, Snapshot{ID: row.ID, Data: doc})
	}
	return out
}
