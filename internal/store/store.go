package store

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Store is the Postgres persistence layer: users, traces, and versioned
// trace document snapshots. Missing rows surface as pgx.ErrNoRows; callers
// map that to their own sentinels.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL, verifies the connection, and applies the
// embedded schema. The schema is all IF NOT EXISTS, so startup is idempotent.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

type User struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
	CreatedAt   time.Time
}

type Trace struct {
	ID        string
	Name      string
	OwnerID   string
	ImageID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Snapshot struct {
	ID        string
	TraceID   string
	Version   int32
	Document  []byte
	CreatedAt time.Time
}

type CreateUserParams struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
}

func (s *Store) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, password, display_name)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, email, password, display_name, created_at`,
		arg.ID, arg.Email, arg.Password, arg.DisplayName)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, email, password, display_name, created_at
		 FROM users WHERE email = $1`, email)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

func (s *Store) GetUserByID(ctx context.Context, id string) (User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, email, password, display_name, created_at
		 FROM users WHERE id = $1`, id)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

type CreateTraceParams struct {
	ID      string
	Name    string
	OwnerID string
	ImageID string
}

func (s *Store) CreateTrace(ctx context.Context, arg CreateTraceParams) (Trace, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO traces (id, name, owner_id, image_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, name, owner_id, image_id, created_at, updated_at`,
		arg.ID, arg.Name, arg.OwnerID, arg.ImageID)
	var t Trace
	err := row.Scan(&t.ID, &t.Name, &t.OwnerID, &t.ImageID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s *Store) GetTrace(ctx context.Context, id string) (Trace, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, owner_id, image_id, created_at, updated_at
		 FROM traces WHERE id = $1`, id)
	var t Trace
	err := row.Scan(&t.ID, &t.Name, &t.OwnerID, &t.ImageID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s *Store) ListTracesForUser(ctx context.Context, ownerID string) ([]Trace, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, owner_id, image_id, created_at, updated_at
		 FROM traces WHERE owner_id = $1
		 ORDER BY updated_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var traces []Trace
	for rows.Next() {
		var t Trace
		if err := rows.Scan(&t.ID, &t.Name, &t.OwnerID, &t.ImageID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		traces = append(traces, t)
	}
	return traces, rows.Err()
}

func (s *Store) DeleteTrace(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM traces WHERE id = $1`, id)
	return err
}

type CreateSnapshotParams struct {
	ID       string
	TraceID  string
	Document []byte
}

// CreateSnapshot inserts the next version of a trace's document and bumps
// the trace's updated_at, all in one statement.
func (s *Store) CreateSnapshot(ctx context.Context, arg CreateSnapshotParams) (Snapshot, error) {
	row := s.pool.QueryRow(ctx,
		`WITH next AS (
		     SELECT COALESCE(MAX(version), 0) + 1 AS v
		     FROM trace_snapshots WHERE trace_id = $2
		 ), bump AS (
		     UPDATE traces SET updated_at = now() WHERE id = $2
		 )
		 INSERT INTO trace_snapshots (id, trace_id, version, document)
		 SELECT $1, $2, next.v, $3 FROM next
		 RETURNING id, trace_id, version, document, created_at`,
		arg.ID, arg.TraceID, arg.Document)
	var snap Snapshot
	err := row.Scan(&snap.ID, &snap.TraceID, &snap.Version, &snap.Document, &snap.CreatedAt)
	return snap, err
}

func (s *Store) GetLatestSnapshot(ctx context.Context, traceID string) (Snapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, trace_id, version, document, created_at
		 FROM trace_snapshots WHERE trace_id = $1
		 ORDER BY version DESC LIMIT 1`, traceID)
	var snap Snapshot
	err := row.Scan(&snap.ID, &snap.TraceID, &snap.Version, &snap.Document, &snap.CreatedAt)
	return snap, err
}
