package repo

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/task-tracker/internal/model"
)

//go:embed schema.sql
var schema string

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

type SnapshotRepo struct { // snapshot storage on PostgreSQL
	pool *pgxpool.Pool
}

func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{
		pool: pool,
	}
}

// Migrate creates the snapshots table when it is missing.
func (r *SnapshotRepo) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

// Save stores s under a fresh id and returns it with ID and TakenAt set.
func (r *SnapshotRepo) Save(ctx context.Context, s model.Snapshot) (model.Snapshot, error) {
	s.ID = uuid.NewString()
	if s.TakenAt.IsZero() {
		s.TakenAt = time.Now().UTC()
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return s, fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO snapshots (id, taken_at, payload)
		VALUES ($1::uuid, $2, $3)
	`, s.ID, s.TakenAt, payload)
	return s, r.mapError(err)
}

func (r *SnapshotRepo) Latest(ctx context.Context) (model.Snapshot, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
		SELECT id::text, payload
		FROM snapshots
		ORDER BY taken_at DESC
		LIMIT 1
	`))
}

func (r *SnapshotRepo) Get(ctx context.Context, id string) (model.Snapshot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Snapshot{}, ErrorNotFound
	}
	return r.scanOne(r.pool.QueryRow(ctx, `
		SELECT id::text, payload
		FROM snapshots
		WHERE id = $1::uuid
	`, id))
}

// Prune deletes everything but the newest keep snapshots.
func (r *SnapshotRepo) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	cmd, err := r.pool.Exec(ctx, `
		DELETE FROM snapshots
		WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY taken_at DESC LIMIT $1
		)
	`, keep)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *SnapshotRepo) scanOne(row pgx.Row) (model.Snapshot, error) {
	var (
		s       model.Snapshot
		id      string
		payload []byte
	)
	err := row.Scan(&id, &payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, ErrorNotFound
	}
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(payload, &s); err != nil {
		return s, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	s.ID = id
	return s, nil
}

func (r *SnapshotRepo) mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return ErrorConflict
		}
	}
	return err
}
