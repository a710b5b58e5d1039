package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mathviz/mathviz/backend-go/internal/scene"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS scenes (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    area       TEXT NOT NULL,
    owner_id   TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS scenes_owner_idx ON scenes (owner_id);

CREATE TABLE IF NOT EXISTS scene_snapshots (
    id         TEXT PRIMARY KEY,
    scene_id   TEXT NOT NULL REFERENCES scenes (id) ON DELETE CASCADE,
    version    INTEGER NOT NULL,
    document   JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    UNIQUE (scene_id, version)
);
`

// Postgres is the Repository backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (r *Postgres) Close() error {
	r.pool.Close()
	return nil
}

func (r *Postgres) CreateScene(ctx context.Context, s *Scene) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO scenes (id, name, area, owner_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, s.ID, s.Name, string(s.Area), s.OwnerID, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert scene: %w", err)
	}
	return nil
}

func (r *Postgres) GetScene(ctx context.Context, id string) (*Scene, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT id, name, area, owner_id, created_at, updated_at
        FROM scenes
        WHERE id = $1
    `, id)

	s, err := scanPostgresScene(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get scene: %w", err)
	}
	return s, nil
}

func (r *Postgres) ListScenes(ctx context.Context, ownerID string) ([]Scene, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, name, area, owner_id, created_at, updated_at
        FROM scenes
        WHERE owner_id = $1
        ORDER BY updated_at DESC, id
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	defer rows.Close()

	scenes := []Scene{}
	for rows.Next() {
		s, err := scanPostgresScene(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		scenes = append(scenes, *s)
	}
	return scenes, rows.Err()
}

func (r *Postgres) DeleteScene(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM scenes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete scene: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Postgres) AppendSnapshot(ctx context.Context, snap *Snapshot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serializes concurrent saves of one scene on the version sequence.
	if _, err := tx.Exec(ctx, `SELECT 1 FROM scenes WHERE id = $1 FOR UPDATE`, snap.SceneID); err != nil {
		return fmt.Errorf("lock scene: %w", err)
	}

	err = tx.QueryRow(ctx, `
        INSERT INTO scene_snapshots (id, scene_id, version, document, created_at)
        SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3, $4
        FROM scene_snapshots
        WHERE scene_id = $2
        RETURNING version
    `, snap.ID, snap.SceneID, []byte(snap.Document), snap.CreatedAt).Scan(&snap.Version)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE scenes SET updated_at = $1 WHERE id = $2`, snap.CreatedAt, snap.SceneID); err != nil {
		return fmt.Errorf("touch scene: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *Postgres) LatestSnapshot(ctx context.Context, sceneID string) (*Snapshot, error) {
	var snap Snapshot
	err := r.pool.QueryRow(ctx, `
        SELECT id, scene_id, version, document, created_at
        FROM scene_snapshots
        WHERE scene_id = $1
        ORDER BY version DESC
        LIMIT 1
    `, sceneID).Scan(&snap.ID, &snap.SceneID, &snap.Version, &snap.Document, &snap.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return &snap, nil
}

func (r *Postgres) PruneSnapshots(ctx context.Context, sceneID string, keep int) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
        DELETE FROM scene_snapshots
        WHERE scene_id = $1 AND version <= (
            SELECT COALESCE(MAX(version), 0) - $2 FROM scene_snapshots WHERE scene_id = $1
        )
    `, sceneID, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanPostgresScene(row pgx.Row) (*Scene, error) {
	var (
		s    Scene
		area string
	)
	if err := row.Scan(&s.ID, &s.Name, &area, &s.OwnerID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Area = scene.Area(area)
	return &s, nil
}
