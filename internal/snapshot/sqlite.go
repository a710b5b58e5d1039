package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/mathviz/mathviz/backend-go/internal/scene"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS scenes (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    area       TEXT NOT NULL,
    owner_id   TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS scenes_owner_idx ON scenes (owner_id);

CREATE TABLE IF NOT EXISTS scene_snapshots (
    id         TEXT PRIMARY KEY,
    scene_id   TEXT NOT NULL REFERENCES scenes (id) ON DELETE CASCADE,
    version    INTEGER NOT NULL,
    document   TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    UNIQUE (scene_id, version)
);
`

// SQLite is the Repository backed by a local SQLite file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at dbPath and applies
// the schema.
func OpenSQLite(ctx context.Context, dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (r *SQLite) Close() error { return r.db.Close() }

func (r *SQLite) CreateScene(ctx context.Context, s *Scene) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO scenes (id, name, area, owner_id, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `, s.ID, s.Name, string(s.Area), s.OwnerID, s.CreatedAt.UnixMilli(), s.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert scene: %w", err)
	}
	return nil
}

func (r *SQLite) GetScene(ctx context.Context, id string) (*Scene, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, name, area, owner_id, created_at, updated_at
        FROM scenes
        WHERE id = ?
    `, id)

	s, err := scanSQLiteScene(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get scene: %w", err)
	}
	return s, nil
}

func (r *SQLite) ListScenes(ctx context.Context, ownerID string) ([]Scene, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, area, owner_id, created_at, updated_at
        FROM scenes
        WHERE owner_id = ?
        ORDER BY updated_at DESC, id
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	defer rows.Close()

	scenes := []Scene{}
	for rows.Next() {
		s, err := scanSQLiteScene(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		scenes = append(scenes, *s)
	}
	return scenes, rows.Err()
}

func (r *SQLite) DeleteScene(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scenes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete scene: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLite) AppendSnapshot(ctx context.Context, snap *Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
        INSERT INTO scene_snapshots (id, scene_id, version, document, created_at)
        SELECT ?, ?, COALESCE(MAX(version), 0) + 1, ?, ?
        FROM scene_snapshots
        WHERE scene_id = ?
        RETURNING version
    `, snap.ID, snap.SceneID, string(snap.Document), snap.CreatedAt.UnixMilli(), snap.SceneID)
	if err := row.Scan(&snap.Version); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE scenes SET updated_at = ? WHERE id = ?`,
		snap.CreatedAt.UnixMilli(), snap.SceneID); err != nil {
		return fmt.Errorf("touch scene: %w", err)
	}
	return tx.Commit()
}

func (r *SQLite) LatestSnapshot(ctx context.Context, sceneID string) (*Snapshot, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, scene_id, version, document, created_at
        FROM scene_snapshots
        WHERE scene_id = ?
        ORDER BY version DESC
        LIMIT 1
    `, sceneID)

	var (
		snap Snapshot
		doc  string
		at   int64
	)
	if err := row.Scan(&snap.ID, &snap.SceneID, &snap.Version, &doc, &at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	snap.Document = []byte(doc)
	snap.CreatedAt = time.UnixMilli(at).UTC()
	return &snap, nil
}

func (r *SQLite) PruneSnapshots(ctx context.Context, sceneID string, keep int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
        DELETE FROM scene_snapshots
        WHERE scene_id = ? AND version <= (
            SELECT COALESCE(MAX(version), 0) - ? FROM scene_snapshots WHERE scene_id = ?
        )
    `, sceneID, keep, sceneID)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteScene(row rowScanner) (*Scene, error) {
	var (
		s                Scene
		area             string
		created, updated int64
	)
	if err := row.Scan(&s.ID, &s.Name, &area, &s.OwnerID, &created, &updated); err != nil {
		return nil, err
	}
	s.Area = scene.Area(area)
	s.CreatedAt = time.UnixMilli(created).UTC()
	s.UpdatedAt = time.UnixMilli(updated).UTC()
	return &s, nil
}
