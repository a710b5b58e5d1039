// Package snapshot persists scenes and the versioned documents saved for
// them. Two repositories share one contract: SQLite for a local install and
// Postgres for a deployed one.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mathviz/mathviz/backend-go/internal/scene"
)

var (
	ErrNotFound    = errors.New("scene not found")
	ErrNoSnapshot  = errors.New("scene has no snapshot")
	ErrForbidden   = errors.New("forbidden")
	ErrInvalidArea = errors.New("invalid area")
	ErrUnsupported = errors.New("unsupported database url")
)

// Scene is one saved canvas.
type Scene struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Area      scene.Area `json:"area"`
	OwnerID   string     `json:"ownerId"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Snapshot is one saved version of a scene's document.
type Snapshot struct {
	ID        string          `json:"id"`
	SceneID   string          `json:"sceneId"`
	Version   int             `json:"version"`
	Document  json.RawMessage `json:"document"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Repository stores scenes and snapshots. Lookups of missing rows return
// ErrNotFound, or ErrNoSnapshot for a scene without documents.
type Repository interface {
	CreateScene(ctx context.Context, s *Scene) error
	GetScene(ctx context.Context, id string) (*Scene, error)
	ListScenes(ctx context.Context, ownerID string) ([]Scene, error)
	DeleteScene(ctx context.Context, id string) error

	// AppendSnapshot stores snap under the next version of its scene and
	// sets snap.Version.
	AppendSnapshot(ctx context.Context, snap *Snapshot) error
	LatestSnapshot(ctx context.Context, sceneID string) (*Snapshot, error)
	// PruneSnapshots keeps only the newest keep versions.
	PruneSnapshots(ctx context.Context, sceneID string, keep int) (int64, error)

	Close() error
}
