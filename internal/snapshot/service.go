package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mathviz/mathviz/backend-go/internal/scene"
	"github.com/mathviz/mathviz/backend-go/internal/typeid"
)

// DefaultKeep is how many versions of a scene are retained.
const DefaultKeep = 50

type Service struct {
	repo Repository
	keep int
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, keep: DefaultKeep, now: time.Now}
}

// Create stores a new scene owned by ownerID, seeded with an empty document.
func (s *Service) Create(ctx context.Context, name string, area scene.Area, ownerID string) (*Scene, error) {
	if !area.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidArea, area)
	}

	now := s.now().UTC()
	sc := &Scene{
		ID:        typeid.NewSceneID(),
		Name:      name,
		Area:      area,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateScene(ctx, sc); err != nil {
		return nil, fmt.Errorf("create scene: %w", err)
	}

	if _, err := s.append(ctx, sc.ID, scene.NewEmptyDocument(area)); err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}
	return sc, nil
}

func (s *Service) Get(ctx context.Context, sceneID, userID string) (*Scene, error) {
	return s.owned(ctx, sceneID, userID)
}

func (s *Service) List(ctx context.Context, userID string) ([]Scene, error) {
	scenes, err := s.repo.ListScenes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	return scenes, nil
}

func (s *Service) Delete(ctx context.Context, sceneID, userID string) error {
	if _, err := s.owned(ctx, sceneID, userID); err != nil {
		return err
	}
	return s.repo.DeleteScene(ctx, sceneID)
}

// Latest returns the newest snapshot of a scene.
func (s *Service) Latest(ctx context.Context, sceneID, userID string) (*Snapshot, error) {
	if _, err := s.owned(ctx, sceneID, userID); err != nil {
		return nil, err
	}
	return s.repo.LatestSnapshot(ctx, sceneID)
}

// LatestDocument decodes the newest snapshot of a scene.
func (s *Service) LatestDocument(ctx context.Context, sceneID, userID string) (*scene.Document, error) {
	snap, err := s.Latest(ctx, sceneID, userID)
	if err != nil {
		return nil, err
	}
	doc, err := scene.Decode(bytes.NewReader(snap.Document))
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", snap.ID, err)
	}
	return doc, nil
}

// Save stores doc as the next version of a scene. The document must belong
// to the scene's area.
func (s *Service) Save(ctx context.Context, sceneID, userID string, doc *scene.Document) (*Snapshot, error) {
	sc, err := s.owned(ctx, sceneID, userID)
	if err != nil {
		return nil, err
	}
	if err := doc.CheckArea(sc.Area); err != nil {
		return nil, err
	}
	return s.append(ctx, sceneID, doc)
}

func (s *Service) append(ctx context.Context, sceneID string, doc *scene.Document) (*Snapshot, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	snap := &Snapshot{
		ID:        typeid.NewSnapshotID(),
		SceneID:   sceneID,
		Document:  data,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.AppendSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("append snapshot: %w", err)
	}

	if snap.Version > s.keep {
		n, err := s.repo.PruneSnapshots(ctx, sceneID, s.keep)
		if err != nil {
			slog.Warn("prune snapshots failed", "scene", sceneID, "error", err)
		} else if n > 0 {
			slog.Debug("pruned snapshots", "scene", sceneID, "removed", n)
		}
	}
	return snap, nil
}

func (s *Service) owned(ctx context.Context, sceneID, userID string) (*Scene, error) {
	sc, err := s.repo.GetScene(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	if sc.OwnerID != userID {
		return nil, ErrForbidden
	}
	return sc, nil
}
