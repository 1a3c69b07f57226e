package trace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jacob1911/pencil-app/internal/document"
	"github.com/jacob1911/pencil-app/internal/store"
	"github.com/jacob1911/pencil-app/internal/typeid"
)

var (
	ErrNotFound  = errors.New("trace not found")
	ErrForbidden = errors.New("forbidden")
)

// TraceStore is the slice of the persistence layer the trace service needs.
type TraceStore interface {
	CreateTrace(ctx context.Context, arg store.CreateTraceParams) (store.Trace, error)
	GetTrace(ctx context.Context, id string) (store.Trace, error)
	ListTracesForUser(ctx context.Context, ownerID string) ([]store.Trace, error)
	DeleteTrace(ctx context.Context, id string) error
	CreateSnapshot(ctx context.Context, arg store.CreateSnapshotParams) (store.Snapshot, error)
	GetLatestSnapshot(ctx context.Context, traceID string) (store.Snapshot, error)
}

type Service struct {
	traces TraceStore
}

func NewService(traces TraceStore) *Service {
	return &Service{traces: traces}
}

type Trace struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	ImageID   string `json:"imageId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Create stores a new trace for ownerID and seeds its first document
// snapshot. imageID may be empty; the image can be bound later over the
// live session.
func (s *Service) Create(ctx context.Context, ownerID, name, imageID string, width, height int) (*Trace, error) {
	traceID := typeid.NewTraceID()

	dbTrace, err := s.traces.CreateTrace(ctx, store.CreateTraceParams{
		ID:      traceID,
		Name:    name,
		OwnerID: ownerID,
		ImageID: imageID,
	})
	if err != nil {
		return nil, fmt.Errorf("create trace: %w", err)
	}

	emptyDoc := document.NewEmptyDocument(imageID, width, height)
	docJSON, err := json.Marshal(emptyDoc)
	if err != nil {
		return nil, fmt.Errorf("marshal empty document: %w", err)
	}

	_, err = s.traces.CreateSnapshot(ctx, store.CreateSnapshotParams{
		ID:       typeid.NewSnapshotID(),
		TraceID:  traceID,
		Document: docJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return dbTraceToTrace(dbTrace), nil
}

func (s *Service) Get(ctx context.Context, traceID, userID string) (*Trace, error) {
	dbTrace, err := s.traces.GetTrace(ctx, traceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get trace: %w", err)
	}

	if dbTrace.OwnerID != userID {
		return nil, ErrForbidden
	}

	return dbTraceToTrace(dbTrace), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Trace, error) {
	dbTraces, err := s.traces.ListTracesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list traces: %w", err)
	}

	traces := make([]Trace, len(dbTraces))
	for i, t := range dbTraces {
		traces[i] = *dbTraceToTrace(t)
	}

	return traces, nil
}

func (s *Service) Delete(ctx context.Context, traceID, userID string) error {
	dbTrace, err := s.traces.GetTrace(ctx, traceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get trace: %w", err)
	}

	if dbTrace.OwnerID != userID {
		return ErrForbidden
	}

	return s.traces.DeleteTrace(ctx, traceID)
}

// GetLatestSnapshot returns the newest document snapshot as raw JSON for
// the HTTP API. Access is owner-only.
func (s *Service) GetLatestSnapshot(ctx context.Context, traceID, userID string) (json.RawMessage, error) {
	if _, err := s.Get(ctx, traceID, userID); err != nil {
		return nil, err
	}

	snap, err := s.traces.GetLatestSnapshot(ctx, traceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	return snap.Document, nil
}

// LatestDocument loads the newest snapshot for a live session. Callers are
// expected to have checked access already.
func (s *Service) LatestDocument(ctx context.Context, traceID string) (*document.TraceDocument, error) {
	snap, err := s.traces.GetLatestSnapshot(ctx, traceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var doc document.TraceDocument
	if err := json.Unmarshal(snap.Document, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return &doc, nil
}

// SaveSnapshot appends a new document version for a live session.
func (s *Service) SaveSnapshot(ctx context.Context, traceID string, doc *document.TraceDocument) error {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	_, err = s.traces.CreateSnapshot(ctx, store.CreateSnapshotParams{
		ID:       typeid.NewSnapshotID(),
		TraceID:  traceID,
		Document: docJSON,
	})
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	return nil
}

func dbTraceToTrace(t store.Trace) *Trace {
	return &Trace{
		ID:        t.ID,
		Name:      t.Name,
		OwnerID:   t.OwnerID,
		ImageID:   t.ImageID,
		CreatedAt: t.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt: t.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
