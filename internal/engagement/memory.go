package engagement

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vidtube/backend/internal/models"
)

// MemoryEdgeStore is an in-memory EdgeStore for tests and local development.
// A single mutex stands in for the database uniqueness constraint.
type MemoryEdgeStore struct {
	mu    sync.Mutex
	edges map[models.EdgeKey]models.Edge
	seq   int64
}

// NewMemoryEdgeStore constructs an empty in-memory edge store.
func NewMemoryEdgeStore() *MemoryEdgeStore {
	return &MemoryEdgeStore{edges: make(map[models.EdgeKey]models.Edge)}
}

// UpsertIfAbsent inserts the edge unless present, reporting whether it was created.
func (s *MemoryEdgeStore) UpsertIfAbsent(_ context.Context, key models.EdgeKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.edges[key]; ok {
		return false, nil
	}
	s.seq++
	s.edges[key] = models.Edge{
		EdgeKey:   key,
		CreatedAt: time.Unix(0, s.seq),
	}
	return true, nil
}

// RemoveIfPresent deletes the edge if present, reporting whether it was removed.
func (s *MemoryEdgeStore) RemoveIfPresent(_ context.Context, key models.EdgeKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.edges[key]; !ok {
		return false, nil
	}
	delete(s.edges, key)
	return true, nil
}

// Exists reports whether the edge is present.
func (s *MemoryEdgeStore) Exists(_ context.Context, key models.EdgeKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.edges[key]
	return ok, nil
}

// ListByActor returns edges of the given type originating from actor, newest first.
func (s *MemoryEdgeStore) ListByActor(_ context.Context, edgeType models.EdgeType, actor models.ID) ([]models.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Edge
	for _, edge := range s.edges {
		if edge.Type == edgeType && edge.Actor == actor {
			out = append(out, edge)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// ListBySubject returns edges of the given type pointing at subject, newest first.
func (s *MemoryEdgeStore) ListBySubject(_ context.Context, edgeType models.EdgeType, subject models.ID) ([]models.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Edge
	for _, edge := range s.edges {
		if edge.Type == edgeType && edge.Subject == subject {
			out = append(out, edge)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// CountBySubject counts edges of the given type pointing at subject.
func (s *MemoryEdgeStore) CountBySubject(ctx context.Context, edgeType models.EdgeType, subject models.ID) (int64, error) {
	edges, _ := s.ListBySubject(ctx, edgeType, subject)
	return int64(len(edges)), nil
}

// CountBySubjects counts edges of the given type pointing at any of the subjects.
func (s *MemoryEdgeStore) CountBySubjects(_ context.Context, edgeType models.EdgeType, subjects []models.ID) (int64, error) {
	wanted := make(map[models.ID]struct{}, len(subjects))
	for _, id := range subjects {
		wanted[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, edge := range s.edges {
		if edge.Type != edgeType {
			continue
		}
		if _, ok := wanted[edge.Subject]; ok {
			count++
		}
	}
	return count, nil
}

// Len reports the number of stored edges.
func (s *MemoryEdgeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.edges)
}

func sortNewestFirst(edges []models.Edge) {
	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].CreatedAt.After(edges[j].CreatedAt)
	})
}
