package engagement

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/vidtube/backend/internal/models"
)

func TestToggleFlipsEdgePresence(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryEdgeStore()
	svc := NewService(store)

	key := models.EdgeKey{
		Type:    models.EdgeVideoLike,
		Actor:   models.NewID(),
		Subject: models.NewID(),
	}

	state, err := svc.Toggle(ctx, key)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if state != StatePresent {
		t.Fatalf("expected state %q got %q", StatePresent, state)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 edge got %d", store.Len())
	}

	state, err = svc.Toggle(ctx, key)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if state != StateAbsent {
		t.Fatalf("expected state %q got %q", StateAbsent, state)
	}
	if store.Len() != 0 {
		t.Fatalf("expected 0 edges got %d", store.Len())
	}
}

func TestToggleValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryEdgeStore())
	self := models.NewID()

	cases := []struct {
		name    string
		key     models.EdgeKey
		wantErr error
	}{
		{"selfSubscription", models.EdgeKey{Type: models.EdgeSubscription, Actor: self, Subject: self}, ErrSelfSubscription},
		{"unknownType", models.EdgeKey{Type: "follow", Actor: models.NewID(), Subject: models.NewID()}, ErrInvalidEdge},
		{"missingActor", models.EdgeKey{Type: models.EdgeVideoLike, Subject: models.NewID()}, ErrInvalidEdge},
		{"missingSubject", models.EdgeKey{Type: models.EdgeVideoLike, Actor: models.NewID()}, ErrInvalidEdge},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Toggle(ctx, tc.key); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v got %v", tc.wantErr, err)
			}
		})
	}
}

func TestToggleSelfLikeAllowed(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryEdgeStore())
	id := models.NewID()

	// Self-checks apply only to subscriptions; liking your own content is fine.
	state, err := svc.Toggle(ctx, models.EdgeKey{Type: models.EdgeVideoLike, Actor: id, Subject: id})
	if err != nil {
		t.Fatalf("self like: %v", err)
	}
	if state != StatePresent {
		t.Fatalf("expected state %q got %q", StatePresent, state)
	}
}

func TestToggleEdgeTypesAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryEdgeStore()
	svc := NewService(store)

	actor := models.NewID()
	subject := models.NewID()

	if _, err := svc.Toggle(ctx, models.EdgeKey{Type: models.EdgeVideoLike, Actor: actor, Subject: subject}); err != nil {
		t.Fatalf("toggle like: %v", err)
	}
	if _, err := svc.Toggle(ctx, models.EdgeKey{Type: models.EdgeSubscription, Actor: actor, Subject: subject}); err != nil {
		t.Fatalf("toggle subscription: %v", err)
	}

	if store.Len() != 2 {
		t.Fatalf("expected 2 independent edges got %d", store.Len())
	}

	if _, err := svc.Toggle(ctx, models.EdgeKey{Type: models.EdgeVideoLike, Actor: actor, Subject: subject}); err != nil {
		t.Fatalf("toggle like off: %v", err)
	}

	exists, err := store.Exists(ctx, models.EdgeKey{Type: models.EdgeSubscription, Actor: actor, Subject: subject})
	if err != nil {
		t.Fatalf("check subscription: %v", err)
	}
	if !exists {
		t.Fatalf("expected subscription to survive like removal")
	}
}

func TestConcurrentTogglesNeverDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryEdgeStore()
	svc := NewService(store)

	key := models.EdgeKey{
		Type:    models.EdgeCommentLike,
		Actor:   models.NewID(),
		Subject: models.NewID(),
	}

	const callers = 32

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Toggle(ctx, key); err != nil {
				t.Errorf("toggle: %v", err)
			}
		}()
	}
	wg.Wait()

	// Whatever the interleaving, at most one edge may remain.
	if n := store.Len(); n > 1 {
		t.Fatalf("expected at most one edge after %d concurrent toggles, got %d", callers, n)
	}
}

func TestSequentialTogglesAlternate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryEdgeStore()
	svc := NewService(store)

	key := models.EdgeKey{
		Type:    models.EdgeTweetLike,
		Actor:   models.NewID(),
		Subject: models.NewID(),
	}

	for i := 0; i < 7; i++ {
		want := StatePresent
		if i%2 == 1 {
			want = StateAbsent
		}
		state, err := svc.Toggle(ctx, key)
		if err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
		if state != want {
			t.Fatalf("toggle %d: expected %q got %q", i, want, state)
		}
	}

	// Seven toggles end with the edge present.
	if store.Len() != 1 {
		t.Fatalf("expected edge present after odd toggle count, got %d edges", store.Len())
	}
}
