// Package engagement implements the toggle protocol for relationship edges:
// likes on videos, comments, and tweets, and channel subscriptions. A toggle
// flips the presence of a single edge and reports the resulting state as the
// store confirmed it, so concurrent callers always converge.
package engagement

import (
	"context"
	"errors"
	"fmt"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

// EdgeState is the observable presence of an edge after a toggle.
type EdgeState string

const (
	StatePresent EdgeState = "present"
	StateAbsent  EdgeState = "absent"
)

var (
	// ErrSelfSubscription rejects a user subscribing to their own channel.
	ErrSelfSubscription = errors.New("cannot subscribe to own channel")
	// ErrInvalidEdge rejects a malformed edge key before any store access.
	ErrInvalidEdge = errors.New("invalid edge")
)

// EdgeStore is the persistence contract the toggle protocol relies on. The
// store, not the caller, enforces at-most-one edge per key: UpsertIfAbsent on
// a present key and RemoveIfPresent on an absent key are no-ops, never errors.
type EdgeStore interface {
	UpsertIfAbsent(ctx context.Context, key models.EdgeKey) (created bool, err error)
	RemoveIfPresent(ctx context.Context, key models.EdgeKey) (removed bool, err error)
	Exists(ctx context.Context, key models.EdgeKey) (bool, error)
}

// Service coordinates edge toggles against an EdgeStore.
type Service struct {
	edges EdgeStore
}

// NewService constructs a toggle service over the provided store.
func NewService(edges EdgeStore) *Service {
	return &Service{edges: edges}
}

// Toggle flips the presence of the edge identified by key and returns the
// resulting state. The read is only a hint: when a concurrent toggle wins the
// race, the store's answer (created/removed false) decides the final state,
// so two racing callers never leave more than one edge behind and each gets a
// definite outcome. Toggles are therefore safe to retry blindly.
func (s *Service) Toggle(ctx context.Context, key models.EdgeKey) (EdgeState, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	exists, err := s.edges.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("check edge: %w", err)
	}

	if exists {
		removed, err := s.edges.RemoveIfPresent(ctx, key)
		if err != nil {
			return "", fmt.Errorf("remove edge: %w", err)
		}
		if !removed {
			// Another caller removed it first; the end state is the same.
			logging.FromContext(ctx).Debug("toggle converged on concurrent removal",
				"edgeType", key.Type, "actor", key.Actor, "subject", key.Subject)
		}
		return StateAbsent, nil
	}

	created, err := s.edges.UpsertIfAbsent(ctx, key)
	if err != nil {
		return "", fmt.Errorf("create edge: %w", err)
	}
	if !created {
		// Another caller created it first; converge on present.
		logging.FromContext(ctx).Debug("toggle converged on concurrent creation",
			"edgeType", key.Type, "actor", key.Actor, "subject", key.Subject)
	}
	return StatePresent, nil
}

func validateKey(key models.EdgeKey) error {
	if !key.Type.Valid() || key.Actor.IsZero() || key.Subject.IsZero() {
		return ErrInvalidEdge
	}
	if key.Type == models.EdgeSubscription && key.Actor == key.Subject {
		return ErrSelfSubscription
	}
	return nil
}
