package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresEdgeRepository persists directed relationship edges (likes and
// subscriptions). The primary key on (edge_type, actor_id, subject_id) is the
// uniqueness guarantee toggle callers rely on: concurrent writers racing on
// the same key are serialized by the constraint, not by application locks.
type PostgresEdgeRepository struct {
	pool db.Pool
}

// NewPostgresEdgeRepository constructs an edge repository backed by PostgreSQL.
func NewPostgresEdgeRepository(pool db.Pool) *PostgresEdgeRepository {
	return &PostgresEdgeRepository{pool: pool}
}

// UpsertIfAbsent inserts the edge unless it already exists. It reports whether
// this call created the edge; losing a race to another writer is not an error.
func (r *PostgresEdgeRepository) UpsertIfAbsent(ctx context.Context, key models.EdgeKey) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO edges (edge_type, actor_id, subject_id, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (edge_type, actor_id, subject_id) DO NOTHING
    `, key.Type, key.Actor, key.Subject, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("insert edge: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// RemoveIfPresent deletes the edge if it exists, reporting whether this call
// removed it.
func (r *PostgresEdgeRepository) RemoveIfPresent(ctx context.Context, key models.EdgeKey) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM edges
        WHERE edge_type = $1 AND actor_id = $2 AND subject_id = $3
    `, key.Type, key.Actor, key.Subject)
	if err != nil {
		return false, fmt.Errorf("delete edge: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Exists reports whether the edge is currently present.
func (r *PostgresEdgeRepository) Exists(ctx context.Context, key models.EdgeKey) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	row := conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM edges
            WHERE edge_type = $1 AND actor_id = $2 AND subject_id = $3
        )
    `, key.Type, key.Actor, key.Subject)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("check edge existence: %w", err)
	}

	return exists, nil
}

// ListByActor returns every edge of the given type originating from actor,
// newest first.
func (r *PostgresEdgeRepository) ListByActor(ctx context.Context, edgeType models.EdgeType, actor models.ID) ([]models.Edge, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT edge_type, actor_id, subject_id, created_at
        FROM edges
        WHERE edge_type = $1 AND actor_id = $2
        ORDER BY created_at DESC
    `, edgeType, actor)
	if err != nil {
		return nil, fmt.Errorf("query edges by actor: %w", err)
	}
	defer rows.Close()

	return collectEdges(rows)
}

// ListBySubject returns every edge of the given type pointing at subject,
// newest first.
func (r *PostgresEdgeRepository) ListBySubject(ctx context.Context, edgeType models.EdgeType, subject models.ID) ([]models.Edge, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT edge_type, actor_id, subject_id, created_at
        FROM edges
        WHERE edge_type = $1 AND subject_id = $2
        ORDER BY created_at DESC
    `, edgeType, subject)
	if err != nil {
		return nil, fmt.Errorf("query edges by subject: %w", err)
	}
	defer rows.Close()

	return collectEdges(rows)
}

// CountBySubject returns the number of edges of the given type pointing at subject.
func (r *PostgresEdgeRepository) CountBySubject(ctx context.Context, edgeType models.EdgeType, subject models.ID) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	row := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM edges
        WHERE edge_type = $1 AND subject_id = $2
    `, edgeType, subject)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count edges by subject: %w", err)
	}

	return count, nil
}

// CountBySubjects returns the number of edges of the given type pointing at
// any of the provided subjects.
func (r *PostgresEdgeRepository) CountBySubjects(ctx context.Context, edgeType models.EdgeType, subjects []models.ID) (int64, error) {
	if len(subjects) == 0 {
		return 0, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	row := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM edges
        WHERE edge_type = $1 AND subject_id = ANY($2)
    `, edgeType, idStrings(subjects))
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count edges by subjects: %w", err)
	}

	return count, nil
}

func collectEdges(rows pgx.Rows) ([]models.Edge, error) {
	var edges []models.Edge
	for rows.Next() {
		var edge models.Edge
		if err := rows.Scan(&edge.Type, &edge.Actor, &edge.Subject, &edge.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		edges = append(edges, edge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edges: %w", err)
	}

	return edges, nil
}
