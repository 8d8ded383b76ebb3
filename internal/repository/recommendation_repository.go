package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"github.com/noah-isme/reschedule-api/internal/models"
)

// recommendationInsertChunk keeps one INSERT under the 65535 bind parameter
// limit of PostgreSQL (six columns per row).
const recommendationInsertChunk = 10000

// RecommendationRepository persists change recommendations.
type RecommendationRepository struct {
	db *sqlx.DB
}

// NewRecommendationRepository builds repository.
func NewRecommendationRepository(db *sqlx.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

func (r *RecommendationRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// LockChangeRequest serialises writers of one change request until the
// surrounding transaction ends. exec must be a transaction.
func (r *RecommendationRepository) LockChangeRequest(ctx context.Context, exec sqlx.ExtContext, changeRequestID string) error {
	const query = `SELECT pg_advisory_xact_lock(hashtext($1))`
	if _, err := r.exec(exec).ExecContext(ctx, query, changeRequestID); err != nil {
		return fmt.Errorf("lock change request recommendations: %w", err)
	}
	return nil
}

// CreateBatch inserts all recommendations and returns the number of rows
// written. Large batches are split into several statements on the same exec,
// so a transaction keeps the write atomic.
func (r *RecommendationRepository) CreateBatch(ctx context.Context, exec sqlx.ExtContext, recommendations []models.ChangeRecommendation) (int, error) {
	if len(recommendations) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	for i := range recommendations {
		rec := &recommendations[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
	}

	const query = `
INSERT INTO change_recommendations (id, change_request_id, recommended_day, recommended_slot_id, recommended_room_id, created_at)
VALUES (:id, :change_request_id, :recommended_day, :recommended_slot_id, :recommended_room_id, :created_at)`
	var total int64
	for _, chunk := range lo.Chunk(recommendations, recommendationInsertChunk) {
		result, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, chunk)
		if err != nil {
			return 0, fmt.Errorf("insert change recommendations: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("change recommendations rows affected: %w", err)
		}
		total += affected
	}
	return int(total), nil
}

// ListByChangeRequest returns stored recommendations for a change request.
func (r *RecommendationRepository) ListByChangeRequest(ctx context.Context, exec sqlx.ExtContext, changeRequestID string) ([]models.ChangeRecommendation, error) {
	const query = `SELECT id, change_request_id, recommended_day, recommended_slot_id, recommended_room_id, created_at
FROM change_recommendations WHERE change_request_id = $1
ORDER BY recommended_day ASC, recommended_slot_id ASC, recommended_room_id ASC`
	recommendations := []models.ChangeRecommendation{}
	if err := sqlx.SelectContext(ctx, r.exec(exec), &recommendations, query, changeRequestID); err != nil {
		return nil, fmt.Errorf("list change recommendations: %w", err)
	}
	return recommendations, nil
}

// DeleteByChangeRequest removes every recommendation of a change request.
// Deleting nothing is not an error.
func (r *RecommendationRepository) DeleteByChangeRequest(ctx context.Context, exec sqlx.ExtContext, changeRequestID string) (int64, error) {
	const query = `DELETE FROM change_recommendations WHERE change_request_id = $1`
	result, err := r.exec(exec).ExecContext(ctx, query, changeRequestID)
	if err != nil {
		return 0, fmt.Errorf("delete change recommendations: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("change recommendations rows affected: %w", err)
	}
	return affected, nil
}
