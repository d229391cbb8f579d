package postgres

import (
	"context"
	"database/sql"
	"errors"

	"roadchal/internal/domain"
	"roadchal/internal/repository"
)

// JourneyRepository is a PostgreSQL implementation of repository.JourneyRepository.
type JourneyRepository struct {
	q Querier
}

// NewJourneyRepository creates a new PostgreSQL journey repository.
func NewJourneyRepository(db *sql.DB) *JourneyRepository {
	return &JourneyRepository{q: db}
}

// Upsert inserts a journey or updates its coordinates and state.
func (r *JourneyRepository) Upsert(ctx context.Context, journey *domain.Journey) error {
	query := `
		INSERT INTO journey_details (journey_id, username, start_lat, start_lng, end_lat, end_lng, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (journey_id) DO UPDATE
		SET start_lat = EXCLUDED.start_lat, start_lng = EXCLUDED.start_lng,
			end_lat = EXCLUDED.end_lat, end_lng = EXCLUDED.end_lng,
			state = EXCLUDED.state, updated_at = NOW()
	`
	_, err := r.q.ExecContext(ctx, query,
		journey.ID,
		journey.Username,
		journey.StartLat,
		journey.StartLng,
		journey.EndLat,
		journey.EndLng,
		journey.State,
	)
	return err
}

// UpdateState records a state change of an existing journey.
func (r *JourneyRepository) UpdateState(ctx context.Context, id string, state domain.JourneyState) error {
	query := `UPDATE journey_details SET state = $1, updated_at = NOW() WHERE journey_id = $2`
	result, err := r.q.ExecContext(ctx, query, state, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// GetByID retrieves a journey by ID.
func (r *JourneyRepository) GetByID(ctx context.Context, id string) (*domain.Journey, error) {
	query := `
		SELECT journey_id, username, start_lat, start_lng, end_lat, end_lng, state, created_at, updated_at
		FROM journey_details WHERE journey_id = $1
	`
	var journey domain.Journey
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&journey.ID,
		&journey.Username,
		&journey.StartLat,
		&journey.StartLng,
		&journey.EndLat,
		&journey.EndLng,
		&journey.State,
		&journey.CreatedAt,
		&journey.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &journey, nil
}
