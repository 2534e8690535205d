package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"finplanner/internal/domain"
)

type PlanRepository struct {
	db *sqlx.DB
}

func NewPlanRepository(db *sqlx.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) Create(ctx context.Context, plan *domain.Plan) error {
	query := `
        INSERT INTO plans (id, owner_id, total_assets, ratios)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(
		ctx,
		query,
		plan.ID,
		plan.OwnerID,
		plan.TotalAssets,
		plan.Ratios,
	).Scan(&plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	return nil
}

func (r *PlanRepository) Update(ctx context.Context, plan *domain.Plan) error {
	query := `
        UPDATE plans
        SET total_assets = $1,
            ratios = $2,
            updated_at = CURRENT_TIMESTAMP
        WHERE id = $3
        RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, plan.TotalAssets, plan.Ratios, plan.ID).
		Scan(&plan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}

	return nil
}

func (r *PlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error) {
	var plan domain.Plan
	query := `SELECT * FROM plans WHERE id = $1`

	err := r.db.GetContext(ctx, &plan, query, id)
	if err != nil {
		return nil, err
	}

	return &plan, nil
}

// GetByOwner возвращает план владельца или nil, если план еще не создан.
func (r *PlanRepository) GetByOwner(ctx context.Context, ownerID string) (*domain.Plan, error) {
	var plan domain.Plan
	query := `SELECT * FROM plans WHERE owner_id = $1 LIMIT 1`

	err := r.db.GetContext(ctx, &plan, query, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan by owner: %w", err)
	}

	return &plan, nil
}
