package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"finplanner/internal/domain"
)

// PlanStore описывает хранилище планов наследования
type PlanStore interface {
	Create(ctx context.Context, plan *domain.Plan) error
	Update(ctx context.Context, plan *domain.Plan) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error)
	GetByOwner(ctx context.Context, ownerID string) (*domain.Plan, error)
}

// PlanService управляет планами наследования. План — якорь, к которому
// прикрепляется видеописьмо: создается при первом сохранении, дальше
// изменяется на месте, никогда не удаляется.
type PlanService struct {
	planRepo PlanStore
}

func NewPlanService(planRepo PlanStore) *PlanService {
	return &PlanService{planRepo: planRepo}
}

// SavePlan создает план при первом сохранении и обновляет его при последующих.
// Правило «один план на владельца» контролируется здесь, а не ограничением
// в хранилище.
func (s *PlanService) SavePlan(ctx context.Context, ownerID string, totalAssets int64, ratios types.JSONText) (*domain.Plan, error) {
	existing, err := s.planRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing plan: %w", err)
	}

	if existing != nil {
		existing.TotalAssets = totalAssets
		existing.Ratios = ratios
		if err := s.planRepo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update plan: %w", err)
		}
		return existing, nil
	}

	plan := &domain.Plan{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		TotalAssets: totalAssets,
		Ratios:      ratios,
	}

	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	return plan, nil
}

// GetPlanByOwner возвращает план владельца
func (s *PlanService) GetPlanByOwner(ctx context.Context, ownerID string) (*domain.Plan, error) {
	plan, err := s.planRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, ErrNotFound
	}

	return plan, nil
}

// getOwnedPlan возвращает план и проверяет, что запрос выполняет его владелец
func getOwnedPlan(ctx context.Context, planRepo PlanStore, planID uuid.UUID, callerID string) (*domain.Plan, error) {
	plan, err := planRepo.GetByID(ctx, planID)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: plan %s", ErrNotFound, planID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	if plan.OwnerID != callerID {
		return nil, ErrAccessDenied
	}

	return plan, nil
}
