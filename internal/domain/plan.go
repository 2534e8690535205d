package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// Plan представляет план наследования пользователя.
// У одного пользователя может быть только один план (контролируется на уровне сервиса).
type Plan struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	OwnerID     string         `json:"owner_id" db:"owner_id"`
	TotalAssets int64          `json:"total_assets" db:"total_assets"`
	Ratios      types.JSONText `json:"ratios" db:"ratios"` // Доли распределения активов
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}
