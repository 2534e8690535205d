package domain

import (
	"time"

	"github.com/google/uuid"
)

// Video представляет видеописьмо, прикрепленное к плану наследования.
// ObjectKey неизменяем после создания. UploadID хранится только на время
// незавершенной multipart-загрузки и очищается при ее завершении.
type Video struct {
	UUID      uuid.UUID `json:"uuid" db:"uuid"`
	PlanID    uuid.UUID `json:"plan_id" db:"plan_id"`
	ObjectKey string    `json:"object_key" db:"object_key"`
	UploadID  *string   `json:"upload_id,omitempty" db:"upload_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
