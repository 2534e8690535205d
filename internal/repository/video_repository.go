package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"finplanner/internal/domain"
)

// uniqueViolation — код ошибки PostgreSQL для нарушения уникального ограничения.
const uniqueViolation = "23505"

// IsUniqueViolation сообщает, вызвана ли ошибка нарушением уникального ограничения.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

type VideoRepository struct {
	db *sqlx.DB
}

func NewVideoRepository(db *sqlx.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// Create вставляет запись о видео. Уникальное ограничение на plan_id
// делает гонку двух одновременных инициаций загрузки безопасной:
// проигравший получает ошибку уникальности.
func (r *VideoRepository) Create(ctx context.Context, video *domain.Video) error {
	query := `
        INSERT INTO videos (uuid, plan_id, object_key, upload_id)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at`

	err := r.db.QueryRowContext(
		ctx,
		query,
		video.UUID,
		video.PlanID,
		video.ObjectKey,
		video.UploadID,
	).Scan(&video.CreatedAt)
	if err != nil {
		return err
	}

	return nil
}

func (r *VideoRepository) GetByUUID(ctx context.Context, uuid uuid.UUID) (*domain.Video, error) {
	var video domain.Video
	query := `SELECT * FROM videos WHERE uuid = $1`

	err := r.db.GetContext(ctx, &video, query, uuid)
	if err != nil {
		return nil, err
	}

	return &video, nil
}

// GetByPlan возвращает видео плана или nil, если видео нет.
func (r *VideoRepository) GetByPlan(ctx context.Context, planID uuid.UUID) (*domain.Video, error) {
	var video domain.Video
	query := `SELECT * FROM videos WHERE plan_id = $1`

	err := r.db.GetContext(ctx, &video, query, planID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video by plan: %w", err)
	}

	return &video, nil
}

// SetUploadID сохраняет идентификатор multipart-загрузки на время ее выполнения.
func (r *VideoRepository) SetUploadID(ctx context.Context, uuid uuid.UUID, uploadID string) error {
	query := `UPDATE videos SET upload_id = $1 WHERE uuid = $2`

	if _, err := r.db.ExecContext(ctx, query, uploadID, uuid); err != nil {
		return fmt.Errorf("failed to set upload id: %w", err)
	}

	return nil
}

// ClearUploadID очищает идентификатор multipart-загрузки после ее завершения.
func (r *VideoRepository) ClearUploadID(ctx context.Context, uuid uuid.UUID) error {
	query := `UPDATE videos SET upload_id = NULL WHERE uuid = $1`

	if _, err := r.db.ExecContext(ctx, query, uuid); err != nil {
		return fmt.Errorf("failed to clear upload id: %w", err)
	}

	return nil
}

func (r *VideoRepository) Delete(ctx context.Context, uuid uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM videos WHERE uuid = $1`, uuid)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
