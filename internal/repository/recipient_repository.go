package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"finplanner/internal/domain"
)

type RecipientRepository struct {
	db *sqlx.DB
}

func NewRecipientRepository(db *sqlx.DB) *RecipientRepository {
	return &RecipientRepository{db: db}
}

func (r *RecipientRepository) Create(ctx context.Context, recipient *domain.Recipient) error {
	query := `
        INSERT INTO recipients (id, video_uuid, email, scheduled_send_date, access_token)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at`

	err := r.db.QueryRowContext(
		ctx,
		query,
		recipient.ID,
		recipient.VideoUUID,
		recipient.Email,
		recipient.ScheduledSendDate,
		recipient.AccessToken,
	).Scan(&recipient.CreatedAt)
	if err != nil {
		return err
	}

	return nil
}

func (r *RecipientRepository) GetByVideo(ctx context.Context, videoUUID uuid.UUID) ([]domain.Recipient, error) {
	var recipients []domain.Recipient
	query := `SELECT * FROM recipients WHERE video_uuid = $1 ORDER BY scheduled_send_date`

	err := r.db.SelectContext(ctx, &recipients, query, videoUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipients: %w", err)
	}

	return recipients, nil
}

// ProcessDue выбирает получателей с наступившим сроком отправки под блокировкой
// строк (FOR UPDATE SKIP LOCKED), поэтому два параллельных экземпляра
// планировщика не могут взять одного и того же получателя. Для каждого
// получателя вызывается deliver; при true в той же транзакции проставляется
// actual_sent_date. Ложный результат deliver не прерывает обход: строка
// остается «дозревшей» и будет выбрана при следующем запуске.
func (r *RecipientRepository) ProcessDue(
	ctx context.Context,
	now time.Time,
	deliver func(recipient *domain.Recipient) bool,
) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var due []domain.Recipient
	query := `
        SELECT * FROM recipients
        WHERE scheduled_send_date <= $1 AND actual_sent_date IS NULL
        ORDER BY scheduled_send_date
        FOR UPDATE SKIP LOCKED`

	if err := tx.SelectContext(ctx, &due, query, now); err != nil {
		return 0, fmt.Errorf("failed to select due recipients: %w", err)
	}

	sent := 0
	for i := range due {
		if !deliver(&due[i]) {
			continue
		}

		markQuery := `
            UPDATE recipients
            SET actual_sent_date = $1
            WHERE id = $2 AND actual_sent_date IS NULL`

		if _, err := tx.ExecContext(ctx, markQuery, now, due[i].ID); err != nil {
			return sent, fmt.Errorf("failed to mark recipient %s as sent: %w", due[i].ID, err)
		}
		sent++
	}

	if err := tx.Commit(); err != nil {
		return sent, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return sent, nil
}

// ConsumeToken атомарно помечает токен использованным и возвращает получателя.
// Проверка used и ее установка выполняются одним условным UPDATE, поэтому два
// одновременных запроса с одним токеном не могут оба получить ссылку.
// Для неизвестного и уже использованного токена результат одинаков: nil.
func (r *RecipientRepository) ConsumeToken(ctx context.Context, token string) (*domain.Recipient, error) {
	var recipient domain.Recipient
	query := `
        UPDATE recipients
        SET used = TRUE
        WHERE access_token = $1 AND used = FALSE
        RETURNING *`

	rows, err := r.db.QueryxContext(ctx, query, token)
	if err != nil {
		return nil, fmt.Errorf("failed to consume token: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	if err := rows.StructScan(&recipient); err != nil {
		return nil, fmt.Errorf("failed to scan recipient: %w", err)
	}

	return &recipient, nil
}
