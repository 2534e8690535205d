package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"finplanner/internal/domain"
)

// RecipientStore описывает хранилище получателей видеописьма
type RecipientStore interface {
	Create(ctx context.Context, recipient *domain.Recipient) error
	GetByVideo(ctx context.Context, videoUUID uuid.UUID) ([]domain.Recipient, error)
	ProcessDue(ctx context.Context, now time.Time, deliver func(recipient *domain.Recipient) bool) (int, error)
	ConsumeToken(ctx context.Context, token string) (*domain.Recipient, error)
}

// RecipientEntry — одна позиция в запросе на регистрацию получателей
type RecipientEntry struct {
	Email             string    `json:"email"`
	ScheduledSendDate time.Time `json:"scheduledSendDate"`
}

// RecipientService регистрирует получателей видеописьма. Каждому получателю
// при регистрации выдается уникальный одноразовый токен доступа.
type RecipientService struct {
	recipientRepo RecipientStore
	videoRepo     VideoStore
	planRepo      PlanStore
}

func NewRecipientService(recipientRepo RecipientStore, videoRepo VideoStore, planRepo PlanStore) *RecipientService {
	return &RecipientService{
		recipientRepo: recipientRepo,
		videoRepo:     videoRepo,
		planRepo:      planRepo,
	}
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// RegisterRecipients создает получателей для видео. Атомарность по всему
// списку не требуется: каждая позиция вставляется независимо, частичный
// успех допустим. Возвращаются фактически созданные записи.
func (s *RecipientService) RegisterRecipients(ctx context.Context, videoUUID uuid.UUID, callerID string, entries []RecipientEntry) ([]domain.Recipient, error) {
	video, err := s.getOwnedVideo(ctx, videoUUID, callerID)
	if err != nil {
		return nil, err
	}

	var created []domain.Recipient
	for _, entry := range entries {
		if entry.Email == "" {
			log.Printf("[Recipients] skipping entry with empty email for video %s", videoUUID)
			continue
		}

		token, err := generateToken()
		if err != nil {
			return created, fmt.Errorf("failed to generate token: %w", err)
		}

		recipient := domain.Recipient{
			ID:                uuid.New(),
			VideoUUID:         video.UUID,
			Email:             entry.Email,
			ScheduledSendDate: entry.ScheduledSendDate,
			AccessToken:       token,
		}

		if err := s.recipientRepo.Create(ctx, &recipient); err != nil {
			log.Printf("[Recipients] failed to create recipient %s for video %s: %v", entry.Email, videoUUID, err)
			continue
		}

		created = append(created, recipient)
	}

	return created, nil
}

// GetRecipients возвращает получателей видео для его владельца
func (s *RecipientService) GetRecipients(ctx context.Context, videoUUID uuid.UUID, callerID string) ([]domain.Recipient, error) {
	if _, err := s.getOwnedVideo(ctx, videoUUID, callerID); err != nil {
		return nil, err
	}

	return s.recipientRepo.GetByVideo(ctx, videoUUID)
}

func (s *RecipientService) getOwnedVideo(ctx context.Context, videoUUID uuid.UUID, callerID string) (*domain.Video, error) {
	video, err := s.videoRepo.GetByUUID(ctx, videoUUID)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: video %s", ErrNotFound, videoUUID)
		}
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	if _, err := getOwnedPlan(ctx, s.planRepo, video.PlanID, callerID); err != nil {
		return nil, err
	}

	return video, nil
}
