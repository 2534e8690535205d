package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"finplanner/internal/domain"
	"finplanner/internal/repository"
	"finplanner/internal/service/s3"
)

// Время жизни подписанной ссылки на загрузку одной части
const partURLTTL = 30 * time.Minute

// VideoStore описывает хранилище записей о видеописьмах
type VideoStore interface {
	Create(ctx context.Context, video *domain.Video) error
	GetByUUID(ctx context.Context, uuid uuid.UUID) (*domain.Video, error)
	GetByPlan(ctx context.Context, planID uuid.UUID) (*domain.Video, error)
	SetUploadID(ctx context.Context, uuid uuid.UUID, uploadID string) error
	ClearUploadID(ctx context.Context, uuid uuid.UUID) error
	Delete(ctx context.Context, uuid uuid.UUID) error
}

// UploadSession — результат инициации загрузки
type UploadSession struct {
	VideoUUID uuid.UUID `json:"videoId"`
	UploadID  string    `json:"uploadId"`
	ObjectKey string    `json:"objectKey"`
}

// VideoUploadService владеет жизненным циклом видеописьма плана: инициация
// multipart-загрузки, выдача подписанных ссылок на части, завершение и
// удаление. Все обращения к хранилищу объектов идут через него, каждая
// операция проверяет владельца.
type VideoUploadService struct {
	planRepo  PlanStore
	videoRepo VideoStore
	s3Client  s3.Storage
}

func NewVideoUploadService(planRepo PlanStore, videoRepo VideoStore, s3Client s3.Storage) *VideoUploadService {
	return &VideoUploadService{
		planRepo:  planRepo,
		videoRepo: videoRepo,
		s3Client:  s3Client,
	}
}

// InitiateUpload создает запись о видео и открывает multipart-загрузку.
// У плана может быть только одно живое видео: повторная инициация без
// удаления отклоняется. Проверка «видео уже есть» и вставка не атомарны,
// поэтому решающим является уникальное ограничение на plan_id — проигравший
// гонку также получает ErrVideoExists.
func (s *VideoUploadService) InitiateUpload(ctx context.Context, planID uuid.UUID, callerID string) (*UploadSession, error) {
	plan, err := getOwnedPlan(ctx, s.planRepo, planID, callerID)
	if err != nil {
		return nil, err
	}

	existing, err := s.videoRepo.GetByPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing video: %w", err)
	}
	if existing != nil {
		return nil, ErrVideoExists
	}

	videoUUID := uuid.New()
	objectKey := fmt.Sprintf("inheritance_videos/%s/%s", plan.OwnerID, videoUUID)

	video := &domain.Video{
		UUID:      videoUUID,
		PlanID:    planID,
		ObjectKey: objectKey,
	}

	if err := s.videoRepo.Create(ctx, video); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrVideoExists
		}
		return nil, fmt.Errorf("failed to create video record: %w", err)
	}

	uploadID, err := s.s3Client.CreateMultipartUpload(ctx, objectKey)
	if err != nil {
		// Откатываем запись, иначе план останется с видео без сессии загрузки
		if deleteErr := s.videoRepo.Delete(ctx, videoUUID); deleteErr != nil {
			log.Printf("[VideoUpload] failed to delete video record after s3 error: %v", deleteErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrS3Operation, err)
	}

	if err := s.videoRepo.SetUploadID(ctx, videoUUID, uploadID); err != nil {
		if abortErr := s.s3Client.AbortMultipartUpload(ctx, uploadID, objectKey); abortErr != nil {
			log.Printf("[VideoUpload] failed to abort multipart upload %s: %v", uploadID, abortErr)
		}
		if deleteErr := s.videoRepo.Delete(ctx, videoUUID); deleteErr != nil {
			log.Printf("[VideoUpload] failed to delete video record: %v", deleteErr)
		}
		return nil, fmt.Errorf("failed to store upload id: %w", err)
	}

	return &UploadSession{
		VideoUUID: videoUUID,
		UploadID:  uploadID,
		ObjectKey: objectKey,
	}, nil
}

// GetPartUploadURL выдает короткоживущую подписанную ссылку на загрузку
// одной части. Часть загружается клиентом напрямую в хранилище, минуя сервис.
func (s *VideoUploadService) GetPartUploadURL(ctx context.Context, videoUUID uuid.UUID, callerID string, uploadID string, partNumber int) (string, error) {
	video, err := s.getOwnedVideo(ctx, videoUUID, callerID)
	if err != nil {
		return "", err
	}

	// Видео без идентификатора загрузки означает, что инициация была
	// пропущена либо загрузка уже завершена
	if video.UploadID == nil || *video.UploadID != uploadID {
		return "", fmt.Errorf("%w: no upload in progress for video %s", ErrNotFound, videoUUID)
	}

	url, err := s.s3Client.PresignUploadPart(ctx, uploadID, video.ObjectKey, partNumber, partURLTTL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrS3Operation, err)
	}

	return url, nil
}

// CompleteUpload завершает multipart-загрузку по упорядоченному списку частей.
// После завершения объект становится доступным для чтения; сам по себе
// переход состояния в записи видео не хранится, очищается только upload_id.
func (s *VideoUploadService) CompleteUpload(ctx context.Context, videoUUID uuid.UUID, callerID string, uploadID string, parts []s3.CompletedPart) error {
	video, err := s.getOwnedVideo(ctx, videoUUID, callerID)
	if err != nil {
		return err
	}

	if video.UploadID == nil || *video.UploadID != uploadID {
		return fmt.Errorf("%w: no upload in progress for video %s", ErrNotFound, videoUUID)
	}

	if err := s.s3Client.CompleteMultipartUpload(ctx, uploadID, video.ObjectKey, parts); err != nil {
		return fmt.Errorf("%w: %v", ErrS3Operation, err)
	}

	if err := s.videoRepo.ClearUploadID(ctx, videoUUID); err != nil {
		return fmt.Errorf("failed to clear upload id: %w", err)
	}

	return nil
}

// DeleteVideo удаляет объект из хранилища и затем запись о видео. Порядок
// важен: при ошибке хранилища запись остается на месте и удаление можно
// повторить; остаточный риск — осиротевший объект, если упадет уже удаление
// записи.
func (s *VideoUploadService) DeleteVideo(ctx context.Context, videoUUID uuid.UUID, callerID string) error {
	video, err := s.getOwnedVideo(ctx, videoUUID, callerID)
	if err != nil {
		return err
	}

	// Незавершенную сессию загрузки закрываем по возможности
	if video.UploadID != nil {
		if err := s.s3Client.AbortMultipartUpload(ctx, *video.UploadID, video.ObjectKey); err != nil {
			log.Printf("[VideoUpload] warning: failed to abort multipart upload %s: %v", *video.UploadID, err)
		}
	}

	if err := s.s3Client.DeleteObject(ctx, video.ObjectKey); err != nil {
		return fmt.Errorf("%w: %v", ErrS3Operation, err)
	}

	if err := s.videoRepo.Delete(ctx, videoUUID); err != nil {
		if isNoRows(err) {
			return fmt.Errorf("%w: video %s", ErrNotFound, videoUUID)
		}
		return fmt.Errorf("failed to delete video record: %w", err)
	}

	return nil
}

// VideoForPlan возвращает видео плана с проверкой владельца. Используется
// хендлерами, адресующими видео через план.
func (s *VideoUploadService) VideoForPlan(ctx context.Context, planID uuid.UUID, callerID string) (*domain.Video, error) {
	if _, err := getOwnedPlan(ctx, s.planRepo, planID, callerID); err != nil {
		return nil, err
	}

	video, err := s.videoRepo.GetByPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	if video == nil {
		return nil, fmt.Errorf("%w: plan %s has no video", ErrNotFound, planID)
	}

	return video, nil
}

// getOwnedVideo возвращает видео и проверяет, что запрос выполняет владелец
// плана, к которому оно прикреплено
func (s *VideoUploadService) getOwnedVideo(ctx context.Context, videoUUID uuid.UUID, callerID string) (*domain.Video, error) {
	video, err := s.videoRepo.GetByUUID(ctx, videoUUID)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: video %s", ErrNotFound, videoUUID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	if _, err := getOwnedPlan(ctx, s.planRepo, video.PlanID, callerID); err != nil {
		return nil, err
	}

	return video, nil
}
