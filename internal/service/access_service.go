package service

import (
	"context"
	"fmt"
	"time"

	"finplanner/internal/service/s3"
)

// Время жизни подписанной ссылки на скачивание
const downloadURLTTL = 5 * time.Minute

// AccessService разрешает входящий токен доступа в короткоживущую ссылку на
// скачивание видео. Токен одноразовый: повторное предъявление отклоняется,
// даже если ранее выданная ссылка еще действует. Неизвестный и уже
// использованный токены неразличимы для вызывающего — это сделано намеренно,
// чтобы не раскрывать, какой из случаев произошел.
type AccessService struct {
	recipientRepo RecipientStore
	videoRepo     VideoStore
	s3Client      s3.Storage
}

func NewAccessService(recipientRepo RecipientStore, videoRepo VideoStore, s3Client s3.Storage) *AccessService {
	return &AccessService{
		recipientRepo: recipientRepo,
		videoRepo:     videoRepo,
		s3Client:      s3Client,
	}
}

// ResolveAndConsume помечает токен использованным и возвращает ссылку на
// скачивание. Пометка выполняется одним условным обновлением до выдачи
// ссылки, поэтому из двух одновременных запросов с одним токеном ссылку
// получит не более одного.
func (s *AccessService) ResolveAndConsume(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	recipient, err := s.recipientRepo.ConsumeToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("failed to resolve token: %w", err)
	}
	if recipient == nil {
		return "", ErrInvalidToken
	}

	video, err := s.videoRepo.GetByUUID(ctx, recipient.VideoUUID)
	if err != nil {
		if isNoRows(err) {
			// Видео удалено после регистрации получателя; наружу — как
			// обычный недействительный токен
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("failed to get video: %w", err)
	}

	url, err := s.s3Client.PresignDownload(ctx, video.ObjectKey, downloadURLTTL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrS3Operation, err)
	}

	return url, nil
}
