package service

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"finplanner/internal/domain"
	"finplanner/internal/service/mail"
)

// DeliveryService — планировщик доставки. Периодический запуск находит
// получателей с наступившим сроком отправки и рассылает им ссылки на
// просмотр. Ошибки доставки изолированы по получателям: сбой одного адреса
// не блокирует остальных, неотправленный получатель остается «дозревшим»
// и будет повторен при следующем запуске без ограничения числа попыток.
type DeliveryService struct {
	recipientRepo RecipientStore
	mailer        mail.Mailer
	baseURL       string
}

func NewDeliveryService(recipientRepo RecipientStore, mailer mail.Mailer, baseURL string) *DeliveryService {
	return &DeliveryService{
		recipientRepo: recipientRepo,
		mailer:        mailer,
		baseURL:       strings.TrimRight(baseURL, "/"),
	}
}

// ProcessDue выполняет один проход планировщика. Дата отправки проставляется
// только после успешного ответа почтового шлюза и ровно один раз;
// выборка под блокировкой строк исключает двойную отправку при параллельных
// экземплярах сервиса.
func (s *DeliveryService) ProcessDue(ctx context.Context) error {
	now := time.Now().UTC()

	sent, err := s.recipientRepo.ProcessDue(ctx, now, func(recipient *domain.Recipient) bool {
		link := s.viewLink(recipient.AccessToken)

		if err := s.mailer.Send(ctx, recipient.Email, link); err != nil {
			log.Printf("[Delivery] failed to deliver to recipient %s: %v", recipient.ID, err)
			return false
		}

		return true
	})
	if err != nil {
		return fmt.Errorf("failed to process due recipients: %w", err)
	}

	if sent > 0 {
		log.Printf("[Delivery] sent %d view link(s)", sent)
	}

	return nil
}

// viewLink собирает ссылку на одноразовый просмотр с токеном получателя
func (s *DeliveryService) viewLink(token string) string {
	return fmt.Sprintf("%s/inheritance/view-redirect?token=%s", s.baseURL, url.QueryEscape(token))
}
