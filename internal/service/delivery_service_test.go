package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessDue_SendsOnlyDueRecipients(t *testing.T) {
	recipientRepo := &fakeRecipientStore{}
	videoUUID := uuid.New()
	due := recipientRepo.add(videoUUID, "due@example.com", "token-due", time.Now().Add(-time.Hour))
	future := recipientRepo.add(videoUUID, "future@example.com", "token-future", time.Now().Add(time.Hour))
	mailer := newFakeMailer()
	s := NewDeliveryService(recipientRepo, mailer, "https://app.example.com/")

	err := s.ProcessDue(context.Background())
	require.NoError(t, err)

	require.Len(t, mailer.sent["due@example.com"], 1)
	assert.Empty(t, mailer.sent["future@example.com"])
	assert.NotNil(t, due.ActualSentDate)
	assert.Nil(t, future.ActualSentDate)

	// Ссылка ведет на просмотр и несет токен получателя
	link := mailer.sent["due@example.com"][0]
	assert.Equal(t, "https://app.example.com/inheritance/view-redirect?token=token-due", link)
}

func TestProcessDue_SecondRunDoesNotResend(t *testing.T) {
	recipientRepo := &fakeRecipientStore{}
	recipientRepo.add(uuid.New(), "son@example.com", "token-1", time.Now().Add(-time.Hour))
	mailer := newFakeMailer()
	s := NewDeliveryService(recipientRepo, mailer, "https://app.example.com")

	require.NoError(t, s.ProcessDue(context.Background()))
	require.NoError(t, s.ProcessDue(context.Background()))

	assert.Len(t, mailer.sent["son@example.com"], 1)
}

func TestProcessDue_MailFailureLeavesRecipientDue(t *testing.T) {
	recipientRepo := &fakeRecipientStore{}
	r := recipientRepo.add(uuid.New(), "son@example.com", "token-1", time.Now().Add(-time.Hour))
	mailer := newFakeMailer()
	mailer.sendErr = errBoom
	s := NewDeliveryService(recipientRepo, mailer, "https://app.example.com")

	// Сбой шлюза не проставляет дату отправки
	require.NoError(t, s.ProcessDue(context.Background()))
	assert.Nil(t, r.ActualSentDate)

	// Следующий запуск доставляет успешно и ровно один раз
	mailer.sendErr = nil
	require.NoError(t, s.ProcessDue(context.Background()))
	assert.NotNil(t, r.ActualSentDate)
	assert.Len(t, mailer.sent["son@example.com"], 1)
}

func TestProcessDue_FailureIsolatedPerRecipient(t *testing.T) {
	recipientRepo := &fakeRecipientStore{}
	videoUUID := uuid.New()
	bad := recipientRepo.add(videoUUID, "bad@example.com", "token-bad", time.Now().Add(-2*time.Hour))
	good := recipientRepo.add(videoUUID, "good@example.com", "token-good", time.Now().Add(-time.Hour))
	mailer := &perAddressMailer{failFor: "bad@example.com", fakeMailer: newFakeMailer()}
	s := NewDeliveryService(recipientRepo, mailer, "https://app.example.com")

	require.NoError(t, s.ProcessDue(context.Background()))

	assert.Nil(t, bad.ActualSentDate)
	assert.NotNil(t, good.ActualSentDate)
	assert.Len(t, mailer.sent["good@example.com"], 1)
}

func TestViewLink_EscapesToken(t *testing.T) {
	s := NewDeliveryService(&fakeRecipientStore{}, newFakeMailer(), "https://app.example.com")

	link := s.viewLink("a+b/c=")
	assert.Equal(t, "https://app.example.com/inheritance/view-redirect?token=a%2Bb%2Fc%3D", link)
}

type perAddressMailer struct {
	*fakeMailer
	failFor string
}

func (m *perAddressMailer) Send(ctx context.Context, to string, link string) error {
	if to == m.failFor {
		return errBoom
	}
	return m.fakeMailer.Send(ctx, to, link)
}
