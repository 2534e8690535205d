package domain

import (
	"time"

	"github.com/google/uuid"
)

// Recipient представляет получателя видеописьма с отложенной доставкой.
// AccessToken выдается один раз при регистрации и действует на один просмотр.
// ActualSentDate равен nil, пока письмо не отправлено; проставляется ровно
// один раз планировщиком. Used проставляется ровно один раз при первом
// успешном переходе по ссылке и не зависит от факта отправки.
type Recipient struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	VideoUUID         uuid.UUID  `json:"video_uuid" db:"video_uuid"`
	Email             string     `json:"email" db:"email"`
	ScheduledSendDate time.Time  `json:"scheduled_send_date" db:"scheduled_send_date"`
	ActualSentDate    *time.Time `json:"actual_sent_date,omitempty" db:"actual_sent_date"`
	AccessToken       string     `json:"-" db:"access_token"`
	Used              bool       `json:"used" db:"used"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}
