package mail

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

const sendTimeout = 30 * time.Second

// Mailer определяет интерфейс шлюза доставки писем: одно письмо одному адресату.
type Mailer interface {
	Send(ctx context.Context, to string, link string) error
}

// Client отправляет письма со ссылками на просмотр через SMTP
type Client struct {
	dialer *gomail.Dialer
	from   string
}

func NewClient(conf *Config) *Client {
	return &Client{
		dialer: gomail.NewDialer(conf.Host, conf.Port, conf.User, conf.Password),
		from:   conf.From,
	}
}

// Send отправляет получателю письмо со ссылкой на просмотр видеописьма.
// Вызов ограничен по времени: зависший SMTP-сервер не блокирует планировщик.
func (c *Client) Send(ctx context.Context, to string, link string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", c.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Вам оставлено видеописьмо")
	m.SetBody("text/html", fmt.Sprintf(
		`<p>Для вас записано видеописьмо.</p>
<p><a href="%s">Посмотреть видеописьмо</a></p>
<p>Ссылка действует на один просмотр.</p>`, link))

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- c.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send mail to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("mail send timed out: %w", ctx.Err())
	}
}
