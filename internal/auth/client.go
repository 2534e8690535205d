package auth

import (
	"net/http"
	"time"
)

// Client обращается к внешнему сервису аутентификации за данными пользователя
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(conf *Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    conf.AuthAddr,
	}
}
