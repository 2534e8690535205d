package service

import (
	"database/sql"
	"errors"
)

// Ошибки уровня сервисов. Хендлеры отображают их в HTTP-статусы.
var (
	ErrNotFound     = errors.New("not found")
	ErrAccessDenied = errors.New("access denied")
	ErrVideoExists  = errors.New("video already exists for this plan")
	ErrInvalidToken = errors.New("invalid token")
	ErrS3Operation  = errors.New("s3 operation failed")
)

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
