package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
)

var gClient *Client

func InitClient(client *Client) {
	gClient = client
}

type userResponse struct {
	User struct {
		ID string `json:"id"`
	} `json:"user"`
}

// VerifyToken проверяет токен запроса через сервис аутентификации и
// возвращает идентификатор пользователя.
func VerifyToken(r *http.Request) (string, error) {
	authToken := r.Header.Get("Authorization")
	if authToken == "" {
		return "", fmt.Errorf("no authorization header")
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, gClient.baseURL+"/v1/user/me", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build auth request: %w", err)
	}
	req.Header.Set("Authorization", authToken)

	resp, err := gClient.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth service returned status %d", resp.StatusCode)
	}

	var userInfo userResponse
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return "", fmt.Errorf("failed to decode auth response: %w", err)
	}

	if userInfo.User.ID == "" {
		return "", fmt.Errorf("auth service returned empty user id")
	}

	return userInfo.User.ID, nil
}
