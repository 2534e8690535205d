package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"finplanner/internal/auth"
	"finplanner/internal/service"
)

type RecipientHandler struct {
	recipientService *service.RecipientService
}

type registerRecipientsRequest struct {
	Recipients []service.RecipientEntry `json:"recipients"`
}

func NewRecipientHandler(recipientService *service.RecipientService) *RecipientHandler {
	return &RecipientHandler{recipientService: recipientService}
}

// RegisterRecipients регистрирует получателей видеописьма с отложенной доставкой
func (h *RecipientHandler) RegisterRecipients(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.VerifyToken(r)
	if err != nil {
		log.Printf("[RegisterRecipients] Authentication failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	videoUUID, err := uuid.Parse(chi.URLParam(r, "videoId"))
	if err != nil {
		http.Error(w, "Invalid video ID", http.StatusBadRequest)
		return
	}

	var req registerRecipientsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[RegisterRecipients] Failed to decode request body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Recipients) == 0 {
		http.Error(w, "recipients list is empty", http.StatusBadRequest)
		return
	}

	created, err := h.recipientService.RegisterRecipients(r.Context(), videoUUID, userID, req.Recipients)
	if err != nil {
		log.Printf("[RegisterRecipients] Failed to register recipients for video %s: %v", videoUUID, err)
		http.Error(w, "Failed to register recipients", statusFromError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Registered int `json:"registered"`
	}{Registered: len(created)})
}

// GetRecipients возвращает владельцу список получателей видеописьма
func (h *RecipientHandler) GetRecipients(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.VerifyToken(r)
	if err != nil {
		log.Printf("[GetRecipients] Authentication failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	videoUUID, err := uuid.Parse(chi.URLParam(r, "videoId"))
	if err != nil {
		http.Error(w, "Invalid video ID", http.StatusBadRequest)
		return
	}

	recipients, err := h.recipientService.GetRecipients(r.Context(), videoUUID, userID)
	if err != nil {
		log.Printf("[GetRecipients] Failed to get recipients for video %s: %v", videoUUID, err)
		http.Error(w, "Failed to get recipients", statusFromError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(recipients)
}
