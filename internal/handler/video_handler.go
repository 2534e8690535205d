package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"finplanner/internal/auth"
	"finplanner/internal/service"
	"finplanner/internal/service/s3"
)

type VideoHandler struct {
	uploadService *service.VideoUploadService
}

type completeUploadRequest struct {
	UploadID string `json:"uploadId"`
	Parts    []struct {
		PartNumber   int    `json:"partNumber"`
		IntegrityTag string `json:"integrityTag"`
	} `json:"parts"`
}

type partURLResponse struct {
	PartNumber int    `json:"partNumber"`
	URL        string `json:"url"`
}

func NewVideoHandler(uploadService *service.VideoUploadService) *VideoHandler {
	return &VideoHandler{uploadService: uploadService}
}

// InitUpload инициирует multipart-загрузку видеописьма плана
func (h *VideoHandler) InitUpload(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.VerifyToken(r)
	if err != nil {
		log.Printf("[InitUpload] Authentication failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	planID, err := uuid.Parse(chi.URLParam(r, "planId"))
	if err != nil {
		http.Error(w, "Invalid plan ID", http.StatusBadRequest)
		return
	}

	session, err := h.uploadService.InitiateUpload(r.Context(), planID, userID)
	if err != nil {
		log.Printf("[InitUpload] Failed to initiate upload for plan %s: %v", planID, err)
		http.Error(w, "Failed to initiate upload", statusFromError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)
}

// GetPartUploadURL выдает подписанную ссылку на загрузку одной части
func (h *VideoHandler) GetPartUploadURL(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.VerifyToken(r)
	if err != nil {
		log.Printf("[GetPartUploadURL] Authentication failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	planID, err := uuid.Parse(chi.URLParam(r, "planId"))
	if err != nil {
		http.Error(w, "Invalid plan ID", http.StatusBadRequest)
		return
	}

	uploadID := r.URL.Query().Get("uploadId")
	if uploadID == "" {
		http.Error(w, "uploadId is required", http.StatusBadRequest)
		return
	}

	partNumber, err := strconv.Atoi(r.URL.Query().Get("partNumber"))
	if err != nil || partNumber < 1 {
		http.Error(w, "Invalid part number", http.StatusBadRequest)
		return
	}

	video, err := h.uploadService.VideoForPlan(r.Context(), planID, userID)
	if err != nil {
		log.Printf("[GetPartUploadURL] Failed to get video for plan %s: %v", planID, err)
		http.Error(w, "Video not found", statusFromError(err))
		return
	}

	url, err := h.uploadService.GetPartUploadURL(r.Context(), video.UUID, userID, uploadID, partNumber)
	if err != nil {
		log.Printf("[GetPartUploadURL] Failed to presign part %d: %v", partNumber, err)
		http.Error(w, "Failed to presign part upload", statusFromError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(partURLResponse{PartNumber: partNumber, URL: url})
}

// CompleteUpload завершает multipart-загрузку по списку частей
func (h *VideoHandler) CompleteUpload(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.VerifyToken(r)
	if err != nil {
		log.Printf("[CompleteUpload] Authentication failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	planID, err := uuid.Parse(chi.URLParam(r, "planId"))
	if err != nil {
		http.Error(w, "Invalid plan ID", http.StatusBadRequest)
		return
	}

	var req completeUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[CompleteUpload] Failed to decode request body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.UploadID == "" || len(req.Parts) == 0 {
		http.Error(w, "uploadId and parts are required", http.StatusBadRequest)
		return
	}

	parts := make([]s3.CompletedPart, 0, len(req.Parts))
	for _, part := range req.Parts {
		parts = append(parts, s3.CompletedPart{
			PartNumber: part.PartNumber,
			ETag:       part.IntegrityTag,
		})
	}

	video, err := h.uploadService.VideoForPlan(r.Context(), planID, userID)
	if err != nil {
		log.Printf("[CompleteUpload] Failed to get video for plan %s: %v", planID, err)
		http.Error(w, "Video not found", statusFromError(err))
		return
	}

	if err := h.uploadService.CompleteUpload(r.Context(), video.UUID, userID, req.UploadID, parts); err != nil {
		log.Printf("[CompleteUpload] Failed to complete upload %s: %v", req.UploadID, err)
		http.Error(w, "Failed to complete upload", statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusOK)
}

// DeleteVideo удаляет видеописьмо плана вместе с объектом в хранилище
func (h *VideoHandler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.VerifyToken(r)
	if err != nil {
		log.Printf("[DeleteVideo] Authentication failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	planID, err := uuid.Parse(chi.URLParam(r, "planId"))
	if err != nil {
		http.Error(w, "Invalid plan ID", http.StatusBadRequest)
		return
	}

	video, err := h.uploadService.VideoForPlan(r.Context(), planID, userID)
	if err != nil {
		log.Printf("[DeleteVideo] Failed to get video for plan %s: %v", planID, err)
		http.Error(w, "Video not found", statusFromError(err))
		return
	}

	if err := h.uploadService.DeleteVideo(r.Context(), video.UUID, userID); err != nil {
		log.Printf("[DeleteVideo] Failed to delete video %s: %v", video.UUID, err)
		http.Error(w, "Failed to delete video", statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusOK)
}
