package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/jmoiron/sqlx/types"

	"finplanner/internal/auth"
	"finplanner/internal/service"
)

type PlanHandler struct {
	planService *service.PlanService
}

type savePlanRequest struct {
	TotalAssets int64           `json:"total_assets"`
	Ratios      json.RawMessage `json:"ratios"`
}

func NewPlanHandler(planService *service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// SavePlan создает план при первом обращении и обновляет при последующих
func (h *PlanHandler) SavePlan(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.VerifyToken(r)
	if err != nil {
		log.Printf("[SavePlan] Authentication failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req savePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[SavePlan] Failed to decode request body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ratios := types.JSONText(req.Ratios)
	if len(ratios) == 0 {
		ratios = types.JSONText("{}")
	}

	plan, err := h.planService.SavePlan(r.Context(), userID, req.TotalAssets, ratios)
	if err != nil {
		log.Printf("[SavePlan] Failed to save plan: %v", err)
		http.Error(w, "Failed to save plan", statusFromError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(plan)
}

// GetPlan возвращает план текущего пользователя
func (h *PlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.VerifyToken(r)
	if err != nil {
		log.Printf("[GetPlan] Authentication failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	plan, err := h.planService.GetPlanByOwner(r.Context(), userID)
	if err != nil {
		log.Printf("[GetPlan] Failed to get plan: %v", err)
		http.Error(w, "Plan not found", statusFromError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(plan)
}
