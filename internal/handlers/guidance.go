package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/benvon/activity-coach/internal/analytics"
	"github.com/benvon/activity-coach/internal/models"
	"github.com/benvon/activity-coach/internal/request"
	"github.com/benvon/activity-coach/internal/services/ai"
	"github.com/benvon/activity-coach/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// GuidanceHandler handles AI guidance requests
type GuidanceHandler struct {
	pipeline  *ai.Pipeline
	snapshots ai.SnapshotSource
	logger    *zap.Logger
}

// NewGuidanceHandler creates a new guidance handler
func NewGuidanceHandler(pipeline *ai.Pipeline, snapshots ai.SnapshotSource, logger *zap.Logger) *GuidanceHandler {
	return &GuidanceHandler{
		pipeline:  pipeline,
		snapshots: snapshots,
		logger:    logger,
	}
}

// RegisterRoutes registers guidance routes
func (h *GuidanceHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/guidance", h.Guidance).Methods("POST")
	r.HandleFunc("/status", h.Status).Methods("GET")
}

// GuidanceRequest represents a guidance request
type GuidanceRequest struct {
	Message    string `json:"message" validate:"omitempty,max=2000"`
	PeriodDays int    `json:"period_days" validate:"omitempty,min=1,max=90"`
}

// Guidance runs one pipeline pass and returns the outcome. Gate denial
// and audit rejection are defined outcomes reported with HTTP 200; only
// technical failures use error status codes.
func (h *GuidanceHandler) Guidance(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req GuidanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	query := validation.SanitizeText(req.Message)

	result, err := h.pipeline.Run(r.Context(), user.ID, query, req.PeriodDays)
	if err != nil {
		h.logger.Error("pipeline_failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		if ai.IsRateLimitError(err) || ai.IsQuotaError(err) || errors.Is(err, ai.ErrMalformedCompletion) {
			respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "The AI service is temporarily unavailable; please retry shortly")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to generate guidance")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// StatusResponse reports whether a full analysis is currently available
// for the user, without invoking any generation.
type StatusResponse struct {
	Confidence     models.ConfidenceTier   `json:"confidence"`
	AllowReasoning bool                    `json:"allow_reasoning"`
	Reason         string                  `json:"reason"`
	Onboarding     models.OnboardingStatus `json:"onboarding"`
	Snapshot       struct {
		TotalActiveMinutes int `json:"total_active_minutes"`
		DaysLogged         int `json:"days_logged"`
		StreakDays         int `json:"streak_days"`
	} `json:"snapshot"`
}

// Status reports the gate decision for the user's current data
func (h *GuidanceHandler) Status(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	snapshot, err := h.snapshots.SnapshotForPeriod(r.Context(), user.ID, analytics.DefaultWindowDays)
	if err != nil {
		h.logger.Error("snapshot_failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to compute activity snapshot")
		return
	}

	decision := ai.DecideFromThresholds(snapshot)

	var resp StatusResponse
	resp.Confidence = decision.Confidence
	resp.AllowReasoning = decision.AllowReasoning
	resp.Reason = decision.Reason
	resp.Onboarding = snapshot.Onboarding
	resp.Snapshot.TotalActiveMinutes = snapshot.TotalActiveMinutes
	resp.Snapshot.DaysLogged = snapshot.DaysLogged
	resp.Snapshot.StreakDays = snapshot.StreakDays

	respondJSON(w, http.StatusOK, resp)
}
