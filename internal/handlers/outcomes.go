package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/benvon/activity-coach/internal/database"
	"github.com/benvon/activity-coach/internal/models"
	"github.com/benvon/activity-coach/internal/request"
	"github.com/benvon/activity-coach/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const defaultRecentOutcomeLimit = 20

// OutcomesHandler handles self-reported outcome requests
type OutcomesHandler struct {
	outcomeRepo *database.OutcomeRepository
}

// NewOutcomesHandler creates a new outcomes handler
func NewOutcomesHandler(outcomeRepo *database.OutcomeRepository) *OutcomesHandler {
	return &OutcomesHandler{outcomeRepo: outcomeRepo}
}

// RegisterRoutes registers outcome routes
func (h *OutcomesHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/outcomes", h.CreateOutcome).Methods("POST")
	r.HandleFunc("/outcomes", h.ListOutcomes).Methods("GET")
}

// CreateOutcomeRequest represents a request to record an outcome
type CreateOutcomeRequest struct {
	Date              string `json:"date" validate:"omitempty"`
	Type              string `json:"type" validate:"required,max=100"`
	Value             string `json:"value" validate:"required,max=500"`
	RelatedActivityID string `json:"related_activity_id" validate:"omitempty,uuid"`
}

// CreateOutcome records a self-reported outcome
func (h *OutcomesHandler) CreateOutcome(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateOutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		var err error
		date, err = time.Parse(time.RFC3339, req.Date)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "date must be RFC3339")
			return
		}
	}

	outcome := &models.Outcome{
		ID:     uuid.New(),
		UserID: user.ID,
		Date:   date,
		Type:   validation.SanitizeText(req.Type),
		Value:  validation.SanitizeText(req.Value),
	}

	if req.RelatedActivityID != "" {
		related, err := uuid.Parse(req.RelatedActivityID)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid related_activity_id")
			return
		}
		outcome.RelatedActivityID = &related
	}

	if err := h.outcomeRepo.Create(r.Context(), outcome); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to record outcome")
		return
	}

	respondJSON(w, http.StatusCreated, outcome)
}

// ListOutcomes returns the user's most recent outcomes
func (h *OutcomesHandler) ListOutcomes(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	limit := defaultRecentOutcomeLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	outcomes, err := h.outcomeRepo.GetRecent(r.Context(), user.ID, limit)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list outcomes")
		return
	}

	respondJSON(w, http.StatusOK, outcomes)
}
