package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/benvon/activity-coach/internal/database"
	"github.com/benvon/activity-coach/internal/models"
	"github.com/benvon/activity-coach/internal/request"
	"github.com/benvon/activity-coach/internal/validation"
	"github.com/gorilla/mux"
)

// ProfilesHandler handles profile requests
type ProfilesHandler struct {
	profileRepo *database.ProfileRepository
}

// NewProfilesHandler creates a new profiles handler
func NewProfilesHandler(profileRepo *database.ProfileRepository) *ProfilesHandler {
	return &ProfilesHandler{profileRepo: profileRepo}
}

// RegisterRoutes registers profile routes
func (h *ProfilesHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/profile", h.GetProfile).Methods("GET")
	r.HandleFunc("/profile", h.UpdateProfile).Methods("PUT", "PATCH")
}

// GetProfile returns the user's profile, substituting placeholder values
// when none has been written yet
func (h *ProfilesHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	profile, err := h.profileRepo.GetByUserID(r.Context(), user.ID)
	if err != nil {
		profile = models.NewPlaceholderProfile(user.ID)
	}

	respondJSON(w, http.StatusOK, profile)
}

// UpdateProfileRequest represents a partial profile update. Only fields
// present in the body are applied.
type UpdateProfileRequest struct {
	PrimaryGoal    *string   `json:"primary_goal" validate:"omitempty,max=500"`
	SecondaryGoals *[]string `json:"secondary_goals" validate:"omitempty,dive,max=500"`
	FocusAreas     *[]string `json:"focus_areas" validate:"omitempty,dive,max=100"`
	PriorityOrder  *[]string `json:"priority_order" validate:"omitempty,dive,max=100"`
	TimeHorizon    *string   `json:"time_horizon" validate:"omitempty,max=100"`
}

// UpdateProfile applies a partial update and upserts the profile
func (h *ProfilesHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	profile, err := h.profileRepo.GetByUserID(r.Context(), user.ID)
	if err != nil {
		profile = models.NewPlaceholderProfile(user.ID)
	}

	if req.PrimaryGoal != nil {
		profile.PrimaryGoal = validation.SanitizeText(*req.PrimaryGoal)
	}
	if req.SecondaryGoals != nil {
		profile.SecondaryGoals = sanitizeAll(*req.SecondaryGoals)
	}
	if req.FocusAreas != nil {
		profile.FocusAreas = sanitizeAll(*req.FocusAreas)
	}
	if req.PriorityOrder != nil {
		profile.PriorityOrder = sanitizeAll(*req.PriorityOrder)
	}
	if req.TimeHorizon != nil {
		profile.TimeHorizon = validation.SanitizeText(*req.TimeHorizon)
	}

	if err := h.profileRepo.Upsert(r.Context(), profile); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update profile")
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

func sanitizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := validation.SanitizeText(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}
