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

const defaultRecentLogLimit = 20

// ActivitiesHandler handles activity catalog and log requests
type ActivitiesHandler struct {
	activityRepo *database.ActivityRepository
	logRepo      *database.ActivityLogRepository
}

// NewActivitiesHandler creates a new activities handler
func NewActivitiesHandler(activityRepo *database.ActivityRepository, logRepo *database.ActivityLogRepository) *ActivitiesHandler {
	return &ActivitiesHandler{
		activityRepo: activityRepo,
		logRepo:      logRepo,
	}
}

// RegisterRoutes registers activity routes
func (h *ActivitiesHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/activities", h.ListActivities).Methods("GET")
	r.HandleFunc("/activities/logs", h.CreateLog).Methods("POST")
	r.HandleFunc("/activities/logs", h.ListLogs).Methods("GET")
}

// ListActivities returns the activity catalog
func (h *ActivitiesHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.activityRepo.List(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list activities")
		return
	}

	respondJSON(w, http.StatusOK, activities)
}

// CreateLogRequest represents a request to log an activity
type CreateLogRequest struct {
	ActivityID      string `json:"activity_id" validate:"required,uuid"`
	Date            string `json:"date" validate:"omitempty"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,min=1,max=1440"`
	Completed       *bool  `json:"completed"`
	Notes           string `json:"notes" validate:"omitempty,max=1000"`
}

// CreateLog creates an activity log row for the authenticated user
func (h *ActivitiesHandler) CreateLog(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	activityID, err := uuid.Parse(req.ActivityID)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid activity_id")
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		date, err = time.Parse(time.RFC3339, req.Date)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "date must be RFC3339")
			return
		}
	}

	completed := true
	if req.Completed != nil {
		completed = *req.Completed
	}

	log := &models.ActivityLog{
		ID:              uuid.New(),
		UserID:          user.ID,
		ActivityID:      activityID,
		Date:            date,
		DurationMinutes: req.DurationMinutes,
		Completed:       completed,
		Notes:           validation.SanitizeText(req.Notes),
	}

	if err := h.logRepo.Create(r.Context(), log); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create activity log")
		return
	}

	respondJSON(w, http.StatusCreated, log)
}

// ListLogs returns the user's most recent logs
func (h *ActivitiesHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	limit := defaultRecentLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	logs, err := h.logRepo.GetRecent(r.Context(), user.ID, limit)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list activity logs")
		return
	}

	respondJSON(w, http.StatusOK, logs)
}
