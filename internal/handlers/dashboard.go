package handlers

import (
	"net/http"

	"github.com/benvon/activity-coach/internal/analytics"
	"github.com/benvon/activity-coach/internal/database"
	"github.com/benvon/activity-coach/internal/models"
	"github.com/benvon/activity-coach/internal/request"
	"github.com/benvon/activity-coach/internal/services/ai"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	dashboardRecentLogs     = 10
	dashboardRecentOutcomes = 5
)

// DashboardHandler aggregates the user's current state for the frontend
type DashboardHandler struct {
	snapshots   ai.SnapshotSource
	logRepo     *database.ActivityLogRepository
	outcomeRepo *database.OutcomeRepository
	insightRepo *database.InsightRepository
	profileRepo *database.ProfileRepository
	logger      *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	snapshots ai.SnapshotSource,
	logRepo *database.ActivityLogRepository,
	outcomeRepo *database.OutcomeRepository,
	insightRepo *database.InsightRepository,
	profileRepo *database.ProfileRepository,
	logger *zap.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		snapshots:   snapshots,
		logRepo:     logRepo,
		outcomeRepo: outcomeRepo,
		insightRepo: insightRepo,
		profileRepo: profileRepo,
		logger:      logger,
	}
}

// RegisterRoutes registers dashboard routes
func (h *DashboardHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/dashboard", h.Dashboard).Methods("GET")
}

// DashboardResponse bundles the snapshot with recent rows
type DashboardResponse struct {
	Profile        *models.Profile          `json:"profile"`
	Snapshot       *models.ActivitySnapshot `json:"snapshot"`
	RecentLogs     []*models.ActivityLog    `json:"recent_logs"`
	RecentOutcomes []*models.Outcome        `json:"recent_outcomes"`
	LatestInsights []*models.InsightSummary `json:"latest_insights"`
}

// Dashboard returns the user's current snapshot and recent activity
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ctx := r.Context()

	snapshot, err := h.snapshots.SnapshotForPeriod(ctx, user.ID, analytics.DefaultWindowDays)
	if err != nil {
		h.logger.Error("snapshot_failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to compute activity snapshot")
		return
	}

	logs, err := h.logRepo.GetRecent(ctx, user.ID, dashboardRecentLogs)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load recent logs")
		return
	}

	outcomes, err := h.outcomeRepo.GetRecent(ctx, user.ID, dashboardRecentOutcomes)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load recent outcomes")
		return
	}

	insights, err := h.insightRepo.GetLatest(ctx, user.ID, ai.MaxInsightHistory)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load insights")
		return
	}

	profile, err := h.profileRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		profile = models.NewPlaceholderProfile(user.ID)
	}

	respondJSON(w, http.StatusOK, DashboardResponse{
		Profile:        profile,
		Snapshot:       snapshot,
		RecentLogs:     logs,
		RecentOutcomes: outcomes,
		LatestInsights: insights,
	})
}
