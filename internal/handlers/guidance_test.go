package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benvon/activity-coach/internal/models"
	"github.com/benvon/activity-coach/internal/request"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type stubSnapshots struct {
	snapshot *models.ActivitySnapshot
	err      error
}

func (s *stubSnapshots) SnapshotForPeriod(_ context.Context, _ uuid.UUID, _ int) (*models.ActivitySnapshot, error) {
	return s.snapshot, s.err
}

func authedRequest(method, target string, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	user := &models.User{ID: uuid.New(), Email: "user@example.com"}
	return req.WithContext(request.WithUser(req.Context(), user))
}

func TestGuidanceRequiresUser(t *testing.T) {
	t.Parallel()

	h := NewGuidanceHandler(nil, &stubSnapshots{}, zap.NewNop())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/guidance", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.Guidance(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestGuidanceRejectsInvalidBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{`},
		{name: "negative period", body: `{"period_days": -1}`},
		{name: "oversized message", body: `{"message": "` + strings.Repeat("a", 2001) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewGuidanceHandler(nil, &stubSnapshots{}, zap.NewNop())
			rec := httptest.NewRecorder()

			h.Guidance(rec, authedRequest(http.MethodPost, "/api/v1/ai/guidance", tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestStatusReportsGateDecision(t *testing.T) {
	t.Parallel()

	snapshots := &stubSnapshots{snapshot: &models.ActivitySnapshot{
		PeriodDays:         7,
		TotalActiveMinutes: 150,
		DaysLogged:         5,
		StreakDays:         2,
		Onboarding:         models.OnboardingStatus{IsComplete: true, MinutesProgress: 100},
	}}
	h := NewGuidanceHandler(nil, snapshots, zap.NewNop())
	rec := httptest.NewRecorder()

	h.Status(rec, authedRequest(http.MethodGet, "/api/v1/ai/status", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var envelope struct {
		Success bool           `json:"success"`
		Data    StatusResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if !envelope.Success {
		t.Error("success = false, want true")
	}
	if !envelope.Data.AllowReasoning {
		t.Error("allow_reasoning = false, want true at 150 minutes")
	}
	if envelope.Data.Confidence != models.ConfidenceMedium {
		t.Errorf("confidence = %s, want MEDIUM", envelope.Data.Confidence)
	}
	if envelope.Data.Snapshot.TotalActiveMinutes != 150 {
		t.Errorf("snapshot minutes = %d, want 150", envelope.Data.Snapshot.TotalActiveMinutes)
	}
}

func TestStatusZeroDaysDenies(t *testing.T) {
	t.Parallel()

	snapshots := &stubSnapshots{snapshot: &models.ActivitySnapshot{
		PeriodDays:         7,
		TotalActiveMinutes: 300,
		DaysLogged:         0,
	}}
	h := NewGuidanceHandler(nil, snapshots, zap.NewNop())
	rec := httptest.NewRecorder()

	h.Status(rec, authedRequest(http.MethodGet, "/api/v1/ai/status", ""))

	var envelope struct {
		Data StatusResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if envelope.Data.AllowReasoning {
		t.Error("allow_reasoning = true, want false with zero days logged")
	}
}
