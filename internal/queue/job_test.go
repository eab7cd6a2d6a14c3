package queue

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewJobDefaults(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	job := NewJob(JobTypeInsightRollup, userID)

	if job.Type != JobTypeInsightRollup {
		t.Errorf("type = %s, want %s", job.Type, JobTypeInsightRollup)
	}
	if job.UserID != userID {
		t.Errorf("user ID = %s, want %s", job.UserID, userID)
	}
	if job.RetryCount != 0 {
		t.Errorf("retry count = %d, want 0", job.RetryCount)
	}
	if job.MaxRetries != 3 {
		t.Errorf("max retries = %d, want 3", job.MaxRetries)
	}
	if job.ID == uuid.Nil {
		t.Error("job ID is zero")
	}
}

func TestShouldProcess(t *testing.T) {
	t.Parallel()

	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name      string
		notBefore *time.Time
		notAfter  *time.Time
		want      bool
	}{
		{name: "no constraints", want: true},
		{name: "not before in future", notBefore: &future, want: false},
		{name: "not before in past", notBefore: &past, want: true},
		{name: "not after in past", notAfter: &past, want: false},
		{name: "not after in future", notAfter: &future, want: true},
		{name: "within window", notBefore: &past, notAfter: &future, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			job := NewJob(JobTypeRollupSweep, uuid.Nil)
			job.NotBefore = tt.notBefore
			job.NotAfter = tt.notAfter

			if got := job.ShouldProcess(); got != tt.want {
				t.Errorf("ShouldProcess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsExpired(t *testing.T) {
	t.Parallel()

	job := NewJob(JobTypeInsightRollup, uuid.New())
	if job.IsExpired() {
		t.Error("job with no deadline reported expired")
	}

	past := time.Now().Add(-time.Minute)
	job.NotAfter = &past
	if !job.IsExpired() {
		t.Error("job past its deadline not reported expired")
	}
}

func TestRetryAccounting(t *testing.T) {
	t.Parallel()

	job := NewJob(JobTypeInsightRollup, uuid.New())
	for i := 0; i < job.MaxRetries; i++ {
		if !job.CanRetry() {
			t.Fatalf("CanRetry() = false at retry %d of %d", i, job.MaxRetries)
		}
		job.IncrementRetry()
	}
	if job.CanRetry() {
		t.Errorf("CanRetry() = true after %d retries", job.RetryCount)
	}
}
