package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/princeprakhar/roomies-backend/internal/apperrors"
	"github.com/princeprakhar/roomies-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportService_CreateReport(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedUser(t, st, "ana", false)
	seedUser(t, st, "beto", true)
	svc := NewReportService(st, st, 5)

	res, err := svc.CreateReport(ctx, "ana", CreateReportRequest{ReportedUser: "beto", Reason: "spam", Description: " sends links "})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ReportID)
	assert.Empty(t, res.Warning)

	report, err := st.FindReport(ctx, res.ReportID)
	require.NoError(t, err)
	assert.Equal(t, "sends links", report.Description)

	_, err = svc.CreateReport(ctx, "ana", CreateReportRequest{ReportedUser: "beto", Reason: "scam"})
	assert.True(t, apperrors.Is(err, apperrors.Conflict))
}

func TestReportService_CreateReportErrors(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedUser(t, st, "ana", false)
	svc := NewReportService(st, st, 5)

	tests := []struct {
		name string
		req  CreateReportRequest
		kind apperrors.Kind
	}{
		{"self report", CreateReportRequest{ReportedUser: "ana", Reason: "spam"}, apperrors.Forbidden},
		{"unknown user", CreateReportRequest{ReportedUser: "ghost", Reason: "spam"}, apperrors.NotFound},
		{"invalid reason", CreateReportRequest{ReportedUser: "ghost", Reason: "rude"}, apperrors.InvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateReport(ctx, "ana", tt.req)
			assert.True(t, apperrors.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestReportService_WarningAtThreshold(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedUser(t, st, "target", true)
	svc := NewReportService(st, st, 3)

	for i := 1; i <= 3; i++ {
		reporter := fmt.Sprintf("reporter%d", i)
		seedUser(t, st, reporter, false)

		res, err := svc.CreateReport(ctx, reporter, CreateReportRequest{ReportedUser: "target", Reason: "harassment"})
		require.NoError(t, err)
		if i < 3 {
			assert.Empty(t, res.Warning)
		} else {
			assert.Contains(t, res.Warning, "3 pending reports")
		}
	}

	// The warning is informational only.
	target := mustFind(t, st, "target")
	assert.Equal(t, "active", string(target.AccountStatus))
}
