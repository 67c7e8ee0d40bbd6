package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/civiops/helpdesk-service/internal/domain"
)

func newReportFixture() (*memTicketRepo, *ReportService) {
	repo := newMemTicketRepo()
	retention := NewRetentionService(repo, nil, nil, zap.NewNop(), 30*24*time.Hour)
	return repo, NewReportService(repo, retention)
}

func TestMonthlySnapshotSweepsBeforeQuerying(t *testing.T) {
	repo, svc := newReportFixture()
	admin := &domain.Identity{ID: "adm-1", Role: domain.RoleProviderAdmin}

	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	gold := 4
	done := created.Add(2 * time.Hour)
	repo.tickets["t-1"] = domain.Ticket{
		ID:            "t-1",
		Title:         "printer",
		Status:        domain.TicketStatusClosed,
		CreatedAt:     created,
		CompletedAt:   &done,
		DeadlineHours: &gold,
		Version:       1,
	}

	_, err := svc.MonthlySnapshot(context.Background(), admin, 2026, time.March)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(repo.calls), 2)
	sweepIdx, reportIdx := -1, -1
	for i, call := range repo.calls {
		switch call {
		case "sweep":
			if sweepIdx == -1 {
				sweepIdx = i
			}
		case "report":
			reportIdx = i
		}
	}
	require.NotEqual(t, -1, sweepIdx, "snapshot never swept")
	require.NotEqual(t, -1, reportIdx, "snapshot never queried")
	assert.Less(t, sweepIdx, reportIdx, "sweep must run before the snapshot query")
}

func TestMonthlySnapshotLines(t *testing.T) {
	repo, svc := newReportFixture()
	admin := &domain.Identity{ID: "adm-1", Role: domain.RoleProviderAdmin}

	// seed relative to the clock so the pre-snapshot sweep leaves the
	// closed ticket alone
	created := time.Now().UTC().Add(-8 * time.Hour)
	year, month, _ := created.Date()
	gold := 4
	tier := domain.TierGold
	late := created.Add(6 * time.Hour)
	repo.tickets["t-breach"] = domain.Ticket{
		ID:            "t-breach",
		Title:         "mail relay down",
		Status:        domain.TicketStatusClosed,
		Tier:          &tier,
		CreatedAt:     created,
		CompletedAt:   &late,
		DeadlineHours: &gold,
		Version:       1,
	}
	repo.tickets["t-new"] = domain.Ticket{
		ID:        "t-new",
		Title:     "screen flicker",
		Status:    domain.TicketStatusNew,
		CreatedAt: created,
		Version:   1,
	}
	// outside the requested month
	repo.tickets["t-outside"] = domain.Ticket{
		ID:        "t-outside",
		Title:     "other month",
		Status:    domain.TicketStatusNew,
		CreatedAt: created.AddDate(0, -2, 0),
		Version:   1,
	}

	snapshot, err := svc.MonthlySnapshot(context.Background(), admin, year, month)
	require.NoError(t, err)
	require.Len(t, snapshot.Lines, 2)

	byID := map[string]ReportLine{}
	for _, line := range snapshot.Lines {
		byID[line.TicketID] = line
	}

	breach := byID["t-breach"]
	assert.Equal(t, "breach +2h", breach.SLALabel)
	assert.Equal(t, "4h", breach.DeadlineLabel)
	assert.Equal(t, "Gold", breach.Tier)
	assert.Equal(t, "Mairie de Lyon", breach.OrganizationName)

	fresh := byID["t-new"]
	assert.Equal(t, "Not defined", fresh.DeadlineLabel)
	assert.Equal(t, "not applicable", fresh.SLALabel)
	assert.Empty(t, fresh.Tier)
}

func TestMonthlySnapshotDeniedForSitePersonnel(t *testing.T) {
	_, svc := newReportFixture()
	orgID := "org-1"
	personnel := &domain.Identity{ID: "per-1", Role: domain.RoleSitePersonnel, OrganizationID: &orgID}

	_, err := svc.MonthlySnapshot(context.Background(), personnel, 2026, time.March)
	requireCode(t, err, "AUTHORIZATION_DENIED")
}

func TestExportXLSX(t *testing.T) {
	_, svc := newReportFixture()
	done := time.Date(2026, 3, 12, 16, 0, 0, 0, time.UTC)
	snapshot := &Snapshot{
		Year:  2026,
		Month: time.March,
		Lines: []ReportLine{{
			TicketID:         "t-1",
			Title:            "printer",
			Category:         "hardware",
			Status:           "Closed",
			Tier:             "Gold",
			DeadlineLabel:    "4h",
			SLALabel:         "on time",
			OrganizationName: "Mairie de Lyon",
			TechnicianName:   "Marc",
			CreatedAt:        done.Add(-2 * time.Hour),
			CompletedAt:      &done,
		}},
	}

	payload, err := svc.ExportXLSX(snapshot)
	require.NoError(t, err)
	require.NotEmpty(t, payload)

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("2026-03")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, reportHeader, rows[0])
	assert.Equal(t, "t-1", rows[1][0])
	assert.Equal(t, "on time", rows[1][8])
}
