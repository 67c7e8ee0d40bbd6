package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/civiops/helpdesk-service/internal/domain"
)

func seedClosedTicket(repo *memTicketRepo, id string, completed time.Time) {
	repo.tickets[id] = domain.Ticket{
		ID:          id,
		Status:      domain.TicketStatusClosed,
		CreatedAt:   completed.Add(-time.Hour),
		CompletedAt: &completed,
		Version:     1,
	}
}

func TestSweepPurgesOnlyExpiredClosedTickets(t *testing.T) {
	repo := newMemTicketRepo()
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	window := 30 * 24 * time.Hour

	seedClosedTicket(repo, "old-1", now.Add(-31*24*time.Hour))
	seedClosedTicket(repo, "old-2", now.Add(-60*24*time.Hour))
	seedClosedTicket(repo, "fresh", now.Add(-10*24*time.Hour))
	repo.tickets["open"] = domain.Ticket{
		ID:        "open",
		Status:    domain.TicketStatusInProgress,
		CreatedAt: now.Add(-90 * 24 * time.Hour),
		Version:   1,
	}

	svc := NewRetentionService(repo, nil, nil, zap.NewNop(), window)

	purged, err := svc.Sweep(context.Background(), now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if purged != 2 {
		t.Fatalf("purged = %d, want 2", purged)
	}
	if _, ok := repo.tickets["fresh"]; !ok {
		t.Fatal("ticket inside the window was purged")
	}
	if _, ok := repo.tickets["open"]; !ok {
		t.Fatal("open ticket was purged despite never being closed")
	}

	// idempotent: nothing newly eligible
	purged, err = svc.Sweep(context.Background(), now)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if purged != 0 {
		t.Fatalf("second sweep purged = %d, want 0", purged)
	}
}

func TestSweepBoundaryIsExclusive(t *testing.T) {
	repo := newMemTicketRepo()
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	window := 30 * 24 * time.Hour

	// completed exactly at the cutoff stays
	seedClosedTicket(repo, "edge", now.Add(-window))

	svc := NewRetentionService(repo, nil, nil, zap.NewNop(), window)
	purged, err := svc.Sweep(context.Background(), now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if purged != 0 {
		t.Fatalf("purged = %d, want 0", purged)
	}
}

func TestRetentionWindowFallback(t *testing.T) {
	svc := NewRetentionService(newMemTicketRepo(), nil, nil, zap.NewNop(), 0)
	if got := svc.Window(); got != 30*24*time.Hour {
		t.Fatalf("window = %v, want 720h", got)
	}
}
