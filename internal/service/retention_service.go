package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civiops/helpdesk-service/internal/events"
	"github.com/civiops/helpdesk-service/internal/observability"
	"github.com/civiops/helpdesk-service/internal/repository"
	apperrors "github.com/civiops/helpdesk-service/pkg/util"
)

// RetentionService purges closed tickets once they age past the retention
// window. Purging is a hard delete with no archival copy; the loss of history
// beyond the window is deliberate.
type RetentionService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	window     time.Duration
}

// NewRetentionService builds the service. A non-positive window falls back to
// 30 days.
func NewRetentionService(tickets repository.TicketRepository, dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger, window time.Duration) *RetentionService {
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	return &RetentionService{
		tickets:    tickets,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
		window:     window,
	}
}

// Sweep deletes every Closed ticket whose completion timestamp lies before
// now minus the retention window, and reports how many were purged.
// Idempotent: a second sweep with no newly eligible tickets purges zero.
func (s *RetentionService) Sweep(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-s.window)
	purged, err := s.tickets.DeleteClosedBefore(ctx, cutoff)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	s.metrics.RecordSweep(purged)
	if purged > 0 {
		s.logger.Info("retention sweep purged tickets",
			zap.Int64("purged", purged),
			zap.Time("cutoff", cutoff))
		if s.dispatcher != nil {
			_ = s.dispatcher.Publish(ctx, events.Event{
				ID:        uuid.NewString(),
				Type:      events.EventTicketsPurged,
				Timestamp: now,
				Payload: events.TicketsPurgedPayload{
					Purged: purged,
					Cutoff: cutoff,
				},
			})
		}
	}
	return purged, nil
}

// Window exposes the configured retention window.
func (s *RetentionService) Window() time.Duration {
	return s.window
}
