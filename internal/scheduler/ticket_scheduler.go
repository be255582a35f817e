package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/storefront-backend/internal/metrics"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const autoCloseJob = "ticket_auto_close"

// TicketCloser closes resolved tickets that went quiet
type TicketCloser interface {
	AutoCloseResolved(ctx context.Context, olderThan time.Duration) (int, error)
}

// TicketScheduler runs the stale ticket sweep on a cron spec
type TicketScheduler struct {
	cron      *cron.Cron
	tickets   TicketCloser
	spec      string
	olderThan time.Duration
}

func NewTicketScheduler(tickets TicketCloser, spec string, olderThan time.Duration) *TicketScheduler {
	return &TicketScheduler{
		cron:      cron.New(),
		tickets:   tickets,
		spec:      spec,
		olderThan: olderThan,
	}
}

func (s *TicketScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.RunOnce); err != nil {
		logger.Error("Failed to add cron job for ticket auto-close", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Ticket scheduler started", map[string]interface{}{
		"spec":       s.spec,
		"older_than": s.olderThan.String(),
	})
	return nil
}

// RunOnce performs one sweep
func (s *TicketScheduler) RunOnce() {
	logger.Info("Starting scheduled ticket auto-close")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	closed, err := s.tickets.AutoCloseResolved(ctx, s.olderThan)
	metrics.RecordJob(autoCloseJob, err)
	if err != nil {
		logger.Error("Failed to auto-close resolved tickets", err)
		return
	}

	logger.Info("Ticket auto-close finished", map[string]interface{}{
		"closed": closed,
	})
}

// Stop waits for a running sweep to finish
func (s *TicketScheduler) Stop() {
	logger.Info("Stopping ticket scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Ticket scheduler stopped")
}
