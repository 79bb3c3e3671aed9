package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
)

// HousekeepingService periodically deletes expired refresh tokens so the
// table does not grow without bound.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the worker in the background. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup performs one sweep and returns the number of rows removed.
func (s *HousekeepingService) Cleanup(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	n, err := s.Store.RefreshTokens().DeleteExpiredRefreshTokens(ctx, time.Now())
	if err != nil {
		s.Logger.Error("failed to delete expired refresh tokens", "error", err)
		return 0
	}
	s.Logger.Info("housekeeping cleanup completed", "refresh_tokens_deleted", n)
	return n
}
