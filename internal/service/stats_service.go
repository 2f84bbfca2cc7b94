package service

import (
	"context"
	"time"

	"daily-charge/internal/apperr"
	"daily-charge/internal/model"
	"daily-charge/internal/repository"
	"daily-charge/internal/stats"
)

// StatsService fetches a user's day rows and hands them to the pure
// aggregation functions. It holds no state of its own; every call recomputes
// from the store.
type StatsService struct {
	days *repository.DayRepository
}

func NewStatsService(days *repository.DayRepository) *StatsService {
	return &StatsService{days: days}
}

// Summary returns all derived metrics for the user as of now.
func (s *StatsService) Summary(ctx context.Context, userID string, now time.Time) (stats.Summary, error) {
	if userID == "" {
		return stats.Summary{}, apperr.Auth("a user id is required for statistics")
	}
	days, err := s.days.ListByUser(ctx, userID)
	if err != nil {
		return stats.Summary{}, apperr.Store("load days", err)
	}
	return stats.Summarize(days, now), nil
}

// ListDays returns the raw day rows, most recent first.
func (s *StatsService) ListDays(ctx context.Context, userID string) ([]model.Day, error) {
	if userID == "" {
		return nil, apperr.Auth("a user id is required to list days")
	}
	days, err := s.days.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Store("load days", err)
	}
	return days, nil
}
