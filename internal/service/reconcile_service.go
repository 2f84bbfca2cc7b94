package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"daily-charge/internal/model"
	"daily-charge/internal/repository"
)

// ReconcileService rebuilds day aggregates from task rows. Aggregates are
// derived data, so a rebuild is always safe; it exists as a repair path for
// rows written before the transactional maintainer, and as a nightly sweep.
type ReconcileService struct {
	db    *gorm.DB
	tasks *repository.TaskRepository
	days  *repository.DayRepository
	users *repository.UserRepository
	log   *zap.SugaredLogger
}

func NewReconcileService(db *gorm.DB, tasks *repository.TaskRepository, days *repository.DayRepository, users *repository.UserRepository, log *zap.SugaredLogger) *ReconcileService {
	return &ReconcileService{db: db, tasks: tasks, days: days, users: users, log: log}
}

// Rebuild recomputes every day row for one user inside a single transaction:
// counts are regrouped from tasks, mismatched rows updated, rows without
// tasks deleted, missing rows created.
func (s *ReconcileService) Rebuild(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tasks := s.tasks.WithTx(tx)
		days := s.days.WithTx(tx)

		all, err := tasks.ListByUser(ctx, userID)
		if err != nil {
			return err
		}

		type counts struct{ total, done int }
		want := make(map[string]counts)
		for _, t := range all {
			c := want[t.Date]
			c.total++
			if t.Done {
				c.done++
			}
			want[t.Date] = c
		}

		existing, err := days.ListByUser(ctx, userID)
		if err != nil {
			return err
		}

		for _, day := range existing {
			c, ok := want[day.Date]
			if !ok {
				if err := days.Delete(ctx, day.ID); err != nil {
					return err
				}
				continue
			}
			delete(want, day.Date)
			if day.Total != c.total || day.DoneCount != c.done {
				day.Total = c.total
				day.DoneCount = c.done
				if err := days.Save(ctx, &day); err != nil {
					return err
				}
			}
		}

		for date, c := range want {
			if err := days.Create(ctx, &model.Day{
				ID:        uuid.NewString(),
				UserID:    userID,
				Date:      date,
				Total:     c.total,
				DoneCount: c.done,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// RebuildAll sweeps every user, logging and continuing past per-user
// failures so one bad account does not starve the rest.
func (s *ReconcileService) RebuildAll(ctx context.Context) error {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	failed := 0
	for _, u := range users {
		if err := s.Rebuild(ctx, u.ID); err != nil {
			failed++
			s.log.Errorw("reconcile failed", "userID", u.ID, "error", err)
		}
	}
	s.log.Infow("reconcile sweep done",
		"users", len(users),
		"failed", failed,
		"elapsed", time.Since(start).String(),
	)
	return nil
}
