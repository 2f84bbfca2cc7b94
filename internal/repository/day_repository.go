package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"daily-charge/internal/model"
)

// DayRepository handles the per-user-per-day aggregate rows.
type DayRepository struct {
	db *gorm.DB
}

func NewDayRepository(db *gorm.DB) *DayRepository {
	return &DayRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *DayRepository) WithTx(tx *gorm.DB) *DayRepository {
	return &DayRepository{db: tx}
}

// Get returns (nil, nil) when no row exists for (userID, date).
func (r *DayRepository) Get(ctx context.Context, userID, date string) (*model.Day, error) {
	return r.find(ctx, userID, date, false)
}

// GetForUpdate is Get with a row lock, for read-modify-write inside a
// transaction. SQLite has no FOR UPDATE; its writer lock covers the same case.
func (r *DayRepository) GetForUpdate(ctx context.Context, userID, date string) (*model.Day, error) {
	return r.find(ctx, userID, date, true)
}

func (r *DayRepository) find(ctx context.Context, userID, date string, lock bool) (*model.Day, error) {
	q := r.db.WithContext(ctx)
	if lock && r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var day model.Day
	err := q.Where("user_id = ? AND date = ?", userID, date).First(&day).Error
	switch {
	case err == nil:
		return &day, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find day: %w", err)
	}
}

func (r *DayRepository) Create(ctx context.Context, day *model.Day) error {
	if err := r.db.WithContext(ctx).Create(day).Error; err != nil {
		return fmt.Errorf("create day: %w", err)
	}
	return nil
}

func (r *DayRepository) Save(ctx context.Context, day *model.Day) error {
	if err := r.db.WithContext(ctx).Save(day).Error; err != nil {
		return fmt.Errorf("save day: %w", err)
	}
	return nil
}

func (r *DayRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Day{}).Error; err != nil {
		return fmt.Errorf("delete day: %w", err)
	}
	return nil
}

// ListByUser returns all of the user's day rows, most recent first.
func (r *DayRepository) ListByUser(ctx context.Context, userID string) ([]model.Day, error) {
	var days []model.Day
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Find(&days).Error; err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	return days, nil
}
