package model

import "time"

// Day is the denormalized per-user-per-day aggregate over tasks.
//
// It is derived data: every row can be rebuilt from the tasks table, and the
// reconcile job does exactly that. Invariants maintained by the task service:
// 0 <= DoneCount <= Total, and no row exists with Total == 0 (the row is
// deleted instead).
type Day struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);index:idx_days_user_date,unique,priority:1" json:"userId"`
	Date      string    `gorm:"size:10;index:idx_days_user_date,unique,priority:2" json:"date"`
	Total     int       `json:"total"`
	DoneCount int       `json:"doneCount"`
	UpdatedAt time.Time `json:"updatedAt"`
}
