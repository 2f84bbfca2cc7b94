package model

import "time"

// DateLayout is the calendar-day format used everywhere a date is stored or
// compared. Tasks and days carry plain day strings, never timestamps, so two
// tasks created at different times of the same day always land on the same day.
const DateLayout = "2006-01-02"

// Task is a single dated to-do item.
type Task struct {
	ID          string `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID      string `gorm:"type:varchar(36);index:idx_tasks_user_date,priority:1" json:"userId"`
	Name        string `gorm:"size:255" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Done        bool   `gorm:"default:false" json:"done"`
	Date        string `gorm:"size:10;index:idx_tasks_user_date,priority:2" json:"date"`
	// Position is 1-based and dense within a (user, date) partition: after any
	// completed create/delete/reorder the values are exactly 1..N.
	Position  int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
