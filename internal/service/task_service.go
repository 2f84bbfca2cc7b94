package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"daily-charge/internal/apperr"
	"daily-charge/internal/event"
	"daily-charge/internal/model"
	"daily-charge/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Name        string
	Description string
	Date        string
}

// TaskPatch carries partial updates; nil fields are left untouched. A date
// change moves the task between day partitions.
type TaskPatch struct {
	Name        *string
	Description *string
	Date        *string
}

// TaskService owns task mutations and keeps the day aggregates consistent
// with them. Every mutation runs the task write and its paired day adjustment
// in one transaction, so a day failure rolls the task write back. Mutations
// for the same user are additionally serialized behind a per-user lock,
// which removes read-modify-write races on the same day row between
// concurrent callers.
type TaskService struct {
	db    *gorm.DB
	tasks *repository.TaskRepository
	days  *repository.DayRepository
	bus   *event.Bus
	log   *zap.SugaredLogger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewTaskService(db *gorm.DB, tasks *repository.TaskRepository, days *repository.DayRepository, bus *event.Bus, log *zap.SugaredLogger) *TaskService {
	return &TaskService{
		db:    db,
		tasks: tasks,
		days:  days,
		bus:   bus,
		log:   log,
		locks: make(map[string]*sync.Mutex),
	}
}

// CreateTask inserts a task at the end of its date's list and bumps the day
// total, creating the day row on the first task of a date.
func (s *TaskService) CreateTask(ctx context.Context, userID string, input TaskInput) (*model.Task, error) {
	if userID == "" {
		return nil, apperr.Auth("a user id is required to create tasks")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Validation("name", "must not be empty")
	}
	date, err := normalizeDate(input.Date)
	if err != nil {
		return nil, err
	}

	defer s.lockUser(userID)()

	var task *model.Task
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tasks := s.tasks.WithTx(tx)
		days := s.days.WithTx(tx)

		count, err := tasks.CountByDate(ctx, userID, date)
		if err != nil {
			return err
		}

		task = &model.Task{
			ID:          uuid.NewString(),
			UserID:      userID,
			Name:        name,
			Description: input.Description,
			Done:        false,
			Date:        date,
			Position:    int(count) + 1,
		}
		if err := tasks.Create(ctx, task); err != nil {
			return err
		}
		return s.dayAdd(ctx, days, userID, date, false)
	})
	if err != nil {
		return nil, storeErr("create task", err)
	}
	s.log.Debugw("task created", "taskID", task.ID, "date", date, "position", task.Position)

	s.bus.Publish(event.TaskAdded, event.Payload{TaskID: task.ID, Dates: []string{date}})
	return task, nil
}

// ToggleTask flips a task's done state and moves the day's done count with
// it. Toggling twice returns the aggregate to where it started.
func (s *TaskService) ToggleTask(ctx context.Context, userID, taskID string) (*model.Task, error) {
	if userID == "" {
		return nil, apperr.Auth("a user id is required to toggle tasks")
	}

	defer s.lockUser(userID)()

	var task *model.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tasks := s.tasks.WithTx(tx)
		days := s.days.WithTx(tx)

		var err error
		task, err = tasks.FindByID(ctx, userID, taskID)
		if err != nil {
			return err
		}
		if task == nil {
			return apperr.NotFound("task", taskID)
		}

		task.Done = !task.Done
		if err := tasks.Save(ctx, task); err != nil {
			return err
		}
		return s.dayToggle(ctx, days, userID, task.Date, task.Done)
	})
	if err != nil {
		return nil, storeErr("toggle task", err)
	}

	s.bus.Publish(event.TaskUpdated, event.Payload{TaskID: task.ID, Dates: []string{task.Date}})
	return task, nil
}

// UpdateTask applies a partial edit. Name and description edits never touch
// the day aggregates; a date change is treated as remove-from-old-day plus
// add-to-new-day, with the old partition renumbered.
func (s *TaskService) UpdateTask(ctx context.Context, userID, taskID string, patch TaskPatch) (*model.Task, error) {
	if userID == "" {
		return nil, apperr.Auth("a user id is required to update tasks")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, apperr.Validation("name", "must not be empty")
	}
	var newDate string
	if patch.Date != nil {
		var err error
		newDate, err = normalizeDate(*patch.Date)
		if err != nil {
			return nil, err
		}
	}

	defer s.lockUser(userID)()

	var task *model.Task
	var dates []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tasks := s.tasks.WithTx(tx)
		days := s.days.WithTx(tx)

		var err error
		task, err = tasks.FindByID(ctx, userID, taskID)
		if err != nil {
			return err
		}
		if task == nil {
			return apperr.NotFound("task", taskID)
		}

		if patch.Name != nil {
			task.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			task.Description = *patch.Description
		}

		oldDate := task.Date
		moved := patch.Date != nil && newDate != oldDate
		dates = []string{oldDate}
		if moved {
			dates = append(dates, newDate)

			if err := s.dayRemove(ctx, days, userID, oldDate, task.Done); err != nil {
				return err
			}
			count, err := tasks.CountByDate(ctx, userID, newDate)
			if err != nil {
				return err
			}
			task.Date = newDate
			task.Position = int(count) + 1
			if err := s.dayAdd(ctx, days, userID, newDate, task.Done); err != nil {
				return err
			}
		}

		if err := tasks.Save(ctx, task); err != nil {
			return err
		}
		if moved {
			return s.resequence(ctx, tasks, userID, oldDate)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("update task", err)
	}

	s.bus.Publish(event.TaskUpdated, event.Payload{TaskID: task.ID, Dates: dates})
	return task, nil
}

// DeleteTask removes a task, renumbers the remaining tasks of its date so
// positions stay dense, and shrinks or deletes the day row.
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID string) error {
	if userID == "" {
		return apperr.Auth("a user id is required to delete tasks")
	}

	defer s.lockUser(userID)()

	var date string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tasks := s.tasks.WithTx(tx)
		days := s.days.WithTx(tx)

		task, err := tasks.FindByID(ctx, userID, taskID)
		if err != nil {
			return err
		}
		if task == nil {
			return apperr.NotFound("task", taskID)
		}
		date = task.Date

		if err := tasks.Delete(ctx, userID, taskID); err != nil {
			return err
		}
		if err := s.resequence(ctx, tasks, userID, date); err != nil {
			return err
		}
		return s.dayRemove(ctx, days, userID, date, task.Done)
	})
	if err != nil {
		return storeErr("delete task", err)
	}
	s.log.Debugw("task deleted", "taskID", taskID, "date", date)

	s.bus.Publish(event.TaskDeleted, event.Payload{TaskID: taskID, Dates: []string{date}})
	return nil
}

// Reorder persists a full new sequence for one date. The id list must be a
// permutation of the date's tasks; positions come out 1..N in list order.
func (s *TaskService) Reorder(ctx context.Context, userID, date string, orderedIDs []string) ([]model.Task, error) {
	if userID == "" {
		return nil, apperr.Auth("a user id is required to reorder tasks")
	}
	date, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}

	defer s.lockUser(userID)()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tasks := s.tasks.WithTx(tx)

		existing, err := tasks.ListByDate(ctx, userID, date)
		if err != nil {
			return err
		}
		if len(orderedIDs) != len(existing) {
			return apperr.Validation("order", fmt.Sprintf("sequence has %d ids, date has %d tasks", len(orderedIDs), len(existing)))
		}

		byID := make(map[string]model.Task, len(existing))
		for _, t := range existing {
			byID[t.ID] = t
		}

		seen := make(map[string]bool, len(orderedIDs))
		for i, id := range orderedIDs {
			t, ok := byID[id]
			if !ok || seen[id] {
				return apperr.Validation("order", "sequence must list each task of the date exactly once")
			}
			seen[id] = true
			if t.Position != i+1 {
				if err := tasks.UpdatePosition(ctx, id, i+1); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("reorder tasks", err)
	}

	s.bus.Publish(event.TaskUpdated, event.Payload{Dates: []string{date}})
	return s.tasks.ListByDate(ctx, userID, date)
}

// ListTasks returns the user's tasks, filtered to one date when given.
func (s *TaskService) ListTasks(ctx context.Context, userID, date string) ([]model.Task, error) {
	if userID == "" {
		return nil, apperr.Auth("a user id is required to list tasks")
	}
	if date == "" {
		tasks, err := s.tasks.ListByUser(ctx, userID)
		return tasks, storeErr("list tasks", err)
	}
	date, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByDate(ctx, userID, date)
	return tasks, storeErr("list tasks", err)
}

// dayAdd registers one more task on a date: create the row on first use,
// increment otherwise. done carries along for tasks arriving via a move.
func (s *TaskService) dayAdd(ctx context.Context, days *repository.DayRepository, userID, date string, done bool) error {
	day, err := days.GetForUpdate(ctx, userID, date)
	if err != nil {
		return err
	}
	if day == nil {
		day = &model.Day{
			ID:     uuid.NewString(),
			UserID: userID,
			Date:   date,
			Total:  1,
		}
		if done {
			day.DoneCount = 1
		}
		return days.Create(ctx, day)
	}

	day.Total++
	if done {
		day.DoneCount++
	}
	return days.Save(ctx, day)
}

// dayRemove unregisters a task from a date, deleting the row when its total
// reaches zero so no total=0 row ever survives.
func (s *TaskService) dayRemove(ctx context.Context, days *repository.DayRepository, userID, date string, wasDone bool) error {
	day, err := days.GetForUpdate(ctx, userID, date)
	if err != nil {
		return err
	}
	if day == nil {
		return fmt.Errorf("day row missing for %s", date)
	}

	if day.Total-1 <= 0 {
		return days.Delete(ctx, day.ID)
	}

	day.Total--
	if wasDone && day.DoneCount > 0 {
		day.DoneCount--
	}
	if day.DoneCount > day.Total {
		day.DoneCount = day.Total
	}
	return days.Save(ctx, day)
}

// dayToggle moves the done count with a task's done flag, clamped to
// [0, total].
func (s *TaskService) dayToggle(ctx context.Context, days *repository.DayRepository, userID, date string, becomingDone bool) error {
	day, err := days.GetForUpdate(ctx, userID, date)
	if err != nil {
		return err
	}
	if day == nil {
		return fmt.Errorf("day row missing for %s", date)
	}

	if becomingDone {
		if day.DoneCount < day.Total {
			day.DoneCount++
		}
	} else if day.DoneCount > 0 {
		day.DoneCount--
	}
	return days.Save(ctx, day)
}

// resequence rewrites positions for one date to 1..N in current order,
// persisting only the ones that changed.
func (s *TaskService) resequence(ctx context.Context, tasks *repository.TaskRepository, userID, date string) error {
	list, err := tasks.ListByDate(ctx, userID, date)
	if err != nil {
		return err
	}
	for i, t := range list {
		if t.Position != i+1 {
			if err := tasks.UpdatePosition(ctx, t.ID, i+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// lockUser serializes mutations per user. Returns the unlock function.
func (s *TaskService) lockUser(userID string) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// normalizeDate validates and canonicalizes a calendar-day string.
func normalizeDate(raw string) (string, error) {
	t, err := time.Parse(model.DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return "", apperr.Validation("date", "must be a YYYY-MM-DD day")
	}
	return t.Format(model.DateLayout), nil
}

// storeErr classifies an error out of a mutation: taxonomy errors pass
// through, anything else is a store failure.
func storeErr(op string, err error) error {
	if err == nil || apperr.IsValidation(err) || apperr.IsAuth(err) || apperr.IsNotFound(err) {
		return err
	}
	return apperr.Store(op, err)
}
