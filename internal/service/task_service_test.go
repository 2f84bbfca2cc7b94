package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"daily-charge/internal/apperr"
	"daily-charge/internal/event"
	"daily-charge/internal/model"
	"daily-charge/internal/repository"
)

const testUser = "user-1"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named shared-cache in-memory database keeps every pooled connection
	// on the same data; one test, one database.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := repository.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func newTaskService(t *testing.T) (*TaskService, *repository.DayRepository, *event.Bus) {
	t.Helper()
	db := newTestDB(t)
	bus := event.NewBus()
	svc := NewTaskService(db,
		repository.NewTaskRepository(db),
		repository.NewDayRepository(db),
		bus,
		zap.NewNop().Sugar(),
	)
	return svc, repository.NewDayRepository(db), bus
}

func mustCreate(t *testing.T, svc *TaskService, name, date string) *model.Task {
	t.Helper()
	task, err := svc.CreateTask(context.Background(), testUser, TaskInput{Name: name, Date: date})
	if err != nil {
		t.Fatalf("create %q: %v", name, err)
	}
	return task
}

func getDay(t *testing.T, days *repository.DayRepository, date string) *model.Day {
	t.Helper()
	day, err := days.Get(context.Background(), testUser, date)
	if err != nil {
		t.Fatalf("get day %s: %v", date, err)
	}
	return day
}

func wantDay(t *testing.T, days *repository.DayRepository, date string, total, done int) {
	t.Helper()
	day := getDay(t, days, date)
	if day == nil {
		t.Fatalf("day %s missing, want total=%d done=%d", date, total, done)
	}
	if day.Total != total || day.DoneCount != done {
		t.Errorf("day %s = {total:%d done:%d}, want {total:%d done:%d}",
			date, day.Total, day.DoneCount, total, done)
	}
}

func TestCreateTask_Validation(t *testing.T) {
	svc, _, _ := newTaskService(t)
	ctx := context.Background()

	t.Run("empty name", func(t *testing.T) {
		_, err := svc.CreateTask(ctx, testUser, TaskInput{Name: "   ", Date: "2024-01-01"})
		if !apperr.IsValidation(err) {
			t.Errorf("err = %v, want validation error", err)
		}
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := svc.CreateTask(ctx, testUser, TaskInput{Name: "x", Date: "January 1st"})
		if !apperr.IsValidation(err) {
			t.Errorf("err = %v, want validation error", err)
		}
	})

	t.Run("no user", func(t *testing.T) {
		_, err := svc.CreateTask(ctx, "", TaskInput{Name: "x", Date: "2024-01-01"})
		if !apperr.IsAuth(err) {
			t.Errorf("err = %v, want auth error", err)
		}
	})
}

// Full create → toggle → delete lifecycle of a single date's aggregate: the
// day row tracks every step and disappears when the last task goes.
func TestDayAggregate_Lifecycle(t *testing.T) {
	svc, days, _ := newTaskService(t)
	ctx := context.Background()
	const date = "2024-03-10"

	t1 := mustCreate(t, svc, "one", date)
	t2 := mustCreate(t, svc, "two", date)
	t3 := mustCreate(t, svc, "three", date)
	wantDay(t, days, date, 3, 0)

	if _, err := svc.ToggleTask(ctx, testUser, t2.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	wantDay(t, days, date, 3, 1)

	if err := svc.DeleteTask(ctx, testUser, t1.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	wantDay(t, days, date, 2, 1)

	if err := svc.DeleteTask(ctx, testUser, t2.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	wantDay(t, days, date, 1, 0)

	if err := svc.DeleteTask(ctx, testUser, t3.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if day := getDay(t, days, date); day != nil {
		t.Errorf("day row survived total=0 transition: %+v", day)
	}
}

func TestToggleTwiceRestoresAggregate(t *testing.T) {
	svc, days, _ := newTaskService(t)
	ctx := context.Background()
	const date = "2024-03-10"

	task := mustCreate(t, svc, "flip", date)
	mustCreate(t, svc, "other", date)
	wantDay(t, days, date, 2, 0)

	if _, err := svc.ToggleTask(ctx, testUser, task.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if _, err := svc.ToggleTask(ctx, testUser, task.ID); err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	wantDay(t, days, date, 2, 0)
}

// Moving a done task off a one-task day deletes the old day row and creates
// the new one with the done count carried along.
func TestMoveTaskBetweenDates(t *testing.T) {
	svc, days, _ := newTaskService(t)
	ctx := context.Background()
	const d1, d2 = "2024-03-10", "2024-03-12"

	task := mustCreate(t, svc, "movable", d1)
	if _, err := svc.ToggleTask(ctx, testUser, task.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	newDate := d2
	moved, err := svc.UpdateTask(ctx, testUser, task.ID, TaskPatch{Date: &newDate})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.Date != d2 {
		t.Errorf("task date = %s, want %s", moved.Date, d2)
	}

	if day := getDay(t, days, d1); day != nil {
		t.Errorf("old day row survived: %+v", day)
	}
	wantDay(t, days, d2, 1, 1)
}

func TestMoveTaskRenumbersOldPartition(t *testing.T) {
	svc, _, _ := newTaskService(t)
	ctx := context.Background()
	const d1, d2 = "2024-03-10", "2024-03-11"

	mustCreate(t, svc, "a", d1)
	b := mustCreate(t, svc, "b", d1)
	mustCreate(t, svc, "c", d1)
	mustCreate(t, svc, "already there", d2)

	newDate := d2
	moved, err := svc.UpdateTask(ctx, testUser, b.ID, TaskPatch{Date: &newDate})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.Position != 2 {
		t.Errorf("moved task position = %d, want 2 (appended after existing)", moved.Position)
	}

	assertDensePositions(t, svc, d1)
	assertDensePositions(t, svc, d2)
}

func TestReorder(t *testing.T) {
	svc, _, _ := newTaskService(t)
	ctx := context.Background()
	const date = "2024-03-10"

	a := mustCreate(t, svc, "A", date)
	b := mustCreate(t, svc, "B", date)
	c := mustCreate(t, svc, "C", date)

	got, err := svc.Reorder(ctx, testUser, date, []string{c.ID, a.ID, b.ID})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}

	wantNames := []string{"C", "A", "B"}
	if len(got) != 3 {
		t.Fatalf("got %d tasks, want 3", len(got))
	}
	for i, task := range got {
		if task.Name != wantNames[i] {
			t.Errorf("position %d holds %q, want %q", i+1, task.Name, wantNames[i])
		}
		if task.Position != i+1 {
			t.Errorf("task %q position = %d, want %d", task.Name, task.Position, i+1)
		}
	}
}

func TestReorder_RejectsBadSequences(t *testing.T) {
	svc, _, _ := newTaskService(t)
	ctx := context.Background()
	const date = "2024-03-10"

	a := mustCreate(t, svc, "A", date)
	b := mustCreate(t, svc, "B", date)

	t.Run("missing id", func(t *testing.T) {
		_, err := svc.Reorder(ctx, testUser, date, []string{a.ID})
		if !apperr.IsValidation(err) {
			t.Errorf("err = %v, want validation error", err)
		}
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := svc.Reorder(ctx, testUser, date, []string{a.ID, a.ID})
		if !apperr.IsValidation(err) {
			t.Errorf("err = %v, want validation error", err)
		}
	})

	t.Run("foreign id", func(t *testing.T) {
		_, err := svc.Reorder(ctx, testUser, date, []string{a.ID, "not-a-task"})
		if !apperr.IsValidation(err) {
			t.Errorf("err = %v, want validation error", err)
		}
	})

	// Failed reorders must leave the original order alone.
	tasks, err := svc.ListTasks(ctx, testUser, date)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if tasks[0].ID != a.ID || tasks[1].ID != b.ID {
		t.Error("rejected reorder changed persisted positions")
	}
}

func TestDeleteKeepsPositionsDense(t *testing.T) {
	svc, _, _ := newTaskService(t)
	ctx := context.Background()
	const date = "2024-03-10"

	mustCreate(t, svc, "one", date)
	two := mustCreate(t, svc, "two", date)
	mustCreate(t, svc, "three", date)

	if err := svc.DeleteTask(ctx, testUser, two.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	assertDensePositions(t, svc, date)
}

// Invariant check over a longer mixed sequence: done counts stay within
// [0, total] on every day row, and positions stay dense on every date.
func TestAggregateInvariantsUnderMixedMutations(t *testing.T) {
	svc, days, _ := newTaskService(t)
	ctx := context.Background()
	dates := []string{"2024-03-10", "2024-03-11"}

	var created []*model.Task
	for i := 0; i < 6; i++ {
		task := mustCreate(t, svc, fmt.Sprintf("task-%d", i), dates[i%2])
		created = append(created, task)
	}
	for i, task := range created {
		if i%2 == 0 {
			if _, err := svc.ToggleTask(ctx, testUser, task.ID); err != nil {
				t.Fatalf("toggle: %v", err)
			}
		}
	}
	target := dates[1]
	if _, err := svc.UpdateTask(ctx, testUser, created[0].ID, TaskPatch{Date: &target}); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := svc.DeleteTask(ctx, testUser, created[1].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	rows, err := days.ListByUser(ctx, testUser)
	if err != nil {
		t.Fatalf("list days: %v", err)
	}
	for _, day := range rows {
		if day.Total <= 0 {
			t.Errorf("day %s persisted with total=%d", day.Date, day.Total)
		}
		if day.DoneCount < 0 || day.DoneCount > day.Total {
			t.Errorf("day %s violates 0 <= done <= total: %+v", day.Date, day)
		}
	}
	for _, date := range dates {
		assertDensePositions(t, svc, date)
	}
}

func TestMutationsPublishEvents(t *testing.T) {
	svc, _, bus := newTaskService(t)
	ctx := context.Background()
	const date = "2024-03-10"

	counts := map[event.Name]int{}
	for _, name := range []event.Name{event.TaskAdded, event.TaskUpdated, event.TaskDeleted} {
		name := name
		bus.Subscribe(name, func(event.Payload) { counts[name]++ })
	}

	task := mustCreate(t, svc, "watched", date)
	if _, err := svc.ToggleTask(ctx, testUser, task.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := svc.DeleteTask(ctx, testUser, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if counts[event.TaskAdded] != 1 || counts[event.TaskUpdated] != 1 || counts[event.TaskDeleted] != 1 {
		t.Errorf("event counts = %v, want one of each", counts)
	}
}

func TestNotFoundErrors(t *testing.T) {
	svc, _, _ := newTaskService(t)
	ctx := context.Background()

	if _, err := svc.ToggleTask(ctx, testUser, "missing"); !apperr.IsNotFound(err) {
		t.Errorf("toggle err = %v, want not-found", err)
	}
	if err := svc.DeleteTask(ctx, testUser, "missing"); !apperr.IsNotFound(err) {
		t.Errorf("delete err = %v, want not-found", err)
	}
}

func assertDensePositions(t *testing.T, svc *TaskService, date string) {
	t.Helper()
	tasks, err := svc.ListTasks(context.Background(), testUser, date)
	if err != nil {
		t.Fatalf("list %s: %v", date, err)
	}
	for i, task := range tasks {
		if task.Position != i+1 {
			t.Errorf("date %s: task %q at position %d, want %d", date, task.Name, task.Position, i+1)
		}
	}
}
