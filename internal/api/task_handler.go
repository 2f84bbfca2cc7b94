package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"daily-charge/internal/service"
)

// TaskHandler exposes the task CRUD plus toggle and reorder.
type TaskHandler struct {
	svc *service.TaskService
	log *zap.SugaredLogger
}

func NewTaskHandler(svc *service.TaskService, log *zap.SugaredLogger) *TaskHandler {
	return &TaskHandler{svc: svc, log: log}
}

// List returns the user's tasks, filtered by ?date= when given.
func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.svc.ListTasks(c.Request.Context(), currentUserID(c), c.Query("date"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

type createTaskRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Date        string `json:"date" binding:"required"`
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.svc.CreateTask(c.Request.Context(), currentUserID(c), service.TaskInput{
		Name:        req.Name,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

type updateTaskRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
}

func (h *TaskHandler) Update(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.svc.UpdateTask(c.Request.Context(), currentUserID(c), c.Param("id"), service.TaskPatch{
		Name:        req.Name,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *TaskHandler) Toggle(c *gin.Context) {
	task, err := h.svc.ToggleTask(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteTask(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type reorderRequest struct {
	Date string   `json:"date" binding:"required"`
	IDs  []string `json:"ids" binding:"required"`
}

// Reorder takes the full id sequence for one date and persists positions
// 1..N in that order.
func (h *TaskHandler) Reorder(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tasks, err := h.svc.Reorder(c.Request.Context(), currentUserID(c), req.Date, req.IDs)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}
