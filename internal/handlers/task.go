package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskhub-api/internal/dto"
	apierrors "github.com/yukikurage/taskhub-api/internal/errors"
	"github.com/yukikurage/taskhub-api/internal/middleware"
	"github.com/yukikurage/taskhub-api/internal/models"
	"github.com/yukikurage/taskhub-api/internal/services"
	"github.com/yukikurage/taskhub-api/internal/utils"
	"go.uber.org/zap"
)

type TaskHandler struct {
	taskService  *services.TaskService
	defaultLimit int
	maxLimit     int
	log          *zap.Logger
}

func NewTaskHandler(taskService *services.TaskService, defaultLimit, maxLimit int, log *zap.Logger) *TaskHandler {
	return &TaskHandler{
		taskService:  taskService,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		log:          log,
	}
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	type CreateTaskRequest struct {
		Title       string     `json:"title" binding:"required"`
		Description *string    `json:"description"`
		Status      string     `json:"status"`
		Priority    string     `json:"priority"`
		DueDate     *time.Time `json:"due_date"`
		AssignedTo  *uint64    `json:"assigned_to"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), middleware.GetActor(c), services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatus(req.Status),
		Priority:    models.TaskPriority(req.Priority),
		DueDate:     req.DueDate,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

// UpdateTask applies only the fields present in the body. An explicit null
// clears description, due_date or assigned_to.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	var rawReq map[string]json.RawMessage
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		respondBindError(c, err)
		return
	}

	patch, err := decodeTaskPatch(rawReq)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), middleware.GetActor(c), middleware.IDParam(c, "id"), patch)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// BulkUpdateTasks applies one sparse patch to every listed task
func (h *TaskHandler) BulkUpdateTasks(c *gin.Context) {
	var rawReq map[string]json.RawMessage
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		respondBindError(c, err)
		return
	}

	var taskIDs []uint64
	if raw, ok := rawReq["task_ids"]; ok {
		if err := json.Unmarshal(raw, &taskIDs); err != nil {
			apierrors.BadRequest(c, "Invalid task_ids")
			return
		}
	}

	patch, err := decodeTaskPatch(rawReq)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	tasks, err := h.taskService.BulkUpdateTasks(c.Request.Context(), middleware.GetActor(c), taskIDs, patch)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// UpdateTaskStatus reads the status from the query string, or from a JSON
// body when the query parameter is absent
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	status, ok := c.GetQuery("status")
	if !ok {
		var req struct {
			Status string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.BadRequest(c, "status is required")
			return
		}
		status = req.Status
	}

	task, err := h.taskService.UpdateTaskStatus(c.Request.Context(), middleware.GetActor(c), middleware.IDParam(c, "id"), status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// DeleteTask deletes a task and returns it
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	task, err := h.taskService.DeleteTask(c.Request.Context(), middleware.GetActor(c), middleware.IDParam(c, "id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, err := h.taskService.GetTask(c.Request.Context(), middleware.IDParam(c, "id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// ListTasks returns all tasks, paginated with skip and limit
func (h *TaskHandler) ListTasks(c *gin.Context) {
	params, err := utils.GetPaginationParams(c, h.defaultLimit, h.maxLimit)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	tasks, err := h.taskService.ListTasks(c.Request.Context(), params.Skip, params.Limit)
	h.respondList(c, tasks, err)
}

// ListMyTasks serves the created, updated and assigned personal views
func (h *TaskHandler) ListMyTasks(view services.PersonalView) gin.HandlerFunc {
	return func(c *gin.Context) {
		tasks, err := h.taskService.ListMyTasks(c.Request.Context(), middleware.GetActor(c), view)
		h.respondList(c, tasks, err)
	}
}

func (h *TaskHandler) ListTasksCreatedBy(c *gin.Context) {
	tasks, err := h.taskService.ListTasksCreatedBy(c.Request.Context(), middleware.IDParam(c, "user_id"))
	h.respondList(c, tasks, err)
}

func (h *TaskHandler) ListOverdueTasks(c *gin.Context) {
	tasks, err := h.taskService.ListOverdueTasks(c.Request.Context())
	h.respondList(c, tasks, err)
}

func (h *TaskHandler) ListTasksByPriority(c *gin.Context) {
	tasks, err := h.taskService.ListTasksByPriority(c.Request.Context(), c.Param("priority"))
	h.respondList(c, tasks, err)
}

// SearchTasks matches the query parameter against task titles
func (h *TaskHandler) SearchTasks(c *gin.Context) {
	params, err := utils.GetPaginationParams(c, h.defaultLimit, h.maxLimit)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	tasks, err := h.taskService.SearchTasks(c.Request.Context(), c.Query("query"), params.Skip, params.Limit)
	h.respondList(c, tasks, err)
}

func (h *TaskHandler) respondList(c *gin.Context, tasks []dto.TaskDTO, err error) {
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// decodeTaskPatch builds a sparse patch from the keys present in raw.
// Keys that are not task fields are ignored.
func decodeTaskPatch(raw map[string]json.RawMessage) (models.TaskPatch, error) {
	var patch models.TaskPatch

	for key, value := range raw {
		isNull := string(value) == "null"

		var err error
		switch key {
		case "title":
			if isNull {
				return patch, fmt.Errorf("title cannot be null")
			}
			var title string
			err = json.Unmarshal(value, &title)
			patch.Title = &title
		case "description":
			if isNull {
				patch.ClearDescription = true
				continue
			}
			var description string
			err = json.Unmarshal(value, &description)
			patch.Description = &description
		case "status":
			if isNull {
				return patch, fmt.Errorf("status cannot be null")
			}
			var status models.TaskStatus
			err = json.Unmarshal(value, &status)
			patch.Status = &status
		case "priority":
			if isNull {
				return patch, fmt.Errorf("priority cannot be null")
			}
			var priority models.TaskPriority
			err = json.Unmarshal(value, &priority)
			patch.Priority = &priority
		case "due_date":
			if isNull {
				patch.ClearDueDate = true
				continue
			}
			var dueDate time.Time
			err = json.Unmarshal(value, &dueDate)
			patch.DueDate = &dueDate
		case "assigned_to":
			if isNull {
				patch.ClearAssignee = true
				continue
			}
			var assignee uint64
			err = json.Unmarshal(value, &assignee)
			patch.AssignedTo = &assignee
		default:
			continue
		}

		if err != nil {
			return patch, fmt.Errorf("invalid value for %s", key)
		}
	}

	return patch, nil
}
