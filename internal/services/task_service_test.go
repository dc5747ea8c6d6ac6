package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/taskhub-api/internal/models"
)

type TaskServiceTestSuite struct {
	serviceSuite
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}

func (s *TaskServiceTestSuite) TestCreateTask_Defaults() {
	alice := s.createUser("alice", models.RoleUser)

	task := s.createTask(alice, "Write report")

	s.Equal("Write report", task.Title)
	s.Equal(models.TaskStatusPending, task.Status)
	s.Equal(models.TaskPriorityLow, task.Priority)
	s.Equal(alice.ID, task.CreatedByID)
	s.Equal("alice", task.CreatedBy)
	s.Equal("alice", task.UpdatedBy)
	s.Nil(task.AssignedTo)
	s.True(task.CreatedAt.Equal(task.UpdatedAt))
}

func (s *TaskServiceTestSuite) TestCreateTask_WithAssignee() {
	alice := s.createUser("alice", models.RoleUser)
	bob := s.createUser("bob", models.RoleUser)

	task := s.createTask(alice, "Review", func(in *CreateTaskInput) {
		in.AssignedTo = &bob.ID
		in.Priority = models.TaskPriorityUrgent
	})

	s.Require().NotNil(task.AssignedTo)
	s.Equal("bob", *task.AssignedTo)
	s.Equal(models.TaskPriorityUrgent, task.Priority)
}

func (s *TaskServiceTestSuite) TestCreateTask_Validation() {
	alice := s.createUser("alice", models.RoleUser)

	_, err := s.svcs.Tasks.CreateTask(s.ctx, nil, CreateTaskInput{Title: "x"})
	s.requireKind(err, KindUnauthenticated)

	_, err = s.svcs.Tasks.CreateTask(s.ctx, alice, CreateTaskInput{Title: "   "})
	s.ErrorIs(err, ErrTitleRequired)

	_, err = s.svcs.Tasks.CreateTask(s.ctx, alice, CreateTaskInput{Title: "x", Status: "done"})
	s.ErrorIs(err, ErrInvalidStatus)

	_, err = s.svcs.Tasks.CreateTask(s.ctx, alice, CreateTaskInput{Title: "x", AssignedTo: ptr(uint64(999))})
	s.ErrorIs(err, ErrInvalidAssignee)

	tasks, err := s.svcs.Tasks.ListTasks(s.ctx, 0, 0)
	s.Require().NoError(err)
	s.Empty(tasks)
}

func (s *TaskServiceTestSuite) TestUpdateTask_SparsePatch() {
	alice := s.createUser("alice", models.RoleUser)
	bob := s.createUser("bob", models.RoleUser)
	task := s.createTask(alice, "Original", func(in *CreateTaskInput) {
		in.Description = ptr("keep me")
		in.Priority = models.TaskPriorityHigh
	})

	updated, err := s.svcs.Tasks.UpdateTask(s.ctx, bob, task.ID, models.TaskPatch{Title: ptr("Renamed")})
	s.Require().NoError(err)

	s.Equal("Renamed", updated.Title)
	s.Require().NotNil(updated.Description)
	s.Equal("keep me", *updated.Description)
	s.Equal(models.TaskPriorityHigh, updated.Priority)
	s.Equal("alice", updated.CreatedBy)
	s.Equal(bob.ID, updated.UpdatedByID)
	s.Equal("bob", updated.UpdatedBy)
}

func (s *TaskServiceTestSuite) TestUpdateTask_ClearFields() {
	alice := s.createUser("alice", models.RoleUser)
	due := s.clock.Add(24 * time.Hour)
	task := s.createTask(alice, "Clear me", func(in *CreateTaskInput) {
		in.Description = ptr("text")
		in.DueDate = &due
		in.AssignedTo = &alice.ID
	})

	updated, err := s.svcs.Tasks.UpdateTask(s.ctx, alice, task.ID, models.TaskPatch{
		ClearDescription: true,
		ClearDueDate:     true,
		ClearAssignee:    true,
	})
	s.Require().NoError(err)

	s.Nil(updated.Description)
	s.Nil(updated.DueDate)
	s.Nil(updated.AssignedToID)
	s.Nil(updated.AssignedTo)
}

func (s *TaskServiceTestSuite) TestUpdateTask_Errors() {
	alice := s.createUser("alice", models.RoleUser)
	task := s.createTask(alice, "Task")

	_, err := s.svcs.Tasks.UpdateTask(s.ctx, alice, 999, models.TaskPatch{Title: ptr("x")})
	s.ErrorIs(err, ErrTaskNotFound)

	_, err = s.svcs.Tasks.UpdateTask(s.ctx, alice, task.ID, models.TaskPatch{Priority: ptr(models.TaskPriority("critical"))})
	s.requireKind(err, KindInvalidArgument)

	_, err = s.svcs.Tasks.UpdateTask(s.ctx, nil, task.ID, models.TaskPatch{Title: ptr("x")})
	s.requireKind(err, KindUnauthenticated)

	got, err := s.svcs.Tasks.GetTask(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal("Task", got.Title)
	s.Equal(models.TaskPriorityLow, got.Priority)
}

func (s *TaskServiceTestSuite) TestBulkUpdateTasks_SkipsUnknownIDs() {
	alice := s.createUser("alice", models.RoleUser)
	bob := s.createUser("bob", models.RoleUser)
	first := s.createTask(alice, "First")
	second := s.createTask(alice, "Second")
	untouched := s.createTask(alice, "Third")

	status := models.TaskStatusInProgress
	updated, err := s.svcs.Tasks.BulkUpdateTasks(s.ctx, bob, []uint64{second.ID, 999, first.ID, first.ID}, models.TaskPatch{Status: &status})
	s.Require().NoError(err)

	s.Equal([]uint64{first.ID, second.ID}, taskIDs(updated))
	for _, task := range updated {
		s.Equal(models.TaskStatusInProgress, task.Status)
		s.Equal("bob", task.UpdatedBy)
	}

	other, err := s.svcs.Tasks.GetTask(s.ctx, untouched.ID)
	s.Require().NoError(err)
	s.Equal(models.TaskStatusPending, other.Status)
}

func (s *TaskServiceTestSuite) TestBulkUpdateTasks_Errors() {
	alice := s.createUser("alice", models.RoleUser)
	task := s.createTask(alice, "Only")

	_, err := s.svcs.Tasks.BulkUpdateTasks(s.ctx, alice, nil, models.TaskPatch{Title: ptr("x")})
	s.ErrorIs(err, ErrNoTaskIDs)

	_, err = s.svcs.Tasks.BulkUpdateTasks(s.ctx, alice, []uint64{998, 999}, models.TaskPatch{Title: ptr("x")})
	s.ErrorIs(err, ErrNoTasksFound)

	_, err = s.svcs.Tasks.BulkUpdateTasks(s.ctx, alice, []uint64{task.ID}, models.TaskPatch{AssignedTo: ptr(uint64(999))})
	s.ErrorIs(err, ErrInvalidAssignee)
}

func (s *TaskServiceTestSuite) TestUpdateTaskStatus() {
	alice := s.createUser("alice", models.RoleUser)
	bob := s.createUser("bob", models.RoleUser)
	task := s.createTask(alice, "Status")

	updated, err := s.svcs.Tasks.UpdateTaskStatus(s.ctx, bob, task.ID, "completed")
	s.Require().NoError(err)
	s.Equal(models.TaskStatusCompleted, updated.Status)
	s.Equal("bob", updated.UpdatedBy)

	_, err = s.svcs.Tasks.UpdateTaskStatus(s.ctx, alice, task.ID, "finished")
	s.ErrorIs(err, ErrInvalidStatus)

	unchanged, err := s.svcs.Tasks.GetTask(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal(models.TaskStatusCompleted, unchanged.Status)
	s.Equal("bob", unchanged.UpdatedBy)

	_, err = s.svcs.Tasks.UpdateTaskStatus(s.ctx, bob, 999, "completed")
	s.ErrorIs(err, ErrTaskNotFound)
}

func (s *TaskServiceTestSuite) TestDeleteTask_Permissions() {
	alice := s.createUser("alice", models.RoleUser)
	bob := s.createUser("bob", models.RoleUser)
	admin := s.createUser("root", models.RoleAdmin)
	mine := s.createTask(alice, "Mine")
	other := s.createTask(alice, "Other")

	_, err := s.svcs.Tasks.DeleteTask(s.ctx, bob, mine.ID)
	s.ErrorIs(err, ErrNotTaskCreator)
	_, err = s.svcs.Tasks.GetTask(s.ctx, mine.ID)
	s.Require().NoError(err)

	deleted, err := s.svcs.Tasks.DeleteTask(s.ctx, alice, mine.ID)
	s.Require().NoError(err)
	s.Equal("Mine", deleted.Title)

	_, err = s.svcs.Tasks.DeleteTask(s.ctx, admin, other.ID)
	s.Require().NoError(err)

	_, err = s.svcs.Tasks.GetTask(s.ctx, mine.ID)
	s.ErrorIs(err, ErrTaskNotFound)
	_, err = s.svcs.Tasks.DeleteTask(s.ctx, admin, other.ID)
	s.ErrorIs(err, ErrTaskNotFound)
}

func (s *TaskServiceTestSuite) TestListTasks_Pagination() {
	alice := s.createUser("alice", models.RoleUser)
	var ids []uint64
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		ids = append(ids, s.createTask(alice, title).ID)
	}

	all, err := s.svcs.Tasks.ListTasks(s.ctx, 0, 100)
	s.Require().NoError(err)
	s.Equal(ids, taskIDs(all))

	page, err := s.svcs.Tasks.ListTasks(s.ctx, 1, 2)
	s.Require().NoError(err)
	s.Equal(ids[1:3], taskIDs(page))

	past, err := s.svcs.Tasks.ListTasks(s.ctx, 10, 2)
	s.Require().NoError(err)
	s.NotNil(past)
	s.Empty(past)

	_, err = s.svcs.Tasks.ListTasks(s.ctx, -1, 2)
	s.ErrorIs(err, ErrInvalidPage)
}

func (s *TaskServiceTestSuite) TestListMyTasks() {
	alice := s.createUser("alice", models.RoleUser)
	bob := s.createUser("bob", models.RoleUser)
	created := s.createTask(alice, "Alice's")
	assigned := s.createTask(alice, "For Bob", func(in *CreateTaskInput) { in.AssignedTo = &bob.ID })
	touched := s.createTask(alice, "Touched")

	_, err := s.svcs.Tasks.UpdateTaskStatus(s.ctx, bob, touched.ID, "on_hold")
	s.Require().NoError(err)

	mine, err := s.svcs.Tasks.ListMyTasks(s.ctx, alice, ViewCreated)
	s.Require().NoError(err)
	s.Equal([]uint64{created.ID, assigned.ID, touched.ID}, taskIDs(mine))

	updated, err := s.svcs.Tasks.ListMyTasks(s.ctx, bob, ViewUpdated)
	s.Require().NoError(err)
	s.Equal([]uint64{touched.ID}, taskIDs(updated))

	forBob, err := s.svcs.Tasks.ListMyTasks(s.ctx, bob, ViewAssigned)
	s.Require().NoError(err)
	s.Equal([]uint64{assigned.ID}, taskIDs(forBob))

	none, err := s.svcs.Tasks.ListMyTasks(s.ctx, bob, ViewCreated)
	s.Require().NoError(err)
	s.Empty(none)

	_, err = s.svcs.Tasks.ListMyTasks(s.ctx, nil, ViewCreated)
	s.requireKind(err, KindUnauthenticated)
}

func (s *TaskServiceTestSuite) TestListOverdueTasks() {
	alice := s.createUser("alice", models.RoleUser)
	past := s.clock.Add(-time.Hour)
	future := s.clock.Add(time.Hour)

	overdue := s.createTask(alice, "Late", func(in *CreateTaskInput) { in.DueDate = &past })
	s.createTask(alice, "Done late", func(in *CreateTaskInput) {
		in.DueDate = &past
		in.Status = models.TaskStatusCompleted
	})
	s.createTask(alice, "Upcoming", func(in *CreateTaskInput) { in.DueDate = &future })
	s.createTask(alice, "No due date")

	tasks, err := s.svcs.Tasks.ListOverdueTasks(s.ctx)
	s.Require().NoError(err)
	s.Equal([]uint64{overdue.ID}, taskIDs(tasks))
}

func (s *TaskServiceTestSuite) TestListOverdueTasks_MixedOffsets() {
	alice := s.createUser("alice", models.RoleUser)
	east := time.FixedZone("UTC+5", 5*60*60)
	west := time.FixedZone("UTC-5", -5*60*60)
	past := s.clock.Add(-time.Hour).In(east)
	future := s.clock.Add(time.Hour).In(west)

	late := s.createTask(alice, "Late", func(in *CreateTaskInput) { in.DueDate = &past })
	upcoming := s.createTask(alice, "Upcoming", func(in *CreateTaskInput) { in.DueDate = &future })

	tasks, err := s.svcs.Tasks.ListOverdueTasks(s.ctx)
	s.Require().NoError(err)
	s.Equal([]uint64{late.ID}, taskIDs(tasks))

	// Rescheduling goes through the same normalisation.
	soon := s.clock.Add(-30 * time.Minute).In(west)
	_, err = s.svcs.Tasks.BulkUpdateTasks(s.ctx, alice, []uint64{upcoming.ID}, models.TaskPatch{DueDate: &soon})
	s.Require().NoError(err)

	tasks, err = s.svcs.Tasks.ListOverdueTasks(s.ctx)
	s.Require().NoError(err)
	s.Equal([]uint64{late.ID, upcoming.ID}, taskIDs(tasks))

	stored, err := s.svcs.Tasks.GetTask(s.ctx, late.ID)
	s.Require().NoError(err)
	s.Require().NotNil(stored.DueDate)
	s.True(stored.DueDate.Equal(past))
}

func (s *TaskServiceTestSuite) TestUpdatedAtFollowsServiceClock() {
	alice := s.createUser("alice", models.RoleUser)
	task := s.createTask(alice, "Clock")
	s.True(task.UpdatedAt.Equal(s.clock))

	s.clock = s.clock.Add(48 * time.Hour)
	updated, err := s.svcs.Tasks.UpdateTaskStatus(s.ctx, alice, task.ID, "in_progress")
	s.Require().NoError(err)
	s.True(updated.UpdatedAt.Equal(s.clock), "got %v, want %v", updated.UpdatedAt, s.clock)

	stored, err := s.svcs.Tasks.GetTask(s.ctx, task.ID)
	s.Require().NoError(err)
	s.True(stored.UpdatedAt.Equal(s.clock), "got %v, want %v", stored.UpdatedAt, s.clock)
	s.True(stored.CreatedAt.Equal(task.CreatedAt))
}

func (s *TaskServiceTestSuite) TestListTasksByPriority() {
	alice := s.createUser("alice", models.RoleUser)
	high := s.createTask(alice, "High", func(in *CreateTaskInput) { in.Priority = models.TaskPriorityHigh })
	s.createTask(alice, "Low")

	tasks, err := s.svcs.Tasks.ListTasksByPriority(s.ctx, "high")
	s.Require().NoError(err)
	s.Equal([]uint64{high.ID}, taskIDs(tasks))

	_, err = s.svcs.Tasks.ListTasksByPriority(s.ctx, "HIGH")
	s.ErrorIs(err, ErrInvalidPriority)
}

func (s *TaskServiceTestSuite) TestSearchTasks() {
	alice := s.createUser("alice", models.RoleUser)
	report := s.createTask(alice, "Quarterly Report")
	s.createTask(alice, "Groceries")
	reports := s.createTask(alice, "report backlog")

	tasks, err := s.svcs.Tasks.SearchTasks(s.ctx, "REPORT", 0, 100)
	s.Require().NoError(err)
	s.Equal([]uint64{report.ID, reports.ID}, taskIDs(tasks))

	tasks, err = s.svcs.Tasks.SearchTasks(s.ctx, "report", 1, 100)
	s.Require().NoError(err)
	s.Equal([]uint64{reports.ID}, taskIDs(tasks))

	_, err = s.svcs.Tasks.SearchTasks(s.ctx, "  ", 0, 100)
	s.ErrorIs(err, ErrEmptySearchQuery)
}

func (s *TaskServiceTestSuite) TestSearchTasks_WildcardsMatchLiterally() {
	alice := s.createUser("alice", models.RoleUser)
	percent := s.createTask(alice, "100% done")
	underscore := s.createTask(alice, "rename snake_case vars")
	bang := s.createTask(alice, "ship it!")
	s.createTask(alice, "plain title")

	tests := []struct {
		query string
		want  []uint64
	}{
		{"%", []uint64{percent.ID}},
		{"_", []uint64{underscore.ID}},
		{"!", []uint64{bang.ID}},
		{"e_c", []uint64{underscore.ID}},
		{"0% D", []uint64{percent.ID}},
	}
	for _, tt := range tests {
		tasks, err := s.svcs.Tasks.SearchTasks(s.ctx, tt.query, 0, 100)
		s.Require().NoError(err)
		s.Equal(tt.want, taskIDs(tasks), "query %q", tt.query)
	}
}

func (s *TaskServiceTestSuite) TestDeletedUserResolvesToUnknown() {
	alice := s.createUser("alice", models.RoleUser)
	bob := s.createUser("bob", models.RoleUser)
	task := s.createTask(alice, "Orphan", func(in *CreateTaskInput) { in.AssignedTo = &bob.ID })

	s.Require().NoError(s.store.Users().Delete(s.ctx, bob.ID))

	got, err := s.svcs.Tasks.GetTask(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal("alice", got.CreatedBy)
	s.Require().NotNil(got.AssignedTo)
	s.Equal("unknown", *got.AssignedTo)
	s.Equal(bob.ID, *got.AssignedToID)
}
