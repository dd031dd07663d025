package practice

import (
	"context"

	"go.uber.org/zap"

	"github.com/atinyakov/nomoslink/internal/models"
)

// TaskInput is what a caller supplies for a new task.
type TaskInput struct {
	Title          string
	Description    string
	AssignedToID   string
	AssignedToName string
	// AssignedByID/Name default to the session user.
	AssignedByID   string
	AssignedByName string
}

// taskKeys can only change through CompleteTask or never.
var taskKeys = []string{"id", "status", "clerkNote", "dateCreated"}

// AddTask creates a Pending task and notifies the assignee.
func (a *App) AddTask(in TaskInput) (models.Task, bool) {
	if in.AssignedByID == "" {
		if u, ok := a.store.Session(); ok {
			in.AssignedByID, in.AssignedByName = u.ID, u.Name
		}
	}
	t := models.Task{
		ID:             a.newID("TASK-"),
		Title:          in.Title,
		Description:    in.Description,
		AssignedToID:   in.AssignedToID,
		AssignedToName: in.AssignedToName,
		AssignedByID:   in.AssignedByID,
		AssignedByName: in.AssignedByName,
		Status:         models.StatusPending,
		DateCreated:    a.stamp(),
	}
	if !addUnique(a, a.store.Tasks, t) {
		return models.Task{}, false
	}
	a.notifier.Send(t.AssignedToID, "New Task: "+t.Title, models.NotificationTask,
		models.Link{Type: models.RelatedTask, ID: t.ID})
	return t, true
}

// UpdateTask merges patch into the task. Status and the completion note
// are not editable here.
func (a *App) UpdateTask(id string, patch Patch) bool {
	return a.store.Tasks.Modify(id, func(cur models.Task) (models.Task, bool) {
		next, err := mergePatch(cur, patch, taskKeys, nil, nil)
		if err != nil {
			a.logger.Warn("update task: bad patch", zap.String("id", id), zap.Error(err))
			return cur, false
		}
		return next, next != cur
	})
}

// CompleteTask is the only way into Completed. It stores note and
// notifies the assigner once; completing a completed task does nothing.
func (a *App) CompleteTask(id, note string) bool {
	var done models.Task
	ok := a.store.Tasks.Modify(id, func(cur models.Task) (models.Task, bool) {
		if cur.Status == models.StatusCompleted {
			return cur, false
		}
		cur.Status = models.StatusCompleted
		cur.ClerkNote = note
		done = cur
		return cur, true
	})
	if !ok {
		a.logger.Debug("complete task: missing or already completed", zap.String("id", id))
		return false
	}
	a.notifier.Send(done.AssignedByID, "Task Completed: "+done.Title, models.NotificationTask,
		models.Link{Type: models.RelatedTask, ID: done.ID})
	return true
}

// ArchiveTask hides a task from active lists.
func (a *App) ArchiveTask(id string) bool {
	return a.store.Tasks.Modify(id, func(cur models.Task) (models.Task, bool) {
		if cur.Archived {
			return cur, false
		}
		cur.Archived = true
		return cur, true
	})
}

// DeleteTask removes the task.
func (a *App) DeleteTask(ctx context.Context, id string) bool {
	return a.remove(ctx, a.store.Tasks, models.TableTasks, id)
}
