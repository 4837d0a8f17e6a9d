package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
)

// TaskService manages the tasks of a user. Every call is scoped to userID;
// tasks of other users behave as if they did not exist.
type TaskService struct {
	tx          dbx.Transactor
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	clock       Clock
	logger      logging.Logger
}

func NewTaskService(tx dbx.Transactor, db dbx.DBTX, m repomanager.RepositoryManager, l logging.Logger, c Clock) *TaskService {
	if c == nil {
		c = SystemClock{}
	}
	return &TaskService{
		tx:          tx,
		db:          db,
		repomanager: m,
		clock:       c,
		logger:      l.With("module", "task_service"),
	}
}

// Create stores a new task owned by userID. An empty status defaults to
// pending.
func (s *TaskService) Create(ctx context.Context, userID string, task *models.Task) (*models.Task, error) {
	task.UserID = userID
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	if err := task.Validate(s.clock.Now()); err != nil {
		return nil, err
	}

	var created *models.Task
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		created, err = s.repomanager.Tasks(tx).Create(ctx, task)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}

	s.logger.Debug(ctx, "Task created", "user_id", userID, "task_id", created.ID)
	return created, nil
}

func (s *TaskService) List(ctx context.Context, userID string) ([]*models.Task, error) {
	tasks, err := s.repomanager.Tasks(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, userID, id string) (*models.Task, error) {
	return s.repomanager.Tasks(s.db).Get(ctx, userID, id)
}

// Update applies a partial update. An empty patch wraps common.ErrorValidation.
func (s *TaskService) Update(ctx context.Context, userID, id string, patch models.TaskPatch) (*models.Task, error) {
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", common.ErrorValidation)
	}

	var updated *models.Task
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Tasks(tx)

		task, err := repo.Get(ctx, userID, id)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		patch.Apply(task, now)
		if err := validatePatched(task, patch, now); err != nil {
			return err
		}

		if err := repo.Update(ctx, task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "Task updated", "user_id", userID, "task_id", id)
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Tasks(tx).Delete(ctx, userID, id)
	})
	if err != nil {
		return err
	}

	s.logger.Debug(ctx, "Task deleted", "user_id", userID, "task_id", id)
	return nil
}

// validatePatched checks the task after a patch. A deadline that has since
// passed only fails when the patch itself sets the deadline.
func validatePatched(task *models.Task, patch models.TaskPatch, now time.Time) error {
	check := *task
	if patch.Deadline == nil {
		check.Deadline = now.Add(time.Nanosecond)
	}
	return check.Validate(now)
}
