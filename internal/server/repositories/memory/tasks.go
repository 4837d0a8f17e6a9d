package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/google/uuid"
)

type tasksRepo struct {
	s *Store
}

func (r *tasksRepo) Create(_ context.Context, task *models.Task) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.users[task.UserID]; !ok {
		return nil, common.ErrorNotFound
	}

	task.ID = uuid.NewString()
	task.CreatedAt = r.s.now()
	task.UpdatedAt = task.CreatedAt
	r.s.data.tasks[task.ID] = taskRow{seq: r.s.nextSeq(), task: *task}
	return task, nil
}

func (r *tasksRepo) ListByUser(_ context.Context, userID string) ([]*models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var rows []taskRow
	for _, row := range r.s.data.tasks {
		if row.task.UserID == userID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	result := make([]*models.Task, 0, len(rows))
	for _, row := range rows {
		t := row.task
		result = append(result, &t)
	}
	return result, nil
}

func (r *tasksRepo) Get(_ context.Context, userID, id string) (*models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.data.tasks[id]
	if !ok || row.task.UserID != userID {
		return nil, common.ErrorNotFound
	}
	t := row.task
	return &t, nil
}

func (r *tasksRepo) Update(_ context.Context, task *models.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.data.tasks[task.ID]
	if !ok || row.task.UserID != task.UserID {
		return common.ErrorNotFound
	}
	createdAt := row.task.CreatedAt
	row.task = *task
	row.task.CreatedAt = createdAt
	r.s.data.tasks[task.ID] = row
	return nil
}

func (r *tasksRepo) Delete(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.data.tasks[id]
	if !ok || row.task.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.s.data.tasks, id)
	return nil
}
