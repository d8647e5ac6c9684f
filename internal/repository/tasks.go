package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/untibullet/project-hub/internal/models"
)

// ListTasks возвращает задачи проекта (новые сверху) вместе с файлами
func (r *Repository) ListTasks(ctx context.Context, projectID string) ([]models.Task, error) {
	query := `
		SELECT id, project_id, title, description, status, stage_id, created_by, created_at
		FROM project_tasks
		WHERE project_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	index := make(map[string]int)
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.StageID, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		t.Files = make([]models.FileInfo, 0)
		index[t.ID] = len(tasks)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	files, err := r.listTaskFiles(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if i, ok := index[f.TaskID]; ok {
			tasks[i].Files = append(tasks[i].Files, f.FileInfo)
		}
	}

	return tasks, nil
}

// listTaskFiles возвращает все файлы задач проекта
func (r *Repository) listTaskFiles(ctx context.Context, projectID string) ([]models.TaskFile, error) {
	query := `
		SELECT f.id, f.filename, f.file_path, f.file_size, f.created_at, f.task_id, t.created_by
		FROM project_task_files f
		JOIN project_tasks t ON t.id = f.task_id
		WHERE t.project_id = $1
		ORDER BY f.created_at
	`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list task files: %w", err)
	}
	defer rows.Close()

	var files []models.TaskFile
	for rows.Next() {
		var f models.TaskFile
		if err := rows.Scan(&f.ID, &f.Filename, &f.Path, &f.Size, &f.CreatedAt, &f.TaskID, &f.TaskCreatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan task file: %w", err)
		}
		files = append(files, f)
	}

	return files, rows.Err()
}

// GetTask получает задачу проекта без файлов
func (r *Repository) GetTask(ctx context.Context, projectID, taskID string) (*models.Task, error) {
	var t models.Task
	err := r.pool.QueryRow(ctx, `
		SELECT id, project_id, title, description, status, stage_id, created_by, created_at
		FROM project_tasks
		WHERE id = $1 AND project_id = $2
	`, taskID, projectID).Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.StageID, &t.CreatedBy, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

// CreateTask создает задачу и записи о ее файлах одной транзакцией
func (r *Repository) CreateTask(ctx context.Context, task models.Task, files []models.StoredFile) (*models.Task, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if task.StageID != nil {
		if _, err := getStage(ctx, tx, task.ProjectID, *task.StageID); err != nil {
			return nil, err
		}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO project_tasks (id, project_id, title, description, status, stage_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, task.ID, task.ProjectID, task.Title, task.Description, task.Status, task.StageID, task.CreatedBy).Scan(&task.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	task.Files, err = insertTaskFiles(ctx, tx, task.ID, files)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &task, nil
}

func insertTaskFiles(ctx context.Context, q querier, taskID string, files []models.StoredFile) ([]models.FileInfo, error) {
	out := make([]models.FileInfo, 0, len(files))
	for _, f := range files {
		info := models.FileInfo{ID: uuid.NewString(), Filename: f.Filename, Path: f.Path, Size: f.Size}
		err := q.QueryRow(ctx, `
			INSERT INTO project_task_files (id, task_id, filename, file_path, file_size)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at
		`, info.ID, taskID, info.Filename, info.Path, info.Size).Scan(&info.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert task file: %w", err)
		}
		out = append(out, info)
	}
	return out, nil
}

// AddTaskFiles прикрепляет файлы к существующей задаче
func (r *Repository) AddTaskFiles(ctx context.Context, projectID, taskID string, files []models.StoredFile) ([]models.FileInfo, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM project_tasks WHERE id = $1 AND project_id = $2)`, taskID, projectID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check task existence: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	out, err := insertTaskFiles(ctx, tx, taskID, files)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return out, nil
}

// DeleteTask удаляет задачу (файлы удаляются каскадно) и возвращает пути их blob
func (r *Repository) DeleteTask(ctx context.Context, projectID, taskID string) ([]string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT f.file_path
		FROM project_task_files f
		JOIN project_tasks t ON t.id = f.task_id
		WHERE t.id = $1 AND t.project_id = $2
	`, taskID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to collect task files: %w", err)
	}
	paths, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan task files: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM project_tasks WHERE id = $1 AND project_id = $2`, taskID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return paths, nil
}

// SetTaskStatus меняет статус задачи; выбранный этап проекта не меняется
func (r *Repository) SetTaskStatus(ctx context.Context, projectID, taskID, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE project_tasks SET status = $1 WHERE id = $2 AND project_id = $3`,
		status, taskID, projectID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetTaskFile получает файл задачи проекта
func (r *Repository) GetTaskFile(ctx context.Context, projectID, taskID, fileID string) (*models.TaskFile, error) {
	var f models.TaskFile
	err := r.pool.QueryRow(ctx, `
		SELECT f.id, f.filename, f.file_path, f.file_size, f.created_at, f.task_id, t.created_by
		FROM project_task_files f
		JOIN project_tasks t ON t.id = f.task_id
		WHERE f.id = $1 AND f.task_id = $2 AND t.project_id = $3
	`, fileID, taskID, projectID).Scan(&f.ID, &f.Filename, &f.Path, &f.Size, &f.CreatedAt, &f.TaskID, &f.TaskCreatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task file: %w", err)
	}
	return &f, nil
}

// DeleteTaskFile удаляет запись о файле задачи; задача остается даже без файлов
func (r *Repository) DeleteTaskFile(ctx context.Context, taskID, fileID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM project_task_files WHERE id = $1 AND task_id = $2`, fileID, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
