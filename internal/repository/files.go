package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/untibullet/project-hub/internal/models"
)

// CreateFileGroup создает тематическую группу и ее файлы одной транзакцией
func (r *Repository) CreateFileGroup(ctx context.Context, group models.FileGroup, files []models.StoredFile) (*models.FileGroup, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO project_file_groups (id, project_id, topic, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, group.ID, group.ProjectID, group.Topic, group.CreatedBy).Scan(&group.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create file group: %w", err)
	}

	group.SourceType = models.SourceFileGroup
	group.Files = make([]models.FileInfo, 0, len(files))
	for _, f := range files {
		info := models.FileInfo{ID: uuid.NewString(), Filename: f.Filename, Path: f.Path, Size: f.Size}
		err = tx.QueryRow(ctx, `
			INSERT INTO project_files (id, group_id, filename, file_path, file_size)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at
		`, info.ID, group.ID, info.Filename, info.Path, info.Size).Scan(&info.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert file: %w", err)
		}
		group.Files = append(group.Files, info)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &group, nil
}

// ListFileGroups возвращает тематические группы и группы файлов задач проекта.
// Задачи без файлов не попадают в список.
func (r *Repository) ListFileGroups(ctx context.Context, projectID string) ([]models.FileGroup, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT g.id, g.topic, g.created_by, g.created_at,
		       f.id, f.filename, f.file_path, f.file_size, f.created_at
		FROM project_file_groups g
		LEFT JOIN project_files f ON f.group_id = g.id
		WHERE g.project_id = $1
		ORDER BY g.created_at DESC, f.created_at
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list file groups: %w", err)
	}
	defer rows.Close()

	groups := make([]models.FileGroup, 0)
	index := make(map[string]int)
	for rows.Next() {
		var g models.FileGroup
		var fileID, filename, path *string
		var size *int64
		var fileCreated *time.Time
		if err := rows.Scan(&g.ID, &g.Topic, &g.CreatedBy, &g.CreatedAt, &fileID, &filename, &path, &size, &fileCreated); err != nil {
			return nil, fmt.Errorf("failed to scan file group: %w", err)
		}
		i, ok := index[g.ID]
		if !ok {
			g.ProjectID = projectID
			g.SourceType = models.SourceFileGroup
			g.Files = make([]models.FileInfo, 0)
			i = len(groups)
			index[g.ID] = i
			groups = append(groups, g)
		}
		if fileID != nil {
			groups[i].Files = append(groups[i].Files, models.FileInfo{
				ID: *fileID, Filename: *filename, Path: *path, Size: *size, CreatedAt: *fileCreated,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate file groups: %w", err)
	}

	tasks, err := r.ListTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if len(t.Files) == 0 {
			continue
		}
		taskID := t.ID
		groups = append(groups, models.FileGroup{
			ID:         t.ID,
			ProjectID:  projectID,
			Topic:      t.Title,
			SourceType: models.SourceTask,
			TaskID:     &taskID,
			CreatedBy:  t.CreatedBy,
			CreatedAt:  t.CreatedAt,
			Files:      t.Files,
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].CreatedAt.After(groups[j].CreatedAt)
	})

	return groups, nil
}

// GetProjectFile получает файл тематической группы вместе с проектом и автором группы
func (r *Repository) GetProjectFile(ctx context.Context, fileID string) (*models.ProjectFile, error) {
	var f models.ProjectFile
	err := r.pool.QueryRow(ctx, `
		SELECT f.id, f.filename, f.file_path, f.file_size, f.created_at, g.id, g.project_id, g.created_by
		FROM project_files f
		JOIN project_file_groups g ON g.id = f.group_id
		WHERE f.id = $1
	`, fileID).Scan(&f.ID, &f.Filename, &f.Path, &f.Size, &f.CreatedAt, &f.GroupID, &f.ProjectID, &f.CreatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return &f, nil
}

// DeleteProjectFile удаляет файл; опустевшая группа удаляется в той же транзакции
func (r *Repository) DeleteProjectFile(ctx context.Context, fileID string) (groupDeleted bool, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var groupID string
	err = tx.QueryRow(ctx, `DELETE FROM project_files WHERE id = $1 RETURNING group_id`, fileID).Scan(&groupID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete file: %w", err)
	}

	tag, err := tx.Exec(ctx, deleteEmptyGroup, groupID)
	if err != nil {
		return false, fmt.Errorf("failed to delete empty group: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// deleteEmptyGroup удаляет группу, если в ней не осталось файлов
const deleteEmptyGroup = `
	DELETE FROM project_file_groups g
	WHERE g.id = $1 AND NOT EXISTS (SELECT 1 FROM project_files f WHERE f.group_id = g.id)
`
