package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/untibullet/project-hub/internal/access"
	"github.com/untibullet/project-hub/internal/auth"
	"github.com/untibullet/project-hub/internal/models"
	"github.com/untibullet/project-hub/internal/repository"
	"go.uber.org/zap"
)

// TaskInput данные новой задачи
type TaskInput struct {
	Title       string
	Description string
	StageID     string
}

const manageTasks = "only the manager or a deputy can manage tasks"

// ListTasks возвращает задачи проекта; доступно участникам
func (s *Service) ListTasks(ctx context.Context, actor auth.Identity, projectID string) ([]models.Task, error) {
	if _, err := s.requireRole(ctx, actor, projectID, access.IsMember, "not a project member"); err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		withHumanSizes(tasks[i].Files)
	}
	return tasks, nil
}

// CreateTask создает задачу с файлами. Если запись в базу не удалась, blob удаляются.
func (s *Service) CreateTask(ctx context.Context, actor auth.Identity, projectID string, in TaskInput, uploads []models.Upload) (*models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("task title is required")
	}
	if _, err := s.requireRole(ctx, actor, projectID, access.CanManage, manageTasks); err != nil {
		return nil, err
	}

	task := models.Task{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Title:       title,
		Description: in.Description,
		Status:      models.TaskInProgress,
		CreatedBy:   actor.UserID,
	}
	if stageID := strings.TrimSpace(in.StageID); stageID != "" {
		task.StageID = &stageID
	}

	stored, err := s.saveUploads(projectID, uploads)
	if err != nil {
		return nil, err
	}
	created, err := s.store.CreateTask(ctx, task, stored)
	if err != nil {
		s.removeBlobs(blobPaths(stored))
		return nil, err
	}
	withHumanSizes(created.Files)
	return created, nil
}

// DeleteTask удаляет задачу вместе с файлами
func (s *Service) DeleteTask(ctx context.Context, actor auth.Identity, projectID, taskID string) error {
	if _, err := s.requireRole(ctx, actor, projectID, access.CanManage, manageTasks); err != nil {
		return err
	}
	paths, err := s.store.DeleteTask(ctx, projectID, taskID)
	if err != nil {
		return err
	}
	s.removeBlobs(paths)
	return nil
}

// SetTaskStatus меняет статус задачи
func (s *Service) SetTaskStatus(ctx context.Context, actor auth.Identity, projectID, taskID, status string) error {
	if status != models.TaskInProgress && status != models.TaskCompleted {
		return invalid("status must be %s or %s", models.TaskInProgress, models.TaskCompleted)
	}
	if _, err := s.requireRole(ctx, actor, projectID, access.CanManage, manageTasks); err != nil {
		return err
	}
	return s.store.SetTaskStatus(ctx, projectID, taskID, status)
}

// AddTaskFiles прикрепляет файлы к задаче
func (s *Service) AddTaskFiles(ctx context.Context, actor auth.Identity, projectID, taskID string, uploads []models.Upload) ([]models.FileInfo, error) {
	if len(uploads) == 0 {
		return nil, invalid("no files uploaded")
	}
	if _, err := s.requireRole(ctx, actor, projectID, access.CanManage, manageTasks); err != nil {
		return nil, err
	}
	if _, err := s.store.GetTask(ctx, projectID, taskID); err != nil {
		return nil, err
	}

	stored, err := s.saveUploads(projectID, uploads)
	if err != nil {
		return nil, err
	}
	files, err := s.store.AddTaskFiles(ctx, projectID, taskID, stored)
	if err != nil {
		s.removeBlobs(blobPaths(stored))
		return nil, err
	}
	withHumanSizes(files)
	return files, nil
}

// DeleteTaskFile удаляет файл задачи; доступно управляющему, заместителю и автору задачи
func (s *Service) DeleteTaskFile(ctx context.Context, actor auth.Identity, projectID, taskID, fileID string) error {
	role, err := s.requireRole(ctx, actor, projectID, access.IsMember, "not a project member")
	if err != nil {
		return err
	}
	file, err := s.store.GetTaskFile(ctx, projectID, taskID, fileID)
	if err != nil {
		return err
	}
	if !access.CanDeleteFile(role, actor.UserID, file.TaskCreatedBy) {
		return forbidden("only the manager, a deputy or the task author can delete task files")
	}
	if err := s.store.DeleteTaskFile(ctx, taskID, fileID); err != nil {
		return err
	}
	s.removeBlobs([]string{file.Path})
	return nil
}

// OpenTaskFile открывает файл задачи для скачивания
func (s *Service) OpenTaskFile(ctx context.Context, actor auth.Identity, projectID, taskID, fileID string) (*Download, error) {
	if _, err := s.requireRole(ctx, actor, projectID, access.IsMember, "not a project member"); err != nil {
		return nil, err
	}
	file, err := s.store.GetTaskFile(ctx, projectID, taskID, fileID)
	if err != nil {
		return nil, err
	}
	return s.open(file.FileInfo)
}

func (s *Service) open(info models.FileInfo) (*Download, error) {
	f, err := s.blobs.Open(info.Path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("open: содержимое файла отсутствует", zap.String("path", info.Path))
		return nil, fmt.Errorf("%w: file content is missing", repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &Download{Filename: info.Filename, Size: info.Size, Content: f}, nil
}
