package service

import (
	"context"
	"strings"

	"github.com/untibullet/project-hub/internal/access"
	"github.com/untibullet/project-hub/internal/auth"
	"github.com/untibullet/project-hub/internal/models"
	"github.com/untibullet/project-hub/internal/workflow"
	"go.uber.org/zap"
)

// ListStages возвращает этапы проекта по порядку
func (s *Service) ListStages(ctx context.Context, projectID string) ([]models.Stage, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.ListStages(ctx, projectID)
}

// editableStages проверяет, что набор этапов проекта можно менять.
// Для моделей-диаграмм отказ не зависит от роли.
func (s *Service) editableStages(ctx context.Context, actor auth.Identity, projectID string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if workflow.IsDiagram(project.Model) {
		return ErrStagesLocked
	}
	_, err = s.requireRole(ctx, actor, projectID, access.CanManage, "only the manager or a deputy can edit stages")
	return err
}

// AddStage добавляет этап в конец
func (s *Service) AddStage(ctx context.Context, actor auth.Identity, projectID, name string) (*models.Stage, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("stage name is required")
	}
	if err := s.editableStages(ctx, actor, projectID); err != nil {
		return nil, err
	}
	return s.store.AddStage(ctx, projectID, name)
}

// RenameStage переименовывает этап
func (s *Service) RenameStage(ctx context.Context, actor auth.Identity, projectID, stageID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("stage name is required")
	}
	if err := s.editableStages(ctx, actor, projectID); err != nil {
		return err
	}
	return s.store.RenameStage(ctx, projectID, stageID, name)
}

// DeleteStage удаляет этап и возвращает выбранный после удаления этап
func (s *Service) DeleteStage(ctx context.Context, actor auth.Identity, projectID, stageID string) (*string, error) {
	if err := s.editableStages(ctx, actor, projectID); err != nil {
		return nil, err
	}
	return s.store.DeleteStage(ctx, projectID, stageID)
}

// SelectStage делает этап текущим; статусы задач пересчитываются в той же транзакции
func (s *Service) SelectStage(ctx context.Context, actor auth.Identity, projectID, stageID string) (*models.StageSelection, error) {
	if _, err := s.requireRole(ctx, actor, projectID, access.CanManage, "only the manager or a deputy can select the stage"); err != nil {
		return nil, err
	}
	selection, err := s.store.SelectStage(ctx, projectID, stageID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("SelectStage: этап выбран",
		zap.String("project_id", projectID),
		zap.String("stage_id", stageID),
		zap.String("direction", selection.Direction),
		zap.Int64("tasks_affected", selection.TasksAffected),
	)
	return selection, nil
}
