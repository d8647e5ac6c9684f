package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/untibullet/project-hub/internal/access"
	"github.com/untibullet/project-hub/internal/auth"
	"github.com/untibullet/project-hub/internal/models"
)

// UploadProjectFiles создает тематическую группу файлов
func (s *Service) UploadProjectFiles(ctx context.Context, actor auth.Identity, projectID, topic string, uploads []models.Upload) (*models.FileGroup, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, invalid("topic is required")
	}
	if len(uploads) == 0 {
		return nil, invalid("no files uploaded")
	}
	if _, err := s.requireRole(ctx, actor, projectID, access.IsMember, "not a project member"); err != nil {
		return nil, err
	}

	stored, err := s.saveUploads(projectID, uploads)
	if err != nil {
		return nil, err
	}
	group, err := s.store.CreateFileGroup(ctx, models.FileGroup{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Topic:     topic,
		CreatedBy: actor.UserID,
	}, stored)
	if err != nil {
		s.removeBlobs(blobPaths(stored))
		return nil, err
	}
	withHumanSizes(group.Files)
	return group, nil
}

// AllFiles возвращает тематические группы и файлы задач проекта
func (s *Service) AllFiles(ctx context.Context, actor auth.Identity, projectID string) ([]models.FileGroup, error) {
	if _, err := s.requireRole(ctx, actor, projectID, access.IsMember, "not a project member"); err != nil {
		return nil, err
	}
	groups, err := s.store.ListFileGroups(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		withHumanSizes(groups[i].Files)
	}
	return groups, nil
}

// DeleteProjectFile удаляет файл группы. Возвращает true, если вместе с ним удалена опустевшая группа.
func (s *Service) DeleteProjectFile(ctx context.Context, actor auth.Identity, fileID string) (bool, error) {
	if err := requireUser(actor); err != nil {
		return false, err
	}
	file, err := s.store.GetProjectFile(ctx, fileID)
	if err != nil {
		return false, err
	}
	role, err := s.roleOf(ctx, actor, file.ProjectID)
	if err != nil {
		return false, err
	}
	if !access.CanDeleteFile(role, actor.UserID, file.CreatedBy) {
		return false, forbidden("only the manager, a deputy or the uploader can delete the file")
	}

	groupDeleted, err := s.store.DeleteProjectFile(ctx, fileID)
	if err != nil {
		return false, err
	}
	s.removeBlobs([]string{file.Path})
	return groupDeleted, nil
}

// OpenProjectFile открывает файл группы для скачивания; доступно участникам проекта
func (s *Service) OpenProjectFile(ctx context.Context, actor auth.Identity, fileID string) (*Download, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	file, err := s.store.GetProjectFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireRole(ctx, actor, file.ProjectID, access.IsMember, "not a project member"); err != nil {
		return nil, err
	}
	return s.open(file.FileInfo)
}
