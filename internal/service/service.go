// Package service проверяет права и правила рабочего процесса поверх репозитория.
// Только здесь принимается решение о Forbidden и об ошибках валидации.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/untibullet/project-hub/internal/auth"
	"github.com/untibullet/project-hub/internal/models"
	"github.com/untibullet/project-hub/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrStagesLocked = errors.New("stages are locked for this workflow model")
)

// onlineWindow участник считается онлайн, если был активен не раньше этого интервала
const onlineWindow = 2 * time.Minute

// Store операции хранилища, которые использует сервис; реализуется *repository.Repository
type Store interface {
	FindUserConflict(ctx context.Context, username, email, phone, excludeID string) (string, error)
	CreateUser(ctx context.Context, user models.User, passwordHash string) (*models.User, error)
	GetCredentials(ctx context.Context, username string) (*models.Credentials, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) error
	TouchLastSeen(ctx context.Context, userID string, at time.Time) error

	ListProjects(ctx context.Context, viewerID string) ([]models.ProjectSummary, error)
	ListUserProjects(ctx context.Context, userID string) ([]models.ProjectSummary, error)
	GetProject(ctx context.Context, projectID string) (*models.Project, error)
	CreateProject(ctx context.Context, p models.Project, stages []string) (*models.Project, error)
	UpdateProject(ctx context.Context, projectID string, upd models.ProjectUpdate) (*models.Project, error)
	DeleteProject(ctx context.Context, projectID string) ([]string, error)
	GetRole(ctx context.Context, projectID, userID string) (models.Role, error)
	ListParticipants(ctx context.Context, projectID string) ([]models.Participant, error)

	JoinProject(ctx context.Context, projectID, userID string) (bool, error)
	RemoveMember(ctx context.Context, projectID, userID string, role models.Role) error
	ChangeRole(ctx context.Context, projectID, userID string, from, to models.Role) error

	SubmitRequest(ctx context.Context, kind repository.RequestKind, projectID, userID string) (models.RequestOutcome, error)
	ListPendingRequests(ctx context.Context, kind repository.RequestKind, projectID string) ([]models.Request, error)
	ApproveJoinRequest(ctx context.Context, projectID, requestID string) error
	ApprovePromotionRequest(ctx context.Context, projectID, requestID string) error
	RejectRequest(ctx context.Context, kind repository.RequestKind, projectID, requestID string) error

	ListStages(ctx context.Context, projectID string) ([]models.Stage, error)
	AddStage(ctx context.Context, projectID, name string) (*models.Stage, error)
	RenameStage(ctx context.Context, projectID, stageID, name string) error
	DeleteStage(ctx context.Context, projectID, stageID string) (*string, error)
	SelectStage(ctx context.Context, projectID, stageID string) (*models.StageSelection, error)

	ListTasks(ctx context.Context, projectID string) ([]models.Task, error)
	GetTask(ctx context.Context, projectID, taskID string) (*models.Task, error)
	CreateTask(ctx context.Context, task models.Task, files []models.StoredFile) (*models.Task, error)
	AddTaskFiles(ctx context.Context, projectID, taskID string, files []models.StoredFile) ([]models.FileInfo, error)
	DeleteTask(ctx context.Context, projectID, taskID string) ([]string, error)
	SetTaskStatus(ctx context.Context, projectID, taskID, status string) error
	GetTaskFile(ctx context.Context, projectID, taskID, fileID string) (*models.TaskFile, error)
	DeleteTaskFile(ctx context.Context, taskID, fileID string) error

	CreateFileGroup(ctx context.Context, group models.FileGroup, files []models.StoredFile) (*models.FileGroup, error)
	ListFileGroups(ctx context.Context, projectID string) ([]models.FileGroup, error)
	GetProjectFile(ctx context.Context, fileID string) (*models.ProjectFile, error)
	DeleteProjectFile(ctx context.Context, fileID string) (bool, error)

	AdminListRows(ctx context.Context, table repository.AdminTable) ([]map[string]any, error)
	AdminDeleteRow(ctx context.Context, table repository.AdminTable, key map[string]string) ([]string, error)
}

// BlobStore хранилище содержимого файлов; реализуется *blobstore.Store
type BlobStore interface {
	Save(projectID, filename string, r io.Reader) (models.StoredFile, error)
	Open(p string) (afero.File, error)
	Remove(p string) error
}

// Options настройки сервиса из конфигурации
type Options struct {
	AdminUsername   string
	AllowDirectJoin bool
}

type Service struct {
	store  Store
	blobs  BlobStore
	logger *zap.Logger
	opts   Options
	now    func() time.Time
}

// New создает сервис
func New(store Store, blobs BlobStore, logger *zap.Logger, opts Options) *Service {
	return &Service{
		store:  store,
		blobs:  blobs,
		logger: logger,
		opts:   opts,
		now:    time.Now,
	}
}

// Download открытый на чтение файл вместе с исходным именем
type Download struct {
	Filename string
	Size     int64
	Content  afero.File
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", repository.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func forbidden(reason string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, reason)
}

func requireUser(actor auth.Identity) error {
	if actor.Anonymous() {
		return fmt.Errorf("%w: login required", ErrUnauthorized)
	}
	return nil
}

// roleOf возвращает роль пользователя в проекте. Пустая роль у существующего проекта
// означает отсутствие членства; для несуществующего проекта возвращается ErrNotFound.
func (s *Service) roleOf(ctx context.Context, actor auth.Identity, projectID string) (models.Role, error) {
	if err := requireUser(actor); err != nil {
		return "", err
	}
	role, err := s.store.GetRole(ctx, projectID, actor.UserID)
	if err != nil {
		return "", err
	}
	if role == "" {
		if _, err := s.store.GetProject(ctx, projectID); err != nil {
			return "", err
		}
	}
	return role, nil
}

// requireRole проверяет роль пользователя предикатом из пакета access
func (s *Service) requireRole(ctx context.Context, actor auth.Identity, projectID string, allowed func(models.Role) bool, reason string) (models.Role, error) {
	role, err := s.roleOf(ctx, actor, projectID)
	if err != nil {
		return "", err
	}
	if !allowed(role) {
		return "", forbidden(reason)
	}
	return role, nil
}

// saveUploads записывает файлы в хранилище. При ошибке уже записанные blob удаляются.
func (s *Service) saveUploads(projectID string, uploads []models.Upload) ([]models.StoredFile, error) {
	stored := make([]models.StoredFile, 0, len(uploads))
	for _, u := range uploads {
		f, err := s.blobs.Save(projectID, u.Filename, u.Content)
		if err != nil {
			s.removeBlobs(blobPaths(stored))
			return nil, err
		}
		stored = append(stored, f)
	}
	return stored, nil
}

// removeBlobs удаляет blob по возможности: ошибка логируется и не прерывает операцию
func (s *Service) removeBlobs(paths []string) {
	for _, p := range paths {
		if err := s.blobs.Remove(p); err != nil {
			s.logger.Warn("removeBlobs: не удалось удалить файл", zap.Error(err), zap.String("path", p))
		}
	}
}

func blobPaths(files []models.StoredFile) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

func withHumanSizes(files []models.FileInfo) {
	for i := range files {
		files[i].SizeHuman = humanize.Bytes(uint64(files[i].Size))
	}
}

func notMember() error {
	return fmt.Errorf("%w: user is not a project member", repository.ErrNotFound)
}
