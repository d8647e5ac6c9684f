package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/untibullet/project-hub/internal/models"
	"github.com/untibullet/project-hub/internal/repository"
)

type mockStore struct {
	mock.Mock
}

func ptrOrNil[T any](v any) *T {
	if v == nil {
		return nil
	}
	return v.(*T)
}

func sliceOrNil[T any](v any) []T {
	if v == nil {
		return nil
	}
	return v.([]T)
}

func (m *mockStore) FindUserConflict(ctx context.Context, username, email, phone, excludeID string) (string, error) {
	args := m.Called(ctx, username, email, phone, excludeID)
	return args.String(0), args.Error(1)
}

func (m *mockStore) CreateUser(ctx context.Context, user models.User, passwordHash string) (*models.User, error) {
	args := m.Called(ctx, user, passwordHash)
	return ptrOrNil[models.User](args.Get(0)), args.Error(1)
}

func (m *mockStore) GetCredentials(ctx context.Context, username string) (*models.Credentials, error) {
	args := m.Called(ctx, username)
	return ptrOrNil[models.Credentials](args.Get(0)), args.Error(1)
}

func (m *mockStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	return ptrOrNil[models.User](args.Get(0)), args.Error(1)
}

func (m *mockStore) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) error {
	return m.Called(ctx, userID, upd).Error(0)
}

func (m *mockStore) TouchLastSeen(ctx context.Context, userID string, at time.Time) error {
	return m.Called(ctx, userID, at).Error(0)
}

func (m *mockStore) ListProjects(ctx context.Context, viewerID string) ([]models.ProjectSummary, error) {
	args := m.Called(ctx, viewerID)
	return sliceOrNil[models.ProjectSummary](args.Get(0)), args.Error(1)
}

func (m *mockStore) ListUserProjects(ctx context.Context, userID string) ([]models.ProjectSummary, error) {
	args := m.Called(ctx, userID)
	return sliceOrNil[models.ProjectSummary](args.Get(0)), args.Error(1)
}

func (m *mockStore) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	args := m.Called(ctx, projectID)
	return ptrOrNil[models.Project](args.Get(0)), args.Error(1)
}

func (m *mockStore) CreateProject(ctx context.Context, p models.Project, stages []string) (*models.Project, error) {
	args := m.Called(ctx, p, stages)
	return ptrOrNil[models.Project](args.Get(0)), args.Error(1)
}

func (m *mockStore) UpdateProject(ctx context.Context, projectID string, upd models.ProjectUpdate) (*models.Project, error) {
	args := m.Called(ctx, projectID, upd)
	return ptrOrNil[models.Project](args.Get(0)), args.Error(1)
}

func (m *mockStore) DeleteProject(ctx context.Context, projectID string) ([]string, error) {
	args := m.Called(ctx, projectID)
	return sliceOrNil[string](args.Get(0)), args.Error(1)
}

func (m *mockStore) GetRole(ctx context.Context, projectID, userID string) (models.Role, error) {
	args := m.Called(ctx, projectID, userID)
	return args.Get(0).(models.Role), args.Error(1)
}

func (m *mockStore) ListParticipants(ctx context.Context, projectID string) ([]models.Participant, error) {
	args := m.Called(ctx, projectID)
	return sliceOrNil[models.Participant](args.Get(0)), args.Error(1)
}

func (m *mockStore) JoinProject(ctx context.Context, projectID, userID string) (bool, error) {
	args := m.Called(ctx, projectID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) RemoveMember(ctx context.Context, projectID, userID string, role models.Role) error {
	return m.Called(ctx, projectID, userID, role).Error(0)
}

func (m *mockStore) ChangeRole(ctx context.Context, projectID, userID string, from, to models.Role) error {
	return m.Called(ctx, projectID, userID, from, to).Error(0)
}

func (m *mockStore) SubmitRequest(ctx context.Context, kind repository.RequestKind, projectID, userID string) (models.RequestOutcome, error) {
	args := m.Called(ctx, kind, projectID, userID)
	return args.Get(0).(models.RequestOutcome), args.Error(1)
}

func (m *mockStore) ListPendingRequests(ctx context.Context, kind repository.RequestKind, projectID string) ([]models.Request, error) {
	args := m.Called(ctx, kind, projectID)
	return sliceOrNil[models.Request](args.Get(0)), args.Error(1)
}

func (m *mockStore) ApproveJoinRequest(ctx context.Context, projectID, requestID string) error {
	return m.Called(ctx, projectID, requestID).Error(0)
}

func (m *mockStore) ApprovePromotionRequest(ctx context.Context, projectID, requestID string) error {
	return m.Called(ctx, projectID, requestID).Error(0)
}

func (m *mockStore) RejectRequest(ctx context.Context, kind repository.RequestKind, projectID, requestID string) error {
	return m.Called(ctx, kind, projectID, requestID).Error(0)
}

func (m *mockStore) ListStages(ctx context.Context, projectID string) ([]models.Stage, error) {
	args := m.Called(ctx, projectID)
	return sliceOrNil[models.Stage](args.Get(0)), args.Error(1)
}

func (m *mockStore) AddStage(ctx context.Context, projectID, name string) (*models.Stage, error) {
	args := m.Called(ctx, projectID, name)
	return ptrOrNil[models.Stage](args.Get(0)), args.Error(1)
}

func (m *mockStore) RenameStage(ctx context.Context, projectID, stageID, name string) error {
	return m.Called(ctx, projectID, stageID, name).Error(0)
}

func (m *mockStore) DeleteStage(ctx context.Context, projectID, stageID string) (*string, error) {
	args := m.Called(ctx, projectID, stageID)
	return ptrOrNil[string](args.Get(0)), args.Error(1)
}

func (m *mockStore) SelectStage(ctx context.Context, projectID, stageID string) (*models.StageSelection, error) {
	args := m.Called(ctx, projectID, stageID)
	return ptrOrNil[models.StageSelection](args.Get(0)), args.Error(1)
}

func (m *mockStore) ListTasks(ctx context.Context, projectID string) ([]models.Task, error) {
	args := m.Called(ctx, projectID)
	return sliceOrNil[models.Task](args.Get(0)), args.Error(1)
}

func (m *mockStore) GetTask(ctx context.Context, projectID, taskID string) (*models.Task, error) {
	args := m.Called(ctx, projectID, taskID)
	return ptrOrNil[models.Task](args.Get(0)), args.Error(1)
}

func (m *mockStore) CreateTask(ctx context.Context, task models.Task, files []models.StoredFile) (*models.Task, error) {
	args := m.Called(ctx, task, files)
	return ptrOrNil[models.Task](args.Get(0)), args.Error(1)
}

func (m *mockStore) AddTaskFiles(ctx context.Context, projectID, taskID string, files []models.StoredFile) ([]models.FileInfo, error) {
	args := m.Called(ctx, projectID, taskID, files)
	return sliceOrNil[models.FileInfo](args.Get(0)), args.Error(1)
}

func (m *mockStore) DeleteTask(ctx context.Context, projectID, taskID string) ([]string, error) {
	args := m.Called(ctx, projectID, taskID)
	return sliceOrNil[string](args.Get(0)), args.Error(1)
}

func (m *mockStore) SetTaskStatus(ctx context.Context, projectID, taskID, status string) error {
	return m.Called(ctx, projectID, taskID, status).Error(0)
}

func (m *mockStore) GetTaskFile(ctx context.Context, projectID, taskID, fileID string) (*models.TaskFile, error) {
	args := m.Called(ctx, projectID, taskID, fileID)
	return ptrOrNil[models.TaskFile](args.Get(0)), args.Error(1)
}

func (m *mockStore) DeleteTaskFile(ctx context.Context, taskID, fileID string) error {
	return m.Called(ctx, taskID, fileID).Error(0)
}

func (m *mockStore) CreateFileGroup(ctx context.Context, group models.FileGroup, files []models.StoredFile) (*models.FileGroup, error) {
	args := m.Called(ctx, group, files)
	return ptrOrNil[models.FileGroup](args.Get(0)), args.Error(1)
}

func (m *mockStore) ListFileGroups(ctx context.Context, projectID string) ([]models.FileGroup, error) {
	args := m.Called(ctx, projectID)
	return sliceOrNil[models.FileGroup](args.Get(0)), args.Error(1)
}

func (m *mockStore) GetProjectFile(ctx context.Context, fileID string) (*models.ProjectFile, error) {
	args := m.Called(ctx, fileID)
	return ptrOrNil[models.ProjectFile](args.Get(0)), args.Error(1)
}

func (m *mockStore) DeleteProjectFile(ctx context.Context, fileID string) (bool, error) {
	args := m.Called(ctx, fileID)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) AdminListRows(ctx context.Context, table repository.AdminTable) ([]map[string]any, error) {
	args := m.Called(ctx, table)
	return sliceOrNil[map[string]any](args.Get(0)), args.Error(1)
}

func (m *mockStore) AdminDeleteRow(ctx context.Context, table repository.AdminTable, key map[string]string) ([]string, error) {
	args := m.Called(ctx, table, key)
	return sliceOrNil[string](args.Get(0)), args.Error(1)
}
