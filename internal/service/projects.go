package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/untibullet/project-hub/internal/access"
	"github.com/untibullet/project-hub/internal/auth"
	"github.com/untibullet/project-hub/internal/models"
	"github.com/untibullet/project-hub/internal/workflow"
	"go.uber.org/zap"
)

// ProjectInput данные нового проекта
type ProjectInput struct {
	Name        string `json:"name"`
	Model       string `json:"model"`
	Topic       string `json:"topic"`
	ProjectType string `json:"project_type"`
	AvatarURL   string `json:"avatar_url"`
}

func isManager(role models.Role) bool {
	return role == models.RoleManager
}

// ListProjects возвращает все проекты; для анонимного запроса роль не заполняется
func (s *Service) ListProjects(ctx context.Context, actor auth.Identity) ([]models.ProjectSummary, error) {
	return s.store.ListProjects(ctx, actor.UserID)
}

// ListMyProjects возвращает проекты, где пользователь участник
func (s *Service) ListMyProjects(ctx context.Context, actor auth.Identity) ([]models.ProjectSummary, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	return s.store.ListUserProjects(ctx, actor.UserID)
}

func (s *Service) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	return s.store.GetProject(ctx, projectID)
}

// CreateProject создает проект с этапами модели по умолчанию; создатель становится управляющим
func (s *Service) CreateProject(ctx context.Context, actor auth.Identity, in ProjectInput) (*models.Project, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("project name is required")
	}

	p := models.Project{
		ID:          uuid.NewString(),
		Name:        name,
		ManagerID:   actor.UserID,
		Model:       strings.TrimSpace(in.Model),
		Topic:       in.Topic,
		ProjectType: in.ProjectType,
		AvatarURL:   in.AvatarURL,
	}
	return s.store.CreateProject(ctx, p, workflow.DefaultStages(p.Model))
}

// UpdateProject меняет настройки проекта; доступно только управляющему
func (s *Service) UpdateProject(ctx context.Context, actor auth.Identity, projectID string, upd models.ProjectUpdate) (*models.Project, error) {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, invalid("project name is required")
		}
		upd.Name = &name
	}
	if _, err := s.requireRole(ctx, actor, projectID, isManager, "only the manager can edit the project"); err != nil {
		return nil, err
	}
	return s.store.UpdateProject(ctx, projectID, upd)
}

// DeleteProject удаляет проект и все его файлы
func (s *Service) DeleteProject(ctx context.Context, actor auth.Identity, projectID string) error {
	if _, err := s.requireRole(ctx, actor, projectID, isManager, "only the manager can delete the project"); err != nil {
		return err
	}
	paths, err := s.store.DeleteProject(ctx, projectID)
	if err != nil {
		return err
	}
	s.logger.Info("DeleteProject: проект удален", zap.String("project_id", projectID), zap.Int("files", len(paths)))
	s.removeBlobs(paths)
	return nil
}

// MyMembership возвращает роль пользователя в проекте; пустая роль означает отсутствие членства
func (s *Service) MyMembership(ctx context.Context, actor auth.Identity, projectID string) (models.Role, error) {
	if actor.Anonymous() {
		return "", nil
	}
	return s.roleOf(ctx, actor, projectID)
}

// Participants возвращает участников проекта с признаком online
func (s *Service) Participants(ctx context.Context, projectID string) ([]models.Participant, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	participants, err := s.store.ListParticipants(ctx, projectID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range participants {
		seen := participants[i].LastSeen
		participants[i].Online = seen != nil && now.Sub(*seen) <= onlineWindow
	}
	return participants, nil
}

// Kick исключает участника; исполнитель должен быть строго старше по рангу
func (s *Service) Kick(ctx context.Context, actor auth.Identity, projectID, targetID string) error {
	role, err := s.requireRole(ctx, actor, projectID, access.IsMember, "not a project member")
	if err != nil {
		return err
	}
	target, err := s.store.GetRole(ctx, projectID, targetID)
	if err != nil {
		return err
	}
	if target == "" {
		return notMember()
	}
	if !access.CanKick(role, target) {
		return forbidden("cannot kick a member of equal or higher rank")
	}
	return s.store.RemoveMember(ctx, projectID, targetID, target)
}

// Promote делает участника заместителем
func (s *Service) Promote(ctx context.Context, actor auth.Identity, projectID, targetID string) error {
	return s.changeRole(ctx, actor, projectID, targetID, access.Promoted, "user is already a deputy or the manager")
}

// Demote возвращает заместителя в участники
func (s *Service) Demote(ctx context.Context, actor auth.Identity, projectID, targetID string) error {
	return s.changeRole(ctx, actor, projectID, targetID, access.Demoted, "user is not a deputy")
}

func (s *Service) changeRole(ctx context.Context, actor auth.Identity, projectID, targetID string, next func(models.Role) (models.Role, bool), reason string) error {
	if _, err := s.requireRole(ctx, actor, projectID, isManager, "only the manager can change roles"); err != nil {
		return err
	}
	from, err := s.store.GetRole(ctx, projectID, targetID)
	if err != nil {
		return err
	}
	if from == "" {
		return notMember()
	}
	to, ok := next(from)
	if !ok {
		return invalid("%s", reason)
	}
	return s.store.ChangeRole(ctx, projectID, targetID, from, to)
}

// Join добавляет пользователя в проект без заявки
func (s *Service) Join(ctx context.Context, actor auth.Identity, projectID string) (bool, error) {
	if err := requireUser(actor); err != nil {
		return false, err
	}
	if !s.opts.AllowDirectJoin {
		return false, forbidden("direct join is disabled, submit a join request")
	}
	return s.store.JoinProject(ctx, projectID, actor.UserID)
}

// Leave удаляет пользователя из проекта; управляющий покинуть проект не может
func (s *Service) Leave(ctx context.Context, actor auth.Identity, projectID string) error {
	role, err := s.roleOf(ctx, actor, projectID)
	if err != nil {
		return err
	}
	if role == "" {
		return notMember()
	}
	if !access.CanLeave(role) {
		return forbidden("the manager cannot leave the project")
	}
	return s.store.RemoveMember(ctx, projectID, actor.UserID, role)
}
