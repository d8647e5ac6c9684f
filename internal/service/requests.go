package service

import (
	"context"

	"github.com/untibullet/project-hub/internal/access"
	"github.com/untibullet/project-hub/internal/auth"
	"github.com/untibullet/project-hub/internal/models"
	"github.com/untibullet/project-hub/internal/repository"
)

// RequestLists ожидающие заявки проекта. Заместитель получает пустой список повышений.
type RequestLists struct {
	Join      []models.Request `json:"join"`
	Promotion []models.Request `json:"promotion"`
}

// RequestJoin подает заявку на вступление в проект
func (s *Service) RequestJoin(ctx context.Context, actor auth.Identity, projectID string) (models.RequestOutcome, error) {
	if err := requireUser(actor); err != nil {
		return 0, err
	}
	return s.store.SubmitRequest(ctx, repository.JoinRequest, projectID, actor.UserID)
}

// ListRequests возвращает ожидающие заявки; доступно управляющему и заместителю
func (s *Service) ListRequests(ctx context.Context, actor auth.Identity, projectID string) (*RequestLists, error) {
	role, err := s.requireRole(ctx, actor, projectID, access.CanManage, "only the manager or a deputy can see requests")
	if err != nil {
		return nil, err
	}

	lists := &RequestLists{Promotion: make([]models.Request, 0)}
	lists.Join, err = s.store.ListPendingRequests(ctx, repository.JoinRequest, projectID)
	if err != nil {
		return nil, err
	}
	if access.CanSeePromotions(role) {
		lists.Promotion, err = s.store.ListPendingRequests(ctx, repository.PromotionRequest, projectID)
		if err != nil {
			return nil, err
		}
	}
	return lists, nil
}

// ApproveJoin одобряет заявку на вступление
func (s *Service) ApproveJoin(ctx context.Context, actor auth.Identity, projectID, requestID string) error {
	if _, err := s.requireRole(ctx, actor, projectID, access.CanManage, "only the manager or a deputy can approve join requests"); err != nil {
		return err
	}
	return s.store.ApproveJoinRequest(ctx, projectID, requestID)
}

// RejectJoin отклоняет заявку на вступление
func (s *Service) RejectJoin(ctx context.Context, actor auth.Identity, projectID, requestID string) error {
	if _, err := s.requireRole(ctx, actor, projectID, access.CanManage, "only the manager or a deputy can reject join requests"); err != nil {
		return err
	}
	return s.store.RejectRequest(ctx, repository.JoinRequest, projectID, requestID)
}

// RequestPromotion подает заявку на повышение до заместителя
func (s *Service) RequestPromotion(ctx context.Context, actor auth.Identity, projectID string) (models.RequestOutcome, error) {
	if _, err := s.requireRole(ctx, actor, projectID, access.CanRequestPromotion, "only members can request promotion"); err != nil {
		return 0, err
	}
	return s.store.SubmitRequest(ctx, repository.PromotionRequest, projectID, actor.UserID)
}

// ApprovePromotion одобряет заявку на повышение; доступно только управляющему
func (s *Service) ApprovePromotion(ctx context.Context, actor auth.Identity, projectID, requestID string) error {
	if _, err := s.requireRole(ctx, actor, projectID, access.CanSeePromotions, "only the manager can approve promotions"); err != nil {
		return err
	}
	return s.store.ApprovePromotionRequest(ctx, projectID, requestID)
}

// RejectPromotion отклоняет заявку на повышение
func (s *Service) RejectPromotion(ctx context.Context, actor auth.Identity, projectID, requestID string) error {
	if _, err := s.requireRole(ctx, actor, projectID, access.CanSeePromotions, "only the manager can reject promotions"); err != nil {
		return err
	}
	return s.store.RejectRequest(ctx, repository.PromotionRequest, projectID, requestID)
}
