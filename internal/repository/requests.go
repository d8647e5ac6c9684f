package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/untibullet/project-hub/internal/models"
)

// RequestKind вид заявки; каждому виду соответствует своя таблица
type RequestKind int

const (
	JoinRequest RequestKind = iota
	PromotionRequest
)

func (k RequestKind) table() string {
	if k == PromotionRequest {
		return "project_promotion_requests"
	}
	return "project_join_requests"
}

func (k RequestKind) String() string {
	if k == PromotionRequest {
		return "promotion"
	}
	return "join"
}

// SubmitRequest подает заявку. Для заявки на вступление действующий участник получает
// OutcomeAlreadyMember. Ожидающая заявка не дублируется, отклоненная или одобренная
// возвращается в статус pending с обновленной датой.
func (r *Repository) SubmitRequest(ctx context.Context, kind RequestKind, projectID, userID string) (models.RequestOutcome, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	exists, err := projectExists(ctx, tx, projectID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrNotFound
	}

	if kind == JoinRequest {
		role, err := getRole(ctx, tx, projectID, userID)
		if err != nil {
			return 0, err
		}
		if role != "" {
			return models.OutcomeAlreadyMember, nil
		}
	}

	var requestID, status string
	err = tx.QueryRow(ctx,
		`SELECT id, status FROM `+kind.table()+` WHERE project_id = $1 AND user_id = $2 FOR UPDATE`,
		projectID, userID,
	).Scan(&requestID, &status)

	var outcome models.RequestOutcome
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		_, err = tx.Exec(ctx,
			`INSERT INTO `+kind.table()+` (id, project_id, user_id, status) VALUES ($1, $2, $3, $4)`,
			uuid.NewString(), projectID, userID, models.RequestPending,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return models.OutcomeAlreadyPending, nil
			}
			return 0, fmt.Errorf("failed to create %s request: %w", kind, err)
		}
		outcome = models.OutcomeCreated
	case err != nil:
		return 0, fmt.Errorf("failed to get %s request: %w", kind, err)
	case status == models.RequestPending:
		return models.OutcomeAlreadyPending, nil
	default:
		_, err = tx.Exec(ctx,
			`UPDATE `+kind.table()+` SET status = $1, created_at = NOW() WHERE id = $2`,
			models.RequestPending, requestID,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to revive %s request: %w", kind, err)
		}
		outcome = models.OutcomeRevived
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return outcome, nil
}

// ListPendingRequests возвращает ожидающие заявки проекта
func (r *Repository) ListPendingRequests(ctx context.Context, kind RequestKind, projectID string) ([]models.Request, error) {
	query := `
		SELECT r.id, r.project_id, r.user_id, u.username, r.status, r.created_at
		FROM ` + kind.table() + ` r
		JOIN users u ON u.id = r.user_id
		WHERE r.project_id = $1 AND r.status = $2
		ORDER BY r.created_at
	`
	rows, err := r.pool.Query(ctx, query, projectID, models.RequestPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s requests: %w", kind, err)
	}
	defer rows.Close()

	requests := make([]models.Request, 0)
	for rows.Next() {
		var req models.Request
		if err := rows.Scan(&req.ID, &req.ProjectID, &req.UserID, &req.Username, &req.Status, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s request: %w", kind, err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// markResolved переводит ожидающую заявку в статус status и возвращает ID автора заявки
func markResolved(ctx context.Context, q querier, kind RequestKind, projectID, requestID, status string) (string, error) {
	var userID string
	err := q.QueryRow(ctx,
		`UPDATE `+kind.table()+` SET status = $1 WHERE id = $2 AND project_id = $3 AND status = $4 RETURNING user_id`,
		status, requestID, projectID, models.RequestPending,
	).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to update %s request: %w", kind, err)
	}
	return userID, nil
}

// ApproveJoinRequest одобряет заявку на вступление: статус, членство и счетчик
// меняются в одной транзакции
func (r *Repository) ApproveJoinRequest(ctx context.Context, projectID, requestID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	userID, err := markResolved(ctx, tx, JoinRequest, projectID, requestID, models.RequestApproved)
	if err != nil {
		return err
	}

	if _, err = insertMember(ctx, tx, projectID, userID); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ApprovePromotionRequest одобряет заявку на повышение и делает участника заместителем
func (r *Repository) ApprovePromotionRequest(ctx context.Context, projectID, requestID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	userID, err := markResolved(ctx, tx, PromotionRequest, projectID, requestID, models.RequestApproved)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE project_memberships SET role = $1 WHERE project_id = $2 AND user_id = $3 AND role = $4`,
		string(models.RoleDeputy), projectID, userID, string(models.RoleMember),
	)
	if err != nil {
		return fmt.Errorf("failed to promote member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// автор заявки больше не рядовой участник проекта
		return ErrNotFound
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// RejectRequest отклоняет ожидающую заявку
func (r *Repository) RejectRequest(ctx context.Context, kind RequestKind, projectID, requestID string) error {
	_, err := markResolved(ctx, r.pool, kind, projectID, requestID, models.RequestRejected)
	return err
}
