package repository

import (
	"context"
	"fmt"

	"github.com/untibullet/project-hub/internal/models"
)

const decrementParticipants = `UPDATE projects SET participants_count = GREATEST(participants_count - 1, 0) WHERE id = $1`

// recountParticipants пересчитывает счетчики по фактическим членствам для набора проектов
const recountParticipants = `
	UPDATE projects p
	SET participants_count = (SELECT COUNT(*) FROM project_memberships m WHERE m.project_id = p.id)
	WHERE p.id = ANY($1)
`

const incrementParticipants = `UPDATE projects SET participants_count = participants_count + 1 WHERE id = $1`

// JoinProject добавляет пользователя участником. Счетчик увеличивается только при
// новой вставке; повторный вызов возвращает joined=false.
func (r *Repository) JoinProject(ctx context.Context, projectID, userID string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	exists, err := projectExists(ctx, tx, projectID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, ErrNotFound
	}

	joined, err := insertMember(ctx, tx, projectID, userID)
	if err != nil {
		return false, err
	}

	if err = tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return joined, nil
}

// insertMember вставляет членство с ролью member и увеличивает счетчик, если строка новая
func insertMember(ctx context.Context, q querier, projectID, userID string) (bool, error) {
	tag, err := q.Exec(ctx, `
		INSERT INTO project_memberships (user_id, project_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, project_id) DO NOTHING
	`, userID, projectID, string(models.RoleMember))
	if err != nil {
		return false, fmt.Errorf("failed to insert membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := q.Exec(ctx, incrementParticipants, projectID); err != nil {
		return false, fmt.Errorf("failed to increment participants: %w", err)
	}
	return true, nil
}

// RemoveMember удаляет членство с ролью role и уменьшает счетчик участников (не ниже нуля).
// Если роль успела измениться, возвращается ErrNotFound.
func (r *Repository) RemoveMember(ctx context.Context, projectID, userID string, role models.Role) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM project_memberships WHERE project_id = $1 AND user_id = $2 AND role = $3`,
		projectID, userID, string(role),
	)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err = tx.Exec(ctx, decrementParticipants, projectID); err != nil {
		return fmt.Errorf("failed to decrement participants: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ChangeRole переводит участника из роли from в роль to. Если участник стал заместителем,
// его ожидающая заявка на повышение одобряется в той же транзакции.
func (r *Repository) ChangeRole(ctx context.Context, projectID, userID string, from, to models.Role) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE project_memberships SET role = $1 WHERE project_id = $2 AND user_id = $3 AND role = $4`,
		string(to), projectID, userID, string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to change role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if to == models.RoleDeputy {
		_, err = tx.Exec(ctx,
			`UPDATE project_promotion_requests SET status = $1 WHERE project_id = $2 AND user_id = $3 AND status = $4`,
			models.RequestApproved, projectID, userID, models.RequestPending,
		)
		if err != nil {
			return fmt.Errorf("failed to close promotion request: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
