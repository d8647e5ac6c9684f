package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/untibullet/project-hub/internal/models"
)

const projectColumns = `id, name, participants_count, COALESCE(manager_id, ''), model, topic, project_type,
	avatar_url, selected_stage_id, created_at`

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID, &p.Name, &p.ParticipantsCount, &p.ManagerID, &p.Model, &p.Topic, &p.ProjectType,
		&p.AvatarURL, &p.SelectedStageID, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects возвращает все проекты с ролью пользователя viewerID (пустой ID - аноним)
func (r *Repository) ListProjects(ctx context.Context, viewerID string) ([]models.ProjectSummary, error) {
	query := `
		SELECT p.id, p.name, p.participants_count, p.avatar_url, m.role
		FROM projects p
		LEFT JOIN project_memberships m ON m.project_id = p.id AND m.user_id = $1
		ORDER BY p.created_at DESC
	`
	return r.listProjectSummaries(ctx, query, viewerID)
}

// ListUserProjects возвращает проекты, в которых участвует пользователь
func (r *Repository) ListUserProjects(ctx context.Context, userID string) ([]models.ProjectSummary, error) {
	query := `
		SELECT p.id, p.name, p.participants_count, p.avatar_url, m.role
		FROM projects p
		JOIN project_memberships m ON m.project_id = p.id
		WHERE m.user_id = $1
		ORDER BY p.created_at DESC
	`
	return r.listProjectSummaries(ctx, query, userID)
}

func (r *Repository) listProjectSummaries(ctx context.Context, query, userID string) ([]models.ProjectSummary, error) {
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]models.ProjectSummary, 0)
	for rows.Next() {
		var p models.ProjectSummary
		if err := rows.Scan(&p.ID, &p.Name, &p.ParticipantsCount, &p.AvatarURL, &p.Role); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.IsMember = p.Role != nil
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

// GetProject получает проект по ID
func (r *Repository) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	p, err := scanProject(r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, projectID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// CreateProject создает проект, его этапы и членство управляющего одной транзакцией.
// Первый этап становится выбранным.
func (r *Repository) CreateProject(ctx context.Context, p models.Project, stages []string) (*models.Project, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertQuery := `
		INSERT INTO projects (id, name, participants_count, manager_id, model, topic, project_type, avatar_url)
		VALUES ($1, $2, 1, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err = tx.QueryRow(ctx, insertQuery,
		p.ID, p.Name, p.ManagerID, p.Model, p.Topic, p.ProjectType, p.AvatarURL,
	).Scan(&p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	p.ParticipantsCount = 1

	var firstStage *string
	for i, name := range stages {
		id := uuid.NewString()
		if i == 0 {
			firstStage = &id
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO project_stages (id, project_id, name, position) VALUES ($1, $2, $3, $4)`,
			id, p.ID, name, i,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create stage: %w", err)
		}
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO project_memberships (user_id, project_id, role) VALUES ($1, $2, $3)`,
		p.ManagerID, p.ID, string(models.RoleManager),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create manager membership: %w", err)
	}

	if firstStage != nil {
		_, err = tx.Exec(ctx, `UPDATE projects SET selected_stage_id = $1 WHERE id = $2`, *firstStage, p.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to select first stage: %w", err)
		}
		p.SelectedStageID = firstStage
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &p, nil
}

// UpdateProject меняет переданные настройки проекта
func (r *Repository) UpdateProject(ctx context.Context, projectID string, upd models.ProjectUpdate) (*models.Project, error) {
	query := `
		UPDATE projects SET
			name = COALESCE($1, name),
			model = COALESCE($2, model),
			topic = COALESCE($3, topic),
			project_type = COALESCE($4, project_type),
			avatar_url = COALESCE($5, avatar_url)
		WHERE id = $6
		RETURNING ` + projectColumns
	p, err := scanProject(r.pool.QueryRow(ctx, query,
		upd.Name, upd.Model, upd.Topic, upd.ProjectType, upd.AvatarURL, projectID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return p, nil
}

// DeleteProject удаляет проект со всеми зависимыми строками и возвращает пути blob,
// которые нужно удалить после фиксации
func (r *Repository) DeleteProject(ctx context.Context, projectID string) ([]string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, projectBlobsQuery, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to collect project files: %w", err)
	}
	paths, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan project files: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM projects WHERE id = $1`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return paths, nil
}

// GetRole возвращает роль пользователя в проекте; пустая роль означает отсутствие членства
func (r *Repository) GetRole(ctx context.Context, projectID, userID string) (models.Role, error) {
	return getRole(ctx, r.pool, projectID, userID)
}

func getRole(ctx context.Context, q querier, projectID, userID string) (models.Role, error) {
	var role string
	err := q.QueryRow(ctx,
		`SELECT role FROM project_memberships WHERE project_id = $1 AND user_id = $2`,
		projectID, userID,
	).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get membership role: %w", err)
	}
	return models.Role(role), nil
}

// ListParticipants возвращает участников: управляющий, заместители, участники, затем по имени
func (r *Repository) ListParticipants(ctx context.Context, projectID string) ([]models.Participant, error) {
	query := `
		SELECT u.id, u.username, m.role, u.last_seen
		FROM project_memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.project_id = $1
		ORDER BY CASE m.role WHEN 'manager' THEN 1 WHEN 'deputy' THEN 2 ELSE 3 END, u.username
	`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	participants := make([]models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.Username, &p.Role, &p.LastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}

	return participants, rows.Err()
}

// projectBlobsQuery выбирает пути всех файлов проекта: файлов групп и файлов задач
const projectBlobsQuery = `
	SELECT f.file_path
	FROM project_files f
	JOIN project_file_groups g ON g.id = f.group_id
	WHERE g.project_id = $1
	UNION ALL
	SELECT tf.file_path
	FROM project_task_files tf
	JOIN project_tasks t ON t.id = tf.task_id
	WHERE t.project_id = $1
`
