package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/untibullet/project-hub/internal/models"
	"github.com/untibullet/project-hub/internal/workflow"
)

const (
	stagePositionConstraint = "project_stages_position_uniq"

	addStageAttempts = 3
)

// ListStages возвращает этапы проекта по возрастанию позиции
func (r *Repository) ListStages(ctx context.Context, projectID string) ([]models.Stage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, project_id, name, position FROM project_stages WHERE project_id = $1 ORDER BY position`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages: %w", err)
	}
	defer rows.Close()

	stages := make([]models.Stage, 0)
	for rows.Next() {
		var s models.Stage
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Name, &s.Position); err != nil {
			return nil, fmt.Errorf("failed to scan stage: %w", err)
		}
		stages = append(stages, s)
	}

	return stages, rows.Err()
}

func getStage(ctx context.Context, q querier, projectID, stageID string) (*models.Stage, error) {
	var s models.Stage
	err := q.QueryRow(ctx,
		`SELECT id, project_id, name, position FROM project_stages WHERE id = $1 AND project_id = $2`,
		stageID, projectID,
	).Scan(&s.ID, &s.ProjectID, &s.Name, &s.Position)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stage: %w", err)
	}
	return &s, nil
}

// AddStage добавляет этап в конец последовательности. Параллельное добавление может
// занять ту же позицию: вставка повторяется с новым максимумом.
func (r *Repository) AddStage(ctx context.Context, projectID, name string) (*models.Stage, error) {
	query := `
		INSERT INTO project_stages (id, project_id, name, position)
		SELECT $1, $2, $3, COALESCE(MAX(position), -1) + 1
		FROM project_stages
		WHERE project_id = $2
		RETURNING position
	`
	s := models.Stage{ID: uuid.NewString(), ProjectID: projectID, Name: name}
	for attempt := 0; attempt < addStageAttempts; attempt++ {
		err := r.pool.QueryRow(ctx, query, s.ID, projectID, name).Scan(&s.Position)
		if err == nil {
			return &s, nil
		}
		switch violatedConstraint(err) {
		case stagePositionConstraint:
			continue
		case "":
			return nil, fmt.Errorf("failed to add stage: %w", err)
		default:
			return nil, fmt.Errorf("%w: stage name already exists", ErrAlreadyExists)
		}
	}
	return nil, fmt.Errorf("%w: stage position is taken, retry", ErrAlreadyExists)
}

// RenameStage переименовывает этап
func (r *Repository) RenameStage(ctx context.Context, projectID, stageID, name string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE project_stages SET name = $1 WHERE id = $2 AND project_id = $3`,
		name, stageID, projectID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: stage name already exists", ErrAlreadyExists)
		}
		return fmt.Errorf("failed to rename stage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteStage удаляет этап. Если он был выбран, выбирается этап с наименьшей позицией
// (или NULL). Возвращает текущий выбранный этап после удаления.
func (r *Repository) DeleteStage(ctx context.Context, projectID, stageID string) (*string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var selected *string
	err = tx.QueryRow(ctx,
		`SELECT selected_stage_id FROM projects WHERE id = $1 FOR UPDATE`, projectID,
	).Scan(&selected)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get selected stage: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM project_stages WHERE id = $1 AND project_id = $2`, stageID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete stage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	if selected != nil && *selected == stageID {
		if selected, err = selectFirstStage(ctx, tx, projectID); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return selected, nil
}

// selectFirstStage делает текущим этап с наименьшей позицией или NULL, если этапов нет
func selectFirstStage(ctx context.Context, q querier, projectID string) (*string, error) {
	var first *string
	err := q.QueryRow(ctx,
		`SELECT id FROM project_stages WHERE project_id = $1 ORDER BY position LIMIT 1`, projectID,
	).Scan(&first)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to find first stage: %w", err)
	}
	if _, err = q.Exec(ctx, `UPDATE projects SET selected_stage_id = $1 WHERE id = $2`, first, projectID); err != nil {
		return nil, fmt.Errorf("failed to reselect stage: %w", err)
	}
	return first, nil
}

// SelectStage делает этап текущим и пересчитывает статусы задач.
// Вперед: все задачи в работе на этапах с позицией меньше новой завершаются.
// Назад: задачи, привязанные к новому этапу, возвращаются в работу.
func (r *Repository) SelectStage(ctx context.Context, projectID, stageID string) (*models.StageSelection, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var prevPosition *int
	err = tx.QueryRow(ctx, `
		SELECT s.position
		FROM projects p
		LEFT JOIN project_stages s ON s.id = p.selected_stage_id AND s.project_id = p.id
		WHERE p.id = $1
		FOR UPDATE OF p
	`, projectID).Scan(&prevPosition)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get selected stage: %w", err)
	}

	stage, err := getStage(ctx, tx, projectID, stageID)
	if err != nil {
		return nil, err
	}

	if _, err = tx.Exec(ctx, `UPDATE projects SET selected_stage_id = $1 WHERE id = $2`, stageID, projectID); err != nil {
		return nil, fmt.Errorf("failed to select stage: %w", err)
	}

	direction := workflow.Compare(prevPosition, stage.Position)
	result := &models.StageSelection{StageID: stageID, Direction: direction.String()}

	switch direction {
	case workflow.Forward:
		tag, err := tx.Exec(ctx, `
			UPDATE project_tasks t
			SET status = $1
			FROM project_stages s
			WHERE s.id = t.stage_id
			  AND t.project_id = $2
			  AND s.position < $3
			  AND t.status = $4
		`, models.TaskCompleted, projectID, stage.Position, models.TaskInProgress)
		if err != nil {
			return nil, fmt.Errorf("failed to complete passed tasks: %w", err)
		}
		result.TasksAffected = tag.RowsAffected()
	case workflow.Backward:
		tag, err := tx.Exec(ctx,
			`UPDATE project_tasks SET status = $1 WHERE project_id = $2 AND stage_id = $3`,
			models.TaskInProgress, projectID, stageID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to reopen stage tasks: %w", err)
		}
		result.TasksAffected = tag.RowsAffected()
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}
