package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// AdminTable таблица, доступная администратору. Набор закрыт: имя таблицы никогда
// не приходит в SQL из запроса напрямую.
type AdminTable int

const (
	TableUsers AdminTable = iota
	TableProjects
	TableMemberships
	TableJoinRequests
	TablePromotionRequests
	TableStages
	TableFileGroups
	TableFiles
	TableTasks
	TableTaskFiles
)

type tableDescriptor struct {
	name    string
	columns []string
	keys    []string
	orderBy string
}

var adminTables = map[AdminTable]tableDescriptor{
	TableUsers: {
		name:    "users",
		columns: []string{"id", "username", "email", "phone", "display_name", "created_at", "last_seen"},
		keys:    []string{"id"},
		orderBy: "created_at DESC",
	},
	TableProjects: {
		name: "projects",
		columns: []string{"id", "name", "participants_count", "created_at", "manager_id", "model", "topic",
			"project_type", "avatar_url", "selected_stage_id"},
		keys:    []string{"id"},
		orderBy: "created_at DESC",
	},
	TableMemberships: {
		name:    "project_memberships",
		columns: []string{"user_id", "project_id", "role", "created_at"},
		keys:    []string{"user_id", "project_id"},
		orderBy: "created_at DESC",
	},
	TableJoinRequests: {
		name:    "project_join_requests",
		columns: []string{"id", "project_id", "user_id", "status", "created_at"},
		keys:    []string{"id"},
		orderBy: "created_at DESC",
	},
	TablePromotionRequests: {
		name:    "project_promotion_requests",
		columns: []string{"id", "project_id", "user_id", "status", "created_at"},
		keys:    []string{"id"},
		orderBy: "created_at DESC",
	},
	TableStages: {
		name:    "project_stages",
		columns: []string{"id", "project_id", "name", "position"},
		keys:    []string{"id"},
		orderBy: "project_id, position",
	},
	TableFileGroups: {
		name:    "project_file_groups",
		columns: []string{"id", "project_id", "topic", "created_at", "created_by"},
		keys:    []string{"id"},
		orderBy: "created_at DESC",
	},
	TableFiles: {
		name:    "project_files",
		columns: []string{"id", "group_id", "filename", "file_path", "file_size", "created_at"},
		keys:    []string{"id"},
		orderBy: "created_at DESC",
	},
	TableTasks: {
		name:    "project_tasks",
		columns: []string{"id", "project_id", "title", "description", "status", "stage_id", "created_at", "created_by"},
		keys:    []string{"id"},
		orderBy: "created_at DESC",
	},
	TableTaskFiles: {
		name:    "project_task_files",
		columns: []string{"id", "task_id", "filename", "file_path", "file_size", "created_at"},
		keys:    []string{"id"},
		orderBy: "created_at DESC",
	},
}

// ParseAdminTable находит таблицу по имени
func ParseAdminTable(name string) (AdminTable, bool) {
	for t, d := range adminTables {
		if d.name == name {
			return t, true
		}
	}
	return 0, false
}

// AdminTableNames возвращает имена доступных таблиц в порядке перечисления
func AdminTableNames() []string {
	names := make([]string, 0, len(adminTables))
	for t := TableUsers; t <= TableTaskFiles; t++ {
		names = append(names, adminTables[t].name)
	}
	return names
}

func (t AdminTable) String() string {
	return adminTables[t].name
}

// Keys возвращает столбцы первичного ключа таблицы
func (t AdminTable) Keys() []string {
	return append([]string(nil), adminTables[t].keys...)
}

// AdminListRows возвращает все строки таблицы (хеши паролей не выбираются)
func (r *Repository) AdminListRows(ctx context.Context, table AdminTable) ([]map[string]any, error) {
	d, ok := adminTables[table]
	if !ok {
		return nil, ErrNotFound
	}

	columns := make([]string, len(d.columns))
	for i, c := range d.columns {
		columns[i] = pgx.Identifier{c}.Sanitize()
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(columns, ", "), pgx.Identifier{d.name}.Sanitize(), d.orderBy)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s rows: %w", d.name, err)
	}
	result, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s rows: %w", d.name, err)
	}
	if result == nil {
		result = make([]map[string]any, 0)
	}
	return result, nil
}

// AdminDeleteRow удаляет ровно одну строку по значениям первичного ключа и сохраняет
// инварианты в той же транзакции: счетчики участников, выбранный этап, пустые группы.
// Возвращает пути файлов, которые после фиксации нужно удалить из хранилища.
func (r *Repository) AdminDeleteRow(ctx context.Context, table AdminTable, key map[string]string) ([]string, error) {
	d, ok := adminTables[table]
	if !ok {
		return nil, ErrNotFound
	}

	conds := make([]string, len(d.keys))
	args := make([]any, len(d.keys))
	for i, k := range d.keys {
		v, ok := key[k]
		if !ok || v == "" {
			return nil, fmt.Errorf("%w: missing key column %s", ErrInvalidInput, k)
		}
		conds[i] = fmt.Sprintf("%s = $%d", pgx.Identifier{k}.Sanitize(), i+1)
		args[i] = v
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	effects, err := collectDeleteEffects(ctx, tx, table, key)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s", pgx.Identifier{d.name}.Sanitize(), strings.Join(conds, " AND "))
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to delete %s row: %w", d.name, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	if err = effects.apply(ctx, tx, table, key); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return effects.blobs, nil
}

// deleteEffects данные, собранные до удаления строки
type deleteEffects struct {
	blobs     []string
	projects  []string // проекты удаляемого пользователя
	projectID string
	groupID   string
	selected  *string
}

func collectDeleteEffects(ctx context.Context, q querier, table AdminTable, key map[string]string) (*deleteEffects, error) {
	e := &deleteEffects{}
	id := key["id"]

	var err error
	switch table {
	case TableUsers:
		e.projects, err = collectStrings(ctx, q, `SELECT project_id FROM project_memberships WHERE user_id = $1`, id)
		if err == nil {
			e.blobs, err = collectStrings(ctx, q, userBlobsQuery, id)
		}
	case TableProjects:
		e.blobs, err = collectStrings(ctx, q, projectBlobsQuery, id)
	case TableMemberships:
		e.projectID = key["project_id"]
	case TableStages:
		err = q.QueryRow(ctx, `
			SELECT p.id, p.selected_stage_id
			FROM project_stages s
			JOIN projects p ON p.id = s.project_id
			WHERE s.id = $1
			FOR UPDATE OF p
		`, id).Scan(&e.projectID, &e.selected)
	case TableFileGroups:
		e.blobs, err = collectStrings(ctx, q, `SELECT file_path FROM project_files WHERE group_id = $1`, id)
	case TableFiles:
		var path string
		err = q.QueryRow(ctx, `SELECT group_id, file_path FROM project_files WHERE id = $1`, id).Scan(&e.groupID, &path)
		e.blobs = []string{path}
	case TableTasks:
		e.blobs, err = collectStrings(ctx, q, `SELECT file_path FROM project_task_files WHERE task_id = $1`, id)
	case TableTaskFiles:
		e.blobs, err = collectStrings(ctx, q, `SELECT file_path FROM project_task_files WHERE id = $1`, id)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s row: %w", table, err)
	}
	return e, nil
}

func (e *deleteEffects) apply(ctx context.Context, q querier, table AdminTable, key map[string]string) error {
	switch table {
	case TableMemberships:
		if _, err := q.Exec(ctx, decrementParticipants, e.projectID); err != nil {
			return fmt.Errorf("failed to decrement participants: %w", err)
		}
	case TableUsers:
		if len(e.projects) == 0 {
			return nil
		}
		if _, err := q.Exec(ctx, recountParticipants, e.projects); err != nil {
			return fmt.Errorf("failed to recount participants: %w", err)
		}
	case TableStages:
		if e.selected != nil && *e.selected == key["id"] {
			if _, err := selectFirstStage(ctx, q, e.projectID); err != nil {
				return err
			}
		}
	case TableFiles:
		if _, err := q.Exec(ctx, deleteEmptyGroup, e.groupID); err != nil {
			return fmt.Errorf("failed to delete empty group: %w", err)
		}
	}
	return nil
}

// userBlobsQuery выбирает пути файлов, которые каскадно удаляются вместе с автором
const userBlobsQuery = `
	SELECT f.file_path
	FROM project_files f
	JOIN project_file_groups g ON g.id = f.group_id
	WHERE g.created_by = $1
	UNION ALL
	SELECT tf.file_path
	FROM project_task_files tf
	JOIN project_tasks t ON t.id = tf.task_id
	WHERE t.created_by = $1
`

func collectStrings(ctx context.Context, q querier, query string, args ...any) ([]string, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
