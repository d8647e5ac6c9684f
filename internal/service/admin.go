package service

import (
	"context"
	"fmt"

	"github.com/untibullet/project-hub/internal/auth"
	"github.com/untibullet/project-hub/internal/repository"
	"go.uber.org/zap"
)

func (s *Service) requireAdmin(actor auth.Identity) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if !s.isAdmin(actor.Username) {
		return forbidden("administrator only")
	}
	return nil
}

func parseTable(name string) (repository.AdminTable, error) {
	table, ok := repository.ParseAdminTable(name)
	if !ok {
		return 0, fmt.Errorf("%w: unknown table %q", repository.ErrNotFound, name)
	}
	return table, nil
}

// AdminTables возвращает имена таблиц, доступных администратору
func (s *Service) AdminTables(actor auth.Identity) ([]string, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	return repository.AdminTableNames(), nil
}

// AdminListRows возвращает все строки таблицы
func (s *Service) AdminListRows(ctx context.Context, actor auth.Identity, name string) ([]map[string]any, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	table, err := parseTable(name)
	if err != nil {
		return nil, err
	}
	return s.store.AdminListRows(ctx, table)
}

// AdminDeleteRow удаляет строку по значениям первичного ключа из row
func (s *Service) AdminDeleteRow(ctx context.Context, actor auth.Identity, name string, row map[string]any) error {
	if err := s.requireAdmin(actor); err != nil {
		return err
	}
	table, err := parseTable(name)
	if err != nil {
		return err
	}

	key := make(map[string]string)
	for _, column := range table.Keys() {
		v, ok := row[column]
		if !ok || v == nil {
			return invalid("missing key column %s", column)
		}
		key[column] = fmt.Sprint(v)
	}

	paths, err := s.store.AdminDeleteRow(ctx, table, key)
	if err != nil {
		return err
	}
	s.removeBlobs(paths)
	s.logger.Info("AdminDeleteRow: строка удалена",
		zap.String("table", name), zap.Any("key", key), zap.Int("files", len(paths)))
	return nil
}
