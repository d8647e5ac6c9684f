// Package blobstore хранит содержимое загруженных файлов. Метаданные живут в базе данных.
package blobstore

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/untibullet/project-hub/internal/models"
)

type Store struct {
	fs afero.Fs
}

// New создает хранилище с корнем в каталоге root
func New(fs afero.Fs, root string) *Store {
	return &Store{fs: afero.NewBasePathFs(fs, root)}
}

// NewOS создает хранилище на локальном диске
func NewOS(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads dir: %w", err)
	}
	return New(afero.NewOsFs(), root), nil
}

// Save записывает поток в хранилище и возвращает относительный путь к blob
func (s *Store) Save(projectID, filename string, r io.Reader) (models.StoredFile, error) {
	name := cleanName(filename)
	dir := "/" + cleanName(projectID)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return models.StoredFile{}, fmt.Errorf("failed to create blob dir: %w", err)
	}

	p := path.Join(dir, uuid.NewString()+"_"+name)
	f, err := s.fs.Create(p)
	if err != nil {
		return models.StoredFile{}, fmt.Errorf("failed to create blob: %w", err)
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = s.fs.Remove(p)
		return models.StoredFile{}, fmt.Errorf("failed to write blob: %w", err)
	}

	return models.StoredFile{Filename: name, Path: p, Size: size}, nil
}

// Open открывает blob на чтение
func (s *Store) Open(p string) (afero.File, error) {
	f, err := s.fs.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

// Remove удаляет blob; отсутствующий blob не считается ошибкой
func (s *Store) Remove(p string) error {
	if err := s.fs.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove blob: %w", err)
	}
	return nil
}

func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		return "file"
	}
	return name
}
