// models/models.go
package models

import (
	"io"
	"time"
)

// Role роль участника в проекте
type Role string

// Роли участников проекта
const (
	RoleManager Role = "manager"
	RoleDeputy  Role = "deputy"
	RoleMember  Role = "member"
)

// Статусы заявок
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// Статусы задач
const (
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
)

// Источники групп файлов
const (
	SourceFileGroup = "file_group"
	SourceTask      = "task"
)

// User представляет учетную запись пользователя
type User struct {
	ID          string     `json:"id" db:"id"`
	Username    string     `json:"username" db:"username"`
	Email       string     `json:"email" db:"email"`
	Phone       string     `json:"phone,omitempty" db:"phone"`
	DisplayName string     `json:"display_name,omitempty" db:"display_name"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	LastSeen    *time.Time `json:"last_seen,omitempty" db:"last_seen"`
	IsAdmin     bool       `json:"is_admin,omitempty" db:"-"`
}

// Credentials содержит данные для проверки пароля
type Credentials struct {
	User         User
	PasswordHash string
}

// ProfileUpdate описывает изменяемые поля профиля; nil означает "не менять"
type ProfileUpdate struct {
	Email        *string
	Phone        *string
	DisplayName  *string
	PasswordHash *string
}

// Project представляет проект
type Project struct {
	ID                string    `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	ParticipantsCount int       `json:"participants_count" db:"participants_count"`
	ManagerID         string    `json:"manager_id" db:"manager_id"`
	Model             string    `json:"model" db:"model"`
	Topic             string    `json:"topic" db:"topic"`
	ProjectType       string    `json:"project_type" db:"project_type"`
	AvatarURL         string    `json:"avatar_url" db:"avatar_url"`
	SelectedStageID   *string   `json:"selected_stage_id" db:"selected_stage_id"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// ProjectSummary представляет проект в списке с точки зрения пользователя
type ProjectSummary struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	ParticipantsCount int    `json:"participants_count"`
	AvatarURL         string `json:"avatar_url"`
	IsMember          bool   `json:"is_member"`
	Role              *Role  `json:"role"`
}

// ProjectUpdate описывает изменяемые настройки проекта
type ProjectUpdate struct {
	Name        *string `json:"name"`
	Model       *string `json:"model"`
	Topic       *string `json:"topic"`
	ProjectType *string `json:"project_type"`
	AvatarURL   *string `json:"avatar_url"`
}

// Participant представляет участника проекта в списке
type Participant struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Role     Role       `json:"role"`
	LastSeen *time.Time `json:"-"`
	Online   bool       `json:"online"`
}

// Request представляет заявку на вступление или повышение
type Request struct {
	ID        string    `json:"id" db:"id"`
	ProjectID string    `json:"project_id" db:"project_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Username  string    `json:"username" db:"username"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RequestOutcome результат подачи заявки
type RequestOutcome int

const (
	OutcomeCreated RequestOutcome = iota
	OutcomeAlreadyPending
	OutcomeRevived
	OutcomeAlreadyMember
)

// Stage представляет этап проекта
type Stage struct {
	ID        string `json:"id" db:"id"`
	ProjectID string `json:"-" db:"project_id"`
	Name      string `json:"name" db:"name"`
	Position  int    `json:"position" db:"position"`
}

// StageSelection описывает результат выбора текущего этапа
type StageSelection struct {
	StageID       string `json:"stage_id"`
	Direction     string `json:"direction"`
	TasksAffected int64  `json:"tasks_affected"`
}

// Task представляет задачу проекта
type Task struct {
	ID          string     `json:"id" db:"id"`
	ProjectID   string     `json:"project_id" db:"project_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Status      string     `json:"status" db:"status"`
	StageID     *string    `json:"stage_id" db:"stage_id"`
	CreatedBy   string     `json:"created_by" db:"created_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	Files       []FileInfo `json:"files" db:"-"`
}

// FileInfo представляет метаданные сохраненного файла
type FileInfo struct {
	ID        string    `json:"id" db:"id"`
	Filename  string    `json:"filename" db:"filename"`
	Path      string    `json:"-" db:"file_path"`
	Size      int64     `json:"file_size" db:"file_size"`
	SizeHuman string    `json:"size_human,omitempty" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// StoredFile описывает blob, уже записанный в хранилище
type StoredFile struct {
	Filename string
	Path     string
	Size     int64
}

// Upload описывает файл, пришедший в запросе
type Upload struct {
	Filename string
	Content  io.Reader
}

// FileGroup представляет группу файлов: тему или задачу
type FileGroup struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"project_id"`
	Topic      string     `json:"topic"`
	SourceType string     `json:"source_type"`
	TaskID     *string    `json:"task_id,omitempty"`
	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	Files      []FileInfo `json:"files"`
}

// ProjectFile представляет файл тематической группы вместе с владельцем группы
type ProjectFile struct {
	FileInfo
	GroupID   string
	ProjectID string
	CreatedBy string
}

// TaskFile представляет файл задачи вместе с автором задачи
type TaskFile struct {
	FileInfo
	TaskID        string
	TaskCreatedBy string
}
