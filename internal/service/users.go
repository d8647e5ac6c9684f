package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/untibullet/project-hub/internal/auth"
	"github.com/untibullet/project-hub/internal/models"
	"github.com/untibullet/project-hub/internal/repository"
	"go.uber.org/zap"
)

// RegisterInput данные регистрации
type RegisterInput struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DisplayName string `json:"display_name"`
}

// ProfileInput изменяемые поля профиля; nil означает "не менять"
type ProfileInput struct {
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Password    *string `json:"password"`
	DisplayName *string `json:"display_name"`
}

func validatePhone(phone string) error {
	if phone != "" && !strings.HasPrefix(phone, "+") {
		return invalid("phone must start with +")
	}
	return nil
}

// Register создает пользователя. Имя администратора зарезервировано: его учетная
// запись создается только через CreateAdmin.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if s.opts.AdminUsername != "" && strings.EqualFold(username, s.opts.AdminUsername) {
		return nil, fmt.Errorf("%w: username %s is reserved", repository.ErrAlreadyExists, username)
	}
	return s.createUser(ctx, in)
}

func (s *Service) createUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Username == "" || in.Password == "" {
		return nil, invalid("username and password are required")
	}
	if err := validatePhone(in.Phone); err != nil {
		return nil, err
	}

	field, err := s.store.FindUserConflict(ctx, in.Username, in.Email, in.Phone, "")
	if err != nil {
		return nil, err
	}
	if field != "" {
		return nil, fmt.Errorf("%w: %s already taken", repository.ErrAlreadyExists, field)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, models.User{
		ID:          uuid.NewString(),
		Username:    in.Username,
		Email:       in.Email,
		Phone:       in.Phone,
		DisplayName: strings.TrimSpace(in.DisplayName),
	}, hash)
	if err != nil {
		return nil, err
	}
	user.IsAdmin = s.isAdmin(user.Username)
	return user, nil
}

// Login проверяет пароль и обновляет время последней активности
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	creds, err := s.store.GetCredentials(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(creds.PasswordHash, password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, err)
	}

	user := creds.User
	now := s.now()
	if err := s.store.TouchLastSeen(ctx, user.ID, now); err != nil {
		s.logger.Warn("Login: не удалось обновить last_seen", zap.Error(err), zap.String("user_id", user.ID))
	} else {
		user.LastSeen = &now
	}
	user.IsAdmin = s.isAdmin(user.Username)
	return &user, nil
}

// Me возвращает текущего пользователя или nil для анонимного запроса
func (s *Service) Me(ctx context.Context, actor auth.Identity) (*models.User, error) {
	if actor.Anonymous() {
		return nil, nil
	}
	user, err := s.store.GetUser(ctx, actor.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		// сессия пережила удаление пользователя
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user.IsAdmin = s.isAdmin(user.Username)
	return user, nil
}

// GetUser возвращает публичный профиль пользователя
func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Phone = ""
	user.LastSeen = nil
	return user, nil
}

// UpdateProfile меняет только переданные поля; пустой пароль игнорируется
func (s *Service) UpdateProfile(ctx context.Context, actor auth.Identity, in ProfileInput) (*models.User, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}

	var upd models.ProfileUpdate
	var email, phone string
	if in.Email != nil {
		email = strings.TrimSpace(*in.Email)
		upd.Email = &email
	}
	if in.Phone != nil {
		phone = strings.TrimSpace(*in.Phone)
		if err := validatePhone(phone); err != nil {
			return nil, err
		}
		upd.Phone = &phone
	}
	if in.DisplayName != nil {
		name := strings.TrimSpace(*in.DisplayName)
		upd.DisplayName = &name
	}

	if email != "" || phone != "" {
		field, err := s.store.FindUserConflict(ctx, "", email, phone, actor.UserID)
		if err != nil {
			return nil, err
		}
		if field != "" {
			return nil, fmt.Errorf("%w: %s already taken", repository.ErrAlreadyExists, field)
		}
	}

	if in.Password != nil && *in.Password != "" {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		upd.PasswordHash = &hash
	}

	if err := s.store.UpdateProfile(ctx, actor.UserID, upd); err != nil {
		return nil, err
	}
	return s.Me(ctx, actor)
}

// TouchLastSeen отмечает активность пользователя; ошибка только логируется
func (s *Service) TouchLastSeen(ctx context.Context, actor auth.Identity) {
	if actor.Anonymous() {
		return
	}
	if err := s.store.TouchLastSeen(ctx, actor.UserID, s.now()); err != nil {
		s.logger.Warn("TouchLastSeen: не удалось обновить last_seen", zap.Error(err), zap.String("user_id", actor.UserID))
	}
}

// CreateAdmin создает учетную запись администратора. Если она уже есть, возвращает created=false.
func (s *Service) CreateAdmin(ctx context.Context, password string) (*models.User, bool, error) {
	creds, err := s.store.GetCredentials(ctx, s.opts.AdminUsername)
	if err == nil {
		creds.User.IsAdmin = true
		return &creds.User, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	user, err := s.createUser(ctx, RegisterInput{Username: s.opts.AdminUsername, Password: password})
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *Service) isAdmin(username string) bool {
	return s.opts.AdminUsername != "" && username == s.opts.AdminUsername
}
