// Package users содержит вход операторов панели и управление их учётными записями.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-billing/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/password"
	"github.com/magabrotheeeer/subscription-billing/internal/models"
	"github.com/magabrotheeeer/subscription-billing/internal/permission"
)

// Repository описывает контракт для работы с операторами в базе данных.
type Repository interface {
	// CreateUser сохраняет оператора вместе с записью аудита.
	CreateUser(ctx context.Context, user models.User, audit models.AuditRecord) (*models.User, error)
	// GetUser возвращает оператора по ID.
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	// GetUserByUsername возвращает оператора по имени или ErrNotFound.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// DeleteUser удаляет оператора вместе с записью аудита.
	DeleteUser(ctx context.Context, id uuid.UUID, audit models.AuditRecord) error
}

// Service отвечает за вход и управление операторами.
type Service struct {
	repo     Repository
	jwtMaker jwt.Maker
	gate     *permission.Gate
	log      *slog.Logger
}

// NewUserService создает новый экземпляр Service.
func NewUserService(repo Repository, jwtMaker jwt.Maker, gate *permission.Gate, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		jwtMaker: jwtMaker,
		gate:     gate,
		log:      log,
	}
}

// Login проверяет пароль оператора и выпускает JWT.
func (s *Service) Login(ctx context.Context, username, rawPassword string) (string, *models.User, error) {
	const op = "users.Login"
	user, err := s.repo.GetUserByUsername(ctx, username)
	if errors.Is(err, models.ErrNotFound) {
		return "", nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}
	token, err := s.jwtMaker.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("operator logged in", slog.String("user_id", user.ID.String()), slog.String("role", string(user.Role)))
	return token, user, nil
}

// ActiveUser возвращает текущую учётную запись оператора из хранилища.
// Удалённый оператор даёт ErrNotFound, даже если его токен ещё действует.
func (s *Service) ActiveUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "users.ActiveUser"
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// CreateUser создаёт оператора. Сотрудников создают администраторы,
// администраторов только суперадминистратор.
func (s *Service) CreateUser(ctx context.Context, actor models.Actor, req models.NewUser) (*models.User, error) {
	const op = "users.CreateUser"
	if actor.IsSystem() || !s.gate.CanManage(actor.Role, req.Role) {
		return nil, fmt.Errorf("%s: %w: role %q cannot create %q", op, models.ErrUnauthorized, actor.Role, req.Role)
	}
	return s.create(ctx, actor, req)
}

// Bootstrap создаёт первого суперадминистратора от имени системы.
// Используется только из CLI при развёртывании.
func (s *Service) Bootstrap(ctx context.Context, req models.NewUser) (*models.User, error) {
	req.Role = models.RoleSuperAdmin
	return s.create(ctx, models.SystemActor, req)
}

func (s *Service) create(ctx context.Context, actor models.Actor, req models.NewUser) (*models.User, error) {
	const op = "users.create"
	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	audit := models.NewAuditRecord(actor, models.ActionUserCreated,
		fmt.Sprintf("Created %s account %s", req.Role, req.Username))
	audit.Metadata = map[string]any{"username": req.Username, "role": req.Role}

	user, err := s.repo.CreateUser(ctx, models.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
		Role:         req.Role,
	}, audit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("operator created", slog.String("user_id", user.ID.String()), slog.String("role", string(user.Role)))
	return user, nil
}

// DeleteUser удаляет оператора. Удалить самого себя нельзя.
func (s *Service) DeleteUser(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	const op = "users.DeleteUser"
	if actor.IsSystem() {
		return fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}
	if actor.ID != nil && *actor.ID == id {
		return fmt.Errorf("%s: %w: cannot delete own account", op, models.ErrInconsistentState)
	}
	target, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !s.gate.CanManage(actor.Role, target.Role) {
		return fmt.Errorf("%s: %w: role %q cannot delete %q", op, models.ErrUnauthorized, actor.Role, target.Role)
	}

	audit := models.NewAuditRecord(actor, models.ActionUserDeleted,
		fmt.Sprintf("Deleted %s account %s", target.Role, target.Username))
	audit.Metadata = map[string]any{"username": target.Username, "role": target.Role}
	if err := s.repo.DeleteUser(ctx, id, audit); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("operator deleted", slog.String("user_id", id.String()))
	return nil
}
