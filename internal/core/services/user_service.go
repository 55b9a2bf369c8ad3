package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shiftnurse/escrow_backend/internal/apperrors"
	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	portsrepo "github.com/shiftnurse/escrow_backend/internal/core/ports/repositories"
	portssvc "github.com/shiftnurse/escrow_backend/internal/core/ports/services"
	"github.com/shiftnurse/escrow_backend/internal/dto"
	"github.com/shiftnurse/escrow_backend/internal/middleware"
	"github.com/shiftnurse/escrow_backend/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is deactivated")
)

// failedLoginWindow and failedLoginThreshold drive the suspicious-activity
// scan after each failed login.
const (
	failedLoginWindow    = 15 * time.Minute
	failedLoginThreshold = int64(5)
)

// userService manages accounts, authentication and role checks.
type userService struct {
	userRepo portsrepo.UserRepositoryFacade
	auditSvc portssvc.AuditSvcFacade
}

// NewUserService creates a new user service.
func NewUserService(userRepo portsrepo.UserRepositoryFacade, auditSvc portssvc.AuditSvcFacade) portssvc.UserSvcFacade {
	return &userService{
		userRepo: userRepo,
		auditSvc: auditSvc,
	}
}

// Ensure userService implements the portssvc.UserSvcFacade interface
var _ portssvc.UserSvcFacade = (*userService)(nil)

// CreateUser creates a new user with a hashed password.
func (s *userService) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*domain.User, error) {
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := domain.User{
		UserID:       uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     "registration",
			LastUpdatedAt: now,
			LastUpdatedBy: "registration",
		},
	}
	user.CreatedBy = user.UserID
	user.LastUpdatedBy = user.UserID

	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	middleware.GetLoggerFromCtx(ctx).Info("User created", slog.String("user_id", user.UserID), slog.String("role", string(user.Role)))
	return &user, nil
}

// UpdateUser updates an existing user. Users may only update themselves.
func (s *userService) UpdateUser(ctx context.Context, userID string, req dto.UpdateUserRequest, requestingUserID string) (*domain.User, error) {
	if userID != requestingUserID {
		return nil, apperrors.ErrForbidden
	}

	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	user.LastUpdatedAt = time.Now()
	user.LastUpdatedBy = requestingUserID

	if err := s.userRepo.UpdateUser(ctx, *user); err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", userID, err)
	}
	return user, nil
}

// DeactivateUser marks a user as inactive.
func (s *userService) DeactivateUser(ctx context.Context, userID string, requestingUserID string) error {
	if userID != requestingUserID {
		if err := s.AuthorizeRole(ctx, requestingUserID, domain.RoleAdmin); err != nil {
			return err
		}
	}
	if err := s.userRepo.DeactivateUser(ctx, userID, time.Now(), requestingUserID); err != nil {
		return fmt.Errorf("failed to deactivate user %s: %w", userID, err)
	}
	return nil
}

// AuthenticateUser authenticates a user with email and password. Failed
// attempts are audited, and repeated failures trip the suspicious-activity
// scan.
func (s *userService) AuthenticateUser(ctx context.Context, email, password string) (*domain.User, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	user, err := s.userRepo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to load user by email: %w", err)
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		s.auditSvc.LogAction(ctx, user.UserID, domain.ActionAuthLoginFailed, userTarget(user.UserID), map[string]any{
			"email": email,
		})
		if suspicious, scanErr := s.auditSvc.DetectSuspiciousActivity(ctx, user.UserID, []domain.AuditAction{domain.ActionAuthLoginFailed}, failedLoginWindow, failedLoginThreshold); scanErr == nil && suspicious {
			logger.Warn("Repeated failed logins", slog.String("user_id", user.UserID))
		}
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, ErrInvalidCredentials)
	}

	if !user.IsActive {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrForbidden, ErrUserInactive)
	}

	s.auditSvc.LogAction(ctx, user.UserID, domain.ActionAuthLoginSucceeded, userTarget(user.UserID), nil)
	return user, nil
}

// AuthorizeRole verifies the user holds one of the allowed roles.
func (s *userService) AuthorizeRole(ctx context.Context, userID string, allowed ...domain.UserRole) error {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	if !user.IsActive {
		return fmt.Errorf("%w: %w", apperrors.ErrForbidden, ErrUserInactive)
	}
	for _, role := range allowed {
		if user.Role == role {
			return nil
		}
	}
	return apperrors.ErrForbidden
}

// GetUserByID retrieves a user by ID.
func (s *userService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return user, nil
}

// ListUsers retrieves a paginated list of users.
func (s *userService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	users, err := s.userRepo.FindUsers(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if users == nil {
		return []domain.User{}, nil
	}
	return users, nil
}

func userTarget(userID string) string {
	return "user:" + userID
}
