package services

import (
	"context"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	"github.com/shiftnurse/escrow_backend/internal/dto"
)

// UserReaderSvc defines read operations for user data
type UserReaderSvc interface {
	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)

	// ListUsers retrieves a paginated list of users.
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error)
}

// UserWriterSvc defines write operations for user data
type UserWriterSvc interface {
	// CreateUser creates a new user with a hashed password.
	CreateUser(ctx context.Context, req dto.CreateUserRequest) (*domain.User, error)

	// UpdateUser updates an existing user.
	UpdateUser(ctx context.Context, userID string, req dto.UpdateUserRequest, requestingUserID string) (*domain.User, error)
}

// UserLifecycleSvc defines operations for managing user lifecycle
type UserLifecycleSvc interface {
	// DeactivateUser marks a user as inactive (soft delete).
	DeactivateUser(ctx context.Context, userID string, requestingUserID string) error
}

// RoleAuthorizer is the role-gating slice of the user service, consumed by
// services that must gate privileged operations on the acting user's role.
type RoleAuthorizer interface {
	// AuthorizeRole verifies the user holds one of the allowed roles.
	// Returns apperrors.ErrForbidden otherwise.
	AuthorizeRole(ctx context.Context, userID string, allowed ...domain.UserRole) error
}

// UserAuthSvc defines operations for user authentication
type UserAuthSvc interface {
	RoleAuthorizer

	// AuthenticateUser authenticates a user with email and password.
	AuthenticateUser(ctx context.Context, email, password string) (*domain.User, error)
}

// UserSvcFacade combines all user-related service interfaces
type UserSvcFacade interface {
	UserReaderSvc
	UserWriterSvc
	UserLifecycleSvc
	UserAuthSvc
}
