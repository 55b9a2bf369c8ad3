package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/shiftnurse/escrow_backend/internal/apperrors"
	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	portssvc "github.com/shiftnurse/escrow_backend/internal/core/ports/services"
	"github.com/shiftnurse/escrow_backend/internal/core/services"
	"github.com/shiftnurse/escrow_backend/internal/dto"
	"github.com/shiftnurse/escrow_backend/internal/utils"
)

// --- Test Suite Setup ---

type UserServiceTestSuite struct {
	suite.Suite
	mockUserRepo *MockUserRepository
	mockAuditSvc *MockAuditService
	service      portssvc.UserSvcFacade
}

func (suite *UserServiceTestSuite) SetupTest() {
	suite.mockUserRepo = new(MockUserRepository)
	suite.mockAuditSvc = new(MockAuditService)
	suite.service = services.NewUserService(suite.mockUserRepo, suite.mockAuditSvc)
}

func (suite *UserServiceTestSuite) activeUser(password string) *domain.User {
	hash, err := utils.HashPassword(password)
	suite.Require().NoError(err)
	return &domain.User{
		UserID:       uuid.NewString(),
		Name:         "Aiko Tanaka",
		Email:        "aiko@example.com",
		PasswordHash: hash,
		Role:         domain.RoleOrganizer,
		IsActive:     true,
	}
}

// --- AuthenticateUser ---

func (suite *UserServiceTestSuite) TestAuthenticateUser_Success() {
	ctx := context.Background()
	user := suite.activeUser("correct-horse")

	suite.mockUserRepo.On("FindUserByEmail", ctx, user.Email).Return(user, nil).Once()
	suite.mockAuditSvc.On("LogAction", ctx, user.UserID, domain.ActionAuthLoginSucceeded, "user:"+user.UserID, mock.Anything).Once()

	got, err := suite.service.AuthenticateUser(ctx, user.Email, "correct-horse")

	suite.Require().NoError(err)
	suite.Equal(user.UserID, got.UserID)
	suite.mockAuditSvc.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestAuthenticateUser_WrongPasswordIsAudited() {
	ctx := context.Background()
	user := suite.activeUser("correct-horse")

	suite.mockUserRepo.On("FindUserByEmail", ctx, user.Email).Return(user, nil).Once()
	suite.mockAuditSvc.On("LogAction", ctx, user.UserID, domain.ActionAuthLoginFailed, "user:"+user.UserID, mock.Anything).Once()
	suite.mockAuditSvc.On("DetectSuspiciousActivity", ctx, user.UserID, []domain.AuditAction{domain.ActionAuthLoginFailed}, 15*time.Minute, int64(5)).
		Return(false, nil).Once()

	got, err := suite.service.AuthenticateUser(ctx, user.Email, "wrong-password")

	suite.Require().Error(err)
	suite.Nil(got)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
	suite.ErrorIs(err, services.ErrInvalidCredentials)
	suite.mockAuditSvc.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestAuthenticateUser_UnknownEmail() {
	ctx := context.Background()

	suite.mockUserRepo.On("FindUserByEmail", ctx, "nobody@example.com").Return(nil, apperrors.ErrNotFound).Once()

	got, err := suite.service.AuthenticateUser(ctx, "nobody@example.com", "whatever")

	suite.Require().Error(err)
	suite.Nil(got)
	// Same error as a bad password, so callers cannot probe for accounts.
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
	suite.ErrorIs(err, services.ErrInvalidCredentials)
	suite.mockAuditSvc.AssertNotCalled(suite.T(), "LogAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *UserServiceTestSuite) TestAuthenticateUser_InactiveUser() {
	ctx := context.Background()
	user := suite.activeUser("correct-horse")
	user.IsActive = false

	suite.mockUserRepo.On("FindUserByEmail", ctx, user.Email).Return(user, nil).Once()

	got, err := suite.service.AuthenticateUser(ctx, user.Email, "correct-horse")

	suite.Require().Error(err)
	suite.Nil(got)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.ErrorIs(err, services.ErrUserInactive)
}

// --- CreateUser ---

func (suite *UserServiceTestSuite) TestCreateUser_Success() {
	ctx := context.Background()
	req := dto.CreateUserRequest{
		Name:     "Aiko Tanaka",
		Email:    "aiko@example.com",
		Password: "correct-horse",
		Role:     domain.RoleNurse,
	}

	suite.mockUserRepo.On("SaveUser", ctx, mock.MatchedBy(func(u domain.User) bool {
		return u.Email == req.Email &&
			u.Role == domain.RoleNurse &&
			u.IsActive &&
			u.PasswordHash != "" &&
			u.PasswordHash != req.Password &&
			u.CreatedBy == u.UserID
	})).Return(nil).Once()

	user, err := suite.service.CreateUser(ctx, req)

	suite.Require().NoError(err)
	suite.True(utils.CheckPasswordHash("correct-horse", user.PasswordHash))
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestCreateUser_DuplicateEmail() {
	ctx := context.Background()
	req := dto.CreateUserRequest{Name: "Aiko", Email: "aiko@example.com", Password: "pw", Role: domain.RoleNurse}

	suite.mockUserRepo.On("SaveUser", ctx, mock.Anything).Return(apperrors.ErrDuplicate).Once()

	user, err := suite.service.CreateUser(ctx, req)

	suite.Require().Error(err)
	suite.Nil(user)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

// --- AuthorizeRole ---

func (suite *UserServiceTestSuite) TestAuthorizeRole_AllowsMatchingRole() {
	ctx := context.Background()
	user := suite.activeUser("pw")
	user.Role = domain.RoleAdmin

	suite.mockUserRepo.On("FindUserByID", ctx, user.UserID).Return(user, nil).Once()

	suite.Require().NoError(suite.service.AuthorizeRole(ctx, user.UserID, domain.RoleAdmin))
}

func (suite *UserServiceTestSuite) TestAuthorizeRole_RejectsOtherRole() {
	ctx := context.Background()
	user := suite.activeUser("pw")

	suite.mockUserRepo.On("FindUserByID", ctx, user.UserID).Return(user, nil).Once()

	err := suite.service.AuthorizeRole(ctx, user.UserID, domain.RoleAdmin)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

// --- UpdateUser ---

func (suite *UserServiceTestSuite) TestUpdateUser_OnlySelf() {
	ctx := context.Background()

	user, err := suite.service.UpdateUser(ctx, uuid.NewString(), dto.UpdateUserRequest{}, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(user)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "UpdateUser", mock.Anything, mock.Anything)
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
