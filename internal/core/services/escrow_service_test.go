package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/shiftnurse/escrow_backend/internal/apperrors"
	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	portssvc "github.com/shiftnurse/escrow_backend/internal/core/ports/services"
	"github.com/shiftnurse/escrow_backend/internal/core/services"
	"github.com/shiftnurse/escrow_backend/internal/dto"
	"github.com/shiftnurse/escrow_backend/internal/utils/fees"
)

// --- Test Suite Setup ---

type EscrowServiceTestSuite struct {
	suite.Suite
	mockEscrowRepo  *MockEscrowRepository
	mockJobRepo     *MockJobRepository
	mockCurrencySvc *MockCurrencyService
	mockAuthz       *MockRoleAuthorizer
	mockGateway     *MockPaymentGateway
	mockAuditSvc    *MockAuditService
	service         portssvc.EscrowSvcFacade

	organizerID string
	nurseID     string
	adminID     string
	jobID       string
	jpy         domain.Currency
}

func (suite *EscrowServiceTestSuite) SetupTest() {
	suite.mockEscrowRepo = new(MockEscrowRepository)
	suite.mockJobRepo = new(MockJobRepository)
	suite.mockCurrencySvc = new(MockCurrencyService)
	suite.mockAuthz = new(MockRoleAuthorizer)
	suite.mockGateway = new(MockPaymentGateway)
	suite.mockAuditSvc = new(MockAuditService)
	suite.service = services.NewEscrowService(
		suite.mockEscrowRepo,
		suite.mockJobRepo,
		suite.mockCurrencySvc,
		suite.mockAuthz,
		suite.mockGateway,
		suite.mockAuditSvc,
		fees.DefaultSchedule(),
	)

	suite.organizerID = uuid.NewString()
	suite.nurseID = uuid.NewString()
	suite.adminID = uuid.NewString()
	suite.jobID = uuid.NewString()
	suite.jpy = domain.Currency{CurrencyCode: "JPY", Symbol: "¥", Name: "Japanese Yen", Exponent: 0}
}

func (suite *EscrowServiceTestSuite) assignedJob() *domain.Job {
	nurseID := suite.nurseID
	return &domain.Job{
		JobID:       suite.jobID,
		OrganizerID: suite.organizerID,
		NurseID:     &nurseID,
		Title:       "Night shift, city marathon",
		EventDate:   time.Now().Add(48 * time.Hour),
		Status:      domain.JobAssigned,
	}
}

func (suite *EscrowServiceTestSuite) createRequest() dto.CreateEscrowRequest {
	return dto.CreateEscrowRequest{
		JobID:       suite.jobID,
		GrossAmount: decimal.NewFromInt(30000),
		Currency:    "JPY",
		Method:      domain.MethodCard,
	}
}

func (suite *EscrowServiceTestSuite) fundedEscrow() *domain.EscrowTransaction {
	return &domain.EscrowTransaction{
		EscrowID:     uuid.NewString(),
		JobID:        suite.jobID,
		OrganizerID:  suite.organizerID,
		NurseID:      suite.nurseID,
		GrossAmount:  decimal.NewFromInt(30000),
		PlatformFee:  decimal.NewFromInt(1500),
		ProcessorFee: decimal.Zero,
		NetAmount:    decimal.NewFromInt(28500),
		CurrencyCode: "JPY",
		Method:       domain.MethodCard,
		Status:       domain.EscrowFunded,
		ChargeRef:    "ch_123",
	}
}

func (suite *EscrowServiceTestSuite) expectAdmin(ctx context.Context, actorID string) {
	suite.mockAuthz.On("AuthorizeRole", ctx, actorID, domain.RoleAdmin).Return(nil).Once()
}

// --- CreateEscrow ---

func (suite *EscrowServiceTestSuite) TestCreateEscrow_ChargesAndReturnsFunded() {
	ctx := context.Background()
	req := suite.createRequest()

	suite.mockJobRepo.On("FindJobByID", ctx, suite.jobID).Return(suite.assignedJob(), nil).Once()
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "JPY").Return(&suite.jpy, nil).Once()
	suite.mockEscrowRepo.On("SaveEscrow", ctx, mock.AnythingOfType("domain.EscrowTransaction"), mock.AnythingOfType("domain.AuditLogEntry")).Return(nil).Once()
	suite.mockGateway.On("Charge", ctx, mock.AnythingOfType("string"), req.GrossAmount, "JPY", domain.MethodCard, suite.organizerID).
		Return(&portssvc.GatewayResult{Reference: "ch_new"}, nil).Once()
	suite.mockEscrowRepo.On("TransitionEscrowStatus", ctx, mock.AnythingOfType("string"), domain.EscrowPending, domain.EscrowFunded, "ch_new", "", suite.organizerID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("domain.AuditLogEntry")).
		Return(nil).Once()

	escrow, err := suite.service.CreateEscrow(ctx, req, suite.organizerID)

	suite.Require().NoError(err)
	suite.Require().NotNil(escrow)
	suite.NotEmpty(escrow.EscrowID)
	// Creation is synchronous with funding: the caller gets a FUNDED escrow
	// backed by a completed gateway charge.
	suite.Equal(domain.EscrowFunded, escrow.Status)
	suite.Equal("ch_new", escrow.ChargeRef)
	suite.Equal(suite.nurseID, escrow.NurseID)
	suite.True(escrow.PlatformFee.Equal(decimal.NewFromInt(1500)))
	suite.True(escrow.ProcessorFee.Equal(decimal.Zero))
	suite.True(escrow.NetAmount.Equal(decimal.NewFromInt(28500)))
	// The split always reassembles into gross.
	suite.True(escrow.PlatformFee.Add(escrow.ProcessorFee).Add(escrow.NetAmount).Equal(escrow.GrossAmount))

	suite.mockEscrowRepo.AssertExpectations(suite.T())
	suite.mockJobRepo.AssertExpectations(suite.T())
	suite.mockGateway.AssertExpectations(suite.T())
}

func (suite *EscrowServiceTestSuite) TestCreateEscrow_ChargeDeclinedLeavesPending() {
	ctx := context.Background()
	req := suite.createRequest()

	suite.mockJobRepo.On("FindJobByID", ctx, suite.jobID).Return(suite.assignedJob(), nil).Once()
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "JPY").Return(&suite.jpy, nil).Once()
	suite.mockEscrowRepo.On("SaveEscrow", ctx, mock.AnythingOfType("domain.EscrowTransaction"), mock.AnythingOfType("domain.AuditLogEntry")).Return(nil).Once()
	suite.mockGateway.On("Charge", ctx, mock.AnythingOfType("string"), req.GrossAmount, "JPY", domain.MethodCard, suite.organizerID).
		Return(nil, apperrors.ErrGatewayDeclined).Once()

	escrow, err := suite.service.CreateEscrow(ctx, req, suite.organizerID)

	suite.Require().Error(err)
	suite.Nil(escrow)
	suite.ErrorIs(err, apperrors.ErrGatewayDeclined)
	// The persisted escrow stays PENDING for the resume path; no transition.
	suite.mockEscrowRepo.AssertNotCalled(suite.T(), "TransitionEscrowStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *EscrowServiceTestSuite) TestCreateEscrow_ResumesInterruptedFunding() {
	ctx := context.Background()
	req := suite.createRequest()
	pending := suite.fundedEscrow()
	pending.Status = domain.EscrowPending
	pending.ChargeRef = ""

	suite.mockJobRepo.On("FindJobByID", ctx, suite.jobID).Return(suite.assignedJob(), nil).Once()
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "JPY").Return(&suite.jpy, nil).Once()
	suite.mockEscrowRepo.On("SaveEscrow", ctx, mock.AnythingOfType("domain.EscrowTransaction"), mock.AnythingOfType("domain.AuditLogEntry")).Return(apperrors.ErrDuplicate).Once()
	suite.mockEscrowRepo.On("FindActiveEscrowByJobID", ctx, suite.jobID).Return(pending, nil).Once()
	// The original escrow's idempotency key is reused, so the gateway cannot
	// charge the organizer a second time.
	suite.mockGateway.On("Charge", ctx, "charge-"+pending.EscrowID, pending.GrossAmount, "JPY", domain.MethodCard, suite.organizerID).
		Return(&portssvc.GatewayResult{Reference: "ch_resumed"}, nil).Once()
	suite.mockEscrowRepo.On("TransitionEscrowStatus", ctx, pending.EscrowID, domain.EscrowPending, domain.EscrowFunded, "ch_resumed", "", suite.organizerID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("domain.AuditLogEntry")).
		Return(nil).Once()

	escrow, err := suite.service.CreateEscrow(ctx, req, suite.organizerID)

	suite.Require().NoError(err)
	suite.Equal(pending.EscrowID, escrow.EscrowID)
	suite.Equal(domain.EscrowFunded, escrow.Status)
	suite.Equal("ch_resumed", escrow.ChargeRef)
	suite.mockEscrowRepo.AssertExpectations(suite.T())
	suite.mockGateway.AssertExpectations(suite.T())
}

func (suite *EscrowServiceTestSuite) TestCreateEscrow_DuplicateFundedEscrow() {
	ctx := context.Background()
	req := suite.createRequest()

	suite.mockJobRepo.On("FindJobByID", ctx, suite.jobID).Return(suite.assignedJob(), nil).Once()
	suite.mockCurrencySvc.On("GetCurrencyByCode", ctx, "JPY").Return(&suite.jpy, nil).Once()
	suite.mockEscrowRepo.On("SaveEscrow", ctx, mock.AnythingOfType("domain.EscrowTransaction"), mock.AnythingOfType("domain.AuditLogEntry")).Return(apperrors.ErrDuplicate).Once()
	suite.mockEscrowRepo.On("FindActiveEscrowByJobID", ctx, suite.jobID).Return(suite.fundedEscrow(), nil).Once()

	escrow, err := suite.service.CreateEscrow(ctx, req, suite.organizerID)

	suite.Require().Error(err)
	suite.Nil(escrow)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
	// A live FUNDED escrow is not resumable; no charge is attempted.
	suite.mockGateway.AssertNotCalled(suite.T(), "Charge", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *EscrowServiceTestSuite) TestCreateEscrow_NotOrganizer() {
	ctx := context.Background()
	req := suite.createRequest()

	suite.mockJobRepo.On("FindJobByID", ctx, suite.jobID).Return(suite.assignedJob(), nil).Once()

	escrow, err := suite.service.CreateEscrow(ctx, req, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(escrow)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockEscrowRepo.AssertNotCalled(suite.T(), "SaveEscrow", mock.Anything, mock.Anything, mock.Anything)
	suite.mockGateway.AssertNotCalled(suite.T(), "Charge", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *EscrowServiceTestSuite) TestCreateEscrow_JobWithoutNurse() {
	ctx := context.Background()
	job := suite.assignedJob()
	job.NurseID = nil
	job.Status = domain.JobOpen

	suite.mockJobRepo.On("FindJobByID", ctx, suite.jobID).Return(job, nil).Once()

	escrow, err := suite.service.CreateEscrow(ctx, suite.createRequest(), suite.organizerID)

	suite.Require().Error(err)
	suite.Nil(escrow)
	suite.ErrorIs(err, services.ErrJobNotAssigned)
}

// --- ReleaseEscrow ---

func (suite *EscrowServiceTestSuite) TestReleaseEscrow_Success() {
	ctx := context.Background()
	escrow := suite.fundedEscrow()

	suite.expectAdmin(ctx, suite.adminID)
	suite.mockEscrowRepo.On("FindEscrowByID", ctx, escrow.EscrowID).Return(escrow, nil).Once()
	suite.mockEscrowRepo.On("TransitionEscrowStatus", ctx, escrow.EscrowID, domain.EscrowFunded, domain.EscrowReleased, "", "", suite.adminID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("domain.AuditLogEntry")).
		Return(nil).Once()

	released, err := suite.service.ReleaseEscrow(ctx, escrow.EscrowID, suite.adminID)

	suite.Require().NoError(err)
	suite.Equal(domain.EscrowReleased, released.Status)
	suite.Require().NotNil(released.ReleasedAt)
	suite.mockEscrowRepo.AssertExpectations(suite.T())
	suite.mockAuthz.AssertExpectations(suite.T())
}

func (suite *EscrowServiceTestSuite) TestReleaseEscrow_NonAdminForbidden() {
	ctx := context.Background()
	escrow := suite.fundedEscrow()

	suite.mockAuthz.On("AuthorizeRole", ctx, suite.organizerID, domain.RoleAdmin).Return(apperrors.ErrForbidden).Once()

	released, err := suite.service.ReleaseEscrow(ctx, escrow.EscrowID, suite.organizerID)

	suite.Require().Error(err)
	suite.Nil(released)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	// Nothing is read or mutated for an unauthorized actor.
	suite.mockEscrowRepo.AssertNotCalled(suite.T(), "FindEscrowByID", mock.Anything, mock.Anything)
	suite.mockEscrowRepo.AssertNotCalled(suite.T(), "TransitionEscrowStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *EscrowServiceTestSuite) TestReleaseEscrow_SystemActorSkipsRoleCheck() {
	ctx := context.Background()
	escrow := suite.fundedEscrow()

	suite.mockEscrowRepo.On("FindEscrowByID", ctx, escrow.EscrowID).Return(escrow, nil).Once()
	suite.mockEscrowRepo.On("TransitionEscrowStatus", ctx, escrow.EscrowID, domain.EscrowFunded, domain.EscrowReleased, "", "", domain.SystemActorID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("domain.AuditLogEntry")).
		Return(nil).Once()

	released, err := suite.service.ReleaseEscrow(ctx, escrow.EscrowID, domain.SystemActorID)

	suite.Require().NoError(err)
	suite.Equal(domain.EscrowReleased, released.Status)
	// The batch runner's system actor has no user row to authorize.
	suite.mockAuthz.AssertNotCalled(suite.T(), "AuthorizeRole", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *EscrowServiceTestSuite) TestReleaseEscrow_LostRace() {
	ctx := context.Background()
	escrow := suite.fundedEscrow()

	suite.expectAdmin(ctx, suite.adminID)
	suite.mockEscrowRepo.On("FindEscrowByID", ctx, escrow.EscrowID).Return(escrow, nil).Once()
	suite.mockEscrowRepo.On("TransitionEscrowStatus", ctx, escrow.EscrowID, domain.EscrowFunded, domain.EscrowReleased, "", "", suite.adminID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("domain.AuditLogEntry")).
		Return(apperrors.ErrConflict).Once()

	released, err := suite.service.ReleaseEscrow(ctx, escrow.EscrowID, suite.adminID)

	suite.Require().Error(err)
	suite.Nil(released)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *EscrowServiceTestSuite) TestReleaseEscrow_NotFunded() {
	ctx := context.Background()
	escrow := suite.fundedEscrow()
	escrow.Status = domain.EscrowPending

	suite.expectAdmin(ctx, suite.adminID)
	suite.mockEscrowRepo.On("FindEscrowByID", ctx, escrow.EscrowID).Return(escrow, nil).Once()

	released, err := suite.service.ReleaseEscrow(ctx, escrow.EscrowID, suite.adminID)

	suite.Require().Error(err)
	suite.Nil(released)
	suite.ErrorIs(err, services.ErrEscrowNotFunded)
}

// --- RefundEscrow ---

func (suite *EscrowServiceTestSuite) TestRefundEscrow_Success() {
	ctx := context.Background()
	escrow := suite.fundedEscrow()
	reason := "event cancelled by organizer"

	suite.expectAdmin(ctx, suite.adminID)
	suite.mockEscrowRepo.On("FindEscrowByID", ctx, escrow.EscrowID).Return(escrow, nil).Once()
	suite.mockEscrowRepo.On("TransitionEscrowStatus", ctx, escrow.EscrowID, domain.EscrowFunded, domain.EscrowRefunded, "", reason, suite.adminID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("domain.AuditLogEntry")).
		Return(nil).Once()
	// Card has no fixed processor fee, so the full gross is refundable.
	suite.mockGateway.On("Refund", ctx, "refund-"+escrow.EscrowID, "ch_123", escrow.GrossAmount, "JPY").
		Return(&portssvc.GatewayResult{Reference: "re_1"}, nil).Once()

	refunded, err := suite.service.RefundEscrow(ctx, escrow.EscrowID, reason, suite.adminID)

	suite.Require().NoError(err)
	suite.Equal(domain.EscrowRefunded, refunded.Status)
	suite.Equal(reason, refunded.RefundReason)
	suite.Require().NotNil(refunded.RefundedAt)
	suite.mockGateway.AssertExpectations(suite.T())
}

func (suite *EscrowServiceTestSuite) TestRefundEscrow_NonAdminForbidden() {
	ctx := context.Background()
	escrow := suite.fundedEscrow()
	arbitraryUser := uuid.NewString()

	suite.mockAuthz.On("AuthorizeRole", ctx, arbitraryUser, domain.RoleAdmin).Return(apperrors.ErrForbidden).Once()

	refunded, err := suite.service.RefundEscrow(ctx, escrow.EscrowID, "not mine to refund", arbitraryUser)

	suite.Require().Error(err)
	suite.Nil(refunded)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockEscrowRepo.AssertNotCalled(suite.T(), "TransitionEscrowStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockGateway.AssertNotCalled(suite.T(), "Refund", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *EscrowServiceTestSuite) TestRefundEscrow_BankTransferKeepsFixedFee() {
	ctx := context.Background()
	escrow := suite.fundedEscrow()
	escrow.Method = domain.MethodBankTransfer
	reason := "nurse unavailable"
	expectedRefund := escrow.GrossAmount.Sub(decimal.NewFromInt(250))

	suite.expectAdmin(ctx, suite.adminID)
	suite.mockEscrowRepo.On("FindEscrowByID", ctx, escrow.EscrowID).Return(escrow, nil).Once()
	suite.mockEscrowRepo.On("TransitionEscrowStatus", ctx, escrow.EscrowID, domain.EscrowFunded, domain.EscrowRefunded, "", reason, suite.adminID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("domain.AuditLogEntry")).
		Return(nil).Once()
	suite.mockGateway.On("Refund", ctx, "refund-"+escrow.EscrowID, "ch_123", expectedRefund, "JPY").
		Return(&portssvc.GatewayResult{Reference: "re_2"}, nil).Once()

	refunded, err := suite.service.RefundEscrow(ctx, escrow.EscrowID, reason, suite.adminID)

	suite.Require().NoError(err)
	suite.Equal(domain.EscrowRefunded, refunded.Status)
	suite.mockGateway.AssertExpectations(suite.T())
}

func (suite *EscrowServiceTestSuite) TestRefundEscrow_GatewayFailureKeepsRefundedState() {
	ctx := context.Background()
	escrow := suite.fundedEscrow()
	reason := "duplicate booking"

	suite.expectAdmin(ctx, suite.adminID)
	suite.mockEscrowRepo.On("FindEscrowByID", ctx, escrow.EscrowID).Return(escrow, nil).Once()
	suite.mockEscrowRepo.On("TransitionEscrowStatus", ctx, escrow.EscrowID, domain.EscrowFunded, domain.EscrowRefunded, "", reason, suite.adminID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("domain.AuditLogEntry")).
		Return(nil).Once()
	suite.mockGateway.On("Refund", ctx, "refund-"+escrow.EscrowID, "ch_123", escrow.GrossAmount, "JPY").
		Return(nil, apperrors.ErrGatewayUnavailable).Once()
	suite.mockAuditSvc.On("LogAction", ctx, suite.adminID, domain.ActionRefundGatewayFailed, "escrow:"+escrow.EscrowID, mock.Anything).Once()

	refunded, err := suite.service.RefundEscrow(ctx, escrow.EscrowID, reason, suite.adminID)

	// The state transition already committed; the gateway failure is audited
	// for reconciliation, not surfaced as an operation failure.
	suite.Require().NoError(err)
	suite.Equal(domain.EscrowRefunded, refunded.Status)
	suite.mockAuditSvc.AssertExpectations(suite.T())
}

func (suite *EscrowServiceTestSuite) TestRefundEscrow_AlreadyReleased() {
	ctx := context.Background()
	escrow := suite.fundedEscrow()
	escrow.Status = domain.EscrowReleased

	suite.expectAdmin(ctx, suite.adminID)
	suite.mockEscrowRepo.On("FindEscrowByID", ctx, escrow.EscrowID).Return(escrow, nil).Once()

	refunded, err := suite.service.RefundEscrow(ctx, escrow.EscrowID, "too late", suite.adminID)

	suite.Require().Error(err)
	suite.Nil(refunded)
	suite.ErrorIs(err, services.ErrEscrowNotFunded)
	suite.mockGateway.AssertNotCalled(suite.T(), "Refund", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- Reads ---

func (suite *EscrowServiceTestSuite) TestGetEscrowByID_NotFound() {
	ctx := context.Background()
	escrowID := uuid.NewString()

	suite.mockEscrowRepo.On("FindEscrowByID", ctx, escrowID).Return(nil, apperrors.ErrNotFound).Once()

	escrow, err := suite.service.GetEscrowByID(ctx, escrowID)

	suite.Require().Error(err)
	suite.Nil(escrow)
	suite.True(errors.Is(err, apperrors.ErrNotFound))
}

func (suite *EscrowServiceTestSuite) TestListEscrowsByJobID_EmptyIsNotNil() {
	ctx := context.Background()

	suite.mockEscrowRepo.On("FindEscrowsByJobID", ctx, suite.jobID).Return([]domain.EscrowTransaction(nil), nil).Once()

	escrows, err := suite.service.ListEscrowsByJobID(ctx, suite.jobID)

	suite.Require().NoError(err)
	suite.NotNil(escrows)
	suite.Empty(escrows)
}

func TestEscrowServiceTestSuite(t *testing.T) {
	suite.Run(t, new(EscrowServiceTestSuite))
}
