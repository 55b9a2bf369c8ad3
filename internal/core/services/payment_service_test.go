package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/shiftnurse/escrow_backend/internal/apperrors"
	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	portsrepo "github.com/shiftnurse/escrow_backend/internal/core/ports/repositories"
	portssvc "github.com/shiftnurse/escrow_backend/internal/core/ports/services"
	"github.com/shiftnurse/escrow_backend/internal/core/services"
)

// --- Test Suite Setup ---

type PaymentServiceTestSuite struct {
	suite.Suite
	mockPaymentRepo *MockPaymentRepository
	mockEscrowRepo  *MockEscrowRepository
	mockAuthz       *MockRoleAuthorizer
	mockGateway     *MockPaymentGateway
	mockAuditSvc    *MockAuditService
	service         portssvc.PaymentSvcFacade

	actorID string
	escrow  *domain.EscrowTransaction
}

func (suite *PaymentServiceTestSuite) SetupTest() {
	suite.mockPaymentRepo = new(MockPaymentRepository)
	suite.mockEscrowRepo = new(MockEscrowRepository)
	suite.mockAuthz = new(MockRoleAuthorizer)
	suite.mockGateway = new(MockPaymentGateway)
	suite.mockAuditSvc = new(MockAuditService)
	suite.service = services.NewPaymentService(
		suite.mockPaymentRepo,
		suite.mockEscrowRepo,
		suite.mockAuthz,
		suite.mockGateway,
		suite.mockAuditSvc,
	)

	suite.actorID = uuid.NewString()
	suite.escrow = &domain.EscrowTransaction{
		EscrowID:     uuid.NewString(),
		JobID:        uuid.NewString(),
		OrganizerID:  uuid.NewString(),
		NurseID:      uuid.NewString(),
		GrossAmount:  decimal.NewFromInt(30000),
		PlatformFee:  decimal.NewFromInt(1500),
		ProcessorFee: decimal.Zero,
		NetAmount:    decimal.NewFromInt(28500),
		CurrencyCode: "JPY",
		Method:       domain.MethodCard,
		Status:       domain.EscrowReleased,
	}
}

func (suite *PaymentServiceTestSuite) payoutKey() string {
	return "payout-" + suite.escrow.EscrowID
}

func (suite *PaymentServiceTestSuite) expectAdminActor(ctx context.Context) {
	suite.mockAuthz.On("AuthorizeRole", ctx, suite.actorID, domain.RoleAdmin).Return(nil).Once()
}

func (suite *PaymentServiceTestSuite) processingRecord() domain.PaymentRecord {
	return domain.PaymentRecord{
		PaymentID:    uuid.NewString(),
		EscrowID:     suite.escrow.EscrowID,
		JobID:        suite.escrow.JobID,
		NurseID:      suite.escrow.NurseID,
		Amount:       suite.escrow.NetAmount,
		CurrencyCode: "JPY",
		Method:       domain.MethodCard,
		Status:       domain.PaymentProcessing,
	}
}

// --- ExecutePayment ---

func (suite *PaymentServiceTestSuite) TestExecutePayment_FirstAttemptSucceeds() {
	ctx := context.Background()

	suite.expectAdminActor(ctx)
	suite.mockEscrowRepo.On("FindEscrowByID", ctx, suite.escrow.EscrowID).Return(suite.escrow, nil).Once()
	suite.mockPaymentRepo.On("FindPaymentsByEscrowID", ctx, suite.escrow.EscrowID).Return([]domain.PaymentRecord{}, nil).Once()
	suite.mockPaymentRepo.On("SavePayment", ctx, mock.AnythingOfType("domain.PaymentRecord")).Return(nil).Once()
	suite.mockGateway.On("Payout", ctx, suite.payoutKey(), suite.escrow.NetAmount, "JPY", domain.MethodCard, suite.escrow.NurseID).
		Return(&portssvc.GatewayResult{Reference: "po_1"}, nil).Once()
	suite.mockPaymentRepo.On("UpdatePaymentOutcome", ctx, mock.AnythingOfType("string"), domain.PaymentProcessing, domain.PaymentCompleted, "po_1", "", mock.Anything, suite.actorID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()
	suite.mockAuditSvc.On("LogAction", ctx, suite.actorID, domain.ActionPaymentExecuted, "escrow:"+suite.escrow.EscrowID, mock.Anything).Once()

	record, err := suite.service.ExecutePayment(ctx, suite.escrow.EscrowID, suite.actorID)

	suite.Require().NoError(err)
	suite.Require().NotNil(record)
	suite.Equal(domain.PaymentCompleted, record.Status)
	suite.Equal("po_1", record.GatewayRef)
	suite.Require().NotNil(record.ExecutedAt)
	suite.True(record.Amount.Equal(suite.escrow.NetAmount))

	suite.mockPaymentRepo.AssertExpectations(suite.T())
	suite.mockGateway.AssertExpectations(suite.T())
	suite.mockAuditSvc.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestExecutePayment_CompletedIsIdempotent() {
	ctx := context.Background()
	executedAt := time.Now().Add(-time.Hour)
	completed := suite.processingRecord()
	completed.Status = domain.PaymentCompleted
	completed.GatewayRef = "po_done"
	completed.ExecutedAt = &executedAt

	suite.expectAdminActor(ctx)
	suite.mockEscrowRepo.On("FindEscrowByID", ctx, suite.escrow.EscrowID).Return(suite.escrow, nil).Once()
	suite.mockPaymentRepo.On("FindPaymentsByEscrowID", ctx, suite.escrow.EscrowID).Return([]domain.PaymentRecord{completed}, nil).Once()

	record, err := suite.service.ExecutePayment(ctx, suite.escrow.EscrowID, suite.actorID)

	suite.Require().NoError(err)
	suite.Equal(completed.PaymentID, record.PaymentID)
	suite.Equal("po_done", record.GatewayRef)
	// No money moved: the gateway is never consulted.
	suite.mockGateway.AssertNotCalled(suite.T(), "Payout", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "SavePayment", mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestExecutePayment_ProcessingIsRedrivenWithSameKey() {
	ctx := context.Background()
	inFlight := suite.processingRecord()

	suite.expectAdminActor(ctx)
	suite.mockEscrowRepo.On("FindEscrowByID", ctx, suite.escrow.EscrowID).Return(suite.escrow, nil).Once()
	suite.mockPaymentRepo.On("FindPaymentsByEscrowID", ctx, suite.escrow.EscrowID).Return([]domain.PaymentRecord{inFlight}, nil).Once()
	suite.mockGateway.On("Payout", ctx, suite.payoutKey(), suite.escrow.NetAmount, "JPY", domain.MethodCard, suite.escrow.NurseID).
		Return(&portssvc.GatewayResult{Reference: "po_replay"}, nil).Once()
	suite.mockPaymentRepo.On("UpdatePaymentOutcome", ctx, inFlight.PaymentID, domain.PaymentProcessing, domain.PaymentCompleted, "po_replay", "", mock.Anything, suite.actorID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()
	suite.mockAuditSvc.On("LogAction", ctx, suite.actorID, domain.ActionPaymentExecuted, "escrow:"+suite.escrow.EscrowID, mock.Anything).Once()

	record, err := suite.service.ExecutePayment(ctx, suite.escrow.EscrowID, suite.actorID)

	suite.Require().NoError(err)
	suite.Equal(inFlight.PaymentID, record.PaymentID)
	suite.Equal(domain.PaymentCompleted, record.Status)
	// The stuck record is re-driven, not duplicated.
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "SavePayment", mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestExecutePayment_FailedGetsFreshRecord() {
	ctx := context.Background()
	failed := suite.processingRecord()
	failed.Status = domain.PaymentFailed
	failed.FailureReason = "account closed"

	suite.expectAdminActor(ctx)
	suite.mockEscrowRepo.On("FindEscrowByID", ctx, suite.escrow.EscrowID).Return(suite.escrow, nil).Once()
	suite.mockPaymentRepo.On("FindPaymentsByEscrowID", ctx, suite.escrow.EscrowID).Return([]domain.PaymentRecord{failed}, nil).Once()
	suite.mockPaymentRepo.On("SavePayment", ctx, mock.MatchedBy(func(p domain.PaymentRecord) bool {
		return p.PaymentID != failed.PaymentID && p.Status == domain.PaymentProcessing
	})).Return(nil).Once()
	suite.mockGateway.On("Payout", ctx, suite.payoutKey(), suite.escrow.NetAmount, "JPY", domain.MethodCard, suite.escrow.NurseID).
		Return(&portssvc.GatewayResult{Reference: "po_2"}, nil).Once()
	suite.mockPaymentRepo.On("UpdatePaymentOutcome", ctx, mock.AnythingOfType("string"), domain.PaymentProcessing, domain.PaymentCompleted, "po_2", "", mock.Anything, suite.actorID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()
	suite.mockAuditSvc.On("LogAction", ctx, suite.actorID, domain.ActionPaymentExecuted, "escrow:"+suite.escrow.EscrowID, mock.Anything).Once()

	record, err := suite.service.ExecutePayment(ctx, suite.escrow.EscrowID, suite.actorID)

	suite.Require().NoError(err)
	suite.NotEqual(failed.PaymentID, record.PaymentID)
	suite.Equal(domain.PaymentCompleted, record.Status)
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestExecutePayment_DeclinedMarksFailed() {
	ctx := context.Background()

	suite.expectAdminActor(ctx)
	suite.mockEscrowRepo.On("FindEscrowByID", ctx, suite.escrow.EscrowID).Return(suite.escrow, nil).Once()
	suite.mockPaymentRepo.On("FindPaymentsByEscrowID", ctx, suite.escrow.EscrowID).Return([]domain.PaymentRecord{}, nil).Once()
	suite.mockPaymentRepo.On("SavePayment", ctx, mock.AnythingOfType("domain.PaymentRecord")).Return(nil).Once()
	suite.mockGateway.On("Payout", ctx, suite.payoutKey(), suite.escrow.NetAmount, "JPY", domain.MethodCard, suite.escrow.NurseID).
		Return(nil, apperrors.ErrGatewayDeclined).Once()
	suite.mockPaymentRepo.On("UpdatePaymentOutcome", ctx, mock.AnythingOfType("string"), domain.PaymentProcessing, domain.PaymentFailed, "", mock.AnythingOfType("string"), (*time.Time)(nil), suite.actorID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()
	suite.mockAuditSvc.On("LogAction", ctx, suite.actorID, domain.ActionPaymentFailed, "escrow:"+suite.escrow.EscrowID, mock.Anything).Once()

	record, err := suite.service.ExecutePayment(ctx, suite.escrow.EscrowID, suite.actorID)

	suite.Require().Error(err)
	suite.Nil(record)
	suite.ErrorIs(err, apperrors.ErrGatewayDeclined)
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestExecutePayment_AmbiguousOutcomeStaysProcessing() {
	ctx := context.Background()

	suite.expectAdminActor(ctx)
	suite.mockEscrowRepo.On("FindEscrowByID", ctx, suite.escrow.EscrowID).Return(suite.escrow, nil).Once()
	suite.mockPaymentRepo.On("FindPaymentsByEscrowID", ctx, suite.escrow.EscrowID).Return([]domain.PaymentRecord{}, nil).Once()
	suite.mockPaymentRepo.On("SavePayment", ctx, mock.AnythingOfType("domain.PaymentRecord")).Return(nil).Once()
	suite.mockGateway.On("Payout", ctx, suite.payoutKey(), suite.escrow.NetAmount, "JPY", domain.MethodCard, suite.escrow.NurseID).
		Return(nil, apperrors.ErrGatewayUnavailable).Once()
	suite.mockAuditSvc.On("LogAction", ctx, suite.actorID, domain.ActionPaymentPending, "escrow:"+suite.escrow.EscrowID, mock.Anything).Once()

	record, err := suite.service.ExecutePayment(ctx, suite.escrow.EscrowID, suite.actorID)

	suite.Require().Error(err)
	suite.Nil(record)
	suite.ErrorIs(err, services.ErrPayoutPending)
	// The record is not settled either way; the next attempt retries.
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "UpdatePaymentOutcome",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestExecutePayment_NonAdminForbidden() {
	ctx := context.Background()
	otherUser := uuid.NewString()

	suite.mockAuthz.On("AuthorizeRole", ctx, otherUser, domain.RoleAdmin).Return(apperrors.ErrForbidden).Once()

	record, err := suite.service.ExecutePayment(ctx, suite.escrow.EscrowID, otherUser)

	suite.Require().Error(err)
	suite.Nil(record)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	// An unauthorized actor cannot reach the escrow, the records or the gateway.
	suite.mockEscrowRepo.AssertNotCalled(suite.T(), "FindEscrowByID", mock.Anything, mock.Anything)
	suite.mockGateway.AssertNotCalled(suite.T(), "Payout", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestExecutePayment_SystemActorSkipsRoleCheck() {
	ctx := context.Background()

	suite.mockEscrowRepo.On("FindEscrowByID", ctx, suite.escrow.EscrowID).Return(suite.escrow, nil).Once()
	suite.mockPaymentRepo.On("FindPaymentsByEscrowID", ctx, suite.escrow.EscrowID).Return([]domain.PaymentRecord{}, nil).Once()
	suite.mockPaymentRepo.On("SavePayment", ctx, mock.AnythingOfType("domain.PaymentRecord")).Return(nil).Once()
	suite.mockGateway.On("Payout", ctx, suite.payoutKey(), suite.escrow.NetAmount, "JPY", domain.MethodCard, suite.escrow.NurseID).
		Return(&portssvc.GatewayResult{Reference: "po_batch"}, nil).Once()
	suite.mockPaymentRepo.On("UpdatePaymentOutcome", ctx, mock.AnythingOfType("string"), domain.PaymentProcessing, domain.PaymentCompleted, "po_batch", "", mock.Anything, domain.SystemActorID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()
	suite.mockAuditSvc.On("LogAction", ctx, domain.SystemActorID, domain.ActionPaymentExecuted, "escrow:"+suite.escrow.EscrowID, mock.Anything).Once()

	record, err := suite.service.ExecutePayment(ctx, suite.escrow.EscrowID, domain.SystemActorID)

	suite.Require().NoError(err)
	suite.Equal(domain.PaymentCompleted, record.Status)
	// The batch runner's system actor has no user row to authorize.
	suite.mockAuthz.AssertNotCalled(suite.T(), "AuthorizeRole", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestExecutePayment_LostInsertRaceAdoptsCompletedWinner() {
	ctx := context.Background()
	executedAt := time.Now()
	winner := suite.processingRecord()
	winner.Status = domain.PaymentCompleted
	winner.GatewayRef = "po_winner"
	winner.ExecutedAt = &executedAt

	suite.expectAdminActor(ctx)
	suite.mockEscrowRepo.On("FindEscrowByID", ctx, suite.escrow.EscrowID).Return(suite.escrow, nil).Once()
	// Both concurrent callers see no attempts; the slower insert hits the
	// unique index and adopts the winner's settled record.
	suite.mockPaymentRepo.On("FindPaymentsByEscrowID", ctx, suite.escrow.EscrowID).Return([]domain.PaymentRecord{}, nil).Once()
	suite.mockPaymentRepo.On("SavePayment", ctx, mock.AnythingOfType("domain.PaymentRecord")).Return(apperrors.ErrDuplicate).Once()
	suite.mockPaymentRepo.On("FindPaymentsByEscrowID", ctx, suite.escrow.EscrowID).Return([]domain.PaymentRecord{winner}, nil).Once()

	record, err := suite.service.ExecutePayment(ctx, suite.escrow.EscrowID, suite.actorID)

	suite.Require().NoError(err)
	suite.Equal(winner.PaymentID, record.PaymentID)
	suite.Equal(domain.PaymentCompleted, record.Status)
	// No second payout: the gateway is never consulted by the loser.
	suite.mockGateway.AssertNotCalled(suite.T(), "Payout", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestExecutePayment_LostInsertRaceRedrivesInFlightWinner() {
	ctx := context.Background()
	winner := suite.processingRecord()

	suite.expectAdminActor(ctx)
	suite.mockEscrowRepo.On("FindEscrowByID", ctx, suite.escrow.EscrowID).Return(suite.escrow, nil).Once()
	suite.mockPaymentRepo.On("FindPaymentsByEscrowID", ctx, suite.escrow.EscrowID).Return([]domain.PaymentRecord{}, nil).Once()
	suite.mockPaymentRepo.On("SavePayment", ctx, mock.AnythingOfType("domain.PaymentRecord")).Return(apperrors.ErrDuplicate).Once()
	suite.mockPaymentRepo.On("FindPaymentsByEscrowID", ctx, suite.escrow.EscrowID).Return([]domain.PaymentRecord{winner}, nil).Once()
	// The winner's record is re-driven under the shared idempotency key, so
	// the gateway still moves money at most once.
	suite.mockGateway.On("Payout", ctx, suite.payoutKey(), suite.escrow.NetAmount, "JPY", domain.MethodCard, suite.escrow.NurseID).
		Return(&portssvc.GatewayResult{Reference: "po_shared"}, nil).Once()
	suite.mockPaymentRepo.On("UpdatePaymentOutcome", ctx, winner.PaymentID, domain.PaymentProcessing, domain.PaymentCompleted, "po_shared", "", mock.Anything, suite.actorID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()
	suite.mockAuditSvc.On("LogAction", ctx, suite.actorID, domain.ActionPaymentExecuted, "escrow:"+suite.escrow.EscrowID, mock.Anything).Once()

	record, err := suite.service.ExecutePayment(ctx, suite.escrow.EscrowID, suite.actorID)

	suite.Require().NoError(err)
	suite.Equal(winner.PaymentID, record.PaymentID)
	suite.Equal(domain.PaymentCompleted, record.Status)
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestExecutePayment_EscrowNotReleased() {
	ctx := context.Background()
	suite.escrow.Status = domain.EscrowFunded

	suite.expectAdminActor(ctx)
	suite.mockEscrowRepo.On("FindEscrowByID", ctx, suite.escrow.EscrowID).Return(suite.escrow, nil).Once()

	record, err := suite.service.ExecutePayment(ctx, suite.escrow.EscrowID, suite.actorID)

	suite.Require().Error(err)
	suite.Nil(record)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.ErrorIs(err, services.ErrEscrowNotReleased)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "FindPaymentsByEscrowID", mock.Anything, mock.Anything)
}

// --- ListPayments ---

func (suite *PaymentServiceTestSuite) TestListPayments_TokenRoundTrip() {
	ctx := context.Background()
	filters := portsrepo.PaymentListFilters{NurseID: suite.escrow.NurseID}
	page := []domain.PaymentRecord{suite.processingRecord()}

	suite.mockPaymentRepo.On("ListPayments", ctx, filters, 20, (*string)(nil)).Return(page, "next-page-token", nil).Once()

	payments, nextToken, err := suite.service.ListPayments(ctx, filters, 20, "")

	suite.Require().NoError(err)
	suite.Len(payments, 1)
	suite.Equal("next-page-token", nextToken)
}

func (suite *PaymentServiceTestSuite) TestListPayments_LastPageHasEmptyToken() {
	ctx := context.Background()
	filters := portsrepo.PaymentListFilters{}
	token := "prev-token"

	suite.mockPaymentRepo.On("ListPayments", ctx, filters, 20, &token).Return([]domain.PaymentRecord{}, nil, nil).Once()

	payments, nextToken, err := suite.service.ListPayments(ctx, filters, 20, token)

	suite.Require().NoError(err)
	suite.Empty(payments)
	suite.Empty(nextToken)
}

func TestPaymentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}
