package services_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	portsrepo "github.com/shiftnurse/escrow_backend/internal/core/ports/repositories"
	portssvc "github.com/shiftnurse/escrow_backend/internal/core/ports/services"
	"github.com/shiftnurse/escrow_backend/internal/dto"
)

// --- Mock EscrowRepository ---

type MockEscrowRepository struct {
	mock.Mock
}

var _ portsrepo.EscrowRepositoryFacade = (*MockEscrowRepository)(nil)

func (m *MockEscrowRepository) FindEscrowByID(ctx context.Context, escrowID string) (*domain.EscrowTransaction, error) {
	args := m.Called(ctx, escrowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EscrowTransaction), args.Error(1)
}

func (m *MockEscrowRepository) FindActiveEscrowByJobID(ctx context.Context, jobID string) (*domain.EscrowTransaction, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EscrowTransaction), args.Error(1)
}

func (m *MockEscrowRepository) FindEscrowsByJobID(ctx context.Context, jobID string) ([]domain.EscrowTransaction, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EscrowTransaction), args.Error(1)
}

func (m *MockEscrowRepository) SaveEscrow(ctx context.Context, escrow domain.EscrowTransaction, auditEntry domain.AuditLogEntry) error {
	args := m.Called(ctx, escrow, auditEntry)
	return args.Error(0)
}

func (m *MockEscrowRepository) TransitionEscrowStatus(ctx context.Context, escrowID string, expected, next domain.EscrowStatus, chargeRef, refundReason string, actorID string, at time.Time, auditEntry domain.AuditLogEntry) error {
	args := m.Called(ctx, escrowID, expected, next, chargeRef, refundReason, actorID, at, auditEntry)
	return args.Error(0)
}

// --- Mock PaymentRepository ---

type MockPaymentRepository struct {
	mock.Mock
}

var _ portsrepo.PaymentRepositoryFacade = (*MockPaymentRepository)(nil)

func (m *MockPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.PaymentRecord, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRepository) FindPaymentsByEscrowID(ctx context.Context, escrowID string) ([]domain.PaymentRecord, error) {
	args := m.Called(ctx, escrowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PaymentRecord), args.Error(1)
}

func (m *MockPaymentRepository) ListPayments(ctx context.Context, filters portsrepo.PaymentListFilters, limit int, nextToken *string) ([]domain.PaymentRecord, *string, error) {
	args := m.Called(ctx, filters, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedToken = &tokenVal
	}
	return args.Get(0).([]domain.PaymentRecord), returnedToken, args.Error(2)
}

func (m *MockPaymentRepository) SavePayment(ctx context.Context, payment domain.PaymentRecord) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) UpdatePaymentOutcome(ctx context.Context, paymentID string, expected, next domain.PaymentStatus, gatewayRef, failureReason string, executedAt *time.Time, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, paymentID, expected, next, gatewayRef, failureReason, executedAt, updatedBy, updatedAt)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetPayoutSummary(ctx context.Context, from, to time.Time) (*portsrepo.PayoutSummary, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portsrepo.PayoutSummary), args.Error(1)
}

// --- Mock JobRepository ---

type MockJobRepository struct {
	mock.Mock
}

var _ portsrepo.JobRepositoryFacade = (*MockJobRepository)(nil)

func (m *MockJobRepository) FindJobByID(ctx context.Context, jobID string) (*domain.Job, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}

func (m *MockJobRepository) ListJobsByOrganizer(ctx context.Context, organizerID string, limit int, offset int) ([]domain.Job, error) {
	args := m.Called(ctx, organizerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Job), args.Error(1)
}

func (m *MockJobRepository) ListJobsEligibleForPayout(ctx context.Context, cutoff time.Time) ([]domain.Job, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Job), args.Error(1)
}

func (m *MockJobRepository) SaveJob(ctx context.Context, job *domain.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobRepository) AssignNurse(ctx context.Context, jobID string, nurseID string, updatedBy string, at time.Time) error {
	args := m.Called(ctx, jobID, nurseID, updatedBy, at)
	return args.Error(0)
}

func (m *MockJobRepository) CompleteJob(ctx context.Context, jobID string, completedAt time.Time, updatedBy string) error {
	args := m.Called(ctx, jobID, completedAt, updatedBy)
	return args.Error(0)
}

func (m *MockJobRepository) UpdateJobStatus(ctx context.Context, jobID string, expected domain.JobStatus, next domain.JobStatus, updatedBy string, at time.Time) error {
	args := m.Called(ctx, jobID, expected, next, updatedBy, at)
	return args.Error(0)
}

func (m *MockJobRepository) SetDisputeOpen(ctx context.Context, jobID string, open bool, updatedBy string, at time.Time) error {
	args := m.Called(ctx, jobID, open, updatedBy, at)
	return args.Error(0)
}

// --- Mock AuditLogRepository ---

type MockAuditLogRepository struct {
	mock.Mock
}

var _ portsrepo.AuditLogRepository = (*MockAuditLogRepository)(nil)

func (m *MockAuditLogRepository) SaveAuditLog(ctx context.Context, entry domain.AuditLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditLogRepository) ListAuditLogs(ctx context.Context, filters portsrepo.AuditLogFilters) ([]domain.AuditLogEntry, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditLogEntry), args.Error(1)
}

func (m *MockAuditLogRepository) CountAuditLogsByActor(ctx context.Context, actorID string, actions []domain.AuditAction, since time.Time) (int64, error) {
	args := m.Called(ctx, actorID, actions, since)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock PaymentGateway ---

type MockPaymentGateway struct {
	mock.Mock
}

var _ portssvc.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) Charge(ctx context.Context, idempotencyKey string, amount decimal.Decimal, currencyCode string, method domain.PaymentMethod, payerID string) (*portssvc.GatewayResult, error) {
	args := m.Called(ctx, idempotencyKey, amount, currencyCode, method, payerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.GatewayResult), args.Error(1)
}

func (m *MockPaymentGateway) Payout(ctx context.Context, idempotencyKey string, amount decimal.Decimal, currencyCode string, method domain.PaymentMethod, payeeID string) (*portssvc.GatewayResult, error) {
	args := m.Called(ctx, idempotencyKey, amount, currencyCode, method, payeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.GatewayResult), args.Error(1)
}

func (m *MockPaymentGateway) Refund(ctx context.Context, idempotencyKey string, chargeRef string, amount decimal.Decimal, currencyCode string) (*portssvc.GatewayResult, error) {
	args := m.Called(ctx, idempotencyKey, chargeRef, amount, currencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.GatewayResult), args.Error(1)
}

// --- Mock AuditService ---

type MockAuditService struct {
	mock.Mock
}

var _ portssvc.AuditSvcFacade = (*MockAuditService)(nil)

func (m *MockAuditService) LogAction(ctx context.Context, actorID string, action domain.AuditAction, target string, metadata map[string]any) {
	m.Called(ctx, actorID, action, target, metadata)
}

func (m *MockAuditService) ListAuditLogs(ctx context.Context, filters portsrepo.AuditLogFilters) ([]domain.AuditLogEntry, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditLogEntry), args.Error(1)
}

func (m *MockAuditService) DetectSuspiciousActivity(ctx context.Context, actorID string, actions []domain.AuditAction, window time.Duration, threshold int64) (bool, error) {
	args := m.Called(ctx, actorID, actions, window, threshold)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuditService) ScanActorActivity(ctx context.Context, actorID string) ([]domain.ActivityCheck, error) {
	args := m.Called(ctx, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ActivityCheck), args.Error(1)
}

// --- Mock RoleAuthorizer ---

type MockRoleAuthorizer struct {
	mock.Mock
}

var _ portssvc.RoleAuthorizer = (*MockRoleAuthorizer)(nil)

func (m *MockRoleAuthorizer) AuthorizeRole(ctx context.Context, userID string, allowed ...domain.UserRole) error {
	callArgs := make([]interface{}, 0, len(allowed)+2)
	callArgs = append(callArgs, ctx, userID)
	for _, role := range allowed {
		callArgs = append(callArgs, role)
	}
	args := m.Called(callArgs...)
	return args.Error(0)
}

// --- Mock CurrencyService ---

type MockCurrencyService struct {
	mock.Mock
}

var _ portssvc.CurrencyReaderSvc = (*MockCurrencyService)(nil)

func (m *MockCurrencyService) GetCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error) {
	args := m.Called(ctx, currencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Currency), args.Error(1)
}

func (m *MockCurrencyService) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Currency), args.Error(1)
}

// --- Mock EscrowWriterSvc (as used by the batch runner) ---

type MockEscrowWriterService struct {
	mock.Mock
}

var _ portssvc.EscrowWriterSvc = (*MockEscrowWriterService)(nil)

func (m *MockEscrowWriterService) CreateEscrow(ctx context.Context, req dto.CreateEscrowRequest, creatorUserID string) (*domain.EscrowTransaction, error) {
	args := m.Called(ctx, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EscrowTransaction), args.Error(1)
}

func (m *MockEscrowWriterService) ReleaseEscrow(ctx context.Context, escrowID string, actorID string) (*domain.EscrowTransaction, error) {
	args := m.Called(ctx, escrowID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EscrowTransaction), args.Error(1)
}

func (m *MockEscrowWriterService) RefundEscrow(ctx context.Context, escrowID string, reason string, actorID string) (*domain.EscrowTransaction, error) {
	args := m.Called(ctx, escrowID, reason, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EscrowTransaction), args.Error(1)
}

// --- Mock PaymentWriterSvc (as used by the batch runner) ---

type MockPaymentWriterService struct {
	mock.Mock
}

var _ portssvc.PaymentWriterSvc = (*MockPaymentWriterService)(nil)

func (m *MockPaymentWriterService) ExecutePayment(ctx context.Context, escrowID string, actorID string) (*domain.PaymentRecord, error) {
	args := m.Called(ctx, escrowID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentRecord), args.Error(1)
}

// --- Mock Telemetry ---

type MockTelemetry struct {
	mock.Mock
}

var _ portssvc.Telemetry = (*MockTelemetry)(nil)

func (m *MockTelemetry) Enqueue(distinctID string, event string, properties map[string]any) {
	m.Called(distinctID, event, properties)
}

// --- Mock UserRepository ---

type MockUserRepository struct {
	mock.Mock
}

var _ portsrepo.UserRepositoryFacade = (*MockUserRepository)(nil)

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUsers(ctx context.Context, limit int, offset int) ([]domain.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) DeactivateUser(ctx context.Context, userID string, deactivatedAt time.Time, deactivatedBy string) error {
	args := m.Called(ctx, userID, deactivatedAt, deactivatedBy)
	return args.Error(0)
}
