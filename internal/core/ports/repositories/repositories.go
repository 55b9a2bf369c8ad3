package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	EscrowRepo   EscrowRepositoryFacade
	PaymentRepo  PaymentRepositoryFacade
	AuditRepo    AuditLogRepository
	JobRepo      JobRepositoryFacade
	UserRepo     UserRepositoryFacade
	CurrencyRepo CurrencyRepositoryFacade
}
