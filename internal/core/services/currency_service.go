package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	portsrepo "github.com/shiftnurse/escrow_backend/internal/core/ports/repositories"
	portssvc "github.com/shiftnurse/escrow_backend/internal/core/ports/services"
	"github.com/shiftnurse/escrow_backend/internal/dto"
)

// currencyService manages the static currency table.
type currencyService struct {
	currencyRepo portsrepo.CurrencyRepositoryFacade
}

// NewCurrencyService creates a new currency service.
func NewCurrencyService(currencyRepo portsrepo.CurrencyRepositoryFacade) portssvc.CurrencySvcFacade {
	return &currencyService{currencyRepo: currencyRepo}
}

// Ensure currencyService implements the portssvc.CurrencySvcFacade interface
var _ portssvc.CurrencySvcFacade = (*currencyService)(nil)

// CreateCurrency persists a new currency.
func (s *currencyService) CreateCurrency(ctx context.Context, req dto.CreateCurrencyRequest, creatorUserID string) (*domain.Currency, error) {
	now := time.Now()
	currency := domain.Currency{
		CurrencyCode: req.CurrencyCode,
		Symbol:       req.Symbol,
		Name:         req.Name,
		Exponent:     req.Exponent,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.currencyRepo.SaveCurrency(ctx, currency); err != nil {
		return nil, fmt.Errorf("failed to create currency: %w", err)
	}
	return &currency, nil
}

// GetCurrencyByCode retrieves a specific currency by its code.
func (s *currencyService) GetCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error) {
	currency, err := s.currencyRepo.FindCurrencyByCode(ctx, currencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get currency %s: %w", currencyCode, err)
	}
	return currency, nil
}

// ListCurrencies retrieves all available currencies.
func (s *currencyService) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	currencies, err := s.currencyRepo.ListCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	if currencies == nil {
		return []domain.Currency{}, nil
	}
	return currencies, nil
}
