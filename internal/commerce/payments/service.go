package payments

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/queenscorner/queenscorner-erp/internal/commerce/deals"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/shared"
)

// DealLedger is the slice of the deals service used to keep a deal's advance
// in step with its registered payments.
type DealLedger interface {
	Get(ctx context.Context, id int64) (*deals.Deal, error)
	SetAdvance(ctx context.Context, id int64, advance float64) (*deals.Deal, error)
}

type Service struct {
	repo   Repository
	deals  DealLedger
	clock  shared.Clock
	logger *slog.Logger
}

func NewService(repo Repository, ledger DealLedger, clock shared.Clock, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		deals:  ledger,
		clock:  clock,
		logger: logger,
	}
}

// Register records a payment and mirrors the new payment sum onto the deal as
// its advance. The sum may never exceed the deal's quotation total.
func (s *Service) Register(ctx context.Context, req RegisterPaymentRequest) (*Payment, error) {
	deal, err := s.deals.Get(ctx, req.DealID)
	if err != nil {
		return nil, fmt.Errorf("load deal: %w", err)
	}
	if deal.Status == deals.StatusCancelled {
		return nil, &shared.InvalidStateError{Document: deal.Code, State: string(deal.Status), Operation: "register payment"}
	}

	current, err := s.repo.SumByDeal(ctx, req.DealID)
	if err != nil {
		return nil, fmt.Errorf("sum payments: %w", err)
	}
	if current+req.Amount > deal.QuotationTotal {
		return nil, &shared.ValidationError{Document: deal.Code, Field: "amount", Reason: "payments would exceed the quotation total"}
	}

	paidAt := s.clock.Now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	payment := Payment{
		DealID:    req.DealID,
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
		Notes:     req.Notes,
		PaidAt:    paidAt,
	}

	id, err := s.repo.Create(ctx, payment)
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	if _, err := s.deals.SetAdvance(ctx, req.DealID, current+req.Amount); err != nil {
		return nil, fmt.Errorf("update deal advance: %w", err)
	}

	s.logger.Info("payment registered",
		slog.String("deal", deal.Code),
		slog.Float64("amount", req.Amount),
		slog.Float64("advance", current+req.Amount))
	return s.repo.Get(ctx, id)
}

// Remove deletes a payment and recomputes the deal's advance from the
// remaining ones.
func (s *Service) Remove(ctx context.Context, id int64) error {
	payment, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	sum, err := s.repo.SumByDeal(ctx, payment.DealID)
	if err != nil {
		return fmt.Errorf("sum payments: %w", err)
	}
	if _, err := s.deals.SetAdvance(ctx, payment.DealID, sum); err != nil {
		return fmt.Errorf("update deal advance: %w", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Payment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListPaymentsRequest) ([]Payment, int, error) {
	return s.repo.List(ctx, req)
}
