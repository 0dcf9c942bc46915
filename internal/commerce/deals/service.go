package deals

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/queenscorner/queenscorner-erp/internal/commerce/clients"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/quotations"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/shared"
)

// QuotationSource loads the quotation a deal derives from.
type QuotationSource interface {
	Get(ctx context.Context, id int64) (*quotations.Quotation, error)
}

// ClientDirectory resolves the client snapshot carried by the deal.
type ClientDirectory interface {
	Get(ctx context.Context, id int64) (*clients.Client, error)
}

type Service struct {
	repo       Repository
	quotations QuotationSource
	clients    ClientDirectory
	codes      shared.CodeGenerator
	clock      shared.Clock
	notifier   shared.Notifier
	logger     *slog.Logger
}

func NewService(repo Repository, src QuotationSource, dir ClientDirectory, codes shared.CodeGenerator, clock shared.Clock, notifier shared.Notifier, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		quotations: src,
		clients:    dir,
		codes:      codes,
		clock:      clock,
		notifier:   notifier,
		logger:     logger,
	}
}

func (s *Service) Derive(ctx context.Context, req DeriveDealRequest) (*Deal, error) {
	q, err := s.quotations.Get(ctx, req.QuotationID)
	if err != nil {
		return nil, fmt.Errorf("load quotation: %w", err)
	}

	client, err := s.clients.Get(ctx, q.ClientID)
	if err != nil {
		return nil, fmt.Errorf("load client: %w", err)
	}

	deal, err := Derive(*q, client.Name, DeriveInput{
		Description:    req.Description,
		StartDate:      req.StartDate,
		EstimatedEnd:   req.EstimatedEnd,
		AssignedBudget: req.AssignedBudget,
	}, s.clock.Now())
	if err != nil {
		return nil, err
	}

	code, err := s.codes.Next(ctx, shared.PrefixDeal)
	if err != nil {
		return nil, fmt.Errorf("assign deal code: %w", err)
	}
	deal.Code = code
	deal.Version = 1

	id, err := s.repo.Create(ctx, deal)
	if err != nil {
		return nil, fmt.Errorf("create deal: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateDealRequest) (*Deal, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Version != req.Version {
		return nil, shared.ErrVersionConflict
	}

	next, err := current.Apply(Patch{
		Description:    req.Description,
		StartDate:      req.StartDate,
		EstimatedEnd:   req.EstimatedEnd,
		AssignedBudget: req.AssignedBudget,
	}, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, next); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Transition(ctx context.Context, id int64, req TransitionDealRequest) (*Deal, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Version != req.Version {
		return nil, shared.ErrVersionConflict
	}

	next, err := current.TransitionTo(Status(req.Status), s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, next); err != nil {
		return nil, err
	}

	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifier.OnStateReached(ctx, shared.DocDeal, updated.ID, string(updated.Status))
	return updated, nil
}

// SetAdvance replaces the deal's advance with the given payment sum. Called by
// the payments service after a payment is registered or removed.
func (s *Service) SetAdvance(ctx context.Context, id int64, advance float64) (*Deal, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := current.WithAdvance(advance, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, next); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Deal, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListDealsRequest) ([]Deal, int, error) {
	return s.repo.List(ctx, req)
}
