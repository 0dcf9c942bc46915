package workorders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/queenscorner/queenscorner-erp/internal/commerce/deals"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/shared"
)

// DealSource loads the deal a work order derives from.
type DealSource interface {
	Get(ctx context.Context, id int64) (*deals.Deal, error)
}

type Service struct {
	repo     Repository
	deals    DealSource
	codes    shared.CodeGenerator
	clock    shared.Clock
	notifier shared.Notifier
	logger   *slog.Logger
}

func NewService(repo Repository, src DealSource, codes shared.CodeGenerator, clock shared.Clock, notifier shared.Notifier, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		deals:    src,
		codes:    codes,
		clock:    clock,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *Service) Derive(ctx context.Context, req DeriveWorkOrderRequest) (*WorkOrder, error) {
	deal, err := s.deals.Get(ctx, req.DealID)
	if err != nil {
		return nil, fmt.Errorf("load deal: %w", err)
	}

	order, err := Derive(*deal, DeriveInput{
		Description:  req.Description,
		StartDate:    req.StartDate,
		EstimatedEnd: req.EstimatedEnd,
		Details:      toLineItems(req.Details),
	}, s.clock.Now())
	if err != nil {
		return nil, err
	}

	code, err := s.codes.Next(ctx, shared.PrefixWorkOrder)
	if err != nil {
		return nil, fmt.Errorf("assign work order code: %w", err)
	}
	order.Code = code
	order.Version = 1

	id, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("create work order: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateWorkOrderRequest) (*WorkOrder, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Version != req.Version {
		return nil, shared.ErrVersionConflict
	}

	patch := Patch{
		Description:  req.Description,
		StartDate:    req.StartDate,
		EstimatedEnd: req.EstimatedEnd,
	}
	if req.Details != nil {
		details := toLineItems(*req.Details)
		patch.Details = &details
	}

	next, err := current.Apply(patch, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, next); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Transition(ctx context.Context, id int64, req TransitionWorkOrderRequest) (*WorkOrder, error) {
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
	s.notifier.OnStateReached(ctx, shared.DocWorkOrder, updated.ID, string(updated.Status))
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*WorkOrder, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListWorkOrdersRequest) ([]WorkOrder, int, error) {
	return s.repo.List(ctx, req)
}
