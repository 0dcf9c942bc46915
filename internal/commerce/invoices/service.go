package invoices

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/queenscorner/queenscorner-erp/internal/commerce/deals"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/quotations"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/shared"
)

// DealSource loads the deal an invoice is raised against.
type DealSource interface {
	Get(ctx context.Context, id int64) (*deals.Deal, error)
}

// QuotationSource loads the optional quotation whose items seed the invoice.
type QuotationSource interface {
	Get(ctx context.Context, id int64) (*quotations.Quotation, error)
}

type Service struct {
	repo       Repository
	deals      DealSource
	quotations QuotationSource
	codes      shared.CodeGenerator
	clock      shared.Clock
	notifier   shared.Notifier
	renderer   shared.Renderer
	logger     *slog.Logger
}

func NewService(repo Repository, dealSrc DealSource, quotSrc QuotationSource, codes shared.CodeGenerator, clock shared.Clock, notifier shared.Notifier, renderer shared.Renderer, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		deals:      dealSrc,
		quotations: quotSrc,
		codes:      codes,
		clock:      clock,
		notifier:   notifier,
		renderer:   renderer,
		logger:     logger,
	}
}

func (s *Service) Derive(ctx context.Context, req DeriveInvoiceRequest) (*Invoice, error) {
	deal, err := s.deals.Get(ctx, req.DealID)
	if err != nil {
		return nil, fmt.Errorf("load deal: %w", err)
	}

	var quotation *quotations.Quotation
	if req.QuotationID != nil {
		quotation, err = s.quotations.Get(ctx, *req.QuotationID)
		if err != nil {
			return nil, fmt.Errorf("load quotation: %w", err)
		}
		if quotation.ID != deal.QuotationID {
			return nil, &shared.ValidationError{Field: "quotation_id", Reason: "quotation does not belong to the deal"}
		}
	}

	inv, err := Derive(*deal, quotation, DeriveInput{
		DueDate:          req.DueDate,
		PaymentMethod:    req.PaymentMethod,
		PaymentReference: req.PaymentReference,
		Notes:            req.Notes,
		Lines:            toLines(req.Lines),
	}, s.clock.Now())
	if err != nil {
		return nil, err
	}

	code, err := s.codes.Next(ctx, shared.PrefixInvoice)
	if err != nil {
		return nil, fmt.Errorf("assign invoice number: %w", err)
	}
	inv.Code = code
	inv.Version = 1

	id, err := s.repo.Create(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateInvoiceRequest) (*Invoice, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Version != req.Version {
		return nil, shared.ErrVersionConflict
	}

	patch := Patch{
		DueDate:          req.DueDate,
		PaymentMethod:    req.PaymentMethod,
		PaymentReference: req.PaymentReference,
		Notes:            req.Notes,
	}
	if req.Lines != nil {
		lines := toLines(*req.Lines)
		patch.Lines = &lines
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

func (s *Service) Transition(ctx context.Context, id int64, req TransitionInvoiceRequest) (*Invoice, error) {
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
	s.fireSideEffects(ctx, updated)
	return updated, nil
}

// fireSideEffects requests client notification and rendering once a sent
// invoice is durable. Failures are logged, never surfaced.
func (s *Service) fireSideEffects(ctx context.Context, inv *Invoice) {
	if inv.Status != StatusSent {
		return
	}
	s.notifier.OnStateReached(ctx, shared.DocInvoice, inv.ID, string(inv.Status))
	if s.renderer == nil {
		return
	}
	handle, err := s.renderer.RequestDocument(ctx, shared.DocInvoice, inv.ID)
	if err != nil {
		s.logger.Warn("invoice document request failed",
			slog.String("code", inv.Code), slog.Any("error", err))
		return
	}
	s.logger.Info("invoice document requested",
		slog.String("code", inv.Code), slog.String("handle", handle))
}

func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	return s.repo.List(ctx, req)
}
