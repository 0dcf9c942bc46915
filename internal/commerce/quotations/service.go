package quotations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/queenscorner/queenscorner-erp/internal/commerce/clients"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/shared"
	"github.com/queenscorner/queenscorner-erp/internal/platform/cache"
)

// ClientDirectory is the slice of the clients package the service needs to
// verify a quotation's client.
type ClientDirectory interface {
	Get(ctx context.Context, id int64) (*clients.Client, error)
}

type Service struct {
	repo     Repository
	clients  ClientDirectory
	codes    shared.CodeGenerator
	clock    shared.Clock
	notifier shared.Notifier
	renderer shared.Renderer
	logger   *slog.Logger
	lists    *cache.Versioned
}

func NewService(repo Repository, dir ClientDirectory, codes shared.CodeGenerator, clock shared.Clock, notifier shared.Notifier, renderer shared.Renderer, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		clients:  dir,
		codes:    codes,
		clock:    clock,
		notifier: notifier,
		renderer: renderer,
		logger:   logger,
	}
}

// UseListCache enables read-through caching of list results. Every mutation
// bumps the cache version.
func (s *Service) UseListCache(v *cache.Versioned) {
	s.lists = v
}

func (s *Service) bumpLists(ctx context.Context) {
	if s.lists == nil {
		return
	}
	if err := s.lists.Bump(ctx); err != nil {
		s.logger.Warn("bump quotation list cache", slog.Any("error", err))
	}
}

func (s *Service) Create(ctx context.Context, req CreateQuotationRequest) (*Quotation, error) {
	client, err := s.clients.Get(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			return nil, &shared.ValidationError{Field: "client_id", Reason: "client does not exist"}
		}
		return nil, fmt.Errorf("verify client: %w", err)
	}
	if !client.IsActive {
		return nil, &shared.ValidationError{Field: "client_id", Reason: "client is inactive"}
	}

	q, err := New(CreateInput{
		ClientID:    req.ClientID,
		Description: req.Description,
		ValidUntil:  req.ValidUntil,
		Notes:       req.Notes,
		Items:       toLineItems(req.Items),
	}, s.clock.Now())
	if err != nil {
		return nil, err
	}

	code, err := s.codes.Next(ctx, shared.PrefixQuotation)
	if err != nil {
		return nil, fmt.Errorf("assign quotation code: %w", err)
	}
	q.Code = code
	q.Version = 1

	id, err := s.repo.Create(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("create quotation: %w", err)
	}
	s.bumpLists(ctx)
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateQuotationRequest) (*Quotation, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Version != req.Version {
		return nil, shared.ErrVersionConflict
	}

	patch := Patch{
		Description: req.Description,
		ValidUntil:  req.ValidUntil,
		Notes:       req.Notes,
	}
	if req.Items != nil {
		items := toLineItems(*req.Items)
		patch.Items = &items
	}

	next, err := current.Apply(patch, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, next); err != nil {
		return nil, err
	}
	s.bumpLists(ctx)
	return s.repo.Get(ctx, id)
}

func (s *Service) Transition(ctx context.Context, id int64, req TransitionQuotationRequest) (*Quotation, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Version != req.Version {
		return nil, shared.ErrVersionConflict
	}

	target := Status(req.Status)
	next, err := current.TransitionTo(target, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if next.Status == current.Status {
		// Re-requesting the current state changes nothing.
		return current, nil
	}

	if err := s.repo.Update(ctx, next); err != nil {
		return nil, err
	}
	s.bumpLists(ctx)

	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.fireSideEffects(ctx, updated)
	return updated, nil
}

// fireSideEffects requests notification and rendering after a transition is
// durable. Failures are logged, never surfaced to the caller.
func (s *Service) fireSideEffects(ctx context.Context, q *Quotation) {
	switch q.Status {
	case StatusSent:
		s.notifier.OnStateReached(ctx, shared.DocQuotation, q.ID, string(q.Status))
	case StatusApproved:
		s.notifier.OnStateReached(ctx, shared.DocQuotation, q.ID, string(q.Status))
		if s.renderer != nil {
			handle, err := s.renderer.RequestDocument(ctx, shared.DocQuotation, q.ID)
			if err != nil {
				s.logger.Warn("quotation document request failed",
					slog.String("code", q.Code), slog.Any("error", err))
				return
			}
			s.logger.Info("quotation document requested",
				slog.String("code", q.Code), slog.String("handle", handle))
		}
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*Quotation, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	if s.lists == nil {
		return s.repo.List(ctx, req)
	}

	key, err := s.lists.Key(ctx, listCacheParts(req)...)
	if err != nil {
		s.logger.Warn("quotation list cache key", slog.Any("error", err))
		return s.repo.List(ctx, req)
	}

	var cached listPage
	err = s.lists.FetchJSON(ctx, key, &cached, func(ctx context.Context) (interface{}, error) {
		items, total, err := s.repo.List(ctx, req)
		if err != nil {
			return nil, err
		}
		return listPage{Items: items, Total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return cached.Items, cached.Total, nil
}

type listPage struct {
	Items []Quotation `json:"items"`
	Total int         `json:"total"`
}

func listCacheParts(req ListQuotationsRequest) []string {
	status := "all"
	if req.Status != nil {
		status = string(*req.Status)
	}
	client := "all"
	if req.ClientID != nil {
		client = strconv.FormatInt(*req.ClientID, 10)
	}
	return []string{"list", status, client, strconv.Itoa(req.Limit), strconv.Itoa(req.Offset)}
}
