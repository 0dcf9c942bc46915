package stats

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Overview is the operational snapshot served to administrators.
type Overview struct {
	Clients    ClientStats      `json:"clients"`
	Quotations map[string]int64 `json:"quotations"`
	Deals      map[string]int64 `json:"deals"`
	WorkOrders map[string]int64 `json:"work_orders"`
	Invoices   map[string]int64 `json:"invoices"`
	Billing    BillingStats     `json:"billing"`
}

type ClientStats struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

type BillingStats struct {
	InvoicedTotal float64 `json:"invoiced_total"`
	PaidTotal     float64 `json:"paid_total"`
	Outstanding   float64 `json:"outstanding"`
	PaymentsTotal float64 `json:"payments_total"`
}

// Repository exposes the aggregate queries the overview is built from.
type Repository interface {
	ClientCounts(ctx context.Context) (ClientStats, error)
	CountByStatus(ctx context.Context, table string) (map[string]int64, error)
	BillingTotals(ctx context.Context) (BillingStats, error)
}

// Service assembles the overview, fanning the aggregate queries out in
// parallel and caching the result until the next document change bumps the
// cache version.
type Service struct {
	repo  Repository
	cache *Cache
}

func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

func (s *Service) Overview(ctx context.Context) (Overview, error) {
	key, err := s.cache.BuildKey(ctx, "commerce", "stats", "overview")
	if err != nil {
		return Overview{}, err
	}

	var out Overview
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		return s.load(ctx)
	})
	return out, err
}

func (s *Service) load(ctx context.Context) (Overview, error) {
	var out Overview
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := s.repo.ClientCounts(ctx)
		if err != nil {
			return err
		}
		out.Clients = counts
		return nil
	})
	g.Go(func() error {
		counts, err := s.repo.CountByStatus(ctx, "quotations")
		if err != nil {
			return err
		}
		out.Quotations = counts
		return nil
	})
	g.Go(func() error {
		counts, err := s.repo.CountByStatus(ctx, "deals")
		if err != nil {
			return err
		}
		out.Deals = counts
		return nil
	})
	g.Go(func() error {
		counts, err := s.repo.CountByStatus(ctx, "work_orders")
		if err != nil {
			return err
		}
		out.WorkOrders = counts
		return nil
	})
	g.Go(func() error {
		counts, err := s.repo.CountByStatus(ctx, "invoices")
		if err != nil {
			return err
		}
		out.Invoices = counts
		return nil
	})
	g.Go(func() error {
		totals, err := s.repo.BillingTotals(ctx)
		if err != nil {
			return err
		}
		out.Billing = totals
		return nil
	})

	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return out, nil
}

// Invalidate bumps the cache version after a document change.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
