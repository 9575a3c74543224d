package service

import (
	"context"
	"log/slog"
	"time"

	"binwahab-store/internal/model"
	"binwahab-store/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const lowStockThreshold = 5

type DashboardSummary struct {
	OrdersByStatus   map[model.OrderStatus]int64
	Revenue30Days    decimal.Decimal
	PendingReturns   int64
	LowStockProducts int64
	GeneratedAt      time.Time
	// Error is set when the figures could not be loaded; the counters are then zero.
	Error string
}

type DashboardService interface {
	Summary(ctx context.Context) *DashboardSummary
}

type dashboardServiceImpl struct {
	log         *slog.Logger
	orderRepo   repository.OrderRepository
	returnRepo  repository.ReturnRepository
	productRepo repository.ProductRepository
}

func NewDashboardService(
	log *slog.Logger,
	orderRepo repository.OrderRepository,
	returnRepo repository.ReturnRepository,
	productRepo repository.ProductRepository,
) DashboardService {
	return &dashboardServiceImpl{
		log:         log,
		orderRepo:   orderRepo,
		returnRepo:  returnRepo,
		productRepo: productRepo,
	}
}

func (s *dashboardServiceImpl) Summary(ctx context.Context) *DashboardSummary {
	now := time.Now()
	summary := &DashboardSummary{GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.orderRepo.CountByStatus(gctx)
		summary.OrdersByStatus = counts
		return err
	})
	g.Go(func() error {
		revenue, err := s.orderRepo.SumPaidRevenue(gctx, now.AddDate(0, 0, -30))
		summary.Revenue30Days = revenue
		return err
	})
	g.Go(func() error {
		pending, err := s.returnRepo.CountPending(gctx)
		summary.PendingReturns = pending
		return err
	})
	g.Go(func() error {
		low, err := s.productRepo.CountLowStock(gctx, lowStockThreshold)
		summary.LowStockProducts = low
		return err
	})

	if err := g.Wait(); err != nil {
		s.log.ErrorContext(ctx, "load dashboard", "error", err)
		return &DashboardSummary{
			OrdersByStatus: map[model.OrderStatus]int64{},
			Revenue30Days:  decimal.Zero,
			GeneratedAt:    now,
			Error:          "dashboard data is temporarily unavailable",
		}
	}
	return summary
}
