package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/internal/core/datamodel/movement"
	"golang.org/x/sync/errgroup"
)

// RepositoryAPI holds side-effect-free reads. Empty warehouseID means every
// warehouse; a nil window means no time restriction.
type RepositoryAPI interface {
	CountItems(ctx context.Context) (int64, error)
	CountWarehouses(ctx context.Context) (int64, error)
	CountSuppliers(ctx context.Context) (int64, error)
	StockRows(ctx context.Context, warehouseID string) ([]StockRow, error)
	EntryTotals(ctx context.Context, warehouseID string, window Window) (count int64, value float64, err error)
	CountTransfers(ctx context.Context, warehouseID, status string, window *Window) (int64, error)
	CountWithdrawals(ctx context.Context, warehouseID, status string, window *Window) (int64, error)

	RecentEntries(ctx context.Context, limit int) ([]*movement.ItemEntry, error)
	RecentTransfers(ctx context.Context, limit int) ([]*movement.Transfer, error)
	RecentWithdrawals(ctx context.Context, limit int) ([]*movement.Withdrawal, error)
	RecentAdjustments(ctx context.Context, limit int) ([]*movement.Adjustment, error)
}

type Config struct {
	RecentPerCategory int
	RecentLimit       int
}

type Service struct {
	repo   RepositoryAPI
	config Config
	now    internal.Clock
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, config Config, now internal.Clock, logger *slog.Logger) *Service {
	if config.RecentPerCategory <= 0 {
		config.RecentPerCategory = internal.DefaultRecentPerCategory
	}
	if config.RecentLimit <= 0 {
		config.RecentLimit = internal.DefaultRecentLimit
	}
	if now == nil {
		now = internal.SystemClock
	}
	return &Service{
		repo:   repo,
		config: config,
		now:    now,
		logger: logger,
	}
}

// Statistics issues every read in parallel. The first failure cancels the
// rest and the whole call fails.
func (s *Service) Statistics(ctx context.Context, filter Filter) (*Statistics, error) {
	now := s.now()
	window := windowFor(filter, now)
	stats := &Statistics{GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	count := func(name string, dst *int64, fn func(context.Context) (int64, error)) {
		g.Go(func() error {
			n, err := fn(gctx)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = n
			return nil
		})
	}

	count("count items", &stats.TotalItems, s.repo.CountItems)
	count("count warehouses", &stats.TotalWarehouses, s.repo.CountWarehouses)
	count("count suppliers", &stats.TotalSuppliers, s.repo.CountSuppliers)
	count("pending transfers", &stats.PendingTransfers, func(ctx context.Context) (int64, error) {
		return s.repo.CountTransfers(ctx, filter.WarehouseID, "PENDING", nil)
	})
	count("in-transit transfers", &stats.InTransitTransfers, func(ctx context.Context) (int64, error) {
		return s.repo.CountTransfers(ctx, filter.WarehouseID, "IN_TRANSIT", nil)
	})
	count("period transfers", &stats.ThisMonthTransfers, func(ctx context.Context) (int64, error) {
		return s.repo.CountTransfers(ctx, filter.WarehouseID, "", &window)
	})
	count("pending withdrawals", &stats.PendingWithdrawals, func(ctx context.Context) (int64, error) {
		return s.repo.CountWithdrawals(ctx, filter.WarehouseID, "PENDING", nil)
	})
	count("period withdrawals", &stats.ThisMonthWithdrawals, func(ctx context.Context) (int64, error) {
		return s.repo.CountWithdrawals(ctx, filter.WarehouseID, "", &window)
	})

	g.Go(func() error {
		n, value, err := s.repo.EntryTotals(gctx, filter.WarehouseID, window)
		if err != nil {
			return fmt.Errorf("entry totals: %w", err)
		}
		stats.ThisMonthEntries = n
		stats.ThisMonthValue = value
		return nil
	})

	g.Go(func() error {
		rows, err := s.repo.StockRows(gctx, filter.WarehouseID)
		if err != nil {
			return fmt.Errorf("stock rows: %w", err)
		}
		for _, row := range rows {
			stats.TotalStockQuantity += row.Quantity
			stats.TotalStockValue += row.Quantity * row.UnitPrice
		}
		stats.LowStockItems, stats.TrackedStockItems = CountLowStock(rows)
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("failed to compute statistics", "warehouse_id", filter.WarehouseID, "error", err)
		return nil, internal.NewFetchError("statistics", err)
	}
	return stats, nil
}

// RecentActivity merges the newest records of each movement category.
func (s *Service) RecentActivity(ctx context.Context) ([]Activity, error) {
	n := s.config.RecentPerCategory
	var entries, transfers, withdrawals, adjustments []Activity

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.repo.RecentEntries(gctx, n)
		if err != nil {
			return fmt.Errorf("recent entries: %w", err)
		}
		for _, row := range rows {
			entries = append(entries, EntryActivity(row))
		}
		return nil
	})
	g.Go(func() error {
		rows, err := s.repo.RecentTransfers(gctx, n)
		if err != nil {
			return fmt.Errorf("recent transfers: %w", err)
		}
		for _, row := range rows {
			transfers = append(transfers, TransferActivity(row))
		}
		return nil
	})
	g.Go(func() error {
		rows, err := s.repo.RecentWithdrawals(gctx, n)
		if err != nil {
			return fmt.Errorf("recent withdrawals: %w", err)
		}
		for _, row := range rows {
			withdrawals = append(withdrawals, WithdrawalActivity(row))
		}
		return nil
	})
	g.Go(func() error {
		rows, err := s.repo.RecentAdjustments(gctx, n)
		if err != nil {
			return fmt.Errorf("recent adjustments: %w", err)
		}
		for _, row := range rows {
			adjustments = append(adjustments, AdjustmentActivity(row))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load recent activity", "error", err)
		return nil, internal.NewFetchError("recent activity", err)
	}
	return MergeActivities(s.config.RecentLimit, entries, transfers, withdrawals, adjustments), nil
}

// LowStock lists balances at or below their item's reorder level.
func (s *Service) LowStock(ctx context.Context, warehouseID string) ([]StockRow, error) {
	rows, err := s.repo.StockRows(ctx, warehouseID)
	if err != nil {
		s.logger.Error("failed to load stock rows", "warehouse_id", warehouseID, "error", err)
		return nil, internal.NewFetchError("low stock report", err)
	}
	low := make([]StockRow, 0)
	for _, row := range rows {
		if row.IsLow() {
			low = append(low, row)
		}
	}
	return low, nil
}

// Dashboard runs the statistics and feed independently and reports each
// outcome on its own.
func (s *Service) Dashboard(ctx context.Context, filter Filter) Dashboard {
	var (
		stats       *Statistics
		statsErr    error
		activity    []Activity
		activityErr error
		g           errgroup.Group
	)
	g.Go(func() error {
		stats, statsErr = s.Statistics(ctx, filter)
		return nil
	})
	g.Go(func() error {
		activity, activityErr = s.RecentActivity(ctx)
		return nil
	})
	_ = g.Wait()

	return Dashboard{
		Statistics:     internal.ResultOf(stats, statsErr),
		RecentActivity: internal.ResultOf(activity, activityErr),
	}
}
