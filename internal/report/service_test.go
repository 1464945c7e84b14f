package report_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/internal/core/datamodel/movement"
	"github.com/frahmantamala/warehouse-management/internal/report"
	"github.com/frahmantamala/warehouse-management/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type mockReportRepository struct {
	mu sync.Mutex

	items, warehouses, suppliers int64
	stockRows                    []report.StockRow
	entryCount                   int64
	entryValue                   float64
	entryWindow                  report.Window
	transfers                    map[string]int64
	withdrawals                  map[string]int64

	entries        []*movement.ItemEntry
	transferRows   []*movement.Transfer
	withdrawalRows []*movement.Withdrawal
	adjustments    []*movement.Adjustment
	recentLimit    int

	failStats    error
	failActivity error
}

func (m *mockReportRepository) CountItems(ctx context.Context) (int64, error) {
	return m.items, m.failStats
}

func (m *mockReportRepository) CountWarehouses(ctx context.Context) (int64, error) {
	return m.warehouses, nil
}

func (m *mockReportRepository) CountSuppliers(ctx context.Context) (int64, error) {
	return m.suppliers, nil
}

func (m *mockReportRepository) StockRows(ctx context.Context, warehouseID string) ([]report.StockRow, error) {
	return m.stockRows, m.failStats
}

func (m *mockReportRepository) EntryTotals(ctx context.Context, warehouseID string, window report.Window) (int64, float64, error) {
	m.mu.Lock()
	m.entryWindow = window
	m.mu.Unlock()
	return m.entryCount, m.entryValue, nil
}

func (m *mockReportRepository) CountTransfers(ctx context.Context, warehouseID, status string, window *report.Window) (int64, error) {
	if window != nil {
		return m.transfers["window"], nil
	}
	return m.transfers[status], nil
}

func (m *mockReportRepository) CountWithdrawals(ctx context.Context, warehouseID, status string, window *report.Window) (int64, error) {
	if window != nil {
		return m.withdrawals["window"], nil
	}
	return m.withdrawals[status], nil
}

func (m *mockReportRepository) RecentEntries(ctx context.Context, limit int) ([]*movement.ItemEntry, error) {
	m.mu.Lock()
	m.recentLimit = limit
	m.mu.Unlock()
	return m.entries, m.failActivity
}

func (m *mockReportRepository) RecentTransfers(ctx context.Context, limit int) ([]*movement.Transfer, error) {
	return m.transferRows, nil
}

func (m *mockReportRepository) RecentWithdrawals(ctx context.Context, limit int) ([]*movement.Withdrawal, error) {
	return m.withdrawalRows, nil
}

func (m *mockReportRepository) RecentAdjustments(ctx context.Context, limit int) ([]*movement.Adjustment, error) {
	return m.adjustments, nil
}

var _ = Describe("Report Service", func() {
	var (
		repo    *mockReportRepository
		service *report.Service
		now     time.Time
		ctx     context.Context
	)

	BeforeEach(func() {
		repo = &mockReportRepository{transfers: map[string]int64{}, withdrawals: map[string]int64{}}
		now = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
		service = report.NewService(repo, report.Config{RecentPerCategory: 3, RecentLimit: 4},
			func() time.Time { return now }, logger.Discard())
		ctx = context.Background()
	})

	Describe("Statistics", func() {
		It("should report zeros when nothing matches", func() {
			stats, err := service.Statistics(ctx, report.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.ThisMonthEntries).To(BeZero())
			Expect(stats.ThisMonthValue).To(BeZero())
			Expect(stats.InTransitTransfers).To(BeZero())
			Expect(stats.TotalStockValue).To(BeZero())
			Expect(stats.LowStockItems).To(BeZero())
			Expect(stats.GeneratedAt).To(Equal(now))
		})

		It("should combine every query into one record", func() {
			repo.items, repo.warehouses, repo.suppliers = 7, 2, 3
			repo.entryCount, repo.entryValue = 4, 125.5
			repo.transfers = map[string]int64{"PENDING": 1, "IN_TRANSIT": 2, "window": 5}
			repo.withdrawals = map[string]int64{"PENDING": 3, "window": 6}
			repo.stockRows = []report.StockRow{
				{Quantity: 2, UnitPrice: 10, ReorderLevel: ptr(5.0)},
				{Quantity: 8, UnitPrice: 1.5, ReorderLevel: ptr(5.0)},
				{Quantity: 0, UnitPrice: 3},
			}

			stats, err := service.Statistics(ctx, report.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalItems).To(Equal(int64(7)))
			Expect(stats.TotalWarehouses).To(Equal(int64(2)))
			Expect(stats.TotalSuppliers).To(Equal(int64(3)))
			Expect(stats.ThisMonthEntries).To(Equal(int64(4)))
			Expect(stats.ThisMonthValue).To(Equal(125.5))
			Expect(stats.PendingTransfers).To(Equal(int64(1)))
			Expect(stats.InTransitTransfers).To(Equal(int64(2)))
			Expect(stats.ThisMonthTransfers).To(Equal(int64(5)))
			Expect(stats.PendingWithdrawals).To(Equal(int64(3)))
			Expect(stats.ThisMonthWithdrawals).To(Equal(int64(6)))
			Expect(stats.TotalStockQuantity).To(Equal(10.0))
			Expect(stats.TotalStockValue).To(Equal(32.0))
			Expect(stats.LowStockItems).To(Equal(int64(1)))
			Expect(stats.TrackedStockItems).To(Equal(int64(2)))
		})

		It("should use the current month unless a range is given", func() {
			_, err := service.Statistics(ctx, report.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.entryWindow.From).To(Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
			Expect(repo.entryWindow.To).To(Equal(now))

			from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			_, err = service.Statistics(ctx, report.Filter{From: &from})
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.entryWindow.From).To(Equal(from))
			Expect(repo.entryWindow.To).To(Equal(now))
		})

		It("should fail as a whole with a generic message", func() {
			repo.failStats = errors.New("connection reset by peer")

			stats, err := service.Statistics(ctx, report.Filter{})
			Expect(stats).To(BeNil())
			Expect(internal.KindOf(err)).To(Equal(internal.ErrorTypeInternal))

			result := internal.Fail[report.Statistics](err)
			Expect(result.Error).To(Equal("failed to fetch statistics"))
			Expect(result.Error).NotTo(ContainSubstring("connection"))
		})
	})

	Describe("RecentActivity", func() {
		It("should merge categories newest first within the overall limit", func() {
			day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
			repo.entries = []*movement.ItemEntry{{ID: "e1", CreatedAt: day(1)}, {ID: "e5", CreatedAt: day(5)}}
			repo.transferRows = []*movement.Transfer{{ID: "t3", TransferNumber: "TRF-3", CreatedAt: day(3)}}
			repo.withdrawalRows = []*movement.Withdrawal{{ID: "w4", WithdrawalNumber: "WDR-4", CreatedAt: day(4)}}
			repo.adjustments = []*movement.Adjustment{{ID: "a2", AdjustmentNumber: "ADJ-2", CreatedAt: day(2)}}

			feed, err := service.RecentActivity(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.recentLimit).To(Equal(3))
			Expect(feed).To(HaveLen(4))
			ids := make([]string, len(feed))
			for i, a := range feed {
				ids[i] = a.ID
			}
			Expect(ids).To(Equal([]string{"e5", "w4", "t3", "a2"}))
		})

		It("should fail as a whole when one category fails", func() {
			repo.failActivity = errors.New("timeout")
			feed, err := service.RecentActivity(ctx)
			Expect(feed).To(BeNil())
			Expect(err.Error()).To(ContainSubstring("failed to fetch recent activity"))
		})
	})

	Describe("LowStock", func() {
		It("should keep only tracked rows at or below their reorder level", func() {
			repo.stockRows = []report.StockRow{
				{ItemID: "a", Quantity: 5, ReorderLevel: ptr(5.0)},
				{ItemID: "b", Quantity: 6, ReorderLevel: ptr(5.0)},
				{ItemID: "c", Quantity: 0},
			}
			rows, err := service.LowStock(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].ItemID).To(Equal("a"))
		})
	})

	Describe("Dashboard", func() {
		It("should still return the feed when statistics fail", func() {
			repo.failStats = errors.New("boom")
			repo.adjustments = []*movement.Adjustment{{ID: "a1", CreatedAt: now}}

			dashboard := service.Dashboard(ctx, report.Filter{})
			Expect(dashboard.Statistics.Success).To(BeFalse())
			Expect(dashboard.Statistics.Kind).To(Equal(internal.ErrorTypeInternal))
			Expect(dashboard.RecentActivity.Success).To(BeTrue())
			Expect(*dashboard.RecentActivity.Data).To(HaveLen(1))
		})
	})
})
