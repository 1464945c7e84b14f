package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/frahmantamala/warehouse-management/internal/core/datamodel/inventory"
	"github.com/frahmantamala/warehouse-management/internal/core/datamodel/movement"
	"github.com/frahmantamala/warehouse-management/internal/report"
	reportPostgres "github.com/frahmantamala/warehouse-management/internal/report/postgres"
	"github.com/frahmantamala/warehouse-management/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func TestReportRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Report Repository Suite")
}

var _ = Describe("ReportRepository", func() {
	var (
		db       *gorm.DB
		repo     report.RepositoryAPI
		ctx      context.Context
		item     *inventory.Item
		loose    *inventory.Item
		supplier *inventory.Supplier
		main     *inventory.Warehouse
		other    *inventory.Warehouse
	)

	march := report.Window{
		From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}

	entryAt := func(at time.Time, warehouseID string, total float64) {
		Expect(db.Omit("Item", "Supplier", "Warehouse").Create(&movement.ItemEntry{
			ItemID: item.ID, SupplierID: supplier.ID, WarehouseID: warehouseID,
			Quantity: 1, UnitCost: total, TotalCost: total, CreatedAt: at,
		}).Error).To(Succeed())
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(
			&inventory.Item{}, &inventory.Supplier{}, &inventory.Warehouse{}, &inventory.Inventory{},
			&movement.ItemEntry{}, &movement.Transfer{}, &movement.TransferLine{},
			&movement.Withdrawal{}, &movement.WithdrawalLine{}, &movement.Adjustment{},
		)).To(Succeed())

		reorder := 5.0
		item = &inventory.Item{SKU: "A", Name: "Bolt", Description: "Hex bolt", UnitPrice: 2, ReorderLevel: &reorder, IsActive: true}
		loose = &inventory.Item{SKU: "B", Name: "Nut", UnitPrice: 1, IsActive: true}
		supplier = &inventory.Supplier{Name: "Acme", IsActive: true}
		main = &inventory.Warehouse{Code: "WH-A", Name: "Main", IsActive: true}
		other = &inventory.Warehouse{Code: "WH-B", Name: "Other", IsActive: true}
		for _, row := range []interface{}{item, loose, supplier, main, other} {
			Expect(db.Create(row).Error).To(Succeed())
		}

		repo = reportPostgres.NewReportRepository(db)
		ctx = context.Background()
	})

	It("should return zero totals for an empty window", func() {
		count, value, err := repo.EntryTotals(ctx, "", march)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(BeZero())
		Expect(value).To(BeZero())
	})

	It("should include the first instant of the window and exclude the day before", func() {
		entryAt(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), main.ID, 10)
		entryAt(time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC), main.ID, 100)
		entryAt(time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC), other.ID, 5)

		count, value, err := repo.EntryTotals(ctx, "", march)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(int64(2)))
		Expect(value).To(Equal(15.0))

		count, value, err = repo.EntryTotals(ctx, main.ID, march)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(int64(1)))
		Expect(value).To(Equal(10.0))
	})

	It("should join stock rows with item and warehouse data", func() {
		Expect(db.Create(&inventory.Inventory{ItemID: item.ID, WarehouseID: main.ID, Quantity: 3}).Error).To(Succeed())
		Expect(db.Create(&inventory.Inventory{ItemID: loose.ID, WarehouseID: other.ID, Quantity: 9}).Error).To(Succeed())

		rows, err := repo.StockRows(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(2))
		Expect(rows[0].ItemName).To(Equal("Bolt"))
		Expect(rows[0].WarehouseName).To(Equal("Main"))
		Expect(*rows[0].ReorderLevel).To(Equal(5.0))
		Expect(rows[1].ReorderLevel).To(BeNil())

		low, tracked := report.CountLowStock(rows)
		Expect(low).To(Equal(int64(1)))
		Expect(tracked).To(Equal(int64(1)))

		rows, err = repo.StockRows(ctx, other.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].SKU).To(Equal("B"))
	})

	It("should count transfers by status, window and either warehouse", func() {
		in := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
		out := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
		for i, t := range []movement.Transfer{
			{FromWarehouseID: main.ID, ToWarehouseID: other.ID, Status: "PENDING", CreatedAt: in},
			{FromWarehouseID: other.ID, ToWarehouseID: main.ID, Status: "IN_TRANSIT", CreatedAt: out},
		} {
			t.TransferNumber = []string{"TRF-1", "TRF-2"}[i]
			Expect(db.Omit("FromWarehouse", "ToWarehouse").Create(&t).Error).To(Succeed())
		}

		n, err := repo.CountTransfers(ctx, "", "PENDING", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(1)))

		n, err = repo.CountTransfers(ctx, main.ID, "", &march)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(1)))

		n, err = repo.CountTransfers(ctx, main.ID, "IN_TRANSIT", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(1)))
	})

	It("should feed the service a merged activity list with names resolved", func() {
		entryAt(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), main.ID, 1)
		Expect(db.Omit("FromWarehouse", "ToWarehouse").Create(&movement.Transfer{
			TransferNumber: "TRF-9", FromWarehouseID: main.ID, ToWarehouseID: other.ID,
			Status: "PENDING", CreatedAt: time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
		}).Error).To(Succeed())

		service := report.NewService(repo, report.Config{},
			func() time.Time { return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC) }, logger.Discard())
		feed, err := service.RecentActivity(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(feed).To(HaveLen(2))
		Expect(feed[0].Description).To(Equal("Main → Other"))
		Expect(feed[1].Description).To(Equal("Hex bolt from Acme"))

		stats, err := service.Statistics(ctx, report.Filter{})
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.TotalWarehouses).To(Equal(int64(2)))
		Expect(stats.ThisMonthEntries).To(Equal(int64(1)))
		Expect(stats.ThisMonthTransfers).To(Equal(int64(1)))
	})
})
