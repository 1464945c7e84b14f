package settings_test

import (
	"context"
	"errors"
	"testing"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/internal/core/datamodel/inventory"
	settingsDatamodel "github.com/frahmantamala/warehouse-management/internal/core/datamodel/settings"
	"github.com/frahmantamala/warehouse-management/internal/core/events"
	"github.com/frahmantamala/warehouse-management/internal/settings"
	settingsPostgres "github.com/frahmantamala/warehouse-management/internal/settings/postgres"
	"github.com/frahmantamala/warehouse-management/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func TestSettings(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Settings Module Suite")
}

type capturePublisher struct {
	events []events.Event
}

func (p *capturePublisher) Publish(ctx context.Context, event events.Event) error {
	p.events = append(p.events, event)
	return nil
}

var _ = Describe("Settings Service", func() {
	var (
		db        *gorm.DB
		service   *settings.Service
		publisher *capturePublisher
		ctx       context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&settingsDatamodel.AppSettings{}, &inventory.Warehouse{})).To(Succeed())

		publisher = &capturePublisher{}
		service = settings.NewService(settingsPostgres.NewSettingsRepository(db), publisher, logger.Discard())
		ctx = internal.ContextWithUserID(context.Background(), "admin-1")
	})

	It("should return defaults before anything is saved", func() {
		current, err := service.Get(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(current.CompanyName).To(Equal(settings.DefaultCompanyName))
		Expect(current.Currency).To(Equal("USD"))
		Expect(current.LowStockAlerts).To(BeTrue())
		Expect(current.UpdatedAt).To(BeNil())
	})

	It("should persist a false alert flag and normalize the currency", func() {
		saved, err := service.Update(ctx, settings.UpdateSettingsDTO{
			CompanyName: " Acme Storage ", Currency: "idr", LowStockAlerts: false,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(saved.CompanyName).To(Equal("Acme Storage"))
		Expect(saved.Currency).To(Equal("IDR"))
		Expect(saved.LowStockAlerts).To(BeFalse())
		Expect(*saved.UpdatedBy).To(Equal("admin-1"))

		reloaded, err := service.Get(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(reloaded.LowStockAlerts).To(BeFalse())

		var count int64
		Expect(db.Model(&settingsDatamodel.AppSettings{}).Count(&count).Error).To(Succeed())
		Expect(count).To(Equal(int64(1)))
	})

	It("should overwrite the single row on a second save", func() {
		_, err := service.Update(ctx, settings.UpdateSettingsDTO{CompanyName: "A", Currency: "USD"})
		Expect(err).NotTo(HaveOccurred())
		_, err = service.Update(ctx, settings.UpdateSettingsDTO{CompanyName: "B", Currency: "EUR", LowStockAlerts: true})
		Expect(err).NotTo(HaveOccurred())

		var rows []settingsDatamodel.AppSettings
		Expect(db.Find(&rows).Error).To(Succeed())
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].CompanyName).To(Equal("B"))
		Expect(rows[0].Currency).To(Equal("EUR"))
		Expect(publisher.events).To(HaveLen(2))
		Expect(publisher.events[0].EventType()).To(Equal(events.EventTypeSettingsUpdated))
	})

	It("should reject an unknown default warehouse", func() {
		missing := "missing"
		_, err := service.Update(ctx, settings.UpdateSettingsDTO{
			CompanyName: "A", Currency: "USD", DefaultWarehouseID: &missing,
		})
		Expect(errors.Is(err, internal.ErrWarehouseNotFound)).To(BeTrue())
		Expect(publisher.events).To(BeEmpty())
	})

	It("should accept a known default warehouse", func() {
		warehouse := &inventory.Warehouse{Code: "WH-A", Name: "Main", IsActive: true}
		Expect(db.Create(warehouse).Error).To(Succeed())

		saved, err := service.Update(ctx, settings.UpdateSettingsDTO{
			CompanyName: "A", Currency: "USD", DefaultWarehouseID: &warehouse.ID,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(*saved.DefaultWarehouseID).To(Equal(warehouse.ID))
	})

	It("should reject a malformed currency", func() {
		_, err := service.Update(ctx, settings.UpdateSettingsDTO{CompanyName: "A", Currency: "dollars"})
		Expect(internal.KindOf(err)).To(Equal(internal.ErrorTypeValidation))
		Expect(err.Error()).To(ContainSubstring("three-letter"))
	})
})
