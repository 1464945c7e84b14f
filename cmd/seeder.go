package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/internal/audit"
	auditPostgres "github.com/frahmantamala/warehouse-management/internal/audit/postgres"
	"github.com/frahmantamala/warehouse-management/internal/auth"
	"github.com/frahmantamala/warehouse-management/internal/core/database"
	auditDatamodel "github.com/frahmantamala/warehouse-management/internal/core/datamodel/audit"
	"github.com/frahmantamala/warehouse-management/internal/core/datamodel/inventory"
	"github.com/frahmantamala/warehouse-management/internal/core/datamodel/movement"
	settingsDatamodel "github.com/frahmantamala/warehouse-management/internal/core/datamodel/settings"
	userDatamodel "github.com/frahmantamala/warehouse-management/internal/core/datamodel/user"
	"github.com/frahmantamala/warehouse-management/internal/core/events"
	"github.com/frahmantamala/warehouse-management/internal/stock"
	stockPostgres "github.com/frahmantamala/warehouse-management/internal/stock/postgres"
	"github.com/frahmantamala/warehouse-management/pkg/logger"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const seedPassword = "password"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gormDB, err := initGorm(db, cfg.Database)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if err := seed(context.Background(), gormDB, clearData); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	},
}

// seed is idempotent: existing users, warehouses, suppliers and items are
// kept, and opening stock is only posted into empty warehouses.
func seed(ctx context.Context, db *gorm.DB, clear bool) error {
	lg := logger.LoggerWrapper()

	if clear {
		if err := clearTables(db); err != nil {
			return err
		}
		fmt.Println("Cleared existing data")
	}

	if err := seedPermissions(db); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin, err := ensureUser(db, userDatamodel.User{
		Username: "admin", Email: "admin@warehouse.local", PasswordHash: string(hash),
		FirstName: "Warehouse", LastName: "Admin", Role: auth.RoleAdmin, IsActive: true,
	})
	if err != nil {
		return err
	}
	fmt.Println("Seeded admin user:", admin.Email)

	staff, err := ensureUser(db, userDatamodel.User{
		Username: "staff", Email: "staff@warehouse.local", PasswordHash: string(hash),
		FirstName: "Sample", LastName: "Staff", Department: "Operations", Role: auth.RoleStaff, IsActive: true,
	})
	if err != nil {
		return err
	}
	for _, perm := range []string{auth.PermStockEntry, auth.PermStockTransfer, auth.PermStockWithdraw, auth.PermReportsView} {
		grantedBy := admin.ID
		grant := userDatamodel.UserPermission{UserID: staff.ID, Permission: perm, GrantedBy: &grantedBy}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&grant).Error; err != nil {
			return fmt.Errorf("grant %s to staff: %w", perm, err)
		}
	}
	fmt.Println("Seeded staff user with stock permissions:", staff.Email)

	primary, err := ensureWarehouse(db, inventory.Warehouse{Code: "WH-MAIN", Name: "Main Warehouse", Location: "Building A", IsActive: true})
	if err != nil {
		return err
	}
	if _, err := ensureWarehouse(db, inventory.Warehouse{Code: "WH-EAST", Name: "East Depot", Location: "Dock 4", IsActive: true}); err != nil {
		return err
	}

	supplier := inventory.Supplier{Name: "Acme Industrial Supply", ContactName: "Jordan Lee", Email: "orders@acme.example", IsActive: true}
	if err := db.Where("name = ?", supplier.Name).FirstOrCreate(&supplier).Error; err != nil {
		return fmt.Errorf("seed supplier: %w", err)
	}

	reorder := func(v float64) *float64 { return &v }
	items := []inventory.Item{
		{SKU: "BOLT-M10", Name: "Hex bolt M10", Category: "Fasteners", Unit: "pcs", UnitPrice: 0.35, ReorderLevel: reorder(200)},
		{SKU: "NUT-M10", Name: "Hex nut M10", Category: "Fasteners", Unit: "pcs", UnitPrice: 0.12, ReorderLevel: reorder(200)},
		{SKU: "GLV-NIT-L", Name: "Nitrile gloves L", Category: "Safety", Unit: "box", UnitPrice: 8.90, ReorderLevel: reorder(10)},
		{SKU: "TAPE-PK-48", Name: "Packing tape 48mm", Category: "Packaging", Unit: "roll", UnitPrice: 2.10},
	}
	for i := range items {
		items[i].IsActive = true
		if err := db.Where("sku = ?", items[i].SKU).FirstOrCreate(&items[i]).Error; err != nil {
			return fmt.Errorf("seed item %s: %w", items[i].SKU, err)
		}
	}
	fmt.Printf("Seeded %d items, 2 warehouses and 1 supplier\n", len(items))

	var stocked int64
	if err := db.Model(&inventory.Inventory{}).Where("warehouse_id = ?", primary.ID).Count(&stocked).Error; err != nil {
		return err
	}
	if stocked > 0 {
		return nil
	}

	// opening stock goes through the stock service so balances and the
	// audit log agree
	bus := events.NewEventBus(lg)
	audit.NewService(auditPostgres.NewAuditRepository(db), lg).Subscribe(bus)
	stockService := stock.NewService(stockPostgres.NewStockRepository(db), database.NewTxManager(db), bus, internal.SystemClock, lg)

	actorCtx := internal.ContextWithUserID(ctx, admin.ID)
	quantities := []float64{500, 150, 25, 60}
	for i, item := range items {
		ref := "OPENING"
		if _, err := stockService.RecordEntry(actorCtx, stock.EntryDTO{
			PurchaseRef: &ref,
			ItemID:      item.ID,
			SupplierID:  supplier.ID,
			WarehouseID: primary.ID,
			Quantity:    quantities[i],
			UnitCost:    item.UnitPrice,
			Notes:       "opening balance",
		}); err != nil {
			return fmt.Errorf("opening stock for %s: %w", item.SKU, err)
		}
	}
	bus.Drain()
	fmt.Println("Posted opening stock into", primary.Code)
	return nil
}

func seedPermissions(db *gorm.DB) error {
	for name, desc := range auth.PermissionCatalog {
		p := userDatamodel.Permission{Name: name, Description: desc}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"description"}),
		}).Create(&p).Error; err != nil {
			return fmt.Errorf("seed permission %s: %w", name, err)
		}
	}
	return nil
}

func ensureUser(db *gorm.DB, u userDatamodel.User) (*userDatamodel.User, error) {
	var existing userDatamodel.User
	err := db.Where("username = ?", u.Username).First(&existing).Error
	if err == nil {
		fmt.Println("user already exists:", u.Username)
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err := db.Omit("Permissions").Create(&u).Error; err != nil {
		return nil, fmt.Errorf("insert user %s: %w", u.Username, err)
	}
	return &u, nil
}

func ensureWarehouse(db *gorm.DB, w inventory.Warehouse) (*inventory.Warehouse, error) {
	w.IsActive = true
	if err := db.Where("code = ?", w.Code).FirstOrCreate(&w).Error; err != nil {
		return nil, fmt.Errorf("seed warehouse %s: %w", w.Code, err)
	}
	return &w, nil
}

// clearTables deletes children before parents.
func clearTables(db *gorm.DB) error {
	models := []interface{}{
		&auditDatamodel.AuditLog{},
		&settingsDatamodel.AppSettings{},
		&movement.Adjustment{},
		&movement.WithdrawalLine{},
		&movement.Withdrawal{},
		&movement.TransferLine{},
		&movement.Transfer{},
		&movement.ItemEntry{},
		&inventory.Inventory{},
		&inventory.Item{},
		&inventory.Supplier{},
		&inventory.Warehouse{},
		&userDatamodel.UserPermission{},
		&userDatamodel.User{},
	}
	for _, m := range models {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
			return fmt.Errorf("clear %T: %w", m, err)
		}
	}
	return nil
}
