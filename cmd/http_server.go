package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/internal/audit"
	auditPostgres "github.com/frahmantamala/warehouse-management/internal/audit/postgres"
	"github.com/frahmantamala/warehouse-management/internal/auth"
	authPostgres "github.com/frahmantamala/warehouse-management/internal/auth/postgres"
	"github.com/frahmantamala/warehouse-management/internal/catalog"
	catalogPostgres "github.com/frahmantamala/warehouse-management/internal/catalog/postgres"
	"github.com/frahmantamala/warehouse-management/internal/core/database"
	"github.com/frahmantamala/warehouse-management/internal/core/events"
	"github.com/frahmantamala/warehouse-management/internal/report"
	reportPostgres "github.com/frahmantamala/warehouse-management/internal/report/postgres"
	"github.com/frahmantamala/warehouse-management/internal/settings"
	settingsPostgres "github.com/frahmantamala/warehouse-management/internal/settings/postgres"
	"github.com/frahmantamala/warehouse-management/internal/stock"
	stockPostgres "github.com/frahmantamala/warehouse-management/internal/stock/postgres"
	"github.com/frahmantamala/warehouse-management/internal/transport"
	"github.com/frahmantamala/warehouse-management/internal/transport/middleware"
	"github.com/frahmantamala/warehouse-management/internal/transport/rest"
	"github.com/frahmantamala/warehouse-management/internal/transport/swagger"
	"github.com/frahmantamala/warehouse-management/internal/user"
	userPostgres "github.com/frahmantamala/warehouse-management/internal/user/postgres"
	"github.com/frahmantamala/warehouse-management/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	EventBus *events.EventBus
	Router   *chi.Mux
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		deps.Logger.Error("failed to set up routes", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "env", deps.Config.Env)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		// audit writes still in flight must land before the pool closes
		deps.EventBus.Drain()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	lg := deps.Logger
	db := deps.Gorm
	bus := deps.EventBus

	if cfg.Server.OpenAPIPath != "" {
		if _, err := swagger.Load(context.Background(), cfg.Server.OpenAPIPath); err != nil {
			return err
		}
	}

	base := transport.NewBaseHandler(lg)
	txManager := database.NewTxManager(db)

	auditService := audit.NewService(auditPostgres.NewAuditRepository(db), lg)
	auditService.Subscribe(bus)

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authPostgres.NewRepository(db), tokens, bus, internal.SystemClock, lg)
	userService := user.NewService(userPostgres.NewUserRepository(db), bus, cfg.Security.BCryptCost, internal.SystemClock, lg)
	catalogService := catalog.NewService(catalogPostgres.NewCatalogRepository(db), bus, lg)
	stockService := stock.NewService(stockPostgres.NewStockRepository(db), txManager, bus, internal.SystemClock, lg)
	reporting := cfg.Reporting.WithDefaults()
	reportService := report.NewService(reportPostgres.NewReportRepository(db), report.Config{
		RecentPerCategory: reporting.RecentPerCategory,
		RecentLimit:       reporting.RecentLimit,
	}, internal.SystemClock, lg)
	settingsService := settings.NewService(settingsPostgres.NewSettingsRepository(db), bus, lg)

	var metrics *middleware.Metrics
	if cfg.Observability.Metrics.Enabled {
		metrics = middleware.NewMetrics()
	}

	rest.RegisterAllRoutes(deps.Router, cfg, rest.Handlers{
		Health:   rest.NewHealthHandler(base, deps.DB),
		Auth:     auth.NewHandler(authService, lg),
		RBAC:     auth.NewRBACAuthorization(auth.NewPermissionChecker(), lg),
		User:     user.NewHandler(base, userService),
		Catalog:  catalog.NewHandler(base, catalogService),
		Stock:    stock.NewHandler(base, stockService),
		Report:   report.NewHandler(base, reportService),
		Settings: settings.NewHandler(base, settingsService),
		Audit:    audit.NewHandler(base, auditService),
		Metrics:  metrics,
	}, lg)
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db, config.Database)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	lg := logger.LoggerWrapper()
	return &Dependencies{
		Config:   config,
		DB:       db,
		Gorm:     gormDB,
		EventBus: events.NewEventBus(lg),
		Router:   chi.NewRouter(),
		Logger:   lg,
	}, nil
}

// initDB opens the shared pgx pool.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return dbConn, nil
}

// initGorm puts gorm on top of the existing pool so both share connections.
func initGorm(db *sqlx.DB, cfg internal.DatabaseConfig) (*gorm.DB, error) {
	level := gormLogger.Warn
	if cfg.LogQueries {
		level = gormLogger.Info
	}
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(level),
	})
}
