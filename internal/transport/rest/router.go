package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/internal/audit"
	"github.com/frahmantamala/warehouse-management/internal/auth"
	"github.com/frahmantamala/warehouse-management/internal/catalog"
	"github.com/frahmantamala/warehouse-management/internal/report"
	"github.com/frahmantamala/warehouse-management/internal/settings"
	"github.com/frahmantamala/warehouse-management/internal/stock"
	"github.com/frahmantamala/warehouse-management/internal/transport/middleware"
	"github.com/frahmantamala/warehouse-management/internal/transport/swagger"
	"github.com/frahmantamala/warehouse-management/internal/user"
	"github.com/go-chi/chi"
)

// Handlers groups everything the router mounts. A nil handler leaves its
// routes unregistered.
type Handlers struct {
	Health   *HealthHandler
	Auth     *auth.Handler
	RBAC     *auth.RBACAuthorization
	User     *user.Handler
	Catalog  *catalog.Handler
	Stock    *stock.Handler
	Report   *report.Handler
	Settings *settings.Handler
	Audit    *audit.Handler
	Metrics  *middleware.Metrics
}

func RegisterAllRoutes(router *chi.Mux, cfg *internal.Config, h Handlers, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.CORS(cfg.Server.Origins()))
	if h.Metrics != nil {
		router.Use(h.Metrics.Instrument)
	}
	router.Use(middleware.LoggingMiddleware)

	if h.Metrics != nil && cfg.Observability.Metrics.Enabled {
		router.Handle(cfg.Observability.Metrics.Path, h.Metrics.Handler())
	}

	if cfg.Server.OpenAPIPath != "" {
		router.Handle(swagger.SpecRoute, swagger.SpecHandler(cfg.Server.OpenAPIPath))
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.Health)
			r.Get("/ping", h.Health.Ping)
		}

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(ar chi.Router) {
			ar.Group(func(lr chi.Router) {
				if limit := cfg.RateLimit; limit.LoginPerMinute > 0 {
					lr.Use(middleware.NewRateLimiter(limit.LoginPerMinute, limit.LoginBurst, loginKey(limit, logger)).Middleware)
				}
				lr.Post("/login", h.Auth.Login)
			})
			ar.Post("/refresh", h.Auth.RefreshToken)
			ar.Post("/logout", h.Auth.Logout)
			ar.With(h.Auth.AuthMiddleware).Get("/session", h.Auth.Session)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			rbac := h.RBAC
			if rbac == nil {
				rbac = auth.NewRBACAuthorization(nil, logger)
			}

			if h.User != nil {
				registerUserRoutes(pr, h.User, rbac)
			}
			if h.Catalog != nil {
				registerCatalogRoutes(pr, h.Catalog, rbac)
			}
			if h.Stock != nil {
				registerStockRoutes(pr, h.Stock, rbac)
			}
			if h.Report != nil {
				pr.Group(func(rr chi.Router) {
					rr.Use(rbac.RequirePermission(auth.PermReportsView))
					rr.Get("/dashboard", h.Report.Dashboard)
					rr.Get("/reports/statistics", h.Report.Statistics)
					rr.Get("/reports/recent-activity", h.Report.RecentActivity)
					rr.Get("/reports/low-stock", h.Report.LowStock)
				})
			}
			if h.Settings != nil {
				pr.Get("/settings", h.Settings.GetSettings)
				pr.With(rbac.RequirePermission(auth.PermSettingsManage)).Put("/settings", h.Settings.UpdateSettings)
			}
			if h.Audit != nil {
				pr.With(rbac.RequirePermission(auth.PermAuditView)).Get("/audit-logs", h.Audit.ListLogs)
			}
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusNotFound, internal.NewNotFoundError("route not found", internal.ErrCodeRouteNotFound))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusMethodNotAllowed, internal.NewValidationError("method not allowed", internal.ErrCodeValidationFailed))
	})
}

func registerUserRoutes(r chi.Router, h *user.Handler, rbac *auth.RBACAuthorization) {
	r.Get("/users/me", h.GetCurrentUser)

	r.Route("/users", func(ur chi.Router) {
		ur.Use(rbac.RequirePermission(auth.PermUsersManage))
		ur.Get("/", h.ListUsers)
		ur.Post("/", h.CreateUser)
		ur.Get("/{id}", h.GetUser)
		ur.Put("/{id}", h.UpdateUser)
		ur.Post("/{id}/deactivate", h.DeactivateUser)
		ur.Get("/{id}/permissions", h.ListGrants)
		ur.Post("/{id}/permissions", h.GrantPermission)
		ur.Delete("/{id}/permissions/{permission}", h.RevokePermission)
	})
}

func registerCatalogRoutes(r chi.Router, h *catalog.Handler, rbac *auth.RBACAuthorization) {
	r.Route("/items", func(ir chi.Router) {
		ir.Get("/", h.ListItems)
		ir.Get("/{id}", h.GetItem)
		ir.Group(func(wr chi.Router) {
			wr.Use(rbac.RequirePermission(auth.PermItemsWrite))
			wr.Post("/", h.CreateItem)
			wr.Put("/{id}", h.UpdateItem)
			wr.Post("/{id}/deactivate", h.DeactivateItem)
		})
	})

	r.Route("/suppliers", func(sr chi.Router) {
		sr.Get("/", h.ListSuppliers)
		sr.Get("/{id}", h.GetSupplier)
		sr.Group(func(wr chi.Router) {
			wr.Use(rbac.RequirePermission(auth.PermSuppliersWrite))
			wr.Post("/", h.CreateSupplier)
			wr.Put("/{id}", h.UpdateSupplier)
			wr.Post("/{id}/deactivate", h.DeactivateSupplier)
		})
	})

	r.Route("/warehouses", func(wr chi.Router) {
		wr.Get("/", h.ListWarehouses)
		wr.Get("/{id}", h.GetWarehouse)
		wr.Group(func(mr chi.Router) {
			mr.Use(rbac.RequirePermission(auth.PermWarehousesWrite))
			mr.Post("/", h.CreateWarehouse)
			mr.Put("/{id}", h.UpdateWarehouse)
			mr.Post("/{id}/deactivate", h.DeactivateWarehouse)
		})
	})
}

func registerStockRoutes(r chi.Router, h *stock.Handler, rbac *auth.RBACAuthorization) {
	r.Get("/stock", h.ListLevels)

	r.Route("/item-entries", func(er chi.Router) {
		er.Get("/", h.ListEntries)
		er.Get("/{id}", h.GetEntry)
		er.With(rbac.RequirePermission(auth.PermStockEntry)).Post("/", h.RecordEntry)
	})

	r.Route("/transfers", func(tr chi.Router) {
		tr.Get("/", h.ListTransfers)
		tr.Get("/{id}", h.GetTransfer)
		tr.Group(func(mr chi.Router) {
			mr.Use(rbac.RequirePermission(auth.PermStockTransfer))
			mr.Post("/", h.CreateTransfer)
			mr.Post("/{id}/dispatch", h.DispatchTransfer)
			mr.Post("/{id}/complete", h.CompleteTransfer)
			mr.Post("/{id}/cancel", h.CancelTransfer)
		})
	})

	r.Route("/withdrawals", func(wr chi.Router) {
		wr.Get("/", h.ListWithdrawals)
		wr.Get("/{id}", h.GetWithdrawal)
		wr.With(rbac.RequirePermission(auth.PermStockWithdraw)).Post("/", h.CreateWithdrawal)
		wr.Group(func(ar chi.Router) {
			ar.Use(rbac.RequirePermission(auth.PermStockApprove))
			ar.Post("/{id}/approve", h.ApproveWithdrawal)
			ar.Post("/{id}/reject", h.RejectWithdrawal)
			ar.Post("/{id}/complete", h.CompleteWithdrawal)
		})
	})

	r.Route("/adjustments", func(ar chi.Router) {
		ar.Get("/", h.ListAdjustments)
		ar.Get("/{id}", h.GetAdjustment)
		ar.With(rbac.RequirePermission(auth.PermStockAdjust)).Post("/", h.CreateAdjustment)
	})
}

func writeFailure(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(internal.Fail[struct{}](err))
}

// loginKey keys login attempts by client IP, reading forwarding headers only
// from configured proxies.
func loginKey(limit internal.RateLimitConfig, lg *slog.Logger) middleware.KeyFunc {
	proxies, err := middleware.ParseTrustedProxies(limit.Proxies())
	if err != nil {
		lg.Warn("ignoring trusted proxies, keying login by socket address", "error", err)
		return middleware.ClientIP
	}
	if len(proxies) == 0 {
		return middleware.ClientIP
	}
	return proxies.ClientIP
}
