package rest_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/internal/auth"
	"github.com/frahmantamala/warehouse-management/internal/settings"
	"github.com/frahmantamala/warehouse-management/internal/transport"
	"github.com/frahmantamala/warehouse-management/internal/transport/middleware"
	"github.com/frahmantamala/warehouse-management/internal/transport/rest"
	"github.com/frahmantamala/warehouse-management/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "REST Router Suite")
}

// stubAuthService accepts the token strings in sessions as access tokens.
type stubAuthService struct {
	sessions map[string]auth.Session
}

func (s *stubAuthService) Authenticate(ctx context.Context, dto auth.LoginDTO) (auth.AuthTokens, error) {
	return auth.AuthTokens{}, internal.ErrInvalidCredentials
}

func (s *stubAuthService) RefreshTokens(ctx context.Context, dto auth.RefreshTokenDTO) (auth.AuthTokens, error) {
	return auth.AuthTokens{}, internal.ErrInvalidToken
}

func (s *stubAuthService) ValidateAccessToken(token string) (*auth.Claims, error) {
	session, ok := s.sessions[token]
	if !ok {
		return nil, internal.ErrInvalidToken
	}
	return &auth.Claims{UserID: session.UserID}, nil
}

func (s *stubAuthService) ResolveSession(ctx context.Context, claims *auth.Claims) (auth.Session, error) {
	for _, session := range s.sessions {
		if session.UserID == claims.UserID {
			return session, nil
		}
	}
	return auth.Session{}, internal.ErrUnauthorized
}

type stubSettingsService struct {
	current settings.Settings
}

func (s *stubSettingsService) Get(ctx context.Context) (*settings.Settings, error) {
	out := s.current
	return &out, nil
}

func (s *stubSettingsService) Update(ctx context.Context, dto settings.UpdateSettingsDTO) (*settings.Settings, error) {
	s.current.CompanyName = dto.CompanyName
	out := s.current
	return &out, nil
}

var _ = Describe("Router", func() {
	var (
		router  *chi.Mux
		metrics *middleware.Metrics
		cfg     *internal.Config
	)

	do := func(method, path, token, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	BeforeEach(func() {
		cfg = &internal.Config{}
		cfg.Server.AllowedOrigins = "https://ops.example.com"
		cfg.Observability.Metrics = internal.MetricsConfig{Enabled: true, Path: "/metrics"}
		cfg.RateLimit = internal.RateLimitConfig{LoginPerMinute: 1, LoginBurst: 2}

		authService := &stubAuthService{sessions: map[string]auth.Session{
			"admin-token": {UserID: "u-admin", Role: auth.RoleAdmin, IsActive: true},
			"staff-token": {UserID: "u-staff", Role: auth.RoleStaff, IsActive: true},
		}}
		base := transport.NewBaseHandler(logger.Discard())
		metrics = middleware.NewMetrics()

		router = chi.NewRouter()
		rest.RegisterAllRoutes(router, cfg, rest.Handlers{
			Health:   rest.NewHealthHandler(base, nil),
			Auth:     auth.NewHandler(authService, logger.Discard()),
			RBAC:     auth.NewRBACAuthorization(nil, logger.Discard()),
			Settings: settings.NewHandler(base, &stubSettingsService{current: *settings.Defaults()}),
			Metrics:  metrics,
		}, logger.Discard())
	})

	It("should answer ping and echo a trace id", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
		req.Header.Set(middleware.TraceHeader, "trace-123")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get(middleware.TraceHeader)).To(Equal("trace-123"))
	})

	It("should report unhealthy without a database", func() {
		Expect(do(http.MethodGet, "/api/v1/health", "", "").Code).To(Equal(http.StatusServiceUnavailable))
	})

	It("should reject protected routes without a token", func() {
		rec := do(http.MethodGet, "/api/v1/settings", "", "")

		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		var body internal.Result[struct{}]
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Kind).To(Equal(internal.ErrorTypeUnauthorized))
	})

	It("should let any authenticated user read settings", func() {
		rec := do(http.MethodGet, "/api/v1/settings", "staff-token", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		var body internal.Result[settings.Settings]
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Data.Currency).To(Equal(settings.DefaultCurrency))
	})

	It("should require settings:manage to change settings", func() {
		payload := `{"companyName":"Acme","currency":"EUR","lowStockAlerts":true}`

		Expect(do(http.MethodPut, "/api/v1/settings", "staff-token", payload).Code).To(Equal(http.StatusForbidden))
		Expect(do(http.MethodPut, "/api/v1/settings", "admin-token", payload).Code).To(Equal(http.StatusOK))
	})

	It("should answer unknown routes with the result shape", func() {
		rec := do(http.MethodGet, "/api/v1/nope", "", "")

		Expect(rec.Code).To(Equal(http.StatusNotFound))
		var body internal.Result[struct{}]
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Code).To(Equal(internal.ErrCodeRouteNotFound))
	})

	It("should rate limit login per client", func() {
		login := `{"username":"nobody","password":"secret"}`
		Expect(do(http.MethodPost, "/api/v1/auth/login", "", login).Code).To(Equal(http.StatusUnauthorized))
		Expect(do(http.MethodPost, "/api/v1/auth/login", "", login).Code).To(Equal(http.StatusUnauthorized))

		rec := do(http.MethodPost, "/api/v1/auth/login", "", login)
		Expect(rec.Code).To(Equal(http.StatusTooManyRequests))
		Expect(rec.Header().Get("Retry-After")).NotTo(BeEmpty())

		var body internal.Result[struct{}]
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Kind).To(Equal(internal.ErrorTypeRateLimited))
		Expect(body.Code).To(Equal(internal.ErrCodeRateLimited))
	})

	It("should not let a forged forwarding header reset the login limit", func() {
		login := `{"username":"nobody","password":"secret"}`
		passed := 0
		for i := 0; i < 20; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(login))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusTooManyRequests {
				passed++
			}
		}
		Expect(passed).To(Equal(2))
	})

	It("should expose request metrics labelled by route pattern", func() {
		do(http.MethodGet, "/api/v1/settings", "staff-token", "")

		rec := do(http.MethodGet, "/metrics", "", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`warehouse_http_requests_total{method="GET",path="/api/v1/settings",status="200"} 1`))
	})

	It("should answer CORS preflight for allowed origins only", func() {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/settings", nil)
		req.Header.Set("Origin", "https://ops.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://ops.example.com"))

		req.Header.Set("Origin", "https://evil.example.com")
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
	})
})
