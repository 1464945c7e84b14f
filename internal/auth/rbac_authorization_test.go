package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/pkg/logger"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("RBACAuthorization", func() {
	var (
		rbac    *RBACAuthorization
		reached bool
		next    http.Handler
	)

	serve := func(mw func(http.Handler) http.Handler, session *Session) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/statistics", nil)
		if session != nil {
			req = req.WithContext(ContextWithSession(context.Background(), session))
		}
		rec := httptest.NewRecorder()
		mw(next).ServeHTTP(rec, req)
		return rec
	}

	ginkgo.BeforeEach(func() {
		reached = false
		next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
			w.WriteHeader(http.StatusOK)
		})
		rbac = NewRBACAuthorization(nil, logger.Discard())
	})

	ginkgo.Describe("RequirePermission", func() {
		ginkgo.It("should answer 401 without a session", func() {
			rec := serve(rbac.RequirePermission(PermReportsView), nil)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(reached).To(gomega.BeFalse())

			var body internal.Result[struct{}]
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
			gomega.Expect(body.Success).To(gomega.BeFalse())
			gomega.Expect(body.Kind).To(gomega.Equal(internal.ErrorTypeUnauthorized))
		})

		ginkgo.It("should answer 403 when no required permission is held", func() {
			session := &Session{UserID: "u-1", Role: RoleStaff, Permissions: []ActivePermission{{Permission: PermStockEntry}}}

			rec := serve(rbac.RequirePermission(PermReportsView), session)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(reached).To(gomega.BeFalse())
		})

		ginkgo.It("should pass when any required permission is held", func() {
			session := &Session{UserID: "u-1", Role: RoleStaff, Permissions: []ActivePermission{{Permission: PermStockEntry}}}

			rec := serve(rbac.RequirePermission(PermReportsView, PermStockEntry), session)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(reached).To(gomega.BeTrue())
		})

		ginkgo.It("should let admins through without grants", func() {
			rec := serve(rbac.RequirePermission(PermAuditView), &Session{UserID: "root", Role: RoleAdmin})

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(reached).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("RequireRole", func() {
		ginkgo.It("should accept a listed role", func() {
			rec := serve(rbac.RequireRole(RoleManager), &Session{UserID: "m", Role: RoleManager})
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		})

		ginkgo.It("should refuse other roles", func() {
			rec := serve(rbac.RequireRole(RoleManager), &Session{UserID: "v", Role: RoleViewer})
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		})
	})
})
