package user_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/internal/auth"
	userDatamodel "github.com/frahmantamala/warehouse-management/internal/core/datamodel/user"
	"github.com/frahmantamala/warehouse-management/internal/transport"
	"github.com/frahmantamala/warehouse-management/internal/user"
	userPostgres "github.com/frahmantamala/warehouse-management/internal/user/postgres"
	"github.com/frahmantamala/warehouse-management/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var _ = Describe("User Handler Integration", func() {
	var (
		db      *gorm.DB
		router  chi.Router
		service *user.Service
	)

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req = req.WithContext(internal.ContextWithUserID(context.Background(), "admin-1"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&userDatamodel.User{}, &userDatamodel.UserPermission{})).To(Succeed())

		repo := userPostgres.NewUserRepository(db)
		service = user.NewService(repo, nil, bcrypt.MinCost, nil, logger.Discard())
		handler := user.NewHandler(transport.NewBaseHandler(logger.Discard()), service)

		router = chi.NewRouter()
		router.Get("/users/me", handler.GetCurrentUser)
		router.Post("/users", handler.CreateUser)
		router.Get("/users", handler.ListUsers)
		router.Get("/users/{id}", handler.GetUser)
		router.Patch("/users/{id}", handler.UpdateUser)
		router.Post("/users/{id}/deactivate", handler.DeactivateUser)
		router.Get("/users/{id}/permissions", handler.ListGrants)
		router.Post("/users/{id}/permissions", handler.GrantPermission)
		router.Delete("/users/{id}/permissions/{permission}", handler.RevokePermission)

		Expect(db.Create(&userDatamodel.User{
			ID: "admin-1", Username: "admin", Email: "admin@example.com", PasswordHash: "x",
			FirstName: "Ada", LastName: "Admin", Role: auth.RoleAdmin, IsActive: true,
		}).Error).To(Succeed())
	})

	It("should create a user and answer 201 with the result shape", func() {
		w := do(http.MethodPost, "/users", map[string]string{
			"username": "jdoe", "email": "jdoe@example.com", "password": "long-enough", "firstName": "Jane",
		})

		Expect(w.Code).To(Equal(http.StatusCreated))
		var res internal.Result[user.User]
		Expect(json.Unmarshal(w.Body.Bytes(), &res)).To(Succeed())
		Expect(res.Success).To(BeTrue())
		Expect(res.Data.Username).To(Equal("jdoe"))
		Expect(res.Data.Role).To(Equal(auth.RoleStaff))
		Expect(w.Body.String()).NotTo(ContainSubstring("passwordHash"))
	})

	It("should answer 409 for a duplicate email", func() {
		w := do(http.MethodPost, "/users", map[string]string{
			"username": "other", "email": "ADMIN@example.com", "password": "long-enough",
		})

		Expect(w.Code).To(Equal(http.StatusConflict))
		var res internal.Result[user.User]
		Expect(json.Unmarshal(w.Body.Bytes(), &res)).To(Succeed())
		Expect(res.Success).To(BeFalse())
		Expect(res.Kind).To(Equal(internal.ErrorTypeConflict))
	})

	It("should answer 400 for an invalid body", func() {
		req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should search users case-insensitively", func() {
		Expect(do(http.MethodPost, "/users", map[string]string{
			"username": "warehouse.bob", "email": "bob@example.com", "password": "long-enough", "lastName": "Builder",
		}).Code).To(Equal(http.StatusCreated))

		w := do(http.MethodGet, "/users?search=BUILD", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var res internal.Result[user.ListResponse]
		Expect(json.Unmarshal(w.Body.Bytes(), &res)).To(Succeed())
		Expect(res.Data.Total).To(Equal(int64(1)))
		Expect(res.Data.Users[0].Username).To(Equal("warehouse.bob"))
	})

	It("should return the current user", func() {
		w := do(http.MethodGet, "/users/me", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		var res internal.Result[user.User]
		Expect(json.Unmarshal(w.Body.Bytes(), &res)).To(Succeed())
		Expect(res.Data.Name).To(Equal("Ada Admin"))
	})

	It("should answer 404 for an unknown user", func() {
		w := do(http.MethodGet, "/users/nope", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("should grant, re-grant and revoke a permission", func() {
		created := do(http.MethodPost, "/users", map[string]string{
			"username": "jdoe", "email": "jdoe@example.com", "password": "long-enough",
		})
		var res internal.Result[user.User]
		Expect(json.Unmarshal(created.Body.Bytes(), &res)).To(Succeed())
		id := res.Data.ID

		expires := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
		w := do(http.MethodPost, "/users/"+id+"/permissions", map[string]interface{}{
			"permission": auth.PermStockEntry, "expiresAt": expires,
		})
		Expect(w.Code).To(Equal(http.StatusCreated))

		w = do(http.MethodPost, "/users/"+id+"/permissions", map[string]interface{}{
			"permission": auth.PermStockEntry,
		})
		Expect(w.Code).To(Equal(http.StatusCreated))

		w = do(http.MethodGet, "/users/"+id+"/permissions", nil)
		var grants internal.Result[[]user.Grant]
		Expect(json.Unmarshal(w.Body.Bytes(), &grants)).To(Succeed())
		Expect(*grants.Data).To(HaveLen(1))
		Expect((*grants.Data)[0].ExpiresAt).To(BeNil())
		Expect((*grants.Data)[0].Active).To(BeTrue())

		w = do(http.MethodDelete, "/users/"+id+"/permissions/"+auth.PermStockEntry, nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodDelete, "/users/"+id+"/permissions/"+auth.PermStockEntry, nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("should deactivate without deleting", func() {
		created := do(http.MethodPost, "/users", map[string]string{
			"username": "temp", "email": "temp@example.com", "password": "long-enough",
		})
		var res internal.Result[user.User]
		Expect(json.Unmarshal(created.Body.Bytes(), &res)).To(Succeed())

		w := do(http.MethodPost, "/users/"+res.Data.ID+"/deactivate", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var row userDatamodel.User
		Expect(db.First(&row, "id = ?", res.Data.ID).Error).To(Succeed())
		Expect(row.IsActive).To(BeFalse())
	})
})
