package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/internal/auth"
	userDatamodel "github.com/frahmantamala/warehouse-management/internal/core/datamodel/user"
	"github.com/frahmantamala/warehouse-management/internal/core/events"
	"github.com/frahmantamala/warehouse-management/pkg/logger"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

func TestUser(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "User Module Suite")
}

type mockUserRepository struct {
	users  map[string]*userDatamodel.User
	grants map[string]*userDatamodel.UserPermission
	nextID int
	err    error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:  map[string]*userDatamodel.User{},
		grants: map[string]*userDatamodel.UserPermission{},
	}
}

func (m *mockUserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	if m.err != nil {
		return m.err
	}
	m.nextID++
	u.ID = "u-" + string(rune('0'+m.nextID))
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*userDatamodel.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepository) List(ctx context.Context, filter ListFilter) ([]*userDatamodel.User, int64, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	var out []*userDatamodel.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (m *mockUserRepository) Update(ctx context.Context, u *userDatamodel.User) error {
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserRepository) SetActive(ctx context.Context, id string, active bool) error {
	m.users[id].IsActive = active
	return nil
}

func (m *mockUserRepository) UsernameOrEmailTaken(ctx context.Context, username, email, excludeID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	for _, u := range m.users {
		if u.ID == excludeID {
			continue
		}
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepository) UpsertGrant(ctx context.Context, g *userDatamodel.UserPermission) (*userDatamodel.UserPermission, error) {
	key := g.UserID + "/" + g.Permission
	if existing, ok := m.grants[key]; ok {
		existing.ExpiresAt = g.ExpiresAt
		existing.GrantedAt = g.GrantedAt
		existing.GrantedBy = g.GrantedBy
		return existing, nil
	}
	cp := *g
	cp.ID = "g-" + g.Permission
	m.grants[key] = &cp
	return &cp, nil
}

func (m *mockUserRepository) DeleteGrant(ctx context.Context, userID, permission string) error {
	key := userID + "/" + permission
	if _, ok := m.grants[key]; !ok {
		return internal.ErrGrantNotFound
	}
	delete(m.grants, key)
	return nil
}

func (m *mockUserRepository) ListGrants(ctx context.Context, userID string) ([]*userDatamodel.UserPermission, error) {
	var out []*userDatamodel.UserPermission
	for _, g := range m.grants {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

type capturePublisher struct {
	types []string
}

func (p *capturePublisher) Publish(ctx context.Context, event events.Event) error {
	p.types = append(p.types, event.EventType())
	return nil
}

var _ = ginkgo.Describe("UserService", func() {
	var (
		service   *Service
		repo      *mockUserRepository
		publisher *capturePublisher
		now       time.Time
		ctx       context.Context
	)

	ginkgo.BeforeEach(func() {
		now = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
		repo = newMockUserRepository()
		publisher = &capturePublisher{}
		service = NewService(repo, publisher, bcrypt.MinCost, func() time.Time { return now }, logger.Discard())
		ctx = internal.ContextWithUserID(context.Background(), "admin-1")
	})

	validCreate := func() CreateUserDTO {
		return CreateUserDTO{
			Username:  "jdoe",
			Email:     "JDoe@Example.com ",
			Password:  "s3cret-pass",
			FirstName: "Jane",
			LastName:  "Doe",
		}
	}

	ginkgo.Describe("CreateUser", func() {
		ginkgo.It("should hash the password and default the role", func() {
			u, err := service.CreateUser(ctx, validCreate())

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(u.Role).To(gomega.Equal(auth.RoleStaff))
			gomega.Expect(u.Email).To(gomega.Equal("jdoe@example.com"))
			gomega.Expect(u.Name).To(gomega.Equal("Jane Doe"))

			stored := repo.users[u.ID]
			gomega.Expect(bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-pass"))).To(gomega.Succeed())
			gomega.Expect(publisher.types).To(gomega.Equal([]string{events.EventTypeUserCreated}))
		})

		ginkgo.It("should reject a duplicate username with a conflict", func() {
			_, err := service.CreateUser(ctx, validCreate())
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.CreateUser(ctx, validCreate())
			gomega.Expect(internal.KindOf(err)).To(gomega.Equal(internal.ErrorTypeConflict))
		})

		ginkgo.It("should reject an unknown role", func() {
			dto := validCreate()
			dto.Role = "OWNER"

			_, err := service.CreateUser(ctx, dto)
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeValidation))
			gomega.Expect(appErr.GetDetailedMessage()).To(gomega.ContainSubstring("role must be one of"))
		})

		ginkgo.It("should hide store failures behind a generic message", func() {
			repo.err = errors.New("pq: relation users does not exist")

			_, err := service.CreateUser(ctx, validCreate())
			gomega.Expect(internal.Fail[User](err).Error).To(gomega.Equal("failed to fetch users"))
		})
	})

	ginkgo.Describe("UpdateUser", func() {
		ginkgo.It("should only change supplied fields", func() {
			created, err := service.CreateUser(ctx, validCreate())
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			dept := "Logistics"
			updated, err := service.UpdateUser(ctx, created.ID, UpdateUserDTO{Department: &dept})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.Department).To(gomega.Equal("Logistics"))
			gomega.Expect(updated.FirstName).To(gomega.Equal("Jane"))
		})

		ginkgo.It("should return not found for unknown users", func() {
			_, err := service.UpdateUser(ctx, "missing", UpdateUserDTO{})
			gomega.Expect(errors.Is(err, internal.ErrUserNotFound)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("DeactivateUser", func() {
		ginkgo.It("should flag the user inactive instead of deleting", func() {
			created, err := service.CreateUser(ctx, validCreate())
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			u, err := service.DeactivateUser(ctx, created.ID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(u.IsActive).To(gomega.BeFalse())
			gomega.Expect(repo.users).To(gomega.HaveKey(created.ID))
		})

		ginkgo.It("should not let users deactivate themselves", func() {
			repo.users["admin-1"] = &userDatamodel.User{ID: "admin-1", IsActive: true}

			_, err := service.DeactivateUser(ctx, "admin-1")
			gomega.Expect(internal.KindOf(err)).To(gomega.Equal(internal.ErrorTypeValidation))
		})
	})

	ginkgo.Describe("grants", func() {
		var userID string

		ginkgo.BeforeEach(func() {
			created, err := service.CreateUser(ctx, validCreate())
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			userID = created.ID
		})

		ginkgo.It("should record the grantor and expiry", func() {
			expires := now.Add(48 * time.Hour)

			grant, err := service.GrantPermission(ctx, userID, GrantPermissionDTO{Permission: auth.PermStockEntry, ExpiresAt: &expires})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(grant.Active).To(gomega.BeTrue())
			gomega.Expect(*grant.GrantedBy).To(gomega.Equal("admin-1"))
			gomega.Expect(grant.ExpiresAt.Equal(expires)).To(gomega.BeTrue())
		})

		ginkgo.It("should replace the expiry when granted again", func() {
			expires := now.Add(time.Hour)
			_, err := service.GrantPermission(ctx, userID, GrantPermissionDTO{Permission: auth.PermStockEntry, ExpiresAt: &expires})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			grant, err := service.GrantPermission(ctx, userID, GrantPermissionDTO{Permission: auth.PermStockEntry})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(grant.ExpiresAt).To(gomega.BeNil())
			gomega.Expect(repo.grants).To(gomega.HaveLen(1))
		})

		ginkgo.It("should refuse an expiry in the past", func() {
			past := now.Add(-time.Minute)

			_, err := service.GrantPermission(ctx, userID, GrantPermissionDTO{Permission: auth.PermStockEntry, ExpiresAt: &past})
			gomega.Expect(internal.KindOf(err)).To(gomega.Equal(internal.ErrorTypeValidation))
		})

		ginkgo.It("should refuse unknown permission tags", func() {
			_, err := service.GrantPermission(ctx, userID, GrantPermissionDTO{Permission: "rockets:launch"})

			appErr, _ := internal.IsAppError(err)
			gomega.Expect(appErr).ToNot(gomega.BeNil())
			gomega.Expect(appErr.GetDetailedMessage()).To(gomega.ContainSubstring("unknown permission"))
		})

		ginkgo.It("should flag lapsed grants inactive when listed", func() {
			expires := now.Add(time.Hour)
			_, err := service.GrantPermission(ctx, userID, GrantPermissionDTO{Permission: auth.PermStockEntry, ExpiresAt: &expires})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			now = now.Add(2 * time.Hour)
			grants, err := service.ListGrants(ctx, userID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(grants).To(gomega.HaveLen(1))
			gomega.Expect(grants[0].Active).To(gomega.BeFalse())
		})

		ginkgo.It("should report a missing grant on revoke", func() {
			err := service.RevokePermission(ctx, userID, auth.PermAuditView)
			gomega.Expect(errors.Is(err, internal.ErrGrantNotFound)).To(gomega.BeTrue())
		})

		ginkgo.It("should revoke and publish", func() {
			_, err := service.GrantPermission(ctx, userID, GrantPermissionDTO{Permission: auth.PermAuditView})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			gomega.Expect(service.RevokePermission(ctx, userID, auth.PermAuditView)).To(gomega.Succeed())
			gomega.Expect(publisher.types).To(gomega.ContainElement(events.EventTypePermissionRevoked))
		})
	})
})
