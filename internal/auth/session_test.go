package auth

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/warehouse-management/internal"
	userDatamodel "github.com/frahmantamala/warehouse-management/internal/core/datamodel/user"
	"github.com/frahmantamala/warehouse-management/pkg/logger"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Session enrichment", func() {
	var (
		repo     *mockAuthRepository
		enricher *Enricher
		now      time.Time
	)

	ginkgo.BeforeEach(func() {
		now = time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local)
		repo = newMockAuthRepository()
		enricher = NewEnricher(repo, func() time.Time { return now }, logger.Discard())
	})

	ginkgo.Describe("Enrich", func() {
		ginkgo.It("should keep grants without expiry and drop grants that expired yesterday", func() {
			yesterday := now.AddDate(0, 0, -1)
			repo.users["u-1"] = &userDatamodel.User{
				ID: "u-1", Username: "jdoe", IsActive: true,
				Permissions: []userDatamodel.UserPermission{
					{ID: "g-1", Permission: "EDIT"},
					{ID: "g-2", Permission: "DELETE", ExpiresAt: &yesterday},
				},
			}

			session, found, err := enricher.Enrich(context.Background(), Session{UserID: "u-1"}, TriggerRefresh)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(found).To(gomega.BeTrue())
			gomega.Expect(session.Permissions).To(gomega.HaveLen(1))
			gomega.Expect(session.Permissions[0].Permission).To(gomega.Equal("EDIT"))
			gomega.Expect(session.Permissions[0].ID).To(gomega.Equal("g-1"))
			gomega.Expect(session.Permissions[0].ExpiresAt).To(gomega.BeNil())
		})

		ginkgo.It("should treat a grant expiring exactly now as expired", func() {
			exact := now
			later := now.Add(time.Second)
			repo.users["u-1"] = &userDatamodel.User{
				ID: "u-1", IsActive: true,
				Permissions: []userDatamodel.UserPermission{
					{ID: "g-1", Permission: "EXACT", ExpiresAt: &exact},
					{ID: "g-2", Permission: "LATER", ExpiresAt: &later},
				},
			}

			session, _, err := enricher.Enrich(context.Background(), Session{UserID: "u-1"}, TriggerRefresh)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(session.PermissionNames()).To(gomega.Equal([]string{"LATER"}))
		})

		ginkgo.It("should return the token unchanged when the user does not exist", func() {
			token := Session{UserID: "missing", Username: "ghost", Role: RoleViewer}

			session, found, err := enricher.Enrich(context.Background(), token, TriggerRefresh)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(found).To(gomega.BeFalse())
			gomega.Expect(session).To(gomega.Equal(token))
		})

		ginkgo.It("should return the token unchanged on sign-in of a missing user", func() {
			token := Session{UserID: "missing"}

			session, found, err := enricher.Enrich(context.Background(), token, TriggerSignIn)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(found).To(gomega.BeFalse())
			gomega.Expect(session).To(gomega.Equal(token))
		})

		ginkgo.It("should only write last login on sign-in", func() {
			repo.users["u-1"] = &userDatamodel.User{ID: "u-1", IsActive: true}

			_, _, err := enricher.Enrich(context.Background(), Session{UserID: "u-1"}, TriggerRefresh)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(repo.touched).To(gomega.BeEmpty())

			session, _, err := enricher.Enrich(context.Background(), Session{UserID: "u-1"}, TriggerSignIn)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(repo.touched).To(gomega.Equal([]string{"u-1"}))
			gomega.Expect(session.LastLoginAt).ToNot(gomega.BeNil())
		})

		ginkgo.It("should fail with a generic fetch error when the store fails", func() {
			repo.touchErr = errors.New("disk full")

			_, _, err := enricher.Enrich(context.Background(), Session{UserID: "u-1"}, TriggerSignIn)

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeFetchFailed))
			gomega.Expect(appErr.Message).ToNot(gomega.ContainSubstring("disk full"))
		})

		ginkgo.It("should not touch the store for an empty subject", func() {
			_, found, err := enricher.Enrich(context.Background(), Session{}, TriggerSignIn)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(found).To(gomega.BeFalse())
			gomega.Expect(repo.callSequence).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("DisplayName", func() {
		ginkgo.It("should prefer the trimmed full name", func() {
			gomega.Expect(DisplayName("Jane", "Doe", "jdoe")).To(gomega.Equal("Jane Doe"))
			gomega.Expect(DisplayName("Jane", "", "jdoe")).To(gomega.Equal("Jane"))
			gomega.Expect(DisplayName("", "Doe", "jdoe")).To(gomega.Equal("Doe"))
		})

		ginkgo.It("should fall back to the username", func() {
			gomega.Expect(DisplayName("  ", "", "jdoe")).To(gomega.Equal("jdoe"))
		})

		ginkgo.It("should fall back to the placeholder", func() {
			gomega.Expect(DisplayName("", "", "")).To(gomega.Equal(DisplayNamePlaceholder))
		})
	})

	ginkgo.Describe("WithoutExpired", func() {
		ginkgo.It("should keep open-ended and future grants", func() {
			past := now.Add(-time.Minute)
			future := now.Add(time.Minute)
			s := Session{Permissions: []ActivePermission{
				{Permission: "A"},
				{Permission: "B", ExpiresAt: &past},
				{Permission: "C", ExpiresAt: &future},
			}}

			gomega.Expect(s.WithoutExpired(now).PermissionNames()).To(gomega.Equal([]string{"A", "C"}))
			gomega.Expect(s.Permissions).To(gomega.HaveLen(3))
		})
	})
})
