package events_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/frahmantamala/warehouse-management/internal/core/events"
	"github.com/frahmantamala/warehouse-management/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

var _ = Describe("EventBus", func() {
	var bus *events.EventBus

	BeforeEach(func() {
		bus = events.NewEventBus(logger.Discard())
	})

	It("should deliver to every handler of the type", func() {
		var calls int32
		handler := func(ctx context.Context, event events.Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		}
		bus.Subscribe(events.EventTypeAdjusted, handler)
		bus.Subscribe(events.EventTypeAdjusted, handler)
		bus.Subscribe(events.EventTypeUserCreated, handler)

		Expect(bus.Publish(context.Background(), events.NewActivityEvent(events.EventTypeAdjusted, "u", "adjustment", "a", nil))).To(Succeed())
		bus.Drain()
		Expect(atomic.LoadInt32(&calls)).To(Equal(int32(2)))
	})

	It("should run handlers after the publishing context is cancelled", func() {
		done := make(chan error, 1)
		bus.Subscribe(events.EventTypeUserSignedIn, func(ctx context.Context, event events.Event) error {
			done <- ctx.Err()
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Expect(bus.Publish(ctx, events.NewActivityEvent(events.EventTypeUserSignedIn, "u", "user", "u", nil))).To(Succeed())
		Eventually(done).Should(Receive(BeNil()))
	})

	It("should surface handler errors from PublishSync", func() {
		bus.SubscribeAll([]string{events.EventTypeSettingsUpdated}, func(ctx context.Context, event events.Event) error {
			return errors.New("disk full")
		})
		err := bus.PublishSync(context.Background(), events.NewActivityEvent(events.EventTypeSettingsUpdated, "", "settings", "app", nil))
		Expect(err).To(MatchError(ContainSubstring("disk full")))
	})

	It("should accept events nobody listens to", func() {
		Expect(bus.Publish(context.Background(), events.NewActivityEvent("unknown.event", "", "x", "y", nil))).To(Succeed())
		Expect(bus.PublishSync(context.Background(), events.NewActivityEvent("unknown.event", "", "x", "y", nil))).To(Succeed())
	})

	It("should default nil details to an empty payload", func() {
		event := events.NewActivityEvent(events.EventTypeUserCreated, "admin", "user", "u-1", nil)
		Expect(event.Payload()).To(Equal(map[string]interface{}{}))
		Expect(event.EventID()).NotTo(BeEmpty())
	})

	It("should report a panicking handler as a failure", func() {
		bus.Subscribe(events.EventTypeAdjusted, func(ctx context.Context, event events.Event) error {
			panic("boom")
		})
		err := bus.PublishSync(context.Background(), events.NewActivityEvent(events.EventTypeAdjusted, "", "adjustment", "a", nil))
		Expect(err).To(MatchError(ContainSubstring("handler panic: boom")))

		Expect(bus.Publish(context.Background(), events.NewActivityEvent(events.EventTypeAdjusted, "", "adjustment", "a", nil))).To(Succeed())
		bus.Drain()
	})
})
