package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/frahmantamala/warehouse-management/internal/audit"
	auditPostgres "github.com/frahmantamala/warehouse-management/internal/audit/postgres"
	"github.com/frahmantamala/warehouse-management/internal/core/events"
	"github.com/frahmantamala/warehouse-management/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish events through the in-process bus for testing and debugging`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long:  `Publish a test event to the event bus. Auditable types are written to the audit log.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := publishTestEvent(cmd.Context(), args[0]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

var (
	eventData   string
	eventActor  string
	eventEntity string
)

func publishTestEvent(ctx context.Context, eventType string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lg := logger.LoggerWrapper()

	db, err := initDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	gormDB, err := initGorm(db, cfg.Database)
	if err != nil {
		return err
	}

	eventBus := events.NewEventBus(lg)
	audit.NewService(auditPostgres.NewAuditRepository(gormDB), lg).Subscribe(eventBus)
	eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		logger.From(ctx).Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	event := events.NewActivityEvent(eventType, eventActor, "cli", eventEntity, map[string]interface{}{
		"message": eventData,
		"source":  "cli-command",
	})

	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.With(ctx, "command", "event publish", "event_id", event.EventID())
	logger.From(ctx).Info("publishing test event", "event_type", eventType)
	if err := eventBus.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	eventBus.Drain()
	lg.Info("test event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Event data message")
	publishEventCmd.Flags().StringVar(&eventActor, "actor", "", "Actor user id recorded with the event")
	publishEventCmd.Flags().StringVar(&eventEntity, "entity", "", "Entity id recorded with the event")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
