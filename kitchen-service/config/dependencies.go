package config

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/fooddelivery/order-system/kitchen-service/application"
	"github.com/fooddelivery/order-system/kitchen-service/handlers"
	"github.com/fooddelivery/order-system/kitchen-service/infrastructure"
	"github.com/fooddelivery/order-system/shared/messaging"
	"github.com/fooddelivery/order-system/shared/telemetry"
)

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	TicketRepository *infrastructure.PostgresTicketRepository

	// Use Cases
	HandleCommand *application.HandleKitchenCommand
	GetTicket     *application.GetTicket

	// HTTP Handlers
	TicketHandlers *handlers.TicketHandlers

	// Command Handlers
	CommandHandlers *handlers.KitchenCommandHandlers

	// Infrastructure
	Publisher  *messaging.SNSPublisher
	Subscriber *messaging.SQSSubscriber

	// Telemetry
	Telemetry         *telemetry.Telemetry
	TelemetryShutdown func()
}

func BuildDependencies(ctx context.Context, config *Config) (*Dependencies, error) {
	deps := &Dependencies{}

	tel, telShutdown, err := telemetry.InitTelemetry(ctx, telemetry.NewConfigForService(
		config.ServiceName, "1.0.0", getEnv("OTLP_ENDPOINT", "localhost:4318"),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to init telemetry: %w", err)
	}
	deps.Telemetry = tel
	deps.TelemetryShutdown = telShutdown

	db, err := sqlx.Connect("postgres", config.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	deps.DB = db

	publisher, err := messaging.NewSNSPublisherFromEnv(ctx, config.AWS.SNSTopicArn)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create SNS publisher: %w", err)
	}
	deps.Publisher = publisher

	deps.TicketRepository = infrastructure.NewPostgresTicketRepository(db)

	availability := infrastructure.NewRandomAvailability(config.Kitchen.AcceptancePercent)

	deps.HandleCommand = application.NewHandleKitchenCommand(deps.TicketRepository, availability, publisher)
	deps.GetTicket = application.NewGetTicket(deps.TicketRepository)

	deps.TicketHandlers = handlers.NewTicketHandlers(deps.GetTicket)
	deps.CommandHandlers = handlers.NewKitchenCommandHandlers(deps.HandleCommand)

	subscriber, err := messaging.NewSQSSubscriberFromEnv(ctx, config.AWS.SQSQueueURL, deps.CommandHandlers)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create SQS subscriber: %w", err)
	}
	deps.Subscriber = subscriber

	return deps, nil
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	if d.TelemetryShutdown != nil {
		d.TelemetryShutdown()
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}
