package config

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/fooddelivery/order-system/delivery-service/application"
	"github.com/fooddelivery/order-system/delivery-service/handlers"
	"github.com/fooddelivery/order-system/delivery-service/infrastructure"
	"github.com/fooddelivery/order-system/shared/messaging"
	"github.com/fooddelivery/order-system/shared/telemetry"
)

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	DeliveryRepository *infrastructure.PostgresDeliveryRepository

	// Use Cases
	HandleCommand *application.HandleDeliveryCommand
	GetDelivery   *application.GetDelivery

	// HTTP Handlers
	DeliveryHandlers *handlers.DeliveryHandlers

	// Command Handlers
	CommandHandlers *handlers.DeliveryCommandHandlers

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

	deps.DeliveryRepository = infrastructure.NewPostgresDeliveryRepository(db)

	drivers := infrastructure.NewRandomDrivers(config.Delivery.DriverAvailabilityPercent)

	deps.HandleCommand = application.NewHandleDeliveryCommand(deps.DeliveryRepository, drivers, publisher)
	deps.GetDelivery = application.NewGetDelivery(deps.DeliveryRepository)

	deps.DeliveryHandlers = handlers.NewDeliveryHandlers(deps.GetDelivery)
	deps.CommandHandlers = handlers.NewDeliveryCommandHandlers(deps.HandleCommand)

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
