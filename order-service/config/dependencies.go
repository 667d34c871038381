package config

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/fooddelivery/order-system/order-service/application"
	"github.com/fooddelivery/order-system/order-service/handlers"
	"github.com/fooddelivery/order-system/order-service/infrastructure"
	"github.com/fooddelivery/order-system/shared/messaging"
	"github.com/fooddelivery/order-system/shared/telemetry"
)

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	OrderRepository *infrastructure.PostgresOrderRepository

	// Use Cases
	InitiateOrder       *application.InitiateOrderSaga
	GetOrder            *application.GetOrder
	HandleKitchenEvent  *application.HandleKitchenEvent
	HandleDeliveryEvent *application.HandleDeliveryEvent

	// HTTP Handlers
	OrderHandlers *handlers.OrderHandlers

	// Event Handlers
	SagaEventHandlers *handlers.SagaEventHandlers

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

	paymentClient := infrastructure.NewHTTPPaymentClient(
		config.Payment.BaseURL,
		time.Duration(config.Payment.TimeoutSeconds)*time.Second,
	)

	deps.OrderRepository = infrastructure.NewPostgresOrderRepository(db)

	deps.InitiateOrder = application.NewInitiateOrderSaga(deps.OrderRepository, paymentClient, publisher)
	deps.GetOrder = application.NewGetOrder(deps.OrderRepository)
	deps.HandleKitchenEvent = application.NewHandleKitchenEvent(deps.OrderRepository, paymentClient, publisher)
	deps.HandleDeliveryEvent = application.NewHandleDeliveryEvent(deps.OrderRepository, paymentClient, publisher)

	deps.OrderHandlers = handlers.NewOrderHandlers(deps.InitiateOrder, deps.GetOrder)
	deps.SagaEventHandlers = handlers.NewSagaEventHandlers(deps.HandleKitchenEvent, deps.HandleDeliveryEvent)

	subscriber, err := messaging.NewSQSSubscriberFromEnv(ctx, config.AWS.SQSQueueURL, deps.SagaEventHandlers)
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
