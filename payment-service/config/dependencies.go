package config

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/fooddelivery/order-system/payment-service/application"
	"github.com/fooddelivery/order-system/payment-service/handlers"
	"github.com/fooddelivery/order-system/payment-service/infrastructure"
	"github.com/fooddelivery/order-system/shared/telemetry"
)

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	PaymentRepository *infrastructure.PostgresPaymentRepository

	// Use Cases
	AuthorizePayment *application.AuthorizePayment
	RefundPayment    *application.RefundPayment
	GetPayment       *application.GetPayment

	// HTTP Handlers
	PaymentHandlers *handlers.PaymentHandlers

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

	deps.PaymentRepository = infrastructure.NewPostgresPaymentRepository(db)

	gateway := infrastructure.NewRandomGateway(config.Gateway.ApprovalPercent)

	deps.AuthorizePayment = application.NewAuthorizePayment(deps.PaymentRepository, gateway)
	deps.RefundPayment = application.NewRefundPayment(deps.PaymentRepository)
	deps.GetPayment = application.NewGetPayment(deps.PaymentRepository)

	deps.PaymentHandlers = handlers.NewPaymentHandlers(deps.AuthorizePayment, deps.RefundPayment, deps.GetPayment)

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
