package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fooddelivery/order-system/delivery-service/domain"
	"github.com/fooddelivery/order-system/shared/contract"
	"github.com/fooddelivery/order-system/shared/models"
)

type fakeDeliveryRepository struct {
	deliveries map[models.OrderID]*domain.Delivery
	saves      int
}

func newFakeDeliveryRepository() *fakeDeliveryRepository {
	return &fakeDeliveryRepository{deliveries: map[models.OrderID]*domain.Delivery{}}
}

func (r *fakeDeliveryRepository) Save(ctx context.Context, delivery *domain.Delivery) error {
	r.saves++
	snapshot := *delivery
	r.deliveries[delivery.OrderID] = &snapshot
	return nil
}

func (r *fakeDeliveryRepository) FindByOrderID(ctx context.Context, orderID models.OrderID) (*domain.Delivery, error) {
	delivery, ok := r.deliveries[orderID]
	if !ok {
		return nil, nil
	}
	snapshot := *delivery
	return &snapshot, nil
}

type fakePublisher struct {
	published []contract.Message
}

func (p *fakePublisher) Publish(ctx context.Context, msgs ...contract.Message) error {
	p.published = append(p.published, msgs...)
	return nil
}

type staticDrivers struct {
	available bool
}

func (d staticDrivers) DriverAvailable(ctx context.Context, orderID models.OrderID, address models.Address) bool {
	return d.available
}

func scheduleDeliveryCommand(t *testing.T) contract.ScheduleDelivery {
	t.Helper()
	address, err := models.NewAddress("Rua Augusta 123")
	require.NoError(t, err)
	return contract.ScheduleDelivery{
		OrderID:             models.NewOrderID(),
		DeliveryAddress:     address,
		EstimatedPickupTime: time.Now().Add(20 * time.Minute),
		Timestamp:           time.Now(),
	}
}

func TestHandleDeliveryCommand_ScheduleWithDriver(t *testing.T) {
	repo := newFakeDeliveryRepository()
	publisher := &fakePublisher{}
	uc := NewHandleDeliveryCommand(repo, staticDrivers{available: true}, publisher)

	cmd := scheduleDeliveryCommand(t)
	require.NoError(t, uc.Execute(context.Background(), cmd))

	delivery, err := repo.FindByOrderID(context.Background(), cmd.OrderID)
	require.NoError(t, err)
	require.NotNil(t, delivery)
	assert.Equal(t, models.DeliveryStatusDelivered, delivery.Status, "trip is simulated to completion")
	assert.NotNil(t, delivery.DriverID)

	require.Len(t, publisher.published, 3)

	scheduled, ok := publisher.published[0].(contract.DeliveryScheduled)
	require.True(t, ok)
	assert.Equal(t, cmd.OrderID, scheduled.OrderID)
	assert.Equal(t, delivery.ID, scheduled.DeliveryID)
	assert.True(t, scheduled.EstimatedDeliveryTime.After(cmd.EstimatedPickupTime))

	_, ok = publisher.published[1].(contract.DeliveryPickedUp)
	require.True(t, ok)

	completed, ok := publisher.published[2].(contract.DeliveryCompleted)
	require.True(t, ok)
	assert.Equal(t, delivery.ID, completed.DeliveryID)
	assert.False(t, completed.CompletedAt.IsZero())
}

func TestHandleDeliveryCommand_ScheduleWithoutDriver(t *testing.T) {
	repo := newFakeDeliveryRepository()
	publisher := &fakePublisher{}
	uc := NewHandleDeliveryCommand(repo, staticDrivers{available: false}, publisher)

	cmd := scheduleDeliveryCommand(t)
	require.NoError(t, uc.Execute(context.Background(), cmd))

	delivery, err := repo.FindByOrderID(context.Background(), cmd.OrderID)
	require.NoError(t, err)
	require.NotNil(t, delivery)
	assert.Equal(t, models.DeliveryStatusFailed, delivery.Status)

	require.Len(t, publisher.published, 1)
	failed, ok := publisher.published[0].(contract.DeliveryFailed)
	require.True(t, ok)
	assert.Equal(t, "No drivers available in the area", failed.Reason)
}

func TestHandleDeliveryCommand_DuplicateScheduleIgnored(t *testing.T) {
	repo := newFakeDeliveryRepository()
	publisher := &fakePublisher{}
	uc := NewHandleDeliveryCommand(repo, staticDrivers{available: true}, publisher)

	cmd := scheduleDeliveryCommand(t)
	require.NoError(t, uc.Execute(context.Background(), cmd))
	published := len(publisher.published)

	require.NoError(t, uc.Execute(context.Background(), cmd))
	assert.Len(t, publisher.published, published, "redelivered command schedules no second trip")
}

func TestHandleDeliveryCommand_CancelDelivery(t *testing.T) {
	repo := newFakeDeliveryRepository()
	uc := NewHandleDeliveryCommand(repo, staticDrivers{available: true}, &fakePublisher{})

	address, err := models.NewAddress("Rua Augusta 123")
	require.NoError(t, err)
	orderID := models.NewOrderID()
	delivery := domain.NewDelivery(orderID, address, time.Now().Add(20*time.Minute))
	delivery.Schedule(time.Now().Add(time.Hour))
	require.NoError(t, repo.Save(context.Background(), delivery))

	err = uc.Execute(context.Background(), contract.CancelDelivery{
		OrderID:   orderID,
		Reason:    "kitchen rejected",
		Timestamp: time.Now(),
	})
	require.NoError(t, err)

	stored, err := repo.FindByOrderID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusFailed, stored.Status)
	require.NotNil(t, stored.FailureReason)
	assert.Equal(t, "Cancelled: kitchen rejected", *stored.FailureReason)
}

func TestHandleDeliveryCommand_CancelUnknownDeliveryIgnored(t *testing.T) {
	repo := newFakeDeliveryRepository()
	uc := NewHandleDeliveryCommand(repo, staticDrivers{available: true}, &fakePublisher{})

	err := uc.Execute(context.Background(), contract.CancelDelivery{
		OrderID:   models.NewOrderID(),
		Reason:    "kitchen rejected",
		Timestamp: time.Now(),
	})
	assert.NoError(t, err)
	assert.Zero(t, repo.saves)
}

func TestHandleDeliveryCommand_CancelCompletedDeliveryIgnored(t *testing.T) {
	repo := newFakeDeliveryRepository()
	publisher := &fakePublisher{}
	uc := NewHandleDeliveryCommand(repo, staticDrivers{available: true}, publisher)

	cmd := scheduleDeliveryCommand(t)
	require.NoError(t, uc.Execute(context.Background(), cmd))
	savesAfterTrip := repo.saves

	err := uc.Execute(context.Background(), contract.CancelDelivery{
		OrderID:   cmd.OrderID,
		Reason:    "too late",
		Timestamp: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, savesAfterTrip, repo.saves)

	stored, err := repo.FindByOrderID(context.Background(), cmd.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusDelivered, stored.Status)
}

func TestHandleDeliveryCommand_UnexpectedMessage(t *testing.T) {
	uc := NewHandleDeliveryCommand(newFakeDeliveryRepository(), staticDrivers{available: true}, &fakePublisher{})

	err := uc.Execute(context.Background(), contract.DeliveryCompleted{
		EventID:     contract.NewEventID(),
		OrderID:     models.NewOrderID(),
		Timestamp:   time.Now(),
		DeliveryID:  models.NewDeliveryID(),
		CompletedAt: time.Now(),
	})
	assert.Error(t, err)
}
