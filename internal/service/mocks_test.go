package service

import (
	"context"
	"log/slog"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/motorline/storefront/internal/domain"
	"github.com/motorline/storefront/internal/event"
	"github.com/motorline/storefront/internal/repository"
	pkgkafka "github.com/motorline/storefront/pkg/kafka"
)

// --- Mock Motor Repository ---

type mockMotorRepository struct {
	mock.Mock
}

func (m *mockMotorRepository) Create(ctx context.Context, motor *domain.Motor) error {
	args := m.Called(ctx, motor)
	return args.Error(0)
}

func (m *mockMotorRepository) GetByID(ctx context.Context, id string) (*domain.Motor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Motor), args.Error(1)
}

func (m *mockMotorRepository) List(ctx context.Context, filter repository.MotorFilter) ([]domain.Motor, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Motor), args.Int(1), args.Error(2)
}

func (m *mockMotorRepository) Update(ctx context.Context, motor *domain.Motor) error {
	args := m.Called(ctx, motor)
	return args.Error(0)
}

func (m *mockMotorRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockMotorRepository) Top(ctx context.Context, limit int) ([]domain.Motor, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.Motor), args.Error(1)
}

func (m *mockMotorRepository) CategoryFacets(ctx context.Context) ([]domain.Facet, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Facet), args.Error(1)
}

func (m *mockMotorRepository) BrandFacets(ctx context.Context) ([]domain.Facet, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Facet), args.Error(1)
}

func (m *mockMotorRepository) ManufacturerFacets(ctx context.Context) ([]domain.Facet, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Facet), args.Error(1)
}

func (m *mockMotorRepository) AddReview(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockMotorRepository) ListReviews(ctx context.Context, motorID string) ([]domain.Review, error) {
	args := m.Called(ctx, motorID)
	return args.Get(0).([]domain.Review), args.Error(1)
}

// --- Mock Order Repository ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderRepository) MarkPaid(ctx context.Context, id string, result *domain.PaymentResult) error {
	args := m.Called(ctx, id, result)
	return args.Error(0)
}

func (m *mockOrderRepository) MarkDelivered(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOrderRepository) SetStatus(ctx context.Context, id string, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockOrderRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock Cart Repository ---

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestProducer() *event.Producer {
	logger := newTestLogger()
	// Create a Kafka producer that will fail silently in tests (no real broker).
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}
