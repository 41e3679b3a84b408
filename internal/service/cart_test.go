package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/motorline/storefront/internal/domain"
	apperrors "github.com/motorline/storefront/pkg/errors"
)

func newTestCartService(repo *mockCartRepository, motors *mockMotorRepository, orders *mockOrderRepository) *CartService {
	orderSvc := newTestOrderService(orders, motors)
	return NewCartService(repo, motors, orderSvc, newTestLogger())
}

// --- GetCart ---

func TestGetCart_Empty(t *testing.T) {
	repo := new(mockCartRepository)
	motors := new(mockMotorRepository)
	orders := new(mockOrderRepository)
	svc := newTestCartService(repo, motors, orders)
	ctx := context.Background()

	repo.On("Get", ctx, "user-1").Return(domain.NewCart("user-1"), nil)

	cart, err := svc.GetCart(ctx, "user-1")

	require.NoError(t, err)
	assert.Equal(t, "user-1", cart.UserID)
	assert.Empty(t, cart.Items)
}

// --- SetItem ---

func TestSetItem_AddsNewItem(t *testing.T) {
	repo := new(mockCartRepository)
	motors := new(mockMotorRepository)
	orders := new(mockOrderRepository)
	svc := newTestCartService(repo, motors, orders)
	ctx := context.Background()

	repo.On("Get", ctx, "user-1").Return(domain.NewCart("user-1"), nil)
	motors.On("GetByID", ctx, "motor-1").Return(testMotor("motor-1", 215000, 10), nil)
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := svc.SetItem(ctx, "user-1", SetItemInput{MotorID: "motor-1", Quantity: 2})

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "motor-1", cart.Items[0].MotorID)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	// The entry snapshots the catalog name and price.
	assert.Equal(t, "AIR-340", cart.Items[0].Name)
	assert.Equal(t, int64(215000), cart.Items[0].Price)
	repo.AssertExpectations(t)
}

func TestSetItem_ClampsToStock(t *testing.T) {
	repo := new(mockCartRepository)
	motors := new(mockMotorRepository)
	orders := new(mockOrderRepository)
	svc := newTestCartService(repo, motors, orders)
	ctx := context.Background()

	repo.On("Get", ctx, "user-1").Return(domain.NewCart("user-1"), nil)
	motors.On("GetByID", ctx, "motor-1").Return(testMotor("motor-1", 215000, 3), nil)
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := svc.SetItem(ctx, "user-1", SetItemInput{MotorID: "motor-1", Quantity: 99})

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestSetItem_ZeroQuantityRemoves(t *testing.T) {
	repo := new(mockCartRepository)
	motors := new(mockMotorRepository)
	orders := new(mockOrderRepository)
	svc := newTestCartService(repo, motors, orders)
	ctx := context.Background()

	existing := &domain.Cart{
		UserID: "user-1",
		Items: []domain.CartItem{
			{MotorID: "motor-1", Name: "AIR-340", Price: 215000, Quantity: 2},
		},
	}
	repo.On("Get", ctx, "user-1").Return(existing, nil)
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := svc.SetItem(ctx, "user-1", SetItemInput{MotorID: "motor-1", Quantity: 0})

	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	motors.AssertNotCalled(t, "GetByID")
}

func TestSetItem_OutOfStockRemoves(t *testing.T) {
	repo := new(mockCartRepository)
	motors := new(mockMotorRepository)
	orders := new(mockOrderRepository)
	svc := newTestCartService(repo, motors, orders)
	ctx := context.Background()

	existing := &domain.Cart{
		UserID: "user-1",
		Items: []domain.CartItem{
			{MotorID: "motor-1", Name: "AIR-340", Price: 215000, Quantity: 1},
		},
	}
	repo.On("Get", ctx, "user-1").Return(existing, nil)
	motors.On("GetByID", ctx, "motor-1").Return(testMotor("motor-1", 215000, 0), nil)
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := svc.SetItem(ctx, "user-1", SetItemInput{MotorID: "motor-1", Quantity: 2})

	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestSetItem_ReplacesExisting(t *testing.T) {
	repo := new(mockCartRepository)
	motors := new(mockMotorRepository)
	orders := new(mockOrderRepository)
	svc := newTestCartService(repo, motors, orders)
	ctx := context.Background()

	existing := &domain.Cart{
		UserID: "user-1",
		Items: []domain.CartItem{
			{MotorID: "motor-1", Name: "AIR-340", Price: 200000, Quantity: 1},
		},
	}
	repo.On("Get", ctx, "user-1").Return(existing, nil)
	motors.On("GetByID", ctx, "motor-1").Return(testMotor("motor-1", 215000, 10), nil)
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := svc.SetItem(ctx, "user-1", SetItemInput{MotorID: "motor-1", Quantity: 5})

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	// The snapshot is refreshed from the catalog, not carried over.
	assert.Equal(t, int64(215000), cart.Items[0].Price)
}

// --- AddItem ---

func TestAddItem_DefaultsToOne(t *testing.T) {
	repo := new(mockCartRepository)
	motors := new(mockMotorRepository)
	orders := new(mockOrderRepository)
	svc := newTestCartService(repo, motors, orders)
	ctx := context.Background()

	repo.On("Get", ctx, "user-1").Return(domain.NewCart("user-1"), nil)
	motors.On("GetByID", ctx, "motor-1").Return(testMotor("motor-1", 215000, 10), nil)
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := svc.AddItem(ctx, "user-1", AddItemInput{MotorID: "motor-1"})

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity)
}

func TestAddItem_MergesWithExisting(t *testing.T) {
	repo := new(mockCartRepository)
	motors := new(mockMotorRepository)
	orders := new(mockOrderRepository)
	svc := newTestCartService(repo, motors, orders)
	ctx := context.Background()

	existing := &domain.Cart{
		UserID: "user-1",
		Items: []domain.CartItem{
			{MotorID: "motor-1", Name: "AIR-340", Price: 215000, Quantity: 2},
		},
	}
	repo.On("Get", ctx, "user-1").Return(existing, nil)
	motors.On("GetByID", ctx, "motor-1").Return(testMotor("motor-1", 215000, 10), nil)
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := svc.AddItem(ctx, "user-1", AddItemInput{MotorID: "motor-1", Quantity: 3})

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestAddItem_RepeatedAddClampsToStock(t *testing.T) {
	repo := new(mockCartRepository)
	motors := new(mockMotorRepository)
	orders := new(mockOrderRepository)
	svc := newTestCartService(repo, motors, orders)
	ctx := context.Background()

	cart := domain.NewCart("user-1")
	repo.On("Get", ctx, "user-1").Return(cart, nil)
	motors.On("GetByID", ctx, "motor-1").Return(testMotor("motor-1", 215000, 3), nil)
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	_, err := svc.AddItem(ctx, "user-1", AddItemInput{MotorID: "motor-1", Quantity: 2})
	require.NoError(t, err)

	// Adding again would exceed the stock ceiling; the quantity clamps to it.
	result, err := svc.AddItem(ctx, "user-1", AddItemInput{MotorID: "motor-1", Quantity: 2})

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, 3, result.Items[0].Quantity)
}

// --- RemoveItem ---

func TestRemoveItem_AbsentIsNoOp(t *testing.T) {
	repo := new(mockCartRepository)
	motors := new(mockMotorRepository)
	orders := new(mockOrderRepository)
	svc := newTestCartService(repo, motors, orders)
	ctx := context.Background()

	repo.On("Get", ctx, "user-1").Return(domain.NewCart("user-1"), nil)

	cart, err := svc.RemoveItem(ctx, "user-1", "motor-9")

	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	repo.AssertNotCalled(t, "Save")
}

// --- Checkout ---

func TestCheckout_EmptyCart(t *testing.T) {
	repo := new(mockCartRepository)
	motors := new(mockMotorRepository)
	orders := new(mockOrderRepository)
	svc := newTestCartService(repo, motors, orders)
	ctx := context.Background()

	repo.On("Get", ctx, "user-1").Return(domain.NewCart("user-1"), nil)

	_, err := svc.Checkout(ctx, "user-1", CheckoutInput{PaymentMethod: "card"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	orders.AssertNotCalled(t, "Create")
}

func TestCheckout_CreatesOrderAndClearsCart(t *testing.T) {
	repo := new(mockCartRepository)
	motors := new(mockMotorRepository)
	orders := new(mockOrderRepository)
	svc := newTestCartService(repo, motors, orders)
	ctx := context.Background()

	existing := &domain.Cart{
		UserID: "user-1",
		Items: []domain.CartItem{
			{MotorID: "motor-1", Name: "AIR-340", Price: 215000, Quantity: 2},
		},
	}
	repo.On("Get", ctx, "user-1").Return(existing, nil)
	motors.On("GetByID", ctx, "motor-1").Return(testMotor("motor-1", 215000, 10), nil)
	orders.On("Create", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)
	repo.On("Delete", ctx, "user-1").Return(nil)

	order, err := svc.Checkout(ctx, "user-1", CheckoutInput{
		ShippingAddress: domain.ShippingAddress{
			Address:    "12 Main St",
			City:       "Springfield",
			PostalCode: "12345",
			Country:    "US",
		},
		PaymentMethod: "card",
	})

	require.NoError(t, err)
	assert.Equal(t, "user-1", order.UserID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, int64(430000), order.TotalPrice)
	repo.AssertExpectations(t)
	orders.AssertExpectations(t)
}

func TestCheckout_CartClearFailureIsNotFatal(t *testing.T) {
	repo := new(mockCartRepository)
	motors := new(mockMotorRepository)
	orders := new(mockOrderRepository)
	svc := newTestCartService(repo, motors, orders)
	ctx := context.Background()

	existing := &domain.Cart{
		UserID: "user-1",
		Items: []domain.CartItem{
			{MotorID: "motor-1", Name: "AIR-340", Price: 215000, Quantity: 1},
		},
	}
	repo.On("Get", ctx, "user-1").Return(existing, nil)
	motors.On("GetByID", ctx, "motor-1").Return(testMotor("motor-1", 215000, 10), nil)
	orders.On("Create", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)
	repo.On("Delete", ctx, "user-1").Return(errors.New("redis down"))

	order, err := svc.Checkout(ctx, "user-1", CheckoutInput{PaymentMethod: "card"})

	// The order exists even though the cart could not be cleared.
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
}
