package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/motorline/storefront/internal/domain"
	"github.com/motorline/storefront/internal/repository"
	apperrors "github.com/motorline/storefront/pkg/errors"
)

// CartService implements the server-side shopping cart and checkout.
type CartService struct {
	repo   repository.CartRepository
	motors repository.MotorRepository
	orders *OrderService
	logger *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, motors repository.MotorRepository, orders *OrderService, logger *slog.Logger) *CartService {
	return &CartService{
		repo:   repo,
		motors: motors,
		orders: orders,
		logger: logger,
	}
}

// GetCart retrieves the user's cart, which is empty when nothing has been
// added yet.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

// SetItemInput holds the parameters for placing an item in the cart.
type SetItemInput struct {
	MotorID  string `json:"motor_id" validate:"required,uuid"`
	Quantity int    `json:"quantity"`
}

// SetItem sets the quantity of a motor in the cart. The quantity is clamped
// to the available stock; zero or negative removes the item. The motor's
// name, image, and price are snapshotted into the cart entry.
func (s *CartService) SetItem(ctx context.Context, userID string, input SetItemInput) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	if input.Quantity <= 0 {
		return s.removeItem(ctx, cart, input.MotorID)
	}

	return s.placeItem(ctx, cart, input.MotorID, input.Quantity)
}

// AddItemInput holds the parameters for adding a motor to the cart.
type AddItemInput struct {
	MotorID  string `json:"motor_id" validate:"required,uuid"`
	Quantity int    `json:"quantity"`
}

// AddItem adds a motor to the cart, merging with any existing entry. The
// resulting quantity is clamped to the available stock. A missing quantity
// defaults to one.
func (s *CartService) AddItem(ctx context.Context, userID string, input AddItemInput) (*domain.Cart, error) {
	quantity := input.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	if idx := cart.FindItemIndex(input.MotorID); idx >= 0 {
		quantity += cart.Items[idx].Quantity
	}

	return s.placeItem(ctx, cart, input.MotorID, quantity)
}

// placeItem snapshots the motor into the cart at the given quantity, clamped
// to the available stock, and persists the cart.
func (s *CartService) placeItem(ctx context.Context, cart *domain.Cart, motorID string, quantity int) (*domain.Cart, error) {
	motor, err := s.motors.GetByID(ctx, motorID)
	if err != nil {
		return nil, fmt.Errorf("get motor for cart: %w", err)
	}

	if quantity > motor.CountInStock {
		quantity = motor.CountInStock
	}
	if quantity <= 0 {
		return s.removeItem(ctx, cart, motorID)
	}

	item := domain.CartItem{
		MotorID:  motor.ID,
		Name:     motor.Name,
		Image:    motor.Image,
		Price:    motor.Price,
		Quantity: quantity,
	}

	if idx := cart.FindItemIndex(motor.ID); idx >= 0 {
		cart.Items[idx] = item
	} else {
		cart.Items = append(cart.Items, item)
	}

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	s.logger.DebugContext(ctx, "cart item set",
		slog.String("user_id", cart.UserID),
		slog.String("motor_id", motor.ID),
		slog.Int("quantity", quantity),
	)

	return cart, nil
}

// RemoveItem removes a motor from the cart. Removing an absent item is a
// no-op.
func (s *CartService) RemoveItem(ctx context.Context, userID, motorID string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	return s.removeItem(ctx, cart, motorID)
}

func (s *CartService) removeItem(ctx context.Context, cart *domain.Cart, motorID string) (*domain.Cart, error) {
	idx := cart.FindItemIndex(motorID)
	if idx < 0 {
		return cart, nil
	}

	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	return cart, nil
}

// ClearCart removes the user's cart entirely.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	s.logger.DebugContext(ctx, "cart cleared",
		slog.String("user_id", userID),
	)

	return nil
}

// CheckoutInput holds the shipping and payment details for turning the cart
// into an order.
type CheckoutInput struct {
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method" validate:"required"`
}

// Checkout turns the user's cart into an order and clears the cart. An empty
// cart cannot be checked out.
func (s *CartService) Checkout(ctx context.Context, userID string, input CheckoutInput) (*domain.Order, error) {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart for checkout: %w", err)
	}

	if len(cart.Items) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	items := make([]CreateOrderItemInput, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CreateOrderItemInput{
			MotorID:  item.MotorID,
			Quantity: item.Quantity,
		}
	}

	order, err := s.orders.CreateOrder(ctx, userID, CreateOrderInput{
		Items:           items,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear cart after checkout",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		// The order exists; a stale cart is recoverable.
	}

	s.logger.InfoContext(ctx, "checkout completed",
		slog.String("user_id", userID),
		slog.String("order_id", order.ID),
	)

	return order, nil
}
