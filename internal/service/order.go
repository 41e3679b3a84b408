package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/motorline/storefront/internal/domain"
	"github.com/motorline/storefront/internal/event"
	"github.com/motorline/storefront/internal/repository"
	apperrors "github.com/motorline/storefront/pkg/errors"
)

// OrderService implements the business logic for order operations, including
// the stock reconciliation that accompanies each lifecycle step.
type OrderService struct {
	repo     repository.OrderRepository
	motors   repository.MotorRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(repo repository.OrderRepository, motors repository.MotorRepository, producer *event.Producer, logger *slog.Logger) *OrderService {
	return &OrderService{
		repo:     repo,
		motors:   motors,
		producer: producer,
		logger:   logger,
	}
}

// CreateOrderItemInput references a motor and the desired quantity.
type CreateOrderItemInput struct {
	MotorID  string `json:"motor_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderInput holds the parameters for creating an order.
type CreateOrderInput struct {
	Items           []CreateOrderItemInput `json:"items"`
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method" validate:"required"`
}

// CreateOrder creates a new order for the given user. Line items snapshot the
// motor's current name, image, and price; stock is decremented in the same
// transaction as the insert.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, input CreateOrderInput) (*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, apperrors.InvalidInput("order must contain at least one item")
	}

	now := time.Now().UTC()
	orderID := uuid.New().String()

	var total int64
	items := make([]domain.OrderItem, len(input.Items))
	for i, itemInput := range input.Items {
		if itemInput.Quantity <= 0 {
			return nil, apperrors.InvalidInput("item quantity must be positive")
		}

		motor, err := s.motors.GetByID(ctx, itemInput.MotorID)
		if err != nil {
			return nil, fmt.Errorf("get motor for order item: %w", err)
		}

		items[i] = domain.OrderItem{
			ID:       uuid.New().String(),
			OrderID:  orderID,
			MotorID:  motor.ID,
			Name:     motor.Name,
			Image:    motor.Image,
			Price:    motor.Price,
			Quantity: itemInput.Quantity,
		}
		total += items[i].LineTotal()
	}

	order := &domain.Order{
		ID:              orderID,
		UserID:          userID,
		Status:          domain.OrderStatusPending,
		Items:           items,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		TotalPrice:      total,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
		slog.String("user_id", order.UserID),
		slog.Int64("total_price", order.TotalPrice),
	)

	return order, nil
}

// GetOrder retrieves an order. Non-admin requesters may only read their own
// orders.
func (s *OrderService) GetOrder(ctx context.Context, id, requesterID string, isAdmin bool) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order by id: %w", err)
	}

	if order.UserID != requesterID && !isAdmin {
		return nil, apperrors.Forbidden("order belongs to another user")
	}

	return order, nil
}

// ListMyOrders returns all orders placed by the given user, newest first.
func (s *OrderService) ListMyOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	return orders, nil
}

// ListAllOrders returns every order, newest first.
func (s *OrderService) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all orders: %w", err)
	}
	return orders, nil
}

// PaymentResultInput holds the payment gateway response fields.
type PaymentResultInput struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address"`
}

// MarkPaid records a payment against an order and moves it to processing.
// Non-admin requesters may only pay their own orders.
func (s *OrderService) MarkPaid(ctx context.Context, id, requesterID string, isAdmin bool, input PaymentResultInput) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for payment: %w", err)
	}

	if order.UserID != requesterID && !isAdmin {
		return nil, apperrors.Forbidden("order belongs to another user")
	}

	result := &domain.PaymentResult{
		ID:           input.ID,
		Status:       input.Status,
		UpdateTime:   input.UpdateTime,
		EmailAddress: input.EmailAddress,
	}

	oldStatus := order.Status

	if err := s.repo.MarkPaid(ctx, id, result); err != nil {
		return nil, fmt.Errorf("mark order paid: %w", err)
	}

	if err := s.producer.PublishOrderStatusChanged(ctx, id, oldStatus, domain.OrderStatusProcessing); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order paid",
		slog.String("order_id", id),
		slog.String("payment_id", input.ID),
	)

	return s.repo.GetByID(ctx, id)
}

// MarkDelivered sets the delivered flag on an order.
func (s *OrderService) MarkDelivered(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for delivery: %w", err)
	}

	oldStatus := order.Status

	if err := s.repo.MarkDelivered(ctx, id); err != nil {
		return nil, fmt.Errorf("mark order delivered: %w", err)
	}

	if err := s.producer.PublishOrderStatusChanged(ctx, id, oldStatus, domain.OrderStatusDelivered); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order delivered",
		slog.String("order_id", id),
	)

	return s.repo.GetByID(ctx, id)
}

// SetStatus overwrites the order status. Moving to cancelled restores stock
// exactly once.
func (s *OrderService) SetStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	if !domain.IsValidOrderStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: %s",
			status, strings.Join(domain.ValidOrderStatuses(), ", ")))
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for status update: %w", err)
	}

	oldStatus := order.Status

	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("set order status: %w", err)
	}

	if err := s.producer.PublishOrderStatusChanged(ctx, id, oldStatus, status); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	if status == domain.OrderStatusCancelled {
		if err := s.producer.PublishOrderCancelled(ctx, id, !order.IsRefunded); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish order.cancelled event",
				slog.String("order_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", id),
		slog.String("old_status", oldStatus),
		slog.String("new_status", status),
	)

	return s.repo.GetByID(ctx, id)
}

// DeleteOrder removes an order. Paid, unrefunded orders have their stock
// restored before removal.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	s.logger.InfoContext(ctx, "order deleted",
		slog.String("order_id", id),
	)

	return nil
}
