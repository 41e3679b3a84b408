package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/motorline/storefront/internal/domain"
	"github.com/motorline/storefront/pkg/database"
	apperrors "github.com/motorline/storefront/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts a new order with its items and decrements motor stock, all
// within a single transaction. The human-facing order number comes from the
// order_number_seq sequence, zero-padded to six digits.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `SELECT LPAD(nextval('order_number_seq')::text, 6, '0')`).Scan(&o.OrderNumber)
	if err != nil {
		return fmt.Errorf("next order number: %w", err)
	}

	shippingJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}

	orderQuery := `
		INSERT INTO orders (id, order_number, user_id, status, shipping_address, payment_method,
			total_price, is_paid, is_delivered, is_refunded, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = tx.Exec(ctx, orderQuery,
		o.ID,
		o.OrderNumber,
		o.UserID,
		o.Status,
		shippingJSON,
		o.PaymentMethod,
		o.TotalPrice,
		o.IsPaid,
		o.IsDelivered,
		o.IsRefunded,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, motor_id, name, image, price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, item := range o.Items {
		_, err = tx.Exec(ctx, itemQuery,
			item.ID,
			item.OrderID,
			item.MotorID,
			item.Name,
			item.Image,
			item.Price,
			item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	// Reserve stock as part of the same transaction. The decrement is
	// unconditional: stock may go negative and backorders surface as such.
	stockQuery := `
		UPDATE motors
		SET count_in_stock = count_in_stock - $1, updated_at = $2
		WHERE id = $3`

	now := time.Now().UTC()
	for _, item := range o.Items {
		ct, err := tx.Exec(ctx, stockQuery, item.Quantity, now, item.MotorID)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return apperrors.NotFound("motor", item.MotorID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves an order by its ID, eagerly loading its items via a
// single JSONB_AGG query.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT
			o.id, o.order_number, o.user_id, o.status, o.shipping_address, o.payment_method,
			o.payment_result, o.total_price, o.is_paid, o.paid_at, o.is_delivered, o.delivered_at,
			o.is_refunded, o.created_at, o.updated_at,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'id', oi.id,
						'order_id', oi.order_id,
						'motor_id', oi.motor_id,
						'name', oi.name,
						'image', oi.image,
						'price', oi.price,
						'quantity', oi.quantity
					) ORDER BY oi.id
				) FILTER (WHERE oi.id IS NOT NULL),
				'[]'::jsonb
			) AS items
		FROM orders o
		LEFT JOIN order_items oi ON o.id = oi.order_id
		WHERE o.id = $1
		GROUP BY o.id, o.order_number, o.user_id, o.status, o.shipping_address, o.payment_method,
			o.payment_result, o.total_price, o.is_paid, o.paid_at, o.is_delivered, o.delivered_at,
			o.is_refunded, o.created_at, o.updated_at`

	var (
		o            domain.Order
		shippingJSON []byte
		paymentJSON  []byte
		itemsJSON    []byte
	)

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&o.ID,
		&o.OrderNumber,
		&o.UserID,
		&o.Status,
		&shippingJSON,
		&o.PaymentMethod,
		&paymentJSON,
		&o.TotalPrice,
		&o.IsPaid,
		&o.PaidAt,
		&o.IsDelivered,
		&o.DeliveredAt,
		&o.IsRefunded,
		&o.CreatedAt,
		&o.UpdatedAt,
		&itemsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if err := unmarshalOrderJSON(&o, shippingJSON, paymentJSON); err != nil {
		return nil, err
	}

	if len(itemsJSON) > 0 && string(itemsJSON) != "null" && string(itemsJSON) != "[]" {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
	} else {
		o.Items = []domain.OrderItem{}
	}

	return &o, nil
}

// ListByUser returns all orders placed by the given user, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	query := `
		SELECT id, order_number, user_id, status, shipping_address, payment_method,
			payment_result, total_price, is_paid, paid_at, is_delivered, delivered_at,
			is_refunded, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC`

	return r.listOrders(ctx, query, userID)
}

// ListAll returns all orders, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	query := `
		SELECT id, order_number, user_id, status, shipping_address, payment_method,
			payment_result, total_price, is_paid, paid_at, is_delivered, delivered_at,
			is_refunded, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC`

	return r.listOrders(ctx, query)
}

func (r *OrderRepository) listOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var (
			o            domain.Order
			shippingJSON []byte
			paymentJSON  []byte
		)

		if err := rows.Scan(
			&o.ID,
			&o.OrderNumber,
			&o.UserID,
			&o.Status,
			&shippingJSON,
			&o.PaymentMethod,
			&paymentJSON,
			&o.TotalPrice,
			&o.IsPaid,
			&o.PaidAt,
			&o.IsDelivered,
			&o.DeliveredAt,
			&o.IsRefunded,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}

		if err := unmarshalOrderJSON(&o, shippingJSON, paymentJSON); err != nil {
			return nil, err
		}

		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	// Batch-load items for all orders in a single query to avoid N+1.
	if len(orders) > 0 {
		orderIDs := make([]string, len(orders))
		for i := range orders {
			orderIDs[i] = orders[i].ID
		}

		itemsQuery := `
			SELECT id, order_id, motor_id, name, image, price, quantity
			FROM order_items
			WHERE order_id = ANY($1)
			ORDER BY id`

		itemRows, err := r.pool.Query(ctx, itemsQuery, orderIDs)
		if err != nil {
			return nil, fmt.Errorf("batch load order items: %w", err)
		}
		defer itemRows.Close()

		itemsByOrderID := make(map[string][]domain.OrderItem, len(orders))
		for itemRows.Next() {
			var item domain.OrderItem
			if err := itemRows.Scan(
				&item.ID,
				&item.OrderID,
				&item.MotorID,
				&item.Name,
				&item.Image,
				&item.Price,
				&item.Quantity,
			); err != nil {
				return nil, fmt.Errorf("scan order item: %w", err)
			}
			itemsByOrderID[item.OrderID] = append(itemsByOrderID[item.OrderID], item)
		}
		if err := itemRows.Err(); err != nil {
			return nil, fmt.Errorf("iterate batch order item rows: %w", err)
		}

		for i := range orders {
			if items, ok := itemsByOrderID[orders[i].ID]; ok {
				orders[i].Items = items
			} else {
				orders[i].Items = []domain.OrderItem{}
			}
		}
	}

	return orders, nil
}

// MarkPaid records the payment gateway result and moves the order to
// processing.
func (r *OrderRepository) MarkPaid(ctx context.Context, id string, result *domain.PaymentResult) error {
	paymentJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal payment result: %w", err)
	}

	now := time.Now().UTC()
	query := `
		UPDATE orders
		SET is_paid = TRUE, paid_at = $1, status = $2, payment_result = $3, updated_at = $1
		WHERE id = $4`

	ct, err := r.pool.Exec(ctx, query, now, domain.OrderStatusProcessing, paymentJSON, id)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}

	return nil
}

// MarkDelivered sets the delivered flag and timestamp on an order.
func (r *OrderRepository) MarkDelivered(ctx context.Context, id string) error {
	now := time.Now().UTC()
	query := `
		UPDATE orders
		SET is_delivered = TRUE, delivered_at = $1, status = $2, updated_at = $1
		WHERE id = $3`

	ct, err := r.pool.Exec(ctx, query, now, domain.OrderStatusDelivered, id)
	if err != nil {
		return fmt.Errorf("mark order delivered: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}

	return nil
}

// SetStatus overwrites the order status. Moving to cancelled restores the
// ordered stock exactly once; the refund flag guards against double restores.
func (r *OrderRepository) SetStatus(ctx context.Context, id string, status string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var isRefunded bool
	err = tx.QueryRow(ctx, `SELECT is_refunded FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&isRefunded)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("order", id)
		}
		return fmt.Errorf("lock order: %w", err)
	}

	now := time.Now().UTC()

	switch {
	case status == domain.OrderStatusCancelled && !isRefunded:
		if err := restoreOrderStock(ctx, tx, id, now); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE orders SET status = $1, is_refunded = TRUE, updated_at = $2 WHERE id = $3`,
			status, now, id,
		)
	case status == domain.OrderStatusDelivered:
		// Delivered via the status endpoint carries the same side effects as
		// MarkDelivered.
		_, err = tx.Exec(ctx,
			`UPDATE orders SET status = $1, is_delivered = TRUE, delivered_at = $2, updated_at = $2 WHERE id = $3`,
			status, now, id,
		)
	default:
		_, err = tx.Exec(ctx,
			`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
			status, now, id,
		)
	}
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Delete removes an order and its items. Stock is restored first when the
// order was paid and never refunded.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var isPaid, isRefunded bool
	err = tx.QueryRow(ctx, `SELECT is_paid, is_refunded FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&isPaid, &isRefunded)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("order", id)
		}
		return fmt.Errorf("lock order: %w", err)
	}

	if isPaid && !isRefunded {
		if err := restoreOrderStock(ctx, tx, id, time.Now().UTC()); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// restoreOrderStock adds every line-item quantity back to its motor's stock.
func restoreOrderStock(ctx context.Context, tx pgx.Tx, orderID string, now time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE motors m
		SET count_in_stock = m.count_in_stock + oi.quantity, updated_at = $1
		FROM order_items oi
		WHERE oi.order_id = $2 AND oi.motor_id = m.id`,
		now, orderID,
	)
	if err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}
	return nil
}

func unmarshalOrderJSON(o *domain.Order, shippingJSON, paymentJSON []byte) error {
	if len(shippingJSON) > 0 && string(shippingJSON) != "null" {
		if err := json.Unmarshal(shippingJSON, &o.ShippingAddress); err != nil {
			return fmt.Errorf("unmarshal shipping address: %w", err)
		}
	}

	if len(paymentJSON) > 0 && string(paymentJSON) != "null" {
		var result domain.PaymentResult
		if err := json.Unmarshal(paymentJSON, &result); err != nil {
			return fmt.Errorf("unmarshal payment result: %w", err)
		}
		o.PaymentResult = &result
	}

	return nil
}
