package repository

import (
	"context"

	"github.com/motorline/storefront/internal/domain"
)

// Catalog sort orders.
const (
	SortPriceAsc   = "price_asc"
	SortPriceDesc  = "price_desc"
	SortRatingDesc = "rating_desc"
	SortPowerAsc   = "power_asc"
	SortPowerDesc  = "power_desc"
	SortNewest     = "newest"
)

// MotorFilter defines filter criteria for listing catalog motors. Keyword
// matches name or description case-insensitively.
type MotorFilter struct {
	Keyword      *string
	Category     *string
	Brand        *string
	Manufacturer *string
	MinPrice     *int64
	MaxPrice     *int64
	MinPower     *int
	MaxPower     *int
	SortBy       string
	Page         int
	PerPage      int
}

// MotorRepository defines the interface for motor catalog persistence.
type MotorRepository interface {
	// Create inserts a new motor into the catalog.
	Create(ctx context.Context, motor *domain.Motor) error

	// GetByID retrieves a motor by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Motor, error)

	// List returns motors matching the given filter along with the total count.
	List(ctx context.Context, filter MotorFilter) ([]domain.Motor, int, error)

	// Update persists changes to an existing motor.
	Update(ctx context.Context, motor *domain.Motor) error

	// Delete removes a motor and its reviews.
	Delete(ctx context.Context, id string) error

	// Top returns the highest-rated motors, at most limit of them.
	Top(ctx context.Context, limit int) ([]domain.Motor, error)

	// CategoryFacets returns per-category item counts over the whole catalog.
	CategoryFacets(ctx context.Context) ([]domain.Facet, error)

	// BrandFacets returns per-brand item counts over the whole catalog.
	BrandFacets(ctx context.Context) ([]domain.Facet, error)

	// ManufacturerFacets returns per-manufacturer item counts over the whole catalog.
	ManufacturerFacets(ctx context.Context) ([]domain.Facet, error)

	// AddReview inserts a review and recomputes the motor's rating and review
	// count atomically. Returns ErrAlreadyExists when the user has already
	// reviewed the motor.
	AddReview(ctx context.Context, review *domain.Review) error

	// ListReviews returns all reviews for a motor, newest first.
	ListReviews(ctx context.Context, motorID string) ([]domain.Review, error)
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Create inserts a new order with its items and decrements the stock of
	// every ordered motor, all within a single transaction. The order number
	// is assigned from a database sequence.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by its unique identifier, including items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// ListByUser returns all orders placed by the given user, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)

	// ListAll returns all orders, newest first.
	ListAll(ctx context.Context) ([]domain.Order, error)

	// MarkPaid records a payment result and moves the order to processing.
	MarkPaid(ctx context.Context, id string, result *domain.PaymentResult) error

	// MarkDelivered sets the delivered flag and timestamp.
	MarkDelivered(ctx context.Context, id string) error

	// SetStatus overwrites the order status. Moving to cancelled restores the
	// ordered stock exactly once; the refund flag guards re-runs.
	SetStatus(ctx context.Context, id string, status string) error

	// Delete removes an order and its items. Stock is restored first when the
	// order was paid and not yet refunded.
	Delete(ctx context.Context, id string) error
}

// UserRepository defines the interface for user account persistence.
type UserRepository interface {
	// Create inserts a new user. Returns ErrAlreadyExists when the email is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns all users, oldest first.
	List(ctx context.Context) ([]domain.User, error)

	// Update persists changes to an existing user.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user.
	Delete(ctx context.Context, id string) error
}

// CartRepository defines the interface for server-side cart storage.
type CartRepository interface {
	// Get retrieves the user's cart. A missing or unreadable entry yields an
	// empty cart rather than an error.
	Get(ctx context.Context, userID string) (*domain.Cart, error)

	// Save persists the full cart, replacing any previous state.
	Save(ctx context.Context, cart *domain.Cart) error

	// Delete removes the user's cart.
	Delete(ctx context.Context, userID string) error
}
