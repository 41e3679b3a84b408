package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/motorline/storefront/internal/domain"
	"github.com/motorline/storefront/internal/repository"
	"github.com/motorline/storefront/pkg/database"
	apperrors "github.com/motorline/storefront/pkg/errors"
)

// MotorRepository implements repository.MotorRepository using PostgreSQL.
type MotorRepository struct {
	pool database.DBTX
}

// NewMotorRepository creates a new PostgreSQL-backed motor repository.
func NewMotorRepository(pool database.DBTX) *MotorRepository {
	return &MotorRepository{pool: pool}
}

const motorColumns = `id, user_id, name, image, images, brand, category, description,
	price, count_in_stock, rating, num_reviews,
	power, weight, dimensions, voltage, rpm, efficiency, fuel_type,
	manufacturer, year_of_manufacture, warranty_months, features,
	created_at, updated_at`

// Create inserts a new motor into the catalog.
func (r *MotorRepository) Create(ctx context.Context, m *domain.Motor) error {
	dimensionsJSON, err := json.Marshal(m.Dimensions)
	if err != nil {
		return fmt.Errorf("marshal dimensions: %w", err)
	}

	query := `
		INSERT INTO motors (id, user_id, name, image, images, brand, category, description,
			price, count_in_stock, rating, num_reviews,
			power, weight, dimensions, voltage, rpm, efficiency, fuel_type,
			manufacturer, year_of_manufacture, warranty_months, features,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`

	_, err = r.pool.Exec(ctx, query,
		m.ID,
		m.UserID,
		m.Name,
		m.Image,
		m.Images,
		m.Brand,
		m.Category,
		m.Description,
		m.Price,
		m.CountInStock,
		m.Rating,
		m.NumReviews,
		m.Power,
		m.Weight,
		dimensionsJSON,
		m.Voltage,
		m.RPM,
		m.Efficiency,
		m.FuelType,
		m.Manufacturer,
		m.YearOfManufacture,
		m.WarrantyMonths,
		m.Features,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert motor: %w", err)
	}

	return nil
}

// GetByID retrieves a motor by its ID.
func (r *MotorRepository) GetByID(ctx context.Context, id string) (*domain.Motor, error) {
	query := fmt.Sprintf(`SELECT %s FROM motors WHERE id = $1`, motorColumns)
	return r.scanMotor(ctx, query, id)
}

// List returns motors matching the given filter with the total count.
func (r *MotorRepository) List(ctx context.Context, filter repository.MotorFilter) ([]domain.Motor, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Keyword != nil {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*filter.Keyword+"%")
		argIndex++
	}

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, *filter.Category)
		argIndex++
	}

	if filter.Brand != nil {
		conditions = append(conditions, fmt.Sprintf("brand = $%d", argIndex))
		args = append(args, *filter.Brand)
		argIndex++
	}

	if filter.Manufacturer != nil {
		conditions = append(conditions, fmt.Sprintf("manufacturer = $%d", argIndex))
		args = append(args, *filter.Manufacturer)
		argIndex++
	}

	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price >= $%d", argIndex))
		args = append(args, *filter.MinPrice)
		argIndex++
	}

	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price <= $%d", argIndex))
		args = append(args, *filter.MaxPrice)
		argIndex++
	}

	if filter.MinPower != nil {
		conditions = append(conditions, fmt.Sprintf("power >= $%d", argIndex))
		args = append(args, *filter.MinPower)
		argIndex++
	}

	if filter.MaxPower != nil {
		conditions = append(conditions, fmt.Sprintf("power <= $%d", argIndex))
		args = append(args, *filter.MaxPower)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Use count(*) OVER() for total count in a single query.
	query := fmt.Sprintf(`
		SELECT %s,
			   count(*) OVER() AS total_count
		FROM motors
		%s
		%s
		LIMIT $%d OFFSET $%d`,
		motorColumns, whereClause, orderClause(filter.SortBy), argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 10
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list motors: %w", err)
	}
	defer rows.Close()

	var (
		motors     []domain.Motor
		totalCount int
	)

	for rows.Next() {
		var (
			m              domain.Motor
			dimensionsJSON []byte
		)

		if err := rows.Scan(
			&m.ID,
			&m.UserID,
			&m.Name,
			&m.Image,
			&m.Images,
			&m.Brand,
			&m.Category,
			&m.Description,
			&m.Price,
			&m.CountInStock,
			&m.Rating,
			&m.NumReviews,
			&m.Power,
			&m.Weight,
			&dimensionsJSON,
			&m.Voltage,
			&m.RPM,
			&m.Efficiency,
			&m.FuelType,
			&m.Manufacturer,
			&m.YearOfManufacture,
			&m.WarrantyMonths,
			&m.Features,
			&m.CreatedAt,
			&m.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan motor row: %w", err)
		}

		if dimensionsJSON != nil {
			if err := json.Unmarshal(dimensionsJSON, &m.Dimensions); err != nil {
				return nil, 0, fmt.Errorf("unmarshal dimensions: %w", err)
			}
		}

		motors = append(motors, m)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate motor rows: %w", err)
	}

	if motors == nil {
		motors = []domain.Motor{}
	}

	return motors, totalCount, nil
}

// orderClause maps a sort key to its ORDER BY clause. Unknown keys fall back
// to newest first.
func orderClause(sortBy string) string {
	switch sortBy {
	case repository.SortPriceAsc:
		return "ORDER BY price ASC"
	case repository.SortPriceDesc:
		return "ORDER BY price DESC"
	case repository.SortRatingDesc:
		return "ORDER BY rating DESC"
	case repository.SortPowerAsc:
		return "ORDER BY power ASC"
	case repository.SortPowerDesc:
		return "ORDER BY power DESC"
	default:
		return "ORDER BY created_at DESC"
	}
}

// Update modifies an existing motor in the database.
func (r *MotorRepository) Update(ctx context.Context, m *domain.Motor) error {
	dimensionsJSON, err := json.Marshal(m.Dimensions)
	if err != nil {
		return fmt.Errorf("marshal dimensions: %w", err)
	}

	m.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE motors
		SET name = $1, image = $2, images = $3, brand = $4, category = $5, description = $6,
		    price = $7, count_in_stock = $8,
		    power = $9, weight = $10, dimensions = $11, voltage = $12, rpm = $13,
		    efficiency = $14, fuel_type = $15, manufacturer = $16,
		    year_of_manufacture = $17, warranty_months = $18, features = $19, updated_at = $20
		WHERE id = $21`

	ct, err := r.pool.Exec(ctx, query,
		m.Name,
		m.Image,
		m.Images,
		m.Brand,
		m.Category,
		m.Description,
		m.Price,
		m.CountInStock,
		m.Power,
		m.Weight,
		dimensionsJSON,
		m.Voltage,
		m.RPM,
		m.Efficiency,
		m.FuelType,
		m.Manufacturer,
		m.YearOfManufacture,
		m.WarrantyMonths,
		m.Features,
		m.UpdatedAt,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("update motor: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("motor", m.ID)
	}

	return nil
}

// Delete removes a motor and its reviews from the database.
func (r *MotorRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM motors WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete motor: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("motor", id)
	}

	return nil
}

// Top returns the highest-rated motors, at most limit of them.
func (r *MotorRepository) Top(ctx context.Context, limit int) ([]domain.Motor, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM motors
		ORDER BY rating DESC, num_reviews DESC
		LIMIT $1`, motorColumns)

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("top motors: %w", err)
	}
	defer rows.Close()

	var motors []domain.Motor
	for rows.Next() {
		var (
			m              domain.Motor
			dimensionsJSON []byte
		)

		if err := rows.Scan(
			&m.ID,
			&m.UserID,
			&m.Name,
			&m.Image,
			&m.Images,
			&m.Brand,
			&m.Category,
			&m.Description,
			&m.Price,
			&m.CountInStock,
			&m.Rating,
			&m.NumReviews,
			&m.Power,
			&m.Weight,
			&dimensionsJSON,
			&m.Voltage,
			&m.RPM,
			&m.Efficiency,
			&m.FuelType,
			&m.Manufacturer,
			&m.YearOfManufacture,
			&m.WarrantyMonths,
			&m.Features,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan motor row: %w", err)
		}

		if dimensionsJSON != nil {
			if err := json.Unmarshal(dimensionsJSON, &m.Dimensions); err != nil {
				return nil, fmt.Errorf("unmarshal dimensions: %w", err)
			}
		}

		motors = append(motors, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate motor rows: %w", err)
	}

	if motors == nil {
		motors = []domain.Motor{}
	}

	return motors, nil
}

// CategoryFacets returns per-category item counts over the whole catalog.
func (r *MotorRepository) CategoryFacets(ctx context.Context) ([]domain.Facet, error) {
	query := `
		SELECT category, COUNT(*) AS count
		FROM motors
		GROUP BY category
		ORDER BY count DESC, category ASC`

	return r.scanFacets(ctx, query)
}

// BrandFacets returns per-brand item counts over the whole catalog.
func (r *MotorRepository) BrandFacets(ctx context.Context) ([]domain.Facet, error) {
	query := `
		SELECT brand, COUNT(*) AS count
		FROM motors
		GROUP BY brand
		ORDER BY count DESC, brand ASC`

	return r.scanFacets(ctx, query)
}

// ManufacturerFacets returns per-manufacturer item counts over the whole catalog.
func (r *MotorRepository) ManufacturerFacets(ctx context.Context) ([]domain.Facet, error) {
	query := `
		SELECT manufacturer, COUNT(*) AS count
		FROM motors
		GROUP BY manufacturer
		ORDER BY count DESC, manufacturer ASC`

	return r.scanFacets(ctx, query)
}

func (r *MotorRepository) scanFacets(ctx context.Context, query string) ([]domain.Facet, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query facets: %w", err)
	}
	defer rows.Close()

	var facets []domain.Facet
	for rows.Next() {
		var f domain.Facet
		if err := rows.Scan(&f.Name, &f.Count); err != nil {
			return nil, fmt.Errorf("scan facet row: %w", err)
		}
		facets = append(facets, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facet rows: %w", err)
	}

	if facets == nil {
		facets = []domain.Facet{}
	}

	return facets, nil
}

// AddReview inserts a review and recomputes the motor's rating and review
// count atomically. One review per user per motor.
func (r *MotorRepository) AddReview(ctx context.Context, review *domain.Review) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM motor_reviews WHERE motor_id = $1 AND user_id = $2)`,
		review.MotorID, review.UserID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check existing review: %w", err)
	}
	if exists {
		return apperrors.AlreadyExists("review", "motor_id", review.MotorID)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO motor_reviews (id, motor_id, user_id, name, rating, comment, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		review.ID,
		review.MotorID,
		review.UserID,
		review.Name,
		review.Rating,
		review.Comment,
		review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	// Recompute the denormalized rating summary on the motor row.
	ct, err := tx.Exec(ctx, `
		UPDATE motors
		SET rating = (SELECT ROUND(AVG(rating)::numeric, 1) FROM motor_reviews WHERE motor_id = $1),
		    num_reviews = (SELECT COUNT(*) FROM motor_reviews WHERE motor_id = $1),
		    updated_at = $2
		WHERE id = $1`,
		review.MotorID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update motor rating: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("motor", review.MotorID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// ListReviews returns all reviews for a motor, newest first.
func (r *MotorRepository) ListReviews(ctx context.Context, motorID string) ([]domain.Review, error) {
	query := `
		SELECT id, motor_id, user_id, name, rating, comment, created_at
		FROM motor_reviews
		WHERE motor_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, motorID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID,
			&rv.MotorID,
			&rv.UserID,
			&rv.Name,
			&rv.Rating,
			&rv.Comment,
			&rv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, nil
}

func (r *MotorRepository) scanMotor(ctx context.Context, query string, args ...any) (*domain.Motor, error) {
	var (
		m              domain.Motor
		dimensionsJSON []byte
	)

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&m.ID,
		&m.UserID,
		&m.Name,
		&m.Image,
		&m.Images,
		&m.Brand,
		&m.Category,
		&m.Description,
		&m.Price,
		&m.CountInStock,
		&m.Rating,
		&m.NumReviews,
		&m.Power,
		&m.Weight,
		&dimensionsJSON,
		&m.Voltage,
		&m.RPM,
		&m.Efficiency,
		&m.FuelType,
		&m.Manufacturer,
		&m.YearOfManufacture,
		&m.WarrantyMonths,
		&m.Features,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan motor: %w", err)
	}

	if dimensionsJSON != nil {
		if err := json.Unmarshal(dimensionsJSON, &m.Dimensions); err != nil {
			return nil, fmt.Errorf("unmarshal dimensions: %w", err)
		}
	}

	return &m, nil
}
