package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/motorline/storefront/internal/domain"
	"github.com/motorline/storefront/internal/repository"
	apperrors "github.com/motorline/storefront/pkg/errors"
)

// DefaultPageSize is the catalog page size.
const DefaultPageSize = 10

// TopMotorsLimit caps the carousel of highest-rated motors.
const TopMotorsLimit = 5

// CatalogService implements the business logic for the motor catalog and its
// reviews.
type CatalogService struct {
	repo   repository.MotorRepository
	logger *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(repo repository.MotorRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:   repo,
		logger: logger,
	}
}

// ListMotors returns a filtered, paginated page of the catalog with the total
// count.
func (s *CatalogService) ListMotors(ctx context.Context, filter repository.MotorFilter) ([]domain.Motor, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = DefaultPageSize
	}

	if filter.Category != nil && !domain.IsValidCategory(*filter.Category) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid category %q, must be one of: %s",
			*filter.Category, strings.Join(domain.ValidCategories(), ", ")))
	}

	motors, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list motors: %w", err)
	}

	return motors, total, nil
}

// GetMotor retrieves a motor by its ID.
func (s *CatalogService) GetMotor(ctx context.Context, id string) (*domain.Motor, error) {
	motor, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get motor by id: %w", err)
	}
	return motor, nil
}

// CreateMotor inserts a placeholder motor owned by the given admin. The
// created row is meant to be edited immediately via UpdateMotor.
func (s *CatalogService) CreateMotor(ctx context.Context, userID string) (*domain.Motor, error) {
	now := time.Now().UTC()
	motor := &domain.Motor{
		ID:           uuid.New().String(),
		UserID:       userID,
		Name:         "Sample name",
		Image:        "/images/sample.jpg",
		Brand:        "Sample brand",
		Category:     domain.CategoryOther,
		Description:  "Sample description",
		Price:        0,
		CountInStock: 0,
		Manufacturer: "Sample manufacturer",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, motor); err != nil {
		return nil, fmt.Errorf("create motor: %w", err)
	}

	s.logger.InfoContext(ctx, "motor created",
		slog.String("motor_id", motor.ID),
		slog.String("user_id", userID),
	)

	return motor, nil
}

// UpdateMotorInput holds the editable fields of a motor.
type UpdateMotorInput struct {
	Name              string            `json:"name" validate:"required"`
	Image             string            `json:"image"`
	Images            []string          `json:"images"`
	Brand             string            `json:"brand" validate:"required"`
	Category          string            `json:"category" validate:"required"`
	Description       string            `json:"description"`
	Price             int64             `json:"price" validate:"gte=0"`
	CountInStock      int               `json:"count_in_stock" validate:"gte=0"`
	Power             int               `json:"power" validate:"gte=0"`
	Weight            int               `json:"weight" validate:"gte=0"`
	Dimensions        domain.Dimensions `json:"dimensions"`
	Voltage           int               `json:"voltage"`
	RPM               int               `json:"rpm"`
	Efficiency        int               `json:"efficiency" validate:"gte=0,lte=100"`
	FuelType          string            `json:"fuel_type"`
	Manufacturer      string            `json:"manufacturer"`
	YearOfManufacture int               `json:"year_of_manufacture"`
	WarrantyMonths    int               `json:"warranty_months" validate:"gte=0"`
	Features          []string          `json:"features"`
}

// UpdateMotor applies the given input to an existing motor.
func (s *CatalogService) UpdateMotor(ctx context.Context, id string, input UpdateMotorInput) (*domain.Motor, error) {
	if !domain.IsValidCategory(input.Category) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid category %q, must be one of: %s",
			input.Category, strings.Join(domain.ValidCategories(), ", ")))
	}

	motor, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get motor for update: %w", err)
	}

	motor.Name = input.Name
	motor.Image = input.Image
	motor.Images = input.Images
	motor.Brand = input.Brand
	motor.Category = input.Category
	motor.Description = input.Description
	motor.Price = input.Price
	motor.CountInStock = input.CountInStock
	motor.Power = input.Power
	motor.Weight = input.Weight
	motor.Dimensions = input.Dimensions
	motor.Voltage = input.Voltage
	motor.RPM = input.RPM
	motor.Efficiency = input.Efficiency
	motor.FuelType = input.FuelType
	motor.Manufacturer = input.Manufacturer
	motor.YearOfManufacture = input.YearOfManufacture
	motor.WarrantyMonths = input.WarrantyMonths
	motor.Features = input.Features

	if err := s.repo.Update(ctx, motor); err != nil {
		return nil, fmt.Errorf("update motor: %w", err)
	}

	s.logger.InfoContext(ctx, "motor updated",
		slog.String("motor_id", motor.ID),
	)

	return motor, nil
}

// DeleteMotor removes a motor and its reviews from the catalog.
func (s *CatalogService) DeleteMotor(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete motor: %w", err)
	}

	s.logger.InfoContext(ctx, "motor deleted",
		slog.String("motor_id", id),
	)

	return nil
}

// TopMotors returns the highest-rated motors for the storefront carousel.
func (s *CatalogService) TopMotors(ctx context.Context) ([]domain.Motor, error) {
	motors, err := s.repo.Top(ctx, TopMotorsLimit)
	if err != nil {
		return nil, fmt.Errorf("top motors: %w", err)
	}
	return motors, nil
}

// CategoryFacets returns per-category item counts for the filter sidebar.
func (s *CatalogService) CategoryFacets(ctx context.Context) ([]domain.Facet, error) {
	facets, err := s.repo.CategoryFacets(ctx)
	if err != nil {
		return nil, fmt.Errorf("category facets: %w", err)
	}
	return facets, nil
}

// BrandFacets returns per-brand item counts for the filter sidebar.
func (s *CatalogService) BrandFacets(ctx context.Context) ([]domain.Facet, error) {
	facets, err := s.repo.BrandFacets(ctx)
	if err != nil {
		return nil, fmt.Errorf("brand facets: %w", err)
	}
	return facets, nil
}

// ManufacturerFacets returns per-manufacturer item counts for the filter sidebar.
func (s *CatalogService) ManufacturerFacets(ctx context.Context) ([]domain.Facet, error) {
	facets, err := s.repo.ManufacturerFacets(ctx)
	if err != nil {
		return nil, fmt.Errorf("manufacturer facets: %w", err)
	}
	return facets, nil
}

// AddReviewInput holds the parameters for posting a review.
type AddReviewInput struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"required"`
}

// AddReview posts a review on behalf of the given user and recomputes the
// motor's rating. A user may review each motor at most once.
func (s *CatalogService) AddReview(ctx context.Context, motorID, userID, userName string, input AddReviewInput) (*domain.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.InvalidInput("rating must be between 1 and 5")
	}

	review := &domain.Review{
		ID:        uuid.New().String(),
		MotorID:   motorID,
		UserID:    userID,
		Name:      userName,
		Rating:    input.Rating,
		Comment:   input.Comment,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.AddReview(ctx, review); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, apperrors.InvalidInput("motor already reviewed")
		}
		return nil, fmt.Errorf("add review: %w", err)
	}

	s.logger.InfoContext(ctx, "review added",
		slog.String("motor_id", motorID),
		slog.String("user_id", userID),
		slog.Int("rating", input.Rating),
	)

	return review, nil
}

// ListReviews returns all reviews for a motor, newest first.
func (s *CatalogService) ListReviews(ctx context.Context, motorID string) ([]domain.Review, error) {
	reviews, err := s.repo.ListReviews(ctx, motorID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}
