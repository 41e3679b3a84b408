package domain

import (
	"math"
	"time"
)

// Motor categories.
const (
	CategoryElectric  = "electric"
	CategoryDiesel    = "diesel"
	CategoryGasoline  = "gasoline"
	CategoryHydraulic = "hydraulic"
	CategoryPneumatic = "pneumatic"
	CategoryOther     = "other"
)

// Fuel types for combustion engines.
const (
	FuelDiesel        = "diesel"
	FuelGasoline      = "gasoline"
	FuelNaturalGas    = "natural_gas"
	FuelLPG           = "lpg"
	FuelNotApplicable = "not_applicable"
)

// Dimensions are the physical dimensions of a motor in millimeters.
type Dimensions struct {
	Length int `json:"length"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Motor is a catalog item: an engine with price, stock, and specs.
type Motor struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Name        string   `json:"name"`
	Image       string   `json:"image"`
	Images      []string `json:"images,omitempty"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	Description string   `json:"description"`

	Price        int64 `json:"price"`
	CountInStock int   `json:"count_in_stock"`

	Rating     float64 `json:"rating"`
	NumReviews int     `json:"num_reviews"`

	Power             int        `json:"power"`
	Weight            int        `json:"weight"`
	Dimensions        Dimensions `json:"dimensions"`
	Voltage           int        `json:"voltage,omitempty"`
	RPM               int        `json:"rpm,omitempty"`
	Efficiency        int        `json:"efficiency,omitempty"`
	FuelType          string     `json:"fuel_type,omitempty"`
	Manufacturer      string     `json:"manufacturer"`
	YearOfManufacture int        `json:"year_of_manufacture"`
	WarrantyMonths    int        `json:"warranty_months"`
	Features          []string   `json:"features,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PowerKW converts the rated power from horsepower to kilowatts.
func (m *Motor) PowerKW() float64 {
	return float64(m.Power) * 0.7457
}

// ValidCategories returns the set of valid motor categories.
func ValidCategories() []string {
	return []string{
		CategoryElectric,
		CategoryDiesel,
		CategoryGasoline,
		CategoryHydraulic,
		CategoryPneumatic,
		CategoryOther,
	}
}

// IsValidCategory checks whether the given category is valid.
func IsValidCategory(category string) bool {
	for _, c := range ValidCategories() {
		if c == category {
			return true
		}
	}
	return false
}

// Review is a product review embedded under a motor.
type Review struct {
	ID        string    `json:"id"`
	MotorID   string    `json:"motor_id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// AverageRating computes the mean of the given review ratings rounded to one
// decimal place. Returns 0 when there are no reviews.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum int
	for _, r := range reviews {
		sum += r.Rating
	}
	return math.Round(float64(sum)/float64(len(reviews))*10) / 10
}

// Facet is a grouping of catalog items by one attribute with its count.
type Facet struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
