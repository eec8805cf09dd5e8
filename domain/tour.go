package domain

import (
	"context"
	"strings"
	"time"
	"unicode"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tour difficulty values
const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"
)

// Rating defaults applied when a tour has no reviews
const (
	DefaultRatingsAverage  = 4.5
	DefaultRatingsQuantity = 0
)

// Location represents a GeoJSON point with presentation fields.
// Coordinates are ordered longitude, latitude.
type Location struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
	Address     string    `json:"address,omitempty" bson:"address,omitempty"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Day         int       `json:"day,omitempty" bson:"day,omitempty"`
}

// Tour represents the Tour model
type Tour struct {
	ID              primitive.ObjectID   `json:"id" bson:"_id"`
	Name            string               `json:"name" bson:"name"`
	Slug            string               `json:"slug" bson:"slug"`
	Duration        int                  `json:"duration" bson:"duration"`
	MaxGroupSize    int                  `json:"max_group_size" bson:"max_group_size"`
	Difficulty      string               `json:"difficulty" bson:"difficulty"`
	RatingsAverage  float64              `json:"ratings_average" bson:"ratings_average"`
	RatingsQuantity int                  `json:"ratings_quantity" bson:"ratings_quantity"`
	Price           float64              `json:"price" bson:"price"`
	Discount        *float64             `json:"discount,omitempty" bson:"discount,omitempty"`
	Summary         string               `json:"summary" bson:"summary"`
	Description     string               `json:"description,omitempty" bson:"description,omitempty"`
	ImageCover      string               `json:"image_cover" bson:"image_cover"`
	Images          []string             `json:"images,omitempty" bson:"images,omitempty"`
	StartDates      []time.Time          `json:"start_dates,omitempty" bson:"start_dates,omitempty"`
	Secret          bool                 `json:"-" bson:"secret"`
	StartLocation   *Location            `json:"start_location,omitempty" bson:"start_location,omitempty"`
	Locations       []Location           `json:"locations,omitempty" bson:"locations,omitempty"`
	Guides          []primitive.ObjectID `json:"guides,omitempty" bson:"guides,omitempty"`
	CreatedAt       time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at" bson:"updated_at"`

	// populated relations, never stored
	GuideDetails []User   `json:"guide_details,omitempty" bson:"guide_details,omitempty"`
	Reviews      []Review `json:"reviews,omitempty" bson:"tour_reviews,omitempty"`
}

// TourDistance is a tour annotated with its distance from a center point
type TourDistance struct {
	ID       primitive.ObjectID `json:"id" bson:"_id"`
	Name     string             `json:"name" bson:"name"`
	Distance float64            `json:"distance" bson:"distance"`
}

// TourStats holds per-difficulty aggregates over well-rated tours
type TourStats struct {
	Difficulty string  `json:"difficulty" bson:"_id"`
	NumTours   int     `json:"num_tours" bson:"num_tours"`
	NumRatings int     `json:"num_ratings" bson:"num_ratings"`
	AvgRating  float64 `json:"avg_rating" bson:"avg_rating"`
	AvgPrice   float64 `json:"avg_price" bson:"avg_price"`
	MinPrice   float64 `json:"min_price" bson:"min_price"`
	MaxPrice   float64 `json:"max_price" bson:"max_price"`
}

// MonthPlan counts tour starts for one month of a year
type MonthPlan struct {
	Month         int      `json:"month" bson:"month"`
	NumTourStarts int      `json:"num_tour_starts" bson:"num_tour_starts"`
	Tours         []string `json:"tours" bson:"tours"`
}

// CreateTour represents data to create new Tour
type CreateTour struct {
	Name          string      `json:"name" validate:"required,min=10,max=40"`
	Duration      int         `json:"duration" validate:"required,gt=0"`
	MaxGroupSize  int         `json:"max_group_size" validate:"required,gt=0"`
	Difficulty    string      `json:"difficulty" validate:"required,oneof=easy medium difficult"`
	Price         float64     `json:"price" validate:"required,gt=0"`
	Discount      *float64    `json:"discount" validate:"omitempty,gt=0,ltfield=Price"`
	Summary       string      `json:"summary" validate:"required"`
	Description   string      `json:"description"`
	ImageCover    string      `json:"image_cover" validate:"required"`
	Images        []string    `json:"images"`
	StartDates    []time.Time `json:"start_dates"`
	Secret        bool        `json:"secret"`
	StartLocation *Location   `json:"start_location"`
	Locations     []Location  `json:"locations"`
	Guides        []string    `json:"guides" validate:"omitempty,dive,len=24,hexadecimal"`
}

// UpdateTour represents data to partially update Tour. Slug is derived from
// the name and cannot be set directly.
type UpdateTour struct {
	Name          *string     `json:"name" validate:"omitempty,min=10,max=40"`
	Duration      *int        `json:"duration" validate:"omitempty,gt=0"`
	MaxGroupSize  *int        `json:"max_group_size" validate:"omitempty,gt=0"`
	Difficulty    *string     `json:"difficulty" validate:"omitempty,oneof=easy medium difficult"`
	Price         *float64    `json:"price" validate:"omitempty,gt=0"`
	Discount      *float64    `json:"discount" validate:"omitempty,gt=0"`
	Summary       *string     `json:"summary"`
	Description   *string     `json:"description"`
	ImageCover    *string     `json:"image_cover"`
	Images        []string    `json:"images"`
	StartDates    []time.Time `json:"start_dates"`
	Secret        *bool       `json:"secret"`
	StartLocation *Location   `json:"start_location"`
	Locations     []Location  `json:"locations"`
	Guides        []string    `json:"guides" validate:"omitempty,dive,len=24,hexadecimal"`
}

// TourUsecase represents the Tour's usecases
type TourUsecase interface {
	GetAll(ctx context.Context, q *Query) ([]*Tour, error)
	GetByID(ctx context.Context, id string) (*Tour, error)
	GetBySlug(ctx context.Context, slug string) (*Tour, error)
	Create(ctx context.Context, createTour CreateTour) (*Tour, error)
	Update(ctx context.Context, id string, updateTour UpdateTour) (*Tour, error)
	Delete(ctx context.Context, id string) error
	Within(ctx context.Context, distance float64, latlng, unit string) ([]*Tour, error)
	Distances(ctx context.Context, latlng, unit string) ([]TourDistance, error)
	Stats(ctx context.Context) ([]TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]MonthPlan, error)
	AttachImages(ctx context.Context, id string, cover []byte, images [][]byte) (*Tour, error)
}

// TourRepository represents the Tour's repository contract
type TourRepository interface {
	GetAll(ctx context.Context, q *Query) ([]*Tour, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*Tour, error)
	GetBySlug(ctx context.Context, slug string) (*Tour, error)
	Create(ctx context.Context, tour *Tour) error
	Update(ctx context.Context, id primitive.ObjectID, update bson.M) (*Tour, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Within(ctx context.Context, lat, lng, radius float64) ([]*Tour, error)
	Distances(ctx context.Context, lat, lng, multiplier float64) ([]TourDistance, error)
	Stats(ctx context.Context) ([]TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]MonthPlan, error)
	UpdateRatings(ctx context.Context, id primitive.ObjectID, quantity int, average float64) error
}

// ImageStore persists an uploaded image buffer under the given public id and
// returns the stored location
type ImageStore interface {
	Upload(ctx context.Context, data []byte, publicID string) (string, error)
}

// MakeSlug derives a URL-safe slug from a tour name: lowercased, non
// alphanumeric runs collapsed to single hyphens. The derivation is
// deterministic so renaming a tour always recomputes the same slug.
func MakeSlug(name string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			hyphen = false
			continue
		}
		if !hyphen && b.Len() > 0 {
			b.WriteByte('-')
			hyphen = true
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
