package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review represents the Review model. A (tour, user) pair owns at most one
// review, enforced by a unique index.
type Review struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	Review    string             `json:"review" bson:"review"`
	Rating    float64            `json:"rating" bson:"rating"`
	Tour      primitive.ObjectID `json:"tour" bson:"tour"`
	User      primitive.ObjectID `json:"user" bson:"user"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// CreateReview represents data to create new Review. Tour and User are
// filled from the nested route and the authenticated caller when absent.
type CreateReview struct {
	Review string  `json:"review" validate:"required"`
	Rating float64 `json:"rating" validate:"required,gte=1,lte=5"`
	Tour   string  `json:"tour" validate:"required,len=24,hexadecimal"`
	User   string  `json:"user" validate:"required,len=24,hexadecimal"`
}

// UpdateReview represents data to update Review
type UpdateReview struct {
	Review *string  `json:"review" validate:"omitempty,min=1"`
	Rating *float64 `json:"rating" validate:"omitempty,gte=1,lte=5"`
}

// RatingStats holds the recomputed rating aggregate for one tour
type RatingStats struct {
	Tour     primitive.ObjectID `bson:"_id"`
	Quantity int                `bson:"quantity"`
	Average  float64            `bson:"average"`
}

// ReviewUsecase represents the Review's usecases
type ReviewUsecase interface {
	GetAll(ctx context.Context, tourID string, q *Query) ([]*Review, error)
	GetByID(ctx context.Context, id string) (*Review, error)
	Create(ctx context.Context, createReview CreateReview) (*Review, error)
	Update(ctx context.Context, id string, updateReview UpdateReview) (*Review, error)
	Delete(ctx context.Context, id string) error
}

// ReviewRepository represents the Review's repository contract. Update and
// Delete return the affected document so callers can dispatch the rating
// recomputation for the referenced tour.
type ReviewRepository interface {
	GetAll(ctx context.Context, q *Query) ([]*Review, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*Review, error)
	Create(ctx context.Context, review *Review) error
	Update(ctx context.Context, id primitive.ObjectID, update bson.M) (*Review, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*Review, error)
	RatingStats(ctx context.Context, tourID primitive.ObjectID) (*RatingStats, error)
}
