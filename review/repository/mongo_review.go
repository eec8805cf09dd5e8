package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dhruvjyotiray/natours/domain"
	"github.com/dhruvjyotiray/natours/store"
)

type mongoReviewRepository struct {
	reviews *store.Collection[domain.Review]
	tracer  trace.Tracer
}

// NewMongoReviewRepository will create an object that represent the domain.ReviewRepository interface
func NewMongoReviewRepository(c *mongo.Client, db string, logger *zap.Logger, tracer trace.Tracer) domain.ReviewRepository {
	return &mongoReviewRepository{
		reviews: store.NewCollection[domain.Review](c.Database(db), store.ReviewCollection, logger, tracer),
		tracer:  tracer,
	}
}

func (m *mongoReviewRepository) GetAll(ctx context.Context, q *domain.Query) ([]*domain.Review, error) {
	return m.reviews.FindAll(ctx, q)
}

func (m *mongoReviewRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Review, error) {
	return m.reviews.FindByID(ctx, id)
}

func (m *mongoReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	return m.reviews.Insert(ctx, review)
}

func (m *mongoReviewRepository) Update(ctx context.Context, id primitive.ObjectID, update bson.M) (*domain.Review, error) {
	return m.reviews.UpdateByID(ctx, id, update)
}

func (m *mongoReviewRepository) Delete(ctx context.Context, id primitive.ObjectID) (*domain.Review, error) {
	return m.reviews.DeleteByID(ctx, id)
}

// RatingStats recomputes the review count and mean rating for one tour. A
// tour without reviews yields a nil result, not an error.
func (m *mongoReviewRepository) RatingStats(ctx context.Context, tourID primitive.ObjectID) (*domain.RatingStats, error) {
	ctx, span := m.tracer.Start(
		ctx,
		"repository RatingStats",
		trace.WithAttributes(
			attribute.String("tourid", tourID.Hex())),
	)
	defer span.End()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"tour": tourID}}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$tour",
			"quantity": bson.M{"$sum": 1},
			"average":  bson.M{"$avg": "$rating"},
		}}},
	}

	stats := make([]domain.RatingStats, 0, 1)
	if err := m.reviews.Aggregate(ctx, pipeline, &stats); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if len(stats) == 0 {
		return nil, nil
	}

	return &stats[0], nil
}
