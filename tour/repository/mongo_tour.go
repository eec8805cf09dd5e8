package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dhruvjyotiray/natours/domain"
	"github.com/dhruvjyotiray/natours/store"
)

type mongoTourRepository struct {
	tours  *store.Collection[domain.Tour]
	tracer trace.Tracer
}

// NewMongoTourRepository will create an object that represent the domain.TourRepository interface
func NewMongoTourRepository(c *mongo.Client, db string, logger *zap.Logger, tracer trace.Tracer) domain.TourRepository {
	return &mongoTourRepository{
		tours:  store.NewCollection[domain.Tour](c.Database(db), store.TourCollection, logger, tracer),
		tracer: tracer,
	}
}

// ExcludeSecret is the query decorator applied to every default read: tours
// flagged secret never appear unless a caller asks for them explicitly.
func ExcludeSecret(q *domain.Query) *domain.Query {
	return q.Scope(bson.M{"secret": bson.M{"$ne": true}})
}

// populateStages resolve guide references and the virtual reviews relation
func populateStages() []bson.D {
	return []bson.D{
		{primitive.E{Key: "$lookup", Value: bson.M{
			"from":         store.UserCollection,
			"localField":   "guides",
			"foreignField": "_id",
			"as":           "guide_details",
		}}},
		{primitive.E{Key: "$lookup", Value: bson.M{
			"from":         store.ReviewCollection,
			"localField":   "_id",
			"foreignField": "tour",
			"as":           "tour_reviews",
		}}},
	}
}

func (m *mongoTourRepository) GetAll(ctx context.Context, q *domain.Query) ([]*domain.Tour, error) {
	return m.tours.FindAll(ctx, ExcludeSecret(q))
}

func (m *mongoTourRepository) getOnePopulated(ctx context.Context, filter bson.M) (*domain.Tour, error) {
	pipeline := mongo.Pipeline{
		{primitive.E{Key: "$match", Value: filter}},
	}
	pipeline = append(pipeline, populateStages()...)

	result := make([]*domain.Tour, 0, 1)
	if err := m.tours.Aggregate(ctx, pipeline, &result); err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("tour was not found: %w", domain.ErrNotFound)
	}

	return result[0], nil
}

func (m *mongoTourRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Tour, error) {
	ctx, span := m.tracer.Start(
		ctx,
		"repository GetByID",
		trace.WithAttributes(
			attribute.String("tourid", id.Hex())),
	)
	defer span.End()

	t, err := m.getOnePopulated(ctx, ExcludeSecret(domain.NewQuery()).Scope(bson.M{"_id": id}).Filter)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return t, nil
}

func (m *mongoTourRepository) GetBySlug(ctx context.Context, slug string) (*domain.Tour, error) {
	ctx, span := m.tracer.Start(
		ctx,
		"repository GetBySlug",
		trace.WithAttributes(
			attribute.String("slug", slug)),
	)
	defer span.End()

	t, err := m.getOnePopulated(ctx, ExcludeSecret(domain.NewQuery()).Scope(bson.M{"slug": slug}).Filter)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return t, nil
}

func (m *mongoTourRepository) Create(ctx context.Context, tour *domain.Tour) error {
	return m.tours.Insert(ctx, tour)
}

func (m *mongoTourRepository) Update(ctx context.Context, id primitive.ObjectID, update bson.M) (*domain.Tour, error) {
	return m.tours.UpdateByID(ctx, id, update)
}

func (m *mongoTourRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := m.tours.DeleteByID(ctx, id)
	return err
}

// Within returns visible tours whose start location lies inside the sphere
// cap centered at (lat, lng) with the given angular radius (radians).
func (m *mongoTourRepository) Within(ctx context.Context, lat, lng, radius float64) ([]*domain.Tour, error) {
	ctx, span := m.tracer.Start(
		ctx,
		"repository Within",
	)
	defer span.End()

	q := ExcludeSecret(domain.NewQuery()).Scope(bson.M{
		"start_location": bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{bson.A{lng, lat}, radius},
			},
		},
	})

	tours, err := m.tours.FindAll(ctx, q)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return tours, nil
}

// Distances annotates every visible tour with its distance from (lat, lng).
// The multiplier converts the engine's meters to the requested unit.
func (m *mongoTourRepository) Distances(ctx context.Context, lat, lng, multiplier float64) ([]domain.TourDistance, error) {
	ctx, span := m.tracer.Start(
		ctx,
		"repository Distances",
	)
	defer span.End()

	pipeline := mongo.Pipeline{
		{primitive.E{Key: "$geoNear", Value: bson.M{
			"near": bson.M{
				"type":        "Point",
				"coordinates": bson.A{lng, lat},
			},
			"distanceField":      "distance",
			"distanceMultiplier": multiplier,
			"query":              bson.M{"secret": bson.M{"$ne": true}},
		}}},
		{primitive.E{Key: "$project", Value: bson.M{"distance": 1, "name": 1}}},
	}

	result := make([]domain.TourDistance, 0)
	if err := m.tours.Aggregate(ctx, pipeline, &result); err != nil {
		span.RecordError(err)
		return nil, err
	}

	return result, nil
}

// Stats groups well-rated tours by difficulty
func (m *mongoTourRepository) Stats(ctx context.Context) ([]domain.TourStats, error) {
	ctx, span := m.tracer.Start(
		ctx,
		"repository Stats",
	)
	defer span.End()

	pipeline := mongo.Pipeline{
		{primitive.E{Key: "$match", Value: bson.M{
			"ratings_average": bson.M{"$gte": 4},
			"secret":          bson.M{"$ne": true},
		}}},
		{primitive.E{Key: "$group", Value: bson.M{
			"_id":         bson.M{"$toUpper": "$difficulty"},
			"num_tours":   bson.M{"$sum": 1},
			"num_ratings": bson.M{"$sum": "$ratings_quantity"},
			"avg_rating":  bson.M{"$avg": "$ratings_average"},
			"avg_price":   bson.M{"$avg": "$price"},
			"min_price":   bson.M{"$min": "$price"},
			"max_price":   bson.M{"$max": "$price"},
		}}},
		{primitive.E{Key: "$sort", Value: bson.M{"avg_price": 1}}},
	}

	result := make([]domain.TourStats, 0)
	if err := m.tours.Aggregate(ctx, pipeline, &result); err != nil {
		span.RecordError(err)
		return nil, err
	}

	return result, nil
}

// MonthlyPlan counts tour starts per month of the given year, busiest first
func (m *mongoTourRepository) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthPlan, error) {
	ctx, span := m.tracer.Start(
		ctx,
		"repository MonthlyPlan",
		trace.WithAttributes(
			attribute.Int("year", year)),
	)
	defer span.End()

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)

	pipeline := mongo.Pipeline{
		{primitive.E{Key: "$match", Value: bson.M{"secret": bson.M{"$ne": true}}}},
		{primitive.E{Key: "$unwind", Value: "$start_dates"}},
		{primitive.E{Key: "$match", Value: bson.M{
			"start_dates": bson.M{"$gte": from, "$lte": to},
		}}},
		{primitive.E{Key: "$group", Value: bson.M{
			"_id":             bson.M{"$month": "$start_dates"},
			"num_tour_starts": bson.M{"$sum": 1},
			"tours":           bson.M{"$push": "$name"},
		}}},
		{primitive.E{Key: "$addFields", Value: bson.M{"month": "$_id"}}},
		{primitive.E{Key: "$project", Value: bson.M{"_id": 0}}},
		{primitive.E{Key: "$sort", Value: bson.M{"num_tour_starts": -1}}},
		{primitive.E{Key: "$limit", Value: 3}},
	}

	result := make([]domain.MonthPlan, 0)
	if err := m.tours.Aggregate(ctx, pipeline, &result); err != nil {
		span.RecordError(err)
		return nil, err
	}

	return result, nil
}

// UpdateRatings writes the recomputed rating aggregate onto the tour
func (m *mongoTourRepository) UpdateRatings(ctx context.Context, id primitive.ObjectID, quantity int, average float64) error {
	ctx, span := m.tracer.Start(
		ctx,
		"repository UpdateRatings",
		trace.WithAttributes(
			attribute.String("tourid", id.Hex())),
	)
	defer span.End()

	update := bson.M{"$set": bson.M{
		"ratings_quantity": quantity,
		"ratings_average":  average,
	}}

	if _, err := m.tours.UpdateByID(ctx, id, update); err != nil {
		span.RecordError(err)
		return fmt.Errorf("can't update tour ratings: %w", err)
	}

	return nil
}
