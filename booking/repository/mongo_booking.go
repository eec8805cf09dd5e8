package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dhruvjyotiray/natours/domain"
	"github.com/dhruvjyotiray/natours/store"
)

type mongoBookingRepository struct {
	bookings *store.Collection[domain.Booking]
	coll     *mongo.Collection
	tracer   trace.Tracer
}

// NewMongoBookingRepository will create an object that represent the domain.BookingRepository interface
func NewMongoBookingRepository(c *mongo.Client, db string, logger *zap.Logger, tracer trace.Tracer) domain.BookingRepository {
	return &mongoBookingRepository{
		bookings: store.NewCollection[domain.Booking](c.Database(db), store.BookingCollection, logger, tracer),
		coll:     c.Database(db).Collection(store.BookingCollection),
		tracer:   tracer,
	}
}

func (m *mongoBookingRepository) GetAll(ctx context.Context, q *domain.Query) ([]*domain.Booking, error) {
	return m.bookings.FindAll(ctx, q)
}

func (m *mongoBookingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Booking, error) {
	return m.bookings.FindByID(ctx, id)
}

func (m *mongoBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	return m.bookings.Insert(ctx, booking)
}

func (m *mongoBookingRepository) Update(ctx context.Context, id primitive.ObjectID, update bson.M) (*domain.Booking, error) {
	return m.bookings.UpdateByID(ctx, id, update)
}

func (m *mongoBookingRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := m.bookings.DeleteByID(ctx, id); err != nil {
		return err
	}
	return nil
}

// CreateFromSession upserts on the payment session id, so replays of the
// same confirmation insert nothing
func (m *mongoBookingRepository) CreateFromSession(ctx context.Context, booking *domain.Booking) (bool, error) {
	ctx, span := m.tracer.Start(
		ctx,
		"repository CreateFromSession",
		trace.WithAttributes(
			attribute.String("sessionid", booking.SessionID)),
	)
	defer span.End()

	filter := bson.M{"session_id": booking.SessionID}
	update := bson.M{"$setOnInsert": booking}
	opts := options.Update().SetUpsert(true)

	res, err := m.coll.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("booking store error: %w: %s", domain.ErrInternalServerError, err.Error())
	}

	return res.UpsertedCount > 0, nil
}
