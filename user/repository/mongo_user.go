package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dhruvjyotiray/natours/domain"
	"github.com/dhruvjyotiray/natours/store"
)

type mongoUserRepository struct {
	users  *store.Collection[domain.User]
	tracer trace.Tracer
}

// NewMongoUserRepository will create an object that represent the domain.UserRepository interface
func NewMongoUserRepository(c *mongo.Client, db string, logger *zap.Logger, tracer trace.Tracer) domain.UserRepository {
	return &mongoUserRepository{
		users:  store.NewCollection[domain.User](c.Database(db), store.UserCollection, logger, tracer),
		tracer: tracer,
	}
}

func (m *mongoUserRepository) GetAll(ctx context.Context, q *domain.Query) ([]*domain.User, error) {
	// deactivated accounts stay hidden from listings
	return m.users.FindAll(ctx, q.Scope(bson.M{"active": true}))
}

func (m *mongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return m.users.FindByID(ctx, id)
}

func (m *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, span := m.tracer.Start(
		ctx,
		"repository GetByEmail",
	)
	defer span.End()

	u, err := m.users.FindOne(ctx, bson.M{"email": email})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("userid", u.ID.Hex()))

	return u, nil
}

func (m *mongoUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.users.Insert(ctx, user)
}

func (m *mongoUserRepository) Update(ctx context.Context, user *domain.User) error {
	ctx, span := m.tracer.Start(
		ctx,
		"repository Update",
		trace.WithAttributes(
			attribute.String("userid", user.ID.Hex())),
	)
	defer span.End()

	doc, err := store.StructToDoc(&user)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("can't convert User to bson.D: %w, %s", domain.ErrInternalServerError, err.Error())
	}

	if _, err = m.users.UpdateByID(ctx, user.ID, bson.M{"$set": doc}); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

func (m *mongoUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := m.users.DeleteByID(ctx, id); err != nil {
		return err
	}
	return nil
}
