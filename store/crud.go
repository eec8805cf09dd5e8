package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dhruvjyotiray/natours/domain"
)

// Collection is the generic persistence layer shared by every entity
// repository. It is entity-agnostic: scoping, population and field
// sensitivity are the caller's concern.
type Collection[T any] struct {
	name   string
	coll   *mongo.Collection
	logger *zap.Logger
	tracer trace.Tracer
}

// NewCollection binds a typed collection handle
func NewCollection[T any](db *mongo.Database, name string, logger *zap.Logger, tracer trace.Tracer) *Collection[T] {
	return &Collection[T]{
		name:   name,
		coll:   db.Collection(name),
		logger: logger,
		tracer: tracer,
	}
}

// Name returns the underlying collection name
func (c *Collection[T]) Name() string {
	return c.name
}

func (c *Collection[T]) decodeAll(ctx context.Context, cur *mongo.Cursor) ([]*T, error) {
	defer func(ctx context.Context) {
		if err := cur.Close(ctx); err != nil && c.logger != nil {
			c.logger.Error("can't close cursor: ", zap.Error(err))
		}
	}(ctx)

	result := make([]*T, 0)

	for cur.Next(ctx) {
		elem := new(T)
		if err := cur.Decode(elem); err != nil {
			return nil, fmt.Errorf("can't unmarshal %s document: %w", c.name, err)
		}
		result = append(result, elem)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s cursor error: %w", c.name, err)
	}

	return result, nil
}

// FindAll executes a built query. An empty result is not an error, but a
// page pointing past the end of the result set is.
func (c *Collection[T]) FindAll(ctx context.Context, q *domain.Query) ([]*T, error) {
	ctx, span := c.tracer.Start(
		ctx,
		"repository FindAll",
		trace.WithAttributes(
			attribute.String("collection", c.name)),
	)
	defer span.End()

	opts := options.Find().
		SetSort(q.Sort).
		SetSkip(q.Skip()).
		SetLimit(q.Limit)
	if len(q.Projection) > 0 {
		opts.SetProjection(q.Projection)
	}

	if q.Skip() > 0 {
		total, err := c.Count(ctx, q.Filter)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if q.Skip() >= total {
			span.RecordError(domain.ErrNotFound)
			return nil, fmt.Errorf("page %d does not exist: %w", q.Page, domain.ErrNotFound)
		}
	}

	cur, err := c.coll.Find(ctx, q.Filter, opts)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%s find error: %w: %s", c.name, domain.ErrInternalServerError, err.Error())
	}

	return c.decodeAll(ctx, cur)
}

// FindByID looks a document up by its identifier
func (c *Collection[T]) FindByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	return c.FindOne(ctx, bson.M{"_id": id})
}

// FindOne returns the first document matching the filter
func (c *Collection[T]) FindOne(ctx context.Context, filter bson.M) (*T, error) {
	ctx, span := c.tracer.Start(
		ctx,
		"repository FindOne",
		trace.WithAttributes(
			attribute.String("collection", c.name)),
	)
	defer span.End()

	elem := new(T)
	err := c.coll.FindOne(ctx, filter).Decode(elem)
	if errors.Is(err, mongo.ErrNoDocuments) {
		span.RecordError(domain.ErrNotFound)
		return nil, fmt.Errorf("%s was not found: %w", c.name, domain.ErrNotFound)
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%s get error: %w: %s", c.name, domain.ErrInternalServerError, err.Error())
	}

	return elem, nil
}

// Insert stores a new document. Unique index violations surface as
// ErrConflict.
func (c *Collection[T]) Insert(ctx context.Context, doc *T) error {
	ctx, span := c.tracer.Start(
		ctx,
		"repository Insert",
		trace.WithAttributes(
			attribute.String("collection", c.name)),
	)
	defer span.End()

	_, err := c.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		span.RecordError(err)
		return fmt.Errorf("%s already exists: %w", c.name, domain.ErrConflict)
	}
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%s store error: %w: %s", c.name, domain.ErrInternalServerError, err.Error())
	}

	return nil
}

// UpdateByID applies a partial update and returns the updated document
func (c *Collection[T]) UpdateByID(ctx context.Context, id primitive.ObjectID, update bson.M) (*T, error) {
	ctx, span := c.tracer.Start(
		ctx,
		"repository UpdateByID",
		trace.WithAttributes(
			attribute.String("collection", c.name),
			attribute.String("id", id.Hex())),
	)
	defer span.End()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	elem := new(T)
	err := c.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(elem)
	if errors.Is(err, mongo.ErrNoDocuments) {
		span.RecordError(domain.ErrNoAffected)
		return nil, fmt.Errorf("%s was not updated: %w", c.name, domain.ErrNoAffected)
	}
	if mongo.IsDuplicateKeyError(err) {
		span.RecordError(err)
		return nil, fmt.Errorf("%s already exists: %w", c.name, domain.ErrConflict)
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%s update error: %w: %s", c.name, domain.ErrInternalServerError, err.Error())
	}

	return elem, nil
}

// DeleteByID removes a document and returns it
func (c *Collection[T]) DeleteByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	ctx, span := c.tracer.Start(
		ctx,
		"repository DeleteByID",
		trace.WithAttributes(
			attribute.String("collection", c.name),
			attribute.String("id", id.Hex())),
	)
	defer span.End()

	elem := new(T)
	err := c.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(elem)
	if errors.Is(err, mongo.ErrNoDocuments) {
		span.RecordError(domain.ErrNoAffected)
		return nil, fmt.Errorf("%s was not deleted: %w", c.name, domain.ErrNoAffected)
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%s delete error: %w: %s", c.name, domain.ErrInternalServerError, err.Error())
	}

	return elem, nil
}

// Count returns the number of documents matching the filter
func (c *Collection[T]) Count(ctx context.Context, filter bson.M) (int64, error) {
	total, err := c.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("%s count error: %w: %s", c.name, domain.ErrInternalServerError, err.Error())
	}
	return total, nil
}

// Aggregate runs a pipeline and decodes every result into out, which must be
// a pointer to a slice
func (c *Collection[T]) Aggregate(ctx context.Context, pipeline mongo.Pipeline, out interface{}) error {
	ctx, span := c.tracer.Start(
		ctx,
		"repository Aggregate",
		trace.WithAttributes(
			attribute.String("collection", c.name)),
	)
	defer span.End()

	cur, err := c.coll.Aggregate(ctx, pipeline)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%s aggregate error: %w: %s", c.name, domain.ErrInternalServerError, err.Error())
	}

	defer func(ctx context.Context) {
		if err := cur.Close(ctx); err != nil && c.logger != nil {
			c.logger.Error("can't close cursor: ", zap.Error(err))
		}
	}(ctx)

	if err = cur.All(ctx, out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("can't unmarshal %s aggregation: %w", c.name, err)
	}

	return nil
}
