package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/dhruvjyotiray/natours/domain"
	"github.com/dhruvjyotiray/natours/review/repository"
	"github.com/dhruvjyotiray/natours/tests"
)

var tracer = sdktrace.NewTracerProvider().Tracer("")
var noopCtx = context.Background()

const tableName = "natours.review"

func TestMongoReviewRepository_GetAll(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()
	tReview := tests.NewReview()
	tReviewBsonD := tests.BsonD(tReview)

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, tableName, mtest.FirstBatch, tReviewBsonD),
			mtest.CreateCursorResponse(0, tableName, mtest.NextBatch),
		)
		r := repository.NewMongoReviewRepository(mt.Client, mt.DB.Name(), nil, tracer)

		result, err := r.GetAll(noopCtx, domain.NewQuery())

		require.NoError(mt, err)
		require.Len(mt, result, 1)
		assert.EqualValues(t, tReview, result[0])
	})
}

func TestMongoReviewRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()
	tReview := tests.NewReview()

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		r := repository.NewMongoReviewRepository(mt.Client, mt.DB.Name(), nil, tracer)

		err := r.Create(noopCtx, tReview)

		require.NoError(mt, err)
	})

	mt.Run("duplicate review for one tour", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   1,
			Code:    11000,
			Message: "duplicate key error",
		}))
		r := repository.NewMongoReviewRepository(mt.Client, mt.DB.Name(), nil, tracer)

		err := r.Create(noopCtx, tReview)

		assert.ErrorIs(mt, err, domain.ErrConflict)
	})
}

func TestMongoReviewRepository_Delete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()
	tReview := tests.NewReview()
	tReviewBsonD := tests.BsonD(tReview)

	mt.Run("success returns the removed review", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: tReviewBsonD},
		})
		r := repository.NewMongoReviewRepository(mt.Client, mt.DB.Name(), nil, tracer)

		result, err := r.Delete(noopCtx, tReview.ID)

		require.NoError(mt, err)
		assert.EqualValues(t, tReview, result)
	})

	mt.Run("not exists", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		r := repository.NewMongoReviewRepository(mt.Client, mt.DB.Name(), nil, tracer)

		result, err := r.Delete(noopCtx, tReview.ID)

		assert.Nil(mt, result)
		assert.ErrorIs(mt, err, domain.ErrNoAffected)
	})
}

func TestMongoReviewRepository_RatingStats(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()
	tReview := tests.NewReview()

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, tableName, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: tReview.Tour},
				{Key: "quantity", Value: 3},
				{Key: "average", Value: 4.333333333333333},
			}),
			mtest.CreateCursorResponse(0, tableName, mtest.NextBatch),
		)
		r := repository.NewMongoReviewRepository(mt.Client, mt.DB.Name(), nil, tracer)

		stats, err := r.RatingStats(noopCtx, tReview.Tour)

		require.NoError(mt, err)
		require.NotNil(mt, stats)
		assert.Equal(mt, tReview.Tour, stats.Tour)
		assert.Equal(mt, 3, stats.Quantity)
		assert.Equal(mt, 4.333333333333333, stats.Average)
	})

	mt.Run("no reviews yields nil stats", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, tableName, mtest.FirstBatch),
			mtest.CreateCursorResponse(0, tableName, mtest.NextBatch),
		)
		r := repository.NewMongoReviewRepository(mt.Client, mt.DB.Name(), nil, tracer)

		stats, err := r.RatingStats(noopCtx, tReview.Tour)

		require.NoError(mt, err)
		assert.Nil(mt, stats)
	})

	mt.Run("server error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   1,
			Code:    123,
			Message: "server error",
		}))
		r := repository.NewMongoReviewRepository(mt.Client, mt.DB.Name(), nil, tracer)

		stats, err := r.RatingStats(noopCtx, tReview.Tour)

		assert.Nil(mt, stats)
		assert.ErrorIs(mt, err, domain.ErrInternalServerError)
	})
}
