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
	"github.com/dhruvjyotiray/natours/tour/repository"
	"github.com/dhruvjyotiray/natours/tests"
)

var tracer = sdktrace.NewTracerProvider().Tracer("")
var noopCtx = context.Background()

const tableName = "natours.tour"

func TestMongoTourRepository_GetAll(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()
	tTour := tests.NewTour()
	tTourBsonD := tests.BsonD(tTour)

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, tableName, mtest.FirstBatch, tTourBsonD),
			mtest.CreateCursorResponse(0, tableName, mtest.NextBatch),
		)
		r := repository.NewMongoTourRepository(mt.Client, mt.DB.Name(), nil, tracer)

		result, err := r.GetAll(noopCtx, domain.NewQuery())

		require.NoError(mt, err)
		require.Len(mt, result, 1)
		assert.EqualValues(t, tTour, result[0])
	})

	mt.Run("server error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   1,
			Code:    123,
			Message: "server error",
		}))
		r := repository.NewMongoTourRepository(mt.Client, mt.DB.Name(), nil, tracer)

		result, err := r.GetAll(noopCtx, domain.NewQuery())

		assert.Nil(mt, result)
		assert.ErrorIs(mt, err, domain.ErrInternalServerError)
	})
}

func TestMongoTourRepository_GetByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()
	tTour := tests.NewTour()
	tTourBsonD := tests.BsonD(tTour)

	mt.Run("not exists", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, tableName, mtest.FirstBatch),
			mtest.CreateCursorResponse(0, tableName, mtest.NextBatch),
		)
		r := repository.NewMongoTourRepository(mt.Client, mt.DB.Name(), nil, tracer)

		result, err := r.GetByID(noopCtx, tTour.ID)

		assert.Nil(mt, result)
		assert.ErrorIs(mt, err, domain.ErrNotFound)
	})

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, tableName, mtest.FirstBatch, tTourBsonD),
			mtest.CreateCursorResponse(0, tableName, mtest.NextBatch),
		)
		r := repository.NewMongoTourRepository(mt.Client, mt.DB.Name(), nil, tracer)

		result, err := r.GetByID(noopCtx, tTour.ID)

		require.NoError(mt, err)
		assert.EqualValues(t, tTour, result)
	})

	mt.Run("server error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   1,
			Code:    123,
			Message: "server error",
		}))
		r := repository.NewMongoTourRepository(mt.Client, mt.DB.Name(), nil, tracer)

		result, err := r.GetByID(noopCtx, tTour.ID)

		assert.Nil(mt, result)
		assert.ErrorIs(mt, err, domain.ErrInternalServerError)
	})
}

func TestMongoTourRepository_GetBySlug(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()
	tTour := tests.NewTour()
	tTourBsonD := tests.BsonD(tTour)

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, tableName, mtest.FirstBatch, tTourBsonD),
			mtest.CreateCursorResponse(0, tableName, mtest.NextBatch),
		)
		r := repository.NewMongoTourRepository(mt.Client, mt.DB.Name(), nil, tracer)

		result, err := r.GetBySlug(noopCtx, tTour.Slug)

		require.NoError(mt, err)
		assert.EqualValues(t, tTour, result)
	})

	mt.Run("not exists", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, tableName, mtest.FirstBatch),
			mtest.CreateCursorResponse(0, tableName, mtest.NextBatch),
		)
		r := repository.NewMongoTourRepository(mt.Client, mt.DB.Name(), nil, tracer)

		result, err := r.GetBySlug(noopCtx, "no-such-tour")

		assert.Nil(mt, result)
		assert.ErrorIs(mt, err, domain.ErrNotFound)
	})
}

func TestMongoTourRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()
	tTour := tests.NewTour()

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		r := repository.NewMongoTourRepository(mt.Client, mt.DB.Name(), nil, tracer)

		err := r.Create(noopCtx, tTour)

		require.NoError(mt, err)
	})

	mt.Run("duplicate name", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   1,
			Code:    11000,
			Message: "duplicate key error",
		}))
		r := repository.NewMongoTourRepository(mt.Client, mt.DB.Name(), nil, tracer)

		err := r.Create(noopCtx, tTour)

		assert.ErrorIs(mt, err, domain.ErrConflict)
	})
}

func TestMongoTourRepository_Within(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()
	tTour := tests.NewTour()
	tTourBsonD := tests.BsonD(tTour)

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, tableName, mtest.FirstBatch, tTourBsonD),
			mtest.CreateCursorResponse(0, tableName, mtest.NextBatch),
		)
		r := repository.NewMongoTourRepository(mt.Client, mt.DB.Name(), nil, tracer)

		result, err := r.Within(noopCtx, 51.178456, -115.570154, 0.063)

		require.NoError(mt, err)
		require.Len(mt, result, 1)
		assert.EqualValues(t, tTour, result[0])
	})
}

func TestMongoTourRepository_Distances(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()
	tTour := tests.NewTour()

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, tableName, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: tTour.ID},
				{Key: "name", Value: tTour.Name},
				{Key: "distance", Value: 42.5},
			}),
			mtest.CreateCursorResponse(0, tableName, mtest.NextBatch),
		)
		r := repository.NewMongoTourRepository(mt.Client, mt.DB.Name(), nil, tracer)

		result, err := r.Distances(noopCtx, 51.178456, -115.570154, 0.001)

		require.NoError(mt, err)
		require.Len(mt, result, 1)
		assert.Equal(mt, tTour.ID, result[0].ID)
		assert.Equal(mt, tTour.Name, result[0].Name)
		assert.Equal(mt, 42.5, result[0].Distance)
	})

	mt.Run("server error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   1,
			Code:    123,
			Message: "server error",
		}))
		r := repository.NewMongoTourRepository(mt.Client, mt.DB.Name(), nil, tracer)

		result, err := r.Distances(noopCtx, 51.178456, -115.570154, 0.001)

		assert.Nil(mt, result)
		assert.ErrorIs(mt, err, domain.ErrInternalServerError)
	})
}

func TestMongoTourRepository_Stats(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, tableName, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: "EASY"},
				{Key: "num_tours", Value: 4},
				{Key: "num_ratings", Value: 159},
				{Key: "avg_rating", Value: 4.6},
				{Key: "avg_price", Value: 1272.0},
				{Key: "min_price", Value: 397.0},
				{Key: "max_price", Value: 1997.0},
			}),
			mtest.CreateCursorResponse(0, tableName, mtest.NextBatch),
		)
		r := repository.NewMongoTourRepository(mt.Client, mt.DB.Name(), nil, tracer)

		result, err := r.Stats(noopCtx)

		require.NoError(mt, err)
		require.Len(mt, result, 1)
		assert.Equal(mt, "EASY", result[0].Difficulty)
		assert.Equal(mt, 4, result[0].NumTours)
		assert.Equal(mt, 159, result[0].NumRatings)
		assert.Equal(mt, 4.6, result[0].AvgRating)
	})
}

func TestMongoTourRepository_MonthlyPlan(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, tableName, mtest.FirstBatch, bson.D{
				{Key: "month", Value: 7},
				{Key: "num_tour_starts", Value: 2},
				{Key: "tours", Value: bson.A{"The Forest Hiker", "The Sea Explorer"}},
			}),
			mtest.CreateCursorResponse(0, tableName, mtest.NextBatch),
		)
		r := repository.NewMongoTourRepository(mt.Client, mt.DB.Name(), nil, tracer)

		result, err := r.MonthlyPlan(noopCtx, 2026)

		require.NoError(mt, err)
		require.Len(mt, result, 1)
		assert.Equal(mt, 7, result[0].Month)
		assert.Equal(mt, 2, result[0].NumTourStarts)
		assert.Equal(mt, []string{"The Forest Hiker", "The Sea Explorer"}, result[0].Tours)
	})

	mt.Run("leaves out secret tours", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, tableName, mtest.FirstBatch))
		r := repository.NewMongoTourRepository(mt.Client, mt.DB.Name(), nil, tracer)

		_, err := r.MonthlyPlan(noopCtx, 2026)

		require.NoError(mt, err)
		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		first := evt.Command.Lookup("pipeline").Array().Lookup("0").Document()
		assert.True(mt, first.Lookup("$match", "secret", "$ne").Boolean())
	})
}

func TestMongoTourRepository_UpdateRatings(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()
	tTour := tests.NewTour()
	tTourBsonD := tests.BsonD(tTour)

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: tTourBsonD},
		})
		r := repository.NewMongoTourRepository(mt.Client, mt.DB.Name(), nil, tracer)

		err := r.UpdateRatings(noopCtx, tTour.ID, 7, 4.8)

		require.NoError(mt, err)
	})

	mt.Run("not exists", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		r := repository.NewMongoTourRepository(mt.Client, mt.DB.Name(), nil, tracer)

		err := r.UpdateRatings(noopCtx, tTour.ID, 7, 4.8)

		assert.ErrorIs(mt, err, domain.ErrNoAffected)
	})
}
