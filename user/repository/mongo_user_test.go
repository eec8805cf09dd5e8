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
	"github.com/dhruvjyotiray/natours/tests"
	"github.com/dhruvjyotiray/natours/user/repository"
)

var tracer = sdktrace.NewTracerProvider().Tracer("")
var noopCtx = context.Background()

const tableName = "natours.user"

func TestMongoUserRepository_GetByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()
	tUser := tests.NewUser()
	tUserBsonD := tests.BsonD(tUser)

	mt.Run("not exists", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, tableName, mtest.FirstBatch),
			mtest.CreateCursorResponse(0, tableName, mtest.NextBatch),
		)
		r := repository.NewMongoUserRepository(mt.Client, mt.DB.Name(), nil, tracer)

		result, err := r.GetByID(noopCtx, tUser.ID)

		assert.Nil(mt, result)
		assert.ErrorIs(mt, err, domain.ErrNotFound)
	})

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, tableName, mtest.FirstBatch, tUserBsonD),
			mtest.CreateCursorResponse(0, tableName, mtest.NextBatch),
		)
		r := repository.NewMongoUserRepository(mt.Client, mt.DB.Name(), nil, tracer)

		result, err := r.GetByID(noopCtx, tUser.ID)

		require.NoError(mt, err)
		assert.EqualValues(t, tUser, result)
	})
}

func TestMongoUserRepository_GetByEmail(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()
	tUser := tests.NewUser()
	tUserBsonD := tests.BsonD(tUser)

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, tableName, mtest.FirstBatch, tUserBsonD),
			mtest.CreateCursorResponse(0, tableName, mtest.NextBatch),
		)
		r := repository.NewMongoUserRepository(mt.Client, mt.DB.Name(), nil, tracer)

		result, err := r.GetByEmail(noopCtx, tUser.Email)

		require.NoError(mt, err)
		assert.EqualValues(t, tUser, result)
	})

	mt.Run("not exists", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, tableName, mtest.FirstBatch),
			mtest.CreateCursorResponse(0, tableName, mtest.NextBatch),
		)
		r := repository.NewMongoUserRepository(mt.Client, mt.DB.Name(), nil, tracer)

		result, err := r.GetByEmail(noopCtx, "who@example.com")

		assert.Nil(mt, result)
		assert.ErrorIs(mt, err, domain.ErrNotFound)
	})
}

func TestMongoUserRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()
	tUser := tests.NewUser()

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		r := repository.NewMongoUserRepository(mt.Client, mt.DB.Name(), nil, tracer)

		err := r.Create(noopCtx, tUser)

		require.NoError(mt, err)
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   1,
			Code:    11000,
			Message: "duplicate key error",
		}))
		r := repository.NewMongoUserRepository(mt.Client, mt.DB.Name(), nil, tracer)

		err := r.Create(noopCtx, tUser)

		assert.ErrorIs(mt, err, domain.ErrConflict)
	})
}

func TestMongoUserRepository_Update(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()
	tUser := tests.NewUser()
	tUserBsonD := tests.BsonD(tUser)

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: tUserBsonD},
		})
		r := repository.NewMongoUserRepository(mt.Client, mt.DB.Name(), nil, tracer)

		err := r.Update(noopCtx, tUser)

		require.NoError(mt, err)
	})

	mt.Run("not exists", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		r := repository.NewMongoUserRepository(mt.Client, mt.DB.Name(), nil, tracer)

		err := r.Update(noopCtx, tUser)

		assert.ErrorIs(mt, err, domain.ErrNoAffected)
	})
}

func TestMongoUserRepository_Delete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()
	tUser := tests.NewUser()
	tUserBsonD := tests.BsonD(tUser)

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: tUserBsonD},
		})
		r := repository.NewMongoUserRepository(mt.Client, mt.DB.Name(), nil, tracer)

		err := r.Delete(noopCtx, tUser.ID)

		require.NoError(mt, err)
	})

	mt.Run("not exists", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		r := repository.NewMongoUserRepository(mt.Client, mt.DB.Name(), nil, tracer)

		err := r.Delete(noopCtx, tUser.ID)

		assert.ErrorIs(mt, err, domain.ErrNoAffected)
	})
}
