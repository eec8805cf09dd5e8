package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/dhruvjyotiray/natours/domain"
	"github.com/dhruvjyotiray/natours/review/mock"
	"github.com/dhruvjyotiray/natours/review/usecase"
	"github.com/dhruvjyotiray/natours/tests"
	tourMock "github.com/dhruvjyotiray/natours/tour/mock"
)

var tracer = sdktrace.NewTracerProvider().Tracer("")

func TestReviewUsecase_GetAll(t *testing.T) {
	controller := gomock.NewController(t)
	defer controller.Finish()
	reviewRepo := mock.NewMockReviewRepository(controller)
	tourRepo := tourMock.NewMockTourRepository(controller)
	uc := usecase.NewReviewUsecase(reviewRepo, tourRepo, 10*time.Second, zap.NewNop(), tracer)

	tReview := tests.NewReview()

	t.Run("scoped to a tour", func(t *testing.T) {
		reviewRepo.EXPECT().GetAll(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, q *domain.Query) ([]*domain.Review, error) {
				assert.Equal(t, tReview.Tour, q.Filter["tour"])
				return []*domain.Review{tReview}, nil
			})

		result, err := uc.GetAll(context.Background(), tests.TourID, domain.NewQuery())

		require.NoError(t, err)
		require.Len(t, result, 1)
	})

	t.Run("unscoped when no tour given", func(t *testing.T) {
		reviewRepo.EXPECT().GetAll(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, q *domain.Query) ([]*domain.Review, error) {
				assert.NotContains(t, q.Filter, "tour")
				return []*domain.Review{tReview}, nil
			})

		_, err := uc.GetAll(context.Background(), "", domain.NewQuery())

		require.NoError(t, err)
	})

	t.Run("bad tour id", func(t *testing.T) {
		result, err := uc.GetAll(context.Background(), "nope", domain.NewQuery())

		assert.Nil(t, result)
		assert.ErrorIs(t, err, domain.ErrBadParamInput)
	})
}

func TestReviewUsecase_Create(t *testing.T) {
	controller := gomock.NewController(t)
	defer controller.Finish()
	reviewRepo := mock.NewMockReviewRepository(controller)
	tourRepo := tourMock.NewMockTourRepository(controller)
	uc := usecase.NewReviewUsecase(reviewRepo, tourRepo, 10*time.Second, zap.NewNop(), tracer)

	tCreateReview := tests.NewCreateReview()
	tourID := tests.ObjectID(tests.TourID)

	t.Run("success refreshes the tour rating aggregate", func(t *testing.T) {
		reviewRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		reviewRepo.EXPECT().RatingStats(gomock.Any(), tourID).
			Return(&domain.RatingStats{Tour: tourID, Quantity: 2, Average: 4.0}, nil)
		tourRepo.EXPECT().UpdateRatings(gomock.Any(), tourID, 2, 4.0).Return(nil)

		result, err := uc.Create(context.Background(), tCreateReview)

		require.NoError(t, err)
		assert.Equal(t, tCreateReview.Rating, result.Rating)
		assert.Equal(t, tourID, result.Tour)
	})

	t.Run("mean rating is rounded to one decimal", func(t *testing.T) {
		reviewRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		reviewRepo.EXPECT().RatingStats(gomock.Any(), tourID).
			Return(&domain.RatingStats{Tour: tourID, Quantity: 3, Average: 4.666666666666667}, nil)
		tourRepo.EXPECT().UpdateRatings(gomock.Any(), tourID, 3, 4.7).Return(nil)

		_, err := uc.Create(context.Background(), tCreateReview)

		require.NoError(t, err)
	})

	t.Run("aggregate failure does not fail the write", func(t *testing.T) {
		reviewRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		reviewRepo.EXPECT().RatingStats(gomock.Any(), tourID).Return(nil, assert.AnError)

		result, err := uc.Create(context.Background(), tCreateReview)

		require.NoError(t, err)
		assert.NotNil(t, result)
	})

	t.Run("duplicate review", func(t *testing.T) {
		reviewRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(domain.ErrConflict)

		result, err := uc.Create(context.Background(), tCreateReview)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestReviewUsecase_Update(t *testing.T) {
	controller := gomock.NewController(t)
	defer controller.Finish()
	reviewRepo := mock.NewMockReviewRepository(controller)
	tourRepo := tourMock.NewMockTourRepository(controller)
	uc := usecase.NewReviewUsecase(reviewRepo, tourRepo, 10*time.Second, zap.NewNop(), tracer)

	tReview := tests.NewReview()

	t.Run("success refreshes ratings for the review's tour", func(t *testing.T) {
		reviewRepo.EXPECT().Update(gomock.Any(), tReview.ID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ interface{}, u bson.M) (*domain.Review, error) {
				set := u["$set"].(bson.M)
				assert.Equal(t, 4.0, set["rating"])
				return tReview, nil
			})
		reviewRepo.EXPECT().RatingStats(gomock.Any(), tReview.Tour).
			Return(&domain.RatingStats{Tour: tReview.Tour, Quantity: 1, Average: 4.0}, nil)
		tourRepo.EXPECT().UpdateRatings(gomock.Any(), tReview.Tour, 1, 4.0).Return(nil)

		result, err := uc.Update(context.Background(), tests.ReviewID, domain.UpdateReview{Rating: tests.Float64Pointer(4)})

		require.NoError(t, err)
		assert.EqualValues(t, tReview, result)
	})

	t.Run("not exists", func(t *testing.T) {
		reviewRepo.EXPECT().Update(gomock.Any(), tReview.ID, gomock.Any()).
			Return(nil, domain.ErrNoAffected)

		result, err := uc.Update(context.Background(), tests.ReviewID, domain.UpdateReview{})

		assert.Nil(t, result)
		assert.ErrorIs(t, err, domain.ErrNoAffected)
	})
}

func TestReviewUsecase_Delete(t *testing.T) {
	controller := gomock.NewController(t)
	defer controller.Finish()
	reviewRepo := mock.NewMockReviewRepository(controller)
	tourRepo := tourMock.NewMockTourRepository(controller)
	uc := usecase.NewReviewUsecase(reviewRepo, tourRepo, 10*time.Second, zap.NewNop(), tracer)

	tReview := tests.NewReview()

	t.Run("last review restores the rating defaults", func(t *testing.T) {
		reviewRepo.EXPECT().Delete(gomock.Any(), tReview.ID).Return(tReview, nil)
		reviewRepo.EXPECT().RatingStats(gomock.Any(), tReview.Tour).Return(nil, nil)
		tourRepo.EXPECT().UpdateRatings(gomock.Any(), tReview.Tour,
			domain.DefaultRatingsQuantity, domain.DefaultRatingsAverage).Return(nil)

		err := uc.Delete(context.Background(), tests.ReviewID)

		require.NoError(t, err)
	})

	t.Run("not exists", func(t *testing.T) {
		reviewRepo.EXPECT().Delete(gomock.Any(), tReview.ID).Return(nil, domain.ErrNoAffected)

		err := uc.Delete(context.Background(), tests.ReviewID)

		assert.ErrorIs(t, err, domain.ErrNoAffected)
	})
}
