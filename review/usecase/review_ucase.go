package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dhruvjyotiray/natours/domain"
)

type reviewUsecase struct {
	reviewRepo     domain.ReviewRepository
	tourRepo       domain.TourRepository
	contextTimeout time.Duration
	logger         *zap.Logger
	tracer         trace.Tracer
}

// NewReviewUsecase will create new a reviewUsecase object representation of domain.ReviewUsecase interface
func NewReviewUsecase(r domain.ReviewRepository, t domain.TourRepository, timeout time.Duration, logger *zap.Logger, tracer trace.Tracer) domain.ReviewUsecase {
	return &reviewUsecase{
		reviewRepo:     r,
		tourRepo:       t,
		contextTimeout: timeout,
		logger:         logger,
		tracer:         tracer,
	}
}

func (uc *reviewUsecase) GetAll(c context.Context, tourID string, q *domain.Query) ([]*domain.Review, error) {
	ctx, cancel := context.WithTimeout(c, uc.contextTimeout)
	defer cancel()

	ctx, span := uc.tracer.Start(
		ctx,
		"usecase GetAll",
	)
	defer span.End()

	if tourID != "" {
		objID, err := primitive.ObjectIDFromHex(tourID)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("tour ID is not valid ObjectID: %w: %s", domain.ErrBadParamInput, err.Error())
		}
		q = q.Scope(bson.M{"tour": objID})
	}

	reviews, err := uc.reviewRepo.GetAll(ctx, q)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return reviews, nil
}

func (uc *reviewUsecase) GetByID(c context.Context, id string) (*domain.Review, error) {
	ctx, cancel := context.WithTimeout(c, uc.contextTimeout)
	defer cancel()

	ctx, span := uc.tracer.Start(
		ctx,
		"usecase GetByID",
		trace.WithAttributes(
			attribute.String("reviewid", id)),
	)
	defer span.End()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("review ID is not valid ObjectID: %w: %s", domain.ErrBadParamInput, err.Error())
	}

	return uc.reviewRepo.GetByID(ctx, objID)
}

func (uc *reviewUsecase) Create(c context.Context, createReview domain.CreateReview) (*domain.Review, error) {
	ctx, cancel := context.WithTimeout(c, uc.contextTimeout)
	defer cancel()

	ctx, span := uc.tracer.Start(
		ctx,
		"usecase Create",
	)
	defer span.End()

	tourID, err := primitive.ObjectIDFromHex(createReview.Tour)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("tour ID is not valid ObjectID: %w: %s", domain.ErrBadParamInput, err.Error())
	}
	userID, err := primitive.ObjectIDFromHex(createReview.User)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("user ID is not valid ObjectID: %w: %s", domain.ErrBadParamInput, err.Error())
	}

	now := time.Now().Truncate(time.Millisecond).UTC()
	r := &domain.Review{
		ID:        primitive.NewObjectID(),
		Review:    createReview.Review,
		Rating:    createReview.Rating,
		Tour:      tourID,
		User:      userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err = uc.reviewRepo.Create(ctx, r); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("reviewid", r.ID.Hex()))

	uc.recomputeRatings(ctx, tourID)

	return r, nil
}

func (uc *reviewUsecase) Update(c context.Context, id string, updateReview domain.UpdateReview) (*domain.Review, error) {
	ctx, cancel := context.WithTimeout(c, uc.contextTimeout)
	defer cancel()

	ctx, span := uc.tracer.Start(
		ctx,
		"usecase Update",
		trace.WithAttributes(
			attribute.String("reviewid", id)),
	)
	defer span.End()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("review ID is not valid ObjectID: %w: %s", domain.ErrBadParamInput, err.Error())
	}

	set := bson.M{"updated_at": time.Now().Truncate(time.Millisecond).UTC()}
	if updateReview.Review != nil {
		set["review"] = *updateReview.Review
	}
	if updateReview.Rating != nil {
		set["rating"] = *updateReview.Rating
	}

	r, err := uc.reviewRepo.Update(ctx, objID, bson.M{"$set": set})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	uc.recomputeRatings(ctx, r.Tour)

	return r, nil
}

func (uc *reviewUsecase) Delete(c context.Context, id string) error {
	ctx, cancel := context.WithTimeout(c, uc.contextTimeout)
	defer cancel()

	ctx, span := uc.tracer.Start(
		ctx,
		"usecase Delete",
		trace.WithAttributes(
			attribute.String("reviewid", id)),
	)
	defer span.End()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("review ID is not valid ObjectID: %w: %s", domain.ErrBadParamInput, err.Error())
	}

	r, err := uc.reviewRepo.Delete(ctx, objID)
	if err != nil {
		span.RecordError(err)
		return err
	}

	uc.recomputeRatings(ctx, r.Tour)

	return nil
}

// recomputeRatings refreshes the tour's stored rating aggregate after a
// review write. A tour left without reviews falls back to the defaults. The
// review write already succeeded, so failures here are logged and swallowed.
func (uc *reviewUsecase) recomputeRatings(ctx context.Context, tourID primitive.ObjectID) {
	stats, err := uc.reviewRepo.RatingStats(ctx, tourID)
	if err != nil {
		uc.logger.Error("can't recompute tour ratings",
			zap.String("tourid", tourID.Hex()), zap.Error(err))
		return
	}

	quantity := domain.DefaultRatingsQuantity
	average := domain.DefaultRatingsAverage
	if stats != nil {
		quantity = stats.Quantity
		average = math.Round(stats.Average*10) / 10
	}

	if err = uc.tourRepo.UpdateRatings(ctx, tourID, quantity, average); err != nil {
		uc.logger.Error("can't store tour ratings",
			zap.String("tourid", tourID.Hex()), zap.Error(err))
	}
}
