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

const checkoutCurrency = "usd"

type bookingUsecase struct {
	bookingRepo    domain.BookingRepository
	tourRepo       domain.TourRepository
	userRepo       domain.UserRepository
	gateway        domain.PaymentGateway
	frontendURL    string
	contextTimeout time.Duration
	logger         *zap.Logger
	tracer         trace.Tracer
}

// NewBookingUsecase will create new a bookingUsecase object representation of domain.BookingUsecase interface
func NewBookingUsecase(b domain.BookingRepository, t domain.TourRepository, u domain.UserRepository, gateway domain.PaymentGateway, frontendURL string, timeout time.Duration, logger *zap.Logger, tracer trace.Tracer) domain.BookingUsecase {
	return &bookingUsecase{
		bookingRepo:    b,
		tourRepo:       t,
		userRepo:       u,
		gateway:        gateway,
		frontendURL:    frontendURL,
		contextTimeout: timeout,
		logger:         logger,
		tracer:         tracer,
	}
}

func (uc *bookingUsecase) GetAll(c context.Context, q *domain.Query) ([]*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(c, uc.contextTimeout)
	defer cancel()

	ctx, span := uc.tracer.Start(
		ctx,
		"usecase GetAll",
	)
	defer span.End()

	bookings, err := uc.bookingRepo.GetAll(ctx, q)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return bookings, nil
}

func (uc *bookingUsecase) GetByID(c context.Context, id string) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(c, uc.contextTimeout)
	defer cancel()

	ctx, span := uc.tracer.Start(
		ctx,
		"usecase GetByID",
		trace.WithAttributes(
			attribute.String("bookingid", id)),
	)
	defer span.End()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("booking ID is not valid ObjectID: %w: %s", domain.ErrBadParamInput, err.Error())
	}

	return uc.bookingRepo.GetByID(ctx, objID)
}

func (uc *bookingUsecase) Create(c context.Context, createBooking domain.CreateBooking) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(c, uc.contextTimeout)
	defer cancel()

	ctx, span := uc.tracer.Start(
		ctx,
		"usecase Create",
	)
	defer span.End()

	tourID, err := primitive.ObjectIDFromHex(createBooking.Tour)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("tour ID is not valid ObjectID: %w: %s", domain.ErrBadParamInput, err.Error())
	}
	userID, err := primitive.ObjectIDFromHex(createBooking.User)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("user ID is not valid ObjectID: %w: %s", domain.ErrBadParamInput, err.Error())
	}

	b := &domain.Booking{
		ID:        primitive.NewObjectID(),
		Tour:      tourID,
		User:      userID,
		Price:     createBooking.Price,
		Paid:      createBooking.Paid,
		CreatedAt: time.Now().Truncate(time.Millisecond).UTC(),
	}

	if err = uc.bookingRepo.Create(ctx, b); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("bookingid", b.ID.Hex()))

	return b, nil
}

func (uc *bookingUsecase) Update(c context.Context, id string, updateBooking domain.UpdateBooking) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(c, uc.contextTimeout)
	defer cancel()

	ctx, span := uc.tracer.Start(
		ctx,
		"usecase Update",
		trace.WithAttributes(
			attribute.String("bookingid", id)),
	)
	defer span.End()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("booking ID is not valid ObjectID: %w: %s", domain.ErrBadParamInput, err.Error())
	}

	set := bson.M{}
	if updateBooking.Price != nil {
		set["price"] = *updateBooking.Price
	}
	if updateBooking.Paid != nil {
		set["paid"] = *updateBooking.Paid
	}
	if len(set) == 0 {
		span.RecordError(domain.ErrBadParamInput)
		return nil, fmt.Errorf("nothing to update: %w", domain.ErrBadParamInput)
	}

	b, err := uc.bookingRepo.Update(ctx, objID, bson.M{"$set": set})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return b, nil
}

func (uc *bookingUsecase) Delete(c context.Context, id string) error {
	ctx, cancel := context.WithTimeout(c, uc.contextTimeout)
	defer cancel()

	ctx, span := uc.tracer.Start(
		ctx,
		"usecase Delete",
		trace.WithAttributes(
			attribute.String("bookingid", id)),
	)
	defer span.End()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("booking ID is not valid ObjectID: %w: %s", domain.ErrBadParamInput, err.Error())
	}

	return uc.bookingRepo.Delete(ctx, objID)
}

// Checkout builds the payment descriptor for one seat on a tour and opens a
// session with the gateway
func (uc *bookingUsecase) Checkout(c context.Context, tourID, userID, userEmail string) (*domain.CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(c, uc.contextTimeout)
	defer cancel()

	ctx, span := uc.tracer.Start(
		ctx,
		"usecase Checkout",
		trace.WithAttributes(
			attribute.String("tourid", tourID)),
	)
	defer span.End()

	objID, err := primitive.ObjectIDFromHex(tourID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("tour ID is not valid ObjectID: %w: %s", domain.ErrBadParamInput, err.Error())
	}

	t, err := uc.tourRepo.GetByID(ctx, objID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	req := domain.CheckoutRequest{
		TourID:        tourID,
		TourName:      fmt.Sprintf("%s Tour", t.Name),
		Summary:       t.Summary,
		ImageURL:      t.ImageCover,
		AmountCents:   int64(math.Round(t.Price * 100)),
		Quantity:      1,
		Currency:      checkoutCurrency,
		CustomerEmail: userEmail,
		ClientUserID:  userID,
		SuccessURL:    fmt.Sprintf("%s/?alert=booking", uc.frontendURL),
		CancelURL:     fmt.Sprintf("%s/tour/%s", uc.frontendURL, t.Slug),
		Price:         t.Price,
	}

	session, err := uc.gateway.CreateSession(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("sessionid", session.ID))

	return session, nil
}

// ConfirmPayment records the booking for a completed checkout session.
// Confirmations are delivered at least once, a replay leaves the store
// untouched.
func (uc *bookingUsecase) ConfirmPayment(c context.Context, confirmation domain.PaymentConfirmation) error {
	ctx, cancel := context.WithTimeout(c, uc.contextTimeout)
	defer cancel()

	ctx, span := uc.tracer.Start(
		ctx,
		"usecase ConfirmPayment",
		trace.WithAttributes(
			attribute.String("sessionid", confirmation.SessionID)),
	)
	defer span.End()

	tourID, err := primitive.ObjectIDFromHex(confirmation.TourID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("tour ID is not valid ObjectID: %w: %s", domain.ErrBadParamInput, err.Error())
	}

	u, err := uc.userRepo.GetByEmail(ctx, confirmation.UserEmail)
	if err != nil {
		span.RecordError(err)
		return err
	}

	b := &domain.Booking{
		ID:        primitive.NewObjectID(),
		Tour:      tourID,
		User:      u.ID,
		Price:     float64(confirmation.AmountCents) / 100,
		SessionID: confirmation.SessionID,
		Paid:      true,
		CreatedAt: time.Now().Truncate(time.Millisecond).UTC(),
	}

	created, err := uc.bookingRepo.CreateFromSession(ctx, b)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !created {
		uc.logger.Info("payment session already recorded",
			zap.String("sessionid", confirmation.SessionID))
	}

	return nil
}
