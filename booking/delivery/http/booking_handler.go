package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dhruvjyotiray/natours/domain"
	_MyMiddleware "github.com/dhruvjyotiray/natours/middleware"
	"github.com/dhruvjyotiray/natours/payment"
	"github.com/dhruvjyotiray/natours/web"
	"github.com/dhruvjyotiray/natours/web/auth"
)

// SignatureHeader carries the webhook payload signature
const SignatureHeader = "Webhook-Signature"

// BookingHandler represent the http handler for booking
type BookingHandler struct {
	bookingUsecase domain.BookingUsecase
	authenticator  *auth.Authenticator
	validator      *web.AppValidator
	webhookSecret  string
	logger         *zap.Logger
	tracer         trace.Tracer
}

// NewBookingHandler will initialize the bookings/ resources endpoint
func NewBookingHandler(bu domain.BookingUsecase, authenticator *auth.Authenticator, v *web.AppValidator, webhookSecret string, logger *zap.Logger, tracer trace.Tracer) *BookingHandler {
	return &BookingHandler{
		bookingUsecase: bu,
		authenticator:  authenticator,
		validator:      v,
		webhookSecret:  webhookSecret,
		logger:         logger,
		tracer:         tracer,
	}
}

// RegisterRoutes registers routes for a path with matching handler
func (bh *BookingHandler) RegisterRoutes(e *echo.Echo) {
	myMiddl := _MyMiddleware.InitMiddleware(bh.logger)
	jwtMiddl := echojwt.WithConfig(bh.authenticator.JWTConfig)
	manageBookings := myMiddl.HasRole(auth.RoleAdmin, auth.RoleLeadGuide)

	// the provider signs the payload itself, no bearer token involved
	e.POST("/v1/bookings/webhook", bh.Webhook)

	e.GET("/v1/bookings/checkout-session/:tourId", bh.Checkout, jwtMiddl)
	e.GET("/v1/bookings", bh.GetAll, jwtMiddl, manageBookings)
	e.GET("/v1/bookings/:id", bh.GetByID, jwtMiddl, manageBookings)
	e.POST("/v1/bookings", bh.Create, jwtMiddl, manageBookings)
	e.PATCH("/v1/bookings/:id", bh.Update, jwtMiddl, manageBookings)
	e.DELETE("/v1/bookings/:id", bh.Delete, jwtMiddl, manageBookings)
}

// GetAll will fetch bookings filtered, sorted and paginated by query parameters
func (bh *BookingHandler) GetAll(c echo.Context) error {
	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := bh.tracer.Start(
		ctx,
		"http GetAll",
	)
	defer span.End()

	q := domain.ParseQuery(c.QueryParams())

	bookings, err := bh.bookingUsecase.GetAll(ctx, q)
	if err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, bh.logger), domain.ResponseError{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, bookings)
}

// GetByID will get booking by given id
func (bh *BookingHandler) GetByID(c echo.Context) error {
	id := c.Param("id")

	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := bh.tracer.Start(
		ctx,
		"http GetByID",
	)
	defer span.End()

	b, err := bh.bookingUsecase.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, bh.logger), domain.ResponseError{Error: err.Error()})
	}
	span.SetAttributes(
		attribute.String("bookingid", b.ID.Hex()),
	)

	return c.JSON(http.StatusOK, b)
}

// Create will store the Booking by given request body
func (bh *BookingHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := bh.tracer.Start(
		ctx,
		"http Create",
	)
	defer span.End()

	newBooking := new(domain.CreateBooking)
	if err := c.Bind(newBooking); err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, domain.ResponseError{Error: err.Error()})
	}

	if err := c.Validate(newBooking); err != nil {
		span.RecordError(err)
		fields := err.(validator.ValidationErrors).Translate(bh.validator.Translator)
		return c.JSON(http.StatusBadRequest, domain.ResponseError{Error: "validation error", Fields: fields})
	}

	b, err := bh.bookingUsecase.Create(ctx, *newBooking)
	if err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, bh.logger), domain.ResponseError{Error: err.Error()})
	}
	span.SetAttributes(
		attribute.String("bookingid", b.ID.Hex()),
	)

	return c.JSON(http.StatusCreated, b)
}

// Update will update the Booking by given id and request body
func (bh *BookingHandler) Update(c echo.Context) error {
	id := c.Param("id")

	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := bh.tracer.Start(
		ctx,
		"http Update",
	)
	defer span.End()

	b := new(domain.UpdateBooking)
	if err := c.Bind(b); err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, domain.ResponseError{Error: err.Error()})
	}

	if err := c.Validate(b); err != nil {
		span.RecordError(err)
		fields := err.(validator.ValidationErrors).Translate(bh.validator.Translator)
		return c.JSON(http.StatusBadRequest, domain.ResponseError{Error: "validation error", Fields: fields})
	}

	updated, err := bh.bookingUsecase.Update(ctx, id, *b)
	if err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, bh.logger), domain.ResponseError{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, updated)
}

// Delete will delete Booking by given id
func (bh *BookingHandler) Delete(c echo.Context) error {
	id := c.Param("id")

	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := bh.tracer.Start(
		ctx,
		"http Delete",
	)
	defer span.End()

	if err := bh.bookingUsecase.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, bh.logger), domain.ResponseError{Error: err.Error()})
	}

	return c.JSON(http.StatusNoContent, nil)
}

// Checkout will open a payment session for the tour on behalf of the caller
func (bh *BookingHandler) Checkout(c echo.Context) error {
	tourID := c.Param("tourId")

	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := bh.tracer.Start(
		ctx,
		"http Checkout",
		trace.WithAttributes(
			attribute.String("tourid", tourID)),
	)
	defer span.End()

	token, ok := c.Get("user").(*jwt.Token)
	if !ok || token == nil {
		span.RecordError(domain.ErrForbidden)
		return c.JSON(http.StatusForbidden, domain.ResponseError{Error: domain.ErrForbidden.Error()})
	}
	claims, ok := token.Claims.(*auth.Claims)
	if !ok {
		span.RecordError(domain.ErrInternalServerError)
		return c.JSON(http.StatusInternalServerError, domain.ResponseError{Error: domain.ErrInternalServerError.Error()})
	}

	session, err := bh.bookingUsecase.Checkout(ctx, tourID, claims.Subject, claims.Email)
	if err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, bh.logger), domain.ResponseError{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, session)
}

// Webhook will record a booking for a verified payment confirmation. The
// provider retries until it sees a 2xx, so replays must stay harmless.
func (bh *BookingHandler) Webhook(c echo.Context) error {
	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := bh.tracer.Start(
		ctx,
		"http Webhook",
	)
	defer span.End()

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, domain.ResponseError{Error: err.Error()})
	}

	confirmation, err := payment.ParseEvent(payload, c.Request().Header.Get(SignatureHeader), bh.webhookSecret, time.Now())
	if err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, bh.logger), domain.ResponseError{Error: err.Error()})
	}
	if confirmation == nil {
		// event type we don't act on, acknowledge so it is not redelivered
		return c.JSON(http.StatusOK, map[string]bool{"received": true})
	}
	span.SetAttributes(attribute.String("sessionid", confirmation.SessionID))

	if err = bh.bookingUsecase.ConfirmPayment(ctx, *confirmation); err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, bh.logger), domain.ResponseError{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}
