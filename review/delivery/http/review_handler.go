package http

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dhruvjyotiray/natours/domain"
	_MyMiddleware "github.com/dhruvjyotiray/natours/middleware"
	"github.com/dhruvjyotiray/natours/web"
	"github.com/dhruvjyotiray/natours/web/auth"
)

// ReviewHandler represent the http handler for review
type ReviewHandler struct {
	reviewUsecase domain.ReviewUsecase
	authenticator *auth.Authenticator
	validator     *web.AppValidator
	logger        *zap.Logger
	tracer        trace.Tracer
}

// NewReviewHandler will initialize the reviews/ resources endpoint
func NewReviewHandler(ru domain.ReviewUsecase, authenticator *auth.Authenticator, v *web.AppValidator, logger *zap.Logger, tracer trace.Tracer) *ReviewHandler {
	return &ReviewHandler{
		reviewUsecase: ru,
		authenticator: authenticator,
		validator:     v,
		logger:        logger,
		tracer:        tracer,
	}
}

// RegisterRoutes registers routes for a path with matching handler
func (rh *ReviewHandler) RegisterRoutes(e *echo.Echo) {
	myMiddl := _MyMiddleware.InitMiddleware(rh.logger)
	jwtMiddl := echojwt.WithConfig(rh.authenticator.JWTConfig)

	e.GET("/v1/reviews", rh.GetAll, jwtMiddl)
	e.GET("/v1/reviews/:id", rh.GetByID, jwtMiddl)
	e.POST("/v1/reviews", rh.Create, jwtMiddl, myMiddl.HasRole(auth.RoleUser))
	e.PATCH("/v1/reviews/:id", rh.Update, jwtMiddl, myMiddl.HasRole(auth.RoleUser, auth.RoleAdmin))
	e.DELETE("/v1/reviews/:id", rh.Delete, jwtMiddl, myMiddl.HasRole(auth.RoleUser, auth.RoleAdmin))

	// nested under the owning tour
	e.GET("/v1/tours/:tourId/reviews", rh.GetAll, jwtMiddl)
	e.POST("/v1/tours/:tourId/reviews", rh.Create, jwtMiddl, myMiddl.HasRole(auth.RoleUser))
}

// GetAll will fetch reviews, scoped to one tour when reached through the
// nested route
func (rh *ReviewHandler) GetAll(c echo.Context) error {
	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := rh.tracer.Start(
		ctx,
		"http GetAll",
	)
	defer span.End()

	q := domain.ParseQuery(c.QueryParams())

	reviews, err := rh.reviewUsecase.GetAll(ctx, c.Param("tourId"), q)
	if err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, rh.logger), domain.ResponseError{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, reviews)
}

// GetByID will get review by given id
func (rh *ReviewHandler) GetByID(c echo.Context) error {
	id := c.Param("id")

	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := rh.tracer.Start(
		ctx,
		"http GetByID",
	)
	defer span.End()

	r, err := rh.reviewUsecase.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, rh.logger), domain.ResponseError{Error: err.Error()})
	}
	span.SetAttributes(
		attribute.String("reviewid", r.ID.Hex()),
	)

	return c.JSON(http.StatusOK, r)
}

// Create will store the Review by given request body. The tour comes from
// the nested route and the author from the token when the body omits them.
func (rh *ReviewHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := rh.tracer.Start(
		ctx,
		"http Create",
	)
	defer span.End()

	newReview := new(domain.CreateReview)
	if err := c.Bind(newReview); err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, domain.ResponseError{Error: err.Error()})
	}

	if newReview.Tour == "" {
		newReview.Tour = c.Param("tourId")
	}
	if newReview.User == "" {
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
		newReview.User = claims.Subject
	}

	if err := c.Validate(newReview); err != nil {
		span.RecordError(err)
		fields := err.(validator.ValidationErrors).Translate(rh.validator.Translator)
		return c.JSON(http.StatusBadRequest, domain.ResponseError{Error: "validation error", Fields: fields})
	}

	r, err := rh.reviewUsecase.Create(ctx, *newReview)
	if err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, rh.logger), domain.ResponseError{Error: err.Error()})
	}
	span.SetAttributes(
		attribute.String("reviewid", r.ID.Hex()),
	)

	return c.JSON(http.StatusCreated, r)
}

// Update will update the Review by given id and request body
func (rh *ReviewHandler) Update(c echo.Context) error {
	id := c.Param("id")

	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := rh.tracer.Start(
		ctx,
		"http Update",
	)
	defer span.End()

	r := new(domain.UpdateReview)
	if err := c.Bind(r); err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, domain.ResponseError{Error: err.Error()})
	}

	if err := c.Validate(r); err != nil {
		span.RecordError(err)
		fields := err.(validator.ValidationErrors).Translate(rh.validator.Translator)
		return c.JSON(http.StatusBadRequest, domain.ResponseError{Error: "validation error", Fields: fields})
	}

	updated, err := rh.reviewUsecase.Update(ctx, id, *r)
	if err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, rh.logger), domain.ResponseError{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, updated)
}

// Delete will delete Review by given id
func (rh *ReviewHandler) Delete(c echo.Context) error {
	id := c.Param("id")

	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := rh.tracer.Start(
		ctx,
		"http Delete",
	)
	defer span.End()

	if err := rh.reviewUsecase.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, rh.logger), domain.ResponseError{Error: err.Error()})
	}

	return c.JSON(http.StatusNoContent, nil)
}
