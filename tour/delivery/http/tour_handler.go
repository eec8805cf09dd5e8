package http

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
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

const maxTourImages = 3

// TourHandler represent the http handler for tour
type TourHandler struct {
	tourUsecase   domain.TourUsecase
	authenticator *auth.Authenticator
	validator     *web.AppValidator
	logger        *zap.Logger
	tracer        trace.Tracer
}

// NewTourHandler will initialize the tours/ resources endpoint
func NewTourHandler(tu domain.TourUsecase, authenticator *auth.Authenticator, v *web.AppValidator, logger *zap.Logger, tracer trace.Tracer) *TourHandler {
	return &TourHandler{
		tourUsecase:   tu,
		authenticator: authenticator,
		validator:     v,
		logger:        logger,
		tracer:        tracer,
	}
}

// RegisterRoutes registers routes for a path with matching handler
func (th *TourHandler) RegisterRoutes(e *echo.Echo) {
	myMiddl := _MyMiddleware.InitMiddleware(th.logger)
	jwtMiddl := echojwt.WithConfig(th.authenticator.JWTConfig)
	manageTours := myMiddl.HasRole(auth.RoleAdmin, auth.RoleLeadGuide)

	e.GET("/v1/tours", th.GetAll)
	e.GET("/v1/tours/top-5-cheap", th.TopCheap)
	e.GET("/v1/tours/stats", th.Stats)
	e.GET("/v1/tours/monthly-plan/:year", th.MonthlyPlan, jwtMiddl, myMiddl.HasRole(auth.RoleAdmin, auth.RoleLeadGuide, auth.RoleGuide))
	e.GET("/v1/tours/tours-within/:distance/center/:latlng/unit/:unit", th.Within)
	e.GET("/v1/tours/distances/:latlng/unit/:unit", th.Distances)
	e.GET("/v1/tours/slug/:slug", th.GetBySlug)
	e.GET("/v1/tours/:id", th.GetByID)
	e.POST("/v1/tours", th.Create, jwtMiddl, manageTours)
	e.PATCH("/v1/tours/:id", th.Update, jwtMiddl, manageTours)
	e.PATCH("/v1/tours/:id/images", th.UploadImages, jwtMiddl, manageTours)
	e.DELETE("/v1/tours/:id", th.Delete, jwtMiddl, manageTours)
}

// GetAll will fetch tours filtered, sorted and paginated by query parameters
func (th *TourHandler) GetAll(c echo.Context) error {
	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := th.tracer.Start(
		ctx,
		"http GetAll",
	)
	defer span.End()

	q := domain.ParseQuery(c.QueryParams())

	tours, err := th.tourUsecase.GetAll(ctx, q)
	if err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, th.logger), domain.ResponseError{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, tours)
}

// TopCheap will fetch the five cheapest tours among the best rated
func (th *TourHandler) TopCheap(c echo.Context) error {
	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := th.tracer.Start(
		ctx,
		"http TopCheap",
	)
	defer span.End()

	values := c.QueryParams()
	values.Set("limit", "5")
	values.Set("sort", "-ratings_average,price")
	values.Set("fields", "name,price,ratings_average,summary,difficulty")
	q := domain.ParseQuery(values)

	tours, err := th.tourUsecase.GetAll(ctx, q)
	if err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, th.logger), domain.ResponseError{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, tours)
}

// GetByID will get tour by given id
func (th *TourHandler) GetByID(c echo.Context) error {
	id := c.Param("id")

	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := th.tracer.Start(
		ctx,
		"http GetByID",
	)
	defer span.End()

	t, err := th.tourUsecase.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, th.logger), domain.ResponseError{Error: err.Error()})
	}
	span.SetAttributes(
		attribute.String("tourid", t.ID.Hex()),
	)

	return c.JSON(http.StatusOK, t)
}

// GetBySlug will get tour by given slug
func (th *TourHandler) GetBySlug(c echo.Context) error {
	slug := c.Param("slug")

	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := th.tracer.Start(
		ctx,
		"http GetBySlug",
		trace.WithAttributes(
			attribute.String("slug", slug)),
	)
	defer span.End()

	t, err := th.tourUsecase.GetBySlug(ctx, slug)
	if err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, th.logger), domain.ResponseError{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, t)
}

// Create will store the Tour by given request body
func (th *TourHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := th.tracer.Start(
		ctx,
		"http Create",
	)
	defer span.End()

	newTour := new(domain.CreateTour)
	if err := c.Bind(newTour); err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, domain.ResponseError{Error: err.Error()})
	}

	if err := c.Validate(newTour); err != nil {
		span.RecordError(err)
		fields := err.(validator.ValidationErrors).Translate(th.validator.Translator)
		return c.JSON(http.StatusBadRequest, domain.ResponseError{Error: "validation error", Fields: fields})
	}

	t, err := th.tourUsecase.Create(ctx, *newTour)
	if err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, th.logger), domain.ResponseError{Error: err.Error()})
	}
	span.SetAttributes(
		attribute.String("tourid", t.ID.Hex()),
	)

	return c.JSON(http.StatusCreated, t)
}

// Update will update the Tour by given id and request body
func (th *TourHandler) Update(c echo.Context) error {
	id := c.Param("id")

	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := th.tracer.Start(
		ctx,
		"http Update",
	)
	defer span.End()

	t := new(domain.UpdateTour)
	if err := c.Bind(t); err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, domain.ResponseError{Error: err.Error()})
	}

	if err := c.Validate(t); err != nil {
		span.RecordError(err)
		fields := err.(validator.ValidationErrors).Translate(th.validator.Translator)
		return c.JSON(http.StatusBadRequest, domain.ResponseError{Error: "validation error", Fields: fields})
	}

	updated, err := th.tourUsecase.Update(ctx, id, *t)
	if err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, th.logger), domain.ResponseError{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, updated)
}

// Delete will delete Tour by given id
func (th *TourHandler) Delete(c echo.Context) error {
	id := c.Param("id")

	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := th.tracer.Start(
		ctx,
		"http Delete",
	)
	defer span.End()

	if err := th.tourUsecase.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, th.logger), domain.ResponseError{Error: err.Error()})
	}

	return c.JSON(http.StatusNoContent, nil)
}

// Within will fetch tours whose start location lies within the given
// distance of the center point
func (th *TourHandler) Within(c echo.Context) error {
	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := th.tracer.Start(
		ctx,
		"http Within",
	)
	defer span.End()

	distance, err := strconv.ParseFloat(c.Param("distance"), 64)
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, domain.ResponseError{Error: "distance is not a number"})
	}

	tours, err := th.tourUsecase.Within(ctx, distance, c.Param("latlng"), c.Param("unit"))
	if err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, th.logger), domain.ResponseError{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, tours)
}

// Distances will compute the distance from the center point to every tour
func (th *TourHandler) Distances(c echo.Context) error {
	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := th.tracer.Start(
		ctx,
		"http Distances",
	)
	defer span.End()

	distances, err := th.tourUsecase.Distances(ctx, c.Param("latlng"), c.Param("unit"))
	if err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, th.logger), domain.ResponseError{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, distances)
}

// Stats will return per-difficulty aggregates over well-rated tours
func (th *TourHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := th.tracer.Start(
		ctx,
		"http Stats",
	)
	defer span.End()

	stats, err := th.tourUsecase.Stats(ctx)
	if err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, th.logger), domain.ResponseError{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, stats)
}

// MonthlyPlan will count tour starts per month of the given year
func (th *TourHandler) MonthlyPlan(c echo.Context) error {
	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := th.tracer.Start(
		ctx,
		"http MonthlyPlan",
	)
	defer span.End()

	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, domain.ResponseError{Error: "year is not a number"})
	}

	plan, err := th.tourUsecase.MonthlyPlan(ctx, year)
	if err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, th.logger), domain.ResponseError{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, plan)
}

// UploadImages will attach a cover image and gallery images from a
// multipart form to the Tour by given id
func (th *TourHandler) UploadImages(c echo.Context) error {
	id := c.Param("id")

	ctx := c.Request().Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := th.tracer.Start(
		ctx,
		"http UploadImages",
	)
	defer span.End()

	form, err := c.MultipartForm()
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, domain.ResponseError{Error: err.Error()})
	}

	var cover []byte
	if files := form.File["image_cover"]; len(files) > 0 {
		cover, err = readFormFile(files[0])
		if err != nil {
			span.RecordError(err)
			return c.JSON(http.StatusBadRequest, domain.ResponseError{Error: err.Error()})
		}
	}

	files := form.File["images"]
	if len(files) > maxTourImages {
		span.RecordError(domain.ErrBadParamInput)
		return c.JSON(http.StatusBadRequest, domain.ResponseError{Error: "at most 3 gallery images are allowed"})
	}
	images := make([][]byte, 0, len(files))
	for _, fh := range files {
		img, err := readFormFile(fh)
		if err != nil {
			span.RecordError(err)
			return c.JSON(http.StatusBadRequest, domain.ResponseError{Error: err.Error()})
		}
		images = append(images, img)
	}

	if cover == nil && len(images) == 0 {
		span.RecordError(domain.ErrBadParamInput)
		return c.JSON(http.StatusBadRequest, domain.ResponseError{Error: "image_cover or images form files are required"})
	}

	t, err := th.tourUsecase.AttachImages(ctx, id, cover, images)
	if err != nil {
		span.RecordError(err)
		return c.JSON(domain.GetStatusCode(err, th.logger), domain.ResponseError{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, t)
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}
