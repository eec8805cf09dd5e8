package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dhruvjyotiray/natours/domain"
)

// Earth radii used to convert a distance to the query engine's angular
// radius, and meter multipliers for distance annotation.
const (
	earthRadiusMi = 3963.2
	earthRadiusKm = 6378.1
	metersToMi    = 0.00062137
	metersToKm    = 0.001
)

type tourUsecase struct {
	tourRepo       domain.TourRepository
	images         domain.ImageStore
	contextTimeout time.Duration
	logger         *zap.Logger
	tracer         trace.Tracer
}

// NewTourUsecase will create new a tourUsecase object representation of domain.TourUsecase interface
func NewTourUsecase(t domain.TourRepository, images domain.ImageStore, timeout time.Duration, logger *zap.Logger, tracer trace.Tracer) domain.TourUsecase {
	return &tourUsecase{
		tourRepo:       t,
		images:         images,
		contextTimeout: timeout,
		logger:         logger,
		tracer:         tracer,
	}
}

func (uc *tourUsecase) GetAll(c context.Context, q *domain.Query) ([]*domain.Tour, error) {
	ctx, cancel := context.WithTimeout(c, uc.contextTimeout)
	defer cancel()

	ctx, span := uc.tracer.Start(
		ctx,
		"usecase GetAll",
	)
	defer span.End()

	tours, err := uc.tourRepo.GetAll(ctx, q)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return tours, nil
}

func (uc *tourUsecase) GetByID(c context.Context, id string) (*domain.Tour, error) {
	ctx, cancel := context.WithTimeout(c, uc.contextTimeout)
	defer cancel()

	ctx, span := uc.tracer.Start(
		ctx,
		"usecase GetByID",
		trace.WithAttributes(
			attribute.String("tourid", id)),
	)
	defer span.End()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("tour ID is not valid ObjectID: %w: %s", domain.ErrBadParamInput, err.Error())
	}

	return uc.tourRepo.GetByID(ctx, objID)
}

func (uc *tourUsecase) GetBySlug(c context.Context, slug string) (*domain.Tour, error) {
	ctx, cancel := context.WithTimeout(c, uc.contextTimeout)
	defer cancel()

	ctx, span := uc.tracer.Start(
		ctx,
		"usecase GetBySlug",
		trace.WithAttributes(
			attribute.String("slug", slug)),
	)
	defer span.End()

	return uc.tourRepo.GetBySlug(ctx, slug)
}

func (uc *tourUsecase) Create(c context.Context, createTour domain.CreateTour) (*domain.Tour, error) {
	ctx, cancel := context.WithTimeout(c, uc.contextTimeout)
	defer cancel()

	ctx, span := uc.tracer.Start(
		ctx,
		"usecase Create",
	)
	defer span.End()

	guides, err := parseObjectIDs(createTour.Guides)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := time.Now().Truncate(time.Millisecond).UTC()
	t := &domain.Tour{
		ID:              primitive.NewObjectID(),
		Name:            createTour.Name,
		Slug:            domain.MakeSlug(createTour.Name),
		Duration:        createTour.Duration,
		MaxGroupSize:    createTour.MaxGroupSize,
		Difficulty:      createTour.Difficulty,
		RatingsAverage:  domain.DefaultRatingsAverage,
		RatingsQuantity: domain.DefaultRatingsQuantity,
		Price:           createTour.Price,
		Discount:        createTour.Discount,
		Summary:         createTour.Summary,
		Description:     createTour.Description,
		ImageCover:      createTour.ImageCover,
		Images:          createTour.Images,
		StartDates:      createTour.StartDates,
		Secret:          createTour.Secret,
		StartLocation:   createTour.StartLocation,
		Locations:       createTour.Locations,
		Guides:          guides,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err = uc.tourRepo.Create(ctx, t); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("tourid", t.ID.Hex()))

	return t, nil
}

func (uc *tourUsecase) Update(c context.Context, id string, updateTour domain.UpdateTour) (*domain.Tour, error) {
	ctx, cancel := context.WithTimeout(c, uc.contextTimeout)
	defer cancel()

	ctx, span := uc.tracer.Start(
		ctx,
		"usecase Update",
		trace.WithAttributes(
			attribute.String("tourid", id)),
	)
	defer span.End()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("tour ID is not valid ObjectID: %w: %s", domain.ErrBadParamInput, err.Error())
	}

	set := bson.M{"updated_at": time.Now().Truncate(time.Millisecond).UTC()}

	if updateTour.Name != nil {
		set["name"] = *updateTour.Name
		// slug always follows the name
		set["slug"] = domain.MakeSlug(*updateTour.Name)
	}
	if updateTour.Duration != nil {
		set["duration"] = *updateTour.Duration
	}
	if updateTour.MaxGroupSize != nil {
		set["max_group_size"] = *updateTour.MaxGroupSize
	}
	if updateTour.Difficulty != nil {
		set["difficulty"] = *updateTour.Difficulty
	}
	if updateTour.Price != nil {
		set["price"] = *updateTour.Price
	}
	if updateTour.Discount != nil {
		set["discount"] = *updateTour.Discount
	}
	if updateTour.Summary != nil {
		set["summary"] = *updateTour.Summary
	}
	if updateTour.Description != nil {
		set["description"] = *updateTour.Description
	}
	if updateTour.ImageCover != nil {
		set["image_cover"] = *updateTour.ImageCover
	}
	if updateTour.Images != nil {
		set["images"] = updateTour.Images
	}
	if updateTour.StartDates != nil {
		set["start_dates"] = updateTour.StartDates
	}
	if updateTour.Secret != nil {
		set["secret"] = *updateTour.Secret
	}
	if updateTour.StartLocation != nil {
		set["start_location"] = updateTour.StartLocation
	}
	if updateTour.Locations != nil {
		set["locations"] = updateTour.Locations
	}
	if updateTour.Guides != nil {
		guides, err := parseObjectIDs(updateTour.Guides)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		set["guides"] = guides
	}

	if updateTour.Discount != nil || updateTour.Price != nil {
		if err = uc.checkDiscount(ctx, objID, updateTour); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	t, err := uc.tourRepo.Update(ctx, objID, bson.M{"$set": set})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return t, nil
}

// checkDiscount re-runs the discount < price cross-field rule against the
// candidate record when an update touches either side of it
func (uc *tourUsecase) checkDiscount(ctx context.Context, id primitive.ObjectID, updateTour domain.UpdateTour) error {
	current, err := uc.tourRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	price := current.Price
	if updateTour.Price != nil {
		price = *updateTour.Price
	}
	discount := current.Discount
	if updateTour.Discount != nil {
		discount = updateTour.Discount
	}

	if discount != nil && *discount >= price {
		return fmt.Errorf("discount (%v) must be below the regular price (%v): %w",
			*discount, price, domain.ErrBadParamInput)
	}

	return nil
}

func (uc *tourUsecase) Delete(c context.Context, id string) error {
	ctx, cancel := context.WithTimeout(c, uc.contextTimeout)
	defer cancel()

	ctx, span := uc.tracer.Start(
		ctx,
		"usecase Delete",
		trace.WithAttributes(
			attribute.String("tourid", id)),
	)
	defer span.End()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("tour ID is not valid ObjectID: %w: %s", domain.ErrBadParamInput, err.Error())
	}

	return uc.tourRepo.Delete(ctx, objID)
}

func (uc *tourUsecase) Within(c context.Context, distance float64, latlng, unit string) ([]*domain.Tour, error) {
	ctx, cancel := context.WithTimeout(c, uc.contextTimeout)
	defer cancel()

	ctx, span := uc.tracer.Start(
		ctx,
		"usecase Within",
	)
	defer span.End()

	lat, lng, err := parseLatLng(latlng)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var radius float64
	switch unit {
	case "mi":
		radius = distance / earthRadiusMi
	case "km":
		radius = distance / earthRadiusKm
	default:
		err = fmt.Errorf("unit must be mi or km, got %q: %w", unit, domain.ErrBadParamInput)
		span.RecordError(err)
		return nil, err
	}

	return uc.tourRepo.Within(ctx, lat, lng, radius)
}

func (uc *tourUsecase) Distances(c context.Context, latlng, unit string) ([]domain.TourDistance, error) {
	ctx, cancel := context.WithTimeout(c, uc.contextTimeout)
	defer cancel()

	ctx, span := uc.tracer.Start(
		ctx,
		"usecase Distances",
	)
	defer span.End()

	lat, lng, err := parseLatLng(latlng)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var multiplier float64
	switch unit {
	case "mi":
		multiplier = metersToMi
	case "km":
		multiplier = metersToKm
	default:
		err = fmt.Errorf("unit must be mi or km, got %q: %w", unit, domain.ErrBadParamInput)
		span.RecordError(err)
		return nil, err
	}

	return uc.tourRepo.Distances(ctx, lat, lng, multiplier)
}

func (uc *tourUsecase) Stats(c context.Context) ([]domain.TourStats, error) {
	ctx, cancel := context.WithTimeout(c, uc.contextTimeout)
	defer cancel()

	return uc.tourRepo.Stats(ctx)
}

func (uc *tourUsecase) MonthlyPlan(c context.Context, year int) ([]domain.MonthPlan, error) {
	ctx, cancel := context.WithTimeout(c, uc.contextTimeout)
	defer cancel()

	return uc.tourRepo.MonthlyPlan(ctx, year)
}

// AttachImages uploads the cover and gallery buffers to the image store and
// persists the stored locations on the tour
func (uc *tourUsecase) AttachImages(c context.Context, id string, cover []byte, images [][]byte) (*domain.Tour, error) {
	ctx, cancel := context.WithTimeout(c, uc.contextTimeout)
	defer cancel()

	ctx, span := uc.tracer.Start(
		ctx,
		"usecase AttachImages",
		trace.WithAttributes(
			attribute.String("tourid", id)),
	)
	defer span.End()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("tour ID is not valid ObjectID: %w: %s", domain.ErrBadParamInput, err.Error())
	}

	stamp := time.Now().UnixMilli()
	set := bson.M{"updated_at": time.Now().Truncate(time.Millisecond).UTC()}

	if len(cover) > 0 {
		name := fmt.Sprintf("tour-%s-%d-cover", id, stamp)
		stored, err := uc.images.Upload(ctx, cover, name)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("can't upload cover image: %w", err)
		}
		set["image_cover"] = stored
	}

	if len(images) > 0 {
		stored := make([]string, 0, len(images))
		for i, img := range images {
			name := fmt.Sprintf("tour-%s-%d-%d", id, stamp, i+1)
			loc, err := uc.images.Upload(ctx, img, name)
			if err != nil {
				span.RecordError(err)
				return nil, fmt.Errorf("can't upload image %d: %w", i+1, err)
			}
			stored = append(stored, loc)
		}
		set["images"] = stored
	}

	return uc.tourRepo.Update(ctx, objID, bson.M{"$set": set})
}

// parseLatLng splits "lat,lng" into coordinates. Malformed input returns
// ErrBadParamInput before any query runs.
func parseLatLng(latlng string) (lat, lng float64, err error) {
	parts := strings.Split(latlng, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("please provide latitude and longitude in the format lat,lng: %w", domain.ErrBadParamInput)
	}

	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("latitude is not a number: %w", domain.ErrBadParamInput)
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("longitude is not a number: %w", domain.ErrBadParamInput)
	}

	return lat, lng, nil
}

func parseObjectIDs(hexes []string) ([]primitive.ObjectID, error) {
	if hexes == nil {
		return nil, nil
	}

	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, fmt.Errorf("guide ID %q is not valid ObjectID: %w", h, domain.ErrBadParamInput)
		}
		ids = append(ids, id)
	}

	return ids, nil
}
