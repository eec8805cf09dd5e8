package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dhruvjyotiray/natours/domain"
	"github.com/dhruvjyotiray/natours/web/auth"
)

// Seed inserts data in database for development purposes
func Seed(ctx context.Context, db *mongo.Database) error {
	timeNow := time.Now().Truncate(time.Millisecond).UTC()

	adminID := primitive.NewObjectID()
	guideID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	forestID := primitive.NewObjectID()
	seaID := primitive.NewObjectID()

	discount := 349.0

	collections := map[string][]interface{}{
		UserCollection: {
			domain.User{
				ID:             adminID,
				FullName:       "Ada Admin",
				Email:          "admin@natours.test",
				HashedPassword: "$2a$10$2iPnt444yuUBu8tSCm0iXOaGO2YYyTLVzGKr9LudAj7s.9m9iv7PS", // password
				Roles:          []string{auth.RoleAdmin},
				Active:         true,
				CreatedAt:      timeNow,
				UpdatedAt:      timeNow,
			},
			domain.User{
				ID:             guideID,
				FullName:       "Greg Guide",
				Email:          "guide@natours.test",
				HashedPassword: "$2a$10$2iPnt444yuUBu8tSCm0iXOaGO2YYyTLVzGKr9LudAj7s.9m9iv7PS",
				Roles:          []string{auth.RoleLeadGuide},
				Active:         true,
				CreatedAt:      timeNow,
				UpdatedAt:      timeNow,
			},
			domain.User{
				ID:             userID,
				FullName:       "John Doe",
				Email:          "user@natours.test",
				HashedPassword: "$2a$10$2iPnt444yuUBu8tSCm0iXOaGO2YYyTLVzGKr9LudAj7s.9m9iv7PS",
				Roles:          []string{auth.RoleUser},
				Active:         true,
				CreatedAt:      timeNow,
				UpdatedAt:      timeNow,
			},
		},
		TourCollection: {
			domain.Tour{
				ID:              forestID,
				Name:            "The Forest Hiker",
				Slug:            domain.MakeSlug("The Forest Hiker"),
				Duration:        5,
				MaxGroupSize:    25,
				Difficulty:      domain.DifficultyEasy,
				RatingsAverage:  domain.DefaultRatingsAverage,
				RatingsQuantity: domain.DefaultRatingsQuantity,
				Price:           397,
				Summary:         "Breathtaking hike through the Canadian Banff National Park",
				ImageCover:      "tour-forest-cover.jpeg",
				StartDates:      []time.Time{timeNow.AddDate(0, 2, 0), timeNow.AddDate(0, 5, 0)},
				StartLocation: &domain.Location{
					Type:        "Point",
					Coordinates: []float64{-115.570154, 51.178456},
					Address:     "224 Banff Ave, Banff, AB, Canada",
					Description: "Banff, CAN",
				},
				Guides:    []primitive.ObjectID{guideID},
				CreatedAt: timeNow,
				UpdatedAt: timeNow,
			},
			domain.Tour{
				ID:              seaID,
				Name:            "The Sea Explorer",
				Slug:            domain.MakeSlug("The Sea Explorer"),
				Duration:        7,
				MaxGroupSize:    15,
				Difficulty:      domain.DifficultyMedium,
				RatingsAverage:  domain.DefaultRatingsAverage,
				RatingsQuantity: domain.DefaultRatingsQuantity,
				Price:           497,
				Discount:        &discount,
				Summary:         "Exploring the jaw-dropping US east coast by foot and by boat",
				ImageCover:      "tour-sea-cover.jpeg",
				StartDates:      []time.Time{timeNow.AddDate(0, 1, 0)},
				StartLocation: &domain.Location{
					Type:        "Point",
					Coordinates: []float64{-80.185942, 25.774772},
					Address:     "301 Biscayne Blvd, Miami, FL, USA",
					Description: "Miami, USA",
				},
				Guides:    []primitive.ObjectID{guideID},
				CreatedAt: timeNow,
				UpdatedAt: timeNow,
			},
		},
		ReviewCollection: {
			domain.Review{
				ID:        primitive.NewObjectID(),
				Review:    "Amazing tour, would go again!",
				Rating:    5,
				Tour:      forestID,
				User:      userID,
				CreatedAt: timeNow,
				UpdatedAt: timeNow,
			},
		},
	}

	for name, docs := range collections {
		if _, err := db.Collection(name).InsertMany(ctx, docs); err != nil {
			return err
		}
	}

	return nil
}
