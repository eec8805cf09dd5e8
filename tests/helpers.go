package tests

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dhruvjyotiray/natours/domain"
	"github.com/dhruvjyotiray/natours/web/auth"
)

// Fixture object ids shared between test cases
const (
	TourID    = "63e4dbee0071d17b54d4a001"
	UserID    = "507f191e810c19729de860ea"
	ReviewID  = "63e4dbee0071d17b54d4a002"
	BookingID = "63e4dbee0071d17b54d4a003"
)

// BsonD converts a model fixture to the wire form a cursor response carries
func BsonD(v interface{}) bson.D {
	data, err := bson.Marshal(v)
	if err != nil {
		panic(err)
	}
	var doc bson.D
	if err = bson.Unmarshal(data, &doc); err != nil {
		panic(err)
	}
	return doc
}

// StringPointer returns pointer of a string
func StringPointer(s string) *string {
	return &s
}

// Float64Pointer returns pointer of a float64
func Float64Pointer(f float64) *float64 {
	return &f
}

// IntPointer returns pointer of an int
func IntPointer(i int) *int {
	return &i
}

// BoolPointer returns pointer of a bool
func BoolPointer(b bool) *bool {
	return &b
}

// DatePointer returns pointer of a time.Time
func DatePointer(t time.Time) *time.Time {
	return &t
}

// ObjectID parses a fixture hex id
func ObjectID(hex string) primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex(hex)
	return id
}

// NewUser creates instance of User model
func NewUser() *domain.User {
	return &domain.User{
		ID:             ObjectID(UserID),
		FullName:       "John Doe",
		Email:          "test@example.com",
		HashedPassword: "$2a$10$2iPnt444yuUBu8tSCm0iXOaGO2YYyTLVzGKr9LudAj7s.9m9iv7PS", // password
		Roles:          []string{auth.RoleUser},
		Active:         true,
		CreatedAt:      time.Now().Truncate(time.Millisecond).UTC(),
		UpdatedAt:      time.Now().Truncate(time.Millisecond).UTC(),
	}
}

// NewUpdateUser creates instance of UpdateUser model
func NewUpdateUser() domain.UpdateUser {
	return domain.UpdateUser{
		ID:              ObjectID(UserID),
		FullName:        StringPointer("John Doe"),
		Email:           StringPointer("test@example.com"),
		CurrentPassword: "password",
		NewPassword:     StringPointer("newpassword"),
	}
}

// NewCreateUser creates instance of CreateUser model
func NewCreateUser() domain.CreateUser {
	return domain.CreateUser{
		FullName: "John Doe",
		Email:    "test@example.com",
		Password: "newpassword",
	}
}

// NewTour creates instance of Tour model
func NewTour() *domain.Tour {
	return &domain.Tour{
		ID:              ObjectID(TourID),
		Name:            "The Forest Hiker",
		Slug:            "the-forest-hiker",
		Duration:        5,
		MaxGroupSize:    25,
		Difficulty:      domain.DifficultyEasy,
		RatingsAverage:  domain.DefaultRatingsAverage,
		RatingsQuantity: domain.DefaultRatingsQuantity,
		Price:           397,
		Summary:         "Breathtaking hike through the Canadian Banff National Park",
		ImageCover:      "tour-1-cover.jpg",
		StartLocation: &domain.Location{
			Type:        "Point",
			Coordinates: []float64{-115.570154, 51.178456},
			Address:     "224 Banff Ave, Banff, AB, Canada",
			Description: "Banff, CAN",
		},
		StartDates: []time.Time{
			time.Date(2026, time.April, 25, 9, 0, 0, 0, time.UTC),
			time.Date(2026, time.July, 20, 9, 0, 0, 0, time.UTC),
		},
		CreatedAt: time.Now().Truncate(time.Millisecond).UTC(),
		UpdatedAt: time.Now().Truncate(time.Millisecond).UTC(),
	}
}

// NewCreateTour creates instance of CreateTour model
func NewCreateTour() domain.CreateTour {
	return domain.CreateTour{
		Name:         "The Forest Hiker",
		Duration:     5,
		MaxGroupSize: 25,
		Difficulty:   domain.DifficultyEasy,
		Price:        397,
		Summary:      "Breathtaking hike through the Canadian Banff National Park",
		ImageCover:   "tour-1-cover.jpg",
		StartLocation: &domain.Location{
			Type:        "Point",
			Coordinates: []float64{-115.570154, 51.178456},
			Address:     "224 Banff Ave, Banff, AB, Canada",
			Description: "Banff, CAN",
		},
	}
}

// NewUpdateTour creates instance of UpdateTour model
func NewUpdateTour() domain.UpdateTour {
	return domain.UpdateTour{
		Name:  StringPointer("The Mountain Explorer"),
		Price: Float64Pointer(497),
	}
}

// NewReview creates instance of Review model
func NewReview() *domain.Review {
	return &domain.Review{
		ID:        ObjectID(ReviewID),
		Review:    "Amazing guides and stunning views",
		Rating:    5,
		Tour:      ObjectID(TourID),
		User:      ObjectID(UserID),
		CreatedAt: time.Now().Truncate(time.Millisecond).UTC(),
		UpdatedAt: time.Now().Truncate(time.Millisecond).UTC(),
	}
}

// NewCreateReview creates instance of CreateReview model
func NewCreateReview() domain.CreateReview {
	return domain.CreateReview{
		Review: "Amazing guides and stunning views",
		Rating: 5,
		Tour:   TourID,
		User:   UserID,
	}
}

// NewBooking creates instance of Booking model
func NewBooking() *domain.Booking {
	return &domain.Booking{
		ID:        ObjectID(BookingID),
		Tour:      ObjectID(TourID),
		User:      ObjectID(UserID),
		Price:     397,
		SessionID: "cs_test_a1b2c3",
		Paid:      true,
		CreatedAt: time.Now().Truncate(time.Millisecond).UTC(),
	}
}

// NewCreateBooking creates instance of CreateBooking model
func NewCreateBooking() domain.CreateBooking {
	return domain.CreateBooking{
		Tour:  TourID,
		User:  UserID,
		Price: 397,
		Paid:  true,
	}
}
