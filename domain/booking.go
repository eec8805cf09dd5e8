package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Booking represents a paid (or pending) purchase of a tour by a user
type Booking struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	Tour      primitive.ObjectID `json:"tour" bson:"tour"`
	User      primitive.ObjectID `json:"user" bson:"user"`
	Price     float64            `json:"price" bson:"price"`
	SessionID string             `json:"session_id" bson:"session_id"`
	Paid      bool               `json:"paid" bson:"paid"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// CreateBooking represents data to create new Booking via the admin API
type CreateBooking struct {
	Tour  string  `json:"tour" validate:"required,len=24,hexadecimal"`
	User  string  `json:"user" validate:"required,len=24,hexadecimal"`
	Price float64 `json:"price" validate:"required,gt=0"`
	Paid  bool    `json:"paid"`
}

// UpdateBooking represents data to update Booking
type UpdateBooking struct {
	Price *float64 `json:"price" validate:"omitempty,gt=0"`
	Paid  *bool    `json:"paid"`
}

// CheckoutRequest describes a checkout session to hand to the payment
// gateway: line item derived from the tour, destinations, and the references
// the confirmation event must echo back.
type CheckoutRequest struct {
	TourID        string  `json:"tour_id"`
	TourName      string  `json:"tour_name"`
	Summary       string  `json:"summary"`
	ImageURL      string  `json:"image_url"`
	AmountCents   int64   `json:"amount_cents"`
	Quantity      int     `json:"quantity"`
	Currency      string  `json:"currency"`
	CustomerEmail string  `json:"customer_email"`
	ClientUserID  string  `json:"client_user_id"`
	SuccessURL    string  `json:"success_url"`
	CancelURL     string  `json:"cancel_url"`
	Price         float64 `json:"-"`
}

// CheckoutSession is the gateway's answer to a CheckoutRequest
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PaymentConfirmation is the payload of a verified payment webhook event.
// Confirmation delivery is at-least-once, booking creation keys on SessionID.
type PaymentConfirmation struct {
	SessionID   string
	TourID      string
	UserEmail   string
	AmountCents int64
}

// PaymentGateway represents the external payment collaborator
type PaymentGateway interface {
	CreateSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

// BookingUsecase represents the Booking's usecases
type BookingUsecase interface {
	GetAll(ctx context.Context, q *Query) ([]*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	Create(ctx context.Context, createBooking CreateBooking) (*Booking, error)
	Update(ctx context.Context, id string, updateBooking UpdateBooking) (*Booking, error)
	Delete(ctx context.Context, id string) error
	Checkout(ctx context.Context, tourID, userID, userEmail string) (*CheckoutSession, error)
	ConfirmPayment(ctx context.Context, confirmation PaymentConfirmation) error
}

// BookingRepository represents the Booking's repository contract
type BookingRepository interface {
	GetAll(ctx context.Context, q *Query) ([]*Booking, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*Booking, error)
	Create(ctx context.Context, booking *Booking) error
	Update(ctx context.Context, id primitive.ObjectID, update bson.M) (*Booking, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// CreateFromSession inserts the booking unless one with the same payment
	// session already exists. Reports whether a document was created.
	CreateFromSession(ctx context.Context, booking *Booking) (bool, error)
}
