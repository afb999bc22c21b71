package domain

import "time"

type Booking struct {
	BookingID  string    `json:"id" dynamodbav:"booking_id"`
	CustomerID string    `json:"customer_id" dynamodbav:"customer_id"`
	AnimalID   string    `json:"animal_id,omitempty" dynamodbav:"animal_id"`
	Branch     string    `json:"branch" dynamodbav:"branch"`
	Service    string    `json:"service" dynamodbav:"service"` // e.g. "vaccination", "checkup"
	Date       time.Time `json:"date" dynamodbav:"date"`
	Status     string    `json:"status" dynamodbav:"status"` // "booked" | "completed" | "cancelled"
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
}

type CreateBookingRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	AnimalID   string `json:"animal_id"`
	Branch     string `json:"branch" validate:"required"`
	Service    string `json:"service" validate:"required"`
	Date       string `json:"date" validate:"required"` // expected format: RFC3339
}
