package domain

import "time"

// Animal is a pet owned by a customer, embedded in the customer item.
type Animal struct {
	AnimalID string `json:"id" dynamodbav:"animal_id"`
	Name     string `json:"name" dynamodbav:"name"`
	Type     string `json:"type" dynamodbav:"type"` // e.g. "dog", "cat", "bird"
	Breed    string `json:"breed,omitempty" dynamodbav:"breed"`
	Age      int    `json:"age,omitempty" dynamodbav:"age"`
}

type Customer struct {
	CustomerID string   `json:"id" dynamodbav:"customer_id"`
	Name       string   `json:"name" dynamodbav:"name"`
	Phone      string   `json:"phone" dynamodbav:"phone"`
	Email      *string  `json:"email,omitempty" dynamodbav:"email"`
	Animals    []Animal `json:"animals" dynamodbav:"animals"`
	// AnimalTypes mirrors the distinct types in Animals. DynamoDB filter
	// expressions cannot reach into animals[*].type, so the set is kept in
	// sync by the customer service on every animal mutation.
	AnimalTypes []string `json:"-" dynamodbav:"animal_types,stringset,omitempty"`
	// DeviceTokens is the customer's push-delivery token set. Stored as a
	// string set so registration is an atomic ADD (dedup for free) and
	// removal an atomic DELETE.
	DeviceTokens []string  `json:"device_tokens,omitempty" dynamodbav:"device_tokens,stringset,omitempty"`
	IsActive     bool      `json:"is_active" dynamodbav:"is_active"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

// OwnsAnimalType reports whether the customer owns at least one animal of
// the given type.
func (c *Customer) OwnsAnimalType(animalType string) bool {
	for _, a := range c.Animals {
		if a.Type == animalType {
			return true
		}
	}
	return false
}

type CreateCustomerRequest struct {
	Name    string        `json:"name" validate:"required"`
	Phone   string        `json:"phone" validate:"required"`
	Email   *string       `json:"email" validate:"omitempty,email"`
	Animals []AnimalInput `json:"animals" validate:"omitempty,dive"`
}

type UpdateCustomerRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	Email *string `json:"email" validate:"omitempty,email"`
}

type AnimalInput struct {
	Name  string `json:"name" validate:"required"`
	Type  string `json:"type" validate:"required"`
	Breed string `json:"breed"`
	Age   int    `json:"age" validate:"omitempty,gte=0"`
}
