package registry

import (
	"context"
	"fmt"

	"github.com/findoctor/clinic-api/internal/domain"
)

// Service is the device-token registry over the customer aggregate. Token
// sets are mutated with the store's atomic set add/remove, never
// read-modify-write, so concurrent registrations cannot clobber each other.
type Service interface {
	// AddToken registers a push token for a customer. Re-adding an existing
	// token is a no-op, not an error.
	AddToken(ctx context.Context, customerID, token string) ([]string, error)
	// RemoveToken unregisters a token. Removing an absent token is a no-op.
	RemoveToken(ctx context.Context, customerID, token string) ([]string, error)
	// ListTokens returns the customer's current token set.
	ListTokens(ctx context.Context, customerID string) ([]string, error)
}

type customerStore interface {
	Get(ctx context.Context, customerID string) (*domain.Customer, error)
	AddDeviceToken(ctx context.Context, customerID, token string) error
	RemoveDeviceToken(ctx context.Context, customerID, token string) error
}

type service struct {
	customers customerStore
}

func NewService(customers customerStore) Service {
	return &service{customers: customers}
}

func (s *service) AddToken(ctx context.Context, customerID, token string) ([]string, error) {
	if token == "" {
		return nil, fmt.Errorf("device token is required: %w", domain.ErrBadRequest)
	}
	if err := s.customers.AddDeviceToken(ctx, customerID, token); err != nil {
		return nil, err
	}
	return s.ListTokens(ctx, customerID)
}

func (s *service) RemoveToken(ctx context.Context, customerID, token string) ([]string, error) {
	if token == "" {
		return nil, fmt.Errorf("device token is required: %w", domain.ErrBadRequest)
	}
	if err := s.customers.RemoveDeviceToken(ctx, customerID, token); err != nil {
		return nil, err
	}
	return s.ListTokens(ctx, customerID)
}

func (s *service) ListTokens(ctx context.Context, customerID string) ([]string, error) {
	c, err := s.customers.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return c.DeviceTokens, nil
}
