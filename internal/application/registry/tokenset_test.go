package registry

import (
	"context"
	"fmt"
	"testing"

	"github.com/findoctor/clinic-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCustomerStore keeps token sets in memory with the same semantics the
// storage layer gets from atomic set mutations: add absorbs duplicates,
// remove of an absent member is a no-op.
type memCustomerStore struct {
	customers map[string]*domain.Customer
}

func newMemCustomerStore(customers ...*domain.Customer) *memCustomerStore {
	s := &memCustomerStore{customers: make(map[string]*domain.Customer)}
	for _, c := range customers {
		s.customers[c.CustomerID] = c
	}
	return s
}

func (s *memCustomerStore) Get(_ context.Context, customerID string) (*domain.Customer, error) {
	c, ok := s.customers[customerID]
	if !ok {
		return nil, fmt.Errorf("customer not found: %w", domain.ErrNotFound)
	}
	return c, nil
}

func (s *memCustomerStore) AddDeviceToken(_ context.Context, customerID, token string) error {
	c, ok := s.customers[customerID]
	if !ok {
		return fmt.Errorf("customer not found: %w", domain.ErrNotFound)
	}
	for _, t := range c.DeviceTokens {
		if t == token {
			return nil
		}
	}
	c.DeviceTokens = append(c.DeviceTokens, token)
	return nil
}

func (s *memCustomerStore) RemoveDeviceToken(_ context.Context, customerID, token string) error {
	c, ok := s.customers[customerID]
	if !ok {
		return fmt.Errorf("customer not found: %w", domain.ErrNotFound)
	}
	kept := c.DeviceTokens[:0]
	for _, t := range c.DeviceTokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	c.DeviceTokens = kept
	return nil
}

func TestAddToken_DoubleAdd_StoresSingleToken(t *testing.T) {
	store := newMemCustomerStore(&domain.Customer{CustomerID: "c1"})
	svc := NewService(store)

	_, err := svc.AddToken(context.Background(), "c1", "tok-1")
	require.NoError(t, err)
	tokens, err := svc.AddToken(context.Background(), "c1", "tok-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"tok-1"}, tokens)
}

func TestRemoveToken_DropsOnlyTheGivenToken(t *testing.T) {
	store := newMemCustomerStore(&domain.Customer{
		CustomerID:   "c1",
		DeviceTokens: []string{"tok-1", "tok-2"},
	})
	svc := NewService(store)

	tokens, err := svc.RemoveToken(context.Background(), "c1", "tok-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-2"}, tokens)

	// Removing it again changes nothing.
	tokens, err = svc.RemoveToken(context.Background(), "c1", "tok-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-2"}, tokens)
}
