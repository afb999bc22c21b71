package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/findoctor/clinic-api/internal/domain"
	"github.com/findoctor/clinic-api/internal/pkg/id"
	"github.com/findoctor/clinic-api/internal/pkg/validate"
)

// Service manages bookings. Branch assignments recorded here feed the
// recipient resolver's doctor-branch filter.
type Service interface {
	Create(ctx context.Context, req domain.CreateBookingRequest) (*domain.Booking, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Booking, error)
	Cancel(ctx context.Context, bookingID string) error
}

type bookingStore interface {
	Put(ctx context.Context, b *domain.Booking) error
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Booking, error)
	Update(ctx context.Context, bookingID string, updates map[string]interface{}) error
}

type customerStore interface {
	Get(ctx context.Context, customerID string) (*domain.Customer, error)
}

type service struct {
	repo      bookingStore
	customers customerStore
}

func NewService(repo bookingStore, customers customerStore) Service {
	return &service{repo: repo, customers: customers}
}

func (s *service) Create(ctx context.Context, req domain.CreateBookingRequest) (*domain.Booking, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	if _, err := s.customers.Get(ctx, req.CustomerID); err != nil {
		return nil, err
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", req.Date, domain.ErrBadRequest)
	}
	b := &domain.Booking{
		BookingID:  id.New(),
		CustomerID: req.CustomerID,
		AnimalID:   req.AnimalID,
		Branch:     req.Branch,
		Service:    req.Service,
		Date:       date.UTC(),
		Status:     "booked",
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) ListByCustomer(ctx context.Context, customerID string) ([]domain.Booking, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

func (s *service) Cancel(ctx context.Context, bookingID string) error {
	return s.repo.Update(ctx, bookingID, map[string]interface{}{"status": "cancelled"})
}
