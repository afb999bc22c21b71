package resolver

import (
	"context"

	"github.com/findoctor/clinic-api/internal/domain"
)

// Resolution is the tagged outcome of recipient resolution. Materialized
// carries the concrete target customers; a count-only resolution carries the
// snapshot count alone, and callers that need actual delivery must re-fetch
// the recipient set themselves.
type Resolution struct {
	Materialized bool
	Customers    []domain.Customer
	Count        int
}

// CountOnly builds a resolution with a count but no materialized list.
func CountOnly(n int) Resolution { return Resolution{Count: n} }

// Materialized builds a resolution whose count is the list length.
func Materialized(customers []domain.Customer) Resolution {
	return Resolution{Materialized: true, Customers: customers, Count: len(customers)}
}

// Service computes which customers a notification request targets.
type Service interface {
	Resolve(ctx context.Context, req domain.CreateNotificationRequest, creator domain.Caller) (Resolution, error)
}

type customerStore interface {
	GetMany(ctx context.Context, customerIDs []string) ([]domain.Customer, error)
	ScanByAnimalType(ctx context.Context, animalType string) ([]domain.Customer, error)
	Count(ctx context.Context) (int, error)
}

type bookingStore interface {
	DistinctCustomerIDsByBranch(ctx context.Context, branch string) ([]string, error)
}

type userStore interface {
	Count(ctx context.Context) (int, error)
}

type service struct {
	customers customerStore
	bookings  bookingStore
	users     userStore
}

func NewService(customers customerStore, bookings bookingStore, users userStore) Service {
	return &service{customers: customers, bookings: bookings, users: users}
}

func (s *service) Resolve(ctx context.Context, req domain.CreateNotificationRequest, creator domain.Caller) (Resolution, error) {
	switch req.Recipients {
	case domain.RecipientsCustomers:
		return s.resolveCustomers(ctx, req, creator)

	case domain.RecipientsSpecific:
		return s.resolveSpecific(ctx, req)

	case domain.RecipientsAll:
		staffCount, err := s.users.Count(ctx)
		if err != nil {
			return Resolution{}, err
		}
		customerCount, err := s.customers.Count(ctx)
		if err != nil {
			return Resolution{}, err
		}
		return CountOnly(staffCount + customerCount), nil

	default:
		// staff / doctors: dashboard-only, no push targets, informational
		// count stays zero.
		return CountOnly(0), nil
	}
}

func (s *service) resolveCustomers(ctx context.Context, req domain.CreateNotificationRequest, creator domain.Caller) (Resolution, error) {
	switch {
	case creator.Role == domain.RoleDoctor && creator.Branch != "":
		// Customers with at least one booking in the doctor's branch,
		// further restricted (AND, never OR) by animal type when given.
		ids, err := s.bookings.DistinctCustomerIDsByBranch(ctx, creator.Branch)
		if err != nil {
			return Resolution{}, err
		}
		customers, err := s.customers.GetMany(ctx, ids)
		if err != nil {
			return Resolution{}, err
		}
		if req.AnimalType != "" {
			customers = filterByAnimalType(customers, req.AnimalType)
		}
		return Materialized(customers), nil

	case creator.Role == domain.RoleAdmin:
		if req.AnimalType != "" {
			customers, err := s.customers.ScanByAnimalType(ctx, req.AnimalType)
			if err != nil {
				return Resolution{}, err
			}
			return Materialized(customers), nil
		}
		// All customers: count snapshot only, the full active set is
		// materialized lazily at dispatch time.
		n, err := s.customers.Count(ctx)
		if err != nil {
			return Resolution{}, err
		}
		return CountOnly(n), nil

	default:
		// Authorization is enforced upstream; any other creator role
		// resolves to nothing.
		return Materialized(nil), nil
	}
}

func (s *service) resolveSpecific(ctx context.Context, req domain.CreateNotificationRequest) (Resolution, error) {
	customers, err := s.customers.GetMany(ctx, req.SpecificCustomers)
	if err != nil {
		return Resolution{}, err
	}
	res := Materialized(customers)
	// The count snapshot is the raw specific_recipients length: duplicates
	// inflate it. Pinned behavior, not an accident.
	res.Count = len(req.SpecificRecipients)
	return res, nil
}

func filterByAnimalType(customers []domain.Customer, animalType string) []domain.Customer {
	filtered := make([]domain.Customer, 0, len(customers))
	for _, c := range customers {
		if c.OwnsAnimalType(animalType) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
