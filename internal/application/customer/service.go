package customer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/findoctor/clinic-api/internal/domain"
	"github.com/findoctor/clinic-api/internal/pkg/id"
	"github.com/findoctor/clinic-api/internal/pkg/validate"
)

// Stats are the dashboard customer counters.
type Stats struct {
	TotalCustomers  int `json:"total_customers"`
	ActiveCustomers int `json:"active_customers"`
}

// Service manages customer records and their animal sub-records. Animal
// mutations keep the derived animal-type set in sync so the recipient
// resolver's filters stay accurate.
type Service interface {
	Create(ctx context.Context, req domain.CreateCustomerRequest) (*domain.Customer, error)
	Get(ctx context.Context, customerID string) (*domain.Customer, error)
	// List returns customers visible to the caller: doctors see only
	// customers with a booking in their branch, everyone else sees all.
	List(ctx context.Context, caller domain.Caller) ([]domain.Customer, error)
	Update(ctx context.Context, customerID string, req domain.UpdateCustomerRequest) (*domain.Customer, error)
	Delete(ctx context.Context, customerID string) error
	SetActive(ctx context.Context, customerID string, active bool) (*domain.Customer, error)
	Stats(ctx context.Context) (Stats, error)

	AddAnimal(ctx context.Context, customerID string, input domain.AnimalInput) (*domain.Customer, error)
	UpdateAnimal(ctx context.Context, customerID, animalID string, input domain.AnimalInput) (*domain.Customer, error)
	RemoveAnimal(ctx context.Context, customerID, animalID string) (*domain.Customer, error)
}

type customerStore interface {
	Put(ctx context.Context, c *domain.Customer) error
	Get(ctx context.Context, customerID string) (*domain.Customer, error)
	GetMany(ctx context.Context, customerIDs []string) ([]domain.Customer, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Customer, error)
	Scan(ctx context.Context) ([]domain.Customer, error)
	Count(ctx context.Context) (int, error)
	CountActive(ctx context.Context) (int, error)
	Update(ctx context.Context, customerID string, updates map[string]interface{}) error
	SetActive(ctx context.Context, customerID string, active bool) error
	SetAnimals(ctx context.Context, customerID string, animals []domain.Animal, animalTypes []string) error
	Delete(ctx context.Context, customerID string) error
}

type bookingStore interface {
	DistinctCustomerIDsByBranch(ctx context.Context, branch string) ([]string, error)
}

type service struct {
	repo     customerStore
	bookings bookingStore
}

func NewService(repo customerStore, bookings bookingStore) Service {
	return &service{repo: repo, bookings: bookings}
}

func (s *service) Create(ctx context.Context, req domain.CreateCustomerRequest) (*domain.Customer, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	if _, err := s.repo.GetByPhone(ctx, req.Phone); err == nil {
		return nil, fmt.Errorf("phone number already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	c := &domain.Customer{
		CustomerID: id.New(),
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Animals:    make([]domain.Animal, 0, len(req.Animals)),
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, a := range req.Animals {
		c.Animals = append(c.Animals, domain.Animal{
			AnimalID: id.New(),
			Name:     a.Name,
			Type:     a.Type,
			Breed:    a.Breed,
			Age:      a.Age,
		})
	}
	c.AnimalTypes = distinctTypes(c.Animals)

	if err := s.repo.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Get(ctx context.Context, customerID string) (*domain.Customer, error) {
	return s.repo.Get(ctx, customerID)
}

func (s *service) List(ctx context.Context, caller domain.Caller) ([]domain.Customer, error) {
	if caller.Role == domain.RoleDoctor && caller.Branch != "" {
		ids, err := s.bookings.DistinctCustomerIDsByBranch(ctx, caller.Branch)
		if err != nil {
			return nil, err
		}
		return s.repo.GetMany(ctx, ids)
	}
	return s.repo.Scan(ctx)
}

func (s *service) Update(ctx context.Context, customerID string, req domain.UpdateCustomerRequest) (*domain.Customer, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, customerID)
	}
	if err := s.repo.Update(ctx, customerID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, customerID)
}

func (s *service) Delete(ctx context.Context, customerID string) error {
	return s.repo.Delete(ctx, customerID)
}

func (s *service) SetActive(ctx context.Context, customerID string, active bool) (*domain.Customer, error) {
	if err := s.repo.SetActive(ctx, customerID, active); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, customerID)
}

func (s *service) Stats(ctx context.Context) (Stats, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	active, err := s.repo.CountActive(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{TotalCustomers: total, ActiveCustomers: active}, nil
}

func (s *service) AddAnimal(ctx context.Context, customerID string, input domain.AnimalInput) (*domain.Customer, error) {
	if err := validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	c, err := s.repo.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	c.Animals = append(c.Animals, domain.Animal{
		AnimalID: id.New(),
		Name:     input.Name,
		Type:     input.Type,
		Breed:    input.Breed,
		Age:      input.Age,
	})
	return s.saveAnimals(ctx, c)
}

func (s *service) UpdateAnimal(ctx context.Context, customerID, animalID string, input domain.AnimalInput) (*domain.Customer, error) {
	if err := validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	c, err := s.repo.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	found := false
	for i := range c.Animals {
		if c.Animals[i].AnimalID == animalID {
			c.Animals[i].Name = input.Name
			c.Animals[i].Type = input.Type
			c.Animals[i].Breed = input.Breed
			c.Animals[i].Age = input.Age
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("animal not found: %w", domain.ErrNotFound)
	}
	return s.saveAnimals(ctx, c)
}

func (s *service) RemoveAnimal(ctx context.Context, customerID, animalID string) (*domain.Customer, error) {
	c, err := s.repo.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	kept := c.Animals[:0]
	found := false
	for _, a := range c.Animals {
		if a.AnimalID == animalID {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		return nil, fmt.Errorf("animal not found: %w", domain.ErrNotFound)
	}
	c.Animals = kept
	return s.saveAnimals(ctx, c)
}

func (s *service) saveAnimals(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	c.AnimalTypes = distinctTypes(c.Animals)
	if err := s.repo.SetAnimals(ctx, c.CustomerID, c.Animals, c.AnimalTypes); err != nil {
		return nil, err
	}
	return c, nil
}

func distinctTypes(animals []domain.Animal) []string {
	seen := make(map[string]struct{}, len(animals))
	var types []string
	for _, a := range animals {
		if _, ok := seen[a.Type]; ok {
			continue
		}
		seen[a.Type] = struct{}{}
		types = append(types, a.Type)
	}
	return types
}
