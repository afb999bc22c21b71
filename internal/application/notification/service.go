package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/findoctor/clinic-api/internal/application/dispatch"
	"github.com/findoctor/clinic-api/internal/application/resolver"
	"github.com/findoctor/clinic-api/internal/domain"
	"github.com/findoctor/clinic-api/internal/pkg/id"
	"github.com/findoctor/clinic-api/internal/pkg/paginate"
	"github.com/findoctor/clinic-api/internal/pkg/validate"
)

// Service orchestrates the notification subsystem: resolve recipients,
// persist the record, then best-effort push dispatch. The persisted record
// is the durable source of truth — dispatch failures are logged and
// swallowed, never surfaced to the creating caller.
type Service interface {
	Create(ctx context.Context, req domain.CreateNotificationRequest, caller domain.Caller) (*domain.Notification, error)
	List(ctx context.Context, caller domain.Caller, params paginate.Params) ([]domain.Notification, paginate.Meta, error)
	MarkAsRead(ctx context.Context, notificationID, readerID string) error
	UnreadCount(ctx context.Context, caller domain.Caller) (int, error)
	Delete(ctx context.Context, notificationID string) error

	// Public customer surface. The customer id is asserted by the request,
	// not verified — see the transport layer's rate limiting.
	ListForCustomer(ctx context.Context, customerID string, params paginate.Params) ([]domain.Notification, paginate.Meta, error)
	UnreadCountForCustomer(ctx context.Context, customerID string) (int, error)
	MarkAsReadForCustomer(ctx context.Context, notificationID, customerID string) error
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListForStaff(ctx context.Context, viewerID, role string) ([]domain.Notification, error)
	ListForCustomer(ctx context.Context, customerID string) ([]domain.Notification, error)
	CountUnreadForStaff(ctx context.Context, viewerID, role string) (int, error)
	CountUnreadForCustomer(ctx context.Context, customerID string) (int, error)
	MarkAsRead(ctx context.Context, notificationID, readerID string, at time.Time) error
	MarkManyAsRead(ctx context.Context, notificationIDs []string, readerID string, at time.Time) error
	SoftDelete(ctx context.Context, notificationID string) error
}

type customerStore interface {
	ScanActive(ctx context.Context) ([]domain.Customer, error)
}

type service struct {
	repo       notificationStore
	customers  customerStore
	resolver   resolver.Service
	dispatcher dispatch.Service
}

func NewService(repo notificationStore, customers customerStore, res resolver.Service, disp dispatch.Service) Service {
	return &service{repo: repo, customers: customers, resolver: res, dispatcher: disp}
}

func (s *service) Create(ctx context.Context, req domain.CreateNotificationRequest, caller domain.Caller) (*domain.Notification, error) {
	if !domain.CanSendNotifications(caller.Role) {
		return nil, fmt.Errorf("role %q cannot send notifications: %w", caller.Role, domain.ErrForbidden)
	}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}

	res, err := s.resolver.Resolve(ctx, req, caller)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	n := &domain.Notification{
		NotificationID:     id.New(),
		Title:              req.Title,
		Message:            req.Message,
		Type:               defaultStr(req.Type, "general"),
		Priority:           defaultStr(req.Priority, "normal"),
		CreatedBy:          caller.ID,
		Recipients:         req.Recipients,
		SpecificRecipients: req.SpecificRecipients,
		SpecificCustomers:  req.SpecificCustomers,
		AnimalType:         req.AnimalType,
		Metadata:           buildMetadata(req, caller),
		RecipientsCount:    res.Count,
		Status:             domain.StatusSent,
		IsActive:           true,
		ReadBy:             []domain.ReadReceipt{},
		ScheduledAt:        req.ScheduledAt,
		CreatedAt:          now,
	}
	if req.ScheduledAt != nil && req.ScheduledAt.After(now) {
		n.Status = domain.StatusScheduled
	}
	if caller.Role == domain.RoleDoctor {
		n.Branch = caller.Branch
	}

	if err := s.repo.Put(ctx, n); err != nil {
		return nil, err
	}

	// The record is durable; everything past this point is best effort.
	s.dispatchBestEffort(ctx, n, req, res)

	return n, nil
}

// dispatchBestEffort pushes the freshly persisted notification. Every error
// is logged and dropped: delivery must never fail the creation request.
func (s *service) dispatchBestEffort(ctx context.Context, n *domain.Notification, req domain.CreateNotificationRequest, res resolver.Resolution) {
	payload := dispatch.Payload{
		Title:          n.Title,
		Body:           n.Message,
		NotificationID: n.NotificationID,
		Type:           n.Type,
		Priority:       n.Priority,
		Metadata:       n.Metadata,
	}

	switch req.Recipients {
	case domain.RecipientsSpecific:
		// Per-customer delivery: one token sends directly, several multicast.
		for _, c := range res.Customers {
			if _, err := s.dispatcher.DispatchToCustomer(ctx, c.CustomerID, payload); err != nil {
				slog.Error("push dispatch to customer failed",
					"notification_id", n.NotificationID, "customer_id", c.CustomerID, "err", err)
			}
		}

	case domain.RecipientsCustomers, domain.RecipientsAll:
		targets := res.Customers
		if !res.Materialized {
			// Count-only resolution: materialize the active customer set now.
			active, err := s.customers.ScanActive(ctx)
			if err != nil {
				slog.Error("could not load active customers for dispatch",
					"notification_id", n.NotificationID, "err", err)
				return
			}
			targets = active
		}
		var tokens []string
		for _, c := range targets {
			tokens = append(tokens, c.DeviceTokens...)
		}
		if len(tokens) == 0 {
			slog.Warn("no device tokens among target customers", "notification_id", n.NotificationID)
			return
		}
		if _, err := s.dispatcher.DispatchToTokens(ctx, tokens, payload); err != nil {
			slog.Error("push dispatch failed", "notification_id", n.NotificationID, "err", err)
		}

	default:
		// staff / doctors: dashboard-only, nothing to push.
	}
}

// List returns the caller-visible page and marks the returned notifications
// as read for the caller in one batch.
func (s *service) List(ctx context.Context, caller domain.Caller, params paginate.Params) ([]domain.Notification, paginate.Meta, error) {
	items, err := s.repo.ListForStaff(ctx, caller.ID, caller.Role)
	if err != nil {
		return nil, paginate.Meta{}, err
	}
	page, meta := searchSortPage(items, params)

	ids := make([]string, len(page))
	for i := range page {
		ids[i] = page[i].NotificationID
	}
	if err := s.repo.MarkManyAsRead(ctx, ids, caller.ID, time.Now().UTC()); err != nil {
		return nil, paginate.Meta{}, err
	}
	return page, meta, nil
}

func (s *service) MarkAsRead(ctx context.Context, notificationID, readerID string) error {
	if _, err := s.repo.Get(ctx, notificationID); err != nil {
		return err
	}
	return s.repo.MarkAsRead(ctx, notificationID, readerID, time.Now().UTC())
}

func (s *service) UnreadCount(ctx context.Context, caller domain.Caller) (int, error) {
	return s.repo.CountUnreadForStaff(ctx, caller.ID, caller.Role)
}

func (s *service) Delete(ctx context.Context, notificationID string) error {
	return s.repo.SoftDelete(ctx, notificationID)
}

func (s *service) ListForCustomer(ctx context.Context, customerID string, params paginate.Params) ([]domain.Notification, paginate.Meta, error) {
	if customerID == "" {
		return nil, paginate.Meta{}, fmt.Errorf("customer id is required: %w", domain.ErrBadRequest)
	}
	items, err := s.repo.ListForCustomer(ctx, customerID)
	if err != nil {
		return nil, paginate.Meta{}, err
	}
	page, meta := searchSortPage(items, params)
	return page, meta, nil
}

func (s *service) UnreadCountForCustomer(ctx context.Context, customerID string) (int, error) {
	if customerID == "" {
		return 0, fmt.Errorf("customer id is required: %w", domain.ErrBadRequest)
	}
	return s.repo.CountUnreadForCustomer(ctx, customerID)
}

func (s *service) MarkAsReadForCustomer(ctx context.Context, notificationID, customerID string) error {
	if customerID == "" {
		return fmt.Errorf("customer id is required: %w", domain.ErrBadRequest)
	}
	return s.MarkAsRead(ctx, notificationID, customerID)
}

// searchSortPage applies the generic list pipeline: title/message search,
// sort (newest first by default), then page slicing.
func searchSortPage(items []domain.Notification, params paginate.Params) ([]domain.Notification, paginate.Meta) {
	if params.Search != "" {
		needle := strings.ToLower(params.Search)
		filtered := make([]domain.Notification, 0, len(items))
		for _, n := range items {
			if strings.Contains(strings.ToLower(n.Title), needle) ||
				strings.Contains(strings.ToLower(n.Message), needle) {
				filtered = append(filtered, n)
			}
		}
		items = filtered
	}

	field, desc := params.Descending()
	if field == "" {
		field, desc = "created", true
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if desc {
			a, b = b, a
		}
		if field == "title" {
			return a.Title < b.Title
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	return paginate.Slice(items, params)
}

func defaultStr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func buildMetadata(req domain.CreateNotificationRequest, caller domain.Caller) map[string]string {
	md := make(map[string]string, len(req.Metadata)+2)
	for k, v := range req.Metadata {
		md[k] = v
	}
	if req.AnimalType != "" {
		md["animal_type"] = req.AnimalType
	}
	if caller.Role == domain.RoleDoctor && caller.Branch != "" {
		md["branch"] = caller.Branch
	}
	return md
}
