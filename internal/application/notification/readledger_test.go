package notification

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/findoctor/clinic-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memNotificationStore is a stateful stand-in for the notifications table.
// MarkAsRead mirrors the storage layer's conditional append: at most one
// receipt per reader, the first timestamp kept.
type memNotificationStore struct {
	items map[string]*domain.Notification
}

func newMemNotificationStore(ns ...*domain.Notification) *memNotificationStore {
	s := &memNotificationStore{items: make(map[string]*domain.Notification)}
	for _, n := range ns {
		s.items[n.NotificationID] = n
	}
	return s
}

func (s *memNotificationStore) Put(_ context.Context, n *domain.Notification) error {
	s.items[n.NotificationID] = n
	return nil
}

func (s *memNotificationStore) Get(_ context.Context, notificationID string) (*domain.Notification, error) {
	n, ok := s.items[notificationID]
	if !ok {
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	return n, nil
}

func (s *memNotificationStore) ListForStaff(_ context.Context, viewerID, role string) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range s.items {
		if n.VisibleToStaff(viewerID, role) {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (s *memNotificationStore) ListForCustomer(_ context.Context, customerID string) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range s.items {
		if n.VisibleToCustomer(customerID) {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (s *memNotificationStore) CountUnreadForStaff(_ context.Context, viewerID, role string) (int, error) {
	count := 0
	for _, n := range s.items {
		if n.VisibleToStaff(viewerID, role) && n.Status == domain.StatusSent && !n.WasReadBy(viewerID) {
			count++
		}
	}
	return count, nil
}

func (s *memNotificationStore) CountUnreadForCustomer(_ context.Context, customerID string) (int, error) {
	count := 0
	for _, n := range s.items {
		if n.VisibleToCustomer(customerID) && !n.WasReadBy(customerID) {
			count++
		}
	}
	return count, nil
}

func (s *memNotificationStore) MarkAsRead(_ context.Context, notificationID, readerID string, at time.Time) error {
	n, ok := s.items[notificationID]
	if !ok {
		return fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	if n.WasReadBy(readerID) {
		// The conditional write is a no-op for repeat readers.
		return nil
	}
	n.ReadBy = append(n.ReadBy, domain.ReadReceipt{UserID: readerID, ReadAt: at})
	n.ReadByIDs = append(n.ReadByIDs, readerID)
	return nil
}

func (s *memNotificationStore) MarkManyAsRead(ctx context.Context, notificationIDs []string, readerID string, at time.Time) error {
	for _, id := range notificationIDs {
		if err := s.MarkAsRead(ctx, id, readerID, at); err != nil {
			return err
		}
	}
	return nil
}

func (s *memNotificationStore) SoftDelete(_ context.Context, notificationID string) error {
	n, ok := s.items[notificationID]
	if !ok {
		return fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	n.IsActive = false
	return nil
}

func sentToCustomers(id string) *domain.Notification {
	return &domain.Notification{
		NotificationID: id,
		Title:          "Checkup reminder",
		Message:        "Time for a visit",
		Recipients:     domain.RecipientsCustomers,
		Status:         domain.StatusSent,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}
}

func TestMarkAsRead_RepeatRead_SingleReceiptFirstTimestamp(t *testing.T) {
	store := newMemNotificationStore(sentToCustomers("n1"))
	svc := NewService(store, &mockCustomerStore{}, &mockResolver{}, &mockDispatcher{})

	require.NoError(t, svc.MarkAsReadForCustomer(context.Background(), "n1", "c1"))
	n, err := store.Get(context.Background(), "n1")
	require.NoError(t, err)
	require.Len(t, n.ReadBy, 1)
	first := n.ReadBy[0].ReadAt

	require.NoError(t, svc.MarkAsReadForCustomer(context.Background(), "n1", "c1"))
	n, err = store.Get(context.Background(), "n1")
	require.NoError(t, err)
	require.Len(t, n.ReadBy, 1)
	assert.Equal(t, first, n.ReadBy[0].ReadAt)
	assert.Equal(t, []string{"c1"}, n.ReadByIDs)
}

func TestUnreadCount_DropsByExactlyOneAfterRead(t *testing.T) {
	store := newMemNotificationStore(sentToCustomers("n1"), sentToCustomers("n2"))
	svc := NewService(store, &mockCustomerStore{}, &mockResolver{}, &mockDispatcher{})

	before, err := svc.UnreadCountForCustomer(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, before)

	require.NoError(t, svc.MarkAsReadForCustomer(context.Background(), "n1", "c1"))

	after, err := svc.UnreadCountForCustomer(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, after)

	// The other reader's count is untouched.
	other, err := svc.UnreadCountForCustomer(context.Background(), "c2")
	require.NoError(t, err)
	assert.Equal(t, 2, other)
}
