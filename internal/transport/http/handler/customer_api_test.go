package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/findoctor/clinic-api/internal/domain"
	"github.com/findoctor/clinic-api/internal/pkg/paginate"
)

// --- mock ---

type mockRegistrySvc struct{ mock.Mock }

func (m *mockRegistrySvc) AddToken(ctx context.Context, customerID, token string) ([]string, error) {
	args := m.Called(ctx, customerID, token)
	if tokens, _ := args.Get(0).([]string); tokens != nil {
		return tokens, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockRegistrySvc) RemoveToken(ctx context.Context, customerID, token string) ([]string, error) {
	args := m.Called(ctx, customerID, token)
	if tokens, _ := args.Get(0).([]string); tokens != nil {
		return tokens, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockRegistrySvc) ListTokens(ctx context.Context, customerID string) ([]string, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]string), args.Error(1)
}

// --- notifications ---

func TestCustomerAPI_ListNotifications_QueryParam(t *testing.T) {
	svc := &mockNotificationSvc{}
	svc.On("ListForCustomer", mock.Anything, "c1", mock.Anything).Return(
		[]domain.Notification{{NotificationID: "n1"}},
		paginate.Meta{Page: 1, Limit: 25, Total: 1, TotalPages: 1},
		nil,
	)
	h := NewCustomerAPIHandler(svc, &mockRegistrySvc{})

	r := httptest.NewRequest(http.MethodGet, "/v1/customer-api/notifications?customerId=c1", nil)
	rr := httptest.NewRecorder()
	h.ListNotifications(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestCustomerAPI_ListNotifications_PathParam(t *testing.T) {
	svc := &mockNotificationSvc{}
	svc.On("ListForCustomer", mock.Anything, "c1", mock.Anything).Return(
		[]domain.Notification{}, paginate.Meta{}, nil,
	)
	h := NewCustomerAPIHandler(svc, &mockRegistrySvc{})

	r := httptest.NewRequest(http.MethodGet, "/v1/customer-api/customers/c1/notifications", nil)
	r = withChiParam(r, "customerID", "c1")
	rr := httptest.NewRecorder()
	h.ListNotifications(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestCustomerAPI_ListNotifications_MissingCustomerID(t *testing.T) {
	svc := &mockNotificationSvc{}
	svc.On("ListForCustomer", mock.Anything, "", mock.Anything).Return(
		[]domain.Notification(nil), paginate.Meta{}, domain.ErrBadRequest,
	)
	h := NewCustomerAPIHandler(svc, &mockRegistrySvc{})

	r := httptest.NewRequest(http.MethodGet, "/v1/customer-api/notifications", nil)
	rr := httptest.NewRecorder()
	h.ListNotifications(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCustomerAPI_UnreadCount(t *testing.T) {
	svc := &mockNotificationSvc{}
	svc.On("UnreadCountForCustomer", mock.Anything, "c1").Return(5, nil)
	h := NewCustomerAPIHandler(svc, &mockRegistrySvc{})

	r := httptest.NewRequest(http.MethodGet, "/v1/customer-api/notifications/unread-count?customerId=c1", nil)
	rr := httptest.NewRecorder()
	h.UnreadCount(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Data map[string]int `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 5, resp.Data["unread_count"])
}

func TestCustomerAPI_MarkAsRead_BodyCustomerID(t *testing.T) {
	svc := &mockNotificationSvc{}
	svc.On("MarkAsReadForCustomer", mock.Anything, "n1", "c1").Return(nil)
	h := NewCustomerAPIHandler(svc, &mockRegistrySvc{})

	body, _ := json.Marshal(map[string]string{"customerId": "c1"})
	r := httptest.NewRequest(http.MethodPatch, "/v1/customer-api/notifications/n1/read", bytes.NewReader(body))
	r = withChiParam(r, "notificationID", "n1")
	rr := httptest.NewRecorder()
	h.MarkAsRead(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestCustomerAPI_MarkAsRead_QueryFallback(t *testing.T) {
	svc := &mockNotificationSvc{}
	svc.On("MarkAsReadForCustomer", mock.Anything, "n1", "c1").Return(nil)
	h := NewCustomerAPIHandler(svc, &mockRegistrySvc{})

	r := httptest.NewRequest(http.MethodPatch, "/v1/customer-api/notifications/n1/read?customerId=c1", nil)
	r = withChiParam(r, "notificationID", "n1")
	rr := httptest.NewRecorder()
	h.MarkAsRead(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

// --- device tokens ---

func TestCustomerAPI_RegisterToken_HappyPath(t *testing.T) {
	reg := &mockRegistrySvc{}
	reg.On("AddToken", mock.Anything, "c1", "tok-1").Return([]string{"tok-1"}, nil)
	h := NewCustomerAPIHandler(&mockNotificationSvc{}, reg)

	body, _ := json.Marshal(map[string]string{"token": "tok-1"})
	r := httptest.NewRequest(http.MethodPost, "/v1/customer-api/customers/c1/device-tokens", bytes.NewReader(body))
	r = withChiParam(r, "customerID", "c1")
	rr := httptest.NewRecorder()
	h.RegisterToken(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	reg.AssertExpectations(t)
}

func TestCustomerAPI_RegisterToken_MissingCustomerID(t *testing.T) {
	h := NewCustomerAPIHandler(&mockNotificationSvc{}, &mockRegistrySvc{})

	body, _ := json.Marshal(map[string]string{"token": "tok-1"})
	r := httptest.NewRequest(http.MethodPost, "/v1/customer-api/customers//device-tokens", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.RegisterToken(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCustomerAPI_RegisterToken_EmptyToken(t *testing.T) {
	reg := &mockRegistrySvc{}
	reg.On("AddToken", mock.Anything, "c1", "").Return(nil, domain.ErrBadRequest)
	h := NewCustomerAPIHandler(&mockNotificationSvc{}, reg)

	body, _ := json.Marshal(map[string]string{})
	r := httptest.NewRequest(http.MethodPost, "/v1/customer-api/customers/c1/device-tokens", bytes.NewReader(body))
	r = withChiParam(r, "customerID", "c1")
	rr := httptest.NewRecorder()
	h.RegisterToken(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCustomerAPI_UnregisterToken_HappyPath(t *testing.T) {
	reg := &mockRegistrySvc{}
	reg.On("RemoveToken", mock.Anything, "c1", "tok-1").Return([]string{}, nil)
	h := NewCustomerAPIHandler(&mockNotificationSvc{}, reg)

	body, _ := json.Marshal(map[string]string{"token": "tok-1"})
	r := httptest.NewRequest(http.MethodDelete, "/v1/customer-api/customers/c1/device-tokens", bytes.NewReader(body))
	r = withChiParam(r, "customerID", "c1")
	rr := httptest.NewRecorder()
	h.UnregisterToken(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	reg.AssertExpectations(t)
}
