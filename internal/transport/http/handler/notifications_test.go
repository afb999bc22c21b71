package handler

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/findoctor/clinic-api/internal/config"
	"github.com/findoctor/clinic-api/internal/domain"
	jwtinfra "github.com/findoctor/clinic-api/internal/infrastructure/jwt"
	"github.com/findoctor/clinic-api/internal/pkg/paginate"
	"github.com/findoctor/clinic-api/internal/transport/http/middleware"
)

// --- mock ---

type mockNotificationSvc struct{ mock.Mock }

func (m *mockNotificationSvc) Create(ctx context.Context, req domain.CreateNotificationRequest, caller domain.Caller) (*domain.Notification, error) {
	args := m.Called(ctx, req, caller)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockNotificationSvc) List(ctx context.Context, caller domain.Caller, params paginate.Params) ([]domain.Notification, paginate.Meta, error) {
	args := m.Called(ctx, caller, params)
	return args.Get(0).([]domain.Notification), args.Get(1).(paginate.Meta), args.Error(2)
}
func (m *mockNotificationSvc) MarkAsRead(ctx context.Context, notificationID, readerID string) error {
	return m.Called(ctx, notificationID, readerID).Error(0)
}
func (m *mockNotificationSvc) UnreadCount(ctx context.Context, caller domain.Caller) (int, error) {
	args := m.Called(ctx, caller)
	return args.Int(0), args.Error(1)
}
func (m *mockNotificationSvc) Delete(ctx context.Context, notificationID string) error {
	return m.Called(ctx, notificationID).Error(0)
}
func (m *mockNotificationSvc) ListForCustomer(ctx context.Context, customerID string, params paginate.Params) ([]domain.Notification, paginate.Meta, error) {
	args := m.Called(ctx, customerID, params)
	return args.Get(0).([]domain.Notification), args.Get(1).(paginate.Meta), args.Error(2)
}
func (m *mockNotificationSvc) UnreadCountForCustomer(ctx context.Context, customerID string) (int, error) {
	args := m.Called(ctx, customerID)
	return args.Int(0), args.Error(1)
}
func (m *mockNotificationSvc) MarkAsReadForCustomer(ctx context.Context, notificationID, customerID string) error {
	return m.Called(ctx, notificationID, customerID).Error(0)
}

// --- helpers ---

// newTestJWTProvider generates a fresh RSA key pair and returns a *jwtinfra.Provider.
func newTestJWTProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	p, err := jwtinfra.NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		JWTExpiryDays:     1,
	})
	require.NoError(t, err)
	return p
}

// bearerReq builds a request with a signed Bearer token for the given user.
func bearerReq(t *testing.T, p *jwtinfra.Provider, method, target, userID, role, branch string, body []byte) *http.Request {
	t.Helper()
	token, err := p.Sign(userID, role, branch)
	require.NoError(t, err)
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

// withChiParam injects a chi URL param into the request context.
func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// serveAuthed wraps the handler with middleware.Auth before serving.
func serveAuthed(p *jwtinfra.Provider, h http.Handler, w http.ResponseWriter, r *http.Request) {
	middleware.Auth(p)(h).ServeHTTP(w, r)
}

// --- Create tests ---

func TestCreateNotification_MissingClaims(t *testing.T) {
	h := NewNotificationHandler(&mockNotificationSvc{})
	r := httptest.NewRequest(http.MethodPost, "/v1/notifications", bytes.NewBufferString("{}"))
	rr := httptest.NewRecorder()
	h.Create(rr, r)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateNotification_InvalidBody(t *testing.T) {
	p := newTestJWTProvider(t)
	h := NewNotificationHandler(&mockNotificationSvc{})

	r := bearerReq(t, p, http.MethodPost, "/v1/notifications", "u1", domain.RoleAdmin, "", []byte("not-json"))
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Create), rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateNotification_ServiceForbidden(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockNotificationSvc{}
	svc.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.ErrForbidden)
	h := NewNotificationHandler(svc)

	body, _ := json.Marshal(domain.CreateNotificationRequest{
		Title: "T", Message: "M", Recipients: domain.RecipientsAll,
	})
	r := bearerReq(t, p, http.MethodPost, "/v1/notifications", "u1", domain.RoleReceptionist, "", body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Create), rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCreateNotification_HappyPath(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockNotificationSvc{}
	created := &domain.Notification{NotificationID: "n1", Title: "T", RecipientsCount: 2, Status: domain.StatusSent}
	svc.On("Create", mock.Anything, mock.Anything, domain.Caller{ID: "u1", Role: domain.RoleAdmin}).
		Return(created, nil)
	h := NewNotificationHandler(svc)

	body, _ := json.Marshal(domain.CreateNotificationRequest{
		Title: "T", Message: "M", Recipients: domain.RecipientsCustomers, AnimalType: "dog",
	})
	r := bearerReq(t, p, http.MethodPost, "/v1/notifications", "u1", domain.RoleAdmin, "", body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Create), rr, r)

	assert.Equal(t, http.StatusCreated, rr.Code)
	var resp struct {
		Success bool                `json:"success"`
		Data    domain.Notification `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "n1", resp.Data.NotificationID)
	assert.Equal(t, 2, resp.Data.RecipientsCount)
	svc.AssertExpectations(t)
}

// --- List tests ---

func TestListNotifications_ReturnsPagination(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockNotificationSvc{}
	svc.On("List", mock.Anything, mock.Anything, mock.Anything).Return(
		[]domain.Notification{{NotificationID: "n1"}},
		paginate.Meta{Page: 1, Limit: 25, Total: 1, TotalPages: 1},
		nil,
	)
	h := NewNotificationHandler(svc)

	r := bearerReq(t, p, http.MethodGet, "/v1/notifications?page=1", "u1", domain.RoleAdmin, "", nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.List), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Success    bool           `json:"success"`
		Pagination *paginate.Meta `json:"pagination"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, 1, resp.Pagination.Total)
}

func TestListNotifications_PassesBranchFromClaims(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockNotificationSvc{}
	svc.On("List", mock.Anything, domain.Caller{ID: "u-doc", Role: domain.RoleDoctor, Branch: "north"}, mock.Anything).
		Return([]domain.Notification{}, paginate.Meta{}, nil)
	h := NewNotificationHandler(svc)

	r := bearerReq(t, p, http.MethodGet, "/v1/notifications", "u-doc", domain.RoleDoctor, "north", nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.List), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

// --- UnreadCount tests ---

func TestUnreadCount_HappyPath(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockNotificationSvc{}
	svc.On("UnreadCount", mock.Anything, mock.Anything).Return(3, nil)
	h := NewNotificationHandler(svc)

	r := bearerReq(t, p, http.MethodGet, "/v1/notifications/unread-count", "u1", domain.RoleAdmin, "", nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.UnreadCount), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Data map[string]int `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 3, resp.Data["unread_count"])
}

// --- MarkAsRead tests ---

func TestMarkNotificationAsRead_NotFound(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockNotificationSvc{}
	svc.On("MarkAsRead", mock.Anything, "missing", "u1").Return(domain.ErrNotFound)
	h := NewNotificationHandler(svc)

	r := bearerReq(t, p, http.MethodPatch, "/v1/notifications/missing/read", "u1", domain.RoleAdmin, "", nil)
	r = withChiParam(r, "notificationID", "missing")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.MarkAsRead), rr, r)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMarkNotificationAsRead_HappyPath(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockNotificationSvc{}
	svc.On("MarkAsRead", mock.Anything, "n1", "u1").Return(nil)
	h := NewNotificationHandler(svc)

	r := bearerReq(t, p, http.MethodPatch, "/v1/notifications/n1/read", "u1", domain.RoleAdmin, "", nil)
	r = withChiParam(r, "notificationID", "n1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.MarkAsRead), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

// --- Delete tests ---

func TestDeleteNotification_HappyPath(t *testing.T) {
	svc := &mockNotificationSvc{}
	svc.On("Delete", mock.Anything, "n1").Return(nil)
	h := NewNotificationHandler(svc)

	r := withChiParam(httptest.NewRequest(http.MethodDelete, "/v1/notifications/n1", nil), "notificationID", "n1")
	rr := httptest.NewRecorder()
	h.Delete(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}
