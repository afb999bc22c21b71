package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/findoctor/clinic-api/internal/application/notification"
	"github.com/findoctor/clinic-api/internal/application/registry"
	"github.com/findoctor/clinic-api/internal/domain"
	"github.com/findoctor/clinic-api/internal/pkg/paginate"
)

// CustomerAPIHandler serves the unauthenticated customer-facing surface used
// by the mobile app. The customer id is asserted by the caller, which is why
// the router wraps this whole group in a rate limiter.
type CustomerAPIHandler struct {
	notifications notification.Service
	registry      registry.Service
}

func NewCustomerAPIHandler(notifications notification.Service, reg registry.Service) *CustomerAPIHandler {
	return &CustomerAPIHandler{notifications: notifications, registry: reg}
}

// customerID accepts the id as a path param or a customerId query param.
func customerID(r *http.Request) string {
	if id := chi.URLParam(r, "customerID"); id != "" {
		return id
	}
	return r.URL.Query().Get("customerId")
}

// ListNotifications handles GET /customer-api/notifications and
// GET /customer-api/customers/{customerID}/notifications.
func (h *CustomerAPIHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	params := paginate.Parse(r.URL.Query())
	items, meta, err := h.notifications.ListForCustomer(r.Context(), customerID(r), params)
	if err != nil {
		respondError(w, err)
		return
	}
	respondPage(w, "notifications retrieved", items, meta)
}

// UnreadCount handles GET /customer-api/notifications/unread-count.
func (h *CustomerAPIHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.notifications.UnreadCountForCustomer(r.Context(), customerID(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, "unread count retrieved", map[string]int{"unread_count": count})
}

// MarkAsRead handles PATCH /customer-api/notifications/{notificationID}/read.
// The customer id comes from the body, falling back to the query param.
func (h *CustomerAPIHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	notificationID := chi.URLParam(r, "notificationID")
	var body struct {
		CustomerID string `json:"customerId"`
	}
	// Body is optional when the query param carries the id.
	_ = decodeBody(r, &body)
	id := body.CustomerID
	if id == "" {
		id = customerID(r)
	}
	if err := h.notifications.MarkAsReadForCustomer(r.Context(), notificationID, id); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, "notification marked as read", nil)
}

// RegisterToken handles POST /customer-api/customers/{customerID}/device-tokens.
func (h *CustomerAPIHandler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, err)
		return
	}
	id := customerID(r)
	if id == "" {
		respondError(w, fmt.Errorf("customer id is required: %w", domain.ErrBadRequest))
		return
	}
	tokens, err := h.registry.AddToken(r.Context(), id, body.Token)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, "device token registered", map[string]interface{}{"device_tokens": tokens})
}

// UnregisterToken handles DELETE /customer-api/customers/{customerID}/device-tokens.
func (h *CustomerAPIHandler) UnregisterToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, err)
		return
	}
	id := customerID(r)
	if id == "" {
		respondError(w, fmt.Errorf("customer id is required: %w", domain.ErrBadRequest))
		return
	}
	tokens, err := h.registry.RemoveToken(r.Context(), id, body.Token)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, "device token removed", map[string]interface{}{"device_tokens": tokens})
}
