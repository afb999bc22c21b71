package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/findoctor/clinic-api/internal/application/notification"
	"github.com/findoctor/clinic-api/internal/domain"
	"github.com/findoctor/clinic-api/internal/pkg/paginate"
	"github.com/findoctor/clinic-api/internal/transport/http/middleware"
)

// NotificationHandler serves the authenticated staff notification surface.
type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func callerFrom(r *http.Request) (domain.Caller, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return domain.Caller{}, false
	}
	return domain.Caller{ID: claims.UserID, Role: claims.Role, Branch: claims.Branch}, true
}

// Create handles POST /notifications.
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		respondError(w, domain.ErrUnauthorized)
		return
	}
	var req domain.CreateNotificationRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	n, err := h.svc.Create(r.Context(), req, caller)
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, "notification created", n)
}

// List handles GET /notifications. Listing marks the returned page as read
// for the caller.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		respondError(w, domain.ErrUnauthorized)
		return
	}
	params := paginate.Parse(r.URL.Query())
	items, meta, err := h.svc.List(r.Context(), caller, params)
	if err != nil {
		respondError(w, err)
		return
	}
	respondPage(w, "notifications retrieved", items, meta)
}

// UnreadCount handles GET /notifications/unread-count.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		respondError(w, domain.ErrUnauthorized)
		return
	}
	count, err := h.svc.UnreadCount(r.Context(), caller)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, "unread count retrieved", map[string]int{"unread_count": count})
}

// MarkAsRead handles PATCH /notifications/{notificationID}/read.
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		respondError(w, domain.ErrUnauthorized)
		return
	}
	notificationID := chi.URLParam(r, "notificationID")
	if err := h.svc.MarkAsRead(r.Context(), notificationID, caller.ID); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, "notification marked as read", nil)
}

// Delete handles DELETE /notifications/{notificationID}. Soft delete: the
// record is deactivated, not removed.
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	notificationID := chi.URLParam(r, "notificationID")
	if err := h.svc.Delete(r.Context(), notificationID); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, "notification deleted", nil)
}
