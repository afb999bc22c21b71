package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/findoctor/clinic-api/internal/application/booking"
	"github.com/findoctor/clinic-api/internal/domain"
)

// BookingHandler serves the minimal booking surface needed to place
// customers in a branch for recipient filtering.
type BookingHandler struct {
	svc booking.Service
}

func NewBookingHandler(svc booking.Service) *BookingHandler {
	return &BookingHandler{svc: svc}
}

// Create handles POST /bookings.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBookingRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	b, err := h.svc.Create(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, "booking created", b)
}

// ListByCustomer handles GET /customers/{customerID}/bookings.
func (h *BookingHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.svc.ListByCustomer(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, "bookings retrieved", bookings)
}

// Cancel handles PATCH /bookings/{bookingID}/cancel.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Cancel(r.Context(), chi.URLParam(r, "bookingID")); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, "booking cancelled", nil)
}
