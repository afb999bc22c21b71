package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/findoctor/clinic-api/internal/application/customer"
	"github.com/findoctor/clinic-api/internal/application/registry"
	"github.com/findoctor/clinic-api/internal/domain"
)

// CustomerHandler serves the authenticated staff customer-management surface.
type CustomerHandler struct {
	svc      customer.Service
	registry registry.Service
}

func NewCustomerHandler(svc customer.Service, reg registry.Service) *CustomerHandler {
	return &CustomerHandler{svc: svc, registry: reg}
}

// Create handles POST /customers.
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCustomerRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	c, err := h.svc.Create(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, "customer created", c)
}

// List handles GET /customers. Doctors see only customers booked at their
// branch.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		respondError(w, domain.ErrUnauthorized)
		return
	}
	customers, err := h.svc.List(r.Context(), caller)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, "customers retrieved", customers)
}

// Get handles GET /customers/{customerID}.
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, "customer retrieved", c)
}

// Update handles PATCH /customers/{customerID}.
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateCustomerRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	c, err := h.svc.Update(r.Context(), chi.URLParam(r, "customerID"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, "customer updated", c)
}

// Delete handles DELETE /customers/{customerID}.
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "customerID")); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, "customer deleted", nil)
}

// Activate handles PATCH /customers/{customerID}/activate.
func (h *CustomerHandler) Activate(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.SetActive(r.Context(), chi.URLParam(r, "customerID"), true)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, "customer activated", c)
}

// Deactivate handles PATCH /customers/{customerID}/deactivate.
func (h *CustomerHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.SetActive(r.Context(), chi.URLParam(r, "customerID"), false)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, "customer deactivated", c)
}

// Stats handles GET /customers/stats.
func (h *CustomerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, "customer stats retrieved", stats)
}

// AddAnimal handles POST /customers/{customerID}/animals.
func (h *CustomerHandler) AddAnimal(w http.ResponseWriter, r *http.Request) {
	var input domain.AnimalInput
	if err := decodeBody(r, &input); err != nil {
		respondError(w, err)
		return
	}
	c, err := h.svc.AddAnimal(r.Context(), chi.URLParam(r, "customerID"), input)
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, "animal added", c)
}

// UpdateAnimal handles PATCH /customers/{customerID}/animals/{animalID}.
func (h *CustomerHandler) UpdateAnimal(w http.ResponseWriter, r *http.Request) {
	var input domain.AnimalInput
	if err := decodeBody(r, &input); err != nil {
		respondError(w, err)
		return
	}
	c, err := h.svc.UpdateAnimal(r.Context(), chi.URLParam(r, "customerID"), chi.URLParam(r, "animalID"), input)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, "animal updated", c)
}

// RemoveAnimal handles DELETE /customers/{customerID}/animals/{animalID}.
func (h *CustomerHandler) RemoveAnimal(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.RemoveAnimal(r.Context(), chi.URLParam(r, "customerID"), chi.URLParam(r, "animalID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, "animal removed", c)
}

// SaveDeviceToken handles POST /customers/{customerID}/device-tokens from
// the staff console (same registry the public surface uses).
func (h *CustomerHandler) SaveDeviceToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, err)
		return
	}
	tokens, err := h.registry.AddToken(r.Context(), chi.URLParam(r, "customerID"), body.Token)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, "device token saved", map[string]interface{}{"device_tokens": tokens})
}

// RemoveDeviceToken handles DELETE /customers/{customerID}/device-tokens.
func (h *CustomerHandler) RemoveDeviceToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, err)
		return
	}
	tokens, err := h.registry.RemoveToken(r.Context(), chi.URLParam(r, "customerID"), body.Token)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, "device token removed", map[string]interface{}{"device_tokens": tokens})
}
