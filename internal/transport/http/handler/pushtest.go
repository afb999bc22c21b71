package handler

import (
	"net/http"

	"github.com/findoctor/clinic-api/internal/application/dispatch"
)

// PushTestHandler exposes admin-only endpoints for exercising the push
// pipeline against real devices without creating notification records.
type PushTestHandler struct {
	dispatcher dispatch.Service
	transport  dispatch.Transport
}

func NewPushTestHandler(dispatcher dispatch.Service, transport dispatch.Transport) *PushTestHandler {
	return &PushTestHandler{dispatcher: dispatcher, transport: transport}
}

type pushTestRequest struct {
	Token      string `json:"token"`
	CustomerID string `json:"customerId"`
	Title      string `json:"title"`
	Body       string `json:"body"`
}

// SendToToken handles POST /push-test/send.
func (h *PushTestHandler) SendToToken(w http.ResponseWriter, r *http.Request) {
	var req pushTestRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	msgID, err := h.dispatcher.DispatchToToken(r.Context(), req.Token, dispatch.Payload{
		Title: req.Title,
		Body:  req.Body,
		Type:  "test",
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, "test push dispatched", map[string]string{"message_id": msgID})
}

// SendToCustomer handles POST /push-test/send-to-customer.
func (h *PushTestHandler) SendToCustomer(w http.ResponseWriter, r *http.Request) {
	var req pushTestRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	result, err := h.dispatcher.DispatchToCustomer(r.Context(), req.CustomerID, dispatch.Payload{
		Title: req.Title,
		Body:  req.Body,
		Type:  "test",
	})
	if err != nil {
		respondError(w, err)
		return
	}
	if result == nil {
		respondOK(w, "dispatch skipped", nil)
		return
	}
	respondOK(w, "test push dispatched", map[string]int{
		"success_count": result.SuccessCount,
		"failure_count": result.FailureCount,
	})
}

// Status handles GET /push-test/status: reports whether the push transport
// is configured or running degraded.
func (h *PushTestHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondOK(w, "push transport status", map[string]bool{"configured": h.transport.Ready()})
}
