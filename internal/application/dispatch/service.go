package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/findoctor/clinic-api/internal/domain"
	"github.com/findoctor/clinic-api/internal/infrastructure/fcm"
)

// multicastLimit is the provider's per-call token cap; larger inputs are
// chunked and the per-chunk results aggregated.
const multicastLimit = 500

// clickAction is the routing hint mobile clients use to open the
// notifications screen when the push is tapped.
const clickAction = "FLUTTER_NOTIFICATION_CLICK"

// Payload is the notification content handed to the dispatcher. Everything
// except Title and Body is flattened into the transport's all-string data
// map, along with an injected timestamp and the client-routing hint.
type Payload struct {
	Title          string
	Body           string
	NotificationID string
	Type           string
	Priority       string
	Metadata       map[string]string
}

// Envelope flattens the payload for the wire.
func (p Payload) Envelope() fcm.Envelope {
	data := make(map[string]string, len(p.Metadata)+4)
	for k, v := range p.Metadata {
		data[k] = v
	}
	data["notification_id"] = p.NotificationID
	data["type"] = p.Type
	data["priority"] = p.Priority
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["click_action"] = clickAction
	return fcm.Envelope{Title: p.Title, Body: p.Body, Data: data}
}

// Transport is the push provider contract the dispatcher drives.
type Transport interface {
	Ready() bool
	Send(ctx context.Context, token string, env fcm.Envelope) (string, error)
	SendMulticast(ctx context.Context, tokens []string, env fcm.Envelope) (*fcm.BatchResult, error)
}

// Service delivers payloads to device tokens, tolerating partial failure.
// A nil result with a nil error means the dispatch was skipped: transport
// in degraded mode, empty token, or a customer with no registered devices.
type Service interface {
	DispatchToToken(ctx context.Context, token string, p Payload) (string, error)
	DispatchToTokens(ctx context.Context, tokens []string, p Payload) (*fcm.BatchResult, error)
	DispatchToCustomer(ctx context.Context, customerID string, p Payload) (*fcm.BatchResult, error)
}

type customerStore interface {
	Get(ctx context.Context, customerID string) (*domain.Customer, error)
}

type service struct {
	transport Transport
	customers customerStore
}

func NewService(transport Transport, customers customerStore) Service {
	return &service{transport: transport, customers: customers}
}

func (s *service) DispatchToToken(ctx context.Context, token string, p Payload) (string, error) {
	if !s.transport.Ready() {
		slog.Warn("push transport not configured, skipping dispatch")
		return "", nil
	}
	if token == "" {
		slog.Warn("no device token provided, skipping dispatch")
		return "", nil
	}
	msgID, err := s.transport.Send(ctx, token, p.Envelope())
	if err != nil {
		slog.Error("push send failed", "token", truncateToken(token), "err", err)
		return "", err
	}
	slog.Info("push sent", "message_id", msgID)
	return msgID, nil
}

// DispatchToTokens multicasts to every token, chunked at the provider
// limit. A transport-level error (whole chunk failed before per-token
// results were known) propagates to the caller; per-token failures are
// aggregated and logged, never retried.
func (s *service) DispatchToTokens(ctx context.Context, tokens []string, p Payload) (*fcm.BatchResult, error) {
	if !s.transport.Ready() {
		slog.Warn("push transport not configured, skipping dispatch")
		return nil, nil
	}
	if len(tokens) == 0 {
		slog.Warn("no device tokens provided, skipping dispatch")
		return nil, nil
	}

	env := p.Envelope()
	total := &fcm.BatchResult{}
	for start := 0; start < len(tokens); start += multicastLimit {
		end := start + multicastLimit
		if end > len(tokens) {
			end = len(tokens)
		}
		chunk := tokens[start:end]
		br, err := s.transport.SendMulticast(ctx, chunk, env)
		if err != nil {
			return nil, err
		}
		total.SuccessCount += br.SuccessCount
		total.FailureCount += br.FailureCount
		total.Responses = append(total.Responses, br.Responses...)
		for i, resp := range br.Responses {
			if resp.Err != nil {
				slog.Error("push send failed for token",
					"token", truncateToken(chunk[i]), "err", resp.Err)
			}
		}
	}
	slog.Info("push multicast complete",
		"success", total.SuccessCount, "failure", total.FailureCount)
	return total, nil
}

func (s *service) DispatchToCustomer(ctx context.Context, customerID string, p Payload) (*fcm.BatchResult, error) {
	if !s.transport.Ready() {
		slog.Warn("push transport not configured, skipping dispatch")
		return nil, nil
	}
	c, err := s.customers.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	switch len(c.DeviceTokens) {
	case 0:
		slog.Warn("customer has no device tokens", "customer_id", customerID)
		return nil, nil
	case 1:
		msgID, err := s.DispatchToToken(ctx, c.DeviceTokens[0], p)
		if err != nil {
			return &fcm.BatchResult{FailureCount: 1, Responses: []fcm.SendOutcome{{Err: err}}}, err
		}
		return &fcm.BatchResult{SuccessCount: 1, Responses: []fcm.SendOutcome{{MessageID: msgID}}}, nil
	default:
		return s.DispatchToTokens(ctx, c.DeviceTokens, p)
	}
}

// truncateToken shortens a device token for logs. Full tokens are delivery
// credentials and stay out of log streams.
func truncateToken(token string) string {
	if len(token) <= 20 {
		return token
	}
	return token[:20] + "..."
}
