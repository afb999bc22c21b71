package fcm

import (
	"context"
	"errors"
	"log/slog"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/findoctor/clinic-api/internal/config"
	"google.golang.org/api/option"
)

// ErrNotConfigured is returned when a send is attempted against a client
// that never obtained valid credentials. Callers normally avoid this by
// checking Ready first.
var ErrNotConfigured = errors.New("fcm: transport not configured")

// Envelope is the wire payload handed to FCM: the visible notification plus
// the flattened all-string data map the clients route on.
type Envelope struct {
	Title string
	Body  string
	Data  map[string]string
}

// SendOutcome is the per-token result of a multicast batch.
type SendOutcome struct {
	MessageID string
	Err       error
}

// BatchResult aggregates a multicast batch.
type BatchResult struct {
	SuccessCount int
	FailureCount int
	Responses    []SendOutcome
}

// Client wraps the Firebase Admin messaging client. Construction never
// fails the process: missing or invalid credentials produce a degraded
// client whose Ready reports false, and push delivery becomes a no-op.
type Client struct {
	messaging *messaging.Client
	ready     bool
}

// NewClient initialises the FCM transport from a service-account file or an
// env-supplied JSON blob (JSON wins when both are set).
func NewClient(ctx context.Context, cfg *config.Config) *Client {
	var opt option.ClientOption
	switch {
	case cfg.FCMCredentialsJSON != "":
		opt = option.WithCredentialsJSON([]byte(cfg.FCMCredentialsJSON))
	case cfg.FCMCredentialsFile != "":
		if _, err := os.Stat(cfg.FCMCredentialsFile); err != nil {
			slog.Warn("fcm credentials file missing, push delivery disabled", "path", cfg.FCMCredentialsFile)
			return &Client{}
		}
		opt = option.WithCredentialsFile(cfg.FCMCredentialsFile)
	default:
		slog.Warn("no fcm credentials configured, push delivery disabled")
		return &Client{}
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		slog.Warn("fcm app init failed, push delivery disabled", "err", err)
		return &Client{}
	}
	mc, err := app.Messaging(ctx)
	if err != nil {
		slog.Warn("fcm messaging init failed, push delivery disabled", "err", err)
		return &Client{}
	}
	slog.Info("fcm transport initialised")
	return &Client{messaging: mc, ready: true}
}

// Ready reports whether the transport has valid credentials. Distinguishes
// "delivery disabled" from "delivered to zero recipients".
func (c *Client) Ready() bool { return c.ready }

// Send delivers to a single token and returns the provider message id.
func (c *Client) Send(ctx context.Context, token string, env Envelope) (string, error) {
	if !c.ready {
		return "", ErrNotConfigured
	}
	return c.messaging.Send(ctx, &messaging.Message{
		Token:        token,
		Notification: &messaging.Notification{Title: env.Title, Body: env.Body},
		Data:         env.Data,
	})
}

// SendMulticast delivers to up to 500 tokens in one provider call and
// returns per-token outcomes. A returned error means the whole batch failed
// before any per-token result was known.
func (c *Client) SendMulticast(ctx context.Context, tokens []string, env Envelope) (*BatchResult, error) {
	if !c.ready {
		return nil, ErrNotConfigured
	}
	br, err := c.messaging.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens:       tokens,
		Notification: &messaging.Notification{Title: env.Title, Body: env.Body},
		Data:         env.Data,
	})
	if err != nil {
		return nil, err
	}
	result := &BatchResult{
		SuccessCount: br.SuccessCount,
		FailureCount: br.FailureCount,
		Responses:    make([]SendOutcome, len(br.Responses)),
	}
	for i, resp := range br.Responses {
		result.Responses[i] = SendOutcome{MessageID: resp.MessageID, Err: resp.Error}
	}
	return result, nil
}
