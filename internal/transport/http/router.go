package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/findoctor/clinic-api/internal/application/auth"
	"github.com/findoctor/clinic-api/internal/application/booking"
	"github.com/findoctor/clinic-api/internal/application/customer"
	"github.com/findoctor/clinic-api/internal/application/dispatch"
	"github.com/findoctor/clinic-api/internal/application/notification"
	"github.com/findoctor/clinic-api/internal/application/registry"
	"github.com/findoctor/clinic-api/internal/application/resolver"
	"github.com/findoctor/clinic-api/internal/config"
	"github.com/findoctor/clinic-api/internal/domain"
	"github.com/findoctor/clinic-api/internal/transport/http/handler"
	appmiddleware "github.com/findoctor/clinic-api/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — the customer surface is
	// unauthenticated, so every endpoint on it is rate limited.
	publicRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	// Hand the service an untyped nil when no keys are loaded so it can
	// refuse logins instead of dereferencing a nil provider.
	var signer auth.TokenSigner
	if deps.JWTProvider != nil {
		signer = deps.JWTProvider
	}
	authSvc := auth.NewService(deps.UserRepo, signer)
	customerSvc := customer.NewService(deps.CustomerRepo, deps.BookingRepo)
	bookingSvc := booking.NewService(deps.BookingRepo, deps.CustomerRepo)
	registrySvc := registry.NewService(deps.CustomerRepo)
	resolverSvc := resolver.NewService(deps.CustomerRepo, deps.BookingRepo, deps.UserRepo)
	dispatchSvc := dispatch.NewService(deps.Push, deps.CustomerRepo)
	notifSvc := notification.NewService(deps.NotificationRepo, deps.CustomerRepo, resolverSvc, dispatchSvc)

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(authSvc)
	customerH := handler.NewCustomerHandler(customerSvc, registrySvc)
	bookingH := handler.NewBookingHandler(bookingSvc)
	notifH := handler.NewNotificationHandler(notifSvc)
	customerAPIH := handler.NewCustomerAPIHandler(notifSvc, registrySvc)
	pushTestH := handler.NewPushTestHandler(dispatchSvc, deps.Push)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health", healthH.Check)
		r.With(publicRL.Limit).Post("/sessions/login", sessionH.Login)

		// Customer mobile surface: no login, customer id asserted by caller.
		r.Route("/customer-api", func(r chi.Router) {
			r.Use(publicRL.Limit)

			r.Get("/notifications", customerAPIH.ListNotifications)
			r.Get("/notifications/unread-count", customerAPIH.UnreadCount)
			r.Patch("/notifications/{notificationID}/read", customerAPIH.MarkAsRead)

			r.Get("/customers/{customerID}/notifications", customerAPIH.ListNotifications)
			r.Get("/customers/{customerID}/notifications/unread-count", customerAPIH.UnreadCount)
			r.Post("/customers/{customerID}/device-tokens", customerAPIH.RegisterToken)
			r.Delete("/customers/{customerID}/device-tokens", customerAPIH.UnregisterToken)
		})

		// ── Authenticated staff routes ───────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/notifications", notifH.List)
			r.Get("/notifications/unread-count", notifH.UnreadCount)
			r.Patch("/notifications/{notificationID}/read", notifH.MarkAsRead)

			r.Get("/customers", customerH.List)
			r.Get("/customers/stats", customerH.Stats)
			r.Get("/customers/{customerID}", customerH.Get)
			r.Get("/customers/{customerID}/bookings", bookingH.ListByCustomer)
			r.Post("/customers/{customerID}/device-tokens", customerH.SaveDeviceToken)
			r.Delete("/customers/{customerID}/device-tokens", customerH.RemoveDeviceToken)

			r.Post("/bookings", bookingH.Create)
			r.Patch("/bookings/{bookingID}/cancel", bookingH.Cancel)

			// Admins and doctors can send notifications; the service enforces
			// the same rule, the guard just fails fast.
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin, domain.RoleDoctor))

				r.Post("/notifications", notifH.Create)
			})

			// Staff customer management
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin, domain.RoleReceptionist))

				r.Post("/customers", customerH.Create)
				r.Patch("/customers/{customerID}", customerH.Update)
				r.Patch("/customers/{customerID}/activate", customerH.Activate)
				r.Patch("/customers/{customerID}/deactivate", customerH.Deactivate)
				r.Post("/customers/{customerID}/animals", customerH.AddAnimal)
				r.Patch("/customers/{customerID}/animals/{animalID}", customerH.UpdateAnimal)
				r.Delete("/customers/{customerID}/animals/{animalID}", customerH.RemoveAnimal)
			})

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Delete("/notifications/{notificationID}", notifH.Delete)
				r.Delete("/customers/{customerID}", customerH.Delete)

				r.Post("/push-test/send", pushTestH.SendToToken)
				r.Post("/push-test/send-to-customer", pushTestH.SendToCustomer)
				r.Get("/push-test/status", pushTestH.Status)
			})
		})
	})

	return r
}
