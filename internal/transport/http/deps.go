package http

import (
	"github.com/findoctor/clinic-api/internal/infrastructure/dynamo"
	"github.com/findoctor/clinic-api/internal/infrastructure/fcm"
	jwtinfra "github.com/findoctor/clinic-api/internal/infrastructure/jwt"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	CustomerRepo     *dynamo.CustomerRepo
	BookingRepo      *dynamo.BookingRepo
	NotificationRepo *dynamo.NotificationRepo
	Push             *fcm.Client
	JWTProvider      *jwtinfra.Provider
}
