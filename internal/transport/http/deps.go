package http

import (
	"github.com/fuziondot/auth-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/fuziondot/auth-api/internal/infrastructure/jwt"
	"github.com/fuziondot/auth-api/internal/infrastructure/smtp"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    *dynamo.UserRepo
	Mailer      smtp.Mailer
	JWTProvider *jwtinfra.Provider
}
