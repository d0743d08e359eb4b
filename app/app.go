package app

import (
	"database/sql"

	"github.com/go-chi/jwtauth/v5"

	"github.com/ezza-forms/backend/auth"
	"github.com/ezza-forms/backend/config"
	"github.com/ezza-forms/backend/mail"
)

type App struct {
	*sql.DB
	config.Config
	TokenAuth *jwtauth.JWTAuth
	OTPs      *auth.OTPStore
	Mailer    mail.Sender
}
