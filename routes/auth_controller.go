package routes

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"github.com/ezza-forms/backend/app"
	"github.com/ezza-forms/backend/auth"
	"github.com/ezza-forms/backend/httpx"
	"github.com/ezza-forms/backend/log"
	"github.com/ezza-forms/backend/model"
)

// Login is step one of the two-step login: it checks the password and sends
// an OTP. A token is never issued here.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email" validate:"required,email"`
			Password string `json:"password" validate:"required"`
		}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(req); err != nil {
			httpx.LogMessage(w, r, http.StatusBadRequest, log.DebugLevel, "auth.login.validate", "email and password are required")
			return
		}

		user, err := findUserByEmail(r, app, req.Email)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			httpx.LogMessage(w, r, http.StatusUnauthorized, log.DebugLevel, "auth.login.unknown_email", "Invalid email or password")
			return
		case err != nil:
			httpx.LogInternalError(w, "db.get_user", err)
			return
		}
		if !auth.CheckPassword(user.PasswordHash, req.Password) {
			httpx.LogMessage(w, r, http.StatusUnauthorized, log.DebugLevel, "auth.login.bad_password", "Invalid email or password")
			return
		}

		code, err := app.OTPs.Issue(r.Context(), user.Email)
		if err != nil {
			httpx.LogInternalError(w, "auth.login.issue_otp", err)
			return
		}

		body := fmt.Sprintf("Your one-time login code is %s. It expires in %d minutes.",
			code, int(app.OTPTTL.Minutes()))
		if err := app.Mailer.Send(user.Email, "Your login code", body); err != nil {
			httpx.LogInternalError(w, "auth.login.send_otp", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"status": "otp_required",
			"email":  user.Email,
		})
	}
}

// VerifyOTP is step two: it exchanges a pending OTP for a session token.
func VerifyOTP(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email" validate:"required,email"`
			OTP   string `json:"otp" validate:"required"`
		}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(req); err != nil {
			httpx.LogMessage(w, r, http.StatusBadRequest, log.DebugLevel, "auth.verify_otp.validate", "email and otp are required")
			return
		}

		err = app.OTPs.Verify(r.Context(), req.Email, req.OTP)
		switch {
		case errors.Is(err, auth.ErrInvalidOTP):
			httpx.LogMessage(w, r, http.StatusBadRequest, log.DebugLevel, "auth.verify_otp.invalid", "Invalid or expired code")
			return
		case err != nil:
			httpx.LogInternalError(w, "auth.verify_otp", err)
			return
		}

		user, err := findUserByEmail(r, app, req.Email)
		if err != nil {
			httpx.LogInternalError(w, "db.get_user", err)
			return
		}

		token, err := auth.IssueToken(app.TokenAuth, user, app.TokenTTL)
		if err != nil {
			httpx.LogInternalError(w, "auth.verify_otp.sign_token", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"token":    token,
			"role":     user.Role,
			"fullName": user.FullName,
		})
	}
}

func findUserByEmail(r *http.Request, app app.App, email string) (user model.User, err error) {
	err = app.QueryRowContext(r.Context(), `
		SELECT id, full_name, email, password_hash, role
		FROM users
		WHERE email = ?`,
		email,
	).Scan(&user.ID, &user.FullName, &user.Email, &user.PasswordHash, &user.Role)
	return
}
