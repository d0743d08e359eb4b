package routes

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"github.com/ezza-forms/backend/app"
	"github.com/ezza-forms/backend/httpx"
	"github.com/ezza-forms/backend/log"
	"github.com/ezza-forms/backend/model"
)

// SupportContact stores the message, then notifies the configured contact
// address. Notification failure is logged but never surfaces: the message
// is already persisted.
func SupportContact(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msg := model.SupportMessage{}
		err := render.DecodeJSON(r.Body, &msg)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(msg); err != nil {
			httpx.LogMessage(w, r, http.StatusBadRequest, log.DebugLevel, "support.validate",
				"name, email and message are required")
			return
		}

		_, err = app.ExecContext(r.Context(), `
			INSERT INTO support_messages (name, email, message) VALUES (?, ?, ?)`,
			msg.Name,
			msg.Email,
			msg.Message,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_support_message", err)
			return
		}

		settings, err := loadSettings(r, app)
		if errors.Is(err, sql.ErrNoRows) {
			settings = defaultSettings()
			err = nil
		}
		if err == nil && settings.ContactEmail != "" {
			body := fmt.Sprintf("From: %s <%s>\n\n%s", msg.Name, msg.Email, msg.Message)
			if err := app.Mailer.Send(settings.ContactEmail, "New support message", body); err != nil {
				log.Logf(log.WarnLevel, "support.notify: %s", err)
			}
		}

		render.JSON(w, r, map[string]any{
			"message": "Message sent successfully",
		})
	}
}
