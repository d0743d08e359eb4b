package routes

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/ezza-forms/backend/app"
	"github.com/ezza-forms/backend/httpx"
	"github.com/ezza-forms/backend/log"
	"github.com/ezza-forms/backend/model"
)

func defaultSettings() model.Settings {
	return model.Settings{
		SiteName:     "EZZA",
		FooterText:   "© EZZA. Tous droits réservés.",
		ContactEmail: "contact@ezza.fr",
		Phone:        "",
		Address:      "",
	}
}

func loadSettings(r *http.Request, app app.App) (model.Settings, error) {
	s := model.Settings{}
	err := app.QueryRowContext(r.Context(), `
		SELECT site_name, footer_text, contact_email, phone, address, logo_url,
			facebook, instagram, twitter, linkedin
		FROM settings WHERE id = 1`,
	).Scan(
		&s.SiteName, &s.FooterText, &s.ContactEmail, &s.Phone, &s.Address, &s.LogoUrl,
		&s.SocialLinks.Facebook, &s.SocialLinks.Instagram, &s.SocialLinks.Twitter, &s.SocialLinks.LinkedIn,
	)
	return s, err
}

// GetSettings is public, the frontend needs branding before login.
func GetSettings(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := loadSettings(r, app)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			render.JSON(w, r, defaultSettings())
			return
		case err != nil:
			httpx.LogInternalError(w, "db.get_settings", err)
			return
		}

		render.JSON(w, r, settings)
	}
}

// UpdateSettings upserts the single settings row. Blank fields in the
// request keep their stored value, so partial edits never wipe branding.
func UpdateSettings(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := model.Settings{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		current, err := loadSettings(r, app)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			current = defaultSettings()
		case err != nil:
			httpx.LogInternalError(w, "db.get_settings", err)
			return
		}

		merged := model.Settings{
			SiteName:     orKeep(req.SiteName, current.SiteName),
			FooterText:   orKeep(req.FooterText, current.FooterText),
			ContactEmail: orKeep(req.ContactEmail, current.ContactEmail),
			Phone:        orKeep(req.Phone, current.Phone),
			Address:      orKeep(req.Address, current.Address),
			LogoUrl:      orKeep(req.LogoUrl, current.LogoUrl),
			SocialLinks: model.SocialLinks{
				Facebook:  orKeep(req.SocialLinks.Facebook, current.SocialLinks.Facebook),
				Instagram: orKeep(req.SocialLinks.Instagram, current.SocialLinks.Instagram),
				Twitter:   orKeep(req.SocialLinks.Twitter, current.SocialLinks.Twitter),
				LinkedIn:  orKeep(req.SocialLinks.LinkedIn, current.SocialLinks.LinkedIn),
			},
		}

		_, err = app.ExecContext(r.Context(), `
			INSERT INTO settings (id, site_name, footer_text, contact_email, phone, address, logo_url,
				facebook, instagram, twitter, linkedin)
			VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				site_name = excluded.site_name,
				footer_text = excluded.footer_text,
				contact_email = excluded.contact_email,
				phone = excluded.phone,
				address = excluded.address,
				logo_url = excluded.logo_url,
				facebook = excluded.facebook,
				instagram = excluded.instagram,
				twitter = excluded.twitter,
				linkedin = excluded.linkedin`,
			merged.SiteName, merged.FooterText, merged.ContactEmail, merged.Phone, merged.Address, merged.LogoUrl,
			merged.SocialLinks.Facebook, merged.SocialLinks.Instagram, merged.SocialLinks.Twitter, merged.SocialLinks.LinkedIn,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_settings", err)
			return
		}

		render.JSON(w, r, merged)
	}
}

func orKeep(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
