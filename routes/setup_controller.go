package routes

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/ezza-forms/backend/app"
	"github.com/ezza-forms/backend/auth"
	"github.com/ezza-forms/backend/httpx"
	"github.com/ezza-forms/backend/log"
	"github.com/ezza-forms/backend/model"
)

func superadminExists(r *http.Request, app app.App) (bool, error) {
	var count int
	err := app.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM users WHERE role = ?`, model.RoleSuperadmin,
	).Scan(&count)
	return count > 0, err
}

func CheckSuperadmin(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exists, err := superadminExists(r, app)
		if err != nil {
			httpx.LogInternalError(w, "db.check_superadmin", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"exists": exists,
		})
	}
}

// Setup creates the first superadmin account. It only works once: as soon
// as a superadmin exists the endpoint locks itself.
func Setup(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exists, err := superadminExists(r, app)
		if err != nil {
			httpx.LogInternalError(w, "db.check_superadmin", err)
			return
		}
		if exists {
			httpx.LogMessage(w, r, http.StatusForbidden, log.WarnLevel, "setup.already_done",
				"Setup has already been completed")
			return
		}

		var req struct {
			FullName string `json:"fullName" validate:"required"`
			Email    string `json:"email" validate:"required,email"`
			Password string `json:"password" validate:"required"`
		}
		err = render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(req); err != nil {
			httpx.LogMessage(w, r, http.StatusBadRequest, log.DebugLevel, "setup.validate",
				"fullName, email and password are required")
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			httpx.LogInternalError(w, "setup.hash_password", err)
			return
		}

		_, err = app.ExecContext(r.Context(), `
			INSERT INTO users (full_name, email, password_hash, role, is_protected)
			VALUES (?, ?, ?, ?, 1)`,
			req.FullName,
			req.Email,
			hash,
			model.RoleSuperadmin,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_superadmin", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message": "Superadmin created successfully",
		})
	}
}
