package routes

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/ezza-forms/backend/app"
	"github.com/ezza-forms/backend/auth"
	"github.com/ezza-forms/backend/httpx"
	"github.com/ezza-forms/backend/log"
	"github.com/ezza-forms/backend/model"
)

func ListUsers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT id, full_name, email, role, is_protected
			FROM users
			ORDER BY full_name`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_users", err)
			return
		}
		defer rows.Close()

		users := []model.User{}
		for rows.Next() {
			user := model.User{}
			err = rows.Scan(&user.ID, &user.FullName, &user.Email, &user.Role, &user.IsProtected)
			if err != nil {
				httpx.LogInternalError(w, "db.get_users.scan", err)
				return
			}
			users = append(users, user)
		}

		render.JSON(w, r, users)
	}
}

type userRequest struct {
	FullName string     `json:"fullName" validate:"required"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

func CreateUser(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := userRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(req); err != nil {
			httpx.LogMessage(w, r, http.StatusBadRequest, log.DebugLevel, "user.validate",
				"fullName and email are required")
			return
		}
		if req.Password == "" {
			httpx.LogMessage(w, r, http.StatusBadRequest, log.DebugLevel, "user.validate.password",
				"password is required")
			return
		}
		if !req.Role.Valid() {
			httpx.LogMessage(w, r, http.StatusBadRequest, log.DebugLevel, "user.validate.role",
				"invalid role")
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			httpx.LogInternalError(w, "user.hash_password", err)
			return
		}

		var userId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO users (full_name, email, password_hash, role)
			VALUES (?, ?, ?, ?)
			RETURNING id`,
			req.FullName,
			req.Email,
			hash,
			req.Role,
		).Scan(&userId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_user", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message": "User created successfully",
			"userId":  userId,
		})
	}
}

// UpdateUser edits a user account. A protected account only accepts email
// and password changes, its name and role stay fixed.
func UpdateUser(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		req := userRequest{}
		err = render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(req); err != nil {
			httpx.LogMessage(w, r, http.StatusBadRequest, log.DebugLevel, "user.validate",
				"fullName and email are required")
			return
		}

		var isProtected bool
		err = app.QueryRowContext(r.Context(),
			`SELECT is_protected FROM users WHERE id = ?`, userId,
		).Scan(&isProtected)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			httpx.LogNotFound(w, "update_user", userId)
			return
		case err != nil:
			httpx.LogInternalError(w, "db.get_user", err)
			return
		}

		if isProtected {
			if req.Password != "" {
				hash, err := auth.HashPassword(req.Password)
				if err != nil {
					httpx.LogInternalError(w, "user.hash_password", err)
					return
				}
				_, err = app.ExecContext(r.Context(),
					`UPDATE users SET email = ?, password_hash = ? WHERE id = ?`,
					req.Email, hash, userId)
				if err != nil {
					httpx.LogInternalError(w, "db.update_user", err)
					return
				}
			} else {
				_, err = app.ExecContext(r.Context(),
					`UPDATE users SET email = ? WHERE id = ?`,
					req.Email, userId)
				if err != nil {
					httpx.LogInternalError(w, "db.update_user", err)
					return
				}
			}

			render.JSON(w, r, map[string]any{
				"message": "User updated successfully",
			})
			return
		}

		if !req.Role.Valid() {
			httpx.LogMessage(w, r, http.StatusBadRequest, log.DebugLevel, "user.validate.role",
				"invalid role")
			return
		}

		if req.Password != "" {
			hash, err := auth.HashPassword(req.Password)
			if err != nil {
				httpx.LogInternalError(w, "user.hash_password", err)
				return
			}
			_, err = app.ExecContext(r.Context(), `
				UPDATE users SET full_name = ?, email = ?, password_hash = ?, role = ?
				WHERE id = ?`,
				req.FullName, req.Email, hash, req.Role, userId)
			if err != nil {
				httpx.LogInternalError(w, "db.update_user", err)
				return
			}
		} else {
			_, err = app.ExecContext(r.Context(), `
				UPDATE users SET full_name = ?, email = ?, role = ?
				WHERE id = ?`,
				req.FullName, req.Email, req.Role, userId)
			if err != nil {
				httpx.LogInternalError(w, "db.update_user", err)
				return
			}
		}

		render.JSON(w, r, map[string]any{
			"message": "User updated successfully",
		})
	}
}

func DeleteUser(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var isProtected bool
		err = app.QueryRowContext(r.Context(),
			`SELECT is_protected FROM users WHERE id = ?`, userId,
		).Scan(&isProtected)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			httpx.LogNotFound(w, "delete_user", userId)
			return
		case err != nil:
			httpx.LogInternalError(w, "db.get_user", err)
			return
		}
		if isProtected {
			httpx.LogMessage(w, r, http.StatusForbidden, log.DebugLevel, "user.delete.protected",
				"Cannot delete superadmin")
			return
		}

		_, err = app.ExecContext(r.Context(), `DELETE FROM users WHERE id = ?`, userId)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_user", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
