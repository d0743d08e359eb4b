package routes

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/ezza-forms/backend/answers"
	"github.com/ezza-forms/backend/app"
	"github.com/ezza-forms/backend/httpx"
	"github.com/ezza-forms/backend/log"
	"github.com/ezza-forms/backend/model"
)

func SubmitResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FormID   int             `json:"formId"`
			ClientID int             `json:"clientId"`
			Answers  json.RawMessage `json:"answers"`
		}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if req.FormID == 0 || req.ClientID == 0 || len(req.Answers) == 0 {
			httpx.LogMessage(w, r, http.StatusBadRequest, log.DebugLevel, "response.validate",
				"formId, clientId, and answers are required")
			return
		}

		var responseId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO form_responses (form_id, client_id, answers) VALUES (?, ?, ?)
			RETURNING id`,
			req.FormID,
			req.ClientID,
			string(req.Answers),
		).Scan(&responseId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_response", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message":    "Form response saved",
			"responseId": responseId,
		})
	}
}

type responseListItem struct {
	ID             int          `json:"id"`
	FormTitle      string       `json:"formTitle"`
	SubmittedAt    time.Time    `json:"submittedAt"`
	Status         model.Status `json:"status"`
	ClientID       int          `json:"clientId"`
	ClientName     string       `json:"clientName"`
	AnswersSummary string       `json:"answersSummary"`
}

func ListResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT
				fr.id, f.title, fr.submitted_at, fr.status, fr.answers,
				c.id, c.company_name
			FROM form_responses fr
			JOIN forms f ON (fr.form_id = f.id)
			JOIN clients c ON (fr.client_id = c.id)
			ORDER BY fr.submitted_at DESC`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses", err)
			return
		}
		defer rows.Close()

		items := []responseListItem{}
		for rows.Next() {
			item := responseListItem{}
			var rawAnswers string
			err = rows.Scan(
				&item.ID, &item.FormTitle, &item.SubmittedAt, &item.Status, &rawAnswers,
				&item.ClientID, &item.ClientName,
			)
			if err != nil {
				httpx.LogInternalError(w, "db.get_responses.scan", err)
				return
			}

			item.AnswersSummary = answers.Summary(answers.Parse(rawAnswers), 2)
			items = append(items, item)
		}

		render.JSON(w, r, items)
	}
}

type formattedResponse struct {
	ID          int            `json:"id"`
	FormID      int            `json:"form_id"`
	ClientID    int            `json:"client_id"`
	Status      model.Status   `json:"status"`
	SubmittedAt time.Time      `json:"submitted_at"`
	Answers     map[string]any `json:"answers"`
}

// GetResponsesByForm returns a form's responses with answers reshaped
// against the form's field metadata.
func GetResponsesByForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "formId"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.formId")
			return
		}

		form, err := loadForm(r.Context(), app, formId)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			httpx.LogNotFound(w, "get_responses.form", formId)
			return
		case err != nil:
			httpx.LogInternalError(w, "db.get_form", err)
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT id, form_id, client_id, answers, status, submitted_at
			FROM form_responses
			WHERE form_id = ?
			ORDER BY submitted_at DESC`,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses", err)
			return
		}
		defer rows.Close()

		responses := []formattedResponse{}
		for rows.Next() {
			item := formattedResponse{}
			var rawAnswers string
			err = rows.Scan(&item.ID, &item.FormID, &item.ClientID, &rawAnswers, &item.Status, &item.SubmittedAt)
			if err != nil {
				httpx.LogInternalError(w, "db.get_responses.scan", err)
				return
			}

			item.Answers = answers.Format(form, answers.Parse(rawAnswers))
			responses = append(responses, item)
		}

		render.JSON(w, r, responses)
	}
}

func GetResponsesByClient(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientId, err := strconv.Atoi(chi.URLParam(r, "clientId"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.clientId")
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT id, form_id, client_id, answers, status, submitted_at
			FROM form_responses
			WHERE client_id = ?
			ORDER BY submitted_at DESC`,
			clientId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses", err)
			return
		}
		defer rows.Close()

		responses := []formattedResponse{}
		for rows.Next() {
			item := formattedResponse{}
			var rawAnswers string
			err = rows.Scan(&item.ID, &item.FormID, &item.ClientID, &rawAnswers, &item.Status, &item.SubmittedAt)
			if err != nil {
				httpx.LogInternalError(w, "db.get_responses.scan", err)
				return
			}

			item.Answers = answers.Parse(rawAnswers)
			responses = append(responses, item)
		}

		render.JSON(w, r, responses)
	}
}

// UpdateResponseStatus applies the one business rule of the workflow: an
// approved response is frozen, every other transition is allowed.
func UpdateResponseStatus(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responseId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var req struct {
			Status model.Status `json:"status"`
		}
		err = render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if !req.Status.Valid() {
			httpx.LogMessage(w, r, http.StatusBadRequest, log.DebugLevel, "response.status.validate",
				"invalid status")
			return
		}

		var current model.Status
		err = app.QueryRowContext(r.Context(), `
			SELECT status FROM form_responses WHERE id = ?`,
			responseId,
		).Scan(&current)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			httpx.LogNotFound(w, "update_status", responseId)
			return
		case err != nil:
			httpx.LogInternalError(w, "db.get_response", err)
			return
		}
		if current.Terminal() {
			httpx.LogMessage(w, r, http.StatusBadRequest, log.DebugLevel, "response.status.terminal",
				"an approved response can no longer be modified")
			return
		}

		// guard again in the update, two reviewers may race
		res, err := app.ExecContext(r.Context(), `
			UPDATE form_responses SET status = ?
			WHERE id = ? AND status != ?`,
			req.Status,
			responseId,
			model.StatusApproved,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_status", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_status.verify", err)
			return
		}
		if n < 1 {
			httpx.LogMessage(w, r, http.StatusBadRequest, log.DebugLevel, "response.status.terminal",
				"an approved response can no longer be modified")
			return
		}

		render.JSON(w, r, map[string]any{
			"message": "Status updated",
		})
	}
}
