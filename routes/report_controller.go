package routes

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ezza-forms/backend/answers"
	"github.com/ezza-forms/backend/app"
	"github.com/ezza-forms/backend/httpx"
	"github.com/ezza-forms/backend/log"
	"github.com/ezza-forms/backend/model"
	"github.com/ezza-forms/backend/report"
)

// GenerateReport renders one response as a downloadable PDF. The document
// is buffered whole, a half-written PDF must never reach the client.
func GenerateReport(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responseId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		resp := model.FormResponse{}
		err = app.QueryRowContext(r.Context(), `
			SELECT id, form_id, client_id, answers, status, submitted_at
			FROM form_responses WHERE id = ?`,
			responseId,
		).Scan(&resp.ID, &resp.FormID, &resp.ClientID, &resp.Answers, &resp.Status, &resp.SubmittedAt)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			httpx.LogNotFound(w, "generate_report", responseId)
			return
		case err != nil:
			httpx.LogInternalError(w, "db.get_response", err)
			return
		}

		form, err := loadForm(r.Context(), app, resp.FormID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			httpx.LogNotFound(w, "generate_report.form", resp.FormID)
			return
		case err != nil:
			httpx.LogInternalError(w, "db.get_form", err)
			return
		}

		client, err := scanClient(app.QueryRowContext(r.Context(),
			`SELECT `+clientColumns+` FROM clients WHERE id = ?`, resp.ClientID))
		switch {
		case errors.Is(err, sql.ErrNoRows):
			client = model.Client{CompanyName: "Non spécifié"}
		case err != nil:
			httpx.LogInternalError(w, "db.get_client", err)
			return
		}

		formatted := answers.Format(form, answers.Parse(resp.Answers))

		buf := httpx.NewResponseBuffer()
		if err := report.Generate(buf, form, resp, client, formatted); err != nil {
			httpx.LogInternalError(w, "report.generate", err)
			return
		}

		filename := fmt.Sprintf("%s_%s.pdf", form.Title, client.CompanyName)
		filename = strings.Join(strings.Fields(filename), "_")

		buf.Header().Set("Content-Type", "application/pdf")
		buf.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		if err := buf.Flush(w); err != nil {
			log.Warnf("report.flush: %s", err)
		}
	}
}
