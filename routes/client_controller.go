package routes

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/ezza-forms/backend/app"
	"github.com/ezza-forms/backend/httpx"
	"github.com/ezza-forms/backend/log"
	"github.com/ezza-forms/backend/model"
)

const clientColumns = `
	id, company_name, legal_form, registration_number, vat_number, industry,
	founding_date, address, city, postal_code, country, phone, email,
	website, description, employees, revenue, ceo_name, contact_person`

func scanClient(row interface{ Scan(...any) error }) (c model.Client, err error) {
	err = row.Scan(
		&c.ID, &c.CompanyName, &c.LegalForm, &c.RegistrationNumber, &c.VatNumber, &c.Industry,
		&c.FoundingDate, &c.Address, &c.City, &c.PostalCode, &c.Country, &c.Phone, &c.Email,
		&c.Website, &c.Description, &c.Employees, &c.Revenue, &c.CeoName, &c.ContactPerson,
	)
	return
}

func ListClients(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `SELECT `+clientColumns+` FROM clients ORDER BY company_name`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_clients", err)
			return
		}
		defer rows.Close()

		clients := []model.Client{}
		for rows.Next() {
			c, err := scanClient(rows)
			if err != nil {
				httpx.LogInternalError(w, "db.get_clients.scan", err)
				return
			}
			clients = append(clients, c)
		}

		render.JSON(w, r, clients)
	}
}

func GetClientById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		client, err := scanClient(app.QueryRowContext(r.Context(),
			`SELECT `+clientColumns+` FROM clients WHERE id = ?`, clientId))
		switch {
		case errors.Is(err, sql.ErrNoRows):
			httpx.LogNotFound(w, "get_client", clientId)
			return
		case err != nil:
			httpx.LogInternalError(w, "db.get_client", err)
			return
		}

		render.JSON(w, r, client)
	}
}

func CreateClient(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client := model.Client{}
		err := render.DecodeJSON(r.Body, &client)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(client); err != nil {
			httpx.LogMessage(w, r, http.StatusBadRequest, log.DebugLevel, "client.validate", "companyName is required")
			return
		}

		var clientId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO clients (
				company_name, legal_form, registration_number, vat_number, industry,
				founding_date, address, city, postal_code, country, phone, email,
				website, description, employees, revenue, ceo_name, contact_person
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			client.CompanyName, client.LegalForm, client.RegistrationNumber, client.VatNumber, client.Industry,
			client.FoundingDate, client.Address, client.City, client.PostalCode, client.Country, client.Phone, client.Email,
			client.Website, client.Description, client.Employees, client.Revenue, client.CeoName, client.ContactPerson,
		).Scan(&clientId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_client", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message":  "Client added successfully",
			"clientId": clientId,
		})
	}
}

func UpdateClient(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		client := model.Client{}
		err = render.DecodeJSON(r.Body, &client)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validate.Struct(client); err != nil {
			httpx.LogMessage(w, r, http.StatusBadRequest, log.DebugLevel, "client.validate", "companyName is required")
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE clients SET
				company_name = ?, legal_form = ?, registration_number = ?, vat_number = ?, industry = ?,
				founding_date = ?, address = ?, city = ?, postal_code = ?, country = ?, phone = ?, email = ?,
				website = ?, description = ?, employees = ?, revenue = ?, ceo_name = ?, contact_person = ?
			WHERE id = ?`,
			client.CompanyName, client.LegalForm, client.RegistrationNumber, client.VatNumber, client.Industry,
			client.FoundingDate, client.Address, client.City, client.PostalCode, client.Country, client.Phone, client.Email,
			client.Website, client.Description, client.Employees, client.Revenue, client.CeoName, client.ContactPerson,
			clientId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_client", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_client.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "update_client", clientId)
			return
		}

		render.JSON(w, r, map[string]any{
			"message": "Client updated successfully",
		})
	}
}

func DeleteClient(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		res, err := app.ExecContext(r.Context(), `DELETE FROM clients WHERE id = ?`, clientId)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_client", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_client.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_client", clientId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

type clientSummary struct {
	ClientID        int    `json:"clientId"`
	CompanyName     string `json:"companyName"`
	Total           int    `json:"total"`
	Pending         int    `json:"pending"`
	Approved        int    `json:"approved"`
	Rejected        int    `json:"rejected"`
	NeedsCorrection int    `json:"needsCorrection"`
}

// ClientsSummary aggregates response counts per status for every existing
// client. Deleted clients cannot appear: the aggregation starts from the
// clients table and their responses are gone with them.
func ClientsSummary(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT
				c.id, c.company_name,
				COUNT(fr.id),
				COALESCE(SUM(CASE WHEN fr.status = 'pending' THEN 1 ELSE 0 END), 0),
				COALESCE(SUM(CASE WHEN fr.status = 'approved' THEN 1 ELSE 0 END), 0),
				COALESCE(SUM(CASE WHEN fr.status = 'rejected' THEN 1 ELSE 0 END), 0),
				COALESCE(SUM(CASE WHEN fr.status = 'needs_correction' THEN 1 ELSE 0 END), 0)
			FROM clients c
			LEFT OUTER JOIN form_responses fr ON (c.id = fr.client_id)
			GROUP BY c.id, c.company_name
			ORDER BY c.company_name`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_clients_summary", err)
			return
		}
		defer rows.Close()

		summaries := []clientSummary{}
		for rows.Next() {
			s := clientSummary{}
			err = rows.Scan(&s.ClientID, &s.CompanyName, &s.Total, &s.Pending, &s.Approved, &s.Rejected, &s.NeedsCorrection)
			if err != nil {
				httpx.LogInternalError(w, "db.get_clients_summary.scan", err)
				return
			}
			summaries = append(summaries, s)
		}

		render.JSON(w, r, summaries)
	}
}
