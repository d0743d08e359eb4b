package routes_test

import (
	"fmt"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezza-forms/backend/model"
)

func TestClientCRUD(t *testing.T) {
	a, handler := newTestApp(t)
	token := tokenFor(t, a, model.RoleCommercial)

	rec := doJSON(t, handler, http.MethodPost, "/api/clients", token, map[string]any{
		"companyName":   "ACME SARL",
		"legalForm":     "SARL",
		"city":          "Paris",
		"email":         "contact@acme.fr",
		"employees":     42,
		"contactPerson": "Jean Dupont",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[map[string]any](t, rec)
	clientId := int(created["clientId"].(float64))

	rec = doJSON(t, handler, http.MethodGet, "/api/clients/"+strconv.Itoa(clientId), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	client := decodeBody[model.Client](t, rec)
	assert.Equal(t, "ACME SARL", client.CompanyName)
	assert.Equal(t, "Paris", client.City)
	assert.Equal(t, 42, client.Employees)

	client.City = "Lyon"
	rec = doJSON(t, handler, http.MethodPut, "/api/clients/"+strconv.Itoa(clientId), token, client)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, handler, http.MethodGet, "/api/clients", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	clients := decodeBody[[]model.Client](t, rec)
	require.Len(t, clients, 1)
	assert.Equal(t, "Lyon", clients[0].City)

	rec = doJSON(t, handler, http.MethodDelete, "/api/clients/"+strconv.Itoa(clientId), token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/clients/"+strconv.Itoa(clientId), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClientValidation(t *testing.T) {
	a, handler := newTestApp(t)
	token := tokenFor(t, a, model.RoleCommercial)

	rec := doJSON(t, handler, http.MethodPost, "/api/clients", token, map[string]any{
		"city": "Paris",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "companyName is required", body["message"])
}

func TestClientsSummary(t *testing.T) {
	a, handler := newTestApp(t)
	admin := tokenFor(t, a, model.RoleSuperadmin)

	formId := createForm(t, handler, admin, orderForm())
	acme := createClient(t, a, "ACME")
	_ = createClient(t, a, "Globex")

	for i, status := range []string{"pending", "pending", "approved", "rejected"} {
		responseId := submitResponse(t, handler, admin, formId, acme, map[string]any{"1": strconv.Itoa(i)})
		if status != "pending" {
			rec := doJSON(t, handler, http.MethodPut,
				fmt.Sprintf("/api/form-responses/%d/status", responseId),
				admin, map[string]any{"status": status})
			require.Equal(t, http.StatusOK, rec.Code)
		}
	}

	rec := doJSON(t, handler, http.MethodGet, "/api/clients/summary", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summaries := decodeBody[[]map[string]any](t, rec)
	require.Len(t, summaries, 2)

	byName := map[string]map[string]any{}
	for _, s := range summaries {
		byName[s["companyName"].(string)] = s
	}

	assert.EqualValues(t, 4, byName["ACME"]["total"])
	assert.EqualValues(t, 2, byName["ACME"]["pending"])
	assert.EqualValues(t, 1, byName["ACME"]["approved"])
	assert.EqualValues(t, 1, byName["ACME"]["rejected"])
	assert.EqualValues(t, 0, byName["ACME"]["needsCorrection"])

	// a client with no responses still shows up, all zeroes
	assert.EqualValues(t, 0, byName["Globex"]["total"])

	// deleting a client removes it and its responses from the summary
	rec = doJSON(t, handler, http.MethodDelete, "/api/clients/"+strconv.Itoa(acme), admin, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/clients/summary", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summaries = decodeBody[[]map[string]any](t, rec)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Globex", summaries[0]["companyName"])

	var count int
	require.NoError(t, a.QueryRow(`SELECT COUNT(*) FROM form_responses`).Scan(&count))
	assert.Zero(t, count)
}
