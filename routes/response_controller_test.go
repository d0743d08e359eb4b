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

func TestSubmitResponseValidation(t *testing.T) {
	a, handler := newTestApp(t)
	token := tokenFor(t, a, model.RoleCommercial)

	rec := doJSON(t, handler, http.MethodPost, "/api/form-responses", token, map[string]any{
		"formId": 1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "formId, clientId, and answers are required", body["message"])
}

func TestStatusWorkflow(t *testing.T) {
	a, handler := newTestApp(t)
	admin := tokenFor(t, a, model.RoleSuperadmin)

	formId := createForm(t, handler, admin, orderForm())
	clientId := createClient(t, a, "ACME")
	responseId := submitResponse(t, handler, admin, formId, clientId, map[string]any{"1": "hello"})
	statusURL := fmt.Sprintf("/api/form-responses/%d/status", responseId)

	setStatus := func(status string) int {
		rec := doJSON(t, handler, http.MethodPut, statusURL, admin, map[string]any{"status": status})
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, setStatus("needs_correction"))
	// needs_correction can still be approved
	assert.Equal(t, http.StatusOK, setStatus("approved"))

	// approved is frozen, no transition out of it
	assert.Equal(t, http.StatusBadRequest, setStatus("rejected"))
	assert.Equal(t, http.StatusBadRequest, setStatus("pending"))

	var stored string
	require.NoError(t, a.QueryRow(`SELECT status FROM form_responses WHERE id = ?`, responseId).Scan(&stored))
	assert.Equal(t, "approved", stored)
}

func TestStatusValidation(t *testing.T) {
	a, handler := newTestApp(t)
	admin := tokenFor(t, a, model.RoleSuperadmin)

	formId := createForm(t, handler, admin, orderForm())
	clientId := createClient(t, a, "ACME")
	responseId := submitResponse(t, handler, admin, formId, clientId, map[string]any{"1": "x"})

	rec := doJSON(t, handler, http.MethodPut,
		fmt.Sprintf("/api/form-responses/%d/status", responseId),
		admin, map[string]any{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPut, "/api/form-responses/999/status",
		admin, map[string]any{"status": "approved"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusRequiresReviewerRole(t *testing.T) {
	a, handler := newTestApp(t)
	admin := tokenFor(t, a, model.RoleSuperadmin)
	commercial := tokenFor(t, a, model.RoleCommercial)
	assistance := tokenFor(t, a, model.RoleAssistance)

	formId := createForm(t, handler, admin, orderForm())
	clientId := createClient(t, a, "ACME")
	responseId := submitResponse(t, handler, admin, formId, clientId, map[string]any{"1": "x"})
	statusURL := fmt.Sprintf("/api/form-responses/%d/status", responseId)

	rec := doJSON(t, handler, http.MethodPut, statusURL, commercial, map[string]any{"status": "rejected"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, handler, http.MethodPut, statusURL, assistance, map[string]any{"status": "rejected"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListResponsesSummary(t *testing.T) {
	a, handler := newTestApp(t)
	admin := tokenFor(t, a, model.RoleSuperadmin)

	formId := createForm(t, handler, admin, orderForm())
	clientId := createClient(t, a, "ACME")
	submitResponse(t, handler, admin, formId, clientId, map[string]any{
		"2": "hello",
		"1": "world",
		"3": []string{"a", "b"},
	})

	rec := doJSON(t, handler, http.MethodGet, "/api/form-responses", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decodeBody[[]map[string]any](t, rec)
	require.Len(t, items, 1)

	assert.Equal(t, "Bon de commande", items[0]["formTitle"])
	assert.Equal(t, "ACME", items[0]["clientName"])
	assert.Equal(t, "pending", items[0]["status"])
	assert.Equal(t, "1: world; 2: hello", items[0]["answersSummary"])
}

func TestGetResponsesByFormFormatsAnswers(t *testing.T) {
	a, handler := newTestApp(t)
	admin := tokenFor(t, a, model.RoleSuperadmin)

	formId := createForm(t, handler, admin, orderForm())
	clientId := createClient(t, a, "ACME")

	// find the question_group field id to key the conditional answers
	rec := doJSON(t, handler, http.MethodGet, "/api/forms/"+strconv.Itoa(formId), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	form := decodeBody[model.Form](t, rec)
	groupId := form.Sections[1].Fields[1].ID

	submitResponse(t, handler, admin, formId, clientId, map[string]any{
		strconv.Itoa(groupId):          "Produit A",
		fmt.Sprintf("%d-0-0", groupId): "3",
		fmt.Sprintf("%d-0-1", groupId): "Rouge",
	})

	rec = doJSON(t, handler, http.MethodGet, "/api/form-responses/form/"+strconv.Itoa(formId), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	responses := decodeBody[[]map[string]any](t, rec)
	require.Len(t, responses, 1)

	answers, ok := responses[0]["answers"].(map[string]any)
	require.True(t, ok)
	formatted, ok := answers[strconv.Itoa(groupId)].(map[string]any)
	require.True(t, ok, "expected composite answer, got %v", answers)
	assert.Equal(t, "Produit A", formatted["value"])

	conditional, ok := formatted["_conditionalData"].([]any)
	require.True(t, ok)
	require.Len(t, conditional, 1)
	detail := conditional[0].(map[string]any)
	assert.Equal(t, "Produit A", detail["optionText"])
	assert.Equal(t, []any{
		map[string]any{"label": "Quantité", "value": "3"},
		map[string]any{"label": "Couleur", "value": "Rouge"},
	}, detail["inputs"])
}

func TestGetResponsesByClient(t *testing.T) {
	a, handler := newTestApp(t)
	admin := tokenFor(t, a, model.RoleSuperadmin)

	formId := createForm(t, handler, admin, orderForm())
	acme := createClient(t, a, "ACME")
	other := createClient(t, a, "Globex")
	submitResponse(t, handler, admin, formId, acme, map[string]any{"1": "a"})
	submitResponse(t, handler, admin, formId, other, map[string]any{"1": "b"})

	rec := doJSON(t, handler, http.MethodGet, "/api/form-responses/client/"+strconv.Itoa(acme), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	responses := decodeBody[[]map[string]any](t, rec)
	require.Len(t, responses, 1)

	answers, ok := responses[0]["answers"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a", answers["1"])
}
