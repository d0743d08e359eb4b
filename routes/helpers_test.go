package routes_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ezza-forms/backend/app"
	"github.com/ezza-forms/backend/auth"
	"github.com/ezza-forms/backend/config"
	"github.com/ezza-forms/backend/database"
	"github.com/ezza-forms/backend/mail"
	"github.com/ezza-forms/backend/model"
	"github.com/ezza-forms/backend/routes"
)

func newTestApp(t *testing.T) (app.App, http.Handler) {
	t.Helper()

	cfg := config.Config{
		DBUrl:       filepath.Join(t.TempDir(), "test.sqlite"),
		TokenSecret: "test-secret",
		TokenTTL:    time.Hour,
		OTPTTL:      5 * time.Minute,
		PublicDir:   t.TempDir(),
	}

	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	a := app.App{
		DB:        db,
		Config:    cfg,
		TokenAuth: auth.NewTokenAuth(cfg.TokenSecret),
		OTPs:      auth.NewOTPStore(db, cfg.OTPTTL),
		Mailer:    mail.NewSender(cfg.SMTP),
	}
	return a, routes.Wire(a)
}

func tokenFor(t *testing.T, a app.App, role model.Role) string {
	t.Helper()

	token, err := auth.IssueToken(a.TokenAuth, model.User{
		ID:       1,
		FullName: "Test User",
		Email:    "test@example.com",
		Role:     role,
	}, time.Hour)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func createClient(t *testing.T, a app.App, name string) int {
	t.Helper()

	var id int
	err := a.QueryRow(`INSERT INTO clients (company_name) VALUES (?) RETURNING id`, name).Scan(&id)
	require.NoError(t, err)
	return id
}

func createForm(t *testing.T, handler http.Handler, token string, form map[string]any) int {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/api/forms", token, form)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[map[string]any](t, rec)
	return int(created["formId"].(float64))
}

func submitResponse(t *testing.T, handler http.Handler, token string, formId, clientId int, answers map[string]any) int {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/api/form-responses", token, map[string]any{
		"formId":   formId,
		"clientId": clientId,
		"answers":  answers,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[map[string]any](t, rec)
	return int(created["responseId"].(float64))
}
