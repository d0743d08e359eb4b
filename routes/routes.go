package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ezza-forms/backend/app"
	"github.com/ezza-forms/backend/routes/middlewares"
)

var validate = validator.New()

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)
	root.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	root.Get("/check-superadmin", CheckSuperadmin(app))
	root.Post("/setup", Setup(app))

	root.Mount("/api", apiRouter(app))
	root.Mount("/", http.FileServer(http.Dir(app.PublicDir)))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Post("/auth/login", Login(app))
	api.Post("/auth/verify-otp", VerifyOTP(app))
	api.Post("/support/contact", SupportContact(app))
	api.Get("/settings", GetSettings(app))

	api.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(app.TokenAuth), jwtauth.Authenticator(app.TokenAuth))

		r.Route("/forms", func(r chi.Router) {
			r.Get("/", ListForms(app))
			r.Get(`/{id:^\d+$}`, GetFormById(app))

			r.Group(func(r chi.Router) {
				r.Use(middlewares.RequireRole("superadmin"))
				r.Post("/", CreateForm(app))
				r.Put(`/{id:^\d+$}`, UpdateForm(app))
				r.Delete(`/{id:^\d+$}`, DeleteForm(app))
			})
		})

		r.Route("/form-responses", func(r chi.Router) {
			r.Post("/", SubmitResponse(app))
			r.Get("/", ListResponses(app))
			r.Get(`/form/{formId:^\d+$}`, GetResponsesByForm(app))
			r.Get(`/client/{clientId:^\d+$}`, GetResponsesByClient(app))
			r.With(middlewares.RequireRole("assistance", "superadmin")).
				Put(`/{id:^\d+$}/status`, UpdateResponseStatus(app))
		})

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", ListClients(app))
			r.Get("/summary", ClientsSummary(app))
			r.Post("/", CreateClient(app))
			r.Get(`/{id:^\d+$}`, GetClientById(app))
			r.Put(`/{id:^\d+$}`, UpdateClient(app))
			r.Delete(`/{id:^\d+$}`, DeleteClient(app))
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middlewares.RequireRole("superadmin"))
			r.Get("/", ListUsers(app))
			r.Post("/", CreateUser(app))
			r.Put(`/{id:^\d+$}`, UpdateUser(app))
			r.Delete(`/{id:^\d+$}`, DeleteUser(app))
		})

		r.Get(`/reports/generate/{id:^\d+$}`, GenerateReport(app))
		r.Put("/settings", UpdateSettings(app))
	})

	return api
}
