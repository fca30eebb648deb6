package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/ExpenseFlow-io/expenseflow/internal/auth"
	"github.com/ExpenseFlow-io/expenseflow/internal/config"
	"github.com/ExpenseFlow-io/expenseflow/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Api struct {
	Config config.Config
	Router *chi.Mux

	db     *database.DB
	tokens *auth.TokenManager
	resets *auth.ResetManager
}

func NewApi(cfg config.Config, db *database.DB) (*Api, error) {
	if cfg.APIPort == 0 {
		return nil, fmt.Errorf("Must have at least a port to start API")
	}

	api := &Api{
		Config: cfg,
		Router: chi.NewRouter(),
		db:     db,
		tokens: auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration),
		resets: auth.NewResetManager(db, cfg.Auth.ResetTokenTTL),
	}

	api.setupRoutes()
	return api, nil
}

func (api *Api) setupRoutes() {
	r := api.Router

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   api.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Get("/heartbeat", api.Heartbeat)

	r.Route("/api/users", func(r chi.Router) {
		// Public routes; the password reset flow is unauthenticated by design
		r.Post("/register", api.RegisterHandler)
		r.Post("/login", api.LoginHandler)
		r.Post("/forgot-password", api.ForgotPasswordHandler)
		r.Post("/reset-password/{token}", api.ResetPasswordHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(api.tokens, api.db))
			r.Get("/me", api.MeHandler)
			r.Put("/password", api.ChangePasswordHandler)
			r.Delete("/account", api.DeleteAccountHandler)
		})
	})

	r.Route("/api/expenses", func(r chi.Router) {
		r.Use(auth.Middleware(api.tokens, api.db))
		r.Post("/add", api.AddExpenseHandler)
		r.Get("/", api.ListExpensesHandler)
		r.Get("/stats", api.ExpenseStatsHandler)
		r.Get("/{id}", api.GetExpenseHandler)
		r.Put("/{id}", api.UpdateExpenseHandler)
		r.Delete("/{id}", api.DeleteExpenseHandler)
	})
}

func (api *Api) Serve() {
	addr := fmt.Sprintf("0.0.0.0:%d", api.Config.APIPort)
	log.Printf("Starting API server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, api.Router))
}

func (api *Api) Heartbeat(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
