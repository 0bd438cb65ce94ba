package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/tournament-tracker/docs"
	"github.com/Dosada05/tournament-tracker/handlers"
	"github.com/Dosada05/tournament-tracker/middleware"
)

const requestTimeout = 30 * time.Second

type Handlers struct {
	Auth      *handlers.AuthHandler
	User      *handlers.UserHandler
	Team      *handlers.TeamHandler
	Match     *handlers.MatchHandler
	Admin     *handlers.AdminHandler
	WebSocket *handlers.WebSocketHandler
}

type Options struct {
	CORSOrigins []string
	Tokens      middleware.TokenParser
	Users       middleware.UserLoader
	Logger      *slog.Logger
}

func SetupRoutes(r chi.Router, h Handlers, opts Options) {
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Authenticate(opts.Tokens, opts.Users, opts.Logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Websocket соединения живут дольше таймаута запроса.
	r.Get("/ws/standings", h.WebSocket.ServeStandings)

	r.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(requestTimeout))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/teams", http.StatusSeeOther)
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", h.Team.Standings)
			r.Get("/all", h.Team.ListAll)
		})

		r.Route("/matches", func(r chi.Router) {
			r.Get("/", h.Match.History)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Get("/pending", h.Match.Pending)
				r.Post("/", h.Match.Add)
				r.Post("/{matchID}/approve", h.Match.Approve)
				r.Post("/{matchID}/delete", h.Match.Delete)
				r.Delete("/{matchID}", h.Match.Delete)
			})

			r.Get("/{matchID}", h.Match.Get)
			r.Get("/{matchID}/delta", h.Match.Delta)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.User.Register)
			r.Post("/login", h.Auth.Login)
			r.Post("/token/refresh", h.Auth.Refresh)
			r.Get("/logout", h.Auth.Logout)
			r.Get("/confirmemail", h.User.ConfirmEmail)
			r.Post("/requestconfirmemail", h.User.RequestConfirmation)
			r.Post("/requestresetpassword", h.User.RequestPasswordReset)
			r.Post("/resetpassword", h.User.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Get("/me", h.User.Me)
				r.Get("/me/pushtokens", h.User.ListPushTokens)
				r.Post("/me/pushtokens", h.User.AddPushToken)
				r.Delete("/me/pushtokens/{pushTokenID}", h.User.DeletePushToken)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Route("/teams", func(r chi.Router) {
				r.Get("/", h.Team.Standings)
				r.Post("/", h.Team.CreateTeam)
				r.Get("/{teamID}", h.Team.GetTeam)
				r.Patch("/{teamID}", h.Team.UpdateTeam)
				r.Get("/{teamID}/members/eligible", h.Team.EligibleMembers)
				r.Post("/{teamID}/members", h.Team.AddMember)
				r.Put("/{teamID}/logo", h.Admin.UploadLogo)
			})
			r.Post("/scores/recalculate", h.Admin.Recalculate)
			r.Get("/dashboard", h.Admin.Dashboard)
		})
	})
}
