package routes

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/Dosada05/tournament-standings/docs"
	"github.com/Dosada05/tournament-standings/handlers"
	"github.com/Dosada05/tournament-standings/middleware"
	"github.com/Dosada05/tournament-standings/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handlers struct {
	Auth        *handlers.AuthHandler
	User        *handlers.UserHandler
	Team        *handlers.TeamHandler
	Tournament  *handlers.TournamentHandler
	Participant *handlers.ParticipantHandler
	Game        *handlers.GameHandler
	Standings   *handlers.StandingsHandler
	Formula     *handlers.FormulaHandler
	Admin       *handlers.AdminUserHandler
	WebSocket   *handlers.WebSocketHandler
}

type Options struct {
	JWTSecret       []byte
	AllowedOrigins  []string
	AuthRateLimiter *middleware.IPRateLimiter
	Gatherer        prometheus.Gatherer
	DB              Pinger
	Logger          *slog.Logger
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(opts.JWTSecret, opts.Logger)
	organizers := middleware.RequireRole(models.RoleAdmin, models.RoleOrganizer)

	router.Get("/healthz", healthz(opts.DB))
	router.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.Route("/auth", func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.AuthRateLimiter))
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
	})

	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/users/me", h.User.GetMe)

		r.Post("/teams", h.Team.CreateTeam)
		r.Get("/teams/{teamID}", h.Team.GetTeamByID)
		r.Post("/teams/{teamID}/members", h.Team.AddMember)
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.Tournament.ListHandler)
		r.Get("/slug/{slug}", h.Tournament.GetBySlugHandler)

		r.Route("/{tournamentID}", func(r chi.Router) {
			r.Get("/", h.Tournament.GetByIDHandler)
			r.Get("/participants", h.Participant.List)
			r.Get("/games", h.Game.List)
			r.Get("/games/{gameID}", h.Game.Get)
			r.Get("/standings", h.Standings.Standings)
			r.Get("/standings/export", h.Standings.Export)
			r.Get("/standings/snapshot", h.Standings.Snapshot)
			r.Get("/achievements", h.Standings.Achievements)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/participants", h.Participant.Register)
				r.Delete("/participants/{participantID}", h.Participant.Withdraw)
			})

			r.Group(func(r chi.Router) {
				r.Use(authenticate, organizers)
				r.Put("/", h.Tournament.UpdateDetailsHandler)
				r.Patch("/status", h.Tournament.UpdateStatusHandler)
				r.Delete("/", h.Tournament.DeleteHandler)
				r.Put("/formula", h.Tournament.AssignFormulaHandler)
				r.Post("/games", h.Game.Record)
				r.Delete("/games/{gameID}", h.Game.Delete)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate, organizers)
			r.Post("/", h.Tournament.CreateHandler)
		})
	})

	router.Route("/formulas", func(r chi.Router) {
		r.Get("/", h.Formula.List)
		r.Get("/{formulaID}", h.Formula.Get)
		r.Post("/{formulaID}/preview", h.Formula.Preview)

		r.Group(func(r chi.Router) {
			r.Use(authenticate, organizers)
			r.Post("/", h.Formula.Create)
			r.Put("/{formulaID}", h.Formula.Update)
			r.Delete("/{formulaID}", h.Formula.Delete)
		})
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(authenticate, middleware.RequireRole(models.RoleAdmin))
		r.Get("/users", h.Admin.ListUsers)
		r.Delete("/users/{userID}", h.Admin.DeleteUser)
		r.Patch("/users/{userID}/status", h.Admin.UpdateUserStatus)
		r.Get("/dashboard", h.Admin.Dashboard)
	})
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}` + "\n"))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
	}
}
