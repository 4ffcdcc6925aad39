package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pedrohrm/domino-league/handlers"
	"github.com/pedrohrm/domino-league/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	playerHandler *handlers.PlayerHandler,
	competitionHandler *handlers.CompetitionHandler,
	gameHandler *handlers.GameHandler,
	dashboardHandler *handlers.DashboardHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Публичные маршруты
	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/ws/games/{publicID}", webSocketHandler.ServeGame)

	// Всё остальное требует токена
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))

		r.Get("/auth/me", authHandler.Me)
		r.Get("/dashboard", dashboardHandler.Stats)

		r.Route("/players", func(r chi.Router) {
			r.Post("/", playerHandler.Create)
			r.Get("/", playerHandler.List)
			r.Get("/{id}", playerHandler.Get)
			r.Put("/{id}", playerHandler.Update)
			r.Delete("/{id}", playerHandler.Delete)
			r.Post("/{id}/reactivate", playerHandler.Reactivate)
			r.Get("/{id}/stats", playerHandler.Stats)
			r.Post("/{id}/avatar", playerHandler.UploadAvatar)
		})

		r.Route("/competitions", func(r chi.Router) {
			r.Post("/", competitionHandler.Create)
			r.Get("/", competitionHandler.List)
			r.Get("/{id}", competitionHandler.Get)
			r.Put("/{id}", competitionHandler.Update)
			r.Delete("/{id}", competitionHandler.Delete)

			r.Post("/{id}/players", competitionHandler.AddPlayer)
			r.Get("/{id}/players", competitionHandler.ListPlayers)
			r.Delete("/{id}/players/{playerID}", competitionHandler.RemovePlayer)

			r.Post("/{id}/start", competitionHandler.Start)
			r.Post("/{id}/finish", competitionHandler.Finish)
			r.Get("/{id}/champions", competitionHandler.Champions)
			r.Get("/{id}/leaderboard", competitionHandler.Leaderboard)
			r.Post("/{id}/logo", competitionHandler.UploadLogo)

			r.Post("/{id}/games", gameHandler.Create)
			r.Get("/{id}/games", gameHandler.ListByCompetition)
		})

		r.Route("/games", func(r chi.Router) {
			r.Get("/{id}", gameHandler.Get)
			r.Post("/{id}/start", gameHandler.Start)
			r.Post("/{id}/rounds", gameHandler.SubmitRound)
			r.Delete("/{id}", gameHandler.Delete)
		})
	})
}
