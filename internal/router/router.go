package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/curatrip/curatrip-server/internal/api/conversation"
	"github.com/curatrip/curatrip-server/internal/api/itinerary"
	"github.com/curatrip/curatrip-server/internal/api/mutation"
)

// Config carries the handlers and middleware the router assembles.
type Config struct {
	ConversationHandler    *conversation.Handler
	MutationHandler        *mutation.Handler
	ItineraryHandler       *itinerary.Handler
	AuthenticateMiddleware func(http.Handler) http.Handler
}

// SetupRouter wires the API routes. Server-wide middleware (request id,
// logging, recoverer) is applied around this router in main.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000", "https://console.curatrip.example"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.AuthenticateMiddleware != nil {
				r.Use(cfg.AuthenticateMiddleware)
			}

			r.Route("/sessions/{sessionID}", func(r chi.Router) {
				r.Post("/chat", cfg.ConversationHandler.Chat)
				r.Post("/finalize", cfg.ItineraryHandler.Finalize)

				r.Route("/itinerary", func(r chi.Router) {
					r.Get("/", cfg.ItineraryHandler.GetItinerary)
					r.Get("/calendar.ics", cfg.ItineraryHandler.ExportCalendar)
					r.Post("/modifications", cfg.MutationHandler.Modify)
					r.Post("/days/{dayNumber}/regenerate", cfg.MutationHandler.RegenerateDay)
				})
			})
		})
	})

	return r
}
