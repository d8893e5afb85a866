package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/transsahel/colis-tracker/internal/auth"
)

type contextKey string

const principalKey contextKey = "principal"

// principalFrom returns the authenticated principal stored by the auth
// middleware, or nil on public routes.
func principalFrom(r *http.Request) *auth.Principal {
	p, _ := r.Context().Value(principalKey).(*auth.Principal)
	return p
}

func bearerTokenFromRequest(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// SetupRoutes builds the router. Health, login, and public tracking live
// outside the /api group; everything under /api requires a valid session.
func SetupRoutes(h *Handlers, sessions *auth.SessionManager) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://transsahelcolis.com", "http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", HandleHealth)

	// Public: login and receiver-facing tracking by code.
	r.Post("/auth/login", h.HandleLogin)
	r.Get("/track/{code}", h.HandleTrack)

	r.Route("/api", func(r chi.Router) {
		r.Use(requireSession(sessions))

		r.Post("/auth/logout", h.HandleLogout)

		r.Post("/shipments", h.HandleCreateShipment)
		r.Get("/shipments/lookup", h.HandleLookupShipments)
		r.Get("/shipments/{id}", h.HandleGetShipment)
		r.Delete("/shipments/{id}", h.HandleDeleteShipment)
		r.Get("/shipments/{id}/events", h.HandleListShipmentEvents)
		r.Post("/shipments/{id}/events", h.HandleCustomEvent)
		r.Post("/shipments/{id}/status", h.HandleTransition)
		r.Post("/shipments/{id}/thank-you", h.HandleThankYou)

		r.Get("/convoys", h.HandleListConvoys)
		r.Get("/convoys/{id}", h.HandleGetConvoy)
		r.Post("/convoys/{id}/status", h.HandleConvoyStatus)
		r.Post("/convoys/{id}/city-status", h.HandleConvoyCityStatus)
		r.Post("/convoys/{id}/notify", h.HandleNotifyConvoy)
	})

	return r
}

// requireSession rejects requests without a valid session and stores the
// principal in the request context for the handlers.
func requireSession(sessions *auth.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := sessions.CurrentPrincipal(r)
			if p == nil {
				respondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			ctx := context.WithValue(r.Context(), principalKey, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// HandleHealth is the liveness probe.
//
//	GET /health
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
