package http

import (
	"log/slog"
	"net/http"
	"strings"

	httpSwagger "github.com/swaggo/http-swagger"

	"communityevents/internal/delivery/http/controllers"
	"communityevents/internal/delivery/http/helpers"
	"communityevents/internal/delivery/http/middleware"
	"communityevents/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	logger *slog.Logger,
	verifier domain.TokenVerifier,
	registrationController *controllers.RegistrationController,
	allowedOrigins string,
) http.Handler {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(verifier, logger)

	// Registration API
	mux.HandleFunc("POST /events/{eventID}/registrations", requireAuth(registrationController.Register))
	mux.HandleFunc("GET /events/{eventID}/registrations", requireAuth(registrationController.ListForEvent))
	mux.HandleFunc("GET /events/{eventID}/capacity", registrationController.Capacity)
	mux.HandleFunc("GET /registrations", requireAuth(registrationController.ListMine))
	mux.HandleFunc("GET /registrations/{registrationID}", requireAuth(registrationController.GetByID))
	mux.HandleFunc("PATCH /registrations/{registrationID}", requireAuth(registrationController.Update))
	mux.HandleFunc("DELETE /registrations/{registrationID}", requireAuth(registrationController.Cancel))
	mux.HandleFunc("POST /registrations/{registrationID}/checkin", requireAuth(registrationController.CheckIn))

	// Health
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(logger, handler)
	if allowedOrigins != "" {
		handler = middleware.CORS(strings.Split(allowedOrigins, ","), handler)
	}
	return handler
}
