package http

import (
	"log/slog"
	"net/http"

	_ "collegeevents/docs"
	"collegeevents/internal/delivery/http/controllers"
	"collegeevents/internal/delivery/http/middleware"

	httpSwagger "github.com/swaggo/http-swagger"
)

// RouterConfig carries what the router needs besides the controllers.
type RouterConfig struct {
	Logger             *slog.Logger
	CORSAllowedOrigins []string
	// UploadPrefix is the URL path segment uploads are served under, without slashes.
	UploadPrefix string
	Uploads      http.Handler
}

// NewRouter initializes the HTTP router with all application routes and wraps it in the middleware chain.
func NewRouter(cfg RouterConfig, eventController *controllers.EventController, healthController *controllers.HealthController) http.Handler {
	mux := http.NewServeMux()

	// API Routes
	mux.HandleFunc("GET /api/events", eventController.ListEvents)
	mux.HandleFunc("GET /api/events/{$}", eventController.ListEvents)
	mux.HandleFunc("POST /api/events", eventController.CreateEvent)
	mux.HandleFunc("POST /api/events/{$}", eventController.CreateEvent)
	mux.HandleFunc("GET /api/events/{id}", eventController.GetEvent)
	mux.HandleFunc("PUT /api/events/{id}", eventController.UpdateEvent)
	mux.HandleFunc("PATCH /api/events/{id}", eventController.UpdateEvent)
	mux.HandleFunc("DELETE /api/events/{id}", eventController.DeleteEvent)
	mux.HandleFunc("GET /api/event-types", eventController.ListEventTypes)

	mux.HandleFunc("GET /healthz", healthController.Health)

	// Uploaded images
	if cfg.Uploads != nil {
		mux.Handle("GET /"+cfg.UploadPrefix+"/", cfg.Uploads)
	}

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	var handler http.Handler = mux
	handler = middleware.CORS(cfg.CORSAllowedOrigins, handler)
	handler = middleware.LoggingMiddleware(cfg.Logger, handler)
	handler = middleware.RequestID(handler)
	handler = middleware.RealIP(handler)
	handler = middleware.Recover(cfg.Logger, handler)
	return handler
}
