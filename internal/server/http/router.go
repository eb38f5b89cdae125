package http

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	authapp "taskhub/internal/auth/app"
	"taskhub/internal/logging"
	"taskhub/internal/observability"
	taskapp "taskhub/internal/task/app"
)

// RouterConfig bundles the collaborators the router wires together.
type RouterConfig struct {
	AuthService    *authapp.Service
	TaskService    *taskapp.Service
	StreamHub      *StreamHub
	Metrics        *observability.Metrics
	Environment    string
	AllowedOrigins []string
	SecureCookies  bool
}

// NewRouter assembles the HTTP handler tree with its middleware stack.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := logging.NewComponentLogger("Router")

	authHandler := NewAuthHandler(cfg.AuthService, cfg.SecureCookies)
	taskHandler := NewTaskHandler(cfg.TaskService)
	authRequired := AuthMiddleware(cfg.AuthService)

	mux := http.NewServeMux()

	mux.Handle("/api/auth/register", routeHandler("/api/auth/register", http.HandlerFunc(authHandler.HandleRegister)))
	mux.Handle("/api/auth/login", routeHandler("/api/auth/login", http.HandlerFunc(authHandler.HandleLogin)))
	mux.Handle("/api/auth/refresh", routeHandler("/api/auth/refresh", http.HandlerFunc(authHandler.HandleRefresh)))
	mux.Handle("/api/auth/logout", routeHandler("/api/auth/logout", http.HandlerFunc(authHandler.HandleLogout)))
	mux.Handle("/api/auth/me", routeHandler("/api/auth/me", authRequired(http.HandlerFunc(authHandler.HandleMe))))
	mux.Handle("/api/auth/password", routeHandler("/api/auth/password", authRequired(http.HandlerFunc(authHandler.HandlePassword))))

	mux.Handle("/api/tasks", routeHandler("/api/tasks", authRequired(http.HandlerFunc(taskHandler.HandleCollection))))
	mux.Handle("/api/tasks/", routeHandler("/api/tasks/{id}", authRequired(http.HandlerFunc(taskHandler.HandleItem))))

	if cfg.StreamHub != nil {
		mux.Handle("/api/notifications/stream", routeHandler("/api/notifications/stream", authRequired(http.HandlerFunc(cfg.StreamHub.HandleStream))))
	}

	mux.Handle("/health", routeHandler("/health", http.HandlerFunc(handleHealth)))
	mux.Handle("/metrics", routeHandler("/metrics", promhttp.Handler()))

	var handler http.Handler = mux
	handler = MetricsMiddleware(cfg.Metrics)(handler)
	handler = LoggingMiddleware(logger)(handler)
	handler = CORSMiddleware(cfg.Environment, cfg.AllowedOrigins)(handler)
	return handler
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}
