package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel"

	"github.com/rkotari/loyalty-import/pkg/middleware"
	"github.com/rkotari/loyalty-import/pkg/observability"
)

// SetupRouter configures all routes and returns the HTTP handler
func SetupRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	registerImportRoutes(mux, deps)
	registerUtilityRoutes(mux, deps)

	tracer := otel.GetTracerProvider().Tracer("loyalty-import/api")

	var h http.Handler = mux
	h = observability.MetricsMiddleware(h)
	h = middleware.Logging(deps.Logger)(h)
	h = middleware.Tracing(tracer)(h)
	h = middleware.Recovery(deps.Logger)(h)
	h = middleware.RequestID(h)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{
			"Content-Disposition",
			"X-Import-Total", "X-Import-Valid", "X-Import-Rejected",
			"X-Import-Duplicates", "X-Import-Has-Contact-Data",
		},
		MaxAge: 7200,
	})

	return corsHandler.Handler(h)
}

// registerImportRoutes registers the import endpoints
func registerImportRoutes(mux *http.ServeMux, deps *Dependencies) {
	mux.HandleFunc("POST /v1/imports/transactions", deps.IngestHandler.ImportTransactions)
	mux.HandleFunc("POST /v1/imports/contacts", deps.IngestHandler.ImportContacts)
	mux.HandleFunc("POST /v1/imports/analyze", deps.IngestHandler.AnalyzeFile)
	mux.HandleFunc("GET /v1/imports/history", deps.IngestHandler.History)

	deps.Logger.Info("import routes configured")
}

// registerUtilityRoutes registers health check, metrics, and readiness routes
func registerUtilityRoutes(mux *http.ServeMux, deps *Dependencies) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		if err := deps.DB.Health(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, writeErr := w.Write([]byte("database unhealthy")); writeErr != nil {
				deps.Logger.Error("failed to write health response", "error", writeErr)
			}
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			deps.Logger.Error("failed to write health response", "error", err)
		}
	})
	deps.Logger.Info("registered health check", "path", "/health")

	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ready")); err != nil {
			deps.Logger.Error("failed to write readiness response", "error", err)
		}
	})
	deps.Logger.Info("registered readiness check", "path", "/ready")

	if deps.Config.Observability.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
		deps.Logger.Info("registered metrics endpoint", "path", "/metrics")
	}
}
