package handler

import (
	"net/http"
	"time"

	"github.com/IgorSimim/zoopia-go/internal/domain"
	"github.com/IgorSimim/zoopia-go/internal/infra/observability"
	"github.com/IgorSimim/zoopia-go/internal/port"
	"github.com/IgorSimim/zoopia-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// The conversational endpoints under /v1/chat drive the terminal UI;
// the /v1/disputes endpoints expose the same dispute lifecycle as a
// plain REST surface.
func NewRouter(
	conv *service.ConversationService,
	disputes port.DisputeManager,
	lookup port.InvoiceSearcher,
	store port.DisputeStore,
	tokens *service.SessionTokens,
	metrics *observability.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(SessionTokenMiddleware(tokens))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(store, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. 💬 Conversa
		// GET  /v1/chat/welcome
		// POST /v1/chat/command
		// POST /v1/chat/confirmation
		// POST /v1/chat/cpf
		// =============================================
		r.Get("/chat/welcome", welcomeHandler(conv, tokens, logger))
		r.Post("/chat/command", commandHandler(conv, tokens, logger))
		r.Post("/chat/confirmation", confirmationHandler(conv, tokens, logger))
		r.Post("/chat/cpf", cpfHandler(conv, tokens, logger))

		// =============================================
		// 2. 📩 Reclamações (REST)
		// =============================================
		r.Get("/disputes", listDisputesHandler(disputes, logger))
		r.Post("/disputes", createDisputeHandler(disputes, logger))
		r.Get("/disputes/{disputeId}", getDisputeHandler(disputes, logger))
		r.Put("/disputes/{disputeId}", editDisputeHandler(disputes, logger))
		r.Delete("/disputes/{disputeId}", deleteDisputeHandler(disputes, logger))

		// =============================================
		// 3. 📄 Boletos e empresas
		// =============================================
		r.Get("/invoices/search", invoiceSearchHandler(lookup, logger))
		r.Get("/companies", listCompaniesHandler(lookup, logger))

		// =============================================
		// 4. 📊 Métricas
		// GET /v1/metrics/classifier
		// =============================================
		r.Get("/metrics/classifier", classifierMetricsHandler(metrics, logger))
	})

	return r
}

// ============================================================
// Métricas & Health
// ============================================================

func healthzHandler(store port.DisputeStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "zoopia-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if store != nil {
			start := time.Now()
			_, err := store.LoadDisputes(ctx)
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "jsonstore", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func classifierMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := metrics.GetClassifierSnapshot()
		writeJSON(w, http.StatusOK, snapshot)
	}
}

// ============================================================
// Probes
// ============================================================

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
