package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/crm-tasks/internal/config"
	"github.com/sells-group/crm-tasks/internal/engine"
	"github.com/sells-group/crm-tasks/internal/model"
	"github.com/sells-group/crm-tasks/internal/report"
	"github.com/sells-group/crm-tasks/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server for CRM lead events",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		svc := engine.New(st, engine.WithConfig(cfg.Engine))
		handler := newRouter(svc, report.NewCollector(st), st, cfg.Server)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: handler,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the HTTP surface: the event hook, per-lead task and
// analytics reads, and the rolling summary.
func newRouter(svc *engine.Service, rep *report.Collector, st store.Store, serverCfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	if serverCfg.RateLimitRPS > 0 {
		r.Use(rateLimit(rate.Limit(serverCfg.RateLimitRPS), serverCfg.RateBurst))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/hooks/lead-event", func(w http.ResponseWriter, r *http.Request) {
		var event model.LeadEvent
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if event.EventType == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "event_type is required"})
			return
		}
		if event.LeadID == 0 && event.Lead.ID == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lead_id is required"})
			return
		}
		if event.EventType.IsQuotationEvent() && event.Quotation == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quotation_data is required for quotation events"})
			return
		}

		result := svc.ProcessLeadEvent(r.Context(), event)
		status := http.StatusOK
		if !result.Success {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, result)
	})

	r.Get("/leads/{leadID}/tasks", func(w http.ResponseWriter, r *http.Request) {
		leadID, err := strconv.Atoi(chi.URLParam(r, "leadID"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid lead id"})
			return
		}
		tasks, err := st.ListTasksByLead(r.Context(), leadID)
		if err != nil {
			zap.L().Error("list tasks failed", zap.Int("lead_id", leadID), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		if tasks == nil {
			tasks = []model.GeneratedTask{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"lead_id": leadID, "tasks": tasks})
	})

	r.Get("/leads/{leadID}/analytics", func(w http.ResponseWriter, r *http.Request) {
		leadID, err := strconv.Atoi(chi.URLParam(r, "leadID"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid lead id"})
			return
		}
		analytics, err := rep.LeadAnalytics(r.Context(), leadID)
		if err != nil {
			zap.L().Error("lead analytics failed", zap.Int("lead_id", leadID), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		writeJSON(w, http.StatusOK, analytics)
	})

	r.Get("/summary", func(w http.ResponseWriter, r *http.Request) {
		hours := 24
		if v := r.URL.Query().Get("hours"); v != "" {
			h, err := strconv.Atoi(v)
			if err != nil || h <= 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid hours"})
				return
			}
			hours = h
		}
		summary, err := rep.Collect(r.Context(), hours)
		if err != nil {
			zap.L().Error("summary failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		writeJSON(w, http.StatusOK, summary)
	})

	return r
}

func rateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
