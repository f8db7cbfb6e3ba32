package commands

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/alfredw/shadcn-ui-mcp-server-sub001/internal/logger"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/internal/telemetry"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/audit"
)

var (
	serveAddr        string
	serveTracing     bool
	serveTracePretty bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Wire the engine and expose /status, /stats, /healthz and /metrics over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		shutdownTracing, err := telemetry.Init(cmd.Context(), telemetry.Config{
			Enabled:        serveTracing,
			ServiceName:    "hybridcached",
			ServiceVersion: "dev",
			SampleRate:     1.0,
			PrettyPrint:    serveTracePretty,
		})
		if err != nil {
			return err
		}
		defer shutdownTracing(context.Background())

		w, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		defer w.engine.Dispose(context.Background())

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.RealIP)
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/healthz", func(rw http.ResponseWriter, req *http.Request) {
			rw.WriteHeader(http.StatusOK)
			_, _ = rw.Write([]byte("ok"))
		})

		r.Get("/status", func(rw http.ResponseWriter, req *http.Request) {
			writeJSON(rw, map[string]any{
				"storage_type": string(cfg.Storage.Type),
				"strategy":     string(cfg.Cache.Strategy),
				"offline_mode": cfg.Features.OfflineMode,
				"circuits":     w.engine.CircuitStatus(),
				"issues":       w.engine.Notifications(time.Hour, time.Now()),
			})
		})

		r.Get("/stats", func(rw http.ResponseWriter, req *http.Request) {
			writeJSON(rw, w.engine.Stats(req.Context()))
		})

		r.Handle("/metrics", promhttp.HandlerFor(w.promReg, promhttp.HandlerOpts{}))

		if w.audit != nil {
			r.Get("/history", func(rw http.ResponseWriter, req *http.Request) {
				since := time.Now().Add(-24 * time.Hour)
				records, err := w.audit.Since(req.Context(), since)
				if err != nil {
					http.Error(rw, err.Error(), http.StatusInternalServerError)
					return
				}
				writeJSON(rw, records)
			})

			if cfg.Monitoring.RetentionDays > 0 {
				go pruneAuditPeriodically(cmd.Context(), w.audit, time.Duration(cfg.Monitoring.RetentionDays)*24*time.Hour)
			}
		}

		logger.Info("hybridcached admin server listening", "addr", serveAddr)
		return http.ListenAndServe(serveAddr, r)
	},
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// pruneAuditPeriodically deletes audit rows older than retention once a day
// until ctx is cancelled.
func pruneAuditPeriodically(ctx context.Context, store *audit.Store, retention time.Duration) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Prune(ctx, time.Now().Add(-retention)); err != nil {
				logger.Warn("audit log prune failed", "error", err)
			}
		}
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8089", "Address to listen on")
	serveCmd.Flags().BoolVar(&serveTracing, "tracing", false, "Emit OpenTelemetry traces for engine operations to stdout")
	serveCmd.Flags().BoolVar(&serveTracePretty, "trace-pretty", false, "Pretty-print emitted traces (has no effect unless --tracing is set)")
	rootCmd.AddCommand(serveCmd)
}
