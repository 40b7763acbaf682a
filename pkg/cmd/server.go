package ddns

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/larivierec/cfddns/pkg/logging"
	"github.com/larivierec/cfddns/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HealthHandler struct{}

func (handle *HealthHandler) alive(w http.ResponseWriter, r *http.Request) {
	metrics.IncrementReqs(r)
	w.WriteHeader(http.StatusOK)
}

func (handle *HealthHandler) ready(w http.ResponseWriter, r *http.Request) {
	metrics.IncrementReqs(r)
	w.WriteHeader(http.StatusOK)
}

// NewHealthRouter serves liveness, readiness and prometheus metrics.
func NewHealthRouter() http.Handler {
	health := new(HealthHandler)
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", health.ready).Methods(http.MethodGet)
	router.HandleFunc("/health/alive", health.alive).Methods(http.MethodGet)
	return router
}

// startHealthServer listens on addr until ctx is done. Listen failures are
// logged and never stop the reconciliation loop.
func startHealthServer(ctx context.Context, addr string, logger *logging.Logger) {
	metrics.InitMetrics()
	healthServer := &http.Server{
		Addr:              addr,
		Handler:           NewHealthRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("listen health server: %s", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("health server unable to shutdown: %v", err)
			return
		}
		logger.Info("health server stopped gracefully")
	}()

	logger.Infof("health server listening on %s", addr)
}
