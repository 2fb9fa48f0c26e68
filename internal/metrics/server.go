package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/pkg/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewServer - отдельный HTTP-сервер с /metrics для процесса бота
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}

// Serve держит сервер метрик до отмены ctx, пустой addr отключает его
func Serve(ctx context.Context, addr string) {
	if addr == "" {
		return
	}
	srv := NewServer(addr)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	utils.Log.Infof("Metrics listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		utils.Log.Warnf("metrics server error: %v", err)
	}
}
