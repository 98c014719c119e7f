package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/middleware"
)

// probeTimeout bounds every extra handler, which typically pings backends.
const probeTimeout = 3 * time.Second

// StartServer serves /metrics plus any extra handlers on port. Extra handlers
// run under a deadline. The returned function shuts the server down.
func (m *Metrics) StartServer(port int, extra map[string]http.HandlerFunc) (shutdown func(context.Context) error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	for pattern, h := range extra {
		mux.Handle(pattern, middleware.Timeout(probeTimeout)(h))
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><h1>N-gram Classifier Metrics</h1><p><a href="/metrics">/metrics</a></p></body></html>`)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()

	return server.Shutdown
}
