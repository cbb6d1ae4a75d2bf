package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with sane defaults. Webhook ingestion is all
// in-memory decode plus one store mutation, so short write timeouts are safe.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
