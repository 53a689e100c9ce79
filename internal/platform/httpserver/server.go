package httpserver

import (
	"net/http"
	"time"
)

const (
	minWriteTimeout = 30 * time.Second
	writeSlack      = 5 * time.Second
)

// New builds the API server. The write timeout trails requestTimeout so a
// slow handler is answered with the router's 503 rather than a cut connection.
func New(addr string, handler http.Handler, requestTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      max(minWriteTimeout, requestTimeout+writeSlack),
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}
}
