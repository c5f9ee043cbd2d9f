package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	connectcors "connectrpc.com/cors"
	"github.com/rs/cors"
)

type corsLogger struct {
	logger *slog.Logger
}

func (c *corsLogger) Printf(format string, args ...interface{}) {
	c.logger.Debug(fmt.Sprintf("CORS: %s", fmt.Sprintf(format, args...)))
}

// WithCORS adds CORS headers for origins. No origins means any origin.
func WithCORS(logger *slog.Logger, origins ...string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	methods := append(connectcors.AllowedMethods(), http.MethodPatch, http.MethodDelete, http.MethodPut)
	return func(h http.Handler) http.Handler {
		middleware := cors.New(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: methods,
			AllowedHeaders: []string{"*"},
			ExposedHeaders: []string{RequestIDHeader},
			Logger:         &corsLogger{logger: logger},
		})
		return middleware.Handler(h)
	}
}
