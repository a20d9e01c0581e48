package http

import (
	"net/http"
	"time"

	"persona-quiz-service/internal/app"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter mounts the REST API and the websocket play endpoint.
func NewRouter(service *app.QuizService, opts RouterOptions) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	api := NewAPI(service)
	r.Group(func(gr chi.Router) {
		// Websocket connections are long-lived and stay outside the timeout.
		gr.Use(middleware.Timeout(timeout))
		api.Mount(gr)
	})

	ws := NewWSHandler(service)
	r.Get("/ws/play", ws.ServeWS)
	return r
}
