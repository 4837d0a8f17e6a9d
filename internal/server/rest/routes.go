package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Handler builds the complete HTTP handler tree.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.metricsMiddleware)

	r.HandleFunc("/", s.apiRoot).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix(s.config.APIPrefix()).Subrouter()

	authLimiter := newRateLimiter(s.config.AuthRateLimit, s.config.RateLimitWindow, s.clock.Now)
	authRoutes := api.NewRoute().Subrouter()
	authRoutes.Use(authLimiter.middleware)
	authRoutes.HandleFunc("/register", s.register).Methods(http.MethodPost)
	authRoutes.HandleFunc("/login", s.login).Methods(http.MethodPost)
	authRoutes.HandleFunc("/refresh", s.refresh).Methods(http.MethodPost)
	authRoutes.HandleFunc("/logout", s.logout).Methods(http.MethodPost)

	taskLimiter := newRateLimiter(s.config.TaskRateLimit, s.config.RateLimitWindow, s.clock.Now)
	taskRoutes := api.PathPrefix("/task").Subrouter()
	taskRoutes.Use(taskLimiter.middleware, s.authenticate)
	taskRoutes.HandleFunc("", s.listTasks).Methods(http.MethodGet)
	taskRoutes.HandleFunc("", s.createTask).Methods(http.MethodPost)
	taskRoutes.HandleFunc("/{id}", s.getTask).Methods(http.MethodGet)
	taskRoutes.HandleFunc("/{id}", s.updateTask).Methods(http.MethodPut)
	taskRoutes.HandleFunc("/{id}", s.deleteTask).Methods(http.MethodDelete)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{s.config.CORSOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	})

	return s.recoverMiddleware(s.requestLogMiddleware(c.Handler(r)))
}

func (s *Server) apiRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("API is running"))
}
