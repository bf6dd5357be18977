// Package api serves the assessment wizard and scoring endpoints over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/flash-cli/internal/config"
	"github.com/sells-group/flash-cli/internal/predict"
	"github.com/sells-group/flash-cli/internal/store"
)

const maxBodyBytes = 1 << 20

// Server is the HTTP API.
type Server struct {
	cfg     config.ServerConfig
	router  *chi.Mux
	service *predict.Service
	store   store.Store
	now     func() time.Time
}

// NewServer builds the router for svc and st.
func NewServer(cfg config.ServerConfig, svc *predict.Service, st store.Store) *Server {
	s := &Server{
		cfg:     cfg,
		service: svc,
		store:   st,
		now:     func() time.Time { return time.Now().UTC() },
	}
	s.setupRouter()
	return s
}

// Router returns the configured router.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/assessments", func(r chi.Router) {
			r.Post("/validate", s.handleValidate)
			r.Post("/transform", s.handleTransform)
			r.Post("/predict", s.handlePredict)
		})

		r.Route("/drafts", func(r chi.Router) {
			r.Get("/", s.handleListDrafts)
			r.Post("/", s.handleCreateDraft)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDraft)
				r.Delete("/", s.handleDeleteDraft)
				r.Put("/pages/{page}", s.handleApplyPage)
				r.Post("/reset", s.handleResetDraft)
				r.Post("/submit", s.handleSubmitDraft)
				r.Get("/progress", s.handleDraftProgress)
			})
		})

		r.Route("/submissions", func(r chi.Router) {
			r.Get("/", s.handleListSubmissions)
			r.Get("/{id}", s.handleGetSubmission)
		})
	})

	s.router = r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			zap.L().Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
