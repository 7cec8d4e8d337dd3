package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"genrecast/internal/faults"
	"genrecast/internal/logging"
	"genrecast/internal/predict"
	"genrecast/internal/track"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"percent":   func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
	"float":     func(v int) float64 { return float64(v) },
	"fieldArgs": newFormField,
}).ParseFS(templateFS, "templates/*.html"))

// genericFailure is the only failure text users see; details go to the log.
const genericFailure = "Prediction failed. Please try again later."

const maxBodyBytes = 64 << 10

// Predictor scores a single track.
type Predictor interface {
	Predict(ctx context.Context, features track.Features) (predict.Prediction, error)
}

// Server is the HTTP front end.
type Server struct {
	bind      string
	logger    *slog.Logger
	predictor Predictor
	metrics   *Metrics
	server    *http.Server
}

// NewServer wires the routes for bind around predictor.
func NewServer(bind string, predictor Predictor, logger *slog.Logger) *Server {
	s := &Server{
		bind:      strings.TrimSpace(bind),
		logger:    logging.NewComponentLogger(logger, "web"),
		predictor: predictor,
		metrics:   NewMetrics(),
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.handleIndex)
	r.Post("/predict", s.handleFormPredict)
	r.Get("/dashboard", s.handleDashboard)
	r.Post("/api/predict", s.handleAPIPredict)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	return r
}

// Serve listens on the configured address until ctx is canceled, then shuts
// down gracefully. ready, when non-nil, receives the bound address.
func (s *Server) Serve(ctx context.Context, ready func(addr string)) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("web listen: %w", err)
	}
	addr := listener.Addr().String()
	s.logger.Info("web server listening",
		logging.String("address", addr),
		logging.String(logging.FieldEventType, "server_start"),
	)
	if ready != nil {
		ready(addr)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.server.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web shutdown: %w", err)
	}
	s.logger.Info("web server stopped", logging.String(logging.FieldEventType, "server_stop"))
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Duration("duration", time.Since(start)),
			logging.String(logging.FieldRequestID, chimiddleware.GetReqID(r.Context())),
		)
	})
}

type formPage struct {
	Values  map[string]string
	Errors  map[string]string
	Result  *predict.Prediction
	Failure string
}

type formField struct {
	Name  string
	Label string
	Value string
	Error string
}

func newFormField(name, label string, page formPage) formField {
	return formField{Name: name, Label: label, Value: page.Values[name], Error: page.Errors[name]}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "index.html", formPage{Values: map[string]string{}})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "dashboard.html", dashboardPage{Fields: sliderFields()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFormPredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		s.metrics.observe("form", outcomeInvalid, time.Since(start))
		s.render(w, r, http.StatusBadRequest, "index.html", formPage{
			Values: map[string]string{},
			Errors: map[string]string{"form": "unable to read form submission"},
		})
		return
	}
	page := formPage{Values: map[string]string{}}
	for key := range r.PostForm {
		page.Values[key] = r.PostForm.Get(key)
	}

	input, problems := parseForm(r.PostForm)
	if fieldErrs := input.Validate(); len(fieldErrs) > 0 || len(problems) > 0 {
		for k, v := range fieldErrs {
			if _, exists := problems[k]; !exists {
				problems[k] = v
			}
		}
		s.metrics.observe("form", outcomeInvalid, time.Since(start))
		page.Errors = problems
		s.render(w, r, http.StatusBadRequest, "index.html", page)
		return
	}

	prediction, err := s.predictor.Predict(r.Context(), input.Features())
	if err != nil {
		s.logFailure(r, "form", err)
		s.metrics.observe("form", outcomeError, time.Since(start))
		page.Failure = genericFailure
		s.render(w, r, statusFor(err), "index.html", page)
		return
	}
	s.metrics.observe("form", outcomeSuccess, time.Since(start))
	page.Result = &prediction
	s.render(w, r, http.StatusOK, "index.html", page)
}

type apiError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (s *Server) handleAPIPredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var input TrackInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		s.metrics.observe("api", outcomeInvalid, time.Since(start))
		writeJSON(w, http.StatusBadRequest, apiError{Error: "request body must be a JSON object of track features"})
		return
	}
	if fieldErrs := input.Validate(); len(fieldErrs) > 0 {
		s.metrics.observe("api", outcomeInvalid, time.Since(start))
		writeJSON(w, http.StatusBadRequest, apiError{Error: "validation failed", Fields: fieldErrs})
		return
	}

	prediction, err := s.predictor.Predict(r.Context(), input.Features())
	if err != nil {
		s.logFailure(r, "api", err)
		s.metrics.observe("api", outcomeError, time.Since(start))
		writeJSON(w, statusFor(err), apiError{Error: genericFailure})
		return
	}
	s.metrics.observe("api", outcomeSuccess, time.Since(start))
	writeJSON(w, http.StatusOK, prediction)
}

func (s *Server) logFailure(r *http.Request, front string, err error) {
	attrs := []logging.Attr{
		logging.String("front", front),
		logging.String(logging.FieldErrorKind, faults.KindName(err)),
		logging.String(logging.FieldRequestID, chimiddleware.GetReqID(r.Context())),
		logging.Error(err),
	}
	if details, ok := faults.Details(err); ok {
		attrs = append(attrs, logging.String(logging.FieldErrorLocation, details.Location))
	}
	s.logger.Error("prediction failed", logging.Args(attrs...)...)
}

// statusFor maps a predictor error to an HTTP status. Missing artifacts mean
// the service is not ready yet rather than broken.
func statusFor(err error) int {
	if errors.Is(err, faults.ErrArtifactMissing) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf strings.Builder
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("render template failed",
			logging.String("template", name),
			logging.String(logging.FieldRequestID, chimiddleware.GetReqID(r.Context())),
			logging.Error(err),
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
