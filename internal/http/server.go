package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"gastos/internal/cache"
	applog "gastos/internal/log"
	"gastos/internal/middleware/ratelimit"
	"gastos/internal/middleware/security"
	"gastos/internal/middleware/trace"
	"gastos/internal/services"
	"gastos/internal/sheets"
	appweb "gastos/web"
)

const (
	uploadCacheName      = "uploads"
	cacheCleanupInterval = time.Minute
)

// Options configures the dashboard server.
type Options struct {
	Addr string

	// Reader is the configured source. It is nil when Uploads is set.
	Reader  sheets.TableReader
	Uploads bool

	MaxUploadBytes int64
	UploadTTL      time.Duration
	UploadCapacity int

	Logger *applog.Logger
}

type Server struct {
	http.Server
	templates  *template.Template
	logger     *applog.Logger
	structured *applog.StructuredLogger
	dashboard  *services.DashboardService

	reader         sheets.TableReader
	uploadsEnabled bool
	maxUploadBytes int64
	uploads        *uploadStore
	caches         *cache.Manager

	detector      *security.Detector
	tracer        *trace.Middleware
	rateLimiter   *ratelimit.Limiter
	uploadLimiter *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.UploadTTL <= 0 {
		opts.UploadTTL = 30 * time.Minute
	}
	if opts.UploadCapacity <= 0 {
		opts.UploadCapacity = 64
	}

	httpLogger := logger.WithComponent(applog.ComponentHTTP)
	s := &Server{
		logger:         httpLogger,
		structured:     applog.NewStructuredLogger(httpLogger),
		dashboard:      services.NewDashboardService(logger),
		reader:         opts.Reader,
		uploadsEnabled: opts.Uploads,
		maxUploadBytes: opts.MaxUploadBytes,
		uploads:        newUploadStore(opts.UploadCapacity, opts.UploadTTL),
		caches:         cache.NewManager(),
		detector:       security.NewDetector(),
		rateLimiter:    ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		uploadLimiter:  ratelimit.NewLimiter(ratelimit.UploadConfig()),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	uploadLogger := logger.WithComponent(applog.ComponentUpload)
	s.uploads.entries.OnEvict(func(id string, u Upload) {
		uploadLogger.Debug("Upload evicted", applog.FieldUploadID, id, applog.FieldUploadBytes, len(u.Data))
	})
	s.caches.Register(uploadCacheName, s.uploads.entries)
	s.caches.StartCleanup(cacheCleanupInterval)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err.Error())
	}
	s.templates = t

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err.Error())
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/metrics", security.NoStoreMiddleware(http.HandlerFunc(s.handleMetrics)))

	limited := s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)
	page := func(h http.HandlerFunc) http.Handler {
		return limited(security.NoStoreMiddleware(h))
	}

	mux.Handle("/", page(s.handleIndex))
	mux.Handle("/ui/month-overview", page(s.handleMonthOverview))
	mux.Handle("/upload", s.uploadLimiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)(
		security.NoStoreMiddleware(http.HandlerFunc(s.handleUpload))))
	mux.Handle("/api/months", page(s.handleAPIMonths))
	mux.Handle("/api/overview", page(s.handleAPIOverview))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = headers.Middleware(handler)
	handler = s.detector.Middleware(logger)(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.Stop()
		s.uploadLimiter.Stop()

		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Muitas requisições. Tente novamente em instantes.").Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().BodyString("ok").Write(w)
}

type limiterMetrics struct {
	Hits    int64 `json:"hits"`
	Clients int64 `json:"clients"`
}

type metricsResponse struct {
	Requests struct {
		Total          int64 `json:"total"`
		Failed         int64 `json:"failed"`
		LastResponseUs int64 `json:"last_response_us"`
	} `json:"requests"`
	RateLimit struct {
		Pages   limiterMetrics `json:"pages"`
		Uploads limiterMetrics `json:"uploads"`
	} `json:"rate_limit"`
	Security struct {
		Suspicious int64 `json:"suspicious"`
		Blocked    int64 `json:"blocked"`
	} `json:"security"`
	Uploads struct {
		Enabled bool `json:"enabled"`
		Stored  int  `json:"stored"`
	} `json:"uploads"`
}

// handleMetrics reports the in-process counters of the middleware chain and
// the upload store as JSON.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	var m metricsResponse
	tm := s.tracer.GetMetrics()
	m.Requests.Total = tm.TotalRequests
	m.Requests.Failed = tm.FailedRequests
	m.Requests.LastResponseUs = tm.LastResponseTimeUs

	pages, uploads := s.rateLimiter.GetMetrics(), s.uploadLimiter.GetMetrics()
	m.RateLimit.Pages = limiterMetrics{Hits: pages.TotalHits, Clients: pages.ClientCount}
	m.RateLimit.Uploads = limiterMetrics{Hits: uploads.TotalHits, Clients: uploads.ClientCount}

	dm := s.detector.GetMetrics()
	m.Security.Suspicious = dm.SuspiciousRequests
	m.Security.Blocked = dm.BlockedRequests

	m.Uploads.Enabled = s.uploadsEnabled
	m.Uploads.Stored = s.uploads.Len()

	NewHTMXResponse().BodyJSON(m).Write(w)
}

// handleReady reports ready once templates are loaded and a source is
// configured. It does not read the source: that would turn health checks into fetches.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil || (s.reader == nil && !s.uploadsEnabled) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
