// Package httpapi serves plugin routes over HTTP.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hupe1980/agentruntime/core"
	"github.com/hupe1980/agentruntime/logging"
)

// APIKeyHeader carries the key checked for non-public routes.
const APIKeyHeader = "X-API-Key"

// Options configures the router.
type Options struct {
	// APIKey, when set, is required on every non-public plugin route.
	APIKey string
	Logger logging.Logger
}

// NewRouter mounts each route at /{plugin}{path} for its method. Handlers
// receive rt. A GET /health endpoint reports the agent id.
func NewRouter(rt core.Runtime, routes []core.Route, optFns ...func(o *Options)) http.Handler {
	opts := Options{}

	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.OrNoop(opts.Logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "agentId": rt.AgentID()})
	})

	for _, route := range routes {
		if route.Handler == nil {
			logger.Warn("httpapi.route.skipped", "plugin", route.PluginName, "path", route.Path, "reason", "no handler")
			continue
		}

		pattern := Pattern(route)
		method := strings.ToUpper(route.Type)
		if method == "" {
			method = http.MethodGet
		}

		var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			route.Handler(w, req, rt)
		})
		if !route.Public && opts.APIKey != "" {
			h = requireKey(opts.APIKey, h)
		}

		r.Method(method, pattern, h)

		logger.Debug("httpapi.route.mounted", "method", method, "pattern", pattern, "public", route.Public)
	}

	return r
}

// Pattern returns the mount path of a route: /{plugin}{path}.
func Pattern(route core.Route) string {
	path := route.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	if route.PluginName == "" {
		return path
	}

	return "/" + route.PluginName + path
}

func requireKey(key string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(APIKeyHeader) != key {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Debug("httpapi.request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimw.GetReqID(r.Context()),
			)
		})
	}
}
