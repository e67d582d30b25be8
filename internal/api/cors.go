package api

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// CORSConfig is the cross-origin policy for browser dashboards that watch a
// session and fire triggers.
type CORSConfig struct {
	// AllowOrigins lists the origins that may call the API. "*" allows any
	// origin but then browsers will not send basic auth credentials.
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       int
}

// DefaultCORSConfig returns the policy for origins. An empty list allows any origin.
func DefaultCORSConfig(origins ...string) CORSConfig {
	var allow []string
	for _, o := range origins {
		if o = strings.TrimSuffix(strings.TrimSpace(o), "/"); o != "" {
			allow = append(allow, o)
		}
	}
	if len(allow) == 0 {
		allow = []string{"*"}
	}
	return CORSConfig{
		AllowOrigins: allow,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", "Authorization", "Accept", "Origin", "Last-Event-ID"},
		MaxAge:       86400,
	}
}

// headers returns the response headers for a request from origin. A listed
// origin is echoed back with credentials allowed so EventSource clients can
// authenticate; an unlisted one gets only Vary.
func (c CORSConfig) headers(origin string) [][2]string {
	var allowed string
	switch {
	case slices.Contains(c.AllowOrigins, "*"):
		allowed = "*"
	case origin != "" && slices.ContainsFunc(c.AllowOrigins, func(o string) bool { return strings.EqualFold(o, origin) }):
		allowed = origin
	}

	var h [][2]string
	if allowed != "*" {
		h = append(h, [2]string{"Vary", "Origin"})
	}
	if allowed == "" {
		return h
	}
	h = append(h,
		[2]string{"Access-Control-Allow-Origin", allowed},
		[2]string{"Access-Control-Allow-Methods", strings.Join(c.AllowMethods, ", ")},
		[2]string{"Access-Control-Allow-Headers", strings.Join(c.AllowHeaders, ", ")},
		[2]string{"Access-Control-Max-Age", strconv.Itoa(c.MaxAge)},
	)
	if allowed != "*" {
		h = append(h, [2]string{"Access-Control-Allow-Credentials", "true"})
	}
	return h
}

// NewCORSMiddleware adds the policy headers to every operation response and
// answers OPTIONS with 204.
func NewCORSMiddleware(config CORSConfig) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		for _, h := range config.headers(ctx.Header("Origin")) {
			ctx.SetHeader(h[0], h[1])
		}
		if ctx.Method() == http.MethodOptions {
			ctx.SetStatus(http.StatusNoContent)
			return
		}
		next(ctx)
	}
}

// AddCORSHandler answers preflights for every path on mux. Huma only runs
// middleware for registered operations, and none of them accept OPTIONS.
func AddCORSHandler(mux *http.ServeMux, config CORSConfig) {
	mux.HandleFunc("OPTIONS /", func(w http.ResponseWriter, r *http.Request) {
		for _, h := range config.headers(r.Header.Get("Origin")) {
			w.Header().Set(h[0], h[1])
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
