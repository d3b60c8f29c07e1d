package router

import (
	"fmt"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// NewAPIProxy forwards /api requests to the comments service unchanged, rewriting Host to the
// target's so virtual-hosted backends accept them.
func NewAPIProxy(baseURL string, log *zap.Logger) (http.Handler, error) {
	target, err := url.Parse(baseURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("failed to parse api base url %q", baseURL)
	}
	log = log.Named("proxy")

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Error("Failed to proxy request", zap.String("path", r.URL.Path), zap.Error(err))
			w.WriteHeader(http.StatusBadGateway)
		},
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	log.Info("Proxying /api", zap.String("target", target.String()))
	return c.Handler(proxy), nil
}
