package router

import (
	"CommentUI/internal/router/handlers"
	"CommentUI/internal/router/middleware"
	"CommentUI/internal/web"
	"github.com/wb-go/wbf/ginext"
	"go.uber.org/zap"
	"net/http"
)

// Options are the parts of the HTTP surface that depend on configuration.
type Options struct {
	SessionMaxAge int
	CookieSecure  bool
	// APIProxy, when set, is mounted under /api.
	APIProxy http.Handler
}

type Router struct {
	rout    *ginext.Engine
	handler *handlers.CommentHandler
	opts    Options
	log     *zap.Logger
}

func NewRouter(mode string, handler *handlers.CommentHandler, opts Options, log *zap.Logger) *Router {
	router := Router{
		rout:    ginext.New(mode),
		handler: handler,
		opts:    opts,
		log:     log.Named("router"),
	}
	router.setupRouter()
	return &router
}

func (r *Router) setupRouter() {
	r.rout.Use(middleware.Recovery(r.log))
	r.rout.Use(middleware.LoggingMiddleware(r.log))
	r.rout.GET("/health", r.handler.Health)

	pages := r.rout.Group("/")
	pages.Use(middleware.SessionMiddleware(r.opts.SessionMaxAge, r.opts.CookieSecure))
	pages.GET("/", r.handler.Home)
	pages.POST("/comments", r.handler.CreateComment)
	pages.POST("/comments/retry", r.handler.Retry)
	pages.POST("/comments/:id/edit", r.handler.EditComment)
	pages.POST("/comments/:id/cancel", r.handler.CancelEdit)
	pages.PUT("/comments/:id", r.handler.UpdateComment)
	pages.GET("/comments/:id/delete", r.handler.ConfirmDelete)
	pages.DELETE("/comments/:id", r.handler.DeleteComment)
	pages.GET("/comments/:id/reply", r.handler.ReplyForm)
	pages.POST("/comments/:id/replies", r.handler.CreateReply)

	r.rout.NoRoute(r.handler.NotFound)
}

func (r *Router) GetEngine() *ginext.Engine {
	return r.rout
}

// Handler is the full HTTP surface: static assets and the optional API proxy next to the pages,
// all behind the security headers. Only the pages honour the form method override.
func (r *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))
	if r.opts.APIProxy != nil {
		mux.Handle("/api/", r.opts.APIProxy)
	}
	mux.Handle("/", middleware.MethodOverrideMiddleware(r.rout))
	return middleware.Chain(mux, middleware.SecureHeadersMiddleware)
}
