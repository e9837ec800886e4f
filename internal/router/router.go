package router

import (
	"CaseComments/internal/router/handlers"
	"CaseComments/internal/router/middleware"
	"github.com/wb-go/wbf/ginext"
	"go.uber.org/zap"
	"net/http"
)

type Router struct {
	rout    *ginext.Engine
	handler *handlers.CommentHandler
	assist  *handlers.AssistHandler
	limiter *middleware.RateLimiter
	log     *zap.Logger
}

// NewRouter builds the engine. mode "release" runs gin in release mode and any
// other value runs it in debug mode. limiter may be nil to disable rate limiting.
func NewRouter(mode string, handler *handlers.CommentHandler, assist *handlers.AssistHandler, limiter *middleware.RateLimiter, log *zap.Logger) *Router {
	router := Router{
		rout:    ginext.New(mode),
		handler: handler,
		assist:  assist,
		limiter: limiter,
		log:     log.Named("router"),
	}
	router.setupRouter()
	return &router
}

func (r *Router) setupRouter() {
	r.rout.Use(middleware.RecoveryMiddleware(r.log))
	r.rout.Use(middleware.LoggingMiddleware(r.log))
	if r.limiter != nil {
		r.rout.Use(r.limiter.Middleware())
	}

	r.rout.GET("/healthz", func(c *ginext.Context) {
		c.JSON(http.StatusOK, ginext.H{"status": "ok"})
	})

	r.rout.GET("/api/comments/:caseId", r.handler.ListComments)
	r.rout.GET("/api/comments/:caseId/threads", r.handler.GetThreads)
	r.rout.POST("/api/comments", r.handler.CreateComment)
	r.rout.PUT("/api/comments/:id", r.handler.UpdateComment)
	r.rout.DELETE("/api/comments/:id", r.handler.DeleteComment)
	r.rout.GET("/api/search", r.handler.SearchComments)
	r.rout.POST("/api/openai", r.assist.Complete)
}

func (r *Router) GetEngine() *ginext.Engine {
	return r.rout
}
