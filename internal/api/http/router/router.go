// Package router wires the account handler and middleware into a gin engine.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/wingit-app/wingit-server/internal/api/http/handler"
	"github.com/wingit-app/wingit-server/internal/api/http/middleware"
	"github.com/wingit-app/wingit-server/internal/logger"
)

// Router configures the HTTP surface: one path, three verbs, everything
// else dispatched on event_type inside the handler.
type Router struct {
	accountService handler.AccountService
	logger         *logger.Logger
}

// New creates a new Router instance.
func New(
	accountService handler.AccountService,
	logger *logger.Logger,
) *Router {
	return &Router{
		accountService: accountService,
		logger:         logger,
	}
}

// Register builds the gin engine with logging, recovery and the account
// endpoint mounted on all supported verbs.
func (r *Router) Register() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	logging := middleware.NewLogging(r.logger)
	accounts := handler.NewAccounts(r.accountService, r.logger)

	engine := gin.New()
	engine.Use(gin.Recovery(), logging.Handle)

	engine.HandleMethodNotAllowed = true
	engine.NoMethod(accounts.MethodNotAllowed)

	engine.GET("/", accounts.Handle)
	engine.POST("/", accounts.Handle)
	engine.DELETE("/", accounts.Handle)

	return engine
}
