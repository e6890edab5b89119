package routes

import (
	"net/http"

	"buildtrack/internal/handlers"
	"buildtrack/internal/middlewares"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Wizard      *handlers.WizardHandler
	Directory   *handlers.DirectoryHandler
	Payments    *handlers.PaymentHandler
	Suggestions *handlers.SuggestionHandler
}

func RegisterRoutes(router *gin.Engine, h Handlers) {
	api := router.Group("/api/v1")
	api.Use(middlewares.ForwardAuthorization)

	NewWizardRoutes(h.Wizard).RegisterRoutes(api)
	NewDirectoryRoutes(h.Directory).RegisterRoutes(api)
	NewPaymentRoutes(h.Payments).RegisterRoutes(api)
	NewSuggestionRoutes(h.Suggestions).RegisterRoutes(api)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
