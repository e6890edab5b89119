package routes

import (
	"buildtrack/internal/handlers"

	"github.com/gin-gonic/gin"
)

type DirectoryRoutes struct {
	handler *handlers.DirectoryHandler
}

func NewDirectoryRoutes(handler *handlers.DirectoryHandler) *DirectoryRoutes {
	return &DirectoryRoutes{handler: handler}
}

func (r *DirectoryRoutes) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/owners", r.handler.Owners)

	router.GET("/consultants", r.handler.Consultants)
	router.PATCH("/consultants", r.handler.UpdateConsultant)

	invoices := router.Group("/invoices")
	{
		invoices.GET("", r.handler.Invoices)
		invoices.DELETE("/:type/:project/:id", r.handler.DeleteInvoice)
		invoices.POST("/bulk-delete", r.handler.BulkDeleteInvoices)
	}

	variations := router.Group("/variations")
	{
		variations.GET("", r.handler.Variations)
		variations.DELETE("/:project/:id", r.handler.DeleteVariation)
	}
}
