package routes

import (
	"buildtrack/internal/handlers"

	"github.com/gin-gonic/gin"
)

type WizardRoutes struct {
	handler *handlers.WizardHandler
}

func NewWizardRoutes(handler *handlers.WizardHandler) *WizardRoutes {
	return &WizardRoutes{handler: handler}
}

func (r *WizardRoutes) RegisterRoutes(router *gin.RouterGroup) {
	sessions := router.Group("/wizard/sessions")
	{
		sessions.POST("", r.handler.StartSession)
		sessions.GET("/:sid", r.handler.GetSession)
		sessions.DELETE("/:sid", r.handler.DeleteSession)

		sessions.POST("/:sid/goto", r.handler.Goto)
		sessions.POST("/:sid/next", r.handler.Next)
		sessions.POST("/:sid/prev", r.handler.Prev)
		sessions.PUT("/:sid/view-mode", r.handler.SetViewMode)
		sessions.GET("/:sid/progress", r.handler.Progress)

		sessions.PUT("/:sid/setup", r.handler.SaveSetup)
		sessions.POST("/:sid/siteplan", r.handler.SaveSitePlan)
		sessions.POST("/:sid/siteplan/restore-owners", r.handler.RestoreOwners)
		sessions.POST("/:sid/license", r.handler.SaveLicense)
		sessions.GET("/:sid/contract", r.handler.ContractDraft)
		sessions.POST("/:sid/contract", r.handler.SaveContract)
		sessions.POST("/:sid/contract/preview", r.handler.PreviewContract)
		sessions.POST("/:sid/awarding", r.handler.SaveAwarding)
	}
}
