package handlers

import (
	"net/http"

	"buildtrack/internal/models"
	"buildtrack/internal/responses"
	"buildtrack/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type WizardHandler struct {
	wizard *services.WizardService
	log    zerolog.Logger
}

func NewWizardHandler(wizard *services.WizardService, log zerolog.Logger) *WizardHandler {
	return &WizardHandler{wizard: wizard, log: log}
}

type startSessionRequest struct {
	ProjectID int64  `json:"project_id"`
	Step      string `json:"step"`
}

type gotoRequest struct {
	Index *int `json:"index" binding:"required"`
}

type viewModeRequest struct {
	View bool `json:"view"`
}

// StartSession handles POST /api/v1/wizard/sessions
func (h *WizardHandler) StartSession(c *gin.Context) {
	var req startSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err, "Invalid request body")
			return
		}
	}
	state, err := h.wizard.Start(c.Request.Context(), req.ProjectID, req.Step)
	if err != nil {
		respondError(c, h.log, "start wizard", err)
		return
	}
	responses.Success(c, http.StatusCreated, state, "Wizard session started")
}

// GetSession handles GET /api/v1/wizard/sessions/:sid
func (h *WizardHandler) GetSession(c *gin.Context) {
	state, err := h.wizard.Get(c.Request.Context(), c.Param("sid"))
	if err != nil {
		respondError(c, h.log, "load wizard", err)
		return
	}
	responses.Success(c, http.StatusOK, state, "")
}

// DeleteSession handles DELETE /api/v1/wizard/sessions/:sid
func (h *WizardHandler) DeleteSession(c *gin.Context) {
	if err := h.wizard.Discard(c.Request.Context(), c.Param("sid")); err != nil {
		respondError(c, h.log, "discard wizard", err)
		return
	}
	responses.Success(c, http.StatusOK, nil, "Draft discarded")
}

// Goto handles POST /api/v1/wizard/sessions/:sid/goto
func (h *WizardHandler) Goto(c *gin.Context) {
	var req gotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "Invalid request body")
		return
	}
	state, err := h.wizard.Goto(c.Request.Context(), c.Param("sid"), *req.Index)
	if err != nil {
		respondError(c, h.log, "goto step", err)
		return
	}
	responses.Success(c, http.StatusOK, state, "")
}

// Next handles POST /api/v1/wizard/sessions/:sid/next
func (h *WizardHandler) Next(c *gin.Context) {
	state, err := h.wizard.Next(c.Request.Context(), c.Param("sid"))
	if err != nil {
		respondError(c, h.log, "next step", err)
		return
	}
	responses.Success(c, http.StatusOK, state, "")
}

// Prev handles POST /api/v1/wizard/sessions/:sid/prev
func (h *WizardHandler) Prev(c *gin.Context) {
	state, err := h.wizard.Prev(c.Request.Context(), c.Param("sid"))
	if err != nil {
		respondError(c, h.log, "previous step", err)
		return
	}
	responses.Success(c, http.StatusOK, state, "")
}

// SetViewMode handles PUT /api/v1/wizard/sessions/:sid/view-mode
func (h *WizardHandler) SetViewMode(c *gin.Context) {
	var req viewModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "Invalid request body")
		return
	}
	state, err := h.wizard.SetViewMode(c.Request.Context(), c.Param("sid"), req.View)
	if err != nil {
		respondError(c, h.log, "toggle view mode", err)
		return
	}
	responses.Success(c, http.StatusOK, state, "")
}

// Progress handles GET /api/v1/wizard/sessions/:sid/progress
func (h *WizardHandler) Progress(c *gin.Context) {
	percent, ok := h.wizard.Progress(c.Param("sid"))
	responses.Success(c, http.StatusOK, gin.H{"percent": percent, "known": ok}, "")
}

// SaveSetup handles PUT /api/v1/wizard/sessions/:sid/setup
func (h *WizardHandler) SaveSetup(c *gin.Context) {
	var in services.SetupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err, "Invalid request body")
		return
	}
	res, err := h.wizard.SaveSetup(c.Request.Context(), c.Param("sid"), in)
	if err != nil {
		respondError(c, h.log, "save setup", err)
		return
	}
	responses.Success(c, http.StatusOK, res, "Setup saved")
}

// SaveSitePlan handles POST /api/v1/wizard/sessions/:sid/siteplan
func (h *WizardHandler) SaveSitePlan(c *gin.Context) {
	var sp models.SitePlan
	if err := bindPayload(c, &sp); err != nil {
		badRequest(c, err, "Invalid site plan payload")
		return
	}
	if err := attachSitePlanFiles(c, &sp); err != nil {
		badRequest(c, err, "Invalid upload")
		return
	}
	res, err := h.wizard.SaveSitePlan(c.Request.Context(), c.Param("sid"), &sp)
	if err != nil {
		respondError(c, h.log, "save site plan", err)
		return
	}
	responses.Success(c, http.StatusOK, res, "Site plan saved")
}

// RestoreOwners handles POST /api/v1/wizard/sessions/:sid/siteplan/restore-owners
func (h *WizardHandler) RestoreOwners(c *gin.Context) {
	n, state, err := h.wizard.RestoreOwners(c.Request.Context(), c.Param("sid"))
	if err != nil {
		respondError(c, h.log, "restore owners", err)
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"restored": n, "state": state}, "Owners restored")
}

// SaveLicense handles POST /api/v1/wizard/sessions/:sid/license
func (h *WizardHandler) SaveLicense(c *gin.Context) {
	var lic models.License
	if err := c.ShouldBindJSON(&lic); err != nil {
		badRequest(c, err, "Invalid license payload")
		return
	}
	res, err := h.wizard.SaveLicense(c.Request.Context(), c.Param("sid"), &lic)
	if err != nil {
		respondError(c, h.log, "save license", err)
		return
	}
	responses.Success(c, http.StatusOK, res, "License saved")
}

// ContractDraft handles GET /api/v1/wizard/sessions/:sid/contract
func (h *WizardHandler) ContractDraft(c *gin.Context) {
	ct, err := h.wizard.ContractDraft(c.Request.Context(), c.Param("sid"))
	if err != nil {
		respondError(c, h.log, "load contract", err)
		return
	}
	responses.Success(c, http.StatusOK, ct, "")
}

// PreviewContract handles POST /api/v1/wizard/sessions/:sid/contract/preview
func (h *WizardHandler) PreviewContract(c *gin.Context) {
	var ct models.Contract
	if err := c.ShouldBindJSON(&ct); err != nil {
		badRequest(c, err, "Invalid contract payload")
		return
	}
	responses.Success(c, http.StatusOK, h.wizard.PreviewContract(&ct), "")
}

// SaveContract handles POST /api/v1/wizard/sessions/:sid/contract
func (h *WizardHandler) SaveContract(c *gin.Context) {
	var ct models.Contract
	if err := bindPayload(c, &ct); err != nil {
		badRequest(c, err, "Invalid contract payload")
		return
	}
	if err := attachContractFiles(c, &ct); err != nil {
		badRequest(c, err, "Invalid upload")
		return
	}
	res, err := h.wizard.SaveContract(c.Request.Context(), c.Param("sid"), &ct)
	if err != nil {
		respondError(c, h.log, "save contract", err)
		return
	}
	responses.Success(c, http.StatusOK, res, "Contract saved")
}

// SaveAwarding handles POST /api/v1/wizard/sessions/:sid/awarding
func (h *WizardHandler) SaveAwarding(c *gin.Context) {
	var a models.Awarding
	if err := bindPayload(c, &a); err != nil {
		badRequest(c, err, "Invalid awarding payload")
		return
	}
	if err := attachAwardingFiles(c, &a); err != nil {
		badRequest(c, err, "Invalid upload")
		return
	}
	res, err := h.wizard.SaveAwarding(c.Request.Context(), c.Param("sid"), &a)
	if err != nil {
		respondError(c, h.log, "save awarding", err)
		return
	}
	responses.Success(c, http.StatusOK, res, "Awarding saved")
}
