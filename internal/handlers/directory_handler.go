package handlers

import (
	"net/http"
	"strconv"

	"buildtrack/internal/responses"
	"buildtrack/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// DirectoryHandler serves the cross-project listings and their edits.
type DirectoryHandler struct {
	directory   *services.DirectoryService
	consultants *services.ConsultantService
	invoices    *services.InvoiceService
	variations  *services.VariationService
	log         zerolog.Logger
}

func NewDirectoryHandler(directory *services.DirectoryService, consultants *services.ConsultantService, invoices *services.InvoiceService, variations *services.VariationService, log zerolog.Logger) *DirectoryHandler {
	return &DirectoryHandler{directory: directory, consultants: consultants, invoices: invoices, variations: variations, log: log}
}

type bulkDeleteRequest struct {
	Items []services.InvoiceRef `json:"items" binding:"required"`
}

// Owners handles GET /api/v1/owners
func (h *DirectoryHandler) Owners(c *gin.Context) {
	agg, err := h.directory.Owners(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, h.log, "list owners", err)
		return
	}
	responses.Success(c, http.StatusOK, agg, "")
}

// Consultants handles GET /api/v1/consultants
func (h *DirectoryHandler) Consultants(c *gin.Context) {
	agg, err := h.directory.Consultants(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, h.log, "list consultants", err)
		return
	}
	responses.Success(c, http.StatusOK, agg, "")
}

// UpdateConsultant handles PATCH /api/v1/consultants
func (h *DirectoryHandler) UpdateConsultant(c *gin.Context) {
	var edit services.ConsultantEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		badRequest(c, err, "Invalid request body")
		return
	}
	res, err := h.consultants.Propagate(c.Request.Context(), edit)
	if err != nil {
		respondError(c, h.log, "update consultant", err)
		return
	}
	responses.Success(c, http.StatusOK, res, res.Summary)
}

// Invoices handles GET /api/v1/invoices
func (h *DirectoryHandler) Invoices(c *gin.Context) {
	f := services.InvoiceFilter{
		Q:        c.Query("q"),
		Type:     c.Query("type"),
		Status:   c.Query("status"),
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
	}
	if raw := c.Query("project"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequest(c, err, "Invalid project filter")
			return
		}
		f.ProjectID = id
	}
	agg, err := h.directory.Invoices(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.log, "list invoices", err)
		return
	}
	responses.Success(c, http.StatusOK, agg, "")
}

// DeleteInvoice handles DELETE /api/v1/invoices/:type/:project/:id
func (h *DirectoryHandler) DeleteInvoice(c *gin.Context) {
	projectID, ok := int64Param(c, "project")
	if !ok {
		return
	}
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	ref := services.InvoiceRef{ID: id, Type: c.Param("type"), Project: projectID}
	if err := h.invoices.Delete(c.Request.Context(), ref); err != nil {
		respondError(c, h.log, "delete invoice", err)
		return
	}
	responses.Success(c, http.StatusOK, ref, "Invoice deleted")
}

// BulkDeleteInvoices handles POST /api/v1/invoices/bulk-delete
func (h *DirectoryHandler) BulkDeleteInvoices(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "Invalid request body")
		return
	}
	res := h.invoices.BulkDelete(c.Request.Context(), req.Items)
	responses.Success(c, http.StatusOK, res, res.Summary)
}

// Variations handles GET /api/v1/variations
func (h *DirectoryHandler) Variations(c *gin.Context) {
	agg, err := h.directory.Variations(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, h.log, "list variations", err)
		return
	}
	responses.Success(c, http.StatusOK, agg, "")
}

// DeleteVariation handles DELETE /api/v1/variations/:project/:id
func (h *DirectoryHandler) DeleteVariation(c *gin.Context) {
	projectID, ok := int64Param(c, "project")
	if !ok {
		return
	}
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	if err := h.variations.Delete(c.Request.Context(), projectID, id); err != nil {
		respondError(c, h.log, "delete variation", err)
		return
	}
	responses.Success(c, http.StatusOK, nil, "Variation deleted")
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v <= 0 {
		badRequest(c, nil, "Invalid "+name+" id")
		return 0, false
	}
	return v, true
}
