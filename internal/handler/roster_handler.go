package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolgate/pickup-api/internal/service"
	appErrors "github.com/schoolgate/pickup-api/pkg/errors"
	"github.com/schoolgate/pickup-api/pkg/response"
)

// RosterHandler exposes guardian, staff and link endpoints for the console.
type RosterHandler struct {
	roster *service.RosterService
	export *service.ExportService
}

// NewRosterHandler constructs RosterHandler.
func NewRosterHandler(roster *service.RosterService, export *service.ExportService) *RosterHandler {
	return &RosterHandler{roster: roster, export: export}
}

// ListGuardians godoc
// @Summary List guardians
// @Tags Roster
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/guardians [get]
func (h *RosterHandler) ListGuardians(c *gin.Context) {
	guardians, err := h.roster.ListGuardians(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, guardians)
}

// CreateGuardian godoc
// @Summary Register a guardian
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body service.CreateGuardianRequest true "Guardian payload"
// @Success 201 {object} response.Envelope
// @Router /admin/guardians [post]
func (h *RosterHandler) CreateGuardian(c *gin.Context) {
	var req service.CreateGuardianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid guardian payload"))
		return
	}
	guardian, err := h.roster.CreateGuardian(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, guardian)
}

// ListStaff godoc
// @Summary List staff
// @Tags Roster
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/staff [get]
func (h *RosterHandler) ListStaff(c *gin.Context) {
	staff, err := h.roster.ListStaff(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff)
}

// CreateStaff godoc
// @Summary Register a staff member
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body service.CreateStaffRequest true "Staff payload"
// @Success 201 {object} response.Envelope
// @Router /admin/staff [post]
func (h *RosterHandler) CreateStaff(c *gin.Context) {
	var req service.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid staff payload"))
		return
	}
	staff, err := h.roster.CreateStaff(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, staff)
}

// Bind godoc
// @Summary Link a guardian to a child
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body service.BindRequest true "Link payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/links [post]
func (h *RosterHandler) Bind(c *gin.Context) {
	var req service.BindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid link payload"))
		return
	}
	link, err := h.roster.Bind(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// Unbind godoc
// @Summary Unlink a guardian from a child
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body service.UnbindRequest true "Link payload"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/links [delete]
func (h *RosterHandler) Unbind(c *gin.Context) {
	var req service.UnbindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid link payload"))
		return
	}
	if err := h.roster.Unbind(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Download the pickup log
// @Tags Roster
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /admin/pickups/export [get]
func (h *RosterHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.FormatCSV)))
	result, err := h.export.Generate(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
