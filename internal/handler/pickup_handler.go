package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/schoolgate/pickup-api/internal/middleware"
	"github.com/schoolgate/pickup-api/internal/service"
	appErrors "github.com/schoolgate/pickup-api/pkg/errors"
	"github.com/schoolgate/pickup-api/pkg/response"
)

// PickupHandler exposes the pickup log to staff and guardians.
type PickupHandler struct {
	pickups *service.PickupService
}

// NewPickupHandler constructs PickupHandler.
func NewPickupHandler(pickups *service.PickupService) *PickupHandler {
	return &PickupHandler{pickups: pickups}
}

// Record godoc
// @Summary Record a pickup
// @Description Staff submit a pickup event with a mandatory photo
// @Tags Pickups
// @Accept multipart/form-data
// @Produce json
// @Param child_id formData string true "Child ID"
// @Param notes formData string false "Notes"
// @Param photo formData file true "Pickup photo"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /staff/pickups [post]
func (h *PickupHandler) Record(c *gin.Context) {
	auth, ok := middleware.CurrentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}

	var req service.RecordPickupRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pickup payload"))
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "photo is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "photo could not be read"))
		return
	}
	defer file.Close() //nolint:errcheck

	detail, err := h.pickups.Record(c.Request.Context(), auth.ActorID, req, fileHeader.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// ListForStaff godoc
// @Summary List recent pickups
// @Tags Pickups
// @Produce json
// @Param limit query int false "Max events" default(100)
// @Success 200 {object} response.Envelope
// @Router /staff/pickups [get]
func (h *PickupHandler) ListForStaff(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	events, err := h.pickups.ListForStaff(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events)
}

// ListForGuardian godoc
// @Summary List pickups of linked children
// @Tags Pickups
// @Produce json
// @Param limit query int false "Max events" default(100)
// @Success 200 {object} response.Envelope
// @Router /parent/pickups [get]
func (h *PickupHandler) ListForGuardian(c *gin.Context) {
	auth, ok := middleware.CurrentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	events, err := h.pickups.ListForGuardian(c.Request.Context(), auth.ActorID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events)
}

// GetForGuardian godoc
// @Summary Get one pickup of a linked child
// @Tags Pickups
// @Produce json
// @Param id path string true "Pickup event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /parent/pickups/{id} [get]
func (h *PickupHandler) GetForGuardian(c *gin.Context) {
	auth, ok := middleware.CurrentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	detail, err := h.pickups.GetForGuardian(c.Request.Context(), auth.ActorID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// Children godoc
// @Summary List linked children
// @Tags Pickups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /parent/children [get]
func (h *PickupHandler) Children(c *gin.Context) {
	auth, ok := middleware.CurrentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	children, err := h.pickups.ChildrenForGuardian(c.Request.Context(), auth.ActorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, children)
}
