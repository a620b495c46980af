package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolgate/pickup-api/internal/service"
	appErrors "github.com/schoolgate/pickup-api/pkg/errors"
	"github.com/schoolgate/pickup-api/pkg/response"
)

// ChildHandler exposes child roster endpoints for the console.
type ChildHandler struct {
	children *service.ChildService
}

// NewChildHandler constructs ChildHandler.
func NewChildHandler(children *service.ChildService) *ChildHandler {
	return &ChildHandler{children: children}
}

// List godoc
// @Summary List children
// @Tags Children
// @Produce json
// @Param class query string false "Filter by class name"
// @Success 200 {object} response.Envelope
// @Router /admin/children [get]
func (h *ChildHandler) List(c *gin.Context) {
	children, err := h.children.List(c.Request.Context(), c.Query("class"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, children)
}

// Get godoc
// @Summary Get child detail
// @Tags Children
// @Produce json
// @Param id path string true "Child ID"
// @Success 200 {object} response.Envelope
// @Router /admin/children/{id} [get]
func (h *ChildHandler) Get(c *gin.Context) {
	child, err := h.children.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, child)
}

// Create godoc
// @Summary Enroll a child
// @Tags Children
// @Accept json
// @Produce json
// @Param payload body service.CreateChildRequest true "Child payload"
// @Success 201 {object} response.Envelope
// @Router /admin/children [post]
func (h *ChildHandler) Create(c *gin.Context) {
	var req service.CreateChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid child payload"))
		return
	}
	child, err := h.children.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, child)
}

// Update godoc
// @Summary Update a child
// @Tags Children
// @Accept json
// @Produce json
// @Param id path string true "Child ID"
// @Param payload body service.UpdateChildRequest true "Child payload"
// @Success 200 {object} response.Envelope
// @Router /admin/children/{id} [put]
func (h *ChildHandler) Update(c *gin.Context) {
	var req service.UpdateChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid child payload"))
		return
	}
	child, err := h.children.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, child)
}

// Delete godoc
// @Summary Remove a child
// @Tags Children
// @Produce json
// @Param id path string true "Child ID"
// @Success 204 {object} response.Envelope
// @Router /admin/children/{id} [delete]
func (h *ChildHandler) Delete(c *gin.Context) {
	if err := h.children.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
