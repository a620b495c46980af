package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolgate/pickup-api/internal/middleware"
	"github.com/schoolgate/pickup-api/internal/models"
	"github.com/schoolgate/pickup-api/internal/service"
	appErrors "github.com/schoolgate/pickup-api/pkg/errors"
	"github.com/schoolgate/pickup-api/pkg/response"
)

// MeHandler exposes the authenticated actor's own profile.
type MeHandler struct {
	roster *service.RosterService
}

// NewMeHandler constructs MeHandler.
func NewMeHandler(roster *service.RosterService) *MeHandler {
	return &MeHandler{roster: roster}
}

// Profile godoc
// @Summary Current actor profile
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me [get]
func (h *MeHandler) Profile(c *gin.Context) {
	auth, ok := middleware.CurrentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}

	result := models.LoginResult{Role: auth.Role, IsNewUser: auth.IsNew}
	switch auth.Role {
	case models.RoleGuardian:
		result.OpenID = auth.Guardian.OpenID
		result.User = auth.Guardian
	case models.RoleStaff:
		result.OpenID = auth.Staff.OpenID
		result.User = auth.Staff
	}
	response.JSON(c, http.StatusOK, result)
}

// SetAvatar godoc
// @Summary Upload an avatar
// @Tags Profile
// @Accept multipart/form-data
// @Produce json
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /me/avatar [post]
func (h *MeHandler) SetAvatar(c *gin.Context) {
	auth, ok := middleware.CurrentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "avatar file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "avatar could not be read"))
		return
	}
	defer file.Close() //nolint:errcheck

	url, err := h.roster.SetAvatar(c.Request.Context(), auth, fileHeader.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"avatar_url": url})
}
