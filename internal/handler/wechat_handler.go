package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/schoolgate/pickup-api/internal/middleware"
	"github.com/schoolgate/pickup-api/internal/models"
	"github.com/schoolgate/pickup-api/internal/service"
	"github.com/schoolgate/pickup-api/internal/wechat"
	appErrors "github.com/schoolgate/pickup-api/pkg/errors"
	"github.com/schoolgate/pickup-api/pkg/response"
)

type sessionExchanger interface {
	Code2Session(ctx context.Context, code string) (string, error)
	VerifySignature(signature, timestamp, nonce string) bool
}

// WeChatHandler handles mini-program login and official-account callbacks.
type WeChatHandler struct {
	client   sessionExchanger
	identity *service.IdentityService
	logger   *zap.Logger
}

// NewWeChatHandler constructs WeChatHandler.
func NewWeChatHandler(client sessionExchanger, identity *service.IdentityService, logger *zap.Logger) *WeChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeChatHandler{client: client, identity: identity, logger: logger}
}

// Login godoc
// @Summary Mini-program login
// @Description Resolve the caller into a guardian or staff profile. Accepts a
// @Description js_code for code exchange, falling back to the gateway header.
// @Tags WeChat
// @Accept json
// @Produce json
// @Param payload body object false "Optional {code}"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/wechat/login [post]
func (h *WeChatHandler) Login(c *gin.Context) {
	var payload struct {
		Code string `json:"code"`
	}
	// Body is optional; the gateway header alone is enough.
	_ = c.ShouldBindJSON(&payload)

	token := c.GetHeader(middleware.HeaderOpenID)
	if payload.Code != "" {
		openID, err := h.client.Code2Session(c.Request.Context(), payload.Code)
		if err != nil {
			h.logger.Warn("code exchange failed", zap.Error(err))
			response.Error(c, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "login code exchange failed"))
			return
		}
		token = openID
	}

	auth, err := h.identity.Resolve(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
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

// Verify godoc
// @Summary Callback URL verification
// @Tags WeChat
// @Produce plain
// @Param signature query string true "Signature"
// @Param timestamp query string true "Timestamp"
// @Param nonce query string true "Nonce"
// @Param echostr query string true "Echo string"
// @Success 200 {string} string
// @Router /wechat/callback [get]
func (h *WeChatHandler) Verify(c *gin.Context) {
	if !h.client.VerifySignature(c.Query("signature"), c.Query("timestamp"), c.Query("nonce")) {
		c.String(http.StatusForbidden, "invalid signature")
		return
	}
	c.String(http.StatusOK, c.Query("echostr"))
}

// Callback godoc
// @Summary Official-account event callback
// @Tags WeChat
// @Accept xml
// @Produce plain
// @Success 200 {string} string
// @Router /wechat/callback [post]
func (h *WeChatHandler) Callback(c *gin.Context) {
	if !h.client.VerifySignature(c.Query("signature"), c.Query("timestamp"), c.Query("nonce")) {
		c.String(http.StatusForbidden, "invalid signature")
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusOK, "success")
		return
	}
	event, err := wechat.ParseEvent(body)
	if err != nil {
		h.logger.Warn("unparseable callback event", zap.Error(err))
		c.String(http.StatusOK, "success")
		return
	}

	h.logger.Info("wechat callback event",
		zap.String("msg_type", event.MsgType),
		zap.String("event", event.Event),
		zap.String("from", event.FromUserName))

	if event.MsgType == "event" && event.Event == "subscribe" {
		// First contact may arrive through a subscribe event rather than a
		// login; provision the guardian right away.
		if _, err := h.identity.Resolve(c.Request.Context(), event.FromUserName); err != nil {
			h.logger.Warn("subscribe provisioning failed", zap.Error(err))
		}
	}

	c.String(http.StatusOK, "success")
}
